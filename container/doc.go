// Package container is the thin capability surface over the container engine.
//
// The Client interface exposes exactly the operations the orchestrator needs:
// health check, image inspection, and the create/attach/start/wait/kill/remove
// lifecycle of a single container. The Docker implementation wraps the
// official engine SDK; kill and remove are best-effort because cleanup must
// never block reporting a result.
//
// The package also provides Demuxer, which decodes the multiplexed byte
// stream a container attach produces (via stdcopy) and emits complete output
// lines per stream.
package container
