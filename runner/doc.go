// Package runner is the execution orchestrator.
//
// One Runner processes at most one execution at a time. A run stages the
// user's source in an exclusively owned temporary directory, creates a
// resource-constrained container with the staging directory mounted
// read-only, attaches to its output stream before starting it, demultiplexes
// the stream into line callbacks, races container exit against a wall-clock
// timeout, and always tears everything down: the container is force-removed
// and the staging directory deleted on every exit path.
//
// All failures inside a run are converted into system-channel lines plus a
// failure exit code; the only error Run itself returns is ErrBusy, raised
// synchronously when a run is already in flight.
package runner
