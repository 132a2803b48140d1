package container

import (
	"context"
	"errors"
	"io"
)

// Sentinel errors distinguishing user-actionable failures from generic engine
// failures.
var (
	// ErrUnreachable means the container engine did not answer the health
	// check.
	ErrUnreachable = errors.New("container engine is not reachable")

	// ErrImageNotFound means the shared runtime image has not been built yet.
	ErrImageNotFound = errors.New("runtime image not found")
)

// CreateSpec describes the single container one execution session owns.
type CreateSpec struct {
	Image   string
	Command string // executed via sh -c
	WorkDir string

	// BindSource is mounted read-only at BindTarget.
	BindSource string
	BindTarget string

	// Resource envelope. MemoryBytes caps both memory and swap, so there is
	// no swap headroom beyond the limit.
	MemoryBytes int64
	CPUQuota    int64
	CPUPeriod   int64
	PidsLimit   int64

	NetworkMode string
	User        string
}

// Client is the capability surface the orchestrator consumes.
type Client interface {
	// Ping verifies the engine is reachable.
	Ping(ctx context.Context) error

	// EnsureImage verifies the named image exists locally.
	EnsureImage(ctx context.Context, name string) error

	// Create creates a container and returns its handle.
	Create(ctx context.Context, spec CreateSpec) (string, error)

	// Attach opens the multiplexed output stream. It must be called before
	// Start so no early output is lost.
	Attach(ctx context.Context, id string) (io.ReadCloser, error)

	// Start starts the container.
	Start(ctx context.Context, id string) error

	// Wait blocks until the container terminates and returns its exit code.
	Wait(ctx context.Context, id string) (int64, error)

	// Kill force-kills the container. Best-effort, errors are swallowed.
	Kill(ctx context.Context, id string)

	// Remove force-removes the container. Best-effort, errors are swallowed.
	Remove(ctx context.Context, id string)

	Close() error
}
