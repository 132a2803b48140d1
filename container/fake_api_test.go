package container

import (
	"bufio"
	"bytes"
	"context"
	"sync"

	"github.com/docker/docker/api/types"
	typescontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

type createCall struct {
	config     *typescontainer.Config
	hostConfig *typescontainer.HostConfig
}

// fakeDockerAPI records calls and returns scripted results.
type fakeDockerAPI struct {
	mu sync.Mutex

	pingErr    error
	inspectErr error

	createErr   error
	createCalls []createCall

	attachData []byte
	attachErr  error

	startErr   error
	startCalls []string

	waitCode  int64
	waitErr   error
	waitBlock bool

	killCalls   []string
	removeCalls []string
	closed      bool
}

func (f *fakeDockerAPI) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeDockerAPI) Ping(context.Context) (types.Ping, error) {
	return types.Ping{}, f.pingErr
}

func (f *fakeDockerAPI) ImageInspectWithRaw(_ context.Context, _ string) (types.ImageInspect, []byte, error) {
	return types.ImageInspect{}, nil, f.inspectErr
}

func (f *fakeDockerAPI) ContainerCreate(_ context.Context, config *typescontainer.Config, hostConfig *typescontainer.HostConfig, _ *network.NetworkingConfig, _ *specs.Platform, _ string) (typescontainer.CreateResponse, error) {
	if f.createErr != nil {
		return typescontainer.CreateResponse{}, f.createErr
	}
	f.mu.Lock()
	f.createCalls = append(f.createCalls, createCall{config: config, hostConfig: hostConfig})
	f.mu.Unlock()
	return typescontainer.CreateResponse{ID: "container-0"}, nil
}

func (f *fakeDockerAPI) ContainerAttach(_ context.Context, _ string, _ typescontainer.AttachOptions) (types.HijackedResponse, error) {
	if f.attachErr != nil {
		return types.HijackedResponse{}, f.attachErr
	}
	return types.HijackedResponse{
		Reader: bufio.NewReader(bytes.NewReader(f.attachData)),
	}, nil
}

func (f *fakeDockerAPI) ContainerStart(_ context.Context, containerID string, _ typescontainer.StartOptions) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.startCalls = append(f.startCalls, containerID)
	f.mu.Unlock()
	return nil
}

func (f *fakeDockerAPI) ContainerWait(ctx context.Context, _ string, _ typescontainer.WaitCondition) (<-chan typescontainer.WaitResponse, <-chan error) {
	statusCh := make(chan typescontainer.WaitResponse, 1)
	errCh := make(chan error, 1)
	if f.waitBlock {
		return statusCh, errCh
	}
	if f.waitErr != nil {
		errCh <- f.waitErr
	} else {
		statusCh <- typescontainer.WaitResponse{StatusCode: f.waitCode}
	}
	return statusCh, errCh
}

func (f *fakeDockerAPI) ContainerKill(_ context.Context, containerID, _ string) error {
	f.mu.Lock()
	f.killCalls = append(f.killCalls, containerID)
	f.mu.Unlock()
	return nil
}

func (f *fakeDockerAPI) ContainerRemove(_ context.Context, containerID string, _ typescontainer.RemoveOptions) error {
	f.mu.Lock()
	f.removeCalls = append(f.removeCalls, containerID)
	f.mu.Unlock()
	return nil
}
