package container

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	typescontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

// dockerAPI mirrors the slice of the engine SDK the client uses, so tests can
// inject a fake.
type dockerAPI interface {
	Close() error
	Ping(ctx context.Context) (types.Ping, error)
	ImageInspectWithRaw(ctx context.Context, imageID string) (types.ImageInspect, []byte, error)
	ContainerCreate(ctx context.Context, config *typescontainer.Config, hostConfig *typescontainer.HostConfig, networkingConfig *network.NetworkingConfig, platform *specs.Platform, containerName string) (typescontainer.CreateResponse, error)
	ContainerAttach(ctx context.Context, containerID string, options typescontainer.AttachOptions) (types.HijackedResponse, error)
	ContainerStart(ctx context.Context, containerID string, options typescontainer.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition typescontainer.WaitCondition) (<-chan typescontainer.WaitResponse, <-chan error)
	ContainerKill(ctx context.Context, containerID, signal string) error
	ContainerRemove(ctx context.Context, containerID string, options typescontainer.RemoveOptions) error
}

// DockerClient implements Client on top of the Docker engine API.
type DockerClient struct {
	api dockerAPI
}

// NewDockerClient connects to the engine using the standard environment
// configuration (DOCKER_HOST and friends).
func NewDockerClient() (Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return newDockerClient(cli), nil
}

func newDockerClient(api dockerAPI) *DockerClient {
	return &DockerClient{api: api}
}

func (d *DockerClient) Ping(ctx context.Context) error {
	if _, err := d.api.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return nil
}

func (d *DockerClient) EnsureImage(ctx context.Context, name string) error {
	_, _, err := d.api.ImageInspectWithRaw(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrImageNotFound, name)
		}
		return fmt.Errorf("inspect image %s: %w", name, err)
	}
	return nil
}

func (d *DockerClient) Create(ctx context.Context, spec CreateSpec) (string, error) {
	pids := spec.PidsLimit
	hostConfig := &typescontainer.HostConfig{
		Binds:       []string{fmt.Sprintf("%s:%s:ro", spec.BindSource, spec.BindTarget)},
		NetworkMode: typescontainer.NetworkMode(spec.NetworkMode),
		Resources: typescontainer.Resources{
			Memory:     spec.MemoryBytes,
			MemorySwap: spec.MemoryBytes,
			CPUQuota:   spec.CPUQuota,
			CPUPeriod:  spec.CPUPeriod,
			PidsLimit:  &pids,
		},
	}

	resp, err := d.api.ContainerCreate(
		ctx,
		&typescontainer.Config{
			Image:        spec.Image,
			Cmd:          []string{"sh", "-c", spec.Command},
			WorkingDir:   spec.WorkDir,
			User:         spec.User,
			AttachStdout: true,
			AttachStderr: true,
		},
		hostConfig,
		nil,
		nil,
		"",
	)
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	return resp.ID, nil
}

func (d *DockerClient) Attach(ctx context.Context, id string) (io.ReadCloser, error) {
	resp, err := d.api.ContainerAttach(ctx, id, typescontainer.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("attach container: %w", err)
	}
	return &attachStream{resp: resp}, nil
}

func (d *DockerClient) Start(ctx context.Context, id string) error {
	if err := d.api.ContainerStart(ctx, id, typescontainer.StartOptions{}); err != nil {
		return fmt.Errorf("start container: %w", err)
	}
	return nil
}

func (d *DockerClient) Wait(ctx context.Context, id string) (int64, error) {
	statusCh, errCh := d.api.ContainerWait(ctx, id, typescontainer.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.Error != nil {
			return status.StatusCode, fmt.Errorf("wait container: %s", status.Error.Message)
		}
		return status.StatusCode, nil
	case err := <-errCh:
		return 0, fmt.Errorf("wait container: %w", err)
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (d *DockerClient) Kill(_ context.Context, id string) {
	// Cleanup must never block reporting a result, so run on a fresh context
	// and swallow the error.
	_ = d.api.ContainerKill(context.Background(), id, "KILL")
}

func (d *DockerClient) Remove(_ context.Context, id string) {
	_ = d.api.ContainerRemove(context.Background(), id, typescontainer.RemoveOptions{Force: true})
}

func (d *DockerClient) Close() error {
	return d.api.Close()
}

// attachStream adapts a hijacked attach response to io.ReadCloser.
type attachStream struct {
	resp types.HijackedResponse
}

func (s *attachStream) Read(p []byte) (int, error) {
	return s.resp.Reader.Read(p)
}

func (s *attachStream) Close() error {
	if s.resp.Conn != nil {
		s.resp.Close()
	}
	return nil
}
