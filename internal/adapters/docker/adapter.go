package docker

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"go.uber.org/zap"

	"github.com/melih/lighthouse-relay/internal/core/domain"
	"github.com/melih/lighthouse-relay/internal/core/ports"
)

// dockerAPI is the part of the Docker SDK client the adapter uses.
type dockerAPI interface {
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	Close() error
}

// Adapter implements ports.ContainerRuntime using Docker SDK
type Adapter struct {
	cli      dockerAPI
	progress io.Writer
	logger   *zap.Logger
}

var _ ports.ContainerRuntime = (*Adapter)(nil)

type Option func(*Adapter)

// WithPullProgress sets where image pull progress is rendered. Pull output is
// discarded by default so it never mixes with relayed lines.
func WithPullProgress(w io.Writer) Option {
	return func(a *Adapter) {
		a.progress = w
	}
}

// NewAdapter creates a new Docker adapter instance
func NewAdapter(logger *zap.Logger, opts ...Option) (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, domain.BackendError(dockerHostMessage, fmt.Errorf("failed to create docker client: %w", err))
	}
	return newAdapter(cli, logger, opts...), nil
}

func newAdapter(cli dockerAPI, logger *zap.Logger, opts ...Option) *Adapter {
	a := &Adapter{cli: cli, progress: io.Discard, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PullImage fetches ref from its registry. Errors reported inside the pull
// progress stream are surfaced as well.
func (a *Adapter) PullImage(ctx context.Context, ref string) error {
	a.logger.Debug("pulling image", zap.String("image", ref))

	reader, err := a.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return classifyPullError(ref, err)
	}
	defer reader.Close()

	if err := jsonmessage.DisplayJSONMessagesStream(reader, a.progress, 0, false, nil); err != nil {
		return classifyPullError(ref, err)
	}
	return nil
}

// RunContainer creates and starts a detached container and follows its
// combined stdout/stderr.
func (a *Adapter) RunContainer(ctx context.Context, spec domain.RunSpec) (*domain.ContainerHandle, error) {
	// 1. Create Container
	resp, err := a.cli.ContainerCreate(ctx, &container.Config{
		Image:        spec.Image,
		Cmd:          spec.Command,
		AttachStdout: true,
		AttachStderr: true,
	}, nil, nil, nil, "")
	if err != nil {
		return nil, classifyRuntimeError("create container", err)
	}
	for _, w := range resp.Warnings {
		a.logger.Warn("docker warning", zap.String("warning", w))
	}

	// 2. Start Container
	if err := a.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		a.discard(spec, resp.ID)
		return nil, classifyRuntimeError("start container", err)
	}

	// 3. Follow logs until the container exits
	logs, err := a.cli.ContainerLogs(ctx, resp.ID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		a.discard(spec, resp.ID)
		return nil, classifyRuntimeError("follow container logs", err)
	}

	var onClose func() error
	if spec.AutoRemove {
		onClose = func() error { return a.removeContainer(resp.ID) }
	}

	return &domain.ContainerHandle{
		ID:     resp.ID,
		Output: newLineStream(logs, onClose),
	}, nil
}

// discard removes a container that never produced a handle, when the run
// asked for removal.
func (a *Adapter) discard(spec domain.RunSpec, id string) {
	if !spec.AutoRemove {
		return
	}
	if err := a.removeContainer(id); err != nil {
		a.logger.Warn("failed to remove container", zap.String("id", id), zap.Error(err))
	}
}

// removeContainer deletes an exited container. It runs after the relay, so it
// gets its own deadline instead of the relay context.
func (a *Adapter) removeContainer(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		if isContainerNotFoundError(err) {
			return nil
		}
		return classifyRuntimeError("remove container", err)
	}
	a.logger.Debug("container removed", zap.String("id", id))
	return nil
}

func (a *Adapter) Close() error {
	return a.cli.Close()
}
