package builder

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	"github.com/melih/lighthouse-relay/internal/core/domain"
	"github.com/melih/lighthouse-relay/internal/core/ports"
)

type imageBuilder interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
}

// cloneFunc clones url into dir. Swapped out in tests.
type cloneFunc func(ctx context.Context, dir, url string, progress io.Writer) error

type Adapter struct {
	cli      imageBuilder
	clone    cloneFunc
	progress io.Writer
	logger   *zap.Logger
}

var _ ports.BuilderService = (*Adapter)(nil)

// NewBuilderAdapter creates a builder talking to the local Docker daemon.
// Clone and build progress is written to progress.
func NewBuilderAdapter(progress io.Writer, logger *zap.Logger) (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, domain.BackendError(dockerHostMessage, fmt.Errorf("failed to create docker client: %w", err))
	}
	return &Adapter{cli: cli, clone: shallowClone, progress: progress, logger: logger}, nil
}

func shallowClone(ctx context.Context, dir, url string, progress io.Writer) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      url,
		Progress: progress,
		Depth:    1, // Shallow clone for speed
	})
	return err
}

// BuildImage clones a repo and builds a Docker image tagged imageName from
// the Dockerfile at its root.
func (a *Adapter) BuildImage(ctx context.Context, repoURL string, imageName string) (string, error) {
	// 1. Create temporary directory
	tmpDir, err := os.MkdirTemp("", "lighthouse-build-*")
	if err != nil {
		return "", domain.BackendError("failed to prepare build directory", err)
	}
	defer os.RemoveAll(tmpDir) // Clean up after build

	// 2. Clone Repository
	a.logger.Info("cloning repository", zap.String("repo", repoURL), zap.String("dir", tmpDir))
	if err := a.clone(ctx, tmpDir, repoURL, a.progress); err != nil {
		return "", classifyCloneError(repoURL, err)
	}

	// 3. Create Build Context (Tar)
	tar, err := archive.TarWithOptions(tmpDir, &archive.TarOptions{})
	if err != nil {
		return "", domain.BackendError("failed to create build context", err)
	}
	defer tar.Close()

	// 4. Build Docker Image
	a.logger.Info("building image", zap.String("image", imageName))
	resp, err := a.cli.ImageBuild(ctx, tar, build.ImageBuildOptions{
		Tags:       []string{imageName},
		Dockerfile: "Dockerfile",
		Remove:     true, // Remove intermediate containers
	})
	if err != nil {
		return "", classifyBuildError(repoURL, err)
	}
	defer resp.Body.Close()

	// The build only finishes once its output has been read; step failures
	// arrive inside the stream.
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, a.progress, 0, false, nil); err != nil {
		return "", classifyBuildError(repoURL, err)
	}

	return imageName, nil
}
