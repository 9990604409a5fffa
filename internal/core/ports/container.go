package ports

import (
	"context"

	"github.com/melih/lighthouse-relay/internal/core/domain"
)

// ContainerRuntime defines the container operations a relay run needs.
// This interface allows us to switch between Docker, Podman, or a fake
// in tests without changing the relay logic.
//
// Every returned error is a *domain.ClassifiedError.
type ContainerRuntime interface {
	// PullImage resolves ref, fetching it if needed. An unknown image is a
	// UserInputError.
	PullImage(ctx context.Context, ref string) error
	// RunContainer starts a detached container and returns a handle whose
	// Output ends when the container exits.
	RunContainer(ctx context.Context, spec domain.RunSpec) (*domain.ContainerHandle, error)
	Close() error
}
