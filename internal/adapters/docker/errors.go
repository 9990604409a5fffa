package docker

import (
	"fmt"
	"strings"

	"github.com/docker/docker/client"

	"github.com/melih/lighthouse-relay/internal/core/domain"
)

const dockerHostMessage = "unexpected error on docker host side"

// Error messages vary between different backends (dockerd, podman, orbstack, etc)
// and between registries, so pull failures are matched on text as well as on
// the typed errdefs the daemon returns.

func isImageNotFoundError(err error) bool {
	if client.IsErrNotFound(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "image does not exist") ||
		strings.Contains(msg, "No such image") ||
		strings.Contains(msg, "manifest unknown") ||
		strings.Contains(msg, "not found: manifest") ||
		strings.Contains(msg, "repository does not exist")
}

func isInvalidReferenceError(err error) bool {
	return strings.Contains(err.Error(), "invalid reference format")
}

func isAuthorizationFailedError(err error) bool {
	msg := err.Error()

	// registry requires auth and none were provided
	if strings.Contains(msg, "no basic auth credentials") ||
		strings.Contains(msg, "pull access denied") {
		return true
	}

	// registry rejected the provided auth
	return strings.Contains(msg, "authorization failed") ||
		strings.Contains(msg, "401 Unauthorized") ||
		strings.Contains(msg, "unauthorized: authentication required")
}

func isContainerNotFoundError(err error) bool {
	if client.IsErrNotFound(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "container does not exist") ||
		strings.Contains(msg, "No such container")
}

func classifyPullError(ref string, err error) error {
	switch {
	case isImageNotFoundError(err), isAuthorizationFailedError(err):
		return domain.UserInputError(fmt.Sprintf("image %q not found", ref), err)
	case isInvalidReferenceError(err):
		return domain.UserInputError(fmt.Sprintf("invalid image reference %q", ref), err)
	default:
		return domain.BackendError(dockerHostMessage, fmt.Errorf("failed to pull image %q: %w", ref, err))
	}
}

func classifyRuntimeError(action string, err error) error {
	return domain.BackendError(dockerHostMessage, fmt.Errorf("failed to %s: %w", action, err))
}
