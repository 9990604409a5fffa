package builder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/melih/lighthouse-relay/internal/core/domain"
)

const dockerHostMessage = "unexpected error on docker host side"

func classifyCloneError(repoURL string, err error) error {
	switch {
	case errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, transport.ErrEmptyRemoteRepository):
		return domain.UserInputError(fmt.Sprintf("invalid value for --build-repo: repository %q not found or empty", repoURL), err)
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod):
		return domain.UserInputError(fmt.Sprintf("invalid value for --build-repo: access to %q denied", repoURL), err)
	case strings.Contains(err.Error(), "unsupported scheme"),
		strings.Contains(err.Error(), "invalid URL"):
		return domain.UserInputError(fmt.Sprintf("invalid value for --build-repo: %q is not a git URL", repoURL), err)
	default:
		return domain.BackendError("unexpected error cloning repository", fmt.Errorf("failed to clone repo: %w", err))
	}
}

// classifyBuildError blames the repository for failures the build itself
// reports (missing Dockerfile, failing RUN step) and the daemon for the rest.
func classifyBuildError(repoURL string, err error) error {
	var jerr *jsonmessage.JSONError
	if errors.As(err, &jerr) {
		return domain.UserInputError(fmt.Sprintf("invalid value for --build-repo: building %q failed: %s", repoURL, jerr.Message), err)
	}
	if strings.Contains(err.Error(), "Cannot locate specified Dockerfile") {
		return domain.UserInputError(fmt.Sprintf("invalid value for --build-repo: %q has no Dockerfile", repoURL), err)
	}
	return domain.BackendError(dockerHostMessage, fmt.Errorf("failed to build image: %w", err))
}
