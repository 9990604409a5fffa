package ports

import (
	"context"

	"github.com/melih/lighthouse-relay/internal/core/domain"
)

// LogSink is the remote log backend. Every returned error is a
// *domain.ClassifiedError; "already exists" is reported through
// domain.AlreadyExisted, never as an error.
type LogSink interface {
	EnsureLogGroup(ctx context.Context, name string) (domain.ProvisionResult, error)
	EnsureLogStream(ctx context.Context, group, name string) (domain.ProvisionResult, error)
	// AppendLogEvent sends exactly one event. It is never retried internally.
	AppendLogEvent(ctx context.Context, target domain.LogSinkTarget, event domain.LogEvent) error
}

// IdentityVerifier checks the backend credentials before anything else runs.
type IdentityVerifier interface {
	// VerifyCredentials returns the account the credentials belong to.
	VerifyCredentials(ctx context.Context) (string, error)
}
