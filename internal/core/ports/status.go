package ports

import "github.com/melih/lighthouse-relay/internal/core/domain"

// StatusProvider exposes the progress of the running relay.
type StatusProvider interface {
	Status() domain.RelayStatus
}
