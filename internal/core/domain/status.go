package domain

import "time"

// RelayState tracks the relay engine's lifecycle.
type RelayState int

const (
	Idle RelayState = iota
	Streaming
	Drained
	Failed
)

func (s RelayState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Drained:
		return "drained"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s RelayState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RelayStatus is a point-in-time snapshot of a relay run.
type RelayStatus struct {
	State           RelayState    `json:"state"`
	Target          LogSinkTarget `json:"target"`
	ContainerID     string        `json:"container_id,omitempty"`
	Forwarded       uint64        `json:"forwarded"`
	LastMessage     string        `json:"last_message,omitempty"`
	LastForwardedAt time.Time     `json:"last_forwarded_at,omitempty"`
	Error           string        `json:"error,omitempty"`
}
