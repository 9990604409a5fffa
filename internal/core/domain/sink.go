package domain

import "strings"

// LogSinkTarget identifies the remote group/stream pair logs are relayed to.
type LogSinkTarget struct {
	Group  string `json:"group" yaml:"group"`
	Stream string `json:"stream" yaml:"stream"`
}

func (t LogSinkTarget) String() string {
	return t.Group + "/" + t.Stream
}

// LogEvent is a single relayed line. Timestamp is in whole seconds since the
// epoch and is taken when the line is forwarded, not when it was emitted.
type LogEvent struct {
	Timestamp int64
	Message   string
}

// NewLogEvent builds the event for one raw output line.
func NewLogEvent(line string, unixSeconds int64) LogEvent {
	return LogEvent{
		Timestamp: unixSeconds,
		Message:   strings.TrimSpace(line),
	}
}

// ProvisionResult is the outcome of an idempotent create call.
type ProvisionResult int

const (
	Created ProvisionResult = iota + 1
	AlreadyExisted
)

func (r ProvisionResult) String() string {
	switch r {
	case Created:
		return "created"
	case AlreadyExisted:
		return "already existed"
	default:
		return "unknown"
	}
}
