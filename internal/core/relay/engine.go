package relay

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/melih/lighthouse-relay/internal/core/domain"
	"github.com/melih/lighthouse-relay/internal/core/ports"
)

// Engine forwards a container's output to the log sink one line at a time.
//
// The loop is strictly sequential: line N+1 is not read before the append for
// line N has returned. The first failed append stops the relay; nothing is
// buffered or retried. Lines are echoed to the output writer only after the
// sink accepted them.
type Engine struct {
	sink   ports.LogSink
	target domain.LogSinkTarget
	out    io.Writer
	now    func() time.Time
	logger *zap.Logger

	mu     sync.RWMutex
	status domain.RelayStatus
}

type EngineOption func(*Engine)

// WithOutput sets where successfully relayed lines are echoed. Defaults to stdout.
func WithOutput(w io.Writer) EngineOption {
	return func(e *Engine) {
		e.out = w
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(sink ports.LogSink, target domain.LogSinkTarget, logger *zap.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		sink:   sink,
		target: target,
		out:    os.Stdout,
		now:    time.Now,
		logger: logger,
		status: domain.RelayStatus{
			State:  domain.Idle,
			Target: target,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run drains stream until it ends or an append fails.
func (e *Engine) Run(ctx context.Context, stream domain.LineStream) error {
	e.setState(domain.Streaming)

	for stream.Next() {
		event := domain.NewLogEvent(stream.Line(), e.now().Unix())

		if err := e.sink.AppendLogEvent(ctx, e.target, event); err != nil {
			e.fail(err)
			return err
		}

		if _, err := fmt.Fprintln(e.out, event.Message); err != nil {
			e.logger.Warn("failed to echo relayed line", zap.Error(err))
		}
		e.recordForwarded(event)
	}

	if err := stream.Err(); err != nil {
		if domain.KindOf(err) == domain.KindUnknown {
			err = domain.BackendError("unexpected error reading container output", err)
		}
		e.fail(err)
		return err
	}

	e.setState(domain.Drained)
	e.logger.Debug("container output drained", zap.Uint64("forwarded", e.Status().Forwarded))
	return nil
}

// Status returns a snapshot that is safe to read while Run is in progress.
func (e *Engine) Status() domain.RelayStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

func (e *Engine) setContainer(id string) {
	e.mu.Lock()
	e.status.ContainerID = id
	e.mu.Unlock()
}

func (e *Engine) setState(state domain.RelayState) {
	e.mu.Lock()
	e.status.State = state
	e.mu.Unlock()
}

func (e *Engine) recordError(err error) {
	e.mu.Lock()
	e.status.Error = err.Error()
	e.mu.Unlock()
}

func (e *Engine) fail(err error) {
	e.mu.Lock()
	e.status.State = domain.Failed
	e.status.Error = err.Error()
	e.mu.Unlock()
}

func (e *Engine) recordForwarded(event domain.LogEvent) {
	e.mu.Lock()
	e.status.Forwarded++
	e.status.LastMessage = event.Message
	e.status.LastForwardedAt = time.Unix(event.Timestamp, 0).UTC()
	e.mu.Unlock()
}
