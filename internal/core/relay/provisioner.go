package relay

import (
	"context"

	"go.uber.org/zap"

	"github.com/melih/lighthouse-relay/internal/core/domain"
	"github.com/melih/lighthouse-relay/internal/core/ports"
)

// ProvisionOutcome records what provisioning did to each half of the target.
type ProvisionOutcome struct {
	Group  domain.ProvisionResult
	Stream domain.ProvisionResult
}

// Provisioner makes sure the log group and stream exist before anything is
// appended to them.
type Provisioner struct {
	sink   ports.LogSink
	logger *zap.Logger
}

func NewProvisioner(sink ports.LogSink, logger *zap.Logger) *Provisioner {
	return &Provisioner{sink: sink, logger: logger}
}

// Provision ensures the group, then the stream inside it. It runs each call
// once with no retries; any error is fatal to the run.
func (p *Provisioner) Provision(ctx context.Context, target domain.LogSinkTarget) (ProvisionOutcome, error) {
	var outcome ProvisionOutcome

	group, err := p.sink.EnsureLogGroup(ctx, target.Group)
	if err != nil {
		return outcome, err
	}
	outcome.Group = group
	p.logger.Debug("log group ready",
		zap.String("group", target.Group),
		zap.Stringer("result", group),
	)

	stream, err := p.sink.EnsureLogStream(ctx, target.Group, target.Stream)
	if err != nil {
		return outcome, err
	}
	outcome.Stream = stream
	p.logger.Debug("log stream ready",
		zap.String("group", target.Group),
		zap.String("stream", target.Stream),
		zap.Stringer("result", stream),
	)

	return outcome, nil
}
