package relay

import (
	"context"

	"go.uber.org/zap"

	"github.com/melih/lighthouse-relay/internal/core/domain"
	"github.com/melih/lighthouse-relay/internal/core/ports"
)

// Job is everything one relay run needs to know.
type Job struct {
	Target     domain.LogSinkTarget
	Image      string
	BuildRepo  string
	Command    []string
	AutoRemove bool
}

// Dependencies are the gateways a Service drives. Builder may be nil when
// images are only ever pulled.
type Dependencies struct {
	Identity ports.IdentityVerifier
	Runtime  ports.ContainerRuntime
	Builder  ports.BuilderService
	Sink     ports.LogSink
}

// Service runs one container and relays its output.
type Service struct {
	deps        Dependencies
	job         Job
	provisioner *Provisioner
	engine      *Engine
	logger      *zap.Logger
}

var _ ports.StatusProvider = (*Service)(nil)

func NewService(deps Dependencies, job Job, logger *zap.Logger, opts ...EngineOption) *Service {
	return &Service{
		deps:        deps,
		job:         job,
		provisioner: NewProvisioner(deps.Sink, logger.Named("provisioner")),
		engine:      NewEngine(deps.Sink, job.Target, logger.Named("engine"), opts...),
		logger:      logger,
	}
}

// Run performs the whole relay. Nothing with side effects happens before the
// credentials are verified, and no container starts before the sink exists.
func (s *Service) Run(ctx context.Context) error {
	err := s.run(ctx)
	if err != nil {
		s.engine.recordError(err)
	}
	return err
}

func (s *Service) run(ctx context.Context) error {
	// 1. Verify credentials
	account, err := s.deps.Identity.VerifyCredentials(ctx)
	if err != nil {
		return err
	}
	s.logger.Debug("credentials verified", zap.String("account", account))

	// 2. Resolve image
	image, err := s.resolveImage(ctx)
	if err != nil {
		return err
	}

	// 3. Provision sink
	outcome, err := s.provisioner.Provision(ctx, s.job.Target)
	if err != nil {
		return err
	}
	s.logger.Info("log sink ready",
		zap.Stringer("target", s.job.Target),
		zap.Stringer("group", outcome.Group),
		zap.Stringer("stream", outcome.Stream),
	)

	// 4. Start container
	handle, err := s.deps.Runtime.RunContainer(ctx, domain.RunSpec{
		Image:      image,
		Command:    s.job.Command,
		AutoRemove: s.job.AutoRemove,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := handle.Output.Close(); err != nil {
			s.logger.Warn("failed to release container", zap.String("id", handle.ID), zap.Error(err))
		}
	}()
	s.engine.setContainer(handle.ID)
	s.logger.Info("container started", zap.String("id", handle.ID), zap.String("image", image))

	// 5. Relay output
	return s.engine.Run(ctx, handle.Output)
}

func (s *Service) resolveImage(ctx context.Context) (string, error) {
	if s.job.BuildRepo == "" {
		if err := s.deps.Runtime.PullImage(ctx, s.job.Image); err != nil {
			return "", err
		}
		return s.job.Image, nil
	}

	if s.deps.Builder == nil {
		return "", domain.UserInputError("building images from a repository is not supported here", nil)
	}
	return s.deps.Builder.BuildImage(ctx, s.job.BuildRepo, s.job.Image)
}

// Status reports the relay progress.
func (s *Service) Status() domain.RelayStatus {
	return s.engine.Status()
}
