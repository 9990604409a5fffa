package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/melih/lighthouse-relay/internal/adapters/builder"
	"github.com/melih/lighthouse-relay/internal/adapters/cloudwatch"
	"github.com/melih/lighthouse-relay/internal/adapters/docker"
	"github.com/melih/lighthouse-relay/internal/adapters/http"
	"github.com/melih/lighthouse-relay/internal/config"
	"github.com/melih/lighthouse-relay/internal/core/domain"
	"github.com/melih/lighthouse-relay/internal/core/relay"
	"github.com/melih/lighthouse-relay/internal/logging"
)

// Version is set at build time.
var Version = "dev"

const (
	exitBackend   = 1
	exitUserInput = 2
	exitInterrupt = 130
)

type options struct {
	cfg        config.Config
	configPath string
	verbose    bool
}

// NewRootCommand builds the lighthouse-relay command. Relayed lines go to
// stdout; logs and errors go to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "lighthouse-relay",
		Short: "Run a container and relay its output to CloudWatch Logs",
		Long: `Run a single container from an image and forward every line it prints
to a CloudWatch Logs group/stream, creating both if needed.

The relay stops when the container exits or on the first failed send.`,
		Version: Version,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return domain.UserInputError(fmt.Sprintf("unexpected argument %q", args[0]), nil)
			}
			return nil
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return domain.UserInputError(err.Error(), err)
	})

	setFlags(cmd.Flags(), opts)
	return cmd
}

func setFlags(flags *pflag.FlagSet, opts *options) {
	cfg := &opts.cfg
	flags.StringVar(&cfg.DockerImage, "docker-image", "", "Image to run (env "+config.EnvDockerImage+")")
	flags.StringVar(&cfg.BashCommand, "bash-command", "", "Command to run inside the container with /bin/sh -c (env "+config.EnvBashCommand+")")
	flags.StringVar(&cfg.BuildRepo, "build-repo", "", "Git repository to build --docker-image from instead of pulling it (env "+config.EnvBuildRepo+")")
	flags.BoolVar(&cfg.Remove, "rm", false, "Remove the container after it exits")
	flags.StringVar(&cfg.AWS.Region, "aws-region", "", "AWS region (env "+config.EnvRegion+")")
	flags.StringVar(&cfg.AWS.AccessKeyID, "aws-access-key-id", "", "AWS access key id (env "+config.EnvAccessKeyID+")")
	flags.StringVar(&cfg.AWS.SecretAccessKey, "aws-secret-access-key", "", "AWS secret access key (env "+config.EnvSecretAccessKey+")")
	flags.StringVar(&cfg.AWS.CloudWatchGroup, "aws-cloudwatch-group", "", "CloudWatch Logs group (env "+config.EnvCloudWatchGroup+")")
	flags.StringVar(&cfg.AWS.CloudWatchStream, "aws-cloudwatch-stream", "", "CloudWatch Logs stream (env "+config.EnvCloudWatchStream+")")
	flags.StringVar(&cfg.StatusAddr, "status-addr", "", "Serve relay status over HTTP on this address (env "+config.EnvStatusAddr+")")
	flags.StringVar(&opts.configPath, "config", "", "YAML file with default values (env "+config.EnvConfig+")")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
}

// loadConfig resolves flags, then environment, then the config file.
func loadConfig(opts *options, getenv func(string) string) (*config.Config, error) {
	cfg := opts.cfg
	cfg.FillFromEnv(getenv)

	path := opts.configPath
	if path == "" {
		path = getenv(config.EnvConfig)
	}
	if path != "" {
		file, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.FillFrom(file)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func run(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts, os.Getenv)
	if err != nil {
		return err
	}

	logger, err := logging.New("relay", opts.verbose)
	if err != nil {
		return domain.UserInputError(err.Error(), err)
	}
	defer logger.Sync() //nolint:errcheck

	err = interrupted(ctx, relayWith(ctx, cfg, logger, opts.verbose, stdout, stderr))
	var ce *domain.ClassifiedError
	if errors.As(err, &ce) {
		logger.Debug("relay failed", zap.Stringer("kind", ce.Kind), zap.String("cause", ce.Cause()))
	}
	return err
}

func relayWith(ctx context.Context, cfg *config.Config, logger *zap.Logger, verbose bool, stdout, stderr io.Writer) error {
	// 1. Initialize Adapters (Infrastructure)
	awsCfg, err := cloudwatch.LoadConfig(ctx, cloudwatch.Credentials{
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Region:          cfg.AWS.Region,
	})
	if err != nil {
		return err
	}

	var dockerOpts []docker.Option
	if verbose {
		dockerOpts = append(dockerOpts, docker.WithPullProgress(stderr))
	}
	dockerAdapter, err := docker.NewAdapter(logger.Named("docker"), dockerOpts...)
	if err != nil {
		return err
	}
	defer dockerAdapter.Close()

	deps := relay.Dependencies{
		Identity: cloudwatch.NewIdentityVerifier(awsCfg),
		Runtime:  dockerAdapter,
		Sink:     cloudwatch.NewSink(awsCfg),
	}
	if cfg.BuildRepo != "" {
		builderAdapter, err := builder.NewBuilderAdapter(stderr, logger.Named("builder"))
		if err != nil {
			return err
		}
		deps.Builder = builderAdapter
	}

	// 2. Dependency Injection: the service only sees ports.
	svc := relay.NewService(deps, relay.Job{
		Target:     cfg.Target(),
		Image:      cfg.DockerImage,
		BuildRepo:  cfg.BuildRepo,
		Command:    cfg.Command(),
		AutoRemove: cfg.Remove,
	}, logger, relay.WithOutput(stdout))

	// 3. Optional status endpoint
	if cfg.StatusAddr != "" {
		srv := http.NewServer(svc, logger.Named("status"))
		if err := srv.Start(cfg.StatusAddr); err != nil {
			return domain.UserInputError(fmt.Sprintf("invalid value for --status-addr: %v", err), err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("status server shutdown", zap.Error(err))
			}
		}()
	}

	// 4. Relay
	return svc.Run(ctx)
}

// interrupted reports a run that was cut short by a signal as an interrupt,
// whatever error the cancelled call surfaced.
func interrupted(ctx context.Context, err error) error {
	if err == nil || ctx.Err() == nil {
		return err
	}
	return fmt.Errorf("interrupted: %w", ctx.Err())
}

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return exitInterrupt
	}
	switch domain.KindOf(err) {
	case domain.KindUserInput:
		return exitUserInput
	default:
		return exitBackend
	}
}

// Execute runs the command with args and returns the exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return ExitCode(err)
	}
	return 0
}
