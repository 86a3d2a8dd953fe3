package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/gpuctl/rpctl/pkg/config"
	rperrors "github.com/gpuctl/rpctl/pkg/errors"
	"github.com/gpuctl/rpctl/pkg/logging"
	"github.com/gpuctl/rpctl/pkg/pod"
	"github.com/gpuctl/rpctl/pkg/runpod"
)

const name = "rpctl"

var (
	// overridden during build with ldflags, e.g.
	// -X "github.com/gpuctl/rpctl/pkg/cli.version=1.0.0"
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes returned by Execute.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitCanceled = 2
)

// SetVersion records build information for --version and the API server.
func SetVersion(v, c, d string) {
	if v != "" {
		version = v
	}
	if c != "" {
		commit = c
	}
	if d != "" {
		date = d
	}
}

// app carries what commands share: resolved config, the RunPod client and
// the output streams.
type app struct {
	mu        sync.Mutex
	cfg       *config.Config
	client    runpod.Interface
	newClient func(*config.Config) runpod.Interface
	lookupEnv pod.LookupFunc
	stdout    io.Writer
	stderr    io.Writer
}

func newApp() *app {
	return &app{
		newClient: func(cfg *config.Config) runpod.Interface {
			return runpod.New(cfg.ClientOptions(version)...)
		},
		lookupEnv: os.LookupEnv,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
}

// runpod returns the RunPod client, building it on first use.
func (a *app) runpod() runpod.Interface {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		a.client = a.newClient(a.cfg)
	}
	return a.client
}

// Execute runs the CLI with os.Args and exits with the resulting code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, newApp(), os.Args)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, a *app, args []string) int {
	err := newRootCmd(a).Run(ctx, args)
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return exitCode(ctx, err)
}

// exitCode maps an error to the process exit code.
func exitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		ctx.Err() != nil, rperrors.IsCode(err, rperrors.ErrCodeTimeout):
		return ExitCanceled
	default:
		return ExitError
	}
}

func newRootCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:                      name,
		Usage:                     "Manage RunPod GPU pods from the command line",
		Version:                   fmt.Sprintf("%s (commit: %s, date: %s)", version, commit, date),
		EnableShellCompletion:     true,
		HideHelpCommand:           true,
		DisableSliceFlagSeparator: true,
		Writer:                    a.stdout,
		ErrWriter:                 a.stderr,
		// errors are reported by run, which also picks the exit code
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api-key",
				Usage: fmt.Sprintf("RunPod API key (default: $%s or config file)", config.EnvAPIKey),
			},
			&cli.StringFlag{
				Name:  "api-url",
				Usage: fmt.Sprintf("RunPod GraphQL endpoint (default: $%s or %s)", config.EnvAPIURL, "https://api.runpod.io/graphql"),
			},
			&cli.StringFlag{
				Name:      "config",
				Usage:     fmt.Sprintf("config file path (default: $%s or ~/.config/rpctl/config.yaml)", config.EnvConfig),
				TakesFile: true,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "per-request API timeout",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "write logs as JSON",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd, a.stderr)
			cfg, err := loadConfig(cmd)
			if err != nil {
				return ctx, err
			}
			a.cfg = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			listGPUTypesCmd(a),
			findGPUCmd(a),
			createPodCmd(a),
			listPodsCmd(a),
			getPodCmd(a),
			stopPodCmd(a),
			startPodCmd(a),
			terminatePodCmd(a),
			waitPodCmd(a),
			serveCmd(a),
		},
	}
}

func setupLogging(cmd *cli.Command, w io.Writer) {
	level := logging.LevelFromEnv()
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	if cmd.Bool("log-json") {
		logging.SetDefaultStructuredLogger(w, name, version, level)
		return
	}
	logging.SetDefaultLogger(w, level)
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("api-key") {
		cfg.APIKey = cmd.String("api-key")
	}
	if cmd.IsSet("api-url") {
		cfg.APIURL = cmd.String("api-url")
	}
	if cmd.IsSet("timeout") {
		cfg.Timeout = cmd.Duration("timeout")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("configuration loaded", "path", cfg.Path, "apiURL", cfg.APIURL, "hasAPIKey", cfg.APIKey != "")
	return cfg, nil
}
