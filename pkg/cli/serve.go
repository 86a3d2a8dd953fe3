package cli

import (
	"context"

	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/gpuctl/rpctl/pkg/api"
	"github.com/gpuctl/rpctl/pkg/server"
)

func serveCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the REST API server",
		Description: `Serves the pod and GPU operations as a JSON REST API using the API key
from the config file or environment. Stops gracefully on SIGINT or SIGTERM.

Endpoints:
  GET    /v1/gpu-types[?q=]
  GET    /v1/pods[?status=]
  GET    /v1/pods/{id}
  POST   /v1/pods
  POST   /v1/pods/{id}/stop
  POST   /v1/pods/{id}/start[?gpuCount=]
  DELETE /v1/pods/{id}
  GET    /health, /ready, /metrics

Examples:
  RUNPOD_API_KEY=... rpctl serve --port 8080`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "address", Usage: "listen address (default: all interfaces)"},
			&cli.IntFlag{Name: "port", Usage: "listen port (default: $PORT or 8080)"},
			&cli.FloatFlag{Name: "rate-limit", Usage: "requests per second allowed across API routes (0 for unlimited)"},
			&cli.IntFlag{Name: "rate-limit-burst", Usage: "rate limiter burst size"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := server.DefaultConfig()
			if cmd.IsSet("address") {
				cfg.Address = cmd.String("address")
			}
			if cmd.IsSet("port") {
				cfg.Port = cmd.Int("port")
			}
			if cmd.IsSet("rate-limit") {
				cfg.RateLimit = rate.Limit(cmd.Float("rate-limit"))
			}
			if cmd.IsSet("rate-limit-burst") {
				cfg.RateLimitBurst = cmd.Int("rate-limit-burst")
			}

			return api.Serve(ctx, a.runpod(), api.ServeOptions{
				Version:        version,
				Commit:         commit,
				Config:         cfg,
				RedactPatterns: a.cfg.RedactPatterns,
			})
		},
	}
}
