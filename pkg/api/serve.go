package api

import (
	"context"
	"log/slog"

	"github.com/gpuctl/rpctl/pkg/runpod"
	"github.com/gpuctl/rpctl/pkg/server"
)

// Name is the service name reported by the API server.
const Name = "rpctl-api-server"

// ServeOptions configures Serve.
type ServeOptions struct {
	Version        string
	Commit         string
	Config         *server.Config
	RedactPatterns []string
}

// NewServer builds the API server without starting it.
func NewServer(client runpod.Interface, o ServeOptions) *server.Server {
	var hopts []HandlerOption
	if o.RedactPatterns != nil {
		hopts = append(hopts, WithRedactPatterns(o.RedactPatterns))
	}
	h := NewHandler(client, hopts...)

	opts := append([]server.Option{
		server.WithName(Name),
		server.WithVersion(o.Version),
		server.WithConfig(o.Config),
	}, h.Routes()...)

	return server.New(opts...)
}

// Serve runs the API server until ctx is canceled.
func Serve(ctx context.Context, client runpod.Interface, o ServeOptions) error {
	slog.Info("starting",
		"name", Name,
		"version", o.Version,
		"commit", o.Commit)

	if err := NewServer(client, o).Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}
