package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	rperrors "github.com/gpuctl/rpctl/pkg/errors"
	"github.com/gpuctl/rpctl/pkg/serializer"
)

// RootResponse is returned by GET /.
type RootResponse struct {
	Name      string   `json:"name" yaml:"name"`
	Version   string   `json:"version" yaml:"version"`
	Ready     bool     `json:"ready" yaml:"ready"`
	Timestamp string   `json:"timestamp" yaml:"timestamp"`
	Routes    []string `json:"routes" yaml:"routes"`
}

var systemRoutes = []string{"GET /health", "GET /ready", "GET /metrics"}

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	for _, r := range s.routes {
		mux.Handle(r.pattern, s.withMiddleware(r.pattern, r.handler))
	}

	// "/" matches every unregistered path, so anything other than the
	// exact root is a 404.
	mux.Handle("/", s.withRequestID(http.HandlerFunc(s.handleDefault)))

	return mux
}

func (s *Server) handleDefault(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, r, http.StatusNotFound, rperrors.ErrCodeNotFound,
			"no route for "+r.Method+" "+r.URL.Path, false, nil)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		WriteError(w, r, http.StatusMethodNotAllowed, rperrors.ErrCodeMethodNotAllowed,
			"method not allowed", false, nil)
		return
	}

	slog.Debug("handling default route",
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent())

	serializer.RespondJSON(w, http.StatusOK, RootResponse{
		Name:      s.name,
		Version:   s.version,
		Ready:     s.IsReady(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Routes:    append(append([]string{}, systemRoutes...), s.Routes()...),
	})
}
