package server

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	rperrors "github.com/gpuctl/rpctl/pkg/errors"
)

type contextKey string

const (
	contextKeyRequestID  contextKey = "requestID"
	contextKeyAPIVersion contextKey = "apiVersion"

	// HeaderRequestID carries the request ID in both directions.
	HeaderRequestID = "X-Request-ID"
	// HeaderAPIVersion reports the negotiated API version.
	HeaderAPIVersion = "X-API-Version"

	// DefaultAPIVersion is used when the client does not ask for one.
	DefaultAPIVersion = "v1"
)

var (
	supportedAPIVersions = map[string]bool{"v1": true}
	vendorMediaType      = regexp.MustCompile(`application/vnd\.rpctl\.(v[0-9]+)\+json`)
	validRequestID       = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)
)

func isValidAPIVersion(v string) bool {
	return supportedAPIVersions[v]
}

// negotiateAPIVersion reads application/vnd.rpctl.vN+json from Accept and
// falls back to DefaultAPIVersion for anything it does not support.
func negotiateAPIVersion(r *http.Request) string {
	m := vendorMediaType.FindStringSubmatch(r.Header.Get("Accept"))
	if len(m) == 2 && isValidAPIVersion(m[1]) {
		return m[1]
	}
	return DefaultAPIVersion
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				panicsRecovered.Inc()
				slog.Error("panic in handler",
					"panic", fmt.Sprint(rec),
					"path", r.URL.Path,
					"requestID", RequestIDFromContext(r))
				WriteError(w, r, http.StatusInternalServerError, rperrors.ErrCodeInternal,
					"internal server error", true, nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if !validRequestID.MatchString(id) {
			id = uuid.New().String()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) withAPIVersion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := negotiateAPIVersion(r)
		w.Header().Set(HeaderAPIVersion, v)
		ctx := context.WithValue(r.Context(), contextKeyAPIVersion, v)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			rateLimitRejects.Inc()
			retryAfter := 1
			if l := float64(s.limiter.Limit()); l > 0 && l < 1 {
				retryAfter = int(math.Ceil(1 / l))
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			WriteError(w, r, http.StatusTooManyRequests, rperrors.ErrCodeRateLimitExceeded,
				"rate limit exceeded", true, map[string]any{
					"limit": float64(s.limiter.Limit()),
					"burst": s.limiter.Burst(),
				})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withTimeout(next http.Handler) http.Handler {
	if s.config.HandlerTimeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.HandlerTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) withObservability(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		elapsed := time.Since(start)
		httpRequestDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())
		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()

		slog.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed,
			"requestID", RequestIDFromContext(r),
			"remote_addr", r.RemoteAddr)
	})
}

// withMiddleware wraps an API handler in the full chain.
func (s *Server) withMiddleware(route string, h http.Handler) http.Handler {
	h = s.withObservability(route, h)
	h = s.withTimeout(h)
	h = s.withRateLimit(h)
	h = s.withAPIVersion(h)
	h = s.withRecovery(h)
	return s.withRequestID(h)
}
