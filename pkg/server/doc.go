// Package server provides the HTTP server that hosts the rpctl REST facade.
//
// The server owns the process-level endpoints and the middleware chain; the
// API routes themselves are registered by callers through WithHandler.
//
// System endpoints (no rate limiting):
//
//	GET /         service name, version, readiness and route list
//	GET /health   liveness
//	GET /ready    readiness, 503 until the listener is up
//	GET /metrics  Prometheus exposition
//
// Every API route passes through, outermost first: request ID assignment
// (X-Request-ID is honored or generated), panic recovery, API version
// negotiation, rate limiting (429 with Retry-After), a per-request timeout,
// access logging and request metrics.
//
// Errors are written as ErrorResponse documents whose code is one of the
// pkg/errors codes:
//
//	{"code":"NOT_FOUND","message":"pod not found","requestId":"...","timestamp":"...","retryable":false}
//
// Run blocks until its context is canceled, then shuts down gracefully
// within Config.ShutdownTimeout. When started under systemd it reports
// READY=1 and STOPPING=1 through sd_notify.
package server
