// Package defaults provides centralized configuration constants for rpctl.
//
// This package defines timeout values, rate limits, retry parameters and pod
// creation defaults used across the codebase. Centralizing these values ensures
// consistency and makes tuning easier.
//
// # Categories
//
//   - API client: request timeout, rate limit, retry backoff
//   - Pod lifecycle: status polling interval and wait timeout
//   - Pod creation: image, disk sizes, cloud type, mount path
//   - Server: HTTP timeouts, rate limits, shutdown
//
// # Usage
//
// Import and use constants directly:
//
//	import "github.com/gpuctl/rpctl/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.APIRequestTimeout)
//	defer cancel()
//
// # Guidelines
//
//   - API calls: 30s per request, retried up to 4 times for transient failures
//   - Pod waits: poll every 5s, give up after 10m
//   - Server shutdown: 30s for graceful shutdown
package defaults
