// Package runpod implements a client for the RunPod platform GraphQL API.
//
// # Overview
//
// The client covers the pod lifecycle and GPU type catalog used by rpctl:
//
//	c := runpod.New(runpod.WithAPIKey(os.Getenv("RUNPOD_API_KEY")))
//	types, err := c.ListGPUTypes(ctx)
//	pod, err := c.CreatePod(ctx, runpod.CreatePodInput{...})
//	pod, err = c.WaitForStatus(ctx, pod.ID, runpod.PodStatusRunning, 10*time.Minute)
//
// # Transport
//
// Every operation is a single GraphQL document posted to the endpoint with its
// variables; values are never interpolated into query text. Requests carry a
// bearer token, a User-Agent and an X-Request-ID.
//
// # Errors
//
// Failures are returned as *errors.StructuredError with codes derived from the
// HTTP status or the GraphQL error messages:
//
//	401, 403            UNAUTHORIZED
//	404, "not found"    NOT_FOUND
//	429                 RATE_LIMIT_EXCEEDED
//	5xx, network        SERVICE_UNAVAILABLE
//	deadline exceeded   TIMEOUT
//	no capacity         CONFLICT
//	other GraphQL       INVALID_REQUEST
//
// # Retries and rate limiting
//
// Requests pass a client-side token bucket (golang.org/x/time/rate) and are
// retried with exponential backoff for transient codes. Pod creation is not
// idempotent, so it is only retried when the API explicitly rejected it with 429.
package runpod
