// Package api exposes the rpctl pod and GPU operations as a JSON REST API
// hosted by pkg/server.
//
// Routes:
//
//	GET    /v1/gpu-types[?q=query]
//	GET    /v1/pods[?status=RUNNING]
//	GET    /v1/pods/{id}
//	POST   /v1/pods                   CreatePodRequest, 201 on success
//	POST   /v1/pods/{id}/stop
//	POST   /v1/pods/{id}/start[?gpuCount=N]
//	DELETE /v1/pods/{id}              204 on success
//
// Pod env values whose keys look like secrets are always redacted in
// responses. Errors follow server.ErrorResponse.
package api
