package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gpuctl/rpctl/pkg/defaults"
	rperrors "github.com/gpuctl/rpctl/pkg/errors"
	"github.com/gpuctl/rpctl/pkg/gpu"
	"github.com/gpuctl/rpctl/pkg/pod"
	"github.com/gpuctl/rpctl/pkg/runpod"
	"github.com/gpuctl/rpctl/pkg/serializer"
	"github.com/gpuctl/rpctl/pkg/server"
)

// maxBodyBytes bounds create request bodies.
const maxBodyBytes = 1 << 20

// CreatePodRequest is the body of POST /v1/pods. GPUType may be an ID or any
// query that resolves to a single GPU type.
type CreatePodRequest struct {
	Name              string            `json:"name"`
	Image             string            `json:"image"`
	GPUType           string            `json:"gpuType"`
	GPUCount          int               `json:"gpuCount,omitempty"`
	CloudType         string            `json:"cloudType,omitempty"`
	ContainerDiskInGB int               `json:"containerDiskInGb,omitempty"`
	VolumeInGB        int               `json:"volumeInGb,omitempty"`
	VolumeMountPath   string            `json:"volumeMountPath,omitempty"`
	Ports             string            `json:"ports,omitempty"`
	DockerArgs        string            `json:"dockerArgs,omitempty"`
	Env               map[string]string `json:"env,omitempty"`
}

// Handler serves the pod and GPU routes against a RunPod client.
type Handler struct {
	client         runpod.Interface
	redactPatterns []string
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithRedactPatterns overrides the env key patterns redacted in responses.
func WithRedactPatterns(patterns []string) HandlerOption {
	return func(h *Handler) {
		h.redactPatterns = patterns
	}
}

// NewHandler returns a Handler backed by client.
func NewHandler(client runpod.Interface, opts ...HandlerOption) *Handler {
	h := &Handler{
		client:         client,
		redactPatterns: defaults.RedactPatterns,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the server options registering every API route.
func (h *Handler) Routes() []server.Option {
	return []server.Option{
		server.WithHandler("GET /v1/gpu-types", h.ListGPUTypes),
		server.WithHandler("GET /v1/pods", h.ListPods),
		server.WithHandler("POST /v1/pods", h.CreatePod),
		server.WithHandler("GET /v1/pods/{id}", h.GetPod),
		server.WithHandler("DELETE /v1/pods/{id}", h.TerminatePod),
		server.WithHandler("POST /v1/pods/{id}/stop", h.StopPod),
		server.WithHandler("POST /v1/pods/{id}/start", h.StartPod),
	}
}

// ListGPUTypes handles GET /v1/gpu-types.
func (h *Handler) ListGPUTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.client.ListGPUTypes(r.Context())
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to list gpu types", nil)
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		sort.SliceStable(types, func(i, j int) bool { return types[i].DisplayName < types[j].DisplayName })
		serializer.RespondJSON(w, http.StatusOK, types)
		return
	}

	matches := gpu.Find(types, q)
	if len(matches) == 0 {
		suggestions := gpu.Suggest(types, q, gpu.DefaultSuggestions)
		server.WriteError(w, r, http.StatusNotFound, rperrors.ErrCodeNotFound,
			fmt.Sprintf("no gpu type matches %q", q), false,
			map[string]any{"query": q, "suggestions": suggestions})
		return
	}
	serializer.RespondJSON(w, http.StatusOK, matches)
}

// ListPods handles GET /v1/pods.
func (h *Handler) ListPods(w http.ResponseWriter, r *http.Request) {
	var want runpod.PodStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st, ok := runpod.ParsePodStatus(s)
		if !ok {
			server.WriteError(w, r, http.StatusBadRequest, rperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid status %q", s), false,
				map[string]any{"supported": runpod.SupportedPodStatuses()})
			return
		}
		want = st
	}

	pods, err := h.client.ListPods(r.Context())
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to list pods", nil)
		return
	}

	if want != "" {
		filtered := pods[:0]
		for _, p := range pods {
			if p.DesiredStatus == want {
				filtered = append(filtered, p)
			}
		}
		pods = filtered
	}

	serializer.RespondJSON(w, http.StatusOK, pod.RedactPods(pods, h.redactPatterns))
}

// GetPod handles GET /v1/pods/{id}.
func (h *Handler) GetPod(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := h.client.GetPod(r.Context(), id)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to get pod", map[string]any{"podId": id})
		return
	}
	serializer.RespondJSON(w, http.StatusOK, pod.RedactPod(p, h.redactPatterns))
}

// CreatePod handles POST /v1/pods.
func (h *Handler) CreatePod(w http.ResponseWriter, r *http.Request) {
	var req CreatePodRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		server.WriteError(w, r, http.StatusBadRequest, rperrors.ErrCodeInvalidRequest,
			"invalid request body", false, map[string]any{"error": err.Error()})
		return
	}

	spec, err := h.buildSpec(r, req)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to resolve gpu type", nil)
		return
	}
	if err := spec.Validate(); err != nil {
		server.WriteErrorFromErr(w, r, err, "invalid pod spec", nil)
		return
	}

	p, err := h.client.CreatePod(r.Context(), spec.Input())
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to create pod", nil)
		return
	}

	slog.Info("pod created", "podId", p.ID, "name", p.Name, "gpuType", spec.GPUTypeID,
		"requestID", server.RequestIDFromContext(r))
	w.Header().Set("Location", "/v1/pods/"+p.ID)
	serializer.RespondJSON(w, http.StatusCreated, pod.RedactPod(p, h.redactPatterns))
}

func (h *Handler) buildSpec(r *http.Request, req CreatePodRequest) (*pod.Spec, error) {
	opts := []pod.Option{
		pod.WithName(req.Name),
		pod.WithImage(req.Image),
		pod.WithPorts(req.Ports),
		pod.WithDockerArgs(req.DockerArgs),
	}
	if req.GPUCount != 0 {
		opts = append(opts, pod.WithGPUCount(req.GPUCount))
	}
	if req.CloudType != "" {
		opts = append(opts, pod.WithCloudType(req.CloudType))
	}
	if req.ContainerDiskInGB != 0 {
		opts = append(opts, pod.WithContainerDisk(req.ContainerDiskInGB))
	}
	if req.VolumeInGB != 0 {
		opts = append(opts, pod.WithVolume(req.VolumeInGB, req.VolumeMountPath))
	}
	if len(req.Env) > 0 {
		keys := make([]string, 0, len(req.Env))
		for k := range req.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		env := make([]runpod.EnvVar, 0, len(keys))
		for _, k := range keys {
			env = append(env, runpod.EnvVar{Key: k, Value: req.Env[k]})
		}
		opts = append(opts, pod.WithEnv(env...))
	}

	if strings.TrimSpace(req.GPUType) != "" {
		types, err := h.client.ListGPUTypes(r.Context())
		if err != nil {
			return nil, err
		}
		t, err := gpu.Resolve(types, req.GPUType)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pod.WithGPUType(t.ID))
	}

	return pod.NewSpec(opts...), nil
}

// StopPod handles POST /v1/pods/{id}/stop.
func (h *Handler) StopPod(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := h.client.StopPod(r.Context(), id)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to stop pod", map[string]any{"podId": id})
		return
	}
	serializer.RespondJSON(w, http.StatusOK, pod.RedactPod(p, h.redactPatterns))
}

// StartPod handles POST /v1/pods/{id}/start.
func (h *Handler) StartPod(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	gpuCount := defaults.GPUCount
	if s := r.URL.Query().Get("gpuCount"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			server.WriteError(w, r, http.StatusBadRequest, rperrors.ErrCodeInvalidRequest,
				"gpuCount must be a positive integer", false, map[string]any{"gpuCount": s})
			return
		}
		gpuCount = n
	}

	p, err := h.client.StartPod(r.Context(), id, gpuCount)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to start pod", map[string]any{"podId": id})
		return
	}
	serializer.RespondJSON(w, http.StatusOK, pod.RedactPod(p, h.redactPatterns))
}

// TerminatePod handles DELETE /v1/pods/{id}.
func (h *Handler) TerminatePod(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.client.TerminatePod(r.Context(), id); err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to terminate pod", map[string]any{"podId": id})
		return
	}
	slog.Info("pod terminated", "podId", id, "requestID", server.RequestIDFromContext(r))
	w.WriteHeader(http.StatusNoContent)
}
