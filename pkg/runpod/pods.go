package runpod

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	rperrors "github.com/gpuctl/rpctl/pkg/errors"
)

func podIDInput(id string) map[string]any {
	return map[string]any{"input": map[string]any{"podId": id}}
}

func requirePodID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", rperrors.New(rperrors.ErrCodeInvalidRequest, "pod id is required")
	}
	return id, nil
}

func podNotFound(id string) error {
	return rperrors.NewWithContext(rperrors.ErrCodeNotFound,
		fmt.Sprintf("pod %q not found", id), map[string]any{"podId": id})
}

// ListPods returns all pods owned by the API key's account.
func (c *Client) ListPods(ctx context.Context) ([]Pod, error) {
	var data struct {
		Myself *struct {
			Pods []Pod `json:"pods"`
		} `json:"myself"`
	}

	err := c.do(ctx, operation{
		name:       "Pods",
		query:      queryPods,
		idempotent: true,
	}, &data)
	if err != nil {
		return nil, err
	}

	if data.Myself == nil {
		return []Pod{}, nil
	}
	if data.Myself.Pods == nil {
		return []Pod{}, nil
	}
	return data.Myself.Pods, nil
}

// GetPod returns a single pod by ID.
func (c *Client) GetPod(ctx context.Context, id string) (*Pod, error) {
	id, err := requirePodID(id)
	if err != nil {
		return nil, err
	}

	var data struct {
		Pod *Pod `json:"pod"`
	}

	err = c.do(ctx, operation{
		name:       "Pod",
		query:      queryPod,
		variables:  podIDInput(id),
		idempotent: true,
	}, &data)
	if err != nil {
		return nil, err
	}

	if data.Pod == nil || data.Pod.ID == "" {
		return nil, podNotFound(id)
	}
	return data.Pod, nil
}

// CreatePod deploys an on-demand pod.
func (c *Client) CreatePod(ctx context.Context, in CreatePodInput) (*Pod, error) {
	if in.Name == "" || in.ImageName == "" || in.GPUTypeID == "" {
		return nil, rperrors.New(rperrors.ErrCodeInvalidRequest, "name, image and gpu type are required")
	}

	var data struct {
		Pod *Pod `json:"podFindAndDeployOnDemand"`
	}

	slog.Debug("creating pod",
		"name", in.Name,
		"image", in.ImageName,
		"gpu_type", in.GPUTypeID,
		"gpu_count", in.GPUCount,
		"cloud_type", in.CloudType,
		"env_count", len(in.Env),
	)

	err := c.do(ctx, operation{
		name:      "CreatePod",
		query:     mutationCreatePod,
		variables: map[string]any{"input": in},
	}, &data)
	if err != nil {
		return nil, err
	}

	if data.Pod == nil || data.Pod.ID == "" {
		return nil, rperrors.New(rperrors.ErrCodeConflict, "runpod did not return a pod; no machine matched the request")
	}
	return data.Pod, nil
}

// StopPod stops a running pod, keeping its volume.
func (c *Client) StopPod(ctx context.Context, id string) (*Pod, error) {
	id, err := requirePodID(id)
	if err != nil {
		return nil, err
	}

	var data struct {
		Pod *Pod `json:"podStop"`
	}

	err = c.do(ctx, operation{
		name:       "StopPod",
		query:      mutationStopPod,
		variables:  podIDInput(id),
		idempotent: true,
	}, &data)
	if err != nil {
		return nil, err
	}

	if data.Pod == nil {
		return nil, podNotFound(id)
	}
	return data.Pod, nil
}

// StartPod resumes a stopped pod with the given GPU count.
func (c *Client) StartPod(ctx context.Context, id string, gpuCount int) (*Pod, error) {
	id, err := requirePodID(id)
	if err != nil {
		return nil, err
	}
	if gpuCount < 1 {
		return nil, rperrors.New(rperrors.ErrCodeInvalidRequest, "gpu count must be at least 1")
	}

	var data struct {
		Pod *Pod `json:"podResume"`
	}

	err = c.do(ctx, operation{
		name:  "StartPod",
		query: mutationStartPod,
		variables: map[string]any{"input": map[string]any{
			"podId":    id,
			"gpuCount": gpuCount,
		}},
		idempotent: true,
	}, &data)
	if err != nil {
		return nil, err
	}

	if data.Pod == nil {
		return nil, podNotFound(id)
	}
	return data.Pod, nil
}

// TerminatePod permanently deletes a pod and its volume.
func (c *Client) TerminatePod(ctx context.Context, id string) error {
	id, err := requirePodID(id)
	if err != nil {
		return err
	}

	return c.do(ctx, operation{
		name:       "TerminatePod",
		query:      mutationTerminatePod,
		variables:  podIDInput(id),
		idempotent: true,
	}, nil)
}
