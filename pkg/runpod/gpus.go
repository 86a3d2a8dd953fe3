package runpod

import (
	"context"
	"fmt"
	"strings"

	rperrors "github.com/gpuctl/rpctl/pkg/errors"
)

// ListGPUTypes returns every GPU type offered by the platform.
func (c *Client) ListGPUTypes(ctx context.Context) ([]GPUType, error) {
	var data struct {
		GPUTypes []GPUType `json:"gpuTypes"`
	}

	err := c.do(ctx, operation{
		name:       "GpuTypes",
		query:      queryGPUTypes,
		idempotent: true,
	}, &data)
	if err != nil {
		return nil, err
	}

	return data.GPUTypes, nil
}

// GetGPUType returns the GPU type with the exact given ID.
func (c *Client) GetGPUType(ctx context.Context, id string) (*GPUType, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, rperrors.New(rperrors.ErrCodeInvalidRequest, "gpu type id is required")
	}

	var data struct {
		GPUTypes []GPUType `json:"gpuTypes"`
	}

	err := c.do(ctx, operation{
		name:       "GpuType",
		query:      queryGPUType,
		variables:  map[string]any{"input": map[string]any{"id": id}},
		idempotent: true,
	}, &data)
	if err != nil {
		return nil, err
	}

	for i := range data.GPUTypes {
		if data.GPUTypes[i].ID == id {
			return &data.GPUTypes[i], nil
		}
	}

	return nil, rperrors.NewWithContext(rperrors.ErrCodeNotFound,
		fmt.Sprintf("gpu type %q not found", id), map[string]any{"gpuType": id})
}
