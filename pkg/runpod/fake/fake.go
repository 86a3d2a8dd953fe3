// Package fake provides an in-memory runpod.Interface for tests.
package fake

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	rperrors "github.com/gpuctl/rpctl/pkg/errors"
	"github.com/gpuctl/rpctl/pkg/runpod"
)

// Operation names accepted by FailOn.
const (
	OpListGPUTypes  = "ListGPUTypes"
	OpGetGPUType    = "GetGPUType"
	OpListPods      = "ListPods"
	OpGetPod        = "GetPod"
	OpCreatePod     = "CreatePod"
	OpStopPod       = "StopPod"
	OpStartPod      = "StartPod"
	OpTerminatePod  = "TerminatePod"
	OpWaitForStatus = "WaitForStatus"
)

// Client keeps GPU types and pods in memory. Stop moves a pod to EXITED,
// Start and Create to RUNNING, Terminate removes it.
//
// With SetSettleAfter, Stop, Start and Terminate only schedule their effect
// and WaitForStatus polls until it lands, like the real API.
type Client struct {
	mu          sync.Mutex
	gpuTypes    []runpod.GPUType
	pods        map[string]*runpod.Pod
	failures    map[string]error
	created     []runpod.CreatePodInput
	calls       map[string]int
	nextID      int
	settleAfter int
	pending     map[string]transition
	observed    map[string][]runpod.PodStatus
}

// transition is a lifecycle effect waiting to be applied.
type transition struct {
	status   runpod.PodStatus
	remove   bool
	gpuCount int
}

var _ runpod.Interface = (*Client)(nil)

// NewClient returns a fake seeded with the given GPU types and pods.
func NewClient(gpuTypes []runpod.GPUType, pods ...runpod.Pod) *Client {
	c := &Client{
		gpuTypes: gpuTypes,
		pods:     map[string]*runpod.Pod{},
		failures: map[string]error{},
		calls:    map[string]int{},
		pending:  map[string]transition{},
		observed: map[string][]runpod.PodStatus{},
	}
	for i := range pods {
		p := pods[i]
		c.pods[p.ID] = &p
	}
	return c
}

// FailOn makes every call to op return err. A nil err clears the failure.
func (c *Client) FailOn(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, op)
		return
	}
	c.failures[op] = err
}

// Created returns the inputs passed to CreatePod, in order.
func (c *Client) Created() []runpod.CreatePodInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]runpod.CreatePodInput(nil), c.created...)
}

// SetSettleAfter delays lifecycle effects until WaitForStatus has observed
// the previous state of the pod n times. Zero applies them immediately.
func (c *Client) SetSettleAfter(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleAfter = n
}

// Observed returns the statuses WaitForStatus saw for id before the wait
// finished, oldest first.
func (c *Client) Observed(id string) []runpod.PodStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]runpod.PodStatus(nil), c.observed[id]...)
}

// Calls returns how many times op was invoked.
func (c *Client) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// begin records the call and returns the injected failure, if any.
// The caller must hold c.mu.
func (c *Client) begin(ctx context.Context, op string) error {
	c.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.failures[op]
}

func notFound(id string) error {
	return rperrors.NewWithContext(rperrors.ErrCodeNotFound,
		fmt.Sprintf("pod %s not found", id), map[string]any{"podId": id})
}

func (c *Client) ListGPUTypes(ctx context.Context) ([]runpod.GPUType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpListGPUTypes); err != nil {
		return nil, err
	}
	return append([]runpod.GPUType(nil), c.gpuTypes...), nil
}

func (c *Client) GetGPUType(ctx context.Context, id string) (*runpod.GPUType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpGetGPUType); err != nil {
		return nil, err
	}
	for i := range c.gpuTypes {
		if c.gpuTypes[i].ID == id {
			t := c.gpuTypes[i]
			return &t, nil
		}
	}
	return nil, rperrors.New(rperrors.ErrCodeNotFound, fmt.Sprintf("gpu type %s not found", id))
}

func (c *Client) ListPods(ctx context.Context) ([]runpod.Pod, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpListPods); err != nil {
		return nil, err
	}
	out := make([]runpod.Pod, 0, len(c.pods))
	for _, p := range c.pods {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *Client) GetPod(ctx context.Context, id string) (*runpod.Pod, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpGetPod); err != nil {
		return nil, err
	}
	p, ok := c.pods[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *p
	return &cp, nil
}

func (c *Client) CreatePod(ctx context.Context, in runpod.CreatePodInput) (*runpod.Pod, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpCreatePod); err != nil {
		return nil, err
	}
	c.created = append(c.created, in)
	c.nextID++

	env := make([]string, 0, len(in.Env))
	for _, e := range in.Env {
		env = append(env, e.Key+"="+e.Value)
	}
	p := &runpod.Pod{
		ID:                fmt.Sprintf("pod-%03d", c.nextID),
		Name:              in.Name,
		ImageName:         in.ImageName,
		DesiredStatus:     runpod.PodStatusRunning,
		GPUCount:          in.GPUCount,
		ContainerDiskInGB: in.ContainerDiskInGB,
		VolumeInGB:        float64(in.VolumeInGB),
		VolumeMountPath:   in.VolumeMountPath,
		Ports:             in.Ports,
		DockerArgs:        in.DockerArgs,
		Env:               env,
		Machine:           &runpod.Machine{GPUDisplayName: in.GPUTypeID},
		Runtime:           &runpod.PodRuntime{},
	}
	c.pods[p.ID] = p
	cp := *p
	return &cp, nil
}

func (c *Client) setStatus(id string, status runpod.PodStatus) (*runpod.Pod, error) {
	p, ok := c.pods[id]
	if !ok {
		return nil, notFound(id)
	}
	p.DesiredStatus = status
	if status == runpod.PodStatusRunning {
		p.Runtime = &runpod.PodRuntime{}
	} else {
		p.Runtime = nil
	}
	cp := *p
	return &cp, nil
}

// schedule applies t now, or parks it for WaitForStatus when settling is
// delayed. It returns the pod as the caller sees it right after the call.
func (c *Client) schedule(id string, t transition) (*runpod.Pod, error) {
	p, ok := c.pods[id]
	if !ok {
		return nil, notFound(id)
	}
	if c.settleAfter > 0 {
		c.pending[id] = t
		cp := *p
		return &cp, nil
	}
	return c.apply(id, t)
}

func (c *Client) apply(id string, t transition) (*runpod.Pod, error) {
	if t.remove {
		delete(c.pods, id)
		return nil, nil
	}
	p, err := c.setStatus(id, t.status)
	if err != nil {
		return nil, err
	}
	if t.gpuCount > 0 {
		c.pods[id].GPUCount = t.gpuCount
		p.GPUCount = t.gpuCount
	}
	return p, nil
}

func (c *Client) StopPod(ctx context.Context, id string) (*runpod.Pod, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpStopPod); err != nil {
		return nil, err
	}
	return c.schedule(id, transition{status: runpod.PodStatusExited})
}

func (c *Client) StartPod(ctx context.Context, id string, gpuCount int) (*runpod.Pod, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpStartPod); err != nil {
		return nil, err
	}
	if gpuCount < 1 {
		return nil, rperrors.New(rperrors.ErrCodeInvalidRequest, "gpu count must be at least 1")
	}
	return c.schedule(id, transition{status: runpod.PodStatusRunning, gpuCount: gpuCount})
}

func (c *Client) TerminatePod(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpTerminatePod); err != nil {
		return err
	}
	_, err := c.schedule(id, transition{remove: true})
	return err
}

// WaitForStatus polls the in-memory state. Each poll past the settle count
// applies the pending transition for the pod; once nothing is pending and the
// status still differs, it reports TIMEOUT.
func (c *Client) WaitForStatus(ctx context.Context, id string, status runpod.PodStatus, _ time.Duration) (*runpod.Pod, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpWaitForStatus); err != nil {
		return nil, err
	}

	for poll := 0; ; poll++ {
		if t, ok := c.pending[id]; ok && poll >= c.settleAfter {
			delete(c.pending, id)
			if _, err := c.apply(id, t); err != nil {
				return nil, err
			}
		}

		p, ok := c.pods[id]
		if !ok {
			if status == runpod.PodStatusTerminated {
				return &runpod.Pod{ID: id, DesiredStatus: runpod.PodStatusTerminated}, nil
			}
			return nil, notFound(id)
		}
		if p.DesiredStatus == status {
			cp := *p
			return &cp, nil
		}
		if _, ok := c.pending[id]; !ok {
			cp := *p
			return &cp, rperrors.NewWithContext(rperrors.ErrCodeTimeout,
				fmt.Sprintf("pod %s did not reach %s", id, status),
				map[string]any{"podId": id, "status": string(p.DesiredStatus)})
		}
		c.observed[id] = append(c.observed[id], p.DesiredStatus)
	}
}
