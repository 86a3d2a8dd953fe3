package runpod

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/gpuctl/rpctl/pkg/defaults"
	rperrors "github.com/gpuctl/rpctl/pkg/errors"
)

// WaitForStatus polls the pod until it reports the wanted status.
//
// Waiting for RUNNING also requires the runtime to be reported, since the
// desired status flips before the container is up. Waiting for TERMINATED
// succeeds once the pod is gone. Transient API errors are tolerated while
// polling; a pod that reaches a terminal status other than the wanted one
// fails the wait immediately.
func (c *Client) WaitForStatus(ctx context.Context, id string, status PodStatus, timeout time.Duration) (*Pod, error) {
	id, err := requirePodID(id)
	if err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, rperrors.New(rperrors.ErrCodeInvalidRequest, fmt.Sprintf("unknown pod status %q", status))
	}
	if timeout <= 0 {
		timeout = defaults.PodWaitTimeout
	}

	start := time.Now()
	defer func() {
		podWaitDuration.WithLabelValues(status.String()).Observe(time.Since(start).Seconds())
	}()

	var last *Pod
	gone := false
	err = wait.PollUntilContextTimeout(ctx, c.pollInterval, timeout, true, func(ctx context.Context) (bool, error) {
		pod, err := c.GetPod(ctx, id)
		if err != nil {
			if status == PodStatusTerminated && rperrors.IsCode(err, rperrors.ErrCodeNotFound) {
				gone = true
				return true, nil
			}
			if rperrors.IsRetryable(err) {
				slog.Debug("transient error while waiting for pod", "pod", id, "error", err)
				return false, nil
			}
			return false, err
		}

		last = pod
		slog.Debug("polled pod status", "pod", id, "status", pod.DesiredStatus, "want", status)

		if pod.DesiredStatus == status {
			if status == PodStatusRunning && pod.Runtime == nil {
				return false, nil
			}
			return true, nil
		}

		if pod.DesiredStatus.IsTerminal() {
			return false, rperrors.NewWithContext(rperrors.ErrCodeConflict,
				fmt.Sprintf("pod %s reached %s while waiting for %s", id, pod.DesiredStatus, status),
				map[string]any{"podId": id, "status": string(pod.DesiredStatus)})
		}
		return false, nil
	})

	if err != nil {
		if rperrors.CodeOf(err) != "" {
			return last, err
		}
		if wait.Interrupted(err) && ctx.Err() == nil {
			current := "unknown"
			if last != nil {
				current = string(last.DesiredStatus)
			}
			return last, rperrors.WrapWithContext(rperrors.ErrCodeTimeout,
				fmt.Sprintf("timed out after %s waiting for pod %s to be %s", timeout, id, status), err,
				map[string]any{"podId": id, "status": current})
		}
		return last, fmt.Errorf("waiting for pod %s: %w", id, err)
	}

	if gone {
		return &Pod{ID: id, DesiredStatus: PodStatusTerminated}, nil
	}
	return last, nil
}
