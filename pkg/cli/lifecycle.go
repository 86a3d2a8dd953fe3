package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/gpuctl/rpctl/pkg/defaults"
	"github.com/gpuctl/rpctl/pkg/runpod"
)

// podActionFunc performs one action on one pod and returns its resulting status.
type podActionFunc func(ctx context.Context, id string) (runpod.PodStatus, error)

// runBatch applies fn to every id with bounded concurrency. Every id gets a
// result in input order; failures do not cancel the others.
func runBatch(ctx context.Context, action string, ids []string, fn podActionFunc) *BatchResult {
	res := &BatchResult{
		Header: newHeader(KindBatchResult),
		Items:  make([]PodAction, len(ids)),
	}

	g := new(errgroup.Group)
	g.SetLimit(defaults.BatchConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			start := time.Now()
			status, err := fn(ctx, id)
			item := PodAction{ID: id, Action: action, Status: status}
			if err != nil {
				item.Error = err.Error()
				slog.Warn("pod action failed", "action", action, "id", id, "error", err)
			} else {
				slog.Debug("pod action done", "action", action, "id", id, "status", status,
					"duration", time.Since(start))
			}
			res.Items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	return res
}

// finishBatch writes the result and fails if any action failed.
func (a *app) finishBatch(ctx context.Context, cmd *cli.Command, res *BatchResult) error {
	if err := a.write(ctx, cmd, res); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if n := res.Failed(); n > 0 {
		return fmt.Errorf("%s failed for %d of %d pods", res.Items[0].Action, n, len(res.Items))
	}
	return nil
}

func waitFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "wait",
		Usage: "wait until every pod reaches its target status",
	}
}

// settle waits for the target status when --wait is set.
func (a *app) settle(ctx context.Context, cmd *cli.Command, id string, status runpod.PodStatus, current runpod.PodStatus) (runpod.PodStatus, error) {
	if !cmd.Bool("wait") {
		return current, nil
	}
	p, err := a.runpod().WaitForStatus(ctx, id, status, cmd.Duration("wait-timeout"))
	if p != nil {
		current = p.DesiredStatus
	}
	return current, err
}

func stopPodCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "stop-pod",
		Usage:     "Stop one or more pods",
		ArgsUsage: "<pod-id>...",
		Description: `Stops pods, keeping their volume. Several IDs are processed concurrently
and every failure is reported.

Examples:
  rpctl stop-pod abc123
  rpctl stop-pod --wait abc123 def456`,
		Flags: append(outputFlags(), waitFlag(), waitTimeoutFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ids, err := requireArgs(cmd, "pod id")
			if err != nil {
				return err
			}
			res := runBatch(ctx, "stop", ids, func(ctx context.Context, id string) (runpod.PodStatus, error) {
				p, err := a.runpod().StopPod(ctx, id)
				if err != nil {
					return "", err
				}
				return a.settle(ctx, cmd, id, runpod.PodStatusExited, p.DesiredStatus)
			})
			return a.finishBatch(ctx, cmd, res)
		},
	}
}

func startPodCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "start-pod",
		Usage:     "Start (resume) one or more stopped pods",
		ArgsUsage: "<pod-id>...",
		Description: `Resumes stopped pods with the given GPU count. Several IDs are processed
concurrently and every failure is reported.

Examples:
  rpctl start-pod abc123
  rpctl start-pod --gpu-count 2 --wait abc123`,
		Flags: append(outputFlags(),
			&cli.IntFlag{Name: "gpu-count", Value: defaults.GPUCount, Usage: "number of GPUs to resume with"},
			waitFlag(),
			waitTimeoutFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ids, err := requireArgs(cmd, "pod id")
			if err != nil {
				return err
			}
			gpuCount := cmd.Int("gpu-count")
			if gpuCount < 1 {
				return fmt.Errorf("--gpu-count must be at least 1")
			}
			res := runBatch(ctx, "start", ids, func(ctx context.Context, id string) (runpod.PodStatus, error) {
				p, err := a.runpod().StartPod(ctx, id, gpuCount)
				if err != nil {
					return "", err
				}
				return a.settle(ctx, cmd, id, runpod.PodStatusRunning, p.DesiredStatus)
			})
			return a.finishBatch(ctx, cmd, res)
		},
	}
}

func terminatePodCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "terminate-pod",
		Usage:     "Terminate one or more pods permanently",
		ArgsUsage: "<pod-id>...",
		Description: `Terminates pods and deletes their container disk and volume. This cannot
be undone. More than one ID requires --yes.

Examples:
  rpctl terminate-pod abc123
  rpctl terminate-pod --yes abc123 def456`,
		Flags: append(outputFlags(),
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "confirm terminating several pods"},
			waitFlag(),
			waitTimeoutFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ids, err := requireArgs(cmd, "pod id")
			if err != nil {
				return err
			}
			if len(ids) > 1 && !cmd.Bool("yes") {
				return fmt.Errorf("refusing to terminate %d pods without --yes", len(ids))
			}
			res := runBatch(ctx, "terminate", ids, func(ctx context.Context, id string) (runpod.PodStatus, error) {
				if err := a.runpod().TerminatePod(ctx, id); err != nil {
					return "", err
				}
				return a.settle(ctx, cmd, id, runpod.PodStatusTerminated, runpod.PodStatusTerminated)
			})
			return a.finishBatch(ctx, cmd, res)
		},
	}
}
