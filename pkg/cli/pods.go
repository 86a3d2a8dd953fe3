package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/gpuctl/rpctl/pkg/defaults"
	rperrors "github.com/gpuctl/rpctl/pkg/errors"
	"github.com/gpuctl/rpctl/pkg/gpu"
	"github.com/gpuctl/rpctl/pkg/pod"
	"github.com/gpuctl/rpctl/pkg/runpod"
)

func showSecretsFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "show-secrets",
		Usage: "print env values whose keys look like secrets instead of ***",
	}
}

func waitTimeoutFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "wait-timeout",
		Value: defaults.PodWaitTimeout,
		Usage: "how long to wait for the pod to reach the target status",
	}
}

// redact hides secret env values unless --show-secrets is set.
func (a *app) redact(cmd *cli.Command, p *runpod.Pod) *runpod.Pod {
	if cmd.Bool("show-secrets") {
		return p
	}
	return pod.RedactPod(p, a.cfg.RedactPatterns)
}

func listPodsCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "list-pods",
		Usage: "List your pods",
		Description: `Lists every pod on the account with its status, GPU, image, hourly cost
and uptime.

Examples:
  rpctl list-pods
  rpctl list-pods --status RUNNING --json`,
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:  "status",
				Usage: fmt.Sprintf("only show pods in this status (%v)", runpod.SupportedPodStatuses()),
			},
			showSecretsFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var want runpod.PodStatus
			if s := cmd.String("status"); s != "" {
				st, ok := runpod.ParsePodStatus(s)
				if !ok {
					return fmt.Errorf("invalid status %q, supported values: %v", s, runpod.SupportedPodStatuses())
				}
				want = st
			}

			pods, err := a.runpod().ListPods(ctx)
			if err != nil {
				return fmt.Errorf("failed to list pods: %w", err)
			}

			items := make([]runpod.Pod, 0, len(pods))
			for i := range pods {
				if want != "" && pods[i].DesiredStatus != want {
					continue
				}
				items = append(items, *a.redact(cmd, &pods[i]))
			}

			return a.write(ctx, cmd, newPodList(items))
		},
	}
}

func getPodCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "get-pod",
		Usage:     "Show details of a pod",
		ArgsUsage: "<pod-id>",
		Flags:     append(outputFlags(), showSecretsFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := requireOneArg(cmd, "pod id")
			if err != nil {
				return err
			}

			p, err := a.runpod().GetPod(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get pod %s: %w", id, err)
			}

			return a.write(ctx, cmd, newPodDetail(a.redact(cmd, p)))
		},
	}
}

func createPodCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "create-pod",
		Usage: "Create an on-demand GPU pod",
		Description: `Creates an on-demand pod. --image, --gpu-type and the sizing flags fall
back to the defaults section of the config file when not given.

--gpu-type accepts an exact GPU type ID or any query that matches a single
type (see find-gpu). Environment variables are applied in this order, later
sources overriding earlier ones: config defaults, --env-file, --pass-aws-env,
--env. A bare --env KEY copies KEY from the local environment.

Examples:
  rpctl create-pod --name whisper --image runpod/pytorch:2.1.0-py3.10-cuda11.8.0-devel-ubuntu22.04 \
    --gpu-type "NVIDIA GeForce RTX 3070" --env MODE=scan --pass-aws-env --json
  rpctl create-pod --name dev --gpu-type 4090 --ports 8888/http,22/tcp --wait`,
		Flags: append(outputFlags(),
			&cli.StringFlag{Name: "name", Required: true, Usage: "pod name"},
			&cli.StringFlag{Name: "image", Usage: "container image"},
			&cli.StringFlag{Name: "gpu-type", Usage: "GPU type ID or unambiguous query"},
			&cli.IntFlag{Name: "gpu-count", Value: defaults.GPUCount, Usage: "number of GPUs"},
			&cli.StringFlag{
				Name:  "cloud-type",
				Value: defaults.CloudType,
				Usage: fmt.Sprintf("where to schedule the pod (%v)", runpod.SupportedCloudTypes()),
			},
			&cli.IntFlag{Name: "container-disk", Value: defaults.ContainerDiskInGB, Usage: "container disk in GB"},
			&cli.IntFlag{Name: "volume", Value: defaults.VolumeInGB, Usage: "persistent volume in GB (0 for none)"},
			&cli.StringFlag{Name: "volume-path", Value: defaults.VolumeMountPath, Usage: "volume mount path"},
			&cli.StringFlag{Name: "ports", Usage: "exposed ports, e.g. 8888/http,22/tcp"},
			&cli.StringFlag{Name: "docker-args", Usage: "container start command override"},
			&cli.StringSliceFlag{Name: "env", Aliases: []string{"e"}, Usage: "env var KEY=VALUE or KEY (repeatable)"},
			&cli.StringFlag{Name: "env-file", TakesFile: true, Usage: "read env vars from a dotenv file"},
			&cli.BoolFlag{Name: "pass-aws-env", Usage: "forward AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_DEFAULT_REGION"},
			&cli.BoolFlag{Name: "public-ip", Usage: "request a public IP"},
			&cli.BoolFlag{Name: "wait", Usage: "wait until the pod is RUNNING"},
			waitTimeoutFlag(),
			showSecretsFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			spec, err := a.buildSpec(ctx, cmd)
			if err != nil {
				return err
			}
			if err := spec.Validate(); err != nil {
				return err
			}

			slog.Debug("creating pod", "name", spec.Name, "image", spec.Image,
				"gpuType", spec.GPUTypeID, "gpuCount", spec.GPUCount, "env", len(spec.Env))

			p, err := a.runpod().CreatePod(ctx, spec.Input())
			if err != nil {
				return fmt.Errorf("failed to create pod %s: %w", spec.Name, err)
			}
			slog.Info("pod created", "id", p.ID, "name", p.Name)

			if cmd.Bool("wait") {
				p, err = a.runpod().WaitForStatus(ctx, p.ID, runpod.PodStatusRunning, cmd.Duration("wait-timeout"))
				if err != nil {
					return fmt.Errorf("pod %s created but did not become ready: %w", spec.Name, err)
				}
			}

			return a.write(ctx, cmd, newPodDetail(a.redact(cmd, p)))
		},
	}
}

// buildSpec assembles a pod spec from flags, falling back to config defaults.
func (a *app) buildSpec(ctx context.Context, cmd *cli.Command) (*pod.Spec, error) {
	d := a.cfg.Defaults

	pick := func(flag, fallback string) string {
		if cmd.IsSet(flag) || fallback == "" {
			return cmd.String(flag)
		}
		return fallback
	}
	pickInt := func(flag string, fallback int) int {
		if cmd.IsSet(flag) || fallback == 0 {
			return cmd.Int(flag)
		}
		return fallback
	}

	env := a.cfg.DefaultEnv()
	if path := cmd.String("env-file"); path != "" {
		fileEnv, err := pod.ParseEnvFile(path)
		if err != nil {
			return nil, err
		}
		env = pod.Merge(env, fileEnv...)
	}
	if cmd.Bool("pass-aws-env") {
		aws, err := pod.AWSPassThrough(a.lookupEnv)
		if err != nil {
			return nil, err
		}
		env = pod.Merge(env, aws...)
	}
	flagEnv, err := pod.ParseEnv(cmd.StringSlice("env"), a.lookupEnv)
	if err != nil {
		return nil, err
	}
	env = pod.Merge(env, flagEnv...)

	gpuType := pick("gpu-type", d.GPUType)
	if strings.TrimSpace(gpuType) != "" {
		id, err := a.resolveGPUType(ctx, gpuType)
		if err != nil {
			return nil, err
		}
		gpuType = id
	}

	opts := []pod.Option{
		pod.WithName(cmd.String("name")),
		pod.WithImage(pick("image", d.Image)),
		pod.WithGPUType(gpuType),
		pod.WithGPUCount(pickInt("gpu-count", d.GPUCount)),
		pod.WithCloudType(pick("cloud-type", d.CloudType)),
		pod.WithContainerDisk(pickInt("container-disk", d.ContainerDiskInGB)),
		pod.WithVolume(pickInt("volume", d.VolumeInGB), pick("volume-path", d.VolumeMountPath)),
		pod.WithPorts(pick("ports", d.Ports)),
		pod.WithDockerArgs(cmd.String("docker-args")),
		pod.WithEnv(env...),
	}
	if cmd.IsSet("public-ip") {
		opts = append(opts, pod.WithPublicIP(cmd.Bool("public-ip")))
	}

	return pod.NewSpec(opts...), nil
}

// resolveGPUType looks an exact id up directly and falls back to matching the
// query against every GPU type.
func (a *app) resolveGPUType(ctx context.Context, query string) (string, error) {
	t, err := a.runpod().GetGPUType(ctx, query)
	if err == nil {
		return t.ID, nil
	}
	if !rperrors.IsCode(err, rperrors.ErrCodeNotFound) {
		return "", fmt.Errorf("failed to look up gpu type %q: %w", query, err)
	}

	types, err := a.runpod().ListGPUTypes(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list gpu types: %w", err)
	}
	match, err := gpu.Resolve(types, query)
	if err != nil {
		return "", err
	}
	return match.ID, nil
}

func waitPodCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "wait-pod",
		Usage:     "Wait for a pod to reach a status",
		ArgsUsage: "<pod-id>",
		Description: `Polls the pod until it reaches --status. Waiting for RUNNING also
requires the container runtime to be up. A pod that is already gone counts as
TERMINATED. Exits with code 2 on timeout.

Examples:
  rpctl wait-pod --status RUNNING --wait-timeout 15m abc123`,
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:  "status",
				Value: string(runpod.PodStatusRunning),
				Usage: fmt.Sprintf("target status (%v)", runpod.SupportedPodStatuses()),
			},
			waitTimeoutFlag(),
			showSecretsFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := requireOneArg(cmd, "pod id")
			if err != nil {
				return err
			}
			status, ok := runpod.ParsePodStatus(cmd.String("status"))
			if !ok {
				return fmt.Errorf("invalid status %q, supported values: %v", cmd.String("status"), runpod.SupportedPodStatuses())
			}

			p, err := a.runpod().WaitForStatus(ctx, id, status, cmd.Duration("wait-timeout"))
			if err != nil {
				return fmt.Errorf("pod %s did not reach %s: %w", id, status, err)
			}
			return a.write(ctx, cmd, newPodDetail(a.redact(cmd, p)))
		},
	}
}
