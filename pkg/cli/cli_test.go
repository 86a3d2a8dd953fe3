package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpuctl/rpctl/pkg/config"
	rperrors "github.com/gpuctl/rpctl/pkg/errors"
	"github.com/gpuctl/rpctl/pkg/runpod"
	"github.com/gpuctl/rpctl/pkg/runpod/fake"
)

var testGPUTypes = []runpod.GPUType{
	{
		ID: "NVIDIA GeForce RTX 3070", DisplayName: "RTX 3070", MemoryInGB: 8,
		CommunityCloud: true, LowestPrice: &runpod.GPUPrice{UninterruptablePrice: 0.13},
	},
	{
		ID: "NVIDIA A100 80GB PCIe", DisplayName: "A100 80GB", MemoryInGB: 80,
		SecureCloud: true, LowestPrice: &runpod.GPUPrice{UninterruptablePrice: 1.64},
	},
	{
		ID: "NVIDIA GeForce RTX 4090", DisplayName: "RTX 4090", MemoryInGB: 24,
		SecureCloud: true, CommunityCloud: true,
	},
}

func testPods() []runpod.Pod {
	return []runpod.Pod{
		{
			ID: "pod-a", Name: "alpha", ImageName: "runpod/pytorch:latest",
			DesiredStatus: runpod.PodStatusRunning, GPUCount: 1, CostPerHr: 0.2,
			Env:     []string{"MODE=scan", "AWS_SECRET_ACCESS_KEY=hunter2"},
			Machine: &runpod.Machine{GPUDisplayName: "RTX 3070"},
			Runtime: &runpod.PodRuntime{UptimeInSeconds: 90},
		},
		{
			ID: "pod-b", Name: "beta", ImageName: "ubuntu:22.04",
			DesiredStatus: runpod.PodStatusExited, GPUCount: 2,
		},
	}
}

type testEnv struct {
	app    *app
	client *fake.Client
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	env    map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(config.EnvAPIKey, "test-key")
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvConfig, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("LOG_LEVEL", "")

	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	e := &testEnv{
		client: fake.NewClient(testGPUTypes, testPods()...),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		env:    map[string]string{},
	}
	e.app = &app{
		newClient: func(*config.Config) runpod.Interface { return e.client },
		lookupEnv: func(key string) (string, bool) {
			v, ok := e.env[key]
			return v, ok
		},
		stdout: e.stdout,
		stderr: e.stderr,
	}
	return e
}

func (e *testEnv) run(args ...string) int {
	e.stdout.Reset()
	e.stderr.Reset()
	return run(context.Background(), e.app, append([]string{name}, args...))
}

func (e *testEnv) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.stdout.Bytes(), v), "stdout: %s", e.stdout.String())
}

type gpuListOutput struct {
	Kind  string           `json:"kind"`
	Items []runpod.GPUType `json:"items"`
}

type podListOutput struct {
	Kind  string       `json:"kind"`
	Items []runpod.Pod `json:"items"`
}

type podOutput struct {
	Kind       string      `json:"kind"`
	APIVersion string      `json:"apiVersion"`
	Pod        *runpod.Pod `json:"pod"`
}

type batchOutput struct {
	Kind  string      `json:"kind"`
	Items []PodAction `json:"items"`
}

func TestListGPUTypes(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, ExitOK, e.run("list-gpu-types", "--json"), e.stderr.String())

	var out gpuListOutput
	e.decode(t, &out)
	assert.Equal(t, KindGPUTypeList, out.Kind)
	require.Len(t, out.Items, 3)
	assert.Equal(t, "A100 80GB", out.Items[0].DisplayName, "sorted by display name")
	assert.Equal(t, "RTX 4090", out.Items[2].DisplayName)
}

func TestListGPUTypes_Table(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, ExitOK, e.run("list-gpu-types"), e.stderr.String())

	out := e.stdout.String()
	assert.Contains(t, out, "PRICE/HR")
	assert.Contains(t, out, "NVIDIA GeForce RTX 3070")
	assert.Contains(t, out, "$1.64")
}

func TestListGPUTypes_APIError(t *testing.T) {
	e := newTestEnv(t)
	e.client.FailOn(fake.OpListGPUTypes, rperrors.New(rperrors.ErrCodeUnauthorized, "invalid api key"))

	assert.Equal(t, ExitError, e.run("list-gpu-types"))
	assert.Contains(t, e.stderr.String(), "invalid api key")
}

func TestFindGPU(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantIDs  []string
		errMsg   string
	}{
		{
			name:    "number fragment",
			args:    []string{"find-gpu", "--json", "3070"},
			wantIDs: []string{"NVIDIA GeForce RTX 3070"},
		},
		{
			name:    "query split across args",
			args:    []string{"find-gpu", "--json", "rtx", "4090"},
			wantIDs: []string{"NVIDIA GeForce RTX 4090"},
		},
		{
			name:     "no match suggests",
			args:     []string{"find-gpu", "rtx 3080"},
			wantCode: ExitError,
			errMsg:   "did you mean",
		},
		{
			name:     "missing query",
			args:     []string{"find-gpu"},
			wantCode: ExitError,
			errMsg:   "query is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)

			code := e.run(tt.args...)
			require.Equal(t, tt.wantCode, code, e.stderr.String())
			if tt.errMsg != "" {
				assert.Contains(t, e.stderr.String(), tt.errMsg)
				return
			}

			var out gpuListOutput
			e.decode(t, &out)
			ids := make([]string, 0, len(out.Items))
			for _, it := range out.Items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestCreatePod(t *testing.T) {
	e := newTestEnv(t)
	e.env = map[string]string{
		"AWS_ACCESS_KEY_ID":     "AKIA123",
		"AWS_SECRET_ACCESS_KEY": "s3cr3t",
		"AWS_DEFAULT_REGION":    "us-east-1",
	}

	code := e.run("create-pod",
		"--name", "whisper",
		"--image", "runpod/pytorch",
		"--gpu-type", "3070",
		"--env", "MODE=scan",
		"--env", "AWS_DEFAULT_REGION=eu-west-1",
		"--pass-aws-env",
		"--json",
	)
	require.Equal(t, ExitOK, code, e.stderr.String())

	created := e.client.Created()
	require.Len(t, created, 1)
	in := created[0]
	assert.Equal(t, "whisper", in.Name)
	assert.Equal(t, "runpod/pytorch:latest", in.ImageName)
	assert.Equal(t, "NVIDIA GeForce RTX 3070", in.GPUTypeID)
	assert.Equal(t, 1, in.GPUCount)
	assert.Equal(t, []runpod.EnvVar{
		{Key: "AWS_ACCESS_KEY_ID", Value: "AKIA123"},
		{Key: "AWS_SECRET_ACCESS_KEY", Value: "s3cr3t"},
		{Key: "AWS_DEFAULT_REGION", Value: "eu-west-1"},
		{Key: "MODE", Value: "scan"},
	}, in.Env, "--env overrides pass-through values")

	var out podOutput
	e.decode(t, &out)
	assert.Equal(t, KindPod, out.Kind)
	require.NotNil(t, out.Pod)
	assert.Equal(t, "pod-001", out.Pod.ID)
	assert.Contains(t, out.Pod.Env, "AWS_SECRET_ACCESS_KEY=***")
	assert.Contains(t, out.Pod.Env, "MODE=scan")
	assert.NotContains(t, e.stdout.String(), "s3cr3t")
}

func TestCreatePod_ShowSecrets(t *testing.T) {
	e := newTestEnv(t)

	code := e.run("create-pod", "--name", "job", "--image", "ubuntu", "--gpu-type", "4090",
		"-e", "API_TOKEN=abc", "--show-secrets", "--json")
	require.Equal(t, ExitOK, code, e.stderr.String())

	var out podOutput
	e.decode(t, &out)
	assert.Contains(t, out.Pod.Env, "API_TOKEN=abc")
}

func TestCreatePod_EnvFile(t *testing.T) {
	e := newTestEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("# queue\nQUEUE=videos\nMODE=file\n"), 0o600))

	code := e.run("create-pod", "--name", "job", "--image", "ubuntu", "--gpu-type", "4090",
		"--env-file", path, "--env", "MODE=flag", "--json")
	require.Equal(t, ExitOK, code, e.stderr.String())

	in := e.client.Created()[0]
	assert.Equal(t, []runpod.EnvVar{
		{Key: "MODE", Value: "flag"},
		{Key: "QUEUE", Value: "videos"},
	}, in.Env, "file keys are sorted, --env overrides in place")
}

func TestCreatePod_ConfigDefaults(t *testing.T) {
	e := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
defaults:
  image: runpod/base:0.6.2
  gpuType: A100
  containerDiskInGb: 50
  env:
    TZ: UTC
`), 0o600))

	code := e.run("--config", path, "create-pod", "--name", "job", "--json")
	require.Equal(t, ExitOK, code, e.stderr.String())

	in := e.client.Created()[0]
	assert.Equal(t, "runpod/base:0.6.2", in.ImageName)
	assert.Equal(t, "NVIDIA A100 80GB PCIe", in.GPUTypeID)
	assert.Equal(t, 50, in.ContainerDiskInGB)
	assert.Equal(t, []runpod.EnvVar{{Key: "TZ", Value: "UTC"}}, in.Env)
}

func TestCreatePod_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		env    map[string]string
		errMsg string
	}{
		{
			name:   "missing name",
			args:   []string{"create-pod", "--image", "ubuntu", "--gpu-type", "4090"},
			errMsg: "name",
		},
		{
			name:   "missing image",
			args:   []string{"create-pod", "--name", "x", "--gpu-type", "4090"},
			errMsg: "image is required",
		},
		{
			name:   "unknown gpu",
			args:   []string{"create-pod", "--name", "x", "--image", "ubuntu", "--gpu-type", "h200"},
			errMsg: "no gpu type matches",
		},
		{
			name:   "ambiguous gpu",
			args:   []string{"create-pod", "--name", "x", "--image", "ubuntu", "--gpu-type", "rtx"},
			errMsg: "ambiguous",
		},
		{
			name:   "bad env",
			args:   []string{"create-pod", "--name", "x", "--image", "ubuntu", "--gpu-type", "4090", "--env", "1BAD=x"},
			errMsg: "1BAD",
		},
		{
			name:   "aws credentials missing",
			args:   []string{"create-pod", "--name", "x", "--image", "ubuntu", "--gpu-type", "4090", "--pass-aws-env"},
			errMsg: "AWS_ACCESS_KEY_ID",
		},
		{
			name:   "bad ports",
			args:   []string{"create-pod", "--name", "x", "--image", "ubuntu", "--gpu-type", "4090", "--ports", "8888/udp"},
			errMsg: "protocol must be http or tcp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			if tt.env != nil {
				e.env = tt.env
			}

			assert.Equal(t, ExitError, e.run(tt.args...))
			assert.Contains(t, e.stderr.String(), tt.errMsg)
			assert.Empty(t, e.client.Created(), "no pod is created on invalid input")
		})
	}
}

func TestCreatePod_Wait(t *testing.T) {
	e := newTestEnv(t)

	code := e.run("create-pod", "--name", "job", "--image", "ubuntu", "--gpu-type", "4090", "--wait", "--json")
	require.Equal(t, ExitOK, code, e.stderr.String())
	assert.Equal(t, 1, e.client.Calls(fake.OpWaitForStatus))
}

func TestCreatePod_GPUTypeLookup(t *testing.T) {
	tests := []struct {
		name      string
		gpuType   string
		wantID    string
		wantLists int
	}{
		{name: "exact id skips listing", gpuType: "NVIDIA GeForce RTX 4090", wantID: "NVIDIA GeForce RTX 4090", wantLists: 0},
		{name: "partial name falls back to listing", gpuType: "a100", wantID: "NVIDIA A100 80GB PCIe", wantLists: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)

			code := e.run("create-pod", "--name", "job", "--image", "ubuntu", "--gpu-type", tt.gpuType, "--json")
			require.Equal(t, ExitOK, code, e.stderr.String())
			require.Len(t, e.client.Created(), 1)
			assert.Equal(t, tt.wantID, e.client.Created()[0].GPUTypeID)
			assert.Equal(t, 1, e.client.Calls(fake.OpGetGPUType))
			assert.Equal(t, tt.wantLists, e.client.Calls(fake.OpListGPUTypes))
		})
	}
}

func TestCreatePod_GPUTypeLookupError(t *testing.T) {
	e := newTestEnv(t)
	e.client.FailOn(fake.OpGetGPUType, rperrors.New(rperrors.ErrCodeUnauthorized, "invalid api key"))

	code := e.run("create-pod", "--name", "job", "--image", "ubuntu", "--gpu-type", "4090")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, e.stderr.String(), "invalid api key")
	assert.Zero(t, e.client.Calls(fake.OpListGPUTypes))
	assert.Empty(t, e.client.Created())
}

func TestListPods(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, ExitOK, e.run("list-pods", "--json"), e.stderr.String())

	var out podListOutput
	e.decode(t, &out)
	assert.Equal(t, KindPodList, out.Kind)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "alpha", out.Items[0].Name)
	assert.Contains(t, out.Items[0].Env, "AWS_SECRET_ACCESS_KEY=***")
}

func TestListPods_StatusFilter(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, ExitOK, e.run("list-pods", "--status", "exited", "--json"), e.stderr.String())

	var out podListOutput
	e.decode(t, &out)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "pod-b", out.Items[0].ID)

	assert.Equal(t, ExitError, e.run("list-pods", "--status", "sleeping"))
	assert.Contains(t, e.stderr.String(), "invalid status")
}

func TestListPods_Table(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, ExitOK, e.run("list-pods"), e.stderr.String())

	out := e.stdout.String()
	assert.Contains(t, out, "UPTIME")
	assert.Contains(t, out, "pod-a")
	assert.Contains(t, out, "RUNNING")
	assert.Contains(t, out, "EXITED")
}

func TestGetPod(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, ExitOK, e.run("get-pod", "--json", "pod-a"), e.stderr.String())
	var out podOutput
	e.decode(t, &out)
	assert.Equal(t, "pod-a", out.Pod.ID)

	assert.Equal(t, ExitError, e.run("get-pod", "nope"))
	assert.Contains(t, e.stderr.String(), "not found")

	assert.Equal(t, ExitError, e.run("get-pod", "pod-a", "pod-b"))
	assert.Contains(t, e.stderr.String(), "expected exactly one pod id")
}

func TestGetPod_OutputFile(t *testing.T) {
	e := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "pod.yaml")

	require.Equal(t, ExitOK, e.run("get-pod", "-o", path, "-t", "yaml", "pod-a"), e.stderr.String())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "kind: Pod")
	assert.Contains(t, string(b), "id: pod-a")
	assert.Empty(t, e.stdout.String())
}

func TestOutputFile_FormatFromExtension(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		extra    []string
		contains string
	}{
		{name: "yaml extension", file: "gpus.yaml", contains: "kind: GPUTypeList"},
		{name: "yml extension", file: "gpus.yml", contains: "kind: GPUTypeList"},
		{name: "txt extension", file: "gpus.txt", contains: "MEMORY"},
		{name: "unknown extension", file: "gpus.out", contains: `"kind": "GPUTypeList"`},
		{name: "format flag wins", file: "gpus.yaml", extra: []string{"-t", "json"}, contains: `"kind": "GPUTypeList"`},
		{name: "json flag wins", file: "gpus.txt", extra: []string{"--json"}, contains: `"kind": "GPUTypeList"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			path := filepath.Join(t.TempDir(), tt.file)

			args := append([]string{"list-gpu-types", "-o", path}, tt.extra...)
			require.Equal(t, ExitOK, e.run(args...), e.stderr.String())

			b, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(b), tt.contains)
			assert.Empty(t, e.stdout.String())
		})
	}
}

func TestOutputFile_NoColor(t *testing.T) {
	e := newTestEnv(t)
	color.NoColor = false
	path := filepath.Join(t.TempDir(), "pods.txt")

	require.Equal(t, ExitOK, e.run("list-pods", "-o", path), e.stderr.String())
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "RUNNING")
	assert.NotContains(t, string(b), "\x1b[", "files get no escape codes")

	require.Equal(t, ExitOK, e.run("list-pods"), e.stderr.String())
	assert.Contains(t, e.stdout.String(), "\x1b[", "stdout keeps colors when enabled")
}

func TestLifecycle(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, ExitOK, e.run("stop-pod", "--json", "pod-a"), e.stderr.String())
	var out batchOutput
	e.decode(t, &out)
	assert.Equal(t, KindBatchResult, out.Kind)
	assert.Equal(t, []PodAction{{ID: "pod-a", Action: "stop", Status: runpod.PodStatusExited}}, out.Items)

	require.Equal(t, ExitOK, e.run("start-pod", "--gpu-count", "2", "--wait", "--json", "pod-a", "pod-b"), e.stderr.String())
	var started batchOutput
	e.decode(t, &started)
	require.Len(t, started.Items, 2)
	for _, it := range started.Items {
		assert.Equal(t, runpod.PodStatusRunning, it.Status, it.ID)
	}
	p, err := e.client.GetPod(context.Background(), "pod-b")
	require.NoError(t, err)
	assert.Equal(t, 2, p.GPUCount)

	require.Equal(t, ExitOK, e.run("terminate-pod", "--wait", "--json", "pod-a"), e.stderr.String())
	var terminated batchOutput
	e.decode(t, &terminated)
	assert.Equal(t, []PodAction{{ID: "pod-a", Action: "terminate", Status: runpod.PodStatusTerminated}}, terminated.Items)

	_, err = e.client.GetPod(context.Background(), "pod-a")
	assert.True(t, rperrors.IsCode(err, rperrors.ErrCodeNotFound))
}

func TestLifecycle_WaitObservesTransition(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		id       string
		action   string
		want     runpod.PodStatus
		observed []runpod.PodStatus
	}{
		{
			name: "terminate", args: []string{"terminate-pod", "--wait", "--json", "pod-a"},
			id: "pod-a", action: "terminate", want: runpod.PodStatusTerminated,
			observed: []runpod.PodStatus{runpod.PodStatusRunning},
		},
		{
			name: "stop", args: []string{"stop-pod", "--wait", "--json", "pod-a"},
			id: "pod-a", action: "stop", want: runpod.PodStatusExited,
			observed: []runpod.PodStatus{runpod.PodStatusRunning},
		},
		{
			name: "start", args: []string{"start-pod", "--wait", "--json", "pod-b"},
			id: "pod-b", action: "start", want: runpod.PodStatusRunning,
			observed: []runpod.PodStatus{runpod.PodStatusExited},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.client.SetSettleAfter(1)

			require.Equal(t, ExitOK, e.run(tt.args...), e.stderr.String())

			var out batchOutput
			e.decode(t, &out)
			assert.Equal(t, []PodAction{{ID: tt.id, Action: tt.action, Status: tt.want}}, out.Items)
			assert.Equal(t, tt.observed, e.client.Observed(tt.id), "the old status is seen before the change lands")
		})
	}
}

func TestTerminatePod_WaitGone(t *testing.T) {
	e := newTestEnv(t)
	e.client.SetSettleAfter(2)

	require.Equal(t, ExitOK, e.run("terminate-pod", "--wait", "--json", "pod-a"), e.stderr.String())

	var out batchOutput
	e.decode(t, &out)
	assert.Equal(t, []PodAction{{ID: "pod-a", Action: "terminate", Status: runpod.PodStatusTerminated}}, out.Items)
	assert.Len(t, e.client.Observed("pod-a"), 2)

	_, err := e.client.GetPod(context.Background(), "pod-a")
	assert.True(t, rperrors.IsCode(err, rperrors.ErrCodeNotFound))
}

func TestLifecycle_PartialFailure(t *testing.T) {
	e := newTestEnv(t)

	code := e.run("stop-pod", "--json", "pod-a", "missing", "pod-b")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, e.stderr.String(), "stop failed for 1 of 3 pods")

	var out batchOutput
	e.decode(t, &out)
	require.Len(t, out.Items, 3)
	assert.Equal(t, "pod-a", out.Items[0].ID, "results keep argument order")
	assert.Empty(t, out.Items[0].Error)
	assert.Equal(t, "missing", out.Items[1].ID)
	assert.Contains(t, out.Items[1].Error, "not found")
	assert.Empty(t, out.Items[2].Error)
	assert.Equal(t, 3, e.client.Calls(fake.OpStopPod))
}

func TestLifecycle_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{name: "stop without id", args: []string{"stop-pod"}, errMsg: "pod id is required"},
		{name: "start bad gpu count", args: []string{"start-pod", "--gpu-count", "0", "pod-b"}, errMsg: "--gpu-count"},
		{name: "terminate many without yes", args: []string{"terminate-pod", "pod-a", "pod-b"}, errMsg: "without --yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)

			assert.Equal(t, ExitError, e.run(tt.args...))
			assert.Contains(t, e.stderr.String(), tt.errMsg)
			assert.Zero(t, e.client.Calls(fake.OpTerminatePod))
			assert.Zero(t, e.client.Calls(fake.OpStartPod))
		})
	}
}

func TestTerminatePod_ManyWithYes(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, ExitOK, e.run("terminate-pod", "-y", "pod-a", "pod-b"), e.stderr.String())
	assert.Equal(t, 2, e.client.Calls(fake.OpTerminatePod))

	pods, err := e.client.ListPods(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pods)
}

func TestWaitPod(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, ExitOK, e.run("wait-pod", "--json", "pod-a"), e.stderr.String())

	assert.Equal(t, ExitCanceled, e.run("wait-pod", "--status", "RUNNING", "pod-b"), "timeouts exit with 2")
	assert.Contains(t, e.stderr.String(), "did not reach RUNNING")

	assert.Equal(t, ExitOK, e.run("wait-pod", "--status", "terminated", "gone"), e.stderr.String())

	assert.Equal(t, ExitError, e.run("wait-pod", "--status", "BOGUS", "pod-a"))
}

func TestGlobalFlags(t *testing.T) {
	t.Run("api key flag reaches client config", func(t *testing.T) {
		e := newTestEnv(t)
		var got *config.Config
		e.app.newClient = func(cfg *config.Config) runpod.Interface {
			got = cfg
			return e.client
		}

		require.Equal(t, ExitOK, e.run("--api-key", "flag-key", "--timeout", "5s", "list-pods"), e.stderr.String())
		require.NotNil(t, got)
		assert.Equal(t, "flag-key", got.APIKey)
		assert.Equal(t, "5s", got.Timeout.String())
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		e := newTestEnv(t)

		assert.Equal(t, ExitError, e.run("--config", filepath.Join(t.TempDir(), "none.yaml"), "list-pods"))
		assert.Contains(t, e.stderr.String(), "failed to read config file")
	})

	t.Run("unknown format", func(t *testing.T) {
		e := newTestEnv(t)

		assert.Equal(t, ExitError, e.run("list-pods", "--format", "xml"))
		assert.Contains(t, e.stderr.String(), "unknown output format")
	})

	t.Run("debug logs to stderr", func(t *testing.T) {
		e := newTestEnv(t)

		require.Equal(t, ExitOK, e.run("--debug", "list-pods", "--json"))
		assert.Contains(t, e.stderr.String(), "configuration loaded")
		assert.True(t, json.Valid(e.stdout.Bytes()), "logs stay off stdout")
	})
}

func TestExitCode(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want int
	}{
		{name: "nil", ctx: context.Background(), err: nil, want: ExitOK},
		{name: "plain error", ctx: context.Background(), err: errors.New("boom"), want: ExitError},
		{name: "not found", ctx: context.Background(), err: rperrors.New(rperrors.ErrCodeNotFound, "x"), want: ExitError},
		{name: "wrapped canceled", ctx: context.Background(), err: fmt.Errorf("list: %w", context.Canceled), want: ExitCanceled},
		{name: "deadline", ctx: context.Background(), err: context.DeadlineExceeded, want: ExitCanceled},
		{name: "timeout code", ctx: context.Background(), err: rperrors.New(rperrors.ErrCodeTimeout, "slow"), want: ExitCanceled},
		{name: "canceled context", ctx: canceled, err: errors.New("interrupted"), want: ExitCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.ctx, tt.err))
		})
	}
}

func TestSetVersion(t *testing.T) {
	pv, pc, pd := version, commit, date
	t.Cleanup(func() { version, commit, date = pv, pc, pd })

	SetVersion("1.2.3", "", "2026-01-01")
	assert.Equal(t, "1.2.3", version)
	assert.Equal(t, pc, commit, "empty values keep the current one")
	assert.Equal(t, "2026-01-01", date)

	e := newTestEnv(t)
	require.Equal(t, ExitOK, e.run("--version"))
	assert.True(t, strings.Contains(e.stdout.String(), "1.2.3"), e.stdout.String())
}
