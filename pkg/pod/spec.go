package pod

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/distribution/reference"
	"k8s.io/utils/ptr"

	"github.com/gpuctl/rpctl/pkg/defaults"
	rperrors "github.com/gpuctl/rpctl/pkg/errors"
	"github.com/gpuctl/rpctl/pkg/runpod"
)

// MaxNameLength is the longest pod name accepted by the platform.
const MaxNameLength = 191

// Option is a functional option for configuring Spec instances.
type Option func(*Spec)

// WithName sets the pod name.
func WithName(name string) Option {
	return func(s *Spec) { s.Name = strings.TrimSpace(name) }
}

// WithImage sets the container image.
func WithImage(image string) Option {
	return func(s *Spec) { s.Image = strings.TrimSpace(image) }
}

// WithGPUType sets the GPU type ID.
func WithGPUType(id string) Option {
	return func(s *Spec) { s.GPUTypeID = strings.TrimSpace(id) }
}

// WithGPUCount sets the number of GPUs.
func WithGPUCount(n int) Option {
	return func(s *Spec) { s.GPUCount = n }
}

// WithCloudType sets the cloud type (ALL, SECURE, COMMUNITY).
func WithCloudType(ct string) Option {
	return func(s *Spec) { s.CloudType = runpod.CloudType(strings.ToUpper(strings.TrimSpace(ct))) }
}

// WithContainerDisk sets the container disk size in GB.
func WithContainerDisk(gb int) Option {
	return func(s *Spec) { s.ContainerDiskInGB = gb }
}

// WithVolume sets the persistent volume size in GB and its mount path.
func WithVolume(gb int, mountPath string) Option {
	return func(s *Spec) {
		s.VolumeInGB = gb
		if mountPath != "" {
			s.VolumeMountPath = mountPath
		}
	}
}

// WithPorts sets the exposed ports, e.g. "8888/http,22/tcp".
func WithPorts(ports string) Option {
	return func(s *Spec) { s.Ports = strings.TrimSpace(ports) }
}

// WithDockerArgs sets the container start arguments.
func WithDockerArgs(args string) Option {
	return func(s *Spec) { s.DockerArgs = args }
}

// WithEnv merges environment variables into the spec.
func WithEnv(env ...runpod.EnvVar) Option {
	return func(s *Spec) { s.Env = Merge(s.Env, env...) }
}

// WithPublicIP requests a public IP.
func WithPublicIP(enabled bool) Option {
	return func(s *Spec) { s.PublicIP = ptr.To(enabled) }
}

// Spec describes a pod to create.
type Spec struct {
	Name              string
	Image             string
	GPUTypeID         string
	GPUCount          int
	CloudType         runpod.CloudType
	ContainerDiskInGB int
	VolumeInGB        int
	VolumeMountPath   string
	Ports             string
	DockerArgs        string
	Env               []runpod.EnvVar
	PublicIP          *bool
}

// NewSpec creates a Spec populated with creation defaults and the given options.
func NewSpec(opts ...Option) *Spec {
	s := &Spec{
		GPUCount:          defaults.GPUCount,
		CloudType:         runpod.CloudType(defaults.CloudType),
		ContainerDiskInGB: defaults.ContainerDiskInGB,
		VolumeInGB:        defaults.VolumeInGB,
		VolumeMountPath:   defaults.VolumeMountPath,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NormalizeImage validates a container image reference and returns it in
// familiar form with an explicit tag ("ubuntu" becomes "ubuntu:latest").
func NormalizeImage(image string) (string, error) {
	named, err := reference.ParseNormalizedNamed(strings.TrimSpace(image))
	if err != nil {
		return "", rperrors.Wrap(rperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid image reference %q", image), err)
	}
	return reference.FamiliarString(reference.TagNameOnly(named)), nil
}

// ValidatePorts checks a comma separated "<port>/<http|tcp>" list.
func ValidatePorts(ports string) error {
	if strings.TrimSpace(ports) == "" {
		return nil
	}
	for _, p := range strings.Split(ports, ",") {
		num, proto, ok := strings.Cut(strings.TrimSpace(p), "/")
		if !ok {
			return fmt.Errorf("port %q: expected <port>/<http|tcp>", p)
		}
		n, err := strconv.Atoi(num)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("port %q: port must be between 1 and 65535", p)
		}
		if proto != "http" && proto != "tcp" {
			return fmt.Errorf("port %q: protocol must be http or tcp", p)
		}
	}
	return nil
}

// Validate checks the spec and normalizes the image reference.
// All problems are reported together.
func (s *Spec) Validate() error {
	var problems []string

	switch {
	case s.Name == "":
		problems = append(problems, "name is required")
	case len(s.Name) > MaxNameLength:
		problems = append(problems, fmt.Sprintf("name must be at most %d characters", MaxNameLength))
	}

	if s.Image == "" {
		problems = append(problems, "image is required")
	} else if img, err := NormalizeImage(s.Image); err != nil {
		problems = append(problems, err.Error())
	} else {
		s.Image = img
	}

	if s.GPUTypeID == "" {
		problems = append(problems, "gpu type is required")
	}
	if s.GPUCount < 1 {
		problems = append(problems, "gpu count must be at least 1")
	}
	if _, ok := runpod.ParseCloudType(string(s.CloudType)); !ok {
		problems = append(problems, fmt.Sprintf("cloud type %q, supported values: %v", s.CloudType, runpod.SupportedCloudTypes()))
	}
	if s.ContainerDiskInGB < 1 {
		problems = append(problems, "container disk must be at least 1 GB")
	}
	if s.VolumeInGB < 0 {
		problems = append(problems, "volume size cannot be negative")
	}
	if err := ValidatePorts(s.Ports); err != nil {
		problems = append(problems, err.Error())
	}
	for _, e := range s.Env {
		if !ValidEnvKey(e.Key) {
			problems = append(problems, fmt.Sprintf("invalid env key %q", e.Key))
		}
	}

	if len(problems) > 0 {
		return rperrors.NewWithContext(rperrors.ErrCodeInvalidRequest,
			"invalid pod spec: "+strings.Join(problems, "; "),
			map[string]any{"problems": problems})
	}
	return nil
}

// Input converts the spec into the API request.
func (s *Spec) Input() runpod.CreatePodInput {
	in := runpod.CreatePodInput{
		Name:              s.Name,
		ImageName:         s.Image,
		GPUTypeID:         s.GPUTypeID,
		CloudType:         s.CloudType,
		GPUCount:          s.GPUCount,
		VolumeInGB:        s.VolumeInGB,
		ContainerDiskInGB: s.ContainerDiskInGB,
		MinVCPUCount:      defaults.MinVCPUCount,
		MinMemoryInGB:     defaults.MinMemoryInGB,
		Ports:             s.Ports,
		DockerArgs:        s.DockerArgs,
		Env:               s.Env,
		SupportPublicIP:   s.PublicIP,
	}
	if s.VolumeInGB > 0 {
		in.VolumeMountPath = s.VolumeMountPath
	}
	return in
}
