package runpod

import (
	"context"
	"strings"
	"time"
)

// PodStatus is the desired status reported for a pod.
type PodStatus string

const (
	PodStatusCreated    PodStatus = "CREATED"
	PodStatusRunning    PodStatus = "RUNNING"
	PodStatusRestarting PodStatus = "RESTARTING"
	PodStatusExited     PodStatus = "EXITED"
	PodStatusPaused     PodStatus = "PAUSED"
	PodStatusDead       PodStatus = "DEAD"
	PodStatusTerminated PodStatus = "TERMINATED"
)

var supportedPodStatuses = []PodStatus{
	PodStatusCreated,
	PodStatusRunning,
	PodStatusRestarting,
	PodStatusExited,
	PodStatusPaused,
	PodStatusDead,
	PodStatusTerminated,
}

// SupportedPodStatuses returns all known pod statuses.
func SupportedPodStatuses() []PodStatus {
	out := make([]PodStatus, len(supportedPodStatuses))
	copy(out, supportedPodStatuses)
	return out
}

// ParsePodStatus parses a case-insensitive status name.
func ParsePodStatus(s string) (PodStatus, bool) {
	st := PodStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.IsValid()
}

// IsValid reports whether s is a known status.
func (s PodStatus) IsValid() bool {
	for _, v := range supportedPodStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a pod in this status will not start again on its own.
func (s PodStatus) IsTerminal() bool {
	return s == PodStatusTerminated || s == PodStatusDead
}

// String implements fmt.Stringer.
func (s PodStatus) String() string {
	return string(s)
}

// CloudType selects where a pod is scheduled.
type CloudType string

const (
	CloudTypeAll       CloudType = "ALL"
	CloudTypeSecure    CloudType = "SECURE"
	CloudTypeCommunity CloudType = "COMMUNITY"
)

// SupportedCloudTypes returns the accepted cloud types.
func SupportedCloudTypes() []CloudType {
	return []CloudType{CloudTypeAll, CloudTypeSecure, CloudTypeCommunity}
}

// ParseCloudType parses a case-insensitive cloud type.
func ParseCloudType(s string) (CloudType, bool) {
	ct := CloudType(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range SupportedCloudTypes() {
		if ct == v {
			return ct, true
		}
	}
	return ct, false
}

// GPUPrice holds the lowest hourly prices for a GPU type.
type GPUPrice struct {
	MinimumBidPrice      float64 `json:"minimumBidPrice" yaml:"minimumBidPrice"`
	UninterruptablePrice float64 `json:"uninterruptablePrice" yaml:"uninterruptablePrice"`
}

// GPUType is a GPU SKU offered by the platform.
type GPUType struct {
	ID             string    `json:"id" yaml:"id"`
	DisplayName    string    `json:"displayName" yaml:"displayName"`
	MemoryInGB     int       `json:"memoryInGb" yaml:"memoryInGb"`
	SecureCloud    bool      `json:"secureCloud" yaml:"secureCloud"`
	CommunityCloud bool      `json:"communityCloud" yaml:"communityCloud"`
	LowestPrice    *GPUPrice `json:"lowestPrice,omitempty" yaml:"lowestPrice,omitempty"`
}

// Machine describes the host a pod is placed on.
type Machine struct {
	GPUDisplayName string `json:"gpuDisplayName,omitempty" yaml:"gpuDisplayName,omitempty"`
	PodHostID      string `json:"podHostId,omitempty" yaml:"podHostId,omitempty"`
}

// PortMapping is an exposed pod port.
type PortMapping struct {
	IP          string `json:"ip" yaml:"ip"`
	IsIPPublic  bool   `json:"isIpPublic" yaml:"isIpPublic"`
	PrivatePort int    `json:"privatePort" yaml:"privatePort"`
	PublicPort  int    `json:"publicPort" yaml:"publicPort"`
	Type        string `json:"type" yaml:"type"`
}

// PodRuntime is present once the container is actually running.
type PodRuntime struct {
	UptimeInSeconds int64         `json:"uptimeInSeconds" yaml:"uptimeInSeconds"`
	Ports           []PortMapping `json:"ports,omitempty" yaml:"ports,omitempty"`
}

// Pod is a provisioned GPU-backed compute instance.
type Pod struct {
	ID                string      `json:"id" yaml:"id"`
	Name              string      `json:"name" yaml:"name"`
	ImageName         string      `json:"imageName" yaml:"imageName"`
	DesiredStatus     PodStatus   `json:"desiredStatus" yaml:"desiredStatus"`
	GPUCount          int         `json:"gpuCount" yaml:"gpuCount"`
	VCPUCount         float64     `json:"vcpuCount" yaml:"vcpuCount"`
	MemoryInGB        float64     `json:"memoryInGb" yaml:"memoryInGb"`
	ContainerDiskInGB int         `json:"containerDiskInGb" yaml:"containerDiskInGb"`
	VolumeInGB        float64     `json:"volumeInGb" yaml:"volumeInGb"`
	VolumeMountPath   string      `json:"volumeMountPath,omitempty" yaml:"volumeMountPath,omitempty"`
	CostPerHr         float64     `json:"costPerHr" yaml:"costPerHr"`
	Ports             string      `json:"ports,omitempty" yaml:"ports,omitempty"`
	DockerArgs        string      `json:"dockerArgs,omitempty" yaml:"dockerArgs,omitempty"`
	Env               []string    `json:"env,omitempty" yaml:"env,omitempty"`
	MachineID         string      `json:"machineId,omitempty" yaml:"machineId,omitempty"`
	Machine           *Machine    `json:"machine,omitempty" yaml:"machine,omitempty"`
	LastStatusChange  string      `json:"lastStatusChange,omitempty" yaml:"lastStatusChange,omitempty"`
	UptimeSeconds     int64       `json:"uptimeSeconds" yaml:"uptimeSeconds"`
	Runtime           *PodRuntime `json:"runtime,omitempty" yaml:"runtime,omitempty"`
}

// GPUName returns the machine GPU display name, if known.
func (p *Pod) GPUName() string {
	if p.Machine == nil {
		return ""
	}
	return p.Machine.GPUDisplayName
}

// Uptime returns the container uptime, preferring the runtime report.
func (p *Pod) Uptime() time.Duration {
	if p.Runtime != nil && p.Runtime.UptimeInSeconds > 0 {
		return time.Duration(p.Runtime.UptimeInSeconds) * time.Second
	}
	return time.Duration(p.UptimeSeconds) * time.Second
}

// EnvVar is a pod environment variable.
type EnvVar struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// CreatePodInput is the request for an on-demand pod.
type CreatePodInput struct {
	Name              string    `json:"name"`
	ImageName         string    `json:"imageName"`
	GPUTypeID         string    `json:"gpuTypeId"`
	CloudType         CloudType `json:"cloudType"`
	GPUCount          int       `json:"gpuCount"`
	VolumeInGB        int       `json:"volumeInGb"`
	ContainerDiskInGB int       `json:"containerDiskInGb"`
	MinVCPUCount      int       `json:"minVcpuCount,omitempty"`
	MinMemoryInGB     int       `json:"minMemoryInGb,omitempty"`
	Ports             string    `json:"ports,omitempty"`
	VolumeMountPath   string    `json:"volumeMountPath,omitempty"`
	DockerArgs        string    `json:"dockerArgs,omitempty"`
	Env               []EnvVar  `json:"env,omitempty"`
	SupportPublicIP   *bool     `json:"supportPublicIp,omitempty"`
}

// Interface is the set of RunPod operations used by rpctl.
// *Client implements it; tests substitute fakes.
type Interface interface {
	ListGPUTypes(ctx context.Context) ([]GPUType, error)
	GetGPUType(ctx context.Context, id string) (*GPUType, error)
	ListPods(ctx context.Context) ([]Pod, error)
	GetPod(ctx context.Context, id string) (*Pod, error)
	CreatePod(ctx context.Context, in CreatePodInput) (*Pod, error)
	StopPod(ctx context.Context, id string) (*Pod, error)
	StartPod(ctx context.Context, id string, gpuCount int) (*Pod, error)
	TerminatePod(ctx context.Context, id string) error
	WaitForStatus(ctx context.Context, id string, status PodStatus, timeout time.Duration) (*Pod, error)
}
