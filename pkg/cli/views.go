package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"k8s.io/apimachinery/pkg/util/duration"

	"github.com/gpuctl/rpctl/pkg/header"
	"github.com/gpuctl/rpctl/pkg/runpod"
)

// Kinds stamped into result headers.
const (
	KindGPUTypeList = "GPUTypeList"
	KindPodList     = "PodList"
	KindPod         = "Pod"
	KindBatchResult = "PodActionList"
)

const none = "-"

var printer = message.NewPrinter(language.English)

func newHeader(kind string) header.Header {
	return *header.New(header.WithKind(kind), header.WithVersion(version))
}

func formatPrice(p float64) string {
	if p <= 0 {
		return none
	}
	return printer.Sprintf("$%.2f", p)
}

func formatGB(gb float64) string {
	if gb <= 0 {
		return none
	}
	return humanize.IBytes(uint64(gb * float64(humanize.GiByte)))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return none
	}
	return s
}

// plainOutput is implemented by views that color their table cells. Colors
// are dropped for files and ConfigMaps, whatever the terminal supports.
type plainOutput interface {
	disableColor()
}

// colorStatus highlights pod status unless plain is set; fatih/color also
// disables itself when stdout is not a terminal.
func colorStatus(s runpod.PodStatus, plain bool) string {
	if plain {
		return orNone(string(s))
	}
	switch s {
	case runpod.PodStatusRunning:
		return color.GreenString(string(s))
	case runpod.PodStatusExited, runpod.PodStatusPaused, runpod.PodStatusCreated, runpod.PodStatusRestarting:
		return color.YellowString(string(s))
	case runpod.PodStatusDead, runpod.PodStatusTerminated:
		return color.RedString(string(s))
	default:
		return orNone(string(s))
	}
}

func formatUptime(p *runpod.Pod) string {
	d := p.Uptime()
	if d <= 0 {
		return none
	}
	return duration.HumanDuration(d)
}

// GPUTypeList is the result of list-gpu-types and find-gpu.
type GPUTypeList struct {
	header.Header `json:",inline" yaml:",inline"`
	Items         []runpod.GPUType `json:"items" yaml:"items"`
}

func newGPUTypeList(items []runpod.GPUType) *GPUTypeList {
	return &GPUTypeList{Header: newHeader(KindGPUTypeList), Items: items}
}

func (l *GPUTypeList) TableHeader() []string {
	return []string{"ID", "NAME", "MEMORY", "SECURE", "COMMUNITY", "PRICE/HR"}
}

func (l *GPUTypeList) TableRows() [][]string {
	rows := make([][]string, 0, len(l.Items))
	for _, t := range l.Items {
		price := none
		if t.LowestPrice != nil {
			price = formatPrice(t.LowestPrice.UninterruptablePrice)
		}
		rows = append(rows, []string{
			t.ID,
			t.DisplayName,
			formatGB(float64(t.MemoryInGB)),
			yesNo(t.SecureCloud),
			yesNo(t.CommunityCloud),
			price,
		})
	}
	return rows
}

// PodList is the result of list-pods.
type PodList struct {
	header.Header `json:",inline" yaml:",inline"`
	Items         []runpod.Pod `json:"items" yaml:"items"`

	plain bool
}

func (l *PodList) disableColor() { l.plain = true }

func newPodList(items []runpod.Pod) *PodList {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
	return &PodList{Header: newHeader(KindPodList), Items: items}
}

func (l *PodList) TableHeader() []string {
	return []string{"ID", "NAME", "STATUS", "GPU", "IMAGE", "COST/HR", "UPTIME"}
}

func (l *PodList) TableRows() [][]string {
	rows := make([][]string, 0, len(l.Items))
	for i := range l.Items {
		p := &l.Items[i]
		gpu := orNone(p.GPUName())
		if p.GPUCount > 1 {
			gpu = fmt.Sprintf("%d x %s", p.GPUCount, gpu)
		}
		rows = append(rows, []string{
			p.ID,
			p.Name,
			colorStatus(p.DesiredStatus, l.plain),
			gpu,
			p.ImageName,
			formatPrice(p.CostPerHr),
			formatUptime(p),
		})
	}
	return rows
}

// PodDetail is the result of get-pod and create-pod.
type PodDetail struct {
	header.Header `json:",inline" yaml:",inline"`
	Pod           *runpod.Pod `json:"pod" yaml:"pod"`

	plain bool
}

func (d *PodDetail) disableColor() { d.plain = true }

func newPodDetail(p *runpod.Pod) *PodDetail {
	return &PodDetail{Header: newHeader(KindPod), Pod: p}
}

func (d *PodDetail) TableHeader() []string {
	return []string{"FIELD", "VALUE"}
}

func (d *PodDetail) TableRows() [][]string {
	p := d.Pod
	if p == nil {
		return nil
	}
	rows := [][]string{
		{"ID", p.ID},
		{"Name", p.Name},
		{"Status", colorStatus(p.DesiredStatus, d.plain)},
		{"Image", p.ImageName},
		{"GPU", orNone(p.GPUName())},
		{"GPU Count", strconv.Itoa(p.GPUCount)},
		{"vCPU", strconv.FormatFloat(p.VCPUCount, 'f', -1, 64)},
		{"Memory", formatGB(p.MemoryInGB)},
		{"Container Disk", formatGB(float64(p.ContainerDiskInGB))},
		{"Volume", formatGB(p.VolumeInGB)},
		{"Volume Path", orNone(p.VolumeMountPath)},
		{"Cost/hr", formatPrice(p.CostPerHr)},
		{"Uptime", formatUptime(p)},
		{"Ports", orNone(p.Ports)},
		{"Last Status Change", orNone(p.LastStatusChange)},
	}
	if p.Runtime != nil {
		for _, pm := range p.Runtime.Ports {
			rows = append(rows, []string{
				fmt.Sprintf("Port %d/%s", pm.PrivatePort, pm.Type),
				fmt.Sprintf("%s:%d", pm.IP, pm.PublicPort),
			})
		}
	}
	for _, e := range p.Env {
		rows = append(rows, []string{"Env", e})
	}
	return rows
}

// PodAction is the outcome of one pod in a batch command.
type PodAction struct {
	ID     string           `json:"id" yaml:"id"`
	Action string           `json:"action" yaml:"action"`
	Status runpod.PodStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Error  string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// BatchResult is the result of stop-pod, start-pod and terminate-pod.
type BatchResult struct {
	header.Header `json:",inline" yaml:",inline"`
	Items         []PodAction `json:"items" yaml:"items"`

	plain bool
}

func (b *BatchResult) disableColor() { b.plain = true }

func (b *BatchResult) TableHeader() []string {
	return []string{"ID", "ACTION", "STATUS", "ERROR"}
}

func (b *BatchResult) TableRows() [][]string {
	rows := make([][]string, 0, len(b.Items))
	for _, it := range b.Items {
		rows = append(rows, []string{it.ID, it.Action, colorStatus(it.Status, b.plain), orNone(it.Error)})
	}
	return rows
}

// Failed returns the number of actions that ended in an error.
func (b *BatchResult) Failed() int {
	n := 0
	for _, it := range b.Items {
		if it.Error != "" {
			n++
		}
	}
	return n
}
