package runpod

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePodStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   PodStatus
		wantOK bool
	}{
		{"running", PodStatusRunning, true},
		{" EXITED ", PodStatusExited, true},
		{"terminated", PodStatusTerminated, true},
		{"sleeping", PodStatus("SLEEPING"), false},
		{"", PodStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePodStatus(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestPodStatus_IsTerminal(t *testing.T) {
	assert.True(t, PodStatusTerminated.IsTerminal())
	assert.True(t, PodStatusDead.IsTerminal())
	assert.False(t, PodStatusExited.IsTerminal())
	assert.False(t, PodStatusRunning.IsTerminal())
}

func TestParseCloudType(t *testing.T) {
	ct, ok := ParseCloudType("secure")
	assert.True(t, ok)
	assert.Equal(t, CloudTypeSecure, ct)

	_, ok = ParseCloudType("private")
	assert.False(t, ok)
}

func TestSupportedPodStatuses_ReturnsCopy(t *testing.T) {
	s := SupportedPodStatuses()
	s[0] = "MUTATED"
	assert.Equal(t, PodStatusCreated, SupportedPodStatuses()[0])
}

func TestPod_UptimeFallsBackToUptimeSeconds(t *testing.T) {
	p := Pod{UptimeSeconds: 30}
	assert.Equal(t, float64(30), p.Uptime().Seconds())
	assert.Empty(t, p.GPUName())
}
