package defaults

import "time"

// API client defaults.
const (
	// APIURL is the RunPod GraphQL endpoint.
	APIURL = "https://api.runpod.io/graphql"

	// APIRequestTimeout bounds a single GraphQL round trip.
	APIRequestTimeout = 30 * time.Second

	// APIRateLimit is the client-side request rate in requests per second.
	APIRateLimit = 10

	// APIRateBurst is the client-side burst size.
	APIRateBurst = 20

	// RetrySteps is the maximum number of attempts for a retryable request.
	RetrySteps = 4

	// RetryInitialBackoff is the first retry delay.
	RetryInitialBackoff = 500 * time.Millisecond

	// RetryBackoffFactor multiplies the delay after each attempt.
	RetryBackoffFactor = 2.0

	// RetryJitter adds up to this fraction of random delay.
	RetryJitter = 0.1
)

// Pod lifecycle defaults.
const (
	// PodPollInterval is how often pod status is polled while waiting.
	PodPollInterval = 5 * time.Second

	// PodWaitTimeout is the default time to wait for a pod status transition.
	PodWaitTimeout = 10 * time.Minute

	// BatchConcurrency caps concurrent API calls for multi-pod commands.
	BatchConcurrency = 4
)

// Pod creation defaults.
const (
	CloudType         = "ALL"
	GPUCount          = 1
	ContainerDiskInGB = 10
	VolumeInGB        = 0
	VolumeMountPath   = "/runpod-volume"
	MinVCPUCount      = 1
	MinMemoryInGB     = 1
)

// RedactPatterns are env key patterns whose values are hidden in output.
var RedactPatterns = []string{"*KEY*", "*SECRET*", "*TOKEN*", "*PASSWORD*"}

// Server defaults.
const (
	ServerPort            = 8080
	ServerRateLimit       = 20
	ServerRateLimitBurst  = 40
	ServerReadTimeout     = 10 * time.Second
	ServerWriteTimeout    = 60 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
	ServerHandlerTimeout  = 45 * time.Second
)
