// Package cli implements the rpctl command-line interface.
//
// # Overview
//
// rpctl manages RunPod GPU pods: it lists and searches the GPU types on
// offer, creates pods from a container image, and drives the pod lifecycle
// (stop, start, terminate). It can also serve the same operations as a REST
// API.
//
// # Commands
//
// list-gpu-types - List the GPU types RunPod offers:
//
//	rpctl list-gpu-types
//	rpctl list-gpu-types --json
//
// find-gpu - Resolve a GPU type by ID, display name or fragment:
//
//	rpctl find-gpu "RTX 4090"
//	rpctl find-gpu a100
//
// Unmatched queries fail and print the closest known names.
//
// create-pod - Create a pod:
//
//	rpctl create-pod --name whisper --image runpod/pytorch --gpu-type "RTX 4090"
//	rpctl create-pod --name job --image my/image:1.2 --gpu-type a100 -e MODE=batch --pass-aws-env
//	rpctl create-pod --name job -g "RTX 4090" --env-file .env --wait --json
//
// Pod environment is merged from config defaults, --env-file, the AWS
// credentials of the calling shell (--pass-aws-env) and --env, later sources
// winning. Secret-looking values are redacted in output unless --show-secrets
// is given.
//
// list-pods, get-pod, wait-pod - Inspect pods:
//
//	rpctl list-pods --status RUNNING
//	rpctl get-pod -t yaml abc123
//	rpctl wait-pod --status RUNNING --wait-timeout 5m abc123
//
// stop-pod, start-pod, terminate-pod - Lifecycle, one or more pods at a time:
//
//	rpctl stop-pod abc123 def456
//	rpctl start-pod --gpu-count 2 --wait abc123
//	rpctl terminate-pod --yes abc123 def456
//
// serve - Run the REST API server:
//
//	rpctl serve --port 8080
//
// # Global Flags
//
//	--api-key      RunPod API key (default: $RUNPOD_API_KEY)
//	--api-url      RunPod GraphQL endpoint
//	--config       Config file (default: $RPCTL_CONFIG or ~/.config/rpctl/config.yaml)
//	--timeout      Per-request API timeout
//	--debug        Enable debug logging
//	--log-json     Output logs in JSON format
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// # Output
//
// Commands that print results accept --output/-o (file path, - for stdout,
// or cm://namespace/name for a Kubernetes ConfigMap), --format/-t (table,
// json, yaml; default table) and --json.
//
// # Environment Variables
//
//	RUNPOD_API_KEY         RunPod API key
//	RUNPOD_API_URL         RunPod GraphQL endpoint
//	RPCTL_CONFIG           Config file path
//	LOG_LEVEL              Logging verbosity (debug, info, warn, error)
//	KUBECONFIG             Kubeconfig used for cm:// output
//	AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_DEFAULT_REGION
//	                       Passed to pods with --pass-aws-env
//
// # Exit Codes
//
//	0  Success
//	1  General error (invalid arguments, API failure, partial batch failure)
//	2  Context canceled or timeout
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/gpuctl/rpctl/pkg/cli.version=1.0.0'"
package cli
