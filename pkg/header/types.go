package header

import (
	"fmt"
	"strings"
	"time"
)

const (
	// APIDomain is the domain suffix used in result API versions.
	APIDomain = "rpctl.gpuctl.io"

	// APIVersionV1 is the current result schema version.
	APIVersionV1 = "v1"

	// MetadataTimestamp is the metadata key carrying the generation time.
	MetadataTimestamp = "generated-at"

	// MetadataVersion is the metadata key carrying the rpctl version.
	MetadataVersion = "rpctl-version"
)

// Option is a functional option for configuring Header instances.
type Option func(*Header)

// WithMetadata returns an Option that adds a metadata key-value pair to the Header.
func WithMetadata(key, value string) Option {
	return func(h *Header) {
		if h.Metadata == nil {
			h.Metadata = make(map[string]string)
		}
		h.Metadata[key] = value
	}
}

// WithKind returns an Option that sets the Kind and derives the APIVersion from it.
func WithKind(kind string) Option {
	return func(h *Header) {
		h.Kind = kind
		h.APIVersion = APIVersionFor(kind)
	}
}

// WithVersion returns an Option that records the rpctl version in metadata.
func WithVersion(version string) Option {
	return WithMetadata(MetadataVersion, version)
}

// New creates a Header stamped with the current UTC time.
func New(opts ...Option) *Header {
	h := &Header{
		Metadata: map[string]string{
			MetadataTimestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// APIVersionFor returns "<kind>.rpctl.gpuctl.io/v1" for the given kind.
func APIVersionFor(kind string) string {
	return fmt.Sprintf("%s.%s/%s", strings.ToLower(kind), APIDomain, APIVersionV1)
}

// Header contains Kubernetes-style type and metadata information for
// serialized rpctl results (pod lists, GPU type lists).
type Header struct {
	Kind       string            `json:"kind,omitempty" yaml:"kind,omitempty"`
	APIVersion string            `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
