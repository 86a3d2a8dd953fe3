// Package config loads rpctl settings from a YAML file and the environment.
//
// Precedence, highest first: command-line flags (applied by the caller),
// environment variables, the config file, built-in defaults.
//
// Example ~/.config/rpctl/config.yaml:
//
//	apiKey: rp_xxx
//	rateLimit: 5
//	timeout: 1m
//	defaults:
//	  image: runpod/pytorch:2.1.0-py3.10-cuda11.8.0-devel-ubuntu22.04
//	  gpuType: NVIDIA GeForce RTX 3070
//	  cloudType: COMMUNITY
//	  containerDiskInGb: 20
//	  env:
//	    MODE: prod
//	redactPatterns: ["*KEY*", "*SECRET*"]
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gpuctl/rpctl/pkg/defaults"
	"github.com/gpuctl/rpctl/pkg/runpod"
)

// Environment variables read by Load.
const (
	EnvAPIKey = "RUNPOD_API_KEY"
	EnvAPIURL = "RUNPOD_API_URL"
	EnvConfig = "RPCTL_CONFIG"
)

// PodDefaults are applied to create-pod when the flag is not given.
type PodDefaults struct {
	Image             string            `yaml:"image,omitempty"`
	GPUType           string            `yaml:"gpuType,omitempty"`
	CloudType         string            `yaml:"cloudType,omitempty"`
	GPUCount          int               `yaml:"gpuCount,omitempty"`
	ContainerDiskInGB int               `yaml:"containerDiskInGb,omitempty"`
	VolumeInGB        int               `yaml:"volumeInGb,omitempty"`
	VolumeMountPath   string            `yaml:"volumeMountPath,omitempty"`
	Ports             string            `yaml:"ports,omitempty"`
	Env               map[string]string `yaml:"env,omitempty"`
}

// Config holds resolved settings.
type Config struct {
	APIKey         string        `yaml:"apiKey,omitempty"`
	APIURL         string        `yaml:"apiURL,omitempty"`
	RateLimit      float64       `yaml:"rateLimit,omitempty"`
	RateBurst      int           `yaml:"rateBurst,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	Defaults       PodDefaults   `yaml:"defaults,omitempty"`
	RedactPatterns []string      `yaml:"redactPatterns,omitempty"`

	// Path is the file the config was read from, empty if none.
	Path string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:    defaults.APIURL,
		RateLimit: defaults.APIRateLimit,
		RateBurst: defaults.APIRateBurst,
		Timeout:   defaults.APIRequestTimeout,
		Defaults: PodDefaults{
			CloudType:         defaults.CloudType,
			GPUCount:          defaults.GPUCount,
			ContainerDiskInGB: defaults.ContainerDiskInGB,
			VolumeInGB:        defaults.VolumeInGB,
			VolumeMountPath:   defaults.VolumeMountPath,
		},
		RedactPatterns: append([]string(nil), defaults.RedactPatterns...),
	}
}

// DefaultPath returns the config file location: $RPCTL_CONFIG, else
// $XDG_CONFIG_HOME/rpctl/config.yaml, else ~/.config/rpctl/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "rpctl", "config.yaml")
	}
	return ""
}

// Load reads the config file at path (DefaultPath when empty) on top of the
// defaults and then applies environment overrides. A missing file is not an
// error; a malformed one is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
			}
			cfg.Path = path
			slog.Debug("loaded config file", "path", path)
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			slog.Debug("no config file", "path", path)
		default:
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.APIKey = v
	}
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.RateLimit < 0 {
		return fmt.Errorf("rateLimit cannot be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.Defaults.CloudType != "" {
		if _, ok := runpod.ParseCloudType(c.Defaults.CloudType); !ok {
			return fmt.Errorf("defaults.cloudType %q, supported values: %v", c.Defaults.CloudType, runpod.SupportedCloudTypes())
		}
	}
	if c.Defaults.GPUCount < 0 || c.Defaults.ContainerDiskInGB < 0 || c.Defaults.VolumeInGB < 0 {
		return fmt.Errorf("defaults sizes cannot be negative")
	}
	return nil
}

// DefaultEnv returns the configured default pod env sorted by key.
func (c *Config) DefaultEnv() []runpod.EnvVar {
	keys := make([]string, 0, len(c.Defaults.Env))
	for k := range c.Defaults.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]runpod.EnvVar, 0, len(keys))
	for _, k := range keys {
		out = append(out, runpod.EnvVar{Key: k, Value: c.Defaults.Env[k]})
	}
	return out
}

// ClientOptions returns runpod client options for this config.
func (c *Config) ClientOptions(version string) []runpod.Option {
	opts := []runpod.Option{
		runpod.WithAPIKey(c.APIKey),
		runpod.WithEndpoint(c.APIURL),
		runpod.WithRateLimit(c.RateLimit, c.RateBurst),
		runpod.WithVersion(version),
	}
	if c.Timeout > 0 {
		opts = append(opts, runpod.WithHTTPClient(&http.Client{Timeout: c.Timeout}))
	}
	return opts
}
