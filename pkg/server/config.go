package server

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/gpuctl/rpctl/pkg/defaults"
)

// EnvPort overrides the listen port.
const EnvPort = "PORT"

// DefaultConfig returns the default configuration with $PORT applied.
func DefaultConfig() *Config {
	cfg := &Config{
		Port:            defaults.ServerPort,
		RateLimit:       rate.Limit(defaults.ServerRateLimit),
		RateLimitBurst:  defaults.ServerRateLimitBurst,
		ReadTimeout:     defaults.ServerReadTimeout,
		WriteTimeout:    defaults.ServerWriteTimeout,
		IdleTimeout:     defaults.ServerIdleTimeout,
		ShutdownTimeout: defaults.ServerShutdownTimeout,
		HandlerTimeout:  defaults.ServerHandlerTimeout,
	}

	if s := os.Getenv(EnvPort); s != "" {
		if port, err := strconv.Atoi(s); err == nil && port > 0 && port < 65536 {
			cfg.Port = port
		} else {
			slog.Warn("ignoring invalid port", "env", EnvPort, "value", s)
		}
	}

	return cfg
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}
