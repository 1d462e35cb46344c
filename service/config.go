package service

import (
	"fmt"
	"time"

	"github.com/kbukum/blobgate/bootstrap"
	"github.com/kbukum/blobgate/config"
	"github.com/kbukum/blobgate/gateway"
	"github.com/kbukum/blobgate/observability"
	"github.com/kbukum/blobgate/server"
	"github.com/kbukum/blobgate/storage"
)

// Name is the service name used for config discovery and telemetry.
const Name = "blobgate"

// Config is the complete blobgate configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// ShutdownTimeout bounds the drain delay plus stopping every component.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	Server    server.Config        `yaml:"server" mapstructure:"server"`
	Storage   storage.Config       `yaml:"storage" mapstructure:"storage"`
	Gateway   gateway.Config       `yaml:"gateway" mapstructure:"gateway"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = Name
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = bootstrap.DefaultGracefulTimeout
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Gateway.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if c.ShutdownTimeout <= c.Server.DrainDelay {
		return fmt.Errorf("shutdown_timeout (%s) must exceed server.drain_delay (%s)", c.ShutdownTimeout, c.Server.DrainDelay)
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Gateway.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	return nil
}

// Load reads the configuration from file, .env and environment. Empty
// paths fall back to the standard search locations.
func Load(configFile, envFile string) (*Config, error) {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg := &Config{}
	if err := config.LoadConfig(Name, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
