package storage

import (
	"fmt"

	"github.com/kbukum/blobgate/validation"
)

// DefaultRegion is used for s3 when neither the connection string nor the
// config names one.
const DefaultRegion = "us-east-1"

// Config holds storage configuration.
type Config struct {
	// ConnectionString selects and addresses the backend.
	ConnectionString string `yaml:"connection_string" mapstructure:"connection_string" validate:"required"`
	// Container is the bucket (s3) or subdirectory (local) objects live in.
	Container string `yaml:"container" mapstructure:"container" validate:"required,folder"`
	// AccountName and AccountKey sign access tokens, and authenticate s3
	// API calls when set.
	AccountName string `yaml:"account_name" mapstructure:"account_name" validate:"required"`
	AccountKey  string `yaml:"account_key" mapstructure:"account_key" validate:"required"`

	S3    S3Options    `yaml:"s3" mapstructure:"s3"`
	Local LocalOptions `yaml:"local" mapstructure:"local"`
}

// S3Options tunes the s3 backend.
type S3Options struct {
	Region string `yaml:"region" mapstructure:"region"`
	// ForcePathStyle addresses buckets as host/bucket/key. Always on for
	// custom endpoints.
	ForcePathStyle bool `yaml:"force_path_style" mapstructure:"force_path_style"`
	// ConditionalWrites sends If-None-Match: * on uploads.
	ConditionalWrites bool `yaml:"conditional_writes" mapstructure:"conditional_writes"`
	// HeadOnList issues HeadObject per listed object to fill content types.
	HeadOnList bool `yaml:"head_on_list" mapstructure:"head_on_list"`
}

// LocalOptions tunes the local and memory backends.
type LocalOptions struct {
	// BaseURL is the externally visible address of this gateway; object URLs
	// point at <base_url>/storage/blob/<key>.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Local.BaseURL == "" {
		c.Local.BaseURL = "http://localhost:8080"
	}
}

// Validate checks the configuration, including the connection string
// grammar.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if _, err := ParseConnectionString(c.ConnectionString); err != nil {
		return err
	}
	return nil
}

// Credential builds the signing credential from the account fields.
func (c *Config) Credential() (*Credential, error) {
	return NewCredential(c.AccountName, c.AccountKey)
}
