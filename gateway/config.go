package gateway

import (
	"fmt"
	"time"

	"github.com/kbukum/blobgate/validation"
)

// DefaultTokenTTL is the lifetime of a signed read link.
const DefaultTokenTTL = 10 * time.Minute

// maxTokenTTL is the longest lifetime every backend signer accepts.
const maxTokenTTL = 7 * 24 * time.Hour

// Config holds gateway configuration.
type Config struct {
	// UploadFolder receives uploads that name no folder.
	UploadFolder string `yaml:"upload_folder" mapstructure:"upload_folder" validate:"required,folder"`
	// DownloadFolder is searched by downloads that name no folder.
	DownloadFolder string `yaml:"download_folder" mapstructure:"download_folder" validate:"required,folder"`
	// TokenTTL is how long signed links stay valid.
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.UploadFolder == "" {
		c.UploadFolder = "uploads"
	}
	if c.DownloadFolder == "" {
		c.DownloadFolder = c.UploadFolder
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = DefaultTokenTTL
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	if c.TokenTTL < time.Second || c.TokenTTL > maxTokenTTL {
		return fmt.Errorf("gateway: token_ttl %s must be between 1s and %s", c.TokenTTL, maxTokenTTL)
	}
	return nil
}
