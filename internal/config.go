package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Store  StoreConfig       `yaml:"store"`
	Blobs  BlobConfig        `yaml:"blobs"`
	Access AccessConfig      `yaml:"access"`
	Admin  AdminConfig       `yaml:"admin"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Blobs.Validate(); err != nil {
		return err
	}
	if err := c.Access.Validate(); err != nil {
		return err
	}
	return c.Admin.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig holds the SQLite document store configuration.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// BlobConfig holds the blob storage configuration.
type BlobConfig struct {
	Path           string `yaml:"path"`
	PublicBase     string `yaml:"public_base"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// Validate validates the blob configuration.
func (c *BlobConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.MaxUploadBytes, validation.Required, validation.Min(int64(1))),
	)
}

// AccessConfig controls protected-folder access sessions and the folder
// write timeout.
type AccessConfig struct {
	WindowMinutes        int `yaml:"window_minutes"`
	SweepSeconds         int `yaml:"sweep_seconds"`
	MaxAttempts          int `yaml:"max_attempts"`
	MinPasswordLen       int `yaml:"min_password_len"`
	CreateTimeoutSeconds int `yaml:"create_timeout_seconds"`
}

// Validate validates the access configuration.
func (c *AccessConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.WindowMinutes, validation.Required, validation.Min(1)),
		validation.Field(&c.SweepSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.MinPasswordLen, validation.Required, validation.Min(1)),
		validation.Field(&c.CreateTimeoutSeconds, validation.Required, validation.Min(1)),
	)
}

// Window returns the access window as a duration.
func (c *AccessConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

// SweepInterval returns the sweep interval as a duration.
func (c *AccessConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepSeconds) * time.Second
}

// CreateTimeout returns the folder-create timeout as a duration.
func (c *AccessConfig) CreateTimeout() time.Duration {
	return time.Duration(c.CreateTimeoutSeconds) * time.Second
}

// AdminConfig identifies the administrator account.
type AdminConfig struct {
	Email string `yaml:"email"`
}

// Validate validates the admin configuration. An empty email disables the
// admin surface entirely.
func (c *AdminConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Email, validation.When(c.Email != "", is.Email)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Path: "./docflow.db",
		},
		Blobs: BlobConfig{
			Path:           "./blobs",
			MaxUploadBytes: 50 << 20,
		},
		Access: AccessConfig{
			WindowMinutes:        15,
			SweepSeconds:         60,
			MaxAttempts:          5,
			MinPasswordLen:       6,
			CreateTimeoutSeconds: 15,
		},
		Admin: AdminConfig{},
	}
}
