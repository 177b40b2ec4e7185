package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dagaz/internal/routines"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Auth     AuthConfig        `yaml:"auth"`
	Calendar CalendarConfig    `yaml:"calendar"`
	Routines RoutinesConfig    `yaml:"routines"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Calendar.Validate(); err != nil {
		return err
	}
	return c.Routines.Validate()
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

// AuthConfig holds authentication configuration for the REST API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// CalendarConfig holds the external calendar store configuration.
type CalendarConfig struct {
	// CredentialsPath is the OAuth client credentials JSON file.
	CredentialsPath string `yaml:"credentials_path"`
	// TokenPath is the stored OAuth token JSON file.
	TokenPath string `yaml:"token_path"`
	// CalendarID is the target calendar; defaults to "primary".
	CalendarID string `yaml:"calendar_id"`
	// Timezone is the IANA zone attached to created events and used to
	// interpret routine clock times (e.g. "Europe/Berlin").
	Timezone string `yaml:"timezone"`
}

// Validate validates the calendar configuration.
func (c *CalendarConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CredentialsPath, validation.Required),
		validation.Field(&c.TokenPath, validation.Required),
	)
}

// RoutinesConfig holds the routines sync configuration.
type RoutinesConfig struct {
	// SourceURL locates the routines document (http(s), file://, or a
	// bare filesystem path).
	SourceURL string `yaml:"source_url"`
	// LookaheadDays is the horizon length when the document sets none.
	LookaheadDays int `yaml:"lookahead_days"`
	// Schedule is a cron expression for recurring sync runs; empty
	// disables the scheduler.
	Schedule string `yaml:"schedule"`
	// HistoryPath is the SQLite run-journal path; empty disables history.
	HistoryPath string `yaml:"history_path"`
}

// Validate validates the routines configuration.
func (c *RoutinesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SourceURL, validation.Required),
		validation.Field(&c.LookaheadDays, validation.Min(0)),
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
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Calendar: CalendarConfig{
			CalendarID: "primary",
			Timezone:   "UTC",
		},
		Routines: RoutinesConfig{
			LookaheadDays: routines.DefaultLookaheadDays,
			Schedule:      "0 6 * * *",
			HistoryPath:   "./dagaz.db",
		},
	}
}
