package driving

import "github.com/custodia-labs/placerank/internal/core/domain"

// Config value sources, in increasing precedence.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
)

// ConfigEntry is one effective configuration value.
type ConfigEntry struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, then the config file,
	// then environment overrides. The settings are returned together with
	// any validation error so callers can still show them.
	Get() (domain.Settings, error)

	// Set validates and persists one key.
	Set(key, value string) error

	// Unset removes a key from the config file, restoring its default.
	Unset(key string) error

	// Entries lists every known key with its effective value and source.
	Entries() ([]ConfigEntry, error)

	// Path returns the config file path.
	Path() string
}
