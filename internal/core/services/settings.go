package services

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driven"
	"github.com/custodia-labs/placerank/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeySearchMaxPages       = "search.max_pages"
	KeySearchResultsPerPage = "search.results_per_page"
	KeySearchUserAgent      = "search.user_agent"
	KeySearchTimeout        = "search.timeout_seconds"
	KeyBatchConcurrency     = "batch.concurrency"
	KeyBatchWindowDelay     = "batch.window_delay_ms"
	KeyBreakerThreshold     = "breaker.failure_threshold"
	KeyBreakerReset         = "breaker.reset_timeout_seconds"
	KeyRetryMax             = "retry.max_retries"
	KeyRetryBaseDelay       = "retry.base_delay_ms"
	KeyFetchMode            = "fetch.mode"
	KeyStoragePath          = "storage.path"
	KeyVocabPath            = "vocab.path"

	// KeyGdidLookup prefixes "gdid.lookup.<TYPE>:<raw id>" table entries.
	KeyGdidLookup = "gdid.lookup"
)

// EnvPrefix prefixes environment overrides, e.g. PLACERANK_SEARCH_MAX_PAGES.
const EnvPrefix = "PLACERANK_"

type valueKind int

const (
	kindInt valueKind = iota
	kindString
)

// setting binds a config key to a field of domain.Settings.
type setting struct {
	key  string
	kind valueKind
	set  func(s *domain.Settings, v any)
	get  func(s domain.Settings) any
}

var settingsTable = []setting{
	{KeySearchMaxPages, kindInt,
		func(s *domain.Settings, v any) { s.Search.MaxPages = v.(int) },
		func(s domain.Settings) any { return s.Search.MaxPages }},
	{KeySearchResultsPerPage, kindInt,
		func(s *domain.Settings, v any) { s.Search.ResultsPerPage = v.(int) },
		func(s domain.Settings) any { return s.Search.ResultsPerPage }},
	{KeySearchUserAgent, kindString,
		func(s *domain.Settings, v any) { s.Search.UserAgent = v.(string) },
		func(s domain.Settings) any { return s.Search.UserAgent }},
	{KeySearchTimeout, kindInt,
		func(s *domain.Settings, v any) { s.Search.Timeout = time.Duration(v.(int)) * time.Second },
		func(s domain.Settings) any { return int(s.Search.Timeout / time.Second) }},
	{KeyBatchConcurrency, kindInt,
		func(s *domain.Settings, v any) { s.Batch.Concurrency = v.(int) },
		func(s domain.Settings) any { return s.Batch.Concurrency }},
	{KeyBatchWindowDelay, kindInt,
		func(s *domain.Settings, v any) { s.Batch.WindowDelay = time.Duration(v.(int)) * time.Millisecond },
		func(s domain.Settings) any { return int(s.Batch.WindowDelay / time.Millisecond) }},
	{KeyBreakerThreshold, kindInt,
		func(s *domain.Settings, v any) { s.Breaker.FailureThreshold = v.(int) },
		func(s domain.Settings) any { return s.Breaker.FailureThreshold }},
	{KeyBreakerReset, kindInt,
		func(s *domain.Settings, v any) { s.Breaker.ResetTimeout = time.Duration(v.(int)) * time.Second },
		func(s domain.Settings) any { return int(s.Breaker.ResetTimeout / time.Second) }},
	{KeyRetryMax, kindInt,
		func(s *domain.Settings, v any) { s.PageRetry.MaxRetries = v.(int) },
		func(s domain.Settings) any { return s.PageRetry.MaxRetries }},
	{KeyRetryBaseDelay, kindInt,
		func(s *domain.Settings, v any) { s.PageRetry.BaseDelay = time.Duration(v.(int)) * time.Millisecond },
		func(s domain.Settings) any { return int(s.PageRetry.BaseDelay / time.Millisecond) }},
	{KeyFetchMode, kindString,
		func(s *domain.Settings, v any) { s.FetchMode = domain.FetchMode(v.(string)) },
		func(s domain.Settings) any { return string(s.FetchMode) }},
	{KeyStoragePath, kindString,
		func(s *domain.Settings, v any) { s.StoragePath = v.(string) },
		func(s domain.Settings) any { return s.StoragePath }},
	{KeyVocabPath, kindString,
		func(s *domain.Settings, v any) { s.VocabPath = v.(string) },
		func(s domain.Settings) any { return s.VocabPath }},
}

func lookupSetting(key string) (setting, bool) {
	for _, st := range settingsTable {
		if st.key == key {
			return st, true
		}
	}
	return setting{}, false
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// Get returns defaults overlaid with the config file and environment.
func (s *SettingsService) Get() (domain.Settings, error) {
	settings := domain.DefaultSettings()

	for _, st := range settingsTable {
		if raw, ok := s.configStore.Get(st.key); ok {
			v, err := convert(st.kind, raw)
			if err != nil {
				return settings, fmt.Errorf("config %s: %w", st.key, err)
			}
			st.set(&settings, v)
		}
		if raw, ok := s.lookupEnv(EnvName(st.key)); ok && raw != "" {
			v, err := convert(st.kind, raw)
			if err != nil {
				return settings, fmt.Errorf("env %s: %w", EnvName(st.key), err)
			}
			st.set(&settings, v)
		}
	}

	if lookup := s.configStore.GetStringMap(KeyGdidLookup); len(lookup) > 0 {
		settings.GdidLookup = lookup
	}

	return settings, settings.Validate()
}

// Set validates value against the other effective settings and persists it.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	if entry, ok := strings.CutPrefix(key, KeyGdidLookup+"."); ok {
		if entry == "" || value == "" {
			return fmt.Errorf("gdid lookup needs a key and a listing id: %w", domain.ErrInvalidInput)
		}
		return s.configStore.Set(key, value)
	}

	st, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("unknown config key %q: %w", key, domain.ErrInvalidInput)
	}
	v, err := convert(st.kind, value)
	if err != nil {
		return fmt.Errorf("config %s: %w", key, err)
	}

	candidate, _ := s.Get()
	st.set(&candidate, v)
	if err := candidate.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, v); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Unset removes key from the config file.
func (s *SettingsService) Unset(key string) error {
	if _, ok := lookupSetting(key); !ok && !strings.HasPrefix(key, KeyGdidLookup+".") {
		return fmt.Errorf("unknown config key %q: %w", key, domain.ErrInvalidInput)
	}
	return s.configStore.Delete(key)
}

// Entries lists every known key with its effective value and source.
// Gdid lookup entries follow the fixed keys in sorted order.
func (s *SettingsService) Entries() ([]driving.ConfigEntry, error) {
	settings, err := s.Get()
	if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
		return nil, err
	}

	entries := make([]driving.ConfigEntry, 0, len(settingsTable))
	for _, st := range settingsTable {
		source := driving.SourceDefault
		if _, ok := s.configStore.Get(st.key); ok {
			source = driving.SourceFile
		}
		if raw, ok := s.lookupEnv(EnvName(st.key)); ok && raw != "" {
			source = driving.SourceEnv
		}
		entries = append(entries, driving.ConfigEntry{
			Key:    st.key,
			Value:  fmt.Sprint(st.get(settings)),
			Source: source,
		})
	}

	lookupKeys := make([]string, 0, len(settings.GdidLookup))
	for k := range settings.GdidLookup {
		lookupKeys = append(lookupKeys, k)
	}
	sort.Strings(lookupKeys)
	for _, k := range lookupKeys {
		entries = append(entries, driving.ConfigEntry{
			Key:    KeyGdidLookup + "." + k,
			Value:  settings.GdidLookup[k],
			Source: driving.SourceFile,
		})
	}
	return entries, nil
}

// Path returns the config file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// convert coerces a file, env or CLI value to the key's kind.
func convert(kind valueKind, raw any) (any, error) {
	switch kind {
	case kindInt:
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v != float64(int(v)) {
				return nil, fmt.Errorf("%v is not an integer: %w", v, domain.ErrInvalidInput)
			}
			return int(v), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%q is not an integer: %w", v, domain.ErrInvalidInput)
			}
			return n, nil
		}
	case kindString:
		if v, ok := raw.(string); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("unexpected value %v (%T): %w", raw, raw, domain.ErrInvalidInput)
}
