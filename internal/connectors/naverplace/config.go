package naverplace

import (
	"time"

	"github.com/custodia-labs/placerank/internal/core/domain"
)

const (
	// DefaultBaseURL is the mobile place site.
	DefaultBaseURL = "https://m.place.naver.com"

	// DefaultQueryEndpoint is the structured query endpoint.
	DefaultQueryEndpoint = "https://pcmap-api.place.naver.com/graphql"

	// DefaultBusinessType is the listing category path segment.
	DefaultBusinessType = "restaurant"

	// DefaultAcceptLanguage is sent with every page request.
	DefaultAcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
)

// Config holds the connector settings.
type Config struct {
	BaseURL        string
	QueryEndpoint  string
	BusinessType   string
	AcceptLanguage string
	UserAgent      string

	// PageTimeout bounds each page fetch attempt.
	PageTimeout time.Duration

	// QueryTimeout bounds each structured query attempt.
	QueryTimeout time.Duration

	// MinRequestSpacing is the minimum gap between two requests to the
	// same host.
	MinRequestSpacing time.Duration

	PageRetry  domain.RetrySettings
	QueryRetry domain.RetrySettings
}

// DefaultConfig returns the production endpoints and default limits.
func DefaultConfig() Config {
	s := domain.DefaultSettings()
	return ConfigFromSettings(s)
}

// ConfigFromSettings derives connector settings from application settings.
func ConfigFromSettings(s domain.Settings) Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		QueryEndpoint:     DefaultQueryEndpoint,
		BusinessType:      DefaultBusinessType,
		AcceptLanguage:    DefaultAcceptLanguage,
		UserAgent:         s.Search.UserAgent,
		PageTimeout:       s.Search.Timeout,
		QueryTimeout:      domain.DefaultQueryTimeout,
		MinRequestSpacing: domain.DefaultMinRequestSpacing,
		PageRetry:         s.PageRetry,
		QueryRetry:        s.QueryRetry,
	}
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.QueryEndpoint == "" {
		c.QueryEndpoint = DefaultQueryEndpoint
	}
	if c.BusinessType == "" {
		c.BusinessType = DefaultBusinessType
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = DefaultAcceptLanguage
	}
	if c.UserAgent == "" {
		c.UserAgent = domain.DefaultMobileUserAgent
	}
	return c
}
