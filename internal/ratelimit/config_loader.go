package ratelimit

import "fmt"

// Service names used as keys under rate_limits.
const (
	ServiceRegistry = "gbif"
	ServiceCatalog  = "collectory"
)

// SourceConfigs maps a service name to its limiter config.
type SourceConfigs struct {
	RateLimits map[string]Config `yaml:"rate_limits" json:"rate_limits"`
}

// Get returns limiter config for a service or the default if missing.
func (s SourceConfigs) Get(service string) (Config, error) {
	if s.RateLimits == nil {
		return DefaultConfig(), fmt.Errorf("no rate_limits configured")
	}
	cfg, ok := s.RateLimits[service]
	if !ok {
		return DefaultConfig(), fmt.Errorf("rate_limits for %s not found", service)
	}
	return applyDefaults(cfg), nil
}

// Limiter builds the limiter for a service, falling back to defaults.
func (s SourceConfigs) Limiter(service string) Limiter {
	cfg, _ := s.Get(service)
	return NewLimiter(cfg)
}
