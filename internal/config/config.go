// Package config loads gbif-sync settings from YAML, an optional .env file
// and GBIF_SYNC_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mkoziy/gbif-sync/internal/models"
	"github.com/mkoziy/gbif-sync/internal/ratelimit"
	"github.com/mkoziy/gbif-sync/internal/sources/gbif"
)

// Environment variable names that override file values.
const (
	EnvRegistryURL    = "GBIF_SYNC_REGISTRY_URL"
	EnvCatalogURL     = "GBIF_SYNC_CATALOG_URL"
	EnvCatalogAPIKey  = "GBIF_SYNC_CATALOG_API_KEY"
	EnvArchiveBaseURL = "GBIF_SYNC_ARCHIVE_BASE_URL"
	EnvDatabaseDSN    = "GBIF_SYNC_DB"
)

type RegistryConfig struct {
	BaseURL string `yaml:"base_url"`
}

type CatalogConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type ArchiveConfig struct {
	// BaseURL is the public location serving gbif-split/{key}.zip.
	BaseURL string `yaml:"base_url"`
}

type LogConfig struct {
	Dir string `yaml:"dir"`
}

type DatabaseConfig struct {
	DSN   string `yaml:"dsn"`
	Debug bool   `yaml:"debug"`
}

type HTTPConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type SyncConfig struct {
	SkipNotFound *bool `yaml:"skip_not_found"`
}

type MappingConfig struct {
	ContentTag string `yaml:"content_tag"`
	Region     string `yaml:"region"`
	Geometry   string `yaml:"geometry"`
	PortalURL  string `yaml:"portal_url"`
}

type ReportConfig struct {
	// Path of the CSV report; empty means next to the run log.
	Path string `yaml:"path"`
}

type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Archive  ArchiveConfig  `yaml:"archive"`
	KeysFile string         `yaml:"keys_file"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Sync     SyncConfig     `yaml:"sync"`
	Mapping  MappingConfig  `yaml:"mapping"`
	Report   ReportConfig   `yaml:"report"`

	ratelimit.SourceConfigs `yaml:",inline"`
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Registry.BaseURL = getEnv(EnvRegistryURL, c.Registry.BaseURL)
	c.Catalog.BaseURL = getEnv(EnvCatalogURL, c.Catalog.BaseURL)
	c.Catalog.APIKey = getEnv(EnvCatalogAPIKey, c.Catalog.APIKey)
	c.Archive.BaseURL = getEnv(EnvArchiveBaseURL, c.Archive.BaseURL)
	c.Database.DSN = getEnv(EnvDatabaseDSN, c.Database.DSN)
}

func (c *Config) applyDefaults() {
	if c.Registry.BaseURL == "" {
		c.Registry.BaseURL = gbif.DefaultBaseURL
	}
	if c.KeysFile == "" {
		c.KeysFile = "keys.txt"
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "file:gbif-sync.db"
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.Sync.SkipNotFound == nil {
		skip := true
		c.Sync.SkipNotFound = &skip
	}
	if c.RateLimits == nil {
		c.RateLimits = map[string]ratelimit.Config{}
	}
}

// Validate checks that the service URLs are usable and that the content tag
// cannot collide with the per-kind tags the mapper adds.
func (c *Config) Validate() error {
	var errs []error
	for name, raw := range map[string]string{
		"registry.base_url": c.Registry.BaseURL,
		"catalog.base_url":  c.Catalog.BaseURL,
		"archive.base_url":  c.Archive.BaseURL,
	} {
		if err := validateURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.Mapping.PortalURL != "" {
		if err := validateURL(c.Mapping.PortalURL); err != nil {
			errs = append(errs, fmt.Errorf("mapping.portal_url: %w", err))
		}
	}
	tag := strings.TrimSpace(c.Mapping.ContentTag)
	for _, reserved := range []string{models.ContentPointOccurrenceData, models.ContentSpeciesList} {
		if strings.EqualFold(tag, reserved) {
			errs = append(errs, fmt.Errorf("mapping.content_tag: %q is reserved for dataset kinds", c.Mapping.ContentTag))
		}
	}
	return errors.Join(errs...)
}

// SkipNotFound reports whether registry 404s are skipped rather than errors.
func (c *Config) SkipNotFound() bool {
	return c.Sync.SkipNotFound == nil || *c.Sync.SkipNotFound
}

// MapOptions returns the mapper inputs derived from the config.
func (c *Config) MapOptions() gbif.MapOptions {
	opts := gbif.DefaultMapOptions(c.Archive.BaseURL)
	if c.Mapping.ContentTag != "" {
		opts.ContentTag = c.Mapping.ContentTag
	}
	if c.Mapping.Region != "" {
		opts.Region = c.Mapping.Region
	}
	if c.Mapping.Geometry != "" {
		opts.Geometry = c.Mapping.Geometry
	}
	if c.Mapping.PortalURL != "" {
		opts.PortalURL = c.Mapping.PortalURL
	}
	return opts
}

// LogPath is the per-run log file for a run started at start.
func (c *Config) LogPath(start time.Time) string {
	return filepath.Join(c.Log.Dir, "gbif-sync-"+start.Format("20060102-150405")+".log")
}

// ReportPath is the CSV report for a run started at start.
func (c *Config) ReportPath(start time.Time) string {
	if c.Report.Path != "" {
		return c.Report.Path
	}
	return filepath.Join(c.Log.Dir, "gbif-sync-"+start.Format("20060102-150405")+".csv")
}

// Snapshot renders the config as YAML with secrets redacted.
func (c *Config) Snapshot() (string, error) {
	cp := *c
	if cp.Catalog.APIKey != "" {
		cp.Catalog.APIKey = "REDACTED"
	}
	out, err := yaml.Marshal(&cp)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
