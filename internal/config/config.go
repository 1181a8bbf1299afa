// Package config loads survey settings from defaults, an optional YAML or
// TOML file, and environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/rg0now/wd-pollution-survey/pkg/catalog"
)

const (
	EnvConfigPath  = "SURVEY_CONFIG"
	EnvLogLevel    = "SURVEY_LOG_LEVEL"
	EnvDatabaseDSN = "SURVEY_DATABASE_DSN"
	EnvPEWDDURL    = "SURVEY_PEWDD_URL"
	EnvWorkers     = "SURVEY_WORKERS"
)

// DefaultPEWDDURL is the published location of the PEWDD table.
const DefaultPEWDDURL = "https://raw.githubusercontent.com/jamietwilliams/PEWDD/main/PEWDD.csv"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root configuration of the survey tool.
type Config struct {
	Logging    LoggingConfig     `yaml:"logging" toml:"logging"`
	Catalogs   CatalogsConfig    `yaml:"catalogs" toml:"catalogs"`
	Classify   ClassifyConfig    `yaml:"classify" toml:"classify"`
	Fetch      FetchConfig       `yaml:"fetch" toml:"fetch"`
	Database   DatabaseConfig    `yaml:"database" toml:"database"`
	References []ReferenceConfig `yaml:"references" toml:"references"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// CatalogConfig locates one catalog table. URL is only used by fetch.
type CatalogConfig struct {
	Path        string `yaml:"path" toml:"path"`
	IDColumn    string `yaml:"id_column" toml:"id_column"`
	LabelColumn string `yaml:"label_column" toml:"label_column"`
	Prefix      string `yaml:"prefix" toml:"prefix"`
	URL         string `yaml:"url" toml:"url"`
}

// CatalogsConfig groups the three reference catalogs.
type CatalogsConfig struct {
	GF21SDSS CatalogConfig `yaml:"gf21sdss" toml:"gf21sdss"`
	MWDD     CatalogConfig `yaml:"mwdd" toml:"mwdd"`
	PEWDD    CatalogConfig `yaml:"pewdd" toml:"pewdd"`
}

// ClassifyConfig tunes batch classification.
type ClassifyConfig struct {
	Workers  int    `yaml:"workers" toml:"workers"`
	IDColumn string `yaml:"id_column" toml:"id_column"`
}

// FetchConfig tunes catalog downloads. Durations use time.ParseDuration syntax.
type FetchConfig struct {
	Timeout    string `yaml:"timeout" toml:"timeout"`
	MaxRetries int    `yaml:"max_retries" toml:"max_retries"`
	BaseDelay  string `yaml:"base_delay" toml:"base_delay"`
	MaxDelay   string `yaml:"max_delay" toml:"max_delay"`
}

// DatabaseConfig holds the optional PostgreSQL verdict store settings.
type DatabaseConfig struct {
	DSN         string `yaml:"dsn" toml:"dsn"`
	Table       string `yaml:"table" toml:"table"`
	ConnTimeout string `yaml:"conn_timeout" toml:"conn_timeout"`
}

// ReferenceConfig describes a sample of polluted candidates from previous
// work, checked by the evaluate command.
type ReferenceConfig struct {
	Name        string `yaml:"name" toml:"name"`
	Path        string `yaml:"path" toml:"path"`
	IDColumn    string `yaml:"id_column" toml:"id_column"`
	LabelColumn string `yaml:"label_column" toml:"label_column"`
	Contains    string `yaml:"contains" toml:"contains"`
	Equals      string `yaml:"equals" toml:"equals"`
	Optional    bool   `yaml:"optional" toml:"optional"`
}

// Load builds the configuration. path selects the config file; when empty,
// SURVEY_CONFIG is consulted, and with neither only defaults and
// environment variables apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg.Merge(overlay)
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &cfg)
	case ".toml":
		err = toml.Unmarshal(raw, &cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalid, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration, matching the published
// layouts of the three catalogs and the data/ directory convention.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Catalogs: CatalogsConfig{
			GF21SDSS: CatalogConfig{
				Path:        "data/external/gf21_sdss.csv",
				IDColumn:    catalog.GF21SDSSColumns.ID,
				LabelColumn: catalog.GF21SDSSColumns.Label,
			},
			MWDD: CatalogConfig{
				Path:        "data/external/mwdd.csv",
				IDColumn:    catalog.MWDDColumns.ID,
				LabelColumn: catalog.MWDDColumns.Label,
			},
			PEWDD: CatalogConfig{
				Path:     "data/external/pewdd.csv",
				IDColumn: catalog.PEWDDColumns.ID,
				Prefix:   catalog.PEWDDColumns.Prefix,
				URL:      DefaultPEWDDURL,
			},
		},
		Fetch: FetchConfig{
			Timeout:    "60s",
			MaxRetries: 3,
			BaseDelay:  "500ms",
			MaxDelay:   "10s",
		},
		Database: DatabaseConfig{
			Table:       "pollution_verdicts",
			ConnTimeout: "5s",
		},
		References: []ReferenceConfig{
			{
				Name:        "garciazamora23",
				Path:        "data/external/previous_work/garciazamora23.csv",
				LabelColumn: "SPPred",
				Contains:    "Z",
			},
			{
				Name:        "vincent24",
				Path:        "data/external/previous_work/vincent24.csv",
				LabelColumn: "SpType",
				Equals:      "DZ",
			},
		},
	}
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Logging.Level != "" {
		c.Logging.Level = overlay.Logging.Level
	}
	c.Catalogs.GF21SDSS.Merge(&overlay.Catalogs.GF21SDSS)
	c.Catalogs.MWDD.Merge(&overlay.Catalogs.MWDD)
	c.Catalogs.PEWDD.Merge(&overlay.Catalogs.PEWDD)
	c.Classify.Merge(&overlay.Classify)
	c.Fetch.Merge(&overlay.Fetch)
	c.Database.Merge(&overlay.Database)
	if len(overlay.References) > 0 {
		c.References = overlay.References
	}
}

// Merge overwrites non-zero fields from overlay.
func (c *CatalogConfig) Merge(overlay *CatalogConfig) {
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.IDColumn != "" {
		c.IDColumn = overlay.IDColumn
	}
	if overlay.LabelColumn != "" {
		c.LabelColumn = overlay.LabelColumn
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
}

// Merge overwrites non-zero fields from overlay.
func (c *ClassifyConfig) Merge(overlay *ClassifyConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.IDColumn != "" {
		c.IDColumn = overlay.IDColumn
	}
}

// Merge overwrites non-zero fields from overlay.
func (c *FetchConfig) Merge(overlay *FetchConfig) {
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.BaseDelay != "" {
		c.BaseDelay = overlay.BaseDelay
	}
	if overlay.MaxDelay != "" {
		c.MaxDelay = overlay.MaxDelay
	}
}

// Merge overwrites non-zero fields from overlay.
func (c *DatabaseConfig) Merge(overlay *DatabaseConfig) {
	if overlay.DSN != "" {
		c.DSN = overlay.DSN
	}
	if overlay.Table != "" {
		c.Table = overlay.Table
	}
	if overlay.ConnTimeout != "" {
		c.ConnTimeout = overlay.ConnTimeout
	}
}

func (c *Config) loadEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvDatabaseDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(EnvPEWDDURL); v != "" {
		c.Catalogs.PEWDD.URL = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, EnvWorkers, err)
		}
		c.Classify.Workers = n
	}
	return nil
}

func (c *Config) validate() error {
	if c.Classify.Workers < 0 {
		return fmt.Errorf("%w: classify.workers must not be negative", ErrInvalid)
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("%w: fetch.max_retries must not be negative", ErrInvalid)
	}
	for name, d := range map[string]string{
		"fetch.timeout":         c.Fetch.Timeout,
		"fetch.base_delay":      c.Fetch.BaseDelay,
		"fetch.max_delay":       c.Fetch.MaxDelay,
		"database.conn_timeout": c.Database.ConnTimeout,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
		}
	}
	for i, ref := range c.References {
		if ref.Name == "" || ref.Path == "" {
			return fmt.Errorf("%w: references[%d] needs a name and a path", ErrInvalid, i)
		}
	}
	return nil
}

// Sources converts the catalog settings into catalog load sources.
func (c *CatalogsConfig) Sources() catalog.Sources {
	return catalog.Sources{
		GF21SDSS: c.GF21SDSS.source(),
		MWDD:     c.MWDD.source(),
		PEWDD:    c.PEWDD.source(),
	}
}

func (c *CatalogConfig) source() catalog.Source {
	return catalog.Source{
		Path: c.Path,
		Columns: catalog.Columns{
			ID:     c.IDColumn,
			Label:  c.LabelColumn,
			Prefix: c.Prefix,
		},
	}
}

// SampleSpec converts a reference into a sample selection.
func (r *ReferenceConfig) SampleSpec() catalog.SampleSpec {
	return catalog.SampleSpec{
		IDColumn:    r.IDColumn,
		LabelColumn: r.LabelColumn,
		Contains:    r.Contains,
		Equals:      r.Equals,
	}
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *FetchConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// BaseDelayDuration returns BaseDelay as a time.Duration.
func (c *FetchConfig) BaseDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.BaseDelay)
	return d
}

// MaxDelayDuration returns MaxDelay as a time.Duration.
func (c *FetchConfig) MaxDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxDelay)
	return d
}

// ConnTimeoutDuration returns ConnTimeout as a time.Duration.
func (c *DatabaseConfig) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}
