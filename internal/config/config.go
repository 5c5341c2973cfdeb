package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables that override values read from the config file.
const (
	EnvFeedAPIKey  = "JOBSYNC_FEED_API_KEY"
	EnvDatabaseURL = "JOBSYNC_DATABASE_URL"
	EnvIndexURL    = "JOBSYNC_INDEX_URL"
)

// Config represents the main configuration for jobsync.
type Config struct {
	BaseDir  string `toml:"base_dir"`
	DataDir  string `toml:"data_dir"` // feed documents are downloaded here
	LogDir   string `toml:"log_dir"`
	LogLevel string `toml:"log_level"` // stderr level: "debug", "info", "warn" or "error"
	Dialect  string `toml:"dialect"`   // feed dialect: "v1" or "v2"
	Timezone string `toml:"timezone"`  // location feed dates are read in
	NodeTag  string `toml:"node_tag"`  // name of the job container element

	Feed      FeedConfig      `toml:"feed"`
	Database  DatabaseConfig  `toml:"database"`
	Index     IndexConfig     `toml:"index"`
	Taxonomy  TaxonomyConfig  `toml:"taxonomy"`
	Notifier  NotifierConfig  `toml:"notifier"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// FeedConfig selects where feed documents come from.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type FeedConfig struct {
	Type string `toml:"type"` // "http", "s3" or "local"

	// HTTP-specific fields (only used when Type == "http")
	BaseURL string `toml:"base_url,omitempty"`
	APIKey  string `toml:"api_key,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`

	// Optional overrides for S3-compatible servers; the default credential
	// chain is used when the keys are empty.
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// DatabaseConfig represents configuration for the relational store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite", "memory" or "postgres"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
	URL     string `toml:"url,omitempty"`      // only used for type=postgres
}

// IndexConfig represents configuration for the search index.
type IndexConfig struct {
	Type           string `toml:"type"` // "solr" or "memory"
	URL            string `toml:"url,omitempty"`
	PageSize       int    `toml:"page_size,omitempty"`
	ChunkSize      int    `toml:"chunk_size,omitempty"`
	CommitWithinMs int    `toml:"commit_within_ms,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`
}

// CommitWithin returns the configured commit interval, or zero if unset.
func (c IndexConfig) CommitWithin() time.Duration {
	return time.Duration(c.CommitWithinMs) * time.Millisecond
}

// Timeout returns the configured request timeout, or zero if unset.
func (c IndexConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TaxonomyConfig selects the occupation code lookup and its optional cache.
type TaxonomyConfig struct {
	Type            string `toml:"type"`                // "database" or "memory"
	RedisURL        string `toml:"redis_url,omitempty"` // enables the cache when set
	CacheTTLSeconds int    `toml:"cache_ttl_seconds,omitempty"`
}

// NotifierConfig selects where feed validation failures are reported.
type NotifierConfig struct {
	Type    string `toml:"type"` // "log" or "nats"
	NATSURL string `toml:"nats_url,omitempty"`
	Subject string `toml:"subject,omitempty"`
}

// SchedulerConfig drives the periodic sync of the run command.
type SchedulerConfig struct {
	Spec          string  `toml:"spec"` // cron expression
	BusinessUnits []int64 `toml:"business_units"`
}

// MetricsConfig holds the listen address of the metrics endpoint.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// NewConfig creates a new Config rooted at baseDir with local defaults.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:  baseDir,
		DataDir:  filepath.Join(baseDir, "feeds"),
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Dialect:  "v2",
		Timezone: "America/New_York",
		NodeTag:  "jobs",
		Feed:     FeedConfig{Type: "local"},
		Database: DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
		Index:    IndexConfig{Type: "memory"},
		Taxonomy: TaxonomyConfig{Type: "database"},
		Notifier: NotifierConfig{Type: "log"},
		Scheduler: SchedulerConfig{
			Spec: "@every 1h",
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9464"},
	}
}

// Location loads the configured timezone. An empty timezone is UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ApplyEnv overrides secrets and endpoints with environment values found
// through lookup. Unset or empty variables leave the file value alone.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Feed.APIKey, EnvFeedAPIKey)
	set(&c.Database.URL, EnvDatabaseURL)
	set(&c.Index.URL, EnvIndexURL)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to a new config file at path. It refuses to overwrite.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
