// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Crawler, Index, Search, Server, Redis, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Crawler CrawlerConfig `yaml:"crawler"`
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// CrawlerConfig bounds the breadth-first crawl and sets its HTTP behaviour.
type CrawlerConfig struct {
	MaxDepth       int           `yaml:"maxDepth"`
	MaxPages       int           `yaml:"maxPages"`
	Delay          time.Duration `yaml:"delay"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	UserAgent      string        `yaml:"userAgent"`
}

// IndexConfig holds paths for the persisted index, the bundled sample index,
// and the crawl archive, plus the snippet character budget.
type IndexConfig struct {
	DataDir       string `yaml:"dataDir"`
	IndexFile     string `yaml:"indexFile"`
	SampleFile    string `yaml:"sampleFile"`
	ArchiveFile   string `yaml:"archiveFile"`
	SnippetLength int    `yaml:"snippetLength"`
}

// SearchConfig controls result-list sizing.
type SearchConfig struct {
	DefaultTopK int `yaml:"defaultTopK"`
	MaxTopK     int `yaml:"maxTopK"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// RedisConfig holds Redis connection and query-cache parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// defaultConfig returns a Config with defaults suitable for running the
// engine out of the box against a local data directory.
func defaultConfig() *Config {
	dataDir := "data"
	return &Config{
		Crawler: CrawlerConfig{
			MaxDepth:       2,
			MaxPages:       50,
			Delay:          1 * time.Second,
			RequestTimeout: 10 * time.Second,
			UserAgent:      "MiniSearchBot/1.0 (+https://github.com/SiddhantNarel/mini-search-engine)",
		},
		Index: IndexConfig{
			DataDir:       dataDir,
			IndexFile:     filepath.Join(dataDir, "index.json"),
			SampleFile:    filepath.Join(dataDir, "sample_index.json"),
			ArchiveFile:   filepath.Join(dataDir, "archive.db"),
			SnippetLength: 200,
		},
		Search: SearchConfig{
			DefaultTopK: 10,
			MaxTopK:     100,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads MS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MS_DATA_DIR"); v != "" {
		cfg.Index.DataDir = v
		cfg.Index.IndexFile = filepath.Join(v, "index.json")
		cfg.Index.SampleFile = filepath.Join(v, "sample_index.json")
		cfg.Index.ArchiveFile = filepath.Join(v, "archive.db")
	}
	if v := os.Getenv("MS_INDEX_FILE"); v != "" {
		cfg.Index.IndexFile = v
	}
	if v := os.Getenv("MS_CRAWLER_MAX_DEPTH"); v != "" {
		if depth, err := strconv.Atoi(v); err == nil {
			cfg.Crawler.MaxDepth = depth
		}
	}
	if v := os.Getenv("MS_CRAWLER_MAX_PAGES"); v != "" {
		if pages, err := strconv.Atoi(v); err == nil {
			cfg.Crawler.MaxPages = pages
		}
	}
	if v := os.Getenv("MS_CRAWLER_USER_AGENT"); v != "" {
		cfg.Crawler.UserAgent = v
	}
	if v := os.Getenv("MS_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = v == "1" || v == "true"
	}
	if v := os.Getenv("MS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("MS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("MS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("MS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
