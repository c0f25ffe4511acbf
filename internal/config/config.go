// Package config provides configuration loading and structs for the kioku server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kioku/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug         bool                    `yaml:"debug"`
	Server        ServerConfig            `yaml:"server"`
	Storage       StorageConfig           `yaml:"storage"`
	Retrieval     RetrievalConfig         `yaml:"retrieval"`
	Chat          ChatConfig              `yaml:"chat"`
	Catalog       CatalogConfig           `yaml:"catalog"`
	SeedDocuments []*models.DocumentInput `yaml:"seed_documents"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects the document store backend.
type StorageConfig struct {
	Backend      string `yaml:"backend"` // sqlite, bolt or memory
	DatabasePath string `yaml:"database_path"`
}

// RetrievalConfig holds chunking and ranking settings.
type RetrievalConfig struct {
	ChunkSize    int     `yaml:"chunk_size"`
	ChunkOverlap int     `yaml:"chunk_overlap"`
	TopK         int     `yaml:"top_k"`
	MinScore     float64 `yaml:"min_score"`
}

// ChatConfig holds settings for the chat-completions API.
type ChatConfig struct {
	BaseURL      string  `yaml:"base_url"`
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"api_key,omitempty"`
	SystemPrompt string  `yaml:"system_prompt"`
	HistoryLimit int     `yaml:"history_limit"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	Referer      string  `yaml:"referer"`
	Title        string  `yaml:"title"`
	TimeoutSec   int     `yaml:"timeout_sec"`
}

// CatalogConfig holds product catalog sources. URL is tried first, then Path.
type CatalogConfig struct {
	Path      string `yaml:"path"`
	URL       string `yaml:"url"`
	URLAPIKey string `yaml:"url_api_key,omitempty"`
	Watch     bool   `yaml:"watch"`
}

// Enabled reports whether any catalog source is configured.
func (c *CatalogConfig) Enabled() bool {
	return c.Path != "" || c.URL != ""
}

// envOverrides are read from the environment (and a .env file) after the YAML file.
type envOverrides struct {
	Debug         *bool  `envconfig:"DEBUG"`
	APIKey        string `envconfig:"API_KEY"`
	Model         string `envconfig:"MODEL"`
	BaseURL       string `envconfig:"BASE_URL"`
	DatabasePath  string `envconfig:"DATABASE_PATH"`
	Backend       string `envconfig:"STORAGE_BACKEND"`
	CatalogURL    string `envconfig:"CATALOG_URL"`
	CatalogAPIKey string `envconfig:"CATALOG_API_KEY"`
}

// EnvPrefix is the prefix of environment overrides, e.g. KIOKU_API_KEY.
const EnvPrefix = "KIOKU"

// Load reads and parses the config file at path, applies environment overrides,
// expands paths, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	if cfg.Storage.DatabasePath != ":memory:" {
		cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	}
	if cfg.Catalog.Path != "" {
		cfg.Catalog.Path = expandPath(cfg.Catalog.Path, configDir)
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied and environment
// overrides read. It is used when no config file exists.
func Default() (*Config, error) {
	var cfg Config
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyEnv loads a .env file from the working directory if present and
// overrides cfg with KIOKU_* variables.
func ApplyEnv(cfg *Config) error {
	_ = godotenv.Load()

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}
	if env.Debug != nil {
		cfg.Debug = *env.Debug
	}
	override(&cfg.Chat.APIKey, env.APIKey)
	override(&cfg.Chat.Model, env.Model)
	override(&cfg.Chat.BaseURL, env.BaseURL)
	override(&cfg.Storage.DatabasePath, env.DatabasePath)
	override(&cfg.Storage.Backend, env.Backend)
	override(&cfg.Catalog.URL, env.CatalogURL)
	override(&cfg.Catalog.URLAPIKey, env.CatalogAPIKey)
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Save writes the config to path. The API keys are never written.
func Save(path string, cfg *Config) error {
	out := *cfg
	out.Chat.APIKey = ""
	out.Catalog.URLAPIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
