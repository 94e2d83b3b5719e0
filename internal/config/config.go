// Package config loads runtime settings from the environment (with an
// optional .env file) and persists the client's API key in user_config.json
// next to the binary, so a reinstall keeps the activation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// UserConfigFile carries the client's API key between runs.
const UserConfigFile = "user_config.json"

// defaultModels is the Gemini fallback chain, fastest first.
var defaultModels = []string{
	"models/gemini-3-flash-preview",
	"models/gemini-2.5-flash",
	"models/gemini-2.0-flash",
	"models/gemini-flash-latest",
}

type Config struct {
	HTTPAddr    string   `mapstructure:"http_addr"`
	DocsDir     string   `mapstructure:"docs_dir"`
	StaticDir   string   `mapstructure:"static_dir"`
	DBPath      string   `mapstructure:"db_path"`
	PostgresDSN string   `mapstructure:"postgres_dsn"`
	Provider    string   `mapstructure:"provider"`
	Models      []string `mapstructure:"models"`

	CooldownSeconds int `mapstructure:"cooldown_seconds"`
	TimeoutSeconds  int `mapstructure:"timeout_seconds"`
	MarketTTLSecs   int `mapstructure:"market_ttl_seconds"`

	UserConfigDir string `mapstructure:"user_config_dir"`
}

// Load reads GEN_* environment variables over built-in defaults. A .env file
// in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8000")
	v.SetDefault("docs_dir", "documentos")
	v.SetDefault("static_dir", "static")
	v.SetDefault("db_path", "leads.db")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("provider", "gemini")
	v.SetDefault("models", strings.Join(defaultModels, ","))
	v.SetDefault("cooldown_seconds", 120)
	v.SetDefault("timeout_seconds", 60)
	v.SetDefault("market_ttl_seconds", 300)
	v.SetDefault("user_config_dir", ".")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Models = normalizeModels(cfg.Models)
	if len(cfg.Models) == 0 {
		cfg.Models = append([]string(nil), defaultModels...)
	}
	return &cfg, nil
}

// normalizeModels flattens comma-separated entries and trims whitespace; env
// vars deliver the chain as one comma-joined string.
func normalizeModels(entries []string) []string {
	var out []string
	for _, entry := range entries {
		for _, m := range strings.Split(entry, ",") {
			if m = strings.TrimSpace(m); m != "" {
				out = append(out, m)
			}
		}
	}
	return out
}

type userConfig struct {
	APIKey string `json:"api_key"`
}

var keyMu sync.Mutex

// KeyStore persists the client API key as JSON in a fixed directory.
type KeyStore struct {
	Dir string
}

func (k KeyStore) path() string {
	return filepath.Join(k.Dir, UserConfigFile)
}

// LoadAPIKey returns the stored key, or "" when none was activated yet.
func (k KeyStore) LoadAPIKey() string {
	keyMu.Lock()
	defer keyMu.Unlock()

	raw, err := os.ReadFile(k.path())
	if err != nil {
		return ""
	}
	var uc userConfig
	if err := json.Unmarshal(raw, &uc); err != nil {
		return ""
	}
	return uc.APIKey
}

// SaveAPIKey writes the key atomically (temp file then rename).
func (k KeyStore) SaveAPIKey(key string) error {
	keyMu.Lock()
	defer keyMu.Unlock()

	raw, err := json.Marshal(userConfig{APIKey: key})
	if err != nil {
		return err
	}

	tmp := k.path() + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	if err := os.Rename(tmp, k.path()); err != nil {
		return fmt.Errorf("replace key file: %w", err)
	}
	return nil
}
