package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gcsguardian/guardian/internal/api"
	"github.com/gcsguardian/guardian/internal/clipboard"
	"github.com/gcsguardian/guardian/internal/storage"
)

// DefaultAPIBase is the hosted Guardian backend.
const DefaultAPIBase = "https://gcp-bucket-detector-backend-661175673686.us-central1.run.app"

// DefaultListenAddr keeps `guardian serve` on the loopback interface.
const DefaultListenAddr = "127.0.0.1:8080"

// Config is the merged result of defaults, the config file and GUARDIAN_*
// environment variables. Command-line flags are applied by the caller.
type Config struct {
	APIBase string `mapstructure:"api_base"`
	// Token may be empty; the persistent store is consulted next.
	Token string `mapstructure:"token"`

	StorageDir   string `mapstructure:"storage_dir"`
	CacheBackend string `mapstructure:"cache_backend"` // file or sqlite

	Format       string        `mapstructure:"format"` // text, json or tui
	Timeout      time.Duration `mapstructure:"timeout"`
	CopyFeedback time.Duration `mapstructure:"copy_feedback"`
	ListenAddr   string        `mapstructure:"listen_addr"`

	Verbose bool `mapstructure:"verbose"`
	Debug   bool `mapstructure:"debug"`
}

// DefaultConfig is what an empty environment yields.
func DefaultConfig() *Config {
	return &Config{
		APIBase:      DefaultAPIBase,
		StorageDir:   "~/.guardian",
		CacheBackend: storage.BackendFile,
		Format:       "text",
		Timeout:      30 * time.Second,
		CopyFeedback: clipboard.DefaultFeedback,
		ListenAddr:   DefaultListenAddr,
	}
}

func (c *Config) defaults() map[string]any {
	return map[string]any{
		"api_base":      c.APIBase,
		"token":         c.Token,
		"storage_dir":   c.StorageDir,
		"cache_backend": c.CacheBackend,
		"format":        c.Format,
		"timeout":       c.Timeout,
		"copy_feedback": c.CopyFeedback,
		"listen_addr":   c.ListenAddr,
		"verbose":       c.Verbose,
		"debug":         c.Debug,
	}
}

// searchDirs lists where guardian.yaml is looked for, first match wins.
func searchDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "guardian"))
	}
	return dirs
}

// LoadFromFile reads configPath, or guardian.yaml from searchDirs when
// configPath is empty. A missing file in the search dirs is not an error;
// a missing explicit file is.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	for key, val := range DefaultConfig().defaults() {
		v.SetDefault(key, val)
	}

	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("guardian")
		for _, dir := range searchDirs() {
			v.AddConfigPath(dir)
		}
	}
	v.SetEnvPrefix("GUARDIAN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.APIBase = strings.TrimSpace(cfg.APIBase)
	cfg.Token = strings.TrimSpace(cfg.Token)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings the commands cannot run with.
func (c *Config) Validate() error {
	if err := ValidateFormat(c.Format); err != nil {
		return err
	}
	if c.CacheBackend != storage.BackendFile && c.CacheBackend != storage.BackendSQLite {
		return fmt.Errorf("invalid cache_backend: %s (must be file or sqlite)", c.CacheBackend)
	}
	switch {
	case c.Timeout <= 0:
		return errors.New("timeout must be positive")
	case c.CopyFeedback <= 0:
		return errors.New("copy_feedback must be positive")
	case c.StorageDir == "":
		return errors.New("storage_dir is empty")
	}
	if err := api.ValidateAPIBase(c.APIBase); err != nil {
		return fmt.Errorf("invalid api_base: %w", err)
	}
	return nil
}

// ValidateFormat checks an output format name.
func ValidateFormat(format string) error {
	switch format {
	case "text", "json", "tui":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (must be text, json, or tui)", format)
	}
}

// GetStoragePath resolves StorageDir to an absolute path, expanding a
// leading "~".
func (c *Config) GetStoragePath() (string, error) {
	dir := c.StorageDir
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(dir[1:], "/")), nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve storage_dir: %w", err)
	}
	return abs, nil
}

// ConfigPath returns where guardian init writes its config file.
func ConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "guardian", "guardian.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "guardian.yaml"
	}
	return filepath.Join(home, "guardian.yaml")
}

// WriteSample writes GenerateSampleConfig to path. An existing file is only
// replaced when overwrite is set.
func WriteSample(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateSampleConfig()), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// GenerateSampleConfig is the commented guardian.yaml written by guardian init.
func GenerateSampleConfig() string {
	return `# Guardian Configuration
# Save this file as ~/guardian.yaml, ./guardian.yaml
# or $XDG_CONFIG_HOME/guardian/guardian.yaml

# Guardian backend
api_base: ` + DefaultAPIBase + `

# Access token. Prefer "guardian login" or GUARDIAN_TOKEN over storing it here.
# token: ""

# Directory for the persistent cache (access token, last scan)
storage_dir: ~/.guardian

# Persistent cache backend: file or sqlite
cache_backend: file

# Output format: text, json, or tui
format: text

# Backend request timeout
timeout: 30s

# How long the copy button shows its confirmation
copy_feedback: 1500ms

# Listen address for guardian serve
listen_addr: "127.0.0.1:8080"

# Log progress (verbose) or every request (debug) to stderr
verbose: false
debug: false
`
}
