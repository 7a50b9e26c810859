package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the data directory.
const FileName = "brandkit.yaml"

type Storage struct {
	// Driver is one of none, memory, file or sqlite.
	Driver string `yaml:"driver"`
	// Path overrides the default location under the data directory.
	Path string `yaml:"path,omitempty"`
}

type Config struct {
	DataDir     string  `yaml:"data_dir"`
	ListenAddr  string  `yaml:"listen_addr"`
	Environment string  `yaml:"environment"`
	LogLevel    string  `yaml:"log_level"`
	BrandFile   string  `yaml:"brand_file,omitempty"`
	Storage     Storage `yaml:"storage"`
}

func Default() Config {
	return Config{
		DataDir:     ".",
		ListenAddr:  ":8080",
		Environment: "development",
		LogLevel:    "info",
		Storage:     Storage{Driver: "file"},
	}
}

// Load reads <dataDir>/.env (if present) into the environment, then
// <dataDir>/brandkit.yaml (if present) over the defaults, then applies
// BRANDKIT_* environment overrides.
func Load(dataDir string) (Config, error) {
	envPath := filepath.Join(dataDir, ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envPath, err)
	}

	cfg := Default()
	cfg.DataDir = dataDir

	data, err := os.ReadFile(filepath.Join(dataDir, FileName))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	def := Default()
	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = def.Storage.Driver
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"BRANDKIT_LISTEN_ADDR", &cfg.ListenAddr},
		{"BRANDKIT_ENV", &cfg.Environment},
		{"BRANDKIT_LOG_LEVEL", &cfg.LogLevel},
		{"BRANDKIT_BRAND_FILE", &cfg.BrandFile},
		{"BRANDKIT_STORAGE_DRIVER", &cfg.Storage.Driver},
		{"BRANDKIT_STORAGE_PATH", &cfg.Storage.Path},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && strings.TrimSpace(v) != "" {
			*o.dst = strings.TrimSpace(v)
		}
	}
}

func (c Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case "none", "memory", "file", "sqlite":
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("unsupported log level: %s", c.LogLevel)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	return nil
}

// Path returns the config file location for c.
func (c Config) Path() string {
	return filepath.Join(c.DataDir, FileName)
}

// Save writes c to its data directory, replacing any existing file
// atomically.
func Save(cfg Config) error {
	cfgPath := cfg.Path()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp := cfgPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, cfgPath)
}
