// Package config loads client configuration. Sources in priority order:
// environment variables, then an optional YAML file (SOLPASS_CONFIG or
// <data dir>/config.yaml), then built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Storage Storage `yaml:"storage"`
	Session Session `yaml:"session"`
	Wallet  Wallet  `yaml:"wallet"`
	Diag    Diag    `yaml:"diag"`
}

type Storage struct {
	// Backend selects the key-value backend: memory, sqlite or redis.
	Backend       string `yaml:"backend"`
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	Prefix        string `yaml:"prefix"`
}

type Session struct {
	DefaultExpiry         time.Duration `yaml:"default_expiry"`
	ExpiringSoonThreshold time.Duration `yaml:"expiring_soon_threshold"`
	PollInterval          time.Duration `yaml:"poll_interval"`
}

// UnmarshalYAML accepts Go duration strings ("24h", "10s") for the session
// timing fields. Absent fields keep their current values.
func (s *Session) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		DefaultExpiry         string `yaml:"default_expiry"`
		ExpiringSoonThreshold string `yaml:"expiring_soon_threshold"`
		PollInterval          string `yaml:"poll_interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	fields := []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"default_expiry", raw.DefaultExpiry, &s.DefaultExpiry},
		{"expiring_soon_threshold", raw.ExpiringSoonThreshold, &s.ExpiringSoonThreshold},
		{"poll_interval", raw.PollInterval, &s.PollInterval},
	}

	for _, f := range fields {
		if f.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dest = parsed
	}

	return nil
}

type Wallet struct {
	Cluster string `yaml:"cluster"`
}

type Diag struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

func (s Storage) BackendIsValid() bool {
	switch s.Backend {
	case BackendMemory, BackendSQLite, BackendRedis:
		return true
	}
	return false
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: Storage{
			Backend:    BackendSQLite,
			SQLitePath: defaultSQLitePath(),
			RedisAddr:  "localhost:6379",
			Prefix:     "solpass_wallet_",
		},
		Session: Session{
			DefaultExpiry:         24 * time.Hour,
			ExpiringSoonThreshold: 5 * time.Minute,
			PollInterval:          10 * time.Second,
		},
		Wallet: Wallet{
			Cluster: "mainnet",
		},
		Diag: Diag{
			Enabled: false,
			Port:    7831,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file, and
// environment overrides, in that order.
func Load() (Config, error) {
	config := Default()

	if path := configFilePath(); path != "" {
		if err := loadFile(&config, path); err != nil {
			return config, fmt.Errorf("config file error: %w", err)
		}
	}

	var err error

	config.Storage.Backend, err = getEnvStringSafe("SOLPASS_STORAGE_BACKEND", config.Storage.Backend)
	if err != nil {
		return config, fmt.Errorf("storage backend config error: %w", err)
	}
	if !config.Storage.BackendIsValid() {
		return config, fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}

	config.Storage.SQLitePath, err = getEnvStringSafe("SOLPASS_SQLITE_PATH", config.Storage.SQLitePath)
	if err != nil {
		return config, fmt.Errorf("sqlite path config error: %w", err)
	}

	config.Storage.RedisAddr, err = getEnvStringSafe("SOLPASS_REDIS_ADDR", config.Storage.RedisAddr)
	if err != nil {
		return config, fmt.Errorf("redis address config error: %w", err)
	}

	config.Storage.RedisPassword, err = getEnvStringSafe("SOLPASS_REDIS_PASSWORD", config.Storage.RedisPassword)
	if err != nil {
		return config, fmt.Errorf("redis password config error: %w", err)
	}

	config.Storage.RedisDB, err = getEnvIntSafe("SOLPASS_REDIS_DB", config.Storage.RedisDB)
	if err != nil {
		return config, fmt.Errorf("redis db config error: %w", err)
	}

	config.Storage.Prefix, err = getEnvStringSafe("SOLPASS_STORAGE_PREFIX", config.Storage.Prefix)
	if err != nil {
		return config, fmt.Errorf("storage prefix config error: %w", err)
	}

	config.Session.DefaultExpiry, err = getEnvDurationSafe("SOLPASS_SESSION_EXPIRY", config.Session.DefaultExpiry)
	if err != nil {
		return config, fmt.Errorf("session expiry config error: %w", err)
	}

	config.Session.ExpiringSoonThreshold, err = getEnvDurationSafe("SOLPASS_EXPIRING_SOON_THRESHOLD", config.Session.ExpiringSoonThreshold)
	if err != nil {
		return config, fmt.Errorf("expiring soon threshold config error: %w", err)
	}

	config.Session.PollInterval, err = getEnvDurationSafe("SOLPASS_POLL_INTERVAL", config.Session.PollInterval)
	if err != nil {
		return config, fmt.Errorf("poll interval config error: %w", err)
	}

	config.Wallet.Cluster, err = getEnvStringSafe("SOLPASS_CLUSTER", config.Wallet.Cluster)
	if err != nil {
		return config, fmt.Errorf("cluster config error: %w", err)
	}

	config.Diag.Enabled, err = getEnvBoolSafe("SOLPASS_DIAG_ENABLED", config.Diag.Enabled)
	if err != nil {
		return config, fmt.Errorf("diag enabled config error: %w", err)
	}

	config.Diag.Port, err = getEnvIntSafe("SOLPASS_DIAG_PORT", config.Diag.Port)
	if err != nil {
		return config, fmt.Errorf("diag port config error: %w", err)
	}

	return config, nil
}

func configFilePath() string {
	if path := os.Getenv("SOLPASS_CONFIG"); path != "" {
		return path
	}

	path := filepath.Join(defaultDataDir(), "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func loadFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s failed: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parsing %s failed: %w", path, err)
	}

	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".solpass")
}

func defaultSQLitePath() string {
	return filepath.Join(defaultDataDir(), "solpass.db")
}

func getEnvStringSafe(key, defaultValue string) (string, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	return value, nil
}

func getEnvIntSafe(key string, defaultValue int) (int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer: %w", key, err)
	}
	return value, nil
}

func getEnvBoolSafe(key string, defaultValue bool) (bool, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("environment variable %s must be a boolean: %w", key, err)
	}
	return value, nil
}

func getEnvDurationSafe(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be a duration: %w", key, err)
	}
	return value, nil
}
