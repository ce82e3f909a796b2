package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/athifer/biodsjobs/internal/relevance"
)

const (
	DirName         = "biodsjobs"
	ConfigFileName  = "config.json"
	ProxiesFileName = "proxies.txt"
	TargetsFileName = "targets.yaml"
	StoreFileName   = "postings.json"
)

const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config holds extraction, storage and scheduling settings.
type Config struct {
	RequestTimeoutSeconds int     `json:"request_timeout_seconds"`
	TargetTimeoutSeconds  int     `json:"target_timeout_seconds"`
	RequestsPerSecond     float64 `json:"requests_per_second"`
	Burst                 int     `json:"burst"`
	Concurrency           int     `json:"concurrency"`
	MaxPostingsPerTarget  int     `json:"max_postings_per_target"`
	MaxBodyBytes          int64   `json:"max_body_bytes"`

	Keywords        []string `json:"keywords"`
	PrimaryKeywords []string `json:"primary_keywords"`
	PenaltyKeywords []string `json:"penalty_keywords"`

	TargetsFile       string `json:"targets_file,omitempty"`
	Store             string `json:"store"`
	StorePath         string `json:"store_path,omitempty"`
	DatabaseURL       string `json:"database_url,omitempty"`
	RedisURL          string `json:"redis_url,omitempty"`
	RetireAfterMisses int    `json:"retire_after_misses"`
	Schedule          string `json:"schedule"`

	Proxies []string `json:"proxies,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		RequestTimeoutSeconds: 25,
		TargetTimeoutSeconds:  90,
		RequestsPerSecond:     5,
		Burst:                 5,
		Concurrency:           4,
		MaxPostingsPerTarget:  15,
		MaxBodyBytes:          5 << 20,
		Keywords:              append([]string(nil), relevance.DefaultKeywords...),
		PrimaryKeywords:       append([]string(nil), relevance.DefaultPrimaryKeywords...),
		PenaltyKeywords:       append([]string(nil), relevance.DefaultPenaltyKeywords...),
		Store:                 StoreFile,
		RetireAfterMisses:     2,
		Schedule:              "@every 4h",
	}
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) TargetTimeout() time.Duration {
	return time.Duration(c.TargetTimeoutSeconds) * time.Second
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.RequestTimeoutSeconds <= 0:
		return fmt.Errorf("request_timeout_seconds must be positive")
	case c.TargetTimeoutSeconds <= 0:
		return fmt.Errorf("target_timeout_seconds must be positive")
	case c.RequestsPerSecond < 0:
		return fmt.Errorf("requests_per_second must not be negative")
	case c.Concurrency <= 0:
		return fmt.Errorf("concurrency must be positive")
	case c.MaxPostingsPerTarget <= 0:
		return fmt.Errorf("max_postings_per_target must be positive")
	case c.RetireAfterMisses < 0:
		return fmt.Errorf("retire_after_misses must not be negative")
	}
	switch c.Store {
	case StoreMemory, StoreFile:
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("store %q requires database_url or DATABASE_URL", c.Store)
		}
	default:
		return fmt.Errorf("unknown store %q (want memory, file or postgres)", c.Store)
	}
	return nil
}

func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func ProxiesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProxiesFileName), nil
}

// TargetsPath returns the configured registry file or the default under dir.
func (c Config) TargetsPath(dir string) string {
	if strings.TrimSpace(c.TargetsFile) != "" {
		return c.TargetsFile
	}
	return filepath.Join(dir, TargetsFileName)
}

// StoreFilePath returns the configured postings file or the default under dir.
func (c Config) StoreFilePath(dir string) string {
	if strings.TrimSpace(c.StorePath) != "" {
		return c.StorePath
	}
	return filepath.Join(dir, StoreFileName)
}

// Load reads config.json from the config dir and applies environment overrides.
func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return applyEnv(DefaultConfig()), err
	}
	return LoadFile(path)
}

// LoadFile reads a JSON5 config file. A missing or empty file yields defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnv(cfg), nil
		}
		return cfg, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return applyEnv(cfg), nil
	}

	if err := json5.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	cfg.RequestTimeoutSeconds = envInt("BIODSJOBS_REQUEST_TIMEOUT", cfg.RequestTimeoutSeconds)
	cfg.TargetTimeoutSeconds = envInt("BIODSJOBS_TARGET_TIMEOUT", cfg.TargetTimeoutSeconds)
	cfg.RequestsPerSecond = envFloat("BIODSJOBS_RATE", cfg.RequestsPerSecond)
	cfg.Burst = envInt("BIODSJOBS_BURST", cfg.Burst)
	cfg.Concurrency = envInt("BIODSJOBS_CONCURRENCY", cfg.Concurrency)
	cfg.MaxPostingsPerTarget = envInt("BIODSJOBS_MAX_POSTINGS", cfg.MaxPostingsPerTarget)
	cfg.RetireAfterMisses = envInt("BIODSJOBS_RETIRE_AFTER", cfg.RetireAfterMisses)
	cfg.TargetsFile = envString("BIODSJOBS_TARGETS", cfg.TargetsFile)
	cfg.Store = strings.ToLower(envString("BIODSJOBS_STORE", cfg.Store))
	cfg.StorePath = envString("BIODSJOBS_STORE_PATH", cfg.StorePath)
	cfg.DatabaseURL = envString("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = envString("REDIS_URL", cfg.RedisURL)
	cfg.Schedule = envString("BIODSJOBS_SCHEDULE", cfg.Schedule)
	if env := strings.TrimSpace(os.Getenv("BIODSJOBS_KEYWORDS")); env != "" {
		cfg.Keywords = splitCSV(env)
	}
	if env := strings.TrimSpace(os.Getenv("BIODSJOBS_PENALTY_KEYWORDS")); env != "" {
		cfg.PenaltyKeywords = splitCSV(env)
	}
	return cfg
}

// Init writes default config.json, a sample targets.yaml and proxies.txt if
// they don't already exist.
func Init() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return InitDir(dir)
}

func InitDir(dir string) ([]string, error) {
	var created []string

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(configPath, DefaultConfig()); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	targetsPath := filepath.Join(dir, TargetsFileName)
	if _, err := os.Stat(targetsPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(targetsPath, []byte(sampleTargets), 0o644); err != nil {
			return created, err
		}
		created = append(created, targetsPath)
	}

	proxiesPath := filepath.Join(dir, ProxiesFileName)
	if _, err := os.Stat(proxiesPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(proxiesPath, []byte(""), 0o644); err != nil {
			return created, err
		}
		created = append(created, proxiesPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadProxies resolves proxies from the flag, BIODSJOBS_PROXIES, the config
// file and proxies.txt, in that order.
func LoadProxies(flagValue string, cfg Config) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}

	if env := strings.TrimSpace(os.Getenv("BIODSJOBS_PROXIES")); env != "" {
		return splitCSV(env), nil
	}

	if len(cfg.Proxies) > 0 {
		return cfg.Proxies, nil
	}

	path, err := ProxiesPath()
	if err != nil {
		return nil, err
	}
	return readProxiesFile(path)
}

func readProxiesFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	return proxies, nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
