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

	"github.com/joho/godotenv"
)

// DirName is the name of the global and repo-level config directories.
const DirName = ".nextmeal"

// Config holds application configuration.
type Config struct {
	// ModelKind selects the model backend: "lstm" (exported weights file) or
	// "tfserving" (TensorFlow Serving REST endpoint).
	ModelKind string `json:"model_kind"`

	// ModelPath is the exported LSTM weights file. Relative paths resolve
	// against the base directory.
	ModelPath string `json:"model_path"`

	// ModelURL and ModelName address a TensorFlow Serving model.
	ModelURL  string `json:"model_url,omitempty"`
	ModelName string `json:"model_name,omitempty"`

	// ModelTimeoutSeconds bounds one remote predict call.
	ModelTimeoutSeconds int `json:"model_timeout_seconds,omitempty"`

	// ScalerPath is the fitted scaler file (.json, .yaml or .yml).
	ScalerPath string `json:"scaler_path"`

	WebBind string `json:"web_bind,omitempty"`
	WebPort int    `json:"web_port,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// LogFile enables rotating JSON logs at this path.
	LogFile       string `json:"log_file,omitempty"`
	LogMaxSizeMB  int    `json:"log_max_size_mb,omitempty"`
	LogMaxBackups int    `json:"log_max_backups,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ModelKind:           "lstm",
		ModelPath:           "model.json",
		ModelName:           "calories",
		ModelTimeoutSeconds: 10,
		ScalerPath:          "scaler.json",
		WebBind:             "127.0.0.1",
		WebPort:             8080,
		LogLevel:            "info",
		LogMaxSizeMB:        10,
		LogMaxBackups:       3,
	}
}

// ModelTimeout returns ModelTimeoutSeconds as a duration.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutSeconds) * time.Second
}

// WebAddr returns the listen address for the web UI.
func (c *Config) WebAddr() string {
	return fmt.Sprintf("%s:%d", c.WebBind, c.WebPort)
}

// LoadWithRepo loads configuration from both global (~/.nextmeal) and repo (.nextmeal) directories.
// Repo config is found by walking upward from startDir to find the nearest .nextmeal/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .nextmeal/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw returns a zero-valued config (not defaults) if the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	return &Config{
		ModelKind:           pick(overlay.ModelKind, base.ModelKind),
		ModelPath:           pick(overlay.ModelPath, base.ModelPath),
		ModelURL:            pick(overlay.ModelURL, base.ModelURL),
		ModelName:           pick(overlay.ModelName, base.ModelName),
		ModelTimeoutSeconds: pick(overlay.ModelTimeoutSeconds, base.ModelTimeoutSeconds),
		ScalerPath:          pick(overlay.ScalerPath, base.ScalerPath),
		WebBind:             pick(overlay.WebBind, base.WebBind),
		WebPort:             pick(overlay.WebPort, base.WebPort),
		LogLevel:            pick(overlay.LogLevel, base.LogLevel),
		LogFile:             pick(overlay.LogFile, base.LogFile),
		LogMaxSizeMB:        pick(overlay.LogMaxSizeMB, base.LogMaxSizeMB),
		LogMaxBackups:       pick(overlay.LogMaxBackups, base.LogMaxBackups),
		DisabledTools:       mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
	}
}

// pick returns overlay unless it is the zero value.
func pick[T comparable](overlay, base T) T {
	var zero T
	if overlay == zero {
		return base
	}
	return overlay
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// LoadDotEnv loads a .env file into the process environment. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overrides cfg with NEXTMEAL_* variables read through getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"NEXTMEAL_MODEL_KIND", &cfg.ModelKind},
		{"NEXTMEAL_MODEL_PATH", &cfg.ModelPath},
		{"NEXTMEAL_MODEL_URL", &cfg.ModelURL},
		{"NEXTMEAL_MODEL_NAME", &cfg.ModelName},
		{"NEXTMEAL_SCALER_PATH", &cfg.ScalerPath},
		{"NEXTMEAL_LOG_LEVEL", &cfg.LogLevel},
		{"NEXTMEAL_LOG_FILE", &cfg.LogFile},
	}
	for _, s := range strs {
		if v := strings.TrimSpace(getenv(s.key)); v != "" {
			*s.dst = v
		}
	}

	if v := strings.TrimSpace(getenv("NEXTMEAL_WEB_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("NEXTMEAL_WEB_PORT must be a port number, got %q", v)
		}
		cfg.WebPort = port
	}
	return nil
}

// ResolvePaths makes relative artifact and log paths absolute under baseDir.
func (c *Config) ResolvePaths(baseDir string) {
	for _, p := range []*string{&c.ModelPath, &c.ScalerPath, &c.LogFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}
}
