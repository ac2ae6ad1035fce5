package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadWithRepo_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadWithRepo(tmpDir, t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.ModelKind != "lstm" {
		t.Errorf("ModelKind = %q, want lstm", cfg.ModelKind)
	}
	if cfg.ScalerPath != "scaler.json" {
		t.Errorf("ScalerPath = %q, want scaler.json", cfg.ScalerPath)
	}
	if cfg.WebPort != 8080 {
		t.Errorf("WebPort = %d, want 8080", cfg.WebPort)
	}
}

func TestLoadWithRepo_GlobalOnly(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"model_kind": "tfserving", "model_url": "http://localhost:8501", "web_port": 9000}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithRepo(tmpDir, t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.ModelKind != "tfserving" {
		t.Errorf("ModelKind = %q, want tfserving", cfg.ModelKind)
	}
	if cfg.ModelURL != "http://localhost:8501" {
		t.Errorf("ModelURL = %q", cfg.ModelURL)
	}
	if cfg.WebPort != 9000 {
		t.Errorf("WebPort = %d, want 9000", cfg.WebPort)
	}
	// untouched defaults survive
	if cfg.ModelName != "calories" {
		t.Errorf("ModelName = %q, want calories", cfg.ModelName)
	}
}

func TestLoadWithRepo_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := LoadWithRepo(tmpDir, t.TempDir()); err == nil {
		t.Fatalf("LoadWithRepo() expected error, got nil")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	globalConfig := `{"scaler_path": "global-scaler.json", "log_level": "debug", "disabled_tools": ["meal_encode"]}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	repoDir := filepath.Join(repoRoot, DirName)
	if err := os.MkdirAll(repoDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	repoConfig := `{"scaler_path": "repo-scaler.yaml", "disabled_tools": ["model_status", "meal_encode"]}`
	if err := os.WriteFile(filepath.Join(repoDir, "config.json"), []byte(repoConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// Start below the repo root to exercise the upward walk.
	nested := filepath.Join(repoRoot, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, nested)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.ScalerPath != "repo-scaler.yaml" {
		t.Errorf("ScalerPath = %q, want repo override", cfg.ScalerPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug from global", cfg.LogLevel)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools = %v, want 2 deduplicated entries", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.ModelPath != DefaultConfig().ModelPath {
		t.Errorf("ModelPath = %q, want default", cfg.ModelPath)
	}
}

func TestMerge_Scalars(t *testing.T) {
	base := DefaultConfig()
	overlay := &Config{ModelTimeoutSeconds: 3, DisabledTools: []string{" meal_predict "}}

	got := Merge(base, overlay)
	if got.ModelTimeoutSeconds != 3 {
		t.Errorf("ModelTimeoutSeconds = %d, want 3", got.ModelTimeoutSeconds)
	}
	if got.ModelTimeout() != 3*time.Second {
		t.Errorf("ModelTimeout() = %v", got.ModelTimeout())
	}
	if got.LogMaxBackups != base.LogMaxBackups {
		t.Errorf("LogMaxBackups = %d, want %d", got.LogMaxBackups, base.LogMaxBackups)
	}
	if len(got.DisabledTools) != 1 || got.DisabledTools[0] != "meal_predict" {
		t.Errorf("DisabledTools = %v, want [meal_predict]", got.DisabledTools)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"NEXTMEAL_MODEL_KIND":  "tfserving",
		"NEXTMEAL_MODEL_URL":   "http://serving:8501",
		"NEXTMEAL_SCALER_PATH": "/srv/scaler.yaml",
		"NEXTMEAL_LOG_LEVEL":   "warn",
		"NEXTMEAL_WEB_PORT":    "9090",
		"NEXTMEAL_MODEL_PATH":  "   ",
	}
	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(cfg, func(k string) string { return env[k] }))

	require.Equal(t, "tfserving", cfg.ModelKind)
	require.Equal(t, "http://serving:8501", cfg.ModelURL)
	require.Equal(t, "/srv/scaler.yaml", cfg.ScalerPath)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, 9090, cfg.WebPort)
	require.Equal(t, "model.json", cfg.ModelPath, "blank values are ignored")
	require.Equal(t, "127.0.0.1:9090", cfg.WebAddr())
}

func TestApplyEnv_BadPort(t *testing.T) {
	cfg := DefaultConfig()
	err := ApplyEnv(cfg, func(k string) string {
		if k == "NEXTMEAL_WEB_PORT" {
			return "http"
		}
		return ""
	})
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("NEXTMEAL_TEST_DOTENV=from-file\nNEXTMEAL_TEST_PRESET=from-file\n"), 0600))

	t.Setenv("NEXTMEAL_TEST_PRESET", "from-env")
	t.Setenv("NEXTMEAL_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("NEXTMEAL_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path))
	require.Equal(t, "from-file", os.Getenv("NEXTMEAL_TEST_DOTENV"))
	require.Equal(t, "from-env", os.Getenv("NEXTMEAL_TEST_PRESET"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestResolvePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScalerPath = "/abs/scaler.json"
	cfg.LogFile = "logs/nextmeal.log"
	cfg.ResolvePaths("/home/u/.nextmeal")

	require.Equal(t, filepath.Join("/home/u/.nextmeal", "model.json"), cfg.ModelPath)
	require.Equal(t, "/abs/scaler.json", cfg.ScalerPath)
	require.Equal(t, filepath.Join("/home/u/.nextmeal", "logs/nextmeal.log"), cfg.LogFile)
}
