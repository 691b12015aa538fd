package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestConfigIgnoresFileAPIKeys(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)

	configDir := filepath.Join(home, ".orchestrator")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	data := []byte("anthropic_api_key: file-ant\nopenai_api_key: file-openai\n")
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AnthropicAPIKey != "" || cfg.OpenAIAPIKey != "" {
		t.Fatalf("expected file API keys to be ignored, got %q %q", cfg.AnthropicAPIKey, cfg.OpenAIAPIKey)
	}
}

func TestConfigUsesEnvAPIKeys(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)

	t.Setenv("ANTHROPIC_API_KEY", "env-ant")
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("GOOGLE_API_KEY", "env-google")
	t.Setenv("DEEPSEEK_API_KEY", "env-deepseek")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AnthropicAPIKey != "env-ant" || cfg.OpenAIAPIKey != "env-openai" || cfg.GoogleAPIKey != "env-google" || cfg.DeepSeekAPIKey != "env-deepseek" {
		t.Fatalf("expected env API keys to be used")
	}
	if !cfg.HasAdapter("deepseek") || cfg.HasAdapter("ollama") {
		t.Fatalf("unexpected HasAdapter results")
	}
}

func TestConfigFileAndEnvLayering(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)

	configDir := filepath.Join(home, ".orchestrator")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	data := []byte("log:\n  level: debug\noracle:\n  call_timeout: 5s\nmemory:\n  backend: sqlite\n")
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ORCH_MEMORY_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected file log level, got %q", cfg.LogLevel)
	}
	if cfg.Oracle.CallTimeout != 5*time.Second {
		t.Fatalf("expected 5s call timeout, got %s", cfg.Oracle.CallTimeout)
	}
	if cfg.Memory.Backend != "memory" {
		t.Fatalf("expected env to override file, got %q", cfg.Memory.Backend)
	}
	if cfg.Director.MaxReasoning != 2 {
		t.Fatalf("expected default max reasoning 2, got %d", cfg.Director.MaxReasoning)
	}
	if cfg.Memory.Path != filepath.Join(configDir, "memory.db") {
		t.Fatalf("unexpected memory path %q", cfg.Memory.Path)
	}
	if cfg.RoutingConfig == nil || len(cfg.RoutingConfig.Categories) != 8 {
		t.Fatalf("expected default routing config")
	}
}

func TestLoadWithRoutingFileRequiresFile(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)

	if _, err := LoadWithRoutingFile(filepath.Join(home, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing routing file")
	}
}

func setHomeEnv(t *testing.T, home string) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("ORCH_CONFIG_DIR", "")
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
}

func TestConfigMockIsOptIn(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EnableMock || cfg.HasAdapter("mock") {
		t.Fatalf("expected mock backend disabled by default")
	}

	t.Setenv("ORCH_MOCK_ENABLED", "true")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.EnableMock || !cfg.HasAdapter("mock") {
		t.Fatalf("expected ORCH_MOCK_ENABLED to enable the mock backend")
	}
}
