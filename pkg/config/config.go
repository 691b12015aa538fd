package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string
	DeepSeekAPIKey  string
	TavilyAPIKey    string

	OllamaBaseURL string
	OllamaModels  []string

	// EnableMock registers the echo backend. It is reached only by name.
	EnableMock bool

	LogLevel  string
	LogFormat string

	Oracle   OracleConfig
	Director DirectorConfig
	Memory   MemoryConfig
	Metrics  MetricsConfig
	Docs     DocsConfig

	RoutingConfig *RoutingConfig
	ConfigDir     string
}

// OracleConfig controls the oracle client.
type OracleConfig struct {
	CallTimeout time.Duration
}

// DirectorConfig controls the turn pipeline.
type DirectorConfig struct {
	PluginTimeout time.Duration
	MaxReasoning  int
}

// MemoryConfig selects the memory backend.
type MemoryConfig struct {
	Backend string
	Path    string
	Limit   int
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Addr string
}

// DocsConfig points the docs search plugin at a local directory.
type DocsConfig struct {
	Root       string
	Extensions []string
}

// Load reads configuration from ~/.orchestrator/config.yaml and the environment.
// ORCH_* variables take precedence over the file. Provider API keys are read
// from their conventional environment variables only.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return load(configDir, filepath.Join(configDir, "routing.yaml"), false)
}

// LoadWithRoutingFile loads config with a specific routing file.
func LoadWithRoutingFile(routingPath string) (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return load(configDir, routingPath, true)
}

func load(configDir, routingPath string, routingRequired bool) (*Config, error) {
	v := newViper()
	keys := newKeyViper()

	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
	}

	cfg := &Config{
		AnthropicAPIKey: keys.GetString("anthropic_api_key"),
		OpenAIAPIKey:    keys.GetString("openai_api_key"),
		GoogleAPIKey:    keys.GetString("google_api_key"),
		DeepSeekAPIKey:  keys.GetString("deepseek_api_key"),
		TavilyAPIKey:    keys.GetString("tavily_api_key"),
		OllamaBaseURL:   v.GetString("ollama.base_url"),
		OllamaModels:    v.GetStringSlice("ollama.models"),
		EnableMock:      v.GetBool("mock.enabled"),
		LogLevel:        v.GetString("log.level"),
		LogFormat:       v.GetString("log.format"),
		Oracle: OracleConfig{
			CallTimeout: v.GetDuration("oracle.call_timeout"),
		},
		Director: DirectorConfig{
			PluginTimeout: v.GetDuration("director.plugin_timeout"),
			MaxReasoning:  v.GetInt("director.max_reasoning"),
		},
		Memory: MemoryConfig{
			Backend: v.GetString("memory.backend"),
			Path:    v.GetString("memory.path"),
			Limit:   v.GetInt("memory.limit"),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString("metrics.addr"),
		},
		Docs: DocsConfig{
			Root:       v.GetString("docs.root"),
			Extensions: v.GetStringSlice("docs.extensions"),
		},
		ConfigDir: configDir,
	}
	if cfg.Memory.Path == "" {
		cfg.Memory.Path = filepath.Join(configDir, "memory.db")
	}

	if _, err := os.Stat(routingPath); err == nil {
		routing, err := LoadRoutingConfig(routingPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load routing config from %s: %w", routingPath, err)
		}
		cfg.RoutingConfig = routing
	} else if routingRequired {
		return nil, fmt.Errorf("failed to load routing config from %s: %w", routingPath, err)
	} else {
		cfg.RoutingConfig = DefaultRoutingConfig()
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ORCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("ollama.base_url", "")
	v.SetDefault("ollama.models", []string{"llama3.1"})
	v.SetDefault("mock.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("oracle.call_timeout", 60*time.Second)
	v.SetDefault("director.plugin_timeout", 90*time.Second)
	v.SetDefault("director.max_reasoning", 2)
	v.SetDefault("memory.backend", "memory")
	v.SetDefault("memory.path", "")
	v.SetDefault("memory.limit", 1000)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("docs.root", "")
	v.SetDefault("docs.extensions", []string{".md", ".txt"})
	return v
}

// newKeyViper returns an env-only instance for provider credentials.
// It never reads a config file.
func newKeyViper() *viper.Viper {
	v := viper.New()
	_ = v.BindEnv("anthropic_api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("google_api_key", "GOOGLE_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("deepseek_api_key", "DEEPSEEK_API_KEY")
	_ = v.BindEnv("tavily_api_key", "TAVILY_API_KEY")
	return v
}

// HasAdapter returns true if the given backend is configured.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	case "deepseek":
		return c.DeepSeekAPIKey != ""
	case "ollama":
		return c.OllamaBaseURL != ""
	case "mock":
		return c.EnableMock
	default:
		return false
	}
}

func getConfigDir() (string, error) {
	if dir := os.Getenv("ORCH_CONFIG_DIR"); dir != "" {
		return dir, os.MkdirAll(dir, 0755)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".orchestrator")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
