package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RoutingConfig holds the routing rules configuration.
type RoutingConfig struct {
	Categories        map[string]Category  `yaml:"categories"`
	Tiers             TierConfig           `yaml:"tiers,omitempty"`
	HierarchicalAbove float64              `yaml:"hierarchical_above,omitempty"`
	HistorySize       int                  `yaml:"history_size,omitempty"`
	Default           RouteTarget          `yaml:"default"`
	Retry             RetryConfig          `yaml:"retry,omitempty"`
	Fallback          FallbackConfig       `yaml:"fallback,omitempty"`
	Pricing           PricingConfig        `yaml:"pricing,omitempty"`
	RateLimits        map[string]RateLimit `yaml:"rate_limits,omitempty"`
	ClassifierAdapter string               `yaml:"classifier_adapter,omitempty"`
	ClassifierModel   string               `yaml:"classifier_model,omitempty"`
}

// Category defines an intent category: the keywords used by the fallback
// classifier and the collaborator roster recommended for it.
type Category struct {
	Keywords []string `yaml:"keywords"`
	Roster   []string `yaml:"roster"`
}

// TierConfig holds the lower bound of each tier above "simple".
// Intervals are half-open: a score equal to a bound belongs to the higher tier.
type TierConfig struct {
	Standard   float64 `yaml:"standard,omitempty"`
	Complex    float64 `yaml:"complex,omitempty"`
	MultiAgent float64 `yaml:"multi_agent,omitempty"`
}

func (t TierConfig) ordered() bool {
	return 0 < t.Standard && t.Standard < t.Complex && t.Complex < t.MultiAgent && t.MultiAgent <= 1
}

// RouteTarget specifies an adapter and model combination.
type RouteTarget struct {
	Adapter string `yaml:"adapter"`
	Model   string `yaml:"model"`
}

// RetryConfig defines retry and backoff behavior.
type RetryConfig struct {
	MaxRetries    int `yaml:"max_retries,omitempty"`
	BaseBackoffMs int `yaml:"base_backoff_ms,omitempty"`
	MaxBackoffMs  int `yaml:"max_backoff_ms,omitempty"`
}

// FallbackConfig defines adapter/model fallbacks.
type FallbackConfig struct {
	AllowFallback bool                     `yaml:"allow_fallback,omitempty"`
	FallbackChain map[string][]RouteTarget `yaml:"fallback_chain,omitempty"`
}

// PricingConfig maps adapter -> model -> pricing.
type PricingConfig map[string]map[string]ModelPricing

// ModelPricing defines per-1k token pricing.
type ModelPricing struct {
	PromptPer1K     float64 `yaml:"prompt_per_1k,omitempty"`
	CompletionPer1K float64 `yaml:"completion_per_1k,omitempty"`
}

// RateLimit bounds calls per second to one backend.
type RateLimit struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst,omitempty"`
}

// DefaultMaxRetries applies when the routing file has no retry.max_retries.
const DefaultMaxRetries = 2

// LoadRoutingConfig reads routing configuration from a YAML file.
// Categories missing from the file keep their default keywords and roster.
// Tier breakpoints, when given, must satisfy 0 < standard < complex <
// multi_agent <= 1. An explicit max_retries of 0 disables retries.
func LoadRoutingConfig(path string) (*RoutingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg RoutingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	var explicit struct {
		Retry struct {
			MaxRetries *int `yaml:"max_retries"`
		} `yaml:"retry"`
	}
	if err := yaml.Unmarshal(data, &explicit); err != nil {
		return nil, err
	}
	if explicit.Retry.MaxRetries == nil {
		cfg.Retry.MaxRetries = DefaultMaxRetries
	}

	if t := cfg.Tiers; t != (TierConfig{}) && !t.ordered() {
		return nil, fmt.Errorf("routing config %s: tiers must satisfy 0 < standard < complex < multi_agent <= 1, got %.2f/%.2f/%.2f",
			path, t.Standard, t.Complex, t.MultiAgent)
	}

	applyRoutingDefaults(&cfg)
	return &cfg, nil
}

// DefaultCategories returns the fixed intent categories with their keywords and rosters.
func DefaultCategories() map[string]Category {
	return map[string]Category{
		"general": {
			Keywords: []string{"help", "tell me", "explain"},
			Roster:   []string{"assistant"},
		},
		"research": {
			Keywords: []string{"research", "find", "look up", "sources", "compare", "investigate", "latest"},
			Roster:   []string{"researcher", "analyst", "writer"},
		},
		"code": {
			Keywords: []string{"code", "function", "implement", "debug", "bug", "refactor", "compile", "api", "script"},
			Roster:   []string{"architect", "engineer", "reviewer"},
		},
		"analysis": {
			Keywords: []string{"analyze", "analyse", "evaluate", "assess", "review", "trade-off", "pros and cons"},
			Roster:   []string{"analyst", "critic"},
		},
		"creative": {
			Keywords: []string{"write", "story", "poem", "creative", "brainstorm", "slogan", "imagine"},
			Roster:   []string{"writer", "editor"},
		},
		"planning": {
			Keywords: []string{"plan", "roadmap", "schedule", "strategy", "milestone", "organize", "steps"},
			Roster:   []string{"planner", "analyst", "reviewer"},
		},
		"math": {
			Keywords: []string{"calculate", "equation", "solve", "proof", "derive", "integral", "probability"},
			Roster:   []string{"mathematician", "verifier"},
		},
		"conversation": {
			Keywords: []string{"hello", "hi", "thanks", "thank you", "how are you", "chat"},
			Roster:   []string{"assistant"},
		},
	}
}

// DefaultRoutingConfig returns the default routing configuration.
func DefaultRoutingConfig() *RoutingConfig {
	cfg := &RoutingConfig{
		Categories: DefaultCategories(),
		Default: RouteTarget{
			Adapter: "anthropic",
			Model:   "claude-sonnet-4-20250514",
		},
		Retry: RetryConfig{MaxRetries: DefaultMaxRetries},
		Fallback: FallbackConfig{
			AllowFallback: true,
			FallbackChain: map[string][]RouteTarget{
				"anthropic": {{Adapter: "openai", Model: "gpt-4.1"}, {Adapter: "google", Model: "gemini-2.5-pro"}},
				"openai":    {{Adapter: "anthropic", Model: "claude-sonnet-4-20250514"}, {Adapter: "google", Model: "gemini-2.5-pro"}},
				"google":    {{Adapter: "anthropic", Model: "claude-sonnet-4-20250514"}, {Adapter: "openai", Model: "gpt-4.1"}},
				"deepseek":  {{Adapter: "anthropic", Model: "claude-sonnet-4-20250514"}},
			},
		},
		Pricing: PricingConfig{
			"anthropic": {
				"claude-sonnet-4-20250514": {PromptPer1K: 0.003, CompletionPer1K: 0.015},
				"claude-opus-4-20250514":   {PromptPer1K: 0.015, CompletionPer1K: 0.075},
			},
			"openai": {
				"gpt-4.1":      {PromptPer1K: 0.002, CompletionPer1K: 0.008},
				"gpt-4.1-mini": {PromptPer1K: 0.0004, CompletionPer1K: 0.0016},
			},
			"google": {
				"gemini-2.5-pro":   {PromptPer1K: 0.00125, CompletionPer1K: 0.01},
				"gemini-2.5-flash": {PromptPer1K: 0.0003, CompletionPer1K: 0.0025},
			},
			"deepseek": {
				"default": {PromptPer1K: 0.00027, CompletionPer1K: 0.0011},
			},
		},
	}

	applyRoutingDefaults(cfg)
	return cfg
}

func applyRoutingDefaults(cfg *RoutingConfig) {
	if cfg == nil {
		return
	}
	if cfg.Categories == nil {
		cfg.Categories = make(map[string]Category)
	}
	for name, def := range DefaultCategories() {
		cat, ok := cfg.Categories[name]
		if !ok {
			cfg.Categories[name] = def
			continue
		}
		if len(cat.Keywords) == 0 {
			cat.Keywords = def.Keywords
		}
		if len(cat.Roster) == 0 {
			cat.Roster = def.Roster
		}
		cfg.Categories[name] = cat
	}

	if !cfg.Tiers.ordered() {
		cfg.Tiers = TierConfig{Standard: 0.3, Complex: 0.6, MultiAgent: 0.8}
	}

	if cfg.HierarchicalAbove <= 0 || cfg.HierarchicalAbove > 1 {
		cfg.HierarchicalAbove = 0.85
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 500
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	if cfg.Retry.BaseBackoffMs == 0 {
		cfg.Retry.BaseBackoffMs = 200
	}
	if cfg.Retry.MaxBackoffMs == 0 {
		cfg.Retry.MaxBackoffMs = 2000
	}
	if cfg.Retry.MaxBackoffMs < cfg.Retry.BaseBackoffMs {
		cfg.Retry.MaxBackoffMs = cfg.Retry.BaseBackoffMs
	}
	if cfg.ClassifierAdapter == "" {
		cfg.ClassifierAdapter = cfg.Default.Adapter
	}
}
