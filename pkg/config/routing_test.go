package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRoutingConfig(t *testing.T) {
	cfg := DefaultRoutingConfig()

	assert.Len(t, cfg.Categories, 8)
	assert.Equal(t, TierConfig{Standard: 0.3, Complex: 0.6, MultiAgent: 0.8}, cfg.Tiers)
	assert.Equal(t, 0.85, cfg.HierarchicalAbove)
	assert.Equal(t, 500, cfg.HistorySize)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Equal(t, "anthropic", cfg.ClassifierAdapter)
	for name, cat := range cfg.Categories {
		assert.NotEmpty(t, cat.Keywords, name)
		assert.NotEmpty(t, cat.Roster, name)
	}
}

func TestLoadRoutingConfigMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	content := `categories:
  code:
    roster: [solo-engineer]
tiers:
  standard: 0.2
  complex: 0.5
  multi_agent: 0.9
retry:
  max_retries: 4
  base_backoff_ms: 500
  max_backoff_ms: 100
rate_limits:
  openai:
    per_second: 2
    burst: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadRoutingConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"solo-engineer"}, cfg.Categories["code"].Roster)
	assert.NotEmpty(t, cfg.Categories["code"].Keywords)
	assert.Contains(t, cfg.Categories, "math")
	assert.Equal(t, TierConfig{Standard: 0.2, Complex: 0.5, MultiAgent: 0.9}, cfg.Tiers)
	assert.Equal(t, 4, cfg.Retry.MaxRetries)
	assert.Equal(t, 500, cfg.Retry.MaxBackoffMs)
	assert.Equal(t, RateLimit{PerSecond: 2, Burst: 4}, cfg.RateLimits["openai"])
}

func TestLoadRoutingConfigRejectsUnorderedTiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	content := "tiers:\n  standard: 0.7\n  complex: 0.4\n  multi_agent: 0.9\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadRoutingConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tiers must satisfy")
}

func TestLoadRoutingConfigRetryDefaults(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		content string
		want    int
	}{
		"absent":       {"default:\n  adapter: openai\n", DefaultMaxRetries},
		"section only": {"retry:\n  base_backoff_ms: 50\n", DefaultMaxRetries},
		"zero":         {"retry:\n  max_retries: 0\n", 0},
		"negative":     {"retry:\n  max_retries: -3\n", 0},
		"explicit":     {"retry:\n  max_retries: 5\n", 5},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0644))

			cfg, err := LoadRoutingConfig(path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.Retry.MaxRetries)
		})
	}
}

func TestLoadRoutingConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [unclosed"), 0644))

	_, err := LoadRoutingConfig(path)
	assert.Error(t, err)
}
