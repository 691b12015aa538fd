package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/config"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
)

func TestCreateAdaptersWithoutProviders(t *testing.T) {
	cfg := &config.Config{RoutingConfig: config.DefaultRoutingConfig()}
	adapters, err := createAdapters(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, adapters)
	assert.False(t, routeToMock(cfg, adapters))

	res, err := oracle.NewClient(adapters, cfg.RoutingConfig).Invoke(context.Background(), "hello")
	assert.ErrorIs(t, err, oracle.ErrNoBackend)
	require.NotNil(t, res)
	assert.False(t, res.Success)
}

func TestCreateAdaptersMockOnlyWhenEnabled(t *testing.T) {
	cfg := &config.Config{RoutingConfig: config.DefaultRoutingConfig(), EnableMock: true}
	adapters, err := createAdapters(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, adapters, 1)
	assert.Equal(t, "mock", adapters[0].Name())

	assert.True(t, routeToMock(cfg, adapters))
	c := oracle.NewClient(adapters, cfg.RoutingConfig)
	assert.Empty(t, c.Backends())

	res, err := c.Invoke(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "mock", res.Backend)
}

func TestCreateAdaptersKeepsMockOutOfProviderRotation(t *testing.T) {
	cfg := &config.Config{
		RoutingConfig: config.DefaultRoutingConfig(),
		OllamaBaseURL: "http://127.0.0.1:11434/v1",
		OllamaModels:  []string{"llama3.1"},
		EnableMock:    true,
	}
	adapters, err := createAdapters(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, adapters, 2)
	assert.False(t, routeToMock(cfg, adapters))
	assert.Equal(t, "anthropic", cfg.RoutingConfig.Default.Adapter)

	c := oracle.NewClient(adapters, cfg.RoutingConfig)
	assert.Equal(t, []string{"ollama"}, c.Backends())
	assert.Equal(t, []string{"ollama", "mock"}, c.Registered())
}
