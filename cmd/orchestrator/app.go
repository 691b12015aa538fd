package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/adapter"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/config"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/director"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/logging"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/memory"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/metrics"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/plugin"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/plugins"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/reflexion"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/router"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/tot"
)

// app is the fully wired process.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	adapters  []adapter.Adapter
	oracle    *oracle.Client
	router    *router.Engine
	tot       *tot.Engine
	reflexion *reflexion.Engine
	registry  *plugin.Registry
	director  *director.Director
	store     memory.Store

	metricsSrv *http.Server
	closers    []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if useMock {
		cfg.EnableMock = true
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	a := &app{cfg: cfg, logger: logger}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(promReg)
	if cfg.Metrics.Addr != "" {
		a.serveMetrics(cfg.Metrics.Addr, promReg)
	}

	a.adapters, err = createAdapters(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create adapters: %w", err)
	}
	if routeToMock(cfg, a.adapters) {
		logger.Warn().Msg("no provider configured; routing every call to the mock backend")
	}
	if len(a.adapters) == 0 {
		logger.Warn().Msg("no provider configured; oracle calls will report no backend")
	}

	a.oracle = oracle.NewClient(a.adapters, cfg.RoutingConfig,
		oracle.WithCallTimeout(cfg.Oracle.CallTimeout),
		oracle.WithLogger(logger),
		oracle.WithObserver(rec),
	)
	a.router = router.New(a.oracle, cfg.RoutingConfig, router.WithLogger(logger), router.WithObserver(rec))
	a.tot = tot.New(a.oracle, tot.WithLogger(logger), tot.WithObserver(rec), tot.WithHistorySize(cfg.RoutingConfig.HistorySize))
	a.reflexion = reflexion.New(a.oracle, reflexion.WithLogger(logger), reflexion.WithObserver(rec), reflexion.WithHistorySize(cfg.RoutingConfig.HistorySize))

	store, recaller, closer, err := openMemory(cfg.Memory)
	if err != nil {
		return nil, err
	}
	a.store = store
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	a.registry = plugin.NewRegistry()
	if err := plugins.Register(a.registry, plugins.Deps{
		ToT:          a.tot,
		Reflexion:    a.reflexion,
		Recall:       recaller,
		TavilyAPIKey: cfg.TavilyAPIKey,
		DocsRoot:     cfg.Docs.Root,
		DocsExts:     cfg.Docs.Extensions,
		Logger:       logger,
	}); err != nil {
		return nil, fmt.Errorf("failed to register plugins: %w", err)
	}

	a.director = director.New(a.registry, a.oracle,
		director.WithMemory(a.store),
		director.WithRouter(a.router),
		director.WithLogger(logger),
		director.WithObserver(rec),
		director.WithPluginTimeout(cfg.Director.PluginTimeout),
		director.WithMaxReasoning(cfg.Director.MaxReasoning),
	)
	return a, nil
}

func (a *app) serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	a.logger.Info().Str("addr", addr).Msg("serving metrics")
}

func (a *app) Close() error {
	var errs []error
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		errs = append(errs, a.metricsSrv.Shutdown(ctx))
	}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadWithRoutingFile(configFile)
	}
	return config.Load()
}

func openMemory(cfg config.MemoryConfig) (memory.Store, memory.Recaller, func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		store := memory.NewInMemory(memory.WithMaxItems(cfg.Limit))
		return store, store, nil, nil
	case "sqlite":
		store, err := memory.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open memory database: %w", err)
		}
		return store, store, store.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown memory backend %q", cfg.Backend)
	}
}

func createAdapters(ctx context.Context, cfg *config.Config) ([]adapter.Adapter, error) {
	var adapters []adapter.Adapter

	if cfg.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	if cfg.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	if cfg.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(ctx, cfg.GoogleAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	if cfg.DeepSeekAPIKey != "" {
		a, err := adapter.NewDeepSeekAdapter(cfg.DeepSeekAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create deepseek adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	if cfg.OllamaBaseURL != "" {
		a, err := adapter.NewCompatAdapter("ollama", cfg.OllamaBaseURL, "ollama", cfg.OllamaModels...)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	if cfg.EnableMock {
		adapters = append(adapters, adapter.NewMockAdapter())
	}
	return adapters, nil
}

// routeToMock makes the mock the routing default when it is the only
// backend. The mock is name-only, so nothing else would ever reach it.
func routeToMock(cfg *config.Config, adapters []adapter.Adapter) bool {
	if len(adapters) != 1 || adapters[0].Name() != "mock" || cfg.RoutingConfig == nil {
		return false
	}
	cfg.RoutingConfig.Default = config.RouteTarget{Adapter: "mock"}
	return true
}
