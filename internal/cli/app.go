// Package cli wires configuration into a running leadflow process: the lead
// store, the action dispatcher, the engine and its HTTP handler.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/leadflow/internal/adapters/file"
	"github.com/aretw0/leadflow/internal/adapters/postgres"
	"github.com/aretw0/leadflow/internal/adapters/sqlite"
	"github.com/aretw0/leadflow/internal/config"
	"github.com/aretw0/leadflow/internal/engine"
	"github.com/aretw0/leadflow/internal/metrics"
	"github.com/aretw0/leadflow/pkg/actions"
	httpapi "github.com/aretw0/leadflow/pkg/adapters/http"
	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/adapters/redis"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
	"github.com/aretw0/leadflow/pkg/leads"
	"github.com/aretw0/leadflow/pkg/persistence/middleware"
	"github.com/aretw0/leadflow/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App is a fully wired leadflow process.
type App struct {
	Config     *config.Config
	Flow       *flow.Definition
	Store      ports.LeadStore
	Leads      *leads.Manager
	Dispatcher *actions.Dispatcher
	Engine     *engine.Engine
	Metrics    *metrics.Metrics
	Registry   *prometheus.Registry
	Logger     *slog.Logger

	artifactDir string
	closers     []func() error
}

// Build loads the flow and wires every component named by cfg.
// The caller must Close the returned App.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	def, err := flow.Load(cfg.FlowPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}
	for _, w := range def.Warnings() {
		logger.Warn("flow warning", "detail", w)
	}

	app := &App{Config: cfg, Flow: def, Logger: logger}
	if err := app.wire(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	store, locker, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store, err = a.wrapStore(store); err != nil {
		return err
	}
	a.Store = store

	managerOpts := []leads.Option{
		leads.WithStartStep(a.Flow.Start()),
		leads.WithLogger(a.Logger),
	}
	if locker != nil {
		managerOpts = append(managerOpts, leads.WithLocker(locker))
	}
	a.Leads = leads.NewManager(store, managerOpts...)

	presenter := Presenter(cfg)
	a.Dispatcher, err = a.buildDispatcher(ctx, presenter)
	if err != nil {
		return err
	}

	hooks := a.Metrics.Hooks()
	if a.Logger.Enabled(ctx, slog.LevelDebug) {
		hooks = domain.ComposeHooks(hooks, createDebugHooks(a.Logger))
	}

	a.Engine, err = engine.New(a.Flow, a.Leads,
		engine.WithDispatcher(a.Dispatcher),
		engine.WithLifecycleHooks(hooks),
		engine.WithMetrics(a.Metrics),
		engine.WithLogger(a.Logger),
		engine.WithActionTimeout(cfg.ActionTimeout),
		engine.WithMaxStepVisits(cfg.MaxStepVisits),
		engine.WithFallbackMessage(cfg.FallbackMessage),
		engine.WithPresenter(presenter),
	)
	return err
}

// Presenter builds the salesperson profile from cfg.
func Presenter(cfg *config.Config) domain.Presenter {
	return domain.Presenter{
		Name:  cfg.PresenterName,
		Years: cfg.PresenterYears,
		Bio:   cfg.PresenterBio,
	}
}

func (a *App) openStore(ctx context.Context) (ports.LeadStore, ports.DistributedLocker, error) {
	cfg := a.Config
	switch cfg.Store {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil

	case config.StoreFile:
		return file.New(cfg.StoreDir), nil, nil

	case config.StoreRedis:
		opts := []redis.Option{redis.WithPrefix(cfg.RedisPrefix)}
		if cfg.RedisTTL > 0 {
			a.Logger.Warn("REDIS_TTL set: idle leads are deleted and restart the flow on their next message",
				"ttl", cfg.RedisTTL)
			opts = append(opts, redis.WithTTL(cfg.RedisTTL))
		}
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		a.closers = append(a.closers, store.Close)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("redis ping failed: %w", err)
		}
		if cfg.RedisLock {
			return store, redis.NewLocker(store.Client(), store.Prefix()), nil
		}
		return store, nil, nil

	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath, sqlite.WithLogger(a.Logger))
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil, nil

	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		return postgres.New(pool), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// wrapStore applies PII masking and field encryption when configured.
func (a *App) wrapStore(store ports.LeadStore) (ports.LeadStore, error) {
	cfg := a.Config
	var mws []middleware.Middleware

	if cfg.PIIMasking {
		patterns := cfg.PIIPatterns
		if len(patterns) == 0 {
			patterns = middleware.DefaultPIIPatterns
		}
		pii, err := middleware.NewPIIMiddleware(patterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}

	if cfg.EncryptionKey != "" {
		active, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid LEAD_ENCRYPTION_KEY: %w", err)
		}
		encCfg := middleware.EncryptionConfig{ActiveKey: active}
		for i, raw := range cfg.EncryptionFallbackKeys {
			key, err := middleware.ParseKey(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid fallback key %d: %w", i, err)
			}
			encCfg.FallbackKeys = append(encCfg.FallbackKeys, key)
		}
		enc, err := middleware.NewEncryptionMiddleware(encCfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}

	if len(mws) == 0 {
		return store, nil
	}
	a.Logger.Info("lead store middleware enabled", "pii_masking", cfg.PIIMasking, "encryption", cfg.EncryptionKey != "")
	return middleware.Chain(store, mws...), nil
}

func (a *App) buildDispatcher(ctx context.Context, presenter domain.Presenter) (*actions.Dispatcher, error) {
	cfg := a.Config

	var providers []actions.LLMClient
	if cfg.GeminiAPIKey != "" {
		gemini, err := actions.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gemini.Close)
		providers = append(providers, gemini)
	}
	if cfg.OpenAIAPIKey != "" {
		openai, err := actions.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		providers = append(providers, openai)
	}
	chain := actions.NewFallbackClient(a.Logger, providers...)
	if chain.Len() == 0 {
		a.Logger.Warn("no llm provider configured, recommendations use the vertical template")
	}

	recOpts := []actions.RecommenderOption{
		actions.WithVertical(cfg.Vertical),
		actions.WithPresenter(presenter),
		actions.WithRecommenderLogger(a.Logger),
	}
	if cfg.PromptTemplatePath != "" {
		tmpl, err := actions.LoadPromptTemplate(cfg.PromptTemplatePath)
		if err != nil {
			return nil, err
		}
		recOpts = append(recOpts, actions.WithPromptTemplate(tmpl))
	}

	var artifacts actions.ArtifactStore
	if cfg.ArtifactBucket != "" {
		client, err := actions.NewS3Client(ctx, actions.S3Config{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        cfg.AWSEndpointOverride,
		})
		if err != nil {
			return nil, err
		}
		artifacts = actions.NewS3Store(client, cfg.ArtifactBucket)
	} else {
		dir := actions.NewDirStore(cfg.ArtifactDir, cfg.ArtifactBaseURL)
		a.artifactDir = dir.Dir()
		artifacts = dir
	}

	return actions.NewDispatcher(
		actions.WithLogger(a.Logger),
		actions.WithRecommender(actions.NewRecommender(chain, recOpts...)),
		actions.WithComparison(actions.NewImageRenderer(), artifacts, presenter),
	), nil
}

// Handler returns the HTTP API for the app.
func (a *App) Handler() http.Handler {
	return httpapi.NewHandler(httpapi.Config{
		Engine:             a.Engine,
		Leads:              a.Leads,
		Flow:               a.Flow,
		Logger:             a.Logger,
		Metrics:            a.Metrics,
		MetricsHandler:     promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry}),
		ArtifactDir:        a.artifactDir,
		CORSAllowedOrigins: a.Config.CORSOrigins,
	})
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
