// Package cli wires configuration into a running parley engine for the commands in cmd/parley.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/pkg/adapters/file"
	"github.com/parleyhq/parley/pkg/adapters/memory"
	"github.com/parleyhq/parley/pkg/adapters/redis"
	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/observability"
	"github.com/parleyhq/parley/pkg/persistence/middleware"
	"github.com/parleyhq/parley/pkg/ports"
	"github.com/parleyhq/parley/pkg/proxy"
)

// App is an engine together with the optional services built from the same configuration.
type App struct {
	Engine  *parley.Engine
	Metrics *observability.Metrics
	Search  *proxy.SearchProxy
	Chat    *proxy.ChatProxy
	Logger  *slog.Logger

	closers []func() error
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// Build creates the engine, session store and proxies described by cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Logger: logger}

	store, locker, err := app.openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	hooks := debugHooks(logger)
	if cfg.Server.Metrics {
		app.Metrics = observability.NewMetrics()
		hooks = hooks.Merge(app.Metrics.Hooks())
	}

	opts := []parley.Option{
		parley.WithLogger(logger),
		parley.WithStore(store),
		parley.WithLifecycleHooks(hooks),
	}
	if locker != nil {
		opts = append(opts, parley.WithLocker(locker))
	}

	engine, err := parley.New(cfg.Scenarios.Dir, opts...)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = engine

	var observer proxy.Observer
	if app.Metrics != nil {
		observer = app.Metrics
	}
	if cfg.Proxy.Search.BaseURL != "" {
		searchOpts := []proxy.SearchOption{proxy.WithSearchLogger(logger)}
		if observer != nil {
			searchOpts = append(searchOpts, proxy.WithSearchObserver(observer))
		}
		app.Search = proxy.NewSearchProxy(proxy.SearchConfig{
			BaseURL: cfg.Proxy.Search.BaseURL,
			APIKey:  cfg.Proxy.Search.APIKey,
			Limit:   cfg.Proxy.Search.Limit,
			Timeout: cfg.Proxy.Search.Timeout,
		}, searchOpts...)
	}
	if cfg.Proxy.Chat.APIKey != "" {
		chatOpts := []proxy.ChatOption{proxy.WithChatLogger(logger)}
		if observer != nil {
			chatOpts = append(chatOpts, proxy.WithChatObserver(observer))
		}
		app.Chat = proxy.NewChatProxy(proxy.ChatConfig{
			BaseURL:      cfg.Proxy.Chat.BaseURL,
			APIKey:       cfg.Proxy.Chat.APIKey,
			Model:        cfg.Proxy.Chat.Model,
			SystemPrompt: cfg.Proxy.Chat.SystemPrompt,
			Timeout:      cfg.Proxy.Chat.Timeout,
		}, chatOpts...)
	}

	return app, nil
}

// openStore builds the session store for the configured driver, wrapped in the persistence middleware.
func (a *App) openStore(ctx context.Context, cfg config.StoreConfig) (ports.SessionStore, ports.DistributedLocker, error) {
	var (
		store  ports.SessionStore
		locker ports.DistributedLocker
	)

	switch cfg.Driver {
	case config.DriverFile:
		store = file.New(cfg.Dir)
	case config.DriverRedis:
		var redisOpts []redis.Option
		if cfg.Redis.Prefix != "" {
			redisOpts = append(redisOpts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		if cfg.Redis.TTL > 0 {
			redisOpts = append(redisOpts, redis.WithTTL(cfg.Redis.TTL))
		}
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redisOpts...)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		a.closers = append(a.closers, rs.Close)
		store = rs
		if cfg.Redis.Lock {
			locker = redis.NewLocker(rs.Client(), rs.Prefix())
		}
	default:
		store = memory.New()
	}

	mws, err := storeMiddleware(cfg)
	if err != nil {
		return nil, nil, err
	}
	a.Logger.Debug("Session store ready", "driver", cfg.Driver, "middleware", len(mws))
	return middleware.Chain(store, mws...), locker, nil
}

// storeMiddleware masks before it encrypts, so PII never reaches the cipher in clear.
func storeMiddleware(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware

	if len(cfg.MaskPatterns) > 0 || cfg.MaskDisplayName {
		var piiOpts []middleware.PIIOption
		if cfg.MaskDisplayName {
			piiOpts = append(piiOpts, middleware.WithMaskedDisplayName())
		}
		pii, err := middleware.NewPIIMiddleware(cfg.MaskPatterns, piiOpts...)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}

	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *domain.SessionEvent) {
			logger.Debug("Session start", "session_id", e.SessionID, "dialogue_id", e.DialogueID)
		},
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("Enter step", "session_id", e.SessionID, "step_id", e.StepID, "kind", e.Kind)
		},
		OnOptionSelected: func(ctx context.Context, e *domain.SelectionEvent) {
			logger.Debug("Option selected", "session_id", e.SessionID, "event_id", e.EventID, "to", e.ToStepID)
		},
		OnSessionDone: func(ctx context.Context, e *domain.SessionEvent) {
			logger.Debug("Session done", "session_id", e.SessionID, "turns", e.Turns)
		},
	}
}
