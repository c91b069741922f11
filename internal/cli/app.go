package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/ticketflow"
	"github.com/aretw0/ticketflow/internal/config"
	"github.com/aretw0/ticketflow/internal/logging"
	httpAdapter "github.com/aretw0/ticketflow/pkg/adapters/http"
	"github.com/aretw0/ticketflow/pkg/adapters/memory"
	"github.com/aretw0/ticketflow/pkg/adapters/redis"
	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/observability"
	"github.com/aretw0/ticketflow/pkg/persistence/middleware"
	"github.com/aretw0/ticketflow/pkg/ports"
	"github.com/aretw0/ticketflow/pkg/providers/atlas"
	"github.com/aretw0/ticketflow/pkg/providers/common"
	"github.com/aretw0/ticketflow/pkg/session"
)

// App is the fully wired process: engine, store, session manager and the
// observability hooks selected by the configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Engine  *ticketflow.Engine
	Store   ports.RunStore
	Manager *session.Manager
	Streams *httpAdapter.StreamManager
	Metrics *observability.Metrics

	closers []func(context.Context) error
}

// AppOption customizes how the App is built.
type AppOption func(*appOptions)

type appOptions struct {
	logOutput   io.Writer
	traceOutput io.Writer
	client      backend.UniversalClient
	extraHooks  []domain.LifecycleHooks
}

// WithLogOutput redirects logs (default stderr).
func WithLogOutput(w io.Writer) AppOption {
	return func(o *appOptions) {
		o.logOutput = w
	}
}

// WithTraceOutput overrides the tracing.output setting.
func WithTraceOutput(w io.Writer) AppOption {
	return func(o *appOptions) {
		o.traceOutput = w
	}
}

// WithRedisClient injects the Redis client used by the redis backend.
func WithRedisClient(client backend.UniversalClient) AppOption {
	return func(o *appOptions) {
		o.client = client
	}
}

// WithHooks adds lifecycle hooks after the configured ones.
func WithHooks(hooks domain.LifecycleHooks) AppOption {
	return func(o *appOptions) {
		o.extraHooks = append(o.extraHooks, hooks)
	}
}

// NewApp wires every component from cfg. Close must be called to flush
// traces and release the store.
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &appOptions{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	logger := logging.NewWithWriter(o.logOutput, logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	masker, err := newMasker(cfg.Store)
	if err != nil {
		return nil, err
	}
	var streamOpts []httpAdapter.StreamOption
	if masker != nil {
		streamOpts = append(streamOpts, httpAdapter.WithRedactor(masker.Mask))
	}
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Streams: httpAdapter.NewStreamManager(logger, streamOpts...),
	}

	// 1. Hooks
	hooks := []domain.LifecycleHooks{observability.LoggingHooks(logger), app.Streams.Hooks()}
	if cfg.Metrics.Enabled {
		m, err := observability.NewMetrics()
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		app.Metrics = m
		hooks = append(hooks, m.Hooks())
	}
	if cfg.Tracing.Enabled || o.traceOutput != nil {
		tracing, err := app.setupTracing(cfg.Tracing.Output, o.traceOutput)
		if err != nil {
			app.Close(context.Background())
			return nil, err
		}
		hooks = append(hooks, tracing.Hooks())
	}
	hooks = append(hooks, o.extraHooks...)

	// 2. Engine
	engine, err := ticketflow.New(
		ticketflow.WithLogger(logger),
		ticketflow.WithLifecycleHooks(observability.Combine(hooks...)),
		ticketflow.WithProviders(
			common.New(common.WithSolutionScore(cfg.Engine.SolutionScore), common.WithLogger(logger)),
			atlas.New(logger),
		),
	)
	if err != nil {
		app.Close(context.Background())
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = engine

	// 3. Persistence
	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.WithLockTTL(cfg.Session.LockTTL),
	}
	switch cfg.Store.Backend {
	case config.StoreRedis:
		client := o.client
		if client == nil {
			client = backend.NewClient(&backend.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
		}
		store := redis.NewFromClient(client, redis.WithPrefix(cfg.Redis.Prefix), redis.WithTTL(cfg.Redis.TTL))
		app.Store = store
		app.closers = append(app.closers, func(context.Context) error { return store.Close() })
		sessionOpts = append(sessionOpts, session.WithLocker(redis.NewLocker(client, cfg.Redis.Prefix)))
	default:
		app.Store = memory.NewStore()
	}
	if app.Store, err = protect(app.Store, masker, cfg.Store); err != nil {
		app.Close(context.Background())
		return nil, err
	}
	app.Manager = session.NewManager(engine, app.Store, sessionOpts...)

	logger.Debug("app initialized",
		"store", cfg.Store.Backend,
		"metrics", cfg.Metrics.Enabled,
		"tracing", cfg.Tracing.Enabled,
	)
	return app, nil
}

// newMasker builds the PII masker when redaction is on; nil otherwise.
func newMasker(cfg config.StoreConfig) (*middleware.Masker, error) {
	if !cfg.RedactPII {
		return nil, nil
	}
	patterns := cfg.PIIPatterns
	if len(patterns) == 0 {
		patterns = middleware.DefaultPIIPatterns
	}
	return middleware.NewMasker(patterns)
}

// protect wraps the store with PII masking and encryption, in that order.
func protect(store ports.RunStore, masker *middleware.Masker, cfg config.StoreConfig) (ports.RunStore, error) {
	var mws []middleware.Middleware
	if masker != nil {
		mws = append(mws, middleware.NewMaskingMiddleware(masker))
	}
	if cfg.EncryptionKey != "" {
		keys, err := middleware.ParseEncryptionConfig(cfg.EncryptionKey, cfg.FallbackKeys)
		if err != nil {
			return nil, err
		}
		enc, err := middleware.NewEncryptionMiddleware(keys)
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), nil
}

func (a *App) setupTracing(output string, w io.Writer) (*observability.Tracing, error) {
	if w == nil {
		switch output {
		case "", "stderr":
			w = os.Stderr
		case "stdout":
			w = os.Stdout
		default:
			f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("tracing output: %w", err)
			}
			a.closers = append(a.closers, func(context.Context) error { return f.Close() })
			w = f
		}
	}
	tp, err := observability.NewStdoutProvider("ticketflow", ticketflow.Version, w)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	// Flush spans before closing the output.
	a.closers = append([]func(context.Context) error{tp.Shutdown}, a.closers...)
	return observability.NewTracing(tp), nil
}

// Close flushes traces and releases resources, in order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
