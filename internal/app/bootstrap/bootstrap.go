package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	arbiterservice "strangler/contexts/migration-control/arbiter-service"
	"strangler/contexts/migration-control/arbiter-service/adapters/memory"
	postgresadapter "strangler/contexts/migration-control/arbiter-service/adapters/postgres"
	redisadapter "strangler/contexts/migration-control/arbiter-service/adapters/redis"
	routeradapter "strangler/contexts/migration-control/arbiter-service/adapters/router"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	"strangler/contexts/migration-control/arbiter-service/domain/services"
	"strangler/contexts/migration-control/arbiter-service/ports"
	"strangler/internal/platform/cache"
	"strangler/internal/platform/config"
	"strangler/internal/platform/db"
	"strangler/internal/platform/httpserver"
	"strangler/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server  *httpserver.Server
	runtime *runtime
}

type WorkerApp struct {
	runtime *runtime
}

// ArbiterApp runs the status surface, both consumers and the decision loop in
// one process, the way the arbiter is deployed next to its dashboard.
type ArbiterApp struct {
	api    *APIApp
	worker *WorkerApp
}

type runtime struct {
	cfg     config.Config
	logger  *slog.Logger
	module  arbiterservice.Module
	closers []func() error
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	rt, err := buildRuntime(ctx, "api", false)
	if err != nil {
		return nil, err
	}
	return &APIApp{
		server:  httpserver.New(rt.module, rt.logger, normalizeAddr(rt.cfg.HTTPPort)),
		runtime: rt,
	}, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	rt, err := buildRuntime(ctx, "worker", true)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{runtime: rt}, nil
}

func BuildArbiter(ctx context.Context) (*ArbiterApp, error) {
	rt, err := buildRuntime(ctx, "arbiter", true)
	if err != nil {
		return nil, err
	}
	return &ArbiterApp{
		api: &APIApp{
			server:  httpserver.New(rt.module, rt.logger, normalizeAddr(rt.cfg.HTTPPort)),
			runtime: rt,
		},
		worker: &WorkerApp{runtime: rt},
	}, nil
}

func buildRuntime(ctx context.Context, process string, ingest bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if ingest {
		if err := cfg.ValidateIngest(); err != nil {
			return nil, err
		}
	}

	logger := newLogger(cfg).With("service", cfg.ServiceName, "process", process)
	slog.SetDefault(logger)

	rt := &runtime{cfg: cfg, logger: logger}
	fail := func(err error) (*runtime, error) {
		_ = rt.Close()
		return nil, err
	}

	var memStore *memory.Store
	var state ports.StateStore
	switch cfg.StateDriver {
	case config.DriverMemory:
		memStore = memory.NewStore(nil, logger).WithLogCaps(cfg.MismatchLogCap, cfg.RollbackLogCap)
		state = memStore
	default:
		conn, err := cache.Connect(ctx, cache.Options{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			RetryDelay: cfg.RetryDelay,
		}, logger)
		if err != nil {
			return fail(err)
		}
		rt.closers = append(rt.closers, conn.Close)
		state = redisadapter.NewStore(conn.Client, redisadapter.Options{
			KeyPrefix:   cfg.KeyPrefix,
			MismatchCap: cfg.MismatchLogCap,
			RollbackCap: cfg.RollbackLogCap,
		}, logger)
	}

	var accounts ports.AccountRepository
	var subscriber ports.EventSubscriber
	if ingest {
		switch cfg.AccountsDriver {
		case config.DriverMemory:
			if memStore == nil {
				memStore = memory.NewStore(nil, logger)
			}
			accounts = memStore
		default:
			pg, err := db.Connect(ctx, cfg.PostgresDSN, cfg.RetryDelay, logger)
			if err != nil {
				return fail(err)
			}
			rt.closers = append(rt.closers, pg.Close)
			accounts = postgresadapter.NewRepository(pg.DB, cfg.RetryDelay, logger)
		}

		switch cfg.MessagingDriver {
		case config.DriverMemory:
			subscriber = messaging.NewMemory(logger)
		default:
			kafka, err := messaging.NewKafka(cfg.KafkaBrokers, cfg.RetryDelay, logger)
			if err != nil {
				return fail(err)
			}
			rt.closers = append(rt.closers, kafka.Close)
			subscriber = kafka
		}
	}

	router := routeradapter.NewClient(cfg.RouterURL, cfg.RouterTimeout, &http.Client{}, logger)

	rt.module = arbiterservice.NewModule(arbiterservice.Dependencies{
		State:      state,
		Accounts:   accounts,
		Router:     router,
		Subscriber: subscriber,
		Clock:      postgresadapter.SystemClock{},
		IDs:        postgresadapter.UUIDGenerator{},
		Policy: services.DecisionPolicy{
			MinSamples:        cfg.MinSamples,
			PromoteThreshold:  cfg.PromoteThreshold,
			RollbackThreshold: cfg.RollbackThreshold,
			Increment:         cfg.WeightIncrement,
		},
		ScoreMode:          entities.ScoreMode(cfg.ScoreMode),
		Services:           cfg.Services,
		DecisionServices:   cfg.DecisionServices,
		DefaultServiceType: cfg.DefaultServiceType,
		BalanceEpsilon:     cfg.BalanceEpsilon,
		DecisionInterval:   cfg.DecisionInterval,
		DedupEnabled:       cfg.DedupEnabled,
		DedupTTL:           cfg.DedupTTL,
		ShadowTopic:        cfg.ShadowTopic,
		ShadowGroup:        cfg.ShadowGroup,
		StateUpdateTopic:   cfg.StateUpdateTopic,
		StateUpdateGroup:   cfg.StateUpdateGroup,
		Logger:             logger,
	})

	if err := rt.module.Seed(ctx); err != nil {
		return fail(fmt.Errorf("seed arbiter state: %w", err))
	}
	return rt, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	a.runtime.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	errCh := make(chan error, 1)
	go func() { errCh <- a.server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	}
}

func (a *APIApp) Close() error {
	return a.runtime.Close()
}

func (w *WorkerApp) Run(ctx context.Context) error {
	module := w.runtime.module
	if err := module.ComparisonConsumer.Start(ctx); err != nil {
		return err
	}
	if err := module.StateUpdateConsumer.Start(ctx); err != nil {
		return err
	}

	w.runtime.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"decision_interval", w.runtime.cfg.DecisionInterval.String(),
		"score_mode", w.runtime.cfg.ScoreMode,
		"dedup_enabled", w.runtime.cfg.DedupEnabled,
	)
	return module.DecisionEngine.Run(ctx)
}

func (w *WorkerApp) Close() error {
	return w.runtime.Close()
}

func (a *ArbiterApp) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, run := range []func(context.Context) error{a.api.Run, a.worker.Run} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = run(ctx)
			cancel()
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (a *ArbiterApp) Close() error {
	return a.worker.runtime.Close()
}

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":5000"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
