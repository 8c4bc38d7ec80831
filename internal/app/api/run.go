package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	womemory "github.com/Apurer/workorder-dispatch/internal/domains/workorders/adapters/memory"
	woobs "github.com/Apurer/workorder-dispatch/internal/domains/workorders/adapters/observability"
	wopostgres "github.com/Apurer/workorder-dispatch/internal/domains/workorders/adapters/persistence/postgres"
	woredis "github.com/Apurer/workorder-dispatch/internal/domains/workorders/adapters/redis"
	woapp "github.com/Apurer/workorder-dispatch/internal/domains/workorders/application"
	wotypes "github.com/Apurer/workorder-dispatch/internal/domains/workorders/application/types"
	woports "github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus/httpapi"
	busobs "github.com/Apurer/workorder-dispatch/internal/platform/bus/observability"
	"github.com/Apurer/workorder-dispatch/internal/platform/envelope"
	platformobservability "github.com/Apurer/workorder-dispatch/internal/platform/observability"
	platformpostgres "github.com/Apurer/workorder-dispatch/internal/platform/postgres"
)

const lockKeyPrefix = "workorder-dispatch:"

// Run boots the work order dispatch HTTP API with observability, stores, and the bus wired.
func Run(ctx context.Context, cfg Config) error {
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.Settings{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		LogLevel:     cfg.LogLevel,
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	app, cleanup, err := Build(ctx, cfg, instruments)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("work order dispatch API listening",
		slog.String("addr", cfg.Addr()),
		slog.String("bus_mode", cfg.BusMode),
		slog.Bool("postgres", app.Persistent))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("work order dispatch API exited", slog.String("addr", cfg.Addr()), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// App is the assembled process: the bus callers use plus the router serving the envelope endpoint.
type App struct {
	Catalog    *envelope.Catalog
	Mediator   *bus.Mediator
	Bus        bus.Bus
	Router     *gin.Engine
	Persistent bool
}

// Build assembles the application from cfg. The returned cleanup releases database and Redis connections.
func Build(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*App, func(), error) {
	if instruments == nil {
		instruments = &platformobservability.Instruments{}
	}
	logger := instruments.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	catalog := envelope.NewCatalog()
	bus.RegisterTypes(catalog)
	if err := wotypes.Register(catalog); err != nil {
		return nil, cleanup, fmt.Errorf("register message catalog: %w", err)
	}

	stores := buildStores(ctx, cfg, logger)
	cleanups = append(cleanups, stores.close)

	orchestratorOpts := []woapp.OrchestratorOption{}
	if locker, closeLocker := buildLocker(ctx, cfg, logger); locker != nil {
		cleanups = append(cleanups, closeLocker)
		orchestratorOpts = append(orchestratorOpts, woapp.WithLocker(locker, cfg.TransitionLockTTL))
	}

	mediator := bus.NewMediator()
	local := busobs.New(bus.NewLocalBus(mediator),
		busobs.WithLogger(logger),
		busobs.WithTracer(instruments.Tracer("internal.platform.bus")),
		busobs.WithMeter(instruments.Meter("internal.platform.bus")),
	)

	transitions := woobs.New(
		woapp.NewOrchestrator(stores.uow, orchestratorOpts...),
		woobs.WithLogger(logger),
		woobs.WithTracer(instruments.Tracer("internal.workorders.application")),
		woobs.WithMeter(instruments.Meter("internal.workorders.application")),
	)
	handler := woapp.NewCommandHandler(transitions, local, woapp.WithHandlerLogger(logger))
	service := woapp.NewService(stores.repo, stores.employees, stores.numbers, handler, local)
	woapp.RegisterHandlers(mediator, service, handler)
	woapp.LogTransitions(mediator, logger)
	woobs.CountTransitions(mediator, instruments.Meter("internal.workorders.application"))

	if cfg.SeedEmployees {
		if err := SeedEmployees(ctx, stores.employees); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("seed employees: %w", err)
		}
	}

	callerBus := local
	if cfg.RemoteBusEnabled() {
		remote, err := bus.NewRemoteBus(cfg.BusRemoteURL, catalog, local,
			bus.WithTimeout(cfg.BusRemoteTimeout),
			bus.WithLogger(logger),
		)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("configure remote bus: %w", err)
		}
		callerBus = busobs.New(remote,
			busobs.WithLogger(logger),
			busobs.WithTracer(instruments.Tracer("internal.platform.bus.remote")),
			busobs.WithMeter(instruments.Meter("internal.platform.bus.remote")),
		)
		logger.Info("remote bus enabled", slog.String("url", cfg.BusRemoteURL))
	}

	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(cfg.ServiceName))
	endpoint := httpapi.NewEndpoint(catalog, local,
		httpapi.WithLogger(logger),
		httpapi.WithErrorMapper(MapError),
	)
	endpoint.Register(router)

	return &App{
		Catalog:    catalog,
		Mediator:   mediator,
		Bus:        callerBus,
		Router:     router,
		Persistent: stores.persistent,
	}, cleanup, nil
}

type stores struct {
	repo       woports.Repository
	uow        woports.UnitOfWork
	numbers    woports.NumberSequence
	employees  woports.EmployeeDirectory
	persistent bool
	close      func()
}

func buildStores(ctx context.Context, cfg Config, logger *slog.Logger) stores {
	db, closeDB := platformpostgres.Open(ctx, cfg.PostgresDSN, logger)
	if db == nil {
		store := womemory.NewStore()
		return stores{
			repo:      store,
			uow:       store,
			numbers:   store,
			employees: womemory.NewEmployeeDirectory(),
			close:     closeDB,
		}
	}
	logger.Info("work order store configured with postgres")
	repo := wopostgres.NewRepository(db)
	return stores{
		repo:       repo,
		uow:        repo,
		numbers:    repo,
		employees:  wopostgres.NewEmployeeDirectory(db),
		persistent: true,
		close:      closeDB,
	}
}

// buildLocker returns nil when Redis is not configured or unreachable; transitions then rely on
// the store's own serialization.
func buildLocker(ctx context.Context, cfg Config, logger *slog.Logger) (woports.TransitionLocker, func()) {
	if cfg.RedisAddr == "" {
		return nil, func() {}
	}
	client, err := woredis.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unavailable, transitions not locked across replicas", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("transition locker configured with redis", slog.String("addr", cfg.RedisAddr))
	return woredis.NewLocker(client, lockKeyPrefix), func() { _ = client.Close() }
}
