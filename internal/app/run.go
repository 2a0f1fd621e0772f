package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/acoshift/neppage/internal/adapters/in/http/pages"
	"github.com/acoshift/neppage/internal/adapters/out/eventbus"
	"github.com/acoshift/neppage/internal/adapters/out/filesystem"
	"github.com/acoshift/neppage/internal/adapters/out/nepq"
	"github.com/acoshift/neppage/internal/adapters/out/telemetry"
	"github.com/acoshift/neppage/internal/boundaries/out"
	"github.com/acoshift/neppage/internal/domain"
	"github.com/acoshift/neppage/internal/logging"
	"github.com/acoshift/neppage/internal/usecase/files"
	pagesuc "github.com/acoshift/neppage/internal/usecase/pages"
	"github.com/acoshift/neppage/internal/usecase/routes"
	"github.com/acoshift/neppage/internal/usecase/scheduler"
)

const (
	serviceName     = "neppage"
	eventBuffer     = 100
	shutdownTimeout = 10 * time.Second
)

// engine holds the wired use cases.
type engine struct {
	store  *nepq.Client
	pages  *pagesuc.Service
	routes *routes.Service
}

func newEngine(cfg Config, publisher out.EventPublisher, recorder out.SyncRecorder) (*engine, error) {
	store, err := newClient(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("store client: %w", err)
	}
	routeClient, err := newClient(cfg.Route.EndpointConfig)
	if err != nil {
		return nil, fmt.Errorf("route client: %w", err)
	}

	routeSvc := routes.NewService(nepq.NewRoutes(routeClient), cfg.Identity())
	routeSvc.SetRecorder(recorder)

	// Reconciler is only wired when there is a publisher, i.e. in serve mode.
	var reconciler pagesuc.Reconciler
	if publisher != nil {
		reconciler = routeSvc
	}
	pageSvc := pagesuc.NewService(nepq.NewPages(store), reconciler, publisher)
	pageSvc.SetRecorder(recorder)

	return &engine{store: store, pages: pageSvc, routes: routeSvc}, nil
}

func newClient(ep EndpointConfig) (*nepq.Client, error) {
	return nepq.NewClient(ep.URL, ep.Token, nepq.WithTimeout(ep.Timeout))
}

// Run starts the sync engine and the static server and blocks until ctx is
// done or a termination signal arrives.
func Run(ctx context.Context, configPath, version string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, closeLog, err := logging.Setup(cfg.LogConfig())
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	log = log.With().Str(logging.FieldLayer, "app").Logger()
	ctx = logging.WithCtx(ctx, log)

	shutdownTelemetry, err := telemetry.NewProvider(ctx, cfg.Telemetry, serviceName, version)
	if err != nil {
		log.Warn().Err(err).Msg("telemetry disabled")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownTelemetry(sctx)
	}()

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	bus := eventbus.NewInMemory(eventBuffer, log)
	bus.SetMetrics(metrics)

	recorder := telemetry.NewRecorder(metrics)
	eng, err := newEngine(cfg, bus, recorder)
	if err != nil {
		return err
	}

	osFs := afero.NewOsFs()
	pageStore, err := filesystem.NewPageStore(osFs, cfg.Server.PagesDir, log)
	if err != nil {
		return err
	}
	fileSvc := files.NewService(nepq.NewFiles(eng.store), pageStore)
	fileSvc.SetRecorder(recorder)

	sched, err := newScheduler(cfg, eng.pages, fileSvc, log)
	if err != nil {
		return err
	}

	if err := bus.Subscribe(scheduler.NewTriggerHandler(sched)); err != nil {
		return err
	}
	if err := bus.Start(); err != nil {
		return err
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	sched.Start(runCtx)

	if pidFile := createPidFile(pidLocations(), log); pidFile != "" {
		defer removePidFile(pidFile, log)
	}

	handler := pages.New(eng.pages, osFs, pageStore.Root(), cfg.Server.Hostnames)
	server := pages.NewServer(handler, log)
	addr := ":" + strconv.Itoa(cfg.Server.Port)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("pages_dir", pageStore.Root()).Msg("static server listening")
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	runErr := waitForShutdown(ctx, bus, serverErr, log)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("static server shutdown error")
	}
	cancelRun()
	if err := bus.Stop(); err != nil {
		log.Warn().Err(err).Msg("event bus shutdown error")
	}
	sched.Stop()

	log.Info().Msg("neppage stopped")
	return runErr
}

func newScheduler(cfg Config, pageSvc *pagesuc.Service, fileSvc *files.Service, log zerolog.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.NewScheduler(log)

	err := sched.Add(scheduler.JobSpec{
		Name:       domain.JobPages,
		Interval:   cfg.Sync.PageInterval,
		Debounce:   cfg.Sync.PageDebounce,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			_, err := pageSvc.Refresh(ctx)
			return err
		},
	})
	if err != nil {
		return nil, err
	}

	err = sched.Add(scheduler.JobSpec{
		Name:     domain.JobFiles,
		Interval: cfg.Sync.FileInterval,
		Debounce: cfg.Sync.FileDebounce,
		Run: func(ctx context.Context) error {
			_, err := fileSvc.Operate(ctx, pageSvc.Pages())
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}

// waitForShutdown turns SIGUSR1/SIGUSR2 into manual triggers and returns
// on SIGINT/SIGTERM, context cancellation or a server failure.
func waitForShutdown(ctx context.Context, bus out.EventPublisher, serverErr <-chan error, log zerolog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, SignalReload, SignalSync)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("context cancelled, shutting down")
			return nil
		case err, ok := <-serverErr:
			if ok && err != nil {
				log.Error().Err(err).Msg("static server failed")
				return err
			}
			return nil
		case sig := <-sigCh:
			switch sig {
			case SignalReload:
				publishTrigger(bus, domain.EventManualReload, log)
			case SignalSync:
				publishTrigger(bus, domain.EventManualSync, log)
			default:
				log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
				return nil
			}
		}
	}
}

func publishTrigger(bus out.EventPublisher, eventType domain.EventType, log zerolog.Logger) {
	log.Info().Str(logging.FieldEvent, string(eventType)).Msg("manual trigger received")
	if err := bus.Publish(eventType, domain.ManualTriggerPayload{Source: "signal"}); err != nil {
		log.Warn().Err(err).Str(logging.FieldEvent, string(eventType)).Msg("failed to publish trigger")
	}
}

// Plan fetches the current tenant set and route table and returns the
// mutations a reconciliation pass would issue, without applying them.
func Plan(ctx context.Context, configPath string) (domain.RoutePlan, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return domain.RoutePlan{}, err
	}
	if err := cfg.Validate(); err != nil {
		return domain.RoutePlan{}, fmt.Errorf("invalid config: %w", err)
	}

	log, closeLog, err := logging.Setup(cfg.LogConfig())
	if err != nil {
		return domain.RoutePlan{}, err
	}
	defer func() { _ = closeLog() }()
	ctx = logging.WithCtx(ctx, log)

	eng, err := newEngine(cfg, nil, out.NopRecorder{})
	if err != nil {
		return domain.RoutePlan{}, err
	}

	if _, err := eng.pages.Refresh(ctx); err != nil {
		return domain.RoutePlan{}, fmt.Errorf("failed to fetch pages: %w", err)
	}
	return eng.routes.PlanFor(ctx, eng.pages.Pages())
}
