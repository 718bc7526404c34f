package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gilangnh/matchday/external/espn"
	"github.com/gilangnh/matchday/external/gemini"
	"github.com/gilangnh/matchday/external/telegram"
	"github.com/gilangnh/matchday/internal/config"
	"github.com/gilangnh/matchday/internal/domain/match"
	"github.com/gilangnh/matchday/internal/domain/team"
	"github.com/gilangnh/matchday/internal/infrastructure/repository/memory"
	"github.com/gilangnh/matchday/internal/infrastructure/repository/postgres"
	redisrepo "github.com/gilangnh/matchday/internal/infrastructure/repository/redis"
	"github.com/gilangnh/matchday/internal/interfaces/httpapi"
	"github.com/gilangnh/matchday/internal/observability"
	"github.com/gilangnh/matchday/internal/platform/logging"
	"github.com/gilangnh/matchday/internal/scheduler"
	"github.com/gilangnh/matchday/internal/usecase"
)

// App owns every long-lived component: the job scheduler, the HTTP server,
// and the connections behind them. Construct with New, drive with Run.
type App struct {
	cfg    config.Config
	logger *logging.Logger

	httpServer  *http.Server
	scheduler   *scheduler.Scheduler
	db          *sqlx.DB
	redisClient *goredis.Client
	pprofServer *http.Server

	shutdownTracing func(context.Context) error
	stopProfiler    func() error
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	a := &App{cfg: cfg, logger: logger}

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return nil, crerr.Wrap(err, "init uptrace")
	}
	a.shutdownTracing = shutdownTracing

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return nil, crerr.Wrap(err, "init pyroscope")
	}
	a.stopProfiler = stopProfiler

	catalog, err := config.LoadLeagueCatalog(cfg.LeagueCatalogPath)
	if err != nil {
		return nil, err
	}

	tracking, err := a.buildTrackingRepository()
	if err != nil {
		return nil, err
	}

	feed := espn.NewClient(espn.ClientConfig{
		HTTPClient: &http.Client{
			Timeout:   cfg.ESPNTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		BaseURL:        cfg.ESPNBaseURL,
		MaxRetries:     cfg.ESPNMaxRetries,
		Logger:         logger,
		CircuitBreaker: cfg.ESPNCircuit,
		Zones:          catalog.Zone,
	})

	sender := telegram.NewSender(telegram.Config{
		HTTPClient: &http.Client{
			Timeout:   cfg.TelegramTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		BaseURL:        cfg.TelegramBaseURL,
		Token:          cfg.TelegramToken,
		ChannelID:      cfg.TelegramChannelID,
		PersonalChatID: cfg.TelegramPersonalChatID,
		HeartbeatText:  cfg.TelegramHeartbeatText,
		MaxRetries:     cfg.TelegramMaxRetries,
		RetryDelay:     cfg.TelegramRetryDelay,
		Logger:         logger,
		CircuitBreaker: cfg.TelegramCircuit,
	})

	enrichment := usecase.NewTeamEnrichmentService(a.buildTeamRepository(), a.buildShortener(), logger)
	formatter := usecase.NewFormatter(catalog, enrichment)

	acquisition := usecase.NewAcquisitionService(catalog, feed, tracking, sender, formatter,
		usecase.AcquisitionConfig{
			Workers:         cfg.AcquireWorkers,
			WindowStartHour: cfg.WindowStartHour,
			WindowLocation:  cfg.WindowLocation,
		}, logger)

	reconciliation := usecase.NewReconciliationService(tracking, feed, sender, formatter,
		usecase.ReconcilerConfig{
			KickoffGrace:        cfg.KickoffGrace,
			CompletionThreshold: cfg.CompletionThreshold,
			PrefetchWorkers:     cfg.ReconcileWorkers,
		}, logger)

	sched, err := scheduler.New(cfg.WindowLocation, logger)
	if err != nil {
		return nil, err
	}
	a.scheduler = sched

	if err := sched.Daily("fixture-acquisition", cfg.WindowStartHour, func(ctx context.Context) error {
		_, err := acquisition.Run(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	if err := sched.Every("reconciliation", cfg.ReconcileInterval, func(ctx context.Context) error {
		_, err := reconciliation.Run(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	if cfg.HeartbeatEnabled {
		if err := sched.Every("heartbeat", cfg.HeartbeatInterval, sender.Heartbeat); err != nil {
			return nil, err
		}
	}

	handler := httpapi.NewHandler(tracking, acquisition, reconciliation, logger, cfg.ServiceVersion)
	a.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, logger, cfg.InternalJobToken),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	pprofServer, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		return nil, crerr.Wrap(err, "start pprof")
	}
	a.pprofServer = pprofServer

	return a, nil
}

func (a *App) buildTrackingRepository() (match.TrackingRepository, error) {
	switch a.cfg.TrackingBackend {
	case config.TrackingBackendPostgres:
		db, err := openTrackingDB(a.cfg.DBURL)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.logger.Info("tracking store ready", "backend", "postgres", "db", dbNameFromURL(a.cfg.DBURL))
		return postgres.NewTrackingRepository(db), nil
	case config.TrackingBackendMemory:
		a.logger.Info("tracking store ready", "backend", "memory")
		return memory.NewTrackingRepository(), nil
	default:
		return nil, crerr.Newf("unknown tracking backend %q", a.cfg.TrackingBackend)
	}
}

func (a *App) buildTeamRepository() team.Repository {
	if a.cfg.RedisAddr == "" {
		a.logger.Info("team mapping store ready", "backend", "memory")
		return memory.NewTeamRepository()
	}

	a.redisClient = goredis.NewClient(&goredis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	a.logger.Info("team mapping store ready", "backend", "redis", "addr", a.cfg.RedisAddr)
	return redisrepo.NewTeamRepository(a.redisClient, "")
}

func (a *App) buildShortener() team.Shortener {
	if !a.cfg.GeminiEnabled {
		a.logger.Info("team enrichment disabled, raw names with placeholder emoji")
		return nil
	}
	return gemini.NewClient(gemini.Config{
		HTTPClient: &http.Client{
			Timeout:   20 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		APIKey: a.cfg.GeminiAPIKey,
		Model:  a.cfg.GeminiModel,
		Logger: a.logger,
	})
}

// Run starts the scheduler and the HTTP server and blocks until ctx is
// canceled or the server fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Start()

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.cfg.HTTPAddr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-serverErr:
		a.logger.Error("http server failed", "error", err)
		a.shutdown()
		return err
	}

	a.shutdown()
	return nil
}

func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown failed", "error", err)
	}
	if err := a.scheduler.Shutdown(); err != nil {
		a.logger.Error("scheduler shutdown failed", "error", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("close tracking db failed", "error", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("close redis failed", "error", err)
		}
	}
	if err := observability.StopPprofServer(a.pprofServer, a.logger, 5*time.Second); err != nil {
		a.logger.Error("pprof shutdown failed", "error", err)
	}
	if a.stopProfiler != nil {
		if err := a.stopProfiler(); err != nil {
			a.logger.Error("profiler stop failed", "error", err)
		}
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(shutdownCtx); err != nil {
			a.logger.Error("tracing shutdown failed", "error", err)
		}
	}

	a.logger.Info("shutdown complete")
}
