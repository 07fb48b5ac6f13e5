package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/cache"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/catalog"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/config"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/engine"
	esengine "github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/engine/elasticsearch"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/engine/memory"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/event"
	handler "github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/handler/http"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/quote"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/repository/postgres"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/service"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/migrations"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/database"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/health"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/httpclient"
	pkgkafka "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/kafka"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/middleware"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/tracing"
)

const (
	serviceName          = "materials-search"
	idempotencyTTL       = 24 * time.Hour
	idempotencyKeyPrefix = "materials-search:events:"
)

// App wires together all dependencies and runs the materials search service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	searchService *service.SearchService
	router        func(ctx context.Context) http.Handler
	httpServer    *http.Server

	pool     *pgxpool.Pool
	redis    *redis.Client
	producer *pkgkafka.Producer
	dlq      *pkgkafka.DLQProducer
	consumer *pkgkafka.Consumer

	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = a.closeClients()
		}
	}()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Exporter:       cfg.OTELExporter,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	eng, err := a.initEngine(healthHandler)
	if err != nil {
		return nil, err
	}

	opts := []service.Option{
		service.WithLimits(service.Limits{
			DefaultSearchLimit: cfg.SearchDefaultLimit,
			MaxSearchLimit:     cfg.SearchMaxLimit,
			MinChars:           cfg.AutocompleteMinChars,
			MaxSuggestions:     cfg.AutocompleteMaxSuggestions,
		}),
		service.WithBreaker(cfg.Breaker("search-engine")),
	}

	// PostgreSQL: zero-result search log and, optionally, the catalog source.
	if cfg.PostgresEnabled {
		pgOpts, err := a.initPostgres(ctx, healthHandler)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pgOpts...)
	}

	if cfg.CatalogSource == config.SourceHTTP {
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			cfg.Breaker("catalog-service"),
			logger,
		)
		opts = append(opts, service.WithSource(catalog.NewHTTPSource(client, cfg.CatalogServiceURL, cfg.CatalogPageSize, logger)))
		logger.Info("catalog source configured", slog.String("source", "http"), slog.String("url", cfg.CatalogServiceURL))
	}

	// Redis: response cache.
	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis(), a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		responseCache := cache.NewRedis(client, cfg.CacheTTL)
		opts = append(opts, service.WithCache(responseCache))
		healthHandler.RegisterNonCritical("redis", responseCache.Ping)
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
	}

	// Kafka: quote publisher, catalog event consumer, dead letters.
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		opts = append(opts, service.WithQuotePublisher(quote.NewKafkaPublisher(a.producer, logger)))
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	a.searchService = service.NewSearchService(eng, logger, opts...)

	if cfg.KafkaEnabled {
		a.consumer = a.newEventConsumer()
	}

	a.router = func(ctx context.Context) http.Handler {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
		corsCfg.Environment = cfg.Environment
		return handler.NewRouter(ctx, a.searchService, healthHandler, handler.RouterConfig{
			CORS:              corsCfg,
			AutocompleteRPS:   cfg.AutocompleteRateRPS,
			AutocompleteBurst: cfg.AutocompleteRateBurst,
			PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
			RequestTimeout:    cfg.HTTPRequestTimeout,
		}, logger)
	}

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.HTTPRequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ok = true
	return a, nil
}

func (a *App) initEngine(healthHandler *health.Handler) (engine.SearchEngine, error) {
	cfg := a.cfg
	switch cfg.SearchEngine {
	case config.EngineElasticsearch:
		esEng, err := esengine.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, a.logger,
			esengine.WithFuzzyFloor(cfg.FuzzyFloor),
			esengine.WithSuggestFloor(cfg.SuggestFloor),
		)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		healthHandler.RegisterCritical("elasticsearch", esEng.Ping)
		a.logger.Info("elasticsearch search engine initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
		return esEng, nil
	default:
		a.logger.Info("in-memory search engine initialized")
		return memory.New(
			memory.WithFuzzyFloor(cfg.FuzzyFloor),
			memory.WithSuggestFloor(cfg.SuggestFloor),
		), nil
	}
}

func (a *App) initPostgres(ctx context.Context, healthHandler *health.Handler) ([]service.Option, error) {
	cfg := a.cfg
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, serviceName)
	database.SetSlowQueryLogging(cfg.DBSlowQueryThreshold, a.logger)

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	healthHandler.RegisterNonCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	opts := []service.Option{service.WithMissLog(postgres.NewSearchMissRepository(pool))}
	if cfg.CatalogSource == config.SourcePostgres {
		reader := postgres.NewMaterialRepository(pool)
		opts = append(opts, service.WithSource(catalog.NewPostgresSource(reader, cfg.CatalogPageSize)))
		a.logger.Info("catalog source configured", slog.String("source", "postgres"))
	}
	return opts, nil
}

func (a *App) newEventConsumer() *pkgkafka.Consumer {
	var store pkgkafka.IdempotencyStore
	if a.redis != nil {
		store = pkgkafka.NewRedisIdempotencyStore(a.redis, idempotencyKeyPrefix, idempotencyTTL)
	} else {
		store = pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)
	}

	events := event.NewConsumer(a.searchService, a.logger)
	c := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  a.cfg.KafkaBrokers,
		GroupID:  a.cfg.KafkaGroupID,
		Topics:   event.Topics,
		MinBytes: 1,
		MaxBytes: 10e6,
	}, pkgkafka.IdempotentHandler(store, events.Handle, a.logger), a.logger)

	a.logger.Info("catalog event consumer initialized",
		slog.String("group", a.cfg.KafkaGroupID),
		slog.Any("topics", event.Topics),
	)
	return c.WithDLQ(a.dlq)
}

// Run starts the HTTP server, the catalog event consumer, and an optional
// startup reindex, then blocks until ctx is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	a.httpServer.Handler = a.router(gctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.consumer != nil {
		g.Go(func() error {
			if err := a.consumer.Start(gctx); err != nil && gctx.Err() == nil {
				return fmt.Errorf("catalog event consumer: %w", err)
			}
			return nil
		})
	}

	if a.cfg.ReindexOnStart && a.cfg.CatalogSource != config.SourceNone {
		if err := a.searchService.StartReindex(gctx, nil); err != nil {
			a.logger.Warn("startup reindex not started", slog.String("error", err.Error()))
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.logger.Info("shutdown signal received")
		}
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	errs = append(errs, a.closeClients())

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeClients releases every client that was opened. The event consumer
// closes its own reader when Start returns.
func (a *App) closeClients() error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka producer: %w", err))
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dlq producer: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
