package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/genizalab/corpus/config"
	"github.com/genizalab/corpus/internal/handlers"
	"github.com/genizalab/corpus/internal/repositories/citation"
	"github.com/genizalab/corpus/internal/repositories/document"
	"github.com/genizalab/corpus/internal/repositories/fragment"
	"github.com/genizalab/corpus/internal/repositories/logentry"
	"github.com/genizalab/corpus/internal/repositories/source"
	"github.com/genizalab/corpus/pkg/database"
	"github.com/genizalab/corpus/pkg/index"
	"github.com/genizalab/corpus/pkg/kafka"
	"github.com/genizalab/corpus/pkg/merging"
	"github.com/genizalab/corpus/pkg/middleware"
	"github.com/genizalab/corpus/pkg/models"
	"github.com/genizalab/corpus/pkg/redis"
	"github.com/genizalab/corpus/pkg/startup"
	"github.com/genizalab/corpus/pkg/tracing"
	"github.com/genizalab/corpus/pkg/tracing/exporters"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	log := logger.WithField("app", cfg.AppName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := initTracing(ctx, cfg, log)
	defer shutdownTracing()

	// database
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode)
	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer sqlxDB.Close()
	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
	db := database.NewDatabaseInstance(sqlxDB, logger)

	if err := migrateDatabase(cfg, logger, sqlxDB); err != nil {
		log.WithError(err).Error("Failed to run migrations")
		os.Exit(1)
	}

	// redis
	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		log.WithError(err).Error("Failed to connect to redis")
		os.Exit(1)
	}
	defer redisClient.Close()
	locker := redis.NewLocker(redisClient, "merge")

	// kafka
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaIndexTopic,
	}, logger)
	defer producer.Close()

	// repositories
	documentRepo := document.NewRepository(db, logger)
	fragmentRepo := fragment.NewRepository(db, logger)
	citationRepo := citation.NewRepository(db, logger)
	logRepo := logentry.NewRepository(db, logger)
	sourceRepo := source.NewRepository(db, logger)

	// index
	writer := index.NewKafkaWriter(producer, logger)
	graph := buildGraph(documentRepo, fragmentRepo, citationRepo)
	notifier := index.NewNotifier(graph, documentRepo, writer, logger)
	reindexConsumer := index.NewReindexConsumer(kafka.ConsumerConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaReindexTopic,
		ConsumerGroup: cfg.KafkaReindexConsumerGroup,
	}, notifier, documentRepo, logger)
	entityConsumer := index.NewEntityChangeConsumer(kafka.ConsumerConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaEntityChangeTopic,
		ConsumerGroup: cfg.KafkaEntityConsumerGroup,
	}, notifier, logger)

	// merge engine
	engine := merging.NewEngine(db, documentRepo, fragmentRepo, citationRepo, logRepo, notifier, locker, merging.Config{
		ScriptActor: cfg.ScriptActor,
		LockTTL:     cfg.MergeLockTTL,
		LockTimeout: cfg.MergeLockTimeout,
	}, logger)

	// http server
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	healthHandler := handlers.NewHealthHandler(db, redisClient, cfg.Version)
	healthHandler.Register(e)

	api := e.Group("/api")
	handlers.NewMergeHandler(engine).Register(api)
	handlers.NewDocumentHandler(documentRepo, logRepo, notifier).Register(api)
	handlers.NewFragmentHandler(fragmentRepo, notifier).Register(api)
	handlers.NewSourceHandler(sourceRepo).Register(api)

	// startup orchestration
	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&dependency{
		name: "http-server",
		start: func(ctx context.Context) error {
			go func() {
				if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
					log.WithError(err).Error("HTTP server stopped")
					stop()
				}
			}()
			return nil
		},
		stop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
	if cfg.KafkaConsumerEnabled {
		boot.AddDependency(&dependency{
			name:      "reindex-consumer",
			dependsOn: []string{"http-server"},
			start:     reindexConsumer.Start,
			stop: func(ctx context.Context) error {
				return reindexConsumer.Stop()
			},
		})
		boot.AddDependency(&dependency{
			name:      "entity-change-consumer",
			dependsOn: []string{"http-server"},
			start:     entityConsumer.Start,
			stop: func(ctx context.Context) error {
				return entityConsumer.Stop()
			},
		})
	}

	if err := boot.Start(ctx); err != nil {
		log.WithError(err).Error("Startup failed")
		os.Exit(1)
	}
	healthHandler.SetReady(true)
	log.WithField("port", cfg.Port).Info("Service started")

	<-ctx.Done()
	healthHandler.SetReady(false)
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := boot.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Shutdown failed")
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func initTracing(ctx context.Context, cfg config.Config, log ectologger.Logger) func() {
	var exporter sdktrace.SpanExporter = &exporters.NoopExporter{}
	if cfg.TracingEnabled {
		otlp, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.TracingEndpoint,
			Protocol: cfg.TracingExporterType,
			Insecure: cfg.TracingInsecure,
		})
		if err != nil {
			log.WithError(err).Error("Failed to create OTLP exporter, tracing disabled")
		} else {
			exporter = otlp
		}
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}
}

func migrateDatabase(cfg config.Config, logger ectologger.Logger, db *sqlx.DB) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return err
	}

	ms := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	return ms.Migrate(cfg.DatabaseName, driver)
}

// buildGraph wires the dependency graph: each registered kind knows which
// events touch the index and how to find the affected documents.
func buildGraph(documents *document.Repository, fragments *fragment.Repository, citations *citation.Repository) *index.Graph {
	graph := index.NewGraph()

	graph.Register(index.KindDocument, index.Dependency{
		Events: []string{models.ActionCreate, models.ActionUpdate, models.ActionDelete, models.ActionMerge},
		Resolve: func(ctx context.Context, change index.Change) ([]int64, error) {
			return []int64{change.EntityID}, nil
		},
	})
	graph.Register(index.KindTag, index.Dependency{
		Events: []string{models.ActionUpdate, models.ActionDelete},
		Resolve: func(ctx context.Context, change index.Change) ([]int64, error) {
			return documents.ListIDsByTag(ctx, change.EntityID)
		},
	})
	graph.Register(index.KindFragment, index.Dependency{
		Events: []string{models.ActionUpdate},
		Resolve: func(ctx context.Context, change index.Change) ([]int64, error) {
			return fragments.ListDocumentIDs(ctx, change.EntityID)
		},
	})
	graph.Register(index.KindPlacement, index.Dependency{
		Events: []string{models.ActionCreate, models.ActionUpdate, models.ActionDelete},
		Resolve: func(ctx context.Context, change index.Change) ([]int64, error) {
			id, err := fragments.GetPlacementDocumentID(ctx, change.EntityID)
			if err != nil {
				return nil, err
			}
			return []int64{id}, nil
		},
	})
	graph.Register(index.KindCitation, index.Dependency{
		Events: []string{models.ActionCreate, models.ActionUpdate, models.ActionDelete},
		Resolve: func(ctx context.Context, change index.Change) ([]int64, error) {
			id, err := citations.GetDocumentID(ctx, change.EntityID)
			if err != nil {
				return nil, err
			}
			return []int64{id}, nil
		},
	})
	graph.Register(index.KindSource, index.Dependency{
		Events: []string{models.ActionUpdate},
		Resolve: func(ctx context.Context, change index.Change) ([]int64, error) {
			return citations.ListDocumentIDsBySource(ctx, change.EntityID)
		},
	})
	graph.Register(index.KindLogEntry, index.Dependency{
		Events: []string{models.ActionCreate},
		Resolve: func(ctx context.Context, change index.Change) ([]int64, error) {
			return change.DocumentIDs, nil
		},
	})

	return graph
}

// dependency adapts start/stop funcs to the startup orchestrator.
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string     { return d.name }
func (d *dependency) DependsOn() []string { return d.dependsOn }

func (d *dependency) Start(ctx context.Context) error {
	if d.start == nil {
		return nil
	}
	return d.start(ctx)
}

func (d *dependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}
