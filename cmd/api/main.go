package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/Tony6776/sda-property-admin-sub001/config"
	activityrepo "github.com/Tony6776/sda-property-admin-sub001/internal/repositories/activity"
	matchrepo "github.com/Tony6776/sda-property-admin-sub001/internal/repositories/match"
	participantrepo "github.com/Tony6776/sda-property-admin-sub001/internal/repositories/participant"
	propertyrepo "github.com/Tony6776/sda-property-admin-sub001/internal/repositories/property"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/database"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/kafka"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/matching"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/middleware"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/notifications"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/redis"
	healthroutes "github.com/Tony6776/sda-property-admin-sub001/pkg/routes/health"
	matchroutes "github.com/Tony6776/sda-property-admin-sub001/pkg/routes/match"
	participantroutes "github.com/Tony6776/sda-property-admin-sub001/pkg/routes/participant"
	propertyroutes "github.com/Tony6776/sda-property-admin-sub001/pkg/routes/property"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/tracing"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/tracing/exporters"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg)
	logger.Infof("Starting %s", cfg.AppName)

	shutdownTracing := setupTracing(cfg, logger)
	defer shutdownTracing()

	db := connectDatabase(cfg, logger)
	defer db.Close()

	runMigrations(cfg, logger, db)

	dbInstance := database.NewDatabaseInstance(db, logger)

	participants := participantrepo.NewRepository(dbInstance, logger)
	properties := propertyrepo.NewRepository(dbInstance, logger)
	matches := matchrepo.NewRepository(dbInstance, logger)
	activity := activityrepo.NewRepository(dbInstance, logger)

	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
	}

	var locker matching.Locker
	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, full match runs will be unguarded")
	} else {
		defer redisClient.Close()
		locker = &matching.RedisLocker{Locker: redis.NewLocker(redisClient, "sda-match:")}
	}

	notifier := notifications.NewService(logger, producer, activity)

	engine := matching.NewEngine(logger, participants, properties, matches, notifier, locker, matching.Config{
		MinMatchScore:  cfg.MinMatchScore,
		GoodScore:      cfg.GoodScore,
		ExcellentScore: cfg.ExcellentScore,
		BatchLockTTL:   cfg.BatchLockTTL,
	})

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		fatal(logger, err, "Failed to create DI container")
	}
	mustRegister(logger, ectoinject.RegisterInstance[ectologger.Logger](container, logger))
	mustRegister(logger, ectoinject.RegisterInstance[*participantrepo.Repository](container, participants))
	mustRegister(logger, ectoinject.RegisterInstance[*propertyrepo.Repository](container, properties))
	mustRegister(logger, ectoinject.RegisterInstance[*matchrepo.Repository](container, matches))
	mustRegister(logger, ectoinject.RegisterInstance[*activityrepo.Repository](container, activity))
	mustRegister(logger, ectoinject.RegisterInstance[*matching.Engine](container, engine))

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	if cfg.TracingEnabled {
		e.Use(otelecho.Middleware(cfg.AppName))
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	var redisPinger interface {
		Ping(ctx context.Context) error
	}
	if redisClient != nil {
		redisPinger = redisClient
	}
	checker := healthroutes.NewChecker(db, redisPinger, version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	matchroutes.Register(api.Group("/matches"))
	participantroutes.Register(api.Group("/participants"))
	propertyroutes.Register(api.Group("/properties"))

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	checker.SetReady(true)

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			fatal(logger, err, "Server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	checker.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Failed to shut down server cleanly")
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
		log.Fatalf("failed to create logger: %v", err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

// setupTracing wires the OTLP exporter when tracing is enabled. The returned
// function flushes spans on shutdown.
func setupTracing(cfg config.Config, logger ectologger.Logger) func() {
	if !cfg.TracingEnabled {
		return func() {}
	}

	ctx := context.Background()
	exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
		Endpoint: cfg.TracingEndpoint,
		Protocol: cfg.TracingProtocol,
		Insecure: true,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to create trace exporter, tracing disabled")
		return func() {}
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(sdkresource.NewSchemaless(
			attribute.String("service.name", cfg.AppName),
		)),
	)
	otel.SetTracerProvider(provider)
	tracing.SetTracer(provider.Tracer(cfg.AppName))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Failed to shut down trace provider")
		}
	}
}

// connectDatabase opens the postgres connection, retrying on startup
func connectDatabase(cfg config.Config, logger ectologger.Logger) *sqlx.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
		cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	var db *sqlx.DB
	var err error
	for attempt := 1; attempt <= cfg.StartupMaxAttempts; attempt++ {
		db, err = sqlx.Connect(cfg.DatabaseDriver, dsn)
		if err == nil {
			break
		}
		logger.WithError(err).Warnf("Database connection attempt %d/%d failed", attempt, cfg.StartupMaxAttempts)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if err != nil {
		fatal(logger, err, "Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	logger.Infof("Connected to database %s", cfg.DatabaseName)
	return db
}

func runMigrations(cfg config.Config, logger ectologger.Logger, db *sqlx.DB) {
	driver, err := pgmigrate.WithInstance(db.DB, &pgmigrate.Config{})
	if err != nil {
		fatal(logger, err, "Failed to create migration driver")
	}

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		fatal(logger, err, "Failed to apply database migrations")
	}
}

func mustRegister(logger ectologger.Logger, err error) {
	if err != nil {
		fatal(logger, err, "Failed to register dependency")
	}
}

func fatal(logger ectologger.Logger, err error, msg string) {
	logger.WithError(err).Error(msg)
	os.Exit(1)
}
