package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/rage-tracker/internal/api"
	"github.com/jonesrussell/rage-tracker/internal/config"
	"github.com/jonesrussell/rage-tracker/internal/domain"
	"github.com/jonesrussell/rage-tracker/internal/events"
	"github.com/jonesrussell/rage-tracker/internal/handler"
	"github.com/jonesrussell/rage-tracker/internal/live"
	"github.com/jonesrussell/rage-tracker/internal/logger"
	"github.com/jonesrussell/rage-tracker/internal/rage"
	"github.com/jonesrussell/rage-tracker/internal/session"
	"github.com/jonesrussell/rage-tracker/internal/storage"
	"github.com/jonesrussell/rage-tracker/internal/telemetry"

	_ "github.com/lib/pq"
)

// Connection timeouts for the backing stores.
const (
	dbPingTimeout    = 5 * time.Second
	redisPingTimeout = 3 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	// Start profiling server (if enabled)
	startPprofServer()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// Initialize logger
	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	// Connect to database
	db, err := connectDatabase(cfg, log)
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err))
		return 1
	}
	defer func() { _ = db.Close() }()

	// Run server
	return runServer(cfg, log, db)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	configPath := config.GetConfigPath("config.yml")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", "rage-tracker")), nil
}

// connectDatabase opens and verifies a database connection.
func connectDatabase(cfg *config.Config, log logger.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	log.Info("Database connected",
		logger.String("host", cfg.Database.Host),
		logger.Int("port", cfg.Database.Port),
		logger.String("database", cfg.Database.Database),
	)

	return db, nil
}

// connectRedis opens the Redis connection for stream publishing. Redis is
// optional: when disabled or unreachable the service runs without the
// detection stream.
func connectRedis(cfg *config.Config, log logger.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, detection stream disabled",
			logger.String("address", cfg.Redis.Address),
			logger.Error(err),
		)
		_ = client.Close()
		return nil
	}

	log.Info("Redis connected",
		logger.String("address", cfg.Redis.Address),
		logger.String("stream", cfg.Redis.Stream),
	)

	return client
}

// runServer creates all dependencies and starts the HTTP server.
func runServer(cfg *config.Config, log logger.Logger, db *sql.DB) int {
	// Create detection buffer and batch writer
	buf := storage.NewBuffer(cfg.Service.BufferSize)
	store := storage.NewStore(db, buf, log, cfg.Service.FlushInterval, cfg.Service.FlushThreshold)
	store.Start()
	defer store.Stop()

	// Optional Redis stream publisher
	redisClient := connectRedis(cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	publisher := events.NewPublisher(redisClient, cfg.Redis.Stream, log)

	// done signals background goroutines (rate limiter, hub) on shutdown
	done := make(chan struct{})
	defer close(done)

	// Live dashboard fan-out
	hub := live.NewHub(log)
	go hub.Run(done)

	metrics := telemetry.New()

	// Session registry feeding detections to storage, Redis, and the hub
	registry := session.New(session.Options{
		Detector: rage.Config{
			Threshold:  cfg.Detector.Threshold,
			TimeWindow: cfg.Detector.TimeWindow,
			RadiusPx:   cfg.Detector.RadiusPx,
			MaxItems:   cfg.Detector.MaxItems,
		},
		TTL:           cfg.Sessions.TTL,
		SweepInterval: cfg.Sessions.SweepInterval,
		MaxSessions:   cfg.Sessions.MaxSessions,
		OnDetection: func(d domain.Detection) {
			if !buf.Send(d) {
				log.Warn("Detection buffer full, dropping detection",
					logger.String("session_id", d.SessionID),
					logger.String("element", d.Element),
				)
			}
			publisher.PublishAsync(d)
			hub.Broadcast(d)
		},
	}, metrics, log)
	registry.Start()
	defer registry.Stop()

	// Create handlers
	eventsHandler := handler.NewEventsHandler(registry, metrics, log)
	rageClickHandler := handler.NewRageClickHandler(
		registry, store, hub, log,
		cfg.Service.QueryLimit, cfg.Service.QueryMaxLimit,
	)
	healthHandler := handler.NewHealthHandler(cfg.Service.Version, registry)

	// Create and run server
	server := api.NewServer(cfg, api.Handlers{
		Events:     eventsHandler,
		RageClicks: rageClickHandler,
		Health:     healthHandler,
		Metrics:    metrics.Handler(),
	}, log, done)

	log.Info("Rage-tracker starting",
		logger.Int("port", cfg.Service.Port),
	)

	if err := server.Run(); err != nil {
		log.Error("Server error", logger.Error(err))
		return 1
	}

	log.Info("Rage-tracker exited cleanly")
	return 0
}

// startPprofServer exposes pprof endpoints on a localhost port when
// ENABLE_PROFILING=true.
func startPprofServer() {
	if os.Getenv("ENABLE_PROFILING") != "true" {
		return
	}

	port := os.Getenv("PPROF_PORT")
	if port == "" {
		port = "6060"
	}

	// Bind to localhost only so profiles are never exposed externally.
	addr := "localhost:" + port

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
		}
	}()
}
