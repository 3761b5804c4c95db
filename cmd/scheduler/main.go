package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/promocard-agent/internal/blobstore"
	"github.com/promocard-agent/internal/config"
	"github.com/promocard-agent/internal/describe"
	"github.com/promocard-agent/internal/generator"
	"github.com/promocard-agent/internal/media"
	"github.com/promocard-agent/internal/render"
	"github.com/promocard-agent/internal/schedule"
	"github.com/promocard-agent/internal/source"
	"github.com/promocard-agent/internal/source/affiliate"
	"github.com/promocard-agent/internal/source/feed"
	"github.com/promocard-agent/internal/storage"
	redisrepo "github.com/promocard-agent/internal/storage/redis"
	"github.com/promocard-agent/internal/storage/sqlite"
	"github.com/promocard-agent/pkg/logger"
	"github.com/promocard-agent/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	repo    storage.Repository
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "promocard-scheduler",
		Short: "Background scheduler for the promocard agent",
		Long: `Runs due generation schedules in the background.
This daemon should be run as a service for autonomous operation.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting Promocard Scheduler")

	// Initialize storage based on configuration
	switch cfg.Database.Driver {
	case "redis":
		log.Info().Msg("Using Redis as primary storage")
		repo, err = redisrepo.New(redisrepo.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
	default:
		log.Info().Msg("Using SQLite as primary storage")
		repo, err = sqlite.New(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
	}
	defer repo.Close()

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Start health check server for the hosting platform
	go startHealthServer()

	// Initialize rate limiter
	limiter := ratelimit.NewDefaultLimiter()

	// Initialize rendering pipeline
	fonts, err := render.NewFontSetFromFile(cfg.Render.FontFile)
	if err != nil {
		return fmt.Errorf("failed to load fonts: %w", err)
	}
	loader := media.NewLoader(limiter, log)
	renderer := render.NewRenderer(fonts, loader, cfg.Render.Watermark, log)

	blobs, err := blobstore.NewLocal(cfg.Artifacts.Dir, cfg.Artifacts.BaseURL, log)
	if err != nil {
		return fmt.Errorf("failed to open artifact store: %w", err)
	}

	describer := describe.NewProvider(cfg.Anthropic, log)
	orchestrator := generator.NewOrchestrator(describer, renderer, blobs, repo, log)

	// Initialize source manager
	sourceManager := source.NewManager()
	if cfg.Sources.Affiliate.Enabled {
		sourceManager.Register(affiliate.New(cfg.Sources.Affiliate, limiter, log))
	}
	if cfg.Sources.Feeds.Enabled {
		for _, src := range feed.NewMultiple(cfg.Sources.Feeds, limiter, log) {
			sourceManager.Register(src)
		}
	}

	engine := schedule.NewEngine(repo, sourceManager, orchestrator, log)

	// Create cron scheduler
	c := cron.New(cron.WithLogger(cronLogger{log}))

	// Tick job: run everything that is due
	_, err = c.AddFunc(cfg.Scheduler.TickCron, func() {
		ctx := context.Background()
		now := time.Now()

		if err := engine.RunDue(ctx, now); err != nil {
			log.Error().Err(err).Msg("Scheduled run failed")
			return
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule tick job: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.TickCron).Msg("Tick job scheduled")

	// Start scheduler
	c.Start()
	log.Info().Msg("Scheduler started")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down scheduler")
	c.Stop()

	return nil
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Msgf(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Msgf(msg, keysAndValues...)
}

// startHealthServer starts a simple HTTP server for health checks
func startHealthServer() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "10000"
	}

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Promocard Scheduler"))
	})

	log.Info().Str("port", port).Msg("Health check server starting")
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Error().Err(err).Msg("Health server failed")
	}
}
