// Architectd is the Life Architect daemon: the HTTP API over daily tasks,
// habits, timeline events and the AI planning flows.
//
// Configuration is read from ~/.config/lifearchitect/config.yaml (or the
// file given with -config) and ARCHITECT_ environment variables. See
// internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	architectd
//
//	# Configure via environment
//	ARCHITECT_SERVER_HTTP_PORT=9090 ARCHITECT_AI_PROVIDER=ollama architectd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/lifearchitect/internal/config"
	"github.com/fyrsmithlabs/lifearchitect/internal/flows"
	"github.com/fyrsmithlabs/lifearchitect/internal/goals"
	"github.com/fyrsmithlabs/lifearchitect/internal/habits"
	httpserver "github.com/fyrsmithlabs/lifearchitect/internal/http"
	"github.com/fyrsmithlabs/lifearchitect/internal/journal"
	"github.com/fyrsmithlabs/lifearchitect/internal/kv"
	"github.com/fyrsmithlabs/lifearchitect/internal/logging"
	"github.com/fyrsmithlabs/lifearchitect/internal/metrics"
	"github.com/fyrsmithlabs/lifearchitect/internal/planner"
	"github.com/fyrsmithlabs/lifearchitect/internal/scrub"
	"github.com/fyrsmithlabs/lifearchitect/internal/tasks"
	"github.com/fyrsmithlabs/lifearchitect/internal/telemetry"
	"github.com/fyrsmithlabs/lifearchitect/internal/timeline"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  architectd           Start the daemon\n")
			fmt.Fprintf(os.Stderr, "  architectd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	cfg, err := config.LoadWithFile(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("architectd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires every component and serves until ctx is cancelled:
//  1. Logger and telemetry
//  2. Key/value store
//  3. Domain services
//  4. Secret scrubber and AI flows
//  5. HTTP server, with graceful shutdown on cancellation
func run(ctx context.Context, cfg *config.Config) error {
	loc, err := cfg.Calendar.Location()
	if err != nil {
		return fmt.Errorf("invalid calendar timezone: %w", err)
	}

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}

	// Telemetry needs a logger before the OTEL bridge exists, so it gets a
	// stdout-only one.
	bootCfg := *logCfg
	bootCfg.Output.OTEL = false
	boot, err := logging.NewLogger(&bootCfg, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Observability, version), boot.Underlying())
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	logger := boot
	if logCfg.Output.OTEL {
		if logger, err = logging.NewLogger(logCfg, tel.LoggerProvider()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()
	zl := logger.Underlying()

	logger.Info(ctx, "Starting architectd",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("timezone", loc.String()),
		zap.Bool("telemetry", cfg.Observability.EnableTelemetry),
		zap.Bool("telemetry_degraded", tel.Health().Degraded))

	m := metrics.New()

	raw, err := kv.Open(ctx, kv.Config{
		Backend: cfg.Storage.Backend,
		Dir:     cfg.Storage.Dir,
		NATS: kv.NATSConfig{
			URL:      cfg.Storage.NATSURL,
			Bucket:   cfg.Storage.NATSBucket,
			StoreDir: cfg.Storage.NATSStoreDir,
		},
	}, zl)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := raw.Close(); err != nil {
			logger.Warn(ctx, "closing storage", zap.Error(err))
		}
	}()
	store := kv.WithMetrics(raw, m)

	svc, err := initServices(ctx, cfg, store, zl, m)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	srv, err := httpserver.NewServer(svc, zl, &httpserver.Config{
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		Location: loc,
		Samples:  cfg.Samples.Enabled,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info(ctx, "Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s/health", cfg.Server.Addr())),
		zap.String("api_prefix", "/api/v1"),
		zap.String("metrics_endpoint", "/metrics"))

	return srv.Start(ctx, cfg.Server.ShutdownTimeout)
}

// initServices creates the domain services and the planner on top of store.
func initServices(ctx context.Context, cfg *config.Config, store kv.Store, logger *zap.Logger, m *metrics.Metrics) (httpserver.Services, error) {
	var svc httpserver.Services
	var err error

	if svc.Tasks, err = tasks.NewService(store, logger, tasks.WithMetrics(m)); err != nil {
		return svc, err
	}
	if svc.Habits, err = habits.NewService(store, logger); err != nil {
		return svc, err
	}
	if svc.Timeline, err = timeline.NewService(store, logger); err != nil {
		return svc, err
	}
	if svc.Journal, err = journal.NewService(store, logger); err != nil {
		return svc, err
	}
	if svc.Goals, err = goals.NewStore(store, logger); err != nil {
		return svc, err
	}

	scrubber, err := initScrubber(ctx, cfg.Scrub, logger, m)
	if err != nil {
		return svc, err
	}

	gen, err := flows.NewGenerator(flows.Config{
		Provider:          cfg.AI.Provider,
		Model:             cfg.AI.Model,
		BaseURL:           cfg.AI.BaseURL,
		APIKey:            cfg.AI.APIKey.Value(),
		Timeout:           cfg.AI.Timeout.Duration(),
		Temperature:       cfg.AI.Temperature,
		MaxTokens:         cfg.AI.MaxTokens,
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
		Burst:             cfg.AI.Burst,
		MaxRetries:        cfg.AI.MaxRetries,
	}, logger)
	if err != nil {
		return svc, fmt.Errorf("failed to create model client: %w", err)
	}
	runner, err := flows.New(gen, logger, m)
	if err != nil {
		return svc, err
	}

	svc.Planner, err = planner.NewService(planner.Deps{
		Flows:    runner,
		Tasks:    svc.Tasks,
		Timeline: svc.Timeline,
		Goals:    svc.Goals,
		Scrubber: scrubber,
		Logger:   logger,
		Metrics:  m,
	})
	return svc, err
}

// initScrubber returns the gitleaks scrubber, reloading the allowlist on
// change, or a no-op scrubber when scrubbing is disabled.
func initScrubber(ctx context.Context, cfg config.ScrubConfig, logger *zap.Logger, m *metrics.Metrics) (scrub.Scrubber, error) {
	if !cfg.Enabled {
		logger.Warn("secret scrubbing disabled; text is sent to the model unmodified")
		return scrub.Nop{}, nil
	}

	var allow *scrub.Allowlist
	if cfg.AllowlistPath != "" {
		a, err := scrub.LoadAllowlist(cfg.AllowlistPath)
		if err != nil {
			return nil, err
		}
		allow = a
	}
	g, err := scrub.NewGitleaks(allow, logger, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create scrubber: %w", err)
	}
	if cfg.AllowlistPath != "" {
		if err := scrub.WatchAllowlist(ctx, cfg.AllowlistPath, g, logger); err != nil {
			logger.Warn("allowlist changes will not be picked up", zap.Error(err))
		}
	}
	return g, nil
}
