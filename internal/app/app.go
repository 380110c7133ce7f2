package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/wisbric/meshdrift/internal/audit"
	"github.com/wisbric/meshdrift/internal/config"
	"github.com/wisbric/meshdrift/internal/db"
	"github.com/wisbric/meshdrift/internal/httpserver"
	"github.com/wisbric/meshdrift/internal/platform"
	"github.com/wisbric/meshdrift/internal/telemetry"
	"github.com/wisbric/meshdrift/pkg/drift"
	"github.com/wisbric/meshdrift/pkg/graph"
	"github.com/wisbric/meshdrift/pkg/integration"
	"github.com/wisbric/meshdrift/pkg/ml"
	"github.com/wisbric/meshdrift/pkg/task"
)

// Run is the main application entry point. It reads config, connects to
// infrastructure, and starts the appropriate mode: api (ops surface only)
// or worker (scheduler + task pipeline).
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting meshdrift",
		"mode", cfg.Mode,
		"listen", cfg.ListenAddr(),
	)

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunGlobalMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	metricsReg := telemetry.NewMetricsRegistry(telemetry.All()...)

	applyBaseScoreOverrides(cfg)
	ruleConfig := ruleConfigFromEnv(cfg)

	switch cfg.Mode {
	case "api":
		return runOpsServer(ctx, cfg, logger, db, rdb, metricsReg)
	case "worker":
		return runWorker(ctx, cfg, logger, db, rdb, ruleConfig)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

// applyBaseScoreOverrides merges any operator-configured per-event-type base
// scores over drift.BaseScores' built-in defaults.
func applyBaseScoreOverrides(cfg *config.Config) {
	for eventType, score := range cfg.BaseScores {
		drift.BaseScores[drift.EventType(eventType)] = score
	}
}

// ruleConfigFromEnv builds the rule engine's tenant-configurable inputs from
// the operator's environment configuration, falling back to spec defaults
// for anything left unset.
func ruleConfigFromEnv(cfg *config.Config) drift.RuleConfig {
	rc := drift.DefaultRuleConfig()
	if len(cfg.SensitiveServices) > 0 {
		rc.SensitiveTargets = toSet(cfg.SensitiveServices)
	}
	if len(cfg.Gateways) > 0 {
		rc.Gateways = toSet(cfg.Gateways)
	}
	if len(cfg.DBOwners) > 0 {
		rc.OwnerOf = cfg.DBOwners
	}
	return rc
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// runOpsServer starts the HTTP ops surface (healthz/readyz/metrics). The
// drift detection domain has no HTTP API of its own; external collaborators
// integrate through pkg/integration's adapters, run from worker mode.
func runOpsServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry) error {
	srv := httpserver.NewServer(logger, db, rdb, metricsReg, telemetry.HTTPRequestDuration)

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ops server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down ops server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// runWorker wires the domain stores, the queue, the scheduler, and the task
// pipeline, then runs the scheduler's cron loops and the pipeline's queue
// subscriptions concurrently until ctx is cancelled.
func runWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client, ruleConfig drift.RuleConfig) error {
	snapshots := graph.NewStore(pool)
	profiles := ml.NewProfileStore(pool)
	whitelist := ml.NewWhitelistStore(pool)
	feedback := ml.NewFeedbackStore(pool, cfg.AutoWhitelist)

	queue := task.NewRedisQueue(rdb, "meshdrift-workers", logger)

	notifiers := []integration.Notifier{
		integration.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackAlertChannel, logger),
	}
	publisher := integration.NewRedisPublisher(rdb)

	auditWriter := audit.NewWriter(pool, logger)
	auditWriter.Start(ctx)
	defer auditWriter.Close()

	pipeline := task.NewPipeline(queue, task.PipelineDeps{
		Ingestor:  integration.NoopIngestor{},
		Snapshots: snapshots,
		Profiles:  profiles,
		Whitelist: whitelist,
		Feedback:  feedback,
		Notifiers: notifiers,
		Publisher: publisher,
		Audit:     auditWriter,
	}, ruleConfig, logger)

	scheduler := task.NewScheduler(queue, db.New(pool), logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scheduler.Run(ctx) })
	g.Go(func() error { return pipeline.Subscribe(ctx) })
	return g.Wait()
}
