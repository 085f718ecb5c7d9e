// cmd/los-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"loan-origination/internal/api"
	"loan-origination/internal/audit"
	"loan-origination/internal/collaborators"
	awsclients "loan-origination/internal/common/aws"
	"loan-origination/internal/common/config"
	"loan-origination/internal/common/database"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/common/observability"
	"loan-origination/internal/notify"
	"loan-origination/internal/orchestrator"
	"loan-origination/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting loan origination server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Application store ---
	var st store.Store
	switch cfg.Store.Driver {
	case "postgres":
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		pgStore := store.NewPostgresStore(pg.DB)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		st = pgStore
		zapLog.Info("PostgreSQL store ready")
	default:
		st = store.NewMemoryStore()
		zapLog.Warn("Using in-memory application store; records are lost on restart")
	}

	if cfg.Store.CacheEnabled {
		redis := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		st = store.NewCachedStore(st, redis.Client, time.Duration(cfg.Store.CacheTTL)*time.Second, log)
		zapLog.Info("Redis snapshot cache enabled")
	}

	// --- Collaborators ---
	var collab orchestrator.Collaborators
	switch cfg.Collaborators.Mode {
	case "http":
		client := collaborators.NewHTTPClient(
			cfg.Collaborators.BaseURL,
			cfg.Collaborators.APIKey,
			config.GetDuration(cfg.Collaborators.Timeout),
			log,
		)
		collab = orchestrator.Collaborators{Bureau: client, Verifier: client, Rail: client}
		zapLog.Info("Using remote collaborators", zap.String("baseURL", cfg.Collaborators.BaseURL))
	default:
		sim := collaborators.NewSimulator(collaborators.WithLatency(config.GetDuration(cfg.Collaborators.Latency)))
		collab = orchestrator.Collaborators{Bureau: sim, Verifier: sim, Rail: sim}
		zapLog.Info("Using simulated collaborators")
	}

	opts := []orchestrator.Option{orchestrator.WithObservability(obs)}

	// --- Audit trail ---
	if cfg.Audit.Elasticsearch {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		opts = append(opts, orchestrator.WithAudit(audit.MultiSink{
			audit.NewLogSink(log),
			audit.NewElasticsearchSink(esClient.Client, cfg.Audit.Index),
		}))
		zapLog.Info("Elasticsearch audit sink enabled", zap.String("index", cfg.Audit.Index))
	}

	// --- Notifications ---
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := awsclients.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config load failed", zap.Error(err))
		}
		notifier := notify.NewAWSNotifier(&notify.Config{
			EmailEnabled: cfg.Notifications.Email.Enabled,
			SMSEnabled:   cfg.Notifications.SMS.Enabled,
			FromEmail:    cfg.Notifications.Email.FromEmail,
			SenderID:     cfg.Notifications.SMS.SenderID,
		}, awsclients.NewSESClient(awsCfg), awsclients.NewSNSClient(awsCfg), log)
		opts = append(opts, orchestrator.WithNotifier(notifier))
		zapLog.Info("AWS notifications enabled")
	}

	orch := orchestrator.New(&orchestrator.Config{
		Workflow:            cfg.Workflow,
		CollaboratorTimeout: config.GetDuration(cfg.Collaborators.Timeout),
	}, st, collab, log, opts...)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(orch, log, cfg.Server.MaxBodyBytes),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
