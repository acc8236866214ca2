package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"marketflow/internal/auth"
	"marketflow/internal/config"
	"marketflow/internal/core"
	"marketflow/internal/events"
	apphttp "marketflow/internal/http"
	"marketflow/internal/importer"
	"marketflow/internal/insight"
	applog "marketflow/internal/log"
	"marketflow/internal/metrics"
	"marketflow/internal/store"
)

func main() {
	// Local development convenience; missing .env is fine.
	godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	st, err := store.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	if err := seedAdmin(ctx, st, cfg); err != nil {
		logger.Error("failed to seed admin user", "error", err)
		os.Exit(1)
	}

	analyst, err := insight.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.InsightTimeout,
		applog.For(applog.ComponentInsight))
	if err != nil {
		logger.Error("failed to initialize insight analyst", "error", err)
		os.Exit(1)
	}

	var sheetsSource *importer.SheetsSource
	if cfg.SheetsImportEnabled() {
		sheetsSource, err = importer.NewSheetsSourceFromEnv(ctx)
		if err != nil {
			logger.Error("failed to initialize sheets import", "error", err)
			os.Exit(1)
		}
		logger.Info("sheets import enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	var publisher *events.Publisher
	if cfg.EventsEnabled() {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("failed to connect event publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		logger.Info("event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)
	srv := apphttp.NewServer(":"+cfg.Port, st, tokens, apphttp.Options{
		Analyst:   analyst,
		Sheets:    sheetsSource,
		Publisher: publisher,
		Metrics:   metrics.New(),
		Logger:    applog.For(applog.ComponentHTTP),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}

// seedAdmin creates the bootstrap administrator on an empty user table so a
// fresh deployment is reachable.
func seedAdmin(ctx context.Context, st *store.Store, cfg *config.Config) error {
	count, err := st.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.AdminPassword == "" {
		return errors.New("user table is empty and ADMIN_PASSWORD is not set")
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	_, err = st.AddUser(ctx, core.User{
		Name:         "Administrator",
		Login:        cfg.AdminLogin,
		PasswordHash: hash,
		Role:         core.RoleAdmin,
	})
	return err
}
