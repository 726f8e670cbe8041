package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/Skufu/symptomdx/internal/config"
	"github.com/Skufu/symptomdx/internal/dataset"
	"github.com/Skufu/symptomdx/internal/logging"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type serveFlags struct {
	host     string
	port     string
	source   string
	dataset  string
	encoding string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:          "symptomdx",
		Short:        "Serve disease predictions for reported symptoms",
		Long:         "Trains a random forest on a disease/symptom dataset at startup and serves POST /api/diagnose.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if err := applyFlags(cmd, cfg, flags); err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&flags.host, "host", "", "bind host (overrides HOST)")
	cmd.Flags().StringVarP(&flags.port, "port", "p", "", "bind port (overrides PORT)")
	cmd.Flags().StringVar(&flags.source, "source", "", "dataset source: csv or postgres (overrides DATASET_SOURCE)")
	cmd.Flags().StringVarP(&flags.dataset, "dataset", "d", "", "CSV path or URL (overrides DATASET_PATH)")
	cmd.Flags().StringVar(&flags.encoding, "encoding", "", "dataset text encoding (overrides DATASET_ENCODING)")
	return cmd
}

// applyFlags layers explicitly set flags over the environment configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f serveFlags) error {
	set := cmd.Flags().Changed
	if set("host") {
		cfg.Host = f.host
	}
	if set("port") {
		cfg.Port = f.port
	}
	if set("source") {
		cfg.Dataset.Source = f.source
	}
	if set("dataset") {
		cfg.Dataset.Path = f.dataset
	}
	if set("encoding") {
		cfg.Dataset.Encoding = f.encoding
	}
	return cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config) error {
	logging.Init(logging.ParseLevel(cfg.LogLevel))
	gin.SetMode(cfg.GinMode)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		health HealthChecker
		db     dataset.Querier
	)
	if cfg.UsesDB() {
		pool, err := connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			health = unavailableDB{err: err}
		} else {
			defer pool.Close()
			health, db = pool, pool
		}
	}

	svc := setup(ctx, cfg, db)
	router := setupRouter(svc, health, cfg.CORSOrigins)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	slog.Info("server listening", "addr", cfg.Addr(), "model_loaded", svc.Ready())

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	return shutdown(server)
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	b := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			slog.Warn("database ping failed", "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

// unavailableDB reports a database that could not be reached at startup.
type unavailableDB struct {
	err error
}

func (u unavailableDB) Ping(context.Context) error { return u.err }

func shutdown(server *http.Server) error {
	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
