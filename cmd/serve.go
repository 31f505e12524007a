package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pub-health/config"
	"pub-health/data"
	"pub-health/handlers"
	"pub-health/source"
	"pub-health/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var initialRefresh bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dependency health report over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&initialRefresh, "refresh", os.Getenv("WITH_INITIAL_DATA_REFRESH") == "true", "Generate a report on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open DB: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	store := &storage.Storage{DB: db}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	src := newSource(cfg.ProjectDir)

	dm := &data.DataManager{
		Store:         store,
		Source:        src,
		API:           newClient(cfg),
		Log:           logger,
		MaxConcurrent: cfg.Registry.MaxConcurrent,
	}

	handler := &handlers.Handler{
		Store:       store,
		DataManager: dm,
		Log:         logger,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Logger)
	handler.Routes(r)

	if initialRefresh {
		if _, err := dm.GenerateReport(context.Background()); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
	}

	if cfg.DailyRefresh {
		c := cron.New()
		_, err := c.AddFunc(config.DailyRefreshSchedule, func() {
			logger.Info("Scheduled refresh triggered")
			if _, err := dm.GenerateReport(context.Background()); err != nil {
				logger.Errorf("scheduled refresh failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule cron: %w", err)
		}
		c.Start()
		defer c.Stop()
	}

	if cfg.Watch.Enabled {
		watcher := &source.Watcher{
			Source:   src,
			Schedule: cfg.Watch.Schedule,
			OnChange: dm.ManifestChanged,
			Log:      logger,
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to start manifest watcher: %w", err)
		}
		defer watcher.Stop()
		logger.Infof("watching %s (%s)", src.Path(), cfg.Watch.Schedule)
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting on port %s...", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
