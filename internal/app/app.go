// Package app wires configuration, storage and services together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/conorfennell/knolbox/internal/config"
	"github.com/conorfennell/knolbox/internal/domain"
	"github.com/conorfennell/knolbox/internal/stats"
	"github.com/conorfennell/knolbox/internal/storage"
	"github.com/conorfennell/knolbox/internal/study"
	"github.com/conorfennell/knolbox/internal/sync"
	"github.com/conorfennell/knolbox/internal/web"
)

// App holds the constructed components.
type App struct {
	Config *config.Config
	DB     *storage.DB
	Stats  *stats.Aggregator
	Study  *study.Service
	Sync   *sync.Synchronizer
	Runner *sync.Runner
	log    *slog.Logger
}

// New opens the store and builds every service on top of it.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	db, err := storage.Open(cfg.Store.Path, storage.Options{
		BusyTimeout:  cfg.Store.BusyTimeout,
		MaxOpenConns: cfg.Store.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	agg := stats.New(log, db, cfg.Stats.Location())
	syncer := sync.New(log, db, agg, cfg.Store.OpTimeout)

	return &App{
		Config: cfg,
		DB:     db,
		Stats:  agg,
		Study: study.NewService(log, db, agg, study.Config{
			DailyGoal:    cfg.Study.DailyGoal,
			MaxDailyGoal: cfg.Study.MaxDailyGoal,
			OpTimeout:    cfg.Store.OpTimeout,
		}, nil),
		Sync: syncer,
		Runner: sync.NewRunner(log, syncer, db, sync.RunnerConfig{
			Source:      cfg.Sync.Catalog,
			ReposDir:    cfg.Sync.ReposDir,
			Parallelism: cfg.Sync.Parallelism,
		}),
		log: log,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.DB.Close()
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      web.NewServer(a.log, a.Study, a.Sync, a.Stats),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	a.log.Info("http server stopped")
	return nil
}

// SyncCatalog runs the configured catalog against owners, or every known
// owner when owners is empty.
func (a *App) SyncCatalog(ctx context.Context, owners []string) (map[string]domain.SyncReport, error) {
	if a.Config.Sync.Catalog == "" {
		return nil, errors.New("sync.catalog is not configured")
	}
	return a.Runner.Run(ctx, owners, time.Now())
}
