package sync

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	stdsync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conorfennell/knolbox/internal/domain"
	"github.com/conorfennell/knolbox/internal/gitsource"
	"github.com/conorfennell/knolbox/internal/parser"
)

// LoadCatalog reads every catalog file under source. A git URL is cloned or
// pulled into reposDir first. Files that fail to parse are logged and left
// out.
func LoadCatalog(ctx context.Context, log *slog.Logger, source, reposDir string) ([]domain.RawCatalogEntry, error) {
	dir := source
	if gitsource.IsRemote(source) {
		local, err := gitsource.LocalPath(reposDir, source)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return nil, fmt.Errorf("create repos directory: %w", err)
		}
		if err := gitsource.Sync(ctx, log, source, local); err != nil {
			return nil, err
		}
		dir = local
	}

	var entries []domain.RawCatalogEntry
	var files, failed int
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !isCatalogFile(d.Name()) {
			return nil
		}

		files++
		fileEntries, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			failed++
			log.WarnContext(ctx, "skipping unparsable catalog file", slog.String("path", path), slog.Any("error", parseErr))
			return nil
		}
		entries = append(entries, fileEntries...)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk catalog %s: %w", dir, walkErr)
	}

	log.InfoContext(ctx, "catalog loaded",
		slog.String("source", source),
		slog.Int("files", files),
		slog.Int("failed_files", failed),
		slog.Int("entries", len(entries)),
	)
	return entries, nil
}

func isCatalogFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".json":
		return true
	}
	return false
}

type ownerLister interface {
	ListOwners(ctx context.Context) ([]string, error)
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Source is a git URL or a local directory.
	Source   string
	ReposDir string
	// Parallelism bounds how many owners sync at once.
	Parallelism int
}

// Runner loads the catalog once and syncs it into many decks.
type Runner struct {
	sync   *Synchronizer
	owners ownerLister
	cfg    RunnerConfig
	log    *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(log *slog.Logger, s *Synchronizer, owners ownerLister, cfg RunnerConfig) *Runner {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	return &Runner{
		sync:   s,
		owners: owners,
		cfg:    cfg,
		log:    log.With("component", "sync_runner"),
	}
}

// Run syncs the catalog into each of owners, or into every known owner when
// owners is empty.
func (r *Runner) Run(ctx context.Context, owners []string, now time.Time) (map[string]domain.SyncReport, error) {
	entries, err := LoadCatalog(ctx, r.log, r.cfg.Source, r.cfg.ReposDir)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return r.RunEntries(ctx, owners, entries, now)
}

// RunEntries is Run with an already loaded catalog.
func (r *Runner) RunEntries(ctx context.Context, owners []string, entries []domain.RawCatalogEntry, now time.Time) (map[string]domain.SyncReport, error) {
	if len(owners) == 0 {
		var err error
		owners, err = r.owners.ListOwners(ctx)
		if err != nil {
			return nil, fmt.Errorf("list owners: %w", err)
		}
	}
	owners = slices.Compact(slices.Sorted(slices.Values(owners)))

	var mu stdsync.Mutex
	reports := make(map[string]domain.SyncReport, len(owners))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallelism)
	for _, owner := range owners {
		g.Go(func() error {
			report, err := r.sync.Sync(gctx, owner, entries, now)
			mu.Lock()
			reports[owner] = report
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("sync %s: %w", owner, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}

	r.log.InfoContext(ctx, "catalog synced", slog.Int("owners", len(owners)), slog.Int("entries", len(entries)))
	return reports, nil
}
