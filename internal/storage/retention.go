package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/internal/history"
	"github.com/clipkeep/clipkeep/internal/types"
)

// RetentionManager bounds total stored items and reclaims disk space. One
// sweep applies the age policy first, then re-applies the count cap, then
// reconciles orphaned files in the backing directory against the set of
// paths referenced by live items.
type RetentionManager struct {
	policy config.RetentionConfig
	list   *history.List
	store  *TieredStore
	repo   Repository
	logger *zap.Logger
}

func NewRetentionManager(policy config.RetentionConfig, list *history.List, store *TieredStore, repo Repository, logger *zap.Logger) *RetentionManager {
	return &RetentionManager{
		policy: policy,
		list:   list,
		store:  store,
		repo:   repo,
		logger: logger,
	}
}

// Sweep runs one retention pass. All failures are aggregated and logged by
// the caller; a sweep never aborts half way because one file was stubborn.
func (r *RetentionManager) Sweep() error {
	var errs error

	if r.policy.MaxAge > 0 {
		cutoff := time.Now().Add(-r.policy.MaxAge)
		aged := r.list.RemoveOlderThan(cutoff)
		if len(aged) > 0 {
			r.logger.Info("age policy evicted items",
				zap.Int("count", len(aged)),
				zap.Duration("max_age", r.policy.MaxAge))
			r.dispose(aged)
		}
	}

	over := r.list.TrimToMax()
	if len(over) > 0 {
		r.logger.Info("count cap evicted items",
			zap.Int("count", len(over)),
			zap.Int("max_items", r.policy.MaxItems))
		r.dispose(over)
	}

	if err := r.reconcileOrphans(); err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}

// dispose removes backing files and repository records for evicted items.
// Record deletion failures are logged only; the list stays authoritative.
func (r *RetentionManager) dispose(items []*types.ClipboardItem) {
	r.store.DisposeAll(items)
	if r.repo == nil {
		return
	}
	for _, it := range items {
		if err := r.repo.Delete(it.ID); err != nil {
			r.logger.Warn("failed to delete evicted item record",
				zap.String("id", it.ID),
				zap.Error(err))
		}
	}
}

// reconcileOrphans deletes every file in the backing directory that no live
// item references. This corrects drift from crashes, failed deletes or
// write races; the directory is exclusively owned by this subsystem so any
// unreferenced file is garbage.
func (r *RetentionManager) reconcileOrphans() error {
	entries, err := os.ReadDir(r.store.DataDir())
	if err != nil {
		return fmt.Errorf("failed to list backing directory: %w", err)
	}

	refs := r.list.ReferencedPaths()

	var errs error
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(r.store.DataDir(), entry.Name())
		if _, ok := refs[path]; ok {
			continue
		}
		if err := os.Remove(path); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to remove orphan %s: %w", path, err))
			continue
		}
		removed++
	}

	if removed > 0 {
		r.logger.Info("removed orphaned files", zap.Int("count", removed))
	}
	return errs
}
