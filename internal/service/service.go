// Package service wires the capture pipeline together and is the surface
// the presentation layer talks to.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/appinfo"
	"github.com/clipkeep/clipkeep/internal/clipboard"
	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/internal/enrich"
	"github.com/clipkeep/clipkeep/internal/history"
	"github.com/clipkeep/clipkeep/internal/notify"
	"github.com/clipkeep/clipkeep/internal/pasteboard"
	"github.com/clipkeep/clipkeep/internal/render"
	"github.com/clipkeep/clipkeep/internal/storage"
	"github.com/clipkeep/clipkeep/internal/types"
	"github.com/clipkeep/clipkeep/pkg/utils"
)

// Service owns every pipeline component: monitor, classifier, ordered list,
// tiered store, retention manager, repository, render cache, notifier and
// the optional enrichment sidecar. Constructed once at startup; no ambient
// global state.
type Service struct {
	cfg    *config.Config
	logger *zap.Logger

	pb        pasteboard.Pasteboard
	list      *history.List
	store     *storage.TieredStore
	retention *storage.RetentionManager
	repo      storage.Repository
	cache     *render.Cache
	notifier  notify.Notifier
	enricher  *enrich.Service
	monitor   *clipboard.Monitor

	classifier *clipboard.Classifier
}

// Options carries the injected collaborators. Clock defaults to the real
// clock; Apps defaults to the unknown provider.
type Options struct {
	Pasteboard pasteboard.Pasteboard
	Repository storage.Repository
	Notifier   notify.Notifier
	Apps       appinfo.Provider
	Clock      clock.Clock
}

// New builds the full pipeline and restores the item list from the
// repository.
func New(cfg *config.Config, opts Options, logger *zap.Logger) (*Service, error) {
	if opts.Apps == nil {
		opts.Apps = appinfo.UnknownProvider{}
	}

	store, err := storage.NewTieredStore(cfg.SystemPaths.DataDir, cfg.Limits, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tiered store: %w", err)
	}

	cache := render.NewCache()
	list := history.NewList(cfg.Retention.MaxItems, logger)

	s := &Service{
		cfg:       cfg,
		logger:    logger,
		pb:        opts.Pasteboard,
		list:      list,
		store:     store,
		repo:      opts.Repository,
		cache:     cache,
		notifier:  opts.Notifier,
		enricher:  enrich.NewService(cfg.Enrich, logger),
		retention: storage.NewRetentionManager(cfg.Retention, list, store, opts.Repository, logger),
		classifier: clipboard.NewClassifier(
			opts.Pasteboard, opts.Apps, cache, cfg.Capture, cfg.Limits, logger),
	}
	s.monitor = clipboard.NewMonitor(
		opts.Pasteboard,
		cfg.Monitor.PollingInterval,
		cfg.Monitor.SweepInterval,
		opts.Clock,
		logger,
		s.CaptureOnce,
		s.SweepOnce,
	)

	if err := s.restore(); err != nil {
		return nil, err
	}
	return s, nil
}

// restore loads persisted items into the ordered list. Items whose backing
// file has vanished are dropped; their payload is gone anyway.
func (s *Service) restore() error {
	items, err := s.repo.FetchAll()
	if err != nil {
		return fmt.Errorf("failed to restore history: %w", err)
	}

	kept := items[:0]
	for _, it := range items {
		if it.Content.OwnsBackingFile() && !utils.FileExists(it.Content.Path) {
			s.logger.Warn("dropping item with missing backing file",
				zap.String("id", it.ID),
				zap.String("path", it.Content.Path))
			if err := s.repo.Delete(it.ID); err != nil {
				s.logger.Warn("failed to delete stale item record", zap.Error(err))
			}
			continue
		}
		kept = append(kept, it)
	}

	s.list.Replace(kept)
	s.logger.Info("history restored", zap.Int("items", len(kept)))
	return nil
}

// StartMonitoring starts the polling and sweep timers.
func (s *Service) StartMonitoring() {
	s.monitor.Start()
}

// StopMonitoring stops both timers and waits for in-flight work.
func (s *Service) StopMonitoring() {
	s.monitor.Stop()
}

// CaptureOnce runs one classification pass against the current pasteboard
// contents. All errors are absorbed here: rejections notify the user,
// everything else is logged. The monitor loop never crashes.
func (s *Service) CaptureOnce() {
	classified, err := s.classifier.Classify()
	if err != nil {
		s.handleCaptureError(err)
		return
	}

	item := s.store.Materialize(classified.Content, classified.Preview, classified.App)
	head, promoted, evicted := s.list.Upsert(item)

	if promoted {
		// The freshly materialized duplicate is discarded; release any
		// spill file it acquired.
		s.store.Dispose(item)
	}
	s.store.DisposeAll(evicted)

	s.persistUpsert(head, evicted)

	if !promoted && head.Content.Kind == types.KindImage && s.enricher.Enabled() {
		go s.enrichItem(head)
	}
}

func (s *Service) handleCaptureError(err error) {
	switch {
	case errors.Is(err, types.ErrNoContent):
		// Nothing usable this cycle; retry at the next tick.
	case types.IsRejection(err):
		s.logger.Info("capture rejected", zap.Error(err))
		s.notifier.Notify("Clipboard item not captured", err.Error())
	default:
		s.logger.Error("capture cycle failed", zap.Error(err))
	}
}

func (s *Service) persistUpsert(head *types.ClipboardItem, evicted []*types.ClipboardItem) {
	if err := s.repo.Insert(head); err != nil {
		s.logger.Error("failed to persist item, in-memory list stays authoritative",
			zap.String("id", head.ID),
			zap.Error(err))
	}
	for _, it := range evicted {
		if err := s.repo.Delete(it.ID); err != nil {
			s.logger.Warn("failed to delete evicted item record",
				zap.String("id", it.ID),
				zap.Error(err))
		}
	}
}

// enrichItem runs the ML sidecar on an image item and attaches its labels.
func (s *Service) enrichItem(item *types.ClipboardItem) {
	ctx := context.Background()

	var result *enrich.Result
	var err error
	if item.Content.OnDisk() {
		result, err = s.enricher.AnalyzePath(ctx, item.Content.Path)
	} else {
		result, err = s.enricher.AnalyzeBytes(ctx, item.Content.Data)
	}
	if err != nil {
		s.logger.Warn("image enrichment failed",
			zap.String("id", item.ID),
			zap.Error(err))
		return
	}

	labels := result.Labels()
	s.list.SetLabels(item.ID, labels)
	if updated, ok := s.list.Get(item.ID); ok {
		if err := s.repo.Insert(updated); err != nil {
			s.logger.Warn("failed to persist enrichment labels", zap.Error(err))
		}
	}
	s.logger.Info("item enriched",
		zap.String("id", item.ID),
		zap.Strings("labels", labels))
}

// SweepOnce runs one retention pass.
func (s *Service) SweepOnce() {
	if err := s.retention.Sweep(); err != nil {
		s.logger.Warn("retention sweep finished with errors", zap.Error(err))
	}
}

// Items returns the ordered list, most recent first.
func (s *Service) Items() []*types.ClipboardItem {
	return s.list.Items()
}

// FilteredItems narrows the list to items matching the free-text query.
func (s *Service) FilteredItems(query string) []*types.ClipboardItem {
	return s.list.Filter(query)
}

// Delete removes one item, its backing file and its record.
func (s *Service) Delete(id string) error {
	item, ok := s.list.Delete(id)
	if !ok {
		return fmt.Errorf("item %s not found", id)
	}
	s.store.Dispose(item)
	if err := s.repo.Delete(id); err != nil {
		s.logger.Warn("failed to delete item record",
			zap.String("id", id),
			zap.Error(err))
	}
	return nil
}

// ClearAll empties the history and reclaims all backing files.
func (s *Service) ClearAll() error {
	removed := s.list.ClearAll()
	s.store.DisposeAll(removed)
	if err := s.repo.SaveAll(nil); err != nil {
		s.logger.Error("failed to clear repository", zap.Error(err))
		return types.ErrPersistenceSaveFailed
	}
	s.logger.Info("history cleared", zap.Int("items", len(removed)))
	return nil
}

// SetStarred toggles eviction exemption for one item.
func (s *Service) SetStarred(id string, starred bool) error {
	if !s.list.SetStarred(id, starred) {
		return fmt.Errorf("item %s not found", id)
	}
	if item, ok := s.list.Get(id); ok {
		if err := s.repo.Insert(item); err != nil {
			s.logger.Warn("failed to persist star flag", zap.Error(err))
		}
	}
	return nil
}

// PasteItem writes an item's payload back to the OS clipboard in its most
// compatible representation and bumps its access bookkeeping. The caller
// performs the OS-level paste keystroke.
func (s *Service) PasteItem(id string) error {
	item, ok := s.list.Get(id)
	if !ok {
		return fmt.Errorf("item %s not found", id)
	}

	payload, err := s.store.Payload(&item.Content)
	if err != nil {
		return fmt.Errorf("payload unavailable: %w", err)
	}

	var tag pasteboard.TypeTag
	switch item.Content.Kind {
	case types.KindImage:
		tag = pasteboard.TagPNG
	case types.KindFile:
		tag = pasteboard.TagURIList
		payload = []byte("file://" + string(payload))
	case types.KindRichText:
		tag = pasteboard.TagRTF
	default:
		tag = pasteboard.TagText
	}

	if err := s.pb.Write(tag, payload); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}

	s.list.MarkAccessed(id)
	if updated, ok := s.list.Get(id); ok {
		if err := s.repo.Insert(updated); err != nil {
			s.logger.Warn("failed to persist access bookkeeping", zap.Error(err))
		}
	}
	return nil
}

// Payload exposes read-through access to an item's full payload.
func (s *Service) Payload(id string) ([]byte, error) {
	item, ok := s.list.Get(id)
	if !ok {
		return nil, fmt.Errorf("item %s not found", id)
	}
	return s.store.Payload(&item.Content)
}

// MemoryUsageSummary reports the history's footprint.
func (s *Service) MemoryUsageSummary() types.MemoryUsage {
	return s.list.Summary()
}

// RenderCache exposes the decode cache so the presentation layer can clear
// it under memory pressure.
func (s *Service) RenderCache() *render.Cache {
	return s.cache
}

// Close stops monitoring and closes the repository.
func (s *Service) Close() error {
	s.monitor.Stop()
	return s.repo.Close()
}
