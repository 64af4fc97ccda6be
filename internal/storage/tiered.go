// Package storage holds payload tiering, the retention sweep and the
// persistent item repository.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/internal/types"
	"github.com/clipkeep/clipkeep/pkg/utils"
)

// TieredStore decides per item whether a payload stays in memory or spills
// to a backing file, and provides read-through access regardless of
// residency. The data directory is exclusively owned by this store.
type TieredStore struct {
	dataDir string
	limits  config.LimitsConfig
	logger  *zap.Logger
}

func NewTieredStore(dataDir string, limits config.LimitsConfig, logger *zap.Logger) (*TieredStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &TieredStore{
		dataDir: dataDir,
		limits:  limits,
		logger:  logger,
	}, nil
}

// DataDir returns the backing-storage directory.
func (s *TieredStore) DataDir() string {
	return s.dataDir
}

// spillThreshold returns the exclusive-above byte threshold for a kind, or 0
// when the kind never spills.
func (s *TieredStore) spillThreshold(kind types.ContentKind) int64 {
	switch kind {
	case types.KindImage:
		return s.limits.ImageSpillThreshold
	case types.KindText:
		return s.limits.TextSpillThreshold
	case types.KindRichText:
		return s.limits.RichTextSpillThreshold
	default:
		// URL, file-reference and unknown payloads stay memory-resident.
		return 0
	}
}

// Materialize builds a ClipboardItem from classified content, performing
// the spillover write when the payload is over threshold. A failed spill
// falls back to the in-memory variant: no item loss, just a larger
// footprint than intended. The content hash is derived after residency is
// settled: payload bytes for in-memory variants, the path string for
// on-disk and file-reference variants.
func (s *TieredStore) Materialize(content types.Content, preview string, app types.SourceApp) *types.ClipboardItem {
	threshold := s.spillThreshold(content.Kind)
	if threshold > 0 && int64(len(content.Data)) > threshold {
		path := filepath.Join(s.dataDir, utils.SpillFileName(string(content.Kind), time.Now()))
		if err := utils.WriteFileAtomic(path, content.Data, 0600); err != nil {
			s.logger.Error("spillover write failed, keeping payload in memory",
				zap.String("kind", string(content.Kind)),
				zap.Int("size", len(content.Data)),
				zap.Error(err))
		} else {
			s.logger.Debug("payload spilled to disk",
				zap.String("kind", string(content.Kind)),
				zap.Int("size", len(content.Data)),
				zap.String("path", path))
			content.Residency = types.ResidencyDisk
			content.Path = path
			content.Data = nil
		}
	}

	return &types.ClipboardItem{
		ID:          uuid.NewString(),
		Created:     time.Now(),
		Content:     content,
		Preview:     preview,
		ContentHash: HashFor(&content),
		SourceApp:   app,
	}
}

// HashFor computes the deduplication fingerprint of a content variant.
// Paths hash by their string value, not by file content.
func HashFor(c *types.Content) string {
	if c.Kind == types.KindFile || c.OnDisk() {
		return utils.HashString(c.Path)
	}
	return utils.HashContent(c.Data)
}

// Payload returns the full payload bytes of an item, loading on-disk
// variants from their backing file on every call. Only thumbnails are
// memory-resident for on-disk items, so repeated reads re-hit the
// filesystem; that is the accepted cost of keeping memory bounded.
func (s *TieredStore) Payload(c *types.Content) ([]byte, error) {
	if c.Kind == types.KindFile {
		return []byte(c.Path), nil
	}
	if !c.OnDisk() {
		return c.Data, nil
	}
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrDiskReadFailed, c.Path, err)
	}
	return data, nil
}

// Dispose deletes the backing file of an on-disk item. Deletion failures
// are logged and otherwise ignored; the list entry is gone regardless.
func (s *TieredStore) Dispose(item *types.ClipboardItem) {
	if !item.Content.OwnsBackingFile() {
		return
	}
	if err := os.Remove(item.Content.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to delete backing file",
			zap.String("id", item.ID),
			zap.String("path", item.Content.Path),
			zap.Error(err))
	}
}

// DisposeAll disposes a batch of evicted items.
func (s *TieredStore) DisposeAll(items []*types.ClipboardItem) {
	for _, it := range items {
		s.Dispose(it)
	}
}
