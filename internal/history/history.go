// Package history owns the ordered, most-recent-first item list: dedup and
// upsert, retention trimming, and the linear search filter.
package history

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/types"
)

// List is the single authoritative ordered item list. All mutation happens
// under one mutex; capture cycles and retention sweeps never interleave
// their edits.
type List struct {
	mu       sync.Mutex
	items    []*types.ClipboardItem
	maxItems int
	logger   *zap.Logger
}

func NewList(maxItems int, logger *zap.Logger) *List {
	return &List{
		maxItems: maxItems,
		logger:   logger,
	}
}

// Upsert merges a freshly classified item into the list. Text and URL
// content is deduplicated against every item in the list; image, file and
// rich-text content only against the current head. This asymmetry is
// deliberate behavioral parity with the original system. A hash match
// promotes the existing item to the front and refreshes its timestamp; a
// miss inserts at the front. The count cap is re-applied before returning.
//
// Returns the item now at the head, whether it was a promotion, and any
// items evicted by the count trim.
func (l *List) Upsert(item *types.ClipboardItem) (*types.ClipboardItem, bool, []*types.ClipboardItem) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	if idx, ok := l.findDuplicateLocked(item); ok {
		existing := l.items[idx]
		l.items = append(l.items[:idx], l.items[idx+1:]...)
		l.items = append([]*types.ClipboardItem{existing}, l.items...)

		existing.Created = now
		existing.AccessCount++
		existing.LastAccessed = &now

		l.logger.Debug("promoted existing item",
			zap.String("id", existing.ID),
			zap.String("hash", existing.ContentHash),
			zap.Uint64("access_count", existing.AccessCount))

		evicted := l.trimLocked()
		return existing, true, evicted
	}

	item.Created = now
	l.items = append([]*types.ClipboardItem{item}, l.items...)

	l.logger.Debug("inserted new item",
		zap.String("id", item.ID),
		zap.String("kind", string(item.Content.Kind)),
		zap.String("hash", item.ContentHash))

	evicted := l.trimLocked()
	return item, false, evicted
}

func (l *List) findDuplicateLocked(item *types.ClipboardItem) (int, bool) {
	if len(l.items) == 0 {
		return 0, false
	}

	switch item.Content.Kind {
	case types.KindText, types.KindURL:
		for i, existing := range l.items {
			if existing.ContentHash == item.ContentHash {
				return i, true
			}
		}
	default:
		if l.items[0].ContentHash == item.ContentHash {
			return 0, true
		}
	}
	return 0, false
}

// trimLocked enforces the count cap, dropping from the tail. Starred items
// are exempt and do not count toward the cap.
func (l *List) trimLocked() []*types.ClipboardItem {
	if l.maxItems <= 0 {
		return nil
	}

	unstarred := 0
	for _, it := range l.items {
		if !it.Starred {
			unstarred++
		}
	}
	over := unstarred - l.maxItems
	if over <= 0 {
		return nil
	}

	var evicted []*types.ClipboardItem
	kept := make([]*types.ClipboardItem, 0, len(l.items)-over)
	for i := len(l.items) - 1; i >= 0; i-- {
		it := l.items[i]
		if over > 0 && !it.Starred {
			evicted = append(evicted, it)
			over--
			continue
		}
		kept = append(kept, it)
	}
	// kept was built back-to-front
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	l.items = kept
	return evicted
}

// RemoveOlderThan drops every unstarred item created before cutoff,
// irrespective of position.
func (l *List) RemoveOlderThan(cutoff time.Time) []*types.ClipboardItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	var evicted []*types.ClipboardItem
	kept := l.items[:0]
	for _, it := range l.items {
		if !it.Starred && it.Created.Before(cutoff) {
			evicted = append(evicted, it)
			continue
		}
		kept = append(kept, it)
	}
	l.items = kept
	return evicted
}

// TrimToMax re-applies the count cap outside of an upsert (sweep path).
func (l *List) TrimToMax() []*types.ClipboardItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.trimLocked()
}

// Items returns a snapshot of the list, most recent first.
func (l *List) Items() []*types.ClipboardItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*types.ClipboardItem, len(l.items))
	copy(out, l.items)
	return out
}

// Get returns the item with the given id.
func (l *List) Get(id string) (*types.ClipboardItem, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.items {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// Delete removes the item with the given id and returns it.
func (l *List) Delete(id string) (*types.ClipboardItem, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, it := range l.items {
		if it.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return it, true
		}
	}
	return nil, false
}

// ClearAll empties the list and returns everything that was in it.
func (l *List) ClearAll() []*types.ClipboardItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := l.items
	l.items = nil
	return removed
}

// Replace swaps in a list loaded from the repository, most recent first.
func (l *List) Replace(items []*types.ClipboardItem) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
}

// SetStarred toggles eviction exemption for one item.
func (l *List) SetStarred(id string, starred bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.items {
		if it.ID == id {
			it.Starred = starred
			return true
		}
	}
	return false
}

// MarkAccessed bumps access bookkeeping for a paste.
func (l *List) MarkAccessed(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.items {
		if it.ID == id {
			now := time.Now()
			it.AccessCount++
			it.LastAccessed = &now
			return
		}
	}
}

// SetLabels attaches enrichment labels to one item.
func (l *List) SetLabels(id string, labels []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.items {
		if it.ID == id {
			it.Labels = labels
			return
		}
	}
}

// ReferencedPaths returns the set of backing-file paths owned by live
// items, used for orphan reconciliation.
func (l *List) ReferencedPaths() map[string]struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	refs := make(map[string]struct{})
	for _, it := range l.items {
		if it.Content.OwnsBackingFile() {
			refs[it.Content.Path] = struct{}{}
		}
	}
	return refs
}

// Summary reports the list's memory footprint.
func (l *List) Summary() types.MemoryUsage {
	l.mu.Lock()
	defer l.mu.Unlock()

	usage := types.MemoryUsage{Count: len(l.items)}
	for _, it := range l.items {
		usage.TotalBytes += int64(len(it.Content.Data) + len(it.Content.Thumb))
		if it.Content.OnDisk() {
			usage.DiskBackedCount++
		}
	}
	return usage
}

// Filter returns the items matching a free-text query: case-insensitive
// substring, OR-combined across text content, URL, file path, content-type
// name, preview and source-app name. Linear scan; the list is bounded by
// retention so no index is kept.
func (l *List) Filter(query string) []*types.ClipboardItem {
	if strings.TrimSpace(query) == "" {
		return l.Items()
	}
	needle := strings.ToLower(query)

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*types.ClipboardItem
	for _, it := range l.items {
		if itemMatches(it, needle) {
			out = append(out, it)
		}
	}
	return out
}

func itemMatches(it *types.ClipboardItem, needle string) bool {
	c := &it.Content
	if (c.Kind == types.KindText || c.Kind == types.KindURL) && !c.OnDisk() {
		if strings.Contains(strings.ToLower(string(c.Data)), needle) {
			return true
		}
	}
	if c.Path != "" && strings.Contains(strings.ToLower(c.Path), needle) {
		return true
	}
	if strings.Contains(string(c.Kind), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(it.Preview), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(it.SourceApp.Name), needle) {
		return true
	}
	return false
}
