package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/internal/history"
	"github.com/clipkeep/clipkeep/internal/types"
)

func newRetentionFixture(t *testing.T, policy config.RetentionConfig) (*RetentionManager, *history.List, *TieredStore) {
	t.Helper()
	store, err := NewTieredStore(t.TempDir(), testLimits(), zap.NewNop())
	require.NoError(t, err)
	list := history.NewList(policy.MaxItems, zap.NewNop())
	mgr := NewRetentionManager(policy, list, store, nil, zap.NewNop())
	return mgr, list, store
}

func TestSweepAgePolicy(t *testing.T) {
	mgr, list, _ := newRetentionFixture(t, config.RetentionConfig{MaxAge: time.Hour})

	old := &types.ClipboardItem{
		ID:          "old",
		Content:     types.Content{Kind: types.KindText, Data: []byte("stale")},
		ContentHash: "h-old",
	}
	list.Upsert(old)
	old.Created = time.Now().Add(-2 * time.Hour)

	list.Upsert(&types.ClipboardItem{
		ID:          "new",
		Content:     types.Content{Kind: types.KindText, Data: []byte("fresh")},
		ContentHash: "h-new",
	})

	require.NoError(t, mgr.Sweep())

	_, ok := list.Get("old")
	assert.False(t, ok, "aged item must be gone even though the count is under the cap")
	_, ok = list.Get("new")
	assert.True(t, ok)
}

func TestSweepCountCap(t *testing.T) {
	mgr, list, _ := newRetentionFixture(t, config.RetentionConfig{MaxItems: 2})

	for _, id := range []string{"a", "b", "c"} {
		list.Upsert(&types.ClipboardItem{
			ID:          id,
			Content:     types.Content{Kind: types.KindText, Data: []byte(id)},
			ContentHash: "h-" + id,
		})
	}
	// Upsert already trims, so force an over-cap state via Replace.
	items := list.Items()
	extra := &types.ClipboardItem{
		ID:          "d",
		Content:     types.Content{Kind: types.KindText, Data: []byte("d")},
		ContentHash: "h-d",
	}
	extra.Created = time.Now()
	list.Replace(append([]*types.ClipboardItem{extra}, items...))

	require.NoError(t, mgr.Sweep())
	assert.Len(t, list.Items(), 2)
}

func TestSweepRemovesOrphansKeepsReferenced(t *testing.T) {
	mgr, list, store := newRetentionFixture(t, config.RetentionConfig{})

	// A live disk-backed item.
	over := bytes.Repeat([]byte("x"), mib+1)
	item := store.Materialize(types.Content{Kind: types.KindText, Data: over}, "p", types.UnknownApp)
	require.True(t, item.Content.OnDisk())
	list.Upsert(item)

	// A file nobody references.
	orphan := filepath.Join(store.DataDir(), "leftover_text_123")
	require.NoError(t, os.WriteFile(orphan, []byte("junk"), 0600))

	require.NoError(t, mgr.Sweep())

	_, err := os.Stat(orphan)
	assert.True(t, os.IsNotExist(err), "orphan must be removed after one sweep")
	assert.FileExists(t, item.Content.Path, "referenced file must survive")

	// A second sweep still leaves the referenced file alone.
	require.NoError(t, mgr.Sweep())
	assert.FileExists(t, item.Content.Path)
}

func TestSweepDisposesEvictedBackingFiles(t *testing.T) {
	mgr, list, store := newRetentionFixture(t, config.RetentionConfig{MaxAge: time.Hour})

	over := bytes.Repeat([]byte("x"), mib+1)
	item := store.Materialize(types.Content{Kind: types.KindText, Data: over}, "p", types.UnknownApp)
	require.True(t, item.Content.OnDisk())
	list.Upsert(item)
	item.Created = time.Now().Add(-2 * time.Hour)

	require.NoError(t, mgr.Sweep())

	_, err := os.Stat(item.Content.Path)
	assert.True(t, os.IsNotExist(err), "evicted item's backing file must be deleted")
}
