package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/internal/types"
	"github.com/clipkeep/clipkeep/pkg/utils"
)

const mib = 1024 * 1024

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{
		MaxImageBytes:          256 * mib,
		MaxOtherBytes:          512 * mib,
		ImageSpillThreshold:    5 * mib,
		TextSpillThreshold:     1 * mib,
		RichTextSpillThreshold: 1 * mib,
	}
}

func newTestStore(t *testing.T) *TieredStore {
	t.Helper()
	store, err := NewTieredStore(t.TempDir(), testLimits(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestMaterializeTextBoundary(t *testing.T) {
	store := newTestStore(t)

	// Exactly at the threshold stays in memory.
	atLimit := bytes.Repeat([]byte("a"), mib)
	item := store.Materialize(types.Content{Kind: types.KindText, Data: atLimit}, "p", types.UnknownApp)
	assert.False(t, item.Content.OnDisk())
	assert.Equal(t, atLimit, item.Content.Data)
	assert.Equal(t, utils.HashContent(atLimit), item.ContentHash)

	// One byte over spills to disk.
	overLimit := bytes.Repeat([]byte("a"), mib+1)
	item = store.Materialize(types.Content{Kind: types.KindText, Data: overLimit}, "p", types.UnknownApp)
	require.True(t, item.Content.OnDisk())
	assert.Nil(t, item.Content.Data)
	assert.NotEmpty(t, item.Content.Path)
	assert.Equal(t, filepath.Dir(item.Content.Path), store.DataDir())

	// On-disk variants hash by path string, not file content.
	assert.Equal(t, utils.HashString(item.Content.Path), item.ContentHash)

	// Read-through returns the original payload.
	payload, err := store.Payload(&item.Content)
	require.NoError(t, err)
	assert.Equal(t, overLimit, payload)
}

func TestMaterializeSpillFailureFallsBackToMemory(t *testing.T) {
	store := newTestStore(t)
	// Removing the data directory makes every spill write fail.
	require.NoError(t, os.RemoveAll(store.DataDir()))

	over := bytes.Repeat([]byte("a"), mib+1)
	item := store.Materialize(types.Content{Kind: types.KindText, Data: over}, "p", types.UnknownApp)

	assert.False(t, item.Content.OnDisk(), "failed spill keeps the item in memory")
	assert.Equal(t, over, item.Content.Data, "payload survives intact")
	assert.Empty(t, item.Content.Path)
	assert.Equal(t, utils.HashContent(over), item.ContentHash, "memory residency hashes payload bytes")
}

func TestMaterializeImageKeepsThumbnailInMemory(t *testing.T) {
	store := newTestStore(t)

	big := bytes.Repeat([]byte{0x42}, 5*mib+1)
	thumb := []byte("thumbnail-bytes")
	item := store.Materialize(types.Content{Kind: types.KindImage, Data: big, Thumb: thumb}, "Image", types.UnknownApp)

	require.True(t, item.Content.OnDisk())
	assert.Nil(t, item.Content.Data)
	assert.Equal(t, thumb, item.Content.Thumb, "thumbnail must stay memory-resident")
}

func TestMaterializeFileReference(t *testing.T) {
	store := newTestStore(t)

	item := store.Materialize(types.Content{Kind: types.KindFile, Path: "/home/user/notes.txt"}, "notes.txt", types.UnknownApp)
	assert.False(t, item.Content.OnDisk())
	assert.Equal(t, utils.HashString("/home/user/notes.txt"), item.ContentHash)

	payload, err := store.Payload(&item.Content)
	require.NoError(t, err)
	assert.Equal(t, []byte("/home/user/notes.txt"), payload)
}

func TestPayloadDiskReadFailure(t *testing.T) {
	store := newTestStore(t)

	content := types.Content{
		Kind:      types.KindText,
		Residency: types.ResidencyDisk,
		Path:      filepath.Join(store.DataDir(), "gone"),
	}
	_, err := store.Payload(&content)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDiskReadFailed)
}

func TestDisposeRemovesBackingFile(t *testing.T) {
	store := newTestStore(t)

	over := bytes.Repeat([]byte("x"), mib+1)
	item := store.Materialize(types.Content{Kind: types.KindText, Data: over}, "p", types.UnknownApp)
	require.True(t, item.Content.OnDisk())
	require.FileExists(t, item.Content.Path)

	store.Dispose(item)
	_, err := os.Stat(item.Content.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestDisposeLeavesReferencedFilesAlone(t *testing.T) {
	store := newTestStore(t)

	userFile := filepath.Join(t.TempDir(), "user-owned.txt")
	require.NoError(t, os.WriteFile(userFile, []byte("keep"), 0644))

	item := store.Materialize(types.Content{Kind: types.KindFile, Path: userFile}, "user-owned.txt", types.UnknownApp)
	store.Dispose(item)
	assert.FileExists(t, userFile, "file references are never owned by the store")
}
