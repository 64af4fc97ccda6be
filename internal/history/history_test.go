package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/types"
)

func newTestList(maxItems int) *List {
	return NewList(maxItems, zap.NewNop())
}

func textItem(id, text string) *types.ClipboardItem {
	return &types.ClipboardItem{
		ID:          id,
		Content:     types.Content{Kind: types.KindText, Data: []byte(text)},
		Preview:     text,
		ContentHash: "hash-" + text,
	}
}

func imageItem(id, hash string) *types.ClipboardItem {
	return &types.ClipboardItem{
		ID:          id,
		Content:     types.Content{Kind: types.KindImage, Data: []byte{0x89}},
		ContentHash: hash,
	}
}

func TestUpsertPromotesDuplicateTextToHead(t *testing.T) {
	l := newTestList(10)

	first, promoted, _ := l.Upsert(textItem("a", "hello"))
	require.False(t, promoted)

	l.Upsert(textItem("b", "world"))

	// Copying "hello" again promotes the original entry, repeatedly.
	for i := 0; i < 3; i++ {
		head, promoted, _ := l.Upsert(textItem("c", "hello"))
		assert.True(t, promoted)
		assert.Equal(t, first.ID, head.ID)
	}

	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, uint64(3), items[0].AccessCount)
	assert.NotNil(t, items[0].LastAccessed)
}

func TestUpsertTextDedupScansWholeList(t *testing.T) {
	l := newTestList(10)

	l.Upsert(textItem("a", "hello"))
	l.Upsert(textItem("b", "middle"))
	l.Upsert(textItem("c", "recent"))

	// "hello" is at the tail but still deduplicates.
	head, promoted, _ := l.Upsert(textItem("d", "hello"))
	assert.True(t, promoted)
	assert.Equal(t, "a", head.ID)
	assert.Len(t, l.Items(), 3)
}

func TestUpsertImageDedupComparesHeadOnly(t *testing.T) {
	l := newTestList(10)

	l.Upsert(imageItem("a", "img-1"))
	l.Upsert(imageItem("b", "img-2"))

	// img-1 is no longer the head, so it is inserted again.
	_, promoted, _ := l.Upsert(imageItem("c", "img-1"))
	assert.False(t, promoted)
	assert.Len(t, l.Items(), 3)

	// img-1 is now the head, so an immediate re-copy promotes.
	head, promoted, _ := l.Upsert(imageItem("d", "img-1"))
	assert.True(t, promoted)
	assert.Equal(t, "c", head.ID)
	assert.Len(t, l.Items(), 3)
}

func TestCountEvictionKeepsMostRecent(t *testing.T) {
	l := newTestList(5)

	ids := []string{"1", "2", "3", "4", "5", "6", "7"}
	var evictedTotal []*types.ClipboardItem
	for _, id := range ids {
		_, _, evicted := l.Upsert(textItem(id, "content-"+id))
		evictedTotal = append(evictedTotal, evicted...)
	}

	items := l.Items()
	require.Len(t, items, 5)
	// Most recent first; the 5 survivors are items 7..3.
	for i, want := range []string{"7", "6", "5", "4", "3"} {
		assert.Equal(t, want, items[i].ID)
	}
	require.Len(t, evictedTotal, 2)
	assert.Equal(t, "1", evictedTotal[0].ID)
	assert.Equal(t, "2", evictedTotal[1].ID)
}

func TestStarredItemsSurviveEviction(t *testing.T) {
	l := newTestList(2)

	l.Upsert(textItem("starred", "keep me"))
	require.True(t, l.SetStarred("starred", true))

	for _, id := range []string{"a", "b", "c"} {
		l.Upsert(textItem(id, "content-"+id))
	}

	_, ok := l.Get("starred")
	assert.True(t, ok, "starred item must survive the count cap")

	unstarred := 0
	for _, it := range l.Items() {
		if !it.Starred {
			unstarred++
		}
	}
	assert.Equal(t, 2, unstarred)
}

func TestRemoveOlderThan(t *testing.T) {
	l := newTestList(0)

	old := textItem("old", "ancient")
	l.Upsert(old)
	old.Created = time.Now().Add(-2 * time.Hour)

	l.Upsert(textItem("new", "fresh"))

	evicted := l.RemoveOlderThan(time.Now().Add(-time.Hour))
	require.Len(t, evicted, 1)
	assert.Equal(t, "old", evicted[0].ID)

	_, ok := l.Get("old")
	assert.False(t, ok)
	_, ok = l.Get("new")
	assert.True(t, ok)
}

func TestRemoveOlderThanSkipsStarred(t *testing.T) {
	l := newTestList(0)

	old := textItem("old", "ancient")
	l.Upsert(old)
	old.Created = time.Now().Add(-2 * time.Hour)
	l.SetStarred("old", true)

	evicted := l.RemoveOlderThan(time.Now().Add(-time.Hour))
	assert.Empty(t, evicted)
}

func TestFilterMatchesAcrossFields(t *testing.T) {
	l := newTestList(0)

	text := textItem("t", "the quick brown fox")
	text.SourceApp = types.SourceApp{Name: "Editor"}
	l.Upsert(text)

	url := &types.ClipboardItem{
		ID:          "u",
		Content:     types.Content{Kind: types.KindURL, Data: []byte("https://example.com/page")},
		Preview:     "https://example.com/page",
		ContentHash: "h-u",
	}
	l.Upsert(url)

	file := &types.ClipboardItem{
		ID:          "f",
		Content:     types.Content{Kind: types.KindFile, Path: "/home/user/Report.pdf"},
		Preview:     "/home/user/Report.pdf",
		ContentHash: "h-f",
	}
	l.Upsert(file)

	cases := []struct {
		query string
		want  []string
	}{
		{"QUICK", []string{"t"}},           // text content, case-insensitive
		{"example.com", []string{"u"}},     // URL string
		{"report.pdf", []string{"f"}},      // file path
		{"editor", []string{"t"}},          // source-app name
		{"url", []string{"u"}},             // content-type name
		{"", []string{"f", "u", "t"}},      // empty query returns everything
		{"no-such-thing", nil},             // no match
	}

	for _, tc := range cases {
		got := l.Filter(tc.query)
		var ids []string
		for _, it := range got {
			ids = append(ids, it.ID)
		}
		assert.Equal(t, tc.want, ids, "query %q", tc.query)
	}
}

func TestSummary(t *testing.T) {
	l := newTestList(0)

	l.Upsert(textItem("a", "hello"))
	l.Upsert(&types.ClipboardItem{
		ID: "b",
		Content: types.Content{
			Kind:      types.KindImage,
			Residency: types.ResidencyDisk,
			Path:      "/tmp/spill",
			Thumb:     []byte{1, 2, 3},
		},
		ContentHash: "h-b",
	})

	usage := l.Summary()
	assert.Equal(t, 2, usage.Count)
	assert.Equal(t, 1, usage.DiskBackedCount)
	assert.Equal(t, int64(len("hello")+3), usage.TotalBytes)
}

func TestReferencedPaths(t *testing.T) {
	l := newTestList(0)

	l.Upsert(&types.ClipboardItem{
		ID:          "disk",
		Content:     types.Content{Kind: types.KindText, Residency: types.ResidencyDisk, Path: "/data/spill1"},
		ContentHash: "h1",
	})
	l.Upsert(&types.ClipboardItem{
		ID:          "ref",
		Content:     types.Content{Kind: types.KindFile, Path: "/home/user/doc.txt"},
		ContentHash: "h2",
	})

	refs := l.ReferencedPaths()
	assert.Contains(t, refs, "/data/spill1")
	// A file reference is not owned by the store and must not pin orphans.
	assert.NotContains(t, refs, "/home/user/doc.txt")
}

func TestDeleteAndClearAll(t *testing.T) {
	l := newTestList(0)
	l.Upsert(textItem("a", "one"))
	l.Upsert(textItem("b", "two"))

	item, ok := l.Delete("a")
	require.True(t, ok)
	assert.Equal(t, "a", item.ID)
	assert.Len(t, l.Items(), 1)

	removed := l.ClearAll()
	assert.Len(t, removed, 1)
	assert.Empty(t, l.Items())
}
