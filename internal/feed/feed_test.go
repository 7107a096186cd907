package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/learnbell/internal/model"
)

func TestFeed_PrependIsNewestFirstAndDeduplicates(t *testing.T) {
	f := New()

	assert.True(t, f.Prepend(model.Notification{ID: "a"}))
	assert.True(t, f.Prepend(model.Notification{ID: "b"}))
	assert.False(t, f.Prepend(model.Notification{ID: "a", Title: "again"}))

	got := f.Snapshot()
	assert.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Empty(t, got[1].Title)
}

func TestFeed_ReplaceOverwritesAndDropsDuplicates(t *testing.T) {
	f := New()
	f.Prepend(model.Notification{ID: "pushed"})

	f.Replace([]model.Notification{{ID: "x"}, {ID: "y"}, {ID: "x", Title: "dup"}})

	assert.False(t, f.Contains("pushed"))
	assert.Equal(t, 2, f.Len())
	n, ok := f.Get("x")
	assert.True(t, ok)
	assert.Empty(t, n.Title)
}

func TestFeed_MarkReadAndUnread(t *testing.T) {
	f := New()
	f.Replace([]model.Notification{{ID: "a"}, {ID: "b", IsRead: true}, {ID: "c"}})

	assert.Equal(t, []string{"a", "c"}, f.Unread())
	assert.True(t, f.MarkRead("a"))
	assert.False(t, f.MarkRead("missing"))
	assert.Equal(t, []string{"c"}, f.Unread())

	f.Reset()
	assert.Zero(t, f.Len())
}

func TestFeed_SnapshotIsACopy(t *testing.T) {
	f := New()
	f.Prepend(model.Notification{ID: "a"})

	snap := f.Snapshot()
	snap[0].IsRead = true

	n, _ := f.Get("a")
	assert.False(t, n.IsRead)
}
