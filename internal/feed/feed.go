// Package feed holds the in-memory notification list shown by the bell.
package feed

import (
	"sync"

	"github.com/nhle/learnbell/internal/model"
)

// Feed is an ordered, newest-first notification list that never holds
// two entries with the same id. It is safe for concurrent use.
type Feed struct {
	mu    sync.RWMutex
	items []model.Notification
	index map[string]struct{}
}

// New returns an empty feed.
func New() *Feed {
	return &Feed{index: make(map[string]struct{})}
}

// Contains reports whether id is present.
func (f *Feed) Contains(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.index[id]
	return ok
}

// Prepend inserts n at the head. It returns false and leaves the feed
// untouched when n.ID is already present.
func (f *Feed) Prepend(n model.Notification) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.index[n.ID]; ok {
		return false
	}
	f.items = append([]model.Notification{n}, f.items...)
	f.index[n.ID] = struct{}{}
	return true
}

// Replace overwrites the feed with an authoritative list, keeping its
// order and dropping any repeated ids after the first.
func (f *Feed) Replace(list []model.Notification) {
	items := make([]model.Notification, 0, len(list))
	index := make(map[string]struct{}, len(list))
	for _, n := range list {
		if _, dup := index[n.ID]; dup {
			continue
		}
		index[n.ID] = struct{}{}
		items = append(items, n)
	}

	f.mu.Lock()
	f.items = items
	f.index = index
	f.mu.Unlock()
}

// MarkRead flags id as read. It reports whether the entry was found.
func (f *Feed) MarkRead(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].IsRead = true
			return true
		}
	}
	return false
}

// Get returns the notification with the given id.
func (f *Feed) Get(id string) (model.Notification, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, n := range f.items {
		if n.ID == id {
			return n, true
		}
	}
	return model.Notification{}, false
}

// Unread returns the ids of unread notifications in list order.
func (f *Feed) Unread() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var ids []string
	for _, n := range f.items {
		if !n.IsRead {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Len returns the number of notifications.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

// Snapshot returns a copy of the list.
func (f *Feed) Snapshot() []model.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]model.Notification(nil), f.items...)
}

// Reset empties the feed.
func (f *Feed) Reset() {
	f.Replace(nil)
}
