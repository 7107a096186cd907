// Package toast keeps the ephemeral toasts raised for pushed
// notifications.
package toast

import (
	"sync"
	"time"

	"github.com/nhle/learnbell/internal/model"
)

// Queue shows at most one toast per notification id for its whole
// lifetime, even if the same id is offered again after the first toast
// expired. It is safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	seen    map[string]struct{}
	visible []model.Toast
}

// NewQueue returns a queue whose toasts live for ttl. At most max are
// visible at once; the oldest is evicted first. max <= 0 means 3.
func NewQueue(ttl time.Duration, max int) *Queue {
	if max <= 0 {
		max = 3
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Queue{
		ttl:  ttl,
		max:  max,
		seen: make(map[string]struct{}),
	}
}

// Show raises a toast for n. It returns false when n.ID already had one.
func (q *Queue) Show(n model.Notification, now time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.seen[n.ID]; ok {
		return false
	}
	q.seen[n.ID] = struct{}{}

	q.visible = append(q.visible, model.NewToast(n, now, q.ttl))
	if len(q.visible) > q.max {
		q.visible = q.visible[len(q.visible)-q.max:]
	}
	return true
}

// Dismiss hides the toast for id. The id stays marked as shown.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, t := range q.visible {
		if t.ID == id {
			q.visible = append(q.visible[:i], q.visible[i+1:]...)
			return
		}
	}
}

// Expire drops toasts whose lifetime ended before now and reports
// whether anything changed.
func (q *Queue) Expire(now time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.visible[:0]
	for _, t := range q.visible {
		if now.Before(t.ExpiresAt) {
			kept = append(kept, t)
		}
	}
	changed := len(kept) != len(q.visible)
	q.visible = kept
	return changed
}

// Visible returns the toasts currently on screen, oldest first.
func (q *Queue) Visible() []model.Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]model.Toast(nil), q.visible...)
}

// Shown returns how many distinct ids have been toasted.
func (q *Queue) Shown() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.seen)
}
