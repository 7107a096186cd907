// Package reconciler folds pushed socket events into the in-memory feed.
package reconciler

import (
	"time"

	"go.uber.org/zap"

	"github.com/nhle/learnbell/internal/feed"
	"github.com/nhle/learnbell/internal/model"
	"github.com/nhle/learnbell/internal/toast"
)

// Outcome describes what HandlePush did with an event.
type Outcome int

const (
	// Accepted means the event was prepended and toasted.
	Accepted Outcome = iota
	// Rejected means the event had neither title nor message.
	Rejected
	// Duplicate means an entry with the same id was already listed.
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Reconciler bridges pushed events into the feed and the toast queue.
type Reconciler struct {
	feed    *feed.Feed
	toasts  *toast.Queue
	refetch func()
	now     func() time.Time
	logger  *zap.Logger
}

// New creates a Reconciler. refetch is invoked after every accepted
// event, once the event is in the feed; it must not block.
func New(f *feed.Feed, q *toast.Queue, refetch func(), logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if refetch == nil {
		refetch = func() {}
	}
	return &Reconciler{
		feed:    f,
		toasts:  q,
		refetch: refetch,
		now:     time.Now,
		logger:  logger.Named("reconciler"),
	}
}

// SetClock overrides the time source used for normalization and toasts.
func (r *Reconciler) SetClock(now func() time.Time) {
	r.now = now
}

// HandlePush validates, normalizes and deduplicates ev, then prepends it
// and raises a toast. Duplicates are dropped silently.
func (r *Reconciler) HandlePush(ev model.PushEvent) Outcome {
	if !ev.HasContent() {
		r.logger.Warn("dropping push without title or message",
			zap.String("id", firstNonEmpty(ev.LegacyID, ev.ID)),
			zap.String("type", ev.Type),
		)
		return Rejected
	}

	now := r.now()
	n := ev.Normalize(now)

	if !r.feed.Prepend(n) {
		r.logger.Debug("duplicate push", zap.String("id", n.ID))
		return Duplicate
	}
	r.toasts.Show(n, now)

	r.logger.Debug("push accepted", zap.String("id", n.ID), zap.String("type", n.Type))
	r.refetch()
	return Accepted
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
