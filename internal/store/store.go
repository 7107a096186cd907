package store

import (
	"context"

	"github.com/nhle/learnbell/internal/model"
)

// Store defines the local persistence used to warm-start the bell with
// the last authoritative notification list and counters per user.
type Store interface {
	// ReplaceNotifications swaps the cached list for userID with list.
	ReplaceNotifications(ctx context.Context, userID string, list []model.Notification) error

	// GetNotifications returns the cached list for userID, newest first.
	// A limit of zero returns every row.
	GetNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error)

	// MarkNotificationRead flags a cached notification as read.
	MarkNotificationRead(ctx context.Context, userID, id string) error

	// SaveStats stores the last fetched counters for userID.
	SaveStats(ctx context.Context, userID string, stats model.Stats) error

	// GetStats returns the cached counters and whether any were stored.
	GetStats(ctx context.Context, userID string) (model.Stats, bool, error)

	Close() error
}
