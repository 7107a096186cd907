// Package repository reads and updates persisted notifications through
// the REST API. Failures stop here: callers always get a usable value.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/learnbell/internal/api"
	"github.com/nhle/learnbell/internal/model"
	"github.com/nhle/learnbell/internal/store"
)

// restClient is the subset of *api.Client the repository needs.
type restClient interface {
	HasToken() bool
	Get(ctx context.Context, path string, result interface{}) error
	Put(ctx context.Context, path string, body interface{}, result interface{}) error
}

// Repository is the source of truth for notification data. The cache is
// optional; when set, successful fetches are written through to it.
type Repository struct {
	client restClient
	cache  store.Store
	logger *zap.Logger
}

// New creates a Repository. cache may be nil.
func New(client restClient, cache store.Store, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		client: client,
		cache:  cache,
		logger: logger.Named("repository"),
	}
}

// FetchList returns the user's notifications as the server orders them.
// Without a token, or on any failure, it returns an empty list.
func (r *Repository) FetchList(ctx context.Context, userID string) []model.Notification {
	if !r.client.HasToken() {
		r.logger.Debug("fetch list skipped: no token")
		return []model.Notification{}
	}

	var list api.NotificationList
	if err := r.client.Get(ctx, api.PathMyNotifications, &list); err != nil {
		r.logFailure("fetch list failed", err, zap.String("user", userID))
		return []model.Notification{}
	}

	items := list.ToModels()
	if r.cache != nil && userID != "" {
		if err := r.cache.ReplaceNotifications(ctx, userID, items); err != nil {
			r.logger.Warn("caching list failed", zap.Error(err))
		}
	}
	return items
}

// FetchStats returns the user's counters. Without a token, or on any
// failure, it returns zero counters rather than stale ones.
func (r *Repository) FetchStats(ctx context.Context, userID string) model.Stats {
	if !r.client.HasToken() {
		r.logger.Debug("fetch stats skipped: no token")
		return model.Stats{}
	}

	var dto api.StatsDTO
	if err := r.client.Get(ctx, api.PathStats, &dto); err != nil {
		r.logFailure("fetch stats failed", err, zap.String("user", userID))
		return model.Stats{}
	}

	stats := model.Stats{Total: dto.Total, Unread: dto.Unread}
	if r.cache != nil && userID != "" {
		if err := r.cache.SaveStats(ctx, userID, stats); err != nil {
			r.logger.Warn("caching stats failed", zap.Error(err))
		}
	}
	return stats
}

// ErrNoToken is returned by mutations attempted without a session token.
var ErrNoToken = errors.New("no auth token")

// MarkAsRead flags id as read on the server. The caller reflects the
// change locally and re-pulls stats on success. Errors are logged and
// returned for the caller to decide; they never carry partial state.
func (r *Repository) MarkAsRead(ctx context.Context, userID, id string) error {
	if !r.client.HasToken() {
		r.logger.Debug("mark read skipped: no token", zap.String("id", id))
		return ErrNoToken
	}

	if err := r.client.Put(ctx, api.MarkReadPath(id), nil, nil); err != nil {
		r.logFailure("mark read failed", err, zap.String("id", id))
		return fmt.Errorf("marking %s read: %w", id, err)
	}

	if r.cache != nil && userID != "" {
		if err := r.cache.MarkNotificationRead(ctx, userID, id); err != nil {
			r.logger.Warn("caching read flag failed", zap.String("id", id), zap.Error(err))
		}
	}
	return nil
}

// MarkAllAsRead marks each id in turn and returns the ids that succeeded.
// It keeps going past failures and returns them joined.
func (r *Repository) MarkAllAsRead(ctx context.Context, userID string, ids []string) ([]string, error) {
	var (
		done []string
		errs []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := r.MarkAsRead(ctx, userID, id); err != nil {
			errs = append(errs, err)
			if errors.Is(err, ErrNoToken) {
				break
			}
			continue
		}
		done = append(done, id)
	}
	return done, errors.Join(errs...)
}

// Cached returns the last persisted list and stats for userID, for a
// warm start before the first fetch completes.
func (r *Repository) Cached(ctx context.Context, userID string) ([]model.Notification, model.Stats, bool) {
	if r.cache == nil || userID == "" {
		return nil, model.Stats{}, false
	}

	list, err := r.cache.GetNotifications(ctx, userID, 0)
	if err != nil {
		r.logger.Warn("reading cached list failed", zap.Error(err))
		return nil, model.Stats{}, false
	}
	stats, ok, err := r.cache.GetStats(ctx, userID)
	if err != nil {
		r.logger.Warn("reading cached stats failed", zap.Error(err))
		return nil, model.Stats{}, false
	}
	if !ok && len(list) == 0 {
		return nil, model.Stats{}, false
	}
	return list, stats, true
}

func (r *Repository) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if errors.Is(err, context.Canceled) {
		r.logger.Debug(msg, fields...)
		return
	}
	if api.IsAuthError(err) {
		fields = append(fields, zap.Bool("auth", true))
	}
	r.logger.Warn(msg, fields...)
}
