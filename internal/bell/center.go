// Package bell is the notification read model the terminal UI renders.
// A Center owns one session's socket, repository, feed and toasts, and
// exposes them as a Snapshot plus a set of commands.
package bell

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/learnbell/internal/feed"
	"github.com/nhle/learnbell/internal/model"
	"github.com/nhle/learnbell/internal/reconciler"
	"github.com/nhle/learnbell/internal/toast"
)

// Repository is the data source a Center reads through.
type Repository interface {
	FetchList(ctx context.Context, userID string) []model.Notification
	FetchStats(ctx context.Context, userID string) model.Stats
	MarkAsRead(ctx context.Context, userID, id string) error
	MarkAllAsRead(ctx context.Context, userID string, ids []string) ([]string, error)
	Cached(ctx context.Context, userID string) ([]model.Notification, model.Stats, bool)
}

// Socket is the push channel a Center listens on.
type Socket interface {
	OnNotification(fn func(model.PushEvent))
	OnStatusChange(fn func(model.ConnectionStatus))
	Connect(userID, token string)
	Reconnect()
	Close()
}

// Deps builds the per-session collaborators. Both are called once per
// Start, so a new identity never reuses a connection or a token.
type Deps struct {
	NewRepository func(s model.Session) Repository
	NewSocket     func() Socket
}

// Options tunes a Center.
type Options struct {
	ToastDuration   time.Duration
	MaxToasts       int
	RefreshDebounce time.Duration
}

// Snapshot is a consistent copy of the read model.
type Snapshot struct {
	UserID        string
	Notifications []model.Notification
	Stats         model.Stats
	Status        model.ConnectionStatus
	Toasts        []model.Toast
	DropdownOpen  bool
	DetailOpen    bool
	Selected      model.Notification
	Loading       bool
}

// session holds everything tied to one Start. Its pointer identity is
// the guard against late results from a previous session.
type session struct {
	gen    uint64
	user   model.Session
	ctx    context.Context
	cancel context.CancelFunc
	repo   Repository
	sock   Socket
	feed   *feed.Feed
	toasts *toast.Queue

	refetchTimer *time.Timer
}

// Center coordinates one user's notification pipeline. It is safe for
// concurrent use; every mutation is followed by a signal on Updates.
type Center struct {
	deps   Deps
	opts   Options
	logger *zap.Logger

	updates chan struct{}

	mu       sync.Mutex
	gen      uint64
	cur      *session
	stats    model.Stats
	status   model.ConnectionStatus
	dropdown bool
	detail   bool
	selected model.Notification
	loading  bool
}

// NewCenter creates a stopped Center.
func NewCenter(deps Deps, opts Options, logger *zap.Logger) *Center {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Center{
		deps:    deps,
		opts:    opts,
		logger:  logger.Named("bell"),
		updates: make(chan struct{}, 1),
		status:  model.StatusIdle,
	}
}

// Updates delivers a coalesced signal whenever the Snapshot may have
// changed.
func (c *Center) Updates() <-chan struct{} {
	return c.updates
}

func (c *Center) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// Start mounts a session for user: it warms the list from the cache,
// fetches list and stats, and connects the socket. A running session is
// stopped first.
func (c *Center) Start(user model.Session) {
	c.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		user:   user,
		ctx:    ctx,
		cancel: cancel,
		repo:   c.deps.NewRepository(user),
		sock:   c.deps.NewSocket(),
		feed:   feed.New(),
		toasts: toast.NewQueue(c.opts.ToastDuration, c.opts.MaxToasts),
	}
	rec := reconciler.New(s.feed, s.toasts, func() { c.scheduleRefetch(s) }, c.logger)

	if list, stats, ok := s.repo.Cached(ctx, user.UserID); ok {
		s.feed.Replace(list)
		c.mu.Lock()
		c.stats = stats
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.gen++
	s.gen = c.gen
	c.cur = s
	c.status = model.StatusIdle
	c.loading = true
	c.mu.Unlock()

	c.logger.Info("session started", zap.String("user_id", user.UserID), zap.Uint64("gen", s.gen))

	s.sock.OnStatusChange(func(st model.ConnectionStatus) {
		if !c.setStatus(s, st) {
			return
		}
		c.notify()
	})
	s.sock.OnNotification(func(ev model.PushEvent) {
		if !c.active(s) {
			return
		}
		if rec.HandlePush(ev) == reconciler.Accepted {
			c.notify()
		}
	})
	s.sock.Connect(user.UserID, user.Token)

	go c.fetchList(s)
	go c.fetchStats(s)
	c.notify()
}

// Stop tears the session down: the socket is closed, handlers are
// detached and any result still in flight is discarded. Safe to call
// repeatedly.
func (c *Center) Stop() {
	c.mu.Lock()
	s := c.cur
	if s == nil {
		c.mu.Unlock()
		return
	}
	c.cur = nil
	if s.refetchTimer != nil {
		s.refetchTimer.Stop()
	}
	c.stats = model.Stats{}
	c.status = model.StatusIdle
	c.dropdown = false
	c.detail = false
	c.selected = model.Notification{}
	c.loading = false
	c.mu.Unlock()

	s.cancel()
	s.sock.Close()
	c.logger.Info("session stopped", zap.String("user_id", s.user.UserID), zap.Uint64("gen", s.gen))
	c.notify()
}

// SetUser switches identity. The old connection is closed before the new
// one registers.
func (c *Center) SetUser(user model.Session) {
	c.mu.Lock()
	same := c.cur != nil && c.cur.user == user
	c.mu.Unlock()
	if same {
		return
	}
	c.Start(user)
}

// Snapshot returns the current read model. Expired toasts are pruned.
func (c *Center) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Stats:        c.stats,
		Status:       c.status,
		DropdownOpen: c.dropdown,
		DetailOpen:   c.detail,
		Selected:     c.selected,
		Loading:      c.loading,
	}
	if s := c.cur; s != nil {
		s.toasts.Expire(time.Now())
		snap.UserID = s.user.UserID
		snap.Notifications = s.feed.Snapshot()
		snap.Toasts = s.toasts.Visible()
	}
	return snap
}

// ExpireToasts prunes toasts whose lifetime ended and reports whether
// any were removed.
func (c *Center) ExpireToasts(now time.Time) bool {
	s := c.current()
	if s == nil {
		return false
	}
	if s.toasts.Expire(now) {
		c.notify()
		return true
	}
	return false
}

// OpenDropdown shows the list and refreshes it from the server.
func (c *Center) OpenDropdown() {
	c.mu.Lock()
	s := c.cur
	c.dropdown = true
	if s != nil && s.feed.Len() == 0 {
		c.loading = true
	}
	c.mu.Unlock()

	if s != nil {
		go c.fetchList(s)
	}
	c.notify()
}

// CloseDropdown hides the list.
func (c *Center) CloseDropdown() {
	c.mu.Lock()
	c.dropdown = false
	c.mu.Unlock()
	c.notify()
}

// ViewNotification selects id and opens its detail view. An unread
// notification is marked read in the background; the view does not
// wait for it. It reports whether id was found.
func (c *Center) ViewNotification(id string) bool {
	s := c.current()
	if s == nil {
		return false
	}
	n, ok := s.feed.Get(id)
	if !ok {
		return false
	}

	c.mu.Lock()
	c.selected = n
	c.detail = true
	c.mu.Unlock()

	if !n.IsRead {
		go c.markRead(s, id)
	}
	c.notify()
	return true
}

// CloseDetail hides the detail view.
func (c *Center) CloseDetail() {
	c.mu.Lock()
	c.detail = false
	c.selected = model.Notification{}
	c.mu.Unlock()
	c.notify()
}

// Refresh re-fetches list and stats immediately.
func (c *Center) Refresh() {
	s := c.current()
	if s == nil {
		return
	}
	go c.fetchList(s)
	go c.fetchStats(s)
}

// Reconnect restarts the socket after it gave up.
func (c *Center) Reconnect() {
	if s := c.current(); s != nil {
		s.sock.Reconnect()
	}
}

// DismissToast hides the toast for id.
func (c *Center) DismissToast(id string) {
	if s := c.current(); s != nil {
		s.toasts.Dismiss(id)
		c.notify()
	}
}

// MarkAllAsRead marks every unread notification in the list, then
// re-pulls stats.
func (c *Center) MarkAllAsRead() {
	s := c.current()
	if s == nil {
		return
	}
	ids := s.feed.Unread()
	if len(ids) == 0 {
		return
	}

	go func() {
		done, err := s.repo.MarkAllAsRead(s.ctx, s.user.UserID, ids)
		if err != nil {
			c.logger.Warn("mark all read incomplete",
				zap.Int("requested", len(ids)),
				zap.Int("done", len(done)),
				zap.Error(err),
			)
		}
		if !c.active(s) || len(done) == 0 {
			return
		}
		for _, id := range done {
			c.applyRead(s, id)
		}
		c.fetchStats(s)
	}()
}

func (c *Center) current() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *Center) active(s *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur == s
}

func (c *Center) setStatus(s *session, st model.ConnectionStatus) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != s {
		return false
	}
	c.status = st
	return true
}

// scheduleRefetch coalesces refetches requested by pushes. With a zero
// debounce every push refetches right away.
func (c *Center) scheduleRefetch(s *session) {
	refetch := func() {
		go c.fetchList(s)
		go c.fetchStats(s)
	}

	d := c.opts.RefreshDebounce
	if d <= 0 {
		refetch()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != s {
		return
	}
	if s.refetchTimer != nil {
		s.refetchTimer.Stop()
	}
	s.refetchTimer = time.AfterFunc(d, refetch)
}

// fetchList replaces the list with the server's. The authoritative list
// overwrites any pushed entries the server does not report.
func (c *Center) fetchList(s *session) {
	list := s.repo.FetchList(s.ctx, s.user.UserID)

	c.mu.Lock()
	if c.cur != s {
		c.mu.Unlock()
		c.logger.Debug("discarding late list result", zap.Uint64("gen", s.gen))
		return
	}
	s.feed.Replace(list)
	c.loading = false
	c.mu.Unlock()
	c.notify()
}

func (c *Center) fetchStats(s *session) {
	stats := s.repo.FetchStats(s.ctx, s.user.UserID)

	c.mu.Lock()
	if c.cur != s {
		c.mu.Unlock()
		c.logger.Debug("discarding late stats result", zap.Uint64("gen", s.gen))
		return
	}
	c.stats = stats
	c.mu.Unlock()
	c.notify()
}

func (c *Center) markRead(s *session, id string) {
	if err := s.repo.MarkAsRead(s.ctx, s.user.UserID, id); err != nil {
		return
	}
	if !c.applyRead(s, id) {
		return
	}
	c.fetchStats(s)
}

func (c *Center) applyRead(s *session, id string) bool {
	c.mu.Lock()
	if c.cur != s {
		c.mu.Unlock()
		return false
	}
	s.feed.MarkRead(id)
	if c.selected.ID == id {
		c.selected.IsRead = true
	}
	c.mu.Unlock()
	c.notify()
	return true
}
