package bell_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/learnbell/internal/api"
	"github.com/nhle/learnbell/internal/bell"
	"github.com/nhle/learnbell/internal/model"
	"github.com/nhle/learnbell/internal/repository"
	"github.com/nhle/learnbell/internal/socket"
	"github.com/nhle/learnbell/internal/socket/sockettest"
)

const (
	wait = 2 * time.Second
	tick = 5 * time.Millisecond
)

// server is a fake REST backend. Its list and stats can change mid-test.
type server struct {
	mu         sync.Mutex
	list       []api.NotificationDTO
	stats      api.StatsDTO
	markFails  bool
	listGate   chan struct{}
	listCalls  int
	statsCalls int
	marked     []string
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == api.PathMyNotifications:
		s.mu.Lock()
		s.listCalls++
		gate := s.listGate
		s.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		s.mu.Lock()
		body, _ := json.Marshal(s.list)
		s.mu.Unlock()
		_, _ = w.Write(body)
	case r.URL.Path == api.PathStats:
		s.mu.Lock()
		s.statsCalls++
		body, _ := json.Marshal(s.stats)
		s.mu.Unlock()
		_, _ = w.Write(body)
	case strings.HasPrefix(r.URL.Path, "/notifications/mark-read/"):
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.markFails {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		s.marked = append(s.marked, strings.TrimPrefix(r.URL.Path, "/notifications/mark-read/"))
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (s *server) set(fn func(s *server)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *server) counts() (list, stats int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls, s.statsCalls
}

func (s *server) markedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.marked...)
}

type harness struct {
	center *bell.Center
	srv    *server
	dialer *sockettest.Dialer
}

func newHarness(t *testing.T, opts bell.Options) *harness {
	t.Helper()
	srv := &server{}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	dialer := sockettest.NewDialer()
	logger := zap.NewNop()
	c := bell.NewCenter(bell.Deps{
		NewRepository: func(s model.Session) bell.Repository {
			return repository.New(api.NewClient(ts.URL, s.Token, time.Second), nil, logger)
		},
		NewSocket: func() bell.Socket {
			return socket.NewManager(dialer, socket.Options{
				URL:                  "ws://lms.test/ws",
				ConnectTimeout:       time.Second,
				ReconnectDelay:       time.Millisecond,
				MaxReconnectAttempts: 1,
			}, logger)
		},
	}, opts, logger)
	t.Cleanup(c.Stop)

	return &harness{center: c, srv: srv, dialer: dialer}
}

func user(id string) model.Session {
	return model.Session{Token: "tok-" + id, UserID: id}
}

func registeredUser(t *testing.T, conn *sockettest.Conn) string {
	t.Helper()
	env := conn.WaitWrite(t, wait)
	require.Equal(t, socket.EventRegister, env.Event)
	var p socket.RegisterPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p.UserID
}

func TestCenter_StartFetchesAndConnects(t *testing.T) {
	h := newHarness(t, bell.Options{})
	h.srv.set(func(s *server) {
		s.list = []api.NotificationDTO{{MongoID: "a", Title: "Welcome"}}
		s.stats = api.StatsDTO{Total: 1, Unread: 1}
	})

	h.center.Start(user("u1"))
	conn := h.dialer.WaitConn(t, wait)
	assert.Equal(t, "u1", registeredUser(t, conn))

	assert.Eventually(t, func() bool {
		snap := h.center.Snapshot()
		return snap.Status == model.StatusConnected &&
			len(snap.Notifications) == 1 &&
			snap.Stats.Unread == 1 &&
			!snap.Loading
	}, wait, tick)
	assert.Equal(t, []string{"tok-u1"}, h.dialer.Tokens())
}

func TestCenter_PushIsListedToastedAndRefetched(t *testing.T) {
	h := newHarness(t, bell.Options{})

	h.center.Start(user("u1"))
	conn := h.dialer.WaitConn(t, wait)
	registeredUser(t, conn)
	assert.Eventually(t, func() bool {
		list, stats := h.srv.counts()
		return list == 1 && stats == 1
	}, wait, tick)

	// The server knows about the notification by the time it refetches.
	h.srv.set(func(s *server) {
		s.list = []api.NotificationDTO{{MongoID: "n1", Title: "Hi", Message: "Test"}}
		s.stats = api.StatsDTO{Total: 1, Unread: 1}
	})
	conn.PushNotification(t, map[string]string{"id": "n1", "title": "Hi", "message": "Test"})

	assert.Eventually(t, func() bool {
		list, stats := h.srv.counts()
		return list == 2 && stats == 2
	}, wait, tick)
	assert.Eventually(t, func() bool {
		snap := h.center.Snapshot()
		return len(snap.Notifications) == 1 && snap.Stats.Unread == 1
	}, wait, tick)

	snap := h.center.Snapshot()
	assert.Equal(t, "n1", snap.Notifications[0].ID)
	assert.False(t, snap.Notifications[0].IsRead)
	require.Len(t, snap.Toasts, 1)
	assert.Equal(t, "n1", snap.Toasts[0].ID)
}

func TestCenter_DuplicatePushesShowOneToast(t *testing.T) {
	h := newHarness(t, bell.Options{RefreshDebounce: time.Hour})

	h.center.Start(user("u1"))
	conn := h.dialer.WaitConn(t, wait)
	registeredUser(t, conn)
	assert.Eventually(t, func() bool { return !h.center.Snapshot().Loading }, wait, tick)

	for i := 0; i < 2; i++ {
		conn.PushNotification(t, map[string]string{"id": "n4", "title": "A", "message": "B"})
	}
	conn.PushNotification(t, map[string]string{"id": "n3"})
	conn.PushNotification(t, map[string]string{"id": "marker", "title": "last"})

	assert.Eventually(t, func() bool { return len(h.center.Snapshot().Notifications) == 2 }, wait, tick)
	snap := h.center.Snapshot()
	assert.Equal(t, "marker", snap.Notifications[0].ID)
	assert.Equal(t, "n4", snap.Notifications[1].ID)
	assert.Len(t, snap.Toasts, 2)
}

func TestCenter_DebounceCoalescesRefetches(t *testing.T) {
	h := newHarness(t, bell.Options{RefreshDebounce: 50 * time.Millisecond})

	h.center.Start(user("u1"))
	conn := h.dialer.WaitConn(t, wait)
	registeredUser(t, conn)
	assert.Eventually(t, func() bool {
		list, _ := h.srv.counts()
		return list == 1
	}, wait, tick)

	for _, id := range []string{"a", "b", "c"} {
		conn.PushNotification(t, map[string]string{"id": id, "title": id})
	}

	assert.Eventually(t, func() bool {
		list, stats := h.srv.counts()
		return list == 2 && stats == 2
	}, wait, tick)
	time.Sleep(150 * time.Millisecond)
	list, _ := h.srv.counts()
	assert.Equal(t, 2, list)
}

func TestCenter_StatsComeFromServerAfterMarkRead(t *testing.T) {
	h := newHarness(t, bell.Options{})
	h.srv.set(func(s *server) {
		s.list = []api.NotificationDTO{{MongoID: "n1", Title: "Unread"}}
		s.stats = api.StatsDTO{Total: 9, Unread: 7}
	})

	h.center.Start(user("u1"))
	assert.Eventually(t, func() bool { return h.center.Snapshot().Stats.Unread == 7 }, wait, tick)
	assert.Eventually(t, func() bool { return len(h.center.Snapshot().Notifications) == 1 }, wait, tick)

	// Elsewhere, more notifications arrived; the badge must follow the
	// server, not a local decrement.
	h.srv.set(func(s *server) { s.stats = api.StatsDTO{Total: 12, Unread: 10} })

	require.True(t, h.center.ViewNotification("n1"))
	snap := h.center.Snapshot()
	assert.True(t, snap.DetailOpen)
	assert.Equal(t, "n1", snap.Selected.ID)

	assert.Eventually(t, func() bool {
		snap := h.center.Snapshot()
		return snap.Stats.Unread == 10 && snap.Notifications[0].IsRead && snap.Selected.IsRead
	}, wait, tick)
	assert.Equal(t, []string{"n1"}, h.srv.markedIDs())
}

func TestCenter_MarkReadFailureLeavesListUntouched(t *testing.T) {
	h := newHarness(t, bell.Options{})
	h.srv.set(func(s *server) {
		s.list = []api.NotificationDTO{{MongoID: "n1", Title: "Unread"}}
		s.stats = api.StatsDTO{Total: 1, Unread: 1}
		s.markFails = true
	})

	h.center.Start(user("u1"))
	assert.Eventually(t, func() bool {
		snap := h.center.Snapshot()
		return len(snap.Notifications) == 1 && snap.Stats.Unread == 1
	}, wait, tick)
	_, statsBefore := h.srv.counts()

	require.True(t, h.center.ViewNotification("n1"))
	time.Sleep(100 * time.Millisecond)

	snap := h.center.Snapshot()
	assert.False(t, snap.Notifications[0].IsRead)
	assert.Equal(t, 1, snap.Stats.Unread)
	_, statsAfter := h.srv.counts()
	assert.Equal(t, statsBefore, statsAfter)
}

func TestCenter_ViewUnknownID(t *testing.T) {
	h := newHarness(t, bell.Options{})

	assert.False(t, h.center.ViewNotification("n1"))
	h.center.Start(user("u1"))
	assert.False(t, h.center.ViewNotification("missing"))
	assert.False(t, h.center.Snapshot().DetailOpen)
}

func TestCenter_OpenDropdownRefreshesList(t *testing.T) {
	h := newHarness(t, bell.Options{})

	h.center.Start(user("u1"))
	assert.Eventually(t, func() bool {
		list, _ := h.srv.counts()
		return list == 1
	}, wait, tick)

	h.center.OpenDropdown()
	assert.True(t, h.center.Snapshot().DropdownOpen)
	h.center.CloseDropdown()
	h.center.OpenDropdown()

	assert.Eventually(t, func() bool {
		list, _ := h.srv.counts()
		return list == 3
	}, wait, tick)
}

func TestCenter_LateResultsDiscardedAfterStop(t *testing.T) {
	h := newHarness(t, bell.Options{})
	gate := make(chan struct{})
	h.srv.set(func(s *server) {
		s.list = []api.NotificationDTO{{MongoID: "late", Title: "Too late"}}
		s.listGate = gate
	})

	h.center.Start(user("u1"))
	assert.Eventually(t, func() bool {
		list, _ := h.srv.counts()
		return list == 1
	}, wait, tick)

	h.center.Stop()
	close(gate)
	time.Sleep(50 * time.Millisecond)

	snap := h.center.Snapshot()
	assert.Empty(t, snap.Notifications)
	assert.Equal(t, model.StatusIdle, snap.Status)
	assert.Empty(t, snap.UserID)
}

func TestCenter_SetUserReRegisters(t *testing.T) {
	h := newHarness(t, bell.Options{})

	h.center.SetUser(user("u1"))
	first := h.dialer.WaitConn(t, wait)
	assert.Equal(t, "u1", registeredUser(t, first))

	// Same identity is a no-op.
	h.center.SetUser(user("u1"))

	h.center.SetUser(user("u2"))
	second := h.dialer.WaitConn(t, wait)
	assert.Equal(t, "u2", registeredUser(t, second))
	assert.True(t, first.Closed())

	// Events on the old connection never reach the new session.
	first.PushNotification(t, map[string]string{"id": "stale", "title": "old"})
	second.PushNotification(t, map[string]string{"id": "fresh", "title": "new"})
	assert.Eventually(t, func() bool {
		for _, n := range h.center.Snapshot().Notifications {
			if n.ID == "fresh" {
				return true
			}
		}
		return false
	}, wait, tick)
	for _, n := range h.center.Snapshot().Notifications {
		assert.NotEqual(t, "stale", n.ID)
	}
	assert.Equal(t, "u2", h.center.Snapshot().UserID)
}

func TestCenter_StatusErrorThenReconnect(t *testing.T) {
	h := newHarness(t, bell.Options{})
	h.dialer.FailAlways(sockettest.ErrRefused)

	h.center.Start(user("u1"))
	assert.Eventually(t, func() bool { return h.center.Snapshot().Status == model.StatusError }, wait, tick)
	assert.Equal(t, 2, h.dialer.Attempts())

	h.dialer.Recover()
	h.center.Reconnect()
	conn := h.dialer.WaitConn(t, wait)
	registeredUser(t, conn)
	assert.Eventually(t, func() bool { return h.center.Snapshot().Status == model.StatusConnected }, wait, tick)
}

func TestCenter_MarkAllAsRead(t *testing.T) {
	h := newHarness(t, bell.Options{})
	h.srv.set(func(s *server) {
		s.list = []api.NotificationDTO{
			{MongoID: "a", Title: "A"},
			{MongoID: "b", Title: "B", IsRead: true},
			{MongoID: "c", Title: "C"},
		}
		s.stats = api.StatsDTO{Total: 3, Unread: 2}
	})

	h.center.Start(user("u1"))
	assert.Eventually(t, func() bool { return len(h.center.Snapshot().Notifications) == 3 }, wait, tick)
	h.srv.set(func(s *server) { s.stats = api.StatsDTO{Total: 3} })

	h.center.MarkAllAsRead()

	assert.Eventually(t, func() bool {
		snap := h.center.Snapshot()
		if snap.Stats.Unread != 0 {
			return false
		}
		for _, n := range snap.Notifications {
			if !n.IsRead {
				return false
			}
		}
		return true
	}, wait, tick)
	assert.ElementsMatch(t, []string{"a", "c"}, h.srv.markedIDs())
}

func TestCenter_UpdatesSignal(t *testing.T) {
	h := newHarness(t, bell.Options{})

	h.center.Start(user("u1"))
	select {
	case <-h.center.Updates():
	case <-time.After(wait):
		t.Fatal("no update after start")
	}
}
