package socket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/nhle/learnbell/internal/model"
)

// Options tunes a Manager.
type Options struct {
	// URL is the socket endpoint (ws:// or wss://).
	URL string

	// ConnectTimeout bounds each dial attempt.
	ConnectTimeout time.Duration

	// ReconnectDelay is the base of the linear retry schedule.
	ReconnectDelay time.Duration

	// MaxReconnectAttempts is the number of retries after the first
	// failed attempt before the manager settles at StatusError. A
	// connection that drops before StableAfter counts as a failed attempt.
	MaxReconnectAttempts int

	// StableAfter is how long a connection must stay up before a drop
	// starts a fresh retry budget.
	StableAfter time.Duration
}

// Manager owns exactly one live connection for one user session.
// It is safe for concurrent use. A Manager is single-use: after Close
// it never connects again.
type Manager struct {
	dialer Dialer
	opts   Options
	logger *zap.Logger

	mu       sync.Mutex
	status   model.ConnectionStatus
	onPush   func(model.PushEvent)
	onStatus func(model.ConnectionStatus)
	userID   string
	token    string
	conn     Conn
	cancel   context.CancelFunc
	running  bool
	closed   bool
	connects int
}

// NewManager creates an idle manager. Zero option values fall back to
// a 10s connect timeout, a 1s reconnect delay and a stability window of
// ten reconnect delays.
func NewManager(d Dialer, opts Options, logger *zap.Logger) *Manager {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if opts.StableAfter <= 0 {
		opts.StableAfter = 10 * opts.ReconnectDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		dialer: d,
		opts:   opts,
		logger: logger.Named("socket"),
		status: model.StatusIdle,
	}
}

// OnNotification sets the single handler for "newNotification" events,
// replacing any previous one. The handler runs on the read goroutine.
func (m *Manager) OnNotification(fn func(model.PushEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.onPush = fn
	}
}

// OnStatusChange sets the single status observer.
func (m *Manager) OnStatusChange(fn func(model.ConnectionStatus)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.onStatus = fn
	}
}

// Status returns the current connection status.
func (m *Manager) Status() model.ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Connect starts the connection cycle for userID. It does nothing when
// userID is empty, when a cycle is already running, or after Close.
func (m *Manager) Connect(userID, token string) {
	if userID == "" {
		m.logger.Debug("connect skipped: no user id")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.running {
		return
	}
	m.userID = userID
	m.token = token
	m.startLocked()
}

// Reconnect restarts the cycle after it settled at StatusError.
func (m *Manager) Reconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.running || m.userID == "" {
		return
	}
	m.logger.Info("manual reconnect requested")
	m.startLocked()
}

// Close detaches the handlers and closes the transport. It is
// idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.onPush = nil
	m.onStatus = nil
	m.status = model.StatusIdle
	cancel := m.cancel
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	m.logger.Debug("socket closed by client")
}

func (m *Manager) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	go m.run(ctx, m.userID, m.token)
}

// run drives one reconnect cycle. Every attempt, whether the dial fails
// or the connection drops before it became stable, consumes one retry
// from the same linear schedule. A stable connection refills the budget.
// run only returns on client teardown or after retries are exhausted.
func (m *Manager) run(ctx context.Context, userID, token string) {
	policy := newReconnectPolicy(ctx, m.opts.ReconnectDelay, m.opts.MaxReconnectAttempts)
	attempt := 0

	for {
		attempt++
		stable, err := m.connectOnce(ctx, userID, token)
		if ctx.Err() != nil {
			m.finish("")
			return
		}
		if errors.Is(err, ErrUnauthorized) {
			m.logger.Error("socket handshake rejected, not retrying",
				zap.String("user_id", userID), zap.Error(err))
			m.finish(model.StatusError)
			return
		}
		if stable {
			policy.Reset()
			attempt = 0
		}

		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			m.logger.Error("socket connect failed, giving up",
				zap.String("user_id", userID),
				zap.Int("max_reconnect_attempts", m.opts.MaxReconnectAttempts),
				zap.Error(err),
			)
			m.finish(model.StatusError)
			return
		}
		m.logger.Warn("socket connect error, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.finish("")
			return
		case <-timer.C:
		}
	}
}

// connectOnce makes one attempt: dial, register, then read until the
// connection ends. stable reports whether the connection stayed up for
// at least StableAfter.
func (m *Manager) connectOnce(ctx context.Context, userID, token string) (stable bool, err error) {
	m.setStatus(model.StatusConnecting)

	conn, err := m.dial(ctx, token)
	if err != nil {
		return false, err
	}

	reconnected, ok := m.attach(conn)
	if !ok {
		_ = conn.Close()
		return false, context.Canceled
	}

	// Registration is per physical connection; the server forgets it
	// on every drop.
	if err := m.register(conn, userID); err != nil {
		m.logger.Warn("register failed", zap.String("user_id", userID), zap.Error(err))
		m.detach(conn)
		_ = conn.Close()
		m.setStatus(model.StatusDisconnected)
		return false, err
	}
	if reconnected {
		m.logger.Info("reconnected, registration re-sent", zap.String("user_id", userID))
	} else {
		m.logger.Info("connected", zap.String("user_id", userID))
	}
	m.setStatus(model.StatusConnected)
	connectedAt := time.Now()

	err = m.readLoop(conn)
	m.detach(conn)
	_ = conn.Close()
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	uptime := time.Since(connectedAt)
	m.logger.Warn("socket disconnected by server",
		zap.Duration("uptime", uptime), zap.Error(err))
	m.setStatus(model.StatusDisconnected)
	return uptime >= m.opts.StableAfter, err
}

// dial makes a single attempt bounded by ConnectTimeout.
func (m *Manager) dial(ctx context.Context, token string) (Conn, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, m.opts.ConnectTimeout)
	defer cancel()
	return m.dialer.Dial(attemptCtx, m.opts.URL, token)
}

func (m *Manager) register(conn Conn, userID string) error {
	env, err := NewEnvelope(EventRegister, RegisterPayload{UserID: userID})
	if err != nil {
		return err
	}
	return conn.WriteEnvelope(env)
}

func (m *Manager) readLoop(conn Conn) error {
	for {
		env, err := conn.ReadEnvelope()
		if err != nil {
			return err
		}

		switch env.Event {
		case EventNewNotification:
			var ev model.PushEvent
			if err := json.Unmarshal(env.Data, &ev); err != nil {
				m.logger.Warn("malformed push payload", zap.Error(err))
				continue
			}
			m.dispatch(ev)
		default:
			m.logger.Debug("ignoring socket event", zap.String("event", env.Event))
		}
	}
}

func (m *Manager) dispatch(ev model.PushEvent) {
	m.mu.Lock()
	fn := m.onPush
	m.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (m *Manager) attach(conn Conn) (reconnected bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, false
	}
	m.conn = conn
	m.connects++
	return m.connects > 1, true
}

func (m *Manager) detach(conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == conn {
		m.conn = nil
	}
}

// setStatus records s and notifies the observer outside the lock.
func (m *Manager) setStatus(s model.ConnectionStatus) {
	m.mu.Lock()
	if m.closed || m.status == s {
		m.mu.Unlock()
		return
	}
	m.status = s
	fn := m.onStatus
	m.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

// finish marks the cycle as stopped, optionally settling at s.
func (m *Manager) finish(s model.ConnectionStatus) {
	m.mu.Lock()
	m.running = false
	var fn func(model.ConnectionStatus)
	if s != "" && !m.closed && m.status != s {
		m.status = s
		fn = m.onStatus
	}
	m.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}
