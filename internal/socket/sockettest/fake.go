// Package sockettest provides an in-memory socket transport for tests.
package sockettest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/nhle/learnbell/internal/socket"
)

// ErrRefused is the default dial failure.
var ErrRefused = errors.New("connection refused")

// Dialer hands out in-memory Conns and can be told to fail.
type Dialer struct {
	mu        sync.Mutex
	attempts  int
	failNext  int
	failAll   bool
	hang      bool
	failErr   error
	tokens    []string
	conns     []*Conn
	connected chan *Conn
}

// NewDialer returns a Dialer that succeeds by default.
func NewDialer() *Dialer {
	return &Dialer{connected: make(chan *Conn, 64)}
}

// FailNext makes the next n dials fail with err (ErrRefused when nil).
func (d *Dialer) FailNext(n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = n
	d.failErr = err
}

// FailAlways makes every dial fail until Recover is called.
func (d *Dialer) FailAlways(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failAll = true
	d.failErr = err
}

// Hang makes every dial block until its context is done, like a server
// that never answers the handshake.
func (d *Dialer) Hang() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hang = true
}

// Recover lets dials succeed again.
func (d *Dialer) Recover() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failAll = false
	d.failNext = 0
	d.hang = false
}

// Attempts returns how many times Dial was called.
func (d *Dialer) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

// Tokens returns the tokens presented on each dial.
func (d *Dialer) Tokens() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.tokens...)
}

// Dial implements socket.Dialer.
func (d *Dialer) Dial(ctx context.Context, _ string, token string) (socket.Conn, error) {
	d.mu.Lock()
	d.attempts++
	d.tokens = append(d.tokens, token)
	fail := d.failAll || d.failNext > 0
	if d.failNext > 0 {
		d.failNext--
	}
	failErr := d.failErr
	hang := d.hang
	d.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fail {
		if failErr == nil {
			failErr = ErrRefused
		}
		return nil, failErr
	}

	c := NewConn()
	d.mu.Lock()
	d.conns = append(d.conns, c)
	d.mu.Unlock()
	select {
	case d.connected <- c:
	default:
	}
	return c, nil
}

// Connected delivers each connection as it is handed out.
func (d *Dialer) Connected() <-chan *Conn {
	return d.connected
}

// WaitConn returns the next connection handed out, failing t after timeout.
func (d *Dialer) WaitConn(t testing.TB, timeout time.Duration) *Conn {
	t.Helper()
	select {
	case c := <-d.connected:
		return c
	case <-time.After(timeout):
		t.Fatalf("no connection dialed within %s", timeout)
		return nil
	}
}

// Conn is an in-memory socket.Conn. The test plays the server.
type Conn struct {
	inbox     chan socket.Envelope
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	writes  []socket.Envelope
	written chan socket.Envelope
}

// NewConn returns an open Conn.
func NewConn() *Conn {
	return &Conn{
		inbox:   make(chan socket.Envelope, 64),
		done:    make(chan struct{}),
		written: make(chan socket.Envelope, 64),
	}
}

// ReadEnvelope implements socket.Conn.
func (c *Conn) ReadEnvelope() (socket.Envelope, error) {
	select {
	case <-c.done:
		return socket.Envelope{}, io.EOF
	default:
	}
	select {
	case env := <-c.inbox:
		return env, nil
	case <-c.done:
		return socket.Envelope{}, io.EOF
	}
}

// WriteEnvelope implements socket.Conn.
func (c *Conn) WriteEnvelope(env socket.Envelope) error {
	select {
	case <-c.done:
		return io.ErrClosedPipe
	default:
	}
	c.mu.Lock()
	c.writes = append(c.writes, env)
	c.mu.Unlock()
	select {
	case c.written <- env:
	default:
	}
	return nil
}

// Close implements socket.Conn.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// Drop simulates the server closing the connection.
func (c *Conn) Drop() {
	_ = c.Close()
}

// Closed reports whether the connection was closed by either side.
func (c *Conn) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Push delivers a server event to the client.
func (c *Conn) Push(t testing.TB, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshaling %s payload: %v", event, err)
	}
	c.inbox <- socket.Envelope{Event: event, Data: raw}
}

// PushNotification delivers a "newNotification" event.
func (c *Conn) PushNotification(t testing.TB, payload interface{}) {
	t.Helper()
	c.Push(t, socket.EventNewNotification, payload)
}

// Writes returns every envelope the client sent.
func (c *Conn) Writes() []socket.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]socket.Envelope(nil), c.writes...)
}

// WaitWrite returns the next envelope the client sends.
func (c *Conn) WaitWrite(t testing.TB, timeout time.Duration) socket.Envelope {
	t.Helper()
	select {
	case env := <-c.written:
		return env
	case <-time.After(timeout):
		t.Fatalf("no write within %s", timeout)
		return socket.Envelope{}
	}
}
