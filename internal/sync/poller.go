package sync

import (
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ChangedMsg is a tea.Msg sent when the notification read model may
// have changed and the UI should re-read it.
type ChangedMsg struct{}

// Source is the read model the poller watches.
type Source interface {
	Updates() <-chan struct{}
	ExpireToasts(now time.Time) bool
	Refresh()
}

// defaultTick is how often expired toasts are pruned.
const defaultTick = 500 * time.Millisecond

// Poller bridges a Source into the Bubble Tea runtime: change signals
// become ChangedMsg, toasts are expired on a ticker, and list and stats
// are optionally re-pulled on a fixed interval.
type Poller struct {
	src          Source
	tick         time.Duration
	pollInterval time.Duration
	resultCh     chan ChangedMsg
	stopCh       chan struct{}
	mu           gosync.Mutex
	running      bool
}

// New creates a Poller. A zero tick uses 500ms; a zero pollInterval
// disables periodic refresh.
func New(src Source, tick, pollInterval time.Duration) *Poller {
	if tick <= 0 {
		tick = defaultTick
	}
	return &Poller{
		src:          src,
		tick:         tick,
		pollInterval: pollInterval,
		resultCh:     make(chan ChangedMsg, 1),
		stopCh:       make(chan struct{}),
	}
}

// Start returns a tea.Cmd that starts the background loop and subscribes
// to its results.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the background loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	var poll <-chan time.Time
	if p.pollInterval > 0 {
		pollTicker := time.NewTicker(p.pollInterval)
		defer pollTicker.Stop()
		poll = pollTicker.C
	}

	updates := p.src.Updates()
	for {
		select {
		case <-p.stopCh:
			return
		case <-updates:
			p.sendResult()
		case now := <-ticker.C:
			// The source signals Updates itself when something expired.
			p.src.ExpireToasts(now)
		case <-poll:
			p.src.Refresh()
		}
	}
}

// sendResult queues a ChangedMsg without blocking. One pending message
// is enough since the UI re-reads the whole snapshot.
func (p *Poller) sendResult() {
	select {
	case p.resultCh <- ChangedMsg{}:
	default:
	}
}

// waitForResult returns a tea.Cmd that waits for the next change.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-p.resultCh:
			return msg
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next change.
// Call it after handling a ChangedMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
