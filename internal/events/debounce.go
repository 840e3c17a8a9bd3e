package events

import (
	"sync"
	"time"
)

// DefaultDebounce is the coalescing window used when none is configured.
const DefaultDebounce = 250 * time.Millisecond

// Debouncer coalesces bursts of changes per session into one event that is
// forwarded once the session has been quiet for the window.
type Debouncer struct {
	next   Publisher
	window time.Duration

	mu      sync.Mutex
	pending map[string]*pendingChange
	closed  bool
}

type pendingChange struct {
	ev    SessionChanged
	seen  map[string]struct{}
	timer *time.Timer
}

// NewDebouncer forwards coalesced events to next. A non-positive window
// falls back to DefaultDebounce.
func NewDebouncer(next Publisher, window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Debouncer{
		next:    next,
		window:  window,
		pending: make(map[string]*pendingChange),
	}
}

// Publish merges ev into the pending change of its session and restarts
// the quiet timer. Mixed kinds collapse to KindRefresh.
func (d *Debouncer) Publish(ev SessionChanged) {
	if ev.SessionID == "" || ev.Kind == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	p, ok := d.pending[ev.SessionID]
	if !ok {
		p = &pendingChange{
			ev:   SessionChanged{SessionID: ev.SessionID, Kind: ev.Kind},
			seen: make(map[string]struct{}),
		}
		d.pending[ev.SessionID] = p
		sessionID := ev.SessionID
		p.timer = time.AfterFunc(d.window, func() { d.flush(sessionID) })
	} else {
		p.timer.Reset(d.window)
	}

	if p.ev.Kind != ev.Kind {
		p.ev.Kind = KindRefresh
	}
	for _, id := range ev.IDs {
		if _, dup := p.seen[id]; dup {
			continue
		}
		p.seen[id] = struct{}{}
		p.ev.IDs = append(p.ev.IDs, id)
	}
	p.ev.At = ev.At
}

func (d *Debouncer) flush(sessionID string) {
	d.mu.Lock()
	p, ok := d.pending[sessionID]
	if ok {
		delete(d.pending, sessionID)
	}
	d.mu.Unlock()

	if ok {
		d.next.Publish(p.ev)
	}
}

// Close forwards whatever is pending and drops later events.
func (d *Debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	pending := d.pending
	d.pending = make(map[string]*pendingChange)
	d.mu.Unlock()

	for _, p := range pending {
		p.timer.Stop()
		d.next.Publish(p.ev)
	}
}
