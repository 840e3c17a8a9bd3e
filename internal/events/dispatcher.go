// Package events fans session change notifications out to subscribers
// such as the SSE endpoint.
package events

import (
	"context"
	"sync"
	"time"
)

// Kind classifies a change.
type Kind string

const (
	KindAdded    Kind = "added"
	KindUpdated  Kind = "updated"
	KindMoved    Kind = "moved"
	KindDeleted  Kind = "deleted"
	KindMeta     Kind = "meta"
	KindSettings Kind = "settings"
	// KindRefresh tells subscribers to refetch the whole session.
	KindRefresh Kind = "refresh"
)

// SettingsSession is the pseudo session settings changes are published on.
const SettingsSession = "*"

// SessionChanged is published after a successful write.
type SessionChanged struct {
	SessionID string    `json:"sessionId"`
	Kind      Kind      `json:"kind"`
	IDs       []string  `json:"ids,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher accepts change notifications.
type Publisher interface {
	Publish(SessionChanged)
}

// Dispatcher delivers events to the subscribers of a session. Slow
// subscribers lose events instead of blocking publishers.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*subscriber
	nextID      int64
	bufferSize  int
}

type subscriber struct {
	id     int64
	stream chan SessionChanged
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		subscribers: make(map[string]map[int64]*subscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a stream for sessionID. The stream is released when
// ctx is done or the returned cancel func is called, whichever comes first.
// Settings changes are delivered to every subscriber.
func (d *Dispatcher) Subscribe(ctx context.Context, sessionID string) (<-chan SessionChanged, func()) {
	if sessionID == "" {
		ch := make(chan SessionChanged)
		close(ch)
		return ch, func() {}
	}
	sub := &subscriber{
		id:     d.nextSequence(),
		stream: make(chan SessionChanged, d.bufferSize),
	}
	d.register(sessionID, sub)

	var once sync.Once
	cleanup := func() {
		once.Do(func() { d.unregister(sessionID, sub.id) })
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return sub.stream, cleanup
}

func (d *Dispatcher) Publish(ev SessionChanged) {
	if ev.SessionID == "" || ev.Kind == "" {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	d.mu.RLock()
	var targets []*subscriber
	if ev.SessionID == SettingsSession {
		for _, subs := range d.subscribers {
			for _, s := range subs {
				targets = append(targets, s)
			}
		}
	} else {
		for _, s := range d.subscribers[ev.SessionID] {
			targets = append(targets, s)
		}
	}
	d.mu.RUnlock()

	for _, s := range targets {
		select {
		case s.stream <- ev:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions for sessionID.
func (d *Dispatcher) Subscribers(sessionID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers[sessionID])
}

func (d *Dispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *Dispatcher) register(sessionID string, s *subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[sessionID]; !ok {
		d.subscribers[sessionID] = make(map[int64]*subscriber)
	}
	d.subscribers[sessionID][s.id] = s
}

func (d *Dispatcher) unregister(sessionID string, id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	subs := d.subscribers[sessionID]
	if subs == nil {
		return
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(d.subscribers, sessionID)
	}
}
