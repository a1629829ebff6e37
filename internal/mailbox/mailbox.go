package mailbox

import (
	"context"
	"sync"
)

// Mailbox is an unbounded FIFO queue of events for a single client.
type Mailbox struct {
	mu       sync.Mutex
	items    []Event
	notifyCh chan struct{}
}

func newMailbox() *Mailbox {
	return &Mailbox{notifyCh: make(chan struct{})}
}

// Enqueue appends an event. It never blocks, regardless of backlog or
// whether a consumer is attached.
func (m *Mailbox) Enqueue(ev Event) {
	m.mu.Lock()
	m.items = append(m.items, ev)
	// wake waiters
	close(m.notifyCh)
	m.notifyCh = make(chan struct{})
	m.mu.Unlock()
}

// Dequeue removes and returns the oldest event, blocking until one is
// available or ctx is cancelled. On cancellation the queue is untouched.
func (m *Mailbox) Dequeue(ctx context.Context) (Event, error) {
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			ev := m.items[0]
			m.items = m.items[1:]
			m.mu.Unlock()
			return ev, nil
		}
		ch := m.notifyCh
		m.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// Len returns the number of pending events.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Registry maps client ids to mailboxes, creating them on demand.
type Registry struct {
	mu    sync.Mutex
	boxes map[string]*Mailbox
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{boxes: make(map[string]*Mailbox)}
}

// Ensure returns the client's mailbox, creating an empty one atomically on
// first reference. Publish and connect can race on a never-seen client; both
// end up with the same mailbox.
func (r *Registry) Ensure(clientID string) *Mailbox {
	r.mu.Lock()
	defer r.mu.Unlock()
	box, ok := r.boxes[clientID]
	if !ok {
		box = newMailbox()
		r.boxes[clientID] = box
	}
	return box
}

// Enqueue formats and appends an event to the client's mailbox.
func (r *Registry) Enqueue(clientID, eventType, data string) {
	r.Ensure(clientID).Enqueue(Event{Type: eventType, Data: data})
}

// Size returns the number of mailboxes currently held.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boxes)
}
