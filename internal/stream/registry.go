// FilePath: internal/stream/registry.go

// Package stream implements the live-update fan-out for dashboard clients.
// The registry owns the set of open subscriber sinks; handlers never touch
// the collection directly.
package stream

import (
	"encoding/json"
	"sync"

	"github.com/smartir/hub/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

// ConnectedEvent is the first frame every subscriber receives, so a client
// can tell "connected, nothing happened yet" from a stalled connection.
type ConnectedEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Registry tracks currently-connected live subscribers and broadcasts
// serialized events to all of them. All methods are safe for concurrent use.
//
// Delivery is best-effort: a subscriber whose buffer is full is considered
// dead and is dropped, and per-sink failures never reach the broadcaster.
type Registry struct {
	mu         sync.Mutex
	subs       map[string]chan []byte
	bufferSize int
}

// NewRegistry creates a registry whose subscribers each get a queue of
// bufferSize pending events.
func NewRegistry(bufferSize int) *Registry {
	if bufferSize < 1 {
		bufferSize = 32
	}
	return &Registry{
		subs:       make(map[string]chan []byte),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a new sink and returns its id and receive channel.
// The connected acknowledgment is already queued on the channel when
// Subscribe returns, so it precedes any broadcast.
func (r *Registry) Subscribe() (string, <-chan []byte) {
	id := nuts.NID("sub", 12)
	ch := make(chan []byte, r.bufferSize)

	ack, _ := json.Marshal(ConnectedEvent{Type: "connected", Message: "SSE Connected"})
	ch <- ack

	r.mu.Lock()
	r.subs[id] = ch
	total := len(r.subs)
	r.mu.Unlock()

	nuts.L.Infof("[Stream] Subscriber %s connected (%d total)", id, total)
	return id, ch
}

// Unsubscribe removes and closes the sink. Calling it twice, or with an id
// that was already pruned by a failed broadcast, is a no-op.
func (r *Registry) Unsubscribe(id string) {
	r.mu.Lock()
	ch, ok := r.subs[id]
	if ok {
		delete(r.subs, id)
		close(ch)
	}
	total := len(r.subs)
	r.mu.Unlock()

	if ok {
		nuts.L.Infof("[Stream] Subscriber %s disconnected (%d total)", id, total)
	}
}

// Broadcast serializes event once and queues it on every subscriber.
// Subscribers that cannot accept the event (queue full, reader gone) are
// dropped; their loss is never surfaced to the caller. The only returned
// error is a serialization failure.
//
// The membership lock is held only across non-blocking channel sends; the
// actual network write happens in each subscriber's own handler goroutine.
func (r *Registry) Broadcast(event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.NewInternalError("failed to encode broadcast event", err)
	}

	var dropped []string
	r.mu.Lock()
	for id, ch := range r.subs {
		select {
		case ch <- payload:
		default:
			// Subscriber is not draining its queue; treat as dead.
			delete(r.subs, id)
			close(ch)
			dropped = append(dropped, id)
		}
	}
	r.mu.Unlock()

	for _, id := range dropped {
		nuts.L.Warnf("[Stream] Dropped stalled subscriber %s", id)
	}
	return nil
}

// Count returns the number of currently-registered subscribers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
