package progress

import (
	"sync"

	"github.com/MrHaila/kantama/pkg/core"
)

// subscriberBuffer is the channel depth handed to each subscriber.
const subscriberBuffer = 100

// Emitter broadcasts pipeline events to subscribers. A nil *Emitter is
// valid and drops everything, so components can emit unconditionally.
type Emitter struct {
	mu   sync.RWMutex
	subs []chan core.Event
}

// NewEmitter creates an emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Subscribe returns a channel for receiving pipeline events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (e *Emitter) Subscribe() <-chan core.Event {
	ch := make(chan core.Event, subscriberBuffer)
	e.mu.Lock()
	e.subs = append(e.subs, ch)
	e.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Subscribe.
// The channel is not closed; callers must stop reading before calling
// Unsubscribe. After Unsubscribe returns, no further events are sent.
func (e *Emitter) Unsubscribe(ch <-chan core.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, sub := range e.subs {
		if sub == ch {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			return
		}
	}
}

// Emit broadcasts an event to all subscribers. Slow consumers never block
// the pipeline: events are dropped when a subscriber's buffer is full.
func (e *Emitter) Emit(ev core.Event) {
	if e == nil {
		return
	}

	e.mu.RLock()
	// Copy the slice so a concurrent Subscribe cannot race the iteration.
	subs := make([]chan core.Event, len(e.subs))
	copy(subs, e.subs)
	e.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			// Drop if full.
		}
	}
}
