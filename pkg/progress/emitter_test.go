package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrHaila/kantama/pkg/core"
)

func TestEmitter_DeliversToSubscriber(t *testing.T) {
	e := NewEmitter()
	ch := e.Subscribe()

	e.Emit(&core.RunStarted{RunID: "run-1", Total: 42, Timestamp: time.Now()})

	select {
	case ev := <-ch:
		started, ok := ev.(*core.RunStarted)
		require.True(t, ok)
		assert.Equal(t, "run-1", started.RunID)
		assert.Equal(t, int64(42), started.Total)
	default:
		t.Fatal("expected an event on the subscriber channel")
	}
}

func TestEmitter_NoSubscriberIsNoOp(t *testing.T) {
	e := NewEmitter()
	assert.NotPanics(t, func() {
		e.Emit(&core.RunCompleted{RunID: "run-1", Timestamp: time.Now()})
	})
}

func TestEmitter_NilReceiverIsSafe(t *testing.T) {
	var e *Emitter
	assert.NotPanics(t, func() {
		e.Emit(&core.RunFailed{RunID: "run-1", Timestamp: time.Now()})
	})
}

func TestEmitter_UnsubscribeStopsDelivery(t *testing.T) {
	e := NewEmitter()
	ch := e.Subscribe()
	e.Unsubscribe(ch)

	e.Emit(&core.StageStarted{Stage: "buckets", Timestamp: time.Now()})

	select {
	case <-ch:
		t.Fatal("unsubscribed channel must not receive events")
	default:
	}
}

func TestEmitter_DropsWhenSubscriberFull(t *testing.T) {
	e := NewEmitter()
	ch := e.Subscribe()

	// Overfill the buffer; Emit must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer+50; i++ {
			e.Emit(&core.RouteProgress{Processed: int64(i), Timestamp: time.Now()})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full subscriber")
	}

	assert.Len(t, ch, subscriberBuffer)
}

func TestEmitter_MultipleSubscribers(t *testing.T) {
	e := NewEmitter()
	a := e.Subscribe()
	b := e.Subscribe()

	e.Emit(&core.StageCompleted{Stage: "reachability", Timestamp: time.Now()})

	require.Len(t, a, 1)
	require.Len(t, b, 1)
}
