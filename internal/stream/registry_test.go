// FilePath: internal/stream/registry_test.go
package stream

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

func receiveOne(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case payload, ok := <-ch:
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

func TestSubscribeQueuesConnectedAck(t *testing.T) {
	registry := NewRegistry(4)

	id, events := registry.Subscribe()
	defer registry.Unsubscribe(id)

	var ack ConnectedEvent
	if err := json.Unmarshal(receiveOne(t, events), &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if ack.Type != "connected" || ack.Message != "SSE Connected" {
		t.Errorf("ack = %+v", ack)
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	registry := NewRegistry(4)

	type frame struct {
		Sensor   string `json:"sensor"`
		Detected bool   `json:"detected"`
	}

	var channels []<-chan []byte
	for i := 0; i < 5; i++ {
		id, events := registry.Subscribe()
		defer registry.Unsubscribe(id)
		receiveOne(t, events) // drain the ack
		channels = append(channels, events)
	}

	if err := registry.Broadcast(frame{Sensor: "door-1", Detected: true}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	for i, events := range channels {
		var got frame
		if err := json.Unmarshal(receiveOne(t, events), &got); err != nil {
			t.Fatalf("subscriber %d unmarshal: %v", i, err)
		}
		if got.Sensor != "door-1" || !got.Detected {
			t.Errorf("subscriber %d got %+v", i, got)
		}
	}
}

func TestAckPrecedesBroadcast(t *testing.T) {
	registry := NewRegistry(4)

	id, events := registry.Subscribe()
	defer registry.Unsubscribe(id)

	if err := registry.Broadcast(map[string]string{"type": "update"}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	var first ConnectedEvent
	if err := json.Unmarshal(receiveOne(t, events), &first); err != nil {
		t.Fatalf("unmarshal first frame: %v", err)
	}
	if first.Type != "connected" {
		t.Errorf("first frame type = %q, want connected", first.Type)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	registry := NewRegistry(4)

	id, events := registry.Subscribe()
	registry.Unsubscribe(id)
	registry.Unsubscribe(id)
	registry.Unsubscribe("sub_neverexisted")

	if count := registry.Count(); count != 0 {
		t.Errorf("count = %d after unsubscribe, want 0", count)
	}

	// Drain: ack then closed channel, no further events.
	<-events
	if _, ok := <-events; ok {
		t.Error("expected closed channel after unsubscribe")
	}
}

func TestStalledSubscriberIsDropped(t *testing.T) {
	registry := NewRegistry(2)

	_, stalled := registry.Subscribe()

	active, activeEvents := registry.Subscribe()
	defer registry.Unsubscribe(active)
	receiveOne(t, activeEvents)

	// The stalled subscriber never reads: ack plus one event fill its
	// queue, the next broadcast finds it full and prunes it.
	for i := 0; i < 3; i++ {
		if err := registry.Broadcast(map[string]int{"seq": i}); err != nil {
			t.Fatalf("broadcast %d: %v", i, err)
		}
		receiveOne(t, activeEvents)
	}

	if count := registry.Count(); count != 1 {
		t.Errorf("count = %d, want 1 after stalled subscriber pruned", count)
	}

	// The pruned channel was closed after its buffered events.
	drained := 0
	for range stalled {
		drained++
	}
	if drained != 2 {
		t.Errorf("stalled subscriber had %d buffered events, want 2", drained)
	}
}

func TestBroadcastRejectsUnserializableEvent(t *testing.T) {
	registry := NewRegistry(4)

	if err := registry.Broadcast(func() {}); err == nil {
		t.Error("expected error for unserializable event")
	}
}

func TestConcurrentSubscribeBroadcastUnsubscribe(t *testing.T) {
	registry := NewRegistry(8)

	ids := make([]string, 16)
	var readers sync.WaitGroup
	for i := 0; i < 16; i++ {
		id, events := registry.Subscribe()
		ids[i] = id
		readers.Add(1)
		go func(events <-chan []byte) {
			defer readers.Done()
			for range events {
				// drain until closed
			}
		}(events)
	}

	var broadcasters sync.WaitGroup
	for i := 0; i < 4; i++ {
		broadcasters.Add(1)
		go func(n int) {
			defer broadcasters.Done()
			for j := 0; j < 50; j++ {
				if err := registry.Broadcast(fmt.Sprintf("event-%d-%d", n, j)); err != nil {
					t.Errorf("broadcast: %v", err)
				}
			}
		}(i)
	}
	broadcasters.Wait()

	for _, id := range ids {
		registry.Unsubscribe(id)
	}
	readers.Wait()

	if count := registry.Count(); count != 0 {
		t.Errorf("count = %d after all unsubscribed, want 0", count)
	}
}
