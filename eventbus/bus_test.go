package eventbus

import (
	"testing"
	"time"

	"github.com/2389-research/swarmkernel/core"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := New(50 * time.Millisecond)
	chA, unsubA := b.Subscribe(4)
	defer unsubA()
	chB, unsubB := b.Subscribe(4)
	defer unsubB()

	event := core.OrchestrationEvent{EventType: core.EventCreate, Details: "hi"}
	b.Publish(event)

	select {
	case got := <-chA:
		if got.Details != "hi" {
			t.Errorf("chA got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("chA never received the event")
	}
	select {
	case got := <-chB:
		if got.Details != "hi" {
			t.Errorf("chB got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("chB never received the event")
	}
}

func TestPublishSkipsSlowSubscriberWithoutBlockingForever(t *testing.T) {
	b := New(20 * time.Millisecond)
	slow, unsub := b.Subscribe(0) // unbuffered, nobody reading: always "slow"
	defer unsub()

	done := make(chan struct{})
	go func() {
		b.Publish(core.OrchestrationEvent{EventType: core.EventCreate})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked past the subscriber deadline")
	}
	select {
	case <-slow:
		t.Fatal("slow subscriber unexpectedly received the event")
	default:
	}
}

func TestUnsubscribeRemovesSubscriber(t *testing.T) {
	b := New(time.Second)
	_, unsub := b.Subscribe(1)
	if b.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", b.Count())
	}
	unsub()
	if b.Count() != 0 {
		t.Fatalf("Count() = %d, want 0 after unsubscribe", b.Count())
	}
}
