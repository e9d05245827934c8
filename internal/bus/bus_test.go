package bus

import (
	"fmt"
	"testing"
	"time"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

func recvEvent(t *testing.T, ch <-chan domain.StreamEvent) domain.StreamEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return domain.StreamEvent{}
}

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("job-1")
	defer cancel()

	b.Publish("job-1", domain.NewStreamEvent(domain.EventSlideStarted, "job-1", nil))

	ev := recvEvent(t, ch)
	if ev.Type != domain.EventSlideStarted {
		t.Fatalf("unexpected event type %s", ev.Type)
	}
}

func TestChannelsDoNotCrossTalk(t *testing.T) {
	b := New()
	ch1, cancel1 := b.Subscribe("job-1")
	defer cancel1()
	ch2, cancel2 := b.Subscribe("job-2")
	defer cancel2()

	b.Publish("job-2", domain.NewStreamEvent(domain.EventOutlineComplete, "job-2", nil))

	if ev := recvEvent(t, ch2); ev.GenerationID != "job-2" {
		t.Fatalf("unexpected generation id %s", ev.GenerationID)
	}
	select {
	case ev := <-ch1:
		t.Fatalf("job-1 subscriber received foreign event %+v", ev)
	default:
	}
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
	b := New()
	b.Publish("job-1", domain.NewStreamEvent(domain.EventOutlineComplete, "job-1", nil))

	ch, cancel := b.Subscribe("job-1")
	defer cancel()
	select {
	case ev := <-ch:
		t.Fatalf("expected no replay, got %+v", ev)
	default:
	}
}

func TestSlowSubscriberNeverBlocksPublish(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe("job-1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*3; i++ {
			b.Publish("job-1", domain.NewStreamEvent(domain.EventBlockDelta, "job-1", nil))
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestCancelReleasesChannelState(t *testing.T) {
	b := New()
	var cancels []func()
	for i := 0; i < 5; i++ {
		_, cancel := b.Subscribe(fmt.Sprintf("job-%d", i))
		cancels = append(cancels, cancel)
	}
	for _, cancel := range cancels {
		cancel()
		cancel() // idempotent
	}
	for i := 0; i < 5; i++ {
		if n := b.SubscriberCount(fmt.Sprintf("job-%d", i)); n != 0 {
			t.Fatalf("channel %d still has %d subscribers", i, n)
		}
	}
}

func TestCancelClosesSubscriberChannel(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("job-1")
	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel, got event")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestFanOutToMultipleSubscribers(t *testing.T) {
	b := New()
	ch1, cancel1 := b.Subscribe("job-1")
	defer cancel1()
	ch2, cancel2 := b.Subscribe("job-1")
	defer cancel2()

	b.Publish("job-1", domain.NewStreamEvent(domain.EventGenerationComplete, "job-1", nil))

	if ev := recvEvent(t, ch1); !ev.Type.Terminal() {
		t.Fatalf("expected terminal event, got %s", ev.Type)
	}
	if ev := recvEvent(t, ch2); !ev.Type.Terminal() {
		t.Fatalf("expected terminal event, got %s", ev.Type)
	}
}
