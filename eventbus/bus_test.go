package eventbus

import "testing"

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := New()
	ch, unsubscribe := bus.Subscribe(EventMiningBlockFound, 4)
	defer unsubscribe()

	bus.Publish(EventMiningBlockFound, &MiningEvent{BlockHash: "abc", Height: 10})

	select {
	case ev := <-ch:
		payload, ok := ev.Payload.(*MiningEvent)
		if !ok || payload.BlockHash != "abc" {
			t.Fatalf("unexpected payload: %#v", ev.Payload)
		}
	default:
		t.Fatal("expected a buffered event, found none")
	}
}

func TestPublishDropsOldestOnOverflow(t *testing.T) {
	bus := New()
	ch, unsubscribe := bus.Subscribe(EventMempoolSizeUpdated, 2)
	defer unsubscribe()

	for i := 0; i < 5; i++ {
		bus.Publish(EventMempoolSizeUpdated, &MempoolEvent{EntryCount: i})
	}

	// The queue depth is 2; publishing never blocks, and the most
	// recent event must still be observable even though 5 were sent.
	var last *MempoolEvent
	for {
		select {
		case ev := <-ch:
			last = ev.Payload.(*MempoolEvent)
			continue
		default:
		}
		break
	}
	if last == nil || last.EntryCount != 4 {
		t.Fatalf("expected the most recent event to survive overflow, got %#v", last)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New()
	ch, unsubscribe := bus.Subscribe(EventNodeInitialized, 1)
	unsubscribe()

	bus.Publish(EventNodeInitialized, &NodeEvent{Step: "storage"})

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected no delivery after unsubscribe")
		}
	default:
	}
	if got := bus.SubscriberCount(EventNodeInitialized); got != 0 {
		t.Fatalf("subscriber count = %d, want 0", got)
	}
}
