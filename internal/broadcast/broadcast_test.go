package broadcast

import (
	"testing"
	"time"
)

func recvOrTimeout(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.C():
		if !ok {
			t.Fatal("subscription channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestPublishReachesChannelSubscribers(t *testing.T) {
	hub := NewHub()
	admin := hub.Subscribe(AdminChannel())
	defer admin.Close()
	student := hub.Subscribe(StudentChannel(7))
	defer student.Close()

	hub.Publish(Event{Type: EventResultUpdate, Data: "r1"}, AdminChannel(), StudentChannel(7))

	if ev := recvOrTimeout(t, admin); ev.Type != EventResultUpdate {
		t.Errorf("admin got %q, want %q", ev.Type, EventResultUpdate)
	}
	if ev := recvOrTimeout(t, student); ev.Data != "r1" {
		t.Errorf("student got data %v, want r1", ev.Data)
	}
}

func TestPublishDoesNotCrossChannels(t *testing.T) {
	hub := NewHub()
	other := hub.Subscribe(StudentChannel(8))
	defer other.Close()

	hub.Publish(Event{Type: EventResultUpdate}, StudentChannel(7))

	select {
	case ev := <-other.C():
		t.Errorf("unexpected event %v on unrelated channel", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMultiChannelSubscriberReceivesOnce(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(AdminChannel(), BranchChannel("CSE"))
	defer sub.Close()

	hub.Publish(Event{Type: EventExamUpdate}, AdminChannel(), BranchChannel("CSE"))

	recvOrTimeout(t, sub)
	select {
	case ev := <-sub.C():
		t.Errorf("duplicate delivery %v to multi-channel subscriber", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()
	slow := hub.Subscribe(AdminChannel())
	defer slow.Close()
	fast := hub.Subscribe(AdminChannel())
	defer fast.Close()

	// Overflow the slow subscriber's buffer without draining it.
	for i := 0; i < subscriptionBuffer+10; i++ {
		hub.Publish(Event{Type: EventQuestionUpdate, Data: i}, AdminChannel())
	}

	// The fast subscriber still has a full buffer of the earliest events.
	drained := 0
	for {
		select {
		case <-fast.C():
			drained++
			continue
		default:
		}
		break
	}
	if drained != subscriptionBuffer {
		t.Errorf("fast subscriber drained %d events, want %d", drained, subscriptionBuffer)
	}
}

func TestCloseRemovesSubscription(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(AdminChannel())
	if got := hub.SubscriberCount(AdminChannel()); got != 1 {
		t.Fatalf("subscriber count = %d, want 1", got)
	}

	sub.Close()
	sub.Close() // idempotent

	if got := hub.SubscriberCount(AdminChannel()); got != 0 {
		t.Errorf("subscriber count after close = %d, want 0", got)
	}
	if _, ok := <-sub.C(); ok {
		t.Error("channel still open after Close")
	}
}

func TestWatchAddsChannel(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(AdminChannel())
	defer sub.Close()

	hub.Watch(sub, BranchChannel("ECE"))
	hub.Publish(Event{Type: EventExamUpdate, Data: "cfg"}, BranchChannel("ECE"))

	if ev := recvOrTimeout(t, sub); ev.Data != "cfg" {
		t.Errorf("got data %v, want cfg", ev.Data)
	}

	sub.Close()
	if got := hub.SubscriberCount(BranchChannel("ECE")); got != 0 {
		t.Errorf("watched channel count after close = %d, want 0", got)
	}
}
