package events

import "testing"

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	b := New()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	b.Status("loading")

	select {
	case e := <-ch:
		if e.Kind != KindStatus || e.Status != "loading" {
			t.Errorf("unexpected event: %+v", e)
		}
	default:
		t.Fatal("expected an event to be delivered")
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, unsubscribe := b.Subscribe()
	unsubscribe()

	_, ok := <-ch
	if ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
}

func TestBus_MultipleSubscribersEachGetEvent(t *testing.T) {
	b := New()
	ch1, unsub1 := b.Subscribe()
	ch2, unsub2 := b.Subscribe()
	defer unsub1()
	defer unsub2()

	b.Progress(0.5)

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case e := <-ch:
			if e.Progress != 0.5 {
				t.Errorf("got progress %v", e.Progress)
			}
		default:
			t.Fatal("expected event on every subscriber")
		}
	}
}

func TestBus_PublishNeverBlocksOnFullSubscriber(t *testing.T) {
	b := New()
	_, unsubscribe := b.Subscribe()
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		b.Status("x")
	}
	// No deadlock reaching here is the assertion.
}
