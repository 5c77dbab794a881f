package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("store.", 4)
	defer unsub()

	b.Emit(KindMessageAppended, MessageRef{ConversationID: "c1", MessageID: "m1"})

	select {
	case evt := <-ch:
		if evt.Kind != KindMessageAppended {
			t.Errorf("kind = %q", evt.Kind)
		}
		ref, ok := evt.Payload.(MessageRef)
		if !ok || ref.MessageID != "m1" {
			t.Errorf("payload = %#v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("send.", 4)
	defer unsub()

	b.Emit(KindConversationUpserted, nil)
	b.Emit(KindSendFailed, "boom")

	evt := <-ch
	if evt.Kind != KindSendFailed {
		t.Errorf("got %q, want only send.* events", evt.Kind)
	}
	select {
	case evt := <-ch:
		t.Errorf("unexpected extra event %q", evt.Kind)
	default:
	}
}

func TestFullSubscriberDoesNotBlock(t *testing.T) {
	b := New()
	_, unsub := b.Subscribe("store.", 1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Emit(KindCartUpdated, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on full subscriber")
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("store.", 4)
	unsub()

	b.Emit(KindCartUpdated, nil)
	select {
	case evt := <-ch:
		t.Errorf("received %q after unsubscribe", evt.Kind)
	default:
	}
}
