package eventbus

import (
	"testing"
)

func TestBusFanout(t *testing.T) {
	t.Parallel()
	b := New[int]()
	a, unsubA := b.Subscribe(4)
	c, unsubC := b.Subscribe(4)
	defer unsubC()

	if n := b.Publish(7); n != 2 {
		t.Fatalf("Publish delivered to %d subscribers, want 2", n)
	}
	if v := <-a; v != 7 {
		t.Fatalf("subscriber a got %d", v)
	}
	if v := <-c; v != 7 {
		t.Fatalf("subscriber c got %d", v)
	}

	unsubA()
	unsubA() // idempotent
	if _, ok := <-a; ok {
		t.Fatal("expected closed channel after unsubscribe")
	}
	if b.Len() != 1 {
		t.Fatalf("Len = %d, want 1", b.Len())
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	t.Parallel()
	b := New[string]()
	_, unsub := b.Subscribe(1)
	defer unsub()

	b.Publish("first")
	if n := b.Publish("second"); n != 0 {
		t.Fatalf("expected drop, delivered=%d", n)
	}
	if b.Dropped() != 1 {
		t.Fatalf("Dropped = %d, want 1", b.Dropped())
	}
}
