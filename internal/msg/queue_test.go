package msg

import (
	"testing"
	"time"
)

func TestQueueOrdering(t *testing.T) {
	q := NewQueue[int]()
	for i := 1; i <= 5; i++ {
		q.Push(i)
	}

	if q.Len() != 5 {
		t.Fatalf("Len = %d, want 5", q.Len())
	}

	for i := 1; i <= 5; i++ {
		got, ok := q.TryPop()
		if !ok || got != i {
			t.Fatalf("TryPop = (%d, %v), want (%d, true)", got, ok, i)
		}
	}

	if _, ok := q.TryPop(); ok {
		t.Error("TryPop on empty queue returned an item")
	}
}

func TestQueueBlockingPop(t *testing.T) {
	q := NewQueue[string]()

	done := make(chan string)
	go func() {
		item, _ := q.Pop()
		done <- item
	}()

	// Give the consumer time to block.
	time.Sleep(10 * time.Millisecond)
	q.Push("tile")

	select {
	case got := <-done:
		if got != "tile" {
			t.Errorf("Pop = %q, want %q", got, "tile")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up")
	}
}

func TestQueueClose(t *testing.T) {
	q := NewQueue[int]()
	q.Push(1)
	q.Close()

	// Queued items survive the close.
	if got, ok := q.Pop(); !ok || got != 1 {
		t.Fatalf("Pop after Close = (%d, %v), want (1, true)", got, ok)
	}

	// A drained closed queue reports closed instead of blocking.
	if _, ok := q.Pop(); ok {
		t.Error("Pop on drained closed queue returned an item")
	}

	// Push after Close is dropped.
	q.Push(2)
	if _, ok := q.TryPop(); ok {
		t.Error("Push after Close enqueued an item")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue[int]()
	const producers = 8
	const perProducer = 100

	for p := 0; p < producers; p++ {
		go func() {
			for i := 0; i < perProducer; i++ {
				q.Push(i)
			}
		}()
	}

	seen := 0
	deadline := time.After(5 * time.Second)
	for seen < producers*perProducer {
		select {
		case <-deadline:
			t.Fatalf("received %d of %d items", seen, producers*perProducer)
		default:
		}
		if _, ok := q.TryPop(); ok {
			seen++
		}
	}
}
