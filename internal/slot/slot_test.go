// internal/slot/slot_test.go
package slot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLatestWins(t *testing.T) {
	s := New[int]()

	if replaced, err := s.Put(1); err != nil || replaced {
		t.Fatalf("first put: replaced=%v err=%v", replaced, err)
	}
	if replaced, err := s.Put(2); err != nil || !replaced {
		t.Fatalf("second put: replaced=%v err=%v", replaced, err)
	}

	v, ok := s.TryTake()
	if !ok || v != 2 {
		t.Fatalf("TryTake=%d,%v want 2,true", v, ok)
	}
	if _, ok := s.TryTake(); ok {
		t.Fatalf("slot should be empty after take")
	}
	if s.Drops() != 1 {
		t.Fatalf("drops=%d want 1", s.Drops())
	}
}

func TestTakeBlocksUntilPut(t *testing.T) {
	s := New[string]()
	got := make(chan string, 1)

	go func() {
		v, err := s.Take(context.Background())
		if err != nil {
			got <- "err:" + err.Error()
			return
		}
		got <- v
	}()

	time.Sleep(10 * time.Millisecond)
	if _, err := s.Put("frame"); err != nil {
		t.Fatalf("put: %v", err)
	}

	select {
	case v := <-got:
		if v != "frame" {
			t.Fatalf("got %q", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("Take did not return")
	}
}

func TestTakeContextCancel(t *testing.T) {
	s := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Take(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClose(t *testing.T) {
	s := New[int]()
	s.Close()
	s.Close()

	if _, err := s.Put(1); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := s.Take(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from Take, got %v", err)
	}
	select {
	case <-s.Done():
	default:
		t.Fatalf("Done not closed")
	}
}

func TestConcurrentPutSingleValue(t *testing.T) {
	s := New[int]()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = s.Put(n*100 + j)
			}
		}(i)
	}
	wg.Wait()

	if _, ok := s.TryTake(); !ok {
		t.Fatalf("expected one pending value")
	}
	if _, ok := s.TryTake(); ok {
		t.Fatalf("expected at most one pending value")
	}
	if s.Drops() != 1599 {
		t.Fatalf("drops=%d want 1599", s.Drops())
	}
}
