package uithread

import (
	"sync"
	"testing"
	"time"
)

func TestPostRunsInOrder(t *testing.T) {
	l := New().Start()
	defer l.Stop()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		if err := l.Post("append", func() { got = append(got, i) }); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if len(got) != 100 {
		t.Fatalf("ran %d tasks, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran as %d", i, v)
		}
	}
}

func TestPostFromManyGoroutinesIsSerialized(t *testing.T) {
	l := New().Start()
	defer l.Stop()

	counter := 0
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = l.Post("inc", func() { counter++ })
			}
		}()
	}
	wg.Wait()
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if counter != 400 {
		t.Errorf("counter = %d, want 400", counter)
	}
}

func TestPanicDoesNotKillLoop(t *testing.T) {
	l := New().Start()
	defer l.Stop()

	_ = l.Post("panics", func() { panic("boom") })
	ran := false
	if err := l.Call("after", func() { ran = true }); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !ran {
		t.Error("task after panic did not run")
	}
}

func TestStopDrainsAndRejects(t *testing.T) {
	l := New().Start()

	ran := false
	_ = l.Post("last", func() { ran = true })
	l.Stop()

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	if !ran {
		t.Error("queued task was not drained before stop")
	}
	if err := l.Post("late", func() {}); err != ErrStopped {
		t.Errorf("Post after stop = %v, want ErrStopped", err)
	}
}

func TestCallTimeout(t *testing.T) {
	l := New().Start()
	defer l.Stop()
	l.callTimeout = 20 * time.Millisecond

	release := make(chan struct{})
	_ = l.Post("block", func() { <-release })
	if err := l.Call("waits", func() {}); err != ErrTimeout {
		t.Errorf("Call = %v, want ErrTimeout", err)
	}
	close(release)
}
