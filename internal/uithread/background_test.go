package uithread

import (
	"testing"
	"time"
)

func TestBackgroundDoesNotHoldTheLoop(t *testing.T) {
	l := New().Start()
	defer l.Stop()
	var bg Background

	release := make(chan struct{})
	if err := l.Post("start", func() {
		bg.Go("slow", func() { <-release })
	}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	start := time.Now()
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if d := time.Since(start); d > time.Second {
		t.Fatalf("loop blocked for %v behind background work", d)
	}
	close(release)
	bg.Wait()
}

func TestSettleRunsChainedWork(t *testing.T) {
	l := New().Start()
	defer l.Stop()
	var bg Background

	var steps []string
	if err := l.Post("first", func() {
		steps = append(steps, "loop")
		bg.Go("launch", func() {
			time.Sleep(20 * time.Millisecond)
			_ = l.Post("result", func() {
				steps = append(steps, "result")
				bg.Go("again", func() {
					_ = l.Post("final", func() { steps = append(steps, "final") })
				})
			})
		})
	}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	if err := Settle(l, &bg); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	want := []string{"loop", "result", "final"}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", steps, want)
		}
	}
}

func TestBackgroundPanicIsContained(t *testing.T) {
	var bg Background
	bg.Go("boom", func() { panic("boom") })
	bg.Wait()
	if bg.Started() != 1 {
		t.Fatalf("Started = %d, want 1", bg.Started())
	}
}
