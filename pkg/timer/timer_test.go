package timer

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu         sync.Mutex
	milestones []int
	ids        []string
	starts     int
	stops      int
}

func (r *recorder) options() Options {
	return Options{
		OnMilestone: func(m int, id string) {
			r.mu.Lock()
			r.milestones = append(r.milestones, m)
			r.ids = append(r.ids, id)
			r.mu.Unlock()
		},
		OnStart: func() { r.mu.Lock(); r.starts++; r.mu.Unlock() },
		OnStop:  func() { r.mu.Lock(); r.stops++; r.mu.Unlock() },
	}
}

func tickN(t *Timer, n int) {
	for range n {
		t.Tick()
	}
}

func TestMilestonesFireOnce(t *testing.T) {
	var rec recorder
	tm := New(rec.options())

	tm.Start()
	tickN(tm, 25)

	if want := []int{5, 10, 15, 20}; !slices.Equal(rec.milestones, want) {
		t.Errorf("milestones = %v, want %v", rec.milestones, want)
	}
	if want := []string{"reading-5min", "reading-10min", "reading-15min", "reading-20min"}; !slices.Equal(rec.ids, want) {
		t.Errorf("event ids = %v, want %v", rec.ids, want)
	}

	snap := tm.Snapshot()
	if snap.Minutes != 25 || snap.MaxMilestone != 20 || snap.Progress != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestPausedTimerIgnoresTicks(t *testing.T) {
	var rec recorder
	tm := New(rec.options())

	tickN(tm, 3)
	if tm.Snapshot().Minutes != 0 {
		t.Fatal("ticks counted before start")
	}

	tm.Start()
	tickN(tm, 4)
	tm.Pause()
	tickN(tm, 10)

	snap := tm.Snapshot()
	if snap.Minutes != 4 || snap.Running {
		t.Errorf("snapshot = %+v, want 4 minutes, paused", snap)
	}
	if len(rec.milestones) != 0 {
		t.Errorf("milestones fired while paused: %v", rec.milestones)
	}
	if snap.Progress != 0.2 {
		t.Errorf("progress = %v, want 0.2", snap.Progress)
	}

	tm.Start()
	tm.Tick()
	if !slices.Equal(rec.milestones, []int{5}) {
		t.Errorf("milestones = %v, want [5]", rec.milestones)
	}
	if rec.starts != 2 || rec.stops != 1 {
		t.Errorf("starts = %d, stops = %d, want 2 and 1", rec.starts, rec.stops)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	var rec recorder
	tm := New(rec.options())
	tm.Start()
	tm.Start()
	if rec.starts != 1 {
		t.Errorf("OnStart called %d times, want 1", rec.starts)
	}
}

func TestResetAllowsMilestonesAgain(t *testing.T) {
	var rec recorder
	tm := New(rec.options())

	tm.Start()
	tickN(tm, 6)
	tm.Reset()

	snap := tm.Snapshot()
	if snap.Running || snap.Minutes != 0 || len(snap.MilestonesFired) != 0 {
		t.Fatalf("snapshot after reset = %+v", snap)
	}
	if rec.stops != 1 {
		t.Errorf("OnStop called %d times, want 1", rec.stops)
	}

	tm.Start()
	tickN(tm, 5)
	if want := []int{5, 5}; !slices.Equal(rec.milestones, want) {
		t.Errorf("milestones = %v, want %v", rec.milestones, want)
	}
}

func TestCustomMilestones(t *testing.T) {
	var rec recorder
	opts := rec.options()
	opts.Milestones = []int{3, 1}
	tm := New(opts)

	tm.Start()
	tickN(tm, 3)
	if want := []int{1, 3}; !slices.Equal(rec.milestones, want) {
		t.Errorf("milestones = %v, want %v", rec.milestones, want)
	}
	if got := tm.Snapshot().MaxMilestone; got != 3 {
		t.Errorf("MaxMilestone = %d, want 3", got)
	}
}

func TestRunTicks(t *testing.T) {
	var rec recorder
	opts := rec.options()
	opts.Milestones = []int{2}
	opts.Interval = 5 * time.Millisecond
	tm := New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tm.Run(ctx)
		close(done)
	}()

	tm.Start()
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec.mu.Lock()
		n := len(rec.milestones)
		rec.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("milestone never fired")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done
}
