// Package timer simulates a reading session: each tick counts as one minute
// read, and crossing a milestone fires its reading event once.
package timer

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"buddy/pkg/catalog"
)

type Options struct {
	// Milestones default to catalog.ReadingMilestones.
	Milestones []int
	// Interval is the real duration of one simulated minute. Defaults to 1s.
	Interval time.Duration

	OnMilestone func(minutes int, eventID string)
	OnStart     func()
	OnStop      func()
}

type Snapshot struct {
	Running         bool    `json:"running"`
	Minutes         int     `json:"minutes"`
	MilestonesFired []int   `json:"milestones_fired"`
	Milestones      []int   `json:"milestones"`
	MaxMilestone    int     `json:"max_milestone"`
	Progress        float64 `json:"progress"`
}

type Timer struct {
	opts Options
	max  int

	mu      sync.Mutex
	running bool
	elapsed int
	fired   []int
}

func New(opts Options) *Timer {
	if len(opts.Milestones) == 0 {
		opts.Milestones = catalog.ReadingMilestones
	}
	opts.Milestones = slices.Clone(opts.Milestones)
	slices.Sort(opts.Milestones)
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	return &Timer{
		opts: opts,
		max:  opts.Milestones[len(opts.Milestones)-1],
	}
}

func (t *Timer) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.mu.Unlock()

	if t.opts.OnStart != nil {
		t.opts.OnStart()
	}
}

func (t *Timer) Pause() {
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()

	if t.opts.OnStop != nil {
		t.opts.OnStop()
	}
}

// Reset stops the timer and clears elapsed time and fired milestones.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.running = false
	t.elapsed = 0
	t.fired = nil
	t.mu.Unlock()

	if t.opts.OnStop != nil {
		t.opts.OnStop()
	}
}

// Tick advances a running timer by one simulated minute and fires any
// milestone reached for the first time.
func (t *Timer) Tick() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.elapsed++
	var due []int
	for _, m := range t.opts.Milestones {
		if t.elapsed == m && !slices.Contains(t.fired, m) {
			t.fired = append(t.fired, m)
			due = append(due, m)
		}
	}
	t.mu.Unlock()

	for _, m := range due {
		log.Info("reading milestone reached", "minutes", m)
		if t.opts.OnMilestone != nil {
			t.opts.OnMilestone(m, catalog.MilestoneEventID(m))
		}
	}
}

// Run ticks every Interval until ctx is done. Ticks while paused are ignored.
func (t *Timer) Run(ctx context.Context) {
	ticker := time.NewTicker(t.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		Running:         t.running,
		Minutes:         t.elapsed,
		MilestonesFired: slices.Clone(t.fired),
		Milestones:      slices.Clone(t.opts.Milestones),
		MaxMilestone:    t.max,
		Progress:        min(float64(t.elapsed)/float64(t.max), 1),
	}
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
