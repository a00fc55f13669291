// Package events turns simulated in-app events into state machine actions on
// the buddy and keeps a short log of what was fired.
package events

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"

	"buddy/pkg/catalog"
	"buddy/pkg/schema"
)

// MaxLogEntries caps the event log; older entries are dropped.
const MaxLogEntries = 20

// Controller is the buddy side of an event: triggers and value inputs.
type Controller interface {
	FireTrigger(name string)
	SetInput(name string, value any) error
}

type Dispatcher struct {
	ctrl Controller
	now  func() time.Time

	mu      sync.Mutex
	entries []schema.EventLogEntry
	values  map[string]any
	subs    map[int]chan schema.EventLogEntry
	nextSub int
}

func NewDispatcher(ctrl Controller) *Dispatcher {
	return &Dispatcher{
		ctrl: ctrl,
		now:  time.Now,
		values: map[string]any{
			catalog.InputIsReading:       false,
			catalog.InputExcitementLevel: 50.0,
		},
		subs: make(map[int]chan schema.EventLogEntry),
	}
}

// readier is implemented by controllers that may not have a buddy mounted yet.
type readier interface {
	Ready() bool
}

func (d *Dispatcher) attached() bool {
	if d.ctrl == nil {
		return false
	}
	if r, ok := d.ctrl.(readier); ok {
		return r.Ready()
	}
	return true
}

// Fire applies the mapping registered under id and logs it. Unknown ids, or a
// dispatcher without a controller, do nothing and report false. While the
// buddy is not ready the event is still logged but has no effect.
func (d *Dispatcher) Fire(id string) (schema.EventLogEntry, bool) {
	mapping, ok := catalog.Event(id)
	if !ok || d.ctrl == nil {
		return schema.EventLogEntry{}, false
	}

	log.Info("buddy event", "event", mapping.Emoji+" "+mapping.Label, "category", mapping.Category,
		"action", string(mapping.Action.Type)+" -> "+mapping.Action.InputName)

	if d.attached() {
		switch a := mapping.Action; a.Type {
		case schema.InputTrigger:
			d.ctrl.FireTrigger(a.InputName)
		case schema.InputBoolean, schema.InputNumber:
			d.setInput(a.InputName, a.Value)
		}
	} else {
		log.Debug("buddy not ready, event logged only", "event", id)
	}

	return d.record(mapping), true
}

// HandleMilestone is the timer's milestone callback.
func (d *Dispatcher) HandleMilestone(_ int, eventID string) {
	d.Fire(eventID)
}

// TimerStarted and TimerStopped keep isReading in step with the reading timer.
func (d *Dispatcher) TimerStarted() {
	if !d.attached() {
		return
	}
	d.setInput(catalog.InputIsReading, true)
}

func (d *Dispatcher) TimerStopped() {
	if !d.attached() {
		return
	}
	d.setInput(catalog.InputIsReading, false)
}

// SetExcitement sets excitementLevel, clamped to [0, 100].
func (d *Dispatcher) SetExcitement(level float64) float64 {
	level = max(0, min(level, 100))
	if d.attached() {
		d.setInput(catalog.InputExcitementLevel, level)
	}
	return level
}

func (d *Dispatcher) setInput(name string, value any) {
	if err := d.ctrl.SetInput(name, value); err != nil {
		log.Warn("failed to set input", "input", name, "value", value, "error", err)
		return
	}
	d.mu.Lock()
	d.values[name] = value
	d.mu.Unlock()
	log.Debugf("Set input %s = %v", name, value)
}

// Values returns the last value sent for each boolean and number input.
func (d *Dispatcher) Values() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]any, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}
	return out
}

func (d *Dispatcher) record(mapping schema.EventMapping) schema.EventLogEntry {
	entry := schema.EventLogEntry{
		ID:        ksuid.New().String(),
		Timestamp: d.now(),
		Event:     mapping,
	}

	d.mu.Lock()
	d.entries = append([]schema.EventLogEntry{entry}, d.entries...)
	if len(d.entries) > MaxLogEntries {
		d.entries = d.entries[:MaxLogEntries]
	}
	for _, ch := range d.subs {
		select {
		case ch <- entry:
		default:
		}
	}
	d.mu.Unlock()

	return entry
}

// Log returns the logged entries, newest first.
func (d *Dispatcher) Log() []schema.EventLogEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.entries)
}

// Restore replaces the log, e.g. with entries persisted by a previous run.
func (d *Dispatcher) Restore(entries []schema.EventLogEntry) {
	entries = slices.Clone(entries)
	slices.SortStableFunc(entries, func(a, b schema.EventLogEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if len(entries) > MaxLogEntries {
		entries = entries[:MaxLogEntries]
	}
	d.mu.Lock()
	d.entries = entries
	d.mu.Unlock()
}

// Subscribe delivers every new log entry on the returned channel until cancel
// is called. Slow subscribers miss entries rather than block Fire.
func (d *Dispatcher) Subscribe(buffer int) (<-chan schema.EventLogEntry, func()) {
	ch := make(chan schema.EventLogEntry, buffer)

	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = ch
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
			close(ch)
		})
	}
}

// FormatAction renders an entry's action for the log, e.g. "trigger: wave"
// or "boolean: isReading = true".
func FormatAction(entry schema.EventLogEntry) string {
	a := entry.Event.Action
	if a.Type == schema.InputTrigger {
		return "trigger: " + a.InputName
	}
	return fmt.Sprintf("%s: %s = %v", a.Type, a.InputName, a.Value)
}
