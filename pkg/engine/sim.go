package engine

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/charmbracelet/log"
)

// AssetRef is an asset entry in a File. Embedded assets carry their bytes.
type AssetRef struct {
	Name     string `json:"name"`
	Image    bool   `json:"image"`
	CDNUUID  string `json:"cdn_uuid,omitempty"`
	Embedded []byte `json:"-"`
}

type InputKind int

const (
	KindTrigger InputKind = iota
	KindBoolean
	KindNumber
)

type InputDef struct {
	Name    string
	Kind    InputKind
	Default any
}

// File is the part of an animation file the harness cares about.
type File struct {
	Assets       []AssetRef
	StateMachine string
	Inputs       []InputDef
}

// Sim is an in-process stand-in for the animation runtime. It drives the
// asset loader hook the same way the real runtime does and records every
// input change so a headless preview can be inspected.
type Sim struct {
	file File

	mu       sync.RWMutex
	inputs   []Input
	images   map[string]image.Image
	declined []string
	fired    []string
}

func NewSim(file File) *Sim {
	s := &Sim{
		file:   file,
		images: make(map[string]image.Image),
	}
	for _, def := range file.Inputs {
		switch def.Kind {
		case KindTrigger:
			s.inputs = append(s.inputs, &simTrigger{name: def.Name, sim: s})
		case KindBoolean:
			v, _ := def.Default.(bool)
			s.inputs = append(s.inputs, &simValue{name: def.Name, kind: KindBoolean, value: v})
		case KindNumber:
			v, _ := def.Default.(float64)
			s.inputs = append(s.inputs, &simValue{name: def.Name, kind: KindNumber, value: v})
		}
	}
	return s
}

// Load offers every referenced asset to loader and then reports readiness
// through onLoad. Assets the loader declines are left to the runtime.
func (s *Sim) Load(ctx context.Context, loader AssetLoader, onLoad func(Runtime)) error {
	for _, ref := range s.file.Assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		asset := &simAsset{ref: ref, sim: s}
		if loader == nil || !loader(ctx, asset, ref.Embedded) {
			s.mu.Lock()
			s.declined = append(s.declined, ref.Name)
			s.mu.Unlock()
		}
	}
	log.Debug("animation loaded", "state_machine", s.file.StateMachine, "assets", len(s.file.Assets))
	if onLoad != nil {
		onLoad(s)
	}
	return nil
}

func (s *Sim) StateMachineInputs(stateMachine string) []Input {
	if stateMachine != s.file.StateMachine {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Input, len(s.inputs))
	copy(out, s.inputs)
	return out
}

// Fired returns the trigger names fired so far, oldest first.
func (s *Sim) Fired() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.fired))
	copy(out, s.fired)
	return out
}

// Declined returns the asset names the loader left to the runtime.
func (s *Sim) Declined() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.declined))
	copy(out, s.declined)
	return out
}

func (s *Sim) Image(name string) (image.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[name]
	return img, ok
}

// Values snapshots the boolean and number inputs.
func (s *Sim) Values() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any)
	for _, in := range s.inputs {
		if v, ok := in.(*simValue); ok {
			out[v.name] = v.Value()
		}
	}
	return out
}

type simAsset struct {
	ref AssetRef
	sim *Sim
}

func (a *simAsset) Name() string    { return a.ref.Name }
func (a *simAsset) IsImage() bool   { return a.ref.Image }
func (a *simAsset) CDNUUID() string { return a.ref.CDNUUID }

func (a *simAsset) SetRenderImage(img image.Image) {
	a.sim.mu.Lock()
	a.sim.images[a.ref.Name] = img
	a.sim.mu.Unlock()
}

type simTrigger struct {
	name string
	sim  *Sim
}

func (t *simTrigger) Name() string { return t.name }

func (t *simTrigger) Fire() {
	t.sim.mu.Lock()
	t.sim.fired = append(t.sim.fired, t.name)
	t.sim.mu.Unlock()
}

type simValue struct {
	name string
	kind InputKind

	mu    sync.Mutex
	value any
}

func (v *simValue) Name() string { return v.name }

func (v *simValue) Value() any {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

func (v *simValue) SetValue(value any) error {
	switch v.kind {
	case KindBoolean:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("input %s: want bool, got %T", v.name, value)
		}
		value = b
	case KindNumber:
		n, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("input %s: want number, got %T", v.name, value)
		}
		value = n
	}
	v.mu.Lock()
	v.value = value
	v.mu.Unlock()
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
