// Package buddy connects a character's CDN assets to a loaded animation and
// drives its state machine inputs.
package buddy

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"buddy/pkg/assets"
	"buddy/pkg/catalog"
	"buddy/pkg/engine"
	"buddy/pkg/schema"
)

type Options struct {
	Character  schema.Character
	Resolution schema.Resolution
	// StateMachine defaults to catalog.StateMachineName.
	StateMachine string
	// Fetcher is used for parts missing from Cache.
	Fetcher *assets.Fetcher
	Cache   *assets.Cache
	// NoAutoplay leaves the animation paused after load.
	NoAutoplay bool

	OnAllAssetsLoaded func()
	OnLoad            func()
	OnError           func(error)
}

// Buddy is one mounted character. It implements the runtime's asset loader
// hook and forwards trigger and input changes once the runtime is attached.
type Buddy struct {
	opts Options

	mu      sync.RWMutex
	state   schema.State
	runtime engine.Runtime
}

func New(opts Options) *Buddy {
	if opts.StateMachine == "" {
		opts.StateMachine = catalog.StateMachineName
	}
	if opts.Resolution == "" {
		opts.Resolution = schema.Resolution2x
	}
	return &Buddy{
		opts: opts,
		state: schema.State{
			TotalAssets: len(catalog.BodyParts),
		},
	}
}

func (b *Buddy) Character() schema.Character {
	return b.opts.Character
}

// Config reports what the buddy was mounted with.
func (b *Buddy) Config() schema.Config {
	return schema.Config{
		Character:    b.opts.Character,
		Resolution:   b.opts.Resolution,
		StateMachine: b.opts.StateMachine,
	}
}

func (b *Buddy) State() schema.State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// LoadAsset is the engine.AssetLoader for this buddy.
func (b *Buddy) LoadAsset(ctx context.Context, asset engine.FileAsset, data []byte) bool {
	// Embedded or vendor-hosted assets are left to the runtime.
	if len(data) > 0 || asset.CDNUUID() != "" {
		return false
	}
	if !asset.IsImage() {
		return false
	}

	name := asset.Name()
	if !catalog.IsBodyPart(name) {
		return false
	}
	img, ok := asset.(engine.ImageAsset)
	if !ok {
		return false
	}

	if err := b.loadImage(ctx, img); err != nil {
		log.Error("failed to load asset", "asset", name, "error", err)
		if b.opts.OnError != nil {
			b.opts.OnError(err)
		}
		return false
	}

	b.mu.Lock()
	b.state.AssetsLoaded++
	done := b.state.AssetsLoaded == b.state.TotalAssets
	b.mu.Unlock()

	if done && b.opts.OnAllAssetsLoaded != nil {
		b.opts.OnAllAssetsLoaded()
	}
	return true
}

func (b *Buddy) loadImage(ctx context.Context, asset engine.ImageAsset) error {
	name := asset.Name()

	data, ok := b.opts.Cache.Get(name)
	if ok {
		log.Debugf("Using cached asset: %s", name)
	} else {
		if b.opts.Fetcher == nil {
			return fmt.Errorf("asset %s: %w: not cached and no fetcher configured", name, assets.ErrFetch)
		}
		url := b.opts.Fetcher.URL(b.opts.Character.FolderName, name, b.opts.Resolution)
		log.Debugf("Fetching asset: %s from %s", name, url)
		var err error
		data, err = b.opts.Fetcher.Fetch(ctx, url)
		if err != nil {
			return fmt.Errorf("asset %s: %w", name, err)
		}
	}

	image, err := assets.Decode(data)
	if err != nil {
		return fmt.Errorf("asset %s: %w", name, err)
	}
	asset.SetRenderImage(image)
	return nil
}

// Attach is called once the runtime has loaded the animation file.
func (b *Buddy) Attach(rt engine.Runtime) {
	b.mu.Lock()
	b.runtime = rt
	b.state.IsLoaded = true
	b.state.IsPlaying = !b.opts.NoAutoplay
	b.mu.Unlock()

	if b.opts.OnLoad != nil {
		b.opts.OnLoad()
	}
}

func (b *Buddy) inputs() []engine.Input {
	b.mu.RLock()
	rt := b.runtime
	b.mu.RUnlock()
	if rt == nil {
		return nil
	}
	return rt.StateMachineInputs(b.opts.StateMachine)
}

// FireTrigger fires a trigger input. Before the runtime is attached, or when
// the state machine has no such trigger, it does nothing.
func (b *Buddy) FireTrigger(name string) {
	inputs := b.inputs()
	if inputs == nil {
		log.Debug("no inputs found, runtime not ready", "trigger", name)
		return
	}

	for _, in := range inputs {
		if in.Name() != name {
			continue
		}
		trigger, ok := in.(engine.Trigger)
		if !ok {
			break
		}
		log.Debugf("Firing trigger: %s", name)
		trigger.Fire()
		b.mu.Lock()
		b.state.CurrentAnimation = name
		b.mu.Unlock()
		return
	}
	log.Warn("trigger not found or not fireable", "trigger", name)
}

// SetInput sets a boolean or number input. Like FireTrigger it is a no-op
// until the runtime is attached.
func (b *Buddy) SetInput(name string, value any) error {
	for _, in := range b.inputs() {
		if in.Name() != name {
			continue
		}
		v, ok := in.(engine.ValueInput)
		if !ok {
			return nil
		}
		return v.SetValue(value)
	}
	return nil
}

func (b *Buddy) Tap()   { b.FireTrigger(catalog.TriggerTap) }
func (b *Buddy) Wave()  { b.FireTrigger(catalog.TriggerWave) }
func (b *Buddy) Jump()  { b.FireTrigger(catalog.TriggerJump) }
func (b *Buddy) Blink() { b.FireTrigger(catalog.TriggerBlink) }
