package buddy

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"buddy/pkg/assets"
	"buddy/pkg/catalog"
	"buddy/pkg/engine"
	"buddy/pkg/schema"
)

// SpinnerDelay keeps fast loads from flashing a spinner.
const SpinnerDelay = 250 * time.Millisecond

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSpinner Status = "spinner"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Preloader fills a cache with a character's body parts, reporting parts it
// could not fetch to onFailure.
type Preloader func(ctx context.Context, c schema.Character, onFailure func(schema.AssetFailure)) (*assets.Cache, error)

// Mountable is an animation runtime that can load the template file.
type Mountable interface {
	Load(ctx context.Context, loader engine.AssetLoader, onLoad func(engine.Runtime)) error
}

type LoaderOptions struct {
	Preload    Preloader
	NewRuntime func() Mountable
	// Fetcher backs parts missing from the preloaded cache.
	Fetcher      *assets.Fetcher
	Resolution   schema.Resolution
	SpinnerDelay time.Duration

	OnLoad  func(schema.Character)
	OnError func(error)
}

// Snapshot is the loader's externally visible state.
type Snapshot struct {
	Status    Status                `json:"status"`
	Character schema.Character      `json:"character"`
	Config    *schema.Config        `json:"config,omitempty"`
	State     *schema.State         `json:"state,omitempty"`
	Failures  []schema.AssetFailure `json:"failures,omitempty"`
	Missing   []string              `json:"missing,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// Loader preloads a character's assets before mounting its buddy, and
// forwards trigger and input calls to whichever buddy is mounted.
type Loader struct {
	opts LoaderOptions

	mu        sync.RWMutex
	gen       uint64
	status    Status
	character schema.Character
	buddy     *Buddy
	runtime   Mountable
	cache     *assets.Cache
	failures  []schema.AssetFailure
	err       error
}

func NewLoader(opts LoaderOptions) *Loader {
	if opts.SpinnerDelay <= 0 {
		opts.SpinnerDelay = SpinnerDelay
	}
	return &Loader{opts: opts, status: StatusIdle}
}

// Select switches to character c. It returns once the assets are preloaded
// and the runtime has loaded, or earlier if a newer Select superseded it.
func (l *Loader) Select(ctx context.Context, c schema.Character) error {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.status = StatusLoading
	l.character = c
	l.buddy = nil
	l.runtime = nil
	l.cache = nil
	l.failures = nil
	l.err = nil
	l.mu.Unlock()

	spinner := time.AfterFunc(l.opts.SpinnerDelay, func() {
		l.mu.Lock()
		if l.gen == gen && l.status == StatusLoading {
			l.status = StatusSpinner
		}
		l.mu.Unlock()
	})

	var failures []schema.AssetFailure
	cache, err := l.opts.Preload(ctx, c, func(f schema.AssetFailure) {
		failures = append(failures, f)
	})
	spinner.Stop()
	if err != nil {
		l.fail(gen, err)
		return err
	}

	b := New(Options{
		Character:  c,
		Resolution: l.opts.Resolution,
		Fetcher:    l.opts.Fetcher,
		Cache:      cache,
		OnError:    l.opts.OnError,
		OnLoad: func() {
			l.mu.Lock()
			current := l.gen == gen
			if current {
				l.status = StatusReady
			}
			l.mu.Unlock()
			if current && l.opts.OnLoad != nil {
				l.opts.OnLoad(c)
			}
		},
	})
	rt := l.opts.NewRuntime()

	l.mu.Lock()
	if l.gen != gen {
		l.mu.Unlock()
		log.Debug("character selection superseded", "character", c.ID)
		return nil
	}
	l.buddy = b
	l.runtime = rt
	l.cache = cache
	l.failures = failures
	l.mu.Unlock()

	if err := rt.Load(ctx, b.LoadAsset, b.Attach); err != nil {
		l.fail(gen, err)
		return err
	}
	return nil
}

func (l *Loader) fail(gen uint64, err error) {
	l.mu.Lock()
	current := l.gen == gen
	if current {
		l.status = StatusError
		l.err = err
	}
	l.mu.Unlock()

	if current {
		log.Error("failed to load buddy", "error", err)
		if l.opts.OnError != nil {
			l.opts.OnError(err)
		}
	}
}

// Buddy returns the mounted buddy, or nil while loading.
func (l *Loader) Buddy() *Buddy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.buddy
}

// Runtime returns the runtime of the mounted buddy, or nil.
func (l *Loader) Runtime() Mountable {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.runtime
}

func (l *Loader) Cache() *assets.Cache {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache
}

func (l *Loader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Snapshot{
		Status:    l.status,
		Character: l.character,
		Failures:  l.failures,
	}
	if l.buddy != nil {
		st := l.buddy.State()
		s.State = &st
		cfg := l.buddy.Config()
		s.Config = &cfg
	}
	if l.cache != nil {
		s.Missing = l.cache.Missing()
	}
	if l.err != nil {
		s.Error = l.err.Error()
	}
	return s
}

func (l *Loader) FireTrigger(name string) {
	if b := l.Buddy(); b != nil {
		b.FireTrigger(name)
	}
}

func (l *Loader) SetInput(name string, value any) error {
	if b := l.Buddy(); b != nil {
		return b.SetInput(name, value)
	}
	return nil
}

// Ready reports whether a buddy is mounted and its runtime attached.
func (l *Loader) Ready() bool {
	b := l.Buddy()
	return b != nil && b.State().IsLoaded
}

func (l *Loader) Tap()   { l.FireTrigger(catalog.TriggerTap) }
func (l *Loader) Wave()  { l.FireTrigger(catalog.TriggerWave) }
func (l *Loader) Jump()  { l.FireTrigger(catalog.TriggerJump) }
func (l *Loader) Blink() { l.FireTrigger(catalog.TriggerBlink) }
