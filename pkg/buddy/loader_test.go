package buddy

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"buddy/pkg/assets"
	"buddy/pkg/catalog"
	"buddy/pkg/engine"
	"buddy/pkg/schema"
)

func simRuntime() Mountable { return engine.NewSim(TemplateFile()) }

func TestLoaderSelect(t *testing.T) {
	cache := fullCache(t)
	var loadedChar schema.Character
	l := NewLoader(LoaderOptions{
		Preload: func(_ context.Context, c schema.Character, onFailure func(schema.AssetFailure)) (*assets.Cache, error) {
			onFailure(schema.AssetFailure{Part: "ghost", Error: assets.ErrFetch})
			return cache, nil
		},
		NewRuntime: simRuntime,
		Resolution: schema.Resolution3x,
		OnLoad:     func(c schema.Character) { loadedChar = c },
	})

	if l.Snapshot().Status != StatusIdle {
		t.Fatalf("initial status = %s, want idle", l.Snapshot().Status)
	}
	l.Wave() // nothing mounted yet

	c, _ := catalog.Character("blue-cat")
	if err := l.Select(context.Background(), c); err != nil {
		t.Fatalf("Select: %v", err)
	}

	snap := l.Snapshot()
	if snap.Status != StatusReady {
		t.Errorf("status = %s, want ready", snap.Status)
	}
	if snap.Character != c || loadedChar != c {
		t.Errorf("character = %+v, loaded %+v, want %+v", snap.Character, loadedChar, c)
	}
	if snap.State == nil || snap.State.AssetsLoaded != len(catalog.BodyParts) {
		t.Errorf("state = %+v, want all assets loaded", snap.State)
	}
	if snap.Config == nil || snap.Config.StateMachine != catalog.StateMachineName || snap.Config.Resolution != schema.Resolution3x {
		t.Errorf("config = %+v", snap.Config)
	}
	if len(snap.Failures) != 1 || snap.Failures[0].Part != "ghost" {
		t.Errorf("failures = %+v", snap.Failures)
	}
	if len(snap.Missing) != 0 {
		t.Errorf("missing = %v, want none", snap.Missing)
	}
	if !l.Ready() {
		t.Error("Ready() = false after select")
	}

	l.Jump()
	sim := l.Runtime().(*engine.Sim)
	if !slices.Equal(sim.Fired(), []string{"jump"}) {
		t.Errorf("fired = %v, want [jump]", sim.Fired())
	}
}

func TestLoaderSpinnerAfterDelay(t *testing.T) {
	release := make(chan struct{})
	l := NewLoader(LoaderOptions{
		Preload: func(ctx context.Context, _ schema.Character, _ func(schema.AssetFailure)) (*assets.Cache, error) {
			<-release
			return assets.NewCache(), nil
		},
		NewRuntime:   simRuntime,
		SpinnerDelay: 10 * time.Millisecond,
	})

	done := make(chan error, 1)
	go func() { done <- l.Select(context.Background(), catalog.DefaultCharacter()) }()

	deadline := time.Now().Add(2 * time.Second)
	for l.Snapshot().Status != StatusSpinner {
		if time.Now().After(deadline) {
			t.Fatalf("status = %s, want spinner", l.Snapshot().Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Select: %v", err)
	}
	snap := l.Snapshot()
	if snap.Status != StatusReady {
		t.Errorf("status = %s, want ready", snap.Status)
	}
	if len(snap.Missing) != len(catalog.BodyParts) {
		t.Errorf("missing = %v, want every body part", snap.Missing)
	}
}

func TestLoaderFastLoadSkipsSpinner(t *testing.T) {
	cache := fullCache(t)
	l := NewLoader(LoaderOptions{
		Preload: func(context.Context, schema.Character, func(schema.AssetFailure)) (*assets.Cache, error) {
			return cache, nil
		},
		NewRuntime:   simRuntime,
		SpinnerDelay: time.Hour,
	})
	if err := l.Select(context.Background(), catalog.DefaultCharacter()); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if s := l.Snapshot().Status; s != StatusReady {
		t.Errorf("status = %s, want ready", s)
	}
}

func TestLoaderPreloadError(t *testing.T) {
	boom := errors.New("boom")
	var reported error
	l := NewLoader(LoaderOptions{
		Preload: func(context.Context, schema.Character, func(schema.AssetFailure)) (*assets.Cache, error) {
			return nil, boom
		},
		NewRuntime: simRuntime,
		OnError:    func(err error) { reported = err },
	})

	if err := l.Select(context.Background(), catalog.DefaultCharacter()); !errors.Is(err, boom) {
		t.Fatalf("Select = %v, want boom", err)
	}
	snap := l.Snapshot()
	if snap.Status != StatusError || snap.Error != "boom" {
		t.Errorf("snapshot = %+v", snap)
	}
	if !errors.Is(reported, boom) {
		t.Errorf("OnError got %v", reported)
	}
	if err := l.SetInput(catalog.InputIsReading, true); err != nil {
		t.Errorf("SetInput without buddy = %v, want nil", err)
	}
}

func TestLoaderSupersededSelect(t *testing.T) {
	first := make(chan struct{})
	cache := fullCache(t)
	l := NewLoader(LoaderOptions{
		Preload: func(_ context.Context, c schema.Character, _ func(schema.AssetFailure)) (*assets.Cache, error) {
			if c.ID == "orange-cat" {
				<-first
			}
			return cache, nil
		},
		NewRuntime: simRuntime,
	})

	done := make(chan error, 1)
	go func() { done <- l.Select(context.Background(), catalog.DefaultCharacter()) }()

	// Wait for the first selection to be in flight before replacing it.
	deadline := time.Now().Add(2 * time.Second)
	for l.Snapshot().Character.ID != "orange-cat" {
		if time.Now().After(deadline) {
			t.Fatal("first selection never started")
		}
		time.Sleep(time.Millisecond)
	}

	gray, _ := catalog.Character("gray-cat")
	if err := l.Select(context.Background(), gray); err != nil {
		t.Fatalf("Select(gray): %v", err)
	}
	close(first)
	if err := <-done; err != nil {
		t.Fatalf("Select(orange): %v", err)
	}

	snap := l.Snapshot()
	if snap.Character.ID != "gray-cat" || snap.Status != StatusReady {
		t.Errorf("snapshot = %+v, want gray-cat ready", snap)
	}
	if l.Buddy().Character().ID != "gray-cat" {
		t.Errorf("mounted buddy = %s, want gray-cat", l.Buddy().Character().ID)
	}
}
