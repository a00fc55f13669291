package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gen2brain/webp"

	"buddy/pkg/catalog"
	"buddy/pkg/schema"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestURL(t *testing.T) {
	const base = "https://cdn.example.com/root"

	for _, part := range catalog.BodyParts {
		got := URL(base, "buddies", "CatdogOrange", part, schema.Resolution2x)
		want := base + "/buddies/CatdogOrange/" + part + ".png"
		if got != want {
			t.Errorf("URL(%s) = %q, want %q", part, got, want)
		}
		if again := URL(base, "buddies", "CatdogOrange", part, schema.Resolution2x); again != got {
			t.Errorf("URL(%s) not deterministic: %q then %q", part, got, again)
		}
	}

	tests := []struct {
		name      string
		base      string
		subfolder string
		res       schema.Resolution
		want      string
	}{
		{"trailing slash trimmed", base + "/", "buddies", schema.Resolution1x, base + "/buddies/CatdogGray/head.png"},
		{"cropped parts subfolder", base, "buddies_cropped_parts", schema.Resolution2x, base + "/buddies_cropped_parts/CatdogGray/head.png"},
		{"empty subfolder omitted", base, "", schema.Resolution2x, base + "/CatdogGray/head.png"},
		{"resolution adds no suffix", base, "buddies", schema.Resolution3x, base + "/buddies/CatdogGray/head.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := URL(tt.base, tt.subfolder, "CatdogGray", "head", tt.res); got != tt.want {
				t.Errorf("URL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchSendsImageHeaders(t *testing.T) {
	body := testPNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != acceptImages {
			t.Errorf("Accept = %q, want %q", got, acceptImages)
		}
		if got := r.Header.Get("Cache-Control"); got != "no-store" {
			t.Errorf("Cache-Control = %q, want no-store", got)
		}
		w.Write(body)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, "buddies", time.Second)
	got, err := f.Fetch(context.Background(), srv.URL+"/buddies/CatdogOrange/head.png")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("Fetch returned %d bytes, want %d", len(got), len(body))
	}
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewFetcher(srv.URL, "", time.Second)
	_, err := f.Fetch(context.Background(), srv.URL+"/missing.png")
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Fetch error = %v, want ErrFetch", err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error %q does not mention the status", err)
	}
}

func TestPreloadKeepsSuccessfulParts(t *testing.T) {
	body := testPNG(t)
	failing := map[string]bool{"tail": true, "eyeBlinkLeft": true}

	var inflight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)

		part := strings.TrimSuffix(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], ".png")
		if failing[part] {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	var mu sync.Mutex
	var failed []string
	f := NewFetcher(srv.URL, "buddies", time.Second)
	cache := f.Preload(context.Background(), "CatdogOrange", schema.Resolution2x, func(af schema.AssetFailure) {
		mu.Lock()
		failed = append(failed, af.Part)
		mu.Unlock()
		if !errors.Is(af.Error, ErrFetch) {
			t.Errorf("failure for %s = %v, want ErrFetch", af.Part, af.Error)
		}
	})

	if got, want := cache.Len(), len(catalog.BodyParts)-len(failing); got != want {
		t.Fatalf("cache.Len() = %d, want %d", got, want)
	}
	for _, part := range catalog.BodyParts {
		if cache.Has(part) == failing[part] {
			t.Errorf("cache.Has(%s) = %v, want %v", part, cache.Has(part), !failing[part])
		}
	}

	slices.Sort(failed)
	if want := []string{"eyeBlinkLeft", "tail"}; !slices.Equal(failed, want) {
		t.Errorf("failures = %v, want %v", failed, want)
	}
	if want := []string{"tail", "eyeBlinkLeft"}; !slices.Equal(cache.Missing(), want) {
		t.Errorf("Missing() = %v, want %v", cache.Missing(), want)
	}
	if peak.Load() < 2 {
		t.Errorf("fetches did not overlap (peak %d)", peak.Load())
	}
}

func TestPreloadAllFailing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	var count atomic.Int32
	f := NewFetcher(srv.URL, "buddies", time.Second)
	cache := f.Preload(context.Background(), "CatdogBlue", schema.Resolution2x, func(schema.AssetFailure) {
		count.Add(1)
	})
	if cache.Len() != 0 {
		t.Errorf("cache.Len() = %d, want 0", cache.Len())
	}
	if int(count.Load()) != len(catalog.BodyParts) {
		t.Errorf("failures = %d, want %d", count.Load(), len(catalog.BodyParts))
	}
}

func TestPreloadNilFailureCallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewFetcher(srv.URL, "buddies", time.Second)
	if cache := f.Preload(context.Background(), "CatdogBlue", schema.Resolution1x, nil); cache.Len() != 0 {
		t.Errorf("cache.Len() = %d, want 0", cache.Len())
	}
}

func TestDecode(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		img, err := Decode(testPNG(t))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
			t.Errorf("bounds = %v, want 2x2", b)
		}
	})

	t.Run("webp", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 4, 3))
		var buf bytes.Buffer
		if err := webp.Encode(&buf, src, webp.Options{Lossless: true}); err != nil {
			t.Fatalf("encode webp: %v", err)
		}
		img, err := Decode(buf.Bytes())
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
			t.Errorf("bounds = %v, want 4x3", b)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := Decode([]byte("not an image")); !errors.Is(err, ErrDecode) {
			t.Errorf("Decode error = %v, want ErrDecode", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := Decode(nil); !errors.Is(err, ErrDecode) {
			t.Errorf("Decode error = %v, want ErrDecode", err)
		}
	})
}

func TestNilCache(t *testing.T) {
	var c *Cache
	if _, ok := c.Get("head"); ok {
		t.Error("nil cache reported a hit")
	}
	if c.Len() != 0 {
		t.Error("nil cache has entries")
	}
}
