// Package assets builds CDN URLs for buddy body parts, fetches them and keeps
// the fetched bytes per character.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/webp"

	"buddy/pkg/catalog"
	"buddy/pkg/schema"
)

var (
	// ErrFetch wraps every failed asset request, including non-2xx replies.
	ErrFetch = errors.New("network fetch failed")
	// ErrDecode is returned when fetched bytes are not a usable image.
	ErrDecode = errors.New("decode failed")
)

const acceptImages = "image/png,image/webp,image/jpeg,*/*"

// URL builds the CDN URL of a body part. Assets are currently published at a
// single resolution, so the resolution adds no suffix.
func URL(baseURL, subfolder, folder, part string, _ schema.Resolution) string {
	segments := []string{strings.TrimRight(baseURL, "/")}
	if subfolder != "" {
		segments = append(segments, strings.Trim(subfolder, "/"))
	}
	segments = append(segments, folder, part+".png")
	return strings.Join(segments, "/")
}

// Fetcher downloads body-part images from one CDN base and subfolder.
type Fetcher struct {
	BaseURL   string
	Subfolder string
	Client    *http.Client
}

// NewFetcher returns a Fetcher whose requests time out after timeout.
func NewFetcher(baseURL, subfolder string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		BaseURL:   baseURL,
		Subfolder: subfolder,
		Client:    &http.Client{Timeout: timeout},
	}
}

func (f *Fetcher) URL(folder, part string, res schema.Resolution) string {
	return URL(f.BaseURL, f.Subfolder, folder, part, res)
}

// Fetch downloads an image and returns its raw bytes.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", acceptImages)
	req.Header.Set("Cache-Control", "no-store")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: failed to fetch %s: %d", ErrFetch, url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrFetch, url, err)
	}
	return data, nil
}

// Preload fetches every body part of a character concurrently and returns
// once all fetches have settled. Failed parts are reported to onFailure and
// left out of the returned cache.
func (f *Fetcher) Preload(ctx context.Context, folder string, res schema.Resolution, onFailure func(schema.AssetFailure)) *Cache {
	cache := NewCache()

	var wg sync.WaitGroup
	var fmu sync.Mutex
	for _, part := range catalog.BodyParts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			url := f.URL(folder, part, res)
			data, err := f.Fetch(ctx, url)
			if err != nil {
				log.Error("failed to preload asset", "part", part, "error", err)
				if onFailure != nil {
					fmu.Lock()
					onFailure(schema.AssetFailure{Part: part, URL: url, Error: err})
					fmu.Unlock()
				}
				return
			}
			cache.Store(part, data)
		}()
	}
	wg.Wait()

	log.Infof("Preloaded %d/%d assets for %s", cache.Len(), len(catalog.BodyParts), folder)
	return cache
}

// Decode turns PNG, JPEG or WebP bytes into an image.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	if isWebP(data) {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: webp: %w", ErrDecode, err)
		}
		return img, nil
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		// Fallback: try generic decode if not PNG
		var err2 error
		img, _, err2 = image.Decode(bytes.NewReader(data))
		if err2 != nil {
			return nil, fmt.Errorf("%w: png: %v, generic: %v", ErrDecode, err, err2)
		}
	}
	return img, nil
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}
