package export

import (
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"
)

const preloadTimeout = 10 * time.Second

// PreloadImages fetches badge and emote images up front so frame
// rendering never blocks on IO. Refs may be http(s) URLs or local
// file paths. Failures are logged and skipped; the renderer paints a
// placeholder for any ref missing from the returned map.
func PreloadImages(ctx context.Context, refs []string) map[string]image.Image {
	client := &http.Client{Timeout: preloadTimeout}

	var mu sync.Mutex
	images := make(map[string]image.Image, len(refs))
	seen := make(map[string]bool, len(refs))

	var wg sync.WaitGroup
	for _, ref := range refs {
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		wg.Add(1)
		go func(ref string) {
			defer wg.Done()
			img, err := loadImage(ctx, client, ref)
			if err != nil {
				slog.Warn("image preload failed", "ref", ref, "err", err)
				return
			}
			mu.Lock()
			images[ref] = img
			mu.Unlock()
		}(ref)
	}
	wg.Wait()
	return images
}

func loadImage(ctx context.Context, client *http.Client, ref string) (image.Image, error) {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		f, err := os.Open(ref)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		return img, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	return img, err
}
