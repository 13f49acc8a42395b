package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestPreloadImages(t *testing.T) {
	data := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/badge.png":
			w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "emote.png")
	if err := os.WriteFile(local, data, 0o644); err != nil {
		t.Fatal(err)
	}

	refs := []string{
		srv.URL + "/badge.png",
		srv.URL + "/badge.png", // duplicate, fetched once
		srv.URL + "/gone.png",
		local,
		"",
	}
	images := PreloadImages(context.Background(), refs)

	if len(images) != 2 {
		t.Fatalf("loaded %d images, want 2 (got %v)", len(images), keys(images))
	}
	if _, ok := images[srv.URL+"/badge.png"]; !ok {
		t.Error("remote image missing")
	}
	if _, ok := images[local]; !ok {
		t.Error("local image missing")
	}
	if _, ok := images[srv.URL+"/gone.png"]; ok {
		t.Error("404 ref should be skipped")
	}
}

func keys(m map[string]image.Image) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
