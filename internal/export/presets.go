// Package export renders a chat timeline frame by frame and pipes the
// frames through ffmpeg into a video file.
package export

import (
	"sort"

	"github.com/pkg/errors"
)

// Preset fixes the canvas size, frame rate and target bitrate of an
// export quality level.
type Preset struct {
	Name    string
	Width   int
	Height  int
	FPS     int
	Bitrate int // bits per second
}

var presets = map[string]Preset{
	"low":    {Name: "low", Width: 1280, Height: 720, FPS: 24, Bitrate: 2_000_000},
	"medium": {Name: "medium", Width: 1920, Height: 1080, FPS: 30, Bitrate: 8_000_000},
	"high":   {Name: "high", Width: 1920, Height: 1080, FPS: 60, Bitrate: 16_000_000},
	"ultra":  {Name: "ultra", Width: 2560, Height: 1440, FPS: 60, Bitrate: 24_000_000},
	"4k":     {Name: "4k", Width: 3840, Height: 2160, FPS: 30, Bitrate: 40_000_000},
}

// LookupPreset resolves a quality name. An empty name means medium.
func LookupPreset(name string) (Preset, error) {
	if name == "" {
		name = "medium"
	}
	p, ok := presets[name]
	if !ok {
		return Preset{}, errors.Errorf("unknown quality %q", name)
	}
	return p, nil
}

// PresetNames lists the known quality levels, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
