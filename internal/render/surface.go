// Package render draws chat frames. The Renderer is a pure function of
// (surface, simulated time, events); ImageSurface backs it with an RGBA
// canvas for video export.
package render

import "image/color"

// TextStyle selects the face and fill for a text draw.
type TextStyle struct {
	Size  float64
	Bold  bool
	Color color.Color
}

// Surface is the drawing target. Coordinates are pixels with the origin
// top-left; text is positioned by its baseline like a canvas fillText.
type Surface interface {
	Size() (w, h int)

	Fill(c color.Color)
	FillRect(x, y, w, h float64, c color.Color)
	// RoundedRect fills a rectangle with per-corner radii ordered
	// top-left, top-right, bottom-right, bottom-left.
	RoundedRect(x, y, w, h float64, corners [4]float64, c color.Color)
	// GradientBand fills a rectangle fading left to right.
	GradientBand(x, y, w, h float64, from, to color.Color)
	HLine(x1, x2, y float64, c color.Color)

	// Text draws s with its baseline at y and returns the advance.
	Text(s string, x, y float64, style TextStyle) float64
	// Measure returns the advance Text would produce.
	Measure(s string, size float64, bold bool) float64

	// Image draws the cached image for ref scaled into the box,
	// reporting false when no image is available.
	Image(ref string, x, y, w, h float64) bool

	// Clip restricts subsequent draws to the rectangle until ResetClip.
	Clip(x, y, w, h float64)
	ResetClip()
}

// metricsAt adapts a Surface to layout.Metrics at a fixed font size.
type metricsAt struct {
	s    Surface
	size float64
}

func (m metricsAt) TextWidth(s string) float64     { return m.s.Measure(s, m.size, false) }
func (m metricsAt) BoldTextWidth(s string) float64 { return m.s.Measure(s, m.size, true) }
