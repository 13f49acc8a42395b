package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
)

func loadFonts() {
	fontsOnce.Do(func() {
		regularFont, _ = opentype.Parse(goregular.TTF)
		boldFont, _ = opentype.Parse(gobold.TTF)
	})
}

type faceKey struct {
	size int // tenths of a pixel, so near-equal sizes share a face
	bold bool
}

// ImageSurface renders onto an in-memory RGBA canvas. Not safe for
// concurrent use; the export pipeline draws one frame at a time.
type ImageSurface struct {
	img    *image.RGBA
	clip   image.Rectangle
	images map[string]image.Image
	faces  map[faceKey]font.Face
}

// NewImageSurface creates a canvas. images maps refs (badge and emote
// URLs or paths) to preloaded pixels; nil is fine and makes every
// Image call report a miss.
func NewImageSurface(w, h int, images map[string]image.Image) *ImageSurface {
	loadFonts()
	return &ImageSurface{
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
		clip:   image.Rect(0, 0, w, h),
		images: images,
		faces:  make(map[faceKey]font.Face),
	}
}

// RGBA exposes the backing pixels for encoding.
func (s *ImageSurface) RGBA() *image.RGBA { return s.img }

func (s *ImageSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *ImageSurface) Fill(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *ImageSurface) FillRect(x, y, w, h float64, c color.Color) {
	r := rect(x, y, w, h).Intersect(s.clip)
	if r.Empty() {
		return
	}
	draw.Draw(s.img, r, image.NewUniform(c), image.Point{}, draw.Over)
}

func (s *ImageSurface) RoundedRect(x, y, w, h float64, corners [4]float64, c color.Color) {
	r := rect(x, y, w, h)
	uni := image.NewUniform(c)
	// Scanline fill: each row shrinks horizontally inside a corner arc.
	for py := r.Min.Y; py < r.Max.Y; py++ {
		left, right := float64(r.Min.X), float64(r.Max.X)
		fy := float64(py) + 0.5
		if inset := cornerInset(fy, y, corners[0]); inset > 0 { // top-left
			left = math.Max(left, x+inset)
		}
		if inset := cornerInset(fy, y, corners[1]); inset > 0 { // top-right
			right = math.Min(right, x+w-inset)
		}
		if inset := cornerInsetBottom(fy, y+h, corners[3]); inset > 0 { // bottom-left
			left = math.Max(left, x+inset)
		}
		if inset := cornerInsetBottom(fy, y+h, corners[2]); inset > 0 { // bottom-right
			right = math.Min(right, x+w-inset)
		}
		row := image.Rect(int(math.Ceil(left)), py, int(math.Floor(right)), py+1).Intersect(s.clip)
		if !row.Empty() {
			draw.Draw(s.img, row, uni, image.Point{}, draw.Over)
		}
	}
}

// cornerInset computes how far a top corner arc pushes the row edge
// inward at vertical position fy.
func cornerInset(fy, top, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	dy := fy - top
	if dy >= radius {
		return 0
	}
	return radius - math.Sqrt(radius*radius-(radius-dy)*(radius-dy))
}

func cornerInsetBottom(fy, bottom, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	dy := bottom - fy
	if dy >= radius {
		return 0
	}
	return radius - math.Sqrt(radius*radius-(radius-dy)*(radius-dy))
}

func (s *ImageSurface) GradientBand(x, y, w, h float64, from, to color.Color) {
	r := rect(x, y, w, h).Intersect(s.clip)
	if r.Empty() || w <= 0 {
		return
	}
	fr, fg, fb, fa := rgbaF(from)
	tr, tg, tb, ta := rgbaF(to)
	for px := r.Min.X; px < r.Max.X; px++ {
		t := (float64(px) + 0.5 - x) / w
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		col := color.RGBA64{
			R: uint16(lerp(fr, tr, t)),
			G: uint16(lerp(fg, tg, t)),
			B: uint16(lerp(fb, tb, t)),
			A: uint16(lerp(fa, ta, t)),
		}
		colRect := image.Rect(px, r.Min.Y, px+1, r.Max.Y)
		draw.Draw(s.img, colRect, image.NewUniform(col), image.Point{}, draw.Over)
	}
}

func (s *ImageSurface) HLine(x1, x2, y float64, c color.Color) {
	s.FillRect(x1, y, x2-x1, 1, c)
}

func (s *ImageSurface) face(size float64, bold bool) font.Face {
	key := faceKey{size: int(size * 10), bold: bold}
	if f, ok := s.faces[key]; ok {
		return f
	}
	src := regularFont
	if bold {
		src = boldFont
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		f = basicFace{}
	}
	s.faces[key] = f
	return f
}

func (s *ImageSurface) Text(str string, x, y float64, style TextStyle) float64 {
	face := s.face(style.Size, style.Bold)
	d := font.Drawer{
		Dst:  clippedImage{s.img, s.clip},
		Src:  image.NewUniform(style.Color),
		Face: face,
		Dot:  fixed.Point26_6{X: toFixed(x), Y: toFixed(y)},
	}
	start := d.Dot.X
	d.DrawString(str)
	return fromFixed(d.Dot.X - start)
}

func (s *ImageSurface) Measure(str string, size float64, bold bool) float64 {
	return fromFixed(font.MeasureString(s.face(size, bold), str))
}

func (s *ImageSurface) Image(ref string, x, y, w, h float64) bool {
	src, ok := s.images[ref]
	if !ok || src == nil {
		return false
	}
	dst := rect(x, y, w, h)
	sb := src.Bounds()
	if sb.Empty() || dst.Empty() {
		return false
	}
	// Nearest-neighbour scale into the destination box.
	for py := dst.Min.Y; py < dst.Max.Y; py++ {
		for px := dst.Min.X; px < dst.Max.X; px++ {
			if !image.Pt(px, py).In(s.clip) {
				continue
			}
			sx := sb.Min.X + (px-dst.Min.X)*sb.Dx()/dst.Dx()
			sy := sb.Min.Y + (py-dst.Min.Y)*sb.Dy()/dst.Dy()
			blendAt(s.img, px, py, src.At(sx, sy))
		}
	}
	return true
}

func (s *ImageSurface) Clip(x, y, w, h float64) {
	s.clip = rect(x, y, w, h).Intersect(s.img.Bounds())
}

func (s *ImageSurface) ResetClip() {
	s.clip = s.img.Bounds()
}

// clippedImage restricts draws to a clip rectangle while satisfying
// draw.Image for the font drawer.
type clippedImage struct {
	img  *image.RGBA
	clip image.Rectangle
}

func (c clippedImage) ColorModel() color.Model { return c.img.ColorModel() }
func (c clippedImage) Bounds() image.Rectangle { return c.img.Bounds() }
func (c clippedImage) At(x, y int) color.Color { return c.img.At(x, y) }
func (c clippedImage) Set(x, y int, cc color.Color) {
	if image.Pt(x, y).In(c.clip) {
		c.img.Set(x, y, cc)
	}
}

// basicFace is a degenerate fallback should font parsing ever fail.
type basicFace struct{}

func (basicFace) Close() error { return nil }
func (basicFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	return image.Rectangle{}, nil, image.Point{}, fixed.I(8), false
}
func (basicFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	return fixed.Rectangle26_6{}, fixed.I(8), false
}
func (basicFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) { return fixed.I(8), true }
func (basicFace) Kern(r0, r1 rune) fixed.Int26_6            { return 0 }
func (basicFace) Metrics() font.Metrics                     { return font.Metrics{} }

func rect(x, y, w, h float64) image.Rectangle {
	return image.Rect(int(math.Round(x)), int(math.Round(y)), int(math.Round(x+w)), int(math.Round(y+h)))
}

func toFixed(v float64) fixed.Int26_6   { return fixed.Int26_6(math.Round(v * 64)) }
func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }

func rgbaF(c color.Color) (r, g, b, a float64) {
	ri, gi, bi, ai := c.RGBA()
	return float64(ri), float64(gi), float64(bi), float64(ai)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func blendAt(img *image.RGBA, x, y int, c color.Color) {
	_, _, _, a := c.RGBA()
	if a == 0 {
		return
	}
	if a == 0xffff {
		img.Set(x, y, c)
		return
	}
	dr, dg, db, da := img.At(x, y).RGBA()
	sr, sg, sb, sa := c.RGBA()
	inv := 0xffff - sa
	img.Set(x, y, color.RGBA64{
		R: uint16((sr*0xffff + dr*inv) / 0xffff),
		G: uint16((sg*0xffff + dg*inv) / 0xffff),
		B: uint16((sb*0xffff + db*inv) / 0xffff),
		A: uint16((sa*0xffff + da*inv) / 0xffff),
	})
}
