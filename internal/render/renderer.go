package render

import (
	"image/color"
	"math"
	"strconv"

	"github.com/you/fakechat/internal/core"
	"github.com/you/fakechat/internal/layout"
)

// Placement selects how the chat panel maps onto the canvas.
type Placement int

const (
	// FullCanvas centers a fixed-proportion panel on the canvas.
	// Messages anchor to the top while they fit and to the bottom once
	// they overflow.
	FullCanvas Placement = iota
	// Cropped stretches the panel over the whole canvas and always
	// stacks messages bottom-up.
	Cropped
)

// VisibleWindowSec is how long a message stays on screen.
const VisibleWindowSec = 30

const panelRadius = 12

type Options struct {
	Placement  Placement
	LightTheme bool
	// Panel proportions for FullCanvas placement.
	PanelWidth  float64
	PanelHeight float64
	Viewers     int
	// Emotes drives :name: recognition during layout.
	Emotes []core.Emote
}

type theme struct {
	background  color.RGBA
	panel       color.RGBA
	header      color.RGBA
	separator   color.RGBA
	title       color.RGBA
	viewerText  color.RGBA
	messageText color.RGBA
	botText     color.RGBA
	fallback    color.RGBA
}

var darkTheme = theme{
	background:  color.RGBA{0x0e, 0x0e, 0x10, 0xff},
	panel:       color.RGBA{0x18, 0x18, 0x1b, 0xff},
	header:      color.RGBA{0x1f, 0x1f, 0x23, 0xff},
	separator:   color.RGBA{83, 83, 95, 122},
	title:       color.RGBA{0xef, 0xef, 0xf1, 0xff},
	viewerText:  color.RGBA{0xad, 0xad, 0xb8, 0xff},
	messageText: color.RGBA{0xde, 0xde, 0xe3, 0xff},
	botText:     color.RGBA{0xff, 0xff, 0xff, 0xff},
	fallback:    color.RGBA{0xff, 0xff, 0xff, 0xff},
}

var lightTheme = theme{
	background:  color.RGBA{0xff, 0xff, 0xff, 0xff},
	panel:       color.RGBA{0xff, 0xff, 0xff, 0xff},
	header:      color.RGBA{0xf0, 0xf0, 0xf2, 0xff},
	separator:   color.RGBA{0, 0, 0, 26},
	title:       color.RGBA{0x0e, 0x0e, 0x10, 0xff},
	viewerText:  color.RGBA{0x53, 0x53, 0x5f, 0xff},
	messageText: color.RGBA{0x0e, 0x0e, 0x10, 0xff},
	botText:     color.RGBA{0x18, 0x18, 0x1b, 0xff},
	fallback:    color.RGBA{0x0e, 0x0e, 0x10, 0xff},
}

var (
	botAccent       = color.RGBA{0x64, 0x41, 0xa5, 0xff}
	botGradientFrom = color.RGBA{100, 65, 165, 38} // 15% alpha
	botGradientTo   = color.RGBA{100, 65, 165, 0}
	botHighlight    = color.RGBA{180, 180, 190, 77} // 30% alpha
)

// badgeColors paints a placeholder square when a badge image is not
// loaded.
var badgeColors = map[string]color.RGBA{
	"broadcaster": {0xe9, 0x19, 0x16, 0xff},
	"mod":         {0x00, 0xad, 0x03, 0xff},
	"vip":         {0xe0, 0x05, 0xb9, 0xff},
	"sub":         {0x91, 0x47, 0xff, 0xff},
	"prime":       {0x00, 0x99, 0xfa, 0xff},
	"turbo":       {0x96, 0x50, 0xa0, 0xff},
	"verified":    {0x00, 0xc7, 0xff, 0xff},
}

var badgeFallbackColor = color.RGBA{0x5c, 0x5c, 0x5c, 0xff}

type Renderer struct {
	opts Options
	th   theme
}

func New(opts Options) *Renderer {
	if opts.PanelWidth <= 0 {
		opts.PanelWidth = 400
	}
	if opts.PanelHeight <= 0 {
		opts.PanelHeight = 600
	}
	th := darkTheme
	if opts.LightTheme {
		th = lightTheme
	}
	return &Renderer{opts: opts, th: th}
}

// Render draws the complete frame for simulated time now. Events must
// be ordered by timestamp; only those inside the trailing visible
// window appear.
func (r *Renderer) Render(s Surface, now float64, events []core.ChatEvent) {
	s.ResetClip()
	s.Fill(r.th.background)

	cw, ch := s.Size()
	canvasW, canvasH := float64(cw), float64(ch)

	var px, py, pw, ph, scale float64
	if r.opts.Placement == Cropped {
		px, py, pw, ph, scale = 0, 0, canvasW, canvasH, 1
	} else {
		pw, ph = r.panelSize(canvasW, canvasH)
		px = math.Floor((canvasW - pw) / 2)
		py = math.Floor((canvasH - ph) / 2)
		scale = pw / r.opts.PanelWidth
	}

	s.RoundedRect(px, py, pw, ph, [4]float64{panelRadius, panelRadius, panelRadius, panelRadius}, r.th.panel)

	headerH := math.Min(65, ph*0.08)
	s.RoundedRect(px, py, pw, headerH, [4]float64{panelRadius, panelRadius, 0, 0}, r.th.header)
	s.HLine(px, px+pw, py+headerH, r.th.separator)

	titleDiv, viewerDiv := 40.0, 50.0
	if r.opts.Placement == Cropped {
		titleDiv, viewerDiv = 30, 40
	}
	titleSize := clamp(pw/titleDiv, 18, 26)
	viewerSize := clamp(pw/viewerDiv, 14, 20)

	s.Text("LIVE CHAT", px+20, py+headerH*0.65, TextStyle{Size: titleSize, Bold: true, Color: r.th.title})

	viewerText := "👥 " + formatCount(r.opts.Viewers) + " viewers"
	vw := s.Measure(viewerText, viewerSize, false)
	s.Text(viewerText, px+pw-vw-20, py+headerH*0.65, TextStyle{Size: viewerSize, Color: r.th.viewerText})

	visible := visibleEvents(events, now)

	lineH := layout.LineHeight * scale
	padding := 15.0
	maxWidth := pw - padding*2
	metrics := metricsAt{s: s, size: layout.FontSize * scale}

	gap := 6 * scale
	if r.opts.Placement == Cropped {
		gap = 10 * scale
	}

	maxShow := int((ph - headerH - 30) / (lineH + gap))
	if len(visible) > maxShow && maxShow >= 0 {
		visible = visible[len(visible)-maxShow:]
	}

	type laid struct {
		ev     core.ChatEvent
		lines  []layout.Line
		height float64
	}
	msgs := make([]laid, 0, len(visible))
	total := 0.0
	for i, ev := range visible {
		lines := layout.Wrap(ev, maxWidth, scale, r.opts.Emotes, metrics)
		h := float64(len(lines)) * lineH
		msgs = append(msgs, laid{ev: ev, lines: lines, height: h})
		if r.opts.Placement == Cropped {
			total += h + gap
		} else {
			total += h
			if i > 0 {
				total += gap
			}
		}
	}

	s.Clip(px, py+headerH+1, pw, ph-headerH-1)
	defer s.ResetClip()

	if r.opts.Placement == Cropped {
		// Bottom-up like a live chat column.
		y := py + ph - 20
		for i := len(msgs) - 1; i >= 0; i-- {
			y -= msgs[i].height
			if y >= py+headerH+5 {
				r.drawMessage(s, msgs[i].ev, msgs[i].lines, px+padding, y, maxWidth, scale)
			}
			y -= gap
			if y < py+headerH {
				break
			}
		}
		return
	}

	available := ph - headerH - 30
	var y float64
	if total < available {
		y = py + headerH + 15
	} else {
		y = (py + ph - 15) - total
	}
	for _, m := range msgs {
		if y+m.height > py+headerH+10 && y < py+ph {
			r.drawMessage(s, m.ev, m.lines, px+padding, y, maxWidth, scale)
		}
		y += m.height + gap
	}
}

// panelSize fits the configured panel proportions into the canvas,
// keeping them exact when they fit and clamping to sane bounds.
func (r *Renderer) panelSize(canvasW, canvasH float64) (w, h float64) {
	w, h = r.opts.PanelWidth, r.opts.PanelHeight
	if w > canvasW || h > canvasH {
		fit := math.Min((canvasW-100)/w, (canvasH-100)/h)
		w *= fit
		h *= fit
	}
	w = math.Max(300, math.Min(w, canvasW-50))
	h = math.Max(400, math.Min(h, canvasH-50))
	return w, h
}

func (r *Renderer) drawMessage(s Surface, ev core.ChatEvent, lines []layout.Line, x, y, maxWidth, scale float64) {
	fontSize := layout.FontSize * scale
	lineH := layout.LineHeight * scale
	badgeSize := layout.BadgeSize * scale

	if ev.Bot {
		totalH := float64(len(lines))*lineH + 8*scale
		s.GradientBand(x-15, y-4*scale, maxWidth+30, totalH, botGradientFrom, botGradientTo)
		s.FillRect(x-15, y-4*scale, 3, totalH, botAccent)
	}

	for li, line := range lines {
		curX := x
		curY := y + float64(li)*lineH + fontSize

		if line.Header {
			for _, b := range ev.Badges {
				if !s.Image(b.ImageRef, curX, curY-badgeSize+2*scale, badgeSize, badgeSize) {
					c, ok := badgeColors[b.Kind]
					if !ok {
						c = badgeFallbackColor
					}
					s.RoundedRect(curX, curY-badgeSize+2*scale, badgeSize, badgeSize, [4]float64{3, 3, 3, 3}, c)
				}
				curX += badgeSize + layout.BadgeGap*scale
			}

			if ev.Bot {
				s.Text("🤖", curX, curY, TextStyle{Size: fontSize, Color: r.th.messageText})
				curX += layout.BotIconWidth * scale

				userW := s.Measure(ev.Username, fontSize, true)
				pad := 6 * scale
				s.FillRect(curX-pad/2, curY-fontSize-2*scale, userW+pad, fontSize+6*scale, botHighlight)
			}

			nameColor := r.userColor(ev)
			s.Text(ev.Username, curX, curY, TextStyle{Size: fontSize, Bold: true, Color: nameColor})
			curX += s.Measure(ev.Username, fontSize, true)
			s.Text(": ", curX, curY, TextStyle{Size: fontSize, Bold: true, Color: r.th.messageText})
			curX += s.Measure(": ", fontSize, true)
		} else {
			curX = x + layout.ContinuationIndent*scale
		}

		for _, seg := range line.Segments {
			switch seg.Kind {
			case layout.Text:
				s.Text(seg.Content, curX, curY, TextStyle{Size: fontSize, Color: r.th.messageText})
				curX += s.Measure(seg.Content, fontSize, false)
			case layout.Emoji:
				s.Text(seg.Content, curX, curY, TextStyle{Size: fontSize + 2*scale, Color: r.th.messageText})
				curX += layout.EmojiWidth * scale
			case layout.Emote:
				ref := emoteRef(r.opts.Emotes, seg.Content)
				if !s.Image(ref, curX, curY-fontSize-2*scale, layout.EmoteWidth*scale, layout.EmoteWidth*scale) {
					s.Text("["+seg.Content+"]", curX, curY, TextStyle{Size: fontSize, Color: r.th.viewerText})
				}
				curX += layout.EmoteWidth * scale
			}
		}
	}
}

func (r *Renderer) userColor(ev core.ChatEvent) color.Color {
	if ev.Bot {
		return r.th.botText
	}
	if c, ok := parseHexColor(ev.Color); ok {
		return c
	}
	return r.th.fallback
}

func emoteRef(emotes []core.Emote, name string) string {
	if e, ok := core.FindEmote(emotes, name); ok {
		return e.ImageRef
	}
	return ""
}

func visibleEvents(events []core.ChatEvent, now float64) []core.ChatEvent {
	var out []core.ChatEvent
	for _, ev := range events {
		if ev.Timestamp <= now && ev.Timestamp > now-VisibleWindowSec {
			out = append(out, ev)
		}
	}
	return out
}

func parseHexColor(s string) (color.RGBA, bool) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// formatCount renders an integer with thousands separators the way the
// header shows viewer counts.
func formatCount(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
