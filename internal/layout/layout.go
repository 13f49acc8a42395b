// Package layout turns chat events into positioned lines of typed
// segments, independent of any drawing surface.
package layout

import (
	"github.com/you/fakechat/internal/core"
)

type Kind int

const (
	Text Kind = iota
	Emoji
	Emote // custom emote, Content holds the name
)

// Segment is one drawable run. Text content keeps its leading space
// when it follows another word on the same line, so drawing can simply
// measure and advance.
type Segment struct {
	Kind    Kind
	Content string
}

// Line is one visual row. The first line of a message carries the
// header (badges, bot icon, username, colon).
type Line struct {
	Header   bool
	Segments []Segment
}

// Metrics measures text at the layout's font size. Implemented by the
// render package with real font faces; tests use fixed-width fakes.
type Metrics interface {
	TextWidth(s string) float64
	BoldTextWidth(s string) float64
}

// Fixed element dimensions at scale 1.
const (
	FontSize           = 16.0
	LineHeight         = 26.0
	BadgeSize          = 18.0
	BadgeGap           = 4.0
	BotIconWidth       = 22.0
	EmojiWidth         = 22.0
	EmoteWidth         = 24.0
	ContinuationIndent = 25.0
)

// HeaderWidth is the horizontal room the first line reserves before any
// message content: the bold "username: " prefix, one slot per badge and
// the bot icon allowance.
func HeaderWidth(ev core.ChatEvent, scale float64, m Metrics) float64 {
	w := m.BoldTextWidth(ev.Username + ": ")
	if n := len(ev.Badges); n > 0 {
		w += float64(n) * (BadgeSize + BadgeGap) * scale
	}
	if ev.Bot {
		w += BotIconWidth * scale
	}
	return w
}

// Wrap lays the event out against maxWidth. Words wrap with a small
// continuation indent; emoji and emotes wrap flush left. A segment never
// splits across lines. Metrics must measure at FontSize*scale.
func Wrap(ev core.ChatEvent, maxWidth, scale float64, emotes []core.Emote, m Metrics) []Line {
	segments := Tokenize(ev.Text, emotes)

	var lines []Line
	current := Line{Header: true}
	width := HeaderWidth(ev, scale, m)

	flush := func(indent float64) {
		lines = append(lines, current)
		current = Line{}
		width = indent
	}

	for _, seg := range segments {
		switch seg.Kind {
		case Text:
			for i, word := range splitWords(seg.Content) {
				if i > 0 {
					word = " " + word
				}
				w := m.TextWidth(word)
				if width+w > maxWidth && len(current.Segments) > 0 {
					flush(ContinuationIndent * scale)
					if len(word) > 0 && word[0] == ' ' {
						word = word[1:]
						w = m.TextWidth(word)
					}
				}
				current.Segments = append(current.Segments, Segment{Kind: Text, Content: word})
				width += w
			}
		default:
			w := EmojiWidth * scale
			if seg.Kind == Emote {
				w = EmoteWidth * scale
			}
			if width+w > maxWidth && len(current.Segments) > 0 {
				flush(0)
			}
			current.Segments = append(current.Segments, seg)
			width += w
		}
	}

	if len(current.Segments) > 0 || len(lines) == 0 {
		lines = append(lines, current)
	}
	return lines
}

func splitWords(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ' ' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}
