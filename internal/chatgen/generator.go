// Package chatgen produces synthetic chat message text and viewer
// counts from the configured word, emoji and emote pools.
package chatgen

import (
	"strings"

	"github.com/you/fakechat/internal/core"
	"github.com/you/fakechat/internal/rng"
)

// Mode selects between the live and export generation rules. The two
// differ in a few draw odds and in which embellishments apply.
type Mode int

const (
	ModeLive Mode = iota
	ModeExport
)

// Params configures a Generator. Customs must already be filtered to
// enabled emotes.
type Params struct {
	Mode          Mode
	Words         []string
	Emojis        []string
	Customs       []core.Emote
	EmotesEnabled bool
	EmoteOnly     bool
}

type Generator struct {
	src *rng.Source
	p   Params
}

// Placeholder message when the word list is empty in live mode.
const emptyWordsMessage = "Message par défaut"

func New(src *rng.Source, p Params) *Generator {
	return &Generator{src: src, p: p}
}

// SetParams swaps the generation settings. Live mode calls this after a
// settings reload.
func (g *Generator) SetParams(p Params) {
	g.p = p
}

// Text rolls one message body.
func (g *Generator) Text() string {
	if g.p.EmoteOnly {
		return g.emoteOnlyText()
	}
	return g.normalText()
}

func (g *Generator) emoteOnlyText() string {
	customChance := 0.4
	if g.p.Mode == ModeExport {
		customChance = 0.3
	}

	count := g.src.Between(1, 5)
	var tokens []string
	for i := 0; i < count; i++ {
		if len(g.p.Customs) > 0 && g.src.Chance(customChance) {
			e := rng.Pick(g.src, g.p.Customs)
			tokens = append(tokens, ":"+e.Name+":")
		} else if len(g.p.Emojis) > 0 {
			tokens = append(tokens, rng.Pick(g.src, g.p.Emojis))
		}
	}

	// Live chat sometimes spams one emote instead.
	if g.p.Mode == ModeLive && len(tokens) > 0 && g.src.Chance(0.3) {
		spam := tokens[0]
		n := g.src.Between(2, 5)
		tokens = tokens[:0]
		for i := 0; i < n; i++ {
			tokens = append(tokens, spam)
		}
	}
	return strings.Join(tokens, " ")
}

func (g *Generator) normalText() string {
	words := g.p.Words
	if len(words) == 0 {
		if g.p.Mode == ModeExport {
			words = core.DefaultWords
		} else {
			return emptyWordsMessage
		}
	}

	length := g.src.Between(1, 4)
	var tokens []string
	for i := 0; i < length; i++ {
		tokens = append(tokens, rng.Pick(g.src, words))

		if g.p.EmotesEnabled && g.src.Chance(0.3) {
			if len(g.p.Customs) > 0 && g.src.Chance(0.15) {
				e := rng.Pick(g.src, g.p.Customs)
				tokens = append(tokens, ":"+e.Name+":")
			} else if len(g.p.Emojis) > 0 {
				tokens = append(tokens, rng.Pick(g.src, g.p.Emojis))
			}
		}
	}

	// Shouted repetition of a random word.
	if g.src.Chance(0.2) {
		n := g.src.Between(2, 4)
		w := strings.ToUpper(rng.Pick(g.src, words))
		for i := 0; i < n; i++ {
			tokens = append(tokens, w)
		}
	}

	// Live chat occasionally shouts the whole message.
	if g.p.Mode == ModeLive && g.src.Chance(0.1) {
		for i := range tokens {
			tokens[i] = strings.ToUpper(tokens[i])
		}
	}
	return strings.Join(tokens, " ")
}
