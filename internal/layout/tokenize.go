package layout

import (
	"strings"

	"github.com/rivo/uniseg"

	"github.com/you/fakechat/internal/core"
)

// Tokenize splits message text into text, emoji and custom-emote
// segments. A :name: token counts as an emote only when an enabled
// emote with that name exists; otherwise it stays literal text, so
// disabling an emote makes its token visible as typed.
func Tokenize(text string, emotes []core.Emote) []Segment {
	var parts []Segment
	rest := text
	for {
		name, before, after, ok := nextEmoteToken(rest)
		if !ok {
			break
		}
		if before != "" {
			parts = append(parts, splitEmoji(before)...)
		}
		if _, found := core.FindEmote(emotes, name); found {
			parts = append(parts, Segment{Kind: Emote, Content: name})
		} else {
			parts = append(parts, Segment{Kind: Text, Content: ":" + name + ":"})
		}
		rest = after
	}
	if rest != "" {
		parts = append(parts, splitEmoji(rest)...)
	}
	return parts
}

// nextEmoteToken finds the first :name: token (name free of spaces and
// colons) and splits the string around it.
func nextEmoteToken(s string) (name, before, after string, ok bool) {
	for start := 0; start < len(s); {
		i := strings.IndexByte(s[start:], ':')
		if i < 0 {
			return "", "", "", false
		}
		i += start
		j := strings.IndexAny(s[i+1:], ": ")
		if j < 0 {
			return "", "", "", false
		}
		j += i + 1
		if s[j] != ':' || j == i+1 {
			// Space inside, or empty "::": keep scanning from the
			// character that broke the token.
			start = j
			continue
		}
		return s[i+1 : j], s[:i], s[j+1:], true
	}
	return "", "", "", false
}

// splitEmoji separates a raw run into text and emoji segments. Each
// emoji grapheme cluster becomes its own fixed-width segment.
func splitEmoji(s string) []Segment {
	var parts []Segment
	var text strings.Builder

	flushText := func() {
		if text.Len() > 0 {
			parts = append(parts, Segment{Kind: Text, Content: text.String()})
			text.Reset()
		}
	}

	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		if isEmojiCluster(cluster) {
			flushText()
			parts = append(parts, Segment{Kind: Emoji, Content: cluster})
		} else {
			text.WriteString(cluster)
		}
	}
	flushText()
	return parts
}

// isEmojiCluster reports whether a grapheme cluster is pictographic.
// Plain digits and punctuation stay text even though Unicode gives them
// the Emoji property.
func isEmojiCluster(cluster string) bool {
	for _, r := range cluster {
		switch {
		case r >= 0x1F000 && r <= 0x1FAFF: // emoji & pictograph blocks
			return true
		case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
			return true
		case r >= 0x2B00 && r <= 0x2BFF: // arrows, stars
			return true
		case r == 0xFE0F: // emoji variation selector
			return true
		}
	}
	return false
}
