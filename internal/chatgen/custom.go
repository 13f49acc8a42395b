package chatgen

import (
	"strings"

	"github.com/you/fakechat/internal/config"
	"github.com/you/fakechat/internal/core"
)

// CustomEmotes converts enabled emote definitions to core emotes.
func CustomEmotes(defs []config.EmoteDef) []core.Emote {
	var out []core.Emote
	for _, d := range defs {
		if !d.Enabled || strings.TrimSpace(d.Name) == "" {
			continue
		}
		out = append(out, core.Emote{Name: d.Name, ImageRef: d.Image, Enabled: true})
	}
	return out
}

// CustomBadges converts enabled badge definitions to core badges. The
// configured weight is a percentage and becomes a probability here; the
// display name is upper-cased like the official badges.
func CustomBadges(defs []config.BadgeDef) []core.Badge {
	var out []core.Badge
	for _, d := range defs {
		if !d.Enabled || strings.TrimSpace(d.Name) == "" {
			continue
		}
		name := strings.ToUpper(d.Name)
		out = append(out, core.Badge{
			Kind:     name,
			Name:     name,
			Weight:   d.Weight / 100,
			ImageRef: d.Image,
			Custom:   true,
		})
	}
	return out
}
