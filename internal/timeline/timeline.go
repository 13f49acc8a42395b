// Package timeline precomputes the full message schedule for an export,
// so rendering is a pure function of simulated time.
package timeline

import (
	"math"
	"sort"

	"github.com/you/fakechat/internal/chatgen"
	"github.com/you/fakechat/internal/core"
	"github.com/you/fakechat/internal/identity"
	"github.com/you/fakechat/internal/rng"
)

// BotColor is the fixed username colour of bot announcements.
const BotColor = "#6441a5"

type Params struct {
	DurationSec       float64
	MessagesPerSecond float64
	BotEnabled        bool
	BotMessage        string
	BotDelaySec       float64
}

// Build generates every event of the clip up front. Regular slots land
// at i/mps; when bot messages are enabled an announcement shows at 0.5s
// and afterwards a bot message replaces the regular slot at each elapsed
// delay boundary. The result is ordered by timestamp.
func Build(src *rng.Source, gen *chatgen.Generator, reg *identity.Registry, pool []string, p Params) []core.ChatEvent {
	mps := p.MessagesPerSecond
	if mps <= 0 {
		mps = 1
	}
	total := int(math.Ceil(p.DurationSec * mps))

	events := make([]core.ChatEvent, 0, total+1)
	if p.BotEnabled {
		events = append(events, botEvent(p.BotMessage, 0.5))
	}

	nextBot := math.Inf(1)
	if p.BotEnabled {
		nextBot = p.BotDelaySec
	}

	for i := 0; i < total; i++ {
		ts := float64(i) / mps
		if p.BotEnabled && ts >= nextBot {
			events = append(events, botEvent(p.BotMessage, ts))
			nextBot += p.BotDelaySec
			continue
		}
		username := chatgen.RandomUsername(src, pool)
		id := reg.GetOrCreate(username)
		events = append(events, core.ChatEvent{
			Username:  username,
			Text:      gen.Text(),
			Badges:    id.Badges,
			Color:     id.Color,
			Timestamp: ts,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})
	return events
}

func botEvent(text string, ts float64) core.ChatEvent {
	return core.ChatEvent{
		Username:  core.BotUsername,
		Text:      text,
		Bot:       true,
		Color:     BotColor,
		Timestamp: ts,
	}
}
