package timeline

import (
	"math"
	"testing"

	"github.com/you/fakechat/internal/chatgen"
	"github.com/you/fakechat/internal/core"
	"github.com/you/fakechat/internal/identity"
	"github.com/you/fakechat/internal/rng"
)

func buildFixture(t *testing.T, p Params) []core.ChatEvent {
	t.Helper()
	src := rng.NewSeeded(11)
	gen := chatgen.New(src, chatgen.Params{Mode: chatgen.ModeExport, Words: []string{"gg", "pog"}})
	reg := identity.NewExport(src, true, core.OfficialBadgeList(nil), nil)
	return Build(src, gen, reg, []string{"alice", "bob"}, p)
}

func TestBuildSlotCountAndSpacing(t *testing.T) {
	events := buildFixture(t, Params{DurationSec: 10, MessagesPerSecond: 2})
	if len(events) != 20 {
		t.Fatalf("expected ceil(10*2)=20 events, got %d", len(events))
	}
	for i, ev := range events {
		want := float64(i) / 2
		if math.Abs(ev.Timestamp-want) > 1e-9 {
			t.Fatalf("event %d at %v, want %v", i, ev.Timestamp, want)
		}
	}
}

func TestBuildOrdering(t *testing.T) {
	events := buildFixture(t, Params{DurationSec: 30, MessagesPerSecond: 1.5, BotEnabled: true, BotMessage: "follow!", BotDelaySec: 7})
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp < events[i-1].Timestamp {
			t.Fatalf("events out of order at %d: %v after %v", i, events[i].Timestamp, events[i-1].Timestamp)
		}
	}
}

func TestBuildBotReplacement(t *testing.T) {
	events := buildFixture(t, Params{DurationSec: 20, MessagesPerSecond: 1, BotEnabled: true, BotMessage: "follow!", BotDelaySec: 5})

	// One early announcement plus one replacement per elapsed delay
	// boundary; total slots unchanged.
	if len(events) != 21 {
		t.Fatalf("expected 20 slots + 1 early bot message, got %d", len(events))
	}

	var early *core.ChatEvent
	botAt := map[float64]bool{}
	for i := range events {
		ev := &events[i]
		if !ev.Bot {
			continue
		}
		if ev.Timestamp == 0.5 {
			early = ev
			continue
		}
		botAt[ev.Timestamp] = true
	}
	if early == nil {
		t.Fatalf("missing early bot message at 0.5s")
	}
	if early.Username != core.BotUsername || early.Color != BotColor {
		t.Fatalf("unexpected bot identity: %q %q", early.Username, early.Color)
	}
	for _, want := range []float64{5, 10, 15} {
		if !botAt[want] {
			t.Fatalf("expected bot replacement at %vs, got %v", want, botAt)
		}
	}
	if len(botAt) != 3 {
		t.Fatalf("unexpected extra bot messages: %v", botAt)
	}

	// Replaced slots must not also hold a regular message.
	for _, ev := range events {
		if !ev.Bot && botAt[ev.Timestamp] {
			t.Fatalf("regular message shares a replaced slot at %v", ev.Timestamp)
		}
	}
}

func TestBuildNoBotWhenDisabled(t *testing.T) {
	events := buildFixture(t, Params{DurationSec: 15, MessagesPerSecond: 1})
	for _, ev := range events {
		if ev.Bot {
			t.Fatalf("bot disabled but found bot event at %v", ev.Timestamp)
		}
	}
}

func TestBuildIdentitiesStableAcrossTimeline(t *testing.T) {
	events := buildFixture(t, Params{DurationSec: 120, MessagesPerSecond: 2})
	colors := map[string]string{}
	for _, ev := range events {
		if prev, ok := colors[ev.Username]; ok && prev != ev.Color {
			t.Fatalf("username %q changed colour mid-timeline: %q -> %q", ev.Username, prev, ev.Color)
		}
		colors[ev.Username] = ev.Color
	}
}
