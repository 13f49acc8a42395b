package chatgen

import (
	"strings"
	"testing"

	"github.com/you/fakechat/internal/core"
	"github.com/you/fakechat/internal/rng"
)

func TestNormalTextWordCount(t *testing.T) {
	g := New(rng.NewSeeded(1), Params{
		Mode:  ModeLive,
		Words: []string{"gg"},
	})
	for i := 0; i < 500; i++ {
		words := strings.Fields(g.Text())
		// 1-4 base words plus an optional shouted repeat of 2-4.
		if len(words) < 1 || len(words) > 8 {
			t.Fatalf("unexpected token count %d: %q", len(words), words)
		}
		for _, w := range words {
			if !strings.EqualFold(w, "gg") {
				t.Fatalf("unexpected token %q", w)
			}
		}
	}
}

func TestNormalTextEmptyWordsLive(t *testing.T) {
	g := New(rng.NewSeeded(2), Params{Mode: ModeLive})
	if got := g.Text(); got != "Message par défaut" {
		t.Fatalf("expected placeholder for empty word list, got %q", got)
	}
}

func TestNormalTextEmptyWordsExportFallsBack(t *testing.T) {
	g := New(rng.NewSeeded(3), Params{Mode: ModeExport})
	got := g.Text()
	if got == "" || got == "Message par défaut" {
		t.Fatalf("export mode must fall back to the default word list, got %q", got)
	}
	allowed := make(map[string]bool)
	for _, w := range core.DefaultWords {
		allowed[w] = true
		allowed[strings.ToUpper(w)] = true
	}
	for _, w := range strings.Fields(got) {
		if !allowed[w] {
			t.Fatalf("token %q not from the default word list", w)
		}
	}
}

func TestEmoteOnlyTokens(t *testing.T) {
	customs := []core.Emote{{Name: "pogey", Enabled: true}}
	g := New(rng.NewSeeded(4), Params{
		Mode:      ModeLive,
		EmoteOnly: true,
		Emojis:    []string{"🔥"},
		Customs:   customs,
	})
	sawCustom, sawEmoji := false, false
	for i := 0; i < 500; i++ {
		out := g.Text()
		for _, tok := range strings.Fields(out) {
			switch tok {
			case ":pogey:":
				sawCustom = true
			case "🔥":
				sawEmoji = true
			default:
				t.Fatalf("unexpected emote-only token %q", tok)
			}
		}
	}
	if !sawCustom || !sawEmoji {
		t.Fatalf("expected both custom and default emotes over many draws (custom=%v emoji=%v)", sawCustom, sawEmoji)
	}
}

func TestEmoteOnlySpamRepeatsFirstToken(t *testing.T) {
	g := New(rng.NewSeeded(5), Params{
		Mode:      ModeLive,
		EmoteOnly: true,
		Emojis:    []string{"🔥", "👀"},
	})
	// Spam collapse yields 2-5 copies of one token. Over many draws at
	// least one collapse must appear.
	saw := false
	for i := 0; i < 500; i++ {
		toks := strings.Fields(g.Text())
		if len(toks) < 2 {
			continue
		}
		same := true
		for _, tok := range toks {
			if tok != toks[0] {
				same = false
				break
			}
		}
		if same {
			saw = true
		}
		if len(toks) > 5 {
			t.Fatalf("emote-only message too long: %v", toks)
		}
	}
	if !saw {
		t.Fatalf("expected at least one spam-collapsed message")
	}
}

func TestEmotesDisabledNeverEmitsEmotes(t *testing.T) {
	g := New(rng.NewSeeded(6), Params{
		Mode:    ModeLive,
		Words:   []string{"hi"},
		Emojis:  []string{"🔥"},
		Customs: []core.Emote{{Name: "pogey", Enabled: true}},
	})
	for i := 0; i < 300; i++ {
		out := g.Text()
		if strings.Contains(out, "🔥") || strings.Contains(out, ":pogey:") {
			t.Fatalf("emotes disabled but found one in %q", out)
		}
	}
}

func TestViewerCountFloor(t *testing.T) {
	src := rng.NewSeeded(7)
	for i := 0; i < 100; i++ {
		if got := ViewerCount(src, 0); got < 1 {
			t.Fatalf("viewer count below 1: %d", got)
		}
		if got := JitterViewers(src, 1); got < 1 {
			t.Fatalf("jittered count below 1: %d", got)
		}
	}
	if got := ViewerCount(src, 10); got < 24 || got > 33 {
		t.Fatalf("viewer count out of range for 10 chatters: %d", got)
	}
}

func TestExportPoolSizing(t *testing.T) {
	src := rng.NewSeeded(8)
	names := []string{"a", "b", "c", "d", "e"}
	if got := ExportPool(src, names, 3); len(got) != 3 {
		t.Fatalf("expected pool of 3, got %v", got)
	}
	if got := ExportPool(src, names, 50); len(got) != 5 {
		t.Fatalf("pool cannot exceed the source list, got %v", got)
	}
}

func TestExportPoolFallsBackToDefaults(t *testing.T) {
	src := rng.NewSeeded(8)
	builtin := make(map[string]bool, len(core.DefaultUsernames))
	for _, name := range core.DefaultUsernames {
		builtin[name] = true
	}
	got := ExportPool(src, nil, 25)
	if len(got) != len(core.DefaultUsernames) {
		t.Fatalf("expected the full built-in pool, got %d names", len(got))
	}
	for _, name := range got {
		if !builtin[name] {
			t.Fatalf("unexpected name %q outside the built-in pool", name)
		}
	}
}

func TestLivePoolCap(t *testing.T) {
	src := rng.NewSeeded(9)
	names := make([]string, 300)
	for i := range names {
		names[i] = "u" + strings.Repeat("x", i%7)
	}
	if got := LivePool(src, names, 250); len(got) != 100 {
		t.Fatalf("live pool must cap at 100, got %d", len(got))
	}
}
