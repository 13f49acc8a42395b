package scheduler

import (
	"testing"
	"time"

	"github.com/you/fakechat/internal/config"
	"github.com/you/fakechat/internal/core"
	"github.com/you/fakechat/internal/rng"
)

func testStore(sim config.SimConfig) *config.Store {
	if sim.SpeedMS == 0 {
		sim.SpeedMS = 5
	}
	if sim.ActiveChatters == 0 {
		sim.ActiveChatters = 3
	}
	if len(sim.Words) == 0 {
		sim.Words = []string{"gg"}
	}
	return config.NewStore(sim)
}

func TestStartEmitsImmediately(t *testing.T) {
	s := New(testStore(config.SimConfig{Usernames: []string{"alice"}}), rng.NewSeeded(1))
	events := make(chan core.ChatEvent, 64)
	s.Subscribe(func(ev core.ChatEvent) {
		select {
		case events <- ev:
		default:
		}
	})

	s.Start()
	defer s.Stop()

	select {
	case ev := <-events:
		if ev.Username != "alice" {
			t.Fatalf("unexpected username %q", ev.Username)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event emitted after Start")
	}
	if !s.Running() {
		t.Fatalf("scheduler should report running")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	s := New(testStore(config.SimConfig{Usernames: []string{"alice"}}), rng.NewSeeded(2))
	s.Start()
	s.Start()
	defer s.Stop()
	if !s.Running() {
		t.Fatalf("scheduler should be running after double Start")
	}
}

func TestStopHaltsEmission(t *testing.T) {
	s := New(testStore(config.SimConfig{Usernames: []string{"alice"}}), rng.NewSeeded(3))
	var count int
	done := make(chan struct{})
	s.Subscribe(func(core.ChatEvent) {
		select {
		case <-done:
		default:
			count++
		}
	})

	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	s.Stop() // second Stop is a no-op
	close(done)

	if s.Running() {
		t.Fatalf("scheduler still running after Stop")
	}
	before := len(s.Recent(0))
	time.Sleep(50 * time.Millisecond)
	if after := len(s.Recent(0)); after != before {
		t.Fatalf("events kept flowing after Stop: %d -> %d", before, after)
	}
}

func TestLogTrim(t *testing.T) {
	log := make([]core.ChatEvent, 0, 151)
	for i := 0; i < 150; i++ {
		log = append(log, core.ChatEvent{Timestamp: float64(i)})
	}
	if got := trimLog(log); len(got) != 150 {
		t.Fatalf("log at the high mark must not be trimmed, got %d", len(got))
	}
	log = append(log, core.ChatEvent{Timestamp: 150})
	got := trimLog(log)
	if len(got) != 100 {
		t.Fatalf("expected batch trim to 100, got %d", len(got))
	}
	if got[0].Timestamp != 51 || got[99].Timestamp != 150 {
		t.Fatalf("trim must keep the newest entries, got [%v..%v]", got[0].Timestamp, got[99].Timestamp)
	}
}

func TestBotSubstitution(t *testing.T) {
	store := testStore(config.SimConfig{
		Usernames:   []string{"alice"},
		BotEnabled:  true,
		BotMessage:  "follow!",
		BotDelaySec: 1,
	})
	s := New(store, rng.NewSeeded(4))
	sim := store.Sim()
	s.started = time.Now()
	s.lastBot = time.Now().Add(-2 * time.Second)

	ev := s.nextEventLocked(sim)
	if !ev.Bot || ev.Username != core.BotUsername || ev.Text != "follow!" {
		t.Fatalf("expected bot substitution, got %+v", ev)
	}
	// The bot timer was just reset, so the next event is regular again.
	if ev := s.nextEventLocked(sim); ev.Bot {
		t.Fatalf("bot emitted twice in a row: %+v", ev)
	}
}

func TestSettingsChangeAppliesNextDecision(t *testing.T) {
	store := testStore(config.SimConfig{Usernames: []string{"alice"}, ActiveChatters: 1})
	s := New(store, rng.NewSeeded(5))
	s.started = time.Now()
	s.lastBot = time.Now()

	if ev := s.nextEventLocked(store.Sim()); ev.Username != "alice" {
		t.Fatalf("expected alice from the initial pool, got %q", ev.Username)
	}

	store.Update(func(sim config.SimConfig) config.SimConfig {
		sim.Usernames = []string{"bob"}
		return sim
	})
	if ev := s.nextEventLocked(store.Sim()); ev.Username != "bob" {
		t.Fatalf("settings change must rebuild the pool, got %q", ev.Username)
	}
}

func TestClearDropsLog(t *testing.T) {
	s := New(testStore(config.SimConfig{Usernames: []string{"alice"}}), rng.NewSeeded(6))
	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Stop()
	if len(s.Recent(0)) == 0 {
		t.Fatalf("expected some events before Clear")
	}
	s.Clear()
	if got := len(s.Recent(0)); got != 0 {
		t.Fatalf("expected empty log after Clear, got %d", got)
	}
}
