// Package scheduler drives live-mode chat: a self-rescheduling timer
// emits one message per tick at a jittered interval, reading the
// settings store fresh before every decision so live edits apply on the
// next tick.
package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/you/fakechat/internal/chatgen"
	"github.com/you/fakechat/internal/config"
	"github.com/you/fakechat/internal/core"
	"github.com/you/fakechat/internal/identity"
	"github.com/you/fakechat/internal/rng"
)

// Handler receives every emitted event. Handlers must not block; slow
// consumers buffer on their own side.
type Handler func(core.ChatEvent)

const (
	// Visible log bound: past the high mark the oldest entries are
	// trimmed down to the low mark in one batch.
	logHighMark = 150
	logLowMark  = 100

	jitterSpread = 0.2

	viewerJitterPeriod = 5 * time.Second
)

type Scheduler struct {
	store *config.Store
	src   *rng.Source
	reg   *identity.Registry
	gen   *chatgen.Generator

	mu          sync.Mutex
	running     bool
	timer       *time.Timer
	stopViewers chan struct{}
	started     time.Time
	lastBot     time.Time
	handlers    []Handler
	log         []core.ChatEvent
	viewers     int

	pool        []string
	poolVersion uint64
}

func New(store *config.Store, src *rng.Source) *Scheduler {
	sim := store.Sim()
	pool := append(core.OfficialBadgeList(simBadgeKinds(sim)),
		chatgen.CustomBadges(sim.CustomBadges)...)
	s := &Scheduler{
		store: store,
		src:   src,
		reg:   identity.NewLive(src, sim.ColorsEnabled, pool),
		gen:   chatgen.New(src, genParams(sim)),
	}
	return s
}

func simBadgeKinds(sim config.SimConfig) []string {
	if len(sim.BadgeKinds) == 0 {
		return nil
	}
	return sim.BadgeKinds
}

func genParams(sim config.SimConfig) chatgen.Params {
	emojis := sim.Emojis
	if len(emojis) == 0 {
		emojis = core.DefaultEmojiPool
	}
	return chatgen.Params{
		Mode:          chatgen.ModeLive,
		Words:         sim.Words,
		Emojis:        emojis,
		Customs:       chatgen.CustomEmotes(sim.CustomEmotes),
		EmotesEnabled: sim.EmotesEnabled,
		EmoteOnly:     sim.EmoteOnly,
	}
}

// Subscribe registers a handler for every future event.
func (s *Scheduler) Subscribe(h Handler) {
	s.mu.Lock()
	s.handlers = append(s.handlers, h)
	s.mu.Unlock()
}

// Start begins emitting. The first message goes out immediately.
// Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.started = time.Now()
	s.lastBot = s.started
	s.stopViewers = make(chan struct{})
	sim := s.store.Sim()
	s.viewers = chatgen.ViewerCount(s.src, sim.ActiveChatters)
	stop := s.stopViewers
	s.mu.Unlock()

	go s.viewerLoop(stop)
	s.tick()
}

// Stop cancels the pending tick. Idempotent; the emitted log survives.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.stopViewers != nil {
		close(s.stopViewers)
		s.stopViewers = nil
	}
}

// Running reports whether the scheduler is emitting.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Clear drops the visible log and all identity bindings.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	s.log = nil
	s.mu.Unlock()
	s.reg.Clear()
}

// Recent returns up to n of the latest events, oldest first.
func (s *Scheduler) Recent(n int) []core.ChatEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.log) {
		n = len(s.log)
	}
	out := make([]core.ChatEvent, n)
	copy(out, s.log[len(s.log)-n:])
	return out
}

// Viewers reports the current jittered viewer count.
func (s *Scheduler) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewers
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	sim := s.store.Sim()

	ev := s.nextEventLocked(sim)
	s.log = trimLog(append(s.log, ev))
	handlers := append([]Handler(nil), s.handlers...)

	// Fresh snapshot per decision so speed edits apply next tick.
	interval := time.Duration(s.src.Jitter(float64(sim.BaseInterval()), jitterSpread))
	s.timer = time.AfterFunc(interval, s.tick)
	s.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

func (s *Scheduler) nextEventLocked(sim config.SimConfig) core.ChatEvent {
	now := time.Now()
	ts := now.Sub(s.started).Seconds()

	if sim.BotEnabled && now.Sub(s.lastBot) > sim.BotDelay() {
		s.lastBot = now
		return core.ChatEvent{
			Username:  core.BotUsername,
			Text:      sim.BotMessage,
			Bot:       true,
			Color:     "#6441a5",
			Timestamp: ts,
		}
	}

	if v := s.store.Version(); v != s.poolVersion {
		s.pool = chatgen.LivePool(s.src, sim.Usernames, sim.ActiveChatters)
		s.poolVersion = v
		s.gen.SetParams(genParams(sim))
		slog.Debug("live settings applied", "pool", len(s.pool), "speed_ms", sim.SpeedMS)
	}

	username := chatgen.RandomUsername(s.src, s.pool)
	id := s.reg.GetOrCreate(username)
	return core.ChatEvent{
		Username:  username,
		Text:      s.gen.Text(),
		Badges:    id.Badges,
		Color:     id.Color,
		Timestamp: ts,
	}
}

// trimLog bounds the visible log: past the high mark the oldest entries
// go in one batch, keeping the latest logLowMark.
func trimLog(log []core.ChatEvent) []core.ChatEvent {
	if len(log) <= logHighMark {
		return log
	}
	trimmed := make([]core.ChatEvent, logLowMark)
	copy(trimmed, log[len(log)-logLowMark:])
	return trimmed
}

func (s *Scheduler) viewerLoop(stop chan struct{}) {
	t := time.NewTicker(viewerJitterPeriod)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.mu.Lock()
			s.viewers = chatgen.JitterViewers(s.src, s.viewers)
			s.mu.Unlock()
		case <-stop:
			return
		}
	}
}
