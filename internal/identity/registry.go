// Package identity binds a stable appearance (colour, badges) to each
// username for the lifetime of a session or an export.
package identity

import (
	"sync"

	"github.com/you/fakechat/internal/core"
	"github.com/you/fakechat/internal/rng"
)

// BadgeAssigner rolls the badge set for a newly seen username.
type BadgeAssigner func(src *rng.Source) []core.Badge

// ColorPicker rolls or derives the username colour.
type ColorPicker func(src *rng.Source, username string) string

// Registry creates identities lazily and returns the same identity for
// the same username until Clear. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	src      *rng.Source
	color    ColorPicker
	badges   BadgeAssigner
	profiles map[string]core.Identity
}

func New(src *rng.Source, color ColorPicker, badges BadgeAssigner) *Registry {
	return &Registry{
		src:      src,
		color:    color,
		badges:   badges,
		profiles: make(map[string]core.Identity),
	}
}

// NewLive builds a registry with live-mode rules: colour drawn uniformly
// from the live palette (empty when colours are disabled), badges via
// the shuffled live assigner.
func NewLive(src *rng.Source, colorsEnabled bool, pool []core.Badge) *Registry {
	color := func(*rng.Source, string) string { return "" }
	if colorsEnabled {
		color = func(s *rng.Source, _ string) string {
			return rng.Pick(s, core.LivePalette)
		}
	}
	return New(src, color, LiveAssigner(pool))
}

// NewExport builds a registry with export-mode rules: colour derived
// from the username hash so repeated exports agree (white when colours
// are disabled), badges via the fixed-order export assigner.
func NewExport(src *rng.Source, colorsEnabled bool, official, customs []core.Badge) *Registry {
	color := func(*rng.Source, string) string { return "#ffffff" }
	if colorsEnabled {
		color = func(_ *rng.Source, name string) string {
			return core.ExportColor(name)
		}
	}
	return New(src, color, ExportAssigner(official, customs))
}

// GetOrCreate returns the identity for username, creating and storing
// one on first sight.
func (r *Registry) GetOrCreate(username string) core.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.profiles[username]; ok {
		return id
	}
	id := core.Identity{
		Username: username,
		Color:    r.color(r.src, username),
		Badges:   r.badges(r.src),
	}
	r.profiles[username] = id
	return id
}

// Preload creates identities for every username up front. Export mode
// runs this before rendering so all bindings exist before frame one.
func (r *Registry) Preload(usernames []string) {
	for _, u := range usernames {
		r.GetOrCreate(u)
	}
}

// Clear drops every binding. Usernames seen afterwards roll fresh
// identities.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.profiles = make(map[string]core.Identity)
	r.mu.Unlock()
}

// Len reports the number of bound usernames.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.profiles)
}
