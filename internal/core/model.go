package core

import "time"

// ChatEvent is a single generated chat message, shared by live mode and export.
type ChatEvent struct {
	Username  string
	Text      string
	Bot       bool // channel-bot announcement instead of a viewer message
	Badges    []Badge
	Color     string  // hex colour ("#rrggbb"), empty when colours are disabled
	Timestamp float64 // seconds since session start
}

// Badge is a chat badge definition. Kind identifies the official slot
// ("mod", "sub", ...); custom badges carry Kind == Name.
type Badge struct {
	Kind     string
	Name     string  // display label, upper case
	Weight   float64 // per-draw grant probability
	ImageRef string  // optional image URL or path
	Custom   bool
}

// Identity is the appearance bound to a username for the lifetime of a
// session or an export. Once created it never changes.
type Identity struct {
	Username string
	Color    string
	Badges   []Badge // at most 3, in assignment order
}

// StoredEvent is a ChatEvent stamped with the wall-clock time it was
// emitted, as archived to the message sink.
type StoredEvent struct {
	ID int64
	Ts time.Time
	ChatEvent
}

// Emote is a custom emote usable in messages via the :name: token form.
type Emote struct {
	Name     string
	ImageRef string
	Enabled  bool
}

// EnabledEmotes filters a set down to the enabled entries.
func EnabledEmotes(emotes []Emote) []Emote {
	out := make([]Emote, 0, len(emotes))
	for _, e := range emotes {
		if e.Enabled {
			out = append(out, e)
		}
	}
	return out
}

// FindEmote returns the enabled emote with the given name, if any.
// Disabled emotes are invisible to lookups so their token form stays
// literal text.
func FindEmote(emotes []Emote, name string) (Emote, bool) {
	for _, e := range emotes {
		if e.Enabled && e.Name == name {
			return e, true
		}
	}
	return Emote{}, false
}
