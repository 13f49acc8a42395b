package core

// BotUsername is the fixed sender of periodic announcement messages.
const BotUsername = "Nightbot"

// LivePalette is the username colour pool used in live mode. Colours are
// drawn uniformly; duplicates in the list keep the historical draw odds.
var LivePalette = []string{
	"#ff0000", "#0000ff", "#00ff00", "#b700ff", "#ff7f00",
	"#9acd32", "#00ff7f", "#d2691e", "#ff00ff", "#1e90ff",
	"#ff69b4", "#8a2be2", "#00ced1", "#ff4500", "#da70d6",
	"#ffd700", "#00fa9a", "#1e90ff", "#ff1493", "#00bfff",
}

// ExportPalette is indexed by username hash so a name maps to the same
// colour in every export.
var ExportPalette = []string{
	"#ff0000", "#0000ff", "#00ff00", "#b700ff", "#ff7f00",
	"#9acd32", "#00ff7f", "#d2691e", "#ff00ff", "#1e90ff",
	"#ff69b4", "#8a2be2", "#00ced1", "#ff4500", "#da70d6",
}

// HashUsername reduces a username to a 32-bit hash (h*31 + ch with int32
// wraparound). Used to pick a stable export colour per name.
func HashUsername(name string) int32 {
	var h int32
	for _, ch := range name {
		h = (h<<5 - h) + ch
	}
	return h
}

// ExportColor returns the stable export-mode colour for a username.
func ExportColor(name string) string {
	h := HashUsername(name)
	if h < 0 {
		h = -h
	}
	return ExportPalette[int(h)%len(ExportPalette)]
}

// Official badge kinds in definition order.
var OfficialBadgeKinds = []string{
	"broadcaster", "mod", "vip", "sub", "prime", "turbo", "verified",
}

// OfficialBadges is the live-mode badge table.
var OfficialBadges = map[string]Badge{
	"broadcaster": {Kind: "broadcaster", Name: "BROADCASTER", Weight: 0.02, ImageRef: badgeCDN + "5527c58c-fb7d-422d-b71b-f309dcb85cc1/3"},
	"mod":         {Kind: "mod", Name: "MOD", Weight: 0.03, ImageRef: badgeCDN + "3267646d-33f0-4b17-b3df-f923a41db1d0/3"},
	"vip":         {Kind: "vip", Name: "VIP", Weight: 0.02, ImageRef: badgeCDN + "b817aba4-fad8-49e2-b88a-7cc744dfa6ec/3"},
	"sub":         {Kind: "sub", Name: "SUB", Weight: 0.20, ImageRef: badgeCDN + "5d9f2208-5dd8-11e7-8513-2ff4adfae661/3"},
	"prime":       {Kind: "prime", Name: "PRIME", Weight: 0.15, ImageRef: badgeCDN + "bbbe0db0-a598-423e-86d0-f9fb98ca1933/3"},
	"turbo":       {Kind: "turbo", Name: "TURBO", Weight: 0.01, ImageRef: badgeCDN + "bd444ec6-8f34-4bf9-91f4-af1e3428d80f/3"},
	"verified":    {Kind: "verified", Name: "VERIFIED", Weight: 0.005, ImageRef: badgeCDN + "d12a2e27-16f6-41d0-ab77-b780518f00a3/3"},
}

// ExportBadgeWeights overrides live weights in export mode. Only the
// broadcaster odds differ; exports are long enough that the live rate
// would flood the clip with broadcaster badges.
var ExportBadgeWeights = map[string]float64{
	"broadcaster": 0.002,
}

const badgeCDN = "https://static-cdn.jtvnw.net/badges/v1/"

// OfficialBadgeList returns the official badges in definition order,
// restricted to the given kinds (nil means all).
func OfficialBadgeList(kinds []string) []Badge {
	if kinds == nil {
		kinds = OfficialBadgeKinds
	}
	out := make([]Badge, 0, len(kinds))
	for _, k := range kinds {
		if b, ok := OfficialBadges[k]; ok {
			out = append(out, b)
		}
	}
	return out
}

// DefaultEmojiPool is the built-in emoji set, all enabled by default.
var DefaultEmojiPool = []string{
	"😂", "🔥", "💯", "👀", "🎮", "❤️", "💜", "💚", "💙", "🤣",
	"😎", "🤔", "😭", "🙏", "👏", "🎉", "⚡", "🚀", "💪", "✨",
}

// DefaultUsernames seeds the export username pool when the caller
// supplies none.
var DefaultUsernames = []string{
	"xQc", "Pokimane", "Ninja", "Shroud", "DrDisrespect",
	"TimTheTatman", "Summit1g", "Tfue", "Sodapoppin", "Mizkif",
	"HasanAbi", "Ludwig", "Valkyrae", "Sykkuno", "AdinRoss",
}

// DefaultWords seeds the export word list when the caller supplies none.
var DefaultWords = []string{
	"POG", "KEKW", "LUL", "Pog", "PogChamp", "monkaS", "EZ", "Clap", "GG", "W", "L",
}
