package config

import "strings"

// Scenario is a named settings bundle that retunes the generator for a
// particular stream mood.
type Scenario struct {
	Name        string
	SpeedMS     int
	Chatters    int
	Words       []string
	Emotes      bool
	Colors      bool
	EmoteOnly   bool
	Bot         bool
	BotMessage  string
	BotDelaySec int
}

var Scenarios = map[string]Scenario{
	"gaming": {
		Name:     "Gaming Stream",
		SpeedMS:  800,
		Chatters: 35,
		Words: []string{
			"gg", "nice", "lets go", "clutch", "no way", "insane", "ez", "noob",
			"carried", "throw", "ace", "clean", "diff", "cracked", "ratio", "W", "L",
			"cope", "skill issue", "touch grass", "get good", "one tap", "flick",
			"360", "noscope", "wallbang", "prefire", "peek", "rotate", "push",
			"hold", "save", "eco", "force buy",
		},
		Emotes: true, Colors: true,
		Bot:         true,
		BotMessage:  "🎮 Follow for more epic gaming moments! Use code GAMER for 10% off! Join Discord!",
		BotDelaySec: 45,
	},
	"just-chatting": {
		Name:     "Just Chatting",
		SpeedMS:  1200,
		Chatters: 50,
		Words: []string{
			"hey", "hi", "hello", "how are you", "whats up", "lol", "lmao", "true",
			"facts", "real", "based", "cap", "no cap", "fr fr", "on god", "literally",
			"actually", "honestly", "exactly", "same", "mood", "vibe", "tea", "spill",
			"drama", "story time", "wild", "crazy", "insane", "thoughts?", "opinion?",
			"hot take",
		},
		Emotes: true, Colors: true,
		Bot:         true,
		BotMessage:  "💬 Welcome to the stream! Be respectful and have fun! Check out my socials!",
		BotDelaySec: 60,
	},
	"esports": {
		Name:     "Esports Tournament",
		SpeedMS:  400,
		Chatters: 80,
		Words: []string{
			"LETS GO", "GG", "THROW", "CHOKE", "CLUTCH", "ACE", "INSANE", "GOAT",
			"WASHED", "DIFF", "EZ", "DOMINATING", "COMEBACK", "REVERSE SWEEP",
			"TILTED", "MENTAL", "PEEK", "FLANK", "ROTATE", "EXECUTE", "DEFAULT",
			"ECO", "FORCE", "TIMEOUT", "PAUSE", "VAC", "AIMBOT", "CRACKED", "SHEESH",
		},
		Emotes: true, Colors: true,
		BotDelaySec: 30,
	},
	"raid": {
		Name:     "Raid Incoming",
		SpeedMS:  200,
		Chatters: 100,
		Words: []string{
			"RAID", "RAID HYPE", "WELCOME RAIDERS", "LOVE", "HEARTS", "POG",
			"LETS GO", "W RAID", "MASSIVE", "HUGE RAID", "OMG", "INSANE",
			"SO MANY PEOPLE", "HI EVERYONE", "WELCOME", "HYPE", "LOVE THE ENERGY",
			"APPRECIATE YOU", "THANKS FOR RAID", "YOU'RE AMAZING",
		},
		Emotes: true, Colors: true,
		BotDelaySec: 30,
	},
	"sub-train": {
		Name:     "Sub Train",
		SpeedMS:  300,
		Chatters: 60,
		Words: []string{
			"SUB HYPE", "GIFT SUB", "THANK YOU", "LETS GO", "SUB TRAIN",
			"KEEP IT GOING", "POG", "W", "TIER 3", "PRIME", "GIFTED", "GENEROUS",
			"LEGEND", "GOAT", "APPRECIATE YOU", "LOVE", "HYPE TRAIN", "CHOO CHOO",
			"ALL ABOARD", "50 SUBS", "100 SUBS", "INSANE",
		},
		Emotes: true, Colors: true,
		Bot:         true,
		BotMessage:  "🚂 SUB TRAIN ACTIVE! Thank you for all the support! Every sub counts!",
		BotDelaySec: 20,
	},
	"drama": {
		Name:     "Drama/Controversy",
		SpeedMS:  600,
		Chatters: 90,
		Words: []string{
			"drama", "spicy", "tea", "exposed", "cancelled", "L take", "ratio",
			"defend", "explain", "yikes", "oof", "bruh", "not a good look",
			"receipts", "proof", "cap", "no way", "delete this", "touch grass",
			"chronically online", "parasocial", "weird", "cringe", "based",
			"unbased", "cope", "seethe", "mald",
		},
		Emotes: true, Colors: true,
		Bot:         true,
		BotMessage:  "⚠️ Please keep chat respectful. No harassment or hate speech. Mods are watching.",
		BotDelaySec: 15,
	},
	"chill": {
		Name:     "Chill Vibes",
		SpeedMS:  2000,
		Chatters: 15,
		Words: []string{
			"cozy", "vibes", "chill", "relaxing", "peaceful", "love this", "so calm",
			"needed this", "perfect", "aesthetic", "mood", "comfy", "wholesome",
			"thanks", "appreciate", "good vibes", "zen", "mindful", "breathe",
			"relax", "unwind", "destress", "selfcare",
		},
		Emotes: true, Colors: true,
		Bot:         true,
		BotMessage:  "🌙 Welcome to our chill space. Grab some tea and relax. You're appreciated here.",
		BotDelaySec: 90,
	},
	"hype": {
		Name:     "Hype Release",
		SpeedMS:  250,
		Chatters: 95,
		Words: []string{
			"HYPE", "LETS GOOOOO", "POG", "INSANE", "FINALLY", "IVE BEEN WAITING",
			"CANT WAIT", "PREORDER", "DAY ONE", "INSTANT BUY", "TAKE MY MONEY",
			"GOTY", "MASTERPIECE", "CINEMA", "PEAK", "GOATED", "W", "HUGE W",
			"BEST EVER", "LEGENDARY", "HISTORIC MOMENT",
		},
		Emotes: true, Colors: true,
		Bot:         true,
		BotMessage:  "🚀 GET HYPED! Links in description! Use code HYPE for exclusive content!",
		BotDelaySec: 30,
	},
}

// ApplyScenario overlays a named scenario onto sim settings. Unknown
// names leave the settings untouched.
func ApplyScenario(sim SimConfig, name string) SimConfig {
	sc, ok := Scenarios[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return sim
	}
	sim.Scenario = strings.ToLower(strings.TrimSpace(name))
	sim.SpeedMS = sc.SpeedMS
	sim.ActiveChatters = sc.Chatters
	sim.Words = append([]string(nil), sc.Words...)
	sim.EmotesEnabled = sc.Emotes
	sim.ColorsEnabled = sc.Colors
	sim.EmoteOnly = sc.EmoteOnly
	sim.BotEnabled = sc.Bot
	if sc.BotMessage != "" {
		sim.BotMessage = sc.BotMessage
	}
	sim.BotDelaySec = sc.BotDelaySec
	return sim
}

// ScenarioNames lists the available scenario keys.
func ScenarioNames() []string {
	names := make([]string, 0, len(Scenarios))
	for k := range Scenarios {
		names = append(names, k)
	}
	return names
}
