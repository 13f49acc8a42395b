package config

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Sim    SimConfig
	Export ExportConfig
	Server ServerConfig
	Sinks  []string
	Sink   SinkConfig
}

// SimConfig drives chat generation in both live and export mode. In live
// mode it can be rewritten at runtime via the settings file watcher.
type SimConfig struct {
	SpeedMS        int // base interval between messages
	ActiveChatters int // chatting users; silent viewers derive from this
	Usernames      []string
	Words          []string
	EmotesEnabled  bool
	ColorsEnabled  bool
	EmoteOnly      bool
	BotEnabled     bool
	BotMessage     string
	BotDelaySec    int
	Emojis         []string // enabled emoji subset, nil means full pool
	BadgeKinds     []string // enabled official badge kinds, nil means all
	CustomEmotes   []EmoteDef
	CustomBadges   []BadgeDef
	Scenario       string
	SettingsFile   string // optional JSON file watched for live overrides
}

// EmoteDef declares a custom emote usable via :name:.
type EmoteDef struct {
	Name    string `json:"name"`
	Image   string `json:"image,omitempty"`
	Enabled bool   `json:"enabled"`
}

// BadgeDef declares a custom badge. Weight is a percentage (0-100) as
// users write it; consumers divide by 100 for the draw probability.
type BadgeDef struct {
	Name    string  `json:"name"`
	Image   string  `json:"image,omitempty"`
	Weight  float64 `json:"weight"`
	Enabled bool    `json:"enabled"`
}

type ExportConfig struct {
	DurationSec int
	Quality     string // low | medium | high | ultra | 4k
	Format      string // webm | mp4
	Crop        bool   // crop the canvas to the chat panel
	LightTheme  bool
	OutputDir   string
	FFmpegPath  string
}

type ServerConfig struct {
	Addr         string
	CORSOrigins  []string
	RatePerMin   int
	GzipDisabled bool
}

type SinkConfig struct {
	SQLite     SQLiteConfig
	BatchSize  int
	FlushMaxMS int
}

type SQLiteConfig struct {
	Path string
}

const (
	defaultSpeedMS     = 1000
	defaultChatters    = 25
	defaultBotDelaySec = 30
	defaultBotMessage  = "📢 Don't forget to follow the channel! Join our Discord. Thanks for your support! 💜"

	defaultDurationSec = 30
	defaultQuality     = "medium"
	defaultFormat      = "webm"

	defaultAddr       = ":8887"
	defaultRatePerMin = 300

	defaultSQLitePath = "fakechat.db"
	defaultBatchSize  = 1
	defaultFlushMS    = 0
)

func Load() Config {
	cfg := Config{}

	cfg.Sim.SpeedMS = readInt("FAKECHAT_SPEED_MS", defaultSpeedMS)
	cfg.Sim.ActiveChatters = readInt("FAKECHAT_CHATTERS", defaultChatters)
	cfg.Sim.Usernames = splitList(os.Getenv("FAKECHAT_USERNAMES"))
	cfg.Sim.Words = splitPhrases(os.Getenv("FAKECHAT_WORDS"))
	cfg.Sim.EmotesEnabled = readBool("FAKECHAT_EMOTES", true)
	cfg.Sim.ColorsEnabled = readBool("FAKECHAT_COLORS", true)
	cfg.Sim.EmoteOnly = readBool("FAKECHAT_EMOTE_ONLY", false)
	cfg.Sim.BotEnabled = readBool("FAKECHAT_BOT", false)
	cfg.Sim.BotMessage = strings.TrimSpace(os.Getenv("FAKECHAT_BOT_MESSAGE"))
	if cfg.Sim.BotMessage == "" {
		cfg.Sim.BotMessage = defaultBotMessage
	}
	cfg.Sim.BotDelaySec = readInt("FAKECHAT_BOT_DELAY_SEC", defaultBotDelaySec)
	cfg.Sim.Emojis = splitPhrases(os.Getenv("FAKECHAT_EMOJIS"))
	cfg.Sim.BadgeKinds = splitList(os.Getenv("FAKECHAT_BADGES"))
	cfg.Sim.Scenario = strings.TrimSpace(os.Getenv("FAKECHAT_SCENARIO"))
	cfg.Sim.SettingsFile = strings.TrimSpace(os.Getenv("FAKECHAT_SETTINGS_FILE"))

	if path := strings.TrimSpace(os.Getenv("FAKECHAT_CUSTOM_EMOTES_FILE")); path != "" {
		if defs, err := readJSONFile[[]EmoteDef](path); err == nil {
			cfg.Sim.CustomEmotes = defs
		}
	}
	if path := strings.TrimSpace(os.Getenv("FAKECHAT_CUSTOM_BADGES_FILE")); path != "" {
		if defs, err := readJSONFile[[]BadgeDef](path); err == nil {
			cfg.Sim.CustomBadges = defs
		}
	}

	if cfg.Sim.Scenario != "" {
		cfg.Sim = ApplyScenario(cfg.Sim, cfg.Sim.Scenario)
	}

	cfg.Export.DurationSec = readInt("FAKECHAT_EXPORT_DURATION_SEC", defaultDurationSec)
	cfg.Export.Quality = strings.TrimSpace(os.Getenv("FAKECHAT_EXPORT_QUALITY"))
	if cfg.Export.Quality == "" {
		cfg.Export.Quality = defaultQuality
	}
	cfg.Export.Format = strings.ToLower(strings.TrimSpace(os.Getenv("FAKECHAT_EXPORT_FORMAT")))
	if cfg.Export.Format == "" {
		cfg.Export.Format = defaultFormat
	}
	cfg.Export.Crop = readBool("FAKECHAT_EXPORT_CROP", false)
	cfg.Export.LightTheme = readBool("FAKECHAT_EXPORT_LIGHT_THEME", false)
	cfg.Export.OutputDir = strings.TrimSpace(os.Getenv("FAKECHAT_EXPORT_DIR"))
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "."
	}
	cfg.Export.FFmpegPath = strings.TrimSpace(os.Getenv("FAKECHAT_FFMPEG"))
	if cfg.Export.FFmpegPath == "" {
		cfg.Export.FFmpegPath = "ffmpeg"
	}

	cfg.Server.Addr = strings.TrimSpace(os.Getenv("FAKECHAT_HTTP_ADDR"))
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	cfg.Server.CORSOrigins = splitList(os.Getenv("FAKECHAT_HTTP_CORS_ORIGINS"))
	cfg.Server.RatePerMin = readInt("FAKECHAT_HTTP_RATE_PER_MIN", defaultRatePerMin)
	cfg.Server.GzipDisabled = readBool("FAKECHAT_HTTP_GZIP_DISABLED", false)

	raw := strings.TrimSpace(os.Getenv("FAKECHAT_SINKS"))
	cfg.Sinks = splitList(raw)
	cfg.Sink.SQLite.Path = strings.TrimSpace(os.Getenv("FAKECHAT_SINK_SQLITE_PATH"))
	if cfg.Sink.SQLite.Path == "" {
		cfg.Sink.SQLite.Path = defaultSQLitePath
	}
	cfg.Sink.BatchSize = readInt("FAKECHAT_SINK_BATCH_SIZE", defaultBatchSize)
	cfg.Sink.FlushMaxMS = readInt("FAKECHAT_SINK_FLUSH_MAX_MS", defaultFlushMS)

	return cfg
}

// splitList splits on commas, semicolons and whitespace, dedupes
// case-insensitively and sorts. For username-style lists.
func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', ';', ' ', '\t', '\n':
			return true
		}
		return false
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return dedupe(out)
}

// splitPhrases splits on commas and newlines only, preserving order and
// inner spaces. For word lists where "lets go" is one entry.
func splitPhrases(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(v))
	}
	sort.Strings(out)
	return out
}

func readJSONFile[T any](path string) (T, error) {
	var out T
	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

func readInt(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n <= 0 {
		return def
	}
	return n
}

func readBool(name string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// BaseInterval converts the configured speed to a duration.
func (s SimConfig) BaseInterval() time.Duration {
	ms := s.SpeedMS
	if ms <= 0 {
		ms = defaultSpeedMS
	}
	return time.Duration(ms) * time.Millisecond
}

// BotDelay converts the bot delay to a duration.
func (s SimConfig) BotDelay() time.Duration {
	sec := s.BotDelaySec
	if sec <= 0 {
		sec = defaultBotDelaySec
	}
	return time.Duration(sec) * time.Second
}

func (c Config) HasSink(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range c.Sinks {
		if strings.ToLower(strings.TrimSpace(s)) == name {
			return true
		}
	}
	return false
}

func (c Config) FlushInterval() time.Duration {
	if c.Sink.FlushMaxMS <= 0 {
		return 0
	}
	return time.Duration(c.Sink.FlushMaxMS) * time.Millisecond
}

func (c Config) Batch() int {
	if c.Sink.BatchSize <= 0 {
		return defaultBatchSize
	}
	return c.Sink.BatchSize
}

type Summary struct {
	Sim    SimSummary    `json:"sim"`
	Export ExportSummary `json:"export"`
	Addr   string        `json:"addr"`
	Sinks  []string      `json:"sinks"`
}

type SimSummary struct {
	SpeedMS      int    `json:"speed_ms"`
	Chatters     int    `json:"chatters"`
	Usernames    int    `json:"usernames"`
	Words        int    `json:"words"`
	Emotes       bool   `json:"emotes"`
	Colors       bool   `json:"colors"`
	EmoteOnly    bool   `json:"emote_only"`
	Bot          bool   `json:"bot"`
	BotDelaySec  int    `json:"bot_delay_sec,omitempty"`
	Scenario     string `json:"scenario,omitempty"`
	SettingsFile string `json:"settings_file,omitempty"`
}

type ExportSummary struct {
	DurationSec int    `json:"duration_sec"`
	Quality     string `json:"quality"`
	Format      string `json:"format"`
	Crop        bool   `json:"crop"`
}

func (c Config) Summary() Summary {
	return Summary{
		Sim: SimSummary{
			SpeedMS:      c.Sim.SpeedMS,
			Chatters:     c.Sim.ActiveChatters,
			Usernames:    len(c.Sim.Usernames),
			Words:        len(c.Sim.Words),
			Emotes:       c.Sim.EmotesEnabled,
			Colors:       c.Sim.ColorsEnabled,
			EmoteOnly:    c.Sim.EmoteOnly,
			Bot:          c.Sim.BotEnabled,
			BotDelaySec:  c.Sim.BotDelaySec,
			Scenario:     c.Sim.Scenario,
			SettingsFile: c.Sim.SettingsFile,
		},
		Export: ExportSummary{
			DurationSec: c.Export.DurationSec,
			Quality:     c.Export.Quality,
			Format:      c.Export.Format,
			Crop:        c.Export.Crop,
		},
		Addr:  c.Server.Addr,
		Sinks: append([]string(nil), c.Sinks...),
	}
}

func (c Config) SummaryJSON() []byte {
	summary := struct {
		Config Summary `json:"config_summary"`
	}{Config: c.Summary()}
	data, _ := json.Marshal(summary)
	return data
}
