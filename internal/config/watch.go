package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SettingsFile is the JSON shape accepted by the live settings file.
// Absent fields keep their current values.
type SettingsFile struct {
	SpeedMS     *int     `json:"speed_ms,omitempty"`
	Chatters    *int     `json:"chatters,omitempty"`
	Usernames   []string `json:"usernames,omitempty"`
	Words       []string `json:"words,omitempty"`
	Emotes      *bool    `json:"emotes,omitempty"`
	Colors      *bool    `json:"colors,omitempty"`
	EmoteOnly   *bool    `json:"emote_only,omitempty"`
	Bot         *bool    `json:"bot,omitempty"`
	BotMessage  *string  `json:"bot_message,omitempty"`
	BotDelaySec *int     `json:"bot_delay_sec,omitempty"`
	Scenario    *string  `json:"scenario,omitempty"`
}

// ApplySettingsFile reads path and overlays its fields onto the store.
func ApplySettingsFile(store *Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var sf SettingsFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return err
	}
	store.Update(func(sim SimConfig) SimConfig {
		if sf.Scenario != nil {
			sim = ApplyScenario(sim, *sf.Scenario)
		}
		if sf.SpeedMS != nil && *sf.SpeedMS > 0 {
			sim.SpeedMS = *sf.SpeedMS
		}
		if sf.Chatters != nil && *sf.Chatters > 0 {
			sim.ActiveChatters = *sf.Chatters
		}
		if sf.Usernames != nil {
			sim.Usernames = dedupe(sf.Usernames)
		}
		if sf.Words != nil {
			sim.Words = append([]string(nil), sf.Words...)
		}
		if sf.Emotes != nil {
			sim.EmotesEnabled = *sf.Emotes
		}
		if sf.Colors != nil {
			sim.ColorsEnabled = *sf.Colors
		}
		if sf.EmoteOnly != nil {
			sim.EmoteOnly = *sf.EmoteOnly
		}
		if sf.Bot != nil {
			sim.BotEnabled = *sf.Bot
		}
		if sf.BotMessage != nil {
			sim.BotMessage = *sf.BotMessage
		}
		if sf.BotDelaySec != nil && *sf.BotDelaySec > 0 {
			sim.BotDelaySec = *sf.BotDelaySec
		}
		return sim
	})
	return nil
}

// WatchSettings reloads the settings file into the store whenever it
// changes. Events are debounced because editors fire several per save.
// The watcher goroutine exits when the watcher is closed via the
// returned func.
func WatchSettings(store *Store, path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	go func() {
		debounce := time.NewTimer(0)
		if !debounce.Stop() {
			<-debounce.C
		}
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					if err := w.Add(ev.Name); err != nil {
						slog.Error("settings watch re-add", "path", ev.Name, "err", err)
					}
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					if !debounce.Stop() {
						select {
						case <-debounce.C:
						default:
						}
					}
					debounce.Reset(250 * time.Millisecond)
				}
			case <-debounce.C:
				if err := ApplySettingsFile(store, path); err != nil {
					slog.Error("settings reload failed", "path", path, "err", err)
				} else {
					slog.Info("settings reloaded", "path", path)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Error("settings watch error", "err", err)
			}
		}
	}()
	return func() { w.Close() }, nil
}
