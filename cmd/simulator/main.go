package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/you/fakechat/internal/config"
	"github.com/you/fakechat/internal/core"
	"github.com/you/fakechat/internal/httpapi"
	"github.com/you/fakechat/internal/rng"
	"github.com/you/fakechat/internal/scheduler"
	"github.com/you/fakechat/internal/sink"
	"github.com/you/fakechat/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	_ = godotenv.Load()

	var (
		versionFlag     bool
		speedMS         int
		chatters        int
		usernames       string
		words           string
		scenario        string
		settingsFile    string
		botEnabled      bool
		botMessage      string
		botDelaySec     int
		emoteOnly       bool
		dbPath          string
		httpAddr        string
		httpCorsOrigins string
		httpRateRPS     int
		httpRateBurst   int
		httpMetrics     bool
		httpAccessLog   bool
		httpPprof       bool
	)

	flag.BoolVar(&versionFlag, "version", false, "Print build version and exit")
	flag.IntVar(&speedMS, "speed-ms", 0, "Base interval between messages in milliseconds")
	flag.IntVar(&chatters, "chatters", 0, "Number of active chatters")
	flag.StringVar(&usernames, "usernames", "", "Comma-separated username pool")
	flag.StringVar(&words, "words", "", "Comma-separated word/phrase pool")
	flag.StringVar(&scenario, "scenario", "", "Scenario preset to apply (see /scenarios)")
	flag.StringVar(&settingsFile, "settings-file", "", "JSON settings file watched for live overrides")
	flag.BoolVar(&botEnabled, "bot", false, "Enable periodic bot announcements")
	flag.StringVar(&botMessage, "bot-message", "", "Bot announcement text")
	flag.IntVar(&botDelaySec, "bot-delay-sec", 0, "Seconds between bot announcements")
	flag.BoolVar(&emoteOnly, "emote-only", false, "Emote-only message mode")
	flag.StringVar(&dbPath, "sqlite", "", "Path to SQLite archive database file")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP API address (e.g., :8887)")
	flag.StringVar(&httpCorsOrigins, "http-cors-origins", "", "Comma-separated list of allowed CORS origins")
	flag.IntVar(&httpRateRPS, "http-rate-rps", 20, "Maximum HTTP requests per second per client")
	flag.IntVar(&httpRateBurst, "http-rate-burst", 40, "Burst size for HTTP rate limiter")
	flag.BoolVar(&httpMetrics, "http-metrics", true, "Expose Prometheus metrics endpoint")
	flag.BoolVar(&httpAccessLog, "http-access-log", true, "Log HTTP access records")
	flag.BoolVar(&httpPprof, "http-pprof", false, "Expose pprof handlers under /debug/pprof")
	flag.Parse()

	if versionFlag {
		fmt.Printf(
			"simulator version: %s (commit %s, built %s)\n",
			version.Version,
			version.Commit,
			version.BuildTime,
		)
		os.Exit(0)
	}

	overrides := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		overrides[f.Name] = true
	})

	cfg := config.Load()

	if overrides["speed-ms"] && speedMS > 0 {
		cfg.Sim.SpeedMS = speedMS
	}
	if overrides["chatters"] && chatters > 0 {
		cfg.Sim.ActiveChatters = chatters
	}
	if overrides["usernames"] {
		cfg.Sim.Usernames = splitCSV(usernames)
	}
	if overrides["words"] {
		cfg.Sim.Words = splitCSV(words)
	}
	if overrides["scenario"] {
		cfg.Sim.Scenario = strings.TrimSpace(scenario)
		if cfg.Sim.Scenario != "" {
			cfg.Sim = config.ApplyScenario(cfg.Sim, cfg.Sim.Scenario)
		}
	}
	if overrides["settings-file"] {
		cfg.Sim.SettingsFile = strings.TrimSpace(settingsFile)
	}
	if overrides["bot"] {
		cfg.Sim.BotEnabled = botEnabled
	}
	if overrides["bot-message"] {
		cfg.Sim.BotMessage = strings.TrimSpace(botMessage)
	}
	if overrides["bot-delay-sec"] && botDelaySec > 0 {
		cfg.Sim.BotDelaySec = botDelaySec
	}
	if overrides["emote-only"] {
		cfg.Sim.EmoteOnly = emoteOnly
	}
	if overrides["sqlite"] {
		cfg.Sink.SQLite.Path = strings.TrimSpace(dbPath)
		if !cfg.HasSink("sqlite") {
			cfg.Sinks = append(cfg.Sinks, "sqlite")
		}
	}
	if overrides["http-addr"] {
		cfg.Server.Addr = strings.TrimSpace(httpAddr)
	}
	if overrides["http-cors-origins"] {
		cfg.Server.CORSOrigins = splitCSV(httpCorsOrigins)
	}

	log.Printf("%s", cfg.SummaryJSON())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("simulator: received %s, shutting down", sig)
		cancel()
	}()

	store := config.NewStore(cfg.Sim)
	if path := cfg.Sim.SettingsFile; path != "" {
		stop, err := config.WatchSettings(store, path)
		if err != nil {
			log.Printf("simulator: settings watch: %v", err)
		} else {
			defer stop()
			log.Printf("simulator: watching settings file %s", path)
		}
	}

	sched := scheduler.New(store, rng.New())

	var (
		sinkDB   *sink.SQLiteSink
		writer   sink.Writer
		buffered *sink.BufferedWriter
	)

	if cfg.HasSink("sqlite") {
		db, err := sink.OpenSQLite(cfg.Sink.SQLite.Path)
		if err != nil {
			log.Fatalf("simulator: open sqlite: %v", err)
		}
		sinkDB = db
		if err := sinkDB.Ping(); err != nil {
			log.Fatalf("simulator: ping sqlite: %v", err)
		}
		defer func() {
			if err := sinkDB.Close(); err != nil {
				log.Printf("simulator: closing sink: %v", err)
			}
		}()
	}

	build := httpapi.BuildInfo{Version: version.Version, Revision: version.Commit}
	if version.BuildTime != "" && version.BuildTime != "unknown" {
		if t, err := time.Parse(time.RFC3339, version.BuildTime); err == nil {
			build.BuiltAt = t
		}
	}

	var apiStore httpapi.Store
	if sinkDB != nil {
		apiStore = sinkDB
	}
	if !overrides["http-rate-rps"] && cfg.Server.RatePerMin > 0 {
		httpRateRPS = (cfg.Server.RatePerMin + 59) / 60
	}
	api := httpapi.New(apiStore, sched, httpapi.Options{
		Addr:            cfg.Server.Addr,
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitRPS:    httpRateRPS,
		RateLimitBurst:  httpRateBurst,
		DisableGzip:     cfg.Server.GzipDisabled,
		EnableMetrics:   httpMetrics,
		EnableAccessLog: httpAccessLog,
		EnablePprof:     httpPprof,
		Build:           build,
		ConfigSnapshot:  configSnapshot(cfg),
		Scenarios:       config.ScenarioNames(),
	})

	if sinkDB != nil {
		writer = sink.WithAPI(sinkDB, api)
		if cfg.Batch() > 1 || cfg.FlushInterval() > 0 {
			buffered = sink.NewBufferedWriter(writer, sink.BufferedOptions{
				BatchSize:     cfg.Batch(),
				FlushInterval: cfg.FlushInterval(),
			})
			writer = buffered
		}
		defer func() {
			if buffered != nil {
				if err := buffered.Close(); err != nil {
					log.Printf("simulator: flush buffered sink: %v", err)
				}
			}
		}()
	}

	sched.Subscribe(func(ev core.ChatEvent) {
		stored := core.StoredEvent{Ts: time.Now().UTC(), ChatEvent: ev}
		api.Metrics().IncEventsGenerated(ev.Bot)
		if writer != nil {
			if err := writer.Write(stored); err != nil {
				log.Printf("simulator: archive write: %v", err)
				api.Metrics().IncDBWriteErrors()
			}
			return
		}
		api.Broadcast(stored)
	})

	go func() {
		if err := api.Start(); err != nil {
			log.Fatalf("simulator: http api: %v", err)
		}
	}()
	log.Printf("simulator: http api ready on %s", cfg.Server.Addr)

	sched.Start()
	log.Printf("simulator: chat running (speed=%dms chatters=%d)", cfg.Sim.SpeedMS, cfg.Sim.ActiveChatters)

	<-ctx.Done()

	sched.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		log.Printf("simulator: http shutdown: %v", err)
	}
	log.Printf("simulator: stopped")
}

func configSnapshot(cfg config.Config) func() map[string]any {
	return func() map[string]any {
		data, err := json.Marshal(cfg.Summary())
		if err != nil {
			return map[string]any{}
		}
		var out map[string]any
		if err := json.Unmarshal(data, &out); err != nil {
			return map[string]any{}
		}
		return out
	}
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
