package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/you/fakechat/internal/core"
)

type fakeStore struct {
	rows []core.StoredEvent
	last Filters
}

func (f *fakeStore) CountMessages(_ context.Context, filters Filters) (int64, error) {
	f.last = filters
	return int64(len(f.rows)), nil
}

func (f *fakeStore) ListMessages(_ context.Context, filters Filters) ([]core.StoredEvent, error) {
	f.last = filters
	return f.rows, nil
}

type fakeController struct {
	mu      sync.Mutex
	running bool
	cleared bool
	recent  []core.ChatEvent
}

func (f *fakeController) Start() {
	f.mu.Lock()
	f.running = true
	f.mu.Unlock()
}

func (f *fakeController) Stop() {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
}

func (f *fakeController) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeController) Clear() {
	f.mu.Lock()
	f.cleared = true
	f.mu.Unlock()
}

func (f *fakeController) Recent(n int) []core.ChatEvent {
	if n > len(f.recent) {
		n = len(f.recent)
	}
	return f.recent[len(f.recent)-n:]
}

func (f *fakeController) Viewers() int { return 42 }

func stored(username, text string) core.StoredEvent {
	return core.StoredEvent{
		Ts:        time.Now(),
		ChatEvent: core.ChatEvent{Username: username, Text: text},
	}
}

func TestHealthz(t *testing.T) {
	srv := New(nil, nil, Options{})
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestMessagesPassesFilters(t *testing.T) {
	store := &fakeStore{rows: []core.StoredEvent{stored("alice", "hi")}}
	srv := New(store, nil, Options{})

	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messages?username=Alice&limit=5&order=asc", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	if got := store.last.Usernames; len(got) != 1 || got[0] != "alice" {
		t.Errorf("usernames filter = %v", got)
	}
	if store.last.Limit != 5 || store.last.Order != OrderAsc {
		t.Errorf("filters = %+v", store.last)
	}

	var rows []core.StoredEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].Username != "alice" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestMessagesBadFilter(t *testing.T) {
	srv := New(&fakeStore{}, nil, Options{})
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messages?limit=-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMessagesWithoutArchive(t *testing.T) {
	srv := New(nil, nil, Options{})
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messages", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSimControls(t *testing.T) {
	ctrl := &fakeController{recent: []core.ChatEvent{{Username: "bob", Text: "yo"}}}
	srv := New(nil, ctrl, Options{})

	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sim/start", nil))
	if rec.Code != http.StatusOK || !ctrl.Running() {
		t.Fatalf("start: status=%d running=%v", rec.Code, ctrl.Running())
	}

	rec = httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sim/start", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET start: status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sim/status", nil))
	var status map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status["running"] != true || status["viewers"] != float64(42) {
		t.Errorf("status = %v", status)
	}

	rec = httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recent", nil))
	var recent []core.ChatEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &recent); err != nil {
		t.Fatalf("decode recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Username != "bob" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestStreamDeliversBroadcast(t *testing.T) {
	srv := New(nil, nil, Options{})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/stream")
	if err != nil {
		t.Fatalf("get stream: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if !strings.HasPrefix(line, ":ok") {
		t.Fatalf("greeting = %q", line)
	}

	// The client channel registers before the greeting is written, so
	// broadcasting now is safe.
	srv.Broadcast(stored("carol", "hello there"))

	deadline := time.Now().Add(2 * time.Second)
	var data string
	for time.Now().Before(deadline) {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
			break
		}
	}
	if data == "" {
		t.Fatal("no data frame received")
	}
	var ev core.StoredEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Username != "carol" {
		t.Errorf("event = %+v", ev)
	}
}

func TestWSDeliversBroadcast(t *testing.T) {
	srv := New(nil, nil, Options{CORSOrigins: []string{"*"}})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Wait for the server side to register its client channel.
	waitFor(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return len(srv.clients) == 1
	})

	srv.Broadcast(stored("dave", "ws hello"))

	var ev core.StoredEvent
	if err := wsjson.Read(ctx, conn, &ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Username != "dave" || ev.Text != "ws hello" {
		t.Errorf("event = %+v", ev)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

func TestBroadcastDropsWhenSlow(t *testing.T) {
	srv := New(nil, nil, Options{})
	ch, err := srv.register()
	if err != nil {
		t.Fatal(err)
	}
	defer srv.unregister(ch)

	// Fill the buffer and one more; Broadcast must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			srv.Broadcast(stored("eve", "spam"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked on slow client")
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffer = %d, want full %d", len(ch), cap(ch))
	}
}

func TestParseFilters(t *testing.T) {
	values := url.Values{}
	values.Set("bot", "true")
	values.Set("since", "30m")
	values.Set("limit", "2000")
	f, err := ParseFilters(values)
	if err != nil {
		t.Fatalf("ParseFilters: %v", err)
	}
	if f.Bot == nil || !*f.Bot {
		t.Error("bot filter not set")
	}
	if f.Since == nil {
		t.Error("since filter not set")
	}
	if f.Limit != maxLimit {
		t.Errorf("limit = %d, want clamped %d", f.Limit, maxLimit)
	}

	if _, err := ParseFilters(url.Values{"order": {"sideways"}}); err == nil {
		t.Error("bad order accepted")
	}
	if _, err := ParseFilters(url.Values{"bot": {"maybe"}}); err == nil {
		t.Error("bad bot accepted")
	}
}

func TestFiltersMatches(t *testing.T) {
	bot := true
	f := Filters{Usernames: []string{"night"}, Bot: &bot}
	ev := stored("Nightbot", "announcement")
	ev.Bot = true
	if !f.Matches(ev) {
		t.Error("expected match")
	}
	ev.Bot = false
	if f.Matches(ev) {
		t.Error("bot filter ignored")
	}
}
