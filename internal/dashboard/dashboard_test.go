package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"intraday-signals/internal/evaluator"
	"intraday-signals/internal/feed"
	"intraday-signals/internal/markethours"
	"intraday-signals/internal/metrics"
	"intraday-signals/internal/model"
	"intraday-signals/internal/notification"
	"intraday-signals/internal/signal"
)

// trend produces 40 bars moving by step per bar.
func trend(ticker string, step float64) model.BarSeries {
	s := model.BarSeries{Ticker: ticker, Interval: model.Interval5m}
	t0 := time.Date(2026, 3, 2, 3, 45, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		c := 500 + step*float64(i)
		s.Bars = append(s.Bars, model.Bar{TS: t0.Add(time.Duration(i) * 5 * time.Minute), Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 10})
	}
	return s
}

// switchable serves falling or rising bars depending on up.
type switchable struct {
	mu sync.Mutex
	up bool
}

func (s *switchable) set(up bool) { s.mu.Lock(); s.up = up; s.mu.Unlock() }

func (s *switchable) Fetch(_ context.Context, ticker string, _ model.Interval) (model.BarSeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticker == "NONE.NS" {
		return model.BarSeries{}, feed.ErrNoData
	}
	if s.up {
		return trend(ticker, 1), nil
	}
	return trend(ticker, -1), nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published [][]model.Evaluation
	latest    map[string]model.Evaluation
}

func (f *fakePublisher) PublishEvaluations(_ context.Context, evs []model.Evaluation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, evs)
	return nil
}

func (f *fakePublisher) Latest(_ context.Context, _ model.Interval, ticker string) (model.Evaluation, bool, error) {
	ev, ok := f.latest[ticker]
	return ev, ok, nil
}

type recorder struct {
	mu     sync.Mutex
	alerts []notification.Alert
}

func (r *recorder) Send(_ context.Context, a notification.Alert) error {
	r.mu.Lock()
	r.alerts = append(r.alerts, a)
	r.mu.Unlock()
	return nil
}

func newPoller(t *testing.T, src feed.Source, m *metrics.Metrics) *Poller {
	t.Helper()
	cfg := signal.DefaultConfig()
	cfg.Indicators = []string{"RSI", "CCI"}
	eng, err := signal.NewEngine(cfg, signal.DefaultRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return &Poller{
		Batch:    &evaluator.Batch{Source: src, Engine: eng, Workers: 2, Metrics: m},
		Tickers:  []string{"TCS.NS", "NONE.NS"},
		Interval: model.Interval5m,
		Metrics:  m,
	}
}

func TestPoller_Every(t *testing.T) {
	cases := map[time.Duration]time.Duration{
		0:                DefaultRefreshInterval,
		3 * time.Second:  MinRefreshInterval,
		10 * time.Second: 10 * time.Second,
		2 * time.Minute:  2 * time.Minute,
	}
	for in, want := range cases {
		p := &Poller{RefreshInterval: in}
		if got := p.Every(); got != want {
			t.Errorf("Every(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestPoller_RefreshPublishesAndNotifiesFlips(t *testing.T) {
	src := &switchable{}
	m := metrics.NewMetrics(prometheus.NewRegistry())
	pub := &fakePublisher{}
	rec := &recorder{}
	p := newPoller(t, src, m)
	p.Publisher, p.Notifier = pub, rec
	p.Health = metrics.NewHealthStatus(time.Minute)

	if _, ok := p.Latest(); ok {
		t.Fatal("expected no snapshot before the first refresh")
	}

	snap := p.Refresh(context.Background())
	if snap.Seq != 1 || len(snap.Rows) != 2 {
		t.Fatalf("snapshot seq=%d rows=%d", snap.Seq, len(snap.Rows))
	}
	if snap.Rows[0].Combined.Verdict != model.Buy {
		t.Errorf("falling bars: verdict %v, want BUY", snap.Rows[0].Combined.Verdict)
	}
	if snap.Rows[1].Combined.Status != model.StatusNoData || snap.Unavailable() != 1 {
		t.Errorf("NONE.NS row %+v", snap.Rows[1].Combined)
	}
	if len(rec.alerts) != 0 {
		t.Errorf("first refresh must not alert, got %v", rec.alerts)
	}

	src.set(true)
	snap = p.Refresh(context.Background())
	if snap.Seq != 2 || snap.Rows[0].Combined.Verdict != model.Sell {
		t.Fatalf("rising bars: seq=%d verdict %v", snap.Seq, snap.Rows[0].Combined.Verdict)
	}
	if len(rec.alerts) != 1 || rec.alerts[0].Title != "TCS.NS BUY -> SELL" {
		t.Errorf("alerts %+v", rec.alerts)
	}
	if len(pub.published) != 2 {
		t.Errorf("published %d batches, want 2", len(pub.published))
	}
	if got := testutil.ToFloat64(m.VerdictFlips); got != 1 {
		t.Errorf("flip metric %v", got)
	}
	if got := testutil.ToFloat64(m.RefreshCycles); got != 2 {
		t.Errorf("refresh metric %v", got)
	}
}

func TestPoller_SeedSuppressesRestartAlert(t *testing.T) {
	src := &switchable{}
	rec := &recorder{}
	pub := &fakePublisher{latest: map[string]model.Evaluation{
		"TCS.NS": {Combined: model.CombinedSignal{Ticker: "TCS.NS", Verdict: model.Sell, Status: model.StatusOK}},
	}}
	p := newPoller(t, src, nil)
	p.Publisher, p.Notifier = pub, rec

	p.Seed(context.Background())
	p.Refresh(context.Background())
	if len(rec.alerts) != 1 || rec.alerts[0].Title != "TCS.NS SELL -> BUY" {
		t.Errorf("expected a flip against the seeded verdict, got %+v", rec.alerts)
	}
}

func TestPoller_SkipWhenClosed(t *testing.T) {
	src := &switchable{}
	p := newPoller(t, src, nil)
	p.Session = markethours.NSE()
	p.SkipWhenClosed = true
	saturday := time.Date(2026, 3, 7, 11, 0, 0, 0, markethours.IST)
	p.now = func() time.Time { return saturday }

	p.tick(context.Background(), true)
	p.tick(context.Background(), false)
	snap, ok := p.Latest()
	if !ok || snap.Seq != 1 {
		t.Fatalf("expected only the initial refresh, got seq=%d ok=%v", snap.Seq, ok)
	}
	if !strings.HasPrefix(snap.Market, "NSE Closed") {
		t.Errorf("market status %q", snap.Market)
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *Poller, *Hub) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	p := newPoller(t, &switchable{}, m)
	hub := NewHub(m, nil)
	p.Hub = hub
	p.Health = metrics.NewHealthStatus(time.Minute)
	srv := httptest.NewServer(NewRouter(Deps{
		Poller: p, Engine: p.Batch.Engine, Registry: signal.DefaultRegistry(),
		Hub: hub, Health: p.Health, Gatherer: reg,
	}))
	t.Cleanup(srv.Close)
	return srv, p, hub
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		json.NewDecoder(resp.Body).Decode(v)
	}
	return resp.StatusCode
}

func TestRouter_Signals(t *testing.T) {
	srv, _, _ := newTestServer(t)

	if code := getJSON(t, srv.URL+"/api/signals", nil); code != http.StatusServiceUnavailable {
		t.Errorf("before refresh: %d, want 503", code)
	}
	if code := getJSON(t, srv.URL+"/healthz", nil); code != http.StatusServiceUnavailable {
		t.Errorf("healthz before refresh: %d, want 503", code)
	}

	resp, err := http.Post(srv.URL+"/api/refresh", "application/json", nil)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/refresh: %v %v", resp, err)
	}
	resp.Body.Close()

	var snap Snapshot
	if code := getJSON(t, srv.URL+"/api/signals", &snap); code != http.StatusOK || len(snap.Rows) != 2 {
		t.Fatalf("GET /api/signals: %d rows=%d", code, len(snap.Rows))
	}

	var row model.Evaluation
	if code := getJSON(t, srv.URL+"/api/signals/tcs.ns", &row); code != http.StatusOK || row.Ticker() != "TCS.NS" {
		t.Errorf("GET row: %d %q", code, row.Ticker())
	}
	if code := getJSON(t, srv.URL+"/api/signals/XYZ", nil); code != http.StatusNotFound {
		t.Errorf("unknown ticker: %d", code)
	}
	if code := getJSON(t, srv.URL+"/healthz", nil); code != http.StatusOK {
		t.Errorf("healthz after refresh: %d", code)
	}

	resp, _ = http.Get(srv.URL + "/metrics")
	body := new(strings.Builder)
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		body.Write(buf[:n])
		if err != nil {
			break
		}
	}
	resp.Body.Close()
	if !strings.Contains(body.String(), "signals_refresh_cycles_total 1") {
		t.Error("metrics exposition missing refresh counter")
	}
}

func TestRouter_ConfigAndIndicators(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var cfg struct {
		Tickers        []string `json:"tickers"`
		RefreshSeconds int      `json:"refresh_seconds"`
		Indicators     []string `json:"indicators"`
		MaxWindow      int      `json:"max_window"`
	}
	if code := getJSON(t, srv.URL+"/api/config", &cfg); code != http.StatusOK {
		t.Fatalf("config: %d", code)
	}
	if len(cfg.Tickers) != 2 || cfg.RefreshSeconds != 60 || len(cfg.Indicators) != 2 || cfg.MaxWindow != 14 {
		t.Errorf("config %+v", cfg)
	}

	var inds []struct {
		Name    string `json:"name"`
		Enabled bool   `json:"enabled"`
	}
	getJSON(t, srv.URL+"/api/indicators", &inds)
	enabled := 0
	for _, in := range inds {
		if in.Enabled {
			enabled++
		}
	}
	if len(inds) != 12 || enabled != 2 {
		t.Errorf("indicators %d, enabled %d", len(inds), enabled)
	}
}

func TestHub_SnapshotOnConnectAndBroadcast(t *testing.T) {
	srv, p, hub := newTestServer(t)
	p.Refresh(context.Background())

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() map[string]interface{} {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var env map[string]interface{}
		if err := json.Unmarshal(msg, &env); err != nil {
			t.Fatalf("envelope: %v", err)
		}
		return env
	}

	env := read()
	if env["type"] != "snapshot" || env["seq"] != float64(1) {
		t.Errorf("initial envelope type=%v seq=%v", env["type"], env["seq"])
	}
	if rows, _ := env["rows"].([]interface{}); len(rows) != 2 {
		t.Errorf("initial rows %v", env["rows"])
	}

	for hub.ClientCount() != 1 {
		time.Sleep(time.Millisecond)
	}
	p.Refresh(context.Background())
	if env := read(); env["seq"] != float64(2) {
		t.Errorf("broadcast seq %v, want 2", env["seq"])
	}
}

func TestHub_LateJoinerSeesEachSnapshotOnce(t *testing.T) {
	const rounds = 40
	hub := NewHub(nil, nil)

	var wg sync.WaitGroup
	clients := make([]*Client, 8)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= rounds; i++ {
			hub.Broadcast(Snapshot{Seq: int64(i)})
		}
	}()
	for i := range clients {
		clients[i] = &Client{send: make(chan []byte, rounds+1), hub: hub}
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			hub.register(c)
		}(clients[i])
	}
	wg.Wait()

	for i, c := range clients {
		close(c.send)
		var last float64
		for msg := range c.send {
			var env struct {
				Seq float64 `json:"seq"`
			}
			if err := json.Unmarshal(msg, &env); err != nil {
				t.Fatalf("client %d: %v", i, err)
			}
			if env.Seq <= last {
				t.Errorf("client %d: seq %v after %v", i, env.Seq, last)
			}
			last = env.Seq
		}
	}
}
