package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"intraday-signals/internal/model"
)

func flip() model.Evaluation {
	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return model.Evaluation{
		Report: model.IndicatorReport{Ticker: "TCS.NS", Close: model.ValueOf(3502.5)},
		Combined: model.CombinedSignal{
			Ticker: "TCS.NS", TS: ts, Verdict: model.Buy, Score: 3, Participating: 7, Configured: 10,
		},
	}
}

func TestVerdictChange(t *testing.T) {
	a := VerdictChange(model.Sell, flip())
	if a.Title != "TCS.NS SELL -> BUY" {
		t.Errorf("title %q", a.Title)
	}
	if a.Level != AlertWarning || a.Ticker != "TCS.NS" {
		t.Errorf("alert %+v", a)
	}
	if !strings.Contains(a.Message, "+3") || !strings.Contains(a.Message, "7 of 10") || !strings.Contains(a.Message, "3502.50") {
		t.Errorf("message %q", a.Message)
	}
}

func TestWebhookNotifier(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewWebhookNotifier(srv.URL).Send(context.Background(), VerdictChange(model.Neutral, flip())); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["ticker"] != "TCS.NS" || got["title"] != "TCS.NS NEUTRAL -> BUY" {
		t.Errorf("payload %v", got)
	}
}

func TestWebhookNotifier_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	if err := NewWebhookNotifier(srv.URL).Send(context.Background(), Alert{Title: "x"}); err == nil {
		t.Error("expected error on 502")
	}
}

func TestTelegramNotifier(t *testing.T) {
	var path string
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("123:abc", "-100200").SetBaseURL(srv.URL)
	if err := n.Send(context.Background(), Alert{Level: AlertInfo, Title: "INFY.NS BUY -> NEUTRAL", Message: "score 0"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Errorf("path %q", path)
	}
	if body["chat_id"] != "-100200" || body["parse_mode"] != "MarkdownV2" {
		t.Errorf("body %v", body)
	}
	if text, _ := body["text"].(string); !strings.Contains(text, `INFY\.NS BUY \-\> NEUTRAL`) {
		t.Errorf("text not escaped: %q", text)
	}
}

type failing struct{ calls int }

func (f *failing) Send(context.Context, Alert) error { f.calls++; return errors.New("down") }

func TestMulti_TriesEveryNotifier(t *testing.T) {
	a, b := &failing{}, &failing{}
	err := Multi{a, NewLogNotifier(nil), b}.Send(context.Background(), Alert{Title: "x"})
	if err == nil || a.calls != 1 || b.calls != 1 {
		t.Errorf("err=%v calls=%d,%d", err, a.calls, b.calls)
	}
}
