// Package dashboard serves the live signal table: a Poller re-evaluates the
// watchlist on a fixed cadence, a Hub pushes each snapshot to WebSocket
// clients, and a REST router exposes the same rows over HTTP.
package dashboard

import (
	"encoding/json"
	"strings"
	"time"

	"intraday-signals/internal/model"
)

// Snapshot is one refresh cycle's result across the watchlist.
type Snapshot struct {
	Seq      int64              `json:"seq"`
	TS       time.Time          `json:"ts"`
	Interval model.Interval     `json:"interval"`
	Market   string             `json:"market"`
	Rows     []model.Evaluation `json:"rows"`
}

// Row returns the row for ticker (case-insensitive).
func (s Snapshot) Row(ticker string) (model.Evaluation, bool) {
	for _, ev := range s.Rows {
		if strings.EqualFold(ev.Ticker(), ticker) {
			return ev, true
		}
	}
	return model.Evaluation{}, false
}

// Unavailable counts rows without a computed verdict.
func (s Snapshot) Unavailable() int {
	n := 0
	for _, ev := range s.Rows {
		if ev.Combined.Status.DataUnavailable() {
			n++
		}
	}
	return n
}

// Envelope is the WebSocket wire form of a snapshot.
func (s Snapshot) Envelope() []byte {
	b, _ := json.Marshal(struct {
		Type string `json:"type"`
		Snapshot
	}{Type: "snapshot", Snapshot: s})
	return b
}
