package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"intraday-signals/internal/evaluator"
	"intraday-signals/internal/markethours"
	"intraday-signals/internal/metrics"
	"intraday-signals/internal/model"
	"intraday-signals/internal/notification"
)

const (
	// MinRefreshInterval is the shortest allowed refresh cadence.
	MinRefreshInterval = 10 * time.Second
	// DefaultRefreshInterval is used when none is configured.
	DefaultRefreshInterval = 60 * time.Second
)

// Publisher receives every refreshed row and serves the last known row per
// ticker at startup.
type Publisher interface {
	PublishEvaluations(ctx context.Context, evs []model.Evaluation) error
	Latest(ctx context.Context, interval model.Interval, ticker string) (model.Evaluation, bool, error)
}

// Poller re-evaluates the watchlist every RefreshInterval and keeps the
// latest snapshot.
type Poller struct {
	Batch           *evaluator.Batch
	Tickers         []string
	Interval        model.Interval
	RefreshInterval time.Duration

	// Session drives the market status text. With SkipWhenClosed set, timed
	// refreshes are skipped while the session is shut.
	Session        *markethours.Session
	SkipWhenClosed bool

	Publisher Publisher             // optional
	Notifier  notification.Notifier // optional
	Hub       *Hub                  // optional
	Metrics   *metrics.Metrics      // optional
	Health    *metrics.HealthStatus // optional
	Logger    *slog.Logger          // optional

	now func() time.Time

	refreshMu sync.Mutex
	mu        sync.RWMutex
	latest    Snapshot
	has       bool
	seq       int64
	verdicts  map[string]model.Signal
}

// Every returns the effective refresh cadence, clamped to MinRefreshInterval.
func (p *Poller) Every() time.Duration {
	switch {
	case p.RefreshInterval <= 0:
		return DefaultRefreshInterval
	case p.RefreshInterval < MinRefreshInterval:
		return MinRefreshInterval
	}
	return p.RefreshInterval
}

// Latest returns the most recent snapshot. ok is false before the first refresh.
func (p *Poller) Latest() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.has
}

// Seed loads the last published verdict per ticker so a restart does not
// report every ticker as flipped.
func (p *Poller) Seed(ctx context.Context) {
	if p.Publisher == nil {
		return
	}
	seeded := make(map[string]model.Signal)
	for _, t := range p.Tickers {
		ev, ok, err := p.Publisher.Latest(ctx, p.Interval, t)
		if err != nil {
			p.logger().Warn("seed latest verdict failed", "ticker", t, "error", err)
			continue
		}
		if ok && ev.Combined.Status == model.StatusOK {
			seeded[t] = ev.Combined.Verdict
		}
	}
	p.mu.Lock()
	p.verdicts = seeded
	p.mu.Unlock()
	p.logger().Info("seeded verdicts", "count", len(seeded))
}

// Run refreshes immediately and then every Every() until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.tick(ctx, true)

	ticker := time.NewTicker(p.Every())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, false)
		}
	}
}

func (p *Poller) tick(ctx context.Context, first bool) {
	now := p.clock()
	open := p.Session.IsOpen(now)
	if p.Metrics != nil {
		if open {
			p.Metrics.MarketState.Set(1)
		} else {
			p.Metrics.MarketState.Set(0)
		}
	}
	// The first cycle always runs so the table is populated after hours.
	if !open && p.SkipWhenClosed && !first {
		p.logger().Debug("market closed, refresh skipped", "status", p.Session.Status(now))
		return
	}
	p.Refresh(ctx)
}

// Refresh runs one cycle: evaluate, store, broadcast, publish and notify.
func (p *Poller) Refresh(ctx context.Context) Snapshot {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	start := p.clock()
	rows := p.Batch.Run(ctx, p.Tickers, p.Interval)
	done := p.clock()

	p.mu.Lock()
	p.seq++
	snap := Snapshot{
		Seq:      p.seq,
		TS:       done,
		Interval: p.Interval,
		Market:   p.Session.Status(done),
		Rows:     rows,
	}
	p.latest, p.has = snap, true
	flips := p.flips(rows)
	p.mu.Unlock()

	if p.Metrics != nil {
		p.Metrics.RefreshCycles.Inc()
		p.Metrics.RefreshDur.Observe(done.Sub(start).Seconds())
		p.Metrics.VerdictFlips.Add(float64(len(flips)))
	}
	if p.Health != nil {
		p.Health.RecordRefresh(done, len(rows), snap.Unavailable())
	}
	if p.Hub != nil {
		p.Hub.Broadcast(snap)
	}
	if p.Publisher != nil {
		if err := p.Publisher.PublishEvaluations(ctx, rows); err != nil {
			p.logger().Warn("publish evaluations failed", "error", err)
		}
	}
	p.notify(ctx, flips)

	p.logger().Info("refresh complete", "seq", snap.Seq, "tickers", len(rows),
		"unavailable", snap.Unavailable(), "flips", len(flips), "took", done.Sub(start))
	return snap
}

type flip struct {
	prev model.Signal
	ev   model.Evaluation
}

// flips records the new verdicts and returns the tickers whose verdict
// changed. Rows without a computed verdict neither flip nor reset the
// remembered verdict. Caller holds p.mu.
func (p *Poller) flips(rows []model.Evaluation) []flip {
	if p.verdicts == nil {
		p.verdicts = make(map[string]model.Signal)
	}
	var out []flip
	for _, ev := range rows {
		if ev.Combined.Status != model.StatusOK {
			continue
		}
		prev, seen := p.verdicts[ev.Ticker()]
		p.verdicts[ev.Ticker()] = ev.Combined.Verdict
		if seen && prev != ev.Combined.Verdict {
			out = append(out, flip{prev: prev, ev: ev})
		}
	}
	return out
}

func (p *Poller) notify(ctx context.Context, flips []flip) {
	if p.Notifier == nil {
		return
	}
	for _, f := range flips {
		if err := p.Notifier.Send(ctx, notification.VerdictChange(f.prev, f.ev)); err != nil {
			p.logger().Warn("verdict alert failed", "ticker", f.ev.Ticker(), "error", err)
		}
	}
}

func (p *Poller) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *Poller) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
