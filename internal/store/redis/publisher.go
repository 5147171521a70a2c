package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"intraday-signals/internal/model"
)

const defaultLatestTTL = 30 * time.Minute

// Publisher pushes evaluated rows to Redis: the latest row per ticker under
// signal:latest:{interval}:{ticker} and a PUBLISH on pub:signal:{interval}:{ticker}.
//
// While the breaker is open the newest row per ticker is held locally and
// replayed once Redis answers again. Older rows for the same ticker are
// superseded, not queued.
type Publisher struct {
	client goredis.Cmdable
	cb     *CircuitBreaker
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]model.Evaluation

	// OnFlush, if set, is called after pending rows are replayed.
	OnFlush func(count int)
}

// NewPublisher creates a publisher. cb may be nil; ttl <= 0 uses 30 minutes.
func NewPublisher(client goredis.Cmdable, cb *CircuitBreaker, ttl time.Duration, logger *slog.Logger) *Publisher {
	if ttl <= 0 {
		ttl = defaultLatestTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		client:  client,
		cb:      cb,
		ttl:     ttl,
		logger:  logger,
		pending: make(map[string]model.Evaluation),
	}
	if cb != nil {
		prev := cb.OnStateChange
		cb.OnStateChange = func(from, to State) {
			if prev != nil {
				prev(from, to)
			}
			if to == StateClosed {
				go p.Flush(context.Background())
			}
		}
	}
	return p
}

// PublishEvaluations writes a batch of rows in one pipeline.
// Rows are held for replay when the breaker is open.
func (p *Publisher) PublishEvaluations(ctx context.Context, evs []model.Evaluation) error {
	if len(evs) == 0 {
		return nil
	}
	err := p.exec(func() error { return p.write(ctx, evs) })
	if errors.Is(err, ErrCircuitOpen) {
		p.hold(evs)
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis publish %d evaluations: %w", len(evs), err)
	}
	return nil
}

// PublishEvaluation writes a single row.
func (p *Publisher) PublishEvaluation(ctx context.Context, ev model.Evaluation) error {
	return p.PublishEvaluations(ctx, []model.Evaluation{ev})
}

// Latest reads the last published row for ticker.
func (p *Publisher) Latest(ctx context.Context, interval model.Interval, ticker string) (model.Evaluation, bool, error) {
	var raw []byte
	err := p.exec(func() error {
		var err error
		raw, err = p.client.Get(ctx, latestKey(interval.String(), ticker)).Bytes()
		return err
	})
	if errors.Is(err, goredis.Nil) {
		return model.Evaluation{}, false, nil
	}
	if err != nil {
		return model.Evaluation{}, false, fmt.Errorf("redis GET latest %s %s: %w", interval, ticker, err)
	}
	var ev model.Evaluation
	if err := json.Unmarshal(raw, &ev); err != nil {
		return model.Evaluation{}, false, fmt.Errorf("decode latest %s %s: %w", interval, ticker, err)
	}
	return ev, true, nil
}

// Pending returns the number of rows waiting for replay.
func (p *Publisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Flush replays held rows.
func (p *Publisher) Flush(ctx context.Context) {
	p.mu.Lock()
	if len(p.pending) == 0 {
		p.mu.Unlock()
		return
	}
	evs := make([]model.Evaluation, 0, len(p.pending))
	for _, ev := range p.pending {
		evs = append(evs, ev)
	}
	p.pending = make(map[string]model.Evaluation)
	p.mu.Unlock()

	if err := p.write(ctx, evs); err != nil {
		p.logger.Warn("replaying held evaluations failed", "count", len(evs), "error", err)
		p.hold(evs)
		return
	}
	p.logger.Info("replayed held evaluations", "count", len(evs))
	if p.OnFlush != nil {
		p.OnFlush(len(evs))
	}
}

func (p *Publisher) exec(fn func() error) error {
	if p.cb == nil {
		return fn()
	}
	return p.cb.Execute(fn)
}

func (p *Publisher) write(ctx context.Context, evs []model.Evaluation) error {
	pipe := p.client.Pipeline()
	for _, ev := range evs {
		iv := ev.Report.Interval.String()
		data := string(ev.JSON())
		pipe.Set(ctx, latestKey(iv, ev.Ticker()), data, p.ttl)
		pipe.Publish(ctx, Channel(iv, ev.Ticker()), data)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (p *Publisher) hold(evs []model.Evaluation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ev := range evs {
		key := ev.Report.Interval.String() + ":" + ev.Ticker()
		if prev, ok := p.pending[key]; ok && prev.Report.TS.After(ev.Report.TS) {
			continue
		}
		p.pending[key] = ev
	}
}
