package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"intraday-signals/internal/metrics"
	"intraday-signals/internal/model"
)

// DefaultYahooBaseURL is the public chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooConfig tunes the Yahoo Finance client.
type YahooConfig struct {
	BaseURL string
	Range   string        // overrides the per-interval lookback ("5d", "1mo", ...)
	RPS     float64       // request rate across all tickers
	Timeout time.Duration // per attempt
	Retries int
}

// YahooSource fetches bars from the Yahoo Finance v8 chart API.
// Requests are rate limited and guarded by a circuit breaker, so a feed
// outage fails fast instead of stalling every refresh.
type YahooSource struct {
	client  *resty.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	rng     string
	logger  *slog.Logger
}

// NewYahooSource creates a Yahoo chart client. m may be nil.
func NewYahooSource(cfg YahooConfig, m *metrics.Metrics, logger *slog.Logger) *YahooSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultYahooBaseURL
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; intraday-signals)").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	st := gobreaker.Settings{
		Name:     "yahoo",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// An unknown symbol is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoData)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("feed circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			if m != nil {
				m.FeedCircuitBreakerState.Set(float64(to))
			}
		},
	}

	return &YahooSource{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), 1),
		breaker: gobreaker.NewCircuitBreaker(st),
		rng:     cfg.Range,
		logger:  logger,
	}
}

// Fetch downloads the chart for ticker. An unknown symbol or an empty chart
// returns ErrNoData.
func (y *YahooSource) Fetch(ctx context.Context, ticker string, interval model.Interval) (model.BarSeries, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return model.BarSeries{}, fmt.Errorf("yahoo %s: rate limit: %w", ticker, err)
	}
	out, err := y.breaker.Execute(func() (interface{}, error) {
		return y.fetch(ctx, ticker, interval)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return model.BarSeries{}, fmt.Errorf("yahoo %s: %w", ticker, err)
	}
	if err != nil {
		return model.BarSeries{}, err
	}
	return out.(model.BarSeries), nil
}

func (y *YahooSource) fetch(ctx context.Context, ticker string, interval model.Interval) (model.BarSeries, error) {
	var body, errBody chartResponse
	resp, err := y.client.R().
		SetContext(ctx).
		SetPathParam("symbol", ticker).
		SetQueryParams(map[string]string{
			"interval": yahooInterval(interval),
			"range":    y.rangeFor(interval),
		}).
		SetResult(&body).
		SetError(&errBody).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return model.BarSeries{}, fmt.Errorf("yahoo %s: %w", ticker, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return model.BarSeries{}, fmt.Errorf("yahoo %s: %s: %w", ticker, errBody.describe(), ErrNoData)
	}
	if resp.IsError() {
		return model.BarSeries{}, fmt.Errorf("yahoo %s: http %d: %s", ticker, resp.StatusCode(), errBody.describe())
	}
	if body.Chart.Error != nil {
		return model.BarSeries{}, fmt.Errorf("yahoo %s: %s: %w", ticker, body.describe(), ErrNoData)
	}
	if len(body.Chart.Result) == 0 {
		return model.BarSeries{}, fmt.Errorf("yahoo %s: empty chart: %w", ticker, ErrNoData)
	}

	series, skipped := body.Chart.Result[0].toSeries(ticker, interval)
	if skipped > 0 {
		y.logger.Debug("skipped incomplete chart entries", "ticker", ticker, "count", skipped)
	}
	if series.Len() == 0 {
		return model.BarSeries{}, fmt.Errorf("yahoo %s: no bars in %s: %w", ticker, y.rangeFor(interval), ErrNoData)
	}
	return series, nil
}

func (y *YahooSource) rangeFor(interval model.Interval) string {
	if y.rng != "" {
		return y.rng
	}
	return DefaultRange(interval)
}

// DefaultRange is the lookback requested per interval: five sessions for
// intraday bars, enough history for the slowest default window otherwise.
func DefaultRange(interval model.Interval) string {
	switch interval {
	case model.Interval1h:
		return "1mo"
	case model.Interval1d:
		return "6mo"
	}
	return "5d"
}

func yahooInterval(interval model.Interval) string {
	if interval == model.Interval1h {
		return "60m"
	}
	return interval.String()
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (c chartResponse) describe() string {
	if c.Chart.Error == nil {
		return "no detail"
	}
	return c.Chart.Error.Code + ": " + c.Chart.Error.Description
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
		GMTOffset            int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (r chartResult) location() *time.Location {
	if r.Meta.ExchangeTimezoneName != "" {
		if loc, err := time.LoadLocation(r.Meta.ExchangeTimezoneName); err == nil {
			return loc
		}
	}
	return time.FixedZone("", r.Meta.GMTOffset)
}

// toSeries converts the column arrays into bars, skipping entries with a
// null price. A null volume counts as zero.
func (r chartResult) toSeries(ticker string, interval model.Interval) (model.BarSeries, int) {
	series := model.BarSeries{Ticker: ticker, Interval: interval}
	if len(r.Indicators.Quote) == 0 {
		return series, len(r.Timestamp)
	}
	q := r.Indicators.Quote[0]
	loc := r.location()
	at := func(col []*float64, i int) (float64, bool) {
		if i >= len(col) || col[i] == nil {
			return 0, false
		}
		return *col[i], true
	}

	skipped := 0
	series.Bars = make([]model.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		o, ok1 := at(q.Open, i)
		h, ok2 := at(q.High, i)
		l, ok3 := at(q.Low, i)
		c, ok4 := at(q.Close, i)
		if !(ok1 && ok2 && ok3 && ok4) {
			skipped++
			continue
		}
		v, _ := at(q.Volume, i)
		series.Bars = append(series.Bars, model.Bar{
			TS:     time.Unix(ts, 0).In(loc),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}
	return series, skipped
}
