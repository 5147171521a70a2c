// Package signal turns indicator readings into BUY/SELL/NEUTRAL calls and a
// combined verdict.
//
// The Engine is a pure function of its input: every Evaluate call sanitizes
// the bars, builds fresh indicators from the registry, reads the latest value
// of each and aggregates the per-indicator scores. Lack of data is reported
// through the status, never as an error.
package signal

import (
	"log/slog"

	"intraday-signals/internal/indicator"
	"intraday-signals/internal/model"
)

// Engine evaluates bar series against a validated Config.
// It holds no per-series state and is safe for concurrent use.
type Engine struct {
	cfg       Config
	rules     []Rule
	maxWindow int
	logger    *slog.Logger
}

// NewEngine validates cfg against reg and returns an engine.
// A nil logger falls back to slog.Default().
func NewEngine(cfg Config, reg *Registry, logger *slog.Logger) (*Engine, error) {
	rules, err := cfg.validate(reg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{cfg: cfg, rules: rules, logger: logger}
	for _, rule := range rules {
		if w := rule.Window(cfg.Params); w > e.maxWindow {
			e.maxWindow = w
		}
	}
	return e, nil
}

// MaxWindow is the largest window among the configured indicators. Shorter
// series are reported as insufficient data.
func (e *Engine) MaxWindow() int { return e.maxWindow }

// Indicators returns the participating indicator names in report order.
func (e *Engine) Indicators() []string {
	out := make([]string, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.Name
	}
	return out
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Evaluate computes the indicator report and combined signal for the latest
// bar of series.
func (e *Engine) Evaluate(series model.BarSeries) model.Evaluation {
	clean, dropped := e.sanitize(series)

	report := model.IndicatorReport{
		Ticker:   series.Ticker,
		Interval: series.Interval,
		Readings: make([]model.Reading, len(e.rules)),
	}
	for i, rule := range e.rules {
		report.Readings[i] = model.Reading{Name: rule.Name, Value: model.Missing(), Signal: model.Neutral}
	}
	if last, ok := clean.Last(); ok {
		report.TS = last.TS
		report.Close = model.ValueOf(last.Close)
	}

	switch {
	case clean.Len() == 0:
		report.Status = model.StatusNoData
	case clean.Len() < e.maxWindow:
		report.Status = model.StatusInsufficientData
		e.logger.Debug("insufficient history",
			"ticker", series.Ticker,
			"bars", clean.Len(),
			"required", e.maxWindow,
		)
	default:
		report.Status = model.StatusOK
		for i, rule := range e.rules {
			report.Readings[i] = e.read(rule, clean.Bars)
		}
	}

	return model.Evaluation{
		Report:   report,
		Combined: e.combine(report),
		Dropped:  dropped,
	}
}

// Series returns the full indicator series for every configured rule, keyed
// by rule name. Malformed bars are dropped first, as in Evaluate.
func (e *Engine) Series(series model.BarSeries) map[string]indicator.Series {
	clean, _ := e.sanitize(series)
	out := make(map[string]indicator.Series, len(e.rules))
	for _, rule := range e.rules {
		out[rule.Name] = indicator.Compute(clean.Bars, rule.New(e.cfg.Params))
	}
	return out
}

func (e *Engine) sanitize(series model.BarSeries) (model.BarSeries, int) {
	clean, rejected := series.Sanitize()
	for _, err := range rejected {
		e.logger.Warn("dropping malformed bar",
			"ticker", series.Ticker,
			"interval", series.Interval.String(),
			"error", err,
		)
	}
	return clean, len(rejected)
}

func (e *Engine) read(rule Rule, bars []model.Bar) model.Reading {
	s := indicator.Compute(bars, rule.New(e.cfg.Params))
	v, comps := s.Last()
	rd := model.Reading{Name: rule.Name, Value: v, Components: comps, Signal: model.Neutral}
	if v.Valid {
		rd.Signal = rule.Decide(rd, e.cfg.Thresholds, e.cfg.Options)
	}
	return rd
}

func (e *Engine) combine(report model.IndicatorReport) model.CombinedSignal {
	verdict, score := Aggregate(report.Signals(), e.cfg.Options.MinAgreement)
	participating := 0
	for _, rd := range report.Readings {
		if rd.Value.Valid {
			participating++
		}
	}
	return model.CombinedSignal{
		Ticker:        report.Ticker,
		TS:            report.TS,
		Verdict:       verdict,
		Score:         score,
		Participating: participating,
		Configured:    len(e.rules),
		Status:        report.Status,
	}
}
