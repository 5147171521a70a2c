package indicator

import (
	"fmt"
	"strings"

	"intraday-signals/internal/model"
)

// Indicator type names accepted by New.
const (
	TypeRSI      = "RSI"
	TypeStoch    = "STOCH"
	TypeStochRSI = "STOCHRSI"
	TypeMACD     = "MACD"
	TypeADX      = "ADX"
	TypeCCI      = "CCI"
	TypeWilliams = "WILLR"
	TypeUO       = "UO"
	TypeROC      = "ROC"
	TypeBB       = "BB"
	TypeBBP      = "BBP"
	TypeMA       = "MA"
	TypeSMA      = "SMA"
	TypeEMA      = "EMA"
	TypeSMMA     = "SMMA"
)

// Types lists every type New understands.
var Types = []string{
	TypeRSI, TypeStoch, TypeStochRSI, TypeMACD, TypeADX, TypeCCI, TypeWilliams,
	TypeUO, TypeROC, TypeBB, TypeBBP, TypeMA, TypeSMA, TypeEMA, TypeSMMA,
}

// IndicatorConfig specifies a single indicator to compute.
// Plain moving averages (SMA/EMA/SMMA) read their period from Period;
// everything else reads Params.
type IndicatorConfig struct {
	Type   string
	Period int
	Params Params
}

// Key returns the series name: the type, plus "_period" for moving averages.
func (c IndicatorConfig) Key() string {
	switch strings.ToUpper(c.Type) {
	case TypeSMA, TypeEMA, TypeSMMA:
		return strings.ToUpper(c.Type) + "_" + model.Itoa(c.Period)
	}
	return strings.ToUpper(c.Type)
}

// New creates a fresh indicator instance for cfg.
func New(cfg IndicatorConfig) (Indicator, error) {
	p := cfg.Params
	switch strings.ToUpper(cfg.Type) {
	case TypeRSI:
		return NewRSI(p.RSIPeriod), nil
	case TypeStoch:
		return NewStochastic(p.StochPeriod, p.StochSmooth), nil
	case TypeStochRSI:
		return NewStochRSI(p.StochRSIPeriod, p.StochRSIPeriod), nil
	case TypeMACD:
		return NewMACD(p.MACDFast, p.MACDSlow, p.MACDSignal), nil
	case TypeADX:
		return NewADX(p.ADXPeriod), nil
	case TypeCCI:
		return NewCCI(p.CCIPeriod), nil
	case TypeWilliams:
		return NewWilliamsR(p.WilliamsPeriod), nil
	case TypeUO:
		return NewUltimate(p.UOShort, p.UOMedium, p.UOLong), nil
	case TypeROC:
		return NewROC(p.ROCPeriod), nil
	case TypeBB:
		return NewBollinger(p.BBPeriod, p.BBStdDev), nil
	case TypeBBP:
		return NewBullBear(p.BullBearPeriod), nil
	case TypeMA:
		return NewMACross(p.MAType, p.MAFast, p.MASlow), nil
	case TypeSMA, TypeEMA, TypeSMMA:
		if cfg.Period <= 0 {
			return nil, &model.ConfigError{Field: cfg.Key(), Reason: "period must be positive"}
		}
		return NewMovingAverage(cfg.Type, cfg.Period), nil
	}
	return nil, &model.ConfigError{Field: "indicator", Reason: fmt.Sprintf("unknown indicator type %q", cfg.Type)}
}

// Engine computes a fixed set of indicators over a bar series.
// Every Compute call builds fresh indicator instances, so the engine holds no
// per-series state and is safe for concurrent use.
type Engine struct {
	configs []IndicatorConfig
}

// NewEngine creates an indicator engine, rejecting unknown types up front.
func NewEngine(configs []IndicatorConfig) (*Engine, error) {
	seen := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		if _, err := New(cfg); err != nil {
			return nil, err
		}
		if seen[cfg.Key()] {
			return nil, &model.ConfigError{Field: cfg.Key(), Reason: "configured twice"}
		}
		seen[cfg.Key()] = true
	}
	return &Engine{configs: configs}, nil
}

// Compute replays bars through every configured indicator and returns one
// series per indicator keyed by IndicatorConfig.Key.
func (e *Engine) Compute(bars []model.Bar) map[string]Series {
	out := make(map[string]Series, len(e.configs))
	for _, cfg := range e.configs {
		ind, _ := New(cfg) // validated in NewEngine
		out[cfg.Key()] = Compute(bars, ind)
	}
	return out
}
