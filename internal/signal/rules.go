package signal

import (
	"intraday-signals/internal/indicator"
	"intraday-signals/internal/model"
)

// Thresholds are the oversold/overbought levels used by the band rules.
// Every comparison is strict: a value sitting exactly on a level is NEUTRAL.
type Thresholds struct {
	RSIOversold        float64 `yaml:"rsi_oversold" json:"rsi_oversold"`
	RSIOverbought      float64 `yaml:"rsi_overbought" json:"rsi_overbought"`
	StochOversold      float64 `yaml:"stoch_oversold" json:"stoch_oversold"`
	StochOverbought    float64 `yaml:"stoch_overbought" json:"stoch_overbought"`
	StochRSIOversold   float64 `yaml:"stoch_rsi_oversold" json:"stoch_rsi_oversold"`
	StochRSIOverbought float64 `yaml:"stoch_rsi_overbought" json:"stoch_rsi_overbought"`
	ADXTrend           float64 `yaml:"adx_trend" json:"adx_trend"`
	CCIOversold        float64 `yaml:"cci_oversold" json:"cci_oversold"`
	CCIOverbought      float64 `yaml:"cci_overbought" json:"cci_overbought"`
	WilliamsOversold   float64 `yaml:"williams_oversold" json:"williams_oversold"`
	WilliamsOverbought float64 `yaml:"williams_overbought" json:"williams_overbought"`
	UOOversold         float64 `yaml:"uo_oversold" json:"uo_oversold"`
	UOOverbought       float64 `yaml:"uo_overbought" json:"uo_overbought"`
}

// DefaultThresholds returns the conventional levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RSIOversold:        30,
		RSIOverbought:      70,
		StochOversold:      20,
		StochOverbought:    80,
		StochRSIOversold:   0.2,
		StochRSIOverbought: 0.8,
		ADXTrend:           25,
		CCIOversold:        -100,
		CCIOverbought:      100,
		WilliamsOversold:   -80,
		WilliamsOverbought: -20,
		UOOversold:         30,
		UOOverbought:       70,
	}
}

// Options selects between the rule variants found in practice.
type Options struct {
	// InclusiveZero makes ROC and Bull/Bear Power call BUY at exactly zero
	// (>= 0 BUY, < 0 SELL) instead of NEUTRAL.
	InclusiveZero bool `yaml:"inclusive_zero" json:"inclusive_zero"`

	// MinAgreement is the smallest |score| that yields a BUY or SELL verdict.
	// 0 and 1 both mean plain sign-of-sum.
	MinAgreement int `yaml:"min_agreement" json:"min_agreement"`
}

// band is the oscillator rule: below oversold is BUY, above overbought is SELL.
func band(v, oversold, overbought float64) model.Signal {
	switch {
	case v < oversold:
		return model.Buy
	case v > overbought:
		return model.Sell
	}
	return model.Neutral
}

// sign is the zero-line rule.
func sign(v float64, inclusive bool) model.Signal {
	switch {
	case v > 0:
		return model.Buy
	case v < 0:
		return model.Sell
	case inclusive:
		return model.Buy
	}
	return model.Neutral
}

func decideRSI(r model.Reading, th Thresholds, _ Options) model.Signal {
	return band(r.Value.Float, th.RSIOversold, th.RSIOverbought)
}

func decideStoch(r model.Reading, th Thresholds, _ Options) model.Signal {
	return band(r.Value.Float, th.StochOversold, th.StochOverbought)
}

func decideStochRSI(r model.Reading, th Thresholds, _ Options) model.Signal {
	return band(r.Value.Float, th.StochRSIOversold, th.StochRSIOverbought)
}

func decideCCI(r model.Reading, th Thresholds, _ Options) model.Signal {
	return band(r.Value.Float, th.CCIOversold, th.CCIOverbought)
}

func decideWilliams(r model.Reading, th Thresholds, _ Options) model.Signal {
	return band(r.Value.Float, th.WilliamsOversold, th.WilliamsOverbought)
}

func decideUO(r model.Reading, th Thresholds, _ Options) model.Signal {
	return band(r.Value.Float, th.UOOversold, th.UOOverbought)
}

// decideMACD compares the MACD line with its signal line.
func decideMACD(r model.Reading, _ Thresholds, _ Options) model.Signal {
	sig := r.Components["signal"]
	if !sig.Valid {
		return model.Neutral
	}
	return sign(r.Value.Float-sig.Float, false)
}

// decideADX needs a trending market (ADX above the trend level) and takes the
// direction from whichever DI leads.
func decideADX(r model.Reading, th Thresholds, _ Options) model.Signal {
	plus, minus := r.Components["plus_di"], r.Components["minus_di"]
	if !plus.Valid || !minus.Valid || !(r.Value.Float > th.ADXTrend) {
		return model.Neutral
	}
	return sign(plus.Float-minus.Float, false)
}

func decideROC(r model.Reading, _ Thresholds, opt Options) model.Signal {
	return sign(r.Value.Float, opt.InclusiveZero)
}

func decideBullBear(r model.Reading, _ Thresholds, opt Options) model.Signal {
	return sign(r.Value.Float, opt.InclusiveZero)
}

// decideBollinger is the breakout rule: close under the lower band is BUY,
// close over the upper band is SELL.
func decideBollinger(r model.Reading, _ Thresholds, _ Options) model.Signal {
	c, lo, hi := r.Components["close"], r.Components["lower"], r.Components["upper"]
	if !c.Valid || !lo.Valid || !hi.Valid {
		return model.Neutral
	}
	switch {
	case c.Float < lo.Float:
		return model.Buy
	case c.Float > hi.Float:
		return model.Sell
	}
	return model.Neutral
}

// decideMA is the trend rule: fast average above slow is BUY.
func decideMA(r model.Reading, _ Thresholds, _ Options) model.Signal {
	return sign(r.Value.Float, false)
}

// build adapts indicator.New to a Rule constructor.
func build(typ string) func(indicator.Params) indicator.Indicator {
	return func(p indicator.Params) indicator.Indicator {
		ind, err := indicator.New(indicator.IndicatorConfig{Type: typ, Params: p})
		if err != nil {
			panic("signal: " + err.Error()) // every registered type is known to indicator.New
		}
		return ind
	}
}

func maxInt(vs ...int) int {
	m := 0
	for _, v := range vs {
		if v > m {
			m = v
		}
	}
	return m
}
