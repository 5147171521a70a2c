package indicator

import (
	"fmt"
	"strings"

	"intraday-signals/internal/model"
)

// Params holds the window settings for every indicator.
type Params struct {
	RSIPeriod      int     `yaml:"rsi_period" json:"rsi_period"`
	StochPeriod    int     `yaml:"stoch_period" json:"stoch_period"`
	StochSmooth    int     `yaml:"stoch_smooth" json:"stoch_smooth"`
	StochRSIPeriod int     `yaml:"stoch_rsi_period" json:"stoch_rsi_period"`
	MACDFast       int     `yaml:"macd_fast" json:"macd_fast"`
	MACDSlow       int     `yaml:"macd_slow" json:"macd_slow"`
	MACDSignal     int     `yaml:"macd_signal" json:"macd_signal"`
	ADXPeriod      int     `yaml:"adx_period" json:"adx_period"`
	CCIPeriod      int     `yaml:"cci_period" json:"cci_period"`
	WilliamsPeriod int     `yaml:"williams_period" json:"williams_period"`
	UOShort        int     `yaml:"uo_short" json:"uo_short"`
	UOMedium       int     `yaml:"uo_medium" json:"uo_medium"`
	UOLong         int     `yaml:"uo_long" json:"uo_long"`
	ROCPeriod      int     `yaml:"roc_period" json:"roc_period"`
	BBPeriod       int     `yaml:"bb_period" json:"bb_period"`
	BBStdDev       float64 `yaml:"bb_stddev" json:"bb_stddev"`
	BullBearPeriod int     `yaml:"bull_bear_period" json:"bull_bear_period"`
	MAFast         int     `yaml:"ma_fast" json:"ma_fast"`
	MASlow         int     `yaml:"ma_slow" json:"ma_slow"`
	MAType         string  `yaml:"ma_type" json:"ma_type"`
}

// DefaultParams returns the conventional windows.
func DefaultParams() Params {
	return Params{
		RSIPeriod:      14,
		StochPeriod:    14,
		StochSmooth:    3,
		StochRSIPeriod: 14,
		MACDFast:       12,
		MACDSlow:       26,
		MACDSignal:     9,
		ADXPeriod:      14,
		CCIPeriod:      14,
		WilliamsPeriod: 14,
		UOShort:        7,
		UOMedium:       14,
		UOLong:         28,
		ROCPeriod:      12,
		BBPeriod:       20,
		BBStdDev:       2,
		BullBearPeriod: 13,
		MAFast:         20,
		MASlow:         50,
		MAType:         MATypeSMA,
	}
}

// Validate rejects non-positive windows and inverted fast/slow pairs.
func (p Params) Validate() error {
	windows := []struct {
		field string
		v     int
	}{
		{"rsi_period", p.RSIPeriod},
		{"stoch_period", p.StochPeriod},
		{"stoch_smooth", p.StochSmooth},
		{"stoch_rsi_period", p.StochRSIPeriod},
		{"macd_fast", p.MACDFast},
		{"macd_slow", p.MACDSlow},
		{"macd_signal", p.MACDSignal},
		{"adx_period", p.ADXPeriod},
		{"cci_period", p.CCIPeriod},
		{"williams_period", p.WilliamsPeriod},
		{"uo_short", p.UOShort},
		{"uo_medium", p.UOMedium},
		{"uo_long", p.UOLong},
		{"roc_period", p.ROCPeriod},
		{"bb_period", p.BBPeriod},
		{"bull_bear_period", p.BullBearPeriod},
		{"ma_fast", p.MAFast},
		{"ma_slow", p.MASlow},
	}
	for _, w := range windows {
		if w.v <= 0 {
			return &model.ConfigError{Field: w.field, Reason: fmt.Sprintf("window must be positive, got %d", w.v)}
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return &model.ConfigError{Field: "macd_fast", Reason: fmt.Sprintf("fast %d must be below slow %d", p.MACDFast, p.MACDSlow)}
	}
	if p.MAFast >= p.MASlow {
		return &model.ConfigError{Field: "ma_fast", Reason: fmt.Sprintf("fast %d must be below slow %d", p.MAFast, p.MASlow)}
	}
	if !(p.UOShort < p.UOMedium && p.UOMedium < p.UOLong) {
		return &model.ConfigError{Field: "uo_short", Reason: "windows must increase short < medium < long"}
	}
	if p.BBStdDev <= 0 {
		return &model.ConfigError{Field: "bb_stddev", Reason: fmt.Sprintf("width must be positive, got %v", p.BBStdDev)}
	}
	switch strings.ToUpper(p.MAType) {
	case MATypeSMA, MATypeEMA, MATypeSMMA:
	default:
		return &model.ConfigError{Field: "ma_type", Reason: fmt.Sprintf("unknown moving average %q", p.MAType)}
	}
	return nil
}
