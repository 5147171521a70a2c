package signal

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"intraday-signals/internal/indicator"
	"intraday-signals/internal/model"
)

// Config selects the participating indicators and tunes them.
type Config struct {
	// Indicators lists registry names; empty means the registry defaults.
	Indicators []string         `yaml:"indicators" json:"indicators"`
	Params     indicator.Params `yaml:"params" json:"params"`
	Thresholds Thresholds       `yaml:"thresholds" json:"thresholds"`
	Options    Options          `yaml:"options" json:"options"`

	// MaxHistory is the most bars the feed can deliver; 0 means unknown.
	// A window longer than this can never warm up and is rejected.
	MaxHistory int `yaml:"max_history" json:"max_history"`
}

// DefaultConfig returns the default indicator set with conventional windows,
// strict thresholds and plain sign-of-sum aggregation.
func DefaultConfig() Config {
	return Config{
		Params:     indicator.DefaultParams(),
		Thresholds: DefaultThresholds(),
	}
}

// ParseConfig decodes YAML over DefaultConfig, so a file only needs the
// settings it changes.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse signal config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a YAML signal config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read signal config: %w", err)
	}
	return ParseConfig(data)
}

// resolve returns the participating rules in configured order.
func (c Config) resolve(reg *Registry) ([]Rule, error) {
	names := c.Indicators
	if len(names) == 0 {
		names = reg.Defaults()
	}
	if len(names) == 0 {
		return nil, &model.ConfigError{Field: "indicators", Reason: "no indicators configured"}
	}
	seen := make(map[string]bool, len(names))
	rules := make([]Rule, 0, len(names))
	for _, name := range names {
		rule, ok := reg.Lookup(name)
		if !ok {
			return nil, &model.ConfigError{Field: "indicators", Reason: fmt.Sprintf("unknown indicator %q", name)}
		}
		if seen[rule.Name] {
			return nil, &model.ConfigError{Field: "indicators", Reason: fmt.Sprintf("indicator %q listed twice", rule.Name)}
		}
		seen[rule.Name] = true
		rules = append(rules, rule)
	}
	return rules, nil
}

// Validate fails fast on anything that would make evaluation meaningless.
func (c Config) Validate(reg *Registry) error {
	_, err := c.validate(reg)
	return err
}

func (c Config) validate(reg *Registry) ([]Rule, error) {
	rules, err := c.resolve(reg)
	if err != nil {
		return nil, err
	}
	if err := c.Params.Validate(); err != nil {
		return nil, err
	}
	if c.MaxHistory < 0 {
		return nil, &model.ConfigError{Field: "max_history", Reason: "must not be negative"}
	}
	if c.MaxHistory > 0 {
		for _, rule := range rules {
			if w := rule.Window(c.Params); w > c.MaxHistory {
				return nil, &model.ConfigError{
					Field:  strings.ToLower(rule.Name),
					Reason: fmt.Sprintf("window %d exceeds available history of %d bars", w, c.MaxHistory),
				}
			}
		}
	}
	if err := c.Thresholds.validate(); err != nil {
		return nil, err
	}
	if c.Options.MinAgreement < 0 {
		return nil, &model.ConfigError{Field: "min_agreement", Reason: "must not be negative"}
	}
	if c.Options.MinAgreement > len(rules) {
		return nil, &model.ConfigError{
			Field:  "min_agreement",
			Reason: fmt.Sprintf("%d exceeds the %d configured indicators", c.Options.MinAgreement, len(rules)),
		}
	}
	return rules, nil
}

func (t Thresholds) validate() error {
	pairs := []struct {
		field    string
		lo, hi   float64
		fraction bool
	}{
		{"rsi", t.RSIOversold, t.RSIOverbought, false},
		{"stoch", t.StochOversold, t.StochOverbought, false},
		{"stoch_rsi", t.StochRSIOversold, t.StochRSIOverbought, true},
		{"cci", t.CCIOversold, t.CCIOverbought, false},
		{"williams", t.WilliamsOversold, t.WilliamsOverbought, false},
		{"uo", t.UOOversold, t.UOOverbought, false},
	}
	for _, p := range pairs {
		if p.lo >= p.hi {
			return &model.ConfigError{
				Field:  p.field + "_oversold",
				Reason: fmt.Sprintf("oversold %v must be below overbought %v", p.lo, p.hi),
			}
		}
		if p.fraction && (p.lo < 0 || p.hi > 1) {
			return &model.ConfigError{Field: p.field + "_oversold", Reason: "levels must lie in [0, 1]"}
		}
	}
	if t.ADXTrend < 0 || t.ADXTrend > 100 {
		return &model.ConfigError{Field: "adx_trend", Reason: fmt.Sprintf("%v outside [0, 100]", t.ADXTrend)}
	}
	return nil
}
