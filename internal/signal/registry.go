package signal

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"intraday-signals/internal/indicator"
	"intraday-signals/internal/model"
)

// Rule binds an indicator to the function that turns its latest reading into
// a signal.
type Rule struct {
	// Name is the registry key and the reading name, e.g. "RSI".
	Name string

	// Window returns the longest lookback the indicator needs under p.
	Window func(p indicator.Params) int

	// New builds a fresh indicator instance.
	New func(p indicator.Params) indicator.Indicator

	// Decide maps a defined reading to a signal. It is never called for a
	// missing value.
	Decide func(r model.Reading, th Thresholds, opt Options) model.Signal

	// Default marks rules that participate when no indicator list is configured.
	Default bool

	// Description is shown by the CLI and /api/indicators.
	Description string
}

// Registry holds the known rules in registration order.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule. Names are case-insensitive and must be unique.
func (r *Registry) Register(rule Rule) error {
	name := strings.ToUpper(strings.TrimSpace(rule.Name))
	if name == "" || rule.Window == nil || rule.New == nil || rule.Decide == nil {
		return fmt.Errorf("register rule %q: name, window, new and decide are required", rule.Name)
	}
	rule.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.rules[name]; dup {
		return fmt.Errorf("register rule %q: already registered", name)
	}
	r.rules[name] = rule
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the rule registered under name.
func (r *Registry) Lookup(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[strings.ToUpper(strings.TrimSpace(name))]
	return rule, ok
}

// Names returns every registered name in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Defaults returns the names of the default rules in registration order.
func (r *Registry) Defaults() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, name := range r.order {
		if r.rules[name].Default {
			out = append(out, name)
		}
	}
	return out
}

// Windows returns each rule's lookback under p, sorted by name.
func (r *Registry) Windows(p indicator.Params) []RuleWindow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RuleWindow, 0, len(r.rules))
	for _, name := range r.order {
		rule := r.rules[name]
		out = append(out, RuleWindow{
			Name:        name,
			Window:      rule.Window(p),
			WarmUp:      rule.New(p).WarmUp(),
			Default:     rule.Default,
			Description: rule.Description,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RuleWindow describes a registered rule for listings.
type RuleWindow struct {
	Name        string `json:"name"`
	Window      int    `json:"window"`
	WarmUp      int    `json:"warm_up"`
	Default     bool   `json:"default"`
	Description string `json:"description"`
}

// DefaultRegistry returns the ten standard rules plus the opt-in Bollinger
// breakout (BB) and moving-average trend (MA) rules.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	for _, rule := range []Rule{
		{
			Name:        indicator.TypeRSI,
			Window:      func(p indicator.Params) int { return p.RSIPeriod },
			Decide:      decideRSI,
			Default:     true,
			Description: "RSI below oversold BUY, above overbought SELL",
		},
		{
			Name:        indicator.TypeStoch,
			Window:      func(p indicator.Params) int { return p.StochPeriod },
			Decide:      decideStoch,
			Default:     true,
			Description: "Stochastic %K below oversold BUY, above overbought SELL",
		},
		{
			Name:        indicator.TypeStochRSI,
			Window:      func(p indicator.Params) int { return p.StochRSIPeriod },
			Decide:      decideStochRSI,
			Default:     true,
			Description: "Stochastic RSI (0-1) below oversold BUY, above overbought SELL",
		},
		{
			Name:        indicator.TypeMACD,
			Window:      func(p indicator.Params) int { return maxInt(p.MACDFast, p.MACDSlow, p.MACDSignal) },
			Decide:      decideMACD,
			Default:     true,
			Description: "MACD line above signal BUY, below SELL",
		},
		{
			Name:        indicator.TypeADX,
			Window:      func(p indicator.Params) int { return p.ADXPeriod },
			Decide:      decideADX,
			Default:     true,
			Description: "ADX above trend level with DI+ leading BUY, DI- leading SELL",
		},
		{
			Name:        indicator.TypeCCI,
			Window:      func(p indicator.Params) int { return p.CCIPeriod },
			Decide:      decideCCI,
			Default:     true,
			Description: "CCI below oversold BUY, above overbought SELL",
		},
		{
			Name:        indicator.TypeWilliams,
			Window:      func(p indicator.Params) int { return p.WilliamsPeriod },
			Decide:      decideWilliams,
			Default:     true,
			Description: "Williams %R below oversold BUY, above overbought SELL",
		},
		{
			Name:        indicator.TypeUO,
			Window:      func(p indicator.Params) int { return maxInt(p.UOShort, p.UOMedium, p.UOLong) },
			Decide:      decideUO,
			Default:     true,
			Description: "Ultimate Oscillator below oversold BUY, above overbought SELL",
		},
		{
			Name:        indicator.TypeROC,
			Window:      func(p indicator.Params) int { return p.ROCPeriod },
			Decide:      decideROC,
			Default:     true,
			Description: "rate of change above zero BUY, below SELL",
		},
		{
			Name:        indicator.TypeBBP,
			Window:      func(p indicator.Params) int { return p.BullBearPeriod },
			Decide:      decideBullBear,
			Default:     true,
			Description: "bull power above zero BUY, below SELL",
		},
		{
			Name:        indicator.TypeBB,
			Window:      func(p indicator.Params) int { return p.BBPeriod },
			Decide:      decideBollinger,
			Description: "close under lower band BUY, over upper band SELL",
		},
		{
			Name:        indicator.TypeMA,
			Window:      func(p indicator.Params) int { return maxInt(p.MAFast, p.MASlow) },
			Decide:      decideMA,
			Description: "fast moving average above slow BUY, below SELL",
		},
	} {
		rule.New = build(rule.Name)
		if err := reg.Register(rule); err != nil {
			panic(err)
		}
	}
	return reg
}
