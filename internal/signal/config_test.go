package signal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfig_OverridesDefaults(t *testing.T) {
	data := []byte(`
indicators: [RSI, MACD, BB]
params:
  rsi_period: 9
thresholds:
  rsi_oversold: 25
options:
  inclusive_zero: true
  min_agreement: 2
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Params.RSIPeriod != 9 || cfg.Params.MACDSlow != 26 {
		t.Errorf("params %+v: want rsi 9 with macd slow default 26", cfg.Params)
	}
	if cfg.Thresholds.RSIOversold != 25 || cfg.Thresholds.RSIOverbought != 70 {
		t.Errorf("thresholds %+v", cfg.Thresholds)
	}
	if !cfg.Options.InclusiveZero || cfg.Options.MinAgreement != 2 {
		t.Errorf("options %+v", cfg.Options)
	}
	if err := cfg.Validate(DefaultRegistry()); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseConfig_BadYAML(t *testing.T) {
	if _, err := ParseConfig([]byte("indicators: [RSI\n")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.yaml")
	if err := os.WriteFile(path, []byte("indicators: [ROC]\nparams:\n  roc_period: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Indicators) != 1 || cfg.Params.ROCPeriod != 5 {
		t.Errorf("loaded %+v", cfg)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRegistry_RegisterAndDefaults(t *testing.T) {
	reg := DefaultRegistry()
	if len(reg.Names()) != 12 {
		t.Errorf("names %v, want 12 rules", reg.Names())
	}
	if len(reg.Defaults()) != 10 {
		t.Errorf("defaults %v, want 10", reg.Defaults())
	}
	rsi, _ := reg.Lookup("RSI")
	if err := reg.Register(rsi); err == nil {
		t.Error("duplicate registration should fail")
	}
	if err := reg.Register(Rule{Name: "EMPTY"}); err == nil {
		t.Error("incomplete rule should fail")
	}

	windows := reg.Windows(DefaultConfig().Params)
	for _, w := range windows {
		if w.Window <= 0 || w.WarmUp < w.Window {
			t.Errorf("%s: window %d warm-up %d", w.Name, w.Window, w.WarmUp)
		}
	}
}
