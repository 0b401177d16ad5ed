package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/proverbian/trade-score/internal/calculator"
)

const sampleYAML = `
telegram:
  bot_token: "123:abc"
  chat_id: "-100200"
pairs: [eurusd, GBPJPY]
intervals:
  M15: 15m
  M5: 5m
  H1: 1h
weights:
  M5: 0.2
  M15: 0.3
  H1: 0.5
ema_period:
  short: 10
  long: 50
s_r:
  swing_window: 3
  top_n: 3
  timeframe: M15
  tie_break: recency
scoring:
  profile: scalp
  bias_threshold: 0.25
cache:
  driver: none
  ttl: 90s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FileAndOrder(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cfg.Intervals.Keys(); !reflect.DeepEqual(got, []string{"M15", "M5", "H1"}) {
		t.Errorf("interval order = %v", got)
	}
	if !reflect.DeepEqual(cfg.Pairs, []string{"EURUSD", "GBPJPY"}) {
		t.Errorf("pairs = %v", cfg.Pairs)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("ttl = %v", cfg.Cache.TTL)
	}
	if cfg.SR.Period != "2d" || cfg.Scoring.Period != "5d" {
		t.Errorf("default periods = %q %q", cfg.SR.Period, cfg.Scoring.Period)
	}
}

func TestParams_ProfileWithOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	p := cfg.Params()
	if p.Clamp != 1.5 || p.StopLossMultiplier != 1.0 {
		t.Errorf("scalp preset not applied: clamp=%v k=%v", p.Clamp, p.StopLossMultiplier)
	}
	if p.BiasThreshold != 0.25 {
		t.Errorf("threshold override = %v, want 0.25", p.BiasThreshold)
	}
	if p.EMAShort != 10 || p.EMALong != 50 || p.SwingWindow != 3 || p.ZoneTopN != 3 {
		t.Errorf("spans/window not applied: %+v", p)
	}
	if p.ZoneOrder != calculator.ZoneOrderRecency {
		t.Errorf("zone order = %q", p.ZoneOrder)
	}
	if p.Weights["H1"] != 0.5 {
		t.Errorf("weights = %v", p.Weights)
	}
}

func TestParams_ZeroThresholdOverride(t *testing.T) {
	body := strings.Replace(sampleYAML, "profile: scalp\n  bias_threshold: 0.25", "profile: swing\n  bias_threshold: 0", 1)
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatal(err)
	}
	p := cfg.Params()
	if p.BiasThreshold != 0 || p.Clamp != 3.0 || p.StopLossMultiplier != 1.5 {
		t.Errorf("got threshold=%v clamp=%v k=%v", p.BiasThreshold, p.Clamp, p.StopLossMultiplier)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TG_TOKEN", "tok")
	t.Setenv("CHAT_ID", "42")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	p := cfg.Params()
	if p.BiasThreshold != 0.3 || p.Clamp != 3.0 || p.EMAShort != 5 || p.EMALong != 20 {
		t.Errorf("defaults = %+v", p)
	}
	if cfg.Telegram.BotToken != "tok" || cfg.Telegram.ChatID != "42" {
		t.Errorf("env aliases not applied: %+v", cfg.Telegram)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad pair", func(c *Config) { c.Pairs = []string{"EUR"} }, "6 letters"},
		{"unknown weight", func(c *Config) { c.Weights = map[string]float64{"D1": 1} }, "weights.D1"},
		{"level timeframe", func(c *Config) { c.SR.Timeframe = "H4" }, "s_r.timeframe"},
		{"tie break", func(c *Config) { c.SR.TieBreak = "nearest" }, "tie_break"},
		{"profile", func(c *Config) { c.Scoring.Profile = "yolo" }, "profile"},
		{"negative threshold", func(c *Config) { v := -0.1; c.Scoring.BiasThreshold = &v }, "bias_threshold"},
		{"redis addr", func(c *Config) { c.Cache.Driver = "redis"; c.Cache.RedisAddr = "" }, "redis_addr"},
		{"chat id", func(c *Config) { c.Telegram.ChatID = "abc" }, "chat_id"},
		{"level min bars", func(c *Config) { c.SR.MinBars = 5 }, "s_r.min_bars"},
		{"negative market mult", func(c *Config) { c.Scoring.MarketStopMultiplier = -1 }, "market settings"},
	}
	for _, tt := range tests {
		cfg, err := Load(writeConfig(t, sampleYAML))
		if err != nil {
			t.Fatal(err)
		}
		tt.mutate(cfg)
		err = cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: expected error containing %q, got %v", tt.name, tt.want, err)
		}
	}
}

func TestLoad_DeduplicatesPairs(t *testing.T) {
	body := strings.Replace(sampleYAML, "pairs: [eurusd, GBPJPY]", "pairs: [eurusd, GBPJPY, EURUSD, \" gbpjpy \"]", 1)
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Pairs, []string{"EURUSD", "GBPJPY"}) {
		t.Errorf("pairs = %v, want [EURUSD GBPJPY]", cfg.Pairs)
	}
}

func TestLoad_LevelMinBars(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SR.MinBars != cfg.Scoring.MinBars {
		t.Errorf("s_r.min_bars default = %d, want scoring.min_bars %d", cfg.SR.MinBars, cfg.Scoring.MinBars)
	}

	body := strings.Replace(sampleYAML, "  tie_break: recency", "  tie_break: recency\n  min_bars: 20", 1)
	cfg, err = Load(writeConfig(t, body))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SR.MinBars != 20 || cfg.Scoring.MinBars != 50 {
		t.Errorf("min bars = s_r %d scoring %d, want 20 and 50", cfg.SR.MinBars, cfg.Scoring.MinBars)
	}
}

func TestParams_VolatilityAndMarketOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	p := cfg.Params()
	if p.VolatilityWindow != calculator.DefaultVolatilityWindow || p.MarketStopMult != 1.0 || p.MarketTargetMult != 1.5 {
		t.Errorf("preset volatility/market = %d %v %v", p.VolatilityWindow, p.MarketStopMult, p.MarketTargetMult)
	}

	body := strings.Replace(sampleYAML, "  bias_threshold: 0.25", `  bias_threshold: 0.25
  volatility_window: 20
  volatility_fallback: 0.002
  market_stop_multiplier: 0.8
  market_target_multiplier: 2`, 1)
	cfg, err = Load(writeConfig(t, body))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	p = cfg.Params()
	if p.VolatilityWindow != 20 || p.VolatilityFallback != 0.002 || p.MarketStopMult != 0.8 || p.MarketTargetMult != 2 {
		t.Errorf("overrides = %d %v %v %v", p.VolatilityWindow, p.VolatilityFallback, p.MarketStopMult, p.MarketTargetMult)
	}
}
