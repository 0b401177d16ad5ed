package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/proverbian/trade-score/internal/calculator"
	"github.com/proverbian/trade-score/internal/model"
	"github.com/proverbian/trade-score/internal/strategy"
)

// Timeframe is a configured timeframe key and its fetch interval.
type Timeframe struct {
	Key      string
	Interval string
}

// Intervals keeps timeframes in the order they appear in the YAML mapping.
type Intervals []Timeframe

// UnmarshalYAML decodes a mapping of key -> interval preserving key order.
func (iv *Intervals) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("intervals: expected a mapping, got %s", node.ShortTag())
	}
	out := make(Intervals, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var interval string
		if err := node.Content[i+1].Decode(&interval); err != nil {
			return fmt.Errorf("intervals.%s: %w", node.Content[i].Value, err)
		}
		out = append(out, Timeframe{Key: node.Content[i].Value, Interval: interval})
	}
	*iv = out
	return nil
}

// Lookup returns the interval for a timeframe key.
func (iv Intervals) Lookup(key string) (string, bool) {
	for _, tf := range iv {
		if tf.Key == key {
			return tf.Interval, true
		}
	}
	return "", false
}

// Keys returns the timeframe keys in configured order.
func (iv Intervals) Keys() []string {
	keys := make([]string, len(iv))
	for i, tf := range iv {
		keys[i] = tf.Key
	}
	return keys
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL           string        `yaml:"base_url"`
		APIKey            string        `yaml:"api_key"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Concurrency       int           `yaml:"concurrency"`
		Timeout           time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Pairs     []string           `yaml:"pairs"`
	Intervals Intervals          `yaml:"intervals"`
	Weights   map[string]float64 `yaml:"weights"`
	EMAPeriod struct {
		Short int `yaml:"short"`
		Long  int `yaml:"long"`
	} `yaml:"ema_period"`
	SR struct {
		SwingWindow int    `yaml:"swing_window"`
		TopN        int    `yaml:"top_n"`
		Timeframe   string `yaml:"timeframe"`
		Period      string `yaml:"period"`
		TieBreak    string `yaml:"tie_break"`
		MinBars     int    `yaml:"min_bars"`
	} `yaml:"s_r"`
	Scoring struct {
		Profile            string   `yaml:"profile"`
		Period             string   `yaml:"period"`
		MinBars            int      `yaml:"min_bars"`
		Clamp              *float64 `yaml:"clamp"`
		BiasThreshold      *float64 `yaml:"bias_threshold"`
		StopLossMultiplier *float64 `yaml:"stop_loss_multiplier"`
		// Zero values keep the profile preset.
		VolatilityWindow       int     `yaml:"volatility_window"`
		VolatilityFallback     float64 `yaml:"volatility_fallback"`
		MarketStopMultiplier   float64 `yaml:"market_stop_multiplier"`
		MarketTargetMultiplier float64 `yaml:"market_target_multiplier"`
	} `yaml:"scoring"`
	LotSize  float64 `yaml:"lot_size"`
	Schedule struct {
		ScorecardCron string `yaml:"scorecard_cron"`
	} `yaml:"schedule"`
	Cache struct {
		Driver        string        `yaml:"driver"`
		SQLitePath    string        `yaml:"sqlite_path"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Proxy    string `yaml:"proxy"`
	LogLevel string `yaml:"log_level"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides and fills defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := firstEnv("TELEGRAM_BOT_TOKEN", "TG_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := firstEnv("TELEGRAM_CHAT_ID", "CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("PAIRS"); v != "" {
		c.Pairs = strings.Split(v, ",")
	}
	if v := os.Getenv("PROFILE"); v != "" {
		c.Scoring.Profile = v
	}
	if v := os.Getenv("CRON_SCORECARD"); v != "" {
		c.Schedule.ScorecardCron = v
	}
	if v := os.Getenv("CACHE_DRIVER"); v != "" {
		c.Cache.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Cache.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOT_SIZE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.LotSize = f
		}
	}
}

func (c *Config) applyDefaults() {
	seen := make(map[string]bool, len(c.Pairs))
	pairs := c.Pairs[:0]
	for _, p := range c.Pairs {
		p = strings.ToUpper(strings.TrimSpace(p))
		if seen[p] {
			continue
		}
		seen[p] = true
		pairs = append(pairs, p)
	}
	c.Pairs = pairs
	if len(c.Pairs) == 0 {
		c.Pairs = []string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD"}
	}
	if len(c.Intervals) == 0 {
		c.Intervals = Intervals{{Key: "M5", Interval: "5m"}, {Key: "M15", Interval: "15m"}}
	}
	if len(c.Weights) == 0 {
		c.Weights = map[string]float64{"M5": 0.4, "M15": 0.6}
	}
	if c.EMAPeriod.Short == 0 {
		c.EMAPeriod.Short = 5
	}
	if c.EMAPeriod.Long == 0 {
		c.EMAPeriod.Long = 20
	}
	if c.SR.SwingWindow == 0 {
		c.SR.SwingWindow = 2
	}
	if c.SR.TopN == 0 {
		c.SR.TopN = calculator.DefaultZoneTopN
	}
	if c.SR.Timeframe == "" {
		c.SR.Timeframe = "M15"
	}
	if c.SR.Period == "" {
		c.SR.Period = "2d"
	}
	if c.SR.TieBreak == "" {
		c.SR.TieBreak = string(calculator.ZoneOrderPrice)
	}
	if c.Scoring.Profile == "" {
		c.Scoring.Profile = strategy.ProfileSwing
	}
	if c.Scoring.Period == "" {
		c.Scoring.Period = "5d"
	}
	if c.Scoring.MinBars == 0 {
		c.Scoring.MinBars = 50
	}
	if c.SR.MinBars == 0 {
		c.SR.MinBars = c.Scoring.MinBars
	}
	if c.LotSize == 0 {
		c.LotSize = 0.01
	}
	if c.DataSource.RequestsPerSecond == 0 {
		c.DataSource.RequestsPerSecond = 2
	}
	if c.DataSource.Concurrency == 0 {
		c.DataSource.Concurrency = 4
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.Schedule.ScorecardCron == "" {
		c.Schedule.ScorecardCron = "0 */30 * * * 1-5"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "sqlite"
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = "data/bars.db"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if _, err := strconv.ParseInt(c.Telegram.ChatID, 10, 64); err != nil {
		return fmt.Errorf("telegram.chat_id must be numeric: %w", err)
	}
	return c.ValidateScoring()
}

// ValidateScoring checks the scoring section only.
func (c *Config) ValidateScoring() error {
	for _, p := range c.Pairs {
		if len(p) != 6 {
			return fmt.Errorf("pair %q must be 6 letters", p)
		}
	}
	if len(c.Intervals) == 0 {
		return fmt.Errorf("intervals must not be empty")
	}
	for k := range c.Weights {
		if _, ok := c.Intervals.Lookup(k); !ok {
			return fmt.Errorf("weights.%s has no matching interval", k)
		}
	}
	if c.EMAPeriod.Short <= 0 || c.EMAPeriod.Long <= 0 {
		return fmt.Errorf("ema_period spans must be positive")
	}
	if c.SR.SwingWindow < 1 {
		return fmt.Errorf("s_r.swing_window must be >= 1")
	}
	if c.SR.TopN < 1 {
		return fmt.Errorf("s_r.top_n must be >= 1")
	}
	if c.SR.MinBars < 2*c.SR.SwingWindow+1 {
		return fmt.Errorf("s_r.min_bars must be >= 2*swing_window+1")
	}
	if _, ok := c.Intervals.Lookup(c.SR.Timeframe); !ok {
		return fmt.Errorf("s_r.timeframe %q is not a configured interval", c.SR.Timeframe)
	}
	switch calculator.ZoneOrder(c.SR.TieBreak) {
	case calculator.ZoneOrderPrice, calculator.ZoneOrderRecency:
	default:
		return fmt.Errorf("s_r.tie_break must be %q or %q", calculator.ZoneOrderPrice, calculator.ZoneOrderRecency)
	}
	if _, ok := strategy.Profiles[c.Scoring.Profile]; !ok {
		return fmt.Errorf("scoring.profile %q is unknown", c.Scoring.Profile)
	}
	if c.Scoring.Clamp != nil && *c.Scoring.Clamp <= 0 {
		return fmt.Errorf("scoring.clamp must be positive")
	}
	if c.Scoring.BiasThreshold != nil && *c.Scoring.BiasThreshold < 0 {
		return fmt.Errorf("scoring.bias_threshold must not be negative")
	}
	if c.Scoring.StopLossMultiplier != nil && *c.Scoring.StopLossMultiplier <= 0 {
		return fmt.Errorf("scoring.stop_loss_multiplier must be positive")
	}
	if c.Scoring.VolatilityWindow < 0 || c.Scoring.VolatilityFallback < 0 ||
		c.Scoring.MarketStopMultiplier < 0 || c.Scoring.MarketTargetMultiplier < 0 {
		return fmt.Errorf("scoring volatility and market settings must not be negative")
	}
	switch c.Cache.Driver {
	case "none", "sqlite", "redis":
	default:
		return fmt.Errorf("cache.driver must be none, sqlite or redis")
	}
	if c.Cache.Driver == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the redis driver")
	}
	return nil
}

// ModelPairs returns the configured pairs as model.Pair values.
func (c *Config) ModelPairs() []model.Pair {
	out := make([]model.Pair, len(c.Pairs))
	for i, p := range c.Pairs {
		out[i] = model.Pair(p)
	}
	return out
}

// Params builds the scoring parameters: the profile preset first, then any
// explicit overrides from the file.
func (c *Config) Params() strategy.Params {
	p, ok := strategy.Profiles[c.Scoring.Profile]
	if !ok {
		p = strategy.DefaultParams()
	}
	p.EMAShort = c.EMAPeriod.Short
	p.EMALong = c.EMAPeriod.Long
	p.SwingWindow = c.SR.SwingWindow
	p.ZoneTopN = c.SR.TopN
	p.ZoneOrder = calculator.ZoneOrder(c.SR.TieBreak)
	p.MinBars = c.Scoring.MinBars
	if c.Scoring.Clamp != nil {
		p.Clamp = *c.Scoring.Clamp
	}
	if c.Scoring.BiasThreshold != nil {
		p.BiasThreshold = *c.Scoring.BiasThreshold
	}
	if c.Scoring.StopLossMultiplier != nil {
		p.StopLossMultiplier = *c.Scoring.StopLossMultiplier
	}
	if c.Scoring.VolatilityWindow > 0 {
		p.VolatilityWindow = c.Scoring.VolatilityWindow
	}
	if c.Scoring.VolatilityFallback > 0 {
		p.VolatilityFallback = c.Scoring.VolatilityFallback
	}
	if c.Scoring.MarketStopMultiplier > 0 {
		p.MarketStopMult = c.Scoring.MarketStopMultiplier
	}
	if c.Scoring.MarketTargetMultiplier > 0 {
		p.MarketTargetMult = c.Scoring.MarketTargetMultiplier
	}
	p.Weights = make(map[string]float64, len(c.Weights))
	for k, w := range c.Weights {
		p.Weights[k] = w
	}
	return p
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
