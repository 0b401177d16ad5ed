package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/proverbian/trade-score/internal/barstore"
	"github.com/proverbian/trade-score/internal/collector"
	"github.com/proverbian/trade-score/internal/config"
	"github.com/proverbian/trade-score/internal/notifier"
	"github.com/proverbian/trade-score/internal/scheduler"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Info().Msg("trade-score starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, using info")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	chatID, _ := strconv.ParseInt(cfg.Telegram.ChatID, 10, 64)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Init fetcher
	var fetcher collector.Fetcher
	ds := cfg.DataSource
	if ds.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy, ds.Timeout, ds.RequestsPerSecond)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy, ds.Timeout, ds.RequestsPerSecond)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	// Init bar cache
	store := openStore(ctx, cfg)
	defer store.Close()
	if _, noop := store.(*barstore.NoopStore); !noop {
		fetcher = collector.NewCachedFetcher(fetcher, store, cfg.Cache.TTL)
	}

	// Init collector
	col := collector.NewCollector(fetcher, collectorOptions(cfg), cfg.Params())

	// Init Telegram notifier
	tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, chatID, cfg.Proxy)
	if err != nil {
		log.Fatal().Err(err).Msg("init telegram notifier")
	}

	sched := scheduler.NewScheduler(ctx, col, tn)

	if os.Getenv("RUN_ONCE") == "true" {
		log.Info().Msg("RUN_ONCE enabled, executing scorecard task and exiting")
		if err := sched.RunScorecard(ctx); err != nil {
			log.Error().Err(err).Msg("scorecard run")
			store.Close()
			os.Exit(1)
		}
		return
	}

	if err := sched.Register(cfg.Schedule.ScorecardCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info().Msg("telegram polling started")

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing scorecard task now")
		go func() {
			if err := sched.RunScorecard(ctx); err != nil {
				log.Error().Err(err).Msg("startup scorecard")
			}
		}()
	}

	log.Info().Str("cron", cfg.Schedule.ScorecardCron).Msg("trade-score is running. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")
}

// openStore returns the configured bar cache, falling back to no cache when
// the backend cannot be opened.
func openStore(ctx context.Context, cfg *config.Config) barstore.Store {
	switch cfg.Cache.Driver {
	case "sqlite":
		s, err := barstore.NewSQLiteStore(cfg.Cache.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite cache failed, caching disabled")
			return barstore.NewNoopStore()
		}
		return s
	case "redis":
		s, err := barstore.NewRedisStore(ctx, barstore.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("init redis cache failed, caching disabled")
			return barstore.NewNoopStore()
		}
		return s
	default:
		return barstore.NewNoopStore()
	}
}

func collectorOptions(cfg *config.Config) collector.Options {
	opts := collector.Options{
		Pairs:          cfg.ModelPairs(),
		MomentumPeriod: cfg.Scoring.Period,
		LevelTimeframe: cfg.SR.Timeframe,
		LevelPeriod:    cfg.SR.Period,
		MinBars:        cfg.Scoring.MinBars,
		LevelMinBars:   cfg.SR.MinBars,
		Concurrency:    cfg.DataSource.Concurrency,
		LotSize:        cfg.LotSize,
	}
	for _, tf := range cfg.Intervals {
		opts.Timeframes = append(opts.Timeframes, collector.Timeframe{Key: tf.Key, Interval: tf.Interval})
	}
	opts.LevelInterval, _ = cfg.Intervals.Lookup(cfg.SR.Timeframe)
	return opts
}
