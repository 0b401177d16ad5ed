package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/proverbian/trade-score/internal/model"
	"github.com/proverbian/trade-score/internal/notifier"
)

// ErrRunInProgress is returned when a scorecard run is requested while one is
// already executing.
var ErrRunInProgress = errors.New("scorecard run already in progress")

const helpText = `Available commands:
/scorecard - compute and post a scorecard now
/pair EURUSD - levels of one pair from the last scorecard
/strength - currency strength table from the last scorecard
/status - bot status`

// Source produces a scorecard.
type Source interface {
	Collect(ctx context.Context) (*model.Scorecard, error)
}

// Notifier delivers a message.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the scorecard cron task and bot commands.
type Scheduler struct {
	Cron     *cron.Cron
	Source   Source
	Notifier Notifier
	Ctx      context.Context

	running atomic.Bool
	mu      sync.RWMutex
	last    *model.Scorecard
	lastErr error
	started time.Time
	now     func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, src Source, n Notifier) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Source:   src,
		Notifier: n,
		Ctx:      ctx,
		started:  time.Now(),
		now:      time.Now,
	}
}

// Register adds the periodic scorecard task.
func (s *Scheduler) Register(scorecardCron string) error {
	if _, err := s.Cron.AddFunc(scorecardCron, s.scorecardTask); err != nil {
		return fmt.Errorf("register scorecard task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Str("component", "scheduler").Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Str("component", "scheduler").Msg("scheduler stopped")
}

// Last returns the most recent successful scorecard, or nil.
func (s *Scheduler) Last() *model.Scorecard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Scheduler) scorecardTask() {
	if err := s.RunScorecard(s.Ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
		log.Error().Str("component", "scheduler").Err(err).Msg("scheduled scorecard")
	}
}

// RunScorecard computes a scorecard and posts it. A failed run is reported to
// the chat and leaves the previous scorecard in place.
func (s *Scheduler) RunScorecard(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer s.running.Store(false)

	logger := log.With().Str("component", "scheduler").Logger()
	logger.Info().Msg("running scorecard task")

	sc, err := s.Source.Collect(ctx)
	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		s.last = sc
	}
	s.mu.Unlock()

	if err != nil {
		s.trySend(ctx, fmt.Sprintf("Scorecard run failed: %v", err))
		return fmt.Errorf("collect: %w", err)
	}

	s.trySend(ctx, notifier.FormatScorecard(sc, s.now()))
	return nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Group chats address commands as /cmd@botname.
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch cmd {
	case "/scorecard":
		if err := s.RunScorecard(ctx); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				return "A scorecard run is already in progress."
			}
			log.Error().Str("component", "scheduler").Err(err).Msg("manual scorecard")
		}
		return ""
	case "/pair":
		if len(fields) < 2 {
			return "Usage: /pair EURUSD"
		}
		sc := s.Last()
		if sc == nil {
			return "No scorecard yet. Send /scorecard to run one."
		}
		pair := model.Pair(strings.ToUpper(fields[1]))
		msg, ok := notifier.FormatPair(sc, pair)
		if !ok {
			return fmt.Sprintf("%s is not in the last scorecard.", pair)
		}
		return msg
	case "/strength":
		sc := s.Last()
		if sc == nil {
			return "No scorecard yet. Send /scorecard to run one."
		}
		return notifier.FormatStrength(sc)
	case "/status":
		return s.status()
	default:
		return helpText
	}
}

func (s *Scheduler) status() string {
	s.mu.RLock()
	last, lastErr := s.last, s.lastErr
	s.mu.RUnlock()

	var b strings.Builder
	b.WriteString("STATUS\n")
	b.WriteString(fmt.Sprintf("Uptime: %s\n", s.now().Sub(s.started).Truncate(time.Second)))
	if last != nil {
		b.WriteString(fmt.Sprintf("Last scorecard: %s UTC (run %s)\n", last.GeneratedAt.UTC().Format("2006-01-02 15:04"), last.RunID))
		b.WriteString(fmt.Sprintf("Pairs scored: %d, skipped: %d\n", len(last.Pairs), len(last.Failures)))
	} else {
		b.WriteString("Last scorecard: none\n")
	}
	if lastErr != nil {
		b.WriteString(fmt.Sprintf("Last run error: %v\n", lastErr))
	}
	if entries := s.Cron.Entries(); len(entries) > 0 && !entries[0].Next.IsZero() {
		b.WriteString(fmt.Sprintf("Next scheduled: %s UTC\n", entries[0].Next.UTC().Format("2006-01-02 15:04")))
	}
	if s.running.Load() {
		b.WriteString("A run is in progress.\n")
	}
	return b.String()
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Error().Str("component", "scheduler").Err(err).Msg("send notification")
	}
}
