package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/access-control/internal"
	"github.com/robfig/cron/v3"
)

const sweepTimeout = 2 * time.Minute

// TokenCleaner removes sessions past their expiry.
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// Sweeper runs the expired-token cleanup on a cron schedule. Overlapping
// runs are skipped. The verifier already ignores expired rows, so the sweep
// only reclaims space.
type Sweeper struct {
	cleaner TokenCleaner
	logger  *slog.Logger
	cron    *cron.Cron
}

func NewSweeper(cleaner TokenCleaner, schedule string, logger *slog.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger.With("component", "cron")}
	s := &Sweeper{
		cleaner: cleaner,
		logger:  logger,
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
	}
	if _, err := s.cron.AddFunc(schedule, func() { _, _ = s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	return s, nil
}

// cronLogger routes the scheduler's own messages through slog. Scheduler
// chatter goes to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := internal.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.cleaner.CleanupExpiredTokens(ctx)
	if err != nil {
		s.logger.Error("token sweep failed", "error", err)
		return 0, err
	}
	s.logger.Info("token sweep finished", "deleted", n, "duration_ms", time.Since(start).Milliseconds())
	return n, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep, bounded by ctx.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("token sweep still running at shutdown")
	}
}
