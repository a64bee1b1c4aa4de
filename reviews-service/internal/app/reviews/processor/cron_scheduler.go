package processor

import (
	"context"
	"time"

	"shopreviews/pkg/logger"
	"shopreviews/reviews-service/internal/app/reviews/service"

	"github.com/robfig/cron/v3"
)

// CronScheduler periodically recomputes every stored product rating.
type CronScheduler struct {
	cron       *cron.Cron
	reconciler service.RatingReconciler
}

func NewCronScheduler(reconciler service.RatingReconciler) *CronScheduler {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
	)

	return &CronScheduler{
		cron:       c,
		reconciler: reconciler,
	}
}

// Start registers the reconciliation job on schedule (six fields, seconds first) and starts
// the scheduler. With runNow the job also runs once synchronously.
func (s *CronScheduler) Start(ctx context.Context, schedule string, runNow bool) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cron scheduler")

	if _, err := s.cron.AddFunc(schedule, func() { s.reconcile(ctx) }); err != nil {
		return err
	}

	s.cron.Start()

	if runNow {
		s.reconcile(ctx)
	}

	return nil
}

func (s *CronScheduler) reconcile(ctx context.Context) {
	start := time.Now()

	updated, err := s.reconciler.ReconcileAll(ctx)
	if err != nil {
		logger.Error().Err(err).Int("updated", updated).Msg("Rating reconciliation finished with errors")
		return
	}

	logger.Info().
		Int("updated", updated).
		Dur("duration", time.Since(start)).
		Msg("Rating reconciliation completed")
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

// cronLogger routes robfig/cron logs to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
