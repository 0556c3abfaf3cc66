package worker

import (
	"context"

	"github.com/robfig/cron/v3"

	"sjsage522/fundgrubenotifier/logger"
)

// Scheduler runs the worker on a cron schedule. Runs never overlap; a run
// that is due while the previous one is still going is skipped
type Scheduler struct {
	cron   *cron.Cron
	worker *Worker
	ctx    context.Context
}

// NewScheduler creates a scheduler running w on the standard five field
// cron expression schedule. ctx is passed to every run
func NewScheduler(ctx context.Context, w *Worker, schedule string) (*Scheduler, error) {
	log := cronLogger{}
	c := cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)

	s := &Scheduler{cron: c, worker: w, ctx: ctx}
	if _, err := c.AddFunc(schedule, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins running scheduled runs
func (s *Scheduler) Start() {
	logger.ForWorker().Info().Msg("Scheduler started")
	s.cron.Start()
}

// Stop stops the scheduler; the returned context is done once a running
// pipeline has finished
func (s *Scheduler) Stop() context.Context {
	logger.ForWorker().Info().Msg("Scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) run() {
	if s.ctx.Err() != nil {
		return
	}
	logger.ForWorker().Info().Msg("Scheduled run starting")
	s.worker.RunOnce(s.ctx)
}

// cronLogger adapts the zerolog wrapper to cron.Logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.ForWorker().Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.ForWorker().Error().Err(err).Fields(keysAndValues).Msg(msg)
}
