package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of scheduled work
type Job func(ctx context.Context) error

// Scheduler runs jobs on cron specs with a seconds field. Jobs never
// overlap, a job firing while another runs waits for it.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.SugaredLogger

	jobMutex sync.Mutex
	ctx      context.Context
}

// New creates a new scheduler
func New(log *zap.SugaredLogger) *Scheduler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log,
		ctx:  context.Background(),
	}
}

// Add registers a job under a name, e.g. Add("refresh", "0 0 * * * *", job)
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.log.Infow("attempting to start scheduled job", "job", name)
		s.jobMutex.Lock()
		defer s.jobMutex.Unlock()

		if s.ctx.Err() != nil {
			return
		}

		s.log.Infow("running scheduled job", "job", name)
		if err := job(s.ctx); err != nil {
			s.log.Errorw("scheduled job failed", "job", name, "error", err)
			return
		}
		s.log.Infow("finished scheduled job", "job", name)
	})
	if err != nil {
		return fmt.Errorf("error scheduling %s: %w", name, err)
	}

	return nil
}

// Run starts the scheduler and blocks until ctx is cancelled and running
// jobs have finished
func (s *Scheduler) Run(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.log.Info("cron scheduler started successfully")

	for _, entry := range s.cron.Entries() {
		s.log.Infow("next scheduled run", "at", entry.Next)
	}

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("cron scheduler stopped")
}
