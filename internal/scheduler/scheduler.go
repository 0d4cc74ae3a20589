// Package scheduler runs the periodic store maintenance: flushing lazy
// writes the debounce left pending and purging expired sign-in tokens.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Flusher interface {
	FlushIfDirty(ctx context.Context) (bool, error)
}

// Purger removes expired rows and reports how many went.
type Purger func(ctx context.Context) (int64, error)

type Options struct {
	FlushEvery string
	PurgeEvery string
	JobTimeout time.Duration
}

type Scheduler struct {
	cron    *cron.Cron
	opts    Options
	flusher Flusher
	purgers map[string]Purger
	logger  *zap.SugaredLogger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

func New(opts Options, flusher Flusher, purgers map[string]Purger, logger *zap.SugaredLogger) *Scheduler {
	if opts.FlushEvery == "" {
		opts.FlushEvery = "@every 30s"
	}
	if opts.PurgeEvery == "" {
		opts.PurgeEvery = "@hourly"
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		opts:    opts,
		flusher: flusher,
		purgers: purgers,
		logger:  logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	if s.flusher != nil {
		if _, err := s.cron.AddFunc(s.opts.FlushEvery, s.FlushOnce); err != nil {
			return errors.Wrapf(err, "schedule flush %q", s.opts.FlushEvery)
		}
	}
	if len(s.purgers) > 0 {
		if _, err := s.cron.AddFunc(s.opts.PurgeEvery, s.PurgeOnce); err != nil {
			return errors.Wrapf(err, "schedule purge %q", s.opts.PurgeEvery)
		}
	}

	s.cron.Start()
	s.started = true
	s.logger.Infow("[Scheduler] started", "flush", s.opts.FlushEvery, "purge", s.opts.PurgeEvery)
	return nil
}

// Stop waits for running jobs, then flushes once more.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.FlushOnce()
	s.cancel()
	s.logger.Infow("[Scheduler] stopped")
}

func (s *Scheduler) jobContext() (context.Context, context.CancelFunc) {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()
	if parent == nil || parent.Err() != nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, s.opts.JobTimeout)
}

func (s *Scheduler) FlushOnce() {
	if s.flusher == nil {
		return
	}
	ctx, cancel := s.jobContext()
	defer cancel()
	flushed, err := s.flusher.FlushIfDirty(ctx)
	if err != nil {
		s.logger.Errorw("[Scheduler] flush failed", "error", err)
		return
	}
	if flushed {
		s.logger.Debugw("[Scheduler] flushed pending writes")
	}
}

func (s *Scheduler) PurgeOnce() {
	ctx, cancel := s.jobContext()
	defer cancel()
	for name, purge := range s.purgers {
		n, err := purge(ctx)
		if err != nil {
			s.logger.Errorw("[Scheduler] purge failed", "what", name, "error", err)
			continue
		}
		if n > 0 {
			s.logger.Infow("[Scheduler] purged expired rows", "what", name, "rows", n)
		}
	}
}
