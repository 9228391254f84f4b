// Package scheduler runs periodic maintenance jobs. Each run takes a
// cache lock first so only one instance executes a given job at a time.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/stockinator-service/internal/cache"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type JobFunc func(ctx context.Context) error

type Scheduler struct {
	cron     *cron.Cron
	locker   cache.Locker
	instance string
	logger   logger.ZapLogger
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(locker cache.Locker, instance string, loc *time.Location, log logger.ZapLogger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		locker:   locker,
		instance: instance,
		logger:   log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Add registers fn under a cron spec such as "@every 1h" or "0 3 * * *".
// lockTTL bounds how long a crashed run can keep other instances out.
func (s *Scheduler) Add(name, spec string, lockTTL time.Duration, fn JobFunc) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runLocked(s.ctx, name, lockTTL, fn)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs until ctx is done, then cancels them.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.cancel()
}

// runLocked reports whether this instance ran the job.
func (s *Scheduler) runLocked(ctx context.Context, name string, ttl time.Duration, fn JobFunc) bool {
	key := "lock:job:" + name
	ok, err := s.locker.AcquireLock(ctx, key, s.instance, ttl)
	if err != nil {
		s.logger.Warn("job lock unavailable", zap.String("job", name), zap.Error(err))
		return false
	}
	if !ok {
		s.logger.Debug("job running elsewhere", zap.String("job", name))
		return false
	}
	defer func() {
		if err := s.locker.ReleaseLock(context.Background(), key, s.instance); err != nil {
			s.logger.Warn("failed to release job lock", zap.String("job", name), zap.Error(err))
		}
	}()

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
		return true
	}
	s.logger.Debug("job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	return true
}

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct {
	log logger.ZapLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, zap.Error(err), zap.Any("details", keysAndValues))
}
