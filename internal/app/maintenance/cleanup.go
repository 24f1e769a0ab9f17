package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	iauth "github.com/jamboshop/jamboshop/internal/auth"
	"github.com/jamboshop/jamboshop/internal/verification"
	"github.com/jamboshop/jamboshop/pkg/logger"
)

const defaultSchedule = "@every 10m"

// Cleaner runs the background sweeps: expired verification codes and stale
// blacklist rows. The write path already sweeps codes on every create; the
// cron covers quiet periods.
type Cleaner struct {
	codes     *verification.Service
	blacklist *iauth.BlacklistService
	retention time.Duration
	cron      *cron.Cron
	schedule  string
	log       *zap.Logger
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron expression for the sweeps.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithBlacklistRetention adjusts how long revoked token rows are kept.
func WithBlacklistRetention(retention time.Duration) Option {
	return func(cleaner *Cleaner) {
		if retention > 0 {
			cleaner.retention = retention
		}
	}
}

// NewCleaner constructs a Cleaner. Nil dependencies skip the matching sweep.
func NewCleaner(codes *verification.Service, blacklist *iauth.BlacklistService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		codes:     codes,
		blacklist: blacklist,
		retention: 2 * iauth.DefaultRefreshTokenTTL,
		schedule:  defaultSchedule,
		log:       logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the sweep job and launches the scheduler.
func (c *Cleaner) Start() error {
	if c.codes == nil && c.blacklist == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("maintenance sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured sweeps sequentially. Used by the scheduler,
// by tests, and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.codes != nil {
		removed, err := c.codes.SweepExpired(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("swept expired verification codes", zap.Int64("removed", removed))
		}
	}

	if c.blacklist != nil {
		removed, err := c.blacklist.SweepExpired(ctx, c.retention)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("swept stale blacklist rows", zap.Int64("removed", removed))
		}
	}

	return errs
}
