// Package sweeper runs the scheduled retention sweep: tombstoned rows older
// than the retention horizon and expired refresh-token ledger rows are
// physically removed. Tombstones inside the horizon stay untouched so
// deletions remain auditable.
package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"crewbase.org/internal/obs"
	"crewbase.org/internal/softdelete"
)

// TombstonePurger removes tombstoned rows whose deletion precedes the cutoff.
type TombstonePurger interface {
	PurgeTombstoned(ctx context.Context, before time.Time) (int64, error)
}

// TokenPurger removes ledger rows whose expiry precedes the cutoff.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper owns the cron schedule and the per-table purgers.
type Sweeper struct {
	cron      *cron.Cron
	schedule  string
	retention time.Duration
	purgers   map[string]TombstonePurger
	tokens    TokenPurger
	now       func() time.Time
}

// Option configures Sweeper.
type Option func(*Sweeper)

// WithRetention overrides the retention horizon.
func WithRetention(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Sweeper. The purgers map keys become the metric label for
// each swept table.
func New(schedule string, purgers map[string]TombstonePurger, tokens TokenPurger, opts ...Option) (*Sweeper, error) {
	if schedule == "" {
		return nil, errors.New("sweep schedule is required")
	}
	if len(purgers) == 0 {
		return nil, errors.New("at least one purger is required")
	}
	s := &Sweeper{
		cron:      cron.New(),
		schedule:  schedule,
		retention: softdelete.DefaultRetention,
		purgers:   purgers,
		tokens:    tokens,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start registers the sweep on the cron schedule and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.Run(context.Background()); err != nil {
			obs.LogRequest(map[string]any{
				"ts":    time.Now().UTC().Format(time.RFC3339Nano),
				"level": "error",
				"msg":   "retention sweep failed",
				"error": err.Error(),
			})
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler. A sweep already in flight finishes.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// Run executes one sweep. Each table is swept independently; one failing
// purger does not stop the others.
func (s *Sweeper) Run(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.retention)

	var errs []error
	for kind, p := range s.purgers {
		n, err := p.PurgeTombstoned(ctx, cutoff)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		obs.CountPurged(kind, n)
		if n > 0 {
			obs.LogRequest(map[string]any{
				"ts":     time.Now().UTC().Format(time.RFC3339Nano),
				"level":  "info",
				"msg":    "retention sweep purged rows",
				"kind":   kind,
				"rows":   n,
				"cutoff": cutoff.Format(time.RFC3339),
			})
		}
	}

	if s.tokens != nil {
		n, err := s.tokens.PurgeExpired(ctx, s.now().UTC())
		if err != nil {
			errs = append(errs, err)
		} else {
			obs.CountPurged("refresh_tokens", n)
		}
	}
	return errors.Join(errs...)
}
