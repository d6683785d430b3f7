// Package jobs runs the background cron jobs: dashboard cache warming and
// idempotency-key housekeeping.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/analytics"
	"github.com/chatguus/chatguus-backend/internal/config"
	"github.com/chatguus/chatguus-backend/internal/observability"
	"github.com/chatguus/chatguus-backend/internal/repo"
)

const (
	JobWarmDashboards = "warm_dashboards"
	JobHousekeeping   = "housekeeping"
)

// jobTimeout bounds a single run.
const jobTimeout = 2 * time.Minute

// DashboardWarmer rebuilds and caches an AI dashboard.
type DashboardWarmer interface {
	WarmDashboard(ctx context.Context, f analytics.Filters) error
}

// Scheduler owns the cron instance and the jobs registered on it.
type Scheduler struct {
	cron   *cron.Cron
	db     *gorm.DB
	warmer DashboardWarmer
	cfg    config.JobsConfig
	log    zerolog.Logger
	now    func() time.Time
}

// New creates a scheduler with seconds precision. Jobs are registered by Start.
func New(db *gorm.DB, warmer DashboardWarmer, cfg config.JobsConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		db:     db,
		warmer: warmer,
		cfg:    cfg,
		log:    log.With().Str("component", "jobs").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Start registers every job with a non-empty spec and starts the cron loop.
// A bad spec fails Start without starting anything.
func (s *Scheduler) Start() error {
	if s.cfg.DashboardWarm != "" && s.warmer != nil {
		if err := s.register(JobWarmDashboards, s.cfg.DashboardWarm, s.WarmDashboards); err != nil {
			return err
		}
	}
	if s.cfg.Housekeeping != "" {
		if err := s.register(JobHousekeeping, s.cfg.Housekeeping, s.Housekeeping); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("cron scheduler started")
	return nil
}

// Stop halts the scheduler and waits for running jobs or ctx, whichever
// comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info().Msg("cron scheduler stopped")
	case <-ctx.Done():
		s.log.Warn().Msg("cron scheduler stop timed out")
	}
}

func (s *Scheduler) register(name, spec string, job func(context.Context) error) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.log.Info().Str("job", name).Str("spec", spec).Msg("job scheduled")
	return nil
}

// run executes one job with a timeout, logging start and finish. A panic is
// logged and counted, never propagated.
func (s *Scheduler) run(name string, job func(context.Context) error) {
	start := s.now()
	log := s.log.With().Str("job", name).Logger()
	log.Info().Msg("job started")

	defer func() {
		if rec := recover(); rec != nil {
			observability.JobRunsTotal.WithLabelValues(name, "panic").Inc()
			log.Error().Interface("panic", rec).Msg("job panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := job(ctx); err != nil {
		observability.JobRunsTotal.WithLabelValues(name, "error").Inc()
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("job failed")
		return
	}
	observability.JobRunsTotal.WithLabelValues(name, "ok").Inc()
	log.Info().Dur("duration", time.Since(start)).Msg("job finished")
}

// WarmDashboards rebuilds the cached dashboard of every active tenant and
// the cross-tenant one. One failing tenant does not stop the others; the
// first error is returned.
func (s *Scheduler) WarmDashboards(ctx context.Context) error {
	tenants, err := repo.ListTenants(ctx, s.db)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	var firstErr error
	warm := func(id string) {
		if err := s.warmer.WarmDashboard(ctx, analytics.Filters{TenantID: id}); err != nil {
			s.log.Warn().Err(err).Str("tenant_id", id).Msg("dashboard warm failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	for _, t := range tenants {
		if !t.Active {
			continue
		}
		warm(t.ID)
	}
	warm("")
	return firstErr
}

// Housekeeping deletes expired idempotency keys.
func (s *Scheduler) Housekeeping(ctx context.Context) error {
	n, err := repo.PurgeExpiredIdempotency(ctx, s.db, s.now())
	if err != nil {
		return fmt.Errorf("purge idempotency: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("purged", n).Msg("expired idempotency keys removed")
	}
	return nil
}
