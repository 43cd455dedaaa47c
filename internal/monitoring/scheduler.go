package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/isdelr/blog-api/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	pruneTimeout  = time.Minute
	backupTimeout = 10 * time.Minute
)

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	eventSvc  services.EventServiceProvider
	retention time.Duration
	backupSvc services.BackupServiceProvider
	keep      int
	cron      *cron.Cron
	done      chan struct{}
	stopOnce  sync.Once
}

// NewScheduler creates a scheduler that prunes activity events older than
// retention on the given cron schedule.
func NewScheduler(eventSvc services.EventServiceProvider, schedule string, retention time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		eventSvc:  eventSvc,
		retention: retention,
		cron:      cron.New(cron.WithLogger(cronLogger{})),
		done:      make(chan struct{}),
	}
	if _, err := s.cron.AddFunc(schedule, s.pruneEvents); err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", schedule, err)
	}
	return s, nil
}

// AddBackupJob snapshots the database on schedule and keeps the newest
// keep backups. Call it before Run.
func (s *Scheduler) AddBackupJob(backupSvc services.BackupServiceProvider, schedule string, keep int) error {
	s.backupSvc = backupSvc
	s.keep = keep
	if _, err := s.cron.AddFunc(schedule, s.backupDatabase); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}
	log.Info().Str("schedule", schedule).Int("keep", keep).Msg("Database backups enabled")
	return nil
}

// Run starts the cron loop and blocks until Stop is called.
func (s *Scheduler) Run() {
	log.Info().Dur("retention", s.retention).Msg("Starting maintenance scheduler")

	// Run once immediately on start
	s.pruneEvents()

	s.cron.Start()
	<-s.done

	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped maintenance scheduler")
}

// Stop halts the scheduler. Running jobs are allowed to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Scheduler) pruneEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	n, err := s.eventSvc.PruneEvents(ctx, s.retention)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to prune events")
		return
	}
	if n > 0 {
		log.Info().Int64("removed", n).Msg("Scheduler: pruned old events")
	}
}

func (s *Scheduler) backupDatabase() {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	if _, err := s.backupSvc.CreateBackup(ctx); err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to back up database")
		return
	}
	if n, err := s.backupSvc.PruneBackups(s.keep); err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to prune backups")
	} else if n > 0 {
		log.Info().Int("removed", n).Msg("Scheduler: pruned old backups")
	}
}

// cronLogger adapts cron's logger to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
