package monitoring

import (
	"fmt"
	"time"

	"github.com/jfelder/gatekeep-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler runs the periodic configuration backup on a cron schedule.
type Scheduler struct {
	backupSvc services.BackupServiceProvider
	schedule  cron.Schedule
	next      time.Time
	ticker    *time.Ticker
	done      chan bool
}

// NewScheduler parses the cron expression (standard five-field syntax) and
// creates a scheduler instance.
func NewScheduler(backupSvc services.BackupServiceProvider, cronExpr string) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", cronExpr, err)
	}
	return &Scheduler{
		backupSvc: backupSvc,
		schedule:  schedule,
		next:      schedule.Next(time.Now()),
		done:      make(chan bool),
	}, nil
}

// Run starts the scheduler's ticking loop.
func (s *Scheduler) Run() {
	log.Info().Time("next_run", s.next).Msg("Starting background backup scheduler...")
	s.ticker = time.NewTicker(1 * time.Minute)
	defer s.ticker.Stop()

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping background backup scheduler.")
			return
		case <-s.ticker.C:
			now := time.Now()
			if now.After(s.next) {
				s.next = s.schedule.Next(now)
				go s.runBackup() // Run in a goroutine to not block the scheduler
			}
		}
	}
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	s.done <- true
}

func (s *Scheduler) runBackup() {
	name := "Scheduled backup " + time.Now().Format("2006-01-02 15:04")
	if _, err := s.backupSvc.CreateBackup(name); err != nil {
		log.Error().Err(err).Msg("Scheduler: backup failed")
	}
}
