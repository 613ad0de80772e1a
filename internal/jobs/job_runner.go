package jobs

import (
	"bookshare-backend/internal/clock"
	"bookshare-backend/internal/config"
	"bookshare-backend/internal/logger"
	"bookshare-backend/internal/repository"
	"bookshare-backend/internal/service"
)

// markerWriteAttempts bounds the re-read loop when a sweep marker write loses a race.
const markerWriteAttempts = 3

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store    repository.Store
	notifier service.Notifier
	clock    clock.Clock
	config   *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store repository.Store, notifier service.Notifier, clk clock.Clock, cfg *config.Config) *JobRunner {
	if clk == nil {
		clk = clock.Real{}
	}
	return &JobRunner{
		store:    store,
		notifier: notifier,
		clock:    clk,
		config:   cfg,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	log := logger.WithJob(jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	log.Info("Starting job")
	jobFunc()
	log.Info("Job completed")
}

// RunAllDailyJobs runs all daily jobs (for manual execution)
func (jr *JobRunner) RunAllDailyJobs() {
	jr.SendOverdueNotices()
	jr.SendDueSoonReminders()
}

// RunAllWeeklyJobs runs all weekly jobs (for manual execution)
func (jr *JobRunner) RunAllWeeklyJobs() {
	jr.PurgeStaleNotifications()
}
