package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bookshare-backend/internal/app"
	"bookshare-backend/internal/config"
	"bookshare-backend/internal/jobs"
	"bookshare-backend/internal/logger"
	"bookshare-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'overdue-notices', 'all-daily', 'all-weekly')")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Bookshare Cronjob Runner...", "log_level", cfg.Log.Level, "store", cfg.Store.Type)

	deps, err := app.Build(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize dependencies", "error", err)
		log.Fatalf("Failed to initialize dependencies: %v", err)
	}
	defer deps.Close()

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(deps.Store, deps.Notifier, deps.Clock, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			deps.Close()
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

var jobNames = []string{
	"overdue-notices",
	"due-soon-reminders",
	"purge-notifications",
	"all-daily",
	"all-weekly",
}

// runJobOnce runs a specific job once and reports whether the name was known
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case "overdue-notices":
		jobRunner.SendOverdueNotices()
	case "due-soon-reminders":
		jobRunner.SendDueSoonReminders()
	case "purge-notifications":
		jobRunner.PurgeStaleNotifications()
	case "all-daily":
		jobRunner.RunAllDailyJobs()
	case "all-weekly":
		jobRunner.RunAllWeeklyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		for _, name := range jobNames {
			fmt.Printf("  - %s\n", name)
		}
		return false
	}
	return true
}
