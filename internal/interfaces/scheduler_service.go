package interfaces

import (
	"context"
	"time"
)

// JobStatus reports the last run of a registered job
type JobStatus struct {
	Name      string
	Schedule  string
	LastRun   *time.Time
	NextRun   *time.Time
	LastError string
	Runs      int
}

// SchedulerService runs background jobs on cron schedules
type SchedulerService interface {
	// RegisterJob adds a job; timeout bounds each run, zero means none
	RegisterJob(name, schedule string, timeout time.Duration, handler func(ctx context.Context) error) error

	// RunNow triggers a registered job outside its schedule
	RunNow(name string) error

	Start()
	Stop()

	// Status returns the job's last run, false for unknown names
	Status(name string) (JobStatus, bool)
}
