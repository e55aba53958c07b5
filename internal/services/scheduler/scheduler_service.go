// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/common"
	"github.com/ternarybob/hsi-mcp/internal/interfaces"
)

type jobEntry struct {
	name      string
	schedule  string
	handler   func(ctx context.Context) error
	timeout   time.Duration
	cronID    cron.EntryID
	lastRun   *time.Time
	lastError string
	runs      int
	isRunning bool
}

// Service runs registered jobs. Schedules use six fields with seconds first,
// or descriptors such as "@every 30s".
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	ctx     context.Context
	cancel  context.CancelFunc
	jobMu   sync.Mutex // Protects jobs map and entry state
	jobs    map[string]*jobEntry
	running bool
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a scheduler
func NewService(logger arbor.ILogger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Service{
		cron:   cron.New(cron.WithParser(parser)),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*jobEntry),
	}
}

// RegisterJob adds a job. A run that is still in progress when the next
// tick fires is skipped. Each run gets its own timeout.
func (s *Service) RegisterJob(name, schedule string, timeout time.Duration, handler func(ctx context.Context) error) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:     name,
		schedule: schedule,
		handler:  handler,
		timeout:  timeout,
	}
	cronID, err := s.cron.AddFunc(schedule, func() { s.executeJob(entry) })
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", name, err)
	}
	entry.cronID = cronID
	s.jobs[name] = entry

	s.logger.Info().
		Str("job", name).
		Str("schedule", schedule).
		Msg("Job registered")
	return nil
}

// RunNow executes a job immediately in the background
func (s *Service) RunNow(name string) error {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	s.jobMu.Unlock()
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	common.SafeGo(s.logger, "job:"+name, func() { s.executeJob(entry) })
	return nil
}

// Start begins scheduling
func (s *Service) Start() {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
}

// Stop halts scheduling, cancels running jobs and waits for them to return
func (s *Service) Stop() {
	s.jobMu.Lock()
	if !s.running {
		s.jobMu.Unlock()
		s.cancel()
		return
	}
	s.running = false
	s.jobMu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// Status returns the state of a registered job
func (s *Service) Status(name string) (interfaces.JobStatus, bool) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return interfaces.JobStatus{}, false
	}

	status := interfaces.JobStatus{
		Name:      entry.name,
		Schedule:  entry.schedule,
		LastRun:   entry.lastRun,
		LastError: entry.lastError,
		Runs:      entry.runs,
	}
	if next := s.cron.Entry(entry.cronID).Next; !next.IsZero() {
		status.NextRun = &next
	}
	return status, true
}

func (s *Service) executeJob(entry *jobEntry) {
	s.jobMu.Lock()
	if entry.isRunning {
		s.jobMu.Unlock()
		s.logger.Debug().Str("job", entry.name).Msg("Job still running, skipping tick")
		return
	}
	entry.isRunning = true
	s.jobMu.Unlock()

	start := time.Now()
	err := s.runHandler(entry)

	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &start
	entry.runs++
	entry.lastError = ""
	if err != nil {
		entry.lastError = err.Error()
	}
	s.jobMu.Unlock()

	if err != nil {
		s.logger.Warn().Str("job", entry.name).Err(err).Dur("elapsed", time.Since(start)).Msg("Job failed")
		return
	}
	s.logger.Debug().Str("job", entry.name).Dur("elapsed", time.Since(start)).Msg("Job completed")
}

func (s *Service) runHandler(entry *jobEntry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	ctx := s.ctx
	if entry.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, entry.timeout)
		defer cancel()
	}
	return entry.handler(ctx)
}
