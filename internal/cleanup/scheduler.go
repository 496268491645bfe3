package cleanup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aatumaykin/housekeeper/internal/ipc"
	"github.com/aatumaykin/housekeeper/internal/logger"
	"github.com/aatumaykin/housekeeper/internal/retry"
	"github.com/robfig/cron/v3"
)

// ScheduleParser accepts standard five-field expressions, an optional
// leading seconds field and descriptors such as @hourly.
var ScheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSchedule reports whether expr is a usable cron expression.
func ValidateSchedule(expr string) error {
	if _, err := ScheduleParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return nil
}

// Job is one managed directory with its mode and schedule.
type Job struct {
	Name     string
	Mode     Mode
	Schedule string // empty for jobs that only run on demand
	Cleaner  *Cleaner
}

// Scheduler runs jobs on their cron schedules. Every run holds the PID lock
// of its directory, so runs of the same directory never overlap, also
// across processes.
type Scheduler struct {
	cron      *cron.Cron
	logger    *logger.Logger
	lockDir   string
	lockRetry retry.Config

	mu      sync.Mutex
	jobs    map[string]Job
	started bool
	runCtx  context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler that keeps its lock files in lockDir.
func NewScheduler(lockDir string, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithParser(ScheduleParser)),
		logger:  log,
		lockDir: lockDir,
		lockRetry: retry.Config{
			MaxAttempts:    1,
			InitialBackoff: 5 * time.Second,
			MaxBackoff:     time.Minute,
		},
		jobs: make(map[string]Job),
	}
}

// SetLockRetry makes scheduled runs wait for a directory that is locked by
// another process, up to attempts tries with exponential backoff starting
// at backoff. Manual triggers never wait.
func (s *Scheduler) SetLockRetry(attempts int, backoff time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attempts < 1 {
		attempts = 1
	}
	s.lockRetry.MaxAttempts = attempts
	if backoff > 0 {
		s.lockRetry.InitialBackoff = backoff
		s.lockRetry.MaxBackoff = 12 * backoff
	}
}

// Add registers a job. Jobs with an empty schedule can only be triggered.
func (s *Scheduler) Add(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	if job.Cleaner == nil {
		return fmt.Errorf("job %q has no cleaner", job.Name)
	}
	if _, err := ParseMode(string(job.Mode)); err != nil {
		return fmt.Errorf("job %q: %w", job.Name, err)
	}

	if job.Schedule != "" {
		if _, err := s.cron.AddFunc(job.Schedule, func() { s.runScheduled(job) }); err != nil {
			return fmt.Errorf("job %q: invalid schedule: %w", job.Name, err)
		}
	}

	s.jobs[job.Name] = job
	return nil
}

// Jobs returns the registered job names, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start begins scheduled execution. It returns immediately; scheduling
// stops when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.runCtx = runCtx
	s.cancel = cancel
	s.started = true
	s.cron.Start()

	s.logger.Info("housekeeping scheduler started",
		logger.Field{Key: "jobs", Value: len(s.jobs)})

	go func() {
		<-runCtx.Done()
		s.mu.Lock()
		var done <-chan struct{}
		if s.runCtx == runCtx {
			done = s.stopLocked()
		}
		s.mu.Unlock()
		s.waitStopped(done)
	}()

	return nil
}

// Stop halts scheduling and waits for running passes to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	done := s.stopLocked()
	s.mu.Unlock()
	s.waitStopped(done)
}

// stopLocked cancels the run context and stops cron. It does not wait for
// running jobs, they take s.mu themselves; wait on the returned channel
// after unlocking. A nil channel means the scheduler was not running.
func (s *Scheduler) stopLocked() <-chan struct{} {
	if !s.started {
		return nil
	}

	s.cancel()
	s.started = false
	return s.cron.Stop().Done()
}

func (s *Scheduler) waitStopped(done <-chan struct{}) {
	if done == nil {
		return
	}
	<-done
	s.logger.Info("housekeeping scheduler stopped")
}

// Trigger runs the named job immediately (manual trigger).
func (s *Scheduler) Trigger(name string) (Stats, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()

	if !ok {
		return Stats{}, fmt.Errorf("unknown job %q", name)
	}

	s.logger.Info("manual housekeeping triggered", logger.Field{Key: "job", Value: name})
	return RunLocked(job, s.lockDir)
}

func (s *Scheduler) runScheduled(job Job) {
	log := s.logger.With(logger.Field{Key: "job", Value: job.Name})
	log.Debug("starting scheduled housekeeping")

	s.mu.Lock()
	ctx := s.runCtx
	cfg := s.lockRetry
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		log.Debug("scheduler stopped, skipping housekeeping")
		return
	}

	cfg.Logger = log
	cfg.Retryable = func(err error) bool { return errors.Is(err, ipc.ErrLocked) }

	_, err := retry.Do(ctx, cfg, func() (Stats, error) {
		return RunLocked(job, s.lockDir)
	})
	if err != nil {
		log.Error("scheduled housekeeping failed", err)
	}
}

// RunLocked runs one pass of job while holding the lock of its directory.
func RunLocked(job Job, lockDir string) (Stats, error) {
	lock, err := ipc.Acquire(lockDir, job.Cleaner.BasePath())
	if err != nil {
		return Stats{}, fmt.Errorf("job %q: %w", job.Name, err)
	}
	defer lock.Release()

	return job.Cleaner.Run(job.Mode)
}
