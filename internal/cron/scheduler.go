package cron

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kayz/promptstudio/internal/logger"
)

// Scheduler runs a Rescorer on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	rescorer *Rescorer
	entryID  cron.EntryID
	schedule cron.Schedule
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	// OnRun is called after every scheduled run, if set.
	OnRun func(*Result, error)
}

// NewScheduler creates a new scheduler
func NewScheduler(rescorer *Rescorer) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	l := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(), // Support second-level precision
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		rescorer: rescorer,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// normalizeCron prepends "0 " to standard 5-field cron expressions
// so they work with the 6-field (with seconds) parser.
func normalizeCron(schedule string) string {
	if len(strings.Fields(schedule)) == 5 {
		return "0 " + schedule
	}
	return schedule
}

// ParseSchedule parses a 5-field, 6-field or descriptor expression.
func ParseSchedule(schedule string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(normalizeCron(strings.TrimSpace(schedule)))
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return sched, nil
}

// Start schedules the rescorer and starts the cron loop.
func (s *Scheduler) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		return fmt.Errorf("scheduler already started")
	}
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return err
	}

	s.schedule = sched
	s.entryID = s.cron.Schedule(sched, cron.FuncJob(s.runScheduled))

	s.cron.Start()
	logger.Info("[CRON] Rescore scheduled (%s), next run %s", schedule, s.Next().Format(time.RFC3339))
	return nil
}

// Next returns the time of the next scheduled run, or zero if not started.
func (s *Scheduler) Next() time.Time {
	if s.schedule == nil {
		return time.Time{}
	}
	return s.schedule.Next(time.Now())
}

// Stop cancels a running pass and waits for it to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("[CRON] Scheduler stopped")
}

func (s *Scheduler) runScheduled() {
	res, err := s.rescorer.RunOnce(s.ctx)
	if s.OnRun != nil {
		s.OnRun(res, err)
	}
}

// cronLogger routes robfig/cron's logging to the process logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Trace("[CRON] %s %s", msg, formatKV(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("[CRON] %s: %v %s", msg, err, formatKV(keysAndValues))
}

func formatKV(kv []interface{}) string {
	parts := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		parts = append(parts, fmt.Sprintf("%v=%v", kv[i], kv[i+1]))
	}
	return strings.Join(parts, " ")
}
