// Package scheduler runs the periodic fetch-then-process job. The loop
// polls a coarse ticker and fires when the parsed schedule says the next
// run is due.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jjgarrid/genaigo/internal/database/models"
	"github.com/jjgarrid/genaigo/internal/fetcher"
	"github.com/jjgarrid/genaigo/internal/joblog"
	"github.com/jjgarrid/genaigo/internal/processor"
	"github.com/jjgarrid/genaigo/internal/services"
)

const stopTimeout = 5 * time.Second

// Scheduler owns the periodic job lifecycle: stopped, running, stopped
// again. All its dependencies are injected so independent instances can
// coexist in tests.
type Scheduler struct {
	fetcher    *fetcher.Fetcher
	processor  *processor.Processor
	logService *services.LogService
	fetchLog   *joblog.Log

	schedule     Schedule
	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	nextRun time.Time
}

// Options configures a Scheduler
type Options struct {
	Schedule            Schedule
	PollIntervalSeconds int
}

// New creates a stopped Scheduler
func New(f *fetcher.Fetcher, p *processor.Processor, logService *services.LogService, fetchLog *joblog.Log, opts Options) *Scheduler {
	interval := time.Duration(opts.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		fetcher:      f,
		processor:    p,
		logService:   logService,
		fetchLog:     fetchLog,
		schedule:     opts.Schedule,
		pollInterval: interval,
	}
}

// Start launches the polling loop. Calling Start on a running scheduler is
// a warning no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Println("[Scheduler] already running, ignoring start")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	s.nextRun = s.schedule.NextAfter(time.Now())

	log.Printf("[Scheduler] started, schedule %q, next run at %s", s.schedule, s.nextRun.Format(time.RFC3339))
	s.logService.LogInfo(models.LogModuleScheduler, "start", "Scheduler started", map[string]interface{}{
		"schedule": s.schedule.String(),
		"next_run": s.nextRun,
	})

	go s.loop(ctx)
}

// Stop halts the polling loop and waits briefly for an in-progress run to
// wind down
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		log.Println("[Scheduler] job still running at stop timeout, detaching")
	}

	s.logService.LogInfo(models.LogModuleScheduler, "stop", "Scheduler stopped", nil)
	log.Println("[Scheduler] stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.mu.Lock()
			due := !now.Before(s.nextRun)
			s.mu.Unlock()
			if !due {
				continue
			}

			s.runJob(ctx)

			s.mu.Lock()
			s.nextRun = s.schedule.NextAfter(time.Now())
			next := s.nextRun
			s.mu.Unlock()
			log.Printf("[Scheduler] next run at %s", next.Format(time.RFC3339))
		}
	}
}

// runJob executes one fetch cycle and, when the processing settings allow,
// an analysis pass over whatever is still unanalyzed
func (s *Scheduler) runJob(ctx context.Context) {
	log.Println("[Scheduler] running scheduled job")

	fetchResult, err := s.fetcher.FetchRecent(ctx)
	if err != nil {
		log.Printf("[Scheduler] fetch failed: %v", err)
	}
	if s.fetchLog != nil {
		if logErr := s.fetchLog.Append(fetchResult); logErr != nil {
			log.Printf("[Scheduler] failed to record fetch run: %v", logErr)
		}
	}

	settings := s.processor.GetSettings()
	if settings.ProcessOnFetch && settings.AutoAnalysisEnabled {
		result := s.processor.ProcessUnanalyzed(ctx)
		log.Printf("[Scheduler] processing finished: %s, processed=%d skipped=%d errors=%d",
			result.Status, result.Processed, result.Skipped, result.Errors)
	}
}

// RunNow executes the job immediately, outside the schedule
func (s *Scheduler) RunNow(ctx context.Context) {
	s.runJob(ctx)
}

// Status describes the scheduler state
type Status struct {
	Running     bool       `json:"running"`
	Schedule    string     `json:"schedule"`
	NextRunTime *time.Time `json:"next_run_time,omitempty"`
}

// GetStatus returns the current scheduler state
func (s *Scheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{Running: s.running, Schedule: s.schedule.String()}
	if s.running {
		next := s.nextRun
		status.NextRunTime = &next
	}
	return status
}

// GetJobLogs returns the most recent recorded fetch runs
func (s *Scheduler) GetJobLogs(limit int) []joblog.Entry {
	if s.fetchLog == nil {
		return nil
	}
	return s.fetchLog.Recent(limit)
}
