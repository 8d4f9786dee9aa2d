// Package scheduler runs the periodic pipeline jobs. Each job ticks on
// its own interval with a jittered start so that a process restart does
// not fire every job against the sourcing surface at once.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"bike-curation/internal/observability"
)

// ErrUnknownJob is returned when a trigger names a job that was never
// registered.
var ErrUnknownJob = errors.New("scheduler: unknown job")

// Job is one periodic unit of work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler owns the periodic jobs and their goroutines.
type Scheduler struct {
	mu      sync.Mutex
	jobs    map[string]Job
	metrics *observability.Metrics
	verbose bool
	rng     *rand.Rand
	wg      sync.WaitGroup
}

// New creates an empty Scheduler. metrics may be nil.
func New(metrics *observability.Metrics, verbose bool) *Scheduler {
	return &Scheduler{
		jobs:    make(map[string]Job),
		metrics: metrics,
		verbose: verbose,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Name] = job
}

// Start launches one goroutine per registered job. Jobs stop when ctx
// is cancelled; Wait blocks until all have drained.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

// Wait blocks until every job goroutine has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Trigger runs a job once, immediately, outside its schedule.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.runOnce(ctx, job)
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	// Jittered start spreads the first ticks of all jobs apart.
	initial := job.Interval / 10
	if initial > 0 {
		initial = time.Duration(s.rng.Int63n(int64(initial)))
	}
	select {
	case <-ctx.Done():
		return
	case <-time.After(initial):
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		if err := s.runOnce(ctx, job); err != nil {
			log.Printf("[scheduler] job %s failed: %v", job.Name, err)
		}
		select {
		case <-ctx.Done():
			s.log("job %s stopped", job.Name)
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) error {
	s.log("job %s starting", job.Name)
	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)

	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.JobRunsTotal.WithLabelValues(job.Name, status).Inc()
		s.metrics.JobDuration.WithLabelValues(job.Name).Observe(elapsed.Seconds())
	}
	s.log("job %s finished in %s", job.Name, elapsed.Round(time.Millisecond))
	return err
}

func (s *Scheduler) log(format string, args ...interface{}) {
	if s.verbose {
		log.Printf("[scheduler] "+format, args...)
	}
}
