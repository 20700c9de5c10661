// Package scheduler runs scrape jobs one at a time.
//
// Every job against the portal goes through a single FIFO lane with a pause
// after each job, so the portal never sees two sessions of ours at once.
package scheduler

import (
	"attendtrack-backend/internal/components/assert"
	"attendtrack-backend/internal/components/chrono"
	"attendtrack-backend/internal/components/telemetry"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mazen160/go-random"
)

// MinimumDelay is the shortest pause allowed between two jobs.
const MinimumDelay = 300 * time.Millisecond

const (
	report_scheduler_job         = "scheduler.job"
	report_scheduler_queue_depth = "scheduler.queue-depth"
)

// JobPanicked is returned by Do when the job panics.
var JobPanicked = fmt.Errorf("job panicked")

// Job is a unit of work that is allowed to talk to the portal.
type Job func(ctx context.Context) error

type Options struct {
	// Delay is the pause after every job, it is raised to MinimumDelay if it is lower.
	Delay time.Duration
	Clock chrono.API
	Tel   telemetry.API
}

type queuedJob struct {
	id  string
	job Job
}

type Scheduler struct {
	delay time.Duration
	clock chrono.API
	tel   telemetry.API

	lock       sync.Mutex
	queue      []queuedJob
	processing bool

	idcounter uint64
}

func New(opts Options) *Scheduler {
	assert.NotNil(opts.Clock)
	assert.NotNil(opts.Tel)

	return &Scheduler{
		delay: max(opts.Delay, MinimumDelay),
		clock: opts.Clock,
		tel:   telemetry.NewScopedAPI("scheduler", opts.Tel),
	}
}

func (s *Scheduler) newJobID() string {
	suffix, err := random.String(8)
	if err != nil {
		suffix = "fallback"
	}
	return fmt.Sprintf("%d-%s", atomic.AddUint64(&s.idcounter, 1), suffix)
}

// Submit queues a job and returns its id, it never blocks on the job itself.
func (s *Scheduler) Submit(job Job) string {
	id := s.newJobID()

	s.lock.Lock()
	s.queue = append(s.queue, queuedJob{id: id, job: job})
	depth := len(s.queue)
	start := !s.processing
	s.processing = true
	s.lock.Unlock()

	s.tel.ReportCount(report_scheduler_queue_depth, int64(depth))
	if start {
		go s.work()
	}
	return id
}

// Len is the number of jobs waiting to run, not counting the one running.
func (s *Scheduler) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.queue)
}

func (s *Scheduler) work() {
	for {
		s.lock.Lock()
		if len(s.queue) == 0 {
			s.processing = false
			s.lock.Unlock()
			return
		}
		next := s.queue[0]
		s.queue[0] = queuedJob{}
		s.queue = s.queue[1:]
		depth := len(s.queue)
		s.lock.Unlock()

		s.tel.ReportCount(report_scheduler_queue_depth, int64(depth))
		s.run(next)
		<-s.clock.After(s.delay)
	}
}

func (s *Scheduler) run(queued queuedJob) {
	defer func() {
		r := recover()
		if r != nil {
			s.tel.ReportBroken(report_scheduler_job, fmt.Errorf("%w: %v", JobPanicked, r), queued.id)
		}
	}()

	err := queued.job(context.Background())
	if err != nil {
		s.tel.ReportWarning(report_scheduler_job, err, queued.id)
	}
}

// Do runs fn on the scheduler and waits for its result.
//
// fn receives ctx, if the caller gives up before the job starts the job is
// skipped, and if it gives up while the job runs Do returns ctx.Err()
// immediately while the job winds down on its own.
func Do[T any](ctx context.Context, s *Scheduler, fn func(ctx context.Context) (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	s.Submit(func(_ context.Context) error {
		if ctx.Err() != nil {
			done <- result{err: ctx.Err()}
			return nil
		}
		defer func() {
			r := recover()
			if r != nil {
				done <- result{err: fmt.Errorf("%w: %v", JobPanicked, r)}
				panic(r)
			}
		}()

		value, err := fn(ctx)
		done <- result{value: value, err: err}
		return err
	})

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
