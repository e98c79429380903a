package scheduler

import (
	"context"
	"sync"
	"time"
)

type Job interface{ Run(ctx context.Context) }

type FuncJob func(ctx context.Context)

func (f FuncJob) Run(ctx context.Context) { f(ctx) }

// Task is one scheduled unit of work. Cancel is idempotent and safe from any
// goroutine, including from inside the job itself.
type Task struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newTask(parent context.Context) *Task {
	ctx, cancel := context.WithCancel(parent)
	return &Task{ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// Cancel stops future runs. A run already in progress sees its context
// cancelled but is not interrupted.
func (t *Task) Cancel() {
	if t != nil {
		t.cancel()
	}
}

// Cancelled reports whether Cancel was called or the scheduler stopped.
func (t *Task) Cancelled() bool {
	return t.ctx.Err() != nil
}

// Done is closed once the task goroutine has exited.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task goroutine exits.
func (t *Task) Wait() { <-t.done }

type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel}
}

// Stop cancels every task and waits for their goroutines to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Go runs job once, immediately, as a cancellable task.
func (s *Scheduler) Go(job Job) *Task {
	return s.spawn(func(t *Task) {
		job.Run(t.ctx)
	})
}

// Every runs job every d; the first run happens after d. Runs are serial.
func (s *Scheduler) Every(d time.Duration, job Job) *Task {
	return s.spawn(func(t *Task) {
		tk := time.NewTicker(d)
		defer tk.Stop()
		for {
			select {
			case <-t.ctx.Done():
				return
			case <-tk.C:
				if t.ctx.Err() != nil {
					return
				}
				job.Run(t.ctx)
			}
		}
	})
}

// OnceAfter runs job once after d unless cancelled first.
func (s *Scheduler) OnceAfter(d time.Duration, job Job) *Task {
	return s.spawn(func(t *Task) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-t.ctx.Done():
		case <-timer.C:
			job.Run(t.ctx)
		}
	})
}

// DailyAt runs job every day at hh:mm local time.
func (s *Scheduler) DailyAt(hh, mm int, job Job) *Task {
	return s.spawn(func(t *Task) {
		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location())
			if !next.After(now) {
				next = next.Add(24 * time.Hour)
			}
			timer := time.NewTimer(next.Sub(now))
			select {
			case <-t.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				job.Run(t.ctx)
			}
		}
	})
}

func (s *Scheduler) spawn(loop func(t *Task)) *Task {
	t := newTask(s.ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(t.done)
		defer t.cancel()
		loop(t)
	}()
	return t
}
