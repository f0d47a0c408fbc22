package taskloop

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// Job is a unit of work for the loop: a type-erased closure executed at most
// once, on the loop, in FIFO post order.
type Job func()

var schedulerIDCounter atomic.Uint64

// Scheduler is the single-threaded event loop core: a FIFO job queue drained
// by exactly one goroutine inside [Scheduler.Run].
//
// Post is safe from any goroutine and never fails. Stop requests loop exit
// without dropping queued jobs: Run keeps dispatching until it observes an
// empty queue with stop requested. Jobs posted after Stop are accepted and
// run if Run is still draining.
type Scheduler struct {
	// Prevent copying
	_ [0]func()

	log     *logiface.Logger[logiface.Event]
	metrics *Metrics

	mu            sync.Mutex
	cond          *sync.Cond
	queue         []Job
	head          int
	stopRequested bool

	state schedState

	// loopGID is the goroutine running Run; activeGID is whoever currently
	// holds the dispatch baton (the loop goroutine, or a task frame it is
	// driving).
	loopGID   atomic.Uint64
	activeGID atomic.Uint64

	id uint64
}

// NewScheduler creates an idle scheduler with an unbounded queue.
func NewScheduler() *Scheduler {
	s := &Scheduler{id: schedulerIDCounter.Add(1)}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Post enqueues a job at the tail of the queue and wakes the loop. It is
// safe for concurrent use and never blocks beyond the queue mutex. A nil
// job is ignored.
func (s *Scheduler) Post(job Job) {
	if job == nil {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, job)
	s.cond.Signal()
	s.mu.Unlock()
	s.metrics.jobPosted()
}

// Run dispatches jobs on the calling goroutine until [Scheduler.Stop] has
// been requested and the queue has drained. It must be called at most once;
// a second call, or a call on a stopped scheduler, returns an error of
// KindInvalidArgument or KindStopped respectively.
func (s *Scheduler) Run() error {
	if !s.state.tryTransition(StateIdle, StateRunning) {
		if s.state.load() == StateStopped {
			return NewError(KindStopped, "scheduler already stopped")
		}
		return NewError(KindInvalidArgument, "scheduler already running")
	}

	gid := goroutineID()
	s.loopGID.Store(gid)
	s.activeGID.Store(gid)
	s.log.Debug().Uint64("scheduler", s.id).Log("loop started")

	defer func() {
		s.activeGID.Store(0)
		s.loopGID.Store(0)
		s.state.store(StateStopped)
		s.log.Debug().Uint64("scheduler", s.id).Log("loop stopped")
	}()

	for {
		s.mu.Lock()
		for s.lenLocked() == 0 && !s.stopRequested {
			s.cond.Wait()
		}
		if s.lenLocked() == 0 {
			s.mu.Unlock()
			return nil
		}
		job := s.popLocked()
		depth := s.lenLocked()
		s.mu.Unlock()

		s.metrics.queueDepth(depth)
		s.dispatch(job)
	}
}

// Stop requests loop exit and wakes Run so it can observe the flag. Queued
// jobs are not dropped. Idempotent, safe from any goroutine.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopRequested {
		s.stopRequested = true
		s.log.Debug().Uint64("scheduler", s.id).Log("stop requested")
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

// IsRunning reports whether Run is currently dispatching.
func (s *Scheduler) IsRunning() bool {
	return s.state.load() == StateRunning
}

// State returns the current lifecycle state.
func (s *Scheduler) State() SchedulerState {
	return s.state.load()
}

// InLoop reports whether the calling goroutine holds the loop's dispatch
// baton: either the goroutine inside Run, or a task frame it is currently
// driving. Producers (pool workers, capture and net goroutines) observe
// false.
func (s *Scheduler) InLoop() bool {
	active := s.activeGID.Load()
	return active != 0 && active == goroutineID()
}

// lenLocked returns the queued job count. Caller holds s.mu.
func (s *Scheduler) lenLocked() int {
	return len(s.queue) - s.head
}

// popLocked removes and returns the head job. Caller holds s.mu and has
// checked non-emptiness. The backing array is compacted once drained to
// keep steady-state allocation flat.
func (s *Scheduler) popLocked() Job {
	job := s.queue[s.head]
	s.queue[s.head] = nil
	s.head++
	if s.head == len(s.queue) {
		s.queue = s.queue[:0]
		s.head = 0
	}
	return job
}

// dispatch executes a job with panic recovery; a panicking job must not
// take down the loop.
func (s *Scheduler) dispatch(job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Err().Uint64("scheduler", s.id).Any("panic", r).Log("job panicked")
		}
	}()
	defer s.metrics.jobExecuted()
	job()
}

// goroutineID returns the current goroutine's numeric id, parsed from the
// runtime stack header.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
