package taskloop

import (
	"container/heap"
	"sync"
	"time"
)

// timerEntry is one armed deadline. wake posts the sleeping flow's
// resumption; aborted is written (before wake) only when the facility shuts
// down with the entry still pending, or has already stopped when the entry
// is armed.
type timerEntry struct {
	when    time.Time
	wake    func()
	aborted bool
}

// timerQueue is a min-heap of entries ordered by deadline.
type timerQueue []*timerEntry

func (h timerQueue) Len() int           { return len(h) }
func (h timerQueue) Less(i, j int) bool { return h[i].when.Before(h[j].when) }
func (h timerQueue) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *timerQueue) Push(x any) {
	*h = append(*h, x.(*timerEntry))
}

func (h *timerQueue) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// Timers is the runtime's timing source: a deadline min-heap serviced by a
// dedicated goroutine. It never runs user code; firing an entry just posts
// the sleeper's resumption onto the loop.
type Timers struct {
	rt *Runtime

	mu      sync.Mutex
	pending timerQueue
	stopped bool

	kick     chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newTimers(rt *Runtime) *Timers {
	t := &Timers{
		rt:     rt,
		kick:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

// Sleep suspends the flow for at least d. A non-positive duration completes
// ready. Cancellation is observed before arming and again at wakeup;
// shutdown of the facility fails pending sleeps with KindStopped.
func (t *Timers) Sleep(fl *Flow, d time.Duration, tok Token) error {
	if tok.IsCancelled() {
		return NewError(KindCanceled, "sleep canceled")
	}
	if d <= 0 {
		return nil
	}

	e := &timerEntry{when: time.Now().Add(d)}
	fl.suspend(func(wake func()) {
		e.wake = wake
		if !t.add(e) {
			e.aborted = true
			wake()
		}
	})

	if e.aborted {
		return NewError(KindStopped, "timer facility stopped")
	}
	if tok.IsCancelled() {
		return NewError(KindCanceled, "sleep canceled")
	}
	return nil
}

// Stop shuts the facility down and flushes every pending entry, waking its
// sleeper with an aborted completion. Idempotent; blocks until the service
// goroutine exits.
func (t *Timers) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.stopped = true
		t.mu.Unlock()
		close(t.stopCh)
	})
	<-t.done
}

// add arms an entry; false once stopped.
func (t *Timers) add(e *timerEntry) bool {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return false
	}
	heap.Push(&t.pending, e)
	t.mu.Unlock()

	select {
	case t.kick <- struct{}{}:
	default:
	}
	return true
}

// run services the heap: fire everything due, then block until the next
// deadline, a new arm, or shutdown.
func (t *Timers) run() {
	defer close(t.done)
	for {
		now := time.Now()

		t.mu.Lock()
		var due []*timerEntry
		for len(t.pending) > 0 && !t.pending[0].when.After(now) {
			due = append(due, heap.Pop(&t.pending).(*timerEntry))
		}
		var next time.Duration
		hasNext := len(t.pending) > 0
		if hasNext {
			next = t.pending[0].when.Sub(now)
		}
		t.mu.Unlock()

		for _, e := range due {
			e.wake()
		}

		var fire <-chan time.Time
		var tm *time.Timer
		if hasNext {
			tm = time.NewTimer(next)
			fire = tm.C
		}

		select {
		case <-t.kick:
		case <-fire:
		case <-t.stopCh:
			if tm != nil {
				tm.Stop()
			}
			t.flush()
			return
		}
		if tm != nil {
			tm.Stop()
		}
	}
}

// flush aborts every pending entry at shutdown.
func (t *Timers) flush() {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, e := range pending {
		e.aborted = true
		e.wake()
	}
	if n := len(pending); n > 0 {
		t.rt.log.Debug().Int("flushed", n).Log("timer facility stopped with pending sleeps")
	}
}
