package taskloop

import (
	"os"
	"os/signal"
	"sync"
)

// signalWaiter is the single suspended Wait, if any. sig/err are written on
// the delivering goroutine before wake fires.
type signalWaiter struct {
	sig  os.Signal
	err  error
	wake func()
}

// SignalBridge marshals OS signals onto the event loop. A dedicated capture
// goroutine drains a buffered [signal.Notify] channel; each capture is
// posted to the loop, where the optional callback runs first, then a
// suspended waiter is resumed, else the signal joins the pending FIFO.
//
// At most one Wait may be in flight; a concurrent second Wait panics.
type SignalBridge struct {
	rt *Runtime

	mu       sync.Mutex
	observed map[os.Signal]struct{}
	pending  []os.Signal
	waiter   *signalWaiter
	callback func(os.Signal)
	stopped  bool

	// ch is sized so bursts are not dropped between capture iterations.
	ch       chan os.Signal
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newSignalBridge(rt *Runtime) *SignalBridge {
	b := &SignalBridge{
		rt:       rt,
		observed: make(map[os.Signal]struct{}),
		ch:       make(chan os.Signal, 128),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go b.capture()
	return b
}

// Add registers sig with the observed set; takes effect at the next capture
// iteration. Safe while the bridge is running.
func (b *SignalBridge) Add(sig os.Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.observed[sig] = struct{}{}
	signal.Notify(b.ch, sig)
}

// Remove deregisters sig. The notify set is rebuilt from the remaining
// observed signals.
func (b *SignalBridge) Remove(sig os.Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	delete(b.observed, sig)
	signal.Stop(b.ch)
	if len(b.observed) > 0 {
		rest := make([]os.Signal, 0, len(b.observed))
		for s := range b.observed {
			rest = append(rest, s)
		}
		signal.Notify(b.ch, rest...)
	}
}

// OnSignal registers a callback invoked on the loop thread, once per
// captured signal, before any waiter is resumed. A nil callback clears it.
func (b *SignalBridge) OnSignal(cb func(os.Signal)) {
	b.mu.Lock()
	b.callback = cb
	b.mu.Unlock()
}

// Wait returns a task completing with the next captured signal. If a signal
// is already pending, awaiting completes ready with the FIFO head.
// Cancellation is observed before suspending and at wakeup. Stopping the
// bridge fails a suspended wait with KindCanceled; a wait begun after Stop
// fails with KindClosed.
func (b *SignalBridge) Wait(tok Token) *Task[os.Signal] {
	return NewTask(func(fl *Flow) (os.Signal, error) {
		if tok.IsCancelled() {
			return nil, NewError(KindCanceled, "signal wait canceled")
		}

		b.mu.Lock()
		if b.stopped {
			b.mu.Unlock()
			return nil, NewError(KindClosed, "signal bridge stopped")
		}
		if len(b.pending) > 0 {
			sig := b.pending[0]
			b.pending = b.pending[1:]
			b.mu.Unlock()
			return sig, nil
		}
		if b.waiter != nil {
			b.mu.Unlock()
			panic("taskloop: concurrent signal wait")
		}

		w := &signalWaiter{}
		fl.suspend(func(wake func()) {
			w.wake = wake
			b.waiter = w
			b.mu.Unlock()
		})

		if w.err != nil {
			return nil, w.err
		}
		if tok.IsCancelled() {
			return nil, NewError(KindCanceled, "signal wait canceled")
		}
		return w.sig, nil
	})
}

// Stop shuts the capture goroutine down and unblocks any suspended waiter
// with KindCanceled. Idempotent.
func (b *SignalBridge) Stop() {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.stopped = true
		signal.Stop(b.ch)
		w := b.waiter
		b.waiter = nil
		b.mu.Unlock()

		close(b.stopCh)
		if w != nil {
			w.err = NewError(KindCanceled, "signal bridge stopped")
			w.wake()
		}
	})
	<-b.done
}

// capture is the dedicated capture goroutine: it owns the notify channel
// and forwards every observed signal onto the loop. It never runs user
// code.
func (b *SignalBridge) capture() {
	defer close(b.done)
	for {
		select {
		case sig := <-b.ch:
			b.rt.metrics.signalCaptured()
			b.rt.log.Debug().Stringer("signal", sig).Log("signal captured")
			b.rt.Post(func() {
				b.deliver(sig)
			})
		case <-b.stopCh:
			return
		}
	}
}

// deliver runs on the loop thread: callback first, then waiter, else
// pending.
func (b *SignalBridge) deliver(sig os.Signal) {
	b.mu.Lock()
	cb := b.callback
	b.mu.Unlock()
	if cb != nil {
		cb(sig)
	}

	b.mu.Lock()
	if w := b.waiter; w != nil {
		b.waiter = nil
		b.mu.Unlock()
		w.sig = sig
		w.wake()
		return
	}
	b.pending = append(b.pending, sig)
	b.mu.Unlock()
}
