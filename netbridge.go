package taskloop

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
)

// NetBridge hosts network operations away from the loop. Each operation
// runs on a bridge-owned goroutine over the Go netpoller (the embedded
// reactor); its completion callback stores the result and posts the
// awaiter's resumption onto the loop. The WaitGroup is the bridge's
// work-keep-alive: Stop releases it only after closing every tracked socket
// and joining the in-flight operations.
type NetBridge struct {
	rt *Runtime

	mu      sync.Mutex
	stopped bool
	socks   map[io.Closer]struct{}

	wg sync.WaitGroup
}

func newNetBridge(rt *Runtime) *NetBridge {
	return &NetBridge{
		rt:    rt,
		socks: make(map[io.Closer]struct{}),
	}
}

// Stopped reports whether the bridge has shut down.
func (nb *NetBridge) Stopped() bool {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	return nb.stopped
}

// Stop closes every tracked socket, which unwinds operations blocked on
// them, then joins all operation goroutines. Idempotent.
func (nb *NetBridge) Stop() {
	nb.mu.Lock()
	if !nb.stopped {
		nb.stopped = true
		for c := range nb.socks {
			_ = c.Close()
		}
		nb.socks = nil
		nb.rt.log.Debug().Log("network bridge stopped")
	}
	nb.mu.Unlock()
	nb.wg.Wait()
}

// spawn runs op on a bridge goroutine; fails with KindClosed once stopped.
func (nb *NetBridge) spawn(op func()) error {
	nb.mu.Lock()
	if nb.stopped {
		nb.mu.Unlock()
		return NewError(KindClosed, "network bridge stopped")
	}
	nb.wg.Add(1)
	nb.mu.Unlock()

	nb.rt.metrics.netOpStarted()
	go func() {
		defer nb.wg.Done()
		op()
	}()
	return nil
}

// track registers a socket for close-on-stop; fails if already stopped so
// callers can unwind a socket opened during shutdown.
func (nb *NetBridge) track(c io.Closer) error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if nb.stopped {
		return NewError(KindClosed, "network bridge stopped")
	}
	nb.socks[c] = struct{}{}
	return nil
}

func (nb *NetBridge) untrack(c io.Closer) {
	nb.mu.Lock()
	delete(nb.socks, c)
	nb.mu.Unlock()
}

// awaitOp is the generic operation awaitable. It observes the token, then
// suspends the flow while op runs on a bridge goroutine; the completion
// stores (value, error) and wakes the flow, so the awaiter resumes on the
// loop. Cancellation observed at resumption wins over the stored result.
// A panic in op surfaces as *PanicError.
func awaitOp[T any](fl *Flow, nb *NetBridge, tok Token, op func() (T, error)) (T, error) {
	var (
		val   T
		opErr error
	)
	if tok.IsCancelled() {
		return val, NewError(KindCanceled, "operation canceled")
	}

	fl.suspend(func(wake func()) {
		err := nb.spawn(func() {
			defer wake()
			defer nb.rt.metrics.netOpCompleted()
			defer func() {
				if r := recover(); r != nil {
					opErr = &PanicError{Value: r}
				}
			}()
			val, opErr = op()
		})
		if err != nil {
			opErr = err
			wake()
		}
	})

	if tok.IsCancelled() {
		var zero T
		return zero, NewError(KindCanceled, "operation canceled")
	}
	return val, mapNetErr(opErr)
}

// mapNetErr normalizes collaborator errors: closed sockets surface as
// KindClosed and context cancellation as KindCanceled; everything else
// (platform I/O codes included) passes through unchanged.
func mapNetErr(err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	if errors.Is(err, net.ErrClosed) {
		return &Error{Kind: KindClosed, Message: "socket closed", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, Message: "operation canceled", Cause: err}
	}
	return err
}
