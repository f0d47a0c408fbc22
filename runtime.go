package taskloop

import (
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

var runtimeIDCounter atomic.Uint64

// Runtime owns the scheduler and, on first access, each auxiliary
// subsystem. Post, Run, Stop and IsRunning are thin forwards to the
// scheduler; CPUPool, Timers, Signals and Net build their subsystem lazily.
//
// Close tears everything down: pool, then signals, then net, then timers,
// then the scheduler.
type Runtime struct {
	// Prevent copying
	_ [0]func()

	sched   *Scheduler
	log     *logiface.Logger[logiface.Event]
	metrics *Metrics

	poolSize int

	mu      sync.Mutex
	pool    *CPUPool
	timers  *Timers
	signals *SignalBridge
	net     *NetBridge

	closeOnce sync.Once
	id        uint64
}

// New creates a runtime. Subsystems are not built until first use.
func New(opts ...Option) (*Runtime, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		sched:    NewScheduler(),
		log:      cfg.logger,
		poolSize: cfg.poolSize,
		id:       runtimeIDCounter.Add(1),
	}
	if cfg.registerer != nil {
		rt.metrics = newMetrics(cfg.registerer)
	}
	rt.sched.log = rt.log
	rt.sched.metrics = rt.metrics

	rt.log.Debug().Uint64("runtime", rt.id).Log("runtime created")
	return rt, nil
}

// Post enqueues a job on the scheduler.
func (rt *Runtime) Post(job Job) {
	rt.sched.Post(job)
}

// Run drives the event loop on the calling goroutine; see [Scheduler.Run].
func (rt *Runtime) Run() error {
	return rt.sched.Run()
}

// Stop requests loop exit; see [Scheduler.Stop].
func (rt *Runtime) Stop() {
	rt.sched.Stop()
}

// IsRunning reports whether the loop is dispatching.
func (rt *Runtime) IsRunning() bool {
	return rt.sched.IsRunning()
}

// InLoop reports whether the caller executes under loop dispatch.
func (rt *Runtime) InLoop() bool {
	return rt.sched.InLoop()
}

// Scheduler exposes the underlying scheduler.
func (rt *Runtime) Scheduler() *Scheduler {
	return rt.sched
}

// CPUPool returns the CPU worker pool, building it on first access.
func (rt *Runtime) CPUPool() *CPUPool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.pool == nil {
		rt.pool = NewCPUPool(rt, rt.poolSize)
	}
	return rt.pool
}

// Timers returns the timer facility, building it on first access.
func (rt *Runtime) Timers() *Timers {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.timers == nil {
		rt.timers = newTimers(rt)
	}
	return rt.timers
}

// Signals returns the signal bridge, building it on first access.
func (rt *Runtime) Signals() *SignalBridge {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.signals == nil {
		rt.signals = newSignalBridge(rt)
	}
	return rt.signals
}

// Net returns the network bridge, building it on first access.
func (rt *Runtime) Net() *NetBridge {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.net == nil {
		rt.net = newNetBridge(rt)
	}
	return rt.net
}

// Close stops and joins every subsystem that was built, then stops the
// scheduler. Idempotent. Close does not wait for Run to return; the loop
// drains its queue and exits on its own goroutine.
func (rt *Runtime) Close() error {
	rt.closeOnce.Do(func() {
		rt.mu.Lock()
		pool, signals, netb, timers := rt.pool, rt.signals, rt.net, rt.timers
		rt.mu.Unlock()

		if pool != nil {
			pool.Stop()
		}
		if signals != nil {
			signals.Stop()
		}
		if netb != nil {
			netb.Stop()
		}
		if timers != nil {
			timers.Stop()
		}
		rt.sched.Stop()
		rt.log.Debug().Uint64("runtime", rt.id).Log("runtime closed")
	})
	return nil
}
