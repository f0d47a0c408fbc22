package taskloop

import "sync"

// Void is the unit result type for tasks that produce no value.
type Void struct{}

// Task is a lazy suspendable computation producing a T or a failure.
// Constructing a task runs no user code.
//
// A task resolves in exactly one of two ways:
//
//   - attached: a consumer calls [Await], which transfers control into the
//     body and back to the awaiter on completion;
//   - detached: [Task.Start] (or [SpawnDetached]) releases it onto the
//     runtime's scheduler, after which the task value is spent.
//
// A task is single-consumer: awaiting or starting it twice panics. A task
// that is never consumed simply holds an unexecuted closure; there is
// nothing to clean up.
type Task[T any] struct {
	body  func(*Flow) (T, error)
	value T
	err   error
	done  bool
}

// NewTask wraps a body into a lazy task. The body receives the [Flow] it is
// being driven under and may suspend through any of the runtime's
// awaitables.
func NewTask[T any](body func(*Flow) (T, error)) *Task[T] {
	return &Task[T]{body: body}
}

// Valid reports whether the task still owns its computation, i.e. it has
// been neither started nor awaited.
func (t *Task[T]) Valid() bool {
	return t != nil && t.body != nil
}

// Done reports whether an attached await ran the body to completion.
func (t *Task[T]) Done() bool {
	return t.done
}

// Start releases the task onto the runtime's scheduler as a detached
// computation and consumes the task value. The body runs under its own
// frame; a failure is swallowed after being routed to the runtime's logger.
// Starting an invalid task panics.
func (t *Task[T]) Start(rt *Runtime) {
	body := t.take("start")
	f := newFrame(rt)
	go f.run(func(fl *Flow) error {
		_, err := body(fl)
		return err
	})
	rt.sched.Post(f.drive)
}

// take consumes the body, enforcing the single-consumer contract.
func (t *Task[T]) take(op string) func(*Flow) (T, error) {
	if t == nil || t.body == nil {
		panic("taskloop: " + op + " of spent or zero task")
	}
	body := t.body
	t.body = nil
	return body
}

// Await runs the attached task to completion on behalf of fl and returns its
// result. Control transfers directly into the body and, on completion,
// straight back to the awaiter; no scheduler hop is involved. A failure in
// the body is returned here, at the await site. Awaiting a spent task
// panics.
func Await[T any](fl *Flow, t *Task[T]) (T, error) {
	body := t.take("await")
	t.value, t.err = body(fl)
	t.done = true
	return t.value, t.err
}

// SpawnDetached starts a fire-and-forget task: the user task is awaited
// inside an internal detached frame, which discards the result and
// self-destructs on completion.
func SpawnDetached(rt *Runtime, t *Task[Void]) {
	t.Start(rt)
}

// frame is the execution anchor of a detached task: a goroutine that
// interleaves with the loop through a step/park baton. The loop grants
// execution by dispatching drive, which blocks until the frame either parks
// at a suspension point or finishes. User code therefore only runs while
// the loop is dispatching this frame.
type frame struct {
	rt   *Runtime
	step chan struct{}
	park chan struct{}
	gid  uint64
}

func newFrame(rt *Runtime) *frame {
	return &frame{
		rt:   rt,
		step: make(chan struct{}),
		park: make(chan struct{}),
	}
}

// drive is the loop-side half of the baton: posted as a Job once at start
// and once per wakeup. It hands execution to the frame goroutine and waits
// for it to yield.
func (f *frame) drive() {
	f.step <- struct{}{}
	<-f.park
}

// run is the frame goroutine body. It waits for the first drive, executes
// the task, routes any failure to the diagnostic sink, and parks a final
// time so the granting drive job can return.
func (f *frame) run(body func(*Flow) error) {
	f.gid = goroutineID()
	<-f.step

	sched := f.rt.sched
	sched.activeGID.Store(f.gid)

	fl := &Flow{rt: f.rt, f: f}
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r}
			}
		}()
		return body(fl)
	}()
	if err != nil {
		// Detached tasks have nobody to report to; the logger is the sink.
		f.rt.log.Warning().Err(err).Log("detached task failed")
	}

	sched.activeGID.Store(sched.loopGID.Load())
	f.park <- struct{}{}
}

// Flow is the execution context a task body runs under. It carries the
// runtime handle and the frame baton; awaitables use it to suspend and to
// arm their producer-side wakeup.
type Flow struct {
	rt *Runtime
	f  *frame
}

// Runtime returns the runtime driving this flow.
func (fl *Flow) Runtime() *Runtime {
	return fl.rt
}

// Yield reschedules the flow: it re-enqueues its resumption on the
// scheduler and suspends, letting every job posted before it run first.
func (fl *Flow) Yield() {
	fl.suspend(func(wake func()) {
		wake()
	})
}

// suspend parks the flow until a producer fires the wake it was armed with.
//
// arm runs on the flow goroutine, before the park: it must hand wake to the
// producer (timer entry, pool closure, capture thread, net operation). wake
// is single-shot and safe from any goroutine; it posts the frame's drive
// job, so the resumption always executes under loop dispatch. A producer
// may fire wake before suspend parks: the posted drive cannot be dispatched
// until the current drive returns, which only happens at the park.
func (fl *Flow) suspend(arm func(wake func())) {
	f := fl.f
	sched := fl.rt.sched

	var once sync.Once
	wake := func() {
		once.Do(func() {
			sched.Post(f.drive)
		})
	}
	arm(wake)

	sched.activeGID.Store(sched.loopGID.Load())
	f.park <- struct{}{}
	<-f.step
	sched.activeGID.Store(f.gid)
}
