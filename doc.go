// Package taskloop implements a cooperative asynchronous runtime: lazy tasks
// driven by a single-threaded event loop, supplemented by a CPU worker pool,
// a timer facility, an OS signal bridge, and a network bridge whose
// completions are marshaled back onto the loop.
//
// # Execution model
//
// A [Task] is a lazy computation. Constructing one runs no user code; the
// body executes only once the task is awaited or started. Awaiting an
// attached task via [Await] transfers control directly into the task body
// and back to the awaiter on completion, with no scheduler hop. Starting a
// task via [Task.Start] (or [SpawnDetached]) releases it onto the
// [Scheduler]: the task then owns its own frame, and every suspension point
// re-enters the loop by posting a resumption job, so user code only ever
// executes under loop dispatch.
//
// The producers - [CPUPool] workers, the [Timers] goroutine, the
// [SignalBridge] capture goroutine, and [NetBridge] operation goroutines -
// never run user code themselves. They complete their side of an await and
// hand the suspended task back to the loop.
//
// # Cancellation
//
// Cancellation is cooperative. A [Source] owns a monotonic flag; [Token]
// values share read access to it. Operations observe the token before
// submitting work and again at wakeup, surfacing [KindCanceled] when it
// fires. Nothing is ever preempted.
//
// # Basic usage
//
//	rt, _ := taskloop.New()
//	defer rt.Close()
//
//	work := taskloop.NewTask(func(fl *taskloop.Flow) (taskloop.Void, error) {
//		if err := rt.Timers().Sleep(fl, 50*time.Millisecond, taskloop.Token{}); err != nil {
//			return taskloop.Void{}, err
//		}
//		rt.Stop()
//		return taskloop.Void{}, nil
//	})
//	taskloop.SpawnDetached(rt, work)
//	_ = rt.Run()
package taskloop
