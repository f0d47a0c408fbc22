package taskloop

import (
	"testing"
	"time"
)

// newTestRuntime builds a runtime torn down with the test.
func newTestRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	rt, err := New(opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

// runLoop drives rt.Run on the calling goroutine with a wedge guard.
func runLoop(t *testing.T, rt *Runtime) {
	t.Helper()
	guard := time.AfterFunc(10*time.Second, func() {
		t.Error("loop wedged; forcing stop")
		rt.Stop()
	})
	defer guard.Stop()
	if err := rt.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

// runFlow spawns body as a detached task, stops the loop when it returns,
// and drives the loop to completion, returning the body's error.
func runFlow(t *testing.T, rt *Runtime, body func(fl *Flow) error) error {
	t.Helper()
	var ferr error
	SpawnDetached(rt, NewTask(func(fl *Flow) (Void, error) {
		defer rt.Stop()
		ferr = body(fl)
		return Void{}, nil
	}))
	runLoop(t, rt)
	return ferr
}
