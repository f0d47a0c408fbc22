package taskloop

import (
	"errors"
	"strings"
	"testing"
)

func compute() *Task[int] {
	return NewTask(func(fl *Flow) (int, error) {
		return 42, nil
	})
}

func addOne(x int) *Task[int] {
	return NewTask(func(fl *Flow) (int, error) {
		return x + 1, nil
	})
}

// Chained awaits: compute() -> 42, addOne -> 43.
func TestTaskChain(t *testing.T) {
	rt := newTestRuntime(t)

	var result int
	err := runFlow(t, rt, func(fl *Flow) error {
		v, err := Await(fl, compute())
		if err != nil {
			return err
		}
		result, err = Await(fl, addOne(v))
		return err
	})
	if err != nil {
		t.Fatalf("flow failed: %v", err)
	}
	if result != 43 {
		t.Fatalf("result = %d, want 43", result)
	}
}

// A failing body surfaces its error at the await site, through every frame.
func TestTaskFailurePropagation(t *testing.T) {
	rt := newTestRuntime(t)

	boom := NewTask(func(fl *Flow) (Void, error) {
		return Void{}, errors.New("boom")
	})
	outer := NewTask(func(fl *Flow) (Void, error) {
		return Await(fl, boom)
	})

	err := runFlow(t, rt, func(fl *Flow) error {
		_, err := Await(fl, outer)
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want message containing boom", err)
	}
}

// Constructing a task runs no user code; the body runs only when driven.
func TestTaskLazyStart(t *testing.T) {
	rt := newTestRuntime(t)

	ran := false
	task := NewTask(func(fl *Flow) (Void, error) {
		ran = true
		return Void{}, nil
	})
	if ran {
		t.Fatal("body ran at construction")
	}
	if !task.Valid() {
		t.Fatal("fresh task not valid")
	}

	err := runFlow(t, rt, func(fl *Flow) error {
		if ran {
			t.Error("body ran before await")
		}
		_, err := Await(fl, task)
		return err
	})
	if err != nil {
		t.Fatalf("flow failed: %v", err)
	}
	if !ran {
		t.Fatal("body never ran")
	}
	if task.Valid() {
		t.Fatal("awaited task still valid")
	}
	if !task.Done() {
		t.Fatal("awaited task not done")
	}
}

// The awaited value is the stored object, moved not copied.
func TestTaskMoveOut(t *testing.T) {
	rt := newTestRuntime(t)

	stored := []int{1, 2, 3}
	task := NewTask(func(fl *Flow) ([]int, error) {
		return stored, nil
	})

	var got []int
	err := runFlow(t, rt, func(fl *Flow) error {
		var err error
		got, err = Await(fl, task)
		return err
	})
	if err != nil {
		t.Fatalf("flow failed: %v", err)
	}
	if &got[0] != &stored[0] {
		t.Fatal("awaited value does not share the stored backing array")
	}
}

// Start consumes the task value and the detached body eventually runs.
func TestTaskDetach(t *testing.T) {
	rt := newTestRuntime(t)

	ran := make(chan struct{})
	task := NewTask(func(fl *Flow) (Void, error) {
		close(ran)
		return Void{}, nil
	})
	task.Start(rt)

	if task.Valid() {
		t.Fatal("started task still valid")
	}

	rt.Post(rt.Stop)
	runLoop(t, rt)

	select {
	case <-ran:
	default:
		t.Fatal("detached body never ran")
	}
}

// A detached failure is swallowed; the loop keeps running.
func TestDetachedFailureSwallowed(t *testing.T) {
	rt := newTestRuntime(t)

	SpawnDetached(rt, NewTask(func(fl *Flow) (Void, error) {
		return Void{}, errors.New("nobody to tell")
	}))

	survived := false
	err := runFlow(t, rt, func(fl *Flow) error {
		survived = true
		return nil
	})
	if err != nil {
		t.Fatalf("flow failed: %v", err)
	}
	if !survived {
		t.Fatal("loop did not survive a detached failure")
	}
}

// A panicking detached body is recovered and swallowed.
func TestDetachedPanicSwallowed(t *testing.T) {
	rt := newTestRuntime(t)

	SpawnDetached(rt, NewTask(func(fl *Flow) (Void, error) {
		panic("detached panic")
	}))

	if err := runFlow(t, rt, func(fl *Flow) error { return nil }); err != nil {
		t.Fatalf("flow failed: %v", err)
	}
}

// One consumer only: a second await or start panics.
func TestTaskSingleConsumer(t *testing.T) {
	rt := newTestRuntime(t)

	task := NewTask(func(fl *Flow) (int, error) { return 1, nil })

	err := runFlow(t, rt, func(fl *Flow) error {
		if _, err := Await(fl, task); err != nil {
			return err
		}
		defer func() {
			if recover() == nil {
				t.Error("second await did not panic")
			}
		}()
		_, _ = Await(fl, task)
		return nil
	})
	if err != nil {
		t.Fatalf("flow failed: %v", err)
	}
}

// Yield re-enqueues the flow behind jobs already posted.
func TestFlowYield(t *testing.T) {
	rt := newTestRuntime(t)

	var order []string
	err := runFlow(t, rt, func(fl *Flow) error {
		rt.Post(func() { order = append(order, "job") })
		fl.Yield()
		order = append(order, "flow")
		return nil
	})
	if err != nil {
		t.Fatalf("flow failed: %v", err)
	}
	if len(order) != 2 || order[0] != "job" || order[1] != "flow" {
		t.Fatalf("order = %v, want [job flow]", order)
	}
}

// Every resumption happens under loop dispatch.
func TestFlowResumesInLoop(t *testing.T) {
	rt := newTestRuntime(t)

	err := runFlow(t, rt, func(fl *Flow) error {
		if !rt.InLoop() {
			t.Error("flow not in loop before yield")
		}
		fl.Yield()
		if !rt.InLoop() {
			t.Error("flow not in loop after yield")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("flow failed: %v", err)
	}
}
