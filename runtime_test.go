package taskloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRuntimeLazyAccessors(t *testing.T) {
	rt := newTestRuntime(t)

	require.Same(t, rt.CPUPool(), rt.CPUPool())
	require.Same(t, rt.Timers(), rt.Timers())
	require.Same(t, rt.Signals(), rt.Signals())
	require.Same(t, rt.Net(), rt.Net())
	require.Same(t, rt.Scheduler(), rt.Scheduler())
}

func TestRuntimeCloseIdempotent(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)

	// Build a couple of subsystems so Close has something to tear down.
	rt.CPUPool()
	rt.Timers()

	require.NoError(t, rt.Close())
	require.NoError(t, rt.Close())
}

func TestRuntimeOptionErrors(t *testing.T) {
	_, err := New(WithPoolSize(-1))
	require.Equal(t, KindInvalidArgument, KindOf(err))

	// Nil options are skipped gracefully.
	rt, err := New(nil, WithPoolSize(2), nil)
	require.NoError(t, err)
	defer rt.Close()
	require.Equal(t, 2, rt.CPUPool().Workers())
}

// Timer + pool echo: await a 50 ms timer, then a pool computation, resume
// on the loop, and stop.
func TestRuntimeTimerThenPool(t *testing.T) {
	rt := newTestRuntime(t)

	var sum int
	start := time.Now()
	err := runFlow(t, rt, func(fl *Flow) error {
		if err := rt.Timers().Sleep(fl, 50*time.Millisecond, Token{}); err != nil {
			return err
		}
		task := SubmitTask(rt.CPUPool(), func() (int, error) {
			total := 0
			for i := 0; i < 100000; i++ {
				total += i % 7
			}
			return total, nil
		}, Token{})
		var err error
		sum, err = Await(fl, task)
		if err != nil {
			return err
		}
		if !rt.InLoop() {
			t.Error("not on loop after pool await")
		}
		return nil
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, sum, 0)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	require.False(t, rt.IsRunning())
}

func TestRuntimeIsRunning(t *testing.T) {
	rt := newTestRuntime(t)

	require.False(t, rt.IsRunning())
	err := runFlow(t, rt, func(fl *Flow) error {
		if !rt.IsRunning() {
			t.Error("IsRunning false inside flow")
		}
		return nil
	})
	require.NoError(t, err)
	require.False(t, rt.IsRunning())
}
