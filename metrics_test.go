package taskloop

import (
	"bytes"
	"strings"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollection(t *testing.T) {
	reg := prometheus.NewRegistry()
	rt := newTestRuntime(t, WithMetrics(reg))

	err := runFlow(t, rt, func(fl *Flow) error {
		_, err := Await(fl, SubmitTask(rt.CPUPool(), func() (int, error) {
			return 1, nil
		}, Token{}))
		return err
	})
	require.NoError(t, err)

	require.Greater(t, testutil.ToFloat64(rt.metrics.jobsPosted), 0.0)
	require.Greater(t, testutil.ToFloat64(rt.metrics.jobsExecuted), 0.0)
	require.Equal(t, 1.0, testutil.ToFloat64(rt.metrics.poolSubmitted))
	require.Equal(t, 1.0, testutil.ToFloat64(rt.metrics.poolCompleted))
}

// A nil *Metrics records nothing and must not panic.
func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.jobPosted()
	m.jobExecuted()
	m.queueDepth(3)
	m.poolSubmit()
	m.poolComplete()
	m.poolCancel()
	m.signalCaptured()
	m.netOpStarted()
	m.netOpCompleted()
}

// The diagnostic sink observes detached failures.
func TestDetachedFailureLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := DefaultLogger(&buf, logiface.LevelWarning)
	rt := newTestRuntime(t, WithLogger(logger))

	SpawnDetached(rt, NewTask(func(fl *Flow) (Void, error) {
		return Void{}, NewError(KindTimeout, "deadline blew")
	}))
	require.NoError(t, runFlow(t, rt, func(fl *Flow) error { return nil }))

	out := buf.String()
	require.True(t, strings.Contains(out, "detached task failed"), "missing sink entry: %q", out)
	require.True(t, strings.Contains(out, "deadline blew"), "missing failure detail: %q", out)
}
