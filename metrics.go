package taskloop

import "github.com/prometheus/client_golang/prometheus"

// Metrics aggregates the runtime's prometheus collectors. Built only when
// [WithMetrics] supplies a registerer; a nil *Metrics is valid and records
// nothing, keeping the hot paths branch-cheap.
type Metrics struct {
	jobsPosted   prometheus.Counter
	jobsExecuted prometheus.Counter
	jobQueue     prometheus.Gauge

	poolSubmitted prometheus.Counter
	poolCompleted prometheus.Counter
	poolCanceled  prometheus.Counter

	signalsCaptured prometheus.Counter

	netOpsStarted   prometheus.Counter
	netOpsCompleted prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		jobsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskloop", Subsystem: "scheduler", Name: "jobs_posted_total",
			Help: "Jobs enqueued on the event loop.",
		}),
		jobsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskloop", Subsystem: "scheduler", Name: "jobs_executed_total",
			Help: "Jobs dispatched by the event loop.",
		}),
		jobQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskloop", Subsystem: "scheduler", Name: "queue_depth",
			Help: "Jobs pending on the event loop after the latest pop.",
		}),
		poolSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskloop", Subsystem: "pool", Name: "submitted_total",
			Help: "Closures handed to the CPU pool.",
		}),
		poolCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskloop", Subsystem: "pool", Name: "completed_total",
			Help: "Closures the CPU pool finished executing.",
		}),
		poolCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskloop", Subsystem: "pool", Name: "canceled_total",
			Help: "Pool submissions observed as cancelled before execution.",
		}),
		signalsCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskloop", Subsystem: "signals", Name: "captured_total",
			Help: "OS signals observed by the capture thread.",
		}),
		netOpsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskloop", Subsystem: "net", Name: "ops_started_total",
			Help: "Network operations started on the bridge.",
		}),
		netOpsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskloop", Subsystem: "net", Name: "ops_completed_total",
			Help: "Network operations that delivered a completion.",
		}),
	}
	reg.MustRegister(
		m.jobsPosted, m.jobsExecuted, m.jobQueue,
		m.poolSubmitted, m.poolCompleted, m.poolCanceled,
		m.signalsCaptured,
		m.netOpsStarted, m.netOpsCompleted,
	)
	return m
}

func (m *Metrics) jobPosted() {
	if m != nil {
		m.jobsPosted.Inc()
	}
}

func (m *Metrics) jobExecuted() {
	if m != nil {
		m.jobsExecuted.Inc()
	}
}

func (m *Metrics) queueDepth(n int) {
	if m != nil {
		m.jobQueue.Set(float64(n))
	}
}

func (m *Metrics) poolSubmit() {
	if m != nil {
		m.poolSubmitted.Inc()
	}
}

func (m *Metrics) poolComplete() {
	if m != nil {
		m.poolCompleted.Inc()
	}
}

func (m *Metrics) poolCancel() {
	if m != nil {
		m.poolCanceled.Inc()
	}
}

func (m *Metrics) signalCaptured() {
	if m != nil {
		m.signalsCaptured.Inc()
	}
}

func (m *Metrics) netOpStarted() {
	if m != nil {
		m.netOpsStarted.Inc()
	}
}

func (m *Metrics) netOpCompleted() {
	if m != nil {
		m.netOpsCompleted.Inc()
	}
}
