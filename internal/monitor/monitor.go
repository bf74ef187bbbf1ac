// Package monitor tracks runtime performance and reports agent health.
package monitor

import (
	"sync"
	"time"

	"github.com/vinayprograms/agentkit/logging"
)

// PerformanceSample is one observation of the runtime's vitals. Only the
// first four vitals are thresholded by health checks; the rest feed
// aggregates and trend analysis.
type PerformanceSample struct {
	Timestamp         time.Time `json:"timestamp"`
	ResponseTimeMs    float64   `json:"response_time_ms"`
	MemoryUsageRatio  float64   `json:"memory_usage_ratio"`
	CPUUsageRatio     float64   `json:"cpu_usage_ratio"`
	ErrorRate         float64   `json:"error_rate"`
	SuccessRate       float64   `json:"success_rate"`
	ActiveConnections int       `json:"active_connections"`
	QueueSize         int       `json:"queue_size"`
}

// Status is the overall health classification.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Trend describes how performance is moving over the sample history.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDegrading Trend = "degrading"
)

// Check is one evaluated health criterion.
type Check struct {
	Name           string  `json:"name"`
	Passed         bool    `json:"passed"`
	Value          float64 `json:"value"`
	Threshold      float64 `json:"threshold"`
	Recommendation string  `json:"recommendation,omitempty"`
}

// Report is a point-in-time health assessment.
type Report struct {
	Status          Status    `json:"status"`
	Checks          []Check   `json:"checks"`
	Recommendations []string  `json:"recommendations"`
	SampleCount     int       `json:"sample_count"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Aggregate is the mean of each vital over a sample window.
type Aggregate struct {
	ResponseTimeMs    float64 `json:"response_time_ms"`
	MemoryUsageRatio  float64 `json:"memory_usage_ratio"`
	CPUUsageRatio     float64 `json:"cpu_usage_ratio"`
	ErrorRate         float64 `json:"error_rate"`
	SuccessRate       float64 `json:"success_rate"`
	ActiveConnections float64 `json:"active_connections"`
	QueueSize         float64 `json:"queue_size"`
	Samples           int     `json:"samples"`
}

// Notifier receives health status transitions. Implementations must not
// block; publish failures are the notifier's problem, not the monitor's.
type Notifier interface {
	HealthChanged(previous, current Status, report Report)
}

// Health thresholds. A sample passing all four is healthy.
const (
	maxResponseTimeMs   = 5000.0
	maxMemoryUsageRatio = 0.8
	maxCPUUsageRatio    = 0.7
	maxErrorRate        = 0.1
)

// sampleCap bounds retained samples; oldest are evicted first.
const sampleCap = 1000

// Monitor retains a bounded performance history and derives health and
// trend assessments from it.
type Monitor struct {
	mu         sync.RWMutex
	samples    []PerformanceSample
	lastStatus Status
	notifier   Notifier
	logger     *logging.Logger
}

// New creates a monitor. The notifier may be nil.
func New(notifier Notifier) *Monitor {
	return &Monitor{
		lastStatus: StatusHealthy,
		notifier:   notifier,
		logger:     logging.New().WithComponent("monitor"),
	}
}

// Record appends a sample, stamping it if unstamped, and emits a
// notification when the overall health status transitions.
func (m *Monitor) Record(s PerformanceSample) {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.samples = append(m.samples, s)
	if excess := len(m.samples) - sampleCap; excess > 0 {
		m.samples = append([]PerformanceSample(nil), m.samples[excess:]...)
	}
	m.mu.Unlock()

	report := m.Health()
	m.mu.Lock()
	previous := m.lastStatus
	m.lastStatus = report.Status
	notifier := m.notifier
	m.mu.Unlock()

	if notifier != nil && report.Status != previous {
		m.logger.Warn("health status changed", map[string]interface{}{
			"from": string(previous),
			"to":   string(report.Status),
		})
		notifier.HealthChanged(previous, report.Status, report)
	}
}

// History returns samples no older than windowMinutes, oldest first.
// A non-positive window returns the full history.
func (m *Monitor) History(windowMinutes int) []PerformanceSample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if windowMinutes <= 0 {
		return append([]PerformanceSample(nil), m.samples...)
	}
	cutoff := time.Now().Add(-time.Duration(windowMinutes) * time.Minute)
	var out []PerformanceSample
	for _, s := range m.samples {
		if !s.Timestamp.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// AggregateWindow averages the vitals over the given window.
func (m *Monitor) AggregateWindow(windowMinutes int) Aggregate {
	return aggregate(m.History(windowMinutes))
}

func aggregate(samples []PerformanceSample) Aggregate {
	agg := Aggregate{Samples: len(samples)}
	if len(samples) == 0 {
		return agg
	}
	for _, s := range samples {
		agg.ResponseTimeMs += s.ResponseTimeMs
		agg.MemoryUsageRatio += s.MemoryUsageRatio
		agg.CPUUsageRatio += s.CPUUsageRatio
		agg.ErrorRate += s.ErrorRate
		agg.SuccessRate += s.SuccessRate
		agg.ActiveConnections += float64(s.ActiveConnections)
		agg.QueueSize += float64(s.QueueSize)
	}
	n := float64(len(samples))
	agg.ResponseTimeMs /= n
	agg.MemoryUsageRatio /= n
	agg.CPUUsageRatio /= n
	agg.ErrorRate /= n
	agg.SuccessRate /= n
	agg.ActiveConnections /= n
	agg.QueueSize /= n
	return agg
}

// Health evaluates the four vital checks against the single most recent
// sample. Earlier samples never dilute the assessment; a catastrophic
// latest sample reads as unhealthy immediately. With no samples the agent
// is healthy. One or two failed checks degrade it; three or four make it
// unhealthy. Every failed check contributes a recommendation.
func (m *Monitor) Health() Report {
	m.mu.RLock()
	count := len(m.samples)
	var latest PerformanceSample
	if count > 0 {
		latest = m.samples[count-1]
	}
	m.mu.RUnlock()

	report := Report{
		Status:      StatusHealthy,
		SampleCount: count,
		GeneratedAt: time.Now(),
	}
	if count == 0 {
		return report
	}

	report.Checks = []Check{
		{
			Name:           "response_time",
			Passed:         latest.ResponseTimeMs < maxResponseTimeMs,
			Value:          latest.ResponseTimeMs,
			Threshold:      maxResponseTimeMs,
			Recommendation: "Responses are slow. Lower the complexity ceiling or reduce capability timeouts.",
		},
		{
			Name:           "memory_usage",
			Passed:         latest.MemoryUsageRatio < maxMemoryUsageRatio,
			Value:          latest.MemoryUsageRatio,
			Threshold:      maxMemoryUsageRatio,
			Recommendation: "Memory pressure is high. Reduce the bounded memory capacity.",
		},
		{
			Name:           "cpu_usage",
			Passed:         latest.CPUUsageRatio < maxCPUUsageRatio,
			Value:          latest.CPUUsageRatio,
			Threshold:      maxCPUUsageRatio,
			Recommendation: "CPU usage is high. Throttle incoming requests or disable expensive capabilities.",
		},
		{
			Name:           "error_rate",
			Passed:         latest.ErrorRate < maxErrorRate,
			Value:          latest.ErrorRate,
			Threshold:      maxErrorRate,
			Recommendation: "Error rate is elevated. Raise the safety level and review recent failures.",
		},
	}

	failed := 0
	for i := range report.Checks {
		if report.Checks[i].Passed {
			report.Checks[i].Recommendation = ""
			continue
		}
		failed++
		report.Recommendations = append(report.Recommendations, report.Checks[i].Recommendation)
	}
	switch {
	case failed == 0:
		report.Status = StatusHealthy
	case failed <= 2:
		report.Status = StatusDegraded
	default:
		report.Status = StatusUnhealthy
	}
	return report
}

// PerformanceTrend compares the first and second halves of the samples in
// the given window; a non-positive window covers the full history.
// Improving requires BOTH response time and error rate to be at least 10%
// better in the second half; a 10% regression in either is degrading.
// Fewer than two samples is stable.
func (m *Monitor) PerformanceTrend(windowMinutes int) Trend {
	samples := m.History(windowMinutes)

	if len(samples) < 2 {
		return TrendStable
	}
	mid := len(samples) / 2
	first := aggregate(samples[:mid])
	second := aggregate(samples[mid:])

	rtBetter := improvedBy(first.ResponseTimeMs, second.ResponseTimeMs, 0.10)
	erBetter := improvedBy(first.ErrorRate, second.ErrorRate, 0.10)
	rtWorse := worsenedBy(first.ResponseTimeMs, second.ResponseTimeMs, 0.10)
	erWorse := worsenedBy(first.ErrorRate, second.ErrorRate, 0.10)

	switch {
	case rtWorse || erWorse:
		return TrendDegrading
	case rtBetter && erBetter:
		return TrendImproving
	default:
		return TrendStable
	}
}

// improvedBy reports whether current is at least fraction lower than
// baseline. A zero baseline cannot improve.
func improvedBy(baseline, current, fraction float64) bool {
	if baseline <= 0 {
		return false
	}
	return current <= baseline*(1-fraction)
}

// worsenedBy reports whether current is at least fraction higher than
// baseline. Any regression from a zero baseline counts.
func worsenedBy(baseline, current, fraction float64) bool {
	if baseline <= 0 {
		return current > 0
	}
	return current >= baseline*(1+fraction)
}

// Status returns the status from the most recent health evaluation.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastStatus
}
