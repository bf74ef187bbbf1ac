package monitor

import (
	"testing"
	"time"
)

func sample(rtMs, mem, cpu, errRate float64) PerformanceSample {
	return PerformanceSample{
		ResponseTimeMs:   rtMs,
		MemoryUsageRatio: mem,
		CPUUsageRatio:    cpu,
		ErrorRate:        errRate,
	}
}

func TestHealthNoSamples(t *testing.T) {
	m := New(nil)
	report := m.Health()
	if report.Status != StatusHealthy {
		t.Errorf("expected healthy with no samples, got %s", report.Status)
	}
	if len(report.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %v", report.Recommendations)
	}
}

func TestHealthAllChecksPass(t *testing.T) {
	m := New(nil)
	m.Record(sample(120, 0.3, 0.2, 0.01))

	report := m.Health()
	if report.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", report.Status)
	}
	if len(report.Checks) != 4 {
		t.Errorf("expected 4 checks, got %d", len(report.Checks))
	}
}

func TestHealthDegraded(t *testing.T) {
	m := New(nil)
	// Response time and memory over threshold, the rest fine.
	m.Record(sample(6000, 0.9, 0.2, 0.01))

	report := m.Health()
	if report.Status != StatusDegraded {
		t.Fatalf("expected degraded with 2 failed checks, got %s", report.Status)
	}
	if len(report.Recommendations) != 2 {
		t.Errorf("expected 2 recommendations, got %d", len(report.Recommendations))
	}
}

func TestHealthUnhealthyAllChecksFail(t *testing.T) {
	m := New(nil)
	m.Record(sample(9000, 0.95, 0.9, 0.5))

	report := m.Health()
	if report.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", report.Status)
	}
	if len(report.Recommendations) != 4 {
		t.Errorf("expected a recommendation per failed check, got %d", len(report.Recommendations))
	}
}

func TestHealthUsesLatestSample(t *testing.T) {
	m := New(nil)
	// An earlier good sample must not dilute a catastrophic latest one.
	m.Record(sample(100, 0.1, 0.1, 0))
	m.Record(sample(9000, 0.95, 0.9, 0.5))

	report := m.Health()
	if report.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy from the latest sample, got %s", report.Status)
	}
	if len(report.Recommendations) != 4 {
		t.Errorf("expected 4 recommendations, got %d", len(report.Recommendations))
	}

	// And a recovered latest sample reads healthy again.
	m.Record(sample(100, 0.1, 0.1, 0))
	if got := m.Health().Status; got != StatusHealthy {
		t.Errorf("expected healthy after recovery, got %s", got)
	}
}

func TestHealthBoundaryValuesFail(t *testing.T) {
	// Thresholds are strict: a value equal to the limit fails its check.
	m := New(nil)
	m.Record(sample(5000, 0.8, 0.7, 0.1))

	report := m.Health()
	if report.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy at exact thresholds, got %s", report.Status)
	}
}

func TestHistoryWindow(t *testing.T) {
	m := New(nil)
	old := sample(100, 0.1, 0.1, 0)
	old.Timestamp = time.Now().Add(-10 * time.Minute)
	m.Record(old)
	m.Record(sample(200, 0.1, 0.1, 0))

	if got := len(m.History(5)); got != 1 {
		t.Errorf("expected 1 sample in 5m window, got %d", got)
	}
	if got := len(m.History(0)); got != 2 {
		t.Errorf("expected full history, got %d", got)
	}
}

func TestSampleHistoryBounded(t *testing.T) {
	m := New(nil)
	for i := 0; i < sampleCap+10; i++ {
		m.Record(sample(100, 0.1, 0.1, 0))
	}
	if got := len(m.History(0)); got != sampleCap {
		t.Errorf("expected history capped at %d, got %d", sampleCap, got)
	}
}

func TestAggregateWindow(t *testing.T) {
	m := New(nil)
	m.Record(sample(100, 0.2, 0.1, 0))
	m.Record(sample(300, 0.4, 0.3, 0.2))

	agg := m.AggregateWindow(5)
	if agg.Samples != 2 {
		t.Fatalf("expected 2 samples, got %d", agg.Samples)
	}
	if agg.ResponseTimeMs != 200 {
		t.Errorf("expected mean response time 200, got %v", agg.ResponseTimeMs)
	}
	if agg.ErrorRate != 0.1 {
		t.Errorf("expected mean error rate 0.1, got %v", agg.ErrorRate)
	}
}

func TestAggregateCoversAllVitals(t *testing.T) {
	m := New(nil)
	m.Record(PerformanceSample{
		ResponseTimeMs: 100, SuccessRate: 1.0, ActiveConnections: 2, QueueSize: 0,
	})
	m.Record(PerformanceSample{
		ResponseTimeMs: 300, SuccessRate: 0.5, ActiveConnections: 4, QueueSize: 6,
	})

	agg := m.AggregateWindow(0)
	if agg.SuccessRate != 0.75 {
		t.Errorf("expected mean success rate 0.75, got %v", agg.SuccessRate)
	}
	if agg.ActiveConnections != 3 {
		t.Errorf("expected mean active connections 3, got %v", agg.ActiveConnections)
	}
	if agg.QueueSize != 3 {
		t.Errorf("expected mean queue size 3, got %v", agg.QueueSize)
	}
}

func TestTrendImproving(t *testing.T) {
	m := New(nil)
	// First half: 1000ms / 0.10 errors. Second half 15% and 20% better.
	m.Record(sample(1000, 0.1, 0.1, 0.10))
	m.Record(sample(1000, 0.1, 0.1, 0.10))
	m.Record(sample(850, 0.1, 0.1, 0.08))
	m.Record(sample(850, 0.1, 0.1, 0.08))

	if got := m.PerformanceTrend(0); got != TrendImproving {
		t.Errorf("expected improving, got %s", got)
	}
}

func TestTrendDegradingOnEitherMetric(t *testing.T) {
	m := New(nil)
	// Response time improves but error rate worsens past 10%.
	m.Record(sample(1000, 0.1, 0.1, 0.10))
	m.Record(sample(1000, 0.1, 0.1, 0.10))
	m.Record(sample(700, 0.1, 0.1, 0.20))
	m.Record(sample(700, 0.1, 0.1, 0.20))

	if got := m.PerformanceTrend(0); got != TrendDegrading {
		t.Errorf("expected degrading, got %s", got)
	}
}

func TestTrendStableSmallChange(t *testing.T) {
	m := New(nil)
	m.Record(sample(1000, 0.1, 0.1, 0.10))
	m.Record(sample(1000, 0.1, 0.1, 0.10))
	m.Record(sample(980, 0.1, 0.1, 0.10))
	m.Record(sample(960, 0.1, 0.1, 0.10))

	if got := m.PerformanceTrend(0); got != TrendStable {
		t.Errorf("expected stable, got %s", got)
	}
}

func TestTrendInsufficientSamples(t *testing.T) {
	m := New(nil)
	if got := m.PerformanceTrend(0); got != TrendStable {
		t.Errorf("expected stable with no samples, got %s", got)
	}
	m.Record(sample(1000, 0.1, 0.1, 0.1))
	if got := m.PerformanceTrend(0); got != TrendStable {
		t.Errorf("expected stable with one sample, got %s", got)
	}
}

func TestTrendHonorsWindow(t *testing.T) {
	m := New(nil)
	// Two good samples outside the window, then a flat recent pair.
	for i := 0; i < 2; i++ {
		s := sample(100, 0.1, 0.1, 0)
		s.Timestamp = time.Now().Add(-10 * time.Minute)
		m.Record(s)
	}
	m.Record(sample(1000, 0.1, 0.1, 0.1))
	m.Record(sample(1000, 0.1, 0.1, 0.1))

	// Full history: the recent half regressed from the old baseline.
	if got := m.PerformanceTrend(0); got != TrendDegrading {
		t.Errorf("expected degrading over full history, got %s", got)
	}
	// Windowed: only the flat recent pair is compared.
	if got := m.PerformanceTrend(5); got != TrendStable {
		t.Errorf("expected stable within window, got %s", got)
	}
}

type recordingNotifier struct {
	transitions []string
}

func (r *recordingNotifier) HealthChanged(previous, current Status, report Report) {
	r.transitions = append(r.transitions, string(previous)+"->"+string(current))
}

func TestNotifierFiresOnTransition(t *testing.T) {
	n := &recordingNotifier{}
	m := New(n)

	m.Record(sample(100, 0.1, 0.1, 0))  // healthy, no transition
	m.Record(sample(9000, 0.9, 0.9, 1)) // all checks fail
	m.Record(sample(9000, 0.9, 0.9, 1)) // no further transition expected

	if len(n.transitions) != 1 {
		t.Fatalf("expected exactly one transition, got %v", n.transitions)
	}
	if n.transitions[0] != "healthy->unhealthy" {
		t.Errorf("unexpected transition %q", n.transitions[0])
	}
}
