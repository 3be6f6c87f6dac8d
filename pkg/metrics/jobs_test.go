package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestJobMetricsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)

	m.IncSuccess("overdue-scan")
	m.IncSuccess("overdue-scan")
	m.IncFailure("overdue-scan")
	m.ObserveDuration("overdue-scan", 150*time.Millisecond)

	if got := testutil.ToFloat64(m.success.WithLabelValues("overdue-scan")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.failure.WithLabelValues("overdue-scan")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
}

func TestJobMetricsNilSafe(t *testing.T) {
	var m *JobMetrics
	m.IncSuccess("x")
	m.IncFailure("x")
	m.ObserveDuration("x", time.Second)

	empty := NewJobMetrics(nil)
	empty.IncSuccess("unnamed")
	empty.ObserveDuration("", time.Second)
}

func TestNormalizeLabel(t *testing.T) {
	if normalizeLabel("") != "unknown" {
		t.Fatal("empty label should normalize to unknown")
	}
	if normalizeLabel("overdue-scan") != "overdue-scan" {
		t.Fatal("labels should pass through unchanged")
	}
}
