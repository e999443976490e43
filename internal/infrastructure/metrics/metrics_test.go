package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRun("ok", 2*time.Second, 10000)
	m.ObserveRun("error", time.Second, 10000)
	m.CacheHit()
	m.ScheduleComputed("annuity")
	m.ScheduleComputed("annuity")
	m.PaymentRecorded("paid_late")

	if got := testutil.ToFloat64(m.SimulationRuns.WithLabelValues("ok")); got != 1 {
		t.Fatalf("ok runs = %v", got)
	}
	if got := testutil.ToFloat64(m.SimulatedTrials); got != 10000 {
		t.Fatalf("trials = %v, failed runs must not count", got)
	}
	if got := testutil.ToFloat64(m.RunCacheHits); got != 1 {
		t.Fatalf("cache hits = %v", got)
	}
	if got := testutil.ToFloat64(m.SchedulesComputed.WithLabelValues("annuity")); got != 2 {
		t.Fatalf("schedules = %v", got)
	}
	if got := testutil.ToFloat64(m.PaymentsRecorded.WithLabelValues("paid_late")); got != 1 {
		t.Fatalf("payments = %v", got)
	}
	if n, err := testutil.GatherAndCount(reg); err != nil || n == 0 {
		t.Fatalf("gather: %d, %v", n, err)
	}
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	m.ObserveRun("ok", time.Second, 1)
	m.CacheHit()
	m.ScheduleComputed("linear")
	m.PaymentRecorded("paid")
}
