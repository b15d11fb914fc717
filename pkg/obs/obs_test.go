package obs

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, GaugeSources{})

	m.Joins.Inc()
	m.Joins.Inc()
	m.Attempts.Inc()
	m.Succeeded.Inc()
	m.Failed.WithLabelValues("protocol").Inc()
	m.Failed.WithLabelValues("flood").Inc()
	m.Failed.WithLabelValues("protocol").Inc()
	m.RxBytes.Add(128)
	m.TxBytes.Add(64)

	if got := testutil.ToFloat64(m.Joins); got != 2 {
		t.Errorf("joins_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Failed.WithLabelValues("protocol")); got != 2 {
		t.Errorf(`verifications_failed_total{kind="protocol"} = %v, want 2`, got)
	}
	if got := testutil.ToFloat64(m.Failed.WithLabelValues("flood")); got != 1 {
		t.Errorf(`verifications_failed_total{kind="flood"} = %v, want 1`, got)
	}
	if got := testutil.ToFloat64(m.RxBytes); got != 128 {
		t.Errorf("rx_bytes_total = %v, want 128", got)
	}
}

func TestMetricsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	queued := 3.0
	NewMetrics(reg, GaugeSources{
		Queued:       func() float64 { return queued },
		VerifiedSize: func() float64 { return math.NaN() },
		// Verifying and BlacklistSize deliberately nil.
	})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	byName := map[string]bool{}
	for _, f := range families {
		byName[f.GetName()] = true
	}
	if !byName["bastion_queued"] {
		t.Error("bastion_queued not registered")
	}
	if byName["bastion_verifying_connections"] {
		t.Error("bastion_verifying_connections registered despite nil source")
	}

	for _, f := range families {
		if f.GetName() == "bastion_queued" {
			if got := f.GetMetric()[0].GetGauge().GetValue(); got != 3 {
				t.Errorf("bastion_queued = %v, want 3", got)
			}
		}
	}
}

func TestMetricsReregisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg, GaugeSources{})

	defer func() {
		if recover() == nil {
			t.Error("registering the metric set twice did not panic")
		}
	}()
	NewMetrics(reg, GaugeSources{})
}

func TestColorLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	f := &ColorLoggerFactory{Level: logging.LogLevelWarn, Writer: &buf}
	log := f.NewLogger("gate")

	log.Error("boom")
	log.Warnf("slow: %dms", 250)
	log.Info("hidden")
	log.Debug("hidden")
	log.Trace("hidden")

	out := buf.String()
	if !strings.Contains(out, "boom") || !strings.Contains(out, "slow: 250ms") {
		t.Fatalf("output missing expected lines:\n%s", out)
	}
	if !strings.Contains(out, "gate:") {
		t.Errorf("output missing scope tag:\n%s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains suppressed lines:\n%s", out)
	}
	if got := strings.Count(out, "\n"); got != 2 {
		t.Errorf("line count = %d, want 2", got)
	}
}

func TestColorLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	f := &ColorLoggerFactory{Level: logging.LogLevelDisabled, Writer: &buf}
	f.NewLogger("gate").Error("silent")

	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote output: %q", buf.String())
	}
}
