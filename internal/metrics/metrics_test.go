package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGateResultCounts(t *testing.T) {
	m := New()
	m.GateResult(GateAccepted, "")
	m.GateResult(GateRejected, "quota_exceeded")
	m.GateResult(GateRejected, "quota_exceeded")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.gateResults.WithLabelValues(GateAccepted, "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.gateResults.WithLabelValues(GateRejected, "quota_exceeded")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.GateResult(GateAccepted, "")
		m.AIRequest("ok", time.Second)
		m.ObserveHTTP("GET", "/", "200", time.Millisecond)
	})
}
