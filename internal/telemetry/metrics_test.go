package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveFile(t *testing.T) {
	m := New()
	m.ObserveFile("Server", "transformed", 2, time.Millisecond)
	m.ObserveFile("Server", "transformed", 1, time.Millisecond)
	m.ObserveFile("Client", "skipped", 0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Files.WithLabelValues("Server", "transformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Files.WithLabelValues("Client", "skipped")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Actions.WithLabelValues("Server")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Transform))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveFile("Client", "failed", 0, 0) })
}
