package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/123ice/Drink-Reminder/internal/domain"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Fired(domain.PresentationAmbient)
	m.Fired(domain.PresentationFullScreen)
	m.Fired(domain.PresentationFullScreen)
	m.Consumed(250)
	m.FiringFailed()
	m.Armed(time.Unix(1700000000, 0), true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.firings.WithLabelValues("ambient")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.firings.WithLabelValues("full_screen")))
	assert.Equal(t, 250.0, testutil.ToFloat64(m.consumedMl))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.firingErrors))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.nextFire))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.nextFireFires))

	m.Armed(time.Time{}, false)
	assert.Zero(t, testutil.ToFloat64(m.nextFire))

	_, err = New(reg)
	assert.NoError(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Fired(domain.PresentationAmbient)
	m.Consumed(1)
	m.FiringFailed()
	m.Armed(time.Now(), true)
}
