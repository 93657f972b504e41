package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/123ice/Drink-Reminder/internal/domain"
)

const namespace = "reminder"

// Metrics exports scheduler and ledger activity to Prometheus. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	firings       *prometheus.CounterVec
	firingErrors  prometheus.Counter
	consumedMl    prometheus.Counter
	nextFire      prometheus.Gauge
	nextFireFires prometheus.Gauge
}

// New registers the collectors on reg (the default registerer when nil).
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		firings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "firings_total",
			Help:      "Reminders presented, by presentation style.",
		}, []string{"presentation"}),
		firingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "firing_errors_total",
			Help:      "Firings that failed to present a reminder.",
		}),
		consumedMl: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consumption_ml_total",
			Help:      "Millilitres recorded since start.",
		}),
		nextFire: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "next_wake_timestamp_seconds",
			Help:      "Unix time of the pending wake-up, 0 when none is armed.",
		}),
		nextFireFires: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "next_wake_fires",
			Help:      "1 when the pending wake-up presents a reminder, 0 when it only re-evaluates.",
		}),
	}
	collectors := []prometheus.Collector{m.firings, m.firingErrors, m.consumedMl, m.nextFire, m.nextFireFires}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("register reminder metric: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) Fired(p domain.Presentation) {
	if m == nil {
		return
	}
	m.firings.WithLabelValues(p.String()).Inc()
}

func (m *Metrics) FiringFailed() {
	if m == nil {
		return
	}
	m.firingErrors.Inc()
}

func (m *Metrics) Consumed(amountMl int) {
	if m == nil {
		return
	}
	m.consumedMl.Add(float64(amountMl))
}

// Armed records the pending wake-up; a zero time means nothing is armed.
func (m *Metrics) Armed(at time.Time, fire bool) {
	if m == nil {
		return
	}
	if at.IsZero() {
		m.nextFire.Set(0)
		m.nextFireFires.Set(0)
		return
	}
	m.nextFire.Set(float64(at.Unix()))
	if fire {
		m.nextFireFires.Set(1)
	} else {
		m.nextFireFires.Set(0)
	}
}
