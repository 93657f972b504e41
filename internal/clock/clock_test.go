package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2025, time.May, 5, 10, 0, 0, 0, time.UTC)
	m := NewManual(start)

	var order []string
	m.AfterFunc(2*time.Minute, func() { order = append(order, "b") })
	m.AfterFunc(time.Minute, func() { order = append(order, "a") })
	require.Equal(t, 2, m.Pending())

	m.Advance(90 * time.Second)
	assert.Equal(t, []string{"a"}, order)
	assert.Equal(t, start.Add(90*time.Second), m.Now())

	m.Advance(time.Minute)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Zero(t, m.Pending())
}

func TestManual_StopIsIdempotent(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := false
	tm := m.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	m.Advance(time.Hour)
	assert.False(t, fired)
	assert.Zero(t, m.Pending())
}

func TestManual_CallbackCanRearm(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	count := 0
	var arm func()
	arm = func() {
		m.AfterFunc(time.Minute, func() {
			count++
			arm()
		})
	}
	arm()

	m.Advance(5*time.Minute + time.Second)
	assert.Equal(t, 5, count)
	assert.Equal(t, 1, m.Pending())
	at, ok := m.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, time.Unix(0, 0).Add(6*time.Minute), at)
}
