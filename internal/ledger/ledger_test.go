package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/clock"
	"github.com/123ice/Drink-Reminder/internal/domain"
	"github.com/123ice/Drink-Reminder/internal/store"
)

func newTestLedger(t *testing.T, now time.Time) (*Ledger, *clock.Manual) {
	t.Helper()
	repo, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "ledger.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	clk := clock.NewManual(now)
	return New(repo, clk, time.UTC, zap.NewNop()), clk
}

func TestAppendAndTotal(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, time.Date(2025, time.May, 5, 10, 0, 0, 0, time.UTC))

	_, err := l.Append(ctx, 250)
	require.NoError(t, err)

	total, err := l.TotalForDate(ctx, l.Today())
	require.NoError(t, err)
	assert.Equal(t, 250, total)
}

func TestAppendSumsSameDate(t *testing.T) {
	ctx := context.Background()
	l, clk := newTestLedger(t, time.Date(2025, time.May, 5, 10, 0, 0, 0, time.UTC))

	_, err := l.Append(ctx, 100)
	require.NoError(t, err)
	clk.Advance(time.Hour)
	_, err = l.Append(ctx, 150)
	require.NoError(t, err)

	total, err := l.TotalForDate(ctx, "2025-05-05")
	require.NoError(t, err)
	assert.Equal(t, 250, total)

	total, err = l.TotalForDate(ctx, "2025-05-04")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAppendRejectsNonPositive(t *testing.T) {
	l, _ := newTestLedger(t, time.Now())
	_, err := l.Append(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestAggregatesForLastNDays(t *testing.T) {
	ctx := context.Background()
	l, clk := newTestLedger(t, time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC))

	for _, step := range []struct {
		advance time.Duration
		amount  int
	}{
		{0, 200},
		{24 * time.Hour, 300},
		{time.Hour, 100},
		{48 * time.Hour, 500},
	} {
		clk.Advance(step.advance)
		_, err := l.Append(ctx, step.amount)
		require.NoError(t, err)
	}

	aggs, err := l.AggregatesForLastNDays(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []domain.DailyAggregate{
		{Date: "2025-05-04", TotalMl: 500},
		{Date: "2025-05-02", TotalMl: 400},
		{Date: "2025-05-01", TotalMl: 200},
	}, aggs)

	aggs, err = l.AggregatesForLastNDays(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, aggs, 1)
}

func TestSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l, _ := newTestLedger(t, time.Date(2025, time.May, 5, 10, 0, 0, 0, time.UTC))

	_, err := l.Append(ctx, 100)
	require.NoError(t, err)

	ch, err := l.Subscribe(ctx, l.Today())
	require.NoError(t, err)
	assert.Equal(t, 100, <-ch)

	_, err = l.Append(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 150, <-ch)

	_, err = l.DeleteDate(ctx, l.Today())
	require.NoError(t, err)
	assert.Equal(t, 0, <-ch)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestSubscribeKeepsLatestValue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l, _ := newTestLedger(t, time.Date(2025, time.May, 5, 10, 0, 0, 0, time.UTC))

	ch, err := l.Subscribe(ctx, l.Today())
	require.NoError(t, err)

	for _, amount := range []int{10, 20, 30} {
		_, err := l.Append(ctx, amount)
		require.NoError(t, err)
	}
	assert.Equal(t, 60, <-ch)
}
