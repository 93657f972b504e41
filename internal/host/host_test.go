package host

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/breaks"
	"github.com/123ice/Drink-Reminder/internal/clock"
	"github.com/123ice/Drink-Reminder/internal/domain"
	"github.com/123ice/Drink-Reminder/internal/notify"
	"github.com/123ice/Drink-Reminder/internal/scheduler"
)

type recordingReminders struct {
	calls []string
	amt   int
}

func (r *recordingReminders) Start(context.Context) { r.calls = append(r.calls, "start") }
func (r *recordingReminders) OnConsumptionRecorded(_ context.Context, ml int) error {
	r.calls = append(r.calls, "consume")
	r.amt += ml
	return nil
}
func (r *recordingReminders) Dismiss(context.Context) { r.calls = append(r.calls, "dismiss") }
func (r *recordingReminders) Stop()                   { r.calls = append(r.calls, "stop") }

type recordingBreaks struct{ calls []string }

func (b *recordingBreaks) Start(context.Context)   { b.calls = append(b.calls, "start") }
func (b *recordingBreaks) Restart(context.Context) { b.calls = append(b.calls, "restart") }
func (b *recordingBreaks) Stop()                   { b.calls = append(b.calls, "stop") }

func TestOnHostStart_Dispatch(t *testing.T) {
	ctx := context.Background()
	r := &recordingReminders{}
	b := &recordingBreaks{}
	h := New(r, b, zap.NewNop())

	require.NoError(t, h.OnHostStart(ctx, StartReminders{}))
	require.NoError(t, h.OnHostStart(ctx, RecordConsumption{AmountMl: 200}))
	require.NoError(t, h.OnHostStart(ctx, ClearPresentedNotifications{}))
	require.NoError(t, h.OnHostStart(ctx, RestartWork{}))
	h.OnHostStop()

	assert.Equal(t, []string{"start", "consume", "dismiss", "stop"}, r.calls)
	assert.Equal(t, 200, r.amt)
	assert.Equal(t, []string{"start", "restart", "stop"}, b.calls)
}

func TestOnHostStart_NilAction(t *testing.T) {
	h := New(&recordingReminders{}, nil, nil)
	assert.Error(t, h.OnHostStart(context.Background(), nil))
	assert.NoError(t, h.OnHostStart(context.Background(), RestartWork{}))
}

type memSettings struct{}

func (memSettings) LoadSettings(context.Context) (domain.ReminderSettings, error) {
	return domain.DefaultSettings(), nil
}

type memLedger struct {
	clk   clock.Clock
	total int
}

func (l *memLedger) Append(_ context.Context, ml int) (domain.ConsumptionEvent, error) {
	ev, err := domain.NewConsumptionEvent(ml, l.clk.Now(), time.UTC)
	if err == nil {
		l.total += ml
	}
	return ev, err
}
func (l *memLedger) TotalForDate(context.Context, string) (int, error) { return l.total, nil }
func (l *memLedger) Today() string                                    { return domain.DateKey(l.clk.Now(), time.UTC) }

type countingPresenter struct {
	presented int
	clears    int
	breaks    int
}

func (p *countingPresenter) Present(context.Context, notify.Reminder) error {
	p.presented++
	return nil
}
func (p *countingPresenter) Clear(context.Context) error { p.clears++; return nil }
func (p *countingPresenter) NotifyBreak(context.Context, time.Duration) error {
	p.breaks++
	return nil
}

func TestHost_EndToEndWithManualClock(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2025, time.May, 5, 10, 0, 0, 0, time.UTC))
	p := &countingPresenter{}
	sched := scheduler.New(scheduler.Deps{
		Settings:  memSettings{},
		Ledger:    &memLedger{clk: clk},
		Presenter: p,
		Clock:     clk,
		Location:  time.UTC,
	})
	bt := breaks.New(clk, p, 30*time.Minute, 5*time.Minute, nil)
	h := New(sched, bt, zap.NewNop())

	require.NoError(t, h.OnHostStart(ctx, StartReminders{}))
	assert.Equal(t, 2, clk.Pending(), "one reminder wake-up and one work session")

	clk.Advance(30 * time.Minute)
	assert.Equal(t, 1, p.breaks)

	require.NoError(t, h.OnHostStart(ctx, RecordConsumption{AmountMl: 250}))
	assert.Equal(t, time.Date(2025, time.May, 5, 11, 30, 0, 0, time.UTC), sched.Status().NextWake)

	require.NoError(t, h.OnHostStart(ctx, RestartWork{}))
	clk.Advance(time.Hour)
	assert.Equal(t, 1, p.presented)
	assert.Equal(t, 2, p.breaks)

	assert.ErrorIs(t, h.OnHostStart(ctx, RecordConsumption{AmountMl: -1}), domain.ErrInvalidAmount)

	h.OnHostStop()
	h.OnHostStop()
	assert.Zero(t, clk.Pending())
	assert.Equal(t, scheduler.StateStopped, sched.Status().State)
}
