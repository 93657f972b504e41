package host

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Action is something the surrounding runtime asks the reminder engine to do.
type Action interface{ isAction() }

// StartReminders starts (or re-derives) the reminder schedule.
type StartReminders struct{}

// RecordConsumption logs a drink, as from a quick-add button.
type RecordConsumption struct{ AmountMl int }

// ClearPresentedNotifications withdraws the reminder on screen.
type ClearPresentedNotifications struct{}

// RestartWork begins a new work session on the break timer.
type RestartWork struct{}

func (StartReminders) isAction()              {}
func (RecordConsumption) isAction()           {}
func (ClearPresentedNotifications) isAction() {}
func (RestartWork) isAction()                 {}

// Reminders is the scheduler surface driven by the host.
type Reminders interface {
	Start(ctx context.Context)
	OnConsumptionRecorded(ctx context.Context, amountMl int) error
	Dismiss(ctx context.Context)
	Stop()
}

// Breaks is the break timer surface driven by the host.
type Breaks interface {
	Start(ctx context.Context)
	Restart(ctx context.Context)
	Stop()
}

// Host maps lifecycle triggers onto the scheduler and the break timer.
type Host struct {
	reminders Reminders
	breaks    Breaks
	log       *zap.Logger
}

func New(r Reminders, b Breaks, log *zap.Logger) *Host {
	if log == nil {
		log = zap.NewNop()
	}
	return &Host{reminders: r, breaks: b, log: log.Named("host")}
}

// OnHostStart handles one start trigger. ctx should live as long as the host
// task, since StartReminders binds future wake-ups to it.
func (h *Host) OnHostStart(ctx context.Context, a Action) error {
	switch a := a.(type) {
	case StartReminders:
		h.reminders.Start(ctx)
		if h.breaks != nil {
			h.breaks.Start(ctx)
		}
		return nil
	case RecordConsumption:
		return h.reminders.OnConsumptionRecorded(ctx, a.AmountMl)
	case ClearPresentedNotifications:
		h.reminders.Dismiss(ctx)
		return nil
	case RestartWork:
		if h.breaks == nil {
			return nil
		}
		h.breaks.Restart(ctx)
		return nil
	case nil:
		return fmt.Errorf("host: nil action")
	default:
		return fmt.Errorf("host: unknown action %T", a)
	}
}

// OnHostStop cancels every pending wake-up.
func (h *Host) OnHostStop() {
	h.reminders.Stop()
	if h.breaks != nil {
		h.breaks.Stop()
	}
	h.log.Info("host stopped")
}
