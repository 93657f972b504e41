package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/clock"
	"github.com/123ice/Drink-Reminder/internal/domain"
	"github.com/123ice/Drink-Reminder/internal/notify"
)

// SettingsLoader returns the latest saved settings. It is consulted on every decision.
type SettingsLoader interface {
	LoadSettings(ctx context.Context) (domain.ReminderSettings, error)
}

// WhitelistLoader returns the "do not interrupt" apps.
type WhitelistLoader interface {
	LoadWhitelist(ctx context.Context) (domain.Whitelist, error)
}

// Ledger is the part of the consumption ledger the scheduler needs.
type Ledger interface {
	Append(ctx context.Context, amountMl int) (domain.ConsumptionEvent, error)
	TotalForDate(ctx context.Context, date string) (int, error)
	Today() string
}

// Oracle reports whether a whitelisted app is in the foreground.
type Oracle interface {
	IsAnyActive(ctx context.Context, packages []string, intervalMinutes int) bool
}

// Presenter shows and withdraws reminders.
type Presenter interface {
	Present(ctx context.Context, r notify.Reminder) error
	Clear(ctx context.Context) error
}

// Observer receives scheduler telemetry. *metrics.Metrics implements it.
type Observer interface {
	Fired(p domain.Presentation)
	FiringFailed()
	Consumed(amountMl int)
	Armed(at time.Time, fire bool)
}

// State is the scheduler lifecycle state.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateFiring
	StateSuspended
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateFiring:
		return "firing"
	case StateSuspended:
		return "suspended"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	State State
	// NextWake is zero unless State is StateArmed.
	NextWake time.Time
	// WillFire is true when NextWake presents a reminder rather than only re-evaluating.
	WillFire bool
	// LastPresentation is the style of the most recent successful firing.
	LastPresentation *domain.Presentation
}

// Deps are the collaborators a Scheduler is built from.
type Deps struct {
	Settings  SettingsLoader
	Whitelist WhitelistLoader
	Ledger    Ledger
	Oracle    Oracle
	Presenter Presenter
	Observer  Observer
	Clock     clock.Clock
	Location  *time.Location
	Log       *zap.Logger
}

// Scheduler decides when and how to remind. All operations run under one
// mutex, and every (re)arm cancels the previous wake-up first, so at most one
// wake-up is ever pending.
type Scheduler struct {
	settings  SettingsLoader
	whitelist WhitelistLoader
	ledger    Ledger
	oracle    Oracle
	presenter Presenter
	obs       Observer
	clock     clock.Clock
	loc       *time.Location
	log       *zap.Logger

	mu       sync.Mutex
	ctx      context.Context
	state    State
	pending  clock.Timer
	gen      uint64
	next     time.Time
	willFire bool
	last     *domain.Presentation
}

func New(d Deps) *Scheduler {
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Observer == nil {
		d.Observer = nopObserver{}
	}
	return &Scheduler{
		settings:  d.Settings,
		whitelist: d.Whitelist,
		ledger:    d.Ledger,
		oracle:    d.Oracle,
		presenter: d.Presenter,
		obs:       d.Observer,
		clock:     d.Clock,
		loc:       d.Location,
		log:       d.Log.Named("scheduler"),
		ctx:       context.Background(),
	}
}

// Start (re)starts the reminder loop. ctx bounds the lifetime of the work
// done by wake-ups. Calling Start while armed just re-evaluates.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx = ctx
	if s.state == StateStopped {
		s.state = StateIdle
	}
	s.log.Info("starting reminders")
	s.evaluateLocked(ctx)
}

// EvaluateAndSchedule cancels the pending wake-up and arms the next one
// from the current settings and wall clock.
func (s *Scheduler) EvaluateAndSchedule(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluateLocked(ctx)
}

// OnConsumptionRecorded appends a drink, withdraws the reminder on screen and
// restarts the interval from now.
func (s *Scheduler) OnConsumptionRecorded(ctx context.Context, amountMl int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.ledger.Append(ctx, amountMl)
	if err != nil {
		return fmt.Errorf("record consumption: %w", err)
	}
	s.obs.Consumed(ev.AmountMl)
	s.log.Info("consumption recorded", zap.Int("amount_ml", ev.AmountMl))

	if err := s.presenter.Clear(ctx); err != nil {
		s.log.Warn("clear presented reminder failed", zap.Error(err))
	}
	s.evaluateLocked(ctx)
	return nil
}

// Dismiss withdraws the reminder on screen and leaves the schedule as is.
func (s *Scheduler) Dismiss(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.presenter.Clear(ctx); err != nil {
		s.log.Warn("clear presented reminder failed", zap.Error(err))
	}
}

// Stop cancels the pending wake-up. It is safe to call repeatedly.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return
	}
	s.cancelLocked()
	s.state = StateStopped
	s.log.Info("reminders stopped")
}

// Status reports the current state and pending wake-up.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{State: s.state, LastPresentation: s.last}
	if s.state == StateArmed {
		st.NextWake = s.next
		st.WillFire = s.willFire
	}
	return st
}

func (s *Scheduler) evaluateLocked(ctx context.Context) {
	s.cancelLocked()
	if s.state == StateStopped {
		return
	}

	settings := s.loadSettings(ctx)
	now := s.clock.Now().In(s.loc)

	wake, ok := domain.Plan(now, settings)
	if !ok {
		s.state = StateSuspended
		s.log.Warn("no repeat day configured, reminders suspended")
		return
	}

	s.gen++
	gen := s.gen
	s.pending = s.clock.AfterFunc(wake.At.Sub(now), func() { s.onWake(gen, wake.Fire) })
	s.state = StateArmed
	s.next = wake.At
	s.willFire = wake.Fire
	s.obs.Armed(wake.At, wake.Fire)

	s.log.Debug("wake-up armed",
		zap.Time("at", wake.At),
		zap.Bool("fire", wake.Fire),
		zap.Duration("in", wake.At.Sub(now)),
	)
}

func (s *Scheduler) cancelLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	// Invalidates a callback that already left the timer but has not got the lock yet.
	s.gen++
	s.next = time.Time{}
	s.willFire = false
	s.obs.Armed(time.Time{}, false)
	if s.state == StateArmed {
		s.state = StateIdle
	}
}

func (s *Scheduler) onWake(gen uint64, fire bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state == StateStopped {
		return
	}
	s.pending = nil
	ctx := s.ctx
	if ctx.Err() != nil {
		s.log.Info("host context done, not re-arming")
		s.cancelLocked()
		return
	}

	if fire {
		s.state = StateFiring
		s.fireLocked(ctx)
		s.state = StateIdle
	}
	s.evaluateLocked(ctx)
}

// fireLocked runs one firing. Nothing that goes wrong here may stop the loop.
func (s *Scheduler) fireLocked(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.obs.FiringFailed()
			s.log.Error("firing panicked", zap.Any("panic", r))
		}
	}()
	if err := s.fire(ctx); err != nil {
		s.obs.FiringFailed()
		s.log.Error("firing failed", zap.Error(err))
	}
}

func (s *Scheduler) fire(ctx context.Context) error {
	settings := s.loadSettings(ctx)

	var packages []string
	if s.whitelist != nil {
		w, err := s.whitelist.LoadWhitelist(ctx)
		if err != nil {
			s.log.Warn("load whitelist failed", zap.Error(err))
		} else {
			packages = w.EnabledPackages()
		}
	}
	active := false
	if s.oracle != nil {
		active = s.oracle.IsAnyActive(ctx, packages, settings.IntervalMinutes)
	}
	mode := domain.ChoosePresentation(active, settings.UseIntrusiveReminder)

	total, err := s.ledger.TotalForDate(ctx, s.ledger.Today())
	if err != nil {
		s.log.Warn("read today's total failed", zap.Error(err))
	}

	if err := s.presenter.Present(ctx, notify.Reminder{
		Presentation: mode,
		TotalMl:      total,
		GoalMl:       settings.DailyGoalMl,
		At:           s.clock.Now(),
	}); err != nil {
		return fmt.Errorf("present reminder: %w", err)
	}

	s.last = &mode
	s.obs.Fired(mode)
	s.log.Info("reminder fired",
		zap.Stringer("presentation", mode),
		zap.Bool("whitelist_active", active),
		zap.Int("total_ml", total),
	)
	return nil
}

func (s *Scheduler) loadSettings(ctx context.Context) domain.ReminderSettings {
	settings, err := s.settings.LoadSettings(ctx)
	if err != nil {
		s.log.Warn("load settings failed, using defaults", zap.Error(err))
		return domain.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		s.log.Warn("invalid settings, using defaults", zap.Error(err))
		return domain.DefaultSettings()
	}
	return settings
}

type nopObserver struct{}

func (nopObserver) Fired(domain.Presentation) {}
func (nopObserver) FiringFailed()             {}
func (nopObserver) Consumed(int)              {}
func (nopObserver) Armed(time.Time, bool)     {}
