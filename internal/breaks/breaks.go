package breaks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/clock"
)

// Notifier tells the user a work session is over.
type Notifier interface {
	NotifyBreak(ctx context.Context, rest time.Duration) error
}

// Timer counts one work session at a time. When the session ends it asks for
// a break and stays idle until Restart.
type Timer struct {
	clock    clock.Clock
	notifier Notifier
	work     time.Duration
	rest     time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	ctx     context.Context
	pending clock.Timer
	gen     uint64
	endsAt  time.Time
	resting bool
}

func New(clk clock.Clock, n Notifier, work, rest time.Duration, log *zap.Logger) *Timer {
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Timer{
		clock:    clk,
		notifier: n,
		work:     work,
		rest:     rest,
		log:      log.Named("breaks"),
		ctx:      context.Background(),
	}
}

// Start begins a work session unless one is already running.
func (t *Timer) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil {
		return
	}
	t.armLocked(ctx)
}

// Restart drops the current session, if any, and begins a new one.
func (t *Timer) Restart(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armLocked(ctx)
}

// Stop cancels the running session. Safe to call repeatedly.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.resting = false
}

// Resting reports whether the last session ended and no new one started.
func (t *Timer) Resting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resting
}

// Remaining is the time left in the running session; false when none runs.
func (t *Timer) Remaining() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil {
		return 0, false
	}
	return t.endsAt.Sub(t.clock.Now()), true
}

func (t *Timer) armLocked(ctx context.Context) {
	t.cancelLocked()
	t.ctx = ctx
	t.resting = false
	t.gen++
	gen := t.gen
	t.endsAt = t.clock.Now().Add(t.work)
	t.pending = t.clock.AfterFunc(t.work, func() { t.onExpire(gen) })
	t.log.Debug("work session started", zap.Time("ends_at", t.endsAt))
}

func (t *Timer) cancelLocked() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.gen++
	t.endsAt = time.Time{}
}

func (t *Timer) onExpire(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return
	}
	t.pending = nil
	t.endsAt = time.Time{}
	if t.ctx.Err() != nil {
		return
	}
	t.resting = true
	if t.notifier == nil {
		return
	}
	if err := t.notifier.NotifyBreak(t.ctx, t.rest); err != nil {
		t.log.Warn("break notification failed", zap.Error(err))
		return
	}
	t.log.Info("break requested", zap.Duration("rest", t.rest))
}
