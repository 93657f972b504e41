package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/123ice/Drink-Reminder/internal/domain"
)

var ErrNoChat = errors.New("no chat bound to receive reminders")

// Reminder is everything a presenter needs to render one firing.
type Reminder struct {
	Presentation domain.Presentation
	TotalMl      int
	GoalMl       int
	At           time.Time
}

// Progress is today's total over the goal, clamped to [0,1].
func (r Reminder) Progress() float64 { return domain.Progress(r.TotalMl, r.GoalMl) }

// Presenter delivers reminders to the user.
type Presenter interface {
	// Present shows a reminder, replacing any reminder still on screen.
	Present(ctx context.Context, r Reminder) error
	// Clear withdraws whatever reminder is currently presented.
	Clear(ctx context.Context) error
	// Announce posts a low-importance service message.
	Announce(ctx context.Context, text string) error
	// NotifyBreak tells the user it is time to rest.
	NotifyBreak(ctx context.Context, rest time.Duration) error
}

// ChatBinding holds the chat that receives reminders.
type ChatBinding struct {
	mu sync.RWMutex
	id int64
}

func NewChatBinding(id int64) *ChatBinding { return &ChatBinding{id: id} }

func (b *ChatBinding) Get() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.id
}

func (b *ChatBinding) Set(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.id = id
}
