package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/domain"
	"github.com/123ice/Drink-Reminder/internal/host"
	"github.com/123ice/Drink-Reminder/internal/notify"
	"github.com/123ice/Drink-Reminder/internal/scheduler"
	"github.com/123ice/Drink-Reminder/internal/store"
)

// Pending state keys used in conversational flows.
const (
	pendingGoal     = "await_goal_text"
	pendingInterval = "await_interval_text"
	pendingHours    = "await_hours_text"
	pendingDays     = "await_days_text"
)

// Host receives lifecycle triggers.
type Host interface {
	OnHostStart(ctx context.Context, a host.Action) error
	OnHostStop()
}

// Reminders exposes scheduler state and re-evaluation after a settings change.
type Reminders interface {
	EvaluateAndSchedule(ctx context.Context)
	Status() scheduler.Status
}

// Stats is the read side of the consumption ledger plus day deletion.
type Stats interface {
	Today() string
	TotalForDate(ctx context.Context, date string) (int, error)
	AggregatesForLastNDays(ctx context.Context, n int) ([]domain.DailyAggregate, error)
	RecordsForDate(ctx context.Context, date string) ([]domain.ConsumptionEvent, error)
	DeleteDate(ctx context.Context, date string) (int64, error)
}

// Breaks reports the work/rest timer.
type Breaks interface {
	Remaining() (time.Duration, bool)
	Resting() bool
}

// Foreground names the process currently in use, to help fill the whitelist.
type Foreground interface {
	ForegroundPackage(ctx context.Context, intervalMinutes int) (string, bool)
}

// Deps are the collaborators of a Router. Breaks and Foreground are optional.
type Deps struct {
	Bot        notify.BotAPI
	Log        *zap.Logger
	Settings   store.SettingsRepo
	Whitelist  store.WhitelistRepo
	Stats      Stats
	Host       Host
	Reminders  Reminders
	Breaks     Breaks
	Foreground Foreground
	Chat       *notify.ChatBinding
	Location   *time.Location
}

// Router wires Telegram updates to handlers and holds minimal in-memory state.
// Only the owner chat is served; the first chat to send /start becomes the
// owner when none is configured.
type Router struct {
	bot        notify.BotAPI
	log        *zap.Logger
	settings   store.SettingsRepo
	whitelist  store.WhitelistRepo
	stats      Stats
	host       Host
	reminders  Reminders
	breaks     Breaks
	foreground Foreground
	chat       *notify.ChatBinding
	loc        *time.Location

	state map[int64]string // chatID -> pending state
	mu    sync.RWMutex
}

// NewRouter creates a new Telegram router.
func NewRouter(d Deps) *Router {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Chat == nil {
		d.Chat = notify.NewChatBinding(0)
	}
	return &Router{
		bot:        d.Bot,
		log:        d.Log.Named("telegram"),
		settings:   d.Settings,
		whitelist:  d.Whitelist,
		stats:      d.Stats,
		host:       d.Host,
		reminders:  d.Reminders,
		breaks:     d.Breaks,
		foreground: d.Foreground,
		chat:       d.Chat,
		loc:        d.Location,
		state:      make(map[int64]string),
	}
}

// setPending sets a pending state for a chat (non-persistent, in-memory).
func (r *Router) setPending(chatID int64, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = s
}

// getPending returns current pending state for a chat.
func (r *Router) getPending(chatID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[chatID]
}

// clearPending clears a pending state for a chat.
func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, chatID)
}

// splitCommand returns the command without the leading slash or @botname, and
// the rest of the text. cmd is empty for free-form text.
func splitCommand(text string) (cmd, args string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	head, rest, _ := strings.Cut(text, " ")
	head, _, _ = strings.Cut(head[1:], "@")
	return strings.ToLower(head), strings.TrimSpace(rest)
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	// Text messages
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		cmd, args := splitCommand(strings.TrimSpace(msg.Text))

		if cmd == "start" {
			r.handleStart(ctx, chatID)
			return
		}
		if !r.isOwner(chatID) {
			r.sendText(chatID, privateText)
			return
		}

		switch cmd {
		case "status":
			r.handleStatus(ctx, chatID)
		case "settings":
			r.handleSettings(ctx, chatID)
		case "drink":
			r.handleDrink(ctx, chatID, args)
		case "today":
			r.handleToday(ctx, chatID)
		case "stats":
			r.handleStats(ctx, chatID, args)
		case "goal":
			r.handleGoal(ctx, chatID, args)
		case "interval":
			r.handleInterval(ctx, chatID, args)
		case "hours":
			r.handleHours(ctx, chatID, args)
		case "days":
			r.handleDays(ctx, chatID, args)
		case "style":
			r.handleStyle(ctx, chatID, args)
		case "whitelist":
			r.handleWhitelist(ctx, chatID, args)
		case "clear":
			r.handleClear(ctx, chatID, args)
		case "break":
			r.handleBreak(ctx, chatID)
		case "stop":
			r.handleStop(chatID)
		case "":
			// Free-form text used in "Custom" flows (goal/interval/hours/days)
			r.handleFreeForm(ctx, chatID, args)
		default:
			r.sendText(chatID, "Unknown command. Try /status or /settings.")
		}
		return
	}

	// Callback queries (inline buttons)
	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		data := cb.Data
		chatID := cb.Message.Chat.ID
		if !r.isOwner(chatID) {
			_ = r.answerCallback(cb.ID, privateText)
			return
		}

		switch {
		// Reminder buttons
		case strings.HasPrefix(data, notify.CallbackDrinkPrefix):
			r.handleDrinkCallback(ctx, chatID, data, cb.ID)
		case data == notify.CallbackSkip:
			r.handleSkipCallback(ctx, cb.ID)
		case data == notify.CallbackRestPostpone:
			r.handlePostponeCallback(ctx, chatID, cb.ID)

		// Settings sections
		case data == "set_goal":
			r.askPresets(chatID, cb.ID, "Choose a daily goal (or Custom):", goalPresetsKeyboard())
		case strings.HasPrefix(data, "goal:"):
			r.handlePresetCallback(ctx, chatID, data, cb.ID, pendingGoal, "Enter your daily goal in ml, e.g. 1800")

		case data == "set_interval":
			r.askPresets(chatID, cb.ID, "Choose an interval (or Custom to enter your own):", intervalPresetsKeyboard())
		case strings.HasPrefix(data, "interval:"):
			r.handlePresetCallback(ctx, chatID, data, cb.ID, pendingInterval, "Enter interval, e.g.: 30m, 1h, 1h30m, 90m")

		case data == "set_hours":
			r.askPresets(chatID, cb.ID, "Choose active hours (or Custom):", hoursPresetsKeyboard())
		case strings.HasPrefix(data, "hours:"):
			r.handlePresetCallback(ctx, chatID, data, cb.ID, pendingHours, "Enter active hours as HH:MM–HH:MM (e.g., 09:00–18:00)")

		case data == "set_days":
			r.askPresets(chatID, cb.ID, "Which days should I remind you on?", daysPresetsKeyboard())
		case strings.HasPrefix(data, "days:"):
			r.handlePresetCallback(ctx, chatID, data, cb.ID, pendingDays, "Enter days, e.g.: mon,wed,fri or mon-fri")

		case data == "style:toggle":
			_ = r.answerCallback(cb.ID, "")
			r.toggleStyle(ctx, chatID)

		default:
			// Unknown callback: ignore silently
			_ = r.answerCallback(cb.ID, "")
		}
	}
}

// isOwner reports whether chatID may use the bot.
func (r *Router) isOwner(chatID int64) bool {
	owner := r.chat.Get()
	return owner != 0 && owner == chatID
}
