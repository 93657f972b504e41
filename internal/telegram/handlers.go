package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/domain"
	"github.com/123ice/Drink-Reminder/internal/host"
	"github.com/123ice/Drink-Reminder/internal/notify"
	"github.com/123ice/Drink-Reminder/internal/scheduler"
	"github.com/123ice/Drink-Reminder/internal/store"
)

const (
	defaultStatsDays = 7
	maxStatsDays     = 90
)

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) sendWithMarkup(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

// --- Core commands ---

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	switch owner := r.chat.Get(); {
	case owner == 0:
		if err := r.settings.SaveOwnerChat(ctx, chatID); err != nil {
			r.log.Error("save owner chat failed", zap.Error(err))
			r.sendText(chatID, "Profile initialization error. Please try again later.")
			return
		}
		r.chat.Set(chatID)
		r.log.Info("owner chat bound", zap.Int64("chat_id", chatID))
	case owner != chatID:
		r.sendText(chatID, privateText)
		return
	}

	if err := r.host.OnHostStart(ctx, host.StartReminders{}); err != nil {
		r.log.Error("start reminders failed", zap.Error(err))
	}
	r.sendWithMarkup(chatID, startText, mainMenuKeyboard(true))
}

func (r *Router) handleStop(chatID int64) {
	r.host.OnHostStop()
	r.sendWithMarkup(chatID, "Reminders stopped ⏸ Send /start to resume.", mainMenuKeyboard(false))
}

func (r *Router) handleStatus(ctx context.Context, chatID int64) {
	s, err := r.settings.LoadSettings(ctx)
	if err != nil {
		r.log.Error("load settings failed", zap.Error(err))
		r.sendText(chatID, readFailed)
		return
	}
	st := r.reminders.Status()

	body := fmt.Sprintf("%s\n\n"+statusFmt,
		statusTitle,
		s.DailyGoalMl,
		s.Interval().String(),
		s.Window.String(),
		daysText(s.RepeatDays),
		styleName(s.UseIntrusiveReminder),
		st.State.String(),
		r.nextText(st),
		r.breakText(),
	)
	r.sendWithMarkup(chatID, body, mainMenuKeyboard(st.State != scheduler.StateStopped))
}

func (r *Router) nextText(st scheduler.Status) string {
	switch st.State {
	case scheduler.StateArmed:
		at := st.NextWake.In(r.loc).Format("Mon 15:04")
		if st.WillFire {
			return at + " (reminder)"
		}
		return at + " (active hours start)"
	case scheduler.StateSuspended:
		return "never, no reminder days selected"
	}
	return "—"
}

func (r *Router) breakText() string {
	if r.breaks == nil {
		return "—"
	}
	if left, ok := r.breaks.Remaining(); ok {
		return fmt.Sprintf("in %d min", int(left.Round(time.Minute)/time.Minute))
	}
	if r.breaks.Resting() {
		return "now, /break starts a new work session"
	}
	return "off"
}

func (r *Router) handleSettings(ctx context.Context, chatID int64) {
	s, err := r.settings.LoadSettings(ctx)
	if err != nil {
		r.log.Error("load settings failed", zap.Error(err))
		r.sendText(chatID, "Error opening settings.")
		return
	}
	r.sendWithMarkup(chatID, "What do you want to configure?", settingsInlineKeyboard(s))
}

// --- Consumption ---

func (r *Router) handleDrink(ctx context.Context, chatID int64, args string) {
	if args == "" {
		r.sendWithMarkup(chatID, "How much did you drink?", notify.DrinkKeyboard())
		return
	}
	amount, err := domain.ParseAmount(args)
	if err != nil {
		r.sendText(chatID, fmt.Sprintf(helpUsage, "/drink 250"))
		return
	}
	if err := r.recordDrink(ctx, amount); err != nil {
		r.sendText(chatID, "Could not record the drink.")
		return
	}
	r.sendText(chatID, r.drinkReply(ctx, amount))
}

func (r *Router) recordDrink(ctx context.Context, amount int) error {
	if err := r.host.OnHostStart(ctx, host.RecordConsumption{AmountMl: amount}); err != nil {
		r.log.Error("record consumption failed", zap.Int("amount_ml", amount), zap.Error(err))
		return err
	}
	return nil
}

func (r *Router) drinkReply(ctx context.Context, amount int) string {
	total, goal := r.todayProgress(ctx)
	return fmt.Sprintf("💧 +%d ml. Today: %d / %d ml (%d%%)", amount, total, goal, percent(total, goal))
}

func (r *Router) todayProgress(ctx context.Context) (total, goal int) {
	total, err := r.stats.TotalForDate(ctx, r.stats.Today())
	if err != nil {
		r.log.Warn("read today's total failed", zap.Error(err))
	}
	s, err := r.settings.LoadSettings(ctx)
	if err != nil {
		r.log.Warn("load settings failed", zap.Error(err))
		s = domain.DefaultSettings()
	}
	return total, s.DailyGoalMl
}

func (r *Router) handleToday(ctx context.Context, chatID int64) {
	today := r.stats.Today()
	events, err := r.stats.RecordsForDate(ctx, today)
	if err != nil {
		r.log.Error("records for date failed", zap.Error(err))
		r.sendText(chatID, readFailed)
		return
	}
	total, goal := r.todayProgress(ctx)
	body := fmt.Sprintf(todayFmt, today, total, goal, percent(total, goal), progressBar(domain.Progress(total, goal)))
	r.sendText(chatID, body+"\n\n"+formatRecords(events, r.loc))
}

func (r *Router) handleStats(ctx context.Context, chatID int64, args string) {
	n := defaultStatsDays
	if args != "" {
		v, err := strconv.Atoi(args)
		if err != nil || v <= 0 || v > maxStatsDays {
			r.sendText(chatID, fmt.Sprintf(helpUsage, "/stats 7 or /stats 30"))
			return
		}
		n = v
	}
	days, err := r.stats.AggregatesForLastNDays(ctx, n)
	if err != nil {
		r.log.Error("aggregates failed", zap.Error(err))
		r.sendText(chatID, readFailed)
		return
	}
	if len(days) == 0 {
		r.sendText(chatID, noStatsText)
		return
	}
	_, goal := r.todayProgress(ctx)
	r.sendText(chatID, fmt.Sprintf(statsTitle, n)+"\n"+formatStats(days, goal))
}

func (r *Router) handleClear(ctx context.Context, chatID int64, args string) {
	date := args
	if date == "today" {
		date = r.stats.Today()
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		r.sendText(chatID, fmt.Sprintf(helpUsage, "/clear 2025-05-05 or /clear today"))
		return
	}
	n, err := r.stats.DeleteDate(ctx, date)
	if err != nil {
		r.log.Error("delete date failed", zap.String("date", date), zap.Error(err))
		r.sendText(chatID, "Could not delete records.")
		return
	}
	r.sendText(chatID, fmt.Sprintf("🗑 Deleted %d record(s) for %s.", n, date))
}

// --- Settings ---

func (r *Router) handleGoal(ctx context.Context, chatID int64, args string) {
	if args == "" {
		r.sendWithMarkup(chatID, "Choose a daily goal (or Custom):", goalPresetsKeyboard())
		return
	}
	r.applySetting(ctx, chatID, pendingGoal, args)
}

func (r *Router) handleInterval(ctx context.Context, chatID int64, args string) {
	if args == "" {
		r.sendWithMarkup(chatID, "Choose an interval (or Custom to enter your own):", intervalPresetsKeyboard())
		return
	}
	r.applySetting(ctx, chatID, pendingInterval, args)
}

func (r *Router) handleHours(ctx context.Context, chatID int64, args string) {
	if args == "" {
		r.sendWithMarkup(chatID, "Choose active hours (or Custom):", hoursPresetsKeyboard())
		return
	}
	r.applySetting(ctx, chatID, pendingHours, args)
}

func (r *Router) handleDays(ctx context.Context, chatID int64, args string) {
	if args == "" {
		r.sendWithMarkup(chatID, "Which days should I remind you on?", daysPresetsKeyboard())
		return
	}
	r.applySetting(ctx, chatID, pendingDays, args)
}

func (r *Router) handleStyle(ctx context.Context, chatID int64, args string) {
	switch strings.ToLower(args) {
	case "":
		r.toggleStyle(ctx, chatID)
	case "ambient", "intrusive":
		intrusive := strings.EqualFold(args, "intrusive")
		r.updateSettings(ctx, chatID, func(s *domain.ReminderSettings) {
			s.UseIntrusiveReminder = intrusive
		}, "Reminder style: "+styleName(intrusive))
	default:
		r.sendText(chatID, fmt.Sprintf(helpUsage, "/style ambient or /style intrusive"))
	}
}

func (r *Router) toggleStyle(ctx context.Context, chatID int64) {
	var intrusive bool
	ok := r.updateSettings(ctx, chatID, func(s *domain.ReminderSettings) {
		s.UseIntrusiveReminder = !s.UseIntrusiveReminder
		intrusive = s.UseIntrusiveReminder
	}, "")
	if ok {
		r.sendText(chatID, "Reminder style: "+styleName(intrusive))
	}
}

// applySetting parses text for the setting named by kind and saves it.
func (r *Router) applySetting(ctx context.Context, chatID int64, kind, text string) {
	switch kind {
	case pendingGoal:
		goal, err := domain.ParseAmount(text)
		if err != nil {
			r.sendText(chatID, "Invalid goal. Example: 1500")
			return
		}
		r.updateSettings(ctx, chatID, func(s *domain.ReminderSettings) {
			s.DailyGoalMl = goal
		}, fmt.Sprintf("Daily goal updated: %d ml", goal))

	case pendingInterval:
		dur, err := domain.ParseDurationHuman(text)
		if err != nil {
			r.sendText(chatID, "Invalid interval. Examples: 30m, 1h, 1h30m.")
			return
		}
		r.updateSettings(ctx, chatID, func(s *domain.ReminderSettings) {
			s.IntervalMinutes = int(dur / time.Minute)
		}, "Interval updated: "+dur.String())

	case pendingHours:
		w, err := domain.ParseActiveWindow(text)
		if err != nil {
			r.sendText(chatID, "Invalid format. Example: 09:00–18:00")
			return
		}
		r.updateSettings(ctx, chatID, func(s *domain.ReminderSettings) {
			s.Window = w
		}, "Active hours updated: "+w.String())

	case pendingDays:
		days, err := domain.ParseWeekdays(text)
		if err != nil {
			r.sendText(chatID, "Invalid days. Examples: mon-fri, mon,wed,fri, all, none.")
			return
		}
		r.updateSettings(ctx, chatID, func(s *domain.ReminderSettings) {
			s.RepeatDays = days
		}, "Days updated: "+daysText(days))
	}
}

// updateSettings loads, mutates, saves and re-schedules. okText is sent on
// success unless empty.
func (r *Router) updateSettings(ctx context.Context, chatID int64, mutate func(*domain.ReminderSettings), okText string) bool {
	s, err := r.settings.LoadSettings(ctx)
	if err != nil {
		r.log.Error("load settings failed", zap.Error(err))
		r.sendText(chatID, savedFailed)
		return false
	}
	mutate(&s)
	if err := r.settings.SaveSettings(ctx, s); err != nil {
		r.log.Warn("save settings failed", zap.Error(err))
		if errors.Is(err, domain.ErrInvalidWindow) || errors.Is(err, domain.ErrInvalidInterval) || errors.Is(err, domain.ErrInvalidGoal) {
			r.sendText(chatID, "Rejected: "+err.Error())
			return false
		}
		r.sendText(chatID, savedFailed)
		return false
	}
	r.reminders.EvaluateAndSchedule(ctx)
	if okText != "" {
		r.sendText(chatID, okText)
	}
	return true
}

// --- Preset flows ---

func (r *Router) askPresets(chatID int64, cbID, text string, kb tgbotapi.InlineKeyboardMarkup) {
	_ = r.answerCallback(cbID, "")
	r.sendWithMarkup(chatID, text, kb)
}

func (r *Router) handlePresetCallback(ctx context.Context, chatID int64, data, cbID, kind, prompt string) {
	_ = r.answerCallback(cbID, "")
	_, val, _ := strings.Cut(data, ":")
	if val == "custom" {
		r.sendText(chatID, prompt)
		r.setPending(chatID, kind)
		return
	}
	r.applySetting(ctx, chatID, kind, val)
}

// --- Free-form dispatcher (for all "Custom" inputs) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	kind := r.getPending(chatID)
	if kind == "" {
		// No pending flow: ignore free-form message
		return
	}
	r.clearPending(chatID)
	r.applySetting(ctx, chatID, kind, text)
}

// --- Whitelist ---

func (r *Router) handleWhitelist(ctx context.Context, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		r.showWhitelist(ctx, chatID)
		return
	}

	var err error
	reply := ""
	switch sub := strings.ToLower(fields[0]); {
	case sub == "on" || sub == "off":
		err = r.whitelist.SetWhitelistEnabled(ctx, sub == "on")
		reply = "Whitelist " + sub
	case sub == "add" && len(fields) >= 2:
		app := domain.WhitelistApp{Package: fields[1], Name: strings.Join(fields[2:], " "), Enabled: true}
		err = r.whitelist.UpsertApp(ctx, app)
		reply = "Added " + fields[1]
	case sub == "remove" && len(fields) == 2:
		err = r.whitelist.RemoveApp(ctx, fields[1])
		reply = "Removed " + fields[1]
	case sub == "toggle" && len(fields) == 2:
		var enabled bool
		enabled, err = r.whitelist.ToggleApp(ctx, fields[1])
		reply = fmt.Sprintf("%s enabled: %t", fields[1], enabled)
	default:
		r.sendText(chatID, fmt.Sprintf(helpUsage, "/whitelist [add <process> [name] | remove <process> | toggle <process> | on | off]"))
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		r.sendText(chatID, fields[1]+" is not in the whitelist.")
	case err != nil:
		r.log.Error("whitelist update failed", zap.Error(err))
		r.sendText(chatID, "Could not update the whitelist.")
	default:
		r.sendText(chatID, reply)
	}
}

func (r *Router) showWhitelist(ctx context.Context, chatID int64) {
	w, err := r.whitelist.LoadWhitelist(ctx)
	if err != nil {
		r.log.Error("load whitelist failed", zap.Error(err))
		r.sendText(chatID, readFailed)
		return
	}
	body := formatWhitelist(w)
	if r.foreground != nil {
		s, err := r.settings.LoadSettings(ctx)
		if err != nil {
			s = domain.DefaultSettings()
		}
		if pkg, ok := r.foreground.ForegroundPackage(ctx, s.IntervalMinutes); ok {
			body += "\n\nIn use right now: " + pkg
		}
	}
	r.sendText(chatID, body)
}

// --- Breaks ---

func (r *Router) handleBreak(ctx context.Context, chatID int64) {
	if err := r.host.OnHostStart(ctx, host.RestartWork{}); err != nil {
		r.log.Error("restart work failed", zap.Error(err))
		r.sendText(chatID, "Could not start a work session.")
		return
	}
	r.sendText(chatID, "⏱ Work session started. Next break "+r.breakText()+".")
}

// --- Reminder callbacks ---

func (r *Router) handleDrinkCallback(ctx context.Context, chatID int64, data, cbID string) {
	amount, err := strconv.Atoi(strings.TrimPrefix(data, notify.CallbackDrinkPrefix))
	if err != nil || amount <= 0 {
		_ = r.answerCallback(cbID, "")
		return
	}
	if err := r.recordDrink(ctx, amount); err != nil {
		_ = r.answerCallback(cbID, "Could not record the drink.")
		return
	}
	_ = r.answerCallback(cbID, fmt.Sprintf("+%d ml", amount))
	r.sendText(chatID, r.drinkReply(ctx, amount))
}

func (r *Router) handleSkipCallback(ctx context.Context, cbID string) {
	if err := r.host.OnHostStart(ctx, host.ClearPresentedNotifications{}); err != nil {
		r.log.Warn("clear notifications failed", zap.Error(err))
	}
	_ = r.answerCallback(cbID, "Skipped")
}

func (r *Router) handlePostponeCallback(ctx context.Context, chatID int64, cbID string) {
	if err := r.host.OnHostStart(ctx, host.RestartWork{}); err != nil {
		r.log.Warn("postpone break failed", zap.Error(err))
		_ = r.answerCallback(cbID, "")
		return
	}
	_ = r.answerCallback(cbID, "Break postponed")
	r.sendText(chatID, "⏱ Break postponed. Next one "+r.breakText()+".")
}
