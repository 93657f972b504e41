package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/123ice/Drink-Reminder/internal/domain"
)

// UI texts in English
const (
	startText = "👋 I remind you to drink water and to rest your eyes.\n\n" +
		"Log a drink with /drink 250 or the buttons under a reminder. " +
		"Tune goal, interval, hours and days in /settings. " +
		"Apps in /whitelist keep reminders quiet while you use them."
	privateText  = "This bot already belongs to someone else."
	statusTitle  = "🧾 Your current settings:"
	statusFmt    = "• Goal: %d ml\n• Interval: %s\n• Active hours: %s\n• Days: %s\n• Style: %s\n• Reminders: %s\n• Next: %s\n• Break: %s\n"
	todayFmt     = "💧 Today (%s): %d ml / %d ml (%d%%)\n%s"
	statsTitle   = "📊 Last %d days with drinks:"
	noStatsText  = "No drinks recorded yet."
	helpUsage    = "Usage: %s"
	savedFailed  = "Could not save settings."
	readFailed   = "Error reading your data."
	whitelistFmt = "🙈 Do not interrupt while using (%s):\n%s"
)

// mainMenuKeyboard builds the reply keyboard. The last row toggles reminders.
func mainMenuKeyboard(running bool) tgbotapi.ReplyKeyboardMarkup {
	toggle := "/stop"
	if !running {
		toggle = "/start"
	}
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/drink 250"),
			tgbotapi.NewKeyboardButton("/today"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/status"),
			tgbotapi.NewKeyboardButton("/settings"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(toggle),
		),
	)
}

// Inline keyboards
func settingsInlineKeyboard(s domain.ReminderSettings) tgbotapi.InlineKeyboardMarkup {
	style := "🔔 Style: ambient"
	if s.UseIntrusiveReminder {
		style = "🚨 Style: intrusive"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Goal", "set_goal"),
			tgbotapi.NewInlineKeyboardButtonData("⏲️ Interval", "set_interval"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🕘 Active hours", "set_hours"),
			tgbotapi.NewInlineKeyboardButtonData("📅 Days", "set_days"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(style, "style:toggle"),
		),
	)
}

func goalPresetsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("1000 ml", "goal:1000"),
			tgbotapi.NewInlineKeyboardButtonData("1500 ml", "goal:1500"),
			tgbotapi.NewInlineKeyboardButtonData("2000 ml", "goal:2000"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("2500 ml", "goal:2500"),
			tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", "goal:custom"),
		),
	)
}

func intervalPresetsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("30m", "interval:30m"),
			tgbotapi.NewInlineKeyboardButtonData("45m", "interval:45m"),
			tgbotapi.NewInlineKeyboardButtonData("1h", "interval:1h"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("1h30m", "interval:1h30m"),
			tgbotapi.NewInlineKeyboardButtonData("2h", "interval:2h"),
			tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", "interval:custom"),
		),
	)
}

func hoursPresetsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("08:00–17:00", "hours:08:00-17:00"),
			tgbotapi.NewInlineKeyboardButtonData("09:00–18:00", "hours:09:00-18:00"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("10:00–19:00", "hours:10:00-19:00"),
			tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", "hours:custom"),
		),
	)
}

func daysPresetsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Mon–Fri", "days:weekdays"),
			tgbotapi.NewInlineKeyboardButtonData("Every day", "days:all"),
			tgbotapi.NewInlineKeyboardButtonData("Weekend", "days:weekend"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", "days:custom"),
		),
	)
}

func styleName(intrusive bool) string {
	if intrusive {
		return "intrusive"
	}
	return "ambient"
}

func daysText(d domain.WeekdaySet) string {
	switch d & domain.AllDays {
	case 0:
		return "none (reminders suspended)"
	case domain.AllDays:
		return "every day"
	case domain.Weekdays:
		return "mon–fri"
	}
	return d.String()
}

// progressBar renders p in [0,1] as ten blocks.
func progressBar(p float64) string {
	n := int(p*10 + 0.5)
	return strings.Repeat("▰", n) + strings.Repeat("▱", 10-n)
}

func percent(total, goal int) int {
	return int(domain.Progress(total, goal) * 100)
}

func formatRecords(events []domain.ConsumptionEvent, loc *time.Location) string {
	if len(events) == 0 {
		return "Nothing recorded yet."
	}
	var b strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&b, "• %s  %d ml\n", ev.OccurredAt.In(loc).Format("15:04"), ev.AmountMl)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStats(days []domain.DailyAggregate, goal int) string {
	var b strings.Builder
	for _, d := range days {
		fmt.Fprintf(&b, "%s %s %d ml\n", d.Date, progressBar(domain.Progress(d.TotalMl, goal)), d.TotalMl)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatWhitelist(w domain.Whitelist) string {
	state := "on"
	if !w.Enabled {
		state = "off"
	}
	if len(w.Apps) == 0 {
		return fmt.Sprintf(whitelistFmt, state, "(empty) add one with /whitelist add <process> [name]")
	}
	var b strings.Builder
	for _, a := range w.Apps {
		mark := "✅"
		if !a.Enabled {
			mark = "▫️"
		}
		fmt.Fprintf(&b, "%s %s (%s)\n", mark, a.Name, a.Package)
	}
	return fmt.Sprintf(whitelistFmt, state, strings.TrimRight(b.String(), "\n"))
}
