package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/domain"
)

// Callback payloads produced by reminder buttons.
const (
	CallbackDrinkPrefix  = "drink:"
	CallbackSkip         = "skip"
	CallbackRestPostpone = "rest:postpone"
)

// BotAPI is the subset of *tgbotapi.BotAPI the presenter uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TelegramPresenter delivers reminders into the bound chat. The ambient style is
// a plain message; the full-screen style carries one-tap volume buttons and a
// skip button. Without the full-screen grant every reminder is ambient.
type TelegramPresenter struct {
	bot        BotAPI
	chat       *ChatBinding
	fullScreen bool
	log        *zap.Logger

	mu        sync.Mutex
	presented []int
}

func NewTelegramPresenter(bot BotAPI, chat *ChatBinding, fullScreenGranted bool, log *zap.Logger) *TelegramPresenter {
	return &TelegramPresenter{
		bot:        bot,
		chat:       chat,
		fullScreen: fullScreenGranted,
		log:        log.Named("presenter"),
	}
}

func (p *TelegramPresenter) Present(ctx context.Context, r Reminder) error {
	chatID := p.chat.Get()
	if chatID == 0 {
		return ErrNoChat
	}
	if err := p.Clear(ctx); err != nil {
		p.log.Warn("clear previous reminder failed", zap.Error(err))
	}

	mode := r.Presentation
	if mode == domain.PresentationFullScreen && !p.fullScreen {
		p.log.Debug("full-screen not granted, falling back to ambient")
		mode = domain.PresentationAmbient
	}

	msg := tgbotapi.NewMessage(chatID, ReminderText(r, mode))
	if mode == domain.PresentationFullScreen {
		msg.ReplyMarkup = DrinkKeyboard()
	}
	sent, err := p.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}

	p.mu.Lock()
	p.presented = append(p.presented, sent.MessageID)
	p.mu.Unlock()
	return nil
}

func (p *TelegramPresenter) Clear(_ context.Context) error {
	p.mu.Lock()
	ids := p.presented
	p.presented = nil
	p.mu.Unlock()

	chatID := p.chat.Get()
	if chatID == 0 {
		return nil
	}
	var firstErr error
	for _, id := range ids {
		if _, err := p.bot.Request(tgbotapi.NewDeleteMessage(chatID, id)); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete message %d: %w", id, err)
		}
	}
	return firstErr
}

func (p *TelegramPresenter) Announce(_ context.Context, text string) error {
	chatID := p.chat.Get()
	if chatID == 0 {
		return ErrNoChat
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableNotification = true
	_, err := p.bot.Send(msg)
	return err
}

func (p *TelegramPresenter) NotifyBreak(_ context.Context, rest time.Duration) error {
	chatID := p.chat.Get()
	if chatID == 0 {
		return ErrNoChat
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(breakFmt, int(rest.Minutes())))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ Postpone this break", CallbackRestPostpone),
		),
	)
	_, err := p.bot.Send(msg)
	return err
}

const (
	ambientTitle    = "💧 Time to drink water!"
	fullScreenTitle = "💧💧 Time to drink water! 💧💧"
	breakFmt        = "👀 Time for a break: look away from the screen for %d min."
)

// ReminderText renders the body of a reminder message.
func ReminderText(r Reminder, mode domain.Presentation) string {
	var b strings.Builder
	if mode == domain.PresentationFullScreen {
		b.WriteString(fullScreenTitle)
		b.WriteString("\nStay hydrated, keep healthy.")
	} else {
		b.WriteString(ambientTitle)
	}
	fmt.Fprintf(&b, "\n\nToday: %d ml / %d ml (%d%%)", r.TotalMl, r.GoalMl, int(r.Progress()*100))
	if r.Progress() >= 1 {
		b.WriteString("\n🎉 Daily goal reached!")
	} else {
		fmt.Fprintf(&b, "\n%d ml to go", domain.Remaining(r.TotalMl, r.GoalMl))
	}
	return b.String()
}

// DrinkKeyboard offers the quick volumes and a skip button.
func DrinkKeyboard() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 3)
	for i, amount := range domain.QuickAmounts {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			strconv.Itoa(amount)+" ml", CallbackDrinkPrefix+strconv.Itoa(amount)))
		if i%2 == 1 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⏰ Skip this one", CallbackSkip),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

var _ Presenter = (*TelegramPresenter)(nil)
