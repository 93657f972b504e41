package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LogPresenter writes reminders to the log. It is used when no bot token is configured.
type LogPresenter struct {
	log *zap.Logger
}

func NewLogPresenter(log *zap.Logger) *LogPresenter {
	return &LogPresenter{log: log.Named("presenter")}
}

func (p *LogPresenter) Present(_ context.Context, r Reminder) error {
	p.log.Info("time to drink water",
		zap.Stringer("presentation", r.Presentation),
		zap.Int("total_ml", r.TotalMl),
		zap.Int("goal_ml", r.GoalMl),
		zap.Float64("progress", r.Progress()),
	)
	return nil
}

func (p *LogPresenter) Clear(context.Context) error { return nil }

func (p *LogPresenter) Announce(_ context.Context, text string) error {
	p.log.Info(text)
	return nil
}

func (p *LogPresenter) NotifyBreak(_ context.Context, rest time.Duration) error {
	p.log.Info("time for a break", zap.Duration("rest", rest))
	return nil
}

var _ Presenter = (*LogPresenter)(nil)
