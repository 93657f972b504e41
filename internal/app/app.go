package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/activity"
	"github.com/123ice/Drink-Reminder/internal/breaks"
	"github.com/123ice/Drink-Reminder/internal/clock"
	"github.com/123ice/Drink-Reminder/internal/config"
	"github.com/123ice/Drink-Reminder/internal/host"
	"github.com/123ice/Drink-Reminder/internal/ledger"
	"github.com/123ice/Drink-Reminder/internal/metrics"
	"github.com/123ice/Drink-Reminder/internal/notify"
	"github.com/123ice/Drink-Reminder/internal/scheduler"
	"github.com/123ice/Drink-Reminder/internal/store"
	"github.com/123ice/Drink-Reminder/internal/telegram"
)

const aliveText = "💧 Drink reminder is running."

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI // nil when running headless
	reg     *prometheus.Registry
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
	host    *host.Host
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	var bot *tgbotapi.BotAPI
	if cfg.BotToken != "" {
		b, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			return nil, err
		}
		b.Debug = false
		bot = b
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, reg: reg, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting drink-reminder",
		zap.Bool("telegram", a.bot != nil),
		zap.String("http", a.cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath, a.log)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	defer func() { _ = repo.Close() }()
	a.log.Info("sqlite ready")

	chat, err := a.ownerChat(ctx)
	if err != nil {
		return err
	}

	m, err := metrics.New(a.reg)
	if err != nil {
		return err
	}

	clk := clock.Real{}
	led := ledger.New(repo, clk, loc, a.log)

	sampler := activity.NewSampler(activity.GopsutilProcesses, clk, activity.SamplerConfig{
		Every:   a.cfg.UsageSampleEvery,
		Granted: a.cfg.UsageAccess,
	}, a.log)
	go sampler.Run(ctx)
	oracle := activity.NewOracle(sampler, clk, a.log)

	var presenter notify.Presenter
	if a.bot != nil {
		presenter = notify.NewTelegramPresenter(a.bot, chat, a.cfg.FullScreen, a.log)
	} else {
		presenter = notify.NewLogPresenter(a.log)
	}

	sched := scheduler.New(scheduler.Deps{
		Settings:  repo,
		Whitelist: repo,
		Ledger:    led,
		Oracle:    oracle,
		Presenter: presenter,
		Observer:  m,
		Clock:     clk,
		Location:  loc,
		Log:       a.log,
	})
	bt := breaks.New(clk, presenter, a.cfg.WorkDuration(), a.cfg.RestDuration(), a.log)
	a.host = host.New(sched, bt, a.log)

	go NewGoalWatcher(led, repo, presenter, clk, loc, a.log).Run(ctx)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	if err := presenter.Announce(ctx, aliveText); err != nil {
		a.log.Warn("service-alive announcement failed", zap.Error(err))
	}
	if a.cfg.AutoStart && (a.bot == nil || chat.Get() != 0) {
		if err := a.host.OnHostStart(ctx, host.StartReminders{}); err != nil {
			a.log.Error("auto start failed", zap.Error(err))
		}
	}

	var updCh tgbotapi.UpdatesChannel
	if a.bot != nil {
		a.router = telegram.NewRouter(telegram.Deps{
			Bot:        a.bot,
			Log:        a.log,
			Settings:   repo,
			Whitelist:  repo,
			Stats:      led,
			Host:       a.host,
			Reminders:  sched,
			Breaks:     bt,
			Foreground: oracle,
			Chat:       chat,
			Location:   loc,
		})
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updCh = a.bot.GetUpdatesChan(u)
	}

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.host.OnHostStop()
			if a.bot != nil {
				a.bot.StopReceivingUpdates()
			}

			// Create a short-lived shutdown context and cancel it immediately after use.
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

// ownerChat resolves the chat that receives reminders: OWNER_CHAT_ID wins,
// otherwise the chat bound by an earlier /start.
func (a *App) ownerChat(ctx context.Context) (*notify.ChatBinding, error) {
	if a.cfg.OwnerChatID != 0 {
		if err := a.repo.SaveOwnerChat(ctx, a.cfg.OwnerChatID); err != nil {
			return nil, fmt.Errorf("save owner chat: %w", err)
		}
		return notify.NewChatBinding(a.cfg.OwnerChatID), nil
	}
	id, err := a.repo.LoadOwnerChat(ctx)
	if err != nil {
		return nil, fmt.Errorf("load owner chat: %w", err)
	}
	if id == 0 && a.bot != nil {
		a.log.Info("no owner chat yet, waiting for /start")
	}
	return notify.NewChatBinding(id), nil
}
