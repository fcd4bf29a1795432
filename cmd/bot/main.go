package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"TickerBot/internal/bot"
	"TickerBot/internal/chart"
	"TickerBot/internal/collector"
	"TickerBot/internal/config"
	"TickerBot/internal/fetcher"
	"TickerBot/internal/logger"
	"TickerBot/internal/metrics"
	"TickerBot/internal/model"
	"TickerBot/internal/notifier"
	"TickerBot/internal/recorder"
	"TickerBot/internal/scheduler"
	"TickerBot/internal/server"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	log.WithField("version", version).Info("TickerBot starting...")
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatalf("%v", err)
	}
	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := fetcher.New(cfg.Proxy, cfg.Fetch.Backoff, logger.Component(log, "fetcher"))

	yahoo := collector.NewYahoo(client, cfg.MarketData.BaseURL, cfg.MarketData.UserAgent,
		cfg.MarketData.Timeout, cfg.MarketData.MaxRetries)
	sheet := collector.NewSheet(client, cfg.Sheet.URL, cfg.Portfolio.URL, cfg.Sheet.Timeout, cfg.Sheet.MaxRetries)

	var stocks collector.StockSource
	if cfg.Sheet.URL != "" {
		stocks = sheet
	} else {
		log.Warn("no sheet url configured, stock cards come from market data")
	}
	col := collector.NewCollector(stocks, yahoo, yahoo, cfg.Sheet.YahooFallback, logger.Component(log, "collector"))

	var portfolio collector.PortfolioSource
	if cfg.Portfolio.URL != "" {
		portfolio = sheet
	}

	chartLog := logger.Component(log, "chart")
	renderer := chart.NewRenderer(
		chart.NewChrome(cfg.Chart.ExecPath, cfg.Chart.Width, cfg.Chart.Height, chartLog),
		chart.Options{
			WidgetURL:      cfg.Chart.WidgetURL,
			Theme:          cfg.Chart.Theme,
			Width:          cfg.Chart.Width,
			Height:         cfg.Chart.Height,
			ReadyTimeout:   cfg.Chart.ReadyTimeout,
			MinCanvasWidth: cfg.Chart.MinCanvasWidth,
			MinBytes:       cfg.Chart.MinBytes,
			Attempts:       cfg.Chart.Attempts,
			AttemptDelay:   cfg.Chart.AttemptDelay,
		},
		chartLog,
	)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger.Component(log, "recorder"))
		if err != nil {
			log.Warnf("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	tg := notifier.NewTelegram(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken, cfg.Proxy,
		cfg.Telegram.RatePerSecond, logger.Component(log, "telegram"))

	reg := bot.NewRegistry()
	if err := bot.Register(reg, bot.Deps{
		Quotes:           yahoo,
		Stocks:           col,
		Charts:           renderer,
		Portfolio:        portfolio,
		PortfolioSecret:  cfg.Portfolio.Secret,
		PortfolioMaxRows: cfg.Portfolio.MaxRows,
		Log:              logger.Component(log, "commands"),
	}); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	disp := bot.NewDispatcher(reg, rec, cfg.Bot.AckDeadline, cfg.Bot.CommandTimeout, logger.Component(log, "dispatcher"))

	if err := tg.SetCommands(ctx, reg.BotCommands()); err != nil {
		log.Warnf("register slash commands: %v", err)
	}
	botName, err := tg.GetMe(ctx)
	if err != nil {
		log.Warnf("getMe failed, accepting commands for any bot name: %v", err)
	}

	sched := scheduler.NewScheduler(ctx, yahoo, tg, rec, logger.Component(log, "scheduler"))
	if cfg.Schedule.DigestCron != "" {
		if err := sched.RegisterDigest(cfg.Schedule.DigestCron, cfg.Schedule.DigestChatID, cfg.Schedule.Watchlist); err != nil {
			return err
		}
	}
	if cfg.Database.SQLitePath != "" {
		if err := sched.RegisterPrune(cfg.Schedule.PruneCron, cfg.Database.Retention); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(cfg.Server.Addr, version, logger.Component(log, "server"))
	srvErr := make(chan error, 1)
	go func() {
		err := srv.Run(ctx)
		if err != nil {
			cancel()
		}
		srvErr <- err
	}()

	log.WithField("bot", botName).Info("polling for commands")
	tg.StartPolling(ctx, botName, cfg.Telegram.PollTimeout, func(ctx context.Context, in model.Interaction) {
		disp.Dispatch(ctx, in, tg.Responder(in))
	})

	if err := <-srvErr; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
