package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradePilot/internal/config"
	"TradePilot/internal/exchange"
	"TradePilot/internal/executor"
	"TradePilot/internal/feed"
	"TradePilot/internal/indicator"
	"TradePilot/internal/model"
	"TradePilot/internal/notifier"
	"TradePilot/internal/position"
	"TradePilot/internal/recorder"
	"TradePilot/internal/risk"
	"TradePilot/internal/webhook"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] TradePilot starting...")

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded environment from .env")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init exchange client
	var ex exchange.Exchange
	if os.Getenv("MOCK_EXCHANGE") == "true" {
		log.Println("[WARN] MOCK_EXCHANGE enabled, no real orders will be placed")
		ex = &exchange.Mock{Price: 50000, Equity: 10000}
	} else {
		ex = exchange.NewBybit(cfg.Bybit.APIKey, cfg.Bybit.APISecret, cfg.Bybit.BaseURL)
	}
	log.Printf("[INFO] exchange: %s", ex.Name())

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Pipeline stages
	engine := indicator.NewEngine(ex, cfg.Trading.Interval, cfg.Trading.Window)
	params := model.RiskParameters{
		RiskPerTrade:    cfg.Trading.RiskPerTrade,
		Leverage:        cfg.Trading.Leverage,
		RiskRewardRatio: cfg.Trading.RiskRewardRatio,
	}
	sizer := risk.NewSizer(ex, params, cfg.Trading.Interval, cfg.Trading.ReferenceSymbol)
	reconciler := position.NewReconciler(ex, tn)
	proposals := executor.NewProposalStore(
		time.Duration(cfg.Proposals.TTLMinutes)*time.Minute, cfg.Proposals.MaxPending)
	coord := executor.NewCoordinator(ex, engine, sizer, reconciler, tn, rec, proposals, cfg.Trading.Symbol)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go coord.Run(ctx)

	// Scheduled maintenance: proposal expiry sweep and daily status report
	sched := cron.New(cron.WithSeconds())
	if _, err := sched.AddFunc(cfg.Schedule.SweepCron, coord.SweepExpiredProposals); err != nil {
		log.Fatalf("[FATAL] register sweep task: %v", err)
	}
	if _, err := sched.AddFunc(cfg.Schedule.StatusCron, func() {
		reportCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := tn.Send(coord.ReportStatus(reportCtx)); err != nil {
			log.Printf("[ERROR] send status report: %v", err)
		}
	}); err != nil {
		log.Fatalf("[FATAL] register status task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Webhook intake
	ws := webhook.NewServer(coord, cfg.Trading.Symbol)
	go func() {
		if err := ws.Run(cfg.Webhook.Addr); err != nil {
			log.Fatalf("[FATAL] webhook server: %v", err)
		}
	}()

	// Telegram commands and approval buttons
	go tn.StartPolling(ctx, coord.HandleCommand, coord.HandleApproval)
	log.Println("[INFO] Telegram polling started")

	// Market feed
	listener := feed.NewListener(cfg.Bybit.WSURL, cfg.Trading.Symbol)
	go listener.Run(ctx, coord.HandleTick)

	log.Println("[INFO] TradePilot is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] TradePilot stopped")
}
