package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jortega/memetrader/config"
	"github.com/jortega/memetrader/internal/adapters/dexscreener"
	"github.com/jortega/memetrader/internal/adapters/notify"
	"github.com/jortega/memetrader/internal/adapters/paper"
	"github.com/jortega/memetrader/internal/adapters/storage"
	"github.com/jortega/memetrader/internal/engine"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one tick and exit")
	table := flag.Bool("table", false, "print full positions/signals tables (default: compact 1-line)")
	report := flag.Bool("report", false, "print the stored run report and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	if *report {
		runReport(ctx, store)
		return
	}

	slog.Info("memetrader starting",
		"config", *configPath,
		"tick_interval", cfg.TickInterval(),
		"initial_capital", cfg.Trader.InitialCapital,
		"per_token_cap", cfg.Trader.PerTokenCap,
		"aggregate_cap", cfg.Trader.AggregateCap,
		"once", *once,
	)

	markets := dexscreener.NewClient(cfg.API.DexScreenerBase, cfg.Trader.MaxPairs)
	executor := paper.New(paper.Config{Slippage: cfg.Trader.PaperSlippagePct})
	notifier := notify.NewConsole(*table)

	ledger := engine.NewLedger(cfg.Trader.InitialCapital)
	evaluator := engine.NewEvaluator(engine.EvaluatorConfig{
		EnterThreshold: cfg.Trader.EnterThreshold,
		ExitThreshold:  cfg.Trader.ExitThreshold,
		StopLossPct:    cfg.Trader.StopLossPct,
		LiquidityFloor: cfg.Trader.LiquidityFloorUSD,
	})
	risk := engine.NewRiskManager(engine.RiskConfig{
		PerTokenCap:      cfg.Trader.PerTokenCap,
		AggregateCap:     cfg.Trader.AggregateCap,
		MinOrderNotional: cfg.Trader.MinOrderNotionalUSD,
		MaxSlippage:      cfg.Trader.MaxSlippagePct,
	})
	orchestrator := engine.NewOrchestrator(executor, ledger, store, engine.OrchestratorConfig{
		MaxAttempts: cfg.Trader.MaxRetryAttempts,
		BackoffBase: cfg.BackoffBase(),
		Timeout:     cfg.ExecutionTimeout(),
	})

	loop := engine.NewLoop(markets, evaluator, risk, ledger, orchestrator, store, notifier, engine.LoopConfig{
		TickInterval:  cfg.TickInterval(),
		HistoryWindow: cfg.Trader.HistoryWindow,
	})

	if *once {
		if err := loop.Tick(ctx); err != nil {
			slog.Error("tick failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := loop.Run(ctx); err != nil {
		slog.Error("trading loop exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("memetrader stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
