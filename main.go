package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"risk-core/internal/api"
	"risk-core/internal/events"
	"risk-core/internal/monitor"
	"risk-core/internal/risk"
	"risk-core/pkg/config"
	"risk-core/pkg/db"
)

var buildVersion = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("Starting risk analyzer on port %s (db=%s)", cfg.Port, cfg.DBPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core services
	bus := events.NewBus()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	analyzer := risk.NewAnalyzerWith(resolveThresholds(ctx, cfg, database))
	th := analyzer.Thresholds()
	log.Printf("[RISK] thresholds: daily_trades=%d loss_streak=%d position_pct=%.0f%% drop_pct=%.0f%%",
		th.MaxDailyTrades, th.MaxLossStreak, th.MaxPositionPercent, th.BalanceDropPercent)

	metrics := monitor.NewSystemMetrics()

	mon := &monitor.Monitor{Bus: bus, Sink: monitor.LogSink{}}
	mon.Start(ctx)

	server := api.NewServer(bus, database, analyzer, metrics, cfg.JWTSecret, cfg.RunHistoryLimit, buildVersion)
	go func() {
		if err := server.Start(":" + cfg.Port); err != nil {
			log.Fatalf("api server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down")
}

// resolveThresholds picks the startup configuration: a previously
// persisted row wins over the YAML preset file, which wins over the
// built-in defaults.
func resolveThresholds(ctx context.Context, cfg *config.Config, database *db.Database) risk.Thresholds {
	if stored, err := database.LoadActiveThresholds(ctx); err != nil {
		log.Printf("load thresholds: %v (using defaults)", err)
	} else if stored != nil {
		log.Printf("[RISK] using persisted threshold config %q", stored.Name)
		return risk.Thresholds{
			MaxDailyTrades:       stored.MaxDailyTrades,
			MaxLossStreak:        stored.MaxLossStreak,
			MaxPositionPercent:   stored.MaxPositionPercent,
			MinTradeIntervalSec:  stored.MinTradeIntervalSec,
			MartingaleMultiplier: stored.MartingaleMultiplier,
			BalanceDropPercent:   stored.BalanceDropPercent,
			BotIntervalSec:       stored.BotIntervalSec,
		}
	}

	if cfg.ThresholdsFile != "" {
		presets, err := risk.LoadPresets(cfg.ThresholdsFile)
		if err != nil {
			log.Printf("load threshold presets: %v (using defaults)", err)
			return risk.DefaultThresholds()
		}
		if th, ok := presets[cfg.ThresholdsPreset]; ok {
			log.Printf("[RISK] using threshold preset %q from %s", cfg.ThresholdsPreset, cfg.ThresholdsFile)
			return th
		}
		log.Printf("threshold preset %q not found in %s (using defaults)", cfg.ThresholdsPreset, cfg.ThresholdsFile)
	}

	return risk.DefaultThresholds()
}
