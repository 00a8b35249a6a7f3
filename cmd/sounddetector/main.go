package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/config"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/health"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/orchestrator"
)

func main() {
	log.Printf("SoundMonkey Sound Detector starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Configuration loaded")
	log.Printf("  Signal Source: %s", cfg.SignalSource)
	log.Printf("  Sensitivity: %s (sensitive %.1f / normal %.1f / sleeping %.1f dB)",
		cfg.Sensitivity, cfg.Thresholds.SensitiveDB, cfg.Thresholds.NormalDB, cfg.Thresholds.SleepingDB)
	log.Printf("  Sample Interval: %v", cfg.SampleInterval)
	log.Printf("  Discord API: %s", cfg.DiscordAPIBase)
	log.Printf("  Bot Token: %s", cfg.MaskedToken())
	log.Printf("  Recipient: %s", cfg.UserID)

	orch := orchestrator.NewOrchestrator(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := orch.Start(); err != nil {
		log.Fatalf("Failed to start orchestrator: %v", err)
	}

	healthServer := health.NewServer(orch)
	healthServer.Start(cfg.HealthPort)

	go func() {
		if err := orch.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Orchestrator error: %v", err)
		}
	}()

	<-sigChan
	log.Printf("Shutdown signal received...")

	cancel()

	if err := orch.Stop(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Health server shutdown error: %v", err)
	}

	log.Printf("Sound detector stopped successfully")
}
