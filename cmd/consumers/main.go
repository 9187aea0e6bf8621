package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tiketi/cmd/consumers/jobs"
	"tiketi/internal/config"
	"tiketi/internal/consumers"
	"tiketi/internal/external"
	"tiketi/internal/logger"
	"tiketi/internal/notify"
)

func main() {
	log.Println("Starting consumers service...")

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Override NATS client ID for consumers
	cfg.NATS.ClientID = "tiketi-consumers"

	consumerService, err := consumers.NewConsumerService(cfg)
	if err != nil {
		log.Fatalf("Failed to create consumer service: %v", err)
	}

	if err := consumerService.Start(); err != nil {
		log.Fatalf("Failed to start consumers: %v", err)
	}

	// Reconciliation settles ledger rows left PENDING by crashes and
	// timeouts against the gateway's view
	paymentClient := external.NewPaymentClient(cfg.Payment)
	notifier := notify.New(consumerService.NATS(), cfg.NotifyBuffer)

	ctx, cancelJobs := context.WithCancel(context.Background())
	reconciliation := jobs.NewPendingReconciliationJob(
		consumerService.Repositories().Transactions,
		paymentClient,
		notifier,
		time.Minute,
	)
	reconciliation.Start(ctx)

	log.Println("Consumers service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down consumers service...")

	reconciliation.Stop()
	cancelJobs()
	notifier.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumerService.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Consumers service stopped")
}
