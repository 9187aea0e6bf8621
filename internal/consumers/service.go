package consumers

import (
	"context"
	"log/slog"

	"tiketi/internal/config"
	"tiketi/internal/database"
	"tiketi/internal/messaging"
	"tiketi/internal/models"
	"tiketi/internal/repository"

	"github.com/nats-io/stan.go"
)

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)
	handlers := NewHandlers(repos)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: handlers,
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	subscriptions := map[string]func(*stan.Msg){
		models.SubjectNotificationCreated: cs.handlers.HandleNotificationCreated,
		models.SubjectPurchaseCompleted:   cs.handlers.HandlePurchaseCompleted,
		models.SubjectPurchaseFailed:      cs.handlers.HandlePurchaseFailed,
	}

	for subject, handler := range subscriptions {
		if _, err := cs.nats.SubscribeQueue(subject, "consumers", handler); err != nil {
			return err
		}
	}

	slog.Info("All consumers started successfully")
	return nil
}

// Repositories exposes the shared repositories for background jobs running
// in the same process.
func (cs *ConsumerService) Repositories() *repository.Repositories {
	return cs.repos
}

func (cs *ConsumerService) NATS() *messaging.NATSClient {
	return cs.nats
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
