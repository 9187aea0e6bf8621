package service

import (
	"time"

	"tiketi/internal/external"
	"tiketi/internal/repository"
	"tiketi/internal/search"
)

type Services struct {
	Purchases    *PurchaseService
	Transactions *TransactionService
	Events       *EventService
}

func NewServices(repos *repository.Repositories, paymentClient *external.PaymentClient, notifier dispatcher, searchClient *search.ElasticsearchClient, gatewayTimeout time.Duration) *Services {
	return &Services{
		Purchases: NewPurchaseService(
			repos.Events,
			repos.Users,
			repos.Transactions,
			paymentClient,
			notifier,
			gatewayTimeout,
		),
		Transactions: NewTransactionService(repos.Transactions),
		Events:       NewEventService(repos.Events, repos.Transactions, searchClient),
	}
}
