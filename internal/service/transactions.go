package service

import (
	"context"
	"fmt"

	"tiketi/internal/models"
	"tiketi/internal/repository"
)

// TransactionService serves the purchase history read side: consumers see
// what they bought, creators see what sold for their events. Both read the
// same ledger rows.
type TransactionService struct {
	transactions *repository.TransactionRepository
}

func NewTransactionService(transactions *repository.TransactionRepository) *TransactionService {
	return &TransactionService{transactions: transactions}
}

func (s *TransactionService) ConsumerHistory(ctx context.Context, userID int64) ([]models.TransactionListItem, error) {
	logs, err := s.transactions.ListByPayer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumer transactions: %w", err)
	}
	return toListItems(logs), nil
}

func (s *TransactionService) CreatorHistory(ctx context.Context, userID int64) ([]models.TransactionListItem, error) {
	logs, err := s.transactions.ListByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list creator transactions: %w", err)
	}
	return toListItems(logs), nil
}

func toListItems(logs []models.TransactionLog) []models.TransactionListItem {
	items := make([]models.TransactionListItem, len(logs))
	for i, log := range logs {
		items[i] = models.TransactionListItem{
			ID:               log.ID,
			OrderID:          log.OrderID,
			EventID:          log.EventID,
			EventTitle:       log.EventTitle,
			Amount:           log.Amount,
			Currency:         log.Currency,
			Quantity:         log.Quantity,
			Status:           log.Status,
			GatewayReference: log.GatewayReference,
			CreatedAt:        log.CreatedAt,
		}
	}
	return items
}
