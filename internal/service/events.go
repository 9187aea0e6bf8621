package service

import (
	"context"
	"fmt"

	"tiketi/internal/logger"
	"tiketi/internal/models"
	"tiketi/internal/repository"
	"tiketi/internal/search"
)

// EventService manages the thin event surface around the purchase pipeline.
// Postgres owns capacity; Elasticsearch is a secondary index for search and
// is allowed to lag or be down.
type EventService struct {
	events       *repository.EventRepository
	transactions *repository.TransactionRepository
	search       *search.ElasticsearchClient
}

func NewEventService(events *repository.EventRepository, transactions *repository.TransactionRepository, searchClient *search.ElasticsearchClient) *EventService {
	return &EventService{
		events:       events,
		transactions: transactions,
		search:       searchClient,
	}
}

func (s *EventService) Create(ctx context.Context, ownerID int64, req *models.CreateEventRequest) (*models.CreateEventResponse, error) {
	if req.TotalTickets <= 0 {
		return nil, fmt.Errorf("total_tickets must be positive")
	}

	currency := req.Currency
	if currency == "" {
		currency = "NGN"
	}

	event := &models.Event{
		OwnerID:      ownerID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Currency:     currency,
		TotalTickets: req.TotalTickets,
		StartsAt:     req.StartsAt,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if s.search != nil {
		if err := s.search.IndexEvent(ctx, event); err != nil {
			logger.WithContext(ctx).Error("Failed to index event",
				"error", err,
				"event_id", event.ID)
		}
	}

	return &models.CreateEventResponse{ID: event.ID}, nil
}

func (s *EventService) List(ctx context.Context, query string, page, pageSize int) (models.ListEventsResponse, error) {
	var events []models.Event
	var err error

	if query != "" && s.search != nil {
		ids, searchErr := s.search.SearchEventIDs(ctx, query, page, pageSize)
		if searchErr != nil {
			logger.WithContext(ctx).Error("Event search failed, falling back to database listing",
				"error", searchErr,
				"query", query)
		} else {
			events, err = s.events.GetByIDs(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("failed to load searched events: %w", err)
			}
			return toListResponse(events), nil
		}
	}

	events, err = s.events.List(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return toListResponse(events), nil
}

// Availability returns an event with its ledger-derived sold count.
func (s *EventService) Availability(ctx context.Context, eventID int64) (*models.EventAvailabilityResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, nil
	}

	sold, err := s.transactions.SoldCount(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sold tickets: %w", err)
	}

	return &models.EventAvailabilityResponse{
		Event:       *event,
		TicketsSold: sold,
		TicketsLeft: event.TotalTickets - sold,
	}, nil
}

func toListResponse(events []models.Event) models.ListEventsResponse {
	result := make(models.ListEventsResponse, len(events))
	for i, event := range events {
		result[i] = models.ListEventsResponseItem{
			ID:           event.ID,
			Title:        event.Title,
			Price:        event.Price,
			Currency:     event.Currency,
			TotalTickets: event.TotalTickets,
		}
	}
	return result
}
