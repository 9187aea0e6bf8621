package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tiketi/internal/database"
	"tiketi/internal/models"

	"github.com/lib/pq"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (owner_id, title, description, price, currency, total_tickets, starts_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		event.OwnerID,
		event.Title,
		event.Description,
		event.Price,
		event.Currency,
		event.TotalTickets,
		event.StartsAt,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)

	return err
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, owner_id, title, description, price, currency, total_tickets, starts_at, created_at, updated_at
		FROM events
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.OwnerID,
		&event.Title,
		&event.Description,
		&event.Price,
		&event.Currency,
		&event.TotalTickets,
		&event.StartsAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

func (r *EventRepository) List(ctx context.Context, page, pageSize int) ([]models.Event, error) {
	query := `
		SELECT id, owner_id, title, description, price, currency, total_tickets, starts_at, created_at, updated_at
		FROM events
		ORDER BY id ASC`

	var args []interface{}
	if page > 0 && pageSize > 0 {
		offset := (page - 1) * pageSize
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", 1, 2)
		args = append(args, pageSize, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.OwnerID,
			&event.Title,
			&event.Description,
			&event.Price,
			&event.Currency,
			&event.TotalTickets,
			&event.StartsAt,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (r *EventRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, owner_id, title, description, price, currency, total_tickets, starts_at, created_at, updated_at
		FROM events
		WHERE id = ANY($1)
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.OwnerID,
			&event.Title,
			&event.Description,
			&event.Price,
			&event.Currency,
			&event.TotalTickets,
			&event.StartsAt,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
