package repository

import (
	"tiketi/internal/database"
)

type Repositories struct {
	Events       *EventRepository
	Transactions *TransactionRepository
	Users        *UserRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Events:       NewEventRepository(db),
		Transactions: NewTransactionRepository(db),
		Users:        NewUserRepository(db),
	}
}
