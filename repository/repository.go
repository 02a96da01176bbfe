package repository

import (
	"context"
	"errors"

	"billed-backend/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("record not found")

// BillRepository persists bill records
type BillRepository interface {
	// Upsert inserts the bill or replaces the stored one with the same ID
	Upsert(ctx context.Context, bill *models.Bill) error
	GetByID(ctx context.Context, id string) (*models.Bill, error)
	ListByEmail(ctx context.Context, email string) ([]*models.Bill, error)
}

// UserRepository persists employee accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
