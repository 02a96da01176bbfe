package repository

import (
	"context"
	"errors"

	"billed-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgUserRepository handles Postgres operations for users
type PgUserRepository struct {
	db *pgxpool.Pool
}

// NewPgUserRepository creates a new user repository
func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

// Create creates a new user record
func (r *PgUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.Type == "" {
		user.Type = models.UserTypeEmployee
	}

	var id uuid.UUID
	query := `
		INSERT INTO users (email, name, type)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, user.Email, user.Name, user.Type).Scan(&id, &user.CreatedAt)
	if err != nil {
		return err
	}
	user.ID = id.String()
	return nil
}

// GetByEmail retrieves a user by email
func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var id uuid.UUID
	user := &models.User{}
	query := `
		SELECT id, email, name, type, created_at
		FROM users
		WHERE email = $1`

	err := r.db.QueryRow(ctx, query, email).Scan(
		&id,
		&user.Email,
		&user.Name,
		&user.Type,
		&user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.ID = id.String()
	return user, nil
}
