package repository

import (
	"context"
	"errors"
	"fmt"

	"billed-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgBillRepository handles Postgres operations for bills
type PgBillRepository struct {
	db *pgxpool.Pool
}

// NewPgBillRepository creates a new bill repository
func NewPgBillRepository(db *pgxpool.Pool) *PgBillRepository {
	return &PgBillRepository{db: db}
}

const billColumns = `id, email, type, name, amount, date, vat, pct, commentary,
			file_url, file_name, status, created_at, updated_at`

// Upsert creates the bill or overwrites the existing row with the same id
func (r *PgBillRepository) Upsert(ctx context.Context, bill *models.Bill) error {
	id, err := uuid.Parse(bill.ID)
	if err != nil {
		return fmt.Errorf("invalid bill id %q: %w", bill.ID, err)
	}

	query := `
		INSERT INTO bills (
			id, email, type, name, amount, date, vat, pct, commentary,
			file_url, file_name, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			type = EXCLUDED.type,
			name = EXCLUDED.name,
			amount = EXCLUDED.amount,
			date = EXCLUDED.date,
			vat = EXCLUDED.vat,
			pct = EXCLUDED.pct,
			commentary = EXCLUDED.commentary,
			file_url = EXCLUDED.file_url,
			file_name = EXCLUDED.file_name,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		id,
		bill.Email,
		bill.Type,
		bill.Name,
		bill.Amount,
		bill.Date,
		bill.VAT,
		bill.Pct,
		bill.Commentary,
		bill.FileURL,
		bill.FileName,
		bill.Status,
	).Scan(&bill.CreatedAt, &bill.UpdatedAt)
}

// GetByID retrieves a bill by ID
func (r *PgBillRepository) GetByID(ctx context.Context, id string) (*models.Bill, error) {
	billID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`

	bill, err := scanPgBill(r.db.QueryRow(ctx, query, billID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// ListByEmail retrieves all bills filed by an employee
func (r *PgBillRepository) ListByEmail(ctx context.Context, email string) ([]*models.Bill, error) {
	query := `SELECT ` + billColumns + `
		FROM bills
		WHERE email = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanPgBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}

	return bills, rows.Err()
}

func scanPgBill(row pgx.Row) (*models.Bill, error) {
	var id uuid.UUID
	bill := &models.Bill{}
	err := row.Scan(
		&id,
		&bill.Email,
		&bill.Type,
		&bill.Name,
		&bill.Amount,
		&bill.Date,
		&bill.VAT,
		&bill.Pct,
		&bill.Commentary,
		&bill.FileURL,
		&bill.FileName,
		&bill.Status,
		&bill.CreatedAt,
		&bill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	bill.ID = id.String()
	return bill, nil
}
