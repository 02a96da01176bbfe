package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"billed-backend/models"

	"github.com/google/uuid"
)

// SQLBillRepository stores bills through database/sql (sqlite3 or mysql)
type SQLBillRepository struct {
	db     *sql.DB
	driver string
}

// NewSQLBillRepository creates a bill repository for the given driver
func NewSQLBillRepository(db *sql.DB, driver string) *SQLBillRepository {
	return &SQLBillRepository{db: db, driver: strings.ToLower(driver)}
}

// Upsert creates the bill or overwrites the existing row with the same id
func (r *SQLBillRepository) Upsert(ctx context.Context, bill *models.Bill) error {
	now := time.Now().UTC()

	var query string
	if r.driver == "mysql" {
		query = `
			INSERT INTO bills (
				id, email, type, name, amount, date, vat, pct, commentary,
				file_url, file_name, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				email = VALUES(email), type = VALUES(type), name = VALUES(name),
				amount = VALUES(amount), date = VALUES(date), vat = VALUES(vat),
				pct = VALUES(pct), commentary = VALUES(commentary),
				file_url = VALUES(file_url), file_name = VALUES(file_name),
				status = VALUES(status), updated_at = VALUES(updated_at)`
	} else {
		query = `
			INSERT INTO bills (
				id, email, type, name, amount, date, vat, pct, commentary,
				file_url, file_name, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				email = excluded.email, type = excluded.type, name = excluded.name,
				amount = excluded.amount, date = excluded.date, vat = excluded.vat,
				pct = excluded.pct, commentary = excluded.commentary,
				file_url = excluded.file_url, file_name = excluded.file_name,
				status = excluded.status, updated_at = excluded.updated_at`
	}

	_, err := r.db.ExecContext(ctx, query,
		bill.ID,
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
		string(bill.Status),
		now,
		now,
	)
	if err != nil {
		return err
	}

	stored, err := r.GetByID(ctx, bill.ID)
	if err != nil {
		return err
	}
	bill.CreatedAt = stored.CreatedAt
	bill.UpdatedAt = stored.UpdatedAt
	return nil
}

// GetByID retrieves a bill by ID
func (r *SQLBillRepository) GetByID(ctx context.Context, id string) (*models.Bill, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id)
	bill, err := scanSQLBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// ListByEmail retrieves all bills filed by an employee
func (r *SQLBillRepository) ListByEmail(ctx context.Context, email string) ([]*models.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+billColumns+`
		FROM bills
		WHERE email = ?
		ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanSQLBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLBill(row rowScanner) (*models.Bill, error) {
	var (
		bill     = &models.Bill{}
		status   string
		fileURL  sql.NullString
		fileName sql.NullString
	)
	err := row.Scan(
		&bill.ID,
		&bill.Email,
		&bill.Type,
		&bill.Name,
		&bill.Amount,
		&bill.Date,
		&bill.VAT,
		&bill.Pct,
		&bill.Commentary,
		&fileURL,
		&fileName,
		&status,
		&bill.CreatedAt,
		&bill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	bill.Status = models.BillStatus(status)
	if fileURL.Valid {
		bill.FileURL = &fileURL.String
	}
	if fileName.Valid {
		bill.FileName = &fileName.String
	}
	return bill, nil
}

// SQLUserRepository stores users through database/sql (sqlite3 or mysql)
type SQLUserRepository struct {
	db *sql.DB
}

// NewSQLUserRepository creates a user repository
func NewSQLUserRepository(db *sql.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

// Create creates a new user record
func (r *SQLUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Type == "" {
		user.Type = models.UserTypeEmployee
	}
	user.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, type, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, string(user.Type), user.CreatedAt)
	return err
}

// GetByEmail retrieves a user by email
func (r *SQLUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var (
		user     = &models.User{}
		userType string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, type, created_at FROM users WHERE email = ?`, email,
	).Scan(&user.ID, &user.Email, &user.Name, &userType, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Type = models.UserType(userType)
	return user, nil
}
