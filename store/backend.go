package store

import (
	"context"
	"errors"
	"fmt"

	"billed-backend/models"
	"billed-backend/repository"
	"billed-backend/storage"
	"billed-backend/validators"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend is the server-side BillStore: attachments go to storage,
// records go to the bill repository
type Backend struct {
	bills   repository.BillRepository
	storage storage.Storage
	log     *zap.Logger
}

// NewBackend creates a backend over the given repository and storage
func NewBackend(bills repository.BillRepository, st storage.Storage, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{bills: bills, storage: st, log: log}
}

// Create uploads the attachment (if any) and inserts a pending placeholder bill
func (b *Backend) Create(ctx context.Context, req CreateRequest) (*models.UploadResult, error) {
	if req.Email == "" {
		return nil, ErrMissingEmail
	}

	key := uuid.New()
	placeholder := &models.Bill{
		ID:     key.String(),
		Email:  req.Email,
		Pct:    models.DefaultPct,
		Status: models.BillStatusPending,
	}

	var storagePath string
	if req.File != nil {
		if !validators.ValidateExtension(req.File.Name) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, req.File.Name)
		}

		path, err := b.storage.Upload(ctx, key, req.File.Name, req.File.Content)
		if err != nil {
			return nil, fmt.Errorf("upload attachment: %w", err)
		}
		storagePath = path

		fileURL := b.storage.URL(path)
		fileName := req.File.Name
		placeholder.FileURL = &fileURL
		placeholder.FileName = &fileName
	}

	if err := b.bills.Upsert(ctx, placeholder); err != nil {
		if storagePath != "" {
			// Try to clean up uploaded file
			if delErr := b.storage.Delete(ctx, storagePath); delErr != nil {
				b.log.Warn("Failed to clean up attachment", zap.String("path", storagePath), zap.Error(delErr))
			}
		}
		return nil, fmt.Errorf("save bill: %w", err)
	}

	result := &models.UploadResult{Key: placeholder.ID}
	if placeholder.FileURL != nil {
		result.FileURL = *placeholder.FileURL
	}

	b.log.Info("Bill created",
		zap.String("key", result.Key),
		zap.String("email", req.Email),
		zap.Bool("attachment", req.File != nil))
	return result, nil
}

// Update upserts req.Bill under req.Selector, or under a fresh key when none is given.
// An attachment already recorded for the key is kept when the payload carries none.
// The status is never taken from the payload: a stored status is kept and a
// new record starts pending.
func (b *Backend) Update(ctx context.Context, req UpdateRequest) (*models.Bill, error) {
	if req.Bill == nil {
		return nil, ErrMissingBill
	}

	bill := *req.Bill
	bill.Status = ""
	if req.Selector == "" {
		bill.ID = uuid.NewString()
	} else {
		bill.ID = req.Selector

		existing, err := b.bills.GetByID(ctx, req.Selector)
		switch {
		case err == nil:
			bill.Status = existing.Status
			if bill.FileURL == nil && bill.FileName == nil {
				bill.FileURL = existing.FileURL
				bill.FileName = existing.FileName
			}
		case errors.Is(err, repository.ErrNotFound):
		default:
			return nil, fmt.Errorf("load bill: %w", err)
		}
	}

	if bill.Status == "" {
		bill.Status = models.BillStatusPending
	}

	if err := b.bills.Upsert(ctx, &bill); err != nil {
		return nil, fmt.Errorf("save bill: %w", err)
	}

	b.log.Info("Bill updated", zap.String("key", bill.ID), zap.String("status", string(bill.Status)))
	return &bill, nil
}
