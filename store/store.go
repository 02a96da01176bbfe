// Package store implements the remote bill store consumed by the new-bill workflow.
package store

import (
	"context"
	"errors"

	"billed-backend/models"
)

var (
	ErrInvalidFileType = errors.New("invalid attachment file type")
	ErrMissingEmail    = errors.New("email is required")
	ErrMissingBill     = errors.New("bill payload is required")
)

// CreateRequest carries the multipart payload of the create call
type CreateRequest struct {
	Email string
	File  *models.Attachment // nil when no attachment was selected
}

// UpdateRequest carries a bill record addressed by the key returned from Create
type UpdateRequest struct {
	Bill     *models.Bill
	Selector string // empty when no key is known
}

// BillStore is the remote store of bills
type BillStore interface {
	// Create stores the attachment and reserves a bill key
	Create(ctx context.Context, req CreateRequest) (*models.UploadResult, error)
	// Update upserts the bill under req.Selector
	Update(ctx context.Context, req UpdateRequest) (*models.Bill, error)
}
