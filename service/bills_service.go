package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"billed-backend/models"
	"billed-backend/repository"
	"billed-backend/validators"
)

var ErrBillNotFound = errors.New("bill not found")

// BillsService serves the employee's bills list
type BillsService struct {
	bills repository.BillRepository
}

// BillsServiceOption is a functional option for BillsService
type BillsServiceOption func(*BillsService)

// BillsWithRepository sets the bill repository
func BillsWithRepository(repo repository.BillRepository) BillsServiceOption {
	return func(s *BillsService) {
		s.bills = repo
	}
}

// NewBillsService creates a new bills service
func NewBillsService(opts ...BillsServiceOption) *BillsService {
	s := &BillsService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BillItem is a bill as shown in the list
type BillItem struct {
	*models.Bill
	StatusLabel string `json:"statusLabel"`
}

// ListBillsRequest represents a request to list an employee's bills
type ListBillsRequest struct {
	Email string
}

// ListBillsResult represents the listed bills, most recent date first
type ListBillsResult struct {
	Bills []BillItem
}

// ListBills returns the employee's bills sorted anti-chronologically
func (s *BillsService) ListBills(ctx context.Context, req ListBillsRequest) (*ListBillsResult, error) {
	if s.bills == nil {
		return nil, errors.New("bill repository not set")
	}

	bills, err := s.bills.ListByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	SortAntiChrono(bills)

	items := make([]BillItem, 0, len(bills))
	for _, b := range bills {
		items = append(items, BillItem{Bill: b, StatusLabel: StatusLabel(b.Status)})
	}
	return &ListBillsResult{Bills: items}, nil
}

// GetBillRequest represents a request to get a bill
type GetBillRequest struct {
	ID string
}

// GetBillResult represents the result of getting a bill
type GetBillResult struct {
	Bill *models.Bill
}

// GetBill retrieves a bill by ID
func (s *BillsService) GetBill(ctx context.Context, req GetBillRequest) (*GetBillResult, error) {
	if s.bills == nil {
		return nil, errors.New("bill repository not set")
	}

	bill, err := s.bills.GetByID(ctx, req.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, err
	}
	return &GetBillResult{Bill: bill}, nil
}

// SortAntiChrono orders bills by date, latest first.
// Bills whose date does not parse go last, keeping their relative order.
func SortAntiChrono(bills []*models.Bill) {
	parsed := make(map[*models.Bill]time.Time, len(bills))
	for _, b := range bills {
		if d, err := time.Parse(validators.DateLayout, b.Date); err == nil {
			parsed[b] = d
		}
	}

	sort.SliceStable(bills, func(i, j int) bool {
		di, iok := parsed[bills[i]]
		dj, jok := parsed[bills[j]]
		switch {
		case iok && jok:
			return di.After(dj)
		case iok:
			return true
		default:
			return false
		}
	})
}

// StatusLabel returns the label shown for a bill status
func StatusLabel(status models.BillStatus) string {
	switch status {
	case models.BillStatusPending:
		return "En attente"
	case models.BillStatusAccepted:
		return "Accepté"
	case models.BillStatusRefused:
		return "Refusé"
	default:
		return string(status)
	}
}
