package models

import (
	"time"
)

// BillStatus represents the review status of a bill
type BillStatus string

const (
	BillStatusPending  BillStatus = "pending"
	BillStatusAccepted BillStatus = "accepted"
	BillStatusRefused  BillStatus = "refused"
)

// DefaultPct is the VAT percentage used when the form carries none
const DefaultPct = 20

// Bill represents one expense claim
type Bill struct {
	ID         string     `json:"id"`
	Email      string     `json:"email" binding:"required,email"`
	Type       string     `json:"type"`
	Name       string     `json:"name"`
	Amount     int        `json:"amount"` // leading integer of the form field, any sign
	Date       string     `json:"date" binding:"omitempty,billdate"`
	VAT        string     `json:"vat"`
	Pct        int        `json:"pct"`
	Commentary string     `json:"commentary"`
	FileURL    *string    `json:"fileUrl"`
	FileName   *string    `json:"fileName"`
	Status     BillStatus `json:"status" binding:"omitempty,billstatus"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Valid reports whether s is a known bill status
func (s BillStatus) Valid() bool {
	switch s {
	case BillStatusPending, BillStatusAccepted, BillStatusRefused:
		return true
	}
	return false
}
