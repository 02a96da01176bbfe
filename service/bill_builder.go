package service

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"billed-backend/models"
)

// BuildBill maps the form values and the upload result onto a pending bill.
// Amount and pct are read as leading integers; a pct that is missing,
// unparsable or zero falls back to models.DefaultPct.
func BuildBill(email string, form FormSnapshot, fileURL, fileName *string) *models.Bill {
	amount, _ := parseInt(form.Amount)

	pct, ok := parseInt(form.Pct)
	if !ok || pct == 0 {
		pct = models.DefaultPct
	}

	return &models.Bill{
		Email:      email,
		Type:       form.Type,
		Name:       form.Name,
		Amount:     amount,
		Date:       form.Date,
		VAT:        form.VAT,
		Pct:        pct,
		Commentary: form.Commentary,
		FileURL:    copyString(fileURL),
		FileName:   copyString(fileName),
		Status:     models.BillStatusPending,
	}
}

// parseInt reads an optionally signed integer at the start of s, ignoring
// leading whitespace and anything after the digits ("12.9" is 12). A 0x
// prefix switches to hexadecimal. Values are clamped to the 32-bit range of
// the amount and pct columns.
func parseInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}

	base := 10
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && digitValue(s[end]) < base {
		end++
	}
	if end == 0 {
		return 0, false
	}

	// on overflow ParseInt returns the nearest bound along with ErrRange
	n, err := strconv.ParseInt(sign+s[:end], base, 32)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return int(n), true
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 36
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
