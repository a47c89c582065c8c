package models

import (
	"errors"
	"time"
)

const (
	StatusOpen       = "open"
	SentimentUnknown = "unknown"
)

// Canonical complaint categories. Every stored complaint carries one of them.
const (
	CategoryTechnical = "technical"
	CategoryPayment   = "payment"
	CategoryOther     = "other"
)

var ErrNotFound = errors.New("complaint not found")

type Complaint struct {
	ID        int64
	Text      string
	Status    string
	Sentiment string
	Category  string
	CreatedAt time.Time
}

// ListFilter narrows ListComplaints. Zero values mean "no filter"; set fields combine with AND.
type ListFilter struct {
	Status string
	Since  *time.Time
}

func IsCategory(s string) bool {
	switch s {
	case CategoryTechnical, CategoryPayment, CategoryOther:
		return true
	}
	return false
}
