package model

import "nananom-farms/site/internal/store"

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"

	ServiceStatusActive   = "active"
	ServiceStatusInactive = "inactive"

	EnquiryStatusNew        = "new"
	EnquiryStatusInProgress = "in_progress"
	EnquiryStatusResolved   = "resolved"

	ContactStatusNew       = "new"
	ContactStatusRead      = "read"
	ContactStatusResponded = "responded"
)

type Service struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DurationMinutes int64   `json:"duration_minutes"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func ServiceFromRecord(r store.Record) Service {
	price, _ := r["price"].(float64)
	return Service{
		ID:              r.ID(),
		Name:            r.String("name"),
		Description:     r.String("description"),
		Price:           price,
		DurationMinutes: r.Int("duration_minutes"),
		Status:          r.String("status"),
		CreatedAt:       r.String("created_at"),
		UpdatedAt:       r.String("updated_at"),
	}
}

// BookingStats and friends are plain counters the admin dashboard renders.

type BookingStats struct {
	Total     int64 `json:"total_bookings"`
	Pending   int64 `json:"pending_bookings"`
	Confirmed int64 `json:"confirmed_bookings"`
	Completed int64 `json:"completed_bookings"`
	Cancelled int64 `json:"cancelled_bookings"`
}

type EnquiryStats struct {
	Total      int64 `json:"total_enquiries"`
	New        int64 `json:"new_enquiries"`
	InProgress int64 `json:"in_progress_enquiries"`
	Resolved   int64 `json:"resolved_enquiries"`
}

type ContactStats struct {
	Total     int64 `json:"total_messages"`
	New       int64 `json:"new_messages"`
	Read      int64 `json:"read_messages"`
	Responded int64 `json:"responded_messages"`
}
