package manager

import (
	"context"

	"nananom-farms/site/internal/model"
	"nananom-farms/site/internal/store"
)

const bookingsCollection = "bookings"

// timeSlots are the bookable appointment times for any given day.
var timeSlots = []string{
	"09:00", "10:00", "11:00", "12:00",
	"14:00", "15:00", "16:00", "17:00",
}

// BookingManager handles customer bookings. Listings carry the booked
// service's fields merged in under service_* names.
type BookingManager struct {
	store store.Store
}

func NewBookingManager(st store.Store) *BookingManager {
	return &BookingManager{store: st}
}

type BookingParams struct {
	ServiceID     int64  `json:"service_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	BookingDate   string `json:"booking_date"`
	BookingTime   string `json:"booking_time"`
	Message       string `json:"message"`
}

func (m *BookingManager) Create(ctx context.Context, p BookingParams) (store.Record, error) {
	return m.store.Insert(ctx, bookingsCollection, map[string]any{
		"service_id":     p.ServiceID,
		"customer_name":  p.CustomerName,
		"customer_email": p.CustomerEmail,
		"customer_phone": p.CustomerPhone,
		"booking_date":   p.BookingDate,
		"booking_time":   p.BookingTime,
		"message":        p.Message,
		"status":         model.BookingStatusPending,
	})
}

func (m *BookingManager) List(ctx context.Context, limit, offset int) ([]store.Record, error) {
	records, err := m.store.Join(ctx, bookingsCollection, servicesCollection, "service_id", "id", nil)
	if err != nil {
		return nil, err
	}
	store.SortBy(records, store.OrderBy{Field: "created_at", Direction: store.DirectionDesc})
	return store.Paginate(records, limit, offset), nil
}

func (m *BookingManager) Get(ctx context.Context, id int64) (store.Record, error) {
	records, err := m.store.Join(ctx, bookingsCollection, servicesCollection, "service_id", "id", store.Conditions{"id": id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, store.ErrNotFound
	}
	return records[0], nil
}

func (m *BookingManager) UpdateStatus(ctx context.Context, id int64, status string) error {
	switch status {
	case model.BookingStatusPending, model.BookingStatusConfirmed,
		model.BookingStatusCompleted, model.BookingStatusCancelled:
	default:
		return ErrInvalidStatus
	}
	count, err := m.store.Update(ctx, bookingsCollection, store.Conditions{"id": id}, map[string]any{
		"status": status,
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (m *BookingManager) Delete(ctx context.Context, id int64) error {
	count, err := m.store.Delete(ctx, bookingsCollection, store.Conditions{"id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (m *BookingManager) Stats(ctx context.Context) (model.BookingStats, error) {
	records, err := m.store.Query(ctx, bookingsCollection)
	if err != nil {
		return model.BookingStats{}, err
	}
	var stats model.BookingStats
	for _, rec := range records {
		stats.Total++
		switch rec.String("status") {
		case model.BookingStatusPending:
			stats.Pending++
		case model.BookingStatusConfirmed:
			stats.Confirmed++
		case model.BookingStatusCompleted:
			stats.Completed++
		case model.BookingStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

// AvailableSlots returns the fixed day slots minus the ones already booked
// on that date.
func (m *BookingManager) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	booked, err := m.store.Select(ctx, bookingsCollection, store.Conditions{"booking_date": date}, store.SelectOptions{})
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(booked))
	for _, rec := range booked {
		taken[rec.String("booking_time")] = true
	}

	free := make([]string, 0, len(timeSlots))
	for _, slot := range timeSlots {
		if !taken[slot] {
			free = append(free, slot)
		}
	}
	return free, nil
}
