package manager

import (
	"context"

	"nananom-farms/site/internal/model"
	"nananom-farms/site/internal/store"
)

const (
	enquiriesCollection = "enquiries"
	contactsCollection  = "contact_messages"
	usersCollection     = "users"
)

// EnquiryManager covers general enquiries and contact-form messages.
type EnquiryManager struct {
	store store.Store
}

func NewEnquiryManager(st store.Store) *EnquiryManager {
	return &EnquiryManager{store: st}
}

type EnquiryParams struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (m *EnquiryManager) CreateEnquiry(ctx context.Context, p EnquiryParams) (store.Record, error) {
	return m.store.Insert(ctx, enquiriesCollection, map[string]any{
		"name":    p.Name,
		"email":   p.Email,
		"phone":   p.Phone,
		"subject": p.Subject,
		"message": p.Message,
		"status":  model.EnquiryStatusNew,
	})
}

// ListEnquiries merges the assigned user (if any) into each record under
// users_* names, newest first.
func (m *EnquiryManager) ListEnquiries(ctx context.Context, limit, offset int) ([]store.Record, error) {
	records, err := m.store.Join(ctx, enquiriesCollection, usersCollection, "assigned_to", "id", nil)
	if err != nil {
		return nil, err
	}
	stripUserSecrets(records)
	store.SortBy(records, store.OrderBy{Field: "created_at", Direction: store.DirectionDesc})
	return store.Paginate(records, limit, offset), nil
}

func (m *EnquiryManager) GetEnquiry(ctx context.Context, id int64) (store.Record, error) {
	records, err := m.store.Join(ctx, enquiriesCollection, usersCollection, "assigned_to", "id", store.Conditions{"id": id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, store.ErrNotFound
	}
	stripUserSecrets(records)
	return records[0], nil
}

func (m *EnquiryManager) UpdateEnquiryStatus(ctx context.Context, id int64, status string, assignedTo int64) error {
	switch status {
	case model.EnquiryStatusNew, model.EnquiryStatusInProgress, model.EnquiryStatusResolved:
	default:
		return ErrInvalidStatus
	}

	fields := map[string]any{"status": status}
	if assignedTo > 0 {
		fields["assigned_to"] = assignedTo
	}
	count, err := m.store.Update(ctx, enquiriesCollection, store.Conditions{"id": id}, fields)
	if err != nil {
		return err
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (m *EnquiryManager) CreateContactMessage(ctx context.Context, p EnquiryParams) (store.Record, error) {
	return m.store.Insert(ctx, contactsCollection, map[string]any{
		"name":    p.Name,
		"email":   p.Email,
		"phone":   p.Phone,
		"subject": p.Subject,
		"message": p.Message,
		"status":  model.ContactStatusNew,
	})
}

func (m *EnquiryManager) ListContactMessages(ctx context.Context, limit, offset int) ([]store.Record, error) {
	return m.store.Select(ctx, contactsCollection, nil, store.SelectOptions{
		OrderBy: &store.OrderBy{Field: "created_at", Direction: store.DirectionDesc},
		Limit:   limit,
		Offset:  offset,
	})
}

func (m *EnquiryManager) GetContactMessage(ctx context.Context, id int64) (store.Record, error) {
	return m.store.SelectOne(ctx, contactsCollection, store.Conditions{"id": id})
}

func (m *EnquiryManager) UpdateContactMessageStatus(ctx context.Context, id int64, status string) error {
	switch status {
	case model.ContactStatusNew, model.ContactStatusRead, model.ContactStatusResponded:
	default:
		return ErrInvalidStatus
	}
	count, err := m.store.Update(ctx, contactsCollection, store.Conditions{"id": id}, map[string]any{
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

func (m *EnquiryManager) EnquiryStats(ctx context.Context) (model.EnquiryStats, error) {
	records, err := m.store.Query(ctx, enquiriesCollection)
	if err != nil {
		return model.EnquiryStats{}, err
	}
	var stats model.EnquiryStats
	for _, rec := range records {
		stats.Total++
		switch rec.String("status") {
		case model.EnquiryStatusNew:
			stats.New++
		case model.EnquiryStatusInProgress:
			stats.InProgress++
		case model.EnquiryStatusResolved:
			stats.Resolved++
		}
	}
	return stats, nil
}

func (m *EnquiryManager) ContactStats(ctx context.Context) (model.ContactStats, error) {
	records, err := m.store.Query(ctx, contactsCollection)
	if err != nil {
		return model.ContactStats{}, err
	}
	var stats model.ContactStats
	for _, rec := range records {
		stats.Total++
		switch rec.String("status") {
		case model.ContactStatusNew:
			stats.New++
		case model.ContactStatusRead:
			stats.Read++
		case model.ContactStatusResponded:
			stats.Responded++
		}
	}
	return stats, nil
}

// stripUserSecrets drops sensitive joined user fields before records leave
// the manager.
func stripUserSecrets(records []store.Record) {
	for _, rec := range records {
		delete(rec, "users_password_hash")
		delete(rec, "users_login_attempts")
		delete(rec, "users_locked_until")
	}
}
