package manager

import (
	"context"
	"errors"

	"nananom-farms/site/internal/model"
	"nananom-farms/site/internal/store"
)

var ErrInvalidStatus = errors.New("invalid_status")

const servicesCollection = "services"

// ServiceManager is a thin CRUD layer over the services collection.
type ServiceManager struct {
	store store.Store
}

func NewServiceManager(st store.Store) *ServiceManager {
	return &ServiceManager{store: st}
}

type ServiceParams struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DurationMinutes int64   `json:"duration_minutes"`
}

func (m *ServiceManager) Create(ctx context.Context, p ServiceParams) (model.Service, error) {
	rec, err := m.store.Insert(ctx, servicesCollection, map[string]any{
		"name":             p.Name,
		"description":      p.Description,
		"price":            p.Price,
		"duration_minutes": p.DurationMinutes,
		"status":           model.ServiceStatusActive,
	})
	if err != nil {
		return model.Service{}, err
	}
	return model.ServiceFromRecord(rec), nil
}

func (m *ServiceManager) List(ctx context.Context, activeOnly bool) ([]model.Service, error) {
	var conds store.Conditions
	if activeOnly {
		conds = store.Conditions{"status": model.ServiceStatusActive}
	}
	records, err := m.store.Select(ctx, servicesCollection, conds, store.SelectOptions{
		OrderBy: &store.OrderBy{Field: "name"},
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Service, 0, len(records))
	for _, rec := range records {
		out = append(out, model.ServiceFromRecord(rec))
	}
	return out, nil
}

func (m *ServiceManager) Get(ctx context.Context, id int64) (model.Service, error) {
	rec, err := m.store.SelectOne(ctx, servicesCollection, store.Conditions{"id": id})
	if err != nil {
		return model.Service{}, err
	}
	return model.ServiceFromRecord(rec), nil
}

func (m *ServiceManager) Update(ctx context.Context, id int64, p ServiceParams) error {
	count, err := m.store.Update(ctx, servicesCollection, store.Conditions{"id": id}, map[string]any{
		"name":             p.Name,
		"description":      p.Description,
		"price":            p.Price,
		"duration_minutes": p.DurationMinutes,
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (m *ServiceManager) ToggleStatus(ctx context.Context, id int64) error {
	svc, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	status := model.ServiceStatusActive
	if svc.Status == model.ServiceStatusActive {
		status = model.ServiceStatusInactive
	}
	_, err = m.store.Update(ctx, servicesCollection, store.Conditions{"id": id}, map[string]any{
		"status": status,
	})
	return err
}

func (m *ServiceManager) Delete(ctx context.Context, id int64) error {
	count, err := m.store.Delete(ctx, servicesCollection, store.Conditions{"id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return nil
}
