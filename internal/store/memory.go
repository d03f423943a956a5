package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/matthewbaird/rentroll/internal/dunning"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu         sync.RWMutex
	charges    map[uuid.UUID]dunning.Charge
	payments   map[uuid.UUID][]dunning.Payment
	reminders  map[uuid.UUID]dunning.Reminder
	templates  map[uuid.UUID]dunning.NoticeTemplate
	tenants    map[uuid.UUID]dunning.Tenant
	properties map[uuid.UUID]dunning.Property
	units      map[uuid.UUID]dunning.Unit
	client     *dunning.Client
	owner      *dunning.Owner
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		charges:    map[uuid.UUID]dunning.Charge{},
		payments:   map[uuid.UUID][]dunning.Payment{},
		reminders:  map[uuid.UUID]dunning.Reminder{},
		templates:  map[uuid.UUID]dunning.NoticeTemplate{},
		tenants:    map[uuid.UUID]dunning.Tenant{},
		properties: map[uuid.UUID]dunning.Property{},
		units:      map[uuid.UUID]dunning.Unit{},
	}
}

func (s *MemoryStore) CreateCharge(ctx context.Context, c dunning.Charge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charges[c.ID] = c
	return nil
}

func (s *MemoryStore) GetCharge(ctx context.Context, id uuid.UUID) (dunning.Charge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.charges[id]
	if !ok {
		return dunning.Charge{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) ListCharges(ctx context.Context, f ChargeFilter) ([]dunning.Charge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dunning.Charge, 0, len(s.charges))
	for _, c := range s.charges {
		if f.TenantID != uuid.Nil && c.TenantID != f.TenantID {
			continue
		}
		if f.Unsettled {
			outstanding := c.Amount.Sub(c.PaidAmount)
			if outstanding.IsZero() || outstanding.IsNegative() {
				continue
			}
		}
		if !f.OverdueAt.IsZero() && !c.DueDate.Before(f.OverdueAt) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) AddPayment(ctx context.Context, p dunning.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.charges[p.ChargeID]
	if !ok {
		return ErrNotFound
	}
	c.PaidAmount = c.PaidAmount.Add(p.Amount)
	s.charges[p.ChargeID] = c
	s.payments[p.ChargeID] = append(s.payments[p.ChargeID], p)
	return nil
}

func (s *MemoryStore) ListPayments(ctx context.Context, chargeID uuid.UUID) ([]dunning.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dunning.Payment, len(s.payments[chargeID]))
	copy(out, s.payments[chargeID])
	return out, nil
}

func (s *MemoryStore) CreateReminder(ctx context.Context, r dunning.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminders[r.ID] = r
	return nil
}

func (s *MemoryStore) GetReminder(ctx context.Context, id uuid.UUID) (dunning.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reminders[id]
	if !ok {
		return dunning.Reminder{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) ListRemindersByCharge(ctx context.Context, chargeID uuid.UUID) ([]dunning.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []dunning.Reminder
	for _, r := range s.reminders {
		if r.ChargeID == chargeID {
			out = append(out, r)
		}
	}
	sortReminders(out)
	return out, nil
}

func (s *MemoryStore) ListReminders(ctx context.Context) ([]dunning.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dunning.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		out = append(out, r)
	}
	sortReminders(out)
	return out, nil
}

func sortReminders(rs []dunning.Reminder) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].GeneratedAt.Equal(rs[j].GeneratedAt) {
			return rs[i].ID.String() < rs[j].ID.String()
		}
		return rs[i].GeneratedAt.Before(rs[j].GeneratedAt)
	})
}

func (s *MemoryStore) CreateTemplate(ctx context.Context, t dunning.NoticeTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = t
	return nil
}

func (s *MemoryStore) GetTemplate(ctx context.Context, id uuid.UUID) (dunning.NoticeTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return dunning.NoticeTemplate{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) ListTemplates(ctx context.Context) ([]dunning.NoticeTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dunning.NoticeTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) UpdateTemplate(ctx context.Context, t dunning.NoticeTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[t.ID]; !ok {
		return ErrNotFound
	}
	s.templates[t.ID] = t
	return nil
}

func (s *MemoryStore) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return ErrNotFound
	}
	delete(s.templates, id)
	return nil
}

func (s *MemoryStore) PutTenant(ctx context.Context, t dunning.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t
	return nil
}

func (s *MemoryStore) GetTenant(ctx context.Context, id uuid.UUID) (dunning.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[id]
	if !ok {
		return dunning.Tenant{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) PutProperty(ctx context.Context, p dunning.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[p.ID] = p
	return nil
}

func (s *MemoryStore) GetProperty(ctx context.Context, id uuid.UUID) (dunning.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[id]
	if !ok {
		return dunning.Property{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) PutUnit(ctx context.Context, u dunning.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUnit(ctx context.Context, id uuid.UUID) (dunning.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[id]
	if !ok {
		return dunning.Unit{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) PutClient(ctx context.Context, c dunning.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = &c
	return nil
}

func (s *MemoryStore) GetClient(ctx context.Context) (dunning.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return dunning.Client{}, ErrNotFound
	}
	return *s.client, nil
}

func (s *MemoryStore) PutOwner(ctx context.Context, o dunning.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = &o
	return nil
}

func (s *MemoryStore) GetOwner(ctx context.Context) (dunning.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.owner == nil {
		return dunning.Owner{}, ErrNotFound
	}
	return *s.owner, nil
}

func (s *MemoryStore) Close() error { return nil }
