package patients

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process patient store for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Patient
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Patient)}
}

func (s *InMemoryStore) List(_ context.Context) ([]Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Patient, 0, len(s.records))
	for _, p := range s.records {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.records[id]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return p, nil
}

func (s *InMemoryStore) Create(_ context.Context, in Input) (Patient, error) {
	now := time.Now().UTC()
	p := Patient{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Age:            in.Age,
		Address:        in.Address,
		MedicalHistory: in.MedicalHistory,
		CaretakerName:  in.CaretakerName,
		CaretakerPhone: in.CaretakerPhone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[p.ID] = p
	return p, nil
}

func (s *InMemoryStore) Update(_ context.Context, id string, in Input) (Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[id]
	if !ok {
		return Patient{}, ErrNotFound
	}
	p.Name = in.Name
	p.Age = in.Age
	p.Address = in.Address
	p.MedicalHistory = in.MedicalHistory
	p.CaretakerName = in.CaretakerName
	p.CaretakerPhone = in.CaretakerPhone
	p.UpdatedAt = time.Now().UTC()
	s.records[id] = p
	return p, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
