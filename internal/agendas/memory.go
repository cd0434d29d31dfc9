package agendas

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*Agenda
	byKey map[string]uuid.UUID
}

// NewMemoryRepository constructs an in-memory agenda repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:  make(map[uuid.UUID]*Agenda),
		byKey: make(map[string]uuid.UUID),
	}
}

func (m *memoryRepository) Create(_ context.Context, agenda *Agenda) (*Agenda, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneAgenda(agenda)
	m.byID[cloned.ID] = cloned
	m.byKey[cloned.Key] = cloned.ID
	return cloneAgenda(cloned), nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Agenda, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "agenda", Key: id.String()}
	}
	return cloneAgenda(record), nil
}

func (m *memoryRepository) GetByKey(_ context.Context, key string) (*Agenda, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byKey[key]
	if !ok {
		return nil, &NotFoundError{Resource: "agenda", Key: key}
	}
	return cloneAgenda(m.byID[id]), nil
}

func (m *memoryRepository) List(_ context.Context) ([]*Agenda, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Agenda, 0, len(m.byID))
	for _, record := range m.byID {
		records = append(records, cloneAgenda(record))
	}
	slices.SortFunc(records, func(a, b *Agenda) int {
		return strings.Compare(a.Key, b.Key)
	})
	return records, nil
}

func (m *memoryRepository) Update(_ context.Context, agenda *Agenda) (*Agenda, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[agenda.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "agenda", Key: agenda.ID.String()}
	}
	if existing.Key != agenda.Key {
		delete(m.byKey, existing.Key)
	}
	cloned := cloneAgenda(agenda)
	m.byID[cloned.ID] = cloned
	m.byKey[cloned.Key] = cloned.ID
	return cloneAgenda(cloned), nil
}

func (m *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[id]
	if !ok {
		return &NotFoundError{Resource: "agenda", Key: id.String()}
	}
	delete(m.byKey, existing.Key)
	delete(m.byID, id)
	return nil
}
