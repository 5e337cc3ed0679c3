package history

import (
	"context"
	"sort"
	"sync"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	records     []Record // ordered by CreatedAt, oldest first
	byID        map[string]int
	idempotency map[string]string // key -> record ID
}

func NewMemory() *Memory {
	return &Memory{
		byID:        make(map[string]int),
		idempotency: make(map[string]string),
	}
}

func (m *Memory) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[rec.ID]; ok {
		return ErrDuplicateID
	}
	if rec.IdempotencyKey != "" {
		if _, ok := m.idempotency[rec.IdempotencyKey]; ok {
			return ErrDuplicateIdempotencyKey
		}
	}

	rec = cloneRecord(rec)
	i := sort.Search(len(m.records), func(i int) bool {
		return m.records[i].CreatedAt.After(rec.CreatedAt)
	})
	m.records = append(m.records, Record{})
	copy(m.records[i+1:], m.records[i:])
	m.records[i] = rec
	m.reindexLocked()

	if rec.IdempotencyKey != "" {
		m.idempotency[rec.IdempotencyKey] = rec.ID
	}
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(m.records[i]), nil
}

func (m *Memory) GetByIdempotencyKey(ctx context.Context, key string) (Record, error) {
	m.mu.RLock()
	id, ok := m.idempotency[key]
	m.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *Memory) List(_ context.Context, f Filter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for i := len(m.records) - 1; i >= 0; i-- {
		rec := m.records[i]
		if f.TaxYear != "" && rec.TaxYear != f.TaxYear {
			continue
		}
		out = append(out, cloneRecord(rec))
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	if key := m.records[i].IdempotencyKey; key != "" {
		delete(m.idempotency, key)
	}
	m.records = append(m.records[:i], m.records[i+1:]...)
	m.reindexLocked()
	return nil
}

func (m *Memory) reindexLocked() {
	m.byID = make(map[string]int, len(m.records))
	for i, r := range m.records {
		m.byID[r.ID] = i
	}
}

func cloneRecord(r Record) Record {
	r.Inputs = append([]byte(nil), r.Inputs...)
	r.Result = append([]byte(nil), r.Result...)
	return r
}
