package crud

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jask/admindesk/internal/query"
)

const maxIDAttempts = 8

// Memory is the in-memory reference Service. It owns an ordered copy of its
// seed rows for its whole lifetime; Create inserts at the front so the newest
// row lists first when no sort is applied. Rows go in and come out through
// Entity.Copy, so callers never hold memory the store owns.
type Memory[T any, K comparable] struct {
	entity Entity[T, K]

	mu   sync.RWMutex
	rows []T
}

// NewMemory constructs a Memory service over a copy of seed.
func NewMemory[T any, K comparable](entity Entity[T, K], seed []T) *Memory[T, K] {
	return &Memory[T, K]{entity: entity, rows: entity.copyAll(seed)}
}

// List runs the query pipeline over the backing rows without mutating them.
func (m *Memory[T, K]) List(ctx context.Context, opts query.Options) (query.Result[T], error) {
	if err := ctx.Err(); err != nil {
		return query.Result[T]{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := query.Run(m.rows, opts, m.entity.SearchKeys, m.entity.Lookup)
	res.Rows = m.entity.copyAll(res.Rows)
	return res, nil
}

func (m *Memory[T, K]) Get(ctx context.Context, id K) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.indexOf(id)
	if idx < 0 {
		return nil, nil
	}
	row := m.entity.Copy(m.rows[idx])
	return &row, nil
}

// Create stores row under a newly generated id, retrying when the generator
// collides with an existing row.
func (m *Memory[T, K]) Create(ctx context.Context, row T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if m.entity.NewID == nil {
		return zero, fmt.Errorf("create %s: no id generator", m.entity.Name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := m.entity.NewID()
		if m.indexOf(id) >= 0 {
			continue
		}
		m.entity.SetID(&row, id)
		m.rows = slices.Insert(m.rows, 0, m.entity.Copy(row))
		return row, nil
	}
	return zero, fmt.Errorf("create %s: no unique id after %d attempts", m.entity.Name, maxIDAttempts)
}

func (m *Memory[T, K]) Update(ctx context.Context, id K, patch Patch) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexOf(id)
	if idx < 0 {
		return zero, NotFound(m.entity.Name, id)
	}
	next := m.entity.Copy(m.rows[idx])
	if err := m.entity.Apply(&next, patch); err != nil {
		return zero, err
	}
	m.rows[idx] = next
	return m.entity.Copy(next), nil
}

func (m *Memory[T, K]) Remove(ctx context.Context, id K) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := m.indexOf(id); idx >= 0 {
		m.rows = slices.Delete(m.rows, idx, idx+1)
	}
	return nil
}

// Len reports how many rows are stored.
func (m *Memory[T, K]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *Memory[T, K]) indexOf(id K) int {
	return slices.IndexFunc(m.rows, func(row T) bool { return m.entity.ID(row) == id })
}
