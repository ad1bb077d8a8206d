// Package broker keeps the list, query and selection state a CRUD view renders
// from, and sequences calls against a crud.Service to keep that state in step
// with the backend.
//
// Every mutator that changes a query parameter re-fetches. Fetch failures are
// recorded in the state instead of being returned; mutation failures are both
// recorded and returned. Overlapping fetches are resolved by a request
// sequence number: only the latest issued fetch may commit.
package broker

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jask/admindesk/internal/crud"
	"github.com/jask/admindesk/internal/query"
)

type config struct {
	logger   *log.Logger
	pageSize int
	initial  query.Options
}

// Option configures a Broker.
type Option func(*config)

// WithLogger routes broker diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPageSize sets the initial page size.
func WithPageSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithQuery starts the broker with the search, filters and sort of q, so the
// first Fetch already reflects a restored view. Page fields are ignored.
func WithQuery(q query.Options) Option {
	return func(c *config) {
		c.initial = q
	}
}

type subscription[T any] struct {
	id int
	fn func(State[T])
}

// Broker is the state machine behind one CRUD view. It is safe for concurrent
// use.
type Broker[T any, K comparable] struct {
	svc  crud.Service[T, K]
	idOf func(T) K
	log  *log.Logger

	mu       sync.Mutex
	state    State[T]
	selected map[K]struct{}
	seq      uint64
	subs     []subscription[T]
	nextSub  int
}

// New returns an idle broker bound to svc. idOf identifies rows for selection.
func New[T any, K comparable](svc crud.Service[T, K], idOf func(T) K, opts ...Option) *Broker[T, K] {
	cfg := config{logger: log.New(io.Discard), pageSize: query.DefaultPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Broker[T, K]{
		svc:      svc,
		idOf:     idOf,
		log:      cfg.logger,
		selected: make(map[K]struct{}),
		state: State[T]{
			Status:  StatusIdle,
			Search:  cfg.initial.Search,
			Filters: slices.Clone(cfg.initial.Filters),
			Sort:    cfg.initial.Sort,
			Page:    query.Page{Number: 1, Size: cfg.pageSize},
		},
	}
}

// Service returns the bound service.
func (b *Broker[T, K]) Service() crud.Service[T, K] { return b.svc }

// State returns a copy of the current state.
func (b *Broker[T, K]) State() State[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.clone()
}

// Subscribe registers fn to receive a snapshot after every state change.
// Listeners run on the goroutine that made the change and must not block.
func (b *Broker[T, K]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs = append(b.subs, subscription[T]{id: id, fn: fn})
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs = slices.DeleteFunc(b.subs, func(s subscription[T]) bool { return s.id == id })
	}
}

// mutate applies fn under the lock and, when fn reports a change, notifies
// subscribers with the resulting snapshot.
func (b *Broker[T, K]) mutate(fn func(s *State[T]) bool) {
	b.mu.Lock()
	if !fn(&b.state) {
		b.mu.Unlock()
		return
	}
	b.state.Version++
	snap := b.state.clone()
	subs := slices.Clone(b.subs)
	b.mu.Unlock()
	for _, s := range subs {
		s.fn(snap)
	}
}

// Fetch lists the current page. On success items and total are replaced; on
// failure they are kept and the error message is recorded. A response that
// arrives after a newer Fetch was issued is dropped.
func (b *Broker[T, K]) Fetch(ctx context.Context) {
	var (
		seq  uint64
		opts query.Options
	)
	b.mutate(func(s *State[T]) bool {
		b.seq++
		seq = b.seq
		s.Status = StatusLoading
		s.Err = ""
		opts = s.Options()
		return true
	})

	res, err := b.svc.List(ctx, opts)

	b.mutate(func(s *State[T]) bool {
		if seq != b.seq {
			b.log.Debug("dropping stale list response", "seq", seq, "latest", b.seq)
			return false
		}
		if err != nil {
			s.Status = StatusError
			s.Err = err.Error()
			b.log.Warn("list failed", "err", err)
			return true
		}
		s.Items = res.Rows
		s.Page.Total = res.Total
		s.Status = StatusSuccess
		b.log.Debug("list committed", "seq", seq, "rows", len(res.Rows), "total", res.Total)
		return true
	})
}

// SetSearch replaces the search term, returns to page 1 and re-fetches.
func (b *Broker[T, K]) SetSearch(ctx context.Context, term string) {
	b.mutate(func(s *State[T]) bool {
		s.Search = term
		s.Page.Number = 1
		return true
	})
	b.Fetch(ctx)
}

// SetFilters replaces the filter list, returns to page 1 and re-fetches.
func (b *Broker[T, K]) SetFilters(ctx context.Context, filters []query.FilterItem) {
	b.mutate(func(s *State[T]) bool {
		s.Filters = slices.Clone(filters)
		s.Page.Number = 1
		return true
	})
	b.Fetch(ctx)
}

// SetSort sorts ascending by field, or flips the direction when field is
// already the sort field, then re-fetches.
func (b *Broker[T, K]) SetSort(ctx context.Context, field string) {
	b.mutate(func(s *State[T]) bool {
		if s.Sort.Field != field {
			s.Sort = query.Sort{Field: field, Direction: query.Asc}
		} else {
			s.Sort = s.Sort.Flip()
		}
		s.Page.Number = 1
		return true
	})
	b.Fetch(ctx)
}

// SetPage navigates to page n and re-fetches.
func (b *Broker[T, K]) SetPage(ctx context.Context, n int) {
	b.mutate(func(s *State[T]) bool {
		s.Page.Number = max(n, 1)
		return true
	})
	b.Fetch(ctx)
}

// SetPageSize changes the page size, returns to page 1 and re-fetches.
func (b *Broker[T, K]) SetPageSize(ctx context.Context, n int) {
	b.mutate(func(s *State[T]) bool {
		s.Page.Size = max(n, 1)
		s.Page.Number = 1
		return true
	})
	b.Fetch(ctx)
}

// Select adds row to, or removes it from, the selection. Rows are matched by
// id; the selection keeps insertion order and is not touched by Fetch.
func (b *Broker[T, K]) Select(row T, on bool) {
	id := b.idOf(row)
	b.mutate(func(s *State[T]) bool {
		_, present := b.selected[id]
		switch {
		case on && !present:
			b.selected[id] = struct{}{}
			s.Selection = append(s.Selection, row)
		case !on && present:
			delete(b.selected, id)
			s.Selection = slices.DeleteFunc(s.Selection, func(r T) bool { return b.idOf(r) == id })
		default:
			return false
		}
		return true
	})
}

// IsSelected reports whether id is selected.
func (b *Broker[T, K]) IsSelected(id K) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.selected[id]
	return ok
}

// SelectedIDs returns the selected ids in selection order.
func (b *Broker[T, K]) SelectedIDs() []K {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]K, len(b.state.Selection))
	for i, row := range b.state.Selection {
		ids[i] = b.idOf(row)
	}
	return ids
}

// ClearSelection empties the selection.
func (b *Broker[T, K]) ClearSelection() {
	b.mutate(func(s *State[T]) bool {
		if len(s.Selection) == 0 {
			return false
		}
		clear(b.selected)
		s.Selection = nil
		return true
	})
}

// Create stores row through the service and re-fetches.
func (b *Broker[T, K]) Create(ctx context.Context, row T) (T, error) {
	b.saving()
	created, err := b.svc.Create(ctx, row)
	if err != nil {
		b.fail("create", err)
		return created, err
	}
	b.Fetch(ctx)
	return created, nil
}

// Update merges patch onto the row with the given id and re-fetches.
func (b *Broker[T, K]) Update(ctx context.Context, id K, patch crud.Patch) (T, error) {
	b.saving()
	updated, err := b.svc.Update(ctx, id, patch)
	if err != nil {
		b.fail("update", err)
		return updated, err
	}
	b.Fetch(ctx)
	return updated, nil
}

// Remove deletes the row with the given id and re-fetches.
func (b *Broker[T, K]) Remove(ctx context.Context, id K) error {
	b.saving()
	if err := b.svc.Remove(ctx, id); err != nil {
		b.fail("remove", err)
		return err
	}
	b.Fetch(ctx)
	return nil
}

func (b *Broker[T, K]) saving() {
	b.mutate(func(s *State[T]) bool {
		s.Status = StatusSaving
		s.Err = ""
		return true
	})
}

func (b *Broker[T, K]) fail(op string, err error) {
	b.log.Warn("mutation failed", "op", op, "err", err)
	b.mutate(func(s *State[T]) bool {
		s.Status = StatusError
		s.Err = err.Error()
		return true
	})
}
