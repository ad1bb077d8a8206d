package broker

import (
	"slices"

	"github.com/jask/admindesk/internal/query"
)

// Status is the broker's single source of truth for loading and error
// indication.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSaving  Status = "saving"
	StatusError   Status = "error"
	StatusSuccess Status = "success"
)

// Busy reports whether a call is in flight.
func (s Status) Busy() bool { return s == StatusLoading || s == StatusSaving }

// State is a snapshot of everything a view renders from. Version grows by
// one with every committed change, so of two snapshots the one with the
// larger Version is newer.
type State[T any] struct {
	Version   uint64
	Status    Status
	Err       string
	Items     []T
	Selection []T
	Search    string
	Filters   []query.FilterItem
	Sort      query.Sort
	Page      query.Page
}

func (s State[T]) clone() State[T] {
	s.Items = slices.Clone(s.Items)
	s.Selection = slices.Clone(s.Selection)
	s.Filters = slices.Clone(s.Filters)
	return s
}

// NewerThan reports whether s was taken after other.
func (s State[T]) NewerThan(other State[T]) bool {
	return s.Version > other.Version
}

// Options returns the list options the state describes.
func (s State[T]) Options() query.Options {
	return query.Options{
		Filters: slices.Clone(s.Filters),
		Sort:    s.Sort,
		Page:    s.Page,
		Search:  s.Search,
	}
}
