// Package query holds the list pipeline shared by every data source: search,
// filter, sort and paginate over in-memory rows.
package query

import "math"

// FilterOp is a predicate operator.
type FilterOp string

const (
	OpEq         FilterOp = "eq"
	OpNe         FilterOp = "ne"
	OpContains   FilterOp = "contains"
	OpStartsWith FilterOp = "startsWith"
	OpIn         FilterOp = "in"
)

// Valid reports whether op is a known operator.
func (op FilterOp) Valid() bool {
	switch op {
	case OpEq, OpNe, OpContains, OpStartsWith, OpIn:
		return true
	}
	return false
}

// FilterItem is one field predicate. Items in a list combine with AND.
type FilterItem struct {
	Field string   `json:"field"`
	Op    FilterOp `json:"op"`
	Value any      `json:"value"`
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort names the field to order by. The zero value means no sort.
type Sort struct {
	Field     string    `json:"field,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

func (s Sort) IsZero() bool { return s.Field == "" }

// Flip returns the sort with the opposite direction.
func (s Sort) Flip() Sort {
	if s.Direction == Desc {
		s.Direction = Asc
	} else {
		s.Direction = Desc
	}
	return s
}

const DefaultPageSize = 10

// Page is a pagination window. Total is reported by the data source and
// counts matching rows before slicing.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"pageSize"`
	Total  int `json:"total"`
}

// DefaultPage is page 1 with the default size.
func DefaultPage() Page {
	return Page{Number: 1, Size: DefaultPageSize}
}

// Offset returns the index of the first row on the page. It saturates at
// math.MaxInt instead of overflowing for absurd page numbers.
func (p Page) Offset() int {
	n := p.Number
	if n < 1 || p.Size < 1 {
		return 0
	}
	if n-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (n - 1) * p.Size
}

// Pages returns how many pages Total spans. An empty result still has one page.
func (p Page) Pages() int {
	if p.Size < 1 || p.Total <= 0 {
		return 1
	}
	return 1 + (p.Total-1)/p.Size
}

// Options is the snapshot passed to a single list call.
type Options struct {
	Filters []FilterItem `json:"filters,omitempty"`
	Sort    Sort         `json:"sort,omitempty"`
	Page    Page         `json:"page"`
	Search  string       `json:"search,omitempty"`
}

// Result is one page of rows plus the pre-pagination total.
type Result[T any] struct {
	Rows  []T `json:"data"`
	Total int `json:"total"`
}

// Getter resolves a named field of a row. ok is false for unknown fields.
type Getter[T any] func(row T, field string) (value any, ok bool)
