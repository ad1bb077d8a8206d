package query

import (
	"slices"
	"strings"
)

// Run applies search, filters, sort and pagination in that order.
func Run[T any](rows []T, opts Options, searchKeys []string, get Getter[T]) Result[T] {
	out := ApplySearch(rows, opts.Search, searchKeys, get)
	out = ApplyFilters(out, opts.Filters, get)
	out = ApplySort(out, opts.Sort, get)
	return Paginate(out, opts.Page)
}

// ApplySearch keeps rows where any of keys contains term, ignoring case.
// An empty term returns rows unchanged.
func ApplySearch[T any](rows []T, term string, keys []string, get Getter[T]) []T {
	if term == "" {
		return rows
	}
	q := strings.ToLower(term)
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		for _, k := range keys {
			v, _ := get(r, k)
			if strings.Contains(strings.ToLower(Stringify(v)), q) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// ApplyFilters keeps rows satisfying every filter, preserving order.
func ApplyFilters[T any](rows []T, filters []FilterItem, get Getter[T]) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if matchesAll(r, filters, get) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll[T any](row T, filters []FilterItem, get Getter[T]) bool {
	for _, f := range filters {
		v, _ := get(row, f.Field)
		if !Match(v, f) {
			return false
		}
	}
	return true
}

// Match evaluates one filter against a field value. Operators that do not
// apply to the value types evaluate to false.
func Match(v any, f FilterItem) bool {
	switch f.Op {
	case OpEq:
		return Equal(v, f.Value)
	case OpNe:
		return !Equal(v, f.Value)
	case OpIn:
		values, ok := ListValues(f.Value)
		if !ok {
			return false
		}
		for _, candidate := range values {
			if Equal(v, candidate) {
				return true
			}
		}
		return false
	case OpContains, OpStartsWith:
		s, ok := v.(string)
		if !ok {
			return false
		}
		needle, ok := f.Value.(string)
		if !ok {
			return false
		}
		s, needle = strings.ToLower(s), strings.ToLower(needle)
		if f.Op == OpContains {
			return strings.Contains(s, needle)
		}
		return strings.HasPrefix(s, needle)
	}
	return false
}

// ApplySort returns rows stably ordered by the sort field. A zero sort returns
// the input slice itself.
func ApplySort[T any](rows []T, s Sort, get Getter[T]) []T {
	if s.IsZero() {
		return rows
	}
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b T) int {
		av, _ := get(a, s.Field)
		bv, _ := get(b, s.Field)
		c := Compare(av, bv)
		if s.Direction == Desc {
			return -c
		}
		return c
	})
	return out
}

// Paginate slices one page out of rows. Total is len(rows); pages past the end
// are empty.
func Paginate[T any](rows []T, p Page) Result[T] {
	start := min(p.Offset(), len(rows))
	end := start + min(max(p.Size, 0), len(rows)-start)
	data := make([]T, end-start)
	copy(data, rows[start:end])
	return Result[T]{Rows: data, Total: len(rows)}
}
