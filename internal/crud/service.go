// Package crud defines the data-source contract behind a broker, the typed
// entity descriptors that replace dynamic field access, and the in-memory
// reference implementation.
package crud

import (
	"context"

	"github.com/jask/admindesk/internal/query"
)

// Service is the capability any row source must provide.
//
// List never fails for an empty result. Get returns nil, nil when the id is
// absent. Create assigns a fresh id. Update merges patch fields onto the
// stored row and fails with ErrNotFound for unknown ids. Remove is idempotent.
type Service[T any, K comparable] interface {
	List(ctx context.Context, opts query.Options) (query.Result[T], error)
	Get(ctx context.Context, id K) (*T, error)
	Create(ctx context.Context, row T) (T, error)
	Update(ctx context.Context, id K, patch Patch) (T, error)
	Remove(ctx context.Context, id K) error
}

// Patch is a partial row keyed by field name. Fields are the unit of overwrite.
type Patch map[string]any
