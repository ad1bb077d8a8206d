package crud

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jask/admindesk/internal/query"
)

// Cached keeps recently read rows in an LRU so repeated Get calls skip the
// backend. List always goes to the backend. Writes made through Cached keep
// the cache coherent; writes that bypass it are not observed. Cached rows are
// copied on the way in and out with entity.Copy.
type Cached[T any, K comparable] struct {
	next   Service[T, K]
	entity Entity[T, K]
	cache  *lru.Cache[K, T]
}

// NewCached wraps next with an LRU of the given size.
func NewCached[T any, K comparable](next Service[T, K], entity Entity[T, K], size int) (*Cached[T, K], error) {
	cache, err := lru.New[K, T](size)
	if err != nil {
		return nil, fmt.Errorf("row cache: %w", err)
	}
	return &Cached[T, K]{next: next, entity: entity, cache: cache}, nil
}

func (c *Cached[T, K]) List(ctx context.Context, opts query.Options) (query.Result[T], error) {
	return c.next.List(ctx, opts)
}

func (c *Cached[T, K]) Get(ctx context.Context, id K) (*T, error) {
	if row, ok := c.cache.Get(id); ok {
		row = c.entity.Copy(row)
		return &row, nil
	}
	row, err := c.next.Get(ctx, id)
	if err != nil || row == nil {
		return row, err
	}
	c.cache.Add(id, c.entity.Copy(*row))
	return row, nil
}

func (c *Cached[T, K]) Create(ctx context.Context, row T) (T, error) {
	created, err := c.next.Create(ctx, row)
	if err != nil {
		return created, err
	}
	c.cache.Add(c.entity.ID(created), c.entity.Copy(created))
	return created, nil
}

func (c *Cached[T, K]) Update(ctx context.Context, id K, patch Patch) (T, error) {
	c.cache.Remove(id)
	updated, err := c.next.Update(ctx, id, patch)
	if err != nil {
		return updated, err
	}
	c.cache.Add(id, c.entity.Copy(updated))
	return updated, nil
}

func (c *Cached[T, K]) Remove(ctx context.Context, id K) error {
	c.cache.Remove(id)
	return c.next.Remove(ctx, id)
}
