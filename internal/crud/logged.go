package crud

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jask/admindesk/internal/query"
)

// Logged reports every call to the wrapped Service: successes at debug level,
// failures at warn.
type Logged[T any, K comparable] struct {
	next Service[T, K]
	log  *log.Logger
	name string
}

func NewLogged[T any, K comparable](next Service[T, K], logger *log.Logger, name string) *Logged[T, K] {
	return &Logged[T, K]{next: next, log: logger, name: name}
}

func (l *Logged[T, K]) List(ctx context.Context, opts query.Options) (query.Result[T], error) {
	start := time.Now()
	res, err := l.next.List(ctx, opts)
	l.report("list", start, err, "search", opts.Search, "filters", len(opts.Filters), "page", opts.Page.Number, "total", res.Total)
	return res, err
}

func (l *Logged[T, K]) Get(ctx context.Context, id K) (*T, error) {
	start := time.Now()
	row, err := l.next.Get(ctx, id)
	l.report("get", start, err, "id", id, "found", row != nil)
	return row, err
}

func (l *Logged[T, K]) Create(ctx context.Context, row T) (T, error) {
	start := time.Now()
	created, err := l.next.Create(ctx, row)
	l.report("create", start, err)
	return created, err
}

func (l *Logged[T, K]) Update(ctx context.Context, id K, patch Patch) (T, error) {
	start := time.Now()
	updated, err := l.next.Update(ctx, id, patch)
	l.report("update", start, err, "id", id, "fields", len(patch))
	return updated, err
}

func (l *Logged[T, K]) Remove(ctx context.Context, id K) error {
	start := time.Now()
	err := l.next.Remove(ctx, id)
	l.report("remove", start, err, "id", id)
	return err
}

func (l *Logged[T, K]) report(op string, start time.Time, err error, keyvals ...any) {
	keyvals = append([]any{"service", l.name, "op", op, "took", time.Since(start)}, keyvals...)
	if err != nil {
		l.log.Warn("service call failed", append(keyvals, "err", err)...)
		return
	}
	l.log.Debug("service call", keyvals...)
}
