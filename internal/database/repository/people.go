package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/jask/admindesk/internal/crud"
	"github.com/jask/admindesk/internal/database"
	"github.com/jask/admindesk/internal/people"
	"github.com/jask/admindesk/internal/query"
)

const maxIDAttempts = 8

var _ crud.Service[people.Person, string] = (*PersonRepo)(nil)

type columnKind int

const (
	kindText columnKind = iota
	kindBool
	kindTime
)

type column struct {
	name string
	kind columnKind
}

// accepts reports whether v has the Go type the column's field getter
// produces; values of any other type never compare equal.
func (c column) accepts(v any) bool {
	switch v.(type) {
	case string:
		return c.kind == kindText
	case bool:
		return c.kind == kindBool
	case time.Time:
		return c.kind == kindTime
	}
	return false
}

func (c column) arg(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return v
}

var personColumns = map[string]column{
	people.FieldID:          {"id", kindText},
	people.FieldFirstName:   {"first_name", kindText},
	people.FieldLastName:    {"last_name", kindText},
	people.FieldEmail:       {"email", kindText},
	people.FieldLogin:       {"login", kindText},
	people.FieldRole:        {"role", kindText},
	people.FieldStatus:      {"status", kindText},
	people.FieldTimeZone:    {"time_zone", kindText},
	people.FieldDateFormat:  {"date_format", kindText},
	people.FieldTimeFormat:  {"time_format", kindText},
	people.FieldMFAEnabled:  {"mfa_enabled", kindBool},
	people.FieldLastLogin:   {"last_login", kindTime},
	people.FieldCreatedAt:   {"created_at", kindTime},
	people.FieldInviteToken: {"invite_token", kindText},
}

var personSelect = []string{
	"id", "first_name", "last_name", "email", "login", "role", "status", "time_zone",
	"date_format", "time_format", "mfa_enabled", "last_login", "created_at", "invite_token",
}

// PersonRepo stores people in SQLite. List evaluates query.Options in SQL with
// the same results the in-memory service produces; rows without an explicit
// order keep insertion order through the position column, newest first.
type PersonRepo struct {
	db     *sql.DB
	stbl   sq.StatementBuilderType
	entity crud.Entity[people.Person, string]
}

func NewPersonRepo(db *sql.DB) *PersonRepo {
	return &PersonRepo{db: db, stbl: sq.StatementBuilder.RunWith(db), entity: people.Entity()}
}

func (r *PersonRepo) List(ctx context.Context, opts query.Options) (query.Result[people.Person], error) {
	where := sq.And{}
	if opts.Search != "" {
		where = append(where, r.searchCondition(opts.Search))
	}
	for _, f := range opts.Filters {
		where = append(where, filterCondition(f))
	}

	var total int
	if err := r.stbl.Select("COUNT(*)").From("people").Where(where).QueryRowContext(ctx).Scan(&total); err != nil {
		return query.Result[people.Person]{}, fmt.Errorf("count people: %w", err)
	}

	offset := opts.Page.Offset()
	if opts.Page.Size < 1 || offset >= total {
		return query.Result[people.Person]{Rows: []people.Person{}, Total: total}, nil
	}

	sb := r.stbl.Select(personSelect...).From("people").Where(where)
	if col, ok := personColumns[opts.Sort.Field]; ok {
		dir := "ASC"
		if opts.Sort.Direction == query.Desc {
			dir = "DESC"
		}
		sb = sb.OrderBy(col.name + " " + dir)
	}
	sb = sb.OrderBy("position ASC").
		Limit(uint64(opts.Page.Size)).
		Offset(uint64(offset))

	rows, err := sb.QueryContext(ctx)
	if err != nil {
		return query.Result[people.Person]{}, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	out := make([]people.Person, 0, min(opts.Page.Size, total-offset))
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return query.Result[people.Person]{}, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return query.Result[people.Person]{}, err
	}
	return query.Result[people.Person]{Rows: out, Total: total}, nil
}

func (r *PersonRepo) searchCondition(term string) sq.Sqlizer {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	or := sq.Or{}
	for _, key := range r.entity.SearchKeys {
		col, ok := personColumns[key]
		if !ok {
			continue
		}
		or = append(or, sq.Expr("LOWER(COALESCE("+col.name+", '')) LIKE ? ESCAPE '\\'", pattern))
	}
	return or
}

var (
	always = sq.Expr("1=1")
	never  = sq.Expr("1=0")
)

// filterCondition translates one filter. Unknown fields read as NULL, matching
// the in-memory pipeline, so they reduce to a constant.
func filterCondition(f query.FilterItem) sq.Sqlizer {
	col, ok := personColumns[f.Field]
	if !ok {
		if query.Match(nil, f) {
			return always
		}
		return never
	}
	switch f.Op {
	case query.OpEq:
		switch {
		case f.Value == nil:
			return sq.Expr(col.name + " IS NULL")
		case col.accepts(f.Value):
			return sq.Expr(col.name+" = ?", col.arg(f.Value))
		}
		return never
	case query.OpNe:
		switch {
		case f.Value == nil:
			return sq.Expr(col.name + " IS NOT NULL")
		case col.accepts(f.Value):
			return sq.Expr("("+col.name+" IS NULL OR "+col.name+" <> ?)", col.arg(f.Value))
		}
		return always
	case query.OpIn:
		values, ok := query.ListValues(f.Value)
		if !ok {
			return never
		}
		or := sq.Or{}
		var args []any
		for _, v := range values {
			switch {
			case v == nil:
				or = append(or, sq.Expr(col.name+" IS NULL"))
			case col.accepts(v):
				args = append(args, col.arg(v))
			}
		}
		if len(args) > 0 {
			or = append(or, sq.Expr(col.name+" IN ("+sq.Placeholders(len(args))+")", args...))
		}
		if len(or) == 0 {
			return never
		}
		return or
	case query.OpContains, query.OpStartsWith:
		needle, ok := f.Value.(string)
		if !ok || col.kind != kindText {
			return never
		}
		pattern := escapeLike(strings.ToLower(needle)) + "%"
		if f.Op == query.OpContains {
			pattern = "%" + pattern
		}
		return sq.Expr("LOWER("+col.name+") LIKE ? ESCAPE '\\'", pattern)
	}
	return never
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PersonRepo) Get(ctx context.Context, id string) (*people.Person, error) {
	return r.get(ctx, r.stbl, id)
}

func (r *PersonRepo) get(ctx context.Context, stbl sq.StatementBuilderType, id string) (*people.Person, error) {
	row := stbl.Select(personSelect...).From("people").Where(sq.Eq{"id": id}).QueryRowContext(ctx)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person %s: %w", id, err)
	}
	return &p, nil
}

// Create stores p under a new id ahead of every existing row.
func (r *PersonRepo) Create(ctx context.Context, p people.Person) (people.Person, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stbl := sq.StatementBuilder.RunWith(tx)
		id, err := r.freeID(ctx, stbl)
		if err != nil {
			return err
		}
		p.ID = id

		var front int64
		if err := stbl.Select("COALESCE(MIN(position), 0) - 1").From("people").QueryRowContext(ctx).Scan(&front); err != nil {
			return err
		}
		return insertPerson(ctx, stbl, p, front)
	})
	if err != nil {
		return people.Person{}, fmt.Errorf("create person: %w", err)
	}
	return p, nil
}

func (r *PersonRepo) freeID(ctx context.Context, stbl sq.StatementBuilderType) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := r.entity.NewID()
		var n int
		if err := stbl.Select("COUNT(*)").From("people").Where(sq.Eq{"id": id}).QueryRowContext(ctx).Scan(&n); err != nil {
			return "", err
		}
		if n == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("no unique id after %d attempts", maxIDAttempts)
}

// Update merges patch onto the stored row inside one transaction.
func (r *PersonRepo) Update(ctx context.Context, id string, patch crud.Patch) (people.Person, error) {
	var updated people.Person
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stbl := sq.StatementBuilder.RunWith(tx)
		current, err := r.get(ctx, stbl, id)
		if err != nil {
			return err
		}
		if current == nil {
			return crud.NotFound(r.entity.Name, id)
		}
		next := *current
		if err := r.entity.Apply(&next, patch); err != nil {
			return err
		}
		_, err = stbl.Update("people").
			SetMap(personValues(next)).
			Where(sq.Eq{"id": id}).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("update person %s: %w", id, err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return people.Person{}, err
	}
	return updated, nil
}

func (r *PersonRepo) Remove(ctx context.Context, id string) error {
	if _, err := r.stbl.Delete("people").Where(sq.Eq{"id": id}).ExecContext(ctx); err != nil {
		return fmt.Errorf("remove person %s: %w", id, err)
	}
	return nil
}

// Count returns the number of stored people.
func (r *PersonRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.stbl.Select("COUNT(*)").From("people").QueryRowContext(ctx).Scan(&n)
	return n, err
}

// Insert appends rows with their ids as given, after every existing row.
func (r *PersonRepo) Insert(ctx context.Context, rows ...people.Person) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stbl := sq.StatementBuilder.RunWith(tx)
		var next int64
		if err := stbl.Select("COALESCE(MAX(position), -1) + 1").From("people").QueryRowContext(ctx).Scan(&next); err != nil {
			return err
		}
		for i, p := range rows {
			if err := insertPerson(ctx, stbl, p, next+int64(i)); err != nil {
				return fmt.Errorf("insert person %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

func insertPerson(ctx context.Context, stbl sq.StatementBuilderType, p people.Person, position int64) error {
	values := personValues(p)
	values["id"] = p.ID
	values["position"] = position
	_, err := stbl.Insert("people").SetMap(values).ExecContext(ctx)
	return err
}

func personValues(p people.Person) map[string]any {
	var lastLogin *time.Time
	if p.LastLogin != nil {
		t := p.LastLogin.UTC()
		lastLogin = &t
	}
	return map[string]any{
		"first_name":   p.FirstName,
		"last_name":    p.LastName,
		"email":        p.Email,
		"login":        p.Login,
		"role":         string(p.Role),
		"status":       string(p.Status),
		"time_zone":    p.TimeZone,
		"date_format":  p.DateFormat,
		"time_format":  p.TimeFormat,
		"mfa_enabled":  p.MFAEnabled,
		"last_login":   lastLogin,
		"created_at":   p.CreatedAt.UTC(),
		"invite_token": p.InviteToken,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(s scanner) (people.Person, error) {
	var (
		p         people.Person
		role      string
		status    string
		lastLogin sql.NullTime
		token     sql.NullString
	)
	err := s.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Login, &role, &status, &p.TimeZone,
		&p.DateFormat, &p.TimeFormat, &p.MFAEnabled, &lastLogin, &p.CreatedAt, &token)
	if err != nil {
		return people.Person{}, err
	}
	p.Role = people.Role(role)
	p.Status = people.Status(status)
	if lastLogin.Valid {
		t := lastLogin.Time
		p.LastLogin = &t
	}
	if token.Valid {
		t := token.String
		p.InviteToken = &t
	}
	return p, nil
}
