package crud

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/admindesk/internal/query"
)

type kind string

type note struct {
	ID    string
	Title string
	Kind  kind
	Done  bool
	Tag   *string
	Due   *time.Time
	Made  time.Time
}

func sequentialIDs(ids ...string) func() string {
	i := 0
	return func() string {
		if i < len(ids) {
			id := ids[i]
			i++
			return id
		}
		i++
		return fmt.Sprintf("gen-%d", i)
	}
}

func noteEntity(newID func() string) Entity[note, string] {
	return Entity[note, string]{
		Name:    "note",
		IDField: "id",
		ID:      func(n note) string { return n.ID },
		SetID:   func(n *note, id string) { n.ID = id },
		NewID:   newID,
		Clone:   cloneNote,
		Fields: map[string]Field[note]{
			"id":    ReadOnly(func(n note) any { return n.ID }),
			"title": Text(func(n note) string { return n.Title }, func(n *note, v string) { n.Title = v }),
			"kind":  Text(func(n note) kind { return n.Kind }, func(n *note, v kind) { n.Kind = v }),
			"done":  Flag(func(n note) bool { return n.Done }, func(n *note, v bool) { n.Done = v }),
			"tag":   OptionalText(func(n note) *string { return n.Tag }, func(n *note, v *string) { n.Tag = v }),
			"due":   OptionalTimestamp(func(n note) *time.Time { return n.Due }, func(n *note, v *time.Time) { n.Due = v }),
			"made":  Timestamp(func(n note) time.Time { return n.Made }, func(n *note, v time.Time) { n.Made = v }),
		},
		SearchKeys: []string{"title", "kind"},
	}
}

func cloneNote(n note) note {
	if n.Tag != nil {
		tag := *n.Tag
		n.Tag = &tag
	}
	if n.Due != nil {
		due := *n.Due
		n.Due = &due
	}
	return n
}

func seedNotes() []note {
	return []note{
		{ID: "a", Title: "Buy milk", Kind: "errand"},
		{ID: "b", Title: "Write report", Kind: "work", Done: true},
		{ID: "c", Title: "Call plumber", Kind: "errand"},
	}
}

func TestMemoryListDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(noteEntity(nil), seedNotes())

	res, err := m.List(ctx, query.Options{
		Sort: query.Sort{Field: "title", Direction: query.Asc},
		Page: query.Page{Number: 1, Size: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	require.Len(t, res.Rows, 2)
	require.Equal(t, "Buy milk", res.Rows[0].Title)
	require.Equal(t, "Call plumber", res.Rows[1].Title)

	all, err := m.List(ctx, query.Options{Page: query.Page{Number: 1, Size: 10}})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, []string{all.Rows[0].ID, all.Rows[1].ID, all.Rows[2].ID})
}

func TestMemoryListNamedStringFilter(t *testing.T) {
	m := NewMemory(noteEntity(nil), seedNotes())
	res, err := m.List(context.Background(), query.Options{
		Filters: []query.FilterItem{{Field: "kind", Op: query.OpEq, Value: "errand"}},
		Page:    query.DefaultPage(),
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
}

func TestMemoryListEmptyIsNotAnError(t *testing.T) {
	m := NewMemory(noteEntity(nil), nil)
	res, err := m.List(context.Background(), query.Options{Search: "nothing", Page: query.DefaultPage()})
	require.NoError(t, err)
	require.Empty(t, res.Rows)
	require.Zero(t, res.Total)
}

func TestMemoryCreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(noteEntity(sequentialIDs("n1")), seedNotes())

	created, err := m.Create(ctx, note{Title: "Plan trip", Kind: "home"})
	require.NoError(t, err)
	require.Equal(t, "n1", created.ID)

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, note{ID: "n1", Title: "Plan trip", Kind: "home"}, *got)

	res, err := m.List(ctx, query.Options{Page: query.DefaultPage()})
	require.NoError(t, err)
	require.Equal(t, "n1", res.Rows[0].ID, "created rows list first")
}

func TestMemoryCreateRetriesCollisions(t *testing.T) {
	m := NewMemory(noteEntity(sequentialIDs("a", "b", "fresh")), seedNotes())
	created, err := m.Create(context.Background(), note{Title: "x"})
	require.NoError(t, err)
	require.Equal(t, "fresh", created.ID)
	require.Equal(t, 4, m.Len())
}

func TestMemoryCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	m := NewMemory(noteEntity(func() string { return "a" }), seedNotes())
	_, err := m.Create(context.Background(), note{Title: "x"})
	require.Error(t, err)
	require.Equal(t, 3, m.Len())
}

func TestMemoryGetMissingReturnsNil(t *testing.T) {
	m := NewMemory(noteEntity(nil), seedNotes())
	got, err := m.Get(context.Background(), "zzz")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMemoryUpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(noteEntity(nil), seedNotes())
	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	updated, err := m.Update(ctx, "b", Patch{"done": false, "tag": "q1", "due": due})
	require.NoError(t, err)
	require.False(t, updated.Done)
	require.Equal(t, "Write report", updated.Title)
	require.NotNil(t, updated.Tag)
	require.Equal(t, "q1", *updated.Tag)
	require.True(t, updated.Due.Equal(due))

	cleared, err := m.Update(ctx, "b", Patch{"tag": nil})
	require.NoError(t, err)
	require.Nil(t, cleared.Tag)
}

func TestMemoryUpdateMissing(t *testing.T) {
	m := NewMemory(noteEntity(nil), seedNotes())
	_, err := m.Update(context.Background(), "nope", Patch{"title": "x"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdateRejectsBadFields(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(noteEntity(nil), seedNotes())

	_, err := m.Update(ctx, "a", Patch{"titel": "x"})
	require.ErrorIs(t, err, ErrInvalidField)
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "title", fe.Suggestion)

	_, err = m.Update(ctx, "a", Patch{"id": "z"})
	require.ErrorIs(t, err, ErrInvalidField)

	_, err = m.Update(ctx, "a", Patch{"done": "yes"})
	require.ErrorIs(t, err, ErrInvalidField)

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "Buy milk", got.Title)
	require.False(t, got.Done)
}

func TestMemoryRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(noteEntity(nil), seedNotes())

	require.NoError(t, m.Remove(ctx, "a"))
	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	require.Nil(t, got)
	require.NoError(t, m.Remove(ctx, "a"))
	require.Equal(t, 2, m.Len())
}

func TestMemoryOwnsItsSeed(t *testing.T) {
	seed := seedNotes()
	m := NewMemory(noteEntity(nil), seed)
	_, err := m.Update(context.Background(), "a", Patch{"title": "changed"})
	require.NoError(t, err)
	require.Equal(t, "Buy milk", seed[0].Title)
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory(noteEntity(nil), seedNotes())
	_, err := m.List(ctx, query.Options{Page: query.DefaultPage()})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, m.Remove(ctx, "a"), context.Canceled)
	require.Equal(t, 3, m.Len())
}

func TestEntitySuggest(t *testing.T) {
	e := noteEntity(nil)
	require.Equal(t, "title", e.Suggest("titl"))
	require.Equal(t, "done", e.Suggest("dne"))
	require.Equal(t, "", e.Suggest("completely-unrelated"))
	require.NoError(t, e.CheckField("kind"))
	require.ErrorIs(t, e.CheckField("knd"), ErrInvalidField)
}

func TestEntityLookupNormalisesNamedStrings(t *testing.T) {
	e := noteEntity(nil)
	v, ok := e.Lookup(note{Kind: "work"}, "kind")
	require.True(t, ok)
	require.Equal(t, "work", v)
	_, ok = e.Lookup(note{}, "missing")
	require.False(t, ok)
}

func TestEnumRejectsValuesOutsideTheSet(t *testing.T) {
	f := Enum(func(n note) kind { return n.Kind }, func(n *note, v kind) { n.Kind = v }, "errand", "work")
	e := noteEntity(nil)
	e.Fields["kind"] = f

	var n note
	require.NoError(t, e.Apply(&n, Patch{"kind": "work"}))
	require.Equal(t, kind("work"), n.Kind)

	err := e.Apply(&n, Patch{"kind": "holiday"})
	require.ErrorIs(t, err, ErrInvalidField)
	require.Contains(t, err.Error(), `"holiday" is not one of [errand work]`)
	require.Equal(t, kind("work"), n.Kind)

	err = e.Apply(&n, Patch{"kind": 3})
	require.ErrorIs(t, err, ErrInvalidField)
	require.Contains(t, err.Error(), "wrong value type int")
}

func TestMemoryRowsAreDetached(t *testing.T) {
	ctx := context.Background()
	tag := "home"
	seed := []note{{ID: "a", Title: "Buy milk", Tag: &tag}}
	m := NewMemory(noteEntity(sequentialIDs("n1")), seed)
	tag = "changed after seeding"

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "home", *got.Tag)
	*got.Tag = "changed through get"

	res, err := m.List(ctx, query.Options{Page: query.DefaultPage()})
	require.NoError(t, err)
	require.Equal(t, "home", *res.Rows[0].Tag)
	*res.Rows[0].Tag = "changed through list"

	updated, err := m.Update(ctx, "a", Patch{"title": "Buy oat milk"})
	require.NoError(t, err)
	*updated.Tag = "changed through update"

	due := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	created, err := m.Create(ctx, note{Title: "Dentist", Due: &due})
	require.NoError(t, err)
	due = due.Add(time.Hour)
	*created.Due = time.Time{}

	stored, err := m.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "home", *stored.Tag)
	require.Equal(t, "Buy oat milk", stored.Title)

	fresh, err := m.Get(ctx, "n1")
	require.NoError(t, err)
	require.True(t, fresh.Due.Equal(time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)))
}
