package broker

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/admindesk/internal/crud"
	"github.com/jask/admindesk/internal/query"
)

type member struct {
	ID   string
	Name string
	Team string
}

func memberID(m member) string { return m.ID }

func memberEntity() crud.Entity[member, string] {
	n := 0
	return crud.Entity[member, string]{
		Name:    "member",
		IDField: "id",
		ID:      memberID,
		SetID:   func(m *member, id string) { m.ID = id },
		NewID: func() string {
			n++
			return "new-" + string(rune('a'+n-1))
		},
		Fields: map[string]crud.Field[member]{
			"id":   crud.ReadOnly(func(m member) any { return m.ID }),
			"name": crud.Text(func(m member) string { return m.Name }, func(m *member, v string) { m.Name = v }),
			"team": crud.Text(func(m member) string { return m.Team }, func(m *member, v string) { m.Team = v }),
		},
		SearchKeys: []string{"name", "team"},
	}
}

func seedMembers() []member {
	return []member{
		{ID: "1", Name: "Carmen", Team: "ops"},
		{ID: "2", Name: "Alice", Team: "dev"},
		{ID: "3", Name: "Berta", Team: "ops"},
		{ID: "4", Name: "David", Team: "dev"},
		{ID: "5", Name: "Ethan", Team: "sales"},
	}
}

// fakeService counts List calls and can be told to fail or to park a list
// call until released.
type fakeService struct {
	crud.Service[member, string]

	mu        sync.Mutex
	lists     int
	listErr   error
	updateErr error

	parkSearch string
	parked     chan struct{}
	release    chan struct{}
}

func newFake() *fakeService {
	return &fakeService{Service: crud.NewMemory(memberEntity(), seedMembers())}
}

func (f *fakeService) List(ctx context.Context, opts query.Options) (query.Result[member], error) {
	f.mu.Lock()
	f.lists++
	err := f.listErr
	park := f.parkSearch != "" && opts.Search == f.parkSearch
	f.mu.Unlock()
	if park {
		close(f.parked)
		<-f.release
	}
	if err != nil {
		return query.Result[member]{}, err
	}
	return f.Service.List(ctx, opts)
}

func (f *fakeService) Update(ctx context.Context, id string, patch crud.Patch) (member, error) {
	f.mu.Lock()
	err := f.updateErr
	f.mu.Unlock()
	if err != nil {
		return member{}, err
	}
	return f.Service.Update(ctx, id, patch)
}

func (f *fakeService) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func names(rows []member) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestNewBrokerIsIdle(t *testing.T) {
	b := New[member, string](newFake(), memberID)
	st := b.State()
	require.Equal(t, StatusIdle, st.Status)
	require.Equal(t, 1, st.Page.Number)
	require.Equal(t, query.DefaultPageSize, st.Page.Size)
	require.Empty(t, st.Items)
}

func TestFetchLoadsFirstPage(t *testing.T) {
	b := New[member, string](newFake(), memberID, WithPageSize(2))
	b.Fetch(context.Background())

	st := b.State()
	require.Equal(t, StatusSuccess, st.Status)
	require.Equal(t, 5, st.Page.Total)
	require.Equal(t, []string{"Carmen", "Alice"}, names(st.Items))
	require.Equal(t, 3, st.Page.Pages())
}

func TestWithQueryRestoresView(t *testing.T) {
	svc := newFake()
	b := New[member, string](svc, memberID, WithQuery(query.Options{
		Search:  "o",
		Filters: []query.FilterItem{{Field: "team", Op: query.OpEq, Value: "ops"}},
		Sort:    query.Sort{Field: "name", Direction: query.Desc},
		Page:    query.Page{Number: 4},
	}))
	st := b.State()
	require.Equal(t, StatusIdle, st.Status)
	require.Equal(t, 1, st.Page.Number)
	require.Zero(t, svc.lists)

	b.Fetch(context.Background())
	require.Equal(t, []string{"Carmen", "Berta"}, names(b.State().Items))
	require.Equal(t, 1, svc.lists)
}

func TestSetSortTogglesDirection(t *testing.T) {
	ctx := context.Background()
	svc := newFake()
	b := New[member, string](svc, memberID)

	b.SetSort(ctx, "name")
	require.Equal(t, 1, svc.listCount())
	st := b.State()
	require.Equal(t, query.Sort{Field: "name", Direction: query.Asc}, st.Sort)
	require.Equal(t, []string{"Alice", "Berta", "Carmen", "David", "Ethan"}, names(st.Items))

	b.SetSort(ctx, "name")
	require.Equal(t, 2, svc.listCount())
	st = b.State()
	require.Equal(t, query.Desc, st.Sort.Direction)
	require.Equal(t, []string{"Ethan", "David", "Carmen", "Berta", "Alice"}, names(st.Items))

	b.SetSort(ctx, "team")
	require.Equal(t, 3, svc.listCount())
	require.Equal(t, query.Sort{Field: "team", Direction: query.Asc}, b.State().Sort)
}

func TestQueryChangesResetPage(t *testing.T) {
	ctx := context.Background()
	b := New[member, string](newFake(), memberID, WithPageSize(2))

	b.SetPage(ctx, 3)
	st := b.State()
	require.Equal(t, 3, st.Page.Number)
	require.Equal(t, []string{"Ethan"}, names(st.Items))

	b.SetSearch(ctx, "dev")
	st = b.State()
	require.Equal(t, 1, st.Page.Number)
	require.Equal(t, 2, st.Page.Total)

	b.SetPage(ctx, 2)
	b.SetFilters(ctx, []query.FilterItem{{Field: "team", Op: query.OpEq, Value: "dev"}})
	require.Equal(t, 1, b.State().Page.Number)

	b.SetPage(ctx, 2)
	b.SetPageSize(ctx, 1)
	st = b.State()
	require.Equal(t, 1, st.Page.Number)
	require.Equal(t, 1, st.Page.Size)
	require.Len(t, st.Items, 1)
}

func TestSetPageClampsToOne(t *testing.T) {
	b := New[member, string](newFake(), memberID)
	b.SetPage(context.Background(), -4)
	require.Equal(t, 1, b.State().Page.Number)
}

func TestSetPagePastTheEnd(t *testing.T) {
	b := New[member, string](newFake(), memberID, WithPageSize(2))
	b.SetPage(context.Background(), math.MaxInt/2+2)

	st := b.State()
	require.Equal(t, StatusSuccess, st.Status)
	require.Empty(t, st.Items)
	require.Equal(t, 5, st.Page.Total)
}

func TestSelectionSurvivesFetch(t *testing.T) {
	ctx := context.Background()
	b := New[member, string](newFake(), memberID, WithPageSize(2))
	b.Fetch(ctx)

	first := b.State().Items[0]
	b.Select(first, true)
	b.Select(first, true)
	b.SetPage(ctx, 2)

	st := b.State()
	require.Len(t, st.Selection, 1)
	require.Equal(t, first.ID, st.Selection[0].ID)
	require.True(t, b.IsSelected(first.ID))
	require.NotContains(t, names(st.Items), first.Name)

	b.Select(st.Items[0], true)
	require.Equal(t, []string{first.ID, st.Items[0].ID}, b.SelectedIDs())

	b.Select(first, false)
	require.Equal(t, []string{st.Items[0].ID}, b.SelectedIDs())

	b.ClearSelection()
	require.Empty(t, b.State().Selection)
	require.False(t, b.IsSelected(st.Items[0].ID))
}

func TestFetchErrorKeepsPreviousItems(t *testing.T) {
	ctx := context.Background()
	svc := newFake()
	b := New[member, string](svc, memberID)
	b.Fetch(ctx)
	require.Len(t, b.State().Items, 5)

	svc.mu.Lock()
	svc.listErr = errors.New("backend down")
	svc.mu.Unlock()

	b.SetSearch(ctx, "ops")
	st := b.State()
	require.Equal(t, StatusError, st.Status)
	require.Equal(t, "backend down", st.Err)
	require.Len(t, st.Items, 5)
	require.Equal(t, "ops", st.Search)
}

func TestStaleFetchIsDropped(t *testing.T) {
	ctx := context.Background()
	svc := newFake()
	svc.parkSearch = "slow"
	svc.parked = make(chan struct{})
	svc.release = make(chan struct{})
	b := New[member, string](svc, memberID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.SetSearch(ctx, "slow")
	}()
	<-svc.parked

	b.SetSearch(ctx, "ops")
	close(svc.release)
	<-done

	st := b.State()
	require.Equal(t, StatusSuccess, st.Status)
	require.Equal(t, "ops", st.Search)
	require.Equal(t, 2, st.Page.Total)
	require.Equal(t, []string{"Carmen", "Berta"}, names(st.Items))
}

func TestMutationsRefetch(t *testing.T) {
	ctx := context.Background()
	svc := newFake()
	b := New[member, string](svc, memberID)
	b.Fetch(ctx)

	created, err := b.Create(ctx, member{Name: "Farah", Team: "dev"})
	require.NoError(t, err)
	require.Equal(t, "new-a", created.ID)
	st := b.State()
	require.Equal(t, StatusSuccess, st.Status)
	require.Equal(t, 6, st.Page.Total)
	require.Equal(t, "Farah", st.Items[0].Name)

	updated, err := b.Update(ctx, "2", crud.Patch{"team": "ops"})
	require.NoError(t, err)
	require.Equal(t, "ops", updated.Team)

	require.NoError(t, b.Remove(ctx, "2"))
	require.Equal(t, 5, b.State().Page.Total)
	require.Equal(t, 4, svc.listCount())
}

func TestMutationErrorSetsErrorStatus(t *testing.T) {
	ctx := context.Background()
	svc := newFake()
	b := New[member, string](svc, memberID)
	b.Fetch(ctx)

	svc.mu.Lock()
	svc.updateErr = errors.New("conflict")
	svc.mu.Unlock()

	_, err := b.Update(ctx, "1", crud.Patch{"name": "Zed"})
	require.EqualError(t, err, "conflict")
	st := b.State()
	require.Equal(t, StatusError, st.Status)
	require.Equal(t, "conflict", st.Err)
	require.Equal(t, 1, svc.listCount())
	require.Len(t, st.Items, 5)

	_, err = b.Update(ctx, "missing", crud.Patch{"name": "Zed"})
	require.Error(t, err)
}

func TestSubscribersSeeEveryChange(t *testing.T) {
	ctx := context.Background()
	b := New[member, string](newFake(), memberID)

	var seen []Status
	stop := b.Subscribe(func(s State[member]) { seen = append(seen, s.Status) })
	b.Fetch(ctx)
	require.Equal(t, []Status{StatusLoading, StatusSuccess}, seen)

	stop()
	b.Fetch(ctx)
	require.Len(t, seen, 2)
}

func TestVersionGrowsWithEveryChange(t *testing.T) {
	b := New[member, string](newFake(), memberID)
	var seen []uint64
	b.Subscribe(func(st State[member]) { seen = append(seen, st.Version) })

	before := b.State()
	b.Fetch(context.Background())
	b.SetSearch(context.Background(), "a")
	after := b.State()

	require.Equal(t, []uint64{1, 2, 3, 4, 5}, seen)
	require.True(t, after.NewerThan(before))
	require.False(t, before.NewerThan(after))
	require.False(t, after.NewerThan(b.State()))
}

func TestStateIsASnapshot(t *testing.T) {
	b := New[member, string](newFake(), memberID)
	b.Fetch(context.Background())
	st := b.State()
	st.Items[0].Name = "mutated"
	require.Equal(t, "Carmen", b.State().Items[0].Name)
}
