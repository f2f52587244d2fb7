package workspace

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/asaidimu/go-tabula/core/analysis"
	"github.com/asaidimu/go-tabula/core/query"
	"github.com/asaidimu/go-tabula/core/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func companies() *table.Table {
	return table.New([]string{"name", "city"}, []table.Record{
		{"name": "Acme", "city": "Berlin"},
		{"name": "Beta", "city": "Paris"},
		{"name": "Cedar", "city": ""},
	})
}

// recorder collects events delivered by the bus.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) callback(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func newWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := New(nil)
	require.NoError(t, err)
	return ws
}

func TestWorkspace_LoadAndGet(t *testing.T) {
	ws := newWorkspace(t)

	_, ok := ws.Current()
	assert.False(t, ok)

	ds, err := ws.Load("companies.csv", companies())
	require.NoError(t, err)
	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "companies.csv", ds.Name)
	require.NotNil(t, ds.Completeness)
	g, ok := ds.Completeness.Group(analysis.GroupComplete)
	require.True(t, ok)
	assert.Equal(t, 2, g.Count())

	current, ok := ws.Current()
	require.True(t, ok)
	assert.Equal(t, ds.ID, current.ID)

	got, err := ws.Get(ds.ID)
	require.NoError(t, err)
	assert.Same(t, ds, got)

	_, err = ws.Get("missing")
	assert.ErrorIs(t, err, ErrDatasetNotFound)

	_, err = ws.Load("nil.csv", nil)
	assert.Error(t, err)
}

func TestWorkspace_ListAndRemove(t *testing.T) {
	ws := newWorkspace(t)

	first, err := ws.Load("a.csv", companies())
	require.NoError(t, err)
	second, err := ws.Load("b.csv", companies())
	require.NoError(t, err)

	list := ws.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	require.NoError(t, ws.Remove(second.ID))
	current, ok := ws.Current()
	require.True(t, ok)
	assert.Equal(t, first.ID, current.ID)

	require.NoError(t, ws.Remove(first.ID))
	_, ok = ws.Current()
	assert.False(t, ok)
	assert.Empty(t, ws.List())

	assert.ErrorIs(t, ws.Remove(first.ID), ErrDatasetNotFound)
}

func TestWorkspace_Restore(t *testing.T) {
	ws := newWorkspace(t)

	_, err := ws.Restore("fixed-id", "a.csv", companies())
	require.NoError(t, err)
	_, err = ws.Restore("fixed-id", "b.csv", companies().Head(1))
	require.NoError(t, err)

	list := ws.List()
	require.Len(t, list, 1)
	assert.Equal(t, "b.csv", list[0].Name)
	assert.Equal(t, 1, list[0].Table.Len())

	_, err = ws.Restore("", "c.csv", companies())
	assert.Error(t, err)
}

func TestWorkspace_Query(t *testing.T) {
	ws := newWorkspace(t)
	ds, err := ws.Load("companies.csv", companies())
	require.NoError(t, err)

	dsl := query.NewQueryBuilder().
		Match("city", "r").
		OrderByDesc("name").
		Build()
	result, err := ws.Query(context.Background(), ds.ID, &dsl)
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
	assert.Equal(t, "Beta", result.Records[0]["name"])
	assert.Equal(t, "Acme", result.Records[1]["name"])

	_, err = ws.Query(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrDatasetNotFound)

	bad := &query.QueryDSL{Sort: []query.SortKey{{Field: "name", Direction: "sideways"}}}
	_, err = ws.Query(context.Background(), ds.ID, bad)
	assert.ErrorIs(t, err, query.ErrInvalidDirection)
}

func TestWorkspace_Events(t *testing.T) {
	ws := newWorkspace(t)

	loaded, removed, executed, failed := &recorder{}, &recorder{}, &recorder{}, &recorder{}
	ws.Subscribe(DatasetLoaded, loaded.callback)
	ws.Subscribe(DatasetRemoved, removed.callback)
	ws.Subscribe(QueryExecuted, executed.callback, "audit")
	ws.Subscribe(QueryFailed, failed.callback)
	assert.Len(t, ws.Subscriptions(), 4)

	ds, err := ws.Load("companies.csv", companies())
	require.NoError(t, err)
	_, err = ws.Query(context.Background(), ds.ID, nil)
	require.NoError(t, err)
	_, err = ws.Query(context.Background(), ds.ID, &query.QueryDSL{
		Pagination: &query.PaginationOptions{Limit: -1},
	})
	require.Error(t, err)
	require.NoError(t, ws.Remove(ds.ID))

	assert.Eventually(t, func() bool {
		return len(loaded.snapshot()) == 1 && len(removed.snapshot()) == 1 &&
			len(executed.snapshot()) == 1 && len(failed.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)

	ev := loaded.snapshot()[0]
	assert.Equal(t, ds.ID, ev.DatasetID)
	require.NotNil(t, ev.Records)
	assert.Equal(t, 3, *ev.Records)

	exec := executed.snapshot()[0]
	require.NotNil(t, exec.Records)
	assert.Equal(t, 3, *exec.Records)
	assert.NotNil(t, exec.Duration)

	require.NotNil(t, failed.snapshot()[0].Error)
}

func TestWorkspace_Unsubscribe(t *testing.T) {
	ws := newWorkspace(t)

	rec := &recorder{}
	id := ws.Subscribe(DatasetLoaded, rec.callback)
	ws.Unsubscribe(id)
	ws.Unsubscribe("unknown")
	assert.Empty(t, ws.Subscriptions())

	_, err := ws.Load("a.csv", companies())
	require.NoError(t, err)

	assert.Never(t, func() bool {
		return len(rec.snapshot()) > 0
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestWorkspace_Concurrent(t *testing.T) {
	ws := newWorkspace(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ds, err := ws.Load("c.csv", companies())
			if !assert.NoError(t, err) {
				return
			}
			_, err = ws.Query(context.Background(), ds.ID, nil)
			assert.NoError(t, err)
			ws.List()
		}()
	}
	wg.Wait()
	assert.Len(t, ws.List(), 20)
}
