// Package workspace holds the datasets loaded into a running process. It
// replaces module-level "current dataset" state with an explicit, concurrency
// safe registry and publishes lifecycle events on a typed event bus.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-tabula/core/analysis"
	"github.com/asaidimu/go-tabula/core/query"
	"github.com/asaidimu/go-tabula/core/table"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrDatasetNotFound is returned for unknown dataset ids.
var ErrDatasetNotFound = errors.New("dataset not found")

// Dataset is a loaded table together with its completeness report.
type Dataset struct {
	ID           string                       `json:"id"`
	Name         string                       `json:"name"`
	Table        *table.Table                 `json:"-"`
	Completeness *analysis.CompletenessReport `json:"-"`
	LoadedAt     time.Time                    `json:"loadedAt"`
}

// Workspace is an in-memory registry of datasets.
type Workspace struct {
	mu        sync.RWMutex
	datasets  map[string]*Dataset
	order     []string
	current   string
	processor *query.Processor
	logger    *zap.Logger

	bus           *events.TypedEventBus[Event]
	subscriptions map[string]*SubscriptionInfo
	subMu         sync.RWMutex
}

// New creates an empty workspace.
func New(logger *zap.Logger) (*Workspace, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	return &Workspace{
		datasets:      make(map[string]*Dataset),
		processor:     query.NewProcessor(logger),
		logger:        logger,
		bus:           bus,
		subscriptions: make(map[string]*SubscriptionInfo),
	}, nil
}

// Processor returns the query processor used by Query, so callers can register
// custom operators.
func (w *Workspace) Processor() *query.Processor {
	return w.processor
}

// Load registers t under a fresh id and makes it the current dataset.
func (w *Workspace) Load(name string, t *table.Table) (*Dataset, error) {
	return w.Restore(uuid.New().String(), name, t)
}

// Restore registers t under an existing id, replacing any dataset already
// stored there, and makes it the current dataset.
func (w *Workspace) Restore(id, name string, t *table.Table) (*Dataset, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot load dataset %q: nil table", name)
	}
	if id == "" {
		return nil, fmt.Errorf("cannot load dataset %q: empty id", name)
	}

	ds := &Dataset{
		ID:           id,
		Name:         name,
		Table:        t,
		Completeness: analysis.Completeness(t),
		LoadedAt:     time.Now().UTC(),
	}

	w.mu.Lock()
	if _, exists := w.datasets[id]; exists {
		w.order = slices.DeleteFunc(w.order, func(s string) bool { return s == id })
	}
	w.datasets[id] = ds
	w.order = append(w.order, id)
	w.current = id
	w.mu.Unlock()

	w.logger.Info("Dataset loaded",
		zap.String("id", id), zap.String("name", name), zap.Int("records", t.Len()))

	ev := newEvent(DatasetLoaded, ds, time.Time{})
	n := t.Len()
	ev.Records = &n
	w.emit(ev)
	return ds, nil
}

// Current returns the most recently loaded dataset.
func (w *Workspace) Current() (*Dataset, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ds, ok := w.datasets[w.current]
	return ds, ok
}

// Get returns the dataset with the given id.
func (w *Workspace) Get(id string) (*Dataset, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ds, ok := w.datasets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return ds, nil
}

// List returns the datasets in load order.
func (w *Workspace) List() []*Dataset {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Dataset, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.datasets[id])
	}
	return out
}

// Remove drops a dataset. If it was current, the previously loaded dataset
// becomes current.
func (w *Workspace) Remove(id string) error {
	w.mu.Lock()
	ds, ok := w.datasets[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	delete(w.datasets, id)
	w.order = slices.DeleteFunc(w.order, func(s string) bool { return s == id })
	if w.current == id {
		w.current = ""
		if len(w.order) > 0 {
			w.current = w.order[len(w.order)-1]
		}
	}
	w.mu.Unlock()

	w.logger.Info("Dataset removed", zap.String("id", id))
	w.emit(newEvent(DatasetRemoved, ds, time.Time{}))
	return nil
}

// Query runs dsl against the dataset with the given id.
func (w *Workspace) Query(ctx context.Context, id string, dsl *query.QueryDSL) (*query.QueryResult, error) {
	ds, err := w.Get(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := w.processor.Run(ctx, ds.Table.Records, dsl)
	if err != nil {
		ev := newEvent(QueryFailed, ds, start)
		ev.Query = dsl
		msg := err.Error()
		ev.Error = &msg
		w.emit(ev)
		return nil, fmt.Errorf("query on dataset %s failed: %w", id, err)
	}

	ev := newEvent(QueryExecuted, ds, start)
	ev.Query = dsl
	ev.Records = &result.Count
	w.emit(ev)
	return result, nil
}

// Subscribe registers cb for events of the given type and returns an id for
// Unsubscribe.
func (w *Workspace) Subscribe(event EventType, cb EventCallback, label ...string) string {
	w.subMu.Lock()
	defer w.subMu.Unlock()

	unsubscribe := w.bus.Subscribe(string(event), cb)
	info := &SubscriptionInfo{
		ID:          uuid.New().String(),
		Event:       event,
		unsubscribe: unsubscribe,
	}
	if len(label) > 0 {
		info.Label = label[0]
	}
	w.subscriptions[info.ID] = info
	return info.ID
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (w *Workspace) Unsubscribe(id string) {
	w.subMu.Lock()
	defer w.subMu.Unlock()

	if info, ok := w.subscriptions[id]; ok {
		info.unsubscribe()
		delete(w.subscriptions, id)
	}
}

// Subscriptions lists the active subscriptions.
func (w *Workspace) Subscriptions() []SubscriptionInfo {
	w.subMu.RLock()
	defer w.subMu.RUnlock()

	subs := make([]SubscriptionInfo, 0, len(w.subscriptions))
	for _, sub := range w.subscriptions {
		subs = append(subs, *sub)
	}
	return subs
}
