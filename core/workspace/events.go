package workspace

import (
	"context"
	"time"

	"github.com/asaidimu/go-tabula/core/query"
)

// EventType names a workspace event.
type EventType string

const (
	DatasetLoaded  EventType = "dataset.loaded"
	DatasetRemoved EventType = "dataset.removed"
	QueryExecuted  EventType = "query.executed"
	QueryFailed    EventType = "query.failed"
)

// Event is published on the workspace bus.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix milliseconds.
	DatasetID string          `json:"datasetId"`
	Name      string          `json:"name,omitempty"`
	Records   *int            `json:"records,omitempty"`
	Query     *query.QueryDSL `json:"query,omitempty"`
	Error     *string         `json:"error,omitempty"`
	Duration  *int64          `json:"duration,omitempty"` // Milliseconds.
}

// EventCallback receives workspace events.
type EventCallback func(ctx context.Context, event Event) error

// SubscriptionInfo describes a registered callback.
type SubscriptionInfo struct {
	ID          string    `json:"id"`
	Event       EventType `json:"event"`
	Label       string    `json:"label,omitempty"`
	unsubscribe func()
}

func newEvent(eventType EventType, ds *Dataset, startTime time.Time) Event {
	ev := Event{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
	}
	if ds != nil {
		ev.DatasetID = ds.ID
		ev.Name = ds.Name
	}
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		ev.Duration = &d
	}
	return ev
}

func (w *Workspace) emit(ev Event) {
	w.bus.Emit(string(ev.Type), ev)
}
