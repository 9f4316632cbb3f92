package purchase

import "time"

// CompletedEvent is published after a settlement commits.
type CompletedEvent struct {
	EventID    string
	UserID     int64
	Kind       Kind
	ItemIDs    []int64
	Total      int64
	Balance    float64
	OccurredAt time.Time
}

func (CompletedEvent) EventName() string { return "purchase.completed" }

func NewCompletedEvent(eventID string, r *Receipt) CompletedEvent {
	return CompletedEvent{
		EventID:    eventID,
		UserID:     r.UserID,
		Kind:       r.Kind,
		ItemIDs:    append([]int64(nil), r.ItemIDs...),
		Total:      r.Total,
		Balance:    r.Balance,
		OccurredAt: time.Now().UTC(),
	}
}

// ID identifies the event for idempotent consumers.
func (e CompletedEvent) ID() string { return e.EventID }
