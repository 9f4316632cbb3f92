package purchase

import (
	"context"
	"time"
)

// Entry is one recorded settlement in a user's purchase history.
type Entry struct {
	ID           string
	UserID       int64
	Kind         Kind
	ItemIDs      []int64
	Total        int64
	BalanceAfter float64
	OccurredAt   time.Time
}

func EntryFromEvent(e CompletedEvent) Entry {
	return Entry{
		ID:           e.EventID,
		UserID:       e.UserID,
		Kind:         e.Kind,
		ItemIDs:      append([]int64(nil), e.ItemIDs...),
		Total:        e.Total,
		BalanceAfter: e.Balance,
		OccurredAt:   e.OccurredAt,
	}
}

type LedgerRepository interface {
	// Append ignores an entry whose ID is already recorded.
	Append(ctx context.Context, e Entry) error
	// ListByUser returns entries oldest first.
	ListByUser(ctx context.Context, userID int64) ([]Entry, error)
}
