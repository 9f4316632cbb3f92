package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
)

type LedgerRepository struct {
	mu      sync.RWMutex
	entries map[int64][]purchase.Entry
	seen    map[string]struct{}
}

var _ purchase.LedgerRepository = (*LedgerRepository)(nil)

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		entries: make(map[int64][]purchase.Entry),
		seen:    make(map[string]struct{}),
	}
}

func (r *LedgerRepository) Append(_ context.Context, e purchase.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.seen[e.ID]; dup && e.ID != "" {
		return nil
	}
	r.seen[e.ID] = struct{}{}
	e.ItemIDs = append([]int64(nil), e.ItemIDs...)
	r.entries[e.UserID] = append(r.entries[e.UserID], e)
	return nil
}

func (r *LedgerRepository) ListByUser(_ context.Context, userID int64) ([]purchase.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.entries[userID]
	out := make([]purchase.Entry, len(src))
	for i, e := range src {
		e.ItemIDs = append([]int64(nil), e.ItemIDs...)
		out[i] = e
	}
	return out, nil
}
