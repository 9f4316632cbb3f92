package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
)

// Store keeps all records in process. Atomic runs fn against a staged copy
// under the write lock and swaps it in only when fn succeeds.
type Store struct {
	mu     sync.RWMutex
	state  *State
	closed bool
}

var _ store.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{state: NewState()}
}

// NewStoreWith serves an existing state, e.g. seeded fixtures in tests.
func NewStoreWith(state *State) *Store {
	return &Store{state: state}
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}

	staged := s.state.Clone()
	if err := fn(ctx, staged); err != nil {
		return err
	}
	s.state = staged
	return nil
}

// View runs fn against the live state under the read lock; fn must not write.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return fn(ctx, s.state)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
