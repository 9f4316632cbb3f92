package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
)

// KeyedMutex is an in-process Locker. Waiters give up when their context ends.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

var _ application.Locker = (*KeyedMutex)(nil)

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	m.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				m.unref(key, s)
			})
		}, nil
	case <-ctx.Done():
		m.unref(key, s)
		return nil, fmt.Errorf("%w: %s: %w", application.ErrLockNotAcquired, key, ctx.Err())
	}
}

func (m *KeyedMutex) unref(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}

// held reports how many keys currently have holders or waiters.
func (m *KeyedMutex) held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}
