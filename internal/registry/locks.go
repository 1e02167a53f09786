package registry

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/delegate/internal/domain"
)

// Locks serializes ledger writes per sender. Two writes from one manager in
// flight at once would race for the same nonce; writes from different
// managers proceed in parallel. A slot stays taken until the sender's
// transaction is final, including after its caller gave up waiting.
type Locks struct {
	mu    sync.Mutex
	slots map[domain.Address]*slot
}

type slot struct {
	ch   chan struct{} // capacity 1, holds the token while a write is in flight
	refs int
}

func NewLocks() *Locks {
	return &Locks{slots: make(map[domain.Address]*slot)}
}

// Acquire waits for addr's slot. The returned release must be called exactly
// once. Waiting stops early when ctx is done.
func (l *Locks) Acquire(ctx context.Context, addr domain.Address) (release func(), err error) {
	l.mu.Lock()
	s, ok := l.slots[addr]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[addr] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(addr, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(addr, s)
		})
	}, nil
}

func (l *Locks) unref(addr domain.Address, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, addr)
	}
}

// Waiting reports how many callers hold or wait for addr's slot.
func (l *Locks) Waiting(addr domain.Address) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.slots[addr]; ok {
		return s.refs
	}
	return 0
}
