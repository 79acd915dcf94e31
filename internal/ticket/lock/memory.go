package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/ticketbot/internal/clock"
)

type entry struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker is a process-local Locker. Entries expire by clock time so a
// crashed holder cannot block a key past its TTL.
type MemoryLocker struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]entry
}

func NewMemoryLocker(clk clock.Clock) *MemoryLocker {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &MemoryLocker{clock: clk, entries: map[string]entry{}}
}

func (l *MemoryLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := validate(key, ttl); err != nil {
		return "", false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.evictExpired(now)
	if _, ok := l.entries[key]; ok {
		return "", false, nil
	}

	token := uuid.NewString()
	l.entries[key] = entry{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

func (l *MemoryLocker) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.entries[key]; ok && held.token == token {
		delete(l.entries, key)
	}
	return nil
}

// evictExpired drops locks whose holder never released them. Callers hold mu.
func (l *MemoryLocker) evictExpired(now time.Time) {
	for key, held := range l.entries {
		if !now.Before(held.expiresAt) {
			delete(l.entries, key)
		}
	}
}

var _ Locker = (*MemoryLocker)(nil)
