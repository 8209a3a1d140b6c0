package keyvalue

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value   string
	expires time.Time
}

// Local keeps keys in a map. Expired keys are invisible to Get right away
// and are purged by the janitor.
type Local struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

func NewLocal() *Local {
	return &Local{
		items: make(map[string]entry),
		now:   time.Now,
	}
}

func (l *Local) Get(_ context.Context, key string) (string, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.items[key]
	if !ok || !e.expires.After(l.now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (l *Local) Set(_ context.Context, key, value string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items[key] = entry{value: value, expires: l.now().Add(ttl)}
	return nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.items, key)
	return nil
}

// RunJanitor purges expired keys every interval until ctx is done.
func (l *Local) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.purge()
		}
	}
}

func (l *Local) purge() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.items {
		if !e.expires.After(now) {
			delete(l.items, key)
		}
	}
}

func (l *Local) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}
