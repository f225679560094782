// ABOUTME: Thread-safe denylist of revoked session token ids.
// ABOUTME: Each id is kept until the token it belongs to would have expired.

package revoke

import (
	"container/list"
	"sync"
	"time"
)

// listEntry stores the expiry and list element for a revoked id.
type listEntry struct {
	until   time.Time
	element *list.Element
}

// List is a size-limited set of revoked token ids with per-entry expiry.
// Entries past their expiry are ignored by IsRevoked and dropped by a
// background sweep. Uses a doubly-linked list to keep insertion order for O(1)
// eviction when the list is full.
type List struct {
	mu      sync.RWMutex
	ids     map[string]*listEntry
	order   *list.List // ids in insertion order (oldest at front)
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a revoke list holding at most maxSize ids (0 means unbounded).
// A background goroutine removes expired ids every sweep interval.
func New(maxSize int, sweep time.Duration) *List {
	l := &List{
		ids:     make(map[string]*listEntry),
		order:   list.New(),
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if sweep <= 0 {
		sweep = time.Minute
	}
	go l.cleanup(sweep)
	return l
}

// Revoke marks id as revoked until the given time. Revoking an id again
// extends its expiry if the new time is later.
func (l *List) Revoke(id string, until time.Time) {
	if id == "" || !until.After(l.now()) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, exists := l.ids[id]; exists {
		if until.After(entry.until) {
			entry.until = until
		}
		return
	}

	if l.maxSize > 0 && len(l.ids) >= l.maxSize {
		l.evictOldest()
	}

	elem := l.order.PushBack(id)
	l.ids[id] = &listEntry{until: until, element: elem}
}

// IsRevoked reports whether id is revoked and the revocation has not expired.
func (l *List) IsRevoked(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.ids[id]
	if !ok {
		return false
	}
	return l.now().Before(entry.until)
}

// Len returns the number of ids currently held, expired or not.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ids)
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (l *List) evictOldest() {
	front := l.order.Front()
	if front == nil {
		return
	}

	id, _ := front.Value.(string)
	l.order.Remove(front)
	delete(l.ids, id)
}

// cleanup runs in a background goroutine, periodically removing expired ids.
func (l *List) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.done:
			return
		}
	}
}

// sweep removes every expired id.
func (l *List) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, entry := range l.ids {
		if !now.Before(entry.until) {
			l.order.Remove(entry.element)
			delete(l.ids, id)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (l *List) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		close(l.done)
		l.closed = true
	}
}
