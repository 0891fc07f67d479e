// Package history keeps a bounded, newest-first, in-memory log of submitted
// transactions for display. Nothing here is persisted and nothing can fail.
package history

import (
	"strconv"
	"sync"
	"time"
)

// DefaultMaxItems is the cap applied when a log is created without one.
const DefaultMaxItems = 10

// Item is one logged submission. Data carries the caller-defined payload,
// such as a memo text or a transfer amount.
type Item[T any] struct {
	ID        string
	Signature string
	Timestamp time.Time
	Data      T
}

// Log is a bounded newest-first sequence of items. Adding beyond the cap
// evicts the oldest entry.
type Log[T any] struct {
	mu    sync.Mutex
	max   int
	items []Item[T]

	now func() time.Time
}

func NewLog[T any](maxItems int) *Log[T] {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	return &Log[T]{
		max: maxItems,
		now: time.Now,
	}
}

// Add prepends a new item and truncates to the cap.
func (l *Log[T]) Add(signature string, data T) Item[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	captured := l.now()
	item := Item[T]{
		ID:        signature + "-" + strconv.FormatInt(captured.UnixNano(), 10),
		Signature: signature,
		Timestamp: captured,
		Data:      data,
	}

	l.items = append([]Item[T]{item}, l.items...)
	if len(l.items) > l.max {
		l.items = l.items[:l.max]
	}

	return item
}

// Remove deletes the item with the given id, if present.
func (l *Log[T]) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, item := range l.items {
		if item.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return
		}
	}
}

// Clear empties the log.
func (l *Log[T]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = nil
}

// Items returns a copy of the log, newest first.
func (l *Log[T]) Items() []Item[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Item[T], len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of logged items.
func (l *Log[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.items)
}
