// Package livelist keeps an in-memory list in step with a stream of row
// changes: the list is loaded once, then INSERT prepends, UPDATE replaces by
// key and DELETE removes by key. Run reloads the full list whenever the
// change stream is (re)established, so events lost while disconnected are
// recovered instead of leaving the list stale.
package livelist

import (
	"context"
	"sync"
	"time"
)

// Op is the kind of row change.
type Op string

const (
	Insert Op = "INSERT"
	Update Op = "UPDATE"
	Delete Op = "DELETE"
)

// Change is a single row change delivered by a Source.
type Change[T any] struct {
	Op   Op
	Item T
}

// Source provides the initial rows and the change stream. The channel
// returned by Subscribe is closed when the stream breaks.
type Source[T any] interface {
	Load(ctx context.Context) ([]T, error)
	Subscribe(ctx context.Context) (<-chan Change[T], error)
}

// List is safe for concurrent use.
type List[T any] struct {
	mu    sync.RWMutex
	items []T

	key      func(T) string
	limit    int
	onChange func([]T)
	onError  func(error)
	backoff  time.Duration
}

// Option configures a List.
type Option[T any] func(*List[T])

// WithLimit caps the list length; older entries fall off the tail.
func WithLimit[T any](n int) Option[T] {
	return func(l *List[T]) { l.limit = n }
}

// WithOnChange registers a callback that receives a snapshot after every
// reset or applied change.
func WithOnChange[T any](fn func([]T)) Option[T] {
	return func(l *List[T]) { l.onChange = fn }
}

// WithOnError registers a callback for load and subscribe failures in Run.
func WithOnError[T any](fn func(error)) Option[T] {
	return func(l *List[T]) { l.onError = fn }
}

// WithBackoff sets the pause between reconnect attempts in Run.
func WithBackoff[T any](d time.Duration) Option[T] {
	return func(l *List[T]) { l.backoff = d }
}

// New creates an empty list keyed by key.
func New[T any](key func(T) string, opts ...Option[T]) *List[T] {
	l := &List[T]{key: key, backoff: 2 * time.Second}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Reset replaces the contents with items.
func (l *List[T]) Reset(items []T) {
	l.mu.Lock()
	l.items = append([]T(nil), items...)
	l.truncate()
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	l.notify(snapshot)
}

// Apply applies a change and reports whether the list was modified.
func (l *List[T]) Apply(c Change[T]) bool {
	l.mu.Lock()
	changed := false
	k := l.key(c.Item)
	idx := l.indexLocked(k)

	switch c.Op {
	case Insert:
		if idx >= 0 {
			l.items[idx] = c.Item
		} else {
			l.items = append([]T{c.Item}, l.items...)
			l.truncate()
		}
		changed = true
	case Update:
		if idx >= 0 {
			l.items[idx] = c.Item
			changed = true
		}
	case Delete:
		if idx >= 0 {
			l.items = append(l.items[:idx], l.items[idx+1:]...)
			changed = true
		}
	}

	var snapshot []T
	if changed {
		snapshot = l.snapshotLocked()
	}
	l.mu.Unlock()

	if changed {
		l.notify(snapshot)
	}
	return changed
}

// Items returns a copy of the current contents.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Find returns the first item matching pred.
func (l *List[T]) Find(pred func(T) bool) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if pred(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Run keeps the list synchronised with src until ctx is cancelled. It
// subscribes before loading so nothing between the two is missed, and starts
// over with a fresh load every time the change stream closes.
func (l *List[T]) Run(ctx context.Context, src Source[T]) error {
	for {
		err := l.syncOnce(ctx, src)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && l.onError != nil {
			l.onError(err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.backoff):
		}
	}
}

func (l *List[T]) syncOnce(ctx context.Context, src Source[T]) error {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, err := src.Subscribe(subCtx)
	if err != nil {
		return err
	}

	items, err := src.Load(subCtx)
	if err != nil {
		return err
	}
	l.Reset(items)

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			l.Apply(c)
		}
	}
}

func (l *List[T]) indexLocked(k string) int {
	for i, it := range l.items {
		if l.key(it) == k {
			return i
		}
	}
	return -1
}

func (l *List[T]) truncate() {
	if l.limit > 0 && len(l.items) > l.limit {
		l.items = l.items[:l.limit]
	}
}

func (l *List[T]) snapshotLocked() []T {
	return append([]T(nil), l.items...)
}

func (l *List[T]) notify(snapshot []T) {
	if l.onChange != nil {
		l.onChange(snapshot)
	}
}
