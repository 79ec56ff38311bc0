package dataset

import "sync"

// Memo caches the result of an expensive computation per key until Clear is
// called. Errors are not cached.
type Memo[K comparable, V any] struct {
	mu     sync.Mutex
	values map[K]V
	limit  int
}

// NewMemo creates an empty memo holding at most limit values. Storing past
// the limit evicts an arbitrary entry. limit <= 0 means unbounded.
func NewMemo[K comparable, V any](limit int) *Memo[K, V] {
	return &Memo[K, V]{values: make(map[K]V), limit: limit}
}

// Get returns the stored value for key or runs compute and stores its
// result. compute runs without the lock held, so concurrent callers may
// compute the same key more than once; the last result wins.
func (m *Memo[K, V]) Get(key K, compute func() (V, error)) (V, error) {
	m.mu.Lock()
	if v, ok := m.values[key]; ok {
		m.mu.Unlock()
		return v, nil
	}
	m.mu.Unlock()

	v, err := compute()
	if err != nil {
		return v, err
	}

	m.mu.Lock()
	if _, ok := m.values[key]; !ok && m.limit > 0 && len(m.values) >= m.limit {
		for k := range m.values {
			delete(m.values, k)
			break
		}
	}
	m.values[key] = v
	m.mu.Unlock()
	return v, nil
}

// Len returns the number of stored values
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// Clear drops every stored value
func (m *Memo[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[K]V)
}
