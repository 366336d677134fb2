// Package memo provides scoped memo tables for pure functions of small
// argument tuples.
//
// A Func is meant to live for exactly one top-level computation: create it,
// evaluate through it, drop it. There is no eviction and no locking; a Func
// must not be shared between goroutines or between computations with
// different defining parameters.
//
// A bounded Func stops inserting once it holds maxEntries values; further
// misses are computed and returned without being stored.
package memo

// Func memoizes fn by exact key equality.
type Func[K comparable, V any] struct {
	fn       func(K) V
	entries  map[K]V
	limit    int
	hits     int
	misses   int
	bypassed int
}

// Stats reports table usage.
type Stats struct {
	Entries  int
	Hits     int
	Misses   int
	Bypassed int
}

// New wraps fn. sizeHint preallocates the table and may be zero.
func New[K comparable, V any](fn func(K) V, sizeHint int) *Func[K, V] {
	return &Func[K, V]{
		fn:      fn,
		entries: make(map[K]V, sizeHint),
	}
}

// NewBounded wraps fn with a table of at most maxEntries values.
// maxEntries <= 0 means unbounded.
func NewBounded[K comparable, V any](fn func(K) V, sizeHint, maxEntries int) *Func[K, V] {
	f := New(fn, sizeHint)
	f.limit = maxEntries

	return f
}

// Call returns fn(key), computing it at most once per stored key.
func (f *Func[K, V]) Call(key K) V {
	if v, ok := f.entries[key]; ok {
		f.hits++
		return v
	}

	v := f.fn(key)
	f.misses++

	if f.limit > 0 && len(f.entries) >= f.limit {
		f.bypassed++
		return v
	}

	f.entries[key] = v

	return v
}

// Reset drops all entries. Counters are kept.
func (f *Func[K, V]) Reset() {
	clear(f.entries)
}

// Len returns the number of cached entries.
func (f *Func[K, V]) Len() int {
	return len(f.entries)
}

// Stats returns the current usage counters.
func (f *Func[K, V]) Stats() Stats {
	return Stats{Entries: len(f.entries), Hits: f.hits, Misses: f.misses, Bypassed: f.bypassed}
}
