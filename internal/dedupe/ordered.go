package dedupe

// Order decides where a surviving entry sits after last-wins collapsing.
type Order int

const (
	// FirstSeen emits each key at the position it was first encountered,
	// carrying the value of its latest occurrence.
	FirstSeen Order = iota
	// LastSeen emits each key at the position of its latest occurrence.
	LastSeen
)

// latestByKey is an insertion-ordered association: keys keep the slot of
// their first occurrence while later occurrences overwrite the value.
type latestByKey[K comparable, V any] struct {
	keys   []K
	values map[K]V
	last   map[K]int
}

func newLatestByKey[K comparable, V any](size int) *latestByKey[K, V] {
	return &latestByKey[K, V]{
		keys:   make([]K, 0, size),
		values: make(map[K]V, size),
		last:   make(map[K]int, size),
	}
}

func (m *latestByKey[K, V]) put(k K, v V, pos int) {
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
	m.last[k] = pos
}

func (m *latestByKey[K, V]) len() int {
	return len(m.keys)
}

// inOrder returns the values in first-seen key order.
func (m *latestByKey[K, V]) inOrder() []V {
	out := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.values[k])
	}
	return out
}

// keepLatest collapses items sharing a key down to the occurrence with the
// highest index. It returns the survivors and how many entries were dropped.
func keepLatest[T any, K comparable](items []T, key func(T) K, order Order) ([]T, int) {
	if len(items) == 0 {
		return items, 0
	}

	seen := newLatestByKey[K, T](len(items))
	for i, it := range items {
		seen.put(key(it), it, i)
	}

	var out []T
	switch order {
	case LastSeen:
		out = make([]T, 0, seen.len())
		for i, it := range items {
			if seen.last[key(it)] == i {
				out = append(out, it)
			}
		}
	default:
		out = seen.inOrder()
	}
	return out, len(items) - len(out)
}
