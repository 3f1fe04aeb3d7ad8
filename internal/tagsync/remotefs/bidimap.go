package remotefs

// biMap is a small bidirectional map, adapted from
// original_source/src/map.rs's BidirectionalMap (rewritten with plain
// Go generics in place of Rust's FromIterator/trait machinery). It
// backs the tag-name<->TagID and synced-path<->FileID correspondences
// the remote side needs to translate commands into systemtags API
// calls.
type biMap[K1, K2 comparable] struct {
	forward map[K1]K2
	reverse map[K2]K1
}

func newBiMap[K1, K2 comparable]() *biMap[K1, K2] {
	return &biMap[K1, K2]{
		forward: make(map[K1]K2),
		reverse: make(map[K2]K1),
	}
}

// Insert records the k1<->k2 correspondence, overwriting whatever
// either side previously mapped to.
func (m *biMap[K1, K2]) Insert(k1 K1, k2 K2) {
	m.forward[k1] = k2
	m.reverse[k2] = k1
}

// First looks up the K1 mapped to k2.
func (m *biMap[K1, K2]) First(k2 K2) (K1, bool) {
	k1, ok := m.reverse[k2]
	return k1, ok
}

// Second looks up the K2 mapped to k1.
func (m *biMap[K1, K2]) Second(k1 K1) (K2, bool) {
	k2, ok := m.forward[k1]
	return k2, ok
}

// Len returns the number of entries in the map.
func (m *biMap[K1, K2]) Len() int {
	return len(m.forward)
}
