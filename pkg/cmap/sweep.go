package cmap

// DeleteFunc removes every entry for which pred returns true and reports
// how many were removed. Each shard is locked once for the duration of its
// scan.
func (m *Map[V]) DeleteFunc(pred func(key string, value V) bool) int {
	removed := 0
	for _, shard := range m.shards {
		shard.mu.Lock()
		for k, v := range shard.items {
			if pred(k, v) {
				delete(shard.items, k)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}
