package protector

type mapEntry struct {
	key, value any
	removed    bool

	iterPrev, iterNext *mapEntry
}

// OrderedMap is an insertion-ordered map with the iteration semantics of Map
// and Set: entries added during iteration are visited, removed ones are
// skipped, and live iterators survive removal of the entry they point at.
//
// Keys must be comparable.
type OrderedMap struct {
	hash                map[any]*mapEntry
	iterFirst, iterLast *mapEntry
	size                int
}

type orderedMapIter struct {
	m *OrderedMap
	// last is the entry returned by the previous call to next
	last          *mapEntry
	started, done bool
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{
		hash: make(map[any]*mapEntry),
	}
}

func (m *OrderedMap) Set(key, value any) {
	if entry := m.hash[key]; entry != nil {
		entry.value = value
		return
	}
	entry := &mapEntry{key: key, value: value}
	m.hash[key] = entry
	if m.iterLast != nil {
		entry.iterPrev = m.iterLast
		m.iterLast.iterNext = entry
	} else {
		m.iterFirst = entry
	}
	m.iterLast = entry
	m.size++
}

func (m *OrderedMap) Get(key any) (any, bool) {
	if entry := m.hash[key]; entry != nil {
		return entry.value, true
	}
	return nil, false
}

func (m *OrderedMap) Has(key any) bool {
	return m.hash[key] != nil
}

func (m *OrderedMap) Delete(key any) bool {
	entry := m.hash[key]
	if entry == nil {
		return false
	}
	entry.removed = true
	entry.value = nil

	// unlink from the list but keep entry.iterPrev so that an iterator
	// standing on this entry can find its way back to a live one
	if entry.iterPrev != nil {
		entry.iterPrev.iterNext = entry.iterNext
	} else {
		m.iterFirst = entry.iterNext
	}
	if entry.iterNext != nil {
		entry.iterNext.iterPrev = entry.iterPrev
	} else {
		m.iterLast = entry.iterPrev
	}

	delete(m.hash, key)
	m.size--
	return true
}

func (m *OrderedMap) Size() int {
	return m.size
}

func (m *OrderedMap) newIter() *orderedMapIter {
	return &orderedMapIter{
		m: m,
	}
}

func (iter *orderedMapIter) next() *mapEntry {
	if iter.done {
		return nil
	}
	var cur *mapEntry
	if !iter.started {
		iter.started = true
		cur = iter.m.iterFirst
	} else {
		prev := iter.last
		for prev != nil && prev.removed {
			prev = prev.iterPrev
		}
		if prev == nil {
			cur = iter.m.iterFirst
		} else {
			cur = prev.iterNext
		}
	}
	if cur == nil {
		iter.close()
		return nil
	}
	iter.last = cur
	return cur
}

func (iter *orderedMapIter) close() {
	iter.done = true
	iter.last = nil
}
