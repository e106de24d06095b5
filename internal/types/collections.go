package types

import (
	"sync"

	"kstub/internal/names"
)

// CollectionMapping pairs mutable collection classes with their read-only
// counterparts. Platform collection types are loaded as flexible types whose
// lower bound is the mutable class and whose upper bound is the read-only one.
type CollectionMapping struct {
	mu       sync.RWMutex
	readOnly map[names.ClassID]names.ClassID // mutable -> read-only
	mutable  map[names.ClassID]names.ClassID // read-only -> mutable
}

// NewCollectionMapping returns the mapping of the standard collection classes.
func NewCollectionMapping() *CollectionMapping {
	m := &CollectionMapping{
		readOnly: make(map[names.ClassID]names.ClassID),
		mutable:  make(map[names.ClassID]names.ClassID),
	}
	for _, pair := range [][2]names.Name{
		{"MutableIterable", "Iterable"},
		{"MutableCollection", "Collection"},
		{"MutableList", "List"},
		{"MutableSet", "Set"},
		{"MutableMap", "Map"},
		{"MutableIterator", "Iterator"},
		{"MutableListIterator", "ListIterator"},
	} {
		m.Add(collectionClass(pair[0]), collectionClass(pair[1]))
	}
	m.Add(collectionClass("MutableMap").Nested("MutableEntry"), collectionClass("Map").Nested("Entry"))
	return m
}

// Add registers a mutable/read-only pair.
func (m *CollectionMapping) Add(mutable, readOnly names.ClassID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readOnly[mutable] = readOnly
	m.mutable[readOnly] = mutable
}

// IsMutableCollection reports whether id is the mutable side of a pair.
func (m *CollectionMapping) IsMutableCollection(id names.ClassID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.readOnly[id]
	return ok
}

// IsReadOnlyCollection reports whether id is the read-only side of a pair.
func (m *CollectionMapping) IsReadOnlyCollection(id names.ClassID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.mutable[id]
	return ok
}

// ReadOnlyOf returns the read-only counterpart of a mutable class.
func (m *CollectionMapping) ReadOnlyOf(mutable names.ClassID) (names.ClassID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.readOnly[mutable]
	return id, ok
}
