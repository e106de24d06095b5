package names

import (
	"fmt"
	"slices"
	"sync"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

// StringID indexes a StringTable.
type StringID uint32

// StringTable interns names for serialization. Index 0 always holds "".
// Strings are stored in NFC so that equal identifiers written by different
// producers share an index.
type StringTable struct {
	mu    sync.RWMutex
	byID  []string
	index map[string]StringID
}

// NewStringTable creates an empty table.
func NewStringTable() *StringTable {
	return &StringTable{
		byID:  []string{""},
		index: map[string]StringID{"": 0},
	}
}

// Intern inserts s and returns its ID. Known strings keep their ID.
func (t *StringTable) Intern(s string) StringID {
	s = norm.NFC.String(s)
	t.mu.RLock()
	id, ok := t.index[s]
	t.mu.RUnlock()
	if ok {
		return id
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.index[s]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(t.byID))
	if err != nil {
		panic(fmt.Errorf("string table overflow: %w", err))
	}
	id = StringID(n)
	cpy := string([]byte(s))
	t.byID = append(t.byID, cpy)
	t.index[cpy] = id
	return id
}

// Index is Intern returning a plain int, the form serialized records use.
func (t *StringTable) Index(s string) int {
	return int(t.Intern(s))
}

// Lookup returns the string for id.
func (t *StringTable) Lookup(id StringID) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.byID) {
		return "", false
	}
	return t.byID[id], true
}

// MustLookup panics on an unknown id.
func (t *StringTable) MustLookup(id StringID) string {
	s, ok := t.Lookup(id)
	if !ok {
		panic("names: invalid string ID")
	}
	return s
}

// Len counts stored strings including the reserved empty one.
func (t *StringTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// Snapshot returns a copy of all strings in ID order.
func (t *StringTable) Snapshot() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.byID)
}
