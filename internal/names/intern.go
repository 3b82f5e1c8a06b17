// Package names provides a small interned-string table keyed by a fast
// string hash, used by the block registry to resolve material and block
// names to ids without a map[string]T on the hot path.
package names

import "github.com/segmentio/fasthash/fnv1a"

// Table maps interned names to integer ids using an FNV1a hash of the name
// as the primary key, with a fallback map for the rare case of a hash
// collision between two distinct names.
type Table struct {
	byHash     map[uint64]int
	collisions map[string]int
	names      []string
}

// NewTable returns an empty interning table.
func NewTable() *Table {
	return &Table{byHash: map[uint64]int{}}
}

// Intern registers name and returns its id, adding it if not already
// present. Interning the same name twice returns the same id.
func (t *Table) Intern(name string) int {
	if id, ok := t.Lookup(name); ok {
		return id
	}
	id := len(t.names)
	t.names = append(t.names, name)
	h := fnv1a.HashString64(name)
	if _, taken := t.byHash[h]; taken {
		if t.collisions == nil {
			t.collisions = map[string]int{}
		}
		t.collisions[name] = id
		return id
	}
	t.byHash[h] = id
	return id
}

// Lookup returns the id previously assigned to name, if any.
func (t *Table) Lookup(name string) (int, bool) {
	h := fnv1a.HashString64(name)
	if id, ok := t.byHash[h]; ok && t.names[id] == name {
		return id, true
	}
	if t.collisions != nil {
		if id, ok := t.collisions[name]; ok {
			return id, true
		}
	}
	return 0, false
}

// Name returns the name registered under id.
func (t *Table) Name(id int) string {
	return t.names[id]
}

// Len returns the number of interned names.
func (t *Table) Len() int {
	return len(t.names)
}
