package vm

// SymbolID is a canonical, comparable property key produced by interning a
// string (or by minting a unique symbol). Keys compare by integer equality;
// 0 is never a valid key.
type SymbolID uint32

const InvalidSymbol SymbolID = 0

// SymbolTable is the interning service consumed from the interpreter
// collaborator. Interning the same string always yields the same SymbolID;
// unique symbols never collide with interned strings. Runtimes share the
// registry-owned instance (SharedSymbolTable) because transition keys are
// SymbolIDs and the transition graph is process-scoped.
type SymbolTable struct {
	byName map[string]SymbolID
	names  []string
	unique []bool
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string]SymbolID)}
}

// Intern maps a string to its canonical SymbolID, creating one on first use.
func (t *SymbolTable) Intern(name string) SymbolID {
	if id, ok := t.byName[name]; ok {
		return id
	}
	t.names = append(t.names, name)
	t.unique = append(t.unique, false)
	id := SymbolID(len(t.names))
	t.byName[name] = id
	return id
}

// Lookup returns the SymbolID for name if it was already interned. Unlike
// Intern it never creates table entries, so hot paths can probe for
// shadowing names without growing the table.
func (t *SymbolTable) Lookup(name string) (SymbolID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// NewUnique mints a symbol that can never be produced by Intern, carrying
// desc only for diagnostics. Used for script Symbol() values and for
// internal property slots.
func (t *SymbolTable) NewUnique(desc string) SymbolID {
	t.names = append(t.names, desc)
	t.unique = append(t.unique, true)
	return SymbolID(len(t.names))
}

// Name returns the string (or description) behind id, "" for invalid.
func (t *SymbolTable) Name(id SymbolID) string {
	if id == InvalidSymbol || int(id) > len(t.names) {
		return ""
	}
	return t.names[id-1]
}

// IsUnique reports whether id names a unique (symbol-kind) key rather than
// an interned string.
func (t *SymbolTable) IsUnique(id SymbolID) bool {
	if id == InvalidSymbol || int(id) > len(t.unique) {
		return false
	}
	return t.unique[id-1]
}

// maxArrayIndex is the largest valid array index per ES5.1 15.4 (2^32 - 2).
const maxArrayIndex = 4294967294

// toArrayIndex checks whether a string is a canonical array index: a
// non-negative integer without leading zeros in [0, 2^32-1).
func toArrayIndex(key string) (uint32, bool) {
	if key == "" {
		return 0, false
	}
	if len(key) > 1 && key[0] == '0' {
		return 0, false
	}
	var idx uint64
	for i := 0; i < len(key); i++ {
		ch := key[i]
		if ch < '0' || ch > '9' {
			return 0, false
		}
		idx = idx*10 + uint64(ch-'0')
		if idx > maxArrayIndex {
			return 0, false
		}
	}
	return uint32(idx), true
}

// numberToArrayIndex checks whether a float64 is a canonical array index.
func numberToArrayIndex(f float64) (uint32, bool) {
	if f < 0 || f > maxArrayIndex {
		return 0, false
	}
	i := uint32(f)
	if float64(i) != f {
		return 0, false
	}
	return i, true
}
