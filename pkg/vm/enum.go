package vm

import (
	"sort"
	"strconv"
)

// isInternalSymbol reports whether sym names a reserved internal property
// slot. Internal keys never appear in enumeration output.
func (r *Runtime) isInternalSymbol(sym SymbolID) bool {
	for _, s := range r.internalSyms {
		if s == sym {
			return true
		}
	}
	return false
}

// OwnPropertyNames returns the own string-keyed property names in the
// canonical order: array indices first in ascending numeric order (indexed
// elements and index-like named keys merged, duplicates removed), then the
// remaining named keys in insertion order. Unique symbols and internal keys
// are excluded. With onlyEnumerable set, non-enumerable properties are
// skipped.
func (r *Runtime) OwnPropertyNames(o *Object, onlyEnumerable bool) []string {
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}

	var indices []uint32
	seen := make(map[uint32]bool)

	begin, end := GetOwnIndexedRange(o)
	for i := begin; i < end; i++ {
		flags, ok := GetOwnIndexedPropertyFlags(o, i)
		if !ok {
			continue
		}
		if onlyEnumerable && !flags.Enumerable {
			continue
		}
		indices = append(indices, i)
		seen[i] = true
	}

	var named []string
	o.clazz.forEachPropertyWhile(func(key SymbolID, desc NamedPropertyDescriptor) bool {
		if r.symbols.IsUnique(key) {
			return true
		}
		if onlyEnumerable && !desc.Flags.Enumerable {
			return true
		}
		name := r.symbols.Name(key)
		if idx, ok := toArrayIndex(name); ok {
			if !seen[idx] {
				indices = append(indices, idx)
				seen[idx] = true
			}
			return true
		}
		named = append(named, name)
		return true
	})

	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	out := make([]string, 0, len(indices)+len(named))
	for _, i := range indices {
		out = append(out, strconv.FormatUint(uint64(i), 10))
	}
	return append(out, named...)
}

// OwnPropertySymbols returns the own unique-symbol keys in insertion order,
// excluding reserved internal keys.
func (r *Runtime) OwnPropertySymbols(o *Object) []SymbolID {
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}
	var out []SymbolID
	o.clazz.forEachPropertyWhile(func(key SymbolID, desc NamedPropertyDescriptor) bool {
		if r.symbols.IsUnique(key) && !r.isInternalSymbol(key) {
			out = append(out, key)
		}
		return true
	})
	return out
}

// ForEachOwnPropertyWhile visits every own property without materializing a
// key list: indexed elements first in ascending order, then named
// properties in insertion order. Either callback may be nil to skip that
// category; returning false stops the walk. Returns false iff stopped
// early.
func (r *Runtime) ForEachOwnPropertyWhile(
	o *Object,
	indexedCB func(index uint32, flags PropertyFlags) bool,
	namedCB func(key SymbolID, desc NamedPropertyDescriptor) bool,
) bool {
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}
	if indexedCB != nil {
		begin, end := GetOwnIndexedRange(o)
		for i := begin; i < end; i++ {
			flags, ok := GetOwnIndexedPropertyFlags(o, i)
			if !ok {
				continue
			}
			if !indexedCB(i, flags) {
				return false
			}
		}
	}
	if namedCB != nil {
		return o.clazz.forEachPropertyWhile(namedCB)
	}
	return true
}
