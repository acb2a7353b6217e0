package vm

import (
	hermeserr "github.com/simpleton/hermes/pkg/errors"
)

// maxDenseLength caps dense storage growth. Writes past it raise a
// RangeError rather than attempting a pathological allocation.
const maxDenseLength = 1 << 28

// IndexedKind discriminates the per-object-kind handling of array-index
// keys. The operation set is small, fixed, and performance-sensitive, so
// dispatch is a tagged variant over an explicit operation table rather than
// dynamic dispatch.
type IndexedKind uint8

const (
	IndexedNone IndexedKind = iota
	IndexedDense
	IndexedBounded
	IndexedArguments
	IndexedHost
)

func (k IndexedKind) String() string {
	switch k {
	case IndexedNone:
		return "none"
	case IndexedDense:
		return "dense"
	case IndexedBounded:
		return "bounded"
	case IndexedArguments:
		return "arguments"
	case IndexedHost:
		return "host"
	default:
		return "unknown"
	}
}

// CheckAllOwnIndexedMode selects the invariant CheckAllOwnIndexed verifies.
type CheckAllOwnIndexedMode uint8

const (
	// CheckNonConfigurable: every indexed property is non-configurable.
	CheckNonConfigurable CheckAllOwnIndexedMode = iota
	// CheckReadOnly: every indexed property is non-configurable and
	// non-writable.
	CheckReadOnly
)

// indexedStorage is the per-object indexed backing store. Dense and
// arguments variants use elems with Empty as the hole marker; the bounded
// (typed-array-like) variant stores raw numbers at fixed capacity; host
// delegates to embedder callbacks.
type indexedStorage struct {
	kind    IndexedKind
	elems   []Value
	bounded []float64
}

func newDenseStorage(h *Heap, length uint32) indexedStorage {
	s := indexedStorage{kind: IndexedDense, elems: h.allocateValueStorage(int(length))}
	for i := range s.elems {
		s.elems[i] = Empty
	}
	return s
}

func newArgumentsStorage(h *Heap, args []Value) indexedStorage {
	s := indexedStorage{kind: IndexedArguments, elems: h.allocateValueStorage(len(args))}
	copy(s.elems, args)
	return s
}

func newBoundedStorage(length uint32) indexedStorage {
	return indexedStorage{kind: IndexedBounded, bounded: make([]float64, length)}
}

// indexedOps is the six-operation contract each kind supplies.
type indexedOps struct {
	getOwnIndexedRange         func(o *Object) (uint32, uint32)
	haveOwnIndexed             func(o *Object, i uint32) bool
	getOwnIndexedPropertyFlags func(o *Object, i uint32) (PropertyFlags, bool)
	getOwnIndexed              func(o *Object, i uint32) Value
	setOwnIndexed              func(r *Runtime, o *Object, i uint32, v Value) (bool, error)
	deleteOwnIndexed           func(r *Runtime, o *Object, i uint32) bool
	checkAllOwnIndexed         func(o *Object, mode CheckAllOwnIndexedMode) bool
}

var indexedOpsTable = [...]indexedOps{
	IndexedNone: {
		getOwnIndexedRange:         func(o *Object) (uint32, uint32) { return 0, 0 },
		haveOwnIndexed:             func(o *Object, i uint32) bool { return false },
		getOwnIndexedPropertyFlags: func(o *Object, i uint32) (PropertyFlags, bool) { return PropertyFlags{}, false },
		getOwnIndexed:              func(o *Object, i uint32) Value { return Empty },
		setOwnIndexed: func(r *Runtime, o *Object, i uint32, v Value) (bool, error) {
			return false, nil
		},
		deleteOwnIndexed:   func(r *Runtime, o *Object, i uint32) bool { return true },
		checkAllOwnIndexed: func(o *Object, mode CheckAllOwnIndexedMode) bool { return true },
	},
	IndexedDense:     denseOps,
	IndexedBounded:   boundedOps,
	IndexedArguments: denseOps,
	IndexedHost:      hostOpsTable,
}

func (o *Object) indexedOps() *indexedOps {
	return &indexedOpsTable[o.indexed.kind]
}

// --- Dense / arguments storage ---

var denseOps = indexedOps{
	getOwnIndexedRange: func(o *Object) (uint32, uint32) {
		return 0, uint32(len(o.indexed.elems))
	},
	haveOwnIndexed: func(o *Object, i uint32) bool {
		return i < uint32(len(o.indexed.elems)) && !o.indexed.elems[i].IsEmpty()
	},
	getOwnIndexedPropertyFlags: func(o *Object, i uint32) (PropertyFlags, bool) {
		if i >= uint32(len(o.indexed.elems)) || o.indexed.elems[i].IsEmpty() {
			return PropertyFlags{}, false
		}
		return PropertyFlags{
			Enumerable:   true,
			Writable:     !o.flags.Frozen,
			Configurable: !o.flags.Sealed,
			Indexed:      true,
		}, true
	},
	getOwnIndexed: func(o *Object, i uint32) Value {
		if i >= uint32(len(o.indexed.elems)) {
			return Empty
		}
		return o.indexed.elems[i]
	},
	setOwnIndexed: func(r *Runtime, o *Object, i uint32, v Value) (bool, error) {
		if o.flags.Frozen {
			return false, nil
		}
		if i >= uint32(len(o.indexed.elems)) {
			if i >= maxDenseLength {
				return false, hermeserr.NewRangeError("index %d exceeds dense storage capacity", i)
			}
			// Growing adds a new element; extensibility was checked by the
			// caller before reaching the storage layer. Capacity doubles so
			// that appending in a loop stays amortized linear; holes past the
			// written index read as Empty.
			need := int(i) + 1
			capacity := 2 * len(o.indexed.elems)
			if capacity < need {
				capacity = need
			}
			if capacity > maxDenseLength {
				capacity = maxDenseLength
			}
			grown := r.heap.allocateValueStorage(capacity)
			copy(grown, o.indexed.elems)
			for j := len(o.indexed.elems); j < len(grown); j++ {
				grown[j] = Empty
			}
			o.indexed.elems = grown
		}
		r.heap.WriteBarrier(o, v)
		o.indexed.elems[i] = v
		return true, nil
	},
	deleteOwnIndexed: func(r *Runtime, o *Object, i uint32) bool {
		if i >= uint32(len(o.indexed.elems)) {
			return true
		}
		if o.indexed.elems[i].IsEmpty() {
			return true
		}
		if o.flags.Sealed {
			return false
		}
		o.indexed.elems[i] = Empty
		return true
	},
	checkAllOwnIndexed: func(o *Object, mode CheckAllOwnIndexedMode) bool {
		switch mode {
		case CheckNonConfigurable:
			if o.flags.Sealed {
				return true
			}
		case CheckReadOnly:
			if o.flags.Frozen {
				return true
			}
		}
		for _, e := range o.indexed.elems {
			if !e.IsEmpty() {
				return false
			}
		}
		return true
	},
}

// --- Bounded (typed-array-like) storage ---
//
// Fixed capacity, no holes, elements are always non-configurable. Writes
// of uncoercible values or out-of-range indices are silently ignored
// (false, not an error).

var boundedOps = indexedOps{
	getOwnIndexedRange: func(o *Object) (uint32, uint32) {
		return 0, uint32(len(o.indexed.bounded))
	},
	haveOwnIndexed: func(o *Object, i uint32) bool {
		return i < uint32(len(o.indexed.bounded))
	},
	getOwnIndexedPropertyFlags: func(o *Object, i uint32) (PropertyFlags, bool) {
		if i >= uint32(len(o.indexed.bounded)) {
			return PropertyFlags{}, false
		}
		return PropertyFlags{
			Enumerable: true,
			Writable:   !o.flags.Frozen,
			Indexed:    true,
		}, true
	},
	getOwnIndexed: func(o *Object, i uint32) Value {
		if i >= uint32(len(o.indexed.bounded)) {
			return Empty
		}
		return NumberValue(o.indexed.bounded[i])
	},
	setOwnIndexed: func(r *Runtime, o *Object, i uint32, v Value) (bool, error) {
		if i >= uint32(len(o.indexed.bounded)) || o.flags.Frozen {
			return false, nil
		}
		if !v.IsNumber() {
			return false, nil
		}
		o.indexed.bounded[i] = v.AsNumber()
		return true, nil
	},
	deleteOwnIndexed: func(r *Runtime, o *Object, i uint32) bool {
		// No holes: deleting a backed element fails, deleting outside the
		// range is a no-op success.
		return i >= uint32(len(o.indexed.bounded))
	},
	checkAllOwnIndexed: func(o *Object, mode CheckAllOwnIndexedMode) bool {
		if mode == CheckReadOnly {
			return o.flags.Frozen || len(o.indexed.bounded) == 0
		}
		return true
	},
}

// --- Host storage ---

var hostOpsTable = indexedOps{
	getOwnIndexedRange: func(o *Object) (uint32, uint32) {
		if o.hostOps == nil {
			return 0, 0
		}
		return o.hostOps.HostIndexedRange()
	},
	haveOwnIndexed: func(o *Object, i uint32) bool {
		if o.hostOps == nil {
			return false
		}
		return !o.hostOps.GetHostIndexed(i).IsEmpty()
	},
	getOwnIndexedPropertyFlags: func(o *Object, i uint32) (PropertyFlags, bool) {
		if o.hostOps == nil || o.hostOps.GetHostIndexed(i).IsEmpty() {
			return PropertyFlags{}, false
		}
		return PropertyFlags{
			Enumerable:   true,
			Writable:     !o.flags.Frozen,
			Configurable: !o.flags.Sealed,
			Indexed:      true,
		}, true
	},
	getOwnIndexed: func(o *Object, i uint32) Value {
		if o.hostOps == nil {
			return Empty
		}
		return o.hostOps.GetHostIndexed(i)
	},
	setOwnIndexed: func(r *Runtime, o *Object, i uint32, v Value) (bool, error) {
		if o.hostOps == nil || o.flags.Frozen {
			return false, nil
		}
		r.heap.WriteBarrier(o, v)
		return o.hostOps.SetHostIndexed(r, i, v)
	},
	deleteOwnIndexed: func(r *Runtime, o *Object, i uint32) bool {
		if o.hostOps == nil {
			return true
		}
		if o.flags.Sealed && !o.hostOps.GetHostIndexed(i).IsEmpty() {
			return false
		}
		return o.hostOps.DeleteHostIndexed(i)
	},
	checkAllOwnIndexed: func(o *Object, mode CheckAllOwnIndexedMode) bool {
		if o.hostOps == nil {
			return true
		}
		begin, end := o.hostOps.HostIndexedRange()
		if begin == end {
			return true
		}
		switch mode {
		case CheckNonConfigurable:
			return o.flags.Sealed
		case CheckReadOnly:
			return o.flags.Frozen
		}
		return false
	},
}

// --- Public wrappers (the ObjectVTable surface) ---

// GetOwnIndexedRange returns the end-exclusive index interval currently
// backed by indexed storage.
func GetOwnIndexedRange(o *Object) (uint32, uint32) {
	return o.indexedOps().getOwnIndexedRange(o)
}

// HaveOwnIndexed reports whether an element exists at index i.
func HaveOwnIndexed(o *Object, i uint32) bool {
	return o.indexedOps().haveOwnIndexed(o, i)
}

// GetOwnIndexedPropertyFlags returns the flags of the element at i,
// accounting for the object's sealed/frozen state.
func GetOwnIndexedPropertyFlags(o *Object, i uint32) (PropertyFlags, bool) {
	return o.indexedOps().getOwnIndexedPropertyFlags(o, i)
}

// GetOwnIndexed returns the element at i, or Empty.
func GetOwnIndexed(o *Object, i uint32) Value {
	return o.indexedOps().getOwnIndexed(o, i)
}

// SetOwnIndexed stores v at i. A false result with nil error means the
// write was ignored (fixed-capacity or read-only backend); an error is a
// language-level type error.
func SetOwnIndexed(r *Runtime, o *Object, i uint32, v Value) (bool, error) {
	return o.indexedOps().setOwnIndexed(r, o, i, v)
}

// DeleteOwnIndexed removes the element at i. True if deleted or out of
// range; false if the backend forbids holes or the element is read-only.
func DeleteOwnIndexed(r *Runtime, o *Object, i uint32) bool {
	return o.indexedOps().deleteOwnIndexed(r, o, i)
}

// CheckAllOwnIndexed verifies that the whole indexed part satisfies the
// invariant selected by mode, without per-element flag storage.
func CheckAllOwnIndexed(o *Object, mode CheckAllOwnIndexedMode) bool {
	return o.indexedOps().checkAllOwnIndexed(o, mode)
}
