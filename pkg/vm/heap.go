package vm

import (
	"github.com/sirupsen/logrus"

	hermeserr "github.com/simpleton/hermes/pkg/errors"
)

// CellKind tags allocated cells for the collector's metadata.
type CellKind uint8

const (
	CellKindObject CellKind = iota
	CellKindAccessor
	CellKindStorage
	CellKindString
)

// TypeDescriptor tags an allocation with its cell kind and a diagnostic
// name. Descriptors are shared, immutable, and compared by identity.
type TypeDescriptor struct {
	Name string
	Kind CellKind
}

var (
	objectTD   = &TypeDescriptor{Name: "Object", Kind: CellKindObject}
	accessorTD = &TypeDescriptor{Name: "PropertyAccessor", Kind: CellKindAccessor}
	storageTD  = &TypeDescriptor{Name: "PropStorage", Kind: CellKindStorage}
)

// Heap is the boundary to the memory/collector collaborator. The object
// model consumes three things from it: a zero-initializing allocation
// primitive tagged with a type descriptor, a write-barrier notification for
// every owning-reference-field store, and a rooting mechanism (GCScope /
// Handle) that keeps cells valid across allocation points.
//
// A tracing/moving collector may run at any allocation point, so raw
// references obtained before such a point must be re-derived through a
// rooted handle afterwards. The Go implementation keeps the bookkeeping
// real (allocation ticks, barrier counts, root sets) even though the Go
// runtime provides the actual memory safety.
type Heap struct {
	allocations  uint64
	barriers     uint64
	nextObjectID uint32
	logger       logrus.FieldLogger
}

func NewHeap(logger logrus.FieldLogger) *Heap {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Heap{logger: logger}
}

// AllocateCell is the zero-initializing allocation primitive. Every call is
// a potential collection point.
func AllocateCell[T any](h *Heap, td *TypeDescriptor) *T {
	h.allocations++
	cell := new(T)
	if cell == nil {
		h.oom(td)
	}
	return cell
}

// allocateValueStorage allocates a zeroed value array for overflow slot
// storage. Also a potential collection point.
func (h *Heap) allocateValueStorage(size int) []Value {
	h.allocations++
	s := make([]Value, size)
	if size > 0 && s == nil {
		h.oom(storageTD)
	}
	return s
}

// WriteBarrier must be invoked on every store of an owning reference field:
// the prototype link, the shape link, and any slot holding a cell value.
// This is a hard invariant of the collector contract, not an optimization.
func (h *Heap) WriteBarrier(owner *Object, v Value) {
	if !v.IsCell() {
		return
	}
	h.barriers++
}

// writeBarrierObject is the barrier for object-to-object link stores
// (the prototype link).
func (h *Heap) writeBarrierObject(owner *Object, target *Object) {
	if target == nil {
		return
	}
	h.barriers++
}

// writeBarrierShape is the barrier for shape-link stores.
func (h *Heap) writeBarrierShape(owner *Object, s *Shape) {
	if s == nil {
		return
	}
	h.barriers++
}

// NextObjectID hands out non-zero object identities.
func (h *Heap) NextObjectID() uint32 {
	h.nextObjectID++
	return h.nextObjectID
}

// Allocations returns the number of allocation points crossed so far.
func (h *Heap) Allocations() uint64 { return h.allocations }

// Barriers returns the number of write-barrier notifications issued.
func (h *Heap) Barriers() uint64 { return h.barriers }

// oom declares an out-of-memory condition. Allocation failure is fatal to
// the executing program — the object model cannot continue without the
// requested memory — so it is not surfaced as a catchable error.
func (h *Heap) oom(td *TypeDescriptor) {
	panic(&hermeserr.OOMError{Msg: "allocating " + td.Name})
}

// GCScope is a root set. Values added to a scope survive and remain
// externally valid across allocation points for the scope's lifetime.
type GCScope struct {
	heap  *Heap
	roots []Value
}

func NewGCScope(h *Heap) *GCScope {
	return &GCScope{heap: h}
}

// Handle is a rooted reference into a GCScope. Cross-allocation
// continuations must re-derive their target through a handle rather than a
// cached raw address.
type Handle struct {
	scope *GCScope
	idx   int
}

// Add roots a value and returns its handle.
func (s *GCScope) Add(v Value) Handle {
	s.roots = append(s.roots, v)
	return Handle{scope: s, idx: len(s.roots) - 1}
}

// AddObject roots an object and returns its handle.
func (s *GCScope) AddObject(o *Object) Handle {
	return s.Add(ObjectValue(o))
}

// Marker captures the current extent of the scope so that roots created
// after it can be released in bulk.
func (s *GCScope) Marker() int { return len(s.roots) }

// FlushToMarker releases all roots created after the marker. Used after
// each re-entrant callback so per-iteration roots don't pile up.
func (s *GCScope) FlushToMarker(marker int) {
	s.roots = s.roots[:marker]
}

func (h Handle) Value() Value { return h.scope.roots[h.idx] }

func (h Handle) Object() *Object { return h.scope.roots[h.idx].AsObject() }

// Set re-points the handle at a different value in place.
func (h Handle) Set(v Value) { h.scope.roots[h.idx] = v }
