package vm

import (
	"sync"
)

// shapeProperty is one own property in a shape's layout, in insertion order.
type shapeProperty struct {
	key   SymbolID
	flags PropertyFlags
	slot  SlotIndex

	// indexLike records that the key's string form parses as an array
	// index, so hasIndexLike can be recomputed after a deletion.
	indexLike bool
}

// transitionKey identifies an outgoing transition: adding the same key with
// the same flags always leads to the same child shape.
type transitionKey struct {
	key   SymbolID
	flags PropertyFlags
}

// Shape describes an object's own-property layout. Shapes are structurally
// shared: two objects that evolved through the identical ordered sequence
// of (key, flags) additions reference the same Shape instance, so shape
// identity doubles as an O(1) layout-equality test.
//
// A shape may instead be in dictionary mode: an object-private mutable
// layout used when transition fan-out becomes pathological, or after a
// deletion or bulk attribute update. Dictionary shapes are never shared,
// never registered in a transition table, and never revert.
type Shape struct {
	props []shapeProperty
	table map[SymbolID]int // key -> position in props

	mu          sync.RWMutex // protects transitions and updates
	transitions map[transitionKey]*Shape
	// updates memoizes attribute reconfigurations the way transitions
	// memoizes additions: the key's old flags are fixed by this shape, so
	// (key, new flags) determines the result.
	updates map[transitionKey]*Shape

	dictionary bool
	// freeSlots tracks released slot indices for reuse. Only dictionary
	// shapes ever free slots, because deletion forces dictionary mode.
	freeSlots []SlotIndex

	// hasIndexLike is set when some own named key parses as an array index
	// (a shadowing property over indexed storage).
	hasIndexLike bool

	// nextSlot is the next unallocated slot index. It only grows; freed
	// slots are recycled through freeSlots instead.
	nextSlot SlotIndex
}

// The shape/transition table is process-scoped mutable state with an
// explicit lifecycle. All mutation paths assume a single mutator thread;
// the per-shape RWMutex only keeps concurrent readers of shared shapes
// safe.
var shapeRegistry struct {
	mu         sync.Mutex
	root       *Shape
	symbols    *SymbolTable
	shapeCount uint64
}

// InitShapeRegistry creates the process-wide root shape and the symbol
// table it shares with every runtime. Transition keys are SymbolIDs, so
// the interning table must live and die with the transition graph: two
// runtimes sharing the graph must agree on what every SymbolID means.
// Calling it when the registry is already initialized is a no-op.
func InitShapeRegistry() {
	shapeRegistry.mu.Lock()
	defer shapeRegistry.mu.Unlock()
	if shapeRegistry.root == nil {
		shapeRegistry.root = newShape()
		shapeRegistry.symbols = NewSymbolTable()
		shapeRegistry.shapeCount = 1
	}
}

// ResetShapeRegistry drops the root transition graph and its symbol table
// so they can be garbage collected. Intended for shutdown and for test
// runners that create many short-lived runtimes.
func ResetShapeRegistry() {
	shapeRegistry.mu.Lock()
	defer shapeRegistry.mu.Unlock()
	shapeRegistry.root = nil
	shapeRegistry.symbols = nil
	shapeRegistry.shapeCount = 0
}

// SharedSymbolTable returns the process-wide interning table backing the
// shape transition graph.
func SharedSymbolTable() *SymbolTable {
	InitShapeRegistry()
	shapeRegistry.mu.Lock()
	defer shapeRegistry.mu.Unlock()
	return shapeRegistry.symbols
}

// RootShape returns the empty shape every new object starts from.
func RootShape() *Shape {
	InitShapeRegistry()
	return shapeRegistry.root
}

// ShapeCount returns the number of shapes created since the registry was
// initialized. Diagnostics only.
func ShapeCount() uint64 {
	shapeRegistry.mu.Lock()
	defer shapeRegistry.mu.Unlock()
	return shapeRegistry.shapeCount
}

func newShape() *Shape {
	return &Shape{
		table:       make(map[SymbolID]int),
		transitions: make(map[transitionKey]*Shape),
		updates:     make(map[transitionKey]*Shape),
	}
}

func (s *Shape) NumProperties() int { return len(s.props) }

// SlotCount returns the number of slots a conforming object must be able to
// address, including freed-but-reserved slots.
func (s *Shape) SlotCount() SlotIndex { return s.nextSlot }

func (s *Shape) IsDictionary() bool { return s.dictionary }

// HasIndexLikeProperties reports whether some own named key looks like an
// array index and may shadow indexed storage.
func (s *Shape) HasIndexLikeProperties() bool { return s.hasIndexLike }

// findProperty looks up an own property by key. O(1) via the shape-local
// index; the prototype walk is performed by the caller.
func (s *Shape) findProperty(key SymbolID) (NamedPropertyDescriptor, bool) {
	pos, ok := s.table[key]
	if !ok {
		return NamedPropertyDescriptor{}, false
	}
	p := s.props[pos]
	return NamedPropertyDescriptor{Slot: p.slot, Flags: p.flags}, true
}

// transitionCount returns the current fan-out of this shape.
func (s *Shape) transitionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transitions)
}

// clone copies the layout into a fresh unshared shape.
func (s *Shape) clone() *Shape {
	c := newShape()
	c.props = make([]shapeProperty, len(s.props))
	copy(c.props, s.props)
	c.table = make(map[SymbolID]int, len(s.table))
	for k, v := range s.table {
		c.table[k] = v
	}
	c.hasIndexLike = s.hasIndexLike
	c.nextSlot = s.nextSlot
	return c
}

// toDictionary returns an object-private dictionary copy of this shape.
// Once dictionary, a shape never reverts.
func (s *Shape) toDictionary() *Shape {
	if s.dictionary {
		return s
	}
	c := s.clone()
	c.dictionary = true
	c.freeSlots = append([]SlotIndex(nil), s.freeSlots...)
	return c
}

// addProperty adds (key, flags) to the layout and returns the shape the
// owning object must adopt together with the allocated slot.
//
// For shared shapes this is a pure, memoized transition: the same
// (shape, key, flags) input always yields the same output instance. For
// dictionary shapes the layout is mutated in place and freed slots are
// reused.
func (s *Shape) addProperty(key SymbolID, flags PropertyFlags, indexLike bool) (*Shape, SlotIndex) {
	if s.dictionary {
		slot := s.nextSlot
		if n := len(s.freeSlots); n > 0 {
			slot = s.freeSlots[n-1]
			s.freeSlots = s.freeSlots[:n-1]
		} else {
			s.nextSlot++
		}
		s.table[key] = len(s.props)
		s.props = append(s.props, shapeProperty{key: key, flags: flags, slot: slot, indexLike: indexLike})
		if indexLike {
			s.hasIndexLike = true
		}
		return s, slot
	}

	tk := transitionKey{key: key, flags: flags}
	s.mu.RLock()
	next, ok := s.transitions[tk]
	s.mu.RUnlock()
	if ok {
		return next, next.props[next.table[key]].slot
	}

	next = s.clone()
	slot := next.nextSlot
	next.nextSlot++
	next.table[key] = len(next.props)
	next.props = append(next.props, shapeProperty{key: key, flags: flags, slot: slot, indexLike: indexLike})
	if indexLike {
		next.hasIndexLike = true
	}

	s.mu.Lock()
	if existing, exists := s.transitions[tk]; exists {
		next = existing
		slot = next.props[next.table[key]].slot
	} else {
		s.transitions[tk] = next
		shapeRegistry.mu.Lock()
		shapeRegistry.shapeCount++
		shapeRegistry.mu.Unlock()
	}
	s.mu.Unlock()
	return next, slot
}

// deleteProperty removes key from a dictionary shape, releasing its slot
// into the free list. The caller must have converted to dictionary mode
// first.
func (s *Shape) deleteProperty(key SymbolID) (SlotIndex, bool) {
	pos, ok := s.table[key]
	if !ok {
		return 0, false
	}
	slot := s.props[pos].slot
	wasIndexLike := s.props[pos].indexLike
	s.props = append(s.props[:pos], s.props[pos+1:]...)
	delete(s.table, key)
	for k, p := range s.table {
		if p > pos {
			s.table[k] = p - 1
		}
	}
	s.freeSlots = append(s.freeSlots, slot)
	if wasIndexLike {
		s.hasIndexLike = false
		for _, p := range s.props {
			if p.indexLike {
				s.hasIndexLike = true
				break
			}
		}
	}
	return slot, true
}

// updatePropertyFlags changes one property's flags. Dictionary shapes are
// updated in place. For shared shapes the reconfiguration is a memoized
// transition like addProperty: two objects on the same shape that apply
// the same flag change land on the same shape instance, preserving shape
// identity as a layout-equality test. Stale cache entries for the old
// shape simply mismatch.
func (s *Shape) updatePropertyFlags(key SymbolID, flags PropertyFlags) *Shape {
	pos, ok := s.table[key]
	if !ok {
		return s
	}
	if s.dictionary {
		s.props[pos].flags = flags
		return s
	}
	if s.props[pos].flags == flags {
		return s
	}

	tk := transitionKey{key: key, flags: flags}
	s.mu.RLock()
	next, ok := s.updates[tk]
	s.mu.RUnlock()
	if ok {
		return next
	}

	next = s.clone()
	next.props[pos].flags = flags

	s.mu.Lock()
	if existing, exists := s.updates[tk]; exists {
		next = existing
	} else {
		s.updates[tk] = next
		shapeRegistry.mu.Lock()
		shapeRegistry.shapeCount++
		shapeRegistry.mu.Unlock()
	}
	s.mu.Unlock()
	return next
}

// bulkUpdateFlags applies fn to every property's flags in one shape-level
// update, creating at most one new (dictionary) shape instead of one
// transition per property. Used by seal and freeze.
func (s *Shape) bulkUpdateFlags(fn func(p shapeProperty) PropertyFlags) *Shape {
	d := s.toDictionary()
	for i := range d.props {
		d.props[i].flags = fn(d.props[i])
	}
	return d
}

// forEachPropertyWhile enumerates named own properties in insertion order,
// stopping early when cb returns false. Returns false iff stopped early.
func (s *Shape) forEachPropertyWhile(cb func(key SymbolID, desc NamedPropertyDescriptor) bool) bool {
	for _, p := range s.props {
		if !cb(p.key, NamedPropertyDescriptor{Slot: p.slot, Flags: p.flags}) {
			return false
		}
	}
	return true
}
