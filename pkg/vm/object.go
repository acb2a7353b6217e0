package vm

import (
	hermeserr "github.com/simpleton/hermes/pkg/errors"
)

// DirectPropertySlots is the number of property slots allocated directly
// inside the object. Slot indices at or above it address overflow storage.
const DirectPropertySlots = 6

// InternalSetterFn is the write hook invoked instead of plain slot storage
// for properties whose flags carry InternalSetter. It may update the slot
// itself via SetNamedSlotValue. Returns the same tri-state as PutNamed.
type InternalSetterFn func(r *Runtime, o *Object, name SymbolID, desc NamedPropertyDescriptor, value Value, opts PropOpFlags) (bool, error)

// LazyInitFn populates a lazy object on first use.
type LazyInitFn func(r *Runtime, o *Object)

// HostOps is implemented by the embedder for host objects, whose properties
// are managed outside the standard storage machinery.
type HostOps interface {
	// GetHostIndexed returns the element at i, or Empty.
	GetHostIndexed(i uint32) Value
	// SetHostIndexed stores the element at i; false means the write was
	// ignored.
	SetHostIndexed(r *Runtime, i uint32, v Value) (bool, error)
	// HostIndexedRange returns the end-exclusive backed interval.
	HostIndexedRange() (uint32, uint32)
	// DeleteHostIndexed removes the element at i.
	DeleteHostIndexed(i uint32) bool
}

// Object is the script-visible object record: flags, a prototype link, a
// shape link, six inline slots and optional overflow storage, plus the
// optional indexed-storage variant.
type Object struct {
	flags ObjectFlags

	// parent is the prototype (__proto__). nil terminates the chain.
	parent *Object

	// clazz describes the object's named own-property layout.
	clazz *Shape

	directProps [DirectPropertySlots]Value
	propStorage []Value

	indexed indexedStorage

	internalSetter InternalSetterFn
	lazyInit       LazyInitFn
	hostOps        HostOps
}

// Parent returns the prototype, which may be nil.
func (o *Object) Parent() *Object { return o.parent }

// Class returns the object's shape.
func (o *Object) Class() *Shape { return o.clazz }

func (o *Object) IsExtensible() bool { return !o.flags.NoExtend }
func (o *Object) IsLazy() bool       { return o.flags.LazyObject }
func (o *Object) IsHostObject() bool { return o.flags.HostObject }

// ShouldCacheForIn reports whether the object's own-property set is
// uniquely determined by its shape identity.
func (o *Object) ShouldCacheForIn() bool {
	return !o.clazz.IsDictionary() && !o.flags.IndexedStorage && !o.flags.HostObject
}

// GetObjectID returns the object's identity, assigning one on first use.
// Identities are compact non-zero integers suitable for hashing.
func (r *Runtime) GetObjectID(o *Object) uint32 {
	if o.flags.objectID == 0 {
		o.flags.objectID = r.heap.NextObjectID()
	}
	return o.flags.objectID
}

// --- Factories ---

// NewObject allocates a plain object with the given prototype and the
// empty root shape.
func (r *Runtime) NewObject(parent *Object) *Object {
	o := AllocateCell[Object](r.heap, objectTD)
	o.parent = parent
	o.clazz = RootShape()
	r.heap.writeBarrierObject(o, parent)
	return o
}

// NewObjectWithCapacity allocates a plain object with overflow slot storage
// preallocated for the configured initial property capacity.
func (r *Runtime) NewObjectWithCapacity(parent *Object, propertyCount int) *Object {
	o := r.NewObject(parent)
	if propertyCount > DirectPropertySlots {
		o.propStorage = r.heap.allocateValueStorage(propertyCount - DirectPropertySlots)
	}
	return o
}

// NewDenseArray allocates an object with dense indexed storage of the given
// initial length (elements start as holes).
func (r *Runtime) NewDenseArray(parent *Object, length uint32) *Object {
	o := r.NewObject(parent)
	o.flags.IndexedStorage = true
	o.flags.FastIndexProperties = true
	o.indexed = newDenseStorage(r.heap, length)
	return o
}

// NewBoundedArray allocates an object with fixed-capacity numeric indexed
// storage (the typed-array-like variant). Writes outside the capacity are
// silently ignored.
func (r *Runtime) NewBoundedArray(parent *Object, length uint32) *Object {
	o := r.NewObject(parent)
	o.flags.IndexedStorage = true
	o.flags.FastIndexProperties = true
	o.indexed = newBoundedStorage(length)
	return o
}

// NewArguments allocates an arguments-style object: dense indexed storage
// seeded from args.
func (r *Runtime) NewArguments(parent *Object, args []Value) *Object {
	o := r.NewObject(parent)
	o.flags.IndexedStorage = true
	o.flags.FastIndexProperties = true
	o.indexed = newArgumentsStorage(r.heap, args)
	for _, a := range args {
		r.heap.WriteBarrier(o, a)
	}
	return o
}

// NewHostObject allocates an object whose indexed properties are delegated
// to embedder callbacks.
func (r *Runtime) NewHostObject(parent *Object, ops HostOps) *Object {
	o := r.NewObject(parent)
	o.flags.IndexedStorage = true
	o.flags.HostObject = true
	o.flags.FastIndexProperties = true
	o.indexed = indexedStorage{kind: IndexedHost}
	o.hostOps = ops
	return o
}

// NewLazyObject allocates an object that init will populate on first
// property access. Lazy objects start with no properties.
func (r *Runtime) NewLazyObject(parent *Object, init LazyInitFn) *Object {
	o := r.NewObject(parent)
	o.flags.LazyObject = true
	o.lazyInit = init
	return o
}

// SetInternalSetter installs the per-object write hook reached by
// properties defined with EnableInternalSetter.
func (o *Object) SetInternalSetter(hook InternalSetterFn) {
	o.internalSetter = hook
}

// initializeLazy runs the deferred initializer exactly once.
func (r *Runtime) initializeLazy(o *Object) {
	if !o.flags.LazyObject {
		return
	}
	o.flags.LazyObject = false
	if o.lazyInit != nil {
		init := o.lazyInit
		o.lazyInit = nil
		init(r, o)
	}
}

// SetParent implements ES6 9.1.2 [[SetPrototypeOf]]: no-op when unchanged,
// fails on a non-extensible receiver, and rejects prototype cycles. Cycle
// detection is structural and always throws — it is not policy-gated.
func (r *Runtime) SetParent(o *Object, parent *Object) error {
	if o.parent == parent {
		return nil
	}
	if !o.IsExtensible() {
		return hermeserr.NewTypeError("cannot set prototype of a non-extensible object")
	}
	for p := parent; p != nil; p = p.parent {
		if p == o {
			return hermeserr.NewTypeError("prototype chain cycle detected")
		}
	}
	o.parent = parent
	r.heap.writeBarrierObject(o, parent)
	return nil
}

// --- Slot storage ---
//
// Slot index space is unified: indices below DirectPropertySlots address
// the inline slots, the rest address (index - DirectPropertySlots) in
// overflow storage. Overflow storage grows by replacement and never shrinks
// during the object's life; released indices are recycled through the
// shape's free list instead.

// NamedSlotValue reads the value stored at a slot.
func NamedSlotValue(o *Object, slot SlotIndex) Value {
	if slot < DirectPropertySlots {
		return o.directProps[slot]
	}
	return o.propStorage[slot-DirectPropertySlots]
}

// SetNamedSlotValue stores a value at a slot, notifying the write barrier.
// The slot must have been allocated already.
func SetNamedSlotValue(r *Runtime, o *Object, slot SlotIndex, v Value) {
	r.heap.WriteBarrier(o, v)
	if slot < DirectPropertySlots {
		o.directProps[slot] = v
		return
	}
	o.propStorage[slot-DirectPropertySlots] = v
}

// allocateSlotStorage makes newSlot addressable, growing overflow storage
// if needed, then stores the initial value. Growth is a potential
// collection point.
func allocateSlotStorage(r *Runtime, o *Object, newSlot SlotIndex, v Value) {
	if newSlot >= DirectPropertySlots {
		need := int(newSlot) - DirectPropertySlots + 1
		if need > len(o.propStorage) {
			capacity := len(o.propStorage) * 2
			if capacity < need {
				capacity = need
			}
			if capacity < r.cfg.InitialPropertyCapacity {
				capacity = r.cfg.InitialPropertyCapacity
			}
			grown := r.heap.allocateValueStorage(capacity)
			copy(grown, o.propStorage)
			o.propStorage = grown
		}
	}
	SetNamedSlotValue(r, o, newSlot, v)
}

// --- Internal properties ---
//
// Internal properties are reserved slots addressed by index, keyed by
// unique symbols so they can never collide with script-visible names. They
// must be added before any named property.

// AddInternalProperties reserves count slots starting at index 0,
// initialized to v. Callable exactly once per object, before any other
// property has been added.
func (r *Runtime) AddInternalProperties(o *Object, count int, v Value) {
	if o.clazz.NumProperties() != 0 {
		panic("internal properties must be reserved before any named property")
	}
	for i := 0; i < count; i++ {
		sym := r.internalSymbol(i)
		clazz, slot := o.clazz.addProperty(sym, PropertyFlags{}, false)
		o.clazz = clazz
		r.heap.writeBarrierShape(o, clazz)
		allocateSlotStorage(r, o, slot, v)
	}
}

// InternalPropertyValue reads the reserved slot at index.
func InternalPropertyValue(o *Object, index int) Value {
	return NamedSlotValue(o, SlotIndex(index))
}

// SetInternalPropertyValue writes the reserved slot at index.
func SetInternalPropertyValue(r *Runtime, o *Object, index int, v Value) {
	SetNamedSlotValue(r, o, SlotIndex(index), v)
}

// refreshFastIndexProperties recomputes the fast-path bit after a named
// property change: it holds exactly while indexed storage is present and
// the shape reports no index-like named properties.
func (o *Object) refreshFastIndexProperties() {
	o.flags.FastIndexProperties = o.flags.IndexedStorage && !o.clazz.HasIndexLikeProperties()
}
