package vm

import (
	"strconv"

	hermeserr "github.com/simpleton/hermes/pkg/errors"
)

// getNamedDescriptor searches for a named property on o or along its
// prototype chain. Returns the object the property was found on, the
// descriptor, and whether it was found.
func (r *Runtime) getNamedDescriptor(o *Object, name SymbolID) (*Object, NamedPropertyDescriptor, bool) {
	for cur := o; cur != nil; cur = cur.parent {
		if cur.flags.LazyObject {
			r.initializeLazy(cur)
		}
		if desc, ok := cur.clazz.findProperty(name); ok {
			return cur, desc, true
		}
	}
	return nil, NamedPropertyDescriptor{}, false
}

// getNamedPropertyValue loads the value behind a named descriptor found on
// propObj, invoking the getter if the slot holds an accessor. The receiver
// (this) for the getter call is self, which may be lower on the chain.
// A getter may run arbitrary script, so self and propObj are rooted across
// the call.
func (r *Runtime) getNamedPropertyValue(self, propObj *Object, desc NamedPropertyDescriptor) (Value, error) {
	v := NamedSlotValue(propObj, desc.Slot)
	if !v.IsAccessor() {
		return v, nil
	}
	acc := v.AsAccessor()
	if acc.Getter == nil {
		return Undefined, nil
	}
	scope := NewGCScope(r.heap)
	selfHandle := scope.AddObject(self)
	return r.Call(acc.Getter, selfHandle.Value(), nil)
}

// GetNamed implements property read for a key that is statically known not
// to be index-like (ES5.1 8.12.3 for named keys).
func (r *Runtime) GetNamed(o *Object, name SymbolID, opts PropOpFlags) (Value, error) {
	return r.getNamedWithCache(o, name, opts, nil)
}

// GetNamedCached is GetNamed with an inline cache owned by the call site.
// On a hit the cached slot is read directly; on a miss the cache is
// refreshed when the result is cacheable.
func (r *Runtime) GetNamedCached(o *Object, name SymbolID, opts PropOpFlags, cache *PropInlineCache) (Value, error) {
	return r.getNamedWithCache(o, name, opts, cache)
}

func (r *Runtime) getNamedWithCache(o *Object, name SymbolID, opts PropOpFlags, cache *PropInlineCache) (Value, error) {
	if cache != nil {
		if slot, ok := cache.lookup(o.clazz); ok {
			r.noteCacheHit(cache)
			return NamedSlotValue(o, slot), nil
		}
		r.cacheStats.totalMisses++
	}

	propObj, desc, found := r.getNamedDescriptor(o, name)
	if !found {
		if opts.MustExist {
			return Undefined, hermeserr.NewTypeError("property %q does not exist", r.symbols.Name(name))
		}
		return Undefined, nil
	}

	if cache != nil && propObj == o && r.isCacheableDescriptor(o, desc) {
		before := cache.state
		cache.update(o.clazz, desc.Slot, r.cfg.CacheMaxEntries)
		if before != CacheMegamorphic && cache.state == CacheMegamorphic {
			r.cacheStats.megamorphicSites++
		}
	}
	return r.getNamedPropertyValue(o, propObj, desc)
}

// isCacheableDescriptor reports whether a resolved property is a pure
// function of the receiver's shape: a plain data property with no accessor,
// no internal setter, no indexed membership, found on a shared (non
// dictionary) shape. Accessor-ness is read from the flags, so the answer
// is decided by shape identity alone.
func (r *Runtime) isCacheableDescriptor(o *Object, desc NamedPropertyDescriptor) bool {
	if desc.Flags.Accessor || desc.Flags.InternalSetter || desc.Flags.Indexed {
		return false
	}
	return !o.clazz.IsDictionary()
}

// TryGetNamedNoAlloc is the opportunistic allocation-free read: it walks
// the prototype chain but refuses accessors (which would have to run
// script) and reports ok=false for them.
func (r *Runtime) TryGetNamedNoAlloc(o *Object, name SymbolID) (Value, bool) {
	for cur := o; cur != nil; cur = cur.parent {
		if cur.flags.LazyObject {
			// Initialization allocates; declare the property unreachable
			// on this path.
			return Undefined, false
		}
		if desc, ok := cur.clazz.findProperty(name); ok {
			v := NamedSlotValue(cur, desc.Slot)
			if v.IsAccessor() {
				return Undefined, false
			}
			return v, true
		}
	}
	return Undefined, false
}

// HasNamed checks own-or-prototype existence without materializing the
// value or invoking getters.
func (r *Runtime) HasNamed(o *Object, name SymbolID) bool {
	_, _, found := r.getNamedDescriptor(o, name)
	return found
}

// getOwnComputedDescriptor extracts an own-property descriptor through the
// computed path: indexed storage for index keys (with the shadowing named
// property checked first unless the fast bit allows skipping it), the
// shape for named keys.
func (r *Runtime) getOwnComputedDescriptor(o *Object, index uint32, isIndex bool, sym SymbolID) (ComputedPropertyDescriptor, bool) {
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}
	if isIndex {
		if o.flags.IndexedStorage {
			if !o.flags.FastIndexProperties {
				if shadow, ok := r.findShadowingNamed(o, index); ok {
					return shadow.asComputed(), true
				}
			}
			if flags, ok := GetOwnIndexedPropertyFlags(o, index); ok {
				return ComputedPropertyDescriptor{Slot: index, Flags: flags}, true
			}
			return ComputedPropertyDescriptor{}, false
		}
		// Without indexed storage, index-like keys are plain named
		// properties.
		name, ok := r.symbols.Lookup(strconv.FormatUint(uint64(index), 10))
		if !ok {
			return ComputedPropertyDescriptor{}, false
		}
		if desc, found := o.clazz.findProperty(name); found {
			return desc.asComputed(), true
		}
		return ComputedPropertyDescriptor{}, false
	}
	if desc, found := o.clazz.findProperty(sym); found {
		return desc.asComputed(), true
	}
	return ComputedPropertyDescriptor{}, false
}

// findShadowingNamed checks for a named own property whose name is the
// decimal form of index. Such a property shadows the indexed slot.
func (r *Runtime) findShadowingNamed(o *Object, index uint32) (NamedPropertyDescriptor, bool) {
	name, ok := r.symbols.Lookup(strconv.FormatUint(uint64(index), 10))
	if !ok {
		return NamedPropertyDescriptor{}, false
	}
	return o.clazz.findProperty(name)
}

// getComputedSlotValue reads the storage behind a computed descriptor
// without invoking getters.
func getComputedSlotValue(o *Object, desc ComputedPropertyDescriptor) Value {
	if desc.Flags.Indexed {
		return GetOwnIndexed(o, desc.Slot)
	}
	return NamedSlotValue(o, desc.Slot)
}

// getComputedPropertyValue loads the value behind a computed descriptor
// found on propObj, invoking the getter if present.
func (r *Runtime) getComputedPropertyValue(self, propObj *Object, desc ComputedPropertyDescriptor) (Value, error) {
	v := getComputedSlotValue(propObj, desc)
	if !v.IsAccessor() {
		return v, nil
	}
	acc := v.AsAccessor()
	if acc.Getter == nil {
		return Undefined, nil
	}
	scope := NewGCScope(r.heap)
	selfHandle := scope.AddObject(self)
	return r.Call(acc.Getter, selfHandle.Value(), nil)
}

// GetComputed implements property read for an arbitrary key value
// (ES5.1 8.12.3 in full generality).
func (r *Runtime) GetComputed(o *Object, key Value, opts PropOpFlags) (Value, error) {
	index, isIndex, sym, err := r.toPropertyKey(key)
	if err != nil {
		return Undefined, err
	}
	for cur := o; cur != nil; cur = cur.parent {
		if desc, found := r.getOwnComputedDescriptor(cur, index, isIndex, sym); found {
			return r.getComputedPropertyValue(o, cur, desc)
		}
	}
	if opts.MustExist {
		return Undefined, hermeserr.NewTypeError("property %s does not exist", key.Inspect())
	}
	return Undefined, nil
}

// HasComputed checks own-or-prototype existence of a computed key without
// invoking getters.
func (r *Runtime) HasComputed(o *Object, key Value) (bool, error) {
	index, isIndex, sym, err := r.toPropertyKey(key)
	if err != nil {
		return false, err
	}
	for cur := o; cur != nil; cur = cur.parent {
		if _, found := r.getOwnComputedDescriptor(cur, index, isIndex, sym); found {
			return true, nil
		}
	}
	return false, nil
}

// GetOwnNamedDescriptor extracts the descriptor of an own named property
// (ES5.1 8.12.1).
func (r *Runtime) GetOwnNamedDescriptor(o *Object, name SymbolID) (NamedPropertyDescriptor, bool) {
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}
	return o.clazz.findProperty(name)
}

// GetOwnComputedDescriptor extracts the descriptor of an own property
// through the computed path (ES5.1 8.12.1).
func (r *Runtime) GetOwnComputedDescriptor(o *Object, key Value) (ComputedPropertyDescriptor, bool, error) {
	index, isIndex, sym, err := r.toPropertyKey(key)
	if err != nil {
		return ComputedPropertyDescriptor{}, false, err
	}
	desc, found := r.getOwnComputedDescriptor(o, index, isIndex, sym)
	return desc, found, nil
}
