package vm

import (
	"strconv"
)

// DeleteNamed removes an own named property (ES5.1 8.12.7). Deleting an
// absent property succeeds; deleting a non-configurable one is a policy
// failure. A successful deletion forces the object into dictionary mode so
// that no shared shape ever observes a removal.
func (r *Runtime) DeleteNamed(o *Object, name SymbolID, opts PropOpFlags) (bool, error) {
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}
	desc, exists := o.clazz.findProperty(name)
	if !exists {
		return true, nil
	}
	if !desc.Flags.Configurable && !opts.InternalForce {
		return policyFail(opts, "cannot delete non-configurable property %q", r.symbols.Name(name))
	}

	if !o.clazz.IsDictionary() {
		o.clazz = o.clazz.toDictionary()
		r.heap.writeBarrierShape(o, o.clazz)
	}
	slot, ok := o.clazz.deleteProperty(name)
	if !ok {
		return true, nil
	}
	// Clear the slot so the dead value does not keep cells alive until the
	// slot is recycled.
	SetNamedSlotValue(r, o, slot, Empty)
	if r.nameIsIndexLike(name) {
		o.refreshFastIndexProperties()
	}
	return true, nil
}

// DeleteComputed removes an own property through the computed path
// (ES5.1 8.12.7 in full generality). For index keys the shadowing named
// property is removed first if present, then the indexed element.
func (r *Runtime) DeleteComputed(o *Object, key Value, opts PropOpFlags) (bool, error) {
	index, isIndex, sym, err := r.toPropertyKey(key)
	if err != nil {
		return false, err
	}
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}
	if !isIndex {
		return r.DeleteNamed(o, sym, opts)
	}
	if !o.flags.IndexedStorage {
		name, ok := r.symbols.Lookup(strconv.FormatUint(uint64(index), 10))
		if !ok {
			return true, nil
		}
		return r.DeleteNamed(o, name, opts)
	}

	if !o.flags.FastIndexProperties {
		if name, ok := r.symbols.Lookup(strconv.FormatUint(uint64(index), 10)); ok {
			if _, shadowed := o.clazz.findProperty(name); shadowed {
				return r.DeleteNamed(o, name, opts)
			}
		}
	}
	if DeleteOwnIndexed(r, o, index) {
		return true, nil
	}
	return policyFail(opts, "cannot delete element %d", index)
}
