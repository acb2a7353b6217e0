package vm

import (
	"strconv"

	hermeserr "github.com/simpleton/hermes/pkg/errors"
)

// policyFail reports a policy-gated failure: a TypeError when ThrowOnError
// is set, a plain false result otherwise.
func policyFail(opts PropOpFlags, format string, args ...interface{}) (bool, error) {
	if opts.ThrowOnError {
		return false, hermeserr.NewTypeError(format, args...)
	}
	return false, nil
}

// PutNamed implements property write for a key that is statically known
// not to be index-like (ES5.1 8.12.5 for named keys).
func (r *Runtime) PutNamed(o *Object, name SymbolID, v Value, opts PropOpFlags) (bool, error) {
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}

	// Own property first.
	if desc, ok := o.clazz.findProperty(name); ok {
		return r.putOwnNamed(o, name, desc, v, opts)
	}

	// Prototype chain: an inherited accessor intercepts the write, an
	// inherited read-only data property blocks it.
	for cur := o.parent; cur != nil; cur = cur.parent {
		if cur.flags.LazyObject {
			r.initializeLazy(cur)
		}
		desc, ok := cur.clazz.findProperty(name)
		if !ok {
			continue
		}
		slotVal := NamedSlotValue(cur, desc.Slot)
		if slotVal.IsAccessor() {
			acc := slotVal.AsAccessor()
			if acc.Setter == nil {
				return policyFail(opts, "cannot write to property %q: getter-only accessor", r.symbols.Name(name))
			}
			scope := NewGCScope(r.heap)
			selfHandle := scope.AddObject(o)
			if _, err := r.Call(acc.Setter, selfHandle.Value(), []Value{v}); err != nil {
				return false, err
			}
			return true, nil
		}
		if !desc.Flags.Writable {
			return policyFail(opts, "cannot write to read-only property %q", r.symbols.Name(name))
		}
		// Writable data property on the prototype: shadow it with a new
		// own property below.
		break
	}

	if opts.MustExist {
		return false, hermeserr.NewTypeError("property %q does not exist", r.symbols.Name(name))
	}
	if !o.IsExtensible() && !opts.InternalForce {
		return policyFail(opts, "cannot add property %q: object is not extensible", r.symbols.Name(name))
	}
	r.addOwnProperty(o, name, DefaultDataFlags(), v)
	return true, nil
}

// putOwnNamed performs the write once the property is known to exist on the
// receiver itself.
func (r *Runtime) putOwnNamed(o *Object, name SymbolID, desc NamedPropertyDescriptor, v Value, opts PropOpFlags) (bool, error) {
	slotVal := NamedSlotValue(o, desc.Slot)
	if slotVal.IsAccessor() {
		acc := slotVal.AsAccessor()
		if acc.Setter == nil {
			return policyFail(opts, "cannot write to property %q: getter-only accessor", r.symbols.Name(name))
		}
		scope := NewGCScope(r.heap)
		selfHandle := scope.AddObject(o)
		if _, err := r.Call(acc.Setter, selfHandle.Value(), []Value{v}); err != nil {
			return false, err
		}
		return true, nil
	}
	if !desc.Flags.Writable && !opts.InternalForce {
		return policyFail(opts, "cannot write to read-only property %q", r.symbols.Name(name))
	}
	if desc.Flags.InternalSetter && o.internalSetter != nil {
		// The hook replaces the plain slot write; it may store through
		// SetNamedSlotValue itself.
		return o.internalSetter(r, o, name, desc, v, opts)
	}
	SetNamedSlotValue(r, o, desc.Slot, v)
	return true, nil
}

// addOwnProperty appends a brand-new own property, escaping to dictionary
// mode when the shape's transition fan-out is pathological.
func (r *Runtime) addOwnProperty(o *Object, name SymbolID, flags PropertyFlags, v Value) {
	if !o.clazz.IsDictionary() && o.clazz.transitionCount() >= r.cfg.TransitionFanOutThreshold {
		if r.cfg.TraceShapes {
			r.logger.WithField("fanOut", o.clazz.transitionCount()).
				Debug("shape transition fan-out exceeded, converting to dictionary")
		}
		o.clazz = o.clazz.toDictionary()
		r.heap.writeBarrierShape(o, o.clazz)
	}
	indexLike := r.nameIsIndexLike(name)
	clazz, slot := o.clazz.addProperty(name, flags, indexLike)
	if clazz != o.clazz {
		o.clazz = clazz
		r.heap.writeBarrierShape(o, clazz)
	}
	allocateSlotStorage(r, o, slot, v)
	if indexLike {
		o.refreshFastIndexProperties()
	}
}

// PutComputed implements property write for an arbitrary key value
// (ES5.1 8.12.5 in full generality).
func (r *Runtime) PutComputed(o *Object, key Value, v Value, opts PropOpFlags) (bool, error) {
	index, isIndex, sym, err := r.toPropertyKey(key)
	if err != nil {
		return false, err
	}
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}

	if isIndex && o.flags.IndexedStorage {
		return r.putIndexed(o, index, v, opts)
	}
	if isIndex {
		// No indexed storage: index keys are plain named properties.
		sym = r.symbols.Intern(strconv.FormatUint(uint64(index), 10))
	}
	return r.PutNamed(o, sym, v, opts)
}

func (r *Runtime) putIndexed(o *Object, index uint32, v Value, opts PropOpFlags) (bool, error) {
	// A shadowing named property takes precedence over the indexed slot.
	if !o.flags.FastIndexProperties {
		if shadow, ok := r.findShadowingNamed(o, index); ok {
			name, _ := r.symbols.Lookup(strconv.FormatUint(uint64(index), 10))
			return r.putOwnNamed(o, name, shadow, v, opts)
		}
	}

	// An inherited accessor on the prototype chain intercepts the write
	// even for index keys.
	for cur := o.parent; cur != nil; cur = cur.parent {
		desc, found := r.getOwnComputedDescriptor(cur, index, true, InvalidSymbol)
		if !found {
			continue
		}
		slotVal := getComputedSlotValue(cur, desc)
		if slotVal.IsAccessor() {
			acc := slotVal.AsAccessor()
			if acc.Setter == nil {
				return policyFail(opts, "cannot write to element %d: getter-only accessor", index)
			}
			scope := NewGCScope(r.heap)
			selfHandle := scope.AddObject(o)
			if _, err := r.Call(acc.Setter, selfHandle.Value(), []Value{v}); err != nil {
				return false, err
			}
			return true, nil
		}
		if !desc.Flags.Writable {
			return policyFail(opts, "cannot write to read-only element %d", index)
		}
		break
	}

	if !HaveOwnIndexed(o, index) && !o.IsExtensible() && !opts.InternalForce {
		return policyFail(opts, "cannot add element %d: object is not extensible", index)
	}
	ok, err := SetOwnIndexed(r, o, index, v)
	if err != nil {
		return false, err
	}
	if !ok {
		if o.flags.Frozen {
			return policyFail(opts, "cannot write to element %d of a frozen object", index)
		}
		// Fixed-capacity backends ignore uncoercible or out-of-range
		// writes silently.
		return true, nil
	}
	return true, nil
}
