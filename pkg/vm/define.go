package vm

import (
	"strconv"
)

// updateStatus is the outcome of validating a property update against
// ES5.1 8.12.9.
type updateStatus uint8

const (
	// updateFailed: the update violates a non-configurable constraint.
	updateFailed updateStatus = iota
	// updateDone: only attributes change, the slot value stays untouched.
	updateDone
	// updateNeedSet: attributes validated, the slot value must be stored.
	updateNeedSet
)

// DefineOwnProperty creates or reconfigures an own named property
// (ES5.1 8.12.9). For accessor definitions valueOrAccessor must be an
// accessor value; for data definitions with SetValue it is the data value.
func (r *Runtime) DefineOwnProperty(o *Object, name SymbolID, dpFlags DefinePropertyFlags, valueOrAccessor Value, opts PropOpFlags) (bool, error) {
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}
	if desc, ok := o.clazz.findProperty(name); ok {
		return r.updateOwnProperty(o, name, desc, dpFlags, valueOrAccessor, opts)
	}
	if !o.IsExtensible() && !opts.InternalForce {
		return policyFail(opts, "cannot define property %q: object is not extensible", r.symbols.Name(name))
	}
	value := valueOrAccessor
	if !dpFlags.IsAccessor() && !dpFlags.SetValue {
		value = Undefined
	}
	r.addOwnProperty(o, name, flagsForNewProperty(dpFlags), value)
	return true, nil
}

// DefineNewOwnProperty is the fast path for a property known not to exist
// yet, used when populating fresh objects. It skips the 8.12.9 validation
// entirely; the caller must guarantee absence.
func (r *Runtime) DefineNewOwnProperty(o *Object, name SymbolID, flags PropertyFlags, value Value) {
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}
	if _, exists := o.clazz.findProperty(name); exists {
		panic("DefineNewOwnProperty: property already exists")
	}
	r.addOwnProperty(o, name, flags, value)
}

// updateOwnProperty reconfigures an existing own property after validating
// the request against the current attributes.
func (r *Runtime) updateOwnProperty(o *Object, name SymbolID, desc NamedPropertyDescriptor, dpFlags DefinePropertyFlags, valueOrAccessor Value, opts PropOpFlags) (bool, error) {
	slotVal := NamedSlotValue(o, desc.Slot)
	status, newFlags := checkPropertyUpdate(desc.Flags, slotVal, dpFlags, valueOrAccessor, opts)
	if status == updateFailed {
		return policyFail(opts, "cannot redefine non-configurable property %q", r.symbols.Name(name))
	}

	if newFlags != desc.Flags {
		clazz := o.clazz.updatePropertyFlags(name, newFlags)
		if clazz != o.clazz {
			o.clazz = clazz
			r.heap.writeBarrierShape(o, clazz)
		}
	}
	if status == updateDone {
		return true, nil
	}

	if dpFlags.IsAccessor() {
		var getter, setter *NativeFunction
		if slotVal.IsAccessor() {
			old := slotVal.AsAccessor()
			getter, setter = old.Getter, old.Setter
		}
		next := valueOrAccessor.AsAccessor()
		if dpFlags.SetGetter {
			getter = next.Getter
		}
		if dpFlags.SetSetter {
			setter = next.Setter
		}
		merged := NewAccessor(r.heap, getter, setter)
		SetNamedSlotValue(r, o, desc.Slot, AccessorValue(merged))
		return true, nil
	}

	value := valueOrAccessor
	if !dpFlags.SetValue {
		// Accessor-to-data conversion without an explicit value.
		value = Undefined
	}
	SetNamedSlotValue(r, o, desc.Slot, value)
	return true, nil
}

// checkPropertyUpdate validates a reconfiguration request against
// ES5.1 8.12.9 and computes the resulting attributes. InternalForce skips
// the non-configurable constraints but still merges attributes.
func checkPropertyUpdate(cur PropertyFlags, curValue Value, dpFlags DefinePropertyFlags, valueOrAccessor Value, opts PropOpFlags) (updateStatus, PropertyFlags) {
	curIsAccessor := cur.Accessor
	wantAccessor := dpFlags.IsAccessor()
	wantData := dpFlags.SetValue || dpFlags.Writable.Valid

	if !cur.Configurable && !opts.InternalForce {
		if dpFlags.Configurable.Valid && dpFlags.Configurable.Bool {
			return updateFailed, cur
		}
		if dpFlags.Enumerable.Valid && dpFlags.Enumerable.Bool != cur.Enumerable {
			return updateFailed, cur
		}
		if curIsAccessor && wantData {
			return updateFailed, cur
		}
		if !curIsAccessor && wantAccessor {
			return updateFailed, cur
		}
		if curIsAccessor && wantAccessor {
			old := curValue.AsAccessor()
			next := valueOrAccessor.AsAccessor()
			if dpFlags.SetGetter && next.Getter != old.Getter {
				return updateFailed, cur
			}
			if dpFlags.SetSetter && next.Setter != old.Setter {
				return updateFailed, cur
			}
		}
		if !curIsAccessor && !cur.Writable {
			if dpFlags.Writable.Valid && dpFlags.Writable.Bool {
				return updateFailed, cur
			}
			if dpFlags.SetValue && !SameValue(curValue, valueOrAccessor) {
				return updateFailed, cur
			}
		}
	}

	newFlags := cur
	if dpFlags.Enumerable.Valid {
		newFlags.Enumerable = dpFlags.Enumerable.Bool
	}
	if dpFlags.Configurable.Valid {
		newFlags.Configurable = dpFlags.Configurable.Bool
	}
	if dpFlags.Writable.Valid {
		newFlags.Writable = dpFlags.Writable.Bool
	}
	if dpFlags.EnableInternalSetter {
		newFlags.InternalSetter = true
	}

	switch {
	case wantAccessor:
		// Writable does not apply to accessors. The Accessor bit flip
		// guarantees a shape change on data-to-accessor conversion.
		newFlags.Writable = false
		newFlags.Accessor = true
		return updateNeedSet, newFlags
	case curIsAccessor && wantData:
		// Converting to data: writable defaults to false unless requested.
		newFlags.Accessor = false
		if !dpFlags.Writable.Valid {
			newFlags.Writable = false
		}
		return updateNeedSet, newFlags
	case dpFlags.SetValue:
		return updateNeedSet, newFlags
	default:
		return updateDone, newFlags
	}
}

// DefineOwnComputed creates or reconfigures an own property through the
// computed path. Index keys on objects with indexed storage go to the
// element store when the requested attributes match what it can represent;
// otherwise the element is converted to a shadowing named property.
func (r *Runtime) DefineOwnComputed(o *Object, key Value, dpFlags DefinePropertyFlags, valueOrAccessor Value, opts PropOpFlags) (bool, error) {
	index, isIndex, sym, err := r.toPropertyKey(key)
	if err != nil {
		return false, err
	}
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}
	if !isIndex || !o.flags.IndexedStorage {
		if isIndex {
			sym = r.symbols.Intern(strconv.FormatUint(uint64(index), 10))
		}
		return r.DefineOwnProperty(o, sym, dpFlags, valueOrAccessor, opts)
	}

	// A shadowing named property already owns this index.
	if !o.flags.FastIndexProperties {
		if shadow, ok := r.findShadowingNamed(o, index); ok {
			name, _ := r.symbols.Lookup(strconv.FormatUint(uint64(index), 10))
			return r.updateOwnProperty(o, name, shadow, dpFlags, valueOrAccessor, opts)
		}
	}

	exists := HaveOwnIndexed(o, index)
	if indexedCanRepresent(dpFlags) {
		if !exists && !o.IsExtensible() && !opts.InternalForce {
			return policyFail(opts, "cannot define element %d: object is not extensible", index)
		}
		value := valueOrAccessor
		if !dpFlags.SetValue {
			if exists {
				value = GetOwnIndexed(o, index)
			} else {
				value = Undefined
			}
		}
		ok, err := SetOwnIndexed(r, o, index, value)
		if err != nil {
			return false, err
		}
		if !ok {
			return policyFail(opts, "cannot define element %d", index)
		}
		return true, nil
	}

	// Unusual attributes: evict the element and define a named shadow.
	var existingValue Value
	if exists {
		existingValue = GetOwnIndexed(o, index)
		if !DeleteOwnIndexed(r, o, index) {
			return policyFail(opts, "cannot redefine element %d", index)
		}
	} else if !o.IsExtensible() && !opts.InternalForce {
		return policyFail(opts, "cannot define element %d: object is not extensible", index)
	}
	value := valueOrAccessor
	if !dpFlags.IsAccessor() && !dpFlags.SetValue {
		if exists {
			value = existingValue
		} else {
			value = Undefined
		}
	}
	name := r.symbols.Intern(strconv.FormatUint(uint64(index), 10))
	r.addOwnProperty(o, name, flagsForNewProperty(dpFlags), value)
	return true, nil
}

// indexedCanRepresent reports whether a definition fits the fixed attribute
// model of indexed storage: a plain data element that is enumerable,
// writable and configurable (or leaves those attributes at their defaults).
func indexedCanRepresent(d DefinePropertyFlags) bool {
	if d.IsAccessor() || d.EnableInternalSetter {
		return false
	}
	if d.Enumerable.Valid && !d.Enumerable.Bool {
		return false
	}
	if d.Writable.Valid && !d.Writable.Bool {
		return false
	}
	if d.Configurable.Valid && !d.Configurable.Bool {
		return false
	}
	return true
}
