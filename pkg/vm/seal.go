package vm

// PreventExtensions bars the addition of new own properties. Irreversible.
func (r *Runtime) PreventExtensions(o *Object) {
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}
	o.flags.NoExtend = true
}

// Seal prevents extensions and makes every own property non-configurable
// (ES5.1 15.2.3.8). The attribute sweep is one shape-level update, not one
// transition per property.
func (r *Runtime) Seal(o *Object) {
	if o.flags.Sealed {
		return
	}
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}
	o.flags.NoExtend = true
	clazz := o.clazz.bulkUpdateFlags(func(p shapeProperty) PropertyFlags {
		f := p.flags
		f.Configurable = false
		return f
	})
	if clazz != o.clazz {
		o.clazz = clazz
		r.heap.writeBarrierShape(o, clazz)
	}
	o.flags.Sealed = true
}

// Freeze seals the object and additionally makes every own data property
// non-writable (ES5.1 15.2.3.9). Accessor slots keep their attributes; the
// writable bit has no meaning for them.
func (r *Runtime) Freeze(o *Object) {
	if o.flags.Frozen {
		return
	}
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}
	o.flags.NoExtend = true
	clazz := o.clazz.bulkUpdateFlags(func(p shapeProperty) PropertyFlags {
		f := p.flags
		f.Configurable = false
		if !p.flags.Accessor {
			f.Writable = false
		}
		return f
	})
	if clazz != o.clazz {
		o.clazz = clazz
		r.heap.writeBarrierShape(o, clazz)
	}
	o.flags.Sealed = true
	o.flags.Frozen = true
}

// IsSealed reports whether the object is sealed: non-extensible with every
// own property non-configurable. The Sealed flag is a monotonic cache; a
// full verification runs only when the flag is clear, and sets it on
// success.
func (r *Runtime) IsSealed(o *Object) bool {
	if o.flags.Sealed {
		return true
	}
	if o.IsExtensible() {
		return false
	}
	if o.flags.LazyObject {
		r.initializeLazy(o)
	}
	ok := o.clazz.forEachPropertyWhile(func(key SymbolID, desc NamedPropertyDescriptor) bool {
		return !desc.Flags.Configurable
	})
	if !ok {
		return false
	}
	if !CheckAllOwnIndexed(o, CheckNonConfigurable) {
		return false
	}
	o.flags.Sealed = true
	return true
}

// IsFrozen reports whether the object is frozen: sealed with every own data
// property non-writable. Like IsSealed, the flag is a monotonic cache.
func (r *Runtime) IsFrozen(o *Object) bool {
	if o.flags.Frozen {
		return true
	}
	if !r.IsSealed(o) {
		return false
	}
	ok := o.clazz.forEachPropertyWhile(func(key SymbolID, desc NamedPropertyDescriptor) bool {
		if desc.Flags.Writable {
			// Writable is meaningless on accessor slots.
			return desc.Flags.Accessor
		}
		return true
	})
	if !ok {
		return false
	}
	if !CheckAllOwnIndexed(o, CheckReadOnly) {
		return false
	}
	o.flags.Frozen = true
	return true
}
