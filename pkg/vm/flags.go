package vm

import (
	"gopkg.in/guregu/null.v3"
)

// PropertyFlags are the attributes attached to a single property. They are
// immutable except through explicit attribute-update operations
// (DefineOwnProperty, seal, freeze).
type PropertyFlags struct {
	Enumerable   bool
	Writable     bool
	Configurable bool

	// Accessor marks a property whose slot holds a getter/setter cell
	// rather than a data value. Carried in the flags so that data/accessor
	// conversion always changes the flags, and therefore the shape: shape
	// identity must fully determine the kind of value behind a slot.
	Accessor bool

	// Indexed marks a computed descriptor whose slot is an element index in
	// indexed storage rather than a named slot.
	Indexed bool

	// InternalSetter routes value writes through the object's internal
	// setter hook instead of plain slot storage. Reserved for a small set
	// of specially-backed properties.
	InternalSetter bool
}

// DefaultDataFlags returns the attributes of a property created by plain
// assignment: writable, enumerable, configurable.
func DefaultDataFlags() PropertyFlags {
	return PropertyFlags{Enumerable: true, Writable: true, Configurable: true}
}

// NonEnumerableFlags returns the attributes typical for built-in methods:
// writable, configurable, non-enumerable.
func NonEnumerableFlags() PropertyFlags {
	return PropertyFlags{Writable: true, Configurable: true}
}

// ObjectFlags are per-object state bits. Frozen implies Sealed implies
// NoExtend; the three are only ever set, never cleared.
type ObjectFlags struct {
	// NoExtend: new properties cannot be added.
	NoExtend bool
	// Sealed: all own properties are non-configurable.
	Sealed bool
	// Frozen: sealed, and all own data properties are non-writable.
	Frozen bool

	// IndexedStorage is set at construction and never changes.
	IndexedStorage bool

	// FastIndexProperties holds exactly while IndexedStorage is set and the
	// shape reports no index-like named properties, letting computed access
	// skip the shadow check with one bit test.
	FastIndexProperties bool

	// HostObject: properties are managed by embedder callbacks, not by the
	// standard storage machinery.
	HostObject bool

	// LazyObject: the object must be initialized before its properties can
	// be used. Lazy objects have no properties defined on them.
	LazyObject bool

	// objectID is assigned lazily by GetObjectID; 0 means unassigned.
	objectID uint32
}

// PropOpFlags modify the behavior of property access operations.
type PropOpFlags struct {
	// ThrowOnError: surface policy failures (read-only write,
	// reconfiguration, adding to non-extensible, deleting non-configurable)
	// as a TypeError instead of a false result.
	ThrowOnError bool
	// MustExist: throw if the property does not exist.
	MustExist bool
	// InternalForce: force the operation regardless of extensibility or
	// attribute rules. Strictly for internal use by the object model.
	InternalForce bool
}

// DefinePropertyFlags describe a requested property definition or update.
// Each attribute is an optional boolean so that "leave this attribute
// alone" and "set it to false" stay distinct.
type DefinePropertyFlags struct {
	Enumerable   null.Bool
	Writable     null.Bool
	Configurable null.Bool

	// SetValue: the data value is being set.
	SetValue bool
	// SetGetter / SetSetter: the corresponding accessor half is being set.
	SetGetter bool
	SetSetter bool

	// EnableInternalSetter requests the InternalSetter property flag.
	// Strictly for internal use inside the object model.
	EnableInternalSetter bool
}

// IsAccessor reports whether the definition describes an accessor property.
func (d DefinePropertyFlags) IsAccessor() bool {
	return d.SetGetter || d.SetSetter
}

// IsEmpty reports whether the definition requests nothing at all.
func (d DefinePropertyFlags) IsEmpty() bool {
	return !d.Enumerable.Valid && !d.Writable.Valid && !d.Configurable.Valid &&
		!d.SetValue && !d.SetGetter && !d.SetSetter && !d.EnableInternalSetter
}

// DefaultNewPropertyFlags describes a "normal" property definition:
// writable, enumerable, configurable, setting its non-accessor value.
func DefaultNewPropertyFlags() DefinePropertyFlags {
	return DefinePropertyFlags{
		Enumerable:   null.BoolFrom(true),
		Writable:     null.BoolFrom(true),
		Configurable: null.BoolFrom(true),
		SetValue:     true,
	}
}

// NewNonEnumerableFlags describes a writable, configurable, non-enumerable
// data property definition.
func NewNonEnumerableFlags() DefinePropertyFlags {
	return DefinePropertyFlags{
		Enumerable:   null.BoolFrom(false),
		Writable:     null.BoolFrom(true),
		Configurable: null.BoolFrom(true),
		SetValue:     true,
	}
}

// flagsForNewProperty materializes the concrete PropertyFlags for a brand
// new property: unset attributes default to false. Writable does not apply
// to accessors.
func flagsForNewProperty(d DefinePropertyFlags) PropertyFlags {
	writable := d.Writable.Valid && d.Writable.Bool
	if d.IsAccessor() {
		writable = false
	}
	return PropertyFlags{
		Enumerable:     d.Enumerable.Valid && d.Enumerable.Bool,
		Writable:       writable,
		Configurable:   d.Configurable.Valid && d.Configurable.Bool,
		Accessor:       d.IsAccessor(),
		InternalSetter: d.EnableInternalSetter,
	}
}
