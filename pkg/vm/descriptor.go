package vm

// SlotIndex addresses a property value in the unified slot space: indices
// below DirectPropertySlots live inline in the object, the rest in overflow
// storage.
type SlotIndex = uint32

// NamedPropertyDescriptor locates a named own property: a slot index plus
// the property's attribute flags. Descriptors are views — they are
// recomputed on each lookup (or remembered by the inline cache), never
// stored.
type NamedPropertyDescriptor struct {
	Slot  SlotIndex
	Flags PropertyFlags
}

// ComputedPropertyDescriptor locates a property found through the computed
// path. When Flags.Indexed is set, Slot is an element index into indexed
// storage; otherwise it is a named slot index.
type ComputedPropertyDescriptor struct {
	Slot  uint32
	Flags PropertyFlags
}

func (d NamedPropertyDescriptor) asComputed() ComputedPropertyDescriptor {
	return ComputedPropertyDescriptor{Slot: d.Slot, Flags: d.Flags}
}
