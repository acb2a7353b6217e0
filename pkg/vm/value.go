package vm

import (
	"math"
	"strconv"
	"unsafe"
)

type ValueType uint8

const (
	// TypeEmpty is an internal sentinel meaning "no value here": a hole in
	// dense indexed storage, or a failed lookup. It is never visible to
	// script.
	TypeEmpty ValueType = iota
	TypeUndefined
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeSymbol
	TypeObject
	TypeAccessor
	TypeFunction
)

// String returns a human-readable name for the value type.
func (vt ValueType) String() string {
	switch vt {
	case TypeEmpty:
		return "empty"
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeObject:
		return "object"
	case TypeAccessor:
		return "accessor"
	case TypeFunction:
		return "function"
	default:
		return "unknown"
	}
}

// stringCell boxes a string payload so Value stays a single word of pointer
// payload regardless of type.
type stringCell struct {
	value string
}

// Value is the engine's tagged value representation. Numbers and booleans
// live in payload, symbols carry their SymbolID in payload, and all cell
// types (objects, strings, accessors, functions) hang off obj.
type Value struct {
	typ     ValueType
	payload uint64
	obj     unsafe.Pointer
}

var (
	// Empty is the not-found/hole sentinel.
	Empty     = Value{typ: TypeEmpty}
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	True      = Value{typ: TypeBoolean, payload: 1}
	False     = Value{typ: TypeBoolean, payload: 0}
)

func NumberValue(f float64) Value {
	return Value{typ: TypeNumber, payload: math.Float64bits(f)}
}

func BoolValue(b bool) Value {
	if b {
		return True
	}
	return False
}

func StringValue(s string) Value {
	return Value{typ: TypeString, obj: unsafe.Pointer(&stringCell{value: s})}
}

func SymbolValue(id SymbolID) Value {
	return Value{typ: TypeSymbol, payload: uint64(id)}
}

func ObjectValue(o *Object) Value {
	return Value{typ: TypeObject, obj: unsafe.Pointer(o)}
}

func AccessorValue(a *PropertyAccessor) Value {
	return Value{typ: TypeAccessor, obj: unsafe.Pointer(a)}
}

func FunctionValue(fn *NativeFunction) Value {
	return Value{typ: TypeFunction, obj: unsafe.Pointer(fn)}
}

func (v Value) Type() ValueType { return v.typ }

func (v Value) IsEmpty() bool     { return v.typ == TypeEmpty }
func (v Value) IsUndefined() bool { return v.typ == TypeUndefined }
func (v Value) IsNull() bool      { return v.typ == TypeNull }
func (v Value) IsBool() bool      { return v.typ == TypeBoolean }
func (v Value) IsNumber() bool    { return v.typ == TypeNumber }
func (v Value) IsString() bool    { return v.typ == TypeString }
func (v Value) IsSymbol() bool    { return v.typ == TypeSymbol }
func (v Value) IsObject() bool    { return v.typ == TypeObject }
func (v Value) IsAccessor() bool  { return v.typ == TypeAccessor }
func (v Value) IsFunction() bool  { return v.typ == TypeFunction }

// IsCell reports whether the value references a heap cell, i.e. whether a
// store of this value is an owning-reference store that must go through the
// write barrier.
func (v Value) IsCell() bool {
	return v.obj != nil
}

func (v Value) AsNumber() float64 {
	return math.Float64frombits(v.payload)
}

func (v Value) AsBool() bool {
	return v.payload != 0
}

func (v Value) AsString() string {
	return (*stringCell)(v.obj).value
}

func (v Value) AsSymbol() SymbolID {
	return SymbolID(v.payload)
}

func (v Value) AsObject() *Object {
	return (*Object)(v.obj)
}

func (v Value) AsAccessor() *PropertyAccessor {
	return (*PropertyAccessor)(v.obj)
}

func (v Value) AsFunction() *NativeFunction {
	return (*NativeFunction)(v.obj)
}

// StrictEquals implements the === comparison for the types the object model
// traffics in. Strings compare by content, cells by identity, NaN != NaN.
func StrictEquals(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeEmpty, TypeUndefined, TypeNull:
		return true
	case TypeBoolean, TypeSymbol:
		return a.payload == b.payload
	case TypeNumber:
		return a.AsNumber() == b.AsNumber()
	case TypeString:
		return a.AsString() == b.AsString()
	default:
		return a.obj == b.obj
	}
}

// SameValue is StrictEquals except that NaN equals NaN; used by the
// ES 8.12.9 "changing the value of a non-writable property" check.
func SameValue(a, b Value) bool {
	if a.typ == TypeNumber && b.typ == TypeNumber {
		x, y := a.AsNumber(), b.AsNumber()
		if math.IsNaN(x) && math.IsNaN(y) {
			return true
		}
		// Distinguish +0 and -0.
		return x == y && math.Signbit(x) == math.Signbit(y)
	}
	return StrictEquals(a, b)
}

// Inspect renders the value for diagnostics. It never runs script.
func (v Value) Inspect() string {
	switch v.typ {
	case TypeEmpty:
		return "<empty>"
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return strconv.FormatBool(v.AsBool())
	case TypeNumber:
		return strconv.FormatFloat(v.AsNumber(), 'g', -1, 64)
	case TypeString:
		return strconv.Quote(v.AsString())
	case TypeSymbol:
		return "Symbol(" + strconv.FormatUint(v.payload, 10) + ")"
	case TypeObject:
		return "[object]"
	case TypeAccessor:
		return "[accessor]"
	case TypeFunction:
		return "[function " + v.AsFunction().Name + "]"
	default:
		return "<unknown>"
	}
}

// CallFn is the signature of callable cells. Getters, setters and internal
// setter hooks are invoked through it; the callee may run arbitrary script,
// so every raw reference held across a call must be re-derived afterwards.
type CallFn func(r *Runtime, this Value, args []Value) (Value, error)

// NativeFunction is a callable cell supplied by the interpreter/runtime
// collaborator. The object model never inspects its body, it only invokes
// it through Runtime.Call.
type NativeFunction struct {
	Name string
	Fn   CallFn
}

// PropertyAccessor is the value of a property that has a getter and/or
// setter. Either field may be nil.
type PropertyAccessor struct {
	Getter *NativeFunction
	Setter *NativeFunction
}

// NewAccessor allocates a PropertyAccessor cell on the given heap.
func NewAccessor(h *Heap, getter, setter *NativeFunction) *PropertyAccessor {
	a := AllocateCell[PropertyAccessor](h, accessorTD)
	a.Getter = getter
	a.Setter = setter
	return a
}
