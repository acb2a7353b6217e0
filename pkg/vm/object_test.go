package vm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	hermeserr "github.com/simpleton/hermes/pkg/errors"
)

func nullBool(b bool) null.Bool { return null.BoolFrom(b) }

func TestPutGetRoundTrip(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	k := r.Intern("answer")

	mustPut(t, r, o, k, NumberValue(42))
	v, err := r.GetNamed(o, k, PropOpFlags{})
	require.NoError(t, err)
	assert.Equal(t, 42.0, v.AsNumber())

	mustPut(t, r, o, k, StringValue("forty-two"))
	v, err = r.GetNamed(o, k, PropOpFlags{})
	require.NoError(t, err)
	assert.Equal(t, "forty-two", v.AsString())
}

func TestGetAbsentProperty(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	k := r.Intern("missing")

	v, err := r.GetNamed(o, k, PropOpFlags{})
	require.NoError(t, err)
	assert.True(t, v.IsUndefined())

	_, err = r.GetNamed(o, k, PropOpFlags{MustExist: true})
	require.Error(t, err)
	assert.True(t, hermeserr.IsTypeError(err))
}

func TestPrototypeChainLookup(t *testing.T) {
	r := newTestRuntime(t)
	proto := r.NewObject(nil)
	child := r.NewObject(proto)
	k := r.Intern("inherited")

	mustPut(t, r, proto, k, NumberValue(7))
	v, err := r.GetNamed(child, k, PropOpFlags{})
	require.NoError(t, err)
	assert.Equal(t, 7.0, v.AsNumber())

	// Writing through the child shadows the prototype.
	mustPut(t, r, child, k, NumberValue(8))
	v, _ = r.GetNamed(child, k, PropOpFlags{})
	assert.Equal(t, 8.0, v.AsNumber())
	v, _ = r.GetNamed(proto, k, PropOpFlags{})
	assert.Equal(t, 7.0, v.AsNumber())
}

func TestReadOnlyPolicy(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	k := r.Intern("ro")
	r.DefineNewOwnProperty(o, k, PropertyFlags{Enumerable: true, Configurable: true}, NumberValue(1))

	ok, err := r.PutNamed(o, k, NumberValue(2), PropOpFlags{})
	require.NoError(t, err)
	assert.False(t, ok, "silent failure without ThrowOnError")

	_, err = r.PutNamed(o, k, NumberValue(2), PropOpFlags{ThrowOnError: true})
	require.Error(t, err)
	assert.True(t, hermeserr.IsTypeError(err))

	v, _ := r.GetNamed(o, k, PropOpFlags{})
	assert.Equal(t, 1.0, v.AsNumber())
}

func TestInheritedReadOnlyBlocksWrite(t *testing.T) {
	r := newTestRuntime(t)
	proto := r.NewObject(nil)
	child := r.NewObject(proto)
	k := r.Intern("ro")
	r.DefineNewOwnProperty(proto, k, PropertyFlags{Enumerable: true, Configurable: true}, NumberValue(1))

	ok, err := r.PutNamed(child, k, NumberValue(2), PropOpFlags{})
	require.NoError(t, err)
	assert.False(t, ok)
	_, own := r.GetOwnNamedDescriptor(child, k)
	assert.False(t, own, "blocked write must not create an own property")
}

func TestNonExtensibleRejectsNewProperties(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	k := r.Intern("existing")
	mustPut(t, r, o, k, NumberValue(1))

	r.PreventExtensions(o)
	ok, err := r.PutNamed(o, r.Intern("fresh"), NumberValue(2), PropOpFlags{})
	require.NoError(t, err)
	assert.False(t, ok)

	// Existing writable properties still accept writes.
	mustPut(t, r, o, k, NumberValue(3))

	// InternalForce bypasses extensibility.
	ok, err = r.PutNamed(o, r.Intern("forced"), NumberValue(4), PropOpFlags{InternalForce: true})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccessorProperty(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	k := r.Intern("prop")

	var backing Value = NumberValue(10)
	getter := &NativeFunction{Name: "get prop", Fn: func(r *Runtime, this Value, args []Value) (Value, error) {
		return backing, nil
	}}
	setter := &NativeFunction{Name: "set prop", Fn: func(r *Runtime, this Value, args []Value) (Value, error) {
		backing = args[0]
		return Undefined, nil
	}}
	acc := NewAccessor(r.Heap(), getter, setter)
	ok, err := r.DefineOwnProperty(o, k, DefinePropertyFlags{
		SetGetter:    true,
		SetSetter:    true,
		Enumerable:   nullBool(true),
		Configurable: nullBool(true),
	}, AccessorValue(acc), PropOpFlags{})
	require.NoError(t, err)
	require.True(t, ok)

	v, err := r.GetNamed(o, k, PropOpFlags{})
	require.NoError(t, err)
	assert.Equal(t, 10.0, v.AsNumber())

	ok, err = r.PutNamed(o, k, NumberValue(20), PropOpFlags{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 20.0, backing.AsNumber())
}

func TestGetterOnlyAccessorRejectsWrites(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	k := r.Intern("ro")
	getter := &NativeFunction{Name: "get", Fn: func(r *Runtime, this Value, args []Value) (Value, error) {
		return NumberValue(1), nil
	}}
	acc := NewAccessor(r.Heap(), getter, nil)
	_, err := r.DefineOwnProperty(o, k, DefinePropertyFlags{SetGetter: true, Configurable: nullBool(true)}, AccessorValue(acc), PropOpFlags{})
	require.NoError(t, err)

	ok, err := r.PutNamed(o, k, NumberValue(2), PropOpFlags{})
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = r.PutNamed(o, k, NumberValue(2), PropOpFlags{ThrowOnError: true})
	assert.True(t, hermeserr.IsTypeError(err))
}

func TestDirectSlotOverflow(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)

	for i := 0; i < DirectPropertySlots+4; i++ {
		mustPut(t, r, o, r.Intern(fmt.Sprintf("p%d", i)), NumberValue(float64(i)))
	}
	for i := 0; i < DirectPropertySlots+4; i++ {
		v, err := r.GetNamed(o, r.Intern(fmt.Sprintf("p%d", i)), PropOpFlags{})
		require.NoError(t, err)
		assert.Equal(t, float64(i), v.AsNumber())
	}
}

func TestSetParent(t *testing.T) {
	r := newTestRuntime(t)
	a := r.NewObject(nil)
	b := r.NewObject(nil)
	c := r.NewObject(b)

	require.NoError(t, r.SetParent(b, a))
	assert.Same(t, a, b.Parent())

	// Cycle through the chain is rejected regardless of policy.
	err := r.SetParent(a, c)
	require.Error(t, err)
	assert.True(t, hermeserr.IsTypeError(err))

	r.PreventExtensions(b)
	err = r.SetParent(b, nil)
	assert.True(t, hermeserr.IsTypeError(err))
	// Same-parent stores stay a no-op even when non-extensible.
	assert.NoError(t, r.SetParent(b, a))
}

func TestInternalProperties(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	r.AddInternalProperties(o, 2, Undefined)

	SetInternalPropertyValue(r, o, 0, NumberValue(1))
	SetInternalPropertyValue(r, o, 1, StringValue("hidden"))
	assert.Equal(t, 1.0, InternalPropertyValue(o, 0).AsNumber())
	assert.Equal(t, "hidden", InternalPropertyValue(o, 1).AsString())

	// Internal slots are invisible to enumeration.
	mustPut(t, r, o, r.Intern("visible"), NumberValue(2))
	assert.Equal(t, []string{"visible"}, r.OwnPropertyNames(o, true))
	assert.Empty(t, r.OwnPropertySymbols(o))
}

func TestTryGetNamedNoAlloc(t *testing.T) {
	r := newTestRuntime(t)
	proto := r.NewObject(nil)
	o := r.NewObject(proto)
	k := r.Intern("k")
	mustPut(t, r, proto, k, NumberValue(5))

	v, ok := r.TryGetNamedNoAlloc(o, k)
	require.True(t, ok)
	assert.Equal(t, 5.0, v.AsNumber())

	// Accessors cannot be read without running script.
	acc := NewAccessor(r.Heap(), &NativeFunction{Name: "g", Fn: func(r *Runtime, this Value, args []Value) (Value, error) {
		return Undefined, nil
	}}, nil)
	g := r.Intern("g")
	_, err := r.DefineOwnProperty(o, g, DefinePropertyFlags{SetGetter: true}, AccessorValue(acc), PropOpFlags{})
	require.NoError(t, err)
	_, ok = r.TryGetNamedNoAlloc(o, g)
	assert.False(t, ok)
}

func TestLazyObjectInitialization(t *testing.T) {
	r := newTestRuntime(t)
	calls := 0
	o := r.NewLazyObject(nil, func(r *Runtime, o *Object) {
		calls++
		r.DefineNewOwnProperty(o, r.Intern("lazy"), DefaultDataFlags(), NumberValue(9))
	})
	require.True(t, o.IsLazy())

	// No-alloc probing must not trigger initialization.
	_, ok := r.TryGetNamedNoAlloc(o, r.Intern("lazy"))
	assert.False(t, ok)
	assert.Equal(t, 0, calls)

	v, err := r.GetNamed(o, r.Intern("lazy"), PropOpFlags{})
	require.NoError(t, err)
	assert.Equal(t, 9.0, v.AsNumber())
	assert.False(t, o.IsLazy())
	assert.Equal(t, 1, calls)

	// Initialization runs exactly once.
	_, _ = r.GetNamed(o, r.Intern("lazy"), PropOpFlags{})
	assert.Equal(t, 1, calls)
}

func TestInternalSetterHook(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	k := r.Intern("length")

	var observed []float64
	o.SetInternalSetter(func(r *Runtime, o *Object, name SymbolID, desc NamedPropertyDescriptor, value Value, opts PropOpFlags) (bool, error) {
		observed = append(observed, value.AsNumber())
		SetNamedSlotValue(r, o, desc.Slot, value)
		return true, nil
	})
	ok, err := r.DefineOwnProperty(o, k, DefinePropertyFlags{
		SetValue:             true,
		Writable:             nullBool(true),
		EnableInternalSetter: true,
	}, NumberValue(0), PropOpFlags{})
	require.NoError(t, err)
	require.True(t, ok)

	mustPut(t, r, o, k, NumberValue(3))
	mustPut(t, r, o, k, NumberValue(5))
	assert.Equal(t, []float64{3, 5}, observed)

	v, _ := r.GetNamed(o, k, PropOpFlags{})
	assert.Equal(t, 5.0, v.AsNumber())
}

func TestObjectIDStability(t *testing.T) {
	r := newTestRuntime(t)
	a := r.NewObject(nil)
	b := r.NewObject(nil)

	idA := r.GetObjectID(a)
	idB := r.GetObjectID(b)
	assert.NotZero(t, idA)
	assert.NotEqual(t, idA, idB)
	assert.Equal(t, idA, r.GetObjectID(a))
}
