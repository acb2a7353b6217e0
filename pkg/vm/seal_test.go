package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeal(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	k := r.Intern("k")
	mustPut(t, r, o, k, NumberValue(1))

	r.Seal(o)
	assert.True(t, r.IsSealed(o))
	assert.False(t, r.IsFrozen(o))

	// No additions, no deletions, but writes still land.
	ok, err := r.PutNamed(o, r.Intern("fresh"), NumberValue(2), PropOpFlags{})
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = r.DeleteNamed(o, k, PropOpFlags{})
	require.NoError(t, err)
	assert.False(t, ok)
	mustPut(t, r, o, k, NumberValue(3))
}

func TestFreeze(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	k := r.Intern("k")
	mustPut(t, r, o, k, NumberValue(1))

	r.Freeze(o)
	assert.True(t, r.IsSealed(o))
	assert.True(t, r.IsFrozen(o))

	ok, err := r.PutNamed(o, k, NumberValue(2), PropOpFlags{})
	require.NoError(t, err)
	assert.False(t, ok)
	v, _ := r.GetNamed(o, k, PropOpFlags{})
	assert.Equal(t, 1.0, v.AsNumber())
}

func TestFreezeKeepsAccessorsLive(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	k := r.Intern("k")

	var backing Value = NumberValue(1)
	acc := NewAccessor(r.Heap(),
		&NativeFunction{Name: "g", Fn: func(r *Runtime, this Value, args []Value) (Value, error) {
			return backing, nil
		}},
		&NativeFunction{Name: "s", Fn: func(r *Runtime, this Value, args []Value) (Value, error) {
			backing = args[0]
			return Undefined, nil
		}})
	_, err := r.DefineOwnProperty(o, k, DefinePropertyFlags{
		SetGetter: true, SetSetter: true, Configurable: nullBool(true),
	}, AccessorValue(acc), PropOpFlags{})
	require.NoError(t, err)

	r.Freeze(o)
	assert.True(t, r.IsFrozen(o))

	// Freezing does not disable the setter; only data properties become
	// read-only.
	ok, err := r.PutNamed(o, k, NumberValue(9), PropOpFlags{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9.0, backing.AsNumber())
}

func TestFreezeIndexedStorage(t *testing.T) {
	r := newTestRuntime(t)
	a := r.NewDenseArray(nil, 2)
	_, err := r.PutComputed(a, NumberValue(0), NumberValue(1), PropOpFlags{})
	require.NoError(t, err)

	r.Freeze(a)
	ok, err := r.PutComputed(a, NumberValue(0), NumberValue(2), PropOpFlags{})
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = r.PutComputed(a, NumberValue(0), NumberValue(2), PropOpFlags{ThrowOnError: true})
	require.Error(t, err)

	v, _ := r.GetComputed(a, NumberValue(0), PropOpFlags{})
	assert.Equal(t, 1.0, v.AsNumber())
}

func TestIsSealedVerificationPath(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	k := r.Intern("k")
	r.DefineNewOwnProperty(o, k, PropertyFlags{Writable: true, Enumerable: true}, NumberValue(1))

	// Built sealed by hand rather than through Seal: the flag is unset but
	// verification should detect and cache it.
	r.PreventExtensions(o)
	assert.False(t, o.flags.Sealed)
	assert.True(t, r.IsSealed(o))
	assert.True(t, o.flags.Sealed, "verified result is cached in the flag")
}

func TestIsFrozenRejectsWritableData(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	mustPut(t, r, o, r.Intern("w"), NumberValue(1))
	r.Seal(o)
	assert.True(t, r.IsSealed(o))
	assert.False(t, r.IsFrozen(o), "a writable data property keeps the object unfrozen")
}

func TestSealingIsMonotonic(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	mustPut(t, r, o, r.Intern("k"), NumberValue(1))

	r.Freeze(o)
	require.True(t, r.IsFrozen(o))

	// There is no way back: defining the property configurable again fails.
	ok, err := r.DefineOwnProperty(o, r.Intern("k"), DefinePropertyFlags{
		Configurable: nullBool(true),
	}, Undefined, PropOpFlags{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, r.IsFrozen(o))
}
