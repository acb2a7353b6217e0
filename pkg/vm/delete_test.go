package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hermeserr "github.com/simpleton/hermes/pkg/errors"
)

func TestDeleteNamed(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	k := r.Intern("k")
	mustPut(t, r, o, k, NumberValue(1))

	ok, err := r.DeleteNamed(o, k, PropOpFlags{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, r.HasNamed(o, k))

	v, err := r.GetNamed(o, k, PropOpFlags{})
	require.NoError(t, err)
	assert.True(t, v.IsUndefined())
}

func TestDeleteAbsentSucceeds(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	ok, err := r.DeleteNamed(o, r.Intern("never"), PropOpFlags{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, o.Class().IsDictionary(), "deleting nothing must not disturb the shape")
}

func TestDeleteNonConfigurable(t *testing.T) {
	r := newTestRuntime(t)
	o := r.NewObject(nil)
	k := r.Intern("k")
	r.DefineNewOwnProperty(o, k, PropertyFlags{Writable: true, Enumerable: true}, NumberValue(1))

	ok, err := r.DeleteNamed(o, k, PropOpFlags{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.DeleteNamed(o, k, PropOpFlags{ThrowOnError: true})
	assert.True(t, hermeserr.IsTypeError(err))

	// InternalForce deletes it anyway.
	ok, err = r.DeleteNamed(o, k, PropOpFlags{InternalForce: true})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, r.HasNamed(o, k))
}

func TestDeleteDoesNotAffectSiblings(t *testing.T) {
	r := newTestRuntime(t)
	a := r.NewObject(nil)
	b := r.NewObject(nil)
	k := r.Intern("shared")
	mustPut(t, r, a, k, NumberValue(1))
	mustPut(t, r, b, k, NumberValue(2))
	require.Same(t, a.Class(), b.Class())

	_, err := r.DeleteNamed(a, k, PropOpFlags{})
	require.NoError(t, err)

	assert.True(t, a.Class().IsDictionary())
	assert.False(t, b.Class().IsDictionary(), "deletion is private to the deleting object")
	v, _ := r.GetNamed(b, k, PropOpFlags{})
	assert.Equal(t, 2.0, v.AsNumber())
}

func TestDeleteVisibilityThroughChain(t *testing.T) {
	r := newTestRuntime(t)
	k := r.Intern("k")
	grand := r.NewObject(nil)
	mid := r.NewObject(grand)
	leaf := r.NewObject(mid)
	mustPut(t, r, grand, k, NumberValue(1))
	mustPut(t, r, mid, k, NumberValue(2))

	ok, err := r.DeleteNamed(mid, k, PropOpFlags{})
	require.NoError(t, err)
	require.True(t, ok)

	// The deleted property is gone from mid but the chain walk continues
	// past it to the grandparent.
	_, own := r.GetOwnNamedDescriptor(mid, k)
	assert.False(t, own)
	v, err := r.GetNamed(leaf, k, PropOpFlags{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.AsNumber())
}

func TestDeleteComputedShadowFirst(t *testing.T) {
	r := newTestRuntime(t)
	a := r.NewDenseArray(nil, 2)
	_, err := r.PutComputed(a, NumberValue(0), NumberValue(10), PropOpFlags{})
	require.NoError(t, err)

	// Shadow index 0 with a named property.
	ok, err := r.DefineOwnComputed(a, StringValue("0"), DefinePropertyFlags{
		SetValue:     true,
		Enumerable:   nullBool(false),
		Configurable: nullBool(true),
	}, NumberValue(20), PropOpFlags{})
	require.NoError(t, err)
	require.True(t, ok)

	// Deleting removes the shadow.
	ok, err = r.DeleteComputed(a, NumberValue(0), PropOpFlags{})
	require.NoError(t, err)
	require.True(t, ok)

	v, err := r.GetComputed(a, NumberValue(0), PropOpFlags{})
	require.NoError(t, err)
	assert.True(t, v.IsUndefined() || v.IsEmpty())
}
