package vm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheMonomorphicHit(t *testing.T) {
	r := newTestRuntime(t)
	k := r.Intern("x")
	o := r.NewObject(nil)
	mustPut(t, r, o, k, NumberValue(1))

	var site PropInlineCache
	v, err := r.GetNamedCached(o, k, PropOpFlags{}, &site)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.AsNumber())
	assert.Equal(t, CacheMonomorphic, site.State())

	// Second read with the same shape hits.
	hitsBefore := r.CacheStats().TotalHits()
	v, err = r.GetNamedCached(o, k, PropOpFlags{}, &site)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.AsNumber())
	assert.Equal(t, hitsBefore+1, r.CacheStats().TotalHits())
}

func TestCachePolymorphicTransition(t *testing.T) {
	r := newTestRuntime(t)
	k := r.Intern("x")

	shapes := make([]*Object, 3)
	for i := range shapes {
		o := r.NewObject(nil)
		// A distinct prefix gives each object a distinct shape while x
		// stays present on all of them.
		for j := 0; j <= i; j++ {
			mustPut(t, r, o, r.Intern(fmt.Sprintf("pad%d", j)), NumberValue(0))
		}
		mustPut(t, r, o, k, NumberValue(float64(i)))
		shapes[i] = o
	}

	var site PropInlineCache
	for i, o := range shapes {
		v, err := r.GetNamedCached(o, k, PropOpFlags{}, &site)
		require.NoError(t, err)
		assert.Equal(t, float64(i), v.AsNumber())
	}
	assert.Equal(t, CachePolymorphic, site.State())

	// Every shape now hits, and each hit returns the right slot.
	for i, o := range shapes {
		missesBefore := site.missCount
		v, err := r.GetNamedCached(o, k, PropOpFlags{}, &site)
		require.NoError(t, err)
		assert.Equal(t, float64(i), v.AsNumber())
		assert.Equal(t, missesBefore, site.missCount)
	}
}

func TestCacheMegamorphicSaturation(t *testing.T) {
	r := newTestRuntime(t)
	k := r.Intern("x")

	var site PropInlineCache
	for i := 0; i < maxCacheEntries+2; i++ {
		o := r.NewObject(nil)
		for j := 0; j <= i; j++ {
			mustPut(t, r, o, r.Intern(fmt.Sprintf("mega%d", j)), NumberValue(0))
		}
		mustPut(t, r, o, k, NumberValue(1))
		_, err := r.GetNamedCached(o, k, PropOpFlags{}, &site)
		require.NoError(t, err)
	}
	assert.Equal(t, CacheMegamorphic, site.State())

	// Megamorphic sites stop caching but stay correct.
	o := r.NewObject(nil)
	mustPut(t, r, o, k, NumberValue(7))
	v, err := r.GetNamedCached(o, k, PropOpFlags{}, &site)
	require.NoError(t, err)
	assert.Equal(t, 7.0, v.AsNumber())
	assert.Equal(t, CacheMegamorphic, site.State())
}

func TestCacheSkipsDictionaryShapes(t *testing.T) {
	r := newTestRuntime(t)
	k := r.Intern("x")
	o := r.NewObject(nil)
	mustPut(t, r, o, k, NumberValue(1))
	mustPut(t, r, o, r.Intern("y"), NumberValue(2))
	_, err := r.DeleteNamed(o, r.Intern("y"), PropOpFlags{})
	require.NoError(t, err)
	require.True(t, o.Class().IsDictionary())

	var site PropInlineCache
	v, err := r.GetNamedCached(o, k, PropOpFlags{}, &site)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.AsNumber())
	assert.Equal(t, CacheUninitialized, site.State(), "dictionary shapes are never cached")
}

func TestCacheSkipsPrototypeProperties(t *testing.T) {
	r := newTestRuntime(t)
	k := r.Intern("x")
	proto := r.NewObject(nil)
	child := r.NewObject(proto)
	mustPut(t, r, proto, k, NumberValue(1))

	var site PropInlineCache
	v, err := r.GetNamedCached(child, k, PropOpFlags{}, &site)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.AsNumber())
	assert.Equal(t, CacheUninitialized, site.State(), "only receiver-own properties are cached")
}

func TestCacheInvalidatedByAttributeChange(t *testing.T) {
	r := newTestRuntime(t)
	k := r.Intern("x")
	o := r.NewObject(nil)
	mustPut(t, r, o, k, NumberValue(1))

	var site PropInlineCache
	_, err := r.GetNamedCached(o, k, PropOpFlags{}, &site)
	require.NoError(t, err)
	require.Equal(t, CacheMonomorphic, site.State())

	// Reconfiguring moves the object to a different shape instance, so the
	// stale entry misses instead of serving wrong data.
	ok, err := r.DefineOwnProperty(o, k, DefinePropertyFlags{Enumerable: nullBool(false)}, Undefined, PropOpFlags{})
	require.NoError(t, err)
	require.True(t, ok)

	missesBefore := site.missCount
	v, err := r.GetNamedCached(o, k, PropOpFlags{}, &site)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.AsNumber())
	assert.Equal(t, missesBefore+1, site.missCount)
}

func TestCacheInvalidatedByAccessorConversion(t *testing.T) {
	r := newTestRuntime(t)
	k := r.Intern("x")
	o := r.NewObject(nil)
	ok, err := r.DefineOwnProperty(o, k, DefinePropertyFlags{
		SetValue:     true,
		Enumerable:   nullBool(true),
		Writable:     nullBool(false),
		Configurable: nullBool(true),
	}, NumberValue(42), PropOpFlags{})
	require.NoError(t, err)
	require.True(t, ok)

	var site PropInlineCache
	for i := 0; i < 2; i++ {
		v, err := r.GetNamedCached(o, k, PropOpFlags{}, &site)
		require.NoError(t, err)
		require.Equal(t, 42.0, v.AsNumber())
	}
	require.Equal(t, CacheMonomorphic, site.State())
	before := o.Class()

	getter := &NativeFunction{Name: "get x", Fn: func(r *Runtime, this Value, args []Value) (Value, error) {
		return NumberValue(99), nil
	}}
	acc := NewAccessor(r.Heap(), getter, nil)
	ok, err = r.DefineOwnProperty(o, k, DefinePropertyFlags{SetGetter: true}, AccessorValue(acc), PropOpFlags{})
	require.NoError(t, err)
	require.True(t, ok)

	// Data-to-accessor conversion must move the object to a new shape so the
	// stale slot entry misses and the getter runs instead of leaking the raw
	// accessor cell.
	assert.NotSame(t, before, o.Class())
	cached, err := r.GetNamedCached(o, k, PropOpFlags{}, &site)
	require.NoError(t, err)
	uncached, err := r.GetNamed(o, k, PropOpFlags{})
	require.NoError(t, err)
	assert.Equal(t, 99.0, uncached.AsNumber())
	assert.Equal(t, 99.0, cached.AsNumber())
}

func TestCacheReset(t *testing.T) {
	r := newTestRuntime(t)
	k := r.Intern("x")
	o := r.NewObject(nil)
	mustPut(t, r, o, k, NumberValue(1))

	var site PropInlineCache
	_, err := r.GetNamedCached(o, k, PropOpFlags{}, &site)
	require.NoError(t, err)
	require.Equal(t, CacheMonomorphic, site.State())

	site.reset()
	assert.Equal(t, CacheUninitialized, site.State())
	assert.Positive(t, site.missCount, "counters survive a reset")
}
