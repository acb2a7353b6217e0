package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeError(t *testing.T) {
	err := NewTypeError("property %q is read-only", "x")
	assert.Equal(t, `TypeError: property "x" is read-only`, err.Error())
	assert.Equal(t, "Type", err.Kind())
	assert.Equal(t, `property "x" is read-only`, err.Message())
	assert.True(t, IsTypeError(err))
	assert.False(t, IsRangeError(err))
}

func TestErrorKindWalksWrappers(t *testing.T) {
	inner := NewRangeError("index out of range")
	wrapped := fmt.Errorf("defining element: %w", inner)
	assert.True(t, IsRangeError(wrapped))
	assert.False(t, IsTypeError(wrapped))
	assert.False(t, IsRangeError(nil))
}

func TestScriptErrorInterface(t *testing.T) {
	var _ ScriptError = NewTypeError("x")
	var _ ScriptError = NewRangeError("y")

	cause := NewTypeError("inner")
	outer := &TypeError{Msg: "outer", Cause: cause}
	assert.Same(t, cause, outer.Unwrap())
}
