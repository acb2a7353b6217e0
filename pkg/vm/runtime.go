package vm

import (
	"fmt"

	"github.com/sirupsen/logrus"

	hermeserr "github.com/simpleton/hermes/pkg/errors"
)

// Runtime ties together the services the object model consumes: the heap
// (allocation, barriers, rooting), the symbol interning table, callable
// invocation, configuration and diagnostics. A Runtime is single-mutator:
// all property operations on it happen on one logical thread.
type Runtime struct {
	cfg     Config
	heap    *Heap
	symbols *SymbolTable
	logger  logrus.FieldLogger

	cacheStats ICacheStats

	// internalSyms are the unique keys backing reserved internal property
	// slots, grown on demand.
	internalSyms []SymbolID
}

// NewRuntime builds a runtime with configuration from the environment and
// the standard logger.
func NewRuntime() *Runtime {
	cfg, err := LoadConfig()
	if err != nil {
		logrus.StandardLogger().WithError(err).Warn("falling back to default object model config")
	}
	return NewRuntimeWithConfig(cfg, nil)
}

// NewRuntimeWithConfig builds a runtime with explicit configuration.
// A nil logger selects the standard logger.
func NewRuntimeWithConfig(cfg Config, logger logrus.FieldLogger) *Runtime {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	InitShapeRegistry()
	return &Runtime{
		cfg:  cfg,
		heap: NewHeap(logger),
		// The transition graph is process-scoped and keyed by SymbolID, so
		// every runtime must intern through the same table.
		symbols: SharedSymbolTable(),
		logger:  logger,
	}
}

// Shutdown releases process-scoped state. The runtime must not be used
// afterwards.
func (r *Runtime) Shutdown() {
	ResetShapeRegistry()
}

func (r *Runtime) Heap() *Heap           { return r.heap }
func (r *Runtime) Symbols() *SymbolTable { return r.symbols }
func (r *Runtime) Config() Config        { return r.cfg }

// Intern maps a property name to its canonical key.
func (r *Runtime) Intern(name string) SymbolID {
	return r.symbols.Intern(name)
}

// NewSymbol mints a unique (script Symbol) key.
func (r *Runtime) NewSymbol(desc string) SymbolID {
	return r.symbols.NewUnique(desc)
}

// internalSymbol returns the reserved key for internal property slot i.
func (r *Runtime) internalSymbol(i int) SymbolID {
	for len(r.internalSyms) <= i {
		r.internalSyms = append(r.internalSyms,
			r.symbols.NewUnique(fmt.Sprintf("internal%d", len(r.internalSyms))))
	}
	return r.internalSyms[i]
}

// Call is the callable invocation service consumed from the interpreter.
// Invoking a callable may run arbitrary script and therefore allocate: it
// is a suspension point, and raw references held across it must be
// re-derived through handles.
func (r *Runtime) Call(fn *NativeFunction, this Value, args []Value) (Value, error) {
	if fn == nil || fn.Fn == nil {
		return Undefined, hermeserr.NewTypeError("value is not callable")
	}
	r.heap.allocations++ // a call is an allocation point
	return fn.Fn(r, this, args)
}

// toPropertyKey resolves a computed key value to either an array index or
// a SymbolID. Full ToPropertyKey coercion (objects via toString, number
// formatting) belongs to the interpreter collaborator; the object model
// accepts strings, numbers, symbols and booleans.
func (r *Runtime) toPropertyKey(key Value) (index uint32, isIndex bool, sym SymbolID, err error) {
	switch key.Type() {
	case TypeString:
		s := key.AsString()
		if i, ok := toArrayIndex(s); ok {
			return i, true, InvalidSymbol, nil
		}
		return 0, false, r.symbols.Intern(s), nil
	case TypeNumber:
		f := key.AsNumber()
		if i, ok := numberToArrayIndex(f); ok {
			return i, true, InvalidSymbol, nil
		}
		return 0, false, r.symbols.Intern(key.Inspect()), nil
	case TypeSymbol:
		return 0, false, key.AsSymbol(), nil
	case TypeBoolean:
		if key.AsBool() {
			return 0, false, r.symbols.Intern("true"), nil
		}
		return 0, false, r.symbols.Intern("false"), nil
	case TypeNull:
		return 0, false, r.symbols.Intern("null"), nil
	case TypeUndefined:
		return 0, false, r.symbols.Intern("undefined"), nil
	default:
		return 0, false, InvalidSymbol,
			hermeserr.NewTypeError("cannot use a %s as a property key without coercion", key.Type())
	}
}

// nameIsIndexLike reports whether a named key's string form parses as an
// array index (the shadowing-property case).
func (r *Runtime) nameIsIndexLike(name SymbolID) bool {
	if r.symbols.IsUnique(name) {
		return false
	}
	_, ok := toArrayIndex(r.symbols.Name(name))
	return ok
}
