package vm

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// HeuristicTypeName guesses a human-readable type name for diagnostics by
// probing the object's "constructor" property and its "name", without ever
// running script. Returns "" when the chain cannot be followed
// allocation-free.
func (r *Runtime) HeuristicTypeName(o *Object) string {
	ctorSym, ok := r.symbols.Lookup("constructor")
	if !ok {
		return ""
	}
	ctor, ok := r.TryGetNamedNoAlloc(o, ctorSym)
	if !ok {
		return ""
	}
	nameSym, ok := r.symbols.Lookup("name")
	if !ok {
		if ctor.IsFunction() {
			return ctor.AsFunction().Name
		}
		return ""
	}
	switch ctor.Type() {
	case TypeFunction:
		return ctor.AsFunction().Name
	case TypeObject:
		name, ok := r.TryGetNamedNoAlloc(ctor.AsObject(), nameSym)
		if ok && name.IsString() {
			return name.AsString()
		}
	}
	return ""
}

// ObjectSnapshot is the JSON-serializable dump of one object's observable
// state, for debugging and heap inspection tooling.
type ObjectSnapshot struct {
	ObjectID    uint32 `json:"objectId"`
	TypeName    string `json:"typeName,omitempty"`
	Extensible  bool   `json:"extensible"`
	Sealed      bool   `json:"sealed"`
	Frozen      bool   `json:"frozen"`
	Dictionary  bool   `json:"dictionary"`
	IndexedKind string `json:"indexedKind"`
	HasParent   bool   `json:"hasParent"`

	Properties []PropertySnapshot `json:"properties"`
	Elements   []ElementSnapshot  `json:"elements,omitempty"`
}

type PropertySnapshot struct {
	Name         string `json:"name"`
	Symbol       bool   `json:"symbol,omitempty"`
	Value        string `json:"value"`
	Enumerable   bool   `json:"enumerable"`
	Writable     bool   `json:"writable"`
	Configurable bool   `json:"configurable"`
	Accessor     bool   `json:"accessor,omitempty"`
}

type ElementSnapshot struct {
	Index uint32 `json:"index"`
	Value string `json:"value"`
}

// SnapshotObject captures the object's flags, properties and elements. The
// snapshot reads slots directly and never invokes getters.
func (r *Runtime) SnapshotObject(o *Object) ObjectSnapshot {
	snap := ObjectSnapshot{
		ObjectID:    r.GetObjectID(o),
		TypeName:    r.HeuristicTypeName(o),
		Extensible:  o.IsExtensible(),
		Sealed:      o.flags.Sealed,
		Frozen:      o.flags.Frozen,
		Dictionary:  o.clazz.IsDictionary(),
		IndexedKind: o.indexed.kind.String(),
		HasParent:   o.parent != nil,
	}
	r.ForEachOwnPropertyWhile(o,
		func(index uint32, flags PropertyFlags) bool {
			snap.Elements = append(snap.Elements, ElementSnapshot{
				Index: index,
				Value: GetOwnIndexed(o, index).Inspect(),
			})
			return true
		},
		func(key SymbolID, desc NamedPropertyDescriptor) bool {
			if r.isInternalSymbol(key) {
				return true
			}
			v := NamedSlotValue(o, desc.Slot)
			snap.Properties = append(snap.Properties, PropertySnapshot{
				Name:         r.symbols.Name(key),
				Symbol:       r.symbols.IsUnique(key),
				Value:        v.Inspect(),
				Enumerable:   desc.Flags.Enumerable,
				Writable:     desc.Flags.Writable,
				Configurable: desc.Flags.Configurable,
				Accessor:     v.IsAccessor(),
			})
			return true
		})
	return snap
}

// SnapshotJSON renders the object snapshot as JSON.
func (r *Runtime) SnapshotJSON(o *Object) ([]byte, error) {
	return json.MarshalIndent(r.SnapshotObject(o), "", "  ")
}

// LogCacheStats emits the aggregate inline-cache counters through the
// runtime logger at debug level.
func (r *Runtime) LogCacheStats() {
	s := r.cacheStats
	r.logger.WithFields(logrus.Fields{
		"hits":             s.totalHits,
		"misses":           s.totalMisses,
		"hitRate":          s.HitRate(),
		"monomorphicHits":  s.monomorphicHits,
		"polymorphicHits":  s.polymorphicHits,
		"megamorphicSites": s.megamorphicSites,
		"shapes":           ShapeCount(),
		"allocations":      r.heap.Allocations(),
		"barriers":         r.heap.Barriers(),
	}).Debug("object model stats")
}
