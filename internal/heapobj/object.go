package heapobj

import "github.com/ecmacore/jsvm/internal/value"

// ObjectKind discriminates the Object variants named in spec.md §3: "Object
// values further disambiguate into OrdinaryObject, Array, ArrayBuffer,
// SharedArrayBuffer, DataView, one of twelve TypedArray element types,
// Function (...), Error, Promise, Map/Set, WeakMap/WeakSet/WeakRef,
// FinalizationRegistry, Module, and internal closures."
//
// Dispatch is by this tag, not by a Go interface hierarchy — "tagged sum
// types over inheritance" (spec.md §9).
type ObjectKind uint8

const (
	KindOrdinary ObjectKind = iota
	KindArray
	KindArrayBuffer
	KindSharedArrayBuffer
	KindDataView
	KindTypedArray
	KindFunction
	KindError
	KindPromise
	KindMap
	KindSet
	KindWeakMap
	KindWeakSet
	KindWeakRef
	KindFinalizationRegistry
	KindModule
	KindInternalClosure
)

func (k ObjectKind) String() string {
	names := [...]string{
		"Ordinary", "Array", "ArrayBuffer", "SharedArrayBuffer", "DataView",
		"TypedArray", "Function", "Error", "Promise", "Map", "Set",
		"WeakMap", "WeakSet", "WeakRef", "FinalizationRegistry", "Module",
		"InternalClosure",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "ObjectKind(?)"
}

// PropertyDescriptor mirrors the ECMA-262 property record: either a data
// property (Value/Writable) or an accessor property (Get/Set), plus the
// shared Enumerable/Configurable attributes.
type PropertyDescriptor struct {
	Value        value.Value
	Get          value.Value // object (function) or Undefined
	Set          value.Value // object (function) or Undefined
	IsAccessor   bool
	Writable     bool
	Enumerable   bool
	Configurable bool
}

// Object is the single representation for every heap object kind. Shape-
// specific state (ArrayBuffer bytes, TypedArray view fields, Module
// record fields, ...) is held in Extra by the owning package
// (internal/arraybuffer, internal/typedarray, internal/module) rather
// than here, keeping this package a leaf that those depend on, never the
// other way around (spec.md §2 dependency order).
type Object struct {
	Kind       ObjectKind
	Prototype  value.Value // Object or Null
	Extensible bool
	Properties map[value.PropertyKey]*PropertyDescriptor
	// InsertionOrder preserves property enumeration order for string keys
	// the way a real engine's ordinary [[OwnPropertyKeys]] requires
	// (integer keys sort numerically first; ECMA-262 10.1.11).
	InsertionOrder []value.PropertyKey
	// PrivateFields holds private-name storage, keyed by synthetic name,
	// for class instances (spec.md §4.1.1 step 4 / invariant 7).
	PrivateFields map[string]*PropertyDescriptor

	Extra any
}

func newObject(kind ObjectKind, proto value.Value) *Object {
	return &Object{
		Kind:       kind,
		Prototype:  proto,
		Extensible: true,
		Properties: make(map[value.PropertyKey]*PropertyDescriptor),
	}
}

// OwnPropertyKeys returns keys in ordinary [[OwnPropertyKeys]] order:
// array indices ascending, then string keys in insertion order, then
// symbols in insertion order.
func (o *Object) OwnPropertyKeys() []value.PropertyKey {
	var indices, strs, syms []value.PropertyKey
	for _, k := range o.InsertionOrder {
		switch {
		case k.IsArrayIndex():
			indices = append(indices, k)
		case k.IsSymbol():
			syms = append(syms, k)
		default:
			strs = append(strs, k)
		}
	}
	sortByIndex(indices)
	out := make([]value.PropertyKey, 0, len(indices)+len(strs)+len(syms))
	out = append(out, indices...)
	out = append(out, strs...)
	out = append(out, syms...)
	return out
}

func sortByIndex(keys []value.PropertyKey) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0; j-- {
			if keys[j-1].Value().SmallIntegerValue() > keys[j].Value().SmallIntegerValue() {
				keys[j-1], keys[j] = keys[j], keys[j-1]
			} else {
				break
			}
		}
	}
}

// GetOwnProperty looks up a property on this object only, no prototype walk.
func (o *Object) GetOwnProperty(key value.PropertyKey) (*PropertyDescriptor, bool) {
	pd, ok := o.Properties[key]
	return pd, ok
}

// DefineOwnProperty installs or overwrites pd for key, tracking insertion
// order on first definition. Configurability enforcement is the caller's
// responsibility (it depends on Extensible/Configurable per ECMA-262
// [[DefineOwnProperty]], which built-in exotic objects override — out of
// scope per spec.md §1).
func (o *Object) DefineOwnProperty(key value.PropertyKey, pd *PropertyDescriptor) {
	if _, exists := o.Properties[key]; !exists {
		o.InsertionOrder = append(o.InsertionOrder, key)
	}
	o.Properties[key] = pd
}

func (o *Object) DeleteOwnProperty(key value.PropertyKey) bool {
	if _, exists := o.Properties[key]; !exists {
		return true
	}
	delete(o.Properties, key)
	for i, k := range o.InsertionOrder {
		if value.Equal(k, key) {
			o.InsertionOrder = append(o.InsertionOrder[:i], o.InsertionOrder[i+1:]...)
			break
		}
	}
	return true
}
