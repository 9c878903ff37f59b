package vm

import (
	"github.com/ecmacore/jsvm/internal/bytecode"
	"github.com/ecmacore/jsvm/internal/value"
)

// Host is everything the dispatch loop needs from the layer above it
// (internal/agent) to execute property access, calls, object/array
// construction, and ToNumber-family coercions — the collaborators
// spec.md §1 calls out as "external" to the core VM contract. Keeping
// this as an interface (rather than importing internal/agent directly)
// preserves spec.md §2's leaves-first dependency order: internal/vm
// sits below internal/agent, which is the package that actually
// implements Host by wiring in internal/heapobj, internal/arraybuffer,
// and internal/typedarray.
type Host interface {
	// NewPlainObject creates an OrdinaryObject with %Object.prototype%.
	NewPlainObject() value.Value
	// NewArray creates an Array exotic object seeded with elems.
	NewArray(elems []value.Value) value.Value
	// DenseElements returns v's own indexed elements directly, and true,
	// when v is an Array whose every slot in [0,length) is present (no
	// holes) — the fast-path test BeginSimpleArrayBindingPattern needs
	// (spec.md §4.2 "Destructuring execution"). False means "deoptimize
	// to the general iterator-driven path".
	DenseElements(v value.Value) ([]value.Value, bool)

	// Get implements [[Get]] (spec.md §4.2 "property access opcodes...
	// delegate to the TypedArray internal methods"; ordinary objects walk
	// Properties/prototype chain and invoke an accessor's getter with
	// receiver as `this` when the resolved property is an accessor).
	Get(base value.Value, key value.PropertyKey, receiver value.Value) (value.Value, error)
	Set(base value.Value, key value.PropertyKey, val value.Value, receiver value.Value) error
	DefineMethod(obj value.Value, key value.PropertyKey, fn value.Value, enumerable bool) error
	// DefineDataProperty installs val as a fresh own data property,
	// bypassing inherited accessors and non-writable own properties —
	// the [[DefineOwnProperty]] semantics OpObjectDefineProperty needs,
	// as distinct from Set's [[Set]] semantics.
	DefineDataProperty(obj value.Value, key value.PropertyKey, val value.Value) error
	DefineGetter(obj value.Value, key value.PropertyKey, fn value.Value) error
	DefineSetter(obj value.Value, key value.PropertyKey, fn value.Value) error
	SetPrototype(obj value.Value, proto value.Value) error
	// GetPrototypeOf implements [[GetPrototypeOf]] — instanceOf walks this
	// rather than reading a "__proto__" property, since the internal
	// prototype link lives on heapobj.Object and is never wired as an
	// accessor in the realm.
	GetPrototypeOf(obj value.Value) value.Value
	HasProperty(base value.Value, key value.PropertyKey) (bool, error)
	DeleteProperty(base value.Value, key value.PropertyKey) (bool, error)
	ArrayPush(arr value.Value, v value.Value) error

	// GetPrivate/SetPrivate/DefinePrivate implement private-field access
	// (spec.md §4.1.1, §8 invariant 7). name is the private identifier's
	// text including the leading '#'.
	GetPrivate(obj value.Value, name string) (value.Value, error)
	SetPrivate(obj value.Value, name string, v value.Value) error
	DefinePrivateField(obj value.Value, name string, v value.Value) error
	DefinePrivateMethod(obj value.Value, name string, fn value.Value, isGetSet bool, isGetter bool) error

	// ToPropertyKey/ToString/ToNumber/ToNumeric/ToBoolean implement the
	// abstract coercions spec.md §6 "Value boundary" names. ToPrimitive
	// is folded into ToString/ToNumber since no external caller needs it
	// standalone at the VM boundary.
	ToPropertyKey(v value.Value) (value.PropertyKey, error)
	ToString(v value.Value) (string, error)
	ToNumber(v value.Value) (value.Value, error)
	ToNumeric(v value.Value) (value.Value, error)
	ToBoolean(v value.Value) bool
	Typeof(v value.Value) string

	// StrictEquals/LooseEquals/SameValue implement the VM's equality
	// opcodes (spec.md §3 invariant: "numeric and string equality are
	// operations, not ==").
	StrictEquals(a, b value.Value) bool
	LooseEquals(a, b value.Value) (bool, error)
	LessThan(a, b value.Value) (value.Value, error)

	// Call / Construct dispatch to [[Call]]/[[Construct]] (spec.md
	// §4.2 "Call / construct"). IsConstructor reports whether fn may be
	// the target of EvaluateNew / `new`.
	Call(fn, this value.Value, args []value.Value) (value.Value, error)
	Construct(fn value.Value, args []value.Value) (value.Value, error)
	IsConstructor(fn value.Value) bool
	IsCallable(fn value.Value) bool

	// InstantiateFunction / InstantiateArrow build a Function object
	// whose [[Call]] re-enters the VM over code (spec.md §4.1
	// "Function/class definition").
	InstantiateFunction(code *bytecode.FnExpr, env *Environment, home value.Value) value.Value
	InstantiateArrow(code *bytecode.FnExpr, env *Environment) value.Value

	// Classes (spec.md §4.1.1): the host owns constructor/prototype
	// object identity and the private-name table; the VM only sequences
	// the opcodes in the order the compiler emitted them.
	DefineDefaultConstructor(hasParent bool, parentCtor value.Value) value.Value
	BindConstructorFunction(ctorObj value.Value, code *bytecode.FnExpr, env *Environment, hasParent bool) value.Value
	ClassPrototypeOf(ctor value.Value) value.Value

	// GetMethod resolves obj[key] and requires it be callable-or-
	// undefined (used to look up @@iterator).
	GetMethod(obj value.Value, key value.PropertyKey) (value.Value, error)
	// GetIteratorFromMethod invokes method with obj as receiver and
	// wraps the resulting iterator object behind the vm.Iterator
	// interface (spec.md §4.2 step 1 of the general destructuring path).
	GetIteratorFromMethod(obj value.Value, method value.Value) (Iterator, error)

	// EnumerableOwnAndInheritedStringKeys drives
	// EnumerateObjectProperties (for-in) with the flattened snapshot
	// iterator.go's propertyIterator expects.
	EnumerableOwnAndInheritedStringKeys(obj value.Value) ([]string, error)

	// NewError builds a thrown Error/TypeError/... object Value from the
	// engine's internal taxonomy (internal/errors.Error), for the VM to
	// hand to Throw-completion handling.
	NewError(err error) value.Value

	// SymbolIterator is %Symbol.iterator%, needed to resolve
	// obj[Symbol.iterator] in the general destructuring / for-of path.
	SymbolIterator() value.PropertyKey
}

// Disposition is the VM's end-of-instruction state: Normal, Returned,
// Yielded or Awaited, plus Thrown for an exception, which Run reports
// when no handler in the frame catches it.
type Disposition uint8

const (
	Normal Disposition = iota
	Returned
	Yielded
	Awaited
	Thrown
)
