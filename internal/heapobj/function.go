package heapobj

import "github.com/ecmacore/jsvm/internal/value"

// FunctionSubKind distinguishes the four callable shapes spec.md §3
// groups under "Function": bound / builtin / ECMAScript / proxy.
type FunctionSubKind uint8

const (
	FuncBound FunctionSubKind = iota
	FuncBuiltin
	FuncECMAScript
	FuncProxy
)

// Callable is implemented by whatever the agent/vm layer registers as a
// function object's Extra payload. [[Call]] and [[Construct]] are kept
// as a Go interface (rather than a bytecode-only representation) because
// builtin functions — out of scope per spec.md §1 ("concrete
// implementation of each built-in object... only the shape of their
// interaction with the VM is specified") — are host Go closures, while
// ECMAScript functions run back through the VM's own Executable.
type Callable interface {
	SubKind() FunctionSubKind
	// Name and Length mirror Function.prototype.name/.length.
	Name() string
	Length() int
	IsConstructor() bool
}

// FunctionData is the Extra payload for a KindFunction object.
type FunctionData struct {
	Callable Callable
	// HomeObject supports `super` property lookups from methods.
	HomeObject value.Value
}

// ErrorData is the Extra payload for a KindError object: the fields of
// the engine's internal *errors.Error copied out as plain values (Kind
// as its name string) to avoid an import cycle between heapobj and the
// errors package's richer Kind taxonomy — internal/agent fills it in at
// the boundary where a throw becomes a Value.
type ErrorData struct {
	Kind    string
	Message string
	Stack   []string
}
