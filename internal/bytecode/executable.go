package bytecode

import (
	"github.com/ecmacore/jsvm/internal/value"
)

// Reference is a side-table entry recording an unresolved property
// access or binding reference the compiler emitted a PushReference for
// (spec.md §3 "Reference Record").
type Reference struct {
	// IdentifierIndex indexes Executable.Identifiers when Kind is
	// ReferenceIdentifier; unused for ReferenceProperty entries, which
	// carry their key via the VM's reference register at runtime
	// instead (the side table only records the reference's static
	// shape, not its dynamic base/key).
	IdentifierIndex int
	Kind            ReferenceKind
	Strict          bool
}

type ReferenceKind uint8

const (
	ReferenceIdentifier ReferenceKind = iota
	ReferenceProperty
	ReferencePrivateMember
)

// FnExpr is one function or arrow-function expression nested inside a
// containing Executable, compiled into its own Executable the same way
// (spec.md §3 "Executable"). Functions reference their containing
// Executable's function_expressions/arrow_function_expressions table by
// index rather than embedding inline, so a closure captures an index,
// not a full copy.
type FnExpr struct {
	Name       string
	ParamCount int
	IsArrow    bool
	IsStrict   bool
	Code       *Executable
}

// Executable is the compiler's sole output artifact: an instruction
// stream plus every append-only side table the instructions index into
// (spec.md §3 "Executable"). Side tables are immutable once compilation
// of this Executable finishes.
type Executable struct {
	Instructions             []byte
	Constants                []value.Value
	Identifiers               []string
	FunctionExpressions       []*FnExpr
	ArrowFunctionExpressions  []*FnExpr
	References                []Reference
}

func New() *Executable {
	return &Executable{}
}

// AddConstant interns v into Constants and returns its index. Unlike
// identifiers, constants are not deduplicated: two LoadConstant sites
// for equal-but-distinct object values must get distinct slots.
func (e *Executable) AddConstant(v value.Value) uint16 {
	e.Constants = append(e.Constants, v)
	return uint16(len(e.Constants) - 1)
}

// InternIdentifier deduplicates name against existing entries so two
// ResolveBinding sites for the same identifier share one slot.
func (e *Executable) InternIdentifier(name string) uint16 {
	for i, existing := range e.Identifiers {
		if existing == name {
			return uint16(i)
		}
	}
	e.Identifiers = append(e.Identifiers, name)
	return uint16(len(e.Identifiers) - 1)
}

func (e *Executable) AddFunctionExpression(fn *FnExpr) uint16 {
	e.FunctionExpressions = append(e.FunctionExpressions, fn)
	return uint16(len(e.FunctionExpressions) - 1)
}

func (e *Executable) AddArrowFunctionExpression(fn *FnExpr) uint16 {
	e.ArrowFunctionExpressions = append(e.ArrowFunctionExpressions, fn)
	return uint16(len(e.ArrowFunctionExpressions) - 1)
}

func (e *Executable) AddReference(r Reference) uint16 {
	e.References = append(e.References, r)
	return uint16(len(e.References) - 1)
}
