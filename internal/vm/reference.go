package vm

import "github.com/ecmacore/jsvm/internal/value"

// BaseKind discriminates Reference's three base shapes (spec.md §3
// "Reference Record": unresolvable, an environment record, or a
// value).
type BaseKind uint8

const (
	BaseUnresolvable BaseKind = iota
	BaseEnvironment
	BaseValue
)

// Reference is the VM's first-class unresolved-access record (spec.md
// §3, §9 "Reference records as first-class VM state"). GetValue/PutValue
// read and write through it; InitializeReferencedBinding and
// EvaluateCall's this-value computation also inspect its base.
type Reference struct {
	BaseKind BaseKind
	Env      *Environment // valid iff BaseKind == BaseEnvironment
	Val      value.Value  // valid iff BaseKind == BaseValue (property base)
	Name     value.PropertyKey
	// IdentifierName carries the raw name for BaseEnvironment references,
	// which are resolved by name rather than by PropertyKey.
	IdentifierName string
	Strict         bool
	// ThisValue, when set, marks this as a super-property reference
	// (spec.md §3: "this_value set" distinguishes super references);
	// GetValue/PutValue use it as the receiver instead of Val.
	ThisValue    *value.Value
	IsPrivate    bool
}

func UnresolvableReference(name string, strict bool) Reference {
	return Reference{BaseKind: BaseUnresolvable, IdentifierName: name, Strict: strict}
}

func EnvironmentReference(env *Environment, name string, strict bool) Reference {
	return Reference{BaseKind: BaseEnvironment, Env: env, IdentifierName: name, Strict: strict}
}

func PropertyReference(base value.Value, key value.PropertyKey, strict bool) Reference {
	return Reference{BaseKind: BaseValue, Val: base, Name: key, Strict: strict}
}

func PrivateReference(base value.Value, name string, strict bool) Reference {
	return Reference{BaseKind: BaseValue, Val: base, IdentifierName: name, Strict: strict, IsPrivate: true}
}

// GetThisValue implements spec.md §4.2's EvaluateCall rule for a
// property reference's receiver: the reference's ThisValue if it is a
// super reference, else its Val.
func (r Reference) GetThisValue() value.Value {
	if r.ThisValue != nil {
		return *r.ThisValue
	}
	return r.Val
}
