// Package vm implements the virtual machine interpreter of spec.md §4.2:
// a fetch/decode/execute loop over a bytecode.Executable that threads
// results through a single accumulator, a value stack, a reference
// stack, an iterator stack, and an exception-handler stack. It sits
// below internal/agent in spec.md §2's dependency order — the VM knows
// nothing about Realms, intrinsics, or job queues, only the Host
// surface declared in host.go, which internal/agent implements.
package vm

import (
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/value"
)

// binding is one declared name inside an Environment: a value slot plus
// the mutable/initialized flags ECMA-262 environment records track
// (an uninitialized binding throws ReferenceError on read, matching the
// temporal dead zone).
type binding struct {
	value       value.Value
	mutable     bool
	initialized bool
}

// Environment is a declarative lexical environment record (spec.md
// §4.2 "Environment management"). There is exactly one concrete shape
// here — ECMAScript also has object environment records (for `with`
// and the global object) and function environment records (`this`
// binding, `super`), both represented as a declarative Environment with
// ThisValue/WithBaseObject populated, rather than as separate Go types,
// mirroring spec.md §9's "tagged sum types over inheritance" preference
// for a handful of optional fields over a type hierarchy.
type Environment struct {
	Outer    *Environment
	bindings map[string]*binding

	// ThisValue is set on function environments; HasThis reports whether
	// this environment (as opposed to an outer one) binds `this` at all
	// (arrow functions create no function environment of their own and
	// must walk outward to find one, spec.md §4.2 "ResolveThisBinding").
	HasThis   bool
	ThisValue value.Value

	// WithBaseObject, when non-nil, is consulted by EvaluateCall's
	// this-value computation when the reference's base is this
	// environment (spec.md §4.2: "If the base is an environment ->
	// WithBaseObject() of that environment, else undefined").
	WithBaseObject *value.Value
}

// NewDeclarative implements EnterDeclarativeEnvironment: a fresh scope
// whose Outer is the environment active before the Enter opcode ran.
func NewDeclarative(outer *Environment) *Environment {
	return &Environment{Outer: outer, bindings: make(map[string]*binding)}
}

// NewFunctionEnvironment is NewDeclarative plus a `this` binding, used
// for every non-arrow ECMAScript function call.
func NewFunctionEnvironment(outer *Environment, thisValue value.Value) *Environment {
	env := NewDeclarative(outer)
	env.HasThis = true
	env.ThisValue = thisValue
	return env
}

func (e *Environment) HasBinding(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// CreateMutableBinding declares name as a mutable binding initialized
// immediately to undefined. The compiler emits it for var, let, class,
// function and parameter bindings.
func (e *Environment) CreateMutableBinding(name string) {
	e.bindings[name] = &binding{value: value.Undefined(), mutable: true, initialized: true}
}

// CreateImmutableBinding declares name as a const binding, left
// uninitialized until InitializeReferencedBinding runs (the temporal
// dead zone).
func (e *Environment) CreateImmutableBinding(name string) {
	e.bindings[name] = &binding{mutable: false, initialized: false}
}

// CreateCatchBinding declares and immediately initializes name to exc,
// per spec.md §4.2 ("CreateCatchBinding additionally initializes the
// declared name to the current exception value").
func (e *Environment) CreateCatchBinding(name string, exc value.Value) {
	e.bindings[name] = &binding{value: exc, mutable: true, initialized: true}
}

// InitializeBinding sets an immutable (or not-yet-initialized mutable)
// binding's value for the first time, matching
// InitializeReferencedBinding.
func (e *Environment) InitializeBinding(name string, v value.Value) error {
	b, ok := e.bindings[name]
	if !ok {
		return errors.ReferenceError("%s is not defined", name)
	}
	b.value = v
	b.initialized = true
	return nil
}

// lookup walks Outer chains to find the environment that declares name.
func (e *Environment) lookup(name string) (*Environment, *binding) {
	for env := e; env != nil; env = env.Outer {
		if b, ok := env.bindings[name]; ok {
			return env, b
		}
	}
	return nil, nil
}

func (e *Environment) GetBindingValue(name string) (value.Value, error) {
	_, b := e.lookup(name)
	if b == nil {
		return value.Value{}, errors.ReferenceError("%s is not defined", name)
	}
	if !b.initialized {
		return value.Value{}, errors.ReferenceError("cannot access %q before initialization", name)
	}
	return b.value, nil
}

func (e *Environment) SetMutableBinding(name string, v value.Value, strict bool) error {
	_, b := e.lookup(name)
	if b == nil {
		if strict {
			return errors.ReferenceError("%s is not defined", name)
		}
		// Non-strict assignment to an undeclared name creates a global
		// mutable binding at the outermost environment, matching sloppy
		// mode's implicit global creation.
		root := e
		for root.Outer != nil {
			root = root.Outer
		}
		root.CreateMutableBinding(name)
		return root.SetMutableBinding(name, v, strict)
	}
	if !b.initialized {
		return errors.ReferenceError("cannot access %q before initialization", name)
	}
	if !b.mutable {
		return errors.TypeError("assignment to constant variable %q", name)
	}
	b.value = v
	return nil
}

// ResolveThisBinding walks outward to the nearest environment that
// actually binds `this` (spec.md §4.2), since arrow functions share
// their enclosing function's `this` rather than creating their own.
func (e *Environment) ResolveThisBinding() (value.Value, error) {
	for env := e; env != nil; env = env.Outer {
		if env.HasThis {
			return env.ThisValue, nil
		}
	}
	return value.Value{}, errors.ReferenceError("'this' is not available in this scope")
}

// PrivateEnvironment binds private names (#x) visible only within one
// class body (spec.md glossary "Private environment"). It is a separate
// chain from Environment because private names do not participate in
// ordinary identifier resolution or the temporal dead zone.
type PrivateEnvironment struct {
	Outer *PrivateEnvironment
	Names map[string]bool
}

func NewPrivateEnvironment(outer *PrivateEnvironment) *PrivateEnvironment {
	return &PrivateEnvironment{Outer: outer, Names: make(map[string]bool)}
}

func (p *PrivateEnvironment) Resolve(name string) bool {
	for pe := p; pe != nil; pe = pe.Outer {
		if pe.Names[name] {
			return true
		}
	}
	return false
}
