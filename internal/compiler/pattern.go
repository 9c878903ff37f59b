package compiler

import (
	"github.com/ecmacore/jsvm/internal/ast"
	"github.com/ecmacore/jsvm/internal/bytecode"
)

// declareAndInitialize assumes the value to bind already sits in the
// result register. It is what every simple-identifier binding target
// (var/let/const, a function parameter, a non-destructured catch
// parameter) compiles down to: create the binding, resolve it, and
// initialize it in one step, mirroring how InitializeReferencedBinding
// exists specifically to avoid routing a declaration's first value
// through SetMutableBinding's already-initialized assumption.
func (c *Compiler) declareAndInitialize(name string, mutable bool) {
	idx := c.exec.InternIdentifier(name)
	if mutable {
		c.w.Emit(bytecode.OpCreateMutableBinding, idx)
	} else {
		c.w.Emit(bytecode.OpCreateImmutableBinding, idx)
	}
	c.w.Emit(bytecode.OpResolveBinding, idx)
	c.w.Emit(bytecode.OpInitializeReferencedBinding)
}

// compileBindingTargetFromArgument reads the caller-supplied positional
// argument compileParamBindings staged under argName and binds it
// (applying any default, destructuring into it) as one of this
// function's declared parameters.
func (c *Compiler) compileBindingTargetFromArgument(node ast.Node, argName string) {
	idx := c.exec.InternIdentifier(argName)
	c.w.Emit(bytecode.OpResolveBinding, idx)
	c.w.Emit(bytecode.OpGetValue)
	c.compileBindingTarget(node, true, true)
}

// compileBindingTarget assumes the value to bind/assign is already in
// the result register. declare selects declaration semantics (a fresh
// binding, mutable per the mutable flag) versus assignment semantics (a
// PutValue/SetMutableBinding against an existing binding) for a plain
// identifier target, and doubles as the "lexical" flag the destructuring
// opcodes need to choose the same distinction for pattern targets.
func (c *Compiler) compileBindingTarget(target ast.Node, declare, mutable bool) {
	target = deref(target)
	if ap, ok := target.(ast.AssignmentPattern); ok {
		c.compileDefaulted(ap.Right)
		target = deref(ap.Left)
	}
	switch t := target.(type) {
	case ast.Identifier:
		if declare {
			c.declareAndInitialize(t.Name, mutable)
		} else {
			idx := c.exec.InternIdentifier(t.Name)
			c.w.Emit(bytecode.OpResolveBinding, idx)
			c.w.Emit(bytecode.OpPutValue)
		}
	case ast.ArrayPattern:
		c.compileArrayBindingPattern(t, declare)
	case ast.ObjectPattern:
		c.compileObjectBindingPattern(t, declare)
	default:
		panic("compiler: unsupported binding/assignment target shape")
	}
}

// compileDefaulted assumes the candidate value is in the result
// register and leaves either that value or defaultExpr's value there,
// per the `= defaultExpr` rule: substitute only when the candidate is
// exactly undefined. It has to survive the candidate across the
// IsStrictlyEqual probe (which overwrites the result register with its
// boolean verdict), so it stages two copies on the stack and discards
// whichever one the branch taken doesn't need via Store.
func (c *Compiler) compileDefaulted(defaultExpr ast.Node) {
	c.w.Emit(bytecode.OpLoadCopy)
	c.w.Emit(bytecode.OpLoadCopy)
	undefIdx := c.exec.AddConstant(undefinedConst())
	c.w.Emit(bytecode.OpLoadConstant, undefIdx)
	c.w.Emit(bytecode.OpIsStrictlyEqual)
	useCandidate := c.w.EmitJump(bytecode.OpJumpIfNot)
	c.w.Emit(bytecode.OpStore)
	c.compileExpr(defaultExpr)
	done := c.w.EmitJump(bytecode.OpJump)
	c.w.PatchJumpHere(useCandidate)
	c.w.Emit(bytecode.OpStore)
	c.w.PatchJumpHere(done)
}

// compileArrayBindingPattern walks an ArrayPattern's elements against
// the source value already loaded by BeginSimpleArrayBindingPattern's
// caller. Plain identifier elements (with or without a literal default)
// go through the VM's single-instruction Bind opcodes; anything else
// (a nested pattern, or a default whose value isn't a literal constant)
// falls back to GetValue+Store+recurse, which compileBindingTarget
// then handles the same way it would a top-level target.
func (c *Compiler) compileArrayBindingPattern(ap ast.ArrayPattern, lexical bool) {
	c.w.Emit(bytecode.OpBeginSimpleArrayBindingPattern, 0, boolU16(lexical))
	for _, el := range ap.Elements {
		if el == nil {
			c.w.Emit(bytecode.OpBindingPatternSkip)
			continue
		}
		switch e := deref(el).(type) {
		case ast.RestElement:
			name, ok := identName(e.Argument)
			if !ok {
				panic("compiler: array rest element must bind a plain identifier")
			}
			idx := c.exec.InternIdentifier(name)
			c.w.Emit(bytecode.OpBindingPatternBindRest, idx)
		case ast.Identifier:
			idx := c.exec.InternIdentifier(e.Name)
			c.w.Emit(bytecode.OpBindingPatternBind, idx)
		case ast.AssignmentPattern:
			if name, ok := identName(e.Left); ok {
				if lit, ok := asLiteral(e.Right); ok {
					idx := c.exec.InternIdentifier(name)
					constIdx := c.exec.AddConstant(literalToValue(lit))
					c.w.Emit(bytecode.OpBindingPatternBindWithInitializer, idx, constIdx)
					continue
				}
			}
			c.w.Emit(bytecode.OpBindingPatternGetValue)
			c.w.Emit(bytecode.OpStore)
			c.compileDefaulted(e.Right)
			c.compileBindingTarget(e.Left, lexical, true)
		default:
			c.w.Emit(bytecode.OpBindingPatternGetValue)
			c.w.Emit(bytecode.OpStore)
			c.compileBindingTarget(el, lexical, true)
		}
	}
	c.w.Emit(bytecode.OpFinishBindingPattern)
}

// compileObjectBindingPattern walks an ObjectPattern's properties.
// Renaming (`{a: b}`) and nested sub-patterns aren't supported: the
// shared Bind opcode family carries one identifier that serves as both
// the source property key and the bound variable name, so only
// shorthand properties (`{a, b}`), shorthand with a literal default
// (`{a = 1}`), and a trailing rest element are compiled; anything else
// panics per this package's "malformed/unsupported tree" contract.
func (c *Compiler) compileObjectBindingPattern(op ast.ObjectPattern, lexical bool) {
	c.w.Emit(bytecode.OpBeginObjectBindingPattern, boolU16(lexical))
	for _, prop := range op.Properties {
		if prop.Kind == ast.PropertySpread {
			name, ok := identName(prop.Value)
			if !ok {
				panic("compiler: object rest element must bind a plain identifier")
			}
			idx := c.exec.InternIdentifier(name)
			c.w.Emit(bytecode.OpBindingPatternBindRest, idx)
			continue
		}
		if prop.Computed {
			panic("compiler: computed object binding-pattern keys are not supported")
		}
		keyName, ok := propertyKeyName(prop.Key)
		if !ok {
			panic("compiler: object binding-pattern key must be a literal or identifier")
		}
		target := deref(prop.Value)
		if ap, ok := target.(ast.AssignmentPattern); ok {
			name, ok := identName(ap.Left)
			if !ok || name != keyName {
				panic("compiler: object binding-pattern renaming/nested defaults are not supported")
			}
			lit, ok := asLiteral(ap.Right)
			if !ok {
				panic("compiler: object binding-pattern defaults must be literal constants")
			}
			idx := c.exec.InternIdentifier(name)
			constIdx := c.exec.AddConstant(literalToValue(lit))
			c.w.Emit(bytecode.OpBindingPatternBindWithInitializer, idx, constIdx)
			continue
		}
		name, ok := identName(target)
		if !ok || name != keyName {
			panic("compiler: object binding-pattern renaming/nesting is not supported")
		}
		idx := c.exec.InternIdentifier(name)
		c.w.Emit(bytecode.OpBindingPatternBind, idx)
	}
	c.w.Emit(bytecode.OpFinishBindingPattern)
}

func boolU16(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
