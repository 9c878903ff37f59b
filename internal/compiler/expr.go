package compiler

import (
	"github.com/ecmacore/jsvm/internal/ast"
	"github.com/ecmacore/jsvm/internal/bytecode"
	"github.com/ecmacore/jsvm/internal/vm"
)

// compileExpr walks an expression node, leaving its value in the result
// register with no live reference (hasRef cleared) and the value stack
// exactly as it found it — the emit contract every other compile
// routine in this package relies on when it calls compileExpr as a
// sub-step (spec.md §4.1's "result register...value stack top").
func (c *Compiler) compileExpr(n ast.Node) {
	switch e := deref(n).(type) {
	case ast.Identifier:
		idx := c.exec.InternIdentifier(e.Name)
		c.w.Emit(bytecode.OpResolveBinding, idx)
		c.w.Emit(bytecode.OpGetValue)
	case ast.Literal:
		c.w.Emit(bytecode.OpLoadConstant, c.exec.AddConstant(literalToValue(e)))
	case ast.ThisExpression:
		c.w.Emit(bytecode.OpResolveThisBinding)
	case ast.ArrayExpression:
		c.compileArrayExpression(e)
	case ast.ObjectExpression:
		c.compileObjectExpression(e)
	case ast.FunctionExpression:
		c.compileFunctionExpression(&e)
	case ast.ClassExpression:
		c.compileClassExpression(&e)
	case ast.UnaryExpression:
		c.compileUnaryExpression(e)
	case ast.UpdateExpression:
		c.compileUpdateExpression(e)
	case ast.BinaryExpression:
		c.compileBinaryExpression(e)
	case ast.LogicalExpression:
		c.compileLogicalExpression(e)
	case ast.AssignmentExpression:
		c.compileAssignmentExpression(e)
	case ast.ConditionalExpression:
		c.compileConditionalExpression(e)
	case ast.MemberExpression:
		c.compileMemberExpression(e)
		c.w.Emit(bytecode.OpGetValue)
	case ast.CallExpression:
		c.compileCallExpression(e)
	case ast.NewExpression:
		c.compileNewExpression(e)
	case ast.SequenceExpression:
		for _, sub := range e.Expressions {
			c.compileExpr(sub)
		}
	case ast.TemplateLiteral:
		c.compileTemplateLiteral(e)
	default:
		panic("compiler: unsupported expression node")
	}
}

func (c *Compiler) compileArrayExpression(e ast.ArrayExpression) {
	for _, el := range e.Elements {
		if el == nil {
			c.w.Emit(bytecode.OpLoadConstant, c.exec.AddConstant(undefinedConst()))
		} else if _, ok := deref(el).(ast.SpreadElement); ok {
			panic("compiler: spread elements in array literals are not supported")
		} else {
			c.compileExpr(el)
		}
		c.w.Emit(bytecode.OpLoad)
	}
	c.w.Emit(bytecode.OpArrayCreate, uint16(len(e.Elements)))
}

// compilePropertyKey loads a Property/ClassElement key into the result
// register: a literal string for a non-computed identifier/literal key,
// or the compiled value of an arbitrary computed-key expression.
func (c *Compiler) compilePropertyKey(key ast.Node, computed bool) {
	if computed {
		c.compileExpr(key)
		return
	}
	name, ok := propertyKeyName(key)
	if !ok {
		panic("compiler: unsupported non-computed property key")
	}
	c.w.Emit(bytecode.OpLoadConstant, c.exec.AddConstant(stringConst(name)))
}

func (c *Compiler) compileObjectExpression(e ast.ObjectExpression) {
	c.w.Emit(bytecode.OpObjectCreate)
	for _, prop := range e.Properties {
		if prop.Kind == ast.PropertySpread {
			panic("compiler: spread properties in object literals are not supported")
		}
		c.w.Emit(bytecode.OpLoad)
		c.compilePropertyKey(prop.Key, prop.Computed)
		c.w.Emit(bytecode.OpLoad)
		switch prop.Kind {
		case ast.PropertyGet:
			fn, ok := deref(prop.Value).(ast.FunctionExpression)
			if !ok {
				panic("compiler: getter value must be a function expression")
			}
			c.compileFunctionExpression(&fn)
			c.w.Emit(bytecode.OpObjectDefineGetter)
		case ast.PropertySet:
			fn, ok := deref(prop.Value).(ast.FunctionExpression)
			if !ok {
				panic("compiler: setter value must be a function expression")
			}
			c.compileFunctionExpression(&fn)
			c.w.Emit(bytecode.OpObjectDefineSetter)
		case ast.PropertyMethod:
			fn, ok := deref(prop.Value).(ast.FunctionExpression)
			if !ok {
				panic("compiler: method value must be a function expression")
			}
			c.compileFunctionExpression(&fn)
			c.w.Emit(bytecode.OpObjectDefineMethod)
		default:
			c.compileExpr(prop.Value)
			c.w.Emit(bytecode.OpObjectSetProperty)
		}
	}
}

func (c *Compiler) compileUnaryExpression(e ast.UnaryExpression) {
	switch e.Operator {
	case ast.UnaryVoid:
		c.compileExpr(e.Argument)
		c.w.Emit(bytecode.OpLoadConstant, c.exec.AddConstant(undefinedConst()))
	case ast.UnaryTypeof:
		c.compileExpr(e.Argument)
		c.w.Emit(bytecode.OpTypeof)
	case ast.UnaryMinus:
		c.compileExpr(e.Argument)
		c.w.Emit(bytecode.OpUnaryMinus)
	case ast.UnaryPlus:
		c.compileExpr(e.Argument)
		c.w.Emit(bytecode.OpToNumber)
	case ast.UnaryBitNot:
		c.compileExpr(e.Argument)
		c.w.Emit(bytecode.OpBitwiseNot)
	case ast.UnaryNot:
		c.compileExpr(e.Argument)
		c.w.Emit(bytecode.OpLogicalNot)
	case ast.UnaryDelete:
		panic("compiler: delete expressions are not supported")
	default:
		panic("compiler: unsupported unary operator " + string(e.Operator))
	}
}

// compileUpdateExpression handles both ++/-- forms on an identifier or
// member-expression target. Prefix leaves the new value as the
// expression's result; postfix stashes the old value on the stack
// before the write and restores it afterward (spec.md §4.1's Increment/
// Decrement opcodes always produce the new value, so postfix's "return
// old" has no dedicated opcode of its own).
func (c *Compiler) compileUpdateExpression(e ast.UpdateExpression) {
	c.compileReferenceTarget(e.Argument, true)
	c.w.Emit(bytecode.OpGetValueKeepReference)
	if !e.Prefix {
		c.w.Emit(bytecode.OpLoadCopy)
	}
	if e.Operator == ast.UpdateIncrement {
		c.w.Emit(bytecode.OpIncrement)
	} else {
		c.w.Emit(bytecode.OpDecrement)
	}
	c.w.Emit(bytecode.OpPutValue)
	if !e.Prefix {
		c.w.Emit(bytecode.OpStore)
	}
}

// compileReferenceTarget resolves target as a reference without
// reading through it, leaving the VM's reference register live
// (hasRef true) for a subsequent GetValueKeepReference/PutValue pair.
// keepBase controls whether a member expression's object is left
// addressable on the stack for the caller to combine with further
// instructions; every current caller (update, plain, compound and
// logical assignment, and call callees) passes true, and the body
// ignores it, but the parameter documents
// the dependency rather than hiding it.
func (c *Compiler) compileReferenceTarget(target ast.Node, keepBase bool) {
	_ = keepBase
	switch t := deref(target).(type) {
	case ast.Identifier:
		idx := c.exec.InternIdentifier(t.Name)
		c.w.Emit(bytecode.OpResolveBinding, idx)
	case ast.MemberExpression:
		c.compileMemberExpression(t)
	default:
		panic("compiler: unsupported reference target shape")
	}
}

// compileMemberExpression evaluates a MemberExpression's object and
// property, leaving a live Property reference (hasRef true) without
// reading through it — callers choose GetValue (plain read) or
// GetValueKeepReference (update/compound-assignment) afterward.
func (c *Compiler) compileMemberExpression(e ast.MemberExpression) {
	if e.Computed {
		c.compileExpr(e.Object)
		c.w.Emit(bytecode.OpLoad)
		c.compileExpr(e.Property)
		c.w.Emit(bytecode.OpEvaluatePropertyAccessWithExpressionKey)
		return
	}
	name, ok := identName(e.Property)
	if !ok {
		panic("compiler: non-computed member property must be an identifier")
	}
	c.compileExpr(e.Object)
	idx := c.exec.InternIdentifier(name)
	c.w.Emit(bytecode.OpEvaluatePropertyAccessWithIdentifierKey, idx)
}

func (c *Compiler) compileBinaryExpression(e ast.BinaryExpression) {
	switch e.Operator {
	case ast.BinaryIn:
		c.compileExpr(e.Right)
		c.w.Emit(bytecode.OpLoad)
		c.compileExpr(e.Left)
		c.w.Emit(bytecode.OpHasProperty)
		return
	case ast.BinaryInstanceof:
		c.compileExpr(e.Left)
		c.w.Emit(bytecode.OpLoad)
		c.compileExpr(e.Right)
		c.w.Emit(bytecode.OpInstanceofOperator)
		return
	}

	c.compileExpr(e.Left)
	c.w.Emit(bytecode.OpLoad)
	c.compileExpr(e.Right)

	switch e.Operator {
	case ast.BinaryStrictEqual:
		c.w.Emit(bytecode.OpIsStrictlyEqual)
	case ast.BinaryNotStrictEq:
		c.w.Emit(bytecode.OpIsStrictlyEqual)
		c.w.Emit(bytecode.OpLogicalNot)
	case ast.BinaryEqual:
		c.w.Emit(bytecode.OpIsLooselyEqual)
	case ast.BinaryNotEqual:
		c.w.Emit(bytecode.OpIsLooselyEqual)
		c.w.Emit(bytecode.OpLogicalNot)
	case ast.BinaryLess:
		c.w.Emit(bytecode.OpLessThan)
	case ast.BinaryLessEqual:
		c.w.Emit(bytecode.OpLessThanEquals)
	case ast.BinaryGreater:
		c.w.Emit(bytecode.OpGreaterThan)
	case ast.BinaryGreaterEqual:
		c.w.Emit(bytecode.OpGreaterThanEquals)
	default:
		op, ok := binOpFor(e.Operator)
		if !ok {
			panic("compiler: unsupported binary operator " + string(e.Operator))
		}
		c.w.Emit(bytecode.OpApplyStringOrNumericBinaryOperator, uint16(op))
	}
}

func binOpFor(op ast.BinaryOperator) (vm.BinOp, bool) {
	switch op {
	case ast.BinaryAdd:
		return vm.BinAdd, true
	case ast.BinarySub:
		return vm.BinSub, true
	case ast.BinaryMul:
		return vm.BinMul, true
	case ast.BinaryDiv:
		return vm.BinDiv, true
	case ast.BinaryMod:
		return vm.BinMod, true
	case ast.BinaryExp:
		return vm.BinExp, true
	case ast.BinaryBitAnd:
		return vm.BinBitAnd, true
	case ast.BinaryBitOr:
		return vm.BinBitOr, true
	case ast.BinaryBitXor:
		return vm.BinBitXor, true
	case ast.BinaryShiftLeft:
		return vm.BinShl, true
	case ast.BinaryShiftRight:
		return vm.BinShr, true
	case ast.BinaryUShiftRight:
		return vm.BinUShr, true
	}
	return 0, false
}

func assignBinOpFor(op ast.AssignmentOperator) (vm.BinOp, bool) {
	switch op {
	case ast.AssignAdd:
		return vm.BinAdd, true
	case ast.AssignSub:
		return vm.BinSub, true
	case ast.AssignMul:
		return vm.BinMul, true
	case ast.AssignDiv:
		return vm.BinDiv, true
	case ast.AssignMod:
		return vm.BinMod, true
	case ast.AssignExp:
		return vm.BinExp, true
	case ast.AssignBitAnd:
		return vm.BinBitAnd, true
	case ast.AssignBitOr:
		return vm.BinBitOr, true
	case ast.AssignBitXor:
		return vm.BinBitXor, true
	case ast.AssignShiftLeft:
		return vm.BinShl, true
	case ast.AssignShiftRight:
		return vm.BinShr, true
	case ast.AssignUShiftRight:
		return vm.BinUShr, true
	}
	return 0, false
}

// compileLogicalExpression implements the three short-circuit
// operators. && and || test Left's already-computed value directly
// (JumpIfNot/JumpIfTrue never touch the result register), so no stack
// juggling is needed; ?? needs IsNullOrUndefined, which overwrites the
// result register with its boolean verdict, so it stages Left on the
// stack first and restores it via Store on the branch that keeps it.
func (c *Compiler) compileLogicalExpression(e ast.LogicalExpression) {
	c.compileExpr(e.Left)
	switch e.Operator {
	case ast.LogicalAnd:
		skip := c.w.EmitJump(bytecode.OpJumpIfNot)
		c.compileExpr(e.Right)
		c.w.PatchJumpHere(skip)
	case ast.LogicalOr:
		skip := c.w.EmitJump(bytecode.OpJumpIfTrue)
		c.compileExpr(e.Right)
		c.w.PatchJumpHere(skip)
	case ast.LogicalNullish:
		c.w.Emit(bytecode.OpLoadCopy)
		c.w.Emit(bytecode.OpIsNullOrUndefined)
		keepLeft := c.w.EmitJump(bytecode.OpJumpIfNot)
		c.w.Emit(bytecode.OpStore)
		c.compileExpr(e.Right)
		done := c.w.EmitJump(bytecode.OpJump)
		c.w.PatchJumpHere(keepLeft)
		c.w.Emit(bytecode.OpStore)
		c.w.PatchJumpHere(done)
	default:
		panic("compiler: unsupported logical operator " + string(e.Operator))
	}
}

func (c *Compiler) compileAssignmentExpression(e ast.AssignmentExpression) {
	if e.Operator == ast.AssignPlain {
		if _, ok := deref(e.Left).(ast.ArrayPattern); ok {
			c.compileExpr(e.Right)
			c.compileBindingTarget(e.Left, false, true)
			return
		}
		if _, ok := deref(e.Left).(ast.ObjectPattern); ok {
			c.compileExpr(e.Right)
			c.compileBindingTarget(e.Left, false, true)
			return
		}
		c.compileReferenceTarget(e.Left, true)
		c.compileExpr(e.Right)
		c.w.Emit(bytecode.OpPutValue)
		return
	}

	switch e.Operator {
	case ast.AssignLogicalAnd:
		c.compileCompoundLogicalAssignment(e, bytecode.OpJumpIfNot)
		return
	case ast.AssignLogicalOr:
		c.compileCompoundLogicalAssignment(e, bytecode.OpJumpIfTrue)
		return
	case ast.AssignNullish:
		c.compileNullishAssignment(e)
		return
	}

	op, ok := assignBinOpFor(e.Operator)
	if !ok {
		panic("compiler: unsupported assignment operator " + string(e.Operator))
	}
	c.compileReferenceTarget(e.Left, true)
	c.w.Emit(bytecode.OpGetValueKeepReference)
	c.w.Emit(bytecode.OpLoad)
	c.compileExpr(e.Right)
	c.w.Emit(bytecode.OpApplyStringOrNumericBinaryOperator, uint16(op))
	c.w.Emit(bytecode.OpPutValue)
}

func (c *Compiler) compileCompoundLogicalAssignment(e ast.AssignmentExpression, skipOp bytecode.Op) {
	c.compileReferenceTarget(e.Left, true)
	c.w.Emit(bytecode.OpGetValueKeepReference)
	end := c.w.EmitJump(skipOp)
	c.compileExpr(e.Right)
	c.w.Emit(bytecode.OpPutValue)
	c.w.PatchJumpHere(end)
}

func (c *Compiler) compileNullishAssignment(e ast.AssignmentExpression) {
	c.compileReferenceTarget(e.Left, true)
	c.w.Emit(bytecode.OpGetValueKeepReference)
	c.w.Emit(bytecode.OpLoadCopy)
	c.w.Emit(bytecode.OpIsNullOrUndefined)
	notNullish := c.w.EmitJump(bytecode.OpJumpIfNot)
	c.w.Emit(bytecode.OpStore)
	c.compileExpr(e.Right)
	c.w.Emit(bytecode.OpPutValue)
	done := c.w.EmitJump(bytecode.OpJump)
	c.w.PatchJumpHere(notNullish)
	c.w.Emit(bytecode.OpStore)
	c.w.PatchJumpHere(done)
}

func (c *Compiler) compileConditionalExpression(e ast.ConditionalExpression) {
	c.compileExpr(e.Test)
	toAlt := c.w.EmitJump(bytecode.OpJumpIfNot)
	c.compileExpr(e.Consequent)
	toEnd := c.w.EmitJump(bytecode.OpJump)
	c.w.PatchJumpHere(toAlt)
	c.compileExpr(e.Alternate)
	c.w.PatchJumpHere(toEnd)
}

// compileCallCallee resolves a call expression's callee the same way
// compileExpr would, except it keeps the reference live
// (GetValueKeepReference instead of GetValue) so EvaluateCall's
// this-value computation can read it off f.reference.
func (c *Compiler) compileCallCallee(callee ast.Node) {
	switch deref(callee).(type) {
	case ast.Identifier, ast.MemberExpression:
		c.compileReferenceTarget(callee, true)
		c.w.Emit(bytecode.OpGetValueKeepReference)
	default:
		c.compileExpr(callee)
	}
}

func (c *Compiler) compileArguments(args []ast.Node) int {
	for _, a := range args {
		if _, ok := deref(a).(ast.SpreadElement); ok {
			panic("compiler: spread arguments are not supported")
		}
		c.compileExpr(a)
		c.w.Emit(bytecode.OpLoad)
	}
	return len(args)
}

func (c *Compiler) compileCallExpression(e ast.CallExpression) {
	c.compileCallCallee(e.Callee)
	c.w.Emit(bytecode.OpLoad)
	n := c.compileArguments(e.Arguments)
	c.w.Emit(bytecode.OpEvaluateCall, uint16(n))
}

func (c *Compiler) compileNewExpression(e ast.NewExpression) {
	c.compileExpr(e.Callee)
	c.w.Emit(bytecode.OpLoad)
	n := c.compileArguments(e.Arguments)
	c.w.Emit(bytecode.OpEvaluateNew, uint16(n))
}

func (c *Compiler) compileTemplateLiteral(e ast.TemplateLiteral) {
	count := 0
	for i, q := range e.Quasis {
		c.w.Emit(bytecode.OpLoadConstant, c.exec.AddConstant(stringConst(q)))
		c.w.Emit(bytecode.OpLoad)
		count++
		if i < len(e.Expressions) {
			c.compileExpr(e.Expressions[i])
			c.w.Emit(bytecode.OpLoad)
			count++
		}
	}
	c.w.Emit(bytecode.OpStringConcat, uint16(count))
}

func (c *Compiler) compileFunctionExpression(fn *ast.FunctionExpression) {
	code := c.compileNestedFunctionBody(fn)
	fe := &bytecode.FnExpr{Name: fn.Name, ParamCount: len(fn.Params), IsArrow: fn.IsArrow, IsStrict: fn.Strict || c.strict, Code: code}
	if fn.IsArrow {
		idx := c.exec.AddArrowFunctionExpression(fe)
		c.w.Emit(bytecode.OpInstantiateArrowFunctionExpression, idx)
	} else {
		idx := c.exec.AddFunctionExpression(fe)
		c.w.Emit(bytecode.OpInstantiateOrdinaryFunctionExpression, idx)
	}
}
