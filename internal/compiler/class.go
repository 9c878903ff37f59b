package compiler

import (
	"fmt"

	"github.com/ecmacore/jsvm/internal/ast"
	"github.com/ecmacore/jsvm/internal/bytecode"
)

// compileClassExpression implements the class-definition-evaluation
// algorithm: resolve the optional extends clause, bind the constructor
// (explicit or synthesized as an empty body), install every other
// member against the prototype or the constructor itself depending on
// Static, and run instance field initializers inside the constructor
// body ahead of the user-written statements. There is no AST shape for
// a `super(...)` call (internal/ast's CallExpression has no distinct
// super-callee node), so derived-class construction relies entirely on
// the host's BindConstructorFunction already producing a correctly
// prototype-linked `this` before the body runs.
func (c *Compiler) compileClassExpression(ce *ast.ClassExpression) {
	hasParent := ce.SuperClass != nil

	var ctor *ast.FunctionExpression
	for _, el := range ce.Body {
		if el.Kind == ast.ClassMethod && !el.Static {
			if n, ok := identName(el.Key); ok && n == "constructor" {
				if fn, ok := deref(el.Value).(ast.FunctionExpression); ok {
					ctor = &fn
				}
			}
		}
	}

	if hasParent {
		c.compileExpr(ce.SuperClass)
	} else {
		c.w.Emit(bytecode.OpLoadConstant, c.exec.AddConstant(undefinedConst()))
	}
	c.w.Emit(bytecode.OpLoad)

	code := c.compileConstructorBody(ctor, ce.Body)
	paramCount := 0
	if ctor != nil {
		paramCount = len(ctor.Params)
	}
	fe := &bytecode.FnExpr{Name: ce.Name, ParamCount: paramCount, IsStrict: true, Code: code}
	idx := c.exec.AddFunctionExpression(fe)
	c.w.Emit(bytecode.OpClassDefineConstructor, idx, boolU16(hasParent))

	c.compileClassMembers(ce.Body)
}

// compileConstructorBody compiles the constructor function (or, absent
// an explicit one, an empty body taking no parameters) into its own
// Executable, with every declared instance field's initializer spliced
// in right after parameter binding and before the constructor's own
// statements.
func (c *Compiler) compileConstructorBody(ctor *ast.FunctionExpression, classBody []*ast.ClassElement) *bytecode.Executable {
	child := c.newChild(true)
	if ctor != nil {
		child.compileParamBindings(ctor.Params)
	}
	child.compileInstanceFieldInitializers(classBody)
	if ctor != nil {
		child.compileStatementList(ctor.Body.Body)
	}
	child.w.Emit(bytecode.OpLoadConstant, child.exec.AddConstant(undefinedConst()))
	child.w.Emit(bytecode.OpReturn)
	return child.exec
}

// compileInstanceFieldInitializers assigns each non-static field's
// initializer (or undefined) onto `this`, private fields via
// ClassInitializePrivateValue and public fields via a plain
// ObjectSetProperty, matching declaration order.
func (c *Compiler) compileInstanceFieldInitializers(body []*ast.ClassElement) {
	for _, el := range body {
		if el.Kind != ast.ClassField || el.Static {
			continue
		}
		if pname, ok := privateName(el.Key); ok {
			c.compileFieldInitializerValue(el)
			idx := c.exec.InternIdentifier(pname)
			c.w.Emit(bytecode.OpClassInitializePrivateValue, idx)
			continue
		}
		c.w.Emit(bytecode.OpResolveThisBinding)
		c.w.Emit(bytecode.OpLoad)
		c.compilePropertyKey(el.Key, el.Computed)
		c.w.Emit(bytecode.OpLoad)
		c.compileFieldInitializerValue(el)
		c.w.Emit(bytecode.OpObjectSetProperty)
	}
}

func (c *Compiler) compileFieldInitializerValue(el *ast.ClassElement) {
	if el.Value == nil {
		c.w.Emit(bytecode.OpLoadConstant, c.exec.AddConstant(undefinedConst()))
		return
	}
	c.compileExpr(el.Value)
}

// compileClassMembers installs every method/getter/setter and every
// static field against the prototype or the constructor, stashing both
// in synthetic bindings so each installation can re-fetch its target
// fresh (the VM's Object* opcodes consume their object operand off the
// stack, so nothing can simply stay pushed across an unbounded number
// of members).
func (c *Compiler) compileClassMembers(body []*ast.ClassElement) {
	ctorTemp := fmt.Sprintf("%%class%d", c.nextTemp())
	c.declareAndInitialize(ctorTemp, true)
	ctorIdx := c.exec.InternIdentifier(ctorTemp)

	c.w.Emit(bytecode.OpResolveBinding, ctorIdx)
	c.w.Emit(bytecode.OpGetValue)
	protoKeyIdx := c.exec.InternIdentifier("prototype")
	c.w.Emit(bytecode.OpEvaluatePropertyAccessWithIdentifierKey, protoKeyIdx)
	c.w.Emit(bytecode.OpGetValue)
	protoTemp := fmt.Sprintf("%%proto%d", c.nextTemp())
	c.declareAndInitialize(protoTemp, true)
	protoIdx := c.exec.InternIdentifier(protoTemp)

	for _, el := range body {
		switch el.Kind {
		case ast.ClassMethod:
			if !el.Static {
				if n, ok := identName(el.Key); ok && n == "constructor" {
					continue
				}
			}
			c.installMember(el, ctorIdx, protoIdx)
		case ast.ClassGetter, ast.ClassSetter:
			c.installMember(el, ctorIdx, protoIdx)
		case ast.ClassField:
			if el.Static {
				c.installStaticField(el, ctorIdx)
			}
		case ast.ClassStaticBlock:
			if block, ok := deref(el.Value).(ast.BlockStatement); ok {
				c.compileStatementList(block.Body)
			}
		}
	}

	c.w.Emit(bytecode.OpResolveBinding, ctorIdx)
	c.w.Emit(bytecode.OpGetValue)
}

func (c *Compiler) installMember(el *ast.ClassElement, ctorIdx, protoIdx uint16) {
	if pname, ok := privateName(el.Key); ok {
		targetIdx := protoIdx
		if el.Static {
			targetIdx = ctorIdx
		}
		c.installPrivateMember(el, targetIdx, pname)
		return
	}
	targetIdx := protoIdx
	if el.Static {
		targetIdx = ctorIdx
	}
	c.w.Emit(bytecode.OpResolveBinding, targetIdx)
	c.w.Emit(bytecode.OpGetValue)
	c.w.Emit(bytecode.OpLoad)
	c.compilePropertyKey(el.Key, el.Computed)
	c.w.Emit(bytecode.OpLoad)
	fn, ok := deref(el.Value).(ast.FunctionExpression)
	if !ok {
		panic("compiler: class method/getter/setter value must be a function expression")
	}
	c.compileFunctionExpression(&fn)
	switch el.Kind {
	case ast.ClassGetter:
		c.w.Emit(bytecode.OpObjectDefineGetter)
	case ast.ClassSetter:
		c.w.Emit(bytecode.OpObjectDefineSetter)
	default:
		c.w.Emit(bytecode.OpObjectDefineMethod)
	}
}

func (c *Compiler) installPrivateMember(el *ast.ClassElement, targetIdx uint16, pname string) {
	c.w.Emit(bytecode.OpResolveBinding, targetIdx)
	c.w.Emit(bytecode.OpGetValue)
	c.w.Emit(bytecode.OpLoad)
	fn, ok := deref(el.Value).(ast.FunctionExpression)
	if !ok {
		panic("compiler: private method/getter/setter value must be a function expression")
	}
	c.compileFunctionExpression(&fn)
	idx := c.exec.InternIdentifier(pname)
	var flags uint16
	if el.Kind == ast.ClassGetter || el.Kind == ast.ClassSetter {
		flags |= 1
	}
	if el.Kind == ast.ClassGetter {
		flags |= 2
	}
	c.w.Emit(bytecode.OpClassDefinePrivateMethod, idx, flags)
}

func (c *Compiler) installStaticField(el *ast.ClassElement, ctorIdx uint16) {
	c.w.Emit(bytecode.OpResolveBinding, ctorIdx)
	c.w.Emit(bytecode.OpGetValue)
	c.w.Emit(bytecode.OpLoad)
	if pname, ok := privateName(el.Key); ok {
		c.compileFieldInitializerValue(el)
		idx := c.exec.InternIdentifier(pname)
		c.w.Emit(bytecode.OpClassDefinePrivateProperty, idx)
		return
	}
	c.compilePropertyKey(el.Key, el.Computed)
	c.w.Emit(bytecode.OpLoad)
	c.compileFieldInitializerValue(el)
	c.w.Emit(bytecode.OpObjectSetProperty)
}
