package agent

import (
	"github.com/ecmacore/jsvm/internal/bytecode"
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
	"github.com/ecmacore/jsvm/internal/vm"
)

// ecmaScriptFunction is the Callable payload for a Function object whose
// [[Call]]/[[Construct]] re-enter the VM over a compiled Executable
// (spec.md §4.1 "Function/class definition"). IsConstructor() is
// approximated as "true for every non-arrow function" — this engine
// does not separately track whether a function was declared as an
// object-literal/class method (non-constructible per ECMA-262) since
// internal/compiler's class.go emits the same
// OpInstantiateOrdinaryFunctionExpression opcode for both; DESIGN.md
// records this simplification.
type ecmaScriptFunction struct {
	name       string
	paramCount int
	code       *bytecode.FnExpr
	closureEnv *vm.Environment
	isArrow    bool

	// hasParent/parentCtor are set by BindConstructorFunction for a
	// derived class's constructor: Construct must build `this` by first
	// delegating to parentCtor's own [[Construct]] rather than
	// allocating a fresh ordinary object, since there is no bytecode
	// representation of an explicit `super(...)` call (internal/compiler
	// relies entirely on this host-side wiring; see class.go's doc
	// comment).
	hasParent  bool
	parentCtor value.Value
}

func (f *ecmaScriptFunction) SubKind() heapobj.FunctionSubKind { return heapobj.FuncECMAScript }
func (f *ecmaScriptFunction) Name() string                     { return f.name }
func (f *ecmaScriptFunction) Length() int                       { return f.paramCount }
func (f *ecmaScriptFunction) IsConstructor() bool               { return !f.isArrow }

// builtinFunction is the Callable payload for a realm intrinsic
// implemented as a Go closure (spec.md §1's built-ins Non-goal: "only
// the shape of their interaction with the VM is specified").
type builtinFunction struct {
	name      string
	length    int
	call      func(a *Agent, this value.Value, args []value.Value) (value.Value, error)
	construct func(a *Agent, args []value.Value) (value.Value, error) // nil if not constructible
}

func (f *builtinFunction) SubKind() heapobj.FunctionSubKind { return heapobj.FuncBuiltin }
func (f *builtinFunction) Name() string                     { return f.name }
func (f *builtinFunction) Length() int                       { return f.length }
func (f *builtinFunction) IsConstructor() bool               { return f.construct != nil }

// newFunctionObject wraps c into a Function object, installing the
// name/length data properties every Function.prototype exposes and,
// when c is constructible, a fresh .prototype object linking back via
// .constructor.
func (a *Agent) newFunctionObject(c heapobj.Callable, home value.Value, proto value.Value) value.Value {
	if !proto.IsObject() {
		proto = a.functionProto
	}
	fnVal, fnObj := a.Heap.NewObject(heapobj.KindFunction, proto)
	fnObj.Extra = &heapobj.FunctionData{Callable: c, HomeObject: home}
	fnObj.DefineOwnProperty(a.key("name"), &heapobj.PropertyDescriptor{
		Value: a.heapString(c.Name()), Configurable: true,
	})
	fnObj.DefineOwnProperty(a.key("length"), &heapobj.PropertyDescriptor{
		Value: value.SmallInteger(int64(c.Length())), Configurable: true,
	})
	if c.IsConstructor() {
		protoVal, protoObj := a.Heap.NewObject(heapobj.KindOrdinary, a.objectProto)
		protoObj.DefineOwnProperty(a.key("constructor"), &heapobj.PropertyDescriptor{
			Value: fnVal, Writable: true, Configurable: true,
		})
		fnObj.DefineOwnProperty(a.key("prototype"), &heapobj.PropertyDescriptor{
			Value: protoVal, Writable: true,
		})
	}
	return fnVal
}

// newBuiltin builds and wraps a builtinFunction; realm.go's install*
// helpers are the only callers.
func (a *Agent) newBuiltin(name string, length int, call func(a *Agent, this value.Value, args []value.Value) (value.Value, error), construct func(a *Agent, args []value.Value) (value.Value, error)) value.Value {
	c := &builtinFunction{name: name, length: length, call: call, construct: construct}
	return a.newFunctionObject(c, value.Undefined(), a.functionProto)
}

// InstantiateFunction implements vm.Host.InstantiateFunction.
func (a *Agent) InstantiateFunction(code *bytecode.FnExpr, env *vm.Environment, home value.Value) value.Value {
	c := &ecmaScriptFunction{name: code.Name, paramCount: code.ParamCount, code: code, closureEnv: env}
	return a.newFunctionObject(c, home, a.functionProto)
}

// InstantiateArrow implements vm.Host.InstantiateArrow. Arrows are never
// constructible and never get their own HomeObject/this binding (they
// resolve `this` by walking to the nearest enclosing function
// environment, handled entirely inside vm.Environment.ResolveThisBinding).
func (a *Agent) InstantiateArrow(code *bytecode.FnExpr, env *vm.Environment) value.Value {
	c := &ecmaScriptFunction{name: code.Name, paramCount: code.ParamCount, code: code, closureEnv: env, isArrow: true}
	return a.newFunctionObject(c, value.Undefined(), a.functionProto)
}

// BindConstructorFunction implements vm.Host.BindConstructorFunction.
// ctorObj (despite its name in host.go's doc comment) is the evaluated
// SuperClass value, or Undefined — internal/compiler/class.go pushes
// exactly that ahead of OpClassDefineConstructor, never a pre-built
// constructor placeholder. This method therefore allocates the
// constructor Function object itself, wiring both the static
// inheritance chain (constructor.[[Prototype]] = parent constructor)
// and the instance chain (constructor.prototype.[[Prototype]] =
// parent.prototype) when hasParent is true.
func (a *Agent) BindConstructorFunction(ctorObj value.Value, code *bytecode.FnExpr, env *vm.Environment, hasParent bool) value.Value {
	c := &ecmaScriptFunction{
		name: code.Name, paramCount: code.ParamCount, code: code, closureEnv: env,
		hasParent: hasParent, parentCtor: ctorObj,
	}

	staticProto := a.functionProto
	instanceProto := a.objectProto
	if hasParent && ctorObj.IsObject() {
		staticProto = ctorObj
		if parentProto, err := a.Get(ctorObj, a.key("prototype"), ctorObj); err == nil && parentProto.IsObject() {
			instanceProto = parentProto
		}
	}

	fnVal, fnObj := a.Heap.NewObject(heapobj.KindFunction, staticProto)
	fnObj.Extra = &heapobj.FunctionData{Callable: c, HomeObject: value.Undefined()}
	protoVal, protoObj := a.Heap.NewObject(heapobj.KindOrdinary, instanceProto)
	protoObj.DefineOwnProperty(a.key("constructor"), &heapobj.PropertyDescriptor{
		Value: fnVal, Writable: true, Configurable: true,
	})
	fnObj.DefineOwnProperty(a.key("prototype"), &heapobj.PropertyDescriptor{Value: protoVal, Writable: true})
	fnObj.DefineOwnProperty(a.key("name"), &heapobj.PropertyDescriptor{
		Value: a.heapString(code.Name), Configurable: true,
	})
	fnObj.DefineOwnProperty(a.key("length"), &heapobj.PropertyDescriptor{
		Value: value.SmallInteger(int64(code.ParamCount)), Configurable: true,
	})
	return fnVal
}

// DefineDefaultConstructor implements vm.Host.DefineDefaultConstructor.
// internal/compiler/class.go never actually emits
// OpClassDefineDefaultConstructor (a class with no explicit constructor
// still goes through compileConstructorBody, which synthesizes an
// empty-parameter body directly), so this exists only to satisfy Host;
// it delegates to the same BindConstructorFunction logic with a trivial
// empty-body FnExpr.
func (a *Agent) DefineDefaultConstructor(hasParent bool, parentCtor value.Value) value.Value {
	fe := &bytecode.FnExpr{Name: "", ParamCount: 0, IsStrict: true, Code: bytecode.New()}
	return a.BindConstructorFunction(parentCtor, fe, a.globalEnv, hasParent)
}

// ClassPrototypeOf implements vm.Host.ClassPrototypeOf. No opcode in
// vm.go currently calls it (methods always install against the
// prototype object compileClassMembers resolves directly), so this is a
// plain accessor kept for Host completeness.
func (a *Agent) ClassPrototypeOf(ctor value.Value) value.Value {
	proto, err := a.Get(ctor, a.key("prototype"), ctor)
	if err != nil {
		return value.Undefined()
	}
	return proto
}

// IsCallable implements vm.Host.IsCallable.
func (a *Agent) IsCallable(fn value.Value) bool {
	if !fn.IsObject() {
		return false
	}
	return a.Heap.Object(fn).Kind == heapobj.KindFunction
}

// IsConstructor implements vm.Host.IsConstructor.
func (a *Agent) IsConstructor(fn value.Value) bool {
	fd, err := a.functionData(fn)
	if err != nil {
		return false
	}
	return fd.Callable.IsConstructor()
}

// Call implements vm.Host.Call ([[Call]]).
func (a *Agent) Call(fn, this value.Value, args []value.Value) (value.Value, error) {
	fd, err := a.functionData(fn)
	if err != nil {
		return value.Value{}, err
	}
	switch c := fd.Callable.(type) {
	case *ecmaScriptFunction:
		return a.callECMAScript(c, this, args)
	case *builtinFunction:
		return c.call(a, this, args)
	default:
		return value.Value{}, errors.TypeError("value is not a function")
	}
}

// Construct implements vm.Host.Construct ([[Construct]], NewTarget
// unmodeled — see ecmaScriptFunction's doc comment and DESIGN.md).
func (a *Agent) Construct(fn value.Value, args []value.Value) (value.Value, error) {
	fd, err := a.functionData(fn)
	if err != nil {
		return value.Value{}, err
	}
	if !fd.Callable.IsConstructor() {
		return value.Value{}, errors.TypeError("%s is not a constructor", fd.Callable.Name())
	}
	switch c := fd.Callable.(type) {
	case *ecmaScriptFunction:
		var this value.Value
		if c.hasParent {
			this, err = a.Construct(c.parentCtor, args)
			if err != nil {
				return value.Value{}, err
			}
			if protoVal, err := a.Get(fn, a.key("prototype"), fn); err == nil && protoVal.IsObject() {
				_ = a.SetPrototype(this, protoVal)
			}
		} else {
			proto := a.objectProto
			if protoVal, err := a.Get(fn, a.key("prototype"), fn); err == nil && protoVal.IsObject() {
				proto = protoVal
			}
			this, _ = a.Heap.NewObject(heapobj.KindOrdinary, proto)
		}
		result, err := a.callECMAScript(c, this, args)
		if err != nil {
			return value.Value{}, err
		}
		if result.IsObject() {
			return result, nil
		}
		return this, nil
	case *builtinFunction:
		return c.construct(a, args)
	default:
		return value.Value{}, errors.TypeError("value is not a constructor")
	}
}

// callECMAScript pre-populates the %argN bindings compileParamBindings
// emits OpResolveBinding/OpGetValue against (internal/compiler's doc
// comment on compileParamBindings: the host is "expected to have
// pre-populated" them before the body Frame runs), then re-enters the
// VM over the function's compiled body.
func (a *Agent) callECMAScript(c *ecmaScriptFunction, this value.Value, args []value.Value) (value.Value, error) {
	var env *vm.Environment
	if c.isArrow {
		env = vm.NewDeclarative(c.closureEnv)
	} else {
		env = vm.NewFunctionEnvironment(c.closureEnv, this)
	}
	for i := 0; i < c.paramCount; i++ {
		name := syntheticArgName(i)
		env.CreateMutableBinding(name)
		v := value.Undefined()
		if i < len(args) {
			v = args[i]
		}
		if err := env.InitializeBinding(name, v); err != nil {
			return value.Value{}, err
		}
	}
	frame := vm.NewFrame(c.code.Code, env, nil, c.code.IsStrict)
	result, disp, err := a.VM.Run(frame)
	if err != nil {
		return value.Value{}, err
	}
	if disp == vm.Thrown {
		return value.Value{}, &thrownValue{v: result}
	}
	return result, nil
}
