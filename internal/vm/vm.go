package vm

import (
	"fmt"

	"github.com/ecmacore/jsvm/internal/bytecode"
	"github.com/ecmacore/jsvm/internal/engineopts"
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
)

// VM is the fetch/decode/execute engine of spec.md §4.2. It is
// stateless across calls to Run — all per-invocation mutable state
// (accumulator, stacks, instruction pointer) lives in a Frame. A VM is
// cheap to construct and is normally created once per Agent and reused
// for every function call that Agent makes (internal/agent owns the
// VM instance the way the teacher's internal/heap/analyzer owns its
// parser instance across a whole report run).
type VM struct {
	Host Host
	Heap *heapobj.Heap
	Opts engineopts.Options

	// OnDebug, if set, is called synchronously whenever the dispatch
	// loop executes an OpDebug instruction, with a Snapshot of the
	// Frame at that point. internal/inspector is the only intended
	// caller: it turns the OpDebug instructions a program executes into a
	// recorded trace instead of the dispatch loop itself branching on a
	// debugger-attachment flag.
	OnDebug func(Snapshot)
}

func New(host Host, heap *heapobj.Heap, opts engineopts.Options) *VM {
	return &VM{Host: host, Heap: heap, Opts: opts.Normalized()}
}

// exceptionTarget is one entry of exception_jump_target_stack (spec.md
// §4.2): the ip to resume at, and the lexical_environment to restore,
// should a throw reach this frame before a matching
// PopExceptionJumpTarget runs.
type exceptionTarget struct {
	ip         int
	env        *Environment
	privateEnv *PrivateEnvironment
}

// patternKind distinguishes the two destructuring-pattern shapes the
// shared Binding*/Finish opcode family drives (spec.md §4.1
// "Destructuring").
type patternKind uint8

const (
	patternArray patternKind = iota
	patternObject
)

// patternState is one entry of the VM's destructuring-pattern stack,
// pushed by Begin(Simple)Array/ObjectBindingPattern and popped by
// FinishBindingPattern. Nested patterns (an array pattern containing an
// object pattern, etc.) push a second entry on top while the outer one
// waits, matching spec.md §4.2 step 2's "recurse into a nested pattern".
type patternState struct {
	kind    patternKind
	lexical bool

	iter Iterator // array patterns: the source iterator

	obj           value.Value     // object patterns: the source object
	consumed      map[string]bool // object patterns: keys already bound, for BindRest
	consumedOrder []string
}

// Frame is one activation of the VM's dispatch loop: everything spec.md
// §4.2 "Machine state" names, plus the destructuring-pattern stack this
// implementation adds to thread Begin/Bind/Finish state through nested
// patterns.
type Frame struct {
	exec *bytecode.Executable
	ip   int

	result    value.Value
	exception value.Value
	reference Reference
	hasRef    bool

	stack          []value.Value
	referenceStack []Reference
	iteratorStack  []Iterator
	exceptionStack []exceptionTarget
	patternStack   []*patternState

	env        *Environment
	privateEnv *PrivateEnvironment

	strict bool
}

// NewFrame builds a Frame ready to execute exec starting at instruction
// 0, with env as its initial lexical environment (for a top-level
// script this is the global environment; for a function call it is the
// fresh function/declarative environment the caller set up).
func NewFrame(exec *bytecode.Executable, env *Environment, privateEnv *PrivateEnvironment, strict bool) *Frame {
	return &Frame{exec: exec, env: env, privateEnv: privateEnv, result: value.Undefined(), strict: strict}
}

func (f *Frame) push(v value.Value)  { f.stack = append(f.stack, v) }
func (f *Frame) pop() value.Value {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v
}

func (f *Frame) pushRef(r Reference)  { f.referenceStack = append(f.referenceStack, r) }
func (f *Frame) popRef() Reference {
	n := len(f.referenceStack) - 1
	r := f.referenceStack[n]
	f.referenceStack = f.referenceStack[:n]
	return r
}

// Snapshot captures everything internal/inspector renders about a Frame
// at an OpDebug hit: the operand stack, the ip just past the OpDebug
// instruction, and the accumulator/exception registers (spec.md
// §4.2 "Machine state"). It copies the stack slice so the inspector can
// hold it past the Frame resuming execution.
type Snapshot struct {
	IP             int
	Result         value.Value
	Exception      value.Value
	Stack          []value.Value
	ExceptionDepth int
}

func (f *Frame) TakeSnapshot(ip int) Snapshot {
	return Snapshot{
		IP:             ip,
		Result:         f.result,
		Exception:      f.exception,
		Stack:          append([]value.Value(nil), f.stack...),
		ExceptionDepth: len(f.exceptionStack),
	}
}

func (f *Frame) Executable() *bytecode.Executable { return f.exec }

func (f *Frame) pushPattern(p *patternState) { f.patternStack = append(f.patternStack, p) }
func (f *Frame) topPattern() *patternState   { return f.patternStack[len(f.patternStack)-1] }
func (f *Frame) popPattern() *patternState {
	n := len(f.patternStack) - 1
	p := f.patternStack[n]
	f.patternStack = f.patternStack[:n]
	return p
}

// Run executes f's Executable to completion from its current ip,
// returning the disposition the dispatch loop ended in (spec.md §4.2
// invariant: "At the end of every [outer] instruction the VM is in one
// of four dispositions"). A Normal return only happens when the
// instruction stream runs off the end without an explicit Return —
// treated as returning Undefined, matching a function body falling off
// the end of its last statement.
func (vmi *VM) Run(f *Frame) (value.Value, Disposition, error) {
	reader := bytecode.NewReader(f.exec)
	reader.SetPos(f.ip)

	for {
		if reader.AtEnd() {
			return value.Undefined(), Normal, nil
		}
		decoded, err := reader.Next()
		if err != nil {
			return value.Value{}, Normal, err
		}

		disp, thrown, err := vmi.step(f, decoded, reader)
		if err != nil {
			thrown = vmi.Host.NewError(err)
		}
		switch disp {
		case Normal:
			continue
		case Thrown:
			if !vmi.unwind(f, reader, thrown) {
				return thrown, Thrown, nil
			}
			continue
		case Returned:
			return f.result, Returned, nil
		case Yielded, Awaited:
			f.ip = reader.Pos()
			return f.result, disp, nil
		}
	}
}

// unwind pops the top exception_jump_target_stack entry (if any),
// restores its saved environment, sets f.exception, and resumes at its
// ip (spec.md §4.2 "Exception semantics"). Returns false when the stack
// was empty, meaning the exception propagates to the caller.
func (vmi *VM) unwind(f *Frame, reader *bytecode.Reader, thrown value.Value) bool {
	n := len(f.exceptionStack)
	if n == 0 {
		return false
	}
	target := f.exceptionStack[n-1]
	f.exceptionStack = f.exceptionStack[:n-1]
	f.env = target.env
	f.privateEnv = target.privateEnv
	f.exception = thrown
	reader.SetPos(target.ip)
	return true
}

// step executes exactly one decoded instruction. The returned
// Disposition is Normal for every instruction except Return/Throw (an
// uncaught one)/Yield/Await, matching spec.md §5 "Suspension points":
// "No instruction other than these may yield control".
func (vmi *VM) step(f *Frame, d bytecode.Decoded, reader *bytecode.Reader) (Disposition, value.Value, error) {
	h := vmi.Host
	switch d.Op {

	// --- Load / store ---
	case bytecode.OpLoadConstant:
		f.result = f.exec.Constants[d.Operands[0]]
	case bytecode.OpStoreConstant:
		f.exec.Constants[d.Operands[0]] = f.result
	case bytecode.OpLoad:
		f.push(f.result)
	case bytecode.OpLoadCopy:
		f.push(f.result)
	case bytecode.OpStore:
		f.result = f.pop()
	case bytecode.OpSwap:
		n := len(f.stack)
		f.stack[n-1], f.stack[n-2] = f.stack[n-2], f.stack[n-1]

	// --- References & bindings ---
	case bytecode.OpResolveBinding:
		name := f.exec.Identifiers[d.Operands[0]]
		f.reference = EnvironmentReference(f.env, name, f.strict)
		f.hasRef = true
	case bytecode.OpResolveThisBinding:
		v, err := f.env.ResolveThisBinding()
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
	case bytecode.OpPushReference:
		f.pushRef(f.reference)
	case bytecode.OpPopReference:
		f.reference = f.popRef()
		f.hasRef = true
	case bytecode.OpGetValue:
		v, err := vmi.getValue(f, f.reference)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
		f.hasRef = false
	case bytecode.OpGetValueKeepReference:
		v, err := vmi.getValue(f, f.reference)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
	case bytecode.OpPutValue:
		if err := vmi.putValue(f, f.reference, f.result); err != nil {
			return Thrown, value.Value{}, err
		}
		f.hasRef = false
	case bytecode.OpInitializeReferencedBinding:
		if f.reference.BaseKind != BaseEnvironment {
			return Thrown, value.Value{}, errors.TypeError("InitializeReferencedBinding requires an environment reference")
		}
		if err := f.reference.Env.InitializeBinding(f.reference.IdentifierName, f.result); err != nil {
			return Thrown, value.Value{}, err
		}
		f.hasRef = false

	// --- Property access ---
	case bytecode.OpEvaluatePropertyAccessWithIdentifierKey:
		base := f.result
		name := f.exec.Identifiers[d.Operands[0]]
		f.reference = PropertyReference(base, value.NewPropertyKey(value.SmallStringValue(name)), f.strict)
		f.hasRef = true
	case bytecode.OpEvaluatePropertyAccessWithExpressionKey:
		key, err := h.ToPropertyKey(f.result)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		base := f.pop()
		f.reference = PropertyReference(base, key, f.strict)
		f.hasRef = true

	// --- Arithmetic / logical ---
	case bytecode.OpApplyStringOrNumericBinaryOperator:
		right := f.result
		left := f.pop()
		v, err := f.apply(vmi, BinOp(d.Operands[0]), left, right)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
	case bytecode.OpUnaryMinus:
		n, err := h.ToNumeric(f.result)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		v, err := vmi.numericBinOp(BinSub, vmi.zeroLike(n), n)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
	case bytecode.OpBitwiseNot:
		n, err := h.ToNumeric(f.result)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		v, err := vmi.numericBinOp(BinBitXor, n, value.SmallInteger(-1))
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
	case bytecode.OpLogicalNot:
		f.result = value.Boolean(!h.ToBoolean(f.result))
	case bytecode.OpIncrement:
		n, err := h.ToNumeric(f.result)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		v, err := vmi.numericBinOp(BinAdd, n, unitLike(n))
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
	case bytecode.OpDecrement:
		n, err := h.ToNumeric(f.result)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		v, err := vmi.numericBinOp(BinSub, n, unitLike(n))
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
	case bytecode.OpToNumber:
		v, err := h.ToNumber(f.result)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
	case bytecode.OpToNumeric:
		v, err := h.ToNumeric(f.result)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
	case bytecode.OpTypeof:
		f.result = value.SmallStringValue(h.Typeof(f.result))
	case bytecode.OpIsStrictlyEqual:
		right := f.result
		left := f.pop()
		f.result = value.Boolean(h.StrictEquals(left, right))
	case bytecode.OpIsLooselyEqual:
		right := f.result
		left := f.pop()
		b, err := h.LooseEquals(left, right)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = value.Boolean(b)
	case bytecode.OpLessThan:
		right := f.result
		left := f.pop()
		v, err := h.LessThan(left, right)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
	case bytecode.OpLessThanEquals:
		right := f.result
		left := f.pop()
		v, err := h.LessThan(right, left)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = negateUndefinedAware(v)
	case bytecode.OpGreaterThan:
		right := f.result
		left := f.pop()
		v, err := h.LessThan(right, left)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
	case bytecode.OpGreaterThanEquals:
		right := f.result
		left := f.pop()
		v, err := h.LessThan(left, right)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = negateUndefinedAware(v)
	case bytecode.OpHasProperty:
		key, err := h.ToPropertyKey(f.result)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		base := f.pop()
		ok, err := h.HasProperty(base, key)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = value.Boolean(ok)
	case bytecode.OpInstanceofOperator:
		ctor := f.result
		obj := f.pop()
		ok, err := instanceOf(h, obj, ctor)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = value.Boolean(ok)
	case bytecode.OpIsNullOrUndefined:
		f.result = value.Boolean(f.result.IsNullOrUndefined())

	// --- Control flow ---
	case bytecode.OpJump:
		reader.SetPos(int(d.Operands[0]))
	case bytecode.OpJumpIfNot:
		if !h.ToBoolean(f.result) {
			reader.SetPos(int(d.Operands[0]))
		}
	case bytecode.OpJumpIfTrue:
		if h.ToBoolean(f.result) {
			reader.SetPos(int(d.Operands[0]))
		}
	case bytecode.OpReturn:
		return Returned, value.Value{}, nil
	case bytecode.OpThrow:
		return Thrown, f.result, nil
	case bytecode.OpPushExceptionJumpTarget:
		f.exceptionStack = append(f.exceptionStack, exceptionTarget{
			ip: int(d.Operands[0]), env: f.env, privateEnv: f.privateEnv,
		})
	case bytecode.OpPopExceptionJumpTarget:
		if n := len(f.exceptionStack); n > 0 {
			f.exceptionStack = f.exceptionStack[:n-1]
		}

	// --- Environments ---
	case bytecode.OpEnterDeclarativeEnvironment:
		f.env = NewDeclarative(f.env)
	case bytecode.OpExitDeclarativeEnvironment:
		f.env = f.env.Outer
	case bytecode.OpCreateMutableBinding:
		f.env.CreateMutableBinding(f.exec.Identifiers[d.Operands[0]])
	case bytecode.OpCreateImmutableBinding:
		f.env.CreateImmutableBinding(f.exec.Identifiers[d.Operands[0]])
	case bytecode.OpCreateCatchBinding:
		f.env.CreateCatchBinding(f.exec.Identifiers[d.Operands[0]], f.exception)
		f.exception = value.Value{}

	// --- Objects & arrays ---
	case bytecode.OpObjectCreate:
		f.result = h.NewPlainObject()
	case bytecode.OpObjectSetProperty:
		v := f.result
		key := f.pop()
		obj := f.pop()
		k, err := h.ToPropertyKey(key)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		if err := h.Set(obj, k, v, obj); err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = obj
	case bytecode.OpObjectSetPrototype:
		proto := f.result
		obj := f.pop()
		if err := h.SetPrototype(obj, proto); err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = obj
	case bytecode.OpObjectDefineProperty:
		v := f.result
		key := f.pop()
		obj := f.pop()
		k, err := h.ToPropertyKey(key)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		if err := h.DefineDataProperty(obj, k, v); err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = obj
	case bytecode.OpObjectDefineMethod:
		fn := f.result
		key := f.pop()
		obj := f.pop()
		k, err := h.ToPropertyKey(key)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		if err := h.DefineMethod(obj, k, fn, true); err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = obj
	case bytecode.OpObjectDefineGetter:
		fn := f.result
		key := f.pop()
		obj := f.pop()
		k, err := h.ToPropertyKey(key)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		if err := h.DefineGetter(obj, k, fn); err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = obj
	case bytecode.OpObjectDefineSetter:
		fn := f.result
		key := f.pop()
		obj := f.pop()
		k, err := h.ToPropertyKey(key)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		if err := h.DefineSetter(obj, k, fn); err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = obj
	case bytecode.OpArrayCreate:
		n := int(d.Operands[0])
		elems := make([]value.Value, n)
		for i := n - 1; i >= 0; i-- {
			elems[i] = f.pop()
		}
		f.result = h.NewArray(elems)
	case bytecode.OpArrayPush:
		v := f.result
		arr := f.pop()
		if err := h.ArrayPush(arr, v); err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = arr

	// --- Calls & construction ---
	case bytecode.OpEvaluateCall:
		n := int(d.Operands[0])
		args := make([]value.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = f.pop()
		}
		fn := f.pop()
		this := vmi.evaluateThis(f)
		v, err := h.Call(fn, this, args)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
		f.hasRef = false
	case bytecode.OpEvaluateNew:
		n := int(d.Operands[0])
		args := make([]value.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = f.pop()
		}
		ctor := f.pop()
		if !h.IsConstructor(ctor) {
			return Thrown, value.Value{}, errors.TypeError("value is not a constructor")
		}
		v, err := h.Construct(ctor, args)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v

	// --- Function/class definition ---
	case bytecode.OpInstantiateOrdinaryFunctionExpression:
		fe := f.exec.FunctionExpressions[d.Operands[0]]
		f.result = h.InstantiateFunction(fe, f.env, value.Undefined())
	case bytecode.OpInstantiateArrowFunctionExpression:
		fe := f.exec.ArrowFunctionExpressions[d.Operands[0]]
		f.result = h.InstantiateArrow(fe, f.env)
	case bytecode.OpClassDefineConstructor:
		fe := f.exec.FunctionExpressions[d.Operands[0]]
		hasParent := d.Operands[1] != 0
		ctor := f.pop()
		f.result = h.BindConstructorFunction(ctor, fe, f.env, hasParent)
	case bytecode.OpClassDefineDefaultConstructor:
		hasParent := f.result.Tag() != value.TagUndefined
		var parent value.Value
		if hasParent {
			parent = f.result
		}
		f.result = h.DefineDefaultConstructor(hasParent, parent)
	case bytecode.OpClassDefinePrivateMethod:
		name := f.exec.Identifiers[d.Operands[0]]
		flags := d.Operands[1]
		isGetSet := flags&1 != 0
		isGetter := flags&2 != 0
		fn := f.result
		obj := f.pop()
		if err := h.DefinePrivateMethod(obj, name, fn, isGetSet, isGetter); err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = obj
	case bytecode.OpClassDefinePrivateProperty:
		name := f.exec.Identifiers[d.Operands[0]]
		v := f.result
		obj := f.pop()
		if err := h.DefinePrivateField(obj, name, v); err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = obj
	case bytecode.OpClassInitializePrivateElements:
		// A no-op at the VM level: private-name installation already
		// happened via ClassDefinePrivate{Method,Property} against the
		// constructor/prototype objects; per-instance field values are
		// installed by ClassInitializePrivateValue as the constructor
		// body runs (spec.md §4.1.1 step 4/6).
	case bytecode.OpClassInitializePrivateValue:
		name := f.exec.Identifiers[d.Operands[0]]
		v := f.result
		this, err := f.env.ResolveThisBinding()
		if err != nil {
			return Thrown, value.Value{}, err
		}
		if err := h.DefinePrivateField(this, name, v); err != nil {
			return Thrown, value.Value{}, err
		}

	// --- Destructuring ---
	case bytecode.OpBeginArrayBindingPattern:
		if err := vmi.beginArrayPattern(f, f.result, d.Operands[1] != 0, false); err != nil {
			return Thrown, value.Value{}, err
		}
	case bytecode.OpBeginSimpleArrayBindingPattern:
		if err := vmi.beginArrayPattern(f, f.result, d.Operands[1] != 0, true); err != nil {
			return Thrown, value.Value{}, err
		}
	case bytecode.OpBeginObjectBindingPattern:
		if f.result.IsNullOrUndefined() {
			return Thrown, value.Value{}, errors.TypeError("cannot destructure null or undefined")
		}
		f.pushPattern(&patternState{kind: patternObject, lexical: d.Operands[0] != 0, obj: f.result, consumed: map[string]bool{}})
	case bytecode.OpBindingPatternBind:
		name := f.exec.Identifiers[d.Operands[0]]
		v, err := vmi.patternNext(f, name)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		if err := vmi.bindPatternTarget(f, name, v); err != nil {
			return Thrown, value.Value{}, err
		}
	case bytecode.OpBindingPatternBindWithInitializer:
		name := f.exec.Identifiers[d.Operands[0]]
		v, err := vmi.patternNext(f, name)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		if v.IsUndefined() {
			v = f.exec.Constants[d.Operands[1]]
		}
		if err := vmi.bindPatternTarget(f, name, v); err != nil {
			return Thrown, value.Value{}, err
		}
	case bytecode.OpBindingPatternBindRest:
		name := f.exec.Identifiers[d.Operands[0]]
		v, err := vmi.patternRest(f)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		if err := vmi.bindPatternTarget(f, name, v); err != nil {
			return Thrown, value.Value{}, err
		}
	case bytecode.OpBindingPatternSkip:
		if _, err := vmi.patternNext(f, ""); err != nil {
			return Thrown, value.Value{}, err
		}
	case bytecode.OpBindingPatternGetValue:
		v, err := vmi.patternNext(f, "")
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.push(v)
	case bytecode.OpBindingPatternGetRestValue:
		v, err := vmi.patternRest(f)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.push(v)
	case bytecode.OpFinishBindingPattern:
		p := f.popPattern()
		if p.kind == patternArray && p.iter != nil {
			_ = p.iter.Close()
		}

	// --- Iteration ---
	case bytecode.OpGetIterator:
		method, err := h.GetMethod(f.result, h.SymbolIterator())
		if err != nil {
			return Thrown, value.Value{}, err
		}
		if method.IsUndefined() {
			return Thrown, value.Value{}, errors.TypeError("value is not iterable")
		}
		it, err := h.GetIteratorFromMethod(f.result, method)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.iteratorStack = append(f.iteratorStack, it)
	case bytecode.OpEnumerateObjectProperties:
		keys, err := h.EnumerableOwnAndInheritedStringKeys(f.result)
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.iteratorStack = append(f.iteratorStack, NewPropertyIterator(keys))
	case bytecode.OpIteratorNext:
		it := f.iteratorStack[len(f.iteratorStack)-1]
		v, done, err := it.Advance()
		if err != nil {
			return Thrown, value.Value{}, err
		}
		f.result = v
		f.push(value.Boolean(done))
	case bytecode.OpIteratorComplete:
		done := f.pop()
		if done.Boolean() {
			n := len(f.iteratorStack) - 1
			f.iteratorStack = f.iteratorStack[:n]
			reader.SetPos(int(d.Operands[0]))
		}
	case bytecode.OpIteratorValue:
		// f.result already holds the value IteratorNext produced.

	// --- Strings ---
	case bytecode.OpStringConcat:
		n := int(d.Operands[0])
		parts := make([]string, n)
		for i := n - 1; i >= 0; i-- {
			s, err := h.ToString(f.pop())
			if err != nil {
				return Thrown, value.Value{}, err
			}
			parts[i] = s
		}
		joined := ""
		for _, p := range parts {
			joined += p
		}
		f.result = value.SmallStringValue(joined)

	// --- Diagnostics ---
	case bytecode.OpDebug:
		if vmi.OnDebug != nil {
			vmi.OnDebug(f.TakeSnapshot(reader.Pos()))
		}

	default:
		return Thrown, value.Value{}, fmt.Errorf("vm: unimplemented opcode %s", d.Op)
	}

	return Normal, value.Value{}, nil
}

// getValue implements GetValue (spec.md §4.2's Environment management /
// Reference Record contract): read through ref's base.
func (vmi *VM) getValue(f *Frame, ref Reference) (value.Value, error) {
	switch ref.BaseKind {
	case BaseUnresolvable:
		return value.Value{}, errors.ReferenceError("%s is not defined", ref.IdentifierName)
	case BaseEnvironment:
		return ref.Env.GetBindingValue(ref.IdentifierName)
	case BaseValue:
		if ref.IsPrivate {
			return vmi.Host.GetPrivate(ref.Val, ref.IdentifierName)
		}
		return vmi.Host.Get(ref.Val, ref.Name, ref.GetThisValue())
	}
	return value.Value{}, errors.TypeError("unresolvable reference")
}

// putValue implements PutValue.
func (vmi *VM) putValue(f *Frame, ref Reference, v value.Value) error {
	switch ref.BaseKind {
	case BaseUnresolvable:
		if ref.Strict {
			return errors.ReferenceError("%s is not defined", ref.IdentifierName)
		}
		return ref.Env.SetMutableBinding(ref.IdentifierName, v, false)
	case BaseEnvironment:
		return ref.Env.SetMutableBinding(ref.IdentifierName, v, ref.Strict)
	case BaseValue:
		if ref.IsPrivate {
			return vmi.Host.SetPrivate(ref.Val, ref.IdentifierName, v)
		}
		return vmi.Host.Set(ref.Val, ref.Name, v, ref.GetThisValue())
	}
	return errors.TypeError("unresolvable reference")
}

// evaluateThis implements spec.md §4.2 EvaluateCall's this-value rule.
func (vmi *VM) evaluateThis(f *Frame) value.Value {
	if f.hasRef {
		ref := f.reference
		f.hasRef = false
		switch ref.BaseKind {
		case BaseValue:
			return ref.GetThisValue()
		case BaseEnvironment:
			if ref.Env.WithBaseObject != nil {
				return *ref.Env.WithBaseObject
			}
			return value.Undefined()
		}
	}
	return value.Undefined()
}

func instanceOf(h Host, obj, ctor value.Value) (bool, error) {
	if !h.IsCallable(ctor) {
		return false, errors.TypeError("right-hand side of 'instanceof' is not callable")
	}
	if !obj.IsObject() {
		return false, nil
	}
	proto, err := h.Get(ctor, value.NewPropertyKey(value.SmallStringValue("prototype")), ctor)
	if err != nil {
		return false, err
	}
	if !proto.IsObject() {
		return false, errors.TypeError("function has non-object prototype in instanceof check")
	}
	cur := h.GetPrototypeOf(obj)
	for cur.IsObject() {
		if h.StrictEquals(cur, proto) {
			return true, nil
		}
		cur = h.GetPrototypeOf(cur)
	}
	return false, nil
}

// negateUndefinedAware flips a Boolean Value's sense for the `<=`/`>=`
// operators (each compiled as the negation of a LessThan in the other
// direction), while leaving an Undefined result (from a NaN comparison)
// as Undefined: `NaN <= x` must evaluate to false, and
// `!ToBoolean(undefined)` is already true, which is wrong, so Undefined
// must produce Boolean(false) directly rather than being negated.
func negateUndefinedAware(v value.Value) value.Value {
	if v.IsUndefined() {
		return value.Boolean(false)
	}
	return value.Boolean(!v.Boolean())
}

func (vmi *VM) zeroLike(n value.Value) value.Value {
	if n.Tag().IsBigInt() {
		return value.BigIntSmall(0)
	}
	return value.SmallInteger(0)
}

func unitLike(n value.Value) value.Value {
	if n.Tag().IsBigInt() {
		return value.BigIntSmall(1)
	}
	return value.SmallInteger(1)
}
