// Package compiler lowers an internal/ast tree into a bytecode.Executable
// (spec.md §4.1). It is single-pass with a fix-up pass only for forward
// jumps, using bytecode.Writer's EmitJump/PatchJump exactly as spec.md
// describes: "no peephole optimization is required for correctness".
//
// Compiler routines are infallible (spec.md §7 "Compiler routines are
// infallible — they never throw at compile time"): every Compile* method
// returns only an *bytecode.Executable or void, never an error. A
// malformed tree (a binding pattern the parser should never have
// produced) panics rather than returning a Go error, since by
// construction no AST this compiler is handed should exhibit one.
package compiler

import (
	"github.com/ecmacore/jsvm/internal/ast"
	"github.com/ecmacore/jsvm/internal/bytecode"
)

// Compiler emits one Executable's instruction stream and side tables.
// A fresh Compiler is created for each function/script body; nested
// function expressions get their own Compiler feeding a separate
// Executable, linked back in via FunctionExpressions/
// ArrowFunctionExpressions (spec.md §3 "Executable").
type Compiler struct {
	exec   *bytecode.Executable
	w      *bytecode.Writer
	strict bool

	loops []*loopContext

	// pendingLabel carries a LabeledStatement's label down to the one
	// loop/switch statement it directly wraps, so that statement's own
	// loopContext picks it up instead of compileLabeledStatement needing
	// to know each loop kind's internals.
	pendingLabel string

	// fieldKeyCounter is the shared counter for `^N` computed-field-key
	// binding names (fieldKeyName). No compile path draws from it:
	// computed instance-field keys are compiled inline in the
	// constructor body (compileInstanceFieldInitializers) and so are
	// evaluated on every construction, not once at class definition.
	fieldKeyCounter *int

	// tempCounter numbers the synthetic bindings (switch discriminants,
	// class constructor/prototype stashes, try/finally rethrow slots)
	// that need a unique environment slot
	// but no identifier a source program could ever collide with.
	tempCounter *int
}

// loopContext tracks the break/continue fix-up state for one enclosing
// iteration or labeled statement (spec.md §9 doesn't name this
// directly, but §4.1's "fix-up pass only for forward jumps" requires
// something exactly like it: break/continue are forward/backward jumps
// whose target isn't known until the loop finishes compiling).
type loopContext struct {
	label      string
	isIterator bool // false for a labeled non-loop statement (break-only target)
	breaks     []int
	continues  []int
}

// New returns a Compiler for a fresh top-level Executable (a script or a
// function/arrow body), strict controlling whether strict-mode semantics
// (ReferenceError on undeclared assignment, etc.) apply to bindings this
// Executable's VM frame resolves.
func New(strict bool) *Compiler {
	exec := bytecode.New()
	return &Compiler{exec: exec, w: bytecode.NewWriter(exec), strict: strict, fieldKeyCounter: new(int), tempCounter: new(int)}
}

func (c *Compiler) nextTemp() int {
	n := *c.tempCounter
	*c.tempCounter++
	return n
}

// CompileProgram compiles a whole Script (spec.md §4.1 "Walk an AST
// subtree representing either a full script, a function body, a class,
// or an arbitrary expression"). The final statement's value, if it is
// an ExpressionStatement, is left in the result register as the
// script's completion value (spec.md §4.1 emit contract).
func CompileProgram(prog *ast.Program) *bytecode.Executable {
	c := New(prog.Strict)
	c.compileStatementList(prog.Body)
	c.w.Emit(bytecode.OpReturn)
	return c.exec
}

// CompileFunctionBody compiles an ordinary/arrow function's body into
// its own Executable, used both at top-level instantiation time and
// recursively for functions/classes nested inside a larger body.
func CompileFunctionBody(fn *ast.FunctionExpression) *bytecode.Executable {
	c := New(fn.Strict)
	return c.compileBody(fn)
}

func (c *Compiler) newChild(strict bool) *Compiler {
	child := New(strict || c.strict)
	child.fieldKeyCounter = c.fieldKeyCounter
	child.tempCounter = c.tempCounter
	return child
}

// compileNestedFunctionBody compiles a function/arrow expression
// encountered while compiling c's own body into its own Executable,
// sharing c's synthetic-name counters so nested trees never collide.
func (c *Compiler) compileNestedFunctionBody(fn *ast.FunctionExpression) *bytecode.Executable {
	child := c.newChild(fn.Strict)
	return child.compileBody(fn)
}

// compileBody emits a function's parameter bindings followed by its
// statement list, falling off the end into an implicit `return
// undefined` the same way CompileProgram's trailing Return keeps a
// Return-less script's disassembly self-contained.
func (c *Compiler) compileBody(fn *ast.FunctionExpression) *bytecode.Executable {
	c.compileParamBindings(fn.Params)
	c.compileStatementList(fn.Body.Body)
	c.w.Emit(bytecode.OpLoadConstant, c.exec.AddConstant(undefinedConst()))
	c.w.Emit(bytecode.OpReturn)
	return c.exec
}

// compileParamBindings declares and binds each parameter name as a
// mutable binding in the function's top-level environment, matching
// ECMAScript's FunctionDeclarationInstantiation for simple parameter
// lists. Parameters that are themselves binding patterns or carry a
// default (AssignmentPattern) go through the same destructuring opcodes
// a `let` declaration would, sourced from a synthesized "arguments[i]"
// read the VM satisfies by having already pushed argument values as
// bindings named "%argN" before running the body (internal/agent's
// responsibility at call time).
func (c *Compiler) compileParamBindings(params []ast.Node) {
	for i, p := range params {
		argName := syntheticArgName(i)
		c.exec.InternIdentifier(argName)
		c.compileBindingTargetFromArgument(p, argName)
	}
}
