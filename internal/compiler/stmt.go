package compiler

import (
	"fmt"

	"github.com/ecmacore/jsvm/internal/ast"
	"github.com/ecmacore/jsvm/internal/bytecode"
)

// compileStatementList compiles a sequence of statements in order, each
// one leaving whatever value it wants visible (an ExpressionStatement's
// completion value, mainly) in the result register for the next
// statement to immediately overwrite — no cross-statement stack state
// is expected to survive between entries.
func (c *Compiler) compileStatementList(body []ast.Node) {
	for _, stmt := range body {
		c.compileStatement(stmt)
	}
}

func (c *Compiler) compileStatement(n ast.Node) {
	switch s := deref(n).(type) {
	case ast.ExpressionStatement:
		c.compileExpr(s.Expression)
	case ast.EmptyStatement:
		// nothing to emit
	case ast.BlockStatement:
		c.w.Emit(bytecode.OpEnterDeclarativeEnvironment)
		c.compileStatementList(s.Body)
		c.w.Emit(bytecode.OpExitDeclarativeEnvironment)
	case ast.VariableDeclaration:
		c.compileVariableDeclaration(s)
	case ast.FunctionDeclaration:
		c.compileFunctionExpression(s.Function)
		c.declareAndInitialize(s.Function.Name, true)
	case ast.ClassDeclaration:
		c.compileClassExpression(s.Class)
		c.declareAndInitialize(s.Class.Name, true)
	case ast.IfStatement:
		c.compileIfStatement(s)
	case ast.ForStatement:
		c.compileForStatement(s)
	case ast.ForInOfStatement:
		c.compileForInOfStatement(s)
	case ast.WhileStatement:
		c.compileWhileStatement(s)
	case ast.DoWhileStatement:
		c.compileDoWhileStatement(s)
	case ast.ReturnStatement:
		if s.Argument == nil {
			c.w.Emit(bytecode.OpLoadConstant, c.exec.AddConstant(undefinedConst()))
		} else {
			c.compileExpr(s.Argument)
		}
		c.w.Emit(bytecode.OpReturn)
	case ast.ThrowStatement:
		c.compileExpr(s.Argument)
		c.w.Emit(bytecode.OpThrow)
	case ast.TryStatement:
		c.compileTryStatement(s)
	case ast.BreakStatement:
		lc := c.findLoop(s.Label, false)
		j := c.w.EmitJump(bytecode.OpJump)
		lc.breaks = append(lc.breaks, j)
	case ast.ContinueStatement:
		lc := c.findLoop(s.Label, true)
		j := c.w.EmitJump(bytecode.OpJump)
		lc.continues = append(lc.continues, j)
	case ast.LabeledStatement:
		c.compileLabeledStatement(s)
	case ast.SwitchStatement:
		c.compileSwitchStatement(s)
	default:
		panic("compiler: unsupported statement node")
	}
}

func (c *Compiler) compileVariableDeclaration(decl ast.VariableDeclaration) {
	mutable := decl.Kind != ast.VarConst
	for _, d := range decl.Declarations {
		if d.Init != nil {
			c.compileExpr(d.Init)
		} else {
			c.w.Emit(bytecode.OpLoadConstant, c.exec.AddConstant(undefinedConst()))
		}
		c.compileBindingTarget(d.ID, true, mutable)
	}
}

func (c *Compiler) compileIfStatement(s ast.IfStatement) {
	c.compileExpr(s.Test)
	toAlt := c.w.EmitJump(bytecode.OpJumpIfNot)
	c.compileStatement(s.Consequent)
	if s.Alternate == nil {
		c.w.PatchJumpHere(toAlt)
		return
	}
	toEnd := c.w.EmitJump(bytecode.OpJump)
	c.w.PatchJumpHere(toAlt)
	c.compileStatement(s.Alternate)
	c.w.PatchJumpHere(toEnd)
}

// newLoopContext builds a loopContext for an iteration statement,
// consuming any label a wrapping LabeledStatement staged so that
// `continue label` finds this loop directly rather than the
// break-only context the labeled statement would otherwise need.
func (c *Compiler) newLoopContext() *loopContext {
	lc := &loopContext{label: c.pendingLabel, isIterator: true}
	c.pendingLabel = ""
	return lc
}

func (c *Compiler) newBreakContext() *loopContext {
	lc := &loopContext{label: c.pendingLabel}
	c.pendingLabel = ""
	return lc
}

func (c *Compiler) findLoop(label string, continuable bool) *loopContext {
	for i := len(c.loops) - 1; i >= 0; i-- {
		lc := c.loops[i]
		if label == "" {
			if !continuable || lc.isIterator {
				return lc
			}
			continue
		}
		if lc.label == label {
			return lc
		}
	}
	panic(fmt.Sprintf("compiler: no enclosing loop/switch for break/continue label %q", label))
}

func (c *Compiler) compileWhileStatement(ws ast.WhileStatement) {
	lc := c.newLoopContext()
	c.loops = append(c.loops, lc)
	start := c.w.Pos()
	c.compileExpr(ws.Test)
	exitJump := c.w.EmitJump(bytecode.OpJumpIfNot)
	c.compileStatement(ws.Body)
	for _, cont := range lc.continues {
		c.w.PatchJump(cont, start)
	}
	c.w.Emit(bytecode.OpJump, uint16(start))
	c.w.PatchJumpHere(exitJump)
	c.loops = c.loops[:len(c.loops)-1]
	for _, b := range lc.breaks {
		c.w.PatchJumpHere(b)
	}
}

func (c *Compiler) compileDoWhileStatement(ds ast.DoWhileStatement) {
	lc := c.newLoopContext()
	c.loops = append(c.loops, lc)
	start := c.w.Pos()
	c.compileStatement(ds.Body)
	continueTarget := c.w.Pos()
	for _, cont := range lc.continues {
		c.w.PatchJump(cont, continueTarget)
	}
	c.compileExpr(ds.Test)
	c.w.Emit(bytecode.OpJumpIfTrue, uint16(start))
	c.loops = c.loops[:len(c.loops)-1]
	for _, b := range lc.breaks {
		c.w.PatchJumpHere(b)
	}
}

func (c *Compiler) compileForInit(init ast.Node) {
	if vd, ok := deref(init).(ast.VariableDeclaration); ok {
		c.compileVariableDeclaration(vd)
		return
	}
	c.compileExpr(init)
}

func (c *Compiler) compileForStatement(fs ast.ForStatement) {
	c.w.Emit(bytecode.OpEnterDeclarativeEnvironment)
	if fs.Init != nil {
		c.compileForInit(fs.Init)
	}
	lc := c.newLoopContext()
	c.loops = append(c.loops, lc)
	testPos := c.w.Pos()
	var exitJump int
	hasTest := fs.Test != nil
	if hasTest {
		c.compileExpr(fs.Test)
		exitJump = c.w.EmitJump(bytecode.OpJumpIfNot)
	}
	c.compileStatement(fs.Body)
	updatePos := c.w.Pos()
	for _, cont := range lc.continues {
		c.w.PatchJump(cont, updatePos)
	}
	if fs.Update != nil {
		c.compileExpr(fs.Update)
	}
	c.w.Emit(bytecode.OpJump, uint16(testPos))
	c.loops = c.loops[:len(c.loops)-1]
	if hasTest {
		c.w.PatchJumpHere(exitJump)
	}
	for _, b := range lc.breaks {
		c.w.PatchJumpHere(b)
	}
	c.w.Emit(bytecode.OpExitDeclarativeEnvironment)
}

func (c *Compiler) compileForInOfTarget(left ast.Node) {
	if vd, ok := deref(left).(ast.VariableDeclaration); ok {
		decl := vd.Declarations[0]
		mutable := vd.Kind != ast.VarConst
		c.compileBindingTarget(decl.ID, true, mutable)
		return
	}
	c.compileBindingTarget(left, false, true)
}

func (c *Compiler) compileForInOfStatement(fs ast.ForInOfStatement) {
	c.w.Emit(bytecode.OpEnterDeclarativeEnvironment)
	c.compileExpr(fs.Right)
	if fs.Kind == ast.ForIn {
		c.w.Emit(bytecode.OpEnumerateObjectProperties)
	} else {
		c.w.Emit(bytecode.OpGetIterator)
	}
	lc := c.newLoopContext()
	c.loops = append(c.loops, lc)
	start := c.w.Pos()
	c.w.Emit(bytecode.OpIteratorNext)
	completeJump := c.w.EmitJump(bytecode.OpIteratorComplete)
	c.w.Emit(bytecode.OpIteratorValue)
	c.w.Emit(bytecode.OpEnterDeclarativeEnvironment)
	c.compileForInOfTarget(fs.Left)
	c.compileStatement(fs.Body)
	c.w.Emit(bytecode.OpExitDeclarativeEnvironment)
	for _, cont := range lc.continues {
		c.w.PatchJump(cont, start)
	}
	c.w.Emit(bytecode.OpJump, uint16(start))
	c.w.PatchJumpHere(completeJump)
	c.loops = c.loops[:len(c.loops)-1]
	for _, b := range lc.breaks {
		c.w.PatchJumpHere(b)
	}
	c.w.Emit(bytecode.OpExitDeclarativeEnvironment)
}

// compileLabeledStatement forwards its label to the one loop/switch
// statement it directly wraps (so `continue label`/`break label` reach
// that statement's own loopContext), or, for any other body shape,
// wraps it in a break-only context of its own.
func (c *Compiler) compileLabeledStatement(ls ast.LabeledStatement) {
	switch deref(ls.Body).(type) {
	case ast.WhileStatement, ast.DoWhileStatement, ast.ForStatement, ast.ForInOfStatement, ast.SwitchStatement:
		c.pendingLabel = ls.Label
		c.compileStatement(ls.Body)
	default:
		lc := &loopContext{label: ls.Label}
		c.loops = append(c.loops, lc)
		c.compileStatement(ls.Body)
		c.loops = c.loops[:len(c.loops)-1]
		for _, b := range lc.breaks {
			c.w.PatchJumpHere(b)
		}
	}
}

// compileSwitchStatement stages the discriminant in a synthetic
// binding (IsStrictlyEqual's left operand must be re-pushed fresh
// before every case test, and there is no "peek stack top" opcode to
// do that without one), emits each case's test-and-jump in source
// order, then emits the case bodies themselves in source order so
// fallthrough between adjacent cases is just "no jump", matching how a
// real switch statement's cases share one block of code that any case
// label can jump into the middle of.
func (c *Compiler) compileSwitchStatement(sw ast.SwitchStatement) {
	c.w.Emit(bytecode.OpEnterDeclarativeEnvironment)
	c.compileExpr(sw.Discriminant)
	name := fmt.Sprintf("%%switch%d", c.nextTemp())
	c.declareAndInitialize(name, true)
	idx := c.exec.InternIdentifier(name)

	testJumps := make([]int, len(sw.Cases))
	defaultCaseIndex := -1
	for i, sc := range sw.Cases {
		if sc.Test == nil {
			defaultCaseIndex = i
			continue
		}
		c.w.Emit(bytecode.OpResolveBinding, idx)
		c.w.Emit(bytecode.OpGetValue)
		c.w.Emit(bytecode.OpLoad)
		c.compileExpr(sc.Test)
		c.w.Emit(bytecode.OpIsStrictlyEqual)
		testJumps[i] = c.w.EmitJump(bytecode.OpJumpIfTrue)
	}
	fallthroughJump := c.w.EmitJump(bytecode.OpJump)

	lc := c.newBreakContext()
	c.loops = append(c.loops, lc)

	for i, sc := range sw.Cases {
		if i == defaultCaseIndex {
			c.w.PatchJumpHere(fallthroughJump)
		}
		if sc.Test != nil {
			c.w.PatchJumpHere(testJumps[i])
		}
		c.compileStatementList(sc.Body)
	}
	if defaultCaseIndex == -1 {
		c.w.PatchJumpHere(fallthroughJump)
	}

	c.loops = c.loops[:len(c.loops)-1]
	for _, b := range lc.breaks {
		c.w.PatchJumpHere(b)
	}
	c.w.Emit(bytecode.OpExitDeclarativeEnvironment)
}

// compileTryStatement supports try/catch, try/finally, and
// try/catch/finally. A finally block runs after the try/catch completes
// normally (including after a catch clause handles a throw) and, for
// try/finally without catch, on the path that catches and rethrows an
// escaping exception (compileTryFinallyOnly). There is no
// pending-completion mechanism to resume an in-flight completion after
// running finally, so a return inside the guarded region, or a throw
// out of a catch clause, bypasses finally.
func (c *Compiler) compileTryStatement(ts ast.TryStatement) {
	if ts.Handler == nil && ts.Finalizer != nil {
		c.compileTryFinallyOnly(ts)
		return
	}

	target := c.w.EmitJump(bytecode.OpPushExceptionJumpTarget)
	c.compileBlockAsScope(ts.Block)
	c.w.Emit(bytecode.OpPopExceptionJumpTarget)
	afterTry := c.w.EmitJump(bytecode.OpJump)

	c.w.PatchJumpHere(target)
	if ts.Handler != nil {
		c.w.Emit(bytecode.OpEnterDeclarativeEnvironment)
		catchName := "%catch"
		if ts.Handler.Param != nil {
			if name, ok := identName(ts.Handler.Param); ok {
				catchName = name
			} else {
				panic("compiler: destructuring catch parameters are not supported")
			}
		}
		idx := c.exec.InternIdentifier(catchName)
		c.w.Emit(bytecode.OpCreateCatchBinding, idx)
		c.compileStatementList(ts.Handler.Body.Body)
		c.w.Emit(bytecode.OpExitDeclarativeEnvironment)
	}
	c.w.PatchJumpHere(afterTry)

	if ts.Finalizer != nil {
		c.compileBlockAsScope(ts.Finalizer)
	}
}

// compileTryFinallyOnly handles try/finally without a catch clause: an
// uncaught throw must still run the finally block before propagating,
// so the exception path binds (and thereby clears) the pending
// exception via CreateCatchBinding into a disposable name, runs
// finally, then re-resolves and rethrows it.
func (c *Compiler) compileTryFinallyOnly(ts ast.TryStatement) {
	target := c.w.EmitJump(bytecode.OpPushExceptionJumpTarget)
	c.compileBlockAsScope(ts.Block)
	c.w.Emit(bytecode.OpPopExceptionJumpTarget)
	toNormalFinally := c.w.EmitJump(bytecode.OpJump)

	c.w.PatchJumpHere(target)
	rethrowName := fmt.Sprintf("%%rethrow%d", c.nextTemp())
	rethrowIdx := c.exec.InternIdentifier(rethrowName)
	c.w.Emit(bytecode.OpEnterDeclarativeEnvironment)
	c.w.Emit(bytecode.OpCreateCatchBinding, rethrowIdx)
	c.compileBlockAsScope(ts.Finalizer)
	c.w.Emit(bytecode.OpResolveBinding, rethrowIdx)
	c.w.Emit(bytecode.OpGetValue)
	c.w.Emit(bytecode.OpExitDeclarativeEnvironment)
	c.w.Emit(bytecode.OpThrow)

	c.w.PatchJumpHere(toNormalFinally)
	c.compileBlockAsScope(ts.Finalizer)
}

func (c *Compiler) compileBlockAsScope(b *ast.BlockStatement) {
	c.w.Emit(bytecode.OpEnterDeclarativeEnvironment)
	c.compileStatementList(b.Body)
	c.w.Emit(bytecode.OpExitDeclarativeEnvironment)
}
