package compiler

import (
	"testing"

	"github.com/ecmacore/jsvm/internal/ast"
	"github.com/ecmacore/jsvm/internal/bytecode"
)

// ops decodes exec's entire instruction stream into its Op sequence,
// the same way bytecode's own TestWriterEmitAndReaderDecode walks a
// Reader, so a test can assert on shape without hand-computing byte
// offsets.
func ops(t *testing.T, exec *bytecode.Executable) []bytecode.Op {
	t.Helper()
	var out []bytecode.Op
	r := bytecode.NewReader(exec)
	for !r.AtEnd() {
		d, err := r.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, d.Op)
	}
	return out
}

func containsSeq(full, sub []bytecode.Op) bool {
	if len(sub) > len(full) {
		return false
	}
	for i := 0; i+len(sub) <= len(full); i++ {
		match := true
		for j, op := range sub {
			if full[i+j] != op {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func program(body ...ast.Node) *ast.Program {
	return &ast.Program{Body: body}
}

func exprStmt(e ast.Node) ast.Node {
	return ast.ExpressionStatement{Expression: e}
}

func numLit(n float64) ast.Node {
	return ast.Literal{Kind: ast.LiteralNumber, Number: n}
}

func TestCompileProgramAppendsReturn(t *testing.T) {
	exec := CompileProgram(program(exprStmt(numLit(1))))
	got := ops(t, exec)
	if len(got) == 0 || got[len(got)-1] != bytecode.OpReturn {
		t.Fatalf("program did not end in OpReturn: %v", got)
	}
}

func TestCompileLiteralNumber(t *testing.T) {
	exec := CompileProgram(program(exprStmt(numLit(42))))
	got := ops(t, exec)
	if !containsSeq(got, []bytecode.Op{bytecode.OpLoadConstant}) {
		t.Fatalf("expected LoadConstant, got %v", got)
	}
	if len(exec.Constants) != 1 || exec.Constants[0].SmallIntegerValue() != 42 {
		t.Fatalf("unexpected constants: %v", exec.Constants)
	}
}

func TestCompileIdentifierReadResolvesAndGets(t *testing.T) {
	exec := CompileProgram(program(exprStmt(ast.Identifier{Name: "x"})))
	got := ops(t, exec)
	want := []bytecode.Op{bytecode.OpResolveBinding, bytecode.OpGetValue}
	if !containsSeq(got, want) {
		t.Fatalf("expected ResolveBinding,GetValue, got %v", got)
	}
	if len(exec.Identifiers) != 1 || exec.Identifiers[0] != "x" {
		t.Fatalf("unexpected identifiers: %v", exec.Identifiers)
	}
}

func TestCompileVariableDeclarationDeclaresAndInitializes(t *testing.T) {
	decl := ast.VariableDeclaration{
		Kind: ast.VarLet,
		Declarations: []*ast.VariableDeclarator{
			{ID: ast.Identifier{Name: "x"}, Init: numLit(1)},
		},
	}
	exec := CompileProgram(program(decl))
	got := ops(t, exec)
	want := []bytecode.Op{
		bytecode.OpLoadConstant,
		bytecode.OpCreateMutableBinding,
		bytecode.OpResolveBinding,
		bytecode.OpInitializeReferencedBinding,
	}
	if !containsSeq(got, want) {
		t.Fatalf("unexpected sequence for let x = 1: %v", got)
	}
}

func TestCompileConstDeclarationUsesImmutableBinding(t *testing.T) {
	decl := ast.VariableDeclaration{
		Kind: ast.VarConst,
		Declarations: []*ast.VariableDeclarator{
			{ID: ast.Identifier{Name: "x"}, Init: numLit(1)},
		},
	}
	exec := CompileProgram(program(decl))
	got := ops(t, exec)
	if !containsSeq(got, []bytecode.Op{bytecode.OpCreateImmutableBinding}) {
		t.Fatalf("expected CreateImmutableBinding for const, got %v", got)
	}
	if containsSeq(got, []bytecode.Op{bytecode.OpCreateMutableBinding}) {
		t.Fatalf("const declaration should not emit CreateMutableBinding: %v", got)
	}
}

func TestCompileVariableDeclarationWithoutInitLoadsUndefined(t *testing.T) {
	decl := ast.VariableDeclaration{
		Kind: ast.VarVar,
		Declarations: []*ast.VariableDeclarator{
			{ID: ast.Identifier{Name: "x"}},
		},
	}
	exec := CompileProgram(program(decl))
	got := ops(t, exec)
	if !containsSeq(got, []bytecode.Op{bytecode.OpLoadConstant, bytecode.OpCreateMutableBinding}) {
		t.Fatalf("expected undefined load before binding, got %v", got)
	}
}

func TestCompileBinaryExpressionLoadsLeftBeforeRight(t *testing.T) {
	e := ast.BinaryExpression{Operator: ast.BinaryAdd, Left: numLit(1), Right: numLit(2)}
	exec := CompileProgram(program(exprStmt(e)))
	got := ops(t, exec)
	want := []bytecode.Op{
		bytecode.OpLoadConstant,
		bytecode.OpLoad,
		bytecode.OpLoadConstant,
		bytecode.OpApplyStringOrNumericBinaryOperator,
	}
	if !containsSeq(got, want) {
		t.Fatalf("unexpected sequence for 1 + 2: %v", got)
	}
}

func TestCompileBinaryInOperatorIsSpecialCased(t *testing.T) {
	e := ast.BinaryExpression{Operator: ast.BinaryIn, Left: ast.Identifier{Name: "k"}, Right: ast.Identifier{Name: "o"}}
	exec := CompileProgram(program(exprStmt(e)))
	got := ops(t, exec)
	if !containsSeq(got, []bytecode.Op{bytecode.OpHasProperty}) {
		t.Fatalf("expected HasProperty for `in`, got %v", got)
	}
	if containsSeq(got, []bytecode.Op{bytecode.OpApplyStringOrNumericBinaryOperator}) {
		t.Fatalf("`in` should not go through the numeric binary operator path: %v", got)
	}
}

func TestCompileIfStatementWithoutElse(t *testing.T) {
	s := ast.IfStatement{Test: ast.Identifier{Name: "c"}, Consequent: exprStmt(numLit(1))}
	exec := CompileProgram(program(s))
	got := ops(t, exec)
	want := []bytecode.Op{bytecode.OpJumpIfNot, bytecode.OpLoadConstant, bytecode.OpReturn}
	if !containsSeq(got, want) {
		t.Fatalf("unexpected if-without-else sequence: %v", got)
	}
	if containsSeq(got, []bytecode.Op{bytecode.OpJumpIfNot, bytecode.OpLoadConstant, bytecode.OpJump}) {
		t.Fatalf("if without else should not emit a jump-over-else: %v", got)
	}
}

func TestCompileIfStatementWithElseJumpsOverAlternate(t *testing.T) {
	s := ast.IfStatement{
		Test:       ast.Identifier{Name: "c"},
		Consequent: exprStmt(numLit(1)),
		Alternate:  exprStmt(numLit(2)),
	}
	exec := CompileProgram(program(s))
	got := ops(t, exec)
	want := []bytecode.Op{
		bytecode.OpJumpIfNot,
		bytecode.OpLoadConstant,
		bytecode.OpJump,
		bytecode.OpLoadConstant,
	}
	if !containsSeq(got, want) {
		t.Fatalf("unexpected if/else sequence: %v", got)
	}
}

func TestCompileWhileStatementJumpsBackward(t *testing.T) {
	s := ast.WhileStatement{Test: ast.Identifier{Name: "c"}, Body: exprStmt(numLit(1))}
	exec := CompileProgram(program(s))

	r := bytecode.NewReader(exec)
	var backward *bytecode.Decoded
	for !r.AtEnd() {
		d, err := r.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if d.Op == bytecode.OpJump {
			dd := d
			backward = &dd
		}
	}
	if backward == nil {
		t.Fatalf("expected a trailing OpJump closing the loop")
	}
	if int(backward.Operands[0]) >= backward.Offset {
		t.Fatalf("while loop's closing jump target %d is not before its own offset %d", backward.Operands[0], backward.Offset)
	}
}

func TestCompileForStatementEntersDeclarativeEnvironment(t *testing.T) {
	s := ast.ForStatement{
		Init: &ast.VariableDeclaration{
			Kind:         ast.VarLet,
			Declarations: []*ast.VariableDeclarator{{ID: ast.Identifier{Name: "i"}, Init: numLit(0)}},
		},
		Test:   ast.BinaryExpression{Operator: ast.BinaryLess, Left: ast.Identifier{Name: "i"}, Right: numLit(3)},
		Update: ast.UpdateExpression{Operator: "++", Prefix: false, Argument: ast.Identifier{Name: "i"}},
		Body:   exprStmt(ast.Identifier{Name: "i"}),
	}
	exec := CompileProgram(program(s))
	got := ops(t, exec)
	if got[0] != bytecode.OpEnterDeclarativeEnvironment {
		t.Fatalf("expected for-loop to open its own scope first, got %v", got)
	}
	if !containsSeq(got, []bytecode.Op{bytecode.OpLessThan, bytecode.OpJumpIfNot}) {
		t.Fatalf("expected a LessThan test gating a JumpIfNot exit, got %v", got)
	}
}

func TestCompileReturnWithoutArgumentLoadsUndefined(t *testing.T) {
	exec := CompileProgram(program(ast.ReturnStatement{}))
	got := ops(t, exec)
	want := []bytecode.Op{bytecode.OpLoadConstant, bytecode.OpReturn}
	if !containsSeq(got, want) {
		t.Fatalf("bare return should load undefined then return, got %v", got)
	}
	if len(exec.Constants) != 1 || !exec.Constants[0].IsUndefined() {
		t.Fatalf("expected the loaded constant to be undefined, got %v", exec.Constants)
	}
}

func TestCompileThrowStatement(t *testing.T) {
	exec := CompileProgram(program(ast.ThrowStatement{Argument: numLit(1)}))
	got := ops(t, exec)
	if !containsSeq(got, []bytecode.Op{bytecode.OpLoadConstant, bytecode.OpThrow}) {
		t.Fatalf("expected LoadConstant,Throw, got %v", got)
	}
}

func TestCompileTryCatchPushesAndPopsExceptionTarget(t *testing.T) {
	s := ast.TryStatement{
		Block: &ast.BlockStatement{Body: []ast.Node{exprStmt(numLit(1))}},
		Handler: &ast.CatchClause{
			Param: ast.Identifier{Name: "e"},
			Body:  &ast.BlockStatement{Body: []ast.Node{exprStmt(ast.Identifier{Name: "e"})}},
		},
	}
	exec := CompileProgram(program(s))
	got := ops(t, exec)
	want := []bytecode.Op{
		bytecode.OpPushExceptionJumpTarget,
		bytecode.OpEnterDeclarativeEnvironment,
		bytecode.OpLoadConstant,
		bytecode.OpExitDeclarativeEnvironment,
		bytecode.OpPopExceptionJumpTarget,
		bytecode.OpJump,
		bytecode.OpEnterDeclarativeEnvironment,
		bytecode.OpCreateCatchBinding,
	}
	if !containsSeq(got, want) {
		t.Fatalf("unexpected try/catch sequence: %v", got)
	}
	if len(exec.Identifiers) == 0 || exec.Identifiers[0] != "e" {
		t.Fatalf("expected catch parameter interned as an identifier, got %v", exec.Identifiers)
	}
}

func TestCompileSwitchStatementUsesStrictEqualityPerCase(t *testing.T) {
	s := ast.SwitchStatement{
		Discriminant: ast.Identifier{Name: "x"},
		Cases: []*ast.SwitchCase{
			{Test: numLit(1), Body: []ast.Node{exprStmt(numLit(1))}},
			{Test: nil, Body: []ast.Node{exprStmt(numLit(2))}},
		},
	}
	exec := CompileProgram(program(s))
	got := ops(t, exec)
	if got[0] != bytecode.OpEnterDeclarativeEnvironment {
		t.Fatalf("expected switch to open its own scope, got %v", got)
	}
	if !containsSeq(got, []bytecode.Op{bytecode.OpIsStrictlyEqual, bytecode.OpJumpIfTrue}) {
		t.Fatalf("expected a strict-equality test per case, got %v", got)
	}
}

func TestCompileArrayExpressionPushesEachElement(t *testing.T) {
	e := ast.ArrayExpression{Elements: []ast.Node{numLit(1), numLit(2)}}
	exec := CompileProgram(program(exprStmt(e)))
	got := ops(t, exec)
	want := []bytecode.Op{
		bytecode.OpLoadConstant, bytecode.OpLoad,
		bytecode.OpLoadConstant, bytecode.OpLoad,
		bytecode.OpArrayCreate,
	}
	if !containsSeq(got, want) {
		t.Fatalf("unexpected array literal sequence: %v", got)
	}
}

func TestCompileArrayExpressionElisionLoadsUndefined(t *testing.T) {
	e := ast.ArrayExpression{Elements: []ast.Node{nil, numLit(1)}}
	exec := CompileProgram(program(exprStmt(e)))
	got := ops(t, exec)
	if !containsSeq(got, []bytecode.Op{bytecode.OpLoadConstant, bytecode.OpLoad, bytecode.OpLoadConstant, bytecode.OpLoad, bytecode.OpArrayCreate}) {
		t.Fatalf("unexpected elided array sequence: %v", got)
	}
}

func TestCompileObjectExpressionCreatesThenSetsEachProperty(t *testing.T) {
	e := ast.ObjectExpression{
		Properties: []*ast.Property{
			{Kind: ast.PropertyInit, Key: ast.Identifier{Name: "a"}, Value: numLit(1)},
		},
	}
	exec := CompileProgram(program(exprStmt(e)))
	got := ops(t, exec)
	if !containsSeq(got, []bytecode.Op{bytecode.OpObjectCreate}) {
		t.Fatalf("expected ObjectCreate, got %v", got)
	}
	if !containsSeq(got, []bytecode.Op{bytecode.OpObjectSetProperty}) {
		t.Fatalf("expected ObjectSetProperty, got %v", got)
	}
}

func TestCompileMemberExpressionGetsValueAfterRead(t *testing.T) {
	e := ast.MemberExpression{Object: ast.Identifier{Name: "o"}, Property: ast.Identifier{Name: "p"}}
	exec := CompileProgram(program(exprStmt(e)))
	got := ops(t, exec)
	if got[len(got)-2] != bytecode.OpGetValue {
		t.Fatalf("member expression read should end with GetValue right before the trailing Return: %v", got)
	}
}

func TestCompileCallExpressionCompilesEachArgument(t *testing.T) {
	e := ast.CallExpression{
		Callee:    ast.Identifier{Name: "f"},
		Arguments: []ast.Node{numLit(1), numLit(2)},
	}
	exec := CompileProgram(program(exprStmt(e)))
	if len(exec.Constants) != 2 {
		t.Fatalf("expected both call arguments compiled to distinct constants, got %v", exec.Constants)
	}
}

func TestCompileLogicalAndShortCircuits(t *testing.T) {
	e := ast.LogicalExpression{Operator: "&&", Left: ast.Identifier{Name: "a"}, Right: ast.Identifier{Name: "b"}}
	exec := CompileProgram(program(exprStmt(e)))
	got := ops(t, exec)
	if !containsSeq(got, []bytecode.Op{bytecode.OpJumpIfNot}) && !containsSeq(got, []bytecode.Op{bytecode.OpJumpIfTrue}) {
		t.Fatalf("expected logical && to compile to a conditional short-circuit jump, got %v", got)
	}
}

func TestCompileAssignmentExpressionPlainSetsValue(t *testing.T) {
	e := ast.AssignmentExpression{Operator: ast.AssignPlain, Left: ast.Identifier{Name: "x"}, Right: numLit(1)}
	exec := CompileProgram(program(exprStmt(e)))
	got := ops(t, exec)
	want := []bytecode.Op{bytecode.OpResolveBinding, bytecode.OpLoadConstant, bytecode.OpPutValue}
	if !containsSeq(got, want) {
		t.Fatalf("unexpected plain assignment sequence: %v", got)
	}
}

func TestCompileFunctionDeclarationDeclaresItsOwnName(t *testing.T) {
	fn := &ast.FunctionExpression{
		Name:   "f",
		Params: nil,
		Body:   &ast.BlockStatement{Body: []ast.Node{ast.ReturnStatement{Argument: numLit(1)}}},
	}
	exec := CompileProgram(program(ast.FunctionDeclaration{Function: fn}))
	got := ops(t, exec)
	if !containsSeq(got, []bytecode.Op{bytecode.OpCreateMutableBinding, bytecode.OpResolveBinding, bytecode.OpInitializeReferencedBinding}) {
		t.Fatalf("expected the declared function to be bound under its own name, got %v", got)
	}
	if len(exec.FunctionExpressions) != 1 || exec.FunctionExpressions[0].Name != "f" {
		t.Fatalf("expected the nested function body compiled into FunctionExpressions, got %v", exec.FunctionExpressions)
	}
}

func TestCompileUnsupportedStatementPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a statement node the compiler does not recognize")
		}
	}()
	CompileProgram(program(unsupportedStatement{}))
}

type unsupportedStatement struct{ ast.Position }

func TestCompileNestedBlockEntersAndExitsScope(t *testing.T) {
	b := ast.BlockStatement{Body: []ast.Node{exprStmt(numLit(1))}}
	exec := CompileProgram(program(b))
	got := ops(t, exec)
	want := []bytecode.Op{bytecode.OpEnterDeclarativeEnvironment, bytecode.OpLoadConstant, bytecode.OpExitDeclarativeEnvironment}
	if !containsSeq(got, want) {
		t.Fatalf("unexpected block statement sequence: %v", got)
	}
}
