package ast

import "testing"

// TestNodeInterfaceSatisfied is a compile-time-adjacent smoke test: if a
// node type stops satisfying Node, this function fails to compile before
// it ever runs.
func TestNodeInterfaceSatisfied(t *testing.T) {
	nodes := []Node{
		Identifier{Name: "x"},
		Literal{Kind: LiteralNumber, Number: 1},
		ThisExpression{},
		&ArrayExpression{Elements: []Node{nil, Literal{Kind: LiteralNumber, Number: 2}}},
		&BinaryExpression{Operator: BinaryAdd, Left: Identifier{Name: "a"}, Right: Identifier{Name: "b"}},
		&AssignmentExpression{Operator: AssignPlain, Left: Identifier{Name: "a"}, Right: Literal{Kind: LiteralNumber, Number: 1}},
		&TemplateLiteral{Quasis: []string{"a", "b"}, Expressions: []Node{Identifier{Name: "x"}}},
		&ArrayPattern{Elements: []Node{Identifier{Name: "a"}, &RestElement{Argument: Identifier{Name: "rest"}}}},
		&Program{Body: []Node{&ExpressionStatement{Expression: Identifier{Name: "x"}}}},
	}
	if len(nodes) == 0 {
		t.Fatal("expected at least one node")
	}
}

func TestClassExpressionShape(t *testing.T) {
	class := &ClassExpression{
		Name: "Point",
		Body: []*ClassElement{
			{Kind: ClassField, Key: Identifier{Name: "x"}, Value: Literal{Kind: LiteralNumber, Number: 0}},
			{Kind: ClassMethod, Key: Identifier{Name: "toString"}, Value: &FunctionExpression{Name: "toString", Body: &BlockStatement{}}},
		},
	}
	if len(class.Body) != 2 {
		t.Fatalf("expected 2 class elements, got %d", len(class.Body))
	}
	if class.Body[0].Kind != ClassField {
		t.Fatalf("expected first element to be a field")
	}
}
