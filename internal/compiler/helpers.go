package compiler

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/ecmacore/jsvm/internal/ast"
	"github.com/ecmacore/jsvm/internal/value"
)

// deref normalizes a Node to its value form when it was handed to the
// compiler as a pointer. internal/ast's node() methods all use value
// receivers (both T and *T satisfy ast.Node), and hand-built trees mix
// the two freely; every type switch in this package dispatches on the
// value form so it only has to list each shape once.
func deref(n ast.Node) ast.Node {
	v := reflect.ValueOf(n)
	if v.Kind() == reflect.Ptr && !v.IsNil() {
		return v.Elem().Interface().(ast.Node)
	}
	return n
}

func undefinedConst() value.Value { return value.Undefined() }

func stringConst(s string) value.Value { return value.SmallStringValue(s) }

// syntheticArgName names the binding internal/agent is expected to have
// pre-populated with the caller-supplied positional argument at index i
// before handing a function body's Frame to VM.Run (compiler.go's
// compileParamBindings doc comment).
func syntheticArgName(i int) string { return fmt.Sprintf("%%arg%d", i) }

// fieldKeyName formats the `^N` binding name for a computed class-field
// key. Nothing in the compiler calls it; see fieldKeyCounter.
func fieldKeyName(n int) string { return fmt.Sprintf("^%d", n) }

// identName extracts an identifier's text from either the value or
// pointer form the hand-authored AST test fixtures (and any future
// parser) may produce (internal/ast's Node methods have value
// receivers, so both forms satisfy ast.Node).
func identName(n ast.Node) (string, bool) {
	switch id := n.(type) {
	case ast.Identifier:
		return id.Name, true
	case *ast.Identifier:
		return id.Name, true
	}
	return "", false
}

func privateName(n ast.Node) (string, bool) {
	switch id := n.(type) {
	case ast.PrivateIdentifier:
		return "#" + id.Name, true
	case *ast.PrivateIdentifier:
		return "#" + id.Name, true
	}
	return "", false
}

func asLiteral(n ast.Node) (ast.Literal, bool) {
	if lit, ok := deref(n).(ast.Literal); ok {
		return lit, true
	}
	return ast.Literal{}, false
}

// propertyKeyName resolves a non-computed Property/ClassElement key
// (an Identifier naming the key literally, or a Literal) to its string
// form, the only shape BindingPatternBind's and ObjectSetProperty's
// static-key compilation paths can embed.
func propertyKeyName(key ast.Node) (string, bool) {
	if name, ok := identName(key); ok {
		return name, true
	}
	if lit, ok := asLiteral(key); ok {
		switch lit.Kind {
		case ast.LiteralString:
			return lit.String, true
		case ast.LiteralNumber:
			return strconv.FormatFloat(lit.Number, 'g', -1, 64), true
		}
	}
	return "", false
}

// literalToValue converts a Literal node into the constant Value the
// compiler embeds. String constants are always represented as an
// inline SmallString Value regardless of length: proper heap interning
// of an over-length string constant needs a heapobj.Heap, which the
// compiler (a leaf per spec.md §2's dependency order) does not have
// access to. An over-length string constant stays an inline SmallString
// Value at run time too: LoadConstant copies the constant unchanged.
func literalToValue(lit ast.Literal) value.Value {
	switch lit.Kind {
	case ast.LiteralNull:
		return value.Null()
	case ast.LiteralUndefined:
		return value.Undefined()
	case ast.LiteralBoolean:
		return value.Boolean(lit.Boolean)
	case ast.LiteralNumber:
		return value.NumberValue(lit.Number)
	case ast.LiteralBigInt:
		return value.BigIntSmall(lit.BigInt)
	case ast.LiteralString:
		return value.SmallStringValue(lit.String)
	default:
		return value.Undefined()
	}
}
