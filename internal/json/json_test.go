package json

import (
	"testing"

	"github.com/ecmacore/jsvm/internal/agent"
	"github.com/ecmacore/jsvm/internal/engineopts"
	"github.com/ecmacore/jsvm/internal/value"
)

func newTestAgent(t *testing.T) *agent.Agent {
	t.Helper()
	return agent.NewAgent(engineopts.Default())
}

func TestStringifyPrimitives(t *testing.T) {
	a := newTestAgent(t)

	cases := []struct {
		name string
		v    value.Value
		want string
	}{
		{"null", value.Null(), "null"},
		{"true", value.Boolean(true), "true"},
		{"false", value.Boolean(false), "false"},
		{"integer", value.SmallInteger(42), "42"},
		{"nan", a.Heap.NewNumber(nan()), "null"},
		{"string", heapStr(a, "hi"), `"hi"`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Stringify(a, c.v, value.Undefined(), value.Undefined())
			if err != nil {
				t.Fatalf("Stringify(%s): %v", c.name, err)
			}
			if got != c.want {
				t.Fatalf("Stringify(%s) = %q, want %q", c.name, got, c.want)
			}
		})
	}
}

func nan() float64 { var z float64; return z / z }

func TestStringifyUndefinedOmitted(t *testing.T) {
	a := newTestAgent(t)
	got, err := Stringify(a, value.Undefined(), value.Undefined(), value.Undefined())
	if err != nil {
		t.Fatalf("Stringify: %v", err)
	}
	if got != "" {
		t.Fatalf("Stringify(undefined) = %q, want empty", got)
	}
}

func TestStringifyArray(t *testing.T) {
	a := newTestAgent(t)
	arr := a.NewArray([]value.Value{value.SmallInteger(1), value.SmallInteger(2), value.Undefined()})
	got, err := Stringify(a, arr, value.Undefined(), value.Undefined())
	if err != nil {
		t.Fatalf("Stringify: %v", err)
	}
	if got != "[1,2,null]" {
		t.Fatalf("Stringify(array) = %q, want [1,2,null]", got)
	}
}

func TestStringifyObject(t *testing.T) {
	a := newTestAgent(t)
	obj := a.NewPlainObject()
	if err := a.Set(obj, keyOf(a, "a"), value.SmallInteger(1), obj); err != nil {
		t.Fatal(err)
	}
	if err := a.Set(obj, keyOf(a, "b"), heapStr(a, "x"), obj); err != nil {
		t.Fatal(err)
	}
	got, err := Stringify(a, obj, value.Undefined(), value.Undefined())
	if err != nil {
		t.Fatalf("Stringify: %v", err)
	}
	if got != `{"a":1,"b":"x"}` {
		t.Fatalf("Stringify(object) = %q, want {\"a\":1,\"b\":\"x\"}", got)
	}
}

func TestStringifyIndent(t *testing.T) {
	a := newTestAgent(t)
	obj := a.NewPlainObject()
	if err := a.Set(obj, keyOf(a, "a"), value.SmallInteger(1), obj); err != nil {
		t.Fatal(err)
	}
	got, err := Stringify(a, obj, value.Undefined(), value.SmallInteger(2))
	if err != nil {
		t.Fatalf("Stringify: %v", err)
	}
	want := "{\n  \"a\": 1\n}"
	if got != want {
		t.Fatalf("Stringify(indent=2) = %q, want %q", got, want)
	}
}

func TestStringifyCyclicThrows(t *testing.T) {
	a := newTestAgent(t)
	obj := a.NewPlainObject()
	if err := a.Set(obj, keyOf(a, "self"), obj, obj); err != nil {
		t.Fatal(err)
	}
	if _, err := Stringify(a, obj, value.Undefined(), value.Undefined()); err == nil {
		t.Fatal("Stringify(cyclic): expected error, got nil")
	}
}

func TestStringifyBigIntThrows(t *testing.T) {
	a := newTestAgent(t)
	if _, err := Stringify(a, value.BigIntSmall(7), value.Undefined(), value.Undefined()); err == nil {
		t.Fatal("Stringify(bigint): expected error, got nil")
	}
}

func TestStringifyBigIntPropertyThrows(t *testing.T) {
	a := newTestAgent(t)
	obj := a.NewPlainObject()
	if err := a.Set(obj, keyOf(a, "n"), value.BigIntSmall(7), obj); err != nil {
		t.Fatal(err)
	}
	if _, err := Stringify(a, obj, value.Undefined(), value.Undefined()); err == nil {
		t.Fatal("Stringify(object with bigint property): expected error, got nil")
	}
}

func TestQuoteJSONStringEscapes(t *testing.T) {
	got := quoteJSONString("a\tb\nc\"d\\e")
	want := `"a\tb\nc\"d\\e"`
	if got != want {
		t.Fatalf("quoteJSONString = %q, want %q", got, want)
	}
}

func TestQuoteJSONStringControlChar(t *testing.T) {
	want := `"\u0001"`
	got := quoteJSONString(``)
	if got != want {
		t.Fatalf("quoteJSONString(control) = %q, want %q", got, want)
	}
}

func TestParseReviverFunction(t *testing.T) {
	a := newTestAgent(t)
	v, err := Parse(a, `{"a":1,"b":2}`, value.Undefined())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := Stringify(a, v, value.Undefined(), value.Undefined())
	if err != nil {
		t.Fatalf("Stringify: %v", err)
	}
	if got != `{"a":1,"b":2}` {
		t.Fatalf("round-trip = %q, want {\"a\":1,\"b\":2}", got)
	}
}
