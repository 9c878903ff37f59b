package json

import (
	"testing"

	"github.com/ecmacore/jsvm/internal/value"
)

func TestParsePrimitives(t *testing.T) {
	a := newTestAgent(t)

	cases := []struct {
		name string
		text string
		want string // Stringify output: numbers come back in ToString form
	}{
		{"null", "null", "null"},
		{"true", "true", "true"},
		{"false", "false", "false"},
		{"integer", "42", "42"},
		{"negative", "-17", "-17"},
		{"float", "3.25", "3.25"},
		{"exponent", "1.5e3", "1500"},
		{"string", `"hello"`, `"hello"`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := Parse(a, c.text, value.Undefined())
			if err != nil {
				t.Fatalf("Parse(%q): %v", c.text, err)
			}
			back, err := Stringify(a, v, value.Undefined(), value.Undefined())
			if err != nil {
				t.Fatalf("Stringify: %v", err)
			}
			if back != c.want {
				t.Fatalf("round-trip(%q) = %q, want %q", c.text, back, c.want)
			}
		})
	}
}

func TestParseObjectAndArray(t *testing.T) {
	a := newTestAgent(t)
	text := `{"name":"ok","values":[1,2,3],"nested":{"x":true}}`
	v, err := Parse(a, text, value.Undefined())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	back, err := Stringify(a, v, value.Undefined(), value.Undefined())
	if err != nil {
		t.Fatalf("Stringify: %v", err)
	}
	if back != text {
		t.Fatalf("round-trip = %q, want %q", back, text)
	}
}

func TestParseStringEscapes(t *testing.T) {
	a := newTestAgent(t)
	v, err := Parse(a, `"a\tb\ncA"`, value.Undefined())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := a.ToString(v)
	if err != nil {
		t.Fatal(err)
	}
	if s != "a\tb\ncA" {
		t.Fatalf("parsed string = %q, want %q", s, "a\tb\ncA")
	}
}

func TestParseSurrogatePairEscape(t *testing.T) {
	a := newTestAgent(t)
	// The escapes \uD83D and \uDE00 form the UTF-16 surrogate pair for
	// U+1F600 GRINNING FACE.
	v, err := Parse(a, `"\uD83D`+`\uDE00"`, value.Undefined())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := a.ToString(v)
	if err != nil {
		t.Fatal(err)
	}
	if s != "\U0001F600" {
		t.Fatalf("parsed surrogate pair = %q, want grinning face emoji", s)
	}
}

func TestParseLoneSurrogateEscape(t *testing.T) {
	a := newTestAgent(t)
	if _, err := Parse(a, `"\uD83D"`, value.Undefined()); err != nil {
		t.Fatalf("Parse(lone surrogate escape): %v", err)
	}
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	a := newTestAgent(t)
	if _, err := Parse(a, "123 abc", value.Undefined()); err == nil {
		t.Fatal("Parse(trailing garbage): expected error, got nil")
	}
}

func TestParseRejectsUnterminatedString(t *testing.T) {
	a := newTestAgent(t)
	if _, err := Parse(a, `"abc`, value.Undefined()); err == nil {
		t.Fatal("Parse(unterminated string): expected error, got nil")
	}
}

func TestParseRejectsInvalidNumber(t *testing.T) {
	a := newTestAgent(t)
	if _, err := Parse(a, "01", value.Undefined()); err == nil {
		t.Fatal("Parse(leading zero): expected error, got nil")
	}
}

func TestParseWhitespace(t *testing.T) {
	a := newTestAgent(t)
	v, err := Parse(a, "  \n\t[1, 2 , 3]\n", value.Undefined())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	elems, ok := a.DenseElements(v)
	if !ok || len(elems) != 3 {
		t.Fatalf("Parse whitespace array: got ok=%v len=%d, want 3 elements", ok, len(elems))
	}
}
