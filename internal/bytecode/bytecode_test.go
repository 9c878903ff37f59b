package bytecode

import (
	"strings"
	"testing"

	"github.com/ecmacore/jsvm/internal/value"
)

func TestWriterEmitAndReaderDecode(t *testing.T) {
	exec := New()
	idx := exec.AddConstant(value.SmallInteger(7))
	w := NewWriter(exec)
	w.Emit(OpLoadConstant, idx)
	w.Emit(OpReturn)

	r := NewReader(exec)
	d, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if d.Op != OpLoadConstant || len(d.Operands) != 1 || d.Operands[0] != idx {
		t.Fatalf("unexpected decode: %+v", d)
	}
	d, err = r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if d.Op != OpReturn {
		t.Fatalf("expected OpReturn, got %v", d.Op)
	}
	if !r.AtEnd() {
		t.Fatal("expected reader to be at end")
	}
}

func TestPatchJump(t *testing.T) {
	exec := New()
	w := NewWriter(exec)
	placeholder := w.EmitJump(OpJumpIfNot)
	w.Emit(OpLoadConstant, 0)
	target := w.Pos()
	w.PatchJumpHere(placeholder)
	w.Emit(OpReturn)

	r := NewReader(exec)
	d, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if d.Op != OpJumpIfNot {
		t.Fatalf("expected OpJumpIfNot, got %v", d.Op)
	}
	if int(d.Operands[0]) != target {
		t.Fatalf("patched jump target = %d, want %d", d.Operands[0], target)
	}
}

func TestInternIdentifierDeduplicates(t *testing.T) {
	exec := New()
	a := exec.InternIdentifier("x")
	b := exec.InternIdentifier("y")
	c := exec.InternIdentifier("x")
	if a != c {
		t.Fatalf("expected repeated identifier to reuse slot: %d != %d", a, c)
	}
	if a == b {
		t.Fatal("expected distinct identifiers to get distinct slots")
	}
	if len(exec.Identifiers) != 2 {
		t.Fatalf("expected 2 interned identifiers, got %d", len(exec.Identifiers))
	}
}

func TestDisassembleResolvesSideTables(t *testing.T) {
	exec := New()
	idx := exec.AddConstant(value.SmallInteger(42))
	w := NewWriter(exec)
	w.Emit(OpLoadConstant, idx)
	w.Emit(OpReturn)

	out := Disassemble(exec, "test")
	if !strings.Contains(out, "LoadConstant") {
		t.Fatalf("expected disassembly to mention LoadConstant, got:\n%s", out)
	}
	if !strings.Contains(out, "const[0]") {
		t.Fatalf("expected disassembly to resolve constant index, got:\n%s", out)
	}
}

func TestOpStringRoundTripsKnownAndUnknown(t *testing.T) {
	if OpReturn.String() != "Return" {
		t.Fatalf("got %q", OpReturn.String())
	}
	unknown := Op(250)
	if !strings.HasPrefix(unknown.String(), "Op(0x") {
		t.Fatalf("expected hex fallback for unknown opcode, got %q", unknown.String())
	}
}
