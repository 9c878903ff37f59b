package bytecode

import "encoding/binary"

// Writer appends opcodes and their 16-bit little-endian immediates to an
// Executable's instruction stream, and resolves forward jumps during the
// compiler's fix-up pass (spec.md §4.1: "single-pass...with a fix-up
// pass only for forward jumps"). Grounded on the teacher's
// internal/heap/parser/reader.go BinaryReader, mirrored into a writer:
// same fixed-width little/big-endian field discipline, opposite
// direction.
type Writer struct {
	exec *Executable
}

func NewWriter(exec *Executable) *Writer {
	return &Writer{exec: exec}
}

// Pos returns the current write offset, usable as a backward jump
// target or to compute a forward jump's displacement later.
func (w *Writer) Pos() int { return len(w.exec.Instructions) }

// Emit appends op and each operand (each encoded as one 16-bit
// little-endian immediate). The caller is responsible for supplying
// exactly op.OperandCount() operands.
func (w *Writer) Emit(op Op, operands ...uint16) int {
	pos := w.Pos()
	w.exec.Instructions = append(w.exec.Instructions, byte(op))
	for _, operand := range operands {
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], operand)
		w.exec.Instructions = append(w.exec.Instructions, buf[:]...)
	}
	return pos
}

// EmitJump emits a jump opcode with a placeholder target and returns the
// byte offset of that placeholder, for PatchJump to fill in once the
// real target is known.
func (w *Writer) EmitJump(op Op) int {
	w.exec.Instructions = append(w.exec.Instructions, byte(op))
	placeholder := w.Pos()
	w.exec.Instructions = append(w.exec.Instructions, 0, 0)
	return placeholder
}

// PatchJump overwrites the 16-bit immediate at placeholder (as returned
// by EmitJump) with the instruction offset the jump should land on. This
// is the entirety of the compiler's fix-up pass (spec.md §4.1).
func (w *Writer) PatchJump(placeholder int, target int) {
	binary.LittleEndian.PutUint16(w.exec.Instructions[placeholder:placeholder+2], uint16(target))
}

// PatchJumpHere patches placeholder to target the writer's current
// position, the common case of "jump past what I'm about to not emit".
func (w *Writer) PatchJumpHere(placeholder int) {
	w.PatchJump(placeholder, w.Pos())
}
