package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Reader decodes one instruction at a time from an Executable's
// instruction buffer: a fetch/decode step shared by the VM's dispatch
// loop and the disassembler, grounded on the teacher's
// internal/heap/parser/reader.go BinaryReader (same "track a read
// cursor, decode fixed-width fields" shape, here over an in-memory byte
// slice instead of a buffered stream since the whole Executable already
// lives in memory by the time the VM runs).
type Reader struct {
	code []byte
	pos  int
}

func NewReader(exec *Executable) *Reader {
	return &Reader{code: exec.Instructions}
}

func (r *Reader) Pos() int      { return r.pos }
func (r *Reader) SetPos(p int)  { r.pos = p }
func (r *Reader) AtEnd() bool   { return r.pos >= len(r.code) }

// Decoded is one fetched instruction: its opcode, fixed-arity operands,
// and the offset it started at (useful for disassembly and for jump
// targets, which are absolute instruction-stream offsets).
type Decoded struct {
	Offset   int
	Op       Op
	Operands []uint16
}

// Next fetches and decodes the instruction at the current cursor,
// advancing past it. Returns an error if the buffer ends mid-operand,
// which indicates a malformed Executable rather than a normal
// end-of-stream (AtEnd should be checked first).
func (r *Reader) Next() (Decoded, error) {
	offset := r.pos
	if r.pos >= len(r.code) {
		return Decoded{}, fmt.Errorf("bytecode: read past end of instruction stream at offset %d", offset)
	}
	op := Op(r.code[r.pos])
	r.pos++

	n := op.OperandCount()
	operands := make([]uint16, n)
	for i := 0; i < n; i++ {
		if r.pos+2 > len(r.code) {
			return Decoded{}, fmt.Errorf("bytecode: truncated operand for %s at offset %d", op, offset)
		}
		operands[i] = binary.LittleEndian.Uint16(r.code[r.pos : r.pos+2])
		r.pos += 2
	}
	return Decoded{Offset: offset, Op: op, Operands: operands}, nil
}
