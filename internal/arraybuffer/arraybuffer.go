// Package arraybuffer implements the ArrayBuffer / SharedArrayBuffer /
// DataView abstract operations of spec.md §3 ("ArrayBuffer") and §4.3,
// on top of the heapobj Object model. Byte access is grounded on the
// teacher's internal/heap/parser/reader.go BinaryReader, generalized
// from reader.go's big-endian-only ReadU2/ReadU4/ReadU8 to the
// endian-parameterized element access DataView and TypedArray both need.
package arraybuffer

import (
	"encoding/binary"
	"math"

	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
)

// NoMaxByteLength marks a fixed-length (non-resizable) buffer.
const NoMaxByteLength = -1

// Buffer is the Extra payload for KindArrayBuffer and
// KindSharedArrayBuffer objects (spec.md §3 "ArrayBuffer").
//
// Invariant (spec.md §3): Detached implies len(Bytes) == 0 is NOT
// required here — Bytes is nilled instead, so every access after
// detachment must check the Detached field rather than trusting len(Bytes).
type Buffer struct {
	Bytes         []byte
	Detached      bool
	MaxByteLength int  // NoMaxByteLength for fixed-length buffers
	Shared        bool // true for SharedArrayBuffer / SharedDataBlock semantics
}

func (b *Buffer) ByteLength() int {
	if b.Detached {
		return 0
	}
	return len(b.Bytes)
}

func (b *Buffer) IsResizable() bool { return b.MaxByteLength != NoMaxByteLength }

// Create allocates a new (non-shared) ArrayBuffer object of byteLength
// bytes. maxByteLength == NoMaxByteLength means fixed-length.
func Create(h *heapobj.Heap, arrayBufferProto value.Value, byteLength, maxByteLength int) (value.Value, *Buffer) {
	buf := &Buffer{
		Bytes:         make([]byte, byteLength),
		MaxByteLength: maxByteLength,
	}
	v, obj := h.NewObject(heapobj.KindArrayBuffer, arrayBufferProto)
	obj.Extra = buf
	return v, buf
}

// CreateShared allocates a SharedArrayBuffer backed by a SharedDataBlock
// (spec.md §3): its bytes are reachable across agents, unlike an
// ordinary ArrayBuffer's.
func CreateShared(h *heapobj.Heap, sabProto value.Value, byteLength, maxByteLength int) (value.Value, *Buffer) {
	buf := &Buffer{
		Bytes:         make([]byte, byteLength),
		MaxByteLength: maxByteLength,
		Shared:        true,
	}
	v, obj := h.NewObject(heapobj.KindSharedArrayBuffer, sabProto)
	obj.Extra = buf
	return v, buf
}

func Of(h *heapobj.Heap, v value.Value) *Buffer {
	return h.Object(v).Extra.(*Buffer)
}

// Detach zeroes the owner's byte block. Detachment is monotonic (spec.md
// §8 invariant 4): detaching an already-detached buffer is a no-op, and
// Detached never becomes false again.
func (b *Buffer) Detach() {
	if b.Detached {
		return
	}
	b.Detached = true
	b.Bytes = nil
}

// Resize grows or shrinks a resizable, non-shared buffer in place,
// keeping the invariant byte_length <= max_byte_length (spec.md §3).
// Growing zero-fills; shrinking truncates, which is what makes a
// TypedArray viewing the tail go out-of-bounds per §4.3.
func (b *Buffer) Resize(newByteLength int) error {
	if b.Detached {
		return errors.TypeError("cannot resize a detached ArrayBuffer")
	}
	if !b.IsResizable() {
		return errors.TypeError("cannot resize a fixed-length ArrayBuffer")
	}
	if newByteLength < 0 || newByteLength > b.MaxByteLength {
		return errors.RangeError("resize length %d out of bounds [0, %d]", newByteLength, b.MaxByteLength)
	}
	if newByteLength <= len(b.Bytes) {
		b.Bytes = b.Bytes[:newByteLength]
		return nil
	}
	grown := make([]byte, newByteLength)
	copy(grown, b.Bytes)
	b.Bytes = grown
	return nil
}

// Grow is SharedArrayBuffer.prototype.grow: like Resize but one-directional
// (shared buffers may only grow, never shrink, since other agents may be
// reading concurrently).
func (b *Buffer) Grow(newByteLength int) error {
	if !b.Shared {
		return errors.TypeError("grow is only valid on a SharedArrayBuffer")
	}
	if newByteLength < len(b.Bytes) {
		return errors.RangeError("cannot shrink a SharedArrayBuffer")
	}
	return b.Resize(newByteLength)
}

// MemoryOrder distinguishes the two orderings spec.md §5 calls out:
// user-visible atomics always use SeqCst; bounds checks use Unordered.
type MemoryOrder uint8

const (
	Unordered MemoryOrder = iota
	SeqCst
)

// ElementType is re-exported here (rather than imported from
// internal/typedarray) to keep arraybuffer a leaf package DataView can
// depend on without a cycle; internal/typedarray aliases this type.
type ElementType uint8

const (
	Int8 ElementType = iota
	Uint8
	Uint8Clamped
	Int16
	Uint16
	Int32
	Uint32
	BigInt64
	BigUint64
	Float16
	Float32
	Float64
)

func (t ElementType) Size() int {
	switch t {
	case Int8, Uint8, Uint8Clamped:
		return 1
	case Int16, Uint16, Float16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case BigInt64, BigUint64, Float64:
		return 8
	default:
		return 0
	}
}

func (t ElementType) IsBigIntType() bool { return t == BigInt64 || t == BigUint64 }

func byteOrder(littleEndian bool) binary.ByteOrder {
	if littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// GetValueFromBuffer reads one element of kind t at byteIndex, honoring
// littleEndian (DataView lets the caller choose; TypedArray accessors
// always pass the host's native order per ECMA-262, but we take it as a
// parameter so both can share this routine — spec.md §4.3
// "GetValueFromBuffer(buf, byteIndex, type, true, unordered)"). order is
// accepted for API symmetry with SetValueInBuffer; this in-process engine
// has no weaker-than-sequential read path to model.
func GetValueFromBuffer(b *Buffer, byteIndex int, t ElementType, littleEndian bool, order MemoryOrder) (value.Value, error) {
	if b.Detached {
		return value.Undefined(), errors.TypeError("cannot read from a detached ArrayBuffer")
	}
	size := t.Size()
	if byteIndex < 0 || byteIndex+size > len(b.Bytes) {
		return value.Undefined(), errors.RangeError("byte index %d out of bounds", byteIndex)
	}
	bo := byteOrder(littleEndian)
	raw := b.Bytes[byteIndex : byteIndex+size]
	switch t {
	case Int8:
		return value.SmallInteger(int64(int8(raw[0]))), nil
	case Uint8, Uint8Clamped:
		return value.SmallInteger(int64(raw[0])), nil
	case Int16:
		return value.SmallInteger(int64(int16(bo.Uint16(raw)))), nil
	case Uint16:
		return value.SmallInteger(int64(bo.Uint16(raw))), nil
	case Int32:
		return value.SmallInteger(int64(int32(bo.Uint32(raw)))), nil
	case Uint32:
		return value.SmallInteger(int64(bo.Uint32(raw))), nil
	case Float32:
		return value.SmallFloat(float64(math.Float32frombits(bo.Uint32(raw)))), nil
	case Float64:
		return value.SmallFloat(math.Float64frombits(bo.Uint64(raw))), nil
	case BigInt64:
		return value.BigIntSmall(int64(bo.Uint64(raw))), nil
	case BigUint64:
		u := bo.Uint64(raw)
		if u <= math.MaxInt64 {
			return value.BigIntSmall(int64(u)), nil
		}
		return value.SmallFloat(float64(u)), nil // overflow path boxed by caller in practice
	case Float16:
		return value.SmallFloat(float16ToFloat64(bo.Uint16(raw))), nil
	default:
		return value.Undefined(), errors.TypeError("unsupported element type")
	}
}

// SetValueInBuffer writes one coerced numeric value. Per spec.md §4.3
// ("silently no-ops for invalid indices, per spec") out-of-range writes
// are the caller's (TypedArraySetElement's) responsibility to skip
// before calling this — this function itself still bounds-checks and
// errors, since DataView.prototype.set* must throw RangeError on an
// out-of-range index while TypedArray indexed [[Set]] must not.
func SetValueInBuffer(b *Buffer, byteIndex int, t ElementType, littleEndian bool, v value.Value, order MemoryOrder) error {
	if b.Detached {
		return errors.TypeError("cannot write to a detached ArrayBuffer")
	}
	size := t.Size()
	if byteIndex < 0 || byteIndex+size > len(b.Bytes) {
		return errors.RangeError("byte index %d out of bounds", byteIndex)
	}
	bo := byteOrder(littleEndian)
	raw := b.Bytes[byteIndex : byteIndex+size]
	switch t {
	case Int8, Uint8:
		raw[0] = byte(numToInt64(v))
	case Uint8Clamped:
		raw[0] = clampUint8(numToFloat64(v))
	case Int16, Uint16:
		bo.PutUint16(raw, uint16(numToInt64(v)))
	case Int32, Uint32:
		bo.PutUint32(raw, uint32(numToInt64(v)))
	case Float32:
		bo.PutUint32(raw, math.Float32bits(float32(numToFloat64(v))))
	case Float64:
		bo.PutUint64(raw, math.Float64bits(numToFloat64(v)))
	case BigInt64, BigUint64:
		bo.PutUint64(raw, uint64(bigIntToInt64(v)))
	case Float16:
		bo.PutUint16(raw, float64ToFloat16(numToFloat64(v)))
	default:
		return errors.TypeError("unsupported element type")
	}
	return nil
}

func numToInt64(v value.Value) int64 {
	switch v.Tag() {
	case value.TagSmallInteger:
		return v.SmallIntegerValue()
	case value.TagSmallFloat:
		return int64(v.SmallFloatValue())
	default:
		return 0
	}
}

func numToFloat64(v value.Value) float64 {
	switch v.Tag() {
	case value.TagSmallInteger:
		return float64(v.SmallIntegerValue())
	case value.TagSmallFloat:
		return v.SmallFloatValue()
	default:
		return math.NaN()
	}
}

func bigIntToInt64(v value.Value) int64 {
	if v.Tag() == value.TagBigIntSmall {
		return v.BigIntSmallValue()
	}
	return 0
}

func clampUint8(f float64) byte {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	// ToUint8Clamp rounds to nearest, ties to even.
	lo := math.Floor(f)
	diff := f - lo
	switch {
	case diff < 0.5:
		return byte(lo)
	case diff > 0.5:
		return byte(lo) + 1
	default:
		if int64(lo)%2 == 0 {
			return byte(lo)
		}
		return byte(lo) + 1
	}
}

// float16 conversions: IEEE 754 binary16, used only by Float16Array/
// DataView getFloat16/setFloat16.
func float16ToFloat64(bits uint16) float64 {
	sign := uint32(bits>>15) & 1
	exp := uint32(bits>>10) & 0x1F
	frac := uint32(bits) & 0x3FF
	var f32bits uint32
	switch exp {
	case 0:
		if frac == 0 {
			f32bits = sign << 31
		} else {
			// subnormal
			e := -1
			for frac&0x400 == 0 {
				frac <<= 1
				e--
			}
			frac &= 0x3FF
			exp32 := uint32(127 - 15 + e + 1)
			f32bits = (sign << 31) | (exp32 << 23) | (frac << 13)
		}
	case 0x1F:
		f32bits = (sign << 31) | (0xFF << 23) | (frac << 13)
	default:
		f32bits = (sign << 31) | ((exp - 15 + 127) << 23) | (frac << 13)
	}
	return float64(math.Float32frombits(f32bits))
}

func float64ToFloat16(f float64) uint16 {
	f32 := float32(f)
	bits := math.Float32bits(f32)
	sign := uint16(bits>>16) & 0x8000
	exp := int32(bits>>23)&0xFF - 127 + 15
	frac := bits & 0x7FFFFF
	switch {
	case math.IsNaN(f):
		return sign | 0x7E00
	case exp >= 0x1F:
		return sign | 0x7C00
	case exp <= 0:
		return sign
	default:
		return sign | uint16(exp)<<10 | uint16(frac>>13)
	}
}
