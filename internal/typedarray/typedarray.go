// Package typedarray implements the TypedArray abstract operations of
// spec.md §4.3, polymorphic over the twelve element types via
// arraybuffer.ElementType, the way spec.md §9 describes: "Polymorphism
// over TypedArray element types is expressed as a finite set of concrete
// type-parameterized variants plus a macro that fans an operation out to
// the twelve cases" — here, a single ElementType-switching function
// rather than twelve duplicated ones.
package typedarray

import (
	"math"

	"github.com/ecmacore/jsvm/internal/arraybuffer"
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
)

type ElementType = arraybuffer.ElementType

const (
	Int8         = arraybuffer.Int8
	Uint8        = arraybuffer.Uint8
	Uint8Clamped = arraybuffer.Uint8Clamped
	Int16        = arraybuffer.Int16
	Uint16       = arraybuffer.Uint16
	Int32        = arraybuffer.Int32
	Uint32       = arraybuffer.Uint32
	BigInt64     = arraybuffer.BigInt64
	BigUint64    = arraybuffer.BigUint64
	Float16      = arraybuffer.Float16
	Float32      = arraybuffer.Float32
	Float64      = arraybuffer.Float64
)

// MaxLengthSentinel marks a TypedArrayWithBufferWitnessRecord observed on
// a detached buffer (spec.md §3 "Length cached as a sentinel (MAX-value)
// means detached").
const MaxLengthSentinel = math.MaxInt64

// TypedArray is the Extra payload of a KindTypedArray object (spec.md §3).
type TypedArray struct {
	ElementType ElementType
	Buffer      value.Value // viewed ArrayBuffer/SharedArrayBuffer
	ByteOffset  int
	ByteLength  *int // nil means "auto": track the buffer
	ArrayLength *int // nil means "auto"
}

func New(h *heapobj.Heap, proto, bufferValue value.Value, t ElementType, byteOffset int, byteLength, arrayLength *int) (value.Value, *TypedArray, error) {
	if byteOffset%t.Size() != 0 {
		return value.Value{}, nil, errors.RangeError("byteOffset %d is not a multiple of element size %d", byteOffset, t.Size())
	}
	buf := arraybuffer.Of(h, bufferValue)
	if byteLength != nil && byteOffset+*byteLength > buf.ByteLength() {
		return value.Value{}, nil, errors.RangeError("typed array window exceeds buffer length")
	}
	ta := &TypedArray{
		ElementType: t,
		Buffer:      bufferValue,
		ByteOffset:  byteOffset,
		ByteLength:  byteLength,
		ArrayLength: arrayLength,
	}
	v, obj := h.NewObject(heapobj.KindTypedArray, proto)
	obj.Extra = ta
	return v, ta, nil
}

func Of(h *heapobj.Heap, v value.Value) *TypedArray {
	return h.Object(v).Extra.(*TypedArray)
}

// BufferWitness is TypedArrayWithBufferWitnessRecord (spec.md §3): a
// snapshot pairing a TypedArray with the buffer byte length observed at
// some synchronization point, so a sequence of operations sees a
// consistent view even if JS code run by a getter shrinks the buffer
// mid-operation.
type BufferWitness struct {
	TA               *TypedArray
	CachedByteLength int64 // MaxLengthSentinel means detached at snapshot time
}

// MakeTypedArrayWithBufferWitnessRecord snapshots byte_length under the
// given order. order is accepted for symmetry with the spec text; this
// engine has one memory model for ordinary heap reads (SeqCst) since
// only SharedArrayBuffer bytes are genuinely concurrent, and those go
// through internal/vm/atomics instead.
func MakeTypedArrayWithBufferWitnessRecord(h *heapobj.Heap, ta *TypedArray, order arraybuffer.MemoryOrder) BufferWitness {
	buf := arraybuffer.Of(h, ta.Buffer)
	if buf.Detached {
		return BufferWitness{TA: ta, CachedByteLength: MaxLengthSentinel}
	}
	return BufferWitness{TA: ta, CachedByteLength: int64(buf.ByteLength())}
}

// IsTypedArrayOutOfBounds: true iff the buffer is detached, or the TA's
// declared byte window lies outside the buffer's current byte length
// (spec.md §3 invariant / §4.3).
func IsTypedArrayOutOfBounds(h *heapobj.Heap, w BufferWitness) bool {
	if w.CachedByteLength == MaxLengthSentinel {
		return true
	}
	ta := w.TA
	if ta.ByteLength != nil {
		return int64(ta.ByteOffset+*ta.ByteLength) > w.CachedByteLength
	}
	// auto-length: out of bounds only if the offset itself no longer fits
	return int64(ta.ByteOffset) > w.CachedByteLength
}

// TypedArrayLength requires not-out-of-bounds (callers check first).
func TypedArrayLength(w BufferWitness) int {
	ta := w.TA
	if ta.ArrayLength != nil {
		return *ta.ArrayLength
	}
	avail := w.CachedByteLength - int64(ta.ByteOffset)
	if avail < 0 {
		return 0
	}
	return int(avail) / ta.ElementType.Size()
}

// TypedArrayByteLength: zero if out-of-bounds, else length*size or the
// concrete byte length.
func TypedArrayByteLength(h *heapobj.Heap, w BufferWitness) int {
	if IsTypedArrayOutOfBounds(h, w) {
		return 0
	}
	if w.TA.ByteLength != nil {
		return *w.TA.ByteLength
	}
	return TypedArrayLength(w) * w.TA.ElementType.Size()
}

// IsTypedArrayFixedLength: true when array length is concrete and
// (buffer is not resizable or buffer is shared).
func IsTypedArrayFixedLength(h *heapobj.Heap, ta *TypedArray) bool {
	if ta.ArrayLength == nil {
		return false
	}
	buf := arraybuffer.Of(h, ta.Buffer)
	return !buf.IsResizable() || buf.Shared
}

// IsValidIntegerIndex: non-negative integer in [0, length) on a
// non-detached, in-bounds TA.
func IsValidIntegerIndex(h *heapobj.Heap, ta *TypedArray, idx int64) bool {
	w := MakeTypedArrayWithBufferWitnessRecord(h, ta, arraybuffer.Unordered)
	if IsTypedArrayOutOfBounds(h, w) {
		return false
	}
	if idx < 0 {
		return false
	}
	return idx < int64(TypedArrayLength(w))
}

func byteIndexOf(ta *TypedArray, idx int64) int {
	return ta.ByteOffset + int(idx)*ta.ElementType.Size()
}

// TypedArrayGetElement reads one element via GetValueFromBuffer with
// native (little-endian, matching almost all real hardware and what
// ECMA-262 assumes for the unqualified TypedArray accessors) byte order
// and the `unordered` bounds-check / `seq-cst` value semantics spec.md
// §5 calls for.
func TypedArrayGetElement(h *heapobj.Heap, ta *TypedArray, idx int64) (value.Value, error) {
	if !IsValidIntegerIndex(h, ta, idx) {
		return value.Undefined(), nil
	}
	buf := arraybuffer.Of(h, ta.Buffer)
	return arraybuffer.GetValueFromBuffer(buf, byteIndexOf(ta, idx), ta.ElementType, true, arraybuffer.SeqCst)
}

// TypedArraySetElement coerces v to the element's numeric type then
// writes it; an invalid index is silently a no-op (spec.md §4.3 table),
// not an error — ECMA-262's integer-indexed exotic [[Set]] never throws
// for an out-of-range index.
func TypedArraySetElement(h *heapobj.Heap, ta *TypedArray, idx int64, v value.Value) error {
	if !IsValidIntegerIndex(h, ta, idx) {
		return nil
	}
	buf := arraybuffer.Of(h, ta.Buffer)
	return arraybuffer.SetValueInBuffer(buf, byteIndexOf(ta, idx), ta.ElementType, true, v, arraybuffer.SeqCst)
}

// ValidateTypedArray checks TypedArray nature and not-out-of-bounds,
// throwing TypeError otherwise (spec.md §4.3).
func ValidateTypedArray(h *heapobj.Heap, v value.Value, order arraybuffer.MemoryOrder) (*TypedArray, error) {
	if !v.IsObject() || h.Object(v).Kind != heapobj.KindTypedArray {
		return nil, errors.TypeError("value is not a TypedArray")
	}
	ta := Of(h, v)
	w := MakeTypedArrayWithBufferWitnessRecord(h, ta, order)
	if IsTypedArrayOutOfBounds(h, w) {
		return nil, errors.TypeError("TypedArray is out of bounds")
	}
	return ta, nil
}

// AllocateTypedArrayBuffer allocates a fresh ArrayBuffer of
// length*element_size bytes and returns it; binding it to a TypedArray
// is left to the caller.
func AllocateTypedArrayBuffer(h *heapobj.Heap, arrayBufferProto value.Value, t ElementType, length int) (value.Value, error) {
	bufVal, _ := arraybuffer.Create(h, arrayBufferProto, length*t.Size(), arraybuffer.NoMaxByteLength)
	return bufVal, nil
}

// InitializeTypedArrayFromArrayBuffer validates byte_offset alignment,
// resolves auto vs explicit lengths per buffer resizability, and binds.
// Throws RangeError on misalignment/bounds violation, TypeError on
// detachment.
func InitializeTypedArrayFromArrayBuffer(h *heapobj.Heap, proto, bufferValue value.Value, t ElementType, byteOffset int, length *int) (value.Value, error) {
	buf := arraybuffer.Of(h, bufferValue)
	if buf.Detached {
		return value.Value{}, errors.TypeError("cannot view a detached ArrayBuffer")
	}
	if byteOffset%t.Size() != 0 {
		return value.Value{}, errors.RangeError("start offset %d is not a multiple of %d", byteOffset, t.Size())
	}
	if length == nil {
		if !buf.IsResizable() {
			bl := buf.ByteLength() - byteOffset
			if bl < 0 || bl%t.Size() != 0 {
				return value.Value{}, errors.RangeError("buffer length is not compatible with a whole number of elements")
			}
			v, _, err := New(h, proto, bufferValue, t, byteOffset, &bl, nil)
			return v, err
		}
		v, _, err := New(h, proto, bufferValue, t, byteOffset, nil, nil)
		return v, err
	}
	byteLen := *length * t.Size()
	if byteOffset+byteLen > buf.ByteLength() {
		return value.Value{}, errors.RangeError("invalid typed array length")
	}
	arrLen := *length
	v, _, err := New(h, proto, bufferValue, t, byteOffset, &byteLen, &arrLen)
	return v, err
}

// InitializeTypedArrayFromList allocates a TypedArray sized to len(list)
// then assigns positional elements via ordinary [[Set]] (here,
// TypedArraySetElement).
func InitializeTypedArrayFromList(h *heapobj.Heap, proto, arrayBufferProto value.Value, t ElementType, list []value.Value) (value.Value, error) {
	bufVal, err := AllocateTypedArrayBuffer(h, arrayBufferProto, t, len(list))
	if err != nil {
		return value.Value{}, err
	}
	arrLen := len(list)
	byteLen := arrLen * t.Size()
	v, ta, err := New(h, proto, bufVal, t, 0, &byteLen, &arrLen)
	if err != nil {
		return value.Value{}, err
	}
	for i, elem := range list {
		if err := TypedArraySetElement(h, ta, int64(i), elem); err != nil {
			return value.Value{}, err
		}
	}
	return v, nil
}

// CopyWithin implements %TypedArray%.prototype.copyWithin's byte-level
// move, aliasing-safe via Go's copy() (spec.md §8 scenario 4: new
// Int32Array([1,2,3,4,5]).copyWithin(0,2) => [3,4,5,4,5]).
func CopyWithin(h *heapobj.Heap, ta *TypedArray, target, start, end int64) error {
	w := MakeTypedArrayWithBufferWitnessRecord(h, ta, arraybuffer.Unordered)
	if IsTypedArrayOutOfBounds(h, w) {
		return errors.TypeError("TypedArray is out of bounds")
	}
	length := int64(TypedArrayLength(w))
	target = clampIndex(target, length)
	start = clampIndex(start, length)
	end = clampIndex(end, length)
	count := end - start
	if count > length-target {
		count = length - target
	}
	if count <= 0 {
		return nil
	}
	buf := arraybuffer.Of(h, ta.Buffer)
	size := ta.ElementType.Size()
	srcOff := byteIndexOf(ta, start)
	dstOff := byteIndexOf(ta, target)
	n := int(count) * size
	copy(buf.Bytes[dstOff:dstOff+n], buf.Bytes[srcOff:srcOff+n])
	return nil
}

func clampIndex(i, length int64) int64 {
	if i < 0 {
		i += length
		if i < 0 {
			i = 0
		}
	}
	if i > length {
		i = length
	}
	return i
}
