package atomics

import (
	"encoding/binary"

	"github.com/ecmacore/jsvm/internal/arraybuffer"
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/value"
)

// Ops bundles a Coordinator with the read-modify-write family
// (spec.md §4.3: load, store, add, sub, and, or, xor, exchange,
// compareExchange). Every op here takes the element's byte offset
// within the buffer, already validated against the TypedArray's bounds
// by the caller (internal/vm resolves the element index to a byte
// offset before reaching this package).
type Ops struct {
	*Coordinator
	// rmw serializes read-modify-write sequences across the whole
	// agent. A real engine relies on hardware compare-and-swap per
	// element; this engine has one goroutine driving the VM at a time
	// except for Atomics.wait/waitAsync waiter goroutines, so a single
	// mutex is sufficient to make each op atomic with respect to them.
	rmw chan struct{}
}

func NewOps() *Ops {
	ops := &Ops{Coordinator: NewCoordinator(), rmw: make(chan struct{}, 1)}
	ops.rmw <- struct{}{}
	return ops
}

func (o *Ops) lock()   { <-o.rmw }
func (o *Ops) unlock() { o.rmw <- struct{}{} }

// IntegerElementType reports whether t is one of the eight integer
// TypedArray kinds Atomics operations accept (spec.md §4.3). The
// read-modify-write ops reject every other kind (Float32, Float64,
// Float16, Uint8Clamped) with a TypeError.
func IntegerElementType(t arraybuffer.ElementType) bool {
	switch t {
	case arraybuffer.Int8, arraybuffer.Uint8, arraybuffer.Int16, arraybuffer.Uint16,
		arraybuffer.Int32, arraybuffer.Uint32, arraybuffer.BigInt64, arraybuffer.BigUint64:
		return true
	default:
		return false
	}
}

func (o *Ops) Load(buf *arraybuffer.Buffer, byteIndex int, t arraybuffer.ElementType) (value.Value, error) {
	o.lock()
	defer o.unlock()
	return arraybuffer.GetValueFromBuffer(buf, byteIndex, t, true, arraybuffer.SeqCst)
}

func (o *Ops) Store(buf *arraybuffer.Buffer, byteIndex int, t arraybuffer.ElementType, v value.Value) (value.Value, error) {
	o.lock()
	defer o.unlock()
	if err := arraybuffer.SetValueInBuffer(buf, byteIndex, t, true, v, arraybuffer.SeqCst); err != nil {
		return value.Value{}, err
	}
	return v, nil
}

// rawOp reads the raw element as an int64 (sign-extended for signed
// kinds, zero-extended otherwise), lets apply compute the new raw
// value, writes it back, and returns the ORIGINAL value — matching
// every Atomics RMW op's "returns the old value" contract.
func (o *Ops) rawOp(buf *arraybuffer.Buffer, byteIndex int, t arraybuffer.ElementType, apply func(old int64) int64) (value.Value, error) {
	if !IntegerElementType(t) {
		return value.Value{}, errors.TypeError("Atomics operations require an integer TypedArray")
	}
	o.lock()
	defer o.unlock()

	if buf.Detached {
		return value.Value{}, errors.TypeError("cannot operate on a detached ArrayBuffer")
	}
	size := t.Size()
	if byteIndex < 0 || byteIndex+size > len(buf.Bytes) {
		return value.Value{}, errors.RangeError("byte index %d out of bounds", byteIndex)
	}
	raw := buf.Bytes[byteIndex : byteIndex+size]

	old := readRaw(raw, t)
	newVal := apply(old)
	writeRaw(raw, t, newVal)
	return rawToValue(old, t), nil
}

func readRaw(raw []byte, t arraybuffer.ElementType) int64 {
	switch t {
	case arraybuffer.Int8:
		return int64(int8(raw[0]))
	case arraybuffer.Uint8:
		return int64(raw[0])
	case arraybuffer.Int16:
		return int64(int16(binary.LittleEndian.Uint16(raw)))
	case arraybuffer.Uint16:
		return int64(binary.LittleEndian.Uint16(raw))
	case arraybuffer.Int32:
		return int64(int32(binary.LittleEndian.Uint32(raw)))
	case arraybuffer.Uint32:
		return int64(binary.LittleEndian.Uint32(raw))
	case arraybuffer.BigInt64, arraybuffer.BigUint64:
		return int64(binary.LittleEndian.Uint64(raw))
	default:
		return 0
	}
}

func writeRaw(raw []byte, t arraybuffer.ElementType, v int64) {
	switch t {
	case arraybuffer.Int8, arraybuffer.Uint8:
		raw[0] = byte(v)
	case arraybuffer.Int16, arraybuffer.Uint16:
		binary.LittleEndian.PutUint16(raw, uint16(v))
	case arraybuffer.Int32, arraybuffer.Uint32:
		binary.LittleEndian.PutUint32(raw, uint32(v))
	case arraybuffer.BigInt64, arraybuffer.BigUint64:
		binary.LittleEndian.PutUint64(raw, uint64(v))
	}
}

func rawToValue(raw int64, t arraybuffer.ElementType) value.Value {
	if t == arraybuffer.BigInt64 || t == arraybuffer.BigUint64 {
		return value.BigIntSmall(raw)
	}
	return value.SmallInteger(raw)
}

func asRaw(v value.Value, t arraybuffer.ElementType) int64 {
	if t.IsBigIntType() {
		return v.BigIntSmallValue()
	}
	return v.SmallIntegerValue()
}

func (o *Ops) Add(buf *arraybuffer.Buffer, byteIndex int, t arraybuffer.ElementType, operand value.Value) (value.Value, error) {
	delta := asRaw(operand, t)
	return o.rawOp(buf, byteIndex, t, func(old int64) int64 { return old + delta })
}

func (o *Ops) Sub(buf *arraybuffer.Buffer, byteIndex int, t arraybuffer.ElementType, operand value.Value) (value.Value, error) {
	delta := asRaw(operand, t)
	return o.rawOp(buf, byteIndex, t, func(old int64) int64 { return old - delta })
}

func (o *Ops) And(buf *arraybuffer.Buffer, byteIndex int, t arraybuffer.ElementType, operand value.Value) (value.Value, error) {
	mask := asRaw(operand, t)
	return o.rawOp(buf, byteIndex, t, func(old int64) int64 { return old & mask })
}

func (o *Ops) Or(buf *arraybuffer.Buffer, byteIndex int, t arraybuffer.ElementType, operand value.Value) (value.Value, error) {
	mask := asRaw(operand, t)
	return o.rawOp(buf, byteIndex, t, func(old int64) int64 { return old | mask })
}

func (o *Ops) Xor(buf *arraybuffer.Buffer, byteIndex int, t arraybuffer.ElementType, operand value.Value) (value.Value, error) {
	mask := asRaw(operand, t)
	return o.rawOp(buf, byteIndex, t, func(old int64) int64 { return old ^ mask })
}

func (o *Ops) Exchange(buf *arraybuffer.Buffer, byteIndex int, t arraybuffer.ElementType, operand value.Value) (value.Value, error) {
	replacement := asRaw(operand, t)
	return o.rawOp(buf, byteIndex, t, func(int64) int64 { return replacement })
}

// CompareExchange writes replacement only if the current value equals
// expected, always returning the value observed before the attempt.
func (o *Ops) CompareExchange(buf *arraybuffer.Buffer, byteIndex int, t arraybuffer.ElementType, expected, replacement value.Value) (value.Value, error) {
	want := asRaw(expected, t)
	repl := asRaw(replacement, t)
	return o.rawOp(buf, byteIndex, t, func(old int64) int64 {
		if old == want {
			return repl
		}
		return old
	})
}
