package arraybuffer

import (
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
)

// DataView is the Extra payload for a KindDataView object: a flexible,
// endian-choosing window onto a buffer's bytes (spec.md §3).
type DataView struct {
	Buffer       value.Value // the viewed ArrayBuffer/SharedArrayBuffer object
	ByteOffset   int
	ByteLength   int  // ignored when AutoLength
	AutoLength   bool // tracks the buffer's current length minus ByteOffset
}

func NewDataView(h *heapobj.Heap, dataViewProto, bufferValue value.Value, byteOffset int, byteLength int, autoLength bool) (value.Value, error) {
	buf := Of(h, bufferValue)
	if buf.Detached {
		return value.Value{}, errors.TypeError("cannot create a DataView on a detached buffer")
	}
	if byteOffset < 0 || byteOffset > buf.ByteLength() {
		return value.Value{}, errors.RangeError("byteOffset %d out of bounds", byteOffset)
	}
	if !autoLength && byteOffset+byteLength > buf.ByteLength() {
		return value.Value{}, errors.RangeError("byteOffset+byteLength exceeds buffer length")
	}
	v, obj := h.NewObject(heapobj.KindDataView, dataViewProto)
	obj.Extra = &DataView{
		Buffer:     bufferValue,
		ByteOffset: byteOffset,
		ByteLength: byteLength,
		AutoLength: autoLength,
	}
	return v, nil
}

func DataViewOf(h *heapobj.Heap, v value.Value) *DataView {
	return h.Object(v).Extra.(*DataView)
}

// EffectiveByteLength resolves ByteLength for an auto-length view that
// tracks a resizable buffer (same "auto means track the buffer" rule
// TypedArray uses, spec.md §3).
func (dv *DataView) EffectiveByteLength(h *heapobj.Heap) int {
	buf := Of(h, dv.Buffer)
	if buf.Detached {
		return 0
	}
	if dv.AutoLength {
		n := buf.ByteLength() - dv.ByteOffset
		if n < 0 {
			return 0
		}
		return n
	}
	return dv.ByteLength
}

func (dv *DataView) IsOutOfBounds(h *heapobj.Heap) bool {
	buf := Of(h, dv.Buffer)
	if buf.Detached {
		return true
	}
	if dv.AutoLength {
		return dv.ByteOffset > buf.ByteLength()
	}
	return dv.ByteOffset+dv.ByteLength > buf.ByteLength()
}

// GetViewValue / SetViewValue implement the DataView.prototype.get*/set*
// family: get/set one element at a byte offset relative to the view,
// honoring the caller-chosen endianness.
func GetViewValue(h *heapobj.Heap, dv *DataView, byteOffset int, t ElementType, littleEndian bool) (value.Value, error) {
	if dv.IsOutOfBounds(h) {
		return value.Value{}, errors.TypeError("DataView is out of bounds")
	}
	length := dv.EffectiveByteLength(h)
	if byteOffset < 0 || byteOffset+t.Size() > length {
		return value.Value{}, errors.RangeError("offset %d out of bounds for view of length %d", byteOffset, length)
	}
	buf := Of(h, dv.Buffer)
	return GetValueFromBuffer(buf, dv.ByteOffset+byteOffset, t, littleEndian, SeqCst)
}

func SetViewValue(h *heapobj.Heap, dv *DataView, byteOffset int, t ElementType, littleEndian bool, v value.Value) error {
	if dv.IsOutOfBounds(h) {
		return errors.TypeError("DataView is out of bounds")
	}
	length := dv.EffectiveByteLength(h)
	if byteOffset < 0 || byteOffset+t.Size() > length {
		return errors.RangeError("offset %d out of bounds for view of length %d", byteOffset, length)
	}
	buf := Of(h, dv.Buffer)
	return SetValueInBuffer(buf, dv.ByteOffset+byteOffset, t, littleEndian, v, SeqCst)
}
