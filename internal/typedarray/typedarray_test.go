package typedarray

import (
	"testing"

	"github.com/ecmacore/jsvm/internal/arraybuffer"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
)

func TestInitializeTypedArrayFromList(t *testing.T) {
	h := heapobj.NewHeap()
	v, err := InitializeTypedArrayFromList(h, value.Null(), value.Null(), Int32, []value.Value{
		value.SmallInteger(1), value.SmallInteger(2), value.SmallInteger(3),
	})
	if err != nil {
		t.Fatalf("InitializeTypedArrayFromList: %v", err)
	}
	ta := Of(h, v)
	w := MakeTypedArrayWithBufferWitnessRecord(h, ta, arraybuffer.SeqCst)
	if got := TypedArrayLength(w); got != 3 {
		t.Fatalf("TypedArrayLength = %d, want 3", got)
	}
	for i, want := range []int64{1, 2, 3} {
		got, err := TypedArrayGetElement(h, ta, int64(i))
		if err != nil {
			t.Fatalf("TypedArrayGetElement(%d): %v", i, err)
		}
		if got.SmallIntegerValue() != want {
			t.Fatalf("element[%d] = %d, want %d", i, got.SmallIntegerValue(), want)
		}
	}
}

func TestTypedArraySetElementSilentlyNoOpsOutOfRange(t *testing.T) {
	h := heapobj.NewHeap()
	v, err := InitializeTypedArrayFromList(h, value.Null(), value.Null(), Int32, []value.Value{value.SmallInteger(1)})
	if err != nil {
		t.Fatalf("InitializeTypedArrayFromList: %v", err)
	}
	ta := Of(h, v)
	if err := TypedArraySetElement(h, ta, 5, value.SmallInteger(99)); err != nil {
		t.Fatalf("out-of-range Set should silently no-op, got error: %v", err)
	}
	got, err := TypedArrayGetElement(h, ta, 5)
	if err != nil {
		t.Fatalf("TypedArrayGetElement(5): %v", err)
	}
	if !got.IsUndefined() {
		t.Fatalf("out-of-range Get should return undefined, got tag %v", got.Tag())
	}
}

func TestIsTypedArrayOutOfBoundsAfterDetach(t *testing.T) {
	h := heapobj.NewHeap()
	v, err := InitializeTypedArrayFromList(h, value.Null(), value.Null(), Int32, []value.Value{value.SmallInteger(1)})
	if err != nil {
		t.Fatalf("InitializeTypedArrayFromList: %v", err)
	}
	ta := Of(h, v)
	buf := arraybuffer.Of(h, ta.Buffer)

	w := MakeTypedArrayWithBufferWitnessRecord(h, ta, arraybuffer.SeqCst)
	if IsTypedArrayOutOfBounds(h, w) {
		t.Fatal("a freshly created TypedArray should not be out of bounds")
	}

	buf.Detach()
	w = MakeTypedArrayWithBufferWitnessRecord(h, ta, arraybuffer.SeqCst)
	if w.CachedByteLength != MaxLengthSentinel {
		t.Fatalf("CachedByteLength after detach = %d, want the sentinel", w.CachedByteLength)
	}
	if !IsTypedArrayOutOfBounds(h, w) {
		t.Fatal("a TypedArray over a detached buffer should be out of bounds")
	}
}

func TestIsTypedArrayOutOfBoundsAfterShrinkWithFixedLength(t *testing.T) {
	h := heapobj.NewHeap()
	bufVal, buf := arraybuffer.Create(h, value.Null(), 16, 16)
	byteLen := 16
	arrLen := 4
	v, ta, err := New(h, value.Null(), bufVal, Int32, 0, &byteLen, &arrLen)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = v

	if err := buf.Resize(8); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	w := MakeTypedArrayWithBufferWitnessRecord(h, ta, arraybuffer.SeqCst)
	if !IsTypedArrayOutOfBounds(h, w) {
		t.Fatal("a fixed-length view wider than the shrunk buffer should be out of bounds")
	}
}

func TestTypedArrayLengthTracksAutoLengthAfterGrow(t *testing.T) {
	h := heapobj.NewHeap()
	bufVal, buf := arraybuffer.Create(h, value.Null(), 8, 32)
	v, ta, err := New(h, value.Null(), bufVal, Int32, 0, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = v

	w := MakeTypedArrayWithBufferWitnessRecord(h, ta, arraybuffer.SeqCst)
	if got := TypedArrayLength(w); got != 2 {
		t.Fatalf("auto-length TypedArrayLength over an 8-byte buffer of Int32 = %d, want 2", got)
	}

	if err := buf.Resize(16); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	w = MakeTypedArrayWithBufferWitnessRecord(h, ta, arraybuffer.SeqCst)
	if got := TypedArrayLength(w); got != 4 {
		t.Fatalf("auto-length TypedArrayLength after growing to 16 bytes = %d, want 4", got)
	}
}

func TestNewRejectsMisalignedByteOffset(t *testing.T) {
	h := heapobj.NewHeap()
	bufVal, _ := arraybuffer.Create(h, value.Null(), 16, arraybuffer.NoMaxByteLength)
	if _, _, err := New(h, value.Null(), bufVal, Int32, 3, nil, nil); err == nil {
		t.Fatal("expected a RangeError for a byteOffset not aligned to the element size")
	}
}

func TestCopyWithinMovesOverlappingRangeCorrectly(t *testing.T) {
	h := heapobj.NewHeap()
	v, err := InitializeTypedArrayFromList(h, value.Null(), value.Null(), Int32, []value.Value{
		value.SmallInteger(1), value.SmallInteger(2), value.SmallInteger(3), value.SmallInteger(4), value.SmallInteger(5),
	})
	if err != nil {
		t.Fatalf("InitializeTypedArrayFromList: %v", err)
	}
	ta := Of(h, v)

	if err := CopyWithin(h, ta, 0, 2, 5); err != nil {
		t.Fatalf("CopyWithin: %v", err)
	}

	want := []int64{3, 4, 5, 4, 5}
	for i, w := range want {
		got, err := TypedArrayGetElement(h, ta, int64(i))
		if err != nil {
			t.Fatalf("TypedArrayGetElement(%d): %v", i, err)
		}
		if got.SmallIntegerValue() != w {
			t.Fatalf("element[%d] = %d, want %d", i, got.SmallIntegerValue(), w)
		}
	}
}

func TestIsValidIntegerIndexRejectsNegativeAndOutOfRange(t *testing.T) {
	h := heapobj.NewHeap()
	v, err := InitializeTypedArrayFromList(h, value.Null(), value.Null(), Int32, []value.Value{value.SmallInteger(1)})
	if err != nil {
		t.Fatalf("InitializeTypedArrayFromList: %v", err)
	}
	ta := Of(h, v)

	if IsValidIntegerIndex(h, ta, -1) {
		t.Error("negative index should be invalid")
	}
	if !IsValidIntegerIndex(h, ta, 0) {
		t.Error("index 0 on a length-1 array should be valid")
	}
	if IsValidIntegerIndex(h, ta, 1) {
		t.Error("index equal to length should be invalid")
	}
}

func TestValidateTypedArrayRejectsNonTypedArrayAndOutOfBounds(t *testing.T) {
	h := heapobj.NewHeap()

	notTA, _ := h.NewObject(heapobj.KindOrdinary, value.Null())
	if _, err := ValidateTypedArray(h, notTA, arraybuffer.SeqCst); err == nil {
		t.Fatal("expected ValidateTypedArray to reject a non-TypedArray object")
	}

	v, err := InitializeTypedArrayFromList(h, value.Null(), value.Null(), Int32, []value.Value{value.SmallInteger(1)})
	if err != nil {
		t.Fatalf("InitializeTypedArrayFromList: %v", err)
	}
	ta := Of(h, v)
	arraybuffer.Of(h, ta.Buffer).Detach()
	if _, err := ValidateTypedArray(h, v, arraybuffer.SeqCst); err == nil {
		t.Fatal("expected ValidateTypedArray to reject a TypedArray over a detached buffer")
	}
}
