package arraybuffer

import (
	"testing"

	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
)

func TestCreateAndOf(t *testing.T) {
	h := heapobj.NewHeap()
	v, buf := Create(h, value.Null(), 8, NoMaxByteLength)
	if buf.ByteLength() != 8 {
		t.Fatalf("ByteLength() = %d, want 8", buf.ByteLength())
	}
	if Of(h, v) != buf {
		t.Fatal("Of(v) did not return the same Buffer Create returned")
	}
	if buf.IsResizable() {
		t.Fatal("a NoMaxByteLength buffer should not be resizable")
	}
}

func TestDetachIsMonotonicAndZerosLength(t *testing.T) {
	h := heapobj.NewHeap()
	_, buf := Create(h, value.Null(), 4, NoMaxByteLength)
	buf.Detach()
	if !buf.Detached || buf.ByteLength() != 0 {
		t.Fatalf("after Detach: Detached=%v ByteLength=%d, want true, 0", buf.Detached, buf.ByteLength())
	}
	buf.Detach() // must not panic on an already-detached buffer
	if !buf.Detached {
		t.Fatal("Detach should remain sticky")
	}
}

func TestResizeGrowsAndShrinksWithinMax(t *testing.T) {
	h := heapobj.NewHeap()
	_, buf := Create(h, value.Null(), 4, 16)

	if err := buf.Resize(10); err != nil {
		t.Fatalf("Resize(10): %v", err)
	}
	if buf.ByteLength() != 10 {
		t.Fatalf("ByteLength() after grow = %d, want 10", buf.ByteLength())
	}

	if err := buf.Resize(2); err != nil {
		t.Fatalf("Resize(2): %v", err)
	}
	if buf.ByteLength() != 2 {
		t.Fatalf("ByteLength() after shrink = %d, want 2", buf.ByteLength())
	}

	if err := buf.Resize(17); err == nil {
		t.Fatal("Resize past MaxByteLength should error")
	}
}

func TestResizeRejectsFixedLengthOrDetachedBuffer(t *testing.T) {
	h := heapobj.NewHeap()
	_, fixed := Create(h, value.Null(), 4, NoMaxByteLength)
	if err := fixed.Resize(8); err == nil {
		t.Fatal("Resize on a fixed-length buffer should error")
	}

	_, resizable := Create(h, value.Null(), 4, 16)
	resizable.Detach()
	if err := resizable.Resize(8); err == nil {
		t.Fatal("Resize on a detached buffer should error")
	}
}

func TestGrowOnlyAllowsSharedBuffersToGrow(t *testing.T) {
	h := heapobj.NewHeap()
	_, nonShared := Create(h, value.Null(), 4, 16)
	if err := nonShared.Grow(8); err == nil {
		t.Fatal("Grow on a non-shared buffer should error")
	}

	_, shared := CreateShared(h, value.Null(), 4, 16)
	if err := shared.Grow(8); err != nil {
		t.Fatalf("Grow(8): %v", err)
	}
	if err := shared.Grow(2); err == nil {
		t.Fatal("shrinking a SharedArrayBuffer via Grow should error")
	}
}

func TestGetSetValueRoundTripsEachElementType(t *testing.T) {
	tests := []struct {
		name string
		t    ElementType
		v    value.Value
		want func(value.Value) bool
	}{
		{"Int8 negative", Int8, value.SmallInteger(-5), func(v value.Value) bool { return v.SmallIntegerValue() == -5 }},
		{"Uint8", Uint8, value.SmallInteger(200), func(v value.Value) bool { return v.SmallIntegerValue() == 200 }},
		{"Int16 negative", Int16, value.SmallInteger(-1000), func(v value.Value) bool { return v.SmallIntegerValue() == -1000 }},
		{"Uint32", Uint32, value.SmallInteger(4000000000), func(v value.Value) bool { return v.SmallIntegerValue() == 4000000000 }},
		{"Float64", Float64, value.SmallFloat(3.25), func(v value.Value) bool { return v.Float64() == 3.25 }},
	}

	h := heapobj.NewHeap()
	_, buf := Create(h, value.Null(), 16, NoMaxByteLength)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := SetValueInBuffer(buf, 0, tt.t, false, tt.v, SeqCst); err != nil {
				t.Fatalf("SetValueInBuffer: %v", err)
			}
			got, err := GetValueFromBuffer(buf, 0, tt.t, false, SeqCst)
			if err != nil {
				t.Fatalf("GetValueFromBuffer: %v", err)
			}
			if !tt.want(got) {
				t.Fatalf("round trip for %s produced unexpected value tag=%v", tt.name, got.Tag())
			}
		})
	}
}

func TestUint8ClampedRoundsTiesToEven(t *testing.T) {
	if got := clampUint8(0.5); got != 0 {
		t.Errorf("clampUint8(0.5) = %d, want 0 (round to even)", got)
	}
	if got := clampUint8(1.5); got != 2 {
		t.Errorf("clampUint8(1.5) = %d, want 2 (round to even)", got)
	}
	if got := clampUint8(-1); got != 0 {
		t.Errorf("clampUint8(-1) = %d, want 0", got)
	}
	if got := clampUint8(300); got != 255 {
		t.Errorf("clampUint8(300) = %d, want 255", got)
	}
}

func TestGetValueFromBufferRejectsDetachedAndOutOfBounds(t *testing.T) {
	h := heapobj.NewHeap()
	_, buf := Create(h, value.Null(), 4, NoMaxByteLength)

	if _, err := GetValueFromBuffer(buf, 2, Uint32, false, SeqCst); err == nil {
		t.Fatal("expected an out-of-bounds read to error")
	}

	buf.Detach()
	if _, err := GetValueFromBuffer(buf, 0, Uint8, false, SeqCst); err == nil {
		t.Fatal("expected a read from a detached buffer to error")
	}
}

func TestFloat16RoundTripsThroughFloat32Widening(t *testing.T) {
	h := heapobj.NewHeap()
	_, buf := Create(h, value.Null(), 2, NoMaxByteLength)

	if err := SetValueInBuffer(buf, 0, Float16, false, value.SmallFloat(1.5), SeqCst); err != nil {
		t.Fatalf("SetValueInBuffer: %v", err)
	}
	got, err := GetValueFromBuffer(buf, 0, Float16, false, SeqCst)
	if err != nil {
		t.Fatalf("GetValueFromBuffer: %v", err)
	}
	if got.Float64() != 1.5 {
		t.Fatalf("Float16 round trip = %v, want 1.5", got.Float64())
	}
}
