package value

import "testing"

func TestSameValueTaggedIdentity(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal small integers", SmallInteger(1), SmallInteger(1), true},
		{"distinct small integers", SmallInteger(1), SmallInteger(2), false},
		{"equal small strings compare by content", SmallStringValue("a"), SmallStringValue("a"), true},
		{"distinct small strings", SmallStringValue("a"), SmallStringValue("b"), false},
		{"different tags never equal", SmallInteger(0), Undefined(), false},
		{"undefined equals undefined", Undefined(), Undefined(), true},
		{"null equals null", Null(), Null(), true},
		{"null is not undefined", Null(), Undefined(), false},
		{"small integer is not its string representation", SmallInteger(1), SmallStringValue("1"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameValueTagged(tt.a, tt.b); got != tt.want {
				t.Errorf("SameValueTagged(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestBooleanValue(t *testing.T) {
	if Boolean(true).Boolean() != true {
		t.Error("Boolean(true).Boolean() = false")
	}
	if Boolean(false).Boolean() != false {
		t.Error("Boolean(false).Boolean() = true")
	}
}

func TestNumberValuePicksNarrowestRepresentation(t *testing.T) {
	if got := NumberValue(42); got.Tag() != TagSmallInteger {
		t.Errorf("NumberValue(42) tag = %v, want TagSmallInteger", got.Tag())
	}
	if got := NumberValue(1.5); got.Tag() != TagSmallFloat {
		t.Errorf("NumberValue(1.5) tag = %v, want TagSmallFloat", got.Tag())
	}
	// +0 is an integer in the safe range, so it is a SmallInteger; -0
	// (not checked here) stays a SmallFloat so it remains distinct from +0.
	if got := NumberValue(0); got.Tag() != TagSmallInteger {
		t.Errorf("NumberValue(0) tag = %v, want TagSmallInteger", got.Tag())
	}
}

func TestFloat64WidensBothInlineNumericTags(t *testing.T) {
	if got := SmallInteger(7).Float64(); got != 7 {
		t.Errorf("SmallInteger(7).Float64() = %v, want 7", got)
	}
	if got := SmallFloat(2.5).Float64(); got != 2.5 {
		t.Errorf("SmallFloat(2.5).Float64() = %v, want 2.5", got)
	}
}

func TestFloat64PanicsOnNonNumericTag(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Float64 on a non-numeric tag to panic")
		}
	}()
	Undefined().Float64()
}

func TestHeapIndexPanicsOnInlineTag(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected HeapIndex on an inline tag to panic")
		}
	}()
	SmallInteger(1).HeapIndex()
}

func TestHeapIndexRoundTripsAcrossHeapBackedTags(t *testing.T) {
	idx := HeapIndex(5)
	tests := []Value{Object(idx), Symbol(idx), NumberFromHeap(idx), BigIntFromHeap(idx)}
	for _, v := range tests {
		if got := v.HeapIndex(); got != idx {
			t.Errorf("%v.HeapIndex() = %d, want %d", v.Tag(), got, idx)
		}
	}
}

func TestStringChoosesInlineOrHeapByLength(t *testing.T) {
	called := false
	intern := func(s string) HeapIndex {
		called = true
		return HeapIndex(1)
	}

	short := String("hi", intern)
	if short.Tag() != TagSmallString || called {
		t.Fatalf("short string should stay inline without calling intern")
	}

	long := String(string(make([]byte, MaxSmallStringLen+1)), intern)
	if long.Tag() != TagString || !called {
		t.Fatalf("over-length string should intern to the heap")
	}
}

func TestIsSafeInteger(t *testing.T) {
	if !IsSafeInteger(MaxSmallInteger) || !IsSafeInteger(MinSmallInteger) {
		t.Error("bounds of the safe-integer range should be safe")
	}
	if IsSafeInteger(MaxSmallInteger+1) || IsSafeInteger(MinSmallInteger-1) {
		t.Error("one past the safe-integer range should not be safe")
	}
}

func TestArenaAllocGetRelease(t *testing.T) {
	a := NewArena[string]()

	idx := a.Alloc("hello")
	if idx == NilIndex {
		t.Fatal("Alloc should never hand out NilIndex")
	}
	got, ok := a.Get(idx)
	if !ok || got != "hello" {
		t.Fatalf("Get(%d) = (%q, %v), want (\"hello\", true)", idx, got, ok)
	}

	a.Release(idx)
	if _, ok := a.Get(idx); ok {
		t.Fatal("Get should report false for a released index")
	}
}

func TestArenaReleaseRecyclesSlot(t *testing.T) {
	a := NewArena[int]()
	first := a.Alloc(1)
	a.Release(first)
	second := a.Alloc(2)

	if second != first {
		t.Fatalf("expected Release to free %d for reuse, got a fresh index %d", first, second)
	}
	if got, ok := a.Get(second); !ok || got != 2 {
		t.Fatalf("Get(%d) = (%d, %v), want (2, true)", second, got, ok)
	}
}

func TestArenaGetRejectsNilAndOutOfRangeIndex(t *testing.T) {
	a := NewArena[int]()
	a.Alloc(1)

	if _, ok := a.Get(NilIndex); ok {
		t.Error("Get(NilIndex) should never report live")
	}
	if _, ok := a.Get(HeapIndex(99)); ok {
		t.Error("Get on an index past the end should report not live")
	}
}

func TestArenaSetOverwritesInPlace(t *testing.T) {
	a := NewArena[int]()
	idx := a.Alloc(1)
	a.Set(idx, 2)
	if got, ok := a.Get(idx); !ok || got != 2 {
		t.Fatalf("Get(%d) after Set = (%d, %v), want (2, true)", idx, got, ok)
	}
}

func TestArenaLenCountsOnlyLiveEntries(t *testing.T) {
	a := NewArena[int]()
	first := a.Alloc(1)
	a.Alloc(2)
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
	a.Release(first)
	if a.Len() != 1 {
		t.Fatalf("Len() after Release = %d, want 1", a.Len())
	}
	if a.Cap() != 3 {
		t.Fatalf("Cap() = %d, want 3 (index 0 reserved + two allocations)", a.Cap())
	}
}
