package heapobj

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ecmacore/jsvm/internal/value"
)

func TestInternStringDeduplicates(t *testing.T) {
	h := NewHeap()
	a := h.InternString("hello")
	b := h.InternString("hello")
	if a != b {
		t.Fatalf("InternString returned distinct indices for equal strings: %d, %d", a, b)
	}
	if got := h.Strings.MustGet(a); got != "hello" {
		t.Fatalf("Strings.MustGet(%d) = %q, want \"hello\"", a, got)
	}
}

func TestStringValueResolvesBothInlineAndHeapForms(t *testing.T) {
	h := NewHeap()

	inline := value.SmallStringValue("hi")
	if got := h.StringValue(inline); got != "hi" {
		t.Fatalf("StringValue(inline) = %q, want \"hi\"", got)
	}

	long := strings.Repeat("x", value.MaxSmallStringLen+1)
	boxed := value.String(long, h.InternString)
	if boxed.Tag() != value.TagString {
		t.Fatalf("over-length string should have interned to the heap, got tag %v", boxed.Tag())
	}
	if got := h.StringValue(boxed); got != long {
		t.Fatalf("StringValue(boxed) = %q, want the original string", got)
	}
}

func TestNewBigIntChoosesSmallOrHeapByMagnitude(t *testing.T) {
	h := NewHeap()
	small := h.NewBigInt(big.NewInt(42))
	if small.Tag() != value.TagBigIntSmall {
		t.Fatalf("NewBigInt(42) tag = %v, want TagBigIntSmall", small.Tag())
	}

	huge := new(big.Int)
	huge.SetString("123456789012345678901234567890", 10)
	boxed := h.NewBigInt(huge)
	if boxed.Tag() != value.TagBigIntHeap {
		t.Fatalf("NewBigInt(huge) tag = %v, want TagBigIntHeap", boxed.Tag())
	}
}

func TestNewObjectAndFindPropertyWalksPrototypeChain(t *testing.T) {
	h := NewHeap()
	protoVal, proto := h.NewObject(KindOrdinary, value.Null())
	key := value.NewPropertyKey(value.SmallStringValue("greeting"))
	proto.DefineOwnProperty(key, &PropertyDescriptor{
		Value: value.SmallStringValue("hi"), Writable: true, Enumerable: true, Configurable: true,
	})

	childVal, _ := h.NewObject(KindOrdinary, protoVal)

	pd, owner, found := h.FindProperty(childVal, key)
	if !found {
		t.Fatal("expected FindProperty to find the inherited property")
	}
	if owner != protoVal {
		t.Fatalf("FindProperty owner = %v, want the prototype object", owner)
	}
	if pd.Value.SmallStringValue() != "hi" {
		t.Fatalf("FindProperty value = %q, want \"hi\"", pd.Value.SmallStringValue())
	}

	if !h.HasProperty(childVal, key) {
		t.Fatal("HasProperty should see the inherited property too")
	}
	missing := value.NewPropertyKey(value.SmallStringValue("nope"))
	if h.HasProperty(childVal, missing) {
		t.Fatal("HasProperty should not find an undefined property")
	}
}

func TestObjectOwnPropertyKeysOrdersIndicesFirst(t *testing.T) {
	h := NewHeap()
	_, obj := h.NewObject(KindOrdinary, value.Null())

	keyB := value.NewPropertyKey(value.SmallStringValue("b"))
	keyA := value.NewPropertyKey(value.SmallStringValue("a"))
	key1 := value.NewPropertyKey(value.SmallStringValue("1"))
	key0 := value.NewPropertyKey(value.SmallStringValue("0"))

	for _, k := range []value.PropertyKey{keyB, keyA, key1, key0} {
		obj.DefineOwnProperty(k, &PropertyDescriptor{Value: value.Boolean(true), Enumerable: true})
	}

	got := obj.OwnPropertyKeys()
	want := []value.PropertyKey{key0, key1, keyB, keyA}
	if len(got) != len(want) {
		t.Fatalf("OwnPropertyKeys() = %v, want %v", got, want)
	}
	for i := range want {
		if !value.Equal(got[i], want[i]) {
			t.Fatalf("OwnPropertyKeys()[%d] = %v, want %v", i, got[i].Value(), want[i].Value())
		}
	}
}

func TestObjectDeleteOwnPropertyRemovesFromInsertionOrder(t *testing.T) {
	h := NewHeap()
	_, obj := h.NewObject(KindOrdinary, value.Null())
	key := value.NewPropertyKey(value.SmallStringValue("x"))
	obj.DefineOwnProperty(key, &PropertyDescriptor{Value: value.SmallInteger(1)})

	if !obj.DeleteOwnProperty(key) {
		t.Fatal("DeleteOwnProperty should report success")
	}
	if _, ok := obj.GetOwnProperty(key); ok {
		t.Fatal("property should be gone after delete")
	}
	if len(obj.OwnPropertyKeys()) != 0 {
		t.Fatalf("expected InsertionOrder to drop the deleted key, got %v", obj.OwnPropertyKeys())
	}
}

func TestHeapStatsTracksLiveAndCapacity(t *testing.T) {
	h := NewHeap()
	h.NewObject(KindOrdinary, value.Null())
	h.NewObject(KindOrdinary, value.Null())

	stats := h.Stats()
	if stats.Objects != 2 {
		t.Fatalf("Stats().Objects = %d, want 2", stats.Objects)
	}
	if stats.ObjectsCap < 2 {
		t.Fatalf("Stats().ObjectsCap = %d, want at least 2", stats.ObjectsCap)
	}
}
