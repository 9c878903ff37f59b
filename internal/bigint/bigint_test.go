package bigint

import (
	"math"
	"testing"

	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
)

func TestAddPromotesToHeapOnOverflow(t *testing.T) {
	h := heapobj.NewHeap()
	a := value.BigIntSmall(math.MaxInt64)
	b := value.BigIntSmall(math.MaxInt64)
	sum := Add(h, a, b)
	if sum.Tag() != value.TagBigIntHeap {
		t.Fatalf("expected overflowing sum to promote to heap bigint, got tag %v", sum.Tag())
	}
	if ToString(h, sum, 10) != "18446744073709551614" {
		t.Fatalf("unexpected sum %s", ToString(h, sum, 10))
	}
}

func TestDivByZeroThrows(t *testing.T) {
	h := heapobj.NewHeap()
	a := value.BigIntSmall(10)
	zero := value.BigIntSmall(0)
	if _, err := Div(h, a, zero); err == nil {
		t.Fatal("expected division by zero to error")
	}
}

func TestModTruncatesTowardZero(t *testing.T) {
	h := heapobj.NewHeap()
	a := value.BigIntSmall(-7)
	b := value.BigIntSmall(2)
	r, err := Mod(h, a, b)
	if err != nil {
		t.Fatalf("Mod: %v", err)
	}
	if r.BigIntSmallValue() != -1 {
		t.Fatalf("expected -7 %% 2 == -1 (truncated), got %d", r.BigIntSmallValue())
	}
}

func TestExpNegativeExponentThrows(t *testing.T) {
	h := heapobj.NewHeap()
	if _, err := Exp(h, value.BigIntSmall(2), value.BigIntSmall(-1)); err == nil {
		t.Fatal("expected negative exponent to error")
	}
}

func TestParseRoundTrips(t *testing.T) {
	h := heapobj.NewHeap()
	v, err := Parse(h, "123456789012345678901234567890", 10)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := ToString(h, v, 10); got != "123456789012345678901234567890" {
		t.Fatalf("round trip mismatch: %s", got)
	}
}

func TestParseInvalidLiteralErrors(t *testing.T) {
	h := heapobj.NewHeap()
	if _, err := Parse(h, "not-a-number", 10); err == nil {
		t.Fatal("expected syntax error")
	}
}
