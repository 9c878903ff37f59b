package value

import "fmt"

// Tag is the discriminant of a tagged Value (spec.md §3 "Value"). It is
// stable across heap compaction: a Value never holds a raw pointer, only
// a Tag plus bits that are either an inline scalar or a HeapIndex into the
// arena that Tag names.
//
// The naming and "unknown tag falls back to a hex Sprintf" pattern mirrors
// HProfTagRecord.String() in the teacher's heap/model/types.go.
type Tag uint8

const (
	TagUndefined Tag = iota
	TagNull
	TagBoolean
	TagSmallInteger // inline int64, safe-integer range
	TagSmallFloat   // inline float64, finite and not exactly representable as SmallInteger
	TagNumber       // HeapIndex into a float64 arena (NaN, ±Infinity, -0, or host chooses to box)
	TagBigIntSmall  // inline int64 magnitude, exact
	TagBigIntHeap   // HeapIndex into a big.Int arena
	TagSmallString  // inline string, short enough to never need interning
	TagString       // HeapIndex into a string arena
	TagSymbol       // HeapIndex into a symbol arena
	TagObject       // HeapIndex into the object arena (see internal/heapobj)
)

func (t Tag) String() string {
	switch t {
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "null"
	case TagBoolean:
		return "boolean"
	case TagSmallInteger:
		return "small-integer"
	case TagSmallFloat:
		return "small-float"
	case TagNumber:
		return "number"
	case TagBigIntSmall:
		return "small-bigint"
	case TagBigIntHeap:
		return "bigint"
	case TagSmallString:
		return "small-string"
	case TagString:
		return "string"
	case TagSymbol:
		return "symbol"
	case TagObject:
		return "object"
	default:
		return fmt.Sprintf("Tag(0x%02X)", uint8(t))
	}
}

// IsNumeric reports whether the tag is one of the Number or BigInt
// variants — the two numeric types ToNumeric distinguishes between.
func (t Tag) IsNumeric() bool {
	switch t {
	case TagSmallInteger, TagSmallFloat, TagNumber, TagBigIntSmall, TagBigIntHeap:
		return true
	default:
		return false
	}
}

func (t Tag) IsBigInt() bool {
	return t == TagBigIntSmall || t == TagBigIntHeap
}

func (t Tag) IsString() bool {
	return t == TagSmallString || t == TagString
}
