package vm

import (
	"math"

	"github.com/ecmacore/jsvm/internal/bigint"
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/value"
)

// BinOp is the operator immediate ApplyStringOrNumericBinaryOperator
// carries (spec.md §4.1: "a single opcode parameterized by operator,
// not one opcode per operator"). The compiler encodes one of these as
// the opcode's FlagImmediate operand.
type BinOp uint16

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinExp
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinUShr
)

// apply implements ApplyStringOrNumericBinaryOperator: left and right
// already hold whatever ToPrimitive produced (the Host is responsible
// for any object->primitive coercion before values reach here for `+`;
// every other operator forces ToNumeric first).
func (f *Frame) apply(vmi *VM, op BinOp, left, right value.Value) (value.Value, error) {
	if op == BinAdd {
		if left.Tag() == value.TagSmallString || left.Tag() == value.TagString ||
			right.Tag() == value.TagSmallString || right.Tag() == value.TagString {
			ls, err := vmi.Host.ToString(left)
			if err != nil {
				return value.Value{}, err
			}
			rs, err := vmi.Host.ToString(right)
			if err != nil {
				return value.Value{}, err
			}
			return value.SmallStringValue(ls + rs), nil
		}
	}

	ln, err := vmi.Host.ToNumeric(left)
	if err != nil {
		return value.Value{}, err
	}
	rn, err := vmi.Host.ToNumeric(right)
	if err != nil {
		return value.Value{}, err
	}
	return vmi.numericBinOp(op, ln, rn)
}

func isNumericTag(t value.Tag) bool {
	switch t {
	case value.TagSmallInteger, value.TagSmallFloat, value.TagNumber:
		return true
	}
	return false
}

// numberOf widens any numeric-tagged Value to float64, resolving a
// heap-boxed TagNumber through vmi.Heap (value.Value.Float64 alone only
// handles the two inline numeric tags).
func (vmi *VM) numberOf(v value.Value) float64 {
	if v.Tag() == value.TagNumber {
		return vmi.Heap.Numbers.MustGet(v.HeapIndex())
	}
	return v.Float64()
}

// numericBinOp implements the Number/BigInt halves of
// ApplyStringOrNumericBinaryOperator once both operands have already
// been through ToNumeric (spec.md §4.1/§6).
func (vmi *VM) numericBinOp(op BinOp, left, right value.Value) (value.Value, error) {
	if isNumericTag(left.Tag()) != isNumericTag(right.Tag()) {
		return value.Value{}, errors.TypeError("cannot mix BigInt and other types, use explicit conversions")
	}
	if !isNumericTag(left.Tag()) {
		return vmi.bigIntBinOp(op, left, right)
	}
	a, b := vmi.numberOf(left), vmi.numberOf(right)
	switch op {
	case BinAdd:
		return vmi.boxNumber(a + b), nil
	case BinSub:
		return vmi.boxNumber(a - b), nil
	case BinMul:
		return vmi.boxNumber(a * b), nil
	case BinDiv:
		return vmi.boxNumber(a / b), nil
	case BinMod:
		return vmi.boxNumber(mathMod(a, b)), nil
	case BinExp:
		return vmi.boxNumber(math.Pow(a, b)), nil
	case BinBitAnd:
		return value.SmallInteger(int64(toInt32(a) & toInt32(b))), nil
	case BinBitOr:
		return value.SmallInteger(int64(toInt32(a) | toInt32(b))), nil
	case BinBitXor:
		return value.SmallInteger(int64(toInt32(a) ^ toInt32(b))), nil
	case BinShl:
		return value.SmallInteger(int64(toInt32(a) << (toUint32(b) & 31))), nil
	case BinShr:
		return value.SmallInteger(int64(toInt32(a) >> (toUint32(b) & 31))), nil
	case BinUShr:
		return value.SmallInteger(int64(toUint32(a) >> (toUint32(b) & 31))), nil
	}
	return value.Value{}, errors.TypeError("unknown binary operator")
}

// boxNumber returns the narrowest Value representing f: a heap Number
// for NaN, ±Infinity and -0, an inline SmallInteger for an integer in
// the safe range, and an inline SmallFloat for every other value
// (including integers outside the safe range).
func (vmi *VM) boxNumber(f float64) value.Value {
	if math.IsNaN(f) || math.IsInf(f, 0) || (f == 0 && math.Signbit(f)) {
		return vmi.Heap.NewNumber(f)
	}
	if f == math.Trunc(f) && value.IsSafeInteger(int64(f)) {
		return value.SmallInteger(int64(f))
	}
	return value.SmallFloat(f)
}

func (vmi *VM) bigIntBinOp(op BinOp, left, right value.Value) (value.Value, error) {
	switch op {
	case BinAdd:
		return bigint.Add(vmi.Heap, left, right), nil
	case BinSub:
		return bigint.Sub(vmi.Heap, left, right), nil
	case BinMul:
		return bigint.Mul(vmi.Heap, left, right), nil
	case BinDiv:
		return bigint.Div(vmi.Heap, left, right)
	case BinMod:
		return bigint.Mod(vmi.Heap, left, right)
	case BinExp:
		return bigint.Exp(vmi.Heap, left, right)
	case BinBitAnd:
		return bigint.And(vmi.Heap, left, right), nil
	case BinBitOr:
		return bigint.Or(vmi.Heap, left, right), nil
	case BinBitXor:
		return bigint.Xor(vmi.Heap, left, right), nil
	case BinShl:
		return bigint.ShiftLeft(vmi.Heap, left, bigint.Big(vmi.Heap, right).Int64()), nil
	case BinShr:
		return bigint.ShiftRight(vmi.Heap, left, bigint.Big(vmi.Heap, right).Int64()), nil
	case BinUShr:
		return value.Value{}, errors.TypeError("BigInts have no unsigned right shift, use >> instead")
	}
	return value.Value{}, errors.TypeError("unknown binary operator")
}

// mathMod implements ECMAScript's `%` for Numbers: fmod whose result
// takes the sign of the dividend, which is exactly math.Mod's contract
// (unlike Go's built-in `%`, which is only defined for integers).
func mathMod(a, b float64) float64 { return math.Mod(a, b) }

func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(math.Trunc(f))))
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return uint32(int64(math.Trunc(f)))
}
