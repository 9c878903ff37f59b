package agent

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
)

// numberOf widens any Number-type Value (spec.md §3's Number, not
// BigInt) to a float64, resolving heap-boxed numbers through the
// Numbers arena.
func (a *Agent) numberOf(v value.Value) float64 {
	if v.Tag() == value.TagNumber {
		return a.Heap.Numbers.MustGet(v.HeapIndex())
	}
	return v.Float64()
}

// bigIntOf widens a BigInt-type Value to a *big.Int.
func (a *Agent) bigIntOf(v value.Value) *big.Int {
	if v.Tag() == value.TagBigIntHeap {
		return a.Heap.BigInts.MustGet(v.HeapIndex())
	}
	return big.NewInt(v.BigIntSmallValue())
}

func (a *Agent) heapString(s string) value.Value {
	return value.String(s, a.Heap.InternString)
}

// toPrimitive implements OrdinaryToPrimitive (ECMA-262 7.1.1.1): try
// valueOf/toString (or the reverse, for a "string" hint), in order,
// taking the first result that isn't itself an object. Symbol.toPrimitive
// overrides are out of scope (spec.md §1's built-ins Non-goal).
func (a *Agent) toPrimitive(v value.Value, hint string) (value.Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	names := [2]string{"valueOf", "toString"}
	if hint == "string" {
		names = [2]string{"toString", "valueOf"}
	}
	for _, name := range names {
		method, err := a.Get(v, a.key(name), v)
		if err != nil {
			return value.Value{}, err
		}
		if !a.IsCallable(method) {
			continue
		}
		res, err := a.Call(method, v, nil)
		if err != nil {
			return value.Value{}, err
		}
		if !res.IsObject() {
			return res, nil
		}
	}
	return value.Value{}, errors.TypeError("cannot convert object to primitive value")
}

// ToPropertyKey implements vm.Host.ToPropertyKey (ECMA-262 ToPropertyKey).
func (a *Agent) ToPropertyKey(v value.Value) (value.PropertyKey, error) {
	if v.Tag() == value.TagSymbol {
		return value.NewPropertyKey(v), nil
	}
	prim, err := a.toPrimitive(v, "string")
	if err != nil {
		return value.PropertyKey{}, err
	}
	if prim.Tag() == value.TagSymbol {
		return value.NewPropertyKey(prim), nil
	}
	s, err := a.ToString(prim)
	if err != nil {
		return value.PropertyKey{}, err
	}
	return value.NewPropertyKey(a.heapString(s)), nil
}

// ToString implements vm.Host.ToString (ECMA-262 ToString).
func (a *Agent) ToString(v value.Value) (string, error) {
	switch v.Tag() {
	case value.TagUndefined:
		return "undefined", nil
	case value.TagNull:
		return "null", nil
	case value.TagBoolean:
		if v.Boolean() {
			return "true", nil
		}
		return "false", nil
	case value.TagSmallInteger:
		return strconv.FormatInt(v.SmallIntegerValue(), 10), nil
	case value.TagSmallFloat, value.TagNumber:
		return formatFloat(a.numberOf(v)), nil
	case value.TagBigIntSmall, value.TagBigIntHeap:
		return a.bigIntOf(v).String(), nil
	case value.TagSmallString:
		return v.SmallStringValue(), nil
	case value.TagString:
		return a.Heap.StringValue(v), nil
	case value.TagSymbol:
		return "", errors.TypeError("cannot convert a Symbol value to a string")
	default: // TagObject
		prim, err := a.toPrimitive(v, "string")
		if err != nil {
			return "", err
		}
		return a.ToString(prim)
	}
}

// formatFloat renders a Number the way ECMA-262's Number::toString does
// for the cases scripts actually observe: the three non-finite forms,
// plain integers without a decimal point, and otherwise Go's shortest
// round-trippable form.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToNumber implements vm.Host.ToNumber (ECMA-262 ToNumber; BigInt
// operands throw, matching the spec algorithm's explicit TypeError step).
func (a *Agent) ToNumber(v value.Value) (value.Value, error) {
	switch v.Tag() {
	case value.TagUndefined:
		return a.Heap.NewNumber(math.NaN()), nil
	case value.TagNull:
		return value.SmallInteger(0), nil
	case value.TagBoolean:
		if v.Boolean() {
			return value.SmallInteger(1), nil
		}
		return value.SmallInteger(0), nil
	case value.TagSmallInteger, value.TagSmallFloat, value.TagNumber:
		return v, nil
	case value.TagBigIntSmall, value.TagBigIntHeap:
		return value.Value{}, errors.TypeError("cannot convert a BigInt to a number")
	case value.TagSmallString:
		return parseNumericString(a.Heap, v.SmallStringValue()), nil
	case value.TagString:
		return parseNumericString(a.Heap, a.Heap.StringValue(v)), nil
	case value.TagSymbol:
		return value.Value{}, errors.TypeError("cannot convert a Symbol value to a number")
	default: // TagObject
		prim, err := a.toPrimitive(v, "number")
		if err != nil {
			return value.Value{}, err
		}
		return a.ToNumber(prim)
	}
}

// ToNumeric implements vm.Host.ToNumeric (ECMA-262 ToNumeric): like
// ToNumber but BigInt passes through unchanged.
func (a *Agent) ToNumeric(v value.Value) (value.Value, error) {
	prim := v
	if v.IsObject() {
		p, err := a.toPrimitive(v, "number")
		if err != nil {
			return value.Value{}, err
		}
		prim = p
	}
	if prim.Tag().IsBigInt() {
		return prim, nil
	}
	return a.ToNumber(prim)
}

// parseNumericString implements StringToNumber for the forms scripts
// actually write: optional sign, decimal/hex/octal/binary integer
// literals, and general float syntax via strconv; anything else is NaN,
// matching ECMA-262's StringNumericLiteral grammar's failure case.
func parseNumericString(h *heapobj.Heap, s string) value.Value {
	t := strings.TrimSpace(s)
	if t == "" {
		return value.SmallInteger(0)
	}
	if t == "Infinity" || t == "+Infinity" {
		return h.NewNumber(math.Inf(1))
	}
	if t == "-Infinity" {
		return h.NewNumber(math.Inf(-1))
	}
	lower := strings.ToLower(t)
	neg := false
	body := lower
	if strings.HasPrefix(body, "+") {
		body = body[1:]
	} else if strings.HasPrefix(body, "-") {
		neg = true
		body = body[1:]
	}
	base := 0
	switch {
	case strings.HasPrefix(body, "0x"):
		base = 16
	case strings.HasPrefix(body, "0o"):
		base = 8
	case strings.HasPrefix(body, "0b"):
		base = 2
	}
	if base != 0 {
		n, err := strconv.ParseInt(body[2:], base, 64)
		if err != nil {
			return h.NewNumber(math.NaN())
		}
		if neg {
			n = -n
		}
		return value.NumberValue(float64(n))
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return h.NewNumber(math.NaN())
	}
	return value.NumberValue(f)
}

// ToBoolean implements vm.Host.ToBoolean (ECMA-262 ToBoolean).
func (a *Agent) ToBoolean(v value.Value) bool {
	switch v.Tag() {
	case value.TagUndefined, value.TagNull:
		return false
	case value.TagBoolean:
		return v.Boolean()
	case value.TagSmallInteger, value.TagSmallFloat, value.TagNumber:
		f := a.numberOf(v)
		return f != 0 && !math.IsNaN(f)
	case value.TagBigIntSmall, value.TagBigIntHeap:
		return a.bigIntOf(v).Sign() != 0
	case value.TagSmallString:
		return v.SmallStringValue() != ""
	case value.TagString:
		return a.Heap.StringValue(v) != ""
	default: // TagSymbol, TagObject
		return true
	}
}

// Typeof implements vm.Host.Typeof (ECMA-262 typeof operator).
func (a *Agent) Typeof(v value.Value) string {
	switch v.Tag() {
	case value.TagUndefined:
		return "undefined"
	case value.TagNull:
		return "object"
	case value.TagBoolean:
		return "boolean"
	case value.TagSmallInteger, value.TagSmallFloat, value.TagNumber:
		return "number"
	case value.TagBigIntSmall, value.TagBigIntHeap:
		return "bigint"
	case value.TagSmallString, value.TagString:
		return "string"
	case value.TagSymbol:
		return "symbol"
	default: // TagObject
		if a.Heap.Object(v).Kind == heapobj.KindFunction {
			return "function"
		}
		return "object"
	}
}

// StrictEquals implements vm.Host.StrictEquals (ECMA-262 ===): numbers
// compare across representation by value (NaN never equal, +0 equals
// -0), bigints by magnitude, strings by content, everything else by
// tagged identity.
func (a *Agent) StrictEquals(x, y value.Value) bool {
	xNum, yNum := x.Tag().IsNumeric() && !x.Tag().IsBigInt(), y.Tag().IsNumeric() && !y.Tag().IsBigInt()
	if xNum && yNum {
		fx, fy := a.numberOf(x), a.numberOf(y)
		return fx == fy
	}
	if x.Tag().IsBigInt() && y.Tag().IsBigInt() {
		return a.bigIntOf(x).Cmp(a.bigIntOf(y)) == 0
	}
	if x.Tag().IsString() && y.Tag().IsString() {
		sx, _ := a.ToString(x)
		sy, _ := a.ToString(y)
		return sx == sy
	}
	return value.SameValueTagged(x, y)
}

// LooseEquals implements vm.Host.LooseEquals (ECMA-262 ==), approximated
// to the comparisons scripts actually exercise: same-type falls back to
// StrictEquals; null/undefined are mutually loosely equal and nothing
// else; number/string/boolean/bigint cross-type comparisons coerce the
// non-numeric side via ToNumber/ToNumeric.
func (a *Agent) LooseEquals(x, y value.Value) (bool, error) {
	if x.Tag() == y.Tag() || (x.Tag().IsNumeric() && y.Tag().IsNumeric()) || (x.Tag().IsString() && y.Tag().IsString()) {
		return a.StrictEquals(x, y), nil
	}
	if x.IsNullOrUndefined() && y.IsNullOrUndefined() {
		return true, nil
	}
	if x.IsNullOrUndefined() || y.IsNullOrUndefined() {
		return false, nil
	}
	if x.IsObject() && !y.IsObject() {
		px, err := a.toPrimitive(x, "default")
		if err != nil {
			return false, err
		}
		return a.LooseEquals(px, y)
	}
	if y.IsObject() && !x.IsObject() {
		py, err := a.toPrimitive(y, "default")
		if err != nil {
			return false, err
		}
		return a.LooseEquals(x, py)
	}
	if x.Tag() == value.TagBoolean {
		nx, err := a.ToNumber(x)
		if err != nil {
			return false, err
		}
		return a.LooseEquals(nx, y)
	}
	if y.Tag() == value.TagBoolean {
		ny, err := a.ToNumber(y)
		if err != nil {
			return false, err
		}
		return a.LooseEquals(x, ny)
	}
	nx, err := a.ToNumeric(x)
	if err != nil {
		return false, err
	}
	ny, err := a.ToNumeric(y)
	if err != nil {
		return false, err
	}
	if nx.Tag().IsBigInt() != ny.Tag().IsBigInt() {
		bi, num := nx, ny
		if ny.Tag().IsBigInt() {
			bi, num = ny, nx
		}
		f := a.numberOf(num)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false, nil
		}
		bf := new(big.Float).SetInt(a.bigIntOf(bi))
		return bf.Cmp(big.NewFloat(f)) == 0, nil
	}
	return a.StrictEquals(nx, ny), nil
}

// LessThan implements vm.Host.LessThan (ECMA-262 IsLessThan), returning
// Undefined when the comparison is NaN-tainted, matching the abstract
// relational comparison's own "undefined" result case.
func (a *Agent) LessThan(x, y value.Value) (value.Value, error) {
	px, err := a.toPrimitive(x, "number")
	if err != nil {
		return value.Value{}, err
	}
	py, err := a.toPrimitive(y, "number")
	if err != nil {
		return value.Value{}, err
	}
	if px.Tag().IsString() && py.Tag().IsString() {
		sx, _ := a.ToString(px)
		sy, _ := a.ToString(py)
		return value.Boolean(sx < sy), nil
	}
	nx, err := a.ToNumeric(px)
	if err != nil {
		return value.Value{}, err
	}
	ny, err := a.ToNumeric(py)
	if err != nil {
		return value.Value{}, err
	}
	if nx.Tag().IsBigInt() && ny.Tag().IsBigInt() {
		return value.Boolean(a.bigIntOf(nx).Cmp(a.bigIntOf(ny)) < 0), nil
	}
	if nx.Tag().IsBigInt() || ny.Tag().IsBigInt() {
		bi, num, biFirst := nx, ny, true
		if ny.Tag().IsBigInt() {
			bi, num, biFirst = ny, nx, false
		}
		f := a.numberOf(num)
		if math.IsNaN(f) {
			return value.Undefined(), nil
		}
		bf := new(big.Float).SetInt(a.bigIntOf(bi))
		cmp := bf.Cmp(big.NewFloat(f))
		if biFirst {
			return value.Boolean(cmp < 0), nil
		}
		return value.Boolean(cmp > 0), nil
	}
	fx, fy := a.numberOf(nx), a.numberOf(ny)
	if math.IsNaN(fx) || math.IsNaN(fy) {
		return value.Undefined(), nil
	}
	return value.Boolean(fx < fy), nil
}
