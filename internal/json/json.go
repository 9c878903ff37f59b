// Package json implements JSON.stringify/parse against internal/value's
// Value model, one of SPEC_FULL.md's supplemented features grounded on
// the original implementation's json_object.rs (ECMA-262 §25.5): a
// concrete consumer of the whole Agent surface — ToPrimitive-ish
// unwrapping, property enumeration, Call for toJSON/replacer/reviver —
// rather than a library built against Go's own struct tags.
package json

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ecmacore/jsvm/internal/agent"
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
)

// heapStr interns s the same way agent.Agent's own unexported
// heapString helper does (value.String with the heap's intern table),
// since Stringify/Parse need to build fresh string Values from outside
// the agent package.
func heapStr(a *agent.Agent, s string) value.Value {
	return value.String(s, a.Heap.InternString)
}

func keyOf(a *agent.Agent, s string) value.PropertyKey {
	return value.NewPropertyKey(heapStr(a, s))
}

// serializer carries the state SerializeJSONProperty threads through
// recursive calls: the cycle-detection stack, the indentation gap, and
// an optional replacer function or allow-list (json_object.rs's
// JSONSerializationRecord).
type serializer struct {
	a              *agent.Agent
	stack          []value.Value
	indent         string
	gap            string
	replacerFunc   value.Value // Undefined if none
	propertyList   []string    // nil if none (means: use EnumerableOwnProperties)
	hasPropertyList bool
}

// Stringify implements JSON.stringify(value, replacer, space). replacer
// may be Undefined, a callable function, or an array-like of property
// names; space may be Undefined, a number (count of spaces), or a
// string (used verbatim, truncated to 10 characters per ECMA-262).
// Returns ("", nil) when v serializes to undefined at the top level
// (ECMA-262 step 10's "If state.[[ReplacerFunction]]..." path where the
// wrapper's own "" key is itself filtered away).
func Stringify(a *agent.Agent, v value.Value, replacer value.Value, space value.Value) (string, error) {
	s := &serializer{a: a}

	if a.IsCallable(replacer) {
		s.replacerFunc = replacer
	} else {
		s.replacerFunc = value.Undefined()
		if elems, ok := a.DenseElements(replacer); ok {
			seen := map[string]bool{}
			for _, el := range elems {
				name, ok := propertyListName(a, el)
				if !ok || seen[name] {
					continue
				}
				seen[name] = true
				s.propertyList = append(s.propertyList, name)
			}
			s.hasPropertyList = true
		}
	}

	s.indent = indentFromSpace(a, space)

	wrapper := a.NewPlainObject()
	if err := a.Set(wrapper, keyOf(a, ""), v, wrapper); err != nil {
		return "", err
	}
	str, ok, err := s.serializeProperty("", wrapper)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return str, nil
}

// propertyListName implements the "String or Number" filter step of
// JSON.stringify's replacer-array handling (ECMA-262 25.5.2.1 step 4biii).
func propertyListName(a *agent.Agent, v value.Value) (string, bool) {
	switch v.Tag() {
	case value.TagSmallString, value.TagString:
		s, _ := a.ToString(v)
		return s, true
	case value.TagSmallInteger, value.TagSmallFloat, value.TagNumber:
		s, _ := a.ToString(v)
		return s, true
	default:
		return "", false
	}
}

func indentFromSpace(a *agent.Agent, space value.Value) string {
	switch space.Tag() {
	case value.TagSmallInteger, value.TagSmallFloat, value.TagNumber:
		n, _ := a.ToNumber(space)
		count := int(numberOf(a, n))
		if count < 0 {
			count = 0
		}
		if count > 10 {
			count = 10
		}
		return strings.Repeat(" ", count)
	case value.TagSmallString, value.TagString:
		s, _ := a.ToString(space)
		if len(s) > 10 {
			s = s[:10]
		}
		return s
	default:
		return ""
	}
}

func numberOf(a *agent.Agent, v value.Value) float64 {
	s, _ := a.ToString(v)
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// serializeProperty implements SerializeJSONProperty (ECMA-262 25.5.2.2):
// resolve holder[key], apply toJSON then the replacer function, and
// serialize what remains. The bool result is false when the property
// must be omitted entirely (undefined, symbol, or a function value).
func (s *serializer) serializeProperty(key string, holder value.Value) (string, bool, error) {
	a := s.a
	v, err := a.Get(holder, keyOf(a, key), holder)
	if err != nil {
		return "", false, err
	}

	if v.IsObject() || v.Tag().IsBigInt() {
		toJSON, err := a.GetMethod(v, toJSONKey)
		if err != nil {
			return "", false, err
		}
		if a.IsCallable(toJSON) {
			v, err = a.Call(toJSON, v, []value.Value{heapStr(a, key)})
			if err != nil {
				return "", false, err
			}
		}
	}

	if a.IsCallable(s.replacerFunc) {
		v, err = a.Call(s.replacerFunc, holder, []value.Value{heapStr(a, key), v})
		if err != nil {
			return "", false, err
		}
	}

	if v.Tag().IsBigInt() {
		return "", false, errors.TypeError("cannot serialize BigInt to JSON")
	}
	if v.IsUndefined() || v.Tag() == value.TagSymbol {
		return "", false, nil
	}
	if a.IsCallable(v) {
		return "", false, nil
	}

	out, err := s.serializeValue(v)
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

var toJSONKey = value.NewPropertyKey(value.SmallStringValue("toJSON"))

// serializeValue implements the shared tail of SerializeJSONProperty
// (steps 5-9, 11): null/boolean/string/number are formatted directly,
// objects dispatch on IsArray into SerializeJSONArray/SerializeJSONObject.
func (s *serializer) serializeValue(v value.Value) (string, error) {
	a := s.a
	switch v.Tag() {
	case value.TagNull:
		return "null", nil
	case value.TagBoolean:
		if v.Boolean() {
			return "true", nil
		}
		return "false", nil
	case value.TagSmallString, value.TagString:
		str, _ := a.ToString(v)
		return quoteJSONString(str), nil
	case value.TagSmallInteger, value.TagSmallFloat, value.TagNumber:
		f := numberOf(a, v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "null", nil
		}
		str, _ := a.ToString(v)
		return str, nil
	default: // TagObject
		if a.Heap.Object(v).Kind == heapobj.KindArray {
			return s.serializeArray(v)
		}
		return s.serializeObject(v)
	}
}

// serializeObject implements SerializeJSONObject (ECMA-262 25.5.2.5),
// including the cyclical-structure TypeError.
func (s *serializer) serializeObject(v value.Value) (string, error) {
	for _, seen := range s.stack {
		if seen == v {
			return "", errors.TypeError("cyclical structure in JSON")
		}
	}
	s.stack = append(s.stack, v)
	defer func() { s.stack = s.stack[:len(s.stack)-1] }()

	keys, err := s.ownKeysToSerialize(v)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "{}", nil
	}

	prevGap := s.gap
	s.gap += s.indent
	defer func() { s.gap = prevGap }()

	var parts []string
	for _, k := range keys {
		str, ok, err := s.serializeProperty(k, v)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		member := quoteJSONString(k) + ":"
		if s.indent != "" {
			member += " "
		}
		parts = append(parts, member+str)
	}
	if len(parts) == 0 {
		return "{}", nil
	}
	if s.indent == "" {
		return "{" + strings.Join(parts, ",") + "}", nil
	}
	sep := ",\n" + s.gap
	return "{\n" + s.gap + strings.Join(parts, sep) + "\n" + prevGap + "}", nil
}

// ownKeysToSerialize returns the property list (replacer array) or the
// object's own enumerable string keys in insertion order, per
// EnumerableOwnProperties(value, key) (ECMA-262 7.3.23).
func (s *serializer) ownKeysToSerialize(v value.Value) ([]string, error) {
	if s.hasPropertyList {
		return s.propertyList, nil
	}
	obj := s.a.Heap.Object(v)
	var keys []string
	for _, k := range obj.OwnPropertyKeys() {
		if k.IsSymbol() {
			continue
		}
		pd, ok := obj.GetOwnProperty(k)
		if !ok || !pd.Enumerable {
			continue
		}
		keys = append(keys, propertyKeyName(s.a, k))
	}
	return keys, nil
}

func propertyKeyName(a *agent.Agent, k value.PropertyKey) string {
	if k.IsArrayIndex() {
		return strconv.FormatInt(k.Value().SmallIntegerValue(), 10)
	}
	s, _ := a.ToString(k.Value())
	return s
}

// serializeArray implements SerializeJSONArray (ECMA-262 25.5.2.6).
func (s *serializer) serializeArray(v value.Value) (string, error) {
	for _, seen := range s.stack {
		if seen == v {
			return "", errors.TypeError("cyclical structure in JSON")
		}
	}
	s.stack = append(s.stack, v)
	defer func() { s.stack = s.stack[:len(s.stack)-1] }()

	lenVal, err := s.a.Get(v, lengthKey, v)
	if err != nil {
		return "", err
	}
	n := int64(numberOf(s.a, lenVal))
	if n == 0 {
		return "[]", nil
	}

	prevGap := s.gap
	s.gap += s.indent
	defer func() { s.gap = prevGap }()

	parts := make([]string, 0, n)
	for i := int64(0); i < n; i++ {
		str, ok, err := s.serializeProperty(strconv.FormatInt(i, 10), v)
		if err != nil {
			return "", err
		}
		if !ok {
			str = "null"
		}
		parts = append(parts, str)
	}
	if s.indent == "" {
		return "[" + strings.Join(parts, ",") + "]", nil
	}
	sep := ",\n" + s.gap
	return "[\n" + s.gap + strings.Join(parts, sep) + "\n" + prevGap + "]", nil
}

var lengthKey = value.NewPropertyKey(value.SmallStringValue("length"))

// quoteJSONString implements QuoteJSONString (ECMA-262 25.5.2.3): wrap
// in quotation marks, escaping the Table-81 single-character forms and
// any other control code point below U+0020. A lone surrogate has no
// representation in a valid Go UTF-8 string (unlike the original's
// WTF-8 buffer), so that escape branch does not apply here.
func quoteJSONString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case 0x0008:
			b.WriteString(`\b`)
		case 0x0009:
			b.WriteString(`\t`)
		case 0x000A:
			b.WriteString(`\n`)
		case 0x000C:
			b.WriteString(`\f`)
		case 0x000D:
			b.WriteString(`\r`)
		case 0x0022:
			b.WriteString(`\"`)
		case 0x005C:
			b.WriteString(`\\`)
		default:
			if r < 0x0020 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

