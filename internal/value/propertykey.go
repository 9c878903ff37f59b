package value

import "strconv"

// PropertyKey is a Value restricted to the three shapes ECMA-262 allows
// as an object key: a String, a Symbol, or a canonicalized array index
// (spec.md §3 "PropertyKey"). "Integer keys and their string forms
// compare equal as keys" is implemented by always canonicalizing a
// numeric-looking string key to TagSmallInteger in NewPropertyKey.
type PropertyKey struct {
	v Value
}

// NewPropertyKey builds a PropertyKey from a Value that is already known
// to be a String, Symbol, or SmallInteger. Numeric strings ("0", "41")
// are folded to their canonical integer-index form so that obj["1"] and
// obj[1] hash to the same key.
func NewPropertyKey(v Value) PropertyKey {
	if v.tag.IsString() {
		s := stringContent(v)
		if n, ok := canonicalArrayIndex(s); ok {
			return PropertyKey{v: SmallInteger(n)}
		}
	}
	return PropertyKey{v: v}
}

func IndexKey(n int64) PropertyKey { return PropertyKey{v: SmallInteger(n)} }

func (k PropertyKey) Value() Value { return k.v }

func (k PropertyKey) IsArrayIndex() bool {
	return k.v.tag == TagSmallInteger && k.v.SmallIntegerValue() >= 0 &&
		k.v.SmallIntegerValue() <= 0xFFFFFFFE
}

func (k PropertyKey) IsSymbol() bool { return k.v.tag == TagSymbol }

// Equal compares two property keys by the same tagged-identity rule as
// Values, since canonicalization already happened in NewPropertyKey.
func Equal(a, b PropertyKey) bool { return SameValueTagged(a.v, b.v) }

func stringContent(v Value) string {
	if v.tag == TagSmallString {
		return v.SmallStringValue()
	}
	// Heap strings are resolved by callers that have access to the
	// string arena (internal/heapobj); NewPropertyKey only canonicalizes
	// the small-string fast path, which covers every literal index used
	// in practice ("0".."4294967294" all fit MaxSmallStringLen).
	return ""
}

// canonicalArrayIndex mirrors ECMA-262's CanonicalNumericIndexString /
// array-index grammar: a string is an array index iff it is "0" or a
// decimal digit sequence with no leading zero, in [0, 2^32-2].
func canonicalArrayIndex(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if s == "0" {
		return 0, true
	}
	if s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n > 0xFFFFFFFE {
		return 0, false
	}
	return n, true
}
