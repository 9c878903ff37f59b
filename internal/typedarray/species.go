package typedarray

import (
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
)

// ConstructFunc invokes [[Construct]] on a constructor value with the
// given arguments. The agent package supplies the real implementation
// (it alone can run the VM); passing it in as a function keeps this
// package free of a dependency on internal/agent, preserving spec.md
// §2's leaves-first dependency order (TypedArray sits below the VM).
type ConstructFunc func(constructor value.Value, args []value.Value) (value.Value, error)

// SpeciesConstructorFunc resolves exemplar's constructor[Symbol.species]
// (or the default constructor if absent/undefined) — also supplied by
// the agent, which owns the realm's intrinsics table.
type SpeciesConstructorFunc func(exemplar value.Value, defaultConstructor value.Value) (value.Value, error)

// TypedArrayCreateFromConstructor validates the newly constructed TA and
// optionally that its length is at least minimumLength.
func TypedArrayCreateFromConstructor(h *heapobj.Heap, construct ConstructFunc, constructor value.Value, args []value.Value, minimumLength int) (value.Value, error) {
	result, err := construct(constructor, args)
	if err != nil {
		return value.Value{}, err
	}
	ta, err := ValidateTypedArray(h, result, 1 /* SeqCst */)
	if err != nil {
		return value.Value{}, err
	}
	w := MakeTypedArrayWithBufferWitnessRecord(h, ta, 1)
	if minimumLength >= 0 && TypedArrayLength(w) < minimumLength {
		return value.Value{}, errors.TypeError("derived TypedArray constructor produced a TypedArray shorter than required")
	}
	return result, nil
}

// TypedArraySpeciesCreate uses SpeciesConstructor, validates content-type
// match (BigInt vs Number), and returns the created TA. Fast-paths to raw
// byte-block allocation when species is the default constructor — here
// modeled as: if speciesConstructor resolves back to defaultConstructor,
// skip the user-observable [[Construct]] call entirely and allocate
// directly, which is both faster and matches spec intent that the fast
// path never re-enters user code.
func TypedArraySpeciesCreate(
	h *heapobj.Heap,
	construct ConstructFunc,
	speciesOf SpeciesConstructorFunc,
	exemplar value.Value,
	defaultConstructor value.Value,
	proto, arrayBufferProto value.Value,
	args []value.Value,
	minimumLength int,
) (value.Value, error) {
	exemplarTA := Of(h, exemplar)
	ctor, err := speciesOf(exemplar, defaultConstructor)
	if err != nil {
		return value.Value{}, err
	}
	if value.SameValueTagged(ctor, defaultConstructor) && len(args) == 1 {
		if n, ok := asLength(args[0]); ok {
			return InitializeTypedArrayFromList(h, proto, arrayBufferProto, exemplarTA.ElementType, make([]value.Value, n))
		}
	}
	result, err := TypedArrayCreateFromConstructor(h, construct, ctor, args, minimumLength)
	if err != nil {
		return value.Value{}, err
	}
	resultTA, err := ValidateTypedArray(h, result, 1)
	if err != nil {
		return value.Value{}, err
	}
	if resultTA.ElementType.IsBigIntType() != exemplarTA.ElementType.IsBigIntType() {
		return value.Value{}, errors.TypeError("cannot mix BigInt and Number TypedArray content types")
	}
	return result, nil
}

func asLength(v value.Value) (int, bool) {
	if v.Tag() == value.TagSmallInteger {
		n := v.SmallIntegerValue()
		if n >= 0 {
			return int(n), true
		}
	}
	return 0, false
}
