package vm

import (
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/value"
)

// beginArrayPattern implements Begin(Simple)ArrayBindingPattern (spec.md
// §4.2 "Destructuring execution"): the simple form tries the dense-array
// fast path first and only falls back to a real @@iterator when the
// source isn't a dense array, exactly as the spec's deoptimization rule
// describes.
func (vmi *VM) beginArrayPattern(f *Frame, source value.Value, lexical, simple bool) error {
	if simple {
		if elems, ok := vmi.Host.DenseElements(source); ok {
			f.pushPattern(&patternState{kind: patternArray, lexical: lexical, iter: NewSliceIterator(elems)})
			return nil
		}
	}
	method, err := vmi.Host.GetMethod(source, vmi.Host.SymbolIterator())
	if err != nil {
		return err
	}
	if method.IsUndefined() {
		return errors.TypeError("value is not iterable")
	}
	it, err := vmi.Host.GetIteratorFromMethod(source, method)
	if err != nil {
		return err
	}
	f.pushPattern(&patternState{kind: patternArray, lexical: lexical, iter: it})
	return nil
}

// patternNext fetches the next element for the pattern currently on top
// of the pattern stack: the next iterator value for an array pattern, or
// the named property for an object pattern. key is unused for array
// patterns (BindingPatternSkip/GetValue pass the empty string).
func (vmi *VM) patternNext(f *Frame, key string) (value.Value, error) {
	p := f.topPattern()
	switch p.kind {
	case patternArray:
		v, done, err := p.iter.Advance()
		if err != nil {
			return value.Value{}, err
		}
		if done {
			return value.Undefined(), nil
		}
		return v, nil
	case patternObject:
		k := value.NewPropertyKey(value.SmallStringValue(key))
		v, err := vmi.Host.Get(p.obj, k, p.obj)
		if err != nil {
			return value.Value{}, err
		}
		if !p.consumed[key] {
			p.consumed[key] = true
			p.consumedOrder = append(p.consumedOrder, key)
		}
		return v, nil
	}
	return value.Value{}, errors.TypeError("invalid destructuring pattern state")
}

// patternRest implements BindingPatternBindRest/GetRestValue: the
// remaining iterator elements as a new Array, or the remaining
// not-yet-consumed own enumerable string keys as a new plain object.
func (vmi *VM) patternRest(f *Frame) (value.Value, error) {
	p := f.topPattern()
	switch p.kind {
	case patternArray:
		var rest []value.Value
		for {
			v, done, err := p.iter.Advance()
			if err != nil {
				return value.Value{}, err
			}
			if done {
				break
			}
			rest = append(rest, v)
		}
		return vmi.Host.NewArray(rest), nil
	case patternObject:
		keys, err := vmi.Host.EnumerableOwnAndInheritedStringKeys(p.obj)
		if err != nil {
			return value.Value{}, err
		}
		restObj := vmi.Host.NewPlainObject()
		for _, k := range keys {
			if p.consumed[k] {
				continue
			}
			v, err := vmi.Host.Get(p.obj, value.NewPropertyKey(value.SmallStringValue(k)), p.obj)
			if err != nil {
				return value.Value{}, err
			}
			if err := vmi.Host.Set(restObj, value.NewPropertyKey(value.SmallStringValue(k)), v, restObj); err != nil {
				return value.Value{}, err
			}
		}
		return restObj, nil
	}
	return value.Value{}, errors.TypeError("invalid destructuring pattern state")
}

// bindPatternTarget installs v under name, either as a fresh lexical
// binding in the current environment (a declaration: `let [a] = ...`)
// or as an assignment to an already-declared binding (destructuring
// assignment: `[a] = ...`), per spec.md §4.2 step 2's "if environment is
// present, initialize the binding; otherwise PutValue with a resolved
// reference" — simplified here to always resolve through the current
// environment rather than an arbitrary assignment-target reference,
// which covers identifier destructuring targets (the overwhelming
// common case) but not a destructuring target that is itself a member
// expression (`[obj.x] = ...`), left as a follow-up.
func (vmi *VM) bindPatternTarget(f *Frame, name string, v value.Value) error {
	p := f.topPattern()
	if p.lexical {
		if !f.env.HasBinding(name) {
			f.env.CreateMutableBinding(name)
		}
		return f.env.InitializeBinding(name, v)
	}
	return f.env.SetMutableBinding(name, v, f.strict)
}
