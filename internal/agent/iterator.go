package agent

import (
	"strconv"

	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/value"
	"github.com/ecmacore/jsvm/internal/vm"
)

// GetMethod implements vm.Host.GetMethod: resolve obj[key] and require
// it be callable or nullish (used to look up @@iterator per ECMA-262
// GetMethod).
func (a *Agent) GetMethod(obj value.Value, key value.PropertyKey) (value.Value, error) {
	v, err := a.Get(obj, key, obj)
	if err != nil {
		return value.Value{}, err
	}
	if v.IsNullOrUndefined() {
		return value.Undefined(), nil
	}
	if !a.IsCallable(v) {
		return value.Value{}, errors.TypeError("value returned for property is not a function")
	}
	return v, nil
}

// GetIteratorFromMethod implements vm.Host.GetIteratorFromMethod: call
// method to get the real @@iterator-protocol object, then wrap its
// .next()/.return() behind vm.Iterator via vm.NewGenericIterator so the
// VM's destructuring/for-of paths never see the object directly.
func (a *Agent) GetIteratorFromMethod(obj value.Value, method value.Value) (vm.Iterator, error) {
	iterObj, err := a.Call(method, obj, nil)
	if err != nil {
		return nil, err
	}
	if !iterObj.IsObject() {
		return nil, errors.TypeError("result of the Symbol.iterator method is not an object")
	}
	nextKey := a.key("next")
	valueKey := a.key("value")
	doneKey := a.key("done")
	returnKey := a.key("return")

	next := func() (value.Value, bool, error) {
		nextMethod, err := a.Get(iterObj, nextKey, iterObj)
		if err != nil {
			return value.Value{}, false, err
		}
		res, err := a.Call(nextMethod, iterObj, nil)
		if err != nil {
			return value.Value{}, false, err
		}
		if !res.IsObject() {
			return value.Value{}, false, errors.TypeError("iterator result is not an object")
		}
		doneV, err := a.Get(res, doneKey, res)
		if err != nil {
			return value.Value{}, false, err
		}
		val, err := a.Get(res, valueKey, res)
		if err != nil {
			return value.Value{}, false, err
		}
		return val, a.ToBoolean(doneV), nil
	}
	close := func() error {
		retMethod, err := a.Get(iterObj, returnKey, iterObj)
		if err != nil || !a.IsCallable(retMethod) {
			return nil
		}
		_, err = a.Call(retMethod, iterObj, nil)
		return err
	}
	return vm.NewGenericIterator(vm.GenericIteratorFunc{Next: next, Close: close}), nil
}

// EnumerableOwnAndInheritedStringKeys implements
// vm.Host.EnumerableOwnAndInheritedStringKeys (ECMA-262
// EnumerateObjectProperties): own keys first, then each prototype's,
// skipping any name already visited (shadowing hides an inherited
// property regardless of the shadowing property's own enumerability).
func (a *Agent) EnumerableOwnAndInheritedStringKeys(obj value.Value) ([]string, error) {
	if !obj.IsObject() {
		return nil, nil
	}
	seen := make(map[string]bool)
	var keys []string
	for cur := obj; cur.IsObject(); {
		o := a.Heap.Object(cur)
		for _, k := range o.OwnPropertyKeys() {
			if k.IsSymbol() {
				continue
			}
			s := a.propertyKeyString(k)
			if seen[s] {
				continue
			}
			seen[s] = true
			pd, _ := o.GetOwnProperty(k)
			if pd.Enumerable {
				keys = append(keys, s)
			}
		}
		cur = o.Prototype
	}
	return keys, nil
}

func (a *Agent) propertyKeyString(k value.PropertyKey) string {
	if k.IsArrayIndex() {
		return strconv.FormatInt(k.Value().SmallIntegerValue(), 10)
	}
	return a.Heap.StringValue(k.Value())
}

// SymbolIterator implements vm.Host.SymbolIterator.
func (a *Agent) SymbolIterator() value.PropertyKey {
	return a.symbolIteratorKey
}
