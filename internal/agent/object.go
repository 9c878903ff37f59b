package agent

import (
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/typedarray"
	"github.com/ecmacore/jsvm/internal/value"
)

// NewPlainObject implements vm.Host.NewPlainObject.
func (a *Agent) NewPlainObject() value.Value {
	v, _ := a.Heap.NewObject(heapobj.KindOrdinary, a.objectProto)
	return v
}

// NewArray implements vm.Host.NewArray: an Array exotic object is an
// ordinary KindArray Object carrying index PropertyKeys plus a
// hand-maintained "length" data property, since heapobj has no
// dedicated contiguous backing store for arrays (spec.md §3's Object
// taxonomy dispatches on Kind, not on a distinct slice-backed type).
func (a *Agent) NewArray(elems []value.Value) value.Value {
	v, obj := a.Heap.NewObject(heapobj.KindArray, a.arrayProto)
	for i, el := range elems {
		obj.DefineOwnProperty(value.IndexKey(int64(i)), &heapobj.PropertyDescriptor{
			Value: el, Writable: true, Enumerable: true, Configurable: true,
		})
	}
	setArrayLength(obj, int64(len(elems)))
	return v
}

func setArrayLength(obj *heapobj.Object, n int64) {
	obj.DefineOwnProperty(a0Key, &heapobj.PropertyDescriptor{
		Value: value.SmallInteger(n), Writable: true, Enumerable: false, Configurable: false,
	})
}

var a0Key = value.NewPropertyKey(value.SmallStringValue("length"))

func arrayLength(obj *heapobj.Object) int64 {
	pd, ok := obj.GetOwnProperty(a0Key)
	if !ok {
		return 0
	}
	return pd.Value.SmallIntegerValue()
}

// DenseElements implements vm.Host.DenseElements.
func (a *Agent) DenseElements(v value.Value) ([]value.Value, bool) {
	if !v.IsObject() {
		return nil, false
	}
	obj := a.Heap.Object(v)
	if obj.Kind != heapobj.KindArray {
		return nil, false
	}
	n := arrayLength(obj)
	out := make([]value.Value, 0, n)
	for i := int64(0); i < n; i++ {
		pd, ok := obj.GetOwnProperty(value.IndexKey(i))
		if !ok || pd.IsAccessor {
			return nil, false
		}
		out = append(out, pd.Value)
	}
	return out, true
}

// ArrayPush implements vm.Host.ArrayPush: append v at the current
// length and bump length by one, matching Array.prototype.push's own
// algorithm without going through a user-overridable property set.
func (a *Agent) ArrayPush(arr value.Value, v value.Value) error {
	if !arr.IsObject() {
		return errors.TypeError("push target is not an array")
	}
	obj := a.Heap.Object(arr)
	if obj.Kind != heapobj.KindArray {
		return errors.TypeError("push target is not an array")
	}
	n := arrayLength(obj)
	obj.DefineOwnProperty(value.IndexKey(n), &heapobj.PropertyDescriptor{
		Value: v, Writable: true, Enumerable: true, Configurable: true,
	})
	setArrayLength(obj, n+1)
	return nil
}

// Get implements vm.Host.Get ([[Get]]): TypedArray integer-indexed
// exotic objects delegate straight to typedarray.TypedArrayGetElement
// (spec.md §4.2 "property access opcodes... delegate to the TypedArray
// internal methods"); everything else walks Properties/prototype via
// Heap.FindProperty and invokes an accessor's getter with receiver as
// `this`.
func (a *Agent) Get(base value.Value, key value.PropertyKey, receiver value.Value) (value.Value, error) {
	if base.IsObject() {
		obj := a.Heap.Object(base)
		if obj.Kind == heapobj.KindTypedArray && key.IsArrayIndex() {
			ta := typedarray.Of(a.Heap, base)
			return typedarray.TypedArrayGetElement(a.Heap, ta, key.Value().SmallIntegerValue())
		}
	}
	pd, _, found := a.Heap.FindProperty(base, key)
	if !found {
		return value.Undefined(), nil
	}
	if pd.IsAccessor {
		if pd.Get.IsUndefined() {
			return value.Undefined(), nil
		}
		return a.Call(pd.Get, receiver, nil)
	}
	return pd.Value, nil
}

// Set implements vm.Host.Set ([[Set]]).
func (a *Agent) Set(base value.Value, key value.PropertyKey, val value.Value, receiver value.Value) error {
	if !base.IsObject() {
		return errors.TypeError("cannot set property on a non-object")
	}
	obj := a.Heap.Object(base)
	if obj.Kind == heapobj.KindTypedArray && key.IsArrayIndex() {
		ta := typedarray.Of(a.Heap, base)
		return typedarray.TypedArraySetElement(a.Heap, ta, key.Value().SmallIntegerValue(), val)
	}
	pd, _, found := a.Heap.FindProperty(base, key)
	if found && pd.IsAccessor {
		if pd.Set.IsUndefined() {
			return nil
		}
		_, err := a.Call(pd.Set, receiver, []value.Value{val})
		return err
	}
	if found && !pd.Writable {
		return nil
	}
	obj.DefineOwnProperty(key, &heapobj.PropertyDescriptor{
		Value: val, Writable: true, Enumerable: true, Configurable: true,
	})
	if obj.Kind == heapobj.KindArray && key.IsArrayIndex() {
		idx := key.Value().SmallIntegerValue()
		if idx >= arrayLength(obj) {
			setArrayLength(obj, idx+1)
		}
	}
	return nil
}

// DefineMethod implements vm.Host.DefineMethod: install fn as an
// enumerable (class members: non-enumerable; object literals:
// enumerable) data property, matching the caller-supplied flag rather
// than guessing from context.
func (a *Agent) DefineMethod(obj value.Value, key value.PropertyKey, fn value.Value, enumerable bool) error {
	if !obj.IsObject() {
		return errors.TypeError("cannot define method on a non-object")
	}
	a.Heap.Object(obj).DefineOwnProperty(key, &heapobj.PropertyDescriptor{
		Value: fn, Writable: true, Enumerable: enumerable, Configurable: true,
	})
	return nil
}

// DefineDataProperty implements vm.Host.DefineDataProperty
// ([[DefineOwnProperty]] for a plain data property): unlike Set, this
// never consults an inherited accessor or a non-writable own property —
// it installs val as a fresh own data property outright, the semantics
// OpObjectDefineProperty needs for object-literal shorthand/computed
// properties.
func (a *Agent) DefineDataProperty(obj value.Value, key value.PropertyKey, val value.Value) error {
	if !obj.IsObject() {
		return errors.TypeError("cannot define property on a non-object")
	}
	a.Heap.Object(obj).DefineOwnProperty(key, &heapobj.PropertyDescriptor{
		Value: val, Writable: true, Enumerable: true, Configurable: true,
	})
	return nil
}

func (a *Agent) DefineGetter(obj value.Value, key value.PropertyKey, fn value.Value) error {
	return a.defineAccessor(obj, key, fn, value.Value{}, true)
}

func (a *Agent) DefineSetter(obj value.Value, key value.PropertyKey, fn value.Value) error {
	return a.defineAccessor(obj, key, value.Value{}, fn, false)
}

func (a *Agent) defineAccessor(obj value.Value, key value.PropertyKey, getter, setter value.Value, settingGetter bool) error {
	if !obj.IsObject() {
		return errors.TypeError("cannot define accessor on a non-object")
	}
	o := a.Heap.Object(obj)
	pd, ok := o.GetOwnProperty(key)
	if !ok || !pd.IsAccessor {
		pd = &heapobj.PropertyDescriptor{IsAccessor: true, Get: value.Undefined(), Set: value.Undefined(), Enumerable: true, Configurable: true}
	}
	if settingGetter {
		pd.Get = getter
	} else {
		pd.Set = setter
	}
	o.DefineOwnProperty(key, pd)
	return nil
}

// SetPrototype implements vm.Host.SetPrototype ([[SetPrototypeOf]]).
func (a *Agent) SetPrototype(obj value.Value, proto value.Value) error {
	if !obj.IsObject() {
		return errors.TypeError("cannot set prototype of a non-object")
	}
	a.Heap.Object(obj).Prototype = proto
	return nil
}

// GetPrototypeOf implements vm.Host.GetPrototypeOf ([[GetPrototypeOf]]).
func (a *Agent) GetPrototypeOf(obj value.Value) value.Value {
	if !obj.IsObject() {
		return value.Null()
	}
	return a.Heap.Object(obj).Prototype
}

// HasProperty implements vm.Host.HasProperty ([[HasProperty]]).
func (a *Agent) HasProperty(base value.Value, key value.PropertyKey) (bool, error) {
	if !base.IsObject() {
		return false, nil
	}
	return a.Heap.HasProperty(base, key), nil
}

// DeleteProperty implements vm.Host.DeleteProperty ([[Delete]]).
func (a *Agent) DeleteProperty(base value.Value, key value.PropertyKey) (bool, error) {
	if !base.IsObject() {
		return true, nil
	}
	return a.Heap.Object(base).DeleteOwnProperty(key), nil
}

// GetPrivate implements vm.Host.GetPrivate (spec.md §4.1.1, §8 invariant 7).
func (a *Agent) GetPrivate(obj value.Value, name string) (value.Value, error) {
	if !obj.IsObject() {
		return value.Value{}, errors.TypeError("cannot read private field off a non-object")
	}
	o := a.Heap.Object(obj)
	pd, ok := o.PrivateFields[name]
	if !ok {
		return value.Value{}, errors.TypeError("private field %s must be declared in an enclosing class", name)
	}
	if pd.IsAccessor {
		if pd.Get.IsUndefined() {
			return value.Value{}, errors.TypeError("'%s' was defined without a getter", name)
		}
		return a.Call(pd.Get, obj, nil)
	}
	return pd.Value, nil
}

func (a *Agent) SetPrivate(obj value.Value, name string, v value.Value) error {
	if !obj.IsObject() {
		return errors.TypeError("cannot write private field off a non-object")
	}
	o := a.Heap.Object(obj)
	pd, ok := o.PrivateFields[name]
	if !ok {
		return errors.TypeError("private field %s must be declared in an enclosing class", name)
	}
	if pd.IsAccessor {
		if pd.Set.IsUndefined() {
			return errors.TypeError("'%s' was defined without a setter", name)
		}
		_, err := a.Call(pd.Set, obj, []value.Value{v})
		return err
	}
	pd.Value = v
	return nil
}

func (a *Agent) DefinePrivateField(obj value.Value, name string, v value.Value) error {
	if !obj.IsObject() {
		return errors.TypeError("cannot define private field on a non-object")
	}
	o := a.Heap.Object(obj)
	if o.PrivateFields == nil {
		o.PrivateFields = make(map[string]*heapobj.PropertyDescriptor)
	}
	o.PrivateFields[name] = &heapobj.PropertyDescriptor{Value: v, Writable: true}
	return nil
}

func (a *Agent) DefinePrivateMethod(obj value.Value, name string, fn value.Value, isGetSet bool, isGetter bool) error {
	if !obj.IsObject() {
		return errors.TypeError("cannot define private method on a non-object")
	}
	o := a.Heap.Object(obj)
	if o.PrivateFields == nil {
		o.PrivateFields = make(map[string]*heapobj.PropertyDescriptor)
	}
	if !isGetSet {
		o.PrivateFields[name] = &heapobj.PropertyDescriptor{Value: fn}
		return nil
	}
	pd, ok := o.PrivateFields[name]
	if !ok || !pd.IsAccessor {
		pd = &heapobj.PropertyDescriptor{IsAccessor: true, Get: value.Undefined(), Set: value.Undefined()}
	}
	if isGetter {
		pd.Get = fn
	} else {
		pd.Set = fn
	}
	o.PrivateFields[name] = pd
	return nil
}
