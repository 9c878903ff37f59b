package agent

import (
	"math"

	"github.com/ecmacore/jsvm/internal/arraybuffer"
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/typedarray"
	"github.com/ecmacore/jsvm/internal/value"
	"github.com/ecmacore/jsvm/internal/vm"
)

// buildRealm sets up the minimal realm spec.md §1's built-ins Non-goal
// calls for: "only the shape of their interaction with the VM is
// specified", so this wires a global object, %Object.prototype% /
// %Function.prototype% / %Array.prototype% / the Error prototype
// family / %TypedArray.prototype% / %Symbol.iterator%, and just enough
// constructors (Object, Array, Error and its five subclasses,
// ArrayBuffer, DataView, and the twelve TypedArray element types) to
// exercise every Host method and the internal/arraybuffer /
// internal/typedarray domain packages, rather than a conformant
// standard library.
func (a *Agent) buildRealm() {
	a.objectProto, _ = a.Heap.NewObject(heapobj.KindOrdinary, value.Null())
	a.functionProto, _ = a.Heap.NewObject(heapobj.KindOrdinary, a.objectProto)
	a.arrayProto, _ = a.Heap.NewObject(heapobj.KindOrdinary, a.objectProto)
	a.iteratorProto, _ = a.Heap.NewObject(heapobj.KindOrdinary, a.objectProto)
	a.arrayBufferProto, _ = a.Heap.NewObject(heapobj.KindOrdinary, a.objectProto)
	a.dataViewProto, _ = a.Heap.NewObject(heapobj.KindOrdinary, a.objectProto)
	a.typedArrayBaseProto, _ = a.Heap.NewObject(heapobj.KindOrdinary, a.objectProto)

	a.errorProto, _ = a.Heap.NewObject(heapobj.KindOrdinary, a.objectProto)
	a.installErrorPrototypes()

	a.symbolIteratorSym = a.Heap.NewSymbol("Symbol.iterator")
	a.symbolIteratorKey = value.NewPropertyKey(a.symbolIteratorSym)

	a.installObjectIntrinsics()
	a.installFunctionIntrinsics()
	a.installArrayIntrinsics()
	a.installArrayBufferIntrinsics()
	a.installTypedArrayIntrinsics()

	a.globalObj, _ = a.Heap.NewObject(heapobj.KindOrdinary, a.objectProto)
	a.globalEnv = vm.NewDeclarative(nil)
	a.globalEnv.WithBaseObject = &a.globalObj

	a.declareGlobal("undefined", value.Undefined())
	a.declareGlobal("NaN", a.mustNewNumber(nan()))
	a.declareGlobal("Infinity", a.mustNewNumber(inf()))
	a.declareGlobal("globalThis", a.globalObj)

	a.declareGlobalCtor("Object", a.newObjectConstructor())
	a.declareGlobalCtor("Error", a.newErrorConstructor(errors.KindError, a.errorProto))
	a.declareGlobalCtor("TypeError", a.newErrorConstructor(errors.KindTypeError, a.errorProtos[errors.KindTypeError]))
	a.declareGlobalCtor("RangeError", a.newErrorConstructor(errors.KindRangeError, a.errorProtos[errors.KindRangeError]))
	a.declareGlobalCtor("ReferenceError", a.newErrorConstructor(errors.KindReferenceError, a.errorProtos[errors.KindReferenceError]))
	a.declareGlobalCtor("SyntaxError", a.newErrorConstructor(errors.KindSyntaxError, a.errorProtos[errors.KindSyntaxError]))
	a.declareGlobalCtor("URIError", a.newErrorConstructor(errors.KindURIError, a.errorProtos[errors.KindURIError]))
	a.declareGlobalCtor("Array", a.newArrayConstructorFn())
	a.declareGlobalCtor("ArrayBuffer", a.newArrayBufferConstructorFn())
	a.declareGlobalCtor("DataView", a.newDataViewConstructorFn())
	a.installTypedArrayConstructors()
	a.installSymbolGlobal()
}

func nan() float64 { var z float64; return z / z }
func inf() float64 { return math.Inf(1) }

func (a *Agent) mustNewNumber(f float64) value.Value { return a.Heap.NewNumber(f) }

func (a *Agent) declareGlobal(name string, v value.Value) {
	a.globalEnv.CreateMutableBinding(name)
	_ = a.globalEnv.InitializeBinding(name, v)
	a.globalObj.IsUndefined() // keep linters quiet; globalObj already allocated above
	a.Heap.Object(a.globalObj).DefineOwnProperty(a.key(name), &heapobj.PropertyDescriptor{
		Value: v, Writable: true, Enumerable: false, Configurable: true,
	})
}

func (a *Agent) declareGlobalCtor(name string, ctor value.Value) {
	a.declareGlobal(name, ctor)
}

// --- Object ---

func (a *Agent) installObjectIntrinsics() {
	a.DefineMethod(a.objectProto, a.key("toString"), a.newBuiltin("toString", 0, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		tag := "Object"
		if this.IsObject() {
			tag = ag.Heap.Object(this).Kind.String()
		} else if this.IsUndefined() {
			tag = "Undefined"
		} else if this.IsNull() {
			tag = "Null"
		}
		return ag.heapString("[object " + tag + "]"), nil
	}, nil), false)
	a.DefineMethod(a.objectProto, a.key("valueOf"), a.newBuiltin("valueOf", 0, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		return this, nil
	}, nil), false)
	a.DefineMethod(a.objectProto, a.key("hasOwnProperty"), a.newBuiltin("hasOwnProperty", 1, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() || len(args) == 0 {
			return value.Boolean(false), nil
		}
		key, err := ag.ToPropertyKey(args[0])
		if err != nil {
			return value.Value{}, err
		}
		_, ok := ag.Heap.Object(this).GetOwnProperty(key)
		return value.Boolean(ok), nil
	}, nil), false)
}

func (a *Agent) newObjectConstructor() value.Value {
	fn := func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) > 0 && args[0].IsObject() {
			return args[0], nil
		}
		return ag.NewPlainObject(), nil
	}
	ctor := func(ag *Agent, args []value.Value) (value.Value, error) {
		if len(args) > 0 && args[0].IsObject() {
			return args[0], nil
		}
		return ag.NewPlainObject(), nil
	}
	v := a.newBuiltin("Object", 1, fn, ctor)
	a.Heap.Object(v).DefineOwnProperty(a.key("prototype"), &heapobj.PropertyDescriptor{Value: a.objectProto})
	a.Heap.Object(a.objectProto).DefineOwnProperty(a.key("constructor"), &heapobj.PropertyDescriptor{
		Value: v, Writable: true, Configurable: true,
	})
	return v
}

// --- Function ---

func (a *Agent) installFunctionIntrinsics() {
	a.DefineMethod(a.functionProto, a.key("call"), a.newBuiltin("call", 1, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		var thisArg value.Value
		var rest []value.Value
		if len(args) > 0 {
			thisArg, rest = args[0], args[1:]
		} else {
			thisArg = value.Undefined()
		}
		return ag.Call(this, thisArg, rest)
	}, nil), false)
	a.DefineMethod(a.functionProto, a.key("apply"), a.newBuiltin("apply", 2, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		var thisArg value.Value
		if len(args) > 0 {
			thisArg = args[0]
		} else {
			thisArg = value.Undefined()
		}
		var argList []value.Value
		if len(args) > 1 && !args[1].IsNullOrUndefined() {
			elems, ok := ag.DenseElements(args[1])
			if !ok {
				return value.Value{}, errors.TypeError("CreateListFromArrayLike called on non-array argument")
			}
			argList = elems
		}
		return ag.Call(this, thisArg, argList)
	}, nil), false)
	a.DefineMethod(a.functionProto, a.key("toString"), a.newBuiltin("toString", 0, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		fd, err := ag.functionData(this)
		if err != nil {
			return value.Value{}, err
		}
		return ag.heapString("function " + fd.Callable.Name() + "() { [native code] }"), nil
	}, nil), false)
}

// --- Array ---

func (a *Agent) installArrayIntrinsics() {
	a.DefineMethod(a.arrayProto, a.key("push"), a.newBuiltin("push", 1, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		for _, v := range args {
			if err := ag.ArrayPush(this, v); err != nil {
				return value.Value{}, err
			}
		}
		return ag.Get(this, a0Key, this)
	}, nil), false)
	a.DefineMethod(a.arrayProto, a.key("join"), a.newBuiltin("join", 1, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		sep := ","
		if len(args) > 0 && !args[0].IsUndefined() {
			s, err := ag.ToString(args[0])
			if err != nil {
				return value.Value{}, err
			}
			sep = s
		}
		elems, ok := ag.DenseElements(this)
		if !ok {
			return value.Value{}, errors.TypeError("Array.prototype.join called on a non-array")
		}
		out := ""
		for i, el := range elems {
			if i > 0 {
				out += sep
			}
			if el.IsNullOrUndefined() {
				continue
			}
			s, err := ag.ToString(el)
			if err != nil {
				return value.Value{}, err
			}
			out += s
		}
		return ag.heapString(out), nil
	}, nil), false)
	a.DefineMethod(a.arrayProto, a.symbolIteratorKeyOrZero(), a.newBuiltin("[Symbol.iterator]", 0, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		return ag.newArrayIterator(this), nil
	}, nil), false)
}

// symbolIteratorKeyOrZero returns a.symbolIteratorKey, which is the zero
// PropertyKey until buildRealm assigns it. buildRealm assigns
// symbolIteratorSym/Key before it calls installArrayIntrinsics, so the
// key is already set when the array intrinsics read it.
func (a *Agent) symbolIteratorKeyOrZero() value.PropertyKey { return a.symbolIteratorKey }

func (a *Agent) newArrayIterator(arr value.Value) value.Value {
	idx := int64(0)
	iterObj, iterObjData := a.Heap.NewObject(heapobj.KindOrdinary, a.iteratorProto)
	_ = iterObjData
	nextFn := a.newBuiltin("next", 0, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		result := ag.NewPlainObject()
		done := true
		val := value.Undefined()
		if arr.IsObject() {
			obj := ag.Heap.Object(arr)
			if obj.Kind == heapobj.KindArray {
				if idx < arrayLength(obj) {
					done = false
					if pd, ok := obj.GetOwnProperty(value.IndexKey(idx)); ok {
						val = pd.Value
					}
					idx++
				}
			}
		}
		_ = ag.Set(result, ag.key("value"), val, result)
		_ = ag.Set(result, ag.key("done"), value.Boolean(done), result)
		return result, nil
	}, nil)
	a.DefineMethod(iterObj, a.key("next"), nextFn, true)
	return iterObj
}

func (a *Agent) newArrayConstructorFn() value.Value {
	build := func(ag *Agent, args []value.Value) (value.Value, error) {
		if len(args) == 1 && args[0].Tag().IsNumeric() && !args[0].Tag().IsBigInt() {
			v := ag.NewArray(nil)
			setArrayLength(ag.Heap.Object(v), int64(ag.numberOf(args[0])))
			return v, nil
		}
		return ag.NewArray(args), nil
	}
	fn := func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) { return build(ag, args) }
	v := a.newBuiltin("Array", 1, fn, build)
	a.Heap.Object(v).DefineOwnProperty(a.key("prototype"), &heapobj.PropertyDescriptor{Value: a.arrayProto})
	a.Heap.Object(a.arrayProto).DefineOwnProperty(a.key("constructor"), &heapobj.PropertyDescriptor{
		Value: v, Writable: true, Configurable: true,
	})
	return v
}

// --- Errors ---

func (a *Agent) installErrorPrototypes() {
	a.errorProtos = map[errors.Kind]value.Value{}
	a.Heap.Object(a.errorProto).DefineOwnProperty(a.key("name"), &heapobj.PropertyDescriptor{
		Value: a.heapString("Error"), Writable: true, Configurable: true,
	})
	a.Heap.Object(a.errorProto).DefineOwnProperty(a.key("message"), &heapobj.PropertyDescriptor{
		Value: a.heapString(""), Writable: true, Configurable: true,
	})
	a.DefineMethod(a.errorProto, a.key("toString"), a.newBuiltin("toString", 0, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		name, err := ag.Get(this, ag.key("name"), this)
		if err != nil {
			return value.Value{}, err
		}
		nameStr, _ := ag.ToString(name)
		msg, err := ag.Get(this, ag.key("message"), this)
		if err != nil {
			return value.Value{}, err
		}
		msgStr, _ := ag.ToString(msg)
		if msgStr == "" {
			return ag.heapString(nameStr), nil
		}
		if nameStr == "" {
			return ag.heapString(msgStr), nil
		}
		return ag.heapString(nameStr + ": " + msgStr), nil
	}, nil), false)

	for kind, name := range map[errors.Kind]string{
		errors.KindTypeError:      "TypeError",
		errors.KindRangeError:     "RangeError",
		errors.KindReferenceError: "ReferenceError",
		errors.KindSyntaxError:    "SyntaxError",
		errors.KindURIError:       "URIError",
	} {
		proto, _ := a.Heap.NewObject(heapobj.KindOrdinary, a.errorProto)
		a.Heap.Object(proto).DefineOwnProperty(a.key("name"), &heapobj.PropertyDescriptor{
			Value: a.heapString(name), Writable: true, Configurable: true,
		})
		a.errorProtos[kind] = proto
	}
	a.errorProtos[errors.KindError] = a.errorProto
}

func (a *Agent) newErrorConstructor(kind errors.Kind, proto value.Value) value.Value {
	build := func(ag *Agent, args []value.Value) (value.Value, error) {
		message := ""
		if len(args) > 0 && !args[0].IsUndefined() {
			s, err := ag.ToString(args[0])
			if err != nil {
				return value.Value{}, err
			}
			message = s
		}
		return ag.makeErrorObject(kind, message, nil), nil
	}
	fn := func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) { return build(ag, args) }
	name := kind.String()
	v := a.newBuiltin(name, 1, fn, build)
	a.Heap.Object(v).DefineOwnProperty(a.key("prototype"), &heapobj.PropertyDescriptor{Value: proto})
	a.Heap.Object(proto).DefineOwnProperty(a.key("constructor"), &heapobj.PropertyDescriptor{
		Value: v, Writable: true, Configurable: true,
	})
	return v
}

// --- ArrayBuffer / DataView ---

func (a *Agent) installArrayBufferIntrinsics() {
	a.defineGetter(a.arrayBufferProto, "byteLength", func(ag *Agent, this value.Value) (value.Value, error) {
		buf := arraybuffer.Of(ag.Heap, this)
		return value.SmallInteger(int64(buf.ByteLength())), nil
	})
	a.DefineMethod(a.arrayBufferProto, a.key("slice"), a.newBuiltin("slice", 2, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		buf := arraybuffer.Of(ag.Heap, this)
		n := buf.ByteLength()
		start, end := 0, n
		if len(args) > 0 {
			s, err := ag.ToNumber(args[0])
			if err != nil {
				return value.Value{}, err
			}
			start = clampIdx(int(ag.numberOf(s)), n)
		}
		if len(args) > 1 && !args[1].IsUndefined() {
			e, err := ag.ToNumber(args[1])
			if err != nil {
				return value.Value{}, err
			}
			end = clampIdx(int(ag.numberOf(e)), n)
		}
		if end < start {
			end = start
		}
		newVal, newBuf := arraybuffer.Create(ag.Heap, ag.arrayBufferProto, end-start, arraybuffer.NoMaxByteLength)
		copy(newBuf.Bytes, buf.Bytes[start:end])
		return newVal, nil
	}, nil), false)
}

func clampIdx(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func (a *Agent) newArrayBufferConstructorFn() value.Value {
	build := func(ag *Agent, args []value.Value) (value.Value, error) {
		length := 0
		if len(args) > 0 {
			n, err := ag.ToNumber(args[0])
			if err != nil {
				return value.Value{}, err
			}
			length = int(ag.numberOf(n))
		}
		v, _ := arraybuffer.Create(ag.Heap, ag.arrayBufferProto, length, arraybuffer.NoMaxByteLength)
		return v, nil
	}
	fn := func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		return value.Value{}, errors.TypeError("constructor ArrayBuffer requires 'new'")
	}
	v := a.newBuiltin("ArrayBuffer", 1, fn, build)
	a.Heap.Object(v).DefineOwnProperty(a.key("prototype"), &heapobj.PropertyDescriptor{Value: a.arrayBufferProto})
	a.Heap.Object(a.arrayBufferProto).DefineOwnProperty(a.key("constructor"), &heapobj.PropertyDescriptor{
		Value: v, Writable: true, Configurable: true,
	})
	return v
}

func (a *Agent) newDataViewConstructorFn() value.Value {
	build := func(ag *Agent, args []value.Value) (value.Value, error) {
		if len(args) == 0 || !args[0].IsObject() {
			return value.Value{}, errors.TypeError("DataView constructor requires an ArrayBuffer argument")
		}
		offset := 0
		if len(args) > 1 {
			n, err := ag.ToNumber(args[1])
			if err != nil {
				return value.Value{}, err
			}
			offset = int(ag.numberOf(n))
		}
		autoLength := len(args) < 3 || args[2].IsUndefined()
		length := 0
		if !autoLength {
			n, err := ag.ToNumber(args[2])
			if err != nil {
				return value.Value{}, err
			}
			length = int(ag.numberOf(n))
		}
		return arraybuffer.NewDataView(ag.Heap, ag.dataViewProto, args[0], offset, length, autoLength)
	}
	fn := func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		return value.Value{}, errors.TypeError("constructor DataView requires 'new'")
	}
	v := a.newBuiltin("DataView", 1, fn, build)
	a.Heap.Object(v).DefineOwnProperty(a.key("prototype"), &heapobj.PropertyDescriptor{Value: a.dataViewProto})
	a.Heap.Object(a.dataViewProto).DefineOwnProperty(a.key("constructor"), &heapobj.PropertyDescriptor{
		Value: v, Writable: true, Configurable: true,
	})
	return v
}

// --- TypedArray ---

type typedArraySpec struct {
	name string
	elem typedarray.ElementType
}

var typedArraySpecs = []typedArraySpec{
	{"Int8Array", typedarray.Int8},
	{"Uint8Array", typedarray.Uint8},
	{"Uint8ClampedArray", typedarray.Uint8Clamped},
	{"Int16Array", typedarray.Int16},
	{"Uint16Array", typedarray.Uint16},
	{"Int32Array", typedarray.Int32},
	{"Uint32Array", typedarray.Uint32},
	{"BigInt64Array", typedarray.BigInt64},
	{"BigUint64Array", typedarray.BigUint64},
	{"Float16Array", typedarray.Float16},
	{"Float32Array", typedarray.Float32},
	{"Float64Array", typedarray.Float64},
}

func (a *Agent) installTypedArrayIntrinsics() {
	a.defineGetter(a.typedArrayBaseProto, "length", func(ag *Agent, this value.Value) (value.Value, error) {
		ta := typedarray.Of(ag.Heap, this)
		w := typedarray.MakeTypedArrayWithBufferWitnessRecord(ag.Heap, ta, arraybuffer.Unordered)
		if typedarray.IsTypedArrayOutOfBounds(ag.Heap, w) {
			return value.SmallInteger(0), nil
		}
		return value.SmallInteger(int64(typedarray.TypedArrayLength(w))), nil
	})
	a.defineGetter(a.typedArrayBaseProto, "byteLength", func(ag *Agent, this value.Value) (value.Value, error) {
		ta := typedarray.Of(ag.Heap, this)
		w := typedarray.MakeTypedArrayWithBufferWitnessRecord(ag.Heap, ta, arraybuffer.Unordered)
		return value.SmallInteger(int64(typedarray.TypedArrayByteLength(ag.Heap, w))), nil
	})
	a.DefineMethod(a.typedArrayBaseProto, a.key("copyWithin"), a.newBuiltin("copyWithin", 2, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		ta := typedarray.Of(ag.Heap, this)
		w := typedarray.MakeTypedArrayWithBufferWitnessRecord(ag.Heap, ta, arraybuffer.Unordered)
		n := int64(typedarray.TypedArrayLength(w))
		target, start, end := int64(0), int64(0), n
		if len(args) > 0 {
			v, err := ag.ToNumber(args[0])
			if err != nil {
				return value.Value{}, err
			}
			target = int64(ag.numberOf(v))
		}
		if len(args) > 1 {
			v, err := ag.ToNumber(args[1])
			if err != nil {
				return value.Value{}, err
			}
			start = int64(ag.numberOf(v))
		}
		if len(args) > 2 && !args[2].IsUndefined() {
			v, err := ag.ToNumber(args[2])
			if err != nil {
				return value.Value{}, err
			}
			end = int64(ag.numberOf(v))
		}
		if err := typedarray.CopyWithin(ag.Heap, ta, target, start, end); err != nil {
			return value.Value{}, err
		}
		return this, nil
	}, nil), false)
}

func (a *Agent) installTypedArrayConstructors() {
	for _, spec := range typedArraySpecs {
		a.declareGlobalCtor(spec.name, a.newTypedArrayConstructor(spec))
	}
}

func (a *Agent) newTypedArrayConstructor(spec typedArraySpec) value.Value {
	proto, _ := a.Heap.NewObject(heapobj.KindOrdinary, a.typedArrayBaseProto)

	build := func(ag *Agent, args []value.Value) (value.Value, error) {
		if len(args) > 0 && args[0].IsObject() && ag.Heap.Object(args[0]).Kind == heapobj.KindArrayBuffer {
			offset := 0
			if len(args) > 1 {
				n, err := ag.ToNumber(args[1])
				if err != nil {
					return value.Value{}, err
				}
				offset = int(ag.numberOf(n))
			}
			var length *int
			if len(args) > 2 && !args[2].IsUndefined() {
				n, err := ag.ToNumber(args[2])
				if err != nil {
					return value.Value{}, err
				}
				l := int(ag.numberOf(n))
				length = &l
			}
			return typedarray.InitializeTypedArrayFromArrayBuffer(ag.Heap, proto, args[0], spec.elem, offset, length)
		}
		if len(args) > 0 && args[0].IsObject() {
			if elems, ok := ag.DenseElements(args[0]); ok {
				return typedarray.InitializeTypedArrayFromList(ag.Heap, proto, ag.arrayBufferProto, spec.elem, elems)
			}
		}
		n := 0
		if len(args) > 0 {
			v, err := ag.ToNumber(args[0])
			if err != nil {
				return value.Value{}, err
			}
			n = int(ag.numberOf(v))
		}
		bufVal, err := typedarray.AllocateTypedArrayBuffer(ag.Heap, ag.arrayBufferProto, spec.elem, n)
		if err != nil {
			return value.Value{}, err
		}
		return typedarray.InitializeTypedArrayFromArrayBuffer(ag.Heap, proto, bufVal, spec.elem, 0, &n)
	}
	fn := func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		return value.Value{}, errors.TypeError("constructor %s requires 'new'", spec.name)
	}
	v := a.newBuiltin(spec.name, 3, fn, build)
	a.Heap.Object(v).DefineOwnProperty(a.key("prototype"), &heapobj.PropertyDescriptor{Value: proto})
	a.Heap.Object(proto).DefineOwnProperty(a.key("constructor"), &heapobj.PropertyDescriptor{
		Value: v, Writable: true, Configurable: true,
	})
	a.Heap.Object(proto).DefineOwnProperty(a.key("BYTES_PER_ELEMENT"), &heapobj.PropertyDescriptor{
		Value: value.SmallInteger(int64(spec.elem.Size())),
	})
	return v
}

// --- Symbol ---

func (a *Agent) installSymbolGlobal() {
	fn := func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		desc := ""
		if len(args) > 0 && !args[0].IsUndefined() {
			s, err := ag.ToString(args[0])
			if err != nil {
				return value.Value{}, err
			}
			desc = s
		}
		return ag.Heap.NewSymbol(desc), nil
	}
	v := a.newBuiltin("Symbol", 0, fn, nil)
	a.Heap.Object(v).DefineOwnProperty(a.key("iterator"), &heapobj.PropertyDescriptor{Value: a.symbolIteratorSym})
	a.declareGlobal("Symbol", v)
}

// defineGetter installs a getter-only accessor backed by a Go
// closure, the shape every intrinsic length/byteLength/etc. accessor in
// this realm takes.
func (a *Agent) defineGetter(obj value.Value, name string, get func(a *Agent, this value.Value) (value.Value, error)) {
	fn := a.newBuiltin("get "+name, 0, func(ag *Agent, this value.Value, args []value.Value) (value.Value, error) {
		return get(ag, this)
	}, nil)
	_ = a.DefineGetter(obj, a.key(name), fn)
}
