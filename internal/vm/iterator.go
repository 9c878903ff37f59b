package vm

import "github.com/ecmacore/jsvm/internal/value"

// Iterator is the VM's uniform view of anything EnumerateObjectProperties
// or the general destructuring path can drive with IteratorNext/
// IteratorComplete/IteratorValue (spec.md §4.1 "Iteration", §4.2
// "Destructuring execution"). The VM itself never knows whether an
// entry came from a for-in property walk or a real @@iterator object —
// both are pushed onto iterator_stack behind this interface (spec.md
// §4.2 "iterator_stack: LIFO of iterators, each variant-tagged").
type Iterator interface {
	// Advance fetches the next value. done == true means the iterator is
	// exhausted and value is meaningless.
	Advance() (val value.Value, done bool, err error)
	// Close releases any underlying resource (calls return() on a real
	// @@iterator object); a no-op for the property-enumeration variant.
	Close() error
}

// propertyIterator implements EnumerateObjectProperties: a flat,
// pre-computed list of enumerable string keys walked up the prototype
// chain once at iterator-creation time (ECMA-262's actual
// EnumerateObjectProperties is lazier and prototype-chain-aware on
// every step; this snapshot is the simplification spec.md §9 leaves to
// the implementer, adequate for for-in's "own and inherited enumerable
// string keys" contract without re-deriving prototype-walk order on
// every Next).
type propertyIterator struct {
	keys []string
	pos  int
}

func NewPropertyIterator(keys []string) Iterator {
	return &propertyIterator{keys: keys}
}

func (it *propertyIterator) Advance() (value.Value, bool, error) {
	if it.pos >= len(it.keys) {
		return value.Value{}, true, nil
	}
	k := it.keys[it.pos]
	it.pos++
	return value.SmallStringValue(k), false, nil
}

func (it *propertyIterator) Close() error { return nil }

// GenericIteratorFunc lets the Host drive an actual @@iterator object's
// next()/return() through [[Call]] without this package depending on
// internal/agent (spec.md §9's "leaves first" ordering again): the VM
// only needs NextFunc/CloseFunc, not the mechanics of method dispatch.
type GenericIteratorFunc struct {
	// Next returns (value, done, error); it is the caller's
	// {value, done} IteratorResult already unpacked.
	Next  func() (value.Value, bool, error)
	Close func() error
}

type genericIterator struct{ fns GenericIteratorFunc }

func NewGenericIterator(fns GenericIteratorFunc) Iterator { return &genericIterator{fns: fns} }

func (it *genericIterator) Advance() (value.Value, bool, error) { return it.fns.Next() }
func (it *genericIterator) Close() error {
	if it.fns.Close != nil {
		return it.fns.Close()
	}
	return nil
}

// sliceIterator drives BeginSimpleArrayBindingPattern's fast path over
// a dense array's already-materialized elements, skipping @@iterator
// entirely (spec.md §4.2 "Destructuring execution": "it reads up to n
// elements directly from the array slot storage, provided every
// read-slot is present").
type sliceIterator struct {
	elems []value.Value
	pos   int
}

func NewSliceIterator(elems []value.Value) Iterator { return &sliceIterator{elems: elems} }

func (it *sliceIterator) Advance() (value.Value, bool, error) {
	if it.pos >= len(it.elems) {
		return value.Undefined(), true, nil
	}
	v := it.elems[it.pos]
	it.pos++
	return v, false, nil
}

func (it *sliceIterator) Close() error { return nil }
