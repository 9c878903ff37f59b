package agent

import (
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
)

// NewError implements vm.Host.NewError. A *thrownValue unwraps back to
// the exact Value that was originally thrown (spec.md §7: a throw
// completion's payload is an arbitrary Value, not necessarily an Error
// object) instead of being re-boxed into a synthesized generic Error —
// the VM calls this on every non-nil error a Host method returns, so
// double-wrapping would turn `throw 42` into an Error object whose
// message is "42" rather than preserving the thrown 42 itself.
func (a *Agent) NewError(err error) value.Value {
	if tv, ok := err.(*thrownValue); ok {
		return tv.v
	}
	if ee, ok := err.(*errors.Error); ok {
		return a.makeErrorObject(ee.Kind, ee.Message, ee.Stack)
	}
	return a.makeErrorObject(errors.KindError, err.Error(), nil)
}

// makeErrorObject builds a KindError heap object with kind's prototype,
// storing the engine's internal taxonomy in Extra as plain strings
// (heapobj.ErrorData's doc comment: this avoids an import cycle between
// heapobj and the richer internal/errors.Kind type).
func (a *Agent) makeErrorObject(kind errors.Kind, message string, stack []string) value.Value {
	proto, ok := a.errorProtos[kind]
	if !ok {
		proto = a.errorProto
	}
	v, obj := a.Heap.NewObject(heapobj.KindError, proto)
	obj.Extra = &heapobj.ErrorData{Kind: kind.String(), Message: message, Stack: stack}
	obj.DefineOwnProperty(a.key("message"), &heapobj.PropertyDescriptor{
		Value: a.heapString(message), Writable: true, Configurable: true,
	})
	return v
}
