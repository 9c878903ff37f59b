// Package agent is the Agent of spec.md §2/§5: the thing that actually
// owns a heap, a realm's intrinsics, and a VM, and implements
// internal/vm.Host so the dispatch loop has somewhere to send property
// access, calls, coercions, and iteration. Every lower package
// (internal/heapobj, internal/arraybuffer, internal/typedarray,
// internal/module, internal/compiler, internal/vm) is a leaf this
// package wires together, never the other way around (spec.md §2's
// dependency order, and internal/vm/host.go's doc comment: "the package
// that actually implements Host by wiring in internal/heapobj,
// internal/arraybuffer, and internal/typedarray").
package agent

import (
	"fmt"

	"github.com/ecmacore/jsvm/internal/ast"
	"github.com/ecmacore/jsvm/internal/bytecode"
	"github.com/ecmacore/jsvm/internal/compiler"
	"github.com/ecmacore/jsvm/internal/engineopts"
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
	"github.com/ecmacore/jsvm/internal/vm"
)

// Agent bundles the heap, the realm's intrinsic objects, the job queue
// ordinary/async jobs land on, and the VM instance every Call/Construct
// re-enters (spec.md §5 "Agent"). One Agent is single-threaded: nothing
// here takes a lock, matching internal/value.Arena's own no-mutex
// assumption.
type Agent struct {
	Heap *heapobj.Heap
	VM   *vm.VM
	Opts engineopts.Options

	objectProto        value.Value
	functionProto       value.Value
	arrayProto          value.Value
	errorProto          value.Value
	errorProtos         map[errors.Kind]value.Value
	iteratorProto       value.Value
	arrayBufferProto    value.Value
	typedArrayBaseProto value.Value
	dataViewProto       value.Value

	globalObj value.Value
	globalEnv *vm.Environment

	symbolIteratorSym value.Value
	symbolIteratorKey value.PropertyKey

	jobQueue []func() error
}

// NewAgent builds a fresh Agent with its own heap and a minimal realm
// (spec.md §1's Non-goal: "only the shape of [built-ins'] interaction
// with the VM is specified", so the realm below carries just enough of
// Object/Array/Error/TypedArray to exercise every Host method, not a
// conformant standard library).
func NewAgent(opts engineopts.Options) *Agent {
	a := &Agent{
		Heap:        heapobj.NewHeap(),
		Opts:        opts.Normalized(),
		errorProtos: make(map[errors.Kind]value.Value),
	}
	a.VM = vm.New(a, a.Heap, a.Opts)
	a.buildRealm()
	return a
}

// RunScript compiles and runs a top-level program against the realm's
// global environment, then drains the job queue the way a real engine's
// host runs microtasks to completion after a script's synchronous
// portion returns (spec.md §6 "job queue... runs to completion between
// scripts").
func (a *Agent) RunScript(prog *ast.Program) (value.Value, error) {
	exec := compiler.CompileProgram(prog)
	frame := vm.NewFrame(exec, a.globalEnv, nil, prog.Strict)
	result, disp, err := a.VM.Run(frame)
	if err != nil {
		return value.Value{}, err
	}
	if disp == vm.Thrown {
		return value.Value{}, &thrownValue{v: result}
	}
	if err := a.RunJobs(); err != nil {
		return value.Value{}, err
	}
	return result, nil
}

// RunExecutable runs an already-compiled Executable against the
// realm's global environment, the same way RunScript does once its
// compiler.CompileProgram call returns. It exists for callers that
// build bytecode directly rather than through internal/ast +
// internal/compiler — cmd/run and cmd/repl, which run internal/demoprog's
// hand-assembled program, since this module has no source-level parser
// to feed RunScript.
func (a *Agent) RunExecutable(exec *bytecode.Executable) (value.Value, error) {
	frame := vm.NewFrame(exec, a.globalEnv, nil, false)
	result, disp, err := a.VM.Run(frame)
	if err != nil {
		return value.Value{}, err
	}
	if disp == vm.Thrown {
		return value.Value{}, &thrownValue{v: result}
	}
	if err := a.RunJobs(); err != nil {
		return value.Value{}, err
	}
	return result, nil
}

// EnqueueJob appends fn to the end of the job queue (spec.md §6). Jobs
// enqueued while draining run in the same pass, matching a microtask
// queue's "keep draining until empty" contract.
func (a *Agent) EnqueueJob(fn func() error) {
	a.jobQueue = append(a.jobQueue, fn)
}

// RunJobs drains the job queue FIFO, stopping at the first job that
// returns an error (an uncaught exception from a microtask, which this
// engine surfaces rather than swallowing).
func (a *Agent) RunJobs() error {
	for len(a.jobQueue) > 0 {
		job := a.jobQueue[0]
		a.jobQueue = a.jobQueue[1:]
		if err := job(); err != nil {
			return err
		}
	}
	return nil
}

// thrownValue carries an uncaught script-level throw completion back
// through Go's error type so it can cross a Host.Call/Construct
// boundary without losing the exact thrown Value's identity (spec.md
// §7: a throw completion's payload is an arbitrary Value, not
// necessarily an Error object). vm.VM.Run's Host.NewError hook unwraps
// it back to the original Value rather than re-boxing it, since step()
// calls NewError on every non-nil error a Host method returns — see
// errors.go.
type thrownValue struct{ v value.Value }

func (t *thrownValue) Error() string { return "uncaught exception" }

// functionData resolves fn to its Callable payload, or a TypeError if
// fn is not a Function object.
func (a *Agent) functionData(fn value.Value) (*heapobj.FunctionData, error) {
	if !fn.IsObject() {
		return nil, errors.TypeError("value is not a function")
	}
	obj := a.Heap.Object(fn)
	if obj.Kind != heapobj.KindFunction {
		return nil, errors.TypeError("value is not a function")
	}
	fd, ok := obj.Extra.(*heapobj.FunctionData)
	if !ok {
		return nil, errors.TypeError("value is not a function")
	}
	return fd, nil
}

// key interns name as a small-string PropertyKey, the shape every own
// realm-defined property name takes.
func (a *Agent) key(name string) value.PropertyKey {
	return value.NewPropertyKey(value.SmallStringValue(name))
}

// syntheticArgName mirrors internal/compiler/helpers.go's unexported
// helper of the same name: the binding compileParamBindings' doc
// comment says the host must have pre-populated before a function
// body's Frame runs.
func syntheticArgName(i int) string { return fmt.Sprintf("%%arg%d", i) }
