// Package demoprog hand-assembles small Executables for cmd/run,
// cmd/disasm, and cmd/repl to exercise. internal/ast holds no
// DebuggerStatement node and internal/compiler never emits OpDebug —
// there is no source-level parser in this module (spec.md's Non-goal,
// §F.3) — so the CLI's example programs are written directly against
// internal/bytecode.Writer, the way an assembler ships example object
// code rather than example source text.
package demoprog

import (
	"github.com/ecmacore/jsvm/internal/bytecode"
	"github.com/ecmacore/jsvm/internal/value"
	"github.com/ecmacore/jsvm/internal/vm"
)

// SumLoop assembles a program that sums 1..5 in a loop kept entirely on
// the operand stack (no bindings/environment opcodes involved), hits
// OpDebug once per iteration and once more before returning, then
// wraps the sum in a freshly created object as {result: sum}. It
// exists to give cmd/run something to execute, cmd/disasm something
// with loops and jumps to disassemble, and internal/inspector a trace
// with more than one stack frame shape to render.
func SumLoop() *bytecode.Executable {
	exec := bytecode.New()
	w := bytecode.NewWriter(exec)

	zero := exec.AddConstant(value.SmallInteger(0))
	one := exec.AddConstant(value.SmallInteger(1))
	limit := exec.AddConstant(value.SmallInteger(6))
	key := exec.AddConstant(value.SmallStringValue("result"))
	add := uint16(vm.BinAdd)

	w.Emit(bytecode.OpLoadConstant, zero)
	w.Emit(bytecode.OpLoad) // stack: sum=0
	w.Emit(bytecode.OpLoadConstant, one)
	w.Emit(bytecode.OpLoad) // stack: sum, i=1

	loopTop := w.Pos()
	// duplicate i so the comparison can consume one copy and leave the
	// other on the stack for the loop body
	w.Emit(bytecode.OpStore)
	w.Emit(bytecode.OpLoad)
	w.Emit(bytecode.OpLoad)
	w.Emit(bytecode.OpLoadConstant, limit)
	w.Emit(bytecode.OpLessThan)
	exitJump := w.EmitJump(bytecode.OpJumpIfNot)

	// body: stack is [sum, i]; compute [sum+i, i+1]
	w.Emit(bytecode.OpStore)
	w.Emit(bytecode.OpLoad)
	w.Emit(bytecode.OpLoad) // duplicate i again, stack: sum, i, i
	w.Emit(bytecode.OpLoadConstant, one)
	w.Emit(bytecode.OpApplyStringOrNumericBinaryOperator, add) // i+1
	w.Emit(bytecode.OpLoad)                                    // stack: sum, i, i+1
	w.Emit(bytecode.OpSwap)                                    // stack: sum, i+1, i
	w.Emit(bytecode.OpStore)                                   // result=i, stack: sum, i+1
	w.Emit(bytecode.OpSwap)                                    // stack: i+1, sum
	w.Emit(bytecode.OpApplyStringOrNumericBinaryOperator, add)  // sum+i
	w.Emit(bytecode.OpLoad)                                     // stack: i+1, sum+i
	w.Emit(bytecode.OpSwap)                                     // stack: sum+i, i+1
	w.Emit(bytecode.OpDebug, 0)
	w.Emit(bytecode.OpJump, uint16(loopTop))

	w.PatchJumpHere(exitJump)
	// stack is [sum, i] with i no longer < limit
	w.Emit(bytecode.OpStore) // result=i, stack: sum
	w.Emit(bytecode.OpStore) // result=sum, stack: empty

	w.Emit(bytecode.OpLoad)         // stack: sum
	w.Emit(bytecode.OpObjectCreate) // result=obj
	w.Emit(bytecode.OpLoad)         // stack: sum, obj
	w.Emit(bytecode.OpLoadConstant, key)
	w.Emit(bytecode.OpLoad) // stack: sum, obj, key

	// rotate (sum, obj, key) -> (obj, key, sum) so ObjectSetProperty's
	// expected (obj, key on stack, value in result) shape falls out
	w.Emit(bytecode.OpStore) // result=key, stack: sum, obj
	w.Emit(bytecode.OpSwap)  // stack: obj, sum
	w.Emit(bytecode.OpLoad)  // stack: obj, sum, key
	w.Emit(bytecode.OpSwap)  // stack: obj, key, sum
	w.Emit(bytecode.OpStore) // result=sum, stack: obj, key

	w.Emit(bytecode.OpObjectSetProperty)
	w.Emit(bytecode.OpDebug, 1)
	w.Emit(bytecode.OpReturn)

	return exec
}
