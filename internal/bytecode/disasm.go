package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassemble renders exec's instruction stream as one line per
// instruction: offset, mnemonic, and decoded operands resolved against
// the relevant side table (identifiers shown as quoted names,
// function expressions with their name beside the index, constants as
// const[N]), the way a
// disassembler is useless if you have to cross-reference side tables by
// hand. Grounded on the teacher's cmd/heap.go "analyze and print a
// human-readable report" command shape, adapted from a heap-dump report
// to an instruction listing.
func Disassemble(exec *Executable, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)

	r := NewReader(exec)
	for !r.AtEnd() {
		d, err := r.Next()
		if err != nil {
			fmt.Fprintf(&b, "%04d  <error: %v>\n", r.Pos(), err)
			break
		}
		writeInstruction(&b, exec, d)
	}
	return b.String()
}

func writeInstruction(b *strings.Builder, exec *Executable, d Decoded) {
	fmt.Fprintf(b, "%04d  %-42s", d.Offset, d.Op.String())
	flags := d.Op.Flags()
	for i, operand := range d.Operands {
		if i > 0 {
			b.WriteString(", ")
		} else {
			b.WriteString("  ")
		}
		fmt.Fprint(b, formatOperand(exec, flags, i, operand))
	}
	b.WriteByte('\n')
}

func formatOperand(exec *Executable, flags OperandFlags, index int, operand uint16) string {
	switch {
	case flags.Has(FlagJumpSlot) && index == 0:
		return "-> " + strconv.Itoa(int(operand))
	case flags.Has(FlagConstantIndex) && index == 0:
		if int(operand) < len(exec.Constants) {
			return fmt.Sprintf("const[%d]", operand)
		}
		return fmt.Sprintf("const[%d] <out of range>", operand)
	case flags.Has(FlagIdentifierIndex) && index == 0:
		if int(operand) < len(exec.Identifiers) {
			return fmt.Sprintf("%q", exec.Identifiers[operand])
		}
		return fmt.Sprintf("ident[%d] <out of range>", operand)
	case flags.Has(FlagFunctionExpressionIndex) && index == 0:
		if int(operand) < len(exec.FunctionExpressions) {
			return fmt.Sprintf("fn[%d] %s", operand, exec.FunctionExpressions[operand].Name)
		}
		return fmt.Sprintf("fn[%d] <out of range>", operand)
	case flags.Has(FlagArrowFunctionExpressionIndex) && index == 0:
		if int(operand) < len(exec.ArrowFunctionExpressions) {
			return fmt.Sprintf("arrow[%d]", operand)
		}
		return fmt.Sprintf("arrow[%d] <out of range>", operand)
	default:
		return strconv.Itoa(int(operand))
	}
}

// DisassembleRecursive walks exec and every nested function/arrow
// expression, producing one section per Executable. Useful for dumping
// a whole script's compiled output in one pass rather than chasing each
// FnExpr by hand.
func DisassembleRecursive(exec *Executable, name string) string {
	var b strings.Builder
	b.WriteString(Disassemble(exec, name))
	for i, fn := range exec.FunctionExpressions {
		if fn.Code != nil {
			b.WriteByte('\n')
			b.WriteString(DisassembleRecursive(fn.Code, fmt.Sprintf("%s/function[%d] %s", name, i, fn.Name)))
		}
	}
	for i, fn := range exec.ArrowFunctionExpressions {
		if fn.Code != nil {
			b.WriteByte('\n')
			b.WriteString(DisassembleRecursive(fn.Code, fmt.Sprintf("%s/arrow[%d]", name, i)))
		}
	}
	return b.String()
}
