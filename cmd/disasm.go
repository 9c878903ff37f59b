package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecmacore/jsvm/internal/bytecode"
	"github.com/ecmacore/jsvm/internal/demoprog"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm",
	Short: "Disassemble the bundled demo program",
	Run: func(cmd *cobra.Command, args []string) {
		exec := demoprog.SumLoop()
		fmt.Println(bytecode.Disassemble(exec, "sum-loop"))
	},
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}
