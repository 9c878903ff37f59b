package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecmacore/jsvm/internal/agent"
	"github.com/ecmacore/jsvm/internal/demoprog"
	"github.com/ecmacore/jsvm/internal/engineopts"
	"github.com/ecmacore/jsvm/internal/inspector"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Step through the bundled demo program in the interactive inspector",
	Run: func(cmd *cobra.Command, args []string) {
		a := agent.NewAgent(engineopts.Options{})
		exec := demoprog.SumLoop()

		trace := inspector.Record(a, func(a *agent.Agent) error {
			_, err := a.RunExecutable(exec)
			return err
		})

		if err := inspector.RunTrace(trace, exec, a.Heap); err != nil {
			fmt.Printf("❌ inspector exited with error: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
