package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecmacore/jsvm/internal/agent"
	"github.com/ecmacore/jsvm/internal/demoprog"
	"github.com/ecmacore/jsvm/internal/engineopts"
	"github.com/ecmacore/jsvm/internal/json"
	"github.com/ecmacore/jsvm/internal/value"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bundled demo program on a fresh Agent",
	Run: func(cmd *cobra.Command, args []string) {
		a := agent.NewAgent(engineopts.Options{})
		exec := demoprog.SumLoop()

		result, err := a.RunExecutable(exec)
		if err != nil {
			fmt.Printf("❌ uncaught exception: %v\n", err)
			return
		}

		out, err := json.Stringify(a, result, value.Undefined(), value.Undefined())
		if err != nil {
			fmt.Printf("❌ failed to stringify result: %v\n", err)
			return
		}
		fmt.Println(out)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
