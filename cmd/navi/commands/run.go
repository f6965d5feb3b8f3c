package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kristofer/navi/internal/value"
	"github.com/kristofer/navi/internal/vm"
)

var runCmd = &cobra.Command{
	Use:   "run <file.navi>",
	Short: "Compile and run a navi source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	logger := newLogger()
	obj, reg, err := newSession(logger)
	if err != nil {
		return err
	}
	code, err := compileSource(obj, string(data))
	if err != nil {
		return err
	}

	result, err := runToCompletion(reg, obj, code, vm.Limit{Instructions: instrBudget})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(value.Print(result))
	return nil
}
