package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kristofer/navi/internal/bytecode"
)

var disassembleCmd = &cobra.Command{
	Use:     "disassemble <file.nvc>",
	Aliases: []string{"disasm"},
	Short:   "Print a human-readable listing of a .nvc bytecode image",
	Args:    cobra.ExactArgs(1),
	RunE:    runDisassemble,
}

func runDisassemble(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	obj, _, err := newSession(newLogger())
	if err != nil {
		return err
	}
	code, err := bytecode.ReadCode(f, obj, obj)
	if err != nil {
		return fmt.Errorf("loading %s: %w", args[0], err)
	}

	fmt.Printf("=== %s ===\n", args[0])
	return bytecode.Disassemble(os.Stdout, code)
}
