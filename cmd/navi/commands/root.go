// Package commands wires navi's cobra subcommands together, following the
// wider example pack's CLI convention (Roasbeef-substrate's
// cmd/substrate/commands: a package-level rootCmd, one file per subcommand,
// persistent flags declared in root.go's init) rather than the teacher's
// flat os.Args switch, which has no equivalent once the CLI grows past a
// handful of verbs.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// instrBudget bounds every VM timeslice (spec §4.5, "Execution
	// budget"); 0 means unlimited, appropriate for a one-shot `run` but
	// not for a scheduler hosting untrusted actors.
	instrBudget int64

	// workers sets the scheduler's OS-thread worker count (spawn-bench
	// only; repl/run/compile/disassemble are single-threaded tools).
	workers int
)

var rootCmd = &cobra.Command{
	Use:   "navi",
	Short: "navi -- an actor-based S-expression language and bytecode VM",
	Long: `navi compiles S-expression source to a register-style bytecode and
runs it on a virtual machine with a custom moving garbage collector and
isolated-heap actors that communicate by message passing.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&instrBudget, "budget", 0,
		"instructions per VM timeslice before suspending with TimeLimit (0 = unlimited)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 4,
		"scheduler OS-thread worker count (spawn-bench only)")

	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(disassembleCmd)
	rootCmd.AddCommand(spawnBenchCmd)
}
