// Command navi is the navi language's CLI collaborator: a REPL, a script
// runner, a bytecode compiler/disassembler, and a small actor-pool
// benchmark, grounded on the teacher's cmd/smog/main.go but restructured
// around cobra subcommands the way the wider example pack's CLIs are built
// (spec §6, "External interfaces").
package main

import (
	"fmt"
	"os"

	"github.com/kristofer/navi/cmd/navi/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
