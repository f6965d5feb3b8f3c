package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/kristofer/navi/internal/value"
	"github.com/kristofer/navi/internal/vm"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive navi REPL",
	RunE:  runRepl,
}

// runRepl reads one S-expression at a time with chzyer/readline's line
// editor (history + arrow-key editing, replacing the teacher's
// history-less bufio.Scanner prompt loop), compiles and evaluates it
// against one resident actor Object, and prints the result or a formatted
// Exception. Exit codes follow spec §6: 0 on clean EOF, 1 on an
// unrecoverable error.
func runRepl(cmd *cobra.Command, args []string) error {
	rl, err := readline.New("navi> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	logger := newLogger()
	obj, reg, err := newSession(logger)
	if err != nil {
		return err
	}
	limit := vm.Limit{Instructions: instrBudget}

	var pending strings.Builder
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return err
		}
		pending.WriteString(line)
		pending.WriteString("\n")

		src := pending.String()
		if !balanced(src) {
			rl.SetPrompt("  ...> ")
			continue
		}
		pending.Reset()
		rl.SetPrompt("navi> ")

		if strings.TrimSpace(src) == "" {
			continue
		}

		code, err := compileSource(obj, src)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		result, err := runToCompletion(reg, obj, code, limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Println(value.Print(result))
	}
}

// balanced reports whether every `(`, `{`, `[` opened in src has been
// closed, so the REPL can prompt for a continuation line instead of
// handing the parser an incomplete form.
func balanced(src string) bool {
	depth := 0
	inString := false
	escape := false
	for _, r := range src {
		if escape {
			escape = false
			continue
		}
		switch {
		case inString && r == '\\':
			escape = true
		case inString && r == '"':
			inString = false
		case inString:
			continue
		case r == '"':
			inString = true
		case r == '(' || r == '{' || r == '[':
			depth++
		case r == ')' || r == '}' || r == ']':
			depth--
		}
	}
	return depth <= 0
}
