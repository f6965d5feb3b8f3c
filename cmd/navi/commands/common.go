package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/kristofer/navi/internal/compiler"
	"github.com/kristofer/navi/internal/mailbox"
	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/reader"
	"github.com/kristofer/navi/internal/value"
	"github.com/kristofer/navi/internal/vm"
)

// newLogger builds the slog logger every collaborator (Object, Heap,
// Mailbox) logs GC and scheduling events through; the CLI keeps it quiet by
// default so a script's own `print` output isn't interleaved with runtime
// chatter.
func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// newSession builds a fresh actor with every global primitive installed
// (spec §6, "Global registered symbols"), registered in its own registry so
// `spawn`/`send` work even for a one-shot `run`/`repl` invocation that never
// starts the long-running scheduler.
func newSession(logger *slog.Logger) (*object.Object, *mailbox.Registry, error) {
	obj := object.New("main", logger)
	if err := vm.RegisterGlobals(obj); err != nil {
		return nil, nil, err
	}
	reg := mailbox.NewRegistry()
	mb := mailbox.New(uuid.New(), logger, reg)
	mb.SetObject(obj)
	reg.Register(mb)
	return obj, reg, nil
}

// compileSource reads every top-level form in src and compiles them against
// obj, installing any def-recv clauses along the way (internal/compiler's
// CompileProgram).
func compileSource(obj *object.Object, src string) (value.Word, error) {
	p := reader.NewParser(src, obj, obj)
	forms, err := p.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("parse error: %w", err)
	}
	return compiler.CompileProgram(obj, forms)
}

// runToCompletion executes code on self to a final value, pumping every
// other registered mailbox once per suspension so a script that spawns
// actors and waits on a reply still makes progress (spec §5, "Scheduling
// model"), without needing to stand up internal/scheduler's long-running
// worker pool for a single evaluation.
func runToCompletion(reg *mailbox.Registry, self *object.Object, code value.Word, limit vm.Limit) (value.Word, error) {
	result, st, err := vm.Execute(self, code, nil, limit)
	for st != nil {
		progressed := false
		for _, id := range reg.IDs() {
			mb, ok := reg.Lookup(id)
			if !ok {
				continue
			}
			if stepErr := mb.Step(reg, limit); stepErr == nil {
				progressed = true
			}
		}
		result, st, err = vm.Resume(st, limit)
		if st != nil && !progressed {
			return 0, fmt.Errorf("navi: no mailbox made progress; reply never arrived")
		}
	}
	return result, err
}
