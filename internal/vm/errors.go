package vm

import (
	"fmt"
	"strings"

	"github.com/kristofer/navi/internal/value"
)

// Kind enumerates the exception taxonomy the core exposes, generalizing the
// teacher's single RuntimeError (pkg/vm/errors.go) into the full set pass 2
// and the VM can actually raise.
type Kind int

const (
	OutOfMemory Kind = iota
	OutOfBounds
	TypeMismatch
	ArgTypeMismatch
	MalformedFormat
	UnboundVariable
	DisallowContext
	WaitReply
	TimeLimit
	MySelfObjectDeleted
	Exit
	Other
)

func (k Kind) String() string {
	names := [...]string{
		"out-of-memory", "out-of-bounds", "type-mismatch", "arg-type-mismatch",
		"malformed-format", "unbound-variable", "disallow-context",
		"wait-reply", "time-limit", "myself-object-deleted", "exit", "other",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// StackFrame records one call-stack entry at the time an exception was
// raised, grounded on the teacher's StackFrame (pkg/vm/errors.go) but
// trimmed to what a register-machine call actually carries: there's no
// separately named method/selector, so PC is the trace's only coordinate.
type StackFrame struct {
	PC int
}

// Exception is navi's runtime error value, carrying the offending Value (if
// any) and the call-stack snapshot at the point it was raised (spec §7).
// WaitReply and TimeLimit are not user-visible failures -- the caller is
// expected to resume -- but they still flow through this type since both
// unwind out of code_execute exactly like any other exception.
type Exception struct {
	Kind       Kind
	Message    string
	Value      value.Word
	StackTrace []StackFrame
}

func (e *Exception) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.Value != 0 {
		fmt.Fprintf(&b, " (%s)", value.Print(e.Value))
	}
	for i := len(e.StackTrace) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "\n  at pc=%d", e.StackTrace[i].PC)
	}
	return b.String()
}

// Resumable reports whether the caller is expected to call Resume rather
// than treat this as a terminal failure (spec §7, "WaitReply"/"TimeLimit").
func (e *Exception) Resumable() bool {
	return e.Kind == WaitReply || e.Kind == TimeLimit
}

func newExc(kind Kind, format string, args ...interface{}) *Exception {
	return &Exception{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func newExcValue(kind Kind, v value.Word, format string, args ...interface{}) *Exception {
	return &Exception{Kind: kind, Message: fmt.Sprintf(format, args...), Value: v}
}
