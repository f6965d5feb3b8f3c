package commands

import (
	"testing"

	"github.com/kristofer/navi/internal/value"
	"github.com/kristofer/navi/internal/vm"
)

func TestCompileAndRunToCompletionSimpleProgram(t *testing.T) {
	obj, reg, err := newSession(newLogger())
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	code, err := compileSource(obj, "(+ 1 2 3)")
	if err != nil {
		t.Fatalf("compileSource: %v", err)
	}
	result, err := runToCompletion(reg, obj, code, vm.Limit{})
	if err != nil {
		t.Fatalf("runToCompletion: %v", err)
	}
	if result.FixnumValue() != 6 {
		t.Fatalf("result = %d, want 6", result.FixnumValue())
	}
}

func TestCompileSourceReportsParseErrors(t *testing.T) {
	obj, _, err := newSession(newLogger())
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	if _, err := compileSource(obj, "(+ 1"); err == nil {
		t.Fatalf("expected a parse error for an unterminated form")
	}
}

func TestSpawnAndSendThroughASingleSession(t *testing.T) {
	obj, reg, err := newSession(newLogger())
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	code, err := compileSource(obj, "(spawn)")
	if err != nil {
		t.Fatalf("compileSource: %v", err)
	}
	result, err := runToCompletion(reg, obj, code, vm.Limit{})
	if err != nil {
		t.Fatalf("runToCompletion: %v", err)
	}
	if _, ok := value.AsObjectRef(result); !ok {
		t.Fatalf("expected spawn to return an ObjectRef, got %s", value.Print(result))
	}
}
