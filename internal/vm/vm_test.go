package vm_test

import (
	"testing"

	"github.com/kristofer/navi/internal/compiler"
	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/reader"
	"github.com/kristofer/navi/internal/value"
	"github.com/kristofer/navi/internal/vm"
)

func eval(t *testing.T, src string) value.Word {
	t.Helper()
	obj := object.New("test", nil)
	if err := vm.RegisterGlobals(obj); err != nil {
		t.Fatalf("RegisterGlobals: %v", err)
	}
	p := reader.NewParser(src, obj, obj)
	forms, err := p.ReadAll()
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	code, err := compiler.CompileProgram(obj, forms)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	result, st, err := vm.Execute(obj, code, nil, vm.Limit{})
	if err != nil {
		t.Fatalf("execute %q: %v", src, err)
	}
	if st != nil {
		t.Fatalf("execute %q: unexpected suspension", src)
	}
	return result
}

func TestArithmeticPrimitives(t *testing.T) {
	cases := []struct {
		src  string
		want int64
	}{
		{"(+ 1 2 3)", 6},
		{"(- 10 3 2)", 5},
		{"(* 2 3 4)", 24},
		{"(abs (- 0 5))", 5},
	}
	for _, c := range cases {
		got := eval(t, c.src)
		if got.FixnumValue() != c.want {
			t.Errorf("eval(%q) = %d, want %d", c.src, got.FixnumValue(), c.want)
		}
	}
}

func TestIfAndLet(t *testing.T) {
	if got := eval(t, "(if (< 1 2) 10 20)"); got.FixnumValue() != 10 {
		t.Errorf("if true branch = %d", got.FixnumValue())
	}
	if got := eval(t, "(if (> 1 2) 10 20)"); got.FixnumValue() != 20 {
		t.Errorf("if false branch = %d", got.FixnumValue())
	}
	if got := eval(t, "(let x 5) (+ x 1)"); got.FixnumValue() != 6 {
		t.Errorf("let body = %d", got.FixnumValue())
	}
	if got := eval(t, "(local (let x 5) (+ x 1))"); got.FixnumValue() != 6 {
		t.Errorf("local let body = %d", got.FixnumValue())
	}
}

func TestClosureCall(t *testing.T) {
	got := eval(t, "(let add (fun (a b) (+ a b))) (add 3 4)")
	if got.FixnumValue() != 7 {
		t.Errorf("closure call = %d, want 7", got.FixnumValue())
	}
}

func TestTupleRoundTrip(t *testing.T) {
	got := eval(t, "(tuple-ref (tuple 1 2 3) 1)")
	if got.FixnumValue() != 2 {
		t.Errorf("tuple-ref = %d, want 2", got.FixnumValue())
	}
}

func TestUnboundVariableIsAnException(t *testing.T) {
	obj := object.New("test", nil)
	if err := vm.RegisterGlobals(obj); err != nil {
		t.Fatalf("RegisterGlobals: %v", err)
	}
	p := reader.NewParser("nonexistent-global", obj, obj)
	forms, err := p.ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	code, err := compiler.CompileProgram(obj, forms)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	_, st, err := vm.Execute(obj, code, nil, vm.Limit{})
	if err == nil {
		t.Fatalf("expected unbound-variable error")
	}
	if st != nil {
		t.Fatalf("unbound variable should not be resumable")
	}
	exc, ok := err.(*vm.Exception)
	if !ok || exc.Kind != vm.UnboundVariable {
		t.Fatalf("expected UnboundVariable exception, got %v", err)
	}
}

func TestInstructionBudgetSuspendsAndResumes(t *testing.T) {
	obj := object.New("test", nil)
	if err := vm.RegisterGlobals(obj); err != nil {
		t.Fatalf("RegisterGlobals: %v", err)
	}
	p := reader.NewParser("(+ 1 2)", obj, obj)
	forms, err := p.ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	code, err := compiler.CompileProgram(obj, forms)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	_, st, err := vm.Execute(obj, code, nil, vm.Limit{Instructions: 1})
	if st == nil {
		t.Fatalf("expected suspension under a tight instruction budget, err=%v", err)
	}
	exc, ok := err.(*vm.Exception)
	if !ok || exc.Kind != vm.TimeLimit {
		t.Fatalf("expected TimeLimit exception, got %v", err)
	}

	result, st2, err := vm.Resume(st, vm.Limit{})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if st2 != nil {
		t.Fatalf("expected resume to run to completion")
	}
	if result.FixnumValue() != 3 {
		t.Fatalf("resumed result = %d, want 3", result.FixnumValue())
	}
}
