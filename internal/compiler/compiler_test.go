package compiler_test

import (
	"testing"

	"github.com/kristofer/navi/internal/compiler"
	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/reader"
)

func compileSrc(t *testing.T, src string) error {
	t.Helper()
	obj := object.New("test", nil)
	p := reader.NewParser(src, obj, obj)
	forms, err := p.ReadAll()
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	_, err = compiler.CompileProgram(obj, forms)
	return err
}

func TestCompileProgramAcceptsWellFormedForms(t *testing.T) {
	sources := []string{
		`(+ 1 2)`,
		`(if (< 1 2) 1 2)`,
		`(let x 1)`,
		`(local (let x 1) x)`,
		`(fun (a b) (+ a b))`,
		`(def-recv n n)`,
		`(begin 1 2 3)`,
		`(cond ((< 1 2) 1) (else 2))`,
	}
	for _, src := range sources {
		if err := compileSrc(t, src); err != nil {
			t.Errorf("compile(%q) = %v, want success", src, err)
		}
	}
}

func TestCompileProgramRejectsMalformedIf(t *testing.T) {
	if err := compileSrc(t, `(if)`); err == nil {
		t.Fatalf("expected an error compiling a malformed if")
	}
}

func TestCompileProgramRejectsMalformedLetBinding(t *testing.T) {
	if err := compileSrc(t, `(let (x) 1)`); err == nil {
		t.Fatalf("expected an error compiling a let whose binding name isn't a symbol")
	}
}

func TestCompileProgramRejectsNonLeadingLocalDefine(t *testing.T) {
	if err := compileSrc(t, `(local (+ 1 1) (let x 1) x)`); err == nil {
		t.Fatalf("expected an error compiling a let after a non-let statement")
	}
}

func TestCompileProgramRejectsUnknownRestMarker(t *testing.T) {
	if err := compileSrc(t, `(fun (a &rest) a)`); err == nil {
		t.Fatalf("expected an error compiling a malformed &rest parameter list")
	}
}
