package bytecode_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kristofer/navi/internal/bytecode"
	"github.com/kristofer/navi/internal/compiler"
	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/reader"
	"github.com/kristofer/navi/internal/value"
	"github.com/kristofer/navi/internal/vm"
)

func compile(t *testing.T, src string) (*object.Object, value.Word) {
	t.Helper()
	obj := object.New("test", nil)
	if err := vm.RegisterGlobals(obj); err != nil {
		t.Fatalf("RegisterGlobals: %v", err)
	}
	p := reader.NewParser(src, obj, obj)
	forms, err := p.ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	code, err := compiler.CompileProgram(obj, forms)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return obj, code
}

func TestWriteReadRoundTripUncompressed(t *testing.T) {
	obj, code := compile(t, `(let f (fun (a b) (+ a b))) (f 1 2)`)

	var buf bytes.Buffer
	if err := bytecode.WriteCode(&buf, code, 1<<20); err != nil { // gzipMin above payload size
		t.Fatalf("WriteCode: %v", err)
	}

	loaded, err := bytecode.ReadCode(&buf, obj, obj)
	if err != nil {
		t.Fatalf("ReadCode: %v", err)
	}

	result, st, err := vm.Execute(obj, loaded, nil, vm.Limit{})
	if err != nil {
		t.Fatalf("execute reloaded code: %v", err)
	}
	if st != nil {
		t.Fatalf("unexpected suspension")
	}
	if result.FixnumValue() != 3 {
		t.Fatalf("reloaded program result = %d, want 3", result.FixnumValue())
	}
}

func TestWriteReadRoundTripGzipped(t *testing.T) {
	obj, code := compile(t, `(+ 40 2)`)

	var buf bytes.Buffer
	if err := bytecode.WriteCode(&buf, code, 1); err != nil { // force gzip for any non-empty payload
		t.Fatalf("WriteCode: %v", err)
	}

	loaded, err := bytecode.ReadCode(&buf, obj, obj)
	if err != nil {
		t.Fatalf("ReadCode: %v", err)
	}
	result, _, err := vm.Execute(obj, loaded, nil, vm.Limit{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.FixnumValue() != 42 {
		t.Fatalf("result = %d, want 42", result.FixnumValue())
	}
}

func TestDisassembleListsConstantsAndInstructions(t *testing.T) {
	_, code := compile(t, `(+ 1 2)`)

	var out strings.Builder
	if err := bytecode.Disassemble(&out, code); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Code(params=0") {
		t.Fatalf("expected a top-level Code header, got:\n%s", text)
	}
	if !strings.Contains(text, "Instructions:") {
		t.Fatalf("expected an Instructions section, got:\n%s", text)
	}
}

// TestWriteReadRoundTripPreservesCodeInfo checks that the decoded Code
// object's instruction stream is byte-for-byte identical to the original
// after a gzip-compressed write/read round trip, and that its constant pool
// is equal element by element: ReadCode re-allocates heap constants, so they
// are compared with value.Equal and nested Code constants recursively (spec
// §8, ".nvc" persistence).
func TestWriteReadRoundTripPreservesCodeInfo(t *testing.T) {
	obj, code := compile(t, `(let f (fun (a b) (+ a b))) (f 1 2)`)

	want, ok := value.AsCode(code)
	if !ok {
		t.Fatalf("AsCode(code) = false, want true")
	}

	var buf bytes.Buffer
	if err := bytecode.WriteCode(&buf, code, 1); err != nil { // force gzip
		t.Fatalf("WriteCode: %v", err)
	}

	loaded, err := bytecode.ReadCode(&buf, obj, obj)
	if err != nil {
		t.Fatalf("ReadCode: %v", err)
	}
	got, ok := value.AsCode(loaded)
	if !ok {
		t.Fatalf("AsCode(loaded) = false, want true")
	}

	var eqWord func(a, b value.Word) bool
	eqWord = func(a, b value.Word) bool {
		ca, okA := value.AsCode(a)
		cb, okB := value.AsCode(b)
		if okA || okB {
			return okA && okB && cmp.Equal(ca, cb, cmp.Comparer(eqWord))
		}
		return value.Equal(a, b)
	}
	if diff := cmp.Diff(want, got, cmp.Comparer(eqWord)); diff != "" {
		t.Fatalf("CodeInfo mismatch after round trip (-want +got):\n%s", diff)
	}
}

func TestReadCodeRejectsBadMagic(t *testing.T) {
	obj := object.New("test", nil)
	_, err := bytecode.ReadCode(bytes.NewReader([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}), obj, obj)
	if err == nil {
		t.Fatalf("expected an error reading a non-navi-bytecode blob")
	}
}
