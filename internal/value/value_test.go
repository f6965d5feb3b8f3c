package value_test

import (
	"testing"

	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/value"
)

func TestImmediatesAndPrint(t *testing.T) {
	cases := []struct {
		w    value.Word
		want string
	}{
		{value.Nil, "nil"},
		{value.Unit, "unit"},
		{value.True, "true"},
		{value.False, "false"},
		{value.Integer(42), "42"},
		{value.Char('a'), "a"},
	}
	for _, c := range cases {
		if got := value.Print(c.w); got != c.want {
			t.Errorf("Print(%v) = %q, want %q", c.w, got, c.want)
		}
	}
}

func TestEqualityAndPrintForHeapValues(t *testing.T) {
	obj := object.New("test", nil)

	s1, err := value.NewString(obj, obj, "hi")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	s2, err := value.NewString(obj, obj, "hi")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	if !value.Equal(s1, s2) {
		t.Fatalf("expected equal strings with same content")
	}
	if got := value.Print(s1); got != `"hi"` {
		t.Fatalf("Print(string) = %q", got)
	}

	sym, err := value.NewSymbol(obj, obj, "foo")
	if err != nil {
		t.Fatalf("NewSymbol: %v", err)
	}
	if value.Equal(sym, s1) {
		t.Fatalf("symbol and string must not be equal")
	}

	t1, err := value.NewTuple(obj, obj, []value.Word{value.Integer(1), value.Integer(2)})
	if err != nil {
		t.Fatalf("NewTuple: %v", err)
	}
	t2, err := value.NewTuple(obj, obj, []value.Word{value.Integer(1), value.Integer(2)})
	if err != nil {
		t.Fatalf("NewTuple: %v", err)
	}
	if !value.Equal(t1, t2) {
		t.Fatalf("expected structurally equal tuples")
	}
	if got := value.Print(t1); got != "{1 2}" {
		t.Fatalf("Print(tuple) = %q", got)
	}
}

func TestArraySetIsInPlaceMutation(t *testing.T) {
	obj := object.New("test", nil)
	arr, err := value.NewArray(obj, obj, []value.Word{value.Integer(1), value.Integer(2)})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	if !value.ArraySet(arr, 0, value.Integer(99)) {
		t.Fatalf("ArraySet should succeed for in-bounds index")
	}
	elems, ok := value.AsArray(arr)
	if !ok || elems[0].FixnumValue() != 99 {
		t.Fatalf("expected mutated element, got %v", elems)
	}
	if value.ArraySet(arr, 5, value.Integer(1)) {
		t.Fatalf("ArraySet should fail for out-of-bounds index")
	}
}

func TestAsFloatWidensFixnumAndReal(t *testing.T) {
	obj := object.New("test", nil)
	if f, ok := value.AsFloat(value.Integer(7)); !ok || f != 7.0 {
		t.Fatalf("AsFloat(fixnum) = %v, %v", f, ok)
	}
	r, err := value.NewReal(obj, obj, 2.5)
	if err != nil {
		t.Fatalf("NewReal: %v", err)
	}
	if f, ok := value.AsFloat(r); !ok || f != 2.5 {
		t.Fatalf("AsFloat(real) = %v, %v", f, ok)
	}
}

func TestIsTypeNumberSupertype(t *testing.T) {
	obj := object.New("test", nil)
	r, err := value.NewReal(obj, obj, 1.0)
	if err != nil {
		t.Fatalf("NewReal: %v", err)
	}
	if !value.IsType(r, value.NumberTypeInfo) {
		t.Fatalf("Real should satisfy Number supertype")
	}
	if !value.IsType(value.Integer(1), value.NumberTypeInfo) {
		t.Fatalf("Integer fixnum should satisfy Number supertype")
	}
}
