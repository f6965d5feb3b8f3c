package reader

import (
	"testing"

	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/value"
)

func TestParser_Atoms(t *testing.T) {
	obj := object.New("test", nil)
	p := NewParser(`42 3.5 "hello" foo :bar true nil`, obj, obj)

	forms, err := p.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(forms) != 7 {
		t.Fatalf("expected 7 forms, got %d", len(forms))
	}
	if v := forms[0].FixnumValue(); v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
	if f, ok := value.AsReal(forms[1]); !ok || f != 3.5 {
		t.Fatalf("expected 3.5, got %v (%v)", f, ok)
	}
	if s, ok := value.AsString(forms[2]); !ok || s != "hello" {
		t.Fatalf("expected %q, got %q (%v)", "hello", s, ok)
	}
	if s, ok := value.AsSymbol(forms[3]); !ok || s != "foo" {
		t.Fatalf("expected symbol foo, got %q (%v)", s, ok)
	}
	if s, ok := value.AsKeyword(forms[4]); !ok || s != "bar" {
		t.Fatalf("expected keyword bar, got %q (%v)", s, ok)
	}
	if forms[5] != value.True {
		t.Fatalf("expected true")
	}
	if forms[6] != value.Nil {
		t.Fatalf("expected nil")
	}
}

func TestParser_List(t *testing.T) {
	obj := object.New("test", nil)
	p := NewParser(`(+ 1 2)`, obj, obj)

	w, ok, err := p.Read()
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	elems, ok := value.AsList(w)
	if !ok || len(elems) != 3 {
		t.Fatalf("expected 3-element list, got %v (%v)", elems, ok)
	}
	sym, ok := value.AsSymbol(elems[0])
	if !ok || sym != "+" {
		t.Fatalf("expected symbol +, got %q", sym)
	}
	if elems[1].FixnumValue() != 1 || elems[2].FixnumValue() != 2 {
		t.Fatalf("expected operands 1 2, got %d %d", elems[1].FixnumValue(), elems[2].FixnumValue())
	}
}

func TestParser_NestedArrayAndTuple(t *testing.T) {
	obj := object.New("test", nil)
	p := NewParser(`[1 {2 3} 4]`, obj, obj)

	w, ok, err := p.Read()
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	arr, ok := value.AsArray(w)
	if !ok || len(arr) != 3 {
		t.Fatalf("expected 3-element array, got %v", arr)
	}
	tup, ok := value.AsTuple(arr[1])
	if !ok || len(tup) != 2 {
		t.Fatalf("expected 2-element tuple nested at index 1, got %v", tup)
	}
}

func TestParser_Quote(t *testing.T) {
	obj := object.New("test", nil)
	p := NewParser(`'foo`, obj, obj)

	w, ok, err := p.Read()
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	elems, ok := value.AsList(w)
	if !ok || len(elems) != 2 {
		t.Fatalf("expected (quote foo), got %v", elems)
	}
	sym, _ := value.AsSymbol(elems[0])
	if sym != "quote" {
		t.Fatalf("expected quote head, got %q", sym)
	}
}

func TestParser_UnterminatedList(t *testing.T) {
	obj := object.New("test", nil)
	p := NewParser(`(+ 1 2`, obj, obj)
	if _, _, err := p.Read(); err == nil {
		t.Fatalf("expected error for unterminated list")
	}
}
