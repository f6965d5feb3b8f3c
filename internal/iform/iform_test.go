package iform_test

import (
	"testing"

	"github.com/kristofer/navi/internal/iform"
	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/value"
)

func TestConstRoundTrip(t *testing.T) {
	obj := object.New("test", nil)
	w, err := iform.NewConst(obj, obj, value.Integer(7), true)
	if err != nil {
		t.Fatalf("NewConst: %v", err)
	}
	if iform.KindOf(w) != iform.KindConst {
		t.Fatalf("KindOf = %v, want KindConst", iform.KindOf(w))
	}
	v, ok := iform.AsConst(w)
	if !ok || v.FixnumValue() != 7 {
		t.Fatalf("AsConst = %v, %v", v, ok)
	}
}

func TestIfInfoFields(t *testing.T) {
	obj := object.New("test", nil)
	test, _ := iform.NewConst(obj, obj, value.True, false)
	then, _ := iform.NewConst(obj, obj, value.Integer(1), true)
	els, _ := iform.NewConst(obj, obj, value.Integer(2), true)

	w, err := iform.NewIf(obj, obj, test, then, els, true)
	if err != nil {
		t.Fatalf("NewIf: %v", err)
	}
	info, ok := iform.AsIf(w)
	if !ok {
		t.Fatalf("AsIf failed")
	}
	thenVal, _ := iform.AsConst(info.Then)
	if thenVal.FixnumValue() != 1 {
		t.Fatalf("If.Then = %v, want 1", thenVal)
	}
}

func TestSeqPreservesOrder(t *testing.T) {
	obj := object.New("test", nil)
	var exprs []iform.Word
	for i := 0; i < 3; i++ {
		c, _ := iform.NewConst(obj, obj, value.Integer(int64(i)), false)
		exprs = append(exprs, c)
	}
	w, err := iform.NewSeq(obj, obj, exprs, true)
	if err != nil {
		t.Fatalf("NewSeq: %v", err)
	}
	got, ok := iform.AsSeq(w)
	if !ok || len(got) != 3 {
		t.Fatalf("AsSeq = %v, %v", got, ok)
	}
	for i, e := range got {
		v, _ := iform.AsConst(e)
		if v.FixnumValue() != int64(i) {
			t.Fatalf("Seq[%d] = %v, want %d", i, v, i)
		}
	}
}
