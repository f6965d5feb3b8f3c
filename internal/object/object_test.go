package object_test

import (
	"testing"

	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/value"
)

func TestGlobalsAndReceivers(t *testing.T) {
	obj := object.New("test", nil)

	obj.DefineGlobal("x", value.Integer(1))
	w, ok := obj.LookupGlobal("x")
	if !ok || w.FixnumValue() != 1 {
		t.Fatalf("LookupGlobal(x) = %v, %v", w, ok)
	}
	if _, ok := obj.LookupGlobal("missing"); ok {
		t.Fatalf("expected missing global to be absent")
	}

	obj.AddReceiver(value.Integer(1), value.Integer(10))
	obj.AddReceiver(value.Integer(2), value.Integer(20))
	recvs := obj.Receivers()
	if len(recvs) != 2 || recvs[0].Pattern.FixnumValue() != 1 || recvs[1].Body.FixnumValue() != 20 {
		t.Fatalf("unexpected receivers: %+v", recvs)
	}
}

func TestCaptureReleaseOrdering(t *testing.T) {
	obj := object.New("test", nil)
	r1 := obj.Capture(value.Integer(1))
	r2 := obj.Capture(value.Integer(2))

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic releasing out of LIFO order")
		}
	}()
	obj.Release(r1)
	_ = r2
}

func TestGlobalSurvivesCollectionAcrossManyAllocations(t *testing.T) {
	obj := object.New("test", nil)

	root, err := value.NewString(obj, obj, "keepme")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	obj.DefineGlobal("root", root)

	// Allocate enough garbage tuples to force at least one copying
	// collection (initial region is 2K); the rooted global must survive
	// with its content intact.
	for i := 0; i < 500; i++ {
		if _, err := value.NewTuple(obj, obj, []value.Word{value.Integer(int64(i)), value.Integer(int64(i + 1))}); err != nil {
			t.Fatalf("NewTuple[%d]: %v", i, err)
		}
	}

	w, ok := obj.LookupGlobal("root")
	if !ok {
		t.Fatalf("root global missing after collection")
	}
	s, ok := value.AsString(w)
	if !ok || s != "keepme" {
		t.Fatalf("root global corrupted after collection: %q (%v)", s, ok)
	}
}
