package value_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/value"
)

// TestIntegerRoundTripsThroughFixnum property-checks that every int64 in the
// fixnum-representable range survives an Integer/FixnumValue round trip
// (spec §3, "small integer (fixnum)").
func TestIntegerRoundTripsThroughFixnum(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.Int64Range(-(1<<61), (1<<61)-1).Draw(rt, "n")
		w := value.Integer(n)
		if got := w.FixnumValue(); got != n {
			rt.Fatalf("Integer(%d).FixnumValue() = %d", n, got)
		}
	})
}

// TestTupleEqualityIsReflexiveAndLengthSensitive property-checks two
// invariants of structural Tuple equality (spec §3): a tuple always equals a
// freshly built tuple with the same element values, and tuples of differing
// length are never equal.
func TestTupleEqualityIsReflexiveAndLengthSensitive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		obj := object.New("rapid", nil)
		elems := rapid.SliceOfN(rapid.Int64Range(-1000, 1000), 0, 8).Draw(rt, "elems")

		words := make([]value.Word, len(elems))
		for i, e := range elems {
			words[i] = value.Integer(e)
		}

		a, err := value.NewTuple(obj, obj, words)
		if err != nil {
			rt.Fatalf("NewTuple: %v", err)
		}
		b, err := value.NewTuple(obj, obj, append([]value.Word(nil), words...))
		if err != nil {
			rt.Fatalf("NewTuple: %v", err)
		}
		if !value.Equal(a, b) {
			rt.Fatalf("expected tuples built from the same elements to be equal")
		}

		longer, err := value.NewTuple(obj, obj, append(append([]value.Word(nil), words...), value.Integer(999999)))
		if err != nil {
			rt.Fatalf("NewTuple: %v", err)
		}
		if value.Equal(a, longer) {
			rt.Fatalf("tuples of differing length must not be equal")
		}
	})
}
