package value

import (
	"math"
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/pointer"
)

// NumberTypeInfo and IntegerTypeInfo are marker TypeInfos used only by IsType
// and type-dispatch primitives (§3, "Number ⊃ Integer/Real"). Integer values
// are fixnum immediates and never carry a real heap header, so these two
// vars exist purely as comparable identities -- IntegerTypeInfo is never
// installed in a gcHeader, only compared against.
var (
	NumberTypeInfo  = &heap.TypeInfo{Name: "Number"}
	IntegerTypeInfo = &heap.TypeInfo{Name: "Integer"}
)

type realLayout struct {
	bits uint64
}

// RealTypeInfo describes a heap-allocated double-precision float (spec §3).
// Unlike Integer, Real has no immediate encoding -- it needs the full 64 bits
// plus tag space the fixnum representation can't spare.
var RealTypeInfo = &heap.TypeInfo{
	Name: "Real",
	Size: func(obj unsafe.Pointer) uintptr { return unsafe.Sizeof(realLayout{}) },
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		layout := (*realLayout)(obj)
		return NewReal(dst, nil, math.Float64frombits(layout.bits))
	},
	IsType: func(other *heap.TypeInfo) bool {
		return other == NumberTypeInfo
	},
}

// NewReal allocates a Real value.
func NewReal(alloc heap.Allocator, roots heap.RootSet, v float64) (Word, error) {
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(realLayout{}), RealTypeInfo)
	if err != nil {
		return 0, err
	}
	(*realLayout)(objPtr).bits = math.Float64bits(v)
	return w, nil
}

// AsReal reads back a Real's float64 value.
func AsReal(w Word) (float64, bool) {
	if !pointer.IsPointer(w) || w == 0 || TypeOf(w) != RealTypeInfo {
		return 0, false
	}
	layout := (*realLayout)(unsafe.Pointer(w.Address()))
	return math.Float64frombits(layout.bits), true
}

// IsNumber reports whether w is an Integer (fixnum) or a Real.
func IsNumber(w Word) bool {
	if pointer.IsFixnum(w) {
		return true
	}
	return TypeOf(w) == RealTypeInfo
}

// AsFloat widens either numeric representation to a float64, for arithmetic
// primitives that must mix Integer and Real operands (spec §6, numeric
// primitives).
func AsFloat(w Word) (float64, bool) {
	if pointer.IsFixnum(w) {
		return float64(w.FixnumValue()), true
	}
	return AsReal(w)
}
