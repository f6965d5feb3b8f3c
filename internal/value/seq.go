package value

import (
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/pointer"
)

// seqLayout is the shared layout for Tuple and Array: a fixed-length, dense
// vector of child Words allocated inline after the header (spec §3).
type seqLayout struct {
	length int32
}

const seqHeaderSize = unsafe.Sizeof(seqLayout{})

func seqSlotAt(obj unsafe.Pointer, i int) *Word {
	return (*Word)(unsafe.Add(obj, int(seqHeaderSize)+i*int(unsafe.Sizeof(Word(0)))))
}

func seqSize(obj unsafe.Pointer) uintptr {
	layout := (*seqLayout)(obj)
	return seqHeaderSize + uintptr(layout.length)*unsafe.Sizeof(Word(0))
}

func seqForEachChild(obj unsafe.Pointer, visit func(child *Word)) {
	layout := (*seqLayout)(obj)
	n := int(layout.length)
	for i := 0; i < n; i++ {
		visit(seqSlotAt(obj, i))
	}
}

func allocSeq(alloc heap.Allocator, roots heap.RootSet, ti *heap.TypeInfo, elems []Word) (Word, error) {
	n := uintptr(len(elems))
	objPtr, w, err := alloc.AllocBytes(roots, seqHeaderSize+n*unsafe.Sizeof(Word(0)), ti)
	if err != nil {
		return 0, err
	}
	(*seqLayout)(objPtr).length = int32(n)
	for i, e := range elems {
		*seqSlotAt(objPtr, i) = e
	}
	return w, nil
}

func cloneSeq(obj unsafe.Pointer, ti *heap.TypeInfo, dst heap.Allocator) (Word, error) {
	layout := (*seqLayout)(obj)
	n := int(layout.length)
	elems := make([]Word, n)
	for i := 0; i < n; i++ {
		elems[i] = *seqSlotAt(obj, i)
	}
	return allocSeq(dst, nil, ti, elems)
}

func readSeq(w Word, ti *heap.TypeInfo) ([]Word, bool) {
	if !pointer.IsPointer(w) || w == 0 || TypeOf(w) != ti {
		return nil, false
	}
	objPtr := unsafe.Pointer(w.Address())
	layout := (*seqLayout)(objPtr)
	n := int(layout.length)
	out := make([]Word, n)
	for i := 0; i < n; i++ {
		out[i] = *seqSlotAt(objPtr, i)
	}
	return out, true
}

// TupleTypeInfo describes a fixed-arity, heterogeneous tuple literal `{a b c}`.
var TupleTypeInfo = &heap.TypeInfo{
	Name:         "Tuple",
	Size:         seqSize,
	ForEachChild: seqForEachChild,
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		return cloneSeq(obj, TupleTypeInfo, dst)
	},
}

// ArrayTypeInfo describes a homogeneous, mutable array `[a b c]`.
var ArrayTypeInfo = &heap.TypeInfo{
	Name:         "Array",
	Size:         seqSize,
	ForEachChild: seqForEachChild,
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		return cloneSeq(obj, ArrayTypeInfo, dst)
	},
}

// NewTuple allocates a Tuple from the given elements.
func NewTuple(alloc heap.Allocator, roots heap.RootSet, elems []Word) (Word, error) {
	return allocSeq(alloc, roots, TupleTypeInfo, elems)
}

// NewArray allocates an Array from the given elements.
func NewArray(alloc heap.Allocator, roots heap.RootSet, elems []Word) (Word, error) {
	return allocSeq(alloc, roots, ArrayTypeInfo, elems)
}

// AsTuple reads back a Tuple's elements.
func AsTuple(w Word) ([]Word, bool) { return readSeq(w, TupleTypeInfo) }

// AsArray reads back an Array's elements.
func AsArray(w Word) ([]Word, bool) { return readSeq(w, ArrayTypeInfo) }

// ArraySet mutates element i of an Array in place. Arrays are the only
// mutable sequence type (spec §3); Tuple and List are immutable once built.
func ArraySet(w Word, i int, v Word) bool {
	if TypeOf(w) != ArrayTypeInfo {
		return false
	}
	objPtr := unsafe.Pointer(w.Address())
	layout := (*seqLayout)(objPtr)
	if i < 0 || i >= int(layout.length) {
		return false
	}
	*seqSlotAt(objPtr, i) = v
	return true
}
