package value

import (
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
)

// nativeLayout is an App-shaped value standing in for a Go-implemented
// primitive (spec §4.5, "native function"). The VM never needs to know a
// Go function pointer's identity to relocate it -- natives are immortal,
// process-global, and registered once at startup -- so the payload is just
// an index into package vm's registry table.
type nativeLayout struct {
	id int32
}

// NativeTypeInfo marks a registered Go primitive as callable (App).
var NativeTypeInfo = &heap.TypeInfo{
	Name:   "Native",
	Size:   func(obj unsafe.Pointer) uintptr { return unsafe.Sizeof(nativeLayout{}) },
	IsType: func(other *heap.TypeInfo) bool { return other == AppTypeInfo },
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		return NewNative(dst, nil, int((*nativeLayout)(obj).id))
	},
	Extra: &heap.ExtraTypeInfo{Name: "Native"},
}

// NewNative wraps registry index id as a callable value.
func NewNative(alloc heap.Allocator, roots heap.RootSet, id int) (Word, error) {
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(nativeLayout{}), NativeTypeInfo)
	if err != nil {
		return 0, err
	}
	(*nativeLayout)(objPtr).id = int32(id)
	return w, nil
}

// AsNative reads back a native value's registry index.
func AsNative(w Word) (int, bool) {
	if TypeOf(w) != NativeTypeInfo {
		return 0, false
	}
	return int((*nativeLayout)(unsafe.Pointer(w.Address())).id), true
}
