package value

import (
	"unsafe"

	"github.com/google/uuid"

	"github.com/kristofer/navi/internal/heap"
)

// objectRefLayout carries the stable identity of a remote actor's mailbox.
// ObjectRef is deliberately opaque at this layer -- resolving it to a live
// Mailbox is internal/mailbox's job, keyed by this UUID (spec §5,
// "ObjectRef").
type objectRefLayout struct {
	id uuid.UUID
}

// ObjectRefTypeInfo describes an actor handle. It has no child Words --
// cloning across heaps copies the 16 identity bytes verbatim, never the
// referenced actor's state.
var ObjectRefTypeInfo = &heap.TypeInfo{
	Name: "ObjectRef",
	Size: func(obj unsafe.Pointer) uintptr { return unsafe.Sizeof(objectRefLayout{}) },
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		layout := (*objectRefLayout)(obj)
		return NewObjectRef(dst, nil, layout.id)
	},
}

// NewObjectRef allocates an ObjectRef wrapping the given mailbox identity.
func NewObjectRef(alloc heap.Allocator, roots heap.RootSet, id uuid.UUID) (Word, error) {
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(objectRefLayout{}), ObjectRefTypeInfo)
	if err != nil {
		return 0, err
	}
	(*objectRefLayout)(objPtr).id = id
	return w, nil
}

// AsObjectRef reads back the mailbox identity an ObjectRef addresses.
func AsObjectRef(w Word) (uuid.UUID, bool) {
	if TypeOf(w) != ObjectRefTypeInfo {
		return uuid.UUID{}, false
	}
	layout := (*objectRefLayout)(unsafe.Pointer(w.Address()))
	return layout.id, true
}
