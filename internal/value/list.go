package value

import (
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/pointer"
)

// consLayout is a single cons cell: a car and a cdr, the latter either
// another Cons, or Nil terminating a proper list (spec §3, "List").
type consLayout struct {
	car Word
	cdr Word
}

const consSize = unsafe.Sizeof(consLayout{})

func consCarSlot(obj unsafe.Pointer) *Word { return &(*consLayout)(obj).car }
func consCdrSlot(obj unsafe.Pointer) *Word { return &(*consLayout)(obj).cdr }

// ListTypeInfo describes a cons cell. Unlike Tuple/Array, List has no
// separate "empty" representation -- the empty list is the Nil immediate,
// and a single TypeInfo covers every non-empty cell, matching the original's
// uniform cons-cell representation (original_source src/value/list.rs).
var ListTypeInfo = &heap.TypeInfo{
	Name: "List",
	Size: func(obj unsafe.Pointer) uintptr { return consSize },
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		visit(consCarSlot(obj))
		visit(consCdrSlot(obj))
	},
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		layout := (*consLayout)(obj)
		car, err := deepCloneOne(layout.car, dst)
		if err != nil {
			return 0, err
		}
		cdr, err := deepCloneOne(layout.cdr, dst)
		if err != nil {
			return 0, err
		}
		return Cons(dst, nil, car, cdr)
	},
}

// Cons allocates a single cons cell.
func Cons(alloc heap.Allocator, roots heap.RootSet, car, cdr Word) (Word, error) {
	objPtr, w, err := alloc.AllocBytes(roots, consSize, ListTypeInfo)
	if err != nil {
		return 0, err
	}
	layout := (*consLayout)(objPtr)
	layout.car = car
	layout.cdr = cdr
	return w, nil
}

// Car returns the car of a cons cell, or false if w isn't one.
func Car(w Word) (Word, bool) {
	if TypeOf(w) != ListTypeInfo {
		return 0, false
	}
	return *consCarSlot(unsafe.Pointer(w.Address())), true
}

// Cdr returns the cdr of a cons cell, or false if w isn't one.
func Cdr(w Word) (Word, bool) {
	if TypeOf(w) != ListTypeInfo {
		return 0, false
	}
	return *consCdrSlot(unsafe.Pointer(w.Address())), true
}

// NewList builds a proper list from elems, consing from the tail so the
// result preserves input order.
func NewList(alloc heap.Allocator, roots heap.RootSet, elems []Word) (Word, error) {
	result := Nil
	for i := len(elems) - 1; i >= 0; i-- {
		w, err := Cons(alloc, roots, elems[i], result)
		if err != nil {
			return 0, err
		}
		result = w
	}
	return result, nil
}

// AsList flattens a proper list (one terminated by Nil) into a slice. Returns
// ok=false for anything else, including dotted (improper) lists.
func AsList(w Word) ([]Word, bool) {
	var out []Word
	cur := w
	for {
		if cur == Nil {
			return out, true
		}
		if TypeOf(cur) != ListTypeInfo {
			return nil, false
		}
		objPtr := unsafe.Pointer(cur.Address())
		out = append(out, *consCarSlot(objPtr))
		cur = *consCdrSlot(objPtr)
	}
}

// IsList reports whether w is Nil or a cons cell (without requiring the
// chain to be proper -- used by the reader/compiler before full validation).
func IsList(w Word) bool {
	return w == Nil || TypeOf(w) == ListTypeInfo
}

// DeepClone copies w, and everything it transitively references, into dst
// (spec §4.6, "Deep-copy send": a mailbox clones a message into the
// receiving actor's heap via each type's clone_into traversal). Immediates
// are returned unchanged; heap values recurse through their TypeInfo's
// CloneInto.
func DeepClone(w Word, dst heap.Allocator) (Word, error) {
	return deepCloneOne(w, dst)
}

func deepCloneOne(w Word, dst heap.Allocator) (Word, error) {
	if !pointer.IsPointer(w) || w == 0 {
		return w, nil
	}
	ti := TypeOf(w)
	if ti == nil || ti.CloneInto == nil {
		return w, nil
	}
	return ti.CloneInto(unsafe.Pointer(w.Address()), dst)
}
