package value

import (
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
)

// envLayout is one activation frame of the VM's lexical environment chain:
// a fixed-size slot array plus a link to the enclosing frame (spec §4.5,
// "Env pointer"). Representing frames as ordinary heap values -- rather
// than Go-side structs reached only from VM registers -- lets a closure
// keep its defining scope alive simply by holding one Word (its `up` link),
// the same way every other composite keeps children alive, instead of
// needing a bespoke free-variable extraction pass at code-generation time.
type envLayout struct {
	up       Word
	numSlots int32
}

const envHeaderSize = unsafe.Sizeof(envLayout{})

func envSlotAt(obj unsafe.Pointer, i int) *Word {
	return (*Word)(unsafe.Add(obj, int(envHeaderSize)+i*int(unsafe.Sizeof(Word(0)))))
}

// EnvFrameTypeInfo describes one PUSH-ENV-allocated activation record.
var EnvFrameTypeInfo = &heap.TypeInfo{
	Name: "EnvFrame",
	Size: func(obj unsafe.Pointer) uintptr {
		l := (*envLayout)(obj)
		return envHeaderSize + uintptr(l.numSlots)*unsafe.Sizeof(Word(0))
	},
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		l := (*envLayout)(obj)
		visit(&l.up)
		for i := 0; i < int(l.numSlots); i++ {
			visit(envSlotAt(obj, i))
		}
	},
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		l := (*envLayout)(obj)
		up, err := deepCloneOne(l.up, dst)
		if err != nil {
			return 0, err
		}
		slots := make([]Word, l.numSlots)
		for i := range slots {
			cw, err := deepCloneOne(*envSlotAt(obj, i), dst)
			if err != nil {
				return 0, err
			}
			slots[i] = cw
		}
		return NewEnvFrame(dst, nil, up, slots)
	},
}

// NewEnvFrame allocates a new activation record linked to up (Nil at the
// bottom of the chain), with slots pre-populated (PUSH-ENV zeroes them to
// Nil; SET-LOCAL fills them in as bindings are evaluated).
func NewEnvFrame(alloc heap.Allocator, roots heap.RootSet, up Word, slots []Word) (Word, error) {
	n := uintptr(len(slots))
	objPtr, w, err := alloc.AllocBytes(roots, envHeaderSize+n*unsafe.Sizeof(Word(0)), EnvFrameTypeInfo)
	if err != nil {
		return 0, err
	}
	l := (*envLayout)(objPtr)
	l.up, l.numSlots = up, int32(n)
	for i, s := range slots {
		*envSlotAt(objPtr, i) = s
	}
	return w, nil
}

// EnvFrameInfo is the decoded view of an activation record.
type EnvFrameInfo struct {
	Up    Word
	Slots []Word
}

// AsEnvFrame reads back an activation record's parent link and slots.
func AsEnvFrame(w Word) (EnvFrameInfo, bool) {
	if TypeOf(w) != EnvFrameTypeInfo {
		return EnvFrameInfo{}, false
	}
	objPtr := unsafe.Pointer(w.Address())
	l := (*envLayout)(objPtr)
	slots := make([]Word, l.numSlots)
	for i := range slots {
		slots[i] = *envSlotAt(objPtr, i)
	}
	return EnvFrameInfo{Up: l.up, Slots: slots}, true
}

// SetEnvSlot mutates slot index of an existing activation record in place
// (SET-LOCAL), the one place besides Array that navi mutates a heap value
// after construction.
func SetEnvSlot(w Word, index int, v Word) bool {
	if TypeOf(w) != EnvFrameTypeInfo {
		return false
	}
	*envSlotAt(unsafe.Pointer(w.Address()), index) = v
	return true
}

// EnvUp returns the parent link of an activation record.
func EnvUp(w Word) Word {
	info, _ := AsEnvFrame(w)
	return info.Up
}

// EnvSlot reads one slot of an activation record.
func EnvSlot(w Word, index int) Word {
	objPtr := unsafe.Pointer(w.Address())
	return *envSlotAt(objPtr, index)
}
