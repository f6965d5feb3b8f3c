package heap

import (
	"unsafe"

	"github.com/kristofer/navi/internal/pointer"
)

// collectCopying implements the copying strategy used at every size class
// below the largest (spec §4.2, "Copying"). It allocates the next-larger
// region, walks every root, and for each pointer into the current region
// either follows an existing forwarding pointer or copies the object and
// leaves one behind, recursing into the copied object's children.
func (h *Heap) collectCopying(roots RootSet) error {
	newIdx := h.classIdx + 1
	newRegion := make([]byte, sizeClasses[newIdx])
	newBase := unsafe.Pointer(&newRegion[0])
	oldBase := h.baseAddr()

	state := &copyState{
		oldBase: oldBase,
		oldUsed: h.used,
		newBase: newBase,
		newUsed: 0,
	}

	roots.ForEachRoot(func(root *pointer.Word) {
		state.relocate(root)
	})

	h.Logger.Debug("gc copying cycle", "heap", h.name, "from", sizeClasses[h.classIdx], "to", sizeClasses[newIdx], "live", state.newUsed)

	h.region = newRegion
	h.used = state.newUsed
	h.classIdx = newIdx
	return nil
}

type copyState struct {
	oldBase unsafe.Pointer
	oldUsed uintptr
	newBase unsafe.Pointer
	newUsed uintptr
}

func (s *copyState) isInOldRegion(w pointer.Word) bool {
	if !pointer.IsPointer(w) || w == 0 {
		return false
	}
	base := uintptr(s.oldBase)
	addr := w.Address()
	return addr >= base && addr < base+s.oldUsed
}

// relocate applies the copy-or-forward protocol to a single root/child slot.
func (s *copyState) relocate(root *pointer.Word) {
	w := *root
	if !s.isInOldRegion(w) {
		return
	}
	objPtr := unsafe.Pointer(w.Address())
	hdr := headerBefore(objPtr)

	if hdr.isCopied() {
		*root = pointer.FromAddress(hdr.forward)
		return
	}

	ti := hdr.TypeInfo()
	size := objectSize(objPtr, ti)

	newObjPtr := unsafe.Add(s.newBase, int(s.newUsed)+int(headerSize))
	newHdrPtr := unsafe.Add(s.newBase, int(s.newUsed))

	srcHdrPtr := unsafe.Add(objPtr, -int(headerSize))
	copyBytes(newHdrPtr, srcHdrPtr, headerSize+size)

	newAddr := uintptr(newObjPtr)
	hdr.markCopied(newAddr)
	*root = pointer.FromAddress(newAddr)

	s.newUsed += headerSize + size

	// Recurse into the *copied* object's children, treating each as a new
	// root so they are copied-or-forwarded in turn (spec §4.2 invariant:
	// live children are always copied before their parent's traversal ends;
	// termination follows from the forwarding-already-copied check).
	if ti.ForEachChild != nil {
		ti.ForEachChild(newObjPtr, func(child *pointer.Word) {
			s.relocate(child)
		})
	}
}

func copyBytes(dst, src unsafe.Pointer, n uintptr) {
	dstSlice := unsafe.Slice((*byte)(dst), n)
	srcSlice := unsafe.Slice((*byte)(src), n)
	copy(dstSlice, srcSlice)
}

// collectCompaction implements the in-place mark/forward/update/move
// algorithm used at the top size class (spec §4.2, "Compaction"), keeping
// alive flags and forwarding offsets in maps keyed by object address instead
// of growing the region further.
func (h *Heap) collectCompaction(roots RootSet) error {
	base := h.baseAddr()
	used := h.used

	alive := make(map[uintptr]bool)
	forwardOffset := make(map[uintptr]uintptr)

	// 1. Mark: walk roots, recursively marking every reachable object.
	var mark func(w pointer.Word)
	mark = func(w pointer.Word) {
		if !pointer.IsPointer(w) || w == 0 {
			return
		}
		addr := w.Address()
		if addr < uintptr(base) || addr >= uintptr(base)+used {
			return // not in this heap's live prefix (static or foreign)
		}
		if alive[addr] {
			return
		}
		alive[addr] = true
		objPtr := unsafe.Pointer(addr)
		hdr := headerBefore(objPtr)
		ti := hdr.TypeInfo()
		if ti.ForEachChild != nil {
			ti.ForEachChild(objPtr, func(child *pointer.Word) {
				mark(*child)
			})
		}
	}
	roots.ForEachRoot(func(root *pointer.Word) {
		mark(*root)
	})

	// 2. Forward: linear sweep assigning each live object its post-compaction
	// offset; dead objects are finalized here.
	var newOffset uintptr
	walkObjects(base, used, func(hdr *gcHeader, objPtr unsafe.Pointer, size uintptr) {
		addr := uintptr(objPtr)
		if alive[addr] {
			forwardOffset[addr] = newOffset
			newOffset += headerSize + size
		} else {
			ti := hdr.TypeInfo()
			if ti.Finalizer != nil {
				ti.Finalizer(objPtr)
			}
		}
	})

	// 3. Update: rewrite every live pointer (root or child) to its
	// post-compaction address.
	rewrite := func(w *pointer.Word) {
		if !pointer.IsPointer(*w) || *w == 0 {
			return
		}
		addr := w.Address()
		if off, ok := forwardOffset[addr]; ok {
			newAddr := uintptr(base) + off + headerSize
			*w = pointer.FromAddress(newAddr)
		}
	}
	roots.ForEachRoot(rewrite)
	walkObjects(base, used, func(hdr *gcHeader, objPtr unsafe.Pointer, size uintptr) {
		if !alive[uintptr(objPtr)] {
			return
		}
		ti := hdr.TypeInfo()
		if ti.ForEachChild != nil {
			ti.ForEachChild(objPtr, rewrite)
		}
	})

	// 4. Move: linear sweep, memmove-ing each live object to its new slot.
	walkObjects(base, used, func(hdr *gcHeader, objPtr unsafe.Pointer, size uintptr) {
		addr := uintptr(objPtr)
		if !alive[addr] {
			return
		}
		off := forwardOffset[addr]
		newObjPtr := unsafe.Add(base, int(off)+int(headerSize))
		if newObjPtr != objPtr {
			srcHdrPtr := unsafe.Add(objPtr, -int(headerSize))
			dstHdrPtr := unsafe.Add(base, int(off))
			moveBytes(dstHdrPtr, srcHdrPtr, headerSize+size)
		}
	})

	h.used = newOffset
	h.Logger.Debug("gc compaction cycle", "heap", h.name, "live", newOffset, "capacity", len(h.region))
	return nil
}

func moveBytes(dst, src unsafe.Pointer, n uintptr) {
	dstSlice := unsafe.Slice((*byte)(dst), n)
	srcSlice := unsafe.Slice((*byte)(src), n)
	copy(dstSlice, srcSlice) // copy() is memmove-safe for overlapping slices
}
