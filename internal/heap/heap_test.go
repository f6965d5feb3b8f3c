package heap_test

import (
	"testing"
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/pointer"
)

// a fixed-size, childless "tag" type just large enough to exercise
// allocation, growth, and copying collection without pulling in package
// value (heap must not import it).
var tagType = &heap.TypeInfo{
	Name: "test-tag",
	Size: func(unsafe.Pointer) uintptr { return 8 },
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (pointer.Word, error) {
		newObj, w, err := dst.AllocBytes(nil, 8, heap.TypeInfoOf(obj))
		if err != nil {
			return 0, err
		}
		*(*uint64)(newObj) = *(*uint64)(obj)
		return w, nil
	},
}

func allocTag(t *testing.T, h *heap.Heap, roots heap.RootSet, v uint64) pointer.Word {
	t.Helper()
	objPtr, w, err := h.AllocBytes(roots, 8, tagType)
	if err != nil {
		t.Fatalf("AllocBytes: %v", err)
	}
	*(*uint64)(objPtr) = v
	return w
}

type fixedRoots []*pointer.Word

func (r fixedRoots) ForEachRoot(visit func(root *pointer.Word)) {
	for _, slot := range r {
		visit(slot)
	}
}

func TestAllocBytesTracksUsedAndInHeap(t *testing.T) {
	h := heap.New("test", heap.StartSmall, nil)
	if h.Used() != 0 {
		t.Fatalf("Used() = %d, want 0", h.Used())
	}
	w := allocTag(t, h, fixedRoots{}, 42)
	if h.Used() == 0 {
		t.Fatalf("Used() = 0 after allocation")
	}
	if !h.IsInHeap(w) {
		t.Fatalf("IsInHeap(w) = false for a freshly allocated word")
	}
	if h.IsInHeap(pointer.Fixnum(1)) {
		t.Fatalf("IsInHeap(fixnum) = true, want false for an immediate")
	}
}

func TestCopyingCollectionSurvivesRootedObjects(t *testing.T) {
	h := heap.New("test", heap.StartSmall, nil) // 256B region, forces collection quickly

	var kept pointer.Word
	kept = allocTag(t, h, fixedRoots{&kept}, 1234)
	roots := fixedRoots{&kept}

	// allocate enough garbage (unrooted) objects to force at least one
	// copying collection cycle within the 256B starting region.
	for i := 0; i < 200; i++ {
		allocTag(t, h, roots, uint64(i))
	}

	if !h.IsInHeap(kept) {
		t.Fatalf("rooted object was not relocated into the live region")
	}
	objPtr := unsafe.Pointer(kept.Address())
	if got := *(*uint64)(objPtr); got != 1234 {
		t.Fatalf("rooted object's payload = %d, want 1234 after collection", got)
	}
}

func TestForceAllocationSpaceGrowsRegion(t *testing.T) {
	h := heap.New("test", heap.StartSmall, nil)
	before := h.RegionSize()
	// request more than the starting 256B region but still within the next
	// size class (512B), so a single collection satisfies it.
	if err := h.ForceAllocationSpace(fixedRoots{}, before+44); err != nil {
		t.Fatalf("ForceAllocationSpace: %v", err)
	}
	if h.RegionSize() <= before {
		t.Fatalf("RegionSize() = %d, want growth past %d", h.RegionSize(), before)
	}
}
