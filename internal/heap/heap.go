// Package heap implements the per-actor memory manager: a bump-allocating
// arena with a size-adaptive copying collector and a compaction fallback at
// the top size class (spec §4.2).
//
// Every heap-allocated navi value lives in a contiguous []byte region owned
// by a Heap. Each object is immediately preceded by a GCHeader that names its
// TypeInfo and, during collection, doubles as the forwarding slot. Heap never
// imports the value package -- TypeInfo is the minimal descriptor the
// collector needs (size, equality is irrelevant here, child traversal,
// finalization); concrete navi value types live in package value and build
// their own TypeInfo instances against this contract.
package heap

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/kristofer/navi/internal/pointer"
)

// TypeInfo is the per-type descriptor every heap-allocated object is tagged
// with (spec §3, "TypeInfo"). Instances are process-global: allocated once as
// package-level variables in package value, never moved, never freed.
type TypeInfo struct {
	Name string

	// Size returns the total object size in bytes (header excluded) given a
	// pointer to the start of the object's payload. Types with a fixed size
	// ignore obj and return a constant.
	Size func(obj unsafe.Pointer) uintptr

	// ForEachChild visits every child pointer.Word slot reachable from obj.
	// nil for types with no children (numbers, symbols, strings, ...).
	ForEachChild func(obj unsafe.Pointer, visit func(child *pointer.Word))

	// CloneInto deep-copies obj into dst, allocating only in dst (never in
	// the source heap). Required for every type; cross-actor sends and
	// mailbox delivery depend on it.
	CloneInto func(obj unsafe.Pointer, dst Allocator) (pointer.Word, error)

	// IsType reports whether a value of this type also satisfies the named
	// supertype relation (Number ⊃ Integer/Real; App ⊃ Closure/Native).
	// nil means "no supertypes besides itself".
	IsType func(other *TypeInfo) bool

	// CheckReply drives the has-reply bit scan (§3, §4.6). nil for types
	// that can never transitively contain a Reply.
	CheckReply func(obj unsafe.Pointer, checker ReplyChecker) (bool, error)

	// Finalizer runs once, during compaction, on an object found dead. nil
	// for types with nothing to release.
	Finalizer func(obj unsafe.Pointer)

	// Extra describes App-shaped types (closures, native functions): their
	// parameter list and a printable name. nil otherwise.
	Extra *ExtraTypeInfo
}

// ExtraTypeInfo augments App-shaped TypeInfos (§3).
type ExtraTypeInfo struct {
	Params []string
	Name   string
}

// ReplyChecker is the minimal capability CheckReply callbacks need: asking
// the owning actor (or mailbox) whether a reply token has been delivered yet.
// Implemented by internal/object.Object and internal/mailbox.Mailbox.
type ReplyChecker interface {
	CheckReplyToken(token uint64) (pointer.Word, bool)
}

// Allocator is the capability every heap-allocated value constructor needs:
// request raw bytes tagged with a TypeInfo, without caring whether the
// backing store is an actor heap or a mailbox scratch heap.
type Allocator interface {
	AllocBytes(roots RootSet, size uintptr, ti *TypeInfo) (unsafe.Pointer, pointer.Word, error)
	ForceAllocationSpace(roots RootSet, size uintptr) error
	IsInHeap(w pointer.Word) bool
}

// RootSet enumerates every GC root an actor or mailbox currently holds. The
// visit callback receives the address of each root slot so the collector can
// overwrite it in place with a forwarded pointer.
type RootSet interface {
	ForEachRoot(visit func(root *pointer.Word))
}

// ErrOutOfMemory is returned when allocation cannot be satisfied even after a
// collection cycle (spec §4.2, "Failure semantics").
type ErrOutOfMemory struct {
	Requested uintptr
	HeapName  string
}

func (e *ErrOutOfMemory) Error() string {
	return fmt.Sprintf("heap %q: out of memory allocating %d bytes", e.HeapName, e.Requested)
}

// sizeClasses are the ordered region sizes a heap grows through (spec §4.2).
var sizeClasses = []uintptr{256, 512, 1024, 2048, 8192, 16384, 32768}

const wordAlign = uintptr(unsafe.Sizeof(uintptr(0)))

// gcHeader precedes every allocated object. During normal operation typeinfo
// points at the object's process-global TypeInfo. During copying collection
// it is overwritten to the package-level copiedMarker sentinel and forward
// holds the object's new address -- the forwarding-pointer protocol reusing
// the header in place (spec §4.2).
type gcHeader struct {
	typeinfo unsafe.Pointer
	forward  uintptr
}

var copiedMarker byte

func (h *gcHeader) isCopied() bool {
	return h.typeinfo == unsafe.Pointer(&copiedMarker)
}

func (h *gcHeader) markCopied(newAddr uintptr) {
	h.typeinfo = unsafe.Pointer(&copiedMarker)
	h.forward = newAddr
}

func (h *gcHeader) TypeInfo() *TypeInfo {
	return (*TypeInfo)(h.typeinfo)
}

var headerSize = unsafe.Sizeof(gcHeader{})

func align(size uintptr) uintptr {
	return (size + wordAlign - 1) / wordAlign * wordAlign
}

func headerAt(base unsafe.Pointer) *gcHeader {
	return (*gcHeader)(base)
}

func headerBefore(objPtr unsafe.Pointer) *gcHeader {
	return (*gcHeader)(unsafe.Add(objPtr, -int(headerSize)))
}

// TypeInfoOf reads the TypeInfo stored in the GCHeader immediately preceding
// a live object. objPtr must point at an object currently allocated in some
// heap (not mid-collection, where the header may hold a forwarding marker).
func TypeInfoOf(objPtr unsafe.Pointer) *TypeInfo {
	return headerBefore(objPtr).TypeInfo()
}

// Heap owns one contiguous byte region plus a bump cursor, growing through
// sizeClasses as it fills (spec §4.2).
type Heap struct {
	name      string
	region    []byte
	used      uintptr
	classIdx  int
	Logger    *slog.Logger
	gcCycles  int
}

// StartSize selects a heap's initial size class: actor heaps start near 2K,
// mailbox scratch heaps start at the smallest class (spec §4.2).
type StartSize int

const (
	StartDefault StartSize = iota // 2K, for actor heaps
	StartSmall                    // 256B, for mailbox scratch heaps
)

// New allocates a fresh heap region at the requested starting size class.
func New(name string, start StartSize, logger *slog.Logger) *Heap {
	idx := 0
	if start == StartDefault {
		idx = indexOf(2048)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Heap{
		name:     name,
		region:   make([]byte, sizeClasses[idx]),
		classIdx: idx,
		Logger:   logger,
	}
}

func indexOf(size uintptr) int {
	for i, s := range sizeClasses {
		if s == size {
			return i
		}
	}
	panic("heap: not a size class")
}

func (h *Heap) baseAddr() unsafe.Pointer {
	if len(h.region) == 0 {
		return nil
	}
	return unsafe.Pointer(&h.region[0])
}

// Used returns the number of bytes currently allocated in the region.
func (h *Heap) Used() uintptr { return h.used }

// RegionSize returns the capacity of the current region.
func (h *Heap) RegionSize() uintptr { return uintptr(len(h.region)) }

// IsInHeap reports whether w addresses an object inside this heap's current
// region -- the gate deciding whether a pointer is subject to relocation.
func (h *Heap) IsInHeap(w pointer.Word) bool {
	if !pointer.IsPointer(w) || w == 0 {
		return false
	}
	base := uintptr(h.baseAddr())
	addr := w.Address()
	return addr >= base && addr < base+h.used
}

// AllocBytes reserves size+header bytes for an object of type ti, running a
// collection (and, if that still doesn't fit, failing with ErrOutOfMemory)
// when the region is full (spec §4.2, "Allocation").
func (h *Heap) AllocBytes(roots RootSet, size uintptr, ti *TypeInfo) (unsafe.Pointer, pointer.Word, error) {
	aligned := align(size)
	need := headerSize + aligned

	for attempt := 0; ; attempt++ {
		if h.used+need <= uintptr(len(h.region)) {
			base := unsafe.Add(h.baseAddr(), int(h.used))
			hdr := headerAt(base)
			hdr.typeinfo = unsafe.Pointer(ti)
			hdr.forward = 0
			objPtr := unsafe.Add(base, int(headerSize))
			h.used += need
			return objPtr, pointer.FromAddress(uintptr(objPtr)), nil
		}
		if attempt > 0 {
			return nil, 0, &ErrOutOfMemory{Requested: size, HeapName: h.name}
		}
		if err := h.collect(roots); err != nil {
			return nil, 0, err
		}
	}
}

// ForceAllocationSpace makes sure size bytes are free, running at most one
// collection and failing with ErrOutOfMemory if that still leaves too little
// room, for callers (like the mailbox deep-copy path) that need guaranteed
// headroom before a sequence of allocations.
func (h *Heap) ForceAllocationSpace(roots RootSet, size uintptr) error {
	for attempt := 0; ; attempt++ {
		if h.used+size <= uintptr(len(h.region)) {
			return nil
		}
		if attempt > 0 {
			return &ErrOutOfMemory{Requested: size, HeapName: h.name}
		}
		if err := h.collect(roots); err != nil {
			return err
		}
	}
}

func (h *Heap) collect(roots RootSet) error {
	h.gcCycles++
	if h.classIdx < len(sizeClasses)-1 {
		return h.collectCopying(roots)
	}
	return h.collectCompaction(roots)
}

// objectSize computes an object's total allocation size (header excluded)
// from its TypeInfo.
func objectSize(objPtr unsafe.Pointer, ti *TypeInfo) uintptr {
	return align(ti.Size(objPtr))
}

// walkObjects iterates every still-referenceable object header in the live
// prefix [base, base+used) of a byte region, invoking fn with the header and
// the object payload pointer. fn must not itself mutate sizes in a way that
// changes object boundaries.
func walkObjects(base unsafe.Pointer, used uintptr, fn func(hdr *gcHeader, objPtr unsafe.Pointer, size uintptr)) {
	var off uintptr
	for off < used {
		hdr := headerAt(unsafe.Add(base, int(off)))
		objPtr := unsafe.Add(base, int(off)+int(headerSize))
		ti := hdr.TypeInfo()
		size := objectSize(objPtr, ti)
		fn(hdr, objPtr, size)
		off += headerSize + size
	}
}

// DumpHeap returns a human-readable listing, one line per object in the
// region's allocated prefix (reachable or not), grounded on the Rust
// original's object/mm.rs::dump_heap debug helper.
func (h *Heap) DumpHeap() []string {
	var lines []string
	walkObjects(h.baseAddr(), h.used, func(hdr *gcHeader, objPtr unsafe.Pointer, size uintptr) {
		ti := hdr.TypeInfo()
		lines = append(lines, fmt.Sprintf("%-12s size=%-4d offset=%d", ti.Name, size, uintptr(objPtr)-uintptr(h.baseAddr())-headerSize))
	})
	return lines
}
