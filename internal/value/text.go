package value

import (
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/pointer"
)

// textLayout is the common on-heap layout for Symbol, Keyword, and String:
// immutable UTF-8 blobs with their length encoded in the allocation (spec §3).
type textLayout struct {
	length int32
}

const textHeaderSize = unsafe.Sizeof(textLayout{})

func allocText(alloc heap.Allocator, roots heap.RootSet, ti *heap.TypeInfo, s string) (Word, error) {
	n := uintptr(len(s))
	objPtr, w, err := alloc.AllocBytes(roots, textHeaderSize+n, ti)
	if err != nil {
		return 0, err
	}
	layout := (*textLayout)(objPtr)
	layout.length = int32(n)
	dst := unsafe.Slice((*byte)(unsafe.Add(objPtr, int(textHeaderSize))), n)
	copy(dst, s)
	return w, nil
}

func readText(w Word, ti *heap.TypeInfo) (string, bool) {
	if !pointer.IsPointer(w) || w == 0 || TypeOf(w) != ti {
		return "", false
	}
	objPtr := unsafe.Pointer(w.Address())
	layout := (*textLayout)(objPtr)
	data := unsafe.Slice((*byte)(unsafe.Add(objPtr, int(textHeaderSize))), int(layout.length))
	return string(data), true
}

func textSize(obj unsafe.Pointer) uintptr {
	layout := (*textLayout)(obj)
	return textHeaderSize + uintptr(layout.length)
}

// cloneTextObj copies a text-layout object into dst under ti.
func cloneTextObj(obj unsafe.Pointer, ti *heap.TypeInfo, dst heap.Allocator) (Word, error) {
	layout := (*textLayout)(obj)
	data := unsafe.Slice((*byte)(unsafe.Add(obj, int(textHeaderSize))), int(layout.length))
	return allocText(dst, nil, ti, string(data))
}

// SymbolTypeInfo describes unquoted identifiers. Equality is by content --
// symbols with the same spelling are not required to be interned (spec §3).
var SymbolTypeInfo = &heap.TypeInfo{
	Name: "Symbol",
	Size: textSize,
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		return cloneTextObj(obj, SymbolTypeInfo, dst)
	},
}

var KeywordTypeInfo = &heap.TypeInfo{
	Name: "Keyword",
	Size: textSize,
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		return cloneTextObj(obj, KeywordTypeInfo, dst)
	},
}

var StringTypeInfo = &heap.TypeInfo{
	Name: "String",
	Size: textSize,
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		return cloneTextObj(obj, StringTypeInfo, dst)
	},
}

// NewSymbol allocates a Symbol with the given spelling.
func NewSymbol(alloc heap.Allocator, roots heap.RootSet, s string) (Word, error) {
	return allocText(alloc, roots, SymbolTypeInfo, s)
}

// NewKeyword allocates a Keyword (`:ident`).
func NewKeyword(alloc heap.Allocator, roots heap.RootSet, s string) (Word, error) {
	return allocText(alloc, roots, KeywordTypeInfo, s)
}

// NewString allocates an immutable String.
func NewString(alloc heap.Allocator, roots heap.RootSet, s string) (Word, error) {
	return allocText(alloc, roots, StringTypeInfo, s)
}

// AsSymbol reads back a Symbol's spelling.
func AsSymbol(w Word) (string, bool) { return readText(w, SymbolTypeInfo) }

// AsKeyword reads back a Keyword's spelling.
func AsKeyword(w Word) (string, bool) { return readText(w, KeywordTypeInfo) }

// AsString reads back a String's contents.
func AsString(w Word) (string, bool) { return readText(w, StringTypeInfo) }
