package value

import (
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/pointer"
)

// exceptionLayout wraps a raised condition as a first-class navi value so
// fail-catch/match can pattern-match on it like any other Tuple-shaped data
// (spec §4.3 "fail-catch", §7; original_source src/value/exception.rs).
type exceptionLayout struct {
	kind    Word // Keyword naming the exception class, e.g. :arity-error
	payload Word // exception-specific detail, often a Tuple
}

const exceptionSize = unsafe.Sizeof(exceptionLayout{})

// ExceptionTypeInfo describes a raised, catchable condition.
var ExceptionTypeInfo = &heap.TypeInfo{
	Name: "Exception",
	Size: func(obj unsafe.Pointer) uintptr { return exceptionSize },
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		layout := (*exceptionLayout)(obj)
		visit(&layout.kind)
		visit(&layout.payload)
	},
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		layout := (*exceptionLayout)(obj)
		kind, err := deepCloneOne(layout.kind, dst)
		if err != nil {
			return 0, err
		}
		payload, err := deepCloneOne(layout.payload, dst)
		if err != nil {
			return 0, err
		}
		return NewException(dst, nil, kind, payload)
	},
}

// NewException allocates a raised-condition value.
func NewException(alloc heap.Allocator, roots heap.RootSet, kind, payload Word) (Word, error) {
	objPtr, w, err := alloc.AllocBytes(roots, exceptionSize, ExceptionTypeInfo)
	if err != nil {
		return 0, err
	}
	layout := (*exceptionLayout)(objPtr)
	layout.kind = kind
	layout.payload = payload
	return w, nil
}

// ExceptionInfo is the decoded view of an Exception returned by AsException.
type ExceptionInfo struct {
	Kind    Word
	Payload Word
}

// AsException reads back an Exception's kind and payload.
func AsException(w Word) (ExceptionInfo, bool) {
	if !pointer.IsPointer(w) || w == 0 || TypeOf(w) != ExceptionTypeInfo {
		return ExceptionInfo{}, false
	}
	layout := (*exceptionLayout)(unsafe.Pointer(w.Address()))
	return ExceptionInfo{Kind: layout.kind, Payload: layout.payload}, true
}
