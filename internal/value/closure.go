package value

import (
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/pointer"
)

// closureLayout is a heap-allocated closure: a reference to its compiled
// Code plus the defining environment it closed over at creation time (spec
// §4.3, "free-variable capture"; §4.4 CLOSURE opcode). Rather than
// extracting and flattening individual free variables, MAKE-CLOSURE simply
// retains the whole env chain active at the closure expression -- the body's
// LRef frame/index pairs, computed once by pass 1 against that same chain,
// resolve against it unchanged at call time. NumParams/Variadic duplicate a
// little of what Code already knows so arity checks at CALL time don't need
// to chase the code pointer.
type closureLayout struct {
	code      Word
	env       Word
	numParams int32
	variadic  bool
}

const closureHeaderSize = unsafe.Sizeof(closureLayout{})

// ClosureTypeInfo is the App-shaped type produced by the CLOSURE opcode.
var ClosureTypeInfo = &heap.TypeInfo{
	Name: "Closure",
	Size: func(obj unsafe.Pointer) uintptr { return closureHeaderSize },
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		layout := (*closureLayout)(obj)
		visit(&layout.code)
		visit(&layout.env)
	},
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		layout := (*closureLayout)(obj)
		code, err := deepCloneOne(layout.code, dst)
		if err != nil {
			return 0, err
		}
		env, err := deepCloneOne(layout.env, dst)
		if err != nil {
			return 0, err
		}
		return NewClosure(dst, nil, code, int(layout.numParams), layout.variadic, env)
	},
	IsType: func(other *heap.TypeInfo) bool { return other == AppTypeInfo },
	Extra:  &heap.ExtraTypeInfo{Name: "Closure"},
}

// AppTypeInfo is the marker supertype every callable value satisfies
// (Closure, and -- once registered by the primitives package -- Native),
// mirroring the original's "is_type(App)" check used by the CALL opcode.
var AppTypeInfo = &heap.TypeInfo{Name: "App"}

// NewClosure allocates a closure over code, retaining env (the environment
// chain active when the enclosing `fun` expression was evaluated) as the
// parent frame every call of this closure builds its parameter frame on top
// of.
func NewClosure(alloc heap.Allocator, roots heap.RootSet, code Word, numParams int, variadic bool, env Word) (Word, error) {
	objPtr, w, err := alloc.AllocBytes(roots, closureHeaderSize, ClosureTypeInfo)
	if err != nil {
		return 0, err
	}
	layout := (*closureLayout)(objPtr)
	layout.code = code
	layout.env = env
	layout.numParams = int32(numParams)
	layout.variadic = variadic
	return w, nil
}

// ClosureInfo is the decoded view of a closure returned by AsClosure.
type ClosureInfo struct {
	Code      Word
	NumParams int
	Variadic  bool
	Env       Word
}

// AsClosure reads back a closure's code reference, arity, and captured env.
func AsClosure(w Word) (ClosureInfo, bool) {
	if !pointer.IsPointer(w) || w == 0 || TypeOf(w) != ClosureTypeInfo {
		return ClosureInfo{}, false
	}
	objPtr := unsafe.Pointer(w.Address())
	layout := (*closureLayout)(objPtr)
	return ClosureInfo{
		Code:      layout.code,
		NumParams: int(layout.numParams),
		Variadic:  layout.variadic,
		Env:       layout.env,
	}, true
}

// IsApp reports whether w is callable: a Closure, or (once the primitives
// package registers Native) a Native function.
func IsApp(w Word) bool {
	if TypeOf(w) == nil {
		return false
	}
	return IsType(w, AppTypeInfo)
}
