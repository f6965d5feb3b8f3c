// Package compiler implements navi's two-pass compiler: pass 1 (this file
// and transform.go) lowers reader-produced S-expressions into iform.Word
// trees, resolving every lexical/global reference and tail position; pass 2
// (codegen.go) walks an IForm tree into a value.Code object (bytecode plus
// constant pool). Grounded on original_source src/compile.rs, translated
// from CCtx/SyntaxException into Go idioms: explicit *Error returns instead
// of exceptions, and a frame-stack slice instead of a linked Context chain.
package compiler

import (
	"fmt"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/value"
)

// Error reports a compile-time failure, grounded on the teacher's
// StackFrame-carrying RuntimeError (pkg/vm/errors.go) but scoped to what
// pass 1/pass 2 can actually fail on: malformed special forms and arity
// mismatches caught statically. An unknown name is not a compile error; it
// becomes a global reference.
type Error struct {
	Message string
	Form    value.Word
}

func (e *Error) Error() string { return "compile error: " + e.Message }

func errf(form value.Word, format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...), Form: form}
}

// frame is one lexical scope: an ordered list of bound names, innermost
// scope last searched first (spec §4.3, "lexical frame stack").
type frame struct {
	names []string
}

func (f *frame) indexOf(name string) (int, bool) {
	for i, n := range f.names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Context carries pass 1's compile-time state: the object whose heap new
// IForm nodes (and any constants they embed) are allocated into, and the
// stack of lexical frames currently in scope.
type Context struct {
	Obj    *object.Object
	frames []*frame
}

// NewContext creates a pass 1 context compiling against obj's global table
// and heap.
func NewContext(obj *object.Object) *Context {
	return &Context{Obj: obj}
}

func (c *Context) alloc() heap.Allocator { return c.Obj }
func (c *Context) roots() heap.RootSet   { return c.Obj }

// pushFrame opens a new lexical scope binding names, used by fun/let/local.
func (c *Context) pushFrame(names []string) {
	c.frames = append(c.frames, &frame{names: names})
}

func (c *Context) popFrame() {
	c.frames = c.frames[:len(c.frames)-1]
}

// hasFrame reports whether any lexical frame is currently open -- the
// discriminator between true program top level (CompileProgram never
// pushes a frame around a top-level form) and a position inside a fun/local
// body: with no open frame a `let` defines a global (DEF-GLOBAL); with one,
// a `let` is accepted only in a leading run of lets, which become the
// scope's local bindings.
func (c *Context) hasFrame() bool { return len(c.frames) > 0 }

// lookupLocal searches the frame stack innermost-first, returning the frame
// distance and slot index lookup_localvar in the original computes the same
// way (original_source src/compile.rs, "lookup_localvar").
func (c *Context) lookupLocal(name string) (frameDist, index int, ok bool) {
	for dist := 0; dist < len(c.frames); dist++ {
		f := c.frames[len(c.frames)-1-dist]
		if idx, found := f.indexOf(name); found {
			return dist, idx, true
		}
	}
	return 0, 0, false
}
