// Package value implements navi's concrete heap-allocated value types and
// their TypeInfo descriptors (spec §3 "TypeInfo", "Value model & typeinfo" in
// §2). Every constructor here takes a heap.Allocator and a heap.RootSet so it
// can be used uniformly against an actor's main heap or a mailbox's scratch
// heap.
package value

import (
	"fmt"
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/pointer"
)

// Word is an alias for the tagged pointer every value is passed as.
type Word = pointer.Word

// Nil, Unit, True, False, MatchFail are the immediate singleton values.
var (
	Nil       = pointer.Nil
	Unit      = pointer.Unit
	True      = pointer.True
	False     = pointer.False
	MatchFail = pointer.MatchFail
)

// Bool converts a Go bool to its navi immediate.
func Bool(b bool) Word {
	if b {
		return True
	}
	return False
}

// Integer packs a fixnum immediate (spec §3: "small integer (fixnum)").
// navi has no bignum in this core; integers overflowing 62 bits are a
// Non-goal left to the numeric-primitives collaborator.
func Integer(v int64) Word { return pointer.Fixnum(v) }

// Char packs a rune as an immediate character value.
func Char(r rune) Word { return pointer.Char(r) }

// wordAt returns a uintptr-addressable pointer to a field inside obj,
// offset bytes from its start, typed as a pointer.Word slot.
func wordAt(obj unsafe.Pointer, offset uintptr) *Word {
	return (*Word)(unsafe.Add(obj, int(offset)))
}

// TypeOf returns the TypeInfo of a heap-pointer value, or nil for immediates.
func TypeOf(w Word) *heap.TypeInfo {
	if !pointer.IsPointer(w) || w == 0 {
		return nil
	}
	return heap.TypeInfoOf(unsafe.Pointer(w.Address()))
}

// IsType reports the Number ⊃ Integer/Real and App ⊃ Closure/Native subtype
// relations described in spec §3, falling back to exact TypeInfo identity.
func IsType(w Word, ti *heap.TypeInfo) bool {
	if pointer.IsFixnum(w) {
		return ti == NumberTypeInfo || ti == IntegerTypeInfo
	}
	got := TypeOf(w)
	if got == nil {
		return false
	}
	if got == ti {
		return true
	}
	if got.IsType != nil {
		return got.IsType(ti)
	}
	return false
}

// Equal implements structural equality. Immediates compare by value; heap
// values delegate to their TypeInfo-less, type-specific Equal helpers
// registered below (symbols/strings by content, tuples/arrays by recursive
// element comparison, numbers by numeric value).
func Equal(a, b Word) bool {
	if a == b {
		return true
	}
	if pointer.IsPointer(a) != pointer.IsPointer(b) {
		return false
	}
	if !pointer.IsPointer(a) {
		return false // distinct immediates of possibly-different kinds
	}
	eq, ok := equalByType(a, b)
	return ok && eq
}

func equalByType(a, b Word) (bool, bool) {
	if sa, ok := AsSymbol(a); ok {
		sb, ok := AsSymbol(b)
		return ok && sa == sb, true
	}
	if sa, ok := AsKeyword(a); ok {
		sb, ok := AsKeyword(b)
		return ok && sa == sb, true
	}
	if sa, ok := AsString(a); ok {
		sb, ok := AsString(b)
		return ok && sa == sb, true
	}
	if ra, ok := AsReal(a); ok {
		rb, ok := AsReal(b)
		return ok && ra == rb, true
	}
	if ta, ok := AsTuple(a); ok {
		tb, ok := AsTuple(b)
		if !ok || len(ta) != len(tb) {
			return false, true
		}
		for i := range ta {
			if !Equal(ta[i], tb[i]) {
				return false, true
			}
		}
		return true, true
	}
	if aa, ok := AsArray(a); ok {
		ab, ok := AsArray(b)
		if !ok || len(aa) != len(ab) {
			return false, true
		}
		for i := range aa {
			if !Equal(aa[i], ab[i]) {
				return false, true
			}
		}
		return true, true
	}
	if la, ok := AsList(a); ok {
		lb, ok := AsList(b)
		if !ok || len(la) != len(lb) {
			return false, true
		}
		for i := range la {
			if !Equal(la[i], lb[i]) {
				return false, true
			}
		}
		return true, true
	}
	if ea, ok := AsException(a); ok {
		eb, ok := AsException(b)
		return ok && Equal(ea.Kind, eb.Kind) && Equal(ea.Payload, eb.Payload), true
	}
	return false, false
}

// Print renders a value for the REPL / println primitive. Kept separate from
// Go's %v so display formatting stays in navi's own control, matching the
// teacher's habit of a dedicated disassembly/print path rather than relying
// on fmt.Stringer everywhere performance-sensitive.
func Print(w Word) string {
	switch {
	case w == Nil:
		return "nil"
	case w == Unit:
		return "unit"
	case w == True:
		return "true"
	case w == False:
		return "false"
	case w == MatchFail:
		return "#match-fail"
	case pointer.IsFixnum(w):
		return fmt.Sprintf("%d", w.FixnumValue())
	case pointer.IsChar(w):
		return fmt.Sprintf("%c", w.CharValue())
	}
	if s, ok := AsSymbol(w); ok {
		return s
	}
	if k, ok := AsKeyword(w); ok {
		return ":" + k
	}
	if s, ok := AsString(w); ok {
		return fmt.Sprintf("%q", s)
	}
	if r, ok := AsReal(w); ok {
		return fmt.Sprintf("%g", r)
	}
	if t, ok := AsTuple(w); ok {
		return printSeq("{", "}", t)
	}
	if a, ok := AsArray(w); ok {
		return printSeq("[", "]", a)
	}
	if l, ok := AsList(w); ok {
		return printSeq("(", ")", l)
	}
	if _, ok := AsClosure(w); ok {
		return "#closure"
	}
	if _, ok := AsObjectRef(w); ok {
		return "#object-ref"
	}
	if _, ok := AsReply(w); ok {
		return "#reply"
	}
	if e, ok := AsException(w); ok {
		return "#exception(" + Print(e.Kind) + ")"
	}
	return "#value"
}

func printSeq(open, close string, elems []Word) string {
	s := open
	for i, e := range elems {
		if i > 0 {
			s += " "
		}
		s += Print(e)
	}
	return s + close
}
