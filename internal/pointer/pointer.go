// Package pointer implements the tagged-pointer encoding shared by every
// value in a navi actor's heap.
//
// Every value is referenced through a pointer-sized word (a Word). The low
// two bits of a Word distinguish a heap pointer from an immediate value:
//
//	00  -> heap pointer: the word, reinterpreted as a uintptr, addresses an
//	       object immediately preceded in memory by a GCHeader.
//	01  -> fixnum: the remaining bits hold a signed integer.
//	10  -> character: the remaining bits hold a rune.
//	11  -> sentinel: the remaining bits select one of a small fixed set of
//	       singleton immediates (nil, unit, true, false, match-fail,
//	       gc-copied).
//
// This mirrors the encoding in navi's Rust original (src/ptr.rs, src/value.rs)
// translated to Go's lack of raw tagged pointers: a Word is a uintptr, and
// heap.Heap is the only code allowed to dereference one as an address.
package pointer

import "fmt"

// Word is the tagged pointer-sized value every navi Value is passed around as.
type Word uintptr

const (
	tagMask     Word = 0x3
	tagPointer  Word = 0x0
	tagFixnum   Word = 0x1
	tagChar     Word = 0x2
	tagSentinel Word = 0x3
)

const payloadShift = 2

// Sentinel enumerates the singleton immediates packed under tagSentinel.
type Sentinel int

const (
	SentinelNil Sentinel = iota
	SentinelUnit
	SentinelTrue
	SentinelFalse
	SentinelMatchFail
	// SentinelGCCopied marks an already-relocated object's old header during
	// copying collection (§4.2). It must never escape into a value slot
	// reachable from any root.
	SentinelGCCopied
)

var sentinelNames = [...]string{"nil", "unit", "true", "false", "#match-fail", "#gc-copied"}

func (s Sentinel) String() string {
	if int(s) < len(sentinelNames) {
		return sentinelNames[s]
	}
	return fmt.Sprintf("#sentinel(%d)", int(s))
}

func sentinelWord(s Sentinel) Word {
	return (Word(s) << payloadShift) | tagSentinel
}

var (
	Nil       = sentinelWord(SentinelNil)
	Unit      = sentinelWord(SentinelUnit)
	True      = sentinelWord(SentinelTrue)
	False     = sentinelWord(SentinelFalse)
	MatchFail = sentinelWord(SentinelMatchFail)
	GCCopied  = sentinelWord(SentinelGCCopied)
)

// FromAddress wraps a raw heap address (from the allocator) as a pointer Word.
// Callers must guarantee the address is at least 4-byte aligned so the tag
// bits are free.
func FromAddress(addr uintptr) Word {
	if addr&uintptr(tagMask) != 0 {
		panic("pointer: heap address is not tag-aligned")
	}
	return Word(addr)
}

// IsPointer reports whether w addresses a heap object (§3, value_is_pointer).
func IsPointer(w Word) bool {
	return w&tagMask == tagPointer
}

// Address returns the raw heap address encoded in w. Only valid if IsPointer(w).
func (w Word) Address() uintptr {
	return uintptr(w)
}

// Fixnum packs a small integer as an immediate.
func Fixnum(v int64) Word {
	return Word(v<<payloadShift) | tagFixnum
}

// IsFixnum reports whether w is a packed small integer.
func IsFixnum(w Word) bool { return w&tagMask == tagFixnum }

// FixnumValue unpacks the integer payload of a fixnum Word.
func (w Word) FixnumValue() int64 {
	return int64(w) >> payloadShift
}

// Char packs a rune as an immediate.
func Char(r rune) Word {
	return Word(int64(r)<<payloadShift) | tagChar
}

// IsChar reports whether w is a packed character.
func IsChar(w Word) bool { return w&tagMask == tagChar }

// CharValue unpacks the rune payload of a character Word.
func (w Word) CharValue() rune {
	return rune(int64(w) >> payloadShift)
}

// IsSentinel reports whether w is one of the fixed singleton immediates.
func IsSentinel(w Word) bool { return w&tagMask == tagSentinel }

// SentinelValue unpacks which singleton w encodes. Only valid if IsSentinel(w).
func (w Word) SentinelValue() Sentinel {
	return Sentinel(w >> payloadShift)
}

// Truthy implements the VM's truthiness rule (§4.5): only `false` is false,
// everything else -- including nil, unit, 0, and the match-fail sentinel --
// is true for IF/AND/OR purposes. MATCH-SUCCESS treats match-fail specially
// and does not consult Truthy.
func Truthy(w Word) bool {
	return w != False
}

// IsMatchFail reports whether w is the match-fail sentinel.
func IsMatchFail(w Word) bool {
	return w == MatchFail
}

func (w Word) String() string {
	switch {
	case IsPointer(w):
		return fmt.Sprintf("#ptr(0x%x)", uintptr(w))
	case IsFixnum(w):
		return fmt.Sprintf("%d", w.FixnumValue())
	case IsChar(w):
		return fmt.Sprintf("%q", w.CharValue())
	default:
		return w.SentinelValue().String()
	}
}
