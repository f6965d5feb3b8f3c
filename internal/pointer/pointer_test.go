package pointer_test

import (
	"testing"

	"github.com/kristofer/navi/internal/pointer"
)

func TestFixnumRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)}
	for _, n := range cases {
		w := pointer.Fixnum(n)
		if !pointer.IsFixnum(w) {
			t.Fatalf("Fixnum(%d) is not IsFixnum", n)
		}
		if pointer.IsPointer(w) || pointer.IsChar(w) || pointer.IsSentinel(w) {
			t.Fatalf("Fixnum(%d) tag collides with another kind", n)
		}
		if got := w.FixnumValue(); got != n {
			t.Fatalf("Fixnum(%d).FixnumValue() = %d", n, got)
		}
	}
}

func TestCharRoundTrip(t *testing.T) {
	for _, r := range []rune{'a', 'Z', '0', '\n', '世'} {
		w := pointer.Char(r)
		if !pointer.IsChar(w) {
			t.Fatalf("Char(%q) is not IsChar", r)
		}
		if got := w.CharValue(); got != r {
			t.Fatalf("Char(%q).CharValue() = %q", r, got)
		}
	}
}

func TestSentinelsAreDistinctAndRoundTrip(t *testing.T) {
	sentinels := map[pointer.Word]pointer.Sentinel{
		pointer.Nil:       pointer.SentinelNil,
		pointer.Unit:      pointer.SentinelUnit,
		pointer.True:      pointer.SentinelTrue,
		pointer.False:     pointer.SentinelFalse,
		pointer.MatchFail: pointer.SentinelMatchFail,
		pointer.GCCopied:  pointer.SentinelGCCopied,
	}
	seen := make(map[pointer.Word]bool)
	for w, want := range sentinels {
		if !pointer.IsSentinel(w) {
			t.Fatalf("%v is not IsSentinel", w)
		}
		if got := w.SentinelValue(); got != want {
			t.Fatalf("SentinelValue() = %v, want %v", got, want)
		}
		if seen[w] {
			t.Fatalf("sentinel word %v reused by more than one singleton", w)
		}
		seen[w] = true
	}
}

func TestTruthyOnlyFalseIsFalsy(t *testing.T) {
	falsy := pointer.False
	if pointer.Truthy(falsy) {
		t.Fatalf("Truthy(False) = true, want false")
	}
	truthy := []pointer.Word{pointer.Nil, pointer.Unit, pointer.True, pointer.MatchFail, pointer.Fixnum(0), pointer.Char('a')}
	for _, w := range truthy {
		if !pointer.Truthy(w) {
			t.Fatalf("Truthy(%v) = false, want true", w)
		}
	}
}

func TestFromAddressRejectsUnalignedAddress(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected FromAddress to panic on an unaligned address")
		}
	}()
	pointer.FromAddress(0x1001)
}

func TestFromAddressRoundTripsAlignedAddress(t *testing.T) {
	addr := uintptr(0x1000)
	w := pointer.FromAddress(addr)
	if !pointer.IsPointer(w) {
		t.Fatalf("FromAddress(%x) is not IsPointer", addr)
	}
	if got := w.Address(); got != addr {
		t.Fatalf("Address() = %x, want %x", got, addr)
	}
}

func TestIsMatchFail(t *testing.T) {
	if !pointer.IsMatchFail(pointer.MatchFail) {
		t.Fatalf("IsMatchFail(MatchFail) = false")
	}
	if pointer.IsMatchFail(pointer.Nil) {
		t.Fatalf("IsMatchFail(Nil) = true")
	}
}
