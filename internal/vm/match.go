package vm

import (
	"strings"

	"github.com/kristofer/navi/internal/value"
)

// MatchValue reports whether subject matches pattern (spec §4.3 "match", §6
// pattern DSL), and if so returns the values bound by every non-`_` symbol
// in the pattern, left-to-right depth-first -- the same order
// compiler.patternVars walks names in, so callers can zip the two lists
// positionally. `_` (bare or `@`-prefixed) binds nothing; every other
// symbol, `@`-prefixed or bare, binds the subject value at that position
// (spec §8 scenario 4: `({@a @_ [@b @_]} (+ a b))`). Tuple/array/list
// patterns match structurally, recursing element-wise; every other pattern
// matches by value.Equal.
func MatchValue(pattern, subject value.Word) ([]value.Word, bool) {
	var bound []value.Word
	if !matchWalk(pattern, subject, &bound) {
		return nil, false
	}
	return bound, true
}

func matchWalk(pattern, subject value.Word, bound *[]value.Word) bool {
	if sym, ok := value.AsSymbol(pattern); ok {
		if strings.TrimPrefix(sym, "@") != "_" {
			*bound = append(*bound, subject)
		}
		return true
	}
	if pt, ok := value.AsTuple(pattern); ok {
		st, ok := value.AsTuple(subject)
		if !ok || len(pt) != len(st) {
			return false
		}
		for i := range pt {
			if !matchWalk(pt[i], st[i], bound) {
				return false
			}
		}
		return true
	}
	if pa, ok := value.AsArray(pattern); ok {
		sa, ok := value.AsArray(subject)
		if !ok || len(pa) != len(sa) {
			return false
		}
		for i := range pa {
			if !matchWalk(pa[i], sa[i], bound) {
				return false
			}
		}
		return true
	}
	if pl, ok := value.AsList(pattern); ok {
		sl, ok := value.AsList(subject)
		if !ok || len(pl) != len(sl) {
			return false
		}
		for i := range pl {
			if !matchWalk(pl[i], sl[i], bound) {
				return false
			}
		}
		return true
	}
	return value.Equal(pattern, subject)
}
