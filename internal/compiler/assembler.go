package compiler

import (
	"encoding/binary"

	"github.com/kristofer/navi/internal/value"
)

// assembler accumulates the flat instruction stream and deduplicated
// constant pool pass 2 produces, grounded on the teacher's Bytecode{
// Instructions, Constants} (pkg/bytecode/bytecode.go) but emitting a true
// byte stream (navi's opcodes carry variable-width operands) instead of a
// slice of fixed Instruction structs.
type assembler struct {
	code      []byte
	constants []value.Word
	constIdx  map[value.Word]int
}

func newAssembler() *assembler {
	return &assembler{constIdx: make(map[value.Word]int)}
}

func (a *assembler) emit(op Opcode) int {
	pos := len(a.code)
	a.code = append(a.code, byte(op))
	return pos
}

func (a *assembler) u8(v uint8)   { a.code = append(a.code, v) }
func (a *assembler) u16(v uint16) { a.code = binary.BigEndian.AppendUint16(a.code, v) }
func (a *assembler) i16(v int16)  { a.u16(uint16(v)) }

func (a *assembler) patchI16(pos int, v int16) {
	binary.BigEndian.PutUint16(a.code[pos:pos+2], uint16(v))
}

func (a *assembler) here() int { return len(a.code) }

// addConst pools a constant value, deduplicating by Word identity -- two
// occurrences of the same heap pointer (e.g. a quoted literal reused across
// clauses) share one pool slot, matching pass 2's deduplicated constant
// pool (spec §4.4).
func (a *assembler) addConst(w value.Word) int {
	if idx, ok := a.constIdx[w]; ok {
		return idx
	}
	idx := len(a.constants)
	a.constants = append(a.constants, w)
	a.constIdx[w] = idx
	return idx
}
