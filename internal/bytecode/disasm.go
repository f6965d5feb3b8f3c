package bytecode

import (
	"fmt"
	"io"

	"github.com/kristofer/navi/internal/compiler"
	"github.com/kristofer/navi/internal/value"
)

// Disassemble writes a human-readable listing of code's constant pool and
// instruction stream to w, grounded on the teacher's disassembleFile
// (cmd/smog/main.go): constants first, then one line per instruction with
// its decoded operand. Nested Code constants (closure bodies) are listed
// recursively, indented one level per nesting depth.
func Disassemble(w io.Writer, code value.Word) error {
	return disassemble(w, code, 0)
}

func disassemble(w io.Writer, code value.Word, depth int) error {
	info, ok := value.AsCode(code)
	if !ok {
		return fmt.Errorf("bytecode: not a Code object")
	}
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}

	fmt.Fprintf(w, "%sCode(params=%d variadic=%v):\n", indent, info.NumParams, info.Variadic)
	fmt.Fprintf(w, "%s  Constants:\n", indent)
	if len(info.Constants) == 0 {
		fmt.Fprintf(w, "%s    (empty)\n", indent)
	}
	var nested []value.Word
	for i, c := range info.Constants {
		if _, ok := value.AsCode(c); ok {
			fmt.Fprintf(w, "%s    [%d] <nested code, see below>\n", indent, i)
			nested = append(nested, c)
			continue
		}
		fmt.Fprintf(w, "%s    [%d] %s\n", indent, i, value.Print(c))
	}

	fmt.Fprintf(w, "%s  Instructions:\n", indent)
	instr := info.Instructions
	pc := 0
	for pc < len(instr) {
		op := compiler.Opcode(instr[pc])
		start := pc
		pc++
		operand := ""
		switch op {
		case compiler.OpConst, compiler.OpGRef, compiler.OpDefGlobal, compiler.OpPushEnv, compiler.OpMakeClosure:
			operand = fmt.Sprintf(" %d", be16(instr, pc))
			pc += 2
		case compiler.OpLRef:
			operand = fmt.Sprintf(" frame=%d index=%d", instr[pc], instr[pc+1])
			pc += 2
		case compiler.OpJump, compiler.OpJumpIfFalse, compiler.OpJumpIfTrue,
			compiler.OpJumpIfMatchFail, compiler.OpJumpIfNotMatchFail:
			operand = fmt.Sprintf(" %+d", int16(be16(instr, pc)))
			pc += 2
		case compiler.OpSetLocal, compiler.OpCall, compiler.OpCallTail:
			operand = fmt.Sprintf(" %d", instr[pc])
			pc++
		}
		fmt.Fprintf(w, "%s    %4d: %-22s%s\n", indent, start, op, operand)
	}

	for _, n := range nested {
		if err := disassemble(w, n, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func be16(b []byte, pc int) uint16 { return uint16(b[pc])<<8 | uint16(b[pc+1]) }
