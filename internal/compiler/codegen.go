package compiler

import (
	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/iform"
	"github.com/kristofer/navi/internal/value"
)

// CodeGen turns an IForm tree (as produced by Transform) into a value.Code
// object: a flat bytecode stream plus its constant pool (spec §4.4, "pass
// 2"). alloc/roots are where the resulting Code object -- and any constants
// its generation needs to allocate, such as interned free-variable index
// tables -- are allocated.
func CodeGen(alloc heap.Allocator, roots heap.RootSet, body iform.Word, numParams int, variadic bool) (value.Word, error) {
	a := newAssembler()
	g := &generator{asm: a, alloc: alloc, roots: roots}
	if err := g.gen(body, true); err != nil {
		return 0, err
	}
	a.emit(OpReturn)
	return value.NewCode(alloc, roots, a.code, a.constants, numParams, variadic)
}

type generator struct {
	asm   *assembler
	alloc heap.Allocator
	roots heap.RootSet
}

func (g *generator) gen(node iform.Word, tail bool) error {
	switch iform.KindOf(node) {
	case iform.KindConst:
		v, _ := iform.AsConst(node)
		idx := g.asm.addConst(v)
		g.asm.emit(OpConst)
		g.asm.u16(uint16(idx))
		return nil

	case iform.KindLRef:
		info, _ := iform.AsLRef(node)
		g.asm.emit(OpLRef)
		g.asm.u8(uint8(info.Frame))
		g.asm.u8(uint8(info.Index))
		return nil

	case iform.KindGRef:
		name, _ := iform.AsGRef(node)
		idx := g.asm.addConst(name)
		g.asm.emit(OpGRef)
		g.asm.u16(uint16(idx))
		return nil

	case iform.KindIf:
		info, _ := iform.AsIf(node)
		if err := g.gen(info.Test, false); err != nil {
			return err
		}
		g.asm.emit(OpJumpIfFalse)
		falsePatch := g.asm.here()
		g.asm.i16(0)
		if err := g.gen(info.Then, tail); err != nil {
			return err
		}
		g.asm.emit(OpJump)
		endPatch := g.asm.here()
		g.asm.i16(0)
		g.asm.patchI16(falsePatch, int16(g.asm.here()-falsePatch-2))
		if err := g.gen(info.Else, tail); err != nil {
			return err
		}
		g.asm.patchI16(endPatch, int16(g.asm.here()-endPatch-2))
		return nil

	case iform.KindSeq:
		exprs, _ := iform.AsSeq(node)
		for i, e := range exprs {
			if err := g.gen(e, tail && i == len(exprs)-1); err != nil {
				return err
			}
		}
		if len(exprs) == 0 {
			return g.genNilConst()
		}
		return nil

	case iform.KindLet:
		return g.genLet(node, tail, false)

	case iform.KindLocal:
		return g.genLet(node, tail, true)

	case iform.KindFun:
		return g.genFun(node)

	case iform.KindCall:
		return g.genCall(node, tail)

	case iform.KindAndOr:
		return g.genAndOr(node, tail)

	case iform.KindDefRecv, iform.KindObjectSwitch:
		return g.genTopLevelOnly(node)

	default:
		return errf(node, "codegen: unsupported IForm node")
	}
}

func (g *generator) genNilConst() error {
	idx := g.asm.addConst(value.Nil)
	g.asm.emit(OpConst)
	g.asm.u16(uint16(idx))
	return nil
}

func (g *generator) genLet(node iform.Word, tail, mutual bool) error {
	var bindings []iform.Word
	var body iform.Word
	if mutual {
		info, _ := iform.AsLocal(node)
		bindings, body = info.Bindings, info.Body
	} else {
		info, _ := iform.AsLet(node)
		bindings, body = info.Bindings, info.Body
	}

	if mutual {
		g.asm.emit(OpPushEnv)
		g.asm.u16(uint16(len(bindings)))
		for i, b := range bindings {
			if err := g.gen(b, false); err != nil {
				return err
			}
			g.asm.emit(OpSetLocal)
			g.asm.u8(uint8(i))
		}
	} else {
		for _, b := range bindings {
			if err := g.gen(b, false); err != nil {
				return err
			}
			g.asm.emit(OpPushAcc)
		}
		g.asm.emit(OpPushEnv)
		g.asm.u16(uint16(len(bindings)))
		for i := range bindings {
			// PUSH_ENV zeroes new slots; pop the previously pushed values
			// (in reverse, since OpPushAcc built a LIFO arg stack) into them.
			g.asm.emit(OpSetLocal)
			g.asm.u8(uint8(len(bindings) - 1 - i))
		}
	}

	if err := g.gen(body, tail); err != nil {
		return err
	}
	g.asm.emit(OpPopEnv)
	return nil
}

// genFun compiles a lambda's body into its own Code object and emits
// MAKE-CLOSURE referencing it. The closure captures the *entire* environment
// active at this point (rather than a flattened per-variable capture list,
// spec §4.3/§4.4's literal CLOSURE encoding) -- info.FreeVars, computed
// during pass 1 (transform.go's collectFreeVars), is not consulted here; it
// remains available for a future optimization pass that would trim the
// captured chain to only the variables actually referenced.
func (g *generator) genFun(node iform.Word) error {
	info, _ := iform.AsFun(node)
	codeWord, err := CodeGen(g.alloc, g.roots, info.Body, info.NumParams, info.Variadic)
	if err != nil {
		return err
	}
	codeIdx := g.asm.addConst(codeWord)
	g.asm.emit(OpMakeClosure)
	g.asm.u16(uint16(codeIdx))
	return nil
}

func (g *generator) genCall(node iform.Word, tail bool) error {
	info, _ := iform.AsCall(node)
	if name, ok := calleeGlobalName(info.Callee); ok && name == pseudoDefGlobal && len(info.Args) == 2 {
		nameConst, _ := iform.AsConst(info.Args[0])
		if err := g.gen(info.Args[1], false); err != nil {
			return err
		}
		idx := g.asm.addConst(nameConst)
		g.asm.emit(OpDefGlobal)
		g.asm.u16(uint16(idx))
		return nil
	}

	for _, arg := range info.Args {
		if err := g.gen(arg, false); err != nil {
			return err
		}
		g.asm.emit(OpPushAcc)
	}
	if err := g.gen(info.Callee, false); err != nil {
		return err
	}
	if tail {
		g.asm.emit(OpCallTail)
	} else {
		g.asm.emit(OpCall)
	}
	g.asm.u8(uint8(len(info.Args)))
	return nil
}

func calleeGlobalName(callee iform.Word) (string, bool) {
	nameWord, ok := iform.AsGRef(callee)
	if !ok {
		return "", false
	}
	return value.AsSymbol(nameWord)
}

func (g *generator) genAndOr(node iform.Word, tail bool) error {
	info, _ := iform.AsAndOr(node)
	if len(info.Exprs) == 0 {
		switch info.Op {
		case iform.AndOrAnd:
			idx := g.asm.addConst(value.True)
			g.asm.emit(OpConst)
			g.asm.u16(uint16(idx))
		default:
			return g.genNilConst()
		}
		return nil
	}

	var jumpOp Opcode
	switch info.Op {
	case iform.AndOrAnd:
		jumpOp = OpJumpIfFalse
	case iform.AndOrOr:
		jumpOp = OpJumpIfTrue
	case iform.AndOrMatchSuccess:
		jumpOp = OpJumpIfNotMatchFail
	}

	var patches []int
	for i, e := range info.Exprs {
		isLast := i == len(info.Exprs)-1
		if err := g.gen(e, isLast && tail); err != nil {
			return err
		}
		if isLast {
			break
		}
		g.asm.emit(jumpOp)
		patches = append(patches, g.asm.here())
		g.asm.i16(0)
	}
	end := g.asm.here()
	for _, p := range patches {
		g.asm.patchI16(p, int16(end-p-2))
	}
	return nil
}

func (g *generator) genTopLevelOnly(node iform.Word) error {
	return errf(node, "codegen: %s may only appear as a top-level form", iform.KindOf(node))
}
