package value

import (
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
)

// codeLayout is the compiled output of pass 2: a flat bytecode instruction
// stream plus its deduplicated constant pool, laid out inline after the
// header the same way Tuple/Array store their elements (spec §4.4,
// "bytecode + constant pool").
type codeLayout struct {
	numInstr  int32
	numConsts int32
	numParams int32
	variadic  bool
}

const codeHeaderSize = unsafe.Sizeof(codeLayout{})

func codeInstrBase(obj unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(obj, int(codeHeaderSize))
}

func codeConstBase(obj unsafe.Pointer, numInstr int) unsafe.Pointer {
	instrEnd := int(codeHeaderSize) + numInstr
	aligned := (instrEnd + int(unsafe.Sizeof(Word(0))) - 1) / int(unsafe.Sizeof(Word(0))) * int(unsafe.Sizeof(Word(0)))
	return unsafe.Add(obj, aligned)
}

func codeSize(obj unsafe.Pointer) uintptr {
	layout := (*codeLayout)(obj)
	base := codeConstBase(obj, int(layout.numInstr))
	end := unsafe.Add(base, int(layout.numConsts)*int(unsafe.Sizeof(Word(0))))
	return uintptr(end) - uintptr(obj)
}

// CodeTypeInfo describes a compiled procedure body (spec §4.4).
var CodeTypeInfo = &heap.TypeInfo{
	Name: "Code",
	Size: codeSize,
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		layout := (*codeLayout)(obj)
		base := codeConstBase(obj, int(layout.numInstr))
		for i := 0; i < int(layout.numConsts); i++ {
			visit((*Word)(unsafe.Add(base, i*int(unsafe.Sizeof(Word(0))))))
		}
	},
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		layout := (*codeLayout)(obj)
		instr, consts := decodeCode(obj)
		cloned := make([]Word, len(consts))
		for i, c := range consts {
			cw, err := deepCloneOne(c, dst)
			if err != nil {
				return 0, err
			}
			cloned[i] = cw
		}
		return NewCode(dst, nil, instr, cloned, int(layout.numParams), layout.variadic)
	},
}

func decodeCode(obj unsafe.Pointer) (instr []byte, consts []Word) {
	layout := (*codeLayout)(obj)
	instrBase := codeInstrBase(obj)
	instr = append(instr, unsafe.Slice((*byte)(instrBase), int(layout.numInstr))...)
	constBase := codeConstBase(obj, int(layout.numInstr))
	for i := 0; i < int(layout.numConsts); i++ {
		consts = append(consts, *(*Word)(unsafe.Add(constBase, i*int(unsafe.Sizeof(Word(0))))))
	}
	return instr, consts
}

// NewCode allocates a Code object from an assembled instruction stream and
// constant pool (built by internal/compiler's pass 2).
func NewCode(alloc heap.Allocator, roots heap.RootSet, instr []byte, consts []Word, numParams int, variadic bool) (Word, error) {
	instrEnd := int(codeHeaderSize) + len(instr)
	constOff := (instrEnd + int(unsafe.Sizeof(Word(0))) - 1) / int(unsafe.Sizeof(Word(0))) * int(unsafe.Sizeof(Word(0)))
	total := uintptr(constOff) + uintptr(len(consts))*unsafe.Sizeof(Word(0))

	objPtr, w, err := alloc.AllocBytes(roots, total, CodeTypeInfo)
	if err != nil {
		return 0, err
	}
	layout := (*codeLayout)(objPtr)
	layout.numInstr = int32(len(instr))
	layout.numConsts = int32(len(consts))
	layout.numParams = int32(numParams)
	layout.variadic = variadic

	instrBase := codeInstrBase(objPtr)
	copy(unsafe.Slice((*byte)(instrBase), len(instr)), instr)

	constBase := codeConstBase(objPtr, len(instr))
	for i, c := range consts {
		*(*Word)(unsafe.Add(constBase, i*int(unsafe.Sizeof(Word(0))))) = c
	}
	return w, nil
}

// CodeInfo is the decoded view of a Code object returned by AsCode.
type CodeInfo struct {
	Instructions []byte
	Constants    []Word
	NumParams    int
	Variadic     bool
}

// AsCode reads back a Code object's instruction stream and constant pool.
func AsCode(w Word) (CodeInfo, bool) {
	if TypeOf(w) != CodeTypeInfo {
		return CodeInfo{}, false
	}
	objPtr := unsafe.Pointer(w.Address())
	layout := (*codeLayout)(objPtr)
	instr, consts := decodeCode(objPtr)
	return CodeInfo{
		Instructions: instr,
		Constants:    consts,
		NumParams:    int(layout.numParams),
		Variadic:     layout.variadic,
	}, true
}
