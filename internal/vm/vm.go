// Package vm implements navi's bytecode interpreter: a register machine
// with one accumulator, an environment chain, an argument-build stack, and a
// call-frame (continuation) stack (spec §4.5). Grounded on the teacher's
// dispatch-loop shape (pkg/vm/vm.go's `for ip := range instructions { switch
// inst.Op { ... } }`) adapted from smog's stack machine to navi's
// accumulator-plus-env design, and on pkg/vm/errors.go for the exception
// type this package generalizes into the full §7 taxonomy.
package vm

import (
	"encoding/binary"

	"github.com/kristofer/navi/internal/compiler"
	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/value"
)

// contFrame is one saved call site: the code, program counter, and
// environment a CALL (not CALL-TAIL) instruction will restore on RETURN
// (spec §4.5, "Cont").
type contFrame struct {
	code value.Word
	pc   int
	env  value.Word
}

// State is a suspended execution's resumable snapshot, produced whenever
// Execute or Resume stops on a WaitReply or TimeLimit exception (spec §4.5,
// "suspend info"). A later Resume call continues at the exact instruction.
type State struct {
	obj    *object.Object
	code   value.Word
	pc     int
	env    value.Word
	acc    value.Word
	astack []value.Word
	cont   []contFrame
}

// Limit bounds one Execute/Resume call's work (spec §4.5, "Execution
// budget"). Instructions <= 0 means unlimited.
type Limit struct {
	Instructions int64
}

// Switch signals that the running code hit object-switch/return-object-switch
// (spec §4.6, "Object-switch"). The caller (the scheduler's actor loop) is
// responsible for packaging the current Object and handing it to Target's
// mailbox; the VM itself never resolves ObjectRefs.
type Switch struct {
	Target value.Word
	Return bool
}

func (s *Switch) Error() string { return "object-switch requested" }

// Execute runs a freshly compiled Code object with the given arguments
// against obj (spec §4.5, "code_execute"). A non-nil *State return means
// execution suspended (err is a WaitReply or TimeLimit *Exception) and
// Resume should be called to continue.
func Execute(obj *object.Object, code value.Word, args []value.Word, limit Limit) (value.Word, *State, error) {
	info, ok := value.AsCode(code)
	if !ok {
		return 0, nil, newExc(TypeMismatch, "Execute: callee is not a Code object")
	}
	if err := checkArity(info.NumParams, info.Variadic, len(args)); err != nil {
		return 0, nil, err
	}
	env, err := value.NewEnvFrame(obj, obj, value.Nil, args)
	if err != nil {
		return 0, nil, err
	}
	st := &State{obj: obj, code: code, pc: 0, env: env, acc: value.Nil}
	return run(st, limit)
}

// Resume continues a previously suspended State (spec §4.5, "resume").
func Resume(st *State, limit Limit) (value.Word, *State, error) {
	return run(st, limit)
}

// Call invokes a closure value directly, the same way OpCall does internally
// (spec §4.5, "calling convention"): the new environment's parent is the
// closure's captured env, not Nil. Used by the mailbox to run a def-recv
// handler, which is a Closure rather than a bare Code object.
func Call(obj *object.Object, closure value.Word, args []value.Word, limit Limit) (value.Word, *State, error) {
	info, ok := value.AsClosure(closure)
	if !ok {
		return 0, nil, newExc(TypeMismatch, "Call: target is not callable")
	}
	if err := checkArity(info.NumParams, info.Variadic, len(args)); err != nil {
		return 0, nil, err
	}
	env, err := value.NewEnvFrame(obj, obj, info.Env, args)
	if err != nil {
		return 0, nil, err
	}
	st := &State{obj: obj, code: info.Code, pc: 0, env: env, acc: value.Nil}
	return run(st, limit)
}

func checkArity(numParams int, variadic bool, got int) error {
	if variadic {
		if got < numParams {
			return newExc(ArgTypeMismatch, "expected at least %d argument(s), got %d", numParams, got)
		}
		return nil
	}
	if got != numParams {
		return newExc(ArgTypeMismatch, "expected %d argument(s), got %d", numParams, got)
	}
	return nil
}

func readU16(b []byte, pc int) int { return int(binary.BigEndian.Uint16(b[pc:])) }
func readI16(b []byte, pc int) int { return int(int16(binary.BigEndian.Uint16(b[pc:]))) }

// resolveAcc implements the reply-check traversal (spec §4.5, "Reply
// handling"): whenever acc is about to participate as an operand, an
// unresolved Reply suspends the whole instruction instead of proceeding.
func resolveAcc(obj *object.Object, acc value.Word) (value.Word, *Exception) {
	info, ok := value.AsReply(acc)
	if !ok {
		return acc, nil
	}
	if info.Resolved {
		return info.Value, nil
	}
	if v, ok := obj.CheckReplyToken(info.Token); ok {
		value.ResolveReply(acc, v)
		return v, nil
	}
	return acc, &Exception{Kind: WaitReply, Message: "awaiting reply"}
}

// capturedRoots is the flattened GC-root snapshot captureState takes at the
// start of an instruction, plus the acc/env/code values and the astack/cont
// lengths at that moment: an instruction may overwrite a register, grow
// either stack (OpPushAcc, a non-tail OpCall) or shrink one (OpCall's
// argument pop, OpReturn) before syncState runs, and newly appended entries
// were allocated after any collection already happened, so they need no
// forwarding fixup.
type capturedRoots struct {
	roots     []*value.Word
	orig      [3]value.Word
	astackLen int
	contLen   int
}

// captureState roots every value currently live in st against a GC cycle
// that might run during the instruction about to execute (spec §4.1,
// "Cap"): the accumulator, the environment chain's head, the current Code,
// the pending operand stack, and every saved call frame's environment and
// code. Capture returns a pointer the collector updates in place when it
// moves the referent, so the roots must be copied back into st once the
// instruction finishes -- see syncState.
func captureState(obj *object.Object, st *State) capturedRoots {
	cr := capturedRoots{
		roots:     make([]*value.Word, 0, 3+len(st.astack)+2*len(st.cont)),
		orig:      [3]value.Word{st.acc, st.env, st.code},
		astackLen: len(st.astack),
		contLen:   len(st.cont),
	}
	cap := func(w value.Word) { cr.roots = append(cr.roots, obj.Capture(w)) }
	cap(st.acc)
	cap(st.env)
	cap(st.code)
	for _, w := range st.astack {
		cap(w)
	}
	for _, f := range st.cont {
		cap(f.env)
		cap(f.code)
	}
	return cr
}

// syncState copies each root's (possibly GC-forwarded) current value back
// into st, undoing the flattening captureState performed, then releases the
// capture roots in the LIFO order Object.Release requires. acc/env/code are
// synced only if the instruction left them as captured (a register it
// overwrote keeps its new value). Only the astack/cont entries that existed
// at capture time and are still present are synced; anything an instruction
// appended since is left as-is.
func syncState(obj *object.Object, st *State, cr capturedRoots) {
	roots := cr.roots
	i := 0
	next := func() value.Word { w := *roots[i]; i++; return w }
	for k, f := range []*value.Word{&st.acc, &st.env, &st.code} {
		if w := next(); *f == cr.orig[k] {
			*f = w
		}
	}
	for j := 0; j < cr.astackLen && j < len(st.astack); j++ {
		st.astack[j] = next()
	}
	i = 3 + cr.astackLen
	for j := 0; j < cr.contLen && j < len(st.cont); j++ {
		st.cont[j].env = next()
		st.cont[j].code = next()
	}
	for k := len(roots) - 1; k >= 0; k-- {
		obj.Release(roots[k])
	}
}

func run(st *State, limit Limit) (value.Word, *State, error) {
	obj := st.obj
	budget := limit.Instructions

	for {
		if limit.Instructions > 0 {
			if budget <= 0 {
				return 0, st, &Exception{Kind: TimeLimit, Message: "instruction budget exhausted"}
			}
			budget--
		}

		codeInfo, ok := value.AsCode(st.code)
		if !ok {
			return 0, nil, newExc(TypeMismatch, "current code register is not a Code object")
		}
		instr := codeInfo.Instructions
		if st.pc >= len(instr) {
			return st.acc, nil, nil
		}

		op := compiler.Opcode(instr[st.pc])
		pc := st.pc + 1

		roots := captureState(obj, st)
		var exc *Exception

		switch op {
		case compiler.OpConst:
			idx := readU16(instr, pc)
			pc += 2
			st.acc = codeInfo.Constants[idx]

		case compiler.OpLRef:
			frame := int(instr[pc])
			index := int(instr[pc+1])
			pc += 2
			env := st.env
			for i := 0; i < frame; i++ {
				env = value.EnvUp(env)
			}
			st.acc = value.EnvSlot(env, index)

		case compiler.OpGRef:
			idx := readU16(instr, pc)
			pc += 2
			name, _ := value.AsSymbol(codeInfo.Constants[idx])
			w, found := obj.LookupGlobal(name)
			if !found {
				exc = newExc(UnboundVariable, "unbound variable %q", name)
				break
			}
			st.acc = w

		case compiler.OpDefGlobal:
			idx := readU16(instr, pc)
			pc += 2
			name, _ := value.AsSymbol(codeInfo.Constants[idx])
			if st.acc, exc = resolveAccExc(obj, st.acc); exc == nil {
				obj.DefineGlobal(name, st.acc)
			}

		case compiler.OpJump:
			off := readI16(instr, pc)
			pc += 2
			pc += off

		case compiler.OpJumpIfFalse:
			off := readI16(instr, pc)
			pc += 2
			var v value.Word
			if v, exc = resolveAccExc(obj, st.acc); exc == nil {
				st.acc = v
				if v == value.False {
					pc += off
				}
			}

		case compiler.OpJumpIfTrue:
			off := readI16(instr, pc)
			pc += 2
			var v value.Word
			if v, exc = resolveAccExc(obj, st.acc); exc == nil {
				st.acc = v
				if v != value.False {
					pc += off
				}
			}

		case compiler.OpJumpIfMatchFail:
			off := readI16(instr, pc)
			pc += 2
			if st.acc == value.MatchFail {
				pc += off
			}

		case compiler.OpJumpIfNotMatchFail:
			off := readI16(instr, pc)
			pc += 2
			if st.acc != value.MatchFail {
				pc += off
			}

		case compiler.OpPushEnv:
			n := readU16(instr, pc)
			pc += 2
			slots := make([]value.Word, n)
			for i := range slots {
				slots[i] = value.Nil
			}
			newEnv, err := value.NewEnvFrame(obj, obj, st.env, slots)
			if err != nil {
				syncState(obj, st, roots)
				return 0, nil, err
			}
			st.env = newEnv

		case compiler.OpPopEnv:
			st.env = value.EnvUp(st.env)

		case compiler.OpSetLocal:
			idx := int(instr[pc])
			pc++
			var v value.Word
			if v, exc = resolveAccExc(obj, st.acc); exc == nil {
				st.acc = v
				value.SetEnvSlot(st.env, idx, v)
			}

		case compiler.OpPushAcc:
			var v value.Word
			if v, exc = resolveAccExc(obj, st.acc); exc == nil {
				st.acc = v
				st.astack = append(st.astack, v)
			}

		case compiler.OpMakeClosure:
			idx := readU16(instr, pc)
			pc += 2
			codeWord := codeInfo.Constants[idx]
			bodyInfo, _ := value.AsCode(codeWord)
			closure, err := value.NewClosure(obj, obj, codeWord, bodyInfo.NumParams, bodyInfo.Variadic, st.env)
			if err != nil {
				syncState(obj, st, roots)
				return 0, nil, err
			}
			st.acc = closure

		case compiler.OpCall, compiler.OpCallTail:
			numArgs := int(instr[pc])
			pc++
			tail := op == compiler.OpCallTail
			var v value.Word
			if v, exc = resolveAccExc(obj, st.acc); exc != nil {
				break
			}
			callee := v
			n := len(st.astack)
			args := append([]value.Word(nil), st.astack[n-numArgs:]...)
			st.astack = st.astack[:n-numArgs]

			if nid, ok := value.AsNative(callee); ok {
				result, err := callNative(obj, nid, args)
				if err != nil {
					syncState(obj, st, roots)
					if e, ok := err.(*Exception); ok {
						return 0, nil, e
					}
					return 0, nil, newExc(Other, "%s", err.Error())
				}
				st.acc = result
				break
			}

			closureInfo, ok := value.AsClosure(callee)
			if !ok {
				exc = newExcValue(TypeMismatch, callee, "call target is not callable")
				break
			}
			if err := checkArity(closureInfo.NumParams, closureInfo.Variadic, len(args)); err != nil {
				syncState(obj, st, roots)
				return 0, nil, err
			}
			newEnv, err := value.NewEnvFrame(obj, obj, closureInfo.Env, args)
			if err != nil {
				syncState(obj, st, roots)
				return 0, nil, err
			}
			if !tail {
				st.cont = append(st.cont, contFrame{code: st.code, pc: pc, env: st.env})
			}
			st.code = closureInfo.Code
			st.env = newEnv
			pc = 0

		case compiler.OpReturn:
			if len(st.cont) == 0 {
				syncState(obj, st, roots)
				st.pc = pc
				return st.acc, nil, nil
			}
			top := st.cont[len(st.cont)-1]
			st.cont = st.cont[:len(st.cont)-1]
			st.code, st.env, pc = top.code, top.env, top.pc

		case compiler.OpObjectSwitch, compiler.OpReturnObjectSwitch:
			syncState(obj, st, roots)
			return 0, nil, &Switch{Target: st.acc, Return: op == compiler.OpReturnObjectSwitch}

		default:
			exc = newExc(Other, "unimplemented opcode %s", op)
		}

		syncState(obj, st, roots)

		if exc != nil {
			if exc.Resumable() {
				// st.pc is still the instruction that asked for the reply/budget;
				// Resume re-enters it unchanged.
				return 0, st, exc
			}
			exc.StackTrace = append(exc.StackTrace, StackFrame{PC: st.pc})
			return 0, nil, exc
		}

		st.pc = pc
	}
}

func resolveAccExc(obj *object.Object, acc value.Word) (value.Word, *Exception) {
	return resolveAcc(obj, acc)
}
