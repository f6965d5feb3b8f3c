package compiler

// Opcode is a single bytecode instruction's tag byte, grounded on the
// teacher's Opcode enum (pkg/bytecode/bytecode.go) but targeting navi's
// register-ish VM (accumulator, env chain, call stack) instead of smog's
// stack machine (spec §4.4).
type Opcode byte

const (
	OpConst             Opcode = iota // u16 constIdx -> acc = constants[constIdx]
	OpLRef                            // u8 frame, u8 index -> acc = env chain lookup
	OpGRef                            // u16 constIdx (Symbol) -> acc = global lookup
	OpDefGlobal                       // u16 constIdx (Symbol) -> globals[name] = acc
	OpJump                            // i16 offset
	OpJumpIfFalse                     // i16 offset
	OpJumpIfTrue                      // i16 offset
	OpJumpIfMatchFail                 // i16 offset
	OpJumpIfNotMatchFail              // i16 offset
	OpPushEnv                         // u16 nslots
	OpPopEnv                          //
	OpSetLocal                        // u8 index -> frame.slots[index] = acc
	OpPushAcc                         // push acc onto the arg-build stack
	OpMakeClosure                     // u16 codeConstIdx -> acc = closure(code, env=current env)
	OpCall                            // u8 numArgs
	OpCallTail                        // u8 numArgs
	OpReturn                          //
	OpObjectSwitch                    //
	OpReturnObjectSwitch              //
)

func (op Opcode) String() string {
	names := [...]string{
		"CONST", "LREF", "GREF", "DEFGLOBAL", "JUMP", "JUMP_IF_FALSE",
		"JUMP_IF_TRUE", "JUMP_IF_MATCHFAIL", "JUMP_IF_NOT_MATCHFAIL",
		"PUSH_ENV", "POP_ENV", "SET_LOCAL", "PUSH_ACC", "MAKE_CLOSURE",
		"CALL", "CALL_TAIL", "RETURN", "OBJECT_SWITCH", "RETURN_OBJECT_SWITCH",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "UNKNOWN"
}
