// Package iform implements the compiler's intermediate form: pass 1 lowers
// S-expressions into IForm trees that have already resolved every lexical
// and global reference and propagated tail-call position; pass 2 (package
// compiler) walks an IForm tree to emit bytecode (spec §4.3, "Compiler pass
// 1"). Every IForm variant is, like every other navi datum, a first-class
// heap value with its own TypeInfo -- grounded on original_source
// src/value/iform.rs, whose variant names this package's Kind constants and
// layouts mirror.
package iform

import (
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/value"
)

// Word is the shared heap-value handle type.
type Word = value.Word

// Kind discriminates an IForm node's variant.
type Kind int

const (
	KindConst Kind = iota
	KindLRef
	KindGRef
	KindLet
	KindIf
	KindLocal
	KindFun
	KindSeq
	KindCall
	KindAndOr
	KindDefRecv
	KindObjectSwitch
)

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "Const"
	case KindLRef:
		return "LRef"
	case KindGRef:
		return "GRef"
	case KindLet:
		return "Let"
	case KindIf:
		return "If"
	case KindLocal:
		return "Local"
	case KindFun:
		return "Fun"
	case KindSeq:
		return "Seq"
	case KindCall:
		return "Call"
	case KindAndOr:
		return "AndOr"
	case KindDefRecv:
		return "DefRecv"
	case KindObjectSwitch:
		return "ObjectSwitch"
	default:
		return "Unknown"
	}
}

// AndOrKind distinguishes And/Or/MatchSuccess, the three short-circuit forms
// that share IFormAndOr's layout in the original (src/value/iform.rs).
type AndOrKind int

const (
	AndOrAnd AndOrKind = iota
	AndOrOr
	AndOrMatchSuccess
)

// header is embedded (logically, not physically -- Go has no common heap
// supertype) at the front of every IForm layout: every node carries whether
// it sits in tail position, decided once during pass 1 and consulted by
// pass 2 to choose CALL vs CALL-TAIL (spec §4.3 "tail positions").
type header struct {
	kind Kind
	tail bool
}

// --- Const --------------------------------------------------------------

type constLayout struct {
	header
	value Word
}

var ConstTypeInfo = &heap.TypeInfo{
	Name: "IForm.Const",
	Size: func(obj unsafe.Pointer) uintptr { return unsafe.Sizeof(constLayout{}) },
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		visit(&(*constLayout)(obj).value)
	},
}

// NewConst wraps a literal datum as a tail-neutral IForm leaf.
func NewConst(alloc heap.Allocator, roots heap.RootSet, v Word, tail bool) (Word, error) {
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(constLayout{}), ConstTypeInfo)
	if err != nil {
		return 0, err
	}
	l := (*constLayout)(objPtr)
	l.kind, l.tail, l.value = KindConst, tail, v
	return w, nil
}

// AsConst reads back a Const node's literal value.
func AsConst(w Word) (Word, bool) {
	if value.TypeOf(w) != ConstTypeInfo {
		return 0, false
	}
	return (*constLayout)(unsafe.Pointer(w.Address())).value, true
}

// --- LRef (lexical reference) --------------------------------------------

type lrefLayout struct {
	header
	frame int32
	index int32
}

var LRefTypeInfo = &heap.TypeInfo{
	Name: "IForm.LRef",
	Size: func(obj unsafe.Pointer) uintptr { return unsafe.Sizeof(lrefLayout{}) },
}

// NewLRef references a variable bound frame levels up the lexical frame
// stack, at the given slot index (spec §4.3, "lookup_localvar").
func NewLRef(alloc heap.Allocator, roots heap.RootSet, frame, index int, tail bool) (Word, error) {
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(lrefLayout{}), LRefTypeInfo)
	if err != nil {
		return 0, err
	}
	l := (*lrefLayout)(objPtr)
	l.kind, l.tail, l.frame, l.index = KindLRef, tail, int32(frame), int32(index)
	return w, nil
}

// LRefInfo is the decoded view of an LRef node.
type LRefInfo struct{ Frame, Index int }

// AsLRef reads back an LRef node.
func AsLRef(w Word) (LRefInfo, bool) {
	if value.TypeOf(w) != LRefTypeInfo {
		return LRefInfo{}, false
	}
	l := (*lrefLayout)(unsafe.Pointer(w.Address()))
	return LRefInfo{Frame: int(l.frame), Index: int(l.index)}, true
}

// --- GRef (global reference) ---------------------------------------------

type grefLayout struct {
	header
	name Word // Symbol
}

var GRefTypeInfo = &heap.TypeInfo{
	Name: "IForm.GRef",
	Size: func(obj unsafe.Pointer) uintptr { return unsafe.Sizeof(grefLayout{}) },
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		visit(&(*grefLayout)(obj).name)
	},
}

// NewGRef references a name resolved only at run time through the actor's
// global table (spec §4.3, "GRef").
func NewGRef(alloc heap.Allocator, roots heap.RootSet, name Word, tail bool) (Word, error) {
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(grefLayout{}), GRefTypeInfo)
	if err != nil {
		return 0, err
	}
	l := (*grefLayout)(objPtr)
	l.kind, l.tail, l.name = KindGRef, tail, name
	return w, nil
}

// AsGRef reads back a GRef node's target name.
func AsGRef(w Word) (Word, bool) {
	if value.TypeOf(w) != GRefTypeInfo {
		return 0, false
	}
	return (*grefLayout)(unsafe.Pointer(w.Address())).name, true
}

// --- Let ------------------------------------------------------------------

type letLayout struct {
	header
	numBindings int32
	body        Word
}

func letBindingSlot(obj unsafe.Pointer, i int) *Word {
	return (*Word)(unsafe.Add(obj, int(unsafe.Sizeof(letLayout{}))+i*int(unsafe.Sizeof(Word(0)))))
}

var LetTypeInfo = &heap.TypeInfo{
	Name: "IForm.Let",
	Size: func(obj unsafe.Pointer) uintptr {
		l := (*letLayout)(obj)
		return unsafe.Sizeof(letLayout{}) + uintptr(l.numBindings)*unsafe.Sizeof(Word(0))
	},
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		l := (*letLayout)(obj)
		for i := 0; i < int(l.numBindings); i++ {
			visit(letBindingSlot(obj, i))
		}
		visit(&l.body)
	},
}

// NewLet builds a Let node: each bindings[i] is itself an IForm whose value
// becomes local slot i. The bindings are evaluated in the enclosing scope
// before the new frame is pushed, so the slots are visible to body only, not
// to the other bindings (spec §4.3, "let").
func NewLet(alloc heap.Allocator, roots heap.RootSet, bindings []Word, body Word, tail bool) (Word, error) {
	n := uintptr(len(bindings))
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(letLayout{})+n*unsafe.Sizeof(Word(0)), LetTypeInfo)
	if err != nil {
		return 0, err
	}
	l := (*letLayout)(objPtr)
	l.kind, l.tail, l.numBindings, l.body = KindLet, tail, int32(n), body
	for i, b := range bindings {
		*letBindingSlot(objPtr, i) = b
	}
	return w, nil
}

// LetInfo is the decoded view of a Let node.
type LetInfo struct {
	Bindings []Word
	Body     Word
}

// AsLet reads back a Let node.
func AsLet(w Word) (LetInfo, bool) {
	if value.TypeOf(w) != LetTypeInfo {
		return LetInfo{}, false
	}
	objPtr := unsafe.Pointer(w.Address())
	l := (*letLayout)(objPtr)
	bindings := make([]Word, l.numBindings)
	for i := range bindings {
		bindings[i] = *letBindingSlot(objPtr, i)
	}
	return LetInfo{Bindings: bindings, Body: l.body}, true
}

// --- If ---------------------------------------------------------------

type ifLayout struct {
	header
	test, then, els Word
}

var IfTypeInfo = &heap.TypeInfo{
	Name: "IForm.If",
	Size: func(obj unsafe.Pointer) uintptr { return unsafe.Sizeof(ifLayout{}) },
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		l := (*ifLayout)(obj)
		visit(&l.test)
		visit(&l.then)
		visit(&l.els)
	},
}

// NewIf builds a conditional node; test is never itself in tail position.
func NewIf(alloc heap.Allocator, roots heap.RootSet, test, then, els Word, tail bool) (Word, error) {
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(ifLayout{}), IfTypeInfo)
	if err != nil {
		return 0, err
	}
	l := (*ifLayout)(objPtr)
	l.kind, l.tail, l.test, l.then, l.els = KindIf, tail, test, then, els
	return w, nil
}

// IfInfo is the decoded view of an If node.
type IfInfo struct{ Test, Then, Else Word }

// AsIf reads back an If node.
func AsIf(w Word) (IfInfo, bool) {
	if value.TypeOf(w) != IfTypeInfo {
		return IfInfo{}, false
	}
	l := (*ifLayout)(unsafe.Pointer(w.Address()))
	return IfInfo{Test: l.test, Then: l.then, Else: l.els}, true
}

// --- Local (non-tail-calling local variable definition block) ----------

type localLayout = letLayout

// LocalTypeInfo describes `local`, which like `let` introduces bindings
// visible to a body but (per spec §4.3) additionally permits forward
// self/mutual reference among the bindings themselves -- the distinction
// pass 1 cares about, not something that changes this node's shape.
var LocalTypeInfo = &heap.TypeInfo{
	Name:         "IForm.Local",
	Size:         LetTypeInfo.Size,
	ForEachChild: LetTypeInfo.ForEachChild,
}

// NewLocal builds a Local node (spec §4.3, "local").
func NewLocal(alloc heap.Allocator, roots heap.RootSet, bindings []Word, body Word, tail bool) (Word, error) {
	n := uintptr(len(bindings))
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(localLayout{})+n*unsafe.Sizeof(Word(0)), LocalTypeInfo)
	if err != nil {
		return 0, err
	}
	l := (*localLayout)(objPtr)
	l.kind, l.tail, l.numBindings, l.body = KindLocal, tail, int32(n), body
	for i, b := range bindings {
		*letBindingSlot(objPtr, i) = b
	}
	return w, nil
}

// AsLocal reads back a Local node.
func AsLocal(w Word) (LetInfo, bool) {
	if value.TypeOf(w) != LocalTypeInfo {
		return LetInfo{}, false
	}
	objPtr := unsafe.Pointer(w.Address())
	l := (*localLayout)(objPtr)
	bindings := make([]Word, l.numBindings)
	for i := range bindings {
		bindings[i] = *letBindingSlot(objPtr, i)
	}
	return LetInfo{Bindings: bindings, Body: l.body}, true
}

// --- Fun (lambda) --------------------------------------------------------

type funLayout struct {
	header
	numParams   int32
	variadic    bool
	numFreeVars int32
	body        Word
}

func funFreeVarSlot(obj unsafe.Pointer, i int) *Word {
	return (*Word)(unsafe.Add(obj, int(unsafe.Sizeof(funLayout{}))+i*int(unsafe.Sizeof(Word(0)))))
}

var FunTypeInfo = &heap.TypeInfo{
	Name: "IForm.Fun",
	Size: func(obj unsafe.Pointer) uintptr {
		l := (*funLayout)(obj)
		return unsafe.Sizeof(funLayout{}) + uintptr(l.numFreeVars)*unsafe.Sizeof(Word(0))
	},
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		l := (*funLayout)(obj)
		for i := 0; i < int(l.numFreeVars); i++ {
			visit(funFreeVarSlot(obj, i))
		}
		visit(&l.body)
	},
}

// NewFun builds a lambda node. freeVars names every outer-frame LRef this
// body closes over; it is stored on the node, but pass 2 does not read it:
// MAKE-CLOSURE captures the whole enclosing environment (spec §4.3 "Fun").
func NewFun(alloc heap.Allocator, roots heap.RootSet, numParams int, variadic bool, freeVars []Word, body Word) (Word, error) {
	n := uintptr(len(freeVars))
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(funLayout{})+n*unsafe.Sizeof(Word(0)), FunTypeInfo)
	if err != nil {
		return 0, err
	}
	l := (*funLayout)(objPtr)
	l.kind, l.tail = KindFun, false
	l.numParams, l.variadic, l.numFreeVars, l.body = int32(numParams), variadic, int32(n), body
	for i, fv := range freeVars {
		*funFreeVarSlot(objPtr, i) = fv
	}
	return w, nil
}

// FunInfo is the decoded view of a Fun node.
type FunInfo struct {
	NumParams int
	Variadic  bool
	FreeVars  []Word
	Body      Word
}

// AsFun reads back a Fun node.
func AsFun(w Word) (FunInfo, bool) {
	if value.TypeOf(w) != FunTypeInfo {
		return FunInfo{}, false
	}
	objPtr := unsafe.Pointer(w.Address())
	l := (*funLayout)(objPtr)
	freeVars := make([]Word, l.numFreeVars)
	for i := range freeVars {
		freeVars[i] = *funFreeVarSlot(objPtr, i)
	}
	return FunInfo{NumParams: int(l.numParams), Variadic: l.variadic, FreeVars: freeVars, Body: l.body}, true
}

// --- Seq (begin) -----------------------------------------------------------

type seqLayout struct {
	header
	numExprs int32
}

func seqExprSlot(obj unsafe.Pointer, i int) *Word {
	return (*Word)(unsafe.Add(obj, int(unsafe.Sizeof(seqLayout{}))+i*int(unsafe.Sizeof(Word(0)))))
}

var SeqTypeInfo = &heap.TypeInfo{
	Name: "IForm.Seq",
	Size: func(obj unsafe.Pointer) uintptr {
		l := (*seqLayout)(obj)
		return unsafe.Sizeof(seqLayout{}) + uintptr(l.numExprs)*unsafe.Sizeof(Word(0))
	},
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		l := (*seqLayout)(obj)
		for i := 0; i < int(l.numExprs); i++ {
			visit(seqExprSlot(obj, i))
		}
	},
}

// NewSeq builds a `begin`-style sequence; only the last expression may be in
// tail position (spec §4.3, "Seq").
func NewSeq(alloc heap.Allocator, roots heap.RootSet, exprs []Word, tail bool) (Word, error) {
	n := uintptr(len(exprs))
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(seqLayout{})+n*unsafe.Sizeof(Word(0)), SeqTypeInfo)
	if err != nil {
		return 0, err
	}
	l := (*seqLayout)(objPtr)
	l.kind, l.tail, l.numExprs = KindSeq, tail, int32(n)
	for i, e := range exprs {
		*seqExprSlot(objPtr, i) = e
	}
	return w, nil
}

// AsSeq reads back a Seq node's expressions.
func AsSeq(w Word) ([]Word, bool) {
	if value.TypeOf(w) != SeqTypeInfo {
		return nil, false
	}
	objPtr := unsafe.Pointer(w.Address())
	l := (*seqLayout)(objPtr)
	out := make([]Word, l.numExprs)
	for i := range out {
		out[i] = *seqExprSlot(objPtr, i)
	}
	return out, true
}

// --- Call -----------------------------------------------------------------

type callLayout struct {
	header
	callee  Word
	numArgs int32
}

func callArgSlot(obj unsafe.Pointer, i int) *Word {
	return (*Word)(unsafe.Add(obj, int(unsafe.Sizeof(callLayout{}))+i*int(unsafe.Sizeof(Word(0)))))
}

var CallTypeInfo = &heap.TypeInfo{
	Name: "IForm.Call",
	Size: func(obj unsafe.Pointer) uintptr {
		l := (*callLayout)(obj)
		return unsafe.Sizeof(callLayout{}) + uintptr(l.numArgs)*unsafe.Sizeof(Word(0))
	},
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		l := (*callLayout)(obj)
		visit(&l.callee)
		for i := 0; i < int(l.numArgs); i++ {
			visit(callArgSlot(obj, i))
		}
	},
}

// NewCall builds a procedure call/application node. tail marks whether this
// call may be compiled as CALL-TAIL (spec §4.4, "call-prepare/call-tail").
func NewCall(alloc heap.Allocator, roots heap.RootSet, callee Word, args []Word, tail bool) (Word, error) {
	n := uintptr(len(args))
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(callLayout{})+n*unsafe.Sizeof(Word(0)), CallTypeInfo)
	if err != nil {
		return 0, err
	}
	l := (*callLayout)(objPtr)
	l.kind, l.tail, l.callee, l.numArgs = KindCall, tail, callee, int32(n)
	for i, a := range args {
		*callArgSlot(objPtr, i) = a
	}
	return w, nil
}

// CallInfo is the decoded view of a Call node.
type CallInfo struct {
	Callee Word
	Args   []Word
}

// AsCall reads back a Call node.
func AsCall(w Word) (CallInfo, bool) {
	if value.TypeOf(w) != CallTypeInfo {
		return CallInfo{}, false
	}
	objPtr := unsafe.Pointer(w.Address())
	l := (*callLayout)(objPtr)
	args := make([]Word, l.numArgs)
	for i := range args {
		args[i] = *callArgSlot(objPtr, i)
	}
	return CallInfo{Callee: l.callee, Args: args}, true
}

// --- AndOr (and / or / match-success) -------------------------------------

type andOrLayout struct {
	header
	op       AndOrKind
	numExprs int32
}

func andOrExprSlot(obj unsafe.Pointer, i int) *Word {
	return (*Word)(unsafe.Add(obj, int(unsafe.Sizeof(andOrLayout{}))+i*int(unsafe.Sizeof(Word(0)))))
}

var AndOrTypeInfo = &heap.TypeInfo{
	Name: "IForm.AndOr",
	Size: func(obj unsafe.Pointer) uintptr {
		l := (*andOrLayout)(obj)
		return unsafe.Sizeof(andOrLayout{}) + uintptr(l.numExprs)*unsafe.Sizeof(Word(0))
	},
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		l := (*andOrLayout)(obj)
		for i := 0; i < int(l.numExprs); i++ {
			visit(andOrExprSlot(obj, i))
		}
	},
}

// NewAndOr builds an And/Or/MatchSuccess short-circuit node (spec §4.3,
// "and", "or"; §4.5 "MATCH-SUCCESS").
func NewAndOr(alloc heap.Allocator, roots heap.RootSet, op AndOrKind, exprs []Word, tail bool) (Word, error) {
	n := uintptr(len(exprs))
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(andOrLayout{})+n*unsafe.Sizeof(Word(0)), AndOrTypeInfo)
	if err != nil {
		return 0, err
	}
	l := (*andOrLayout)(objPtr)
	l.kind, l.tail, l.op, l.numExprs = KindAndOr, tail, op, int32(n)
	for i, e := range exprs {
		*andOrExprSlot(objPtr, i) = e
	}
	return w, nil
}

// AndOrInfo is the decoded view of an AndOr node.
type AndOrInfo struct {
	Op    AndOrKind
	Exprs []Word
}

// AsAndOr reads back an AndOr node.
func AsAndOr(w Word) (AndOrInfo, bool) {
	if value.TypeOf(w) != AndOrTypeInfo {
		return AndOrInfo{}, false
	}
	objPtr := unsafe.Pointer(w.Address())
	l := (*andOrLayout)(objPtr)
	exprs := make([]Word, l.numExprs)
	for i := range exprs {
		exprs[i] = *andOrExprSlot(objPtr, i)
	}
	return AndOrInfo{Op: l.op, Exprs: exprs}, true
}

// --- DefRecv ---------------------------------------------------------------

type defRecvLayout struct {
	header
	pattern Word
	body    Word
}

var DefRecvTypeInfo = &heap.TypeInfo{
	Name: "IForm.DefRecv",
	Size: func(obj unsafe.Pointer) uintptr { return unsafe.Sizeof(defRecvLayout{}) },
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		l := (*defRecvLayout)(obj)
		visit(&l.pattern)
		visit(&l.body)
	},
}

// NewDefRecv builds a def-recv clause registration node (spec §4.3,
// "DefRecv").
func NewDefRecv(alloc heap.Allocator, roots heap.RootSet, pattern, body Word) (Word, error) {
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(defRecvLayout{}), DefRecvTypeInfo)
	if err != nil {
		return 0, err
	}
	l := (*defRecvLayout)(objPtr)
	l.kind, l.tail, l.pattern, l.body = KindDefRecv, false, pattern, body
	return w, nil
}

// DefRecvInfo is the decoded view of a DefRecv node.
type DefRecvInfo struct{ Pattern, Body Word }

// AsDefRecv reads back a DefRecv node.
func AsDefRecv(w Word) (DefRecvInfo, bool) {
	if value.TypeOf(w) != DefRecvTypeInfo {
		return DefRecvInfo{}, false
	}
	l := (*defRecvLayout)(unsafe.Pointer(w.Address()))
	return DefRecvInfo{Pattern: l.pattern, Body: l.body}, true
}

// --- ObjectSwitch ----------------------------------------------------------

type objectSwitchLayout struct {
	header
	target Word
	isTail bool
}

var ObjectSwitchTypeInfo = &heap.TypeInfo{
	Name: "IForm.ObjectSwitch",
	Size: func(obj unsafe.Pointer) uintptr { return unsafe.Sizeof(objectSwitchLayout{}) },
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		visit(&(*objectSwitchLayout)(obj).target)
	},
}

// NewObjectSwitch builds an actor-handoff node: target evaluates to the
// ObjectRef (or equivalent) the enclosing actor transfers its continuation
// to (spec §4.3 "ObjectSwitch"; §4.6 "return-object-switch").
func NewObjectSwitch(alloc heap.Allocator, roots heap.RootSet, target Word, isTail bool) (Word, error) {
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(objectSwitchLayout{}), ObjectSwitchTypeInfo)
	if err != nil {
		return 0, err
	}
	l := (*objectSwitchLayout)(objPtr)
	l.kind, l.tail, l.target, l.isTail = KindObjectSwitch, true, target, isTail
	return w, nil
}

// AsObjectSwitch reads back an ObjectSwitch node's target.
func AsObjectSwitch(w Word) (Word, bool) {
	if value.TypeOf(w) != ObjectSwitchTypeInfo {
		return 0, false
	}
	return (*objectSwitchLayout)(unsafe.Pointer(w.Address())).target, true
}

// KindOf returns the IForm Kind of any node built by this package, or -1 if
// w isn't one.
func KindOf(w Word) Kind {
	ti := value.TypeOf(w)
	switch ti {
	case ConstTypeInfo:
		return KindConst
	case LRefTypeInfo:
		return KindLRef
	case GRefTypeInfo:
		return KindGRef
	case LetTypeInfo:
		return KindLet
	case IfTypeInfo:
		return KindIf
	case LocalTypeInfo:
		return KindLocal
	case FunTypeInfo:
		return KindFun
	case SeqTypeInfo:
		return KindSeq
	case CallTypeInfo:
		return KindCall
	case AndOrTypeInfo:
		return KindAndOr
	case DefRecvTypeInfo:
		return KindDefRecv
	case ObjectSwitchTypeInfo:
		return KindObjectSwitch
	default:
		return -1
	}
}

// IsTail reports the tail-position flag pass 1 assigned to an IForm node.
func IsTail(w Word) bool {
	if !isIForm(w) {
		return false
	}
	return (*header)(unsafe.Pointer(w.Address())).tail
}

func isIForm(w Word) bool { return KindOf(w) != -1 }
