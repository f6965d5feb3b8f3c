package compiler

import (
	"strings"

	"github.com/kristofer/navi/internal/iform"
	"github.com/kristofer/navi/internal/value"
)

// Internal pseudo-global names pass 1 emits for effects/control-flow the
// IForm table has no dedicated node for (spec §4.3's "let-global", "match",
// "fail-catch"). Pass 2 special-cases only %def-global%, compiling it to
// DEF-GLOBAL; %match-test% and %is-match-fail% stay ordinary CALLs to
// natives the VM registers. Keeping them as ordinary Call/GRef nodes lets
// every other pass 1 rule (tail position, free-variable discovery) apply
// uniformly.
const (
	pseudoDefGlobal   = "%def-global%"
	pseudoMatchTest   = "%match-test%"
	pseudoIsMatchFail = "%is-match-fail%"
)

// Transform lowers a single top-level S-expression into an IForm tree.
func Transform(ctx *Context, form value.Word) (iform.Word, error) {
	return transform(ctx, form, true)
}

func transform(ctx *Context, form value.Word, tail bool) (iform.Word, error) {
	if sym, ok := value.AsSymbol(form); ok {
		return transformSymbol(ctx, form, sym, tail)
	}
	if elems, ok := value.AsList(form); ok {
		if len(elems) == 0 {
			return iform.NewConst(ctx.alloc(), ctx.roots(), value.Nil, tail)
		}
		return transformList(ctx, form, elems, tail)
	}
	if elems, ok := value.AsTuple(form); ok {
		return transformSeqLiteral(ctx, elems, "tuple", tail)
	}
	if elems, ok := value.AsArray(form); ok {
		return transformSeqLiteral(ctx, elems, "array", tail)
	}
	// Every other atom (Integer, Real, String, Keyword, true/false/nil/unit,
	// char) is self-evaluating (spec §4.3, "Const").
	return iform.NewConst(ctx.alloc(), ctx.roots(), form, tail)
}

// transformSeqLiteral lowers a {…}/[…] literal in source position to a Call
// of the tuple/array primitive over each lowered element expression (spec
// §4.3, "tuple/array literals ... lower to Call of the tuple/array
// primitives over the lowered element expressions"). The reader already
// hands each element back as an independent unevaluated form -- a Symbol, a
// nested list/tuple/array, whatever was written -- so a literal containing
// a variable or call expression (`(let x 5) {x 10}`) captures x's evaluated
// value, not the raw Symbol. A quoted literal never reaches here:
// transformQuote emits Const(arg) straight from the reader's already
// self-contained Tuple/Array datum, per `quote`'s own lowering rule.
func transformSeqLiteral(ctx *Context, elems []value.Word, primitive string, tail bool) (iform.Word, error) {
	args := make([]iform.Word, len(elems))
	for i, e := range elems {
		w, err := transform(ctx, e, false)
		if err != nil {
			return 0, err
		}
		args[i] = w
	}
	callee, err := refPseudo(ctx, primitive)
	if err != nil {
		return 0, err
	}
	return iform.NewCall(ctx.alloc(), ctx.roots(), callee, args, tail)
}

func transformSymbol(ctx *Context, form value.Word, name string, tail bool) (iform.Word, error) {
	if dist, idx, ok := ctx.lookupLocal(name); ok {
		return iform.NewLRef(ctx.alloc(), ctx.roots(), dist, idx, tail)
	}
	sym, err := value.NewSymbol(ctx.alloc(), ctx.roots(), name)
	if err != nil {
		return 0, err
	}
	return iform.NewGRef(ctx.alloc(), ctx.roots(), sym, tail)
}

func transformList(ctx *Context, form value.Word, elems []value.Word, tail bool) (iform.Word, error) {
	if head, ok := value.AsSymbol(elems[0]); ok {
		switch head {
		case "quote":
			return transformQuote(ctx, form, elems, tail)
		case "if":
			return transformIf(ctx, form, elems, tail)
		case "cond":
			return transformCond(ctx, form, elems[1:], tail)
		case "begin":
			return transformBegin(ctx, elems[1:], tail)
		case "fun":
			return transformFun(ctx, form, elems)
		case "let":
			return transformLet(ctx, form, elems, tail)
		case "local":
			return transformLocal(ctx, form, elems, tail)
		case "let-global":
			return transformLetGlobal(ctx, form, elems, tail)
		case "and":
			return transformAndOr(ctx, elems[1:], iform.AndOrAnd, tail)
		case "or":
			return transformAndOr(ctx, elems[1:], iform.AndOrOr, tail)
		case "def-recv":
			return transformDefRecv(ctx, form, elems)
		case "match":
			return transformMatch(ctx, form, elems, tail)
		case "fail-catch":
			return transformFailCatch(ctx, form, elems, tail)
		case "object-switch":
			return transformObjectSwitch(ctx, form, elems, false)
		case "return-object-switch":
			return transformObjectSwitch(ctx, form, elems, true)
		}
	}
	return transformCall(ctx, elems, tail)
}

func transformQuote(ctx *Context, form value.Word, elems []value.Word, tail bool) (iform.Word, error) {
	if len(elems) != 2 {
		return 0, errf(form, "quote takes exactly one datum")
	}
	return iform.NewConst(ctx.alloc(), ctx.roots(), elems[1], tail)
}

func transformIf(ctx *Context, form value.Word, elems []value.Word, tail bool) (iform.Word, error) {
	if len(elems) != 3 && len(elems) != 4 {
		return 0, errf(form, "if takes (if test then [else])")
	}
	test, err := transform(ctx, elems[1], false)
	if err != nil {
		return 0, err
	}
	then, err := transform(ctx, elems[2], tail)
	if err != nil {
		return 0, err
	}
	els := value.Word(value.Unit)
	elsForm, err := iform.NewConst(ctx.alloc(), ctx.roots(), els, tail)
	if err != nil {
		return 0, err
	}
	if len(elems) == 4 {
		elsForm, err = transform(ctx, elems[3], tail)
		if err != nil {
			return 0, err
		}
	}
	return iform.NewIf(ctx.alloc(), ctx.roots(), test, then, elsForm, tail)
}

// transformCond lowers `cond` into a sequential If chain: each clause's test
// gates its own body, falling through to the next clause on failure; a
// final `(else ...)` clause lowers its body unconditionally; an empty cond
// lowers to Const(false) (spec §4.3, "cond").
func transformCond(ctx *Context, form value.Word, clauses []value.Word, tail bool) (iform.Word, error) {
	if len(clauses) == 0 {
		return iform.NewConst(ctx.alloc(), ctx.roots(), value.False, tail)
	}
	clauseElems, ok := value.AsList(clauses[0])
	if !ok || len(clauseElems) < 1 {
		return 0, errf(form, "malformed cond clause")
	}
	if sym, ok := value.AsSymbol(clauseElems[0]); ok && sym == "else" {
		if len(clauses) != 1 {
			return 0, errf(form, "cond: else clause must be last")
		}
		return transformBegin(ctx, clauseElems[1:], tail)
	}
	test, err := transform(ctx, clauseElems[0], false)
	if err != nil {
		return 0, err
	}
	then, err := transformBegin(ctx, clauseElems[1:], tail)
	if err != nil {
		return 0, err
	}
	rest, err := transformCond(ctx, form, clauses[1:], tail)
	if err != nil {
		return 0, err
	}
	return iform.NewIf(ctx.alloc(), ctx.roots(), test, then, rest, tail)
}

func transformBegin(ctx *Context, body []value.Word, tail bool) (iform.Word, error) {
	exprs := make([]iform.Word, len(body))
	for i, e := range body {
		isLast := i == len(body)-1
		w, err := transform(ctx, e, isLast && tail)
		if err != nil {
			return 0, err
		}
		exprs[i] = w
	}
	return iform.NewSeq(ctx.alloc(), ctx.roots(), exprs, tail)
}

// paramNames extracts the fixed/variadic parameter list from a fun's formal
// list: a proper list `(a b c)` for a fixed arity, or a dotted tail encoded
// here as the reader would emit it -- a trailing symbol after a `&rest`
// marker, mirroring Scheme-family conventions the original's fun/1/2
// overloads generalize (original_source src/compile.rs, syntax_fun).
func paramNames(formals value.Word) (names []string, variadic bool, ok bool) {
	elems, ok := value.AsList(formals)
	if !ok {
		return nil, false, false
	}
	for i, e := range elems {
		sym, ok := value.AsSymbol(e)
		if !ok {
			return nil, false, false
		}
		if sym == "&rest" {
			if i+2 != len(elems) {
				return nil, false, false
			}
			restName, ok := value.AsSymbol(elems[i+1])
			if !ok {
				return nil, false, false
			}
			names = append(names, restName)
			return names, true, true
		}
		names = append(names, sym)
	}
	return names, false, true
}

func transformFun(ctx *Context, form value.Word, elems []value.Word) (iform.Word, error) {
	if len(elems) < 3 {
		return 0, errf(form, "fun takes (fun (params...) body...)")
	}
	names, variadic, ok := paramNames(elems[1])
	if !ok {
		return 0, errf(form, "malformed parameter list in fun")
	}
	ctx.pushFrame(names)
	body, err := buildScopedBody(ctx, elems[2:], true, false)
	if err != nil {
		ctx.popFrame()
		return 0, err
	}
	ctx.popFrame()

	freeVars := collectFreeVars(body, 0)
	return iform.NewFun(ctx.alloc(), ctx.roots(), len(names), variadic, freeVars, body)
}

// collectFreeVars walks a compiled body collecting every LRef that escapes
// the new frame (depth >= frameDepth relative to where Fun introduces its
// own frame). The list is stored on the Fun node; pass 2's genFun does not
// read it, since MAKE-CLOSURE captures the whole enclosing environment.
func collectFreeVars(node iform.Word, frameDepth int) []iform.Word {
	var out []iform.Word
	var walk func(n iform.Word, depth int)
	seen := map[iform.Word]bool{}
	walk = func(n iform.Word, depth int) {
		switch iform.KindOf(n) {
		case iform.KindLRef:
			info, _ := iform.AsLRef(n)
			if info.Frame >= depth {
				if !seen[n] {
					seen[n] = true
					out = append(out, n)
				}
			}
		case iform.KindConst, iform.KindGRef, iform.KindDefRecv, iform.KindObjectSwitch:
		case iform.KindLet:
			info, _ := iform.AsLet(n)
			for _, b := range info.Bindings {
				walk(b, depth)
			}
			walk(info.Body, depth+1)
		case iform.KindLocal:
			info, _ := iform.AsLocal(n)
			for _, b := range info.Bindings {
				walk(b, depth+1)
			}
			walk(info.Body, depth+1)
		case iform.KindIf:
			info, _ := iform.AsIf(n)
			walk(info.Test, depth)
			walk(info.Then, depth)
			walk(info.Else, depth)
		case iform.KindFun:
			info, _ := iform.AsFun(n)
			walk(info.Body, depth+1)
		case iform.KindSeq:
			exprs, _ := iform.AsSeq(n)
			for _, e := range exprs {
				walk(e, depth)
			}
		case iform.KindCall:
			info, _ := iform.AsCall(n)
			walk(info.Callee, depth)
			for _, a := range info.Args {
				walk(a, depth)
			}
		case iform.KindAndOr:
			info, _ := iform.AsAndOr(n)
			for _, e := range info.Exprs {
				walk(e, depth)
			}
		}
	}
	walk(node, frameDepth+1)
	return out
}

// scanLeadingLets splits a fun/local body into its leading run of
// `(let name expr)` forms -- sequential internal defines (spec §3, "let:
// must be at toplevel context; adds the binding to the current frame") --
// and the remaining forms. Only a contiguous leading run is recognized; a
// `let` appearing after a non-let statement falls through to transformLet,
// which rejects it (see buildScopedBody's doc comment for why).
func scanLeadingLets(body []value.Word) (names []string, initForms []value.Word, rest []value.Word) {
	i := 0
	for ; i < len(body); i++ {
		elems, ok := value.AsList(body[i])
		if !ok || len(elems) != 3 {
			break
		}
		head, ok := value.AsSymbol(elems[0])
		if !ok || head != "let" {
			break
		}
		name, ok := value.AsSymbol(elems[1])
		if !ok {
			break
		}
		names = append(names, name)
		initForms = append(initForms, elems[2])
	}
	return names, initForms, body[i:]
}

// buildScopedBody compiles a fun/local body, recognizing a leading run of
// internal `let`s as a single Local frame wrapping the remaining (non-let)
// forms -- the bindings see each other and themselves, exactly like
// `local`'s own mutual-recursion rule, so a leading `(let fact (fun (n) ...
// (fact ...) ...))` can call itself. forceFrame requests the Local wrapper
// even with zero leading lets, matching `local`'s unconditional
// PUSH-EMPTY-ENV/POP-ENV (spec §4.4, "Local"); an ordinary fun body with no
// internal lets passes forceFrame=false so it isn't saddled with an empty
// runtime frame.
//
// Only the leading run is treated as internal defines -- a `let` appearing
// after some other statement in the same body is a non-toplevel use
// transformLet rejects, a scoping restriction this implementation accepts
// rather than generalizing to arbitrary mid-body internal defines (see
// DESIGN.md).
func buildScopedBody(ctx *Context, body []value.Word, tail bool, forceFrame bool) (iform.Word, error) {
	names, initForms, rest := scanLeadingLets(body)
	if len(names) == 0 && !forceFrame {
		return transformBegin(ctx, rest, tail)
	}

	ctx.pushFrame(names)
	bindings := make([]iform.Word, len(initForms))
	for i, f := range initForms {
		w, err := transform(ctx, f, false)
		if err != nil {
			ctx.popFrame()
			return 0, err
		}
		bindings[i] = w
	}
	restBody, err := transformBegin(ctx, rest, tail)
	if err != nil {
		ctx.popFrame()
		return 0, err
	}
	ctx.popFrame()
	return iform.NewLocal(ctx.alloc(), ctx.roots(), bindings, restBody, tail)
}

// buildGlobalDef lowers a global definition to a Call of the internal
// %def-global% pseudo-primitive, which pass 2 special-cases directly into
// DEF-GLOBAL (spec §4.4, "Let: emit value; if toplevel or force_global, emit
// DEF-GLOBAL ... otherwise DEF-LOCAL"). Shared by top-level `let` (global by
// virtue of there being no enclosing frame at all) and `let-global`
// (force_global, regardless of context).
func buildGlobalDef(ctx *Context, name string, valueForm iform.Word, tail bool) (iform.Word, error) {
	nameSym, err := value.NewSymbol(ctx.alloc(), ctx.roots(), name)
	if err != nil {
		return 0, err
	}
	nameConst, err := iform.NewConst(ctx.alloc(), ctx.roots(), nameSym, false)
	if err != nil {
		return 0, err
	}
	callee, err := refPseudo(ctx, pseudoDefGlobal)
	if err != nil {
		return 0, err
	}
	return iform.NewCall(ctx.alloc(), ctx.roots(), callee, []iform.Word{nameConst, valueForm}, tail)
}

// transformLet lowers a plain `let`: spec's IForm table gives it exactly two
// fields plus a flag -- `{symbol, value, force_global}` -- not a Scheme-style
// bindings-list-plus-body. A top-level `(let name expr)` defines a global
// (spec §8 scenario 1: `(let fib (fun (n) ...)) (fib 10)`, two separate
// top-level forms, no body at all). Reaching this function with a frame
// already open means the let wasn't consumed by scanLeadingLets as part of
// a fun/local body's leading run of internal defines -- see
// buildScopedBody's doc comment for why that's the only form of internal
// define this implementation supports.
func transformLet(ctx *Context, form value.Word, elems []value.Word, tail bool) (iform.Word, error) {
	if len(elems) != 3 {
		return 0, errf(form, "let takes (let name expr)")
	}
	name, ok := value.AsSymbol(elems[1])
	if !ok {
		return 0, errf(form, "let binding name must be a symbol")
	}
	if ctx.hasFrame() {
		return 0, errf(form, "let: internal defines must be the leading statements of a fun/local body")
	}
	valueForm, err := transform(ctx, elems[2], false)
	if err != nil {
		return 0, err
	}
	return buildGlobalDef(ctx, name, valueForm, tail)
}

// transformLocal lowers `local`: a scope opened over a sequence of forms,
// not a form that owns its own bindings-list (spec §3/§8 scenario 2: `(local
// (let a 100) (let b 200) (+ (local (let a b) (+ a 10)) a))`). Its leading
// `let`s become the new frame's bindings via buildScopedBody.
func transformLocal(ctx *Context, form value.Word, elems []value.Word, tail bool) (iform.Word, error) {
	if len(elems) < 2 {
		return 0, errf(form, "local takes (local form...)")
	}
	return buildScopedBody(ctx, elems[1:], tail, true)
}

func transformLetGlobal(ctx *Context, form value.Word, elems []value.Word, tail bool) (iform.Word, error) {
	if len(elems) != 3 {
		return 0, errf(form, "let-global takes (let-global name expr)")
	}
	name, ok := value.AsSymbol(elems[1])
	if !ok {
		return 0, errf(form, "let-global name must be a symbol")
	}
	valueForm, err := transform(ctx, elems[2], false)
	if err != nil {
		return 0, err
	}
	return buildGlobalDef(ctx, name, valueForm, tail)
}

func transformAndOr(ctx *Context, body []value.Word, op iform.AndOrKind, tail bool) (iform.Word, error) {
	exprs := make([]iform.Word, len(body))
	for i, e := range body {
		isLast := i == len(body)-1
		w, err := transform(ctx, e, isLast && tail)
		if err != nil {
			return 0, err
		}
		exprs[i] = w
	}
	return iform.NewAndOr(ctx.alloc(), ctx.roots(), op, exprs, tail)
}

// patternVars returns every name a def-recv/match pattern binds, in
// left-to-right depth-first order -- the same order vm.MatchValue walks the
// pattern in, so its returned bound-value slice lines up positionally with
// these names. `_` (with or without the `@` the spec's pattern DSL marks a
// bind site with, e.g. `@_`) binds nothing; every other symbol, `@`-prefixed
// or bare, binds the value at that position (spec §8 scenario 4: `({@a @_
// [@b @_]} (+ a b))`). Tuple/Array/List patterns recurse element-wise.
func patternVars(pattern value.Word) []string {
	var out []string
	var walk func(p value.Word)
	walk = func(p value.Word) {
		if sym, ok := value.AsSymbol(p); ok {
			if name := strings.TrimPrefix(sym, "@"); name != "_" {
				out = append(out, name)
			}
			return
		}
		if t, ok := value.AsTuple(p); ok {
			for _, e := range t {
				walk(e)
			}
			return
		}
		if a, ok := value.AsArray(p); ok {
			for _, e := range a {
				walk(e)
			}
			return
		}
		if l, ok := value.AsList(p); ok {
			for _, e := range l {
				walk(e)
			}
		}
	}
	walk(pattern)
	return out
}

func transformDefRecv(ctx *Context, form value.Word, elems []value.Word) (iform.Word, error) {
	if len(elems) < 3 {
		return 0, errf(form, "def-recv takes (def-recv pattern body...)")
	}
	names := patternVars(elems[1])
	ctx.pushFrame(names)
	body, err := buildScopedBody(ctx, elems[2:], true, false)
	ctx.popFrame()
	if err != nil {
		return 0, err
	}
	patternConst, err := iform.NewConst(ctx.alloc(), ctx.roots(), elems[1], false)
	if err != nil {
		return 0, err
	}
	fun, err := iform.NewFun(ctx.alloc(), ctx.roots(), len(names), false, collectFreeVars(body, 0), body)
	if err != nil {
		return 0, err
	}
	return iform.NewDefRecv(ctx.alloc(), ctx.roots(), patternConst, fun)
}

// transformMatch lowers (match expr (pattern result)...) into a chain of
// If tests against a single evaluation of expr, falling through to the
// match-fail sentinel when no clause matches (spec §4.3 "match"). Each
// clause's pattern variables are bound into a runtime frame populated from
// %match-test%'s result, so a clause whose pattern binds variables (spec §8
// scenario 4) can reference them from its result forms; see
// buildMatchClauses.
func transformMatch(ctx *Context, form value.Word, elems []value.Word, tail bool) (iform.Word, error) {
	if len(elems) < 2 {
		return 0, errf(form, "match takes (match expr clause...)")
	}
	subject, err := transform(ctx, elems[1], false)
	if err != nil {
		return 0, err
	}
	ctx.pushFrame([]string{"%match-subject%"})
	defer ctx.popFrame()

	result, err := buildMatchClauses(ctx, form, elems[2:], tail)
	if err != nil {
		return 0, err
	}
	return iform.NewLet(ctx.alloc(), ctx.roots(), []iform.Word{subject}, result, tail)
}

// buildMatchClauses compiles one match clause and its fallthrough chain.
// %match-test% returns either the match-fail sentinel or a Tuple of the
// pattern's bound values in patternVars order (vm.MatchValue, primitives.go
// matchTestNative); that result is bound once into %match-result% so both
// the fail check and each bound name's tuple-ref can see it without
// re-running the test.
func buildMatchClauses(ctx *Context, form value.Word, clauses []value.Word, tail bool) (iform.Word, error) {
	if len(clauses) == 0 {
		return iform.NewConst(ctx.alloc(), ctx.roots(), value.MatchFail, tail)
	}
	clause, ok := value.AsList(clauses[0])
	if !ok || len(clause) < 2 {
		return 0, errf(form, "malformed match clause")
	}
	pattern := clause[0]

	patternConst, err := iform.NewConst(ctx.alloc(), ctx.roots(), pattern, false)
	if err != nil {
		return 0, err
	}
	subjectRef, err := transformSymbol(ctx, form, "%match-subject%", false)
	if err != nil {
		return 0, err
	}
	testCallee, err := refPseudo(ctx, pseudoMatchTest)
	if err != nil {
		return 0, err
	}
	testCall, err := iform.NewCall(ctx.alloc(), ctx.roots(), testCallee, []iform.Word{patternConst, subjectRef}, false)
	if err != nil {
		return 0, err
	}

	ctx.pushFrame([]string{"%match-result%"})
	defer ctx.popFrame()

	resultRef, err := transformSymbol(ctx, form, "%match-result%", false)
	if err != nil {
		return 0, err
	}
	isFailCallee, err := refPseudo(ctx, pseudoIsMatchFail)
	if err != nil {
		return 0, err
	}
	failTest, err := iform.NewCall(ctx.alloc(), ctx.roots(), isFailCallee, []iform.Word{resultRef}, false)
	if err != nil {
		return 0, err
	}

	rest, err := buildMatchClauses(ctx, form, clauses[1:], tail)
	if err != nil {
		return 0, err
	}

	matched, err := buildMatchBody(ctx, form, patternVars(pattern), clause[1:], tail)
	if err != nil {
		return 0, err
	}

	ifNode, err := iform.NewIf(ctx.alloc(), ctx.roots(), failTest, rest, matched, tail)
	if err != nil {
		return 0, err
	}
	return iform.NewLet(ctx.alloc(), ctx.roots(), []iform.Word{testCall}, ifNode, tail)
}

// buildMatchBody binds a matched clause's pattern variables -- one tuple-ref
// into %match-result% per name, in pattern order -- into a fresh frame and
// compiles the clause's result forms against it.
func buildMatchBody(ctx *Context, form value.Word, names []string, body []value.Word, tail bool) (iform.Word, error) {
	ctx.pushFrame(names)
	defer ctx.popFrame()

	tupleRefCallee, err := refPseudo(ctx, "tuple-ref")
	if err != nil {
		return 0, err
	}
	resultRef, err := transformSymbol(ctx, form, "%match-result%", false)
	if err != nil {
		return 0, err
	}
	bindings := make([]iform.Word, len(names))
	for i := range names {
		idxConst, err := iform.NewConst(ctx.alloc(), ctx.roots(), value.Integer(int64(i)), false)
		if err != nil {
			return 0, err
		}
		refCall, err := iform.NewCall(ctx.alloc(), ctx.roots(), tupleRefCallee, []iform.Word{resultRef, idxConst}, false)
		if err != nil {
			return 0, err
		}
		bindings[i] = refCall
	}
	resultBody, err := transformBegin(ctx, body, tail)
	if err != nil {
		return 0, err
	}
	return iform.NewLocal(ctx.alloc(), ctx.roots(), bindings, resultBody, tail)
}

func refPseudo(ctx *Context, name string) (iform.Word, error) {
	sym, err := value.NewSymbol(ctx.alloc(), ctx.roots(), name)
	if err != nil {
		return 0, err
	}
	return iform.NewGRef(ctx.alloc(), ctx.roots(), sym, false)
}

func transformFailCatch(ctx *Context, form value.Word, elems []value.Word, tail bool) (iform.Word, error) {
	if len(elems) != 3 {
		return 0, errf(form, "fail-catch takes (fail-catch body handler)")
	}
	body, err := transform(ctx, elems[1], false)
	if err != nil {
		return 0, err
	}
	ctx.pushFrame([]string{"%fail-catch-result%"})
	defer ctx.popFrame()

	// The handler runs inside the Let's frame, so its local references are
	// resolved with that frame open.
	handler, err := transform(ctx, elems[2], tail)
	if err != nil {
		return 0, err
	}
	resultRef, err := transformSymbol(ctx, form, "%fail-catch-result%", false)
	if err != nil {
		return 0, err
	}
	isFailCallee, err := refPseudo(ctx, pseudoIsMatchFail)
	if err != nil {
		return 0, err
	}
	test, err := iform.NewCall(ctx.alloc(), ctx.roots(), isFailCallee, []iform.Word{resultRef}, false)
	if err != nil {
		return 0, err
	}
	ifNode, err := iform.NewIf(ctx.alloc(), ctx.roots(), test, handler, resultRef, tail)
	if err != nil {
		return 0, err
	}
	return iform.NewLet(ctx.alloc(), ctx.roots(), []iform.Word{body}, ifNode, tail)
}

func transformObjectSwitch(ctx *Context, form value.Word, elems []value.Word, isReturn bool) (iform.Word, error) {
	if len(elems) != 2 {
		return 0, errf(form, "object-switch takes exactly one target")
	}
	target, err := transform(ctx, elems[1], false)
	if err != nil {
		return 0, err
	}
	return iform.NewObjectSwitch(ctx.alloc(), ctx.roots(), target, isReturn)
}

func transformCall(ctx *Context, elems []value.Word, tail bool) (iform.Word, error) {
	callee, err := transform(ctx, elems[0], false)
	if err != nil {
		return 0, err
	}
	args := make([]iform.Word, len(elems)-1)
	for i, a := range elems[1:] {
		w, err := transform(ctx, a, false)
		if err != nil {
			return 0, err
		}
		args[i] = w
	}
	return iform.NewCall(ctx.alloc(), ctx.roots(), callee, args, tail)
}
