package vm

import (
	"fmt"

	"github.com/kristofer/navi/internal/compiler"
	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/value"
)

// NativeFunc is a Go-implemented primitive (spec §6, "Global registered
// symbols"), grounded on the teacher's built-in message handling in
// vm.send() (pkg/vm/primitives.go) but dispatched by name through the
// global table instead of a selector switch inside the interpreter loop.
type NativeFunc func(obj *object.Object, args []value.Word) (value.Word, error)

// registry is the process-global table of native implementations; a
// value.Native only ever carries an index into it (spec §3, "App ⊃
// Closure/Native").
var registry []NativeFunc

func register(name string, fn NativeFunc) {
	registry = append(registry, fn)
}

// RegisterGlobals installs every built-in special form keyword placeholder
// and numeric/container primitive into a freshly created actor's global
// table (spec §6, "Global registered symbols must exist in a fresh Object's
// global table"). Call once per Object, immediately after object.New.
func RegisterGlobals(obj *object.Object) error {
	for name, fn := range builtins {
		id := len(registry)
		register(name, fn)
		w, err := value.NewNative(obj, obj, id)
		if err != nil {
			return err
		}
		obj.DefineGlobal(name, w)
	}
	return nil
}

func callNative(obj *object.Object, id int, args []value.Word) (value.Word, error) {
	if id < 0 || id >= len(registry) {
		return 0, newExc(Other, "invalid native id %d", id)
	}
	return registry[id](obj, args)
}

func arityErr(name string, want, got int) error {
	return newExc(ArgTypeMismatch, "%s: expected %d argument(s), got %d", name, want, got)
}

func numArg(name string, args []value.Word, i int) (float64, error) {
	if i >= len(args) || !value.IsNumber(args[i]) {
		return 0, newExc(ArgTypeMismatch, "%s: argument %d must be a number", name, i)
	}
	f, _ := value.AsFloat(args[i])
	return f, nil
}

func numResult(obj *object.Object, anyReal bool, v float64) (value.Word, error) {
	if anyReal {
		return value.NewReal(obj, obj, v)
	}
	return value.Integer(int64(v)), nil
}

func allInts(args []value.Word) bool {
	for _, a := range args {
		if _, ok := value.AsReal(a); ok {
			return false
		}
	}
	return true
}

func arith(name string, identity float64, op func(acc, x float64) float64) NativeFunc {
	return func(obj *object.Object, args []value.Word) (value.Word, error) {
		acc := identity
		ints := allInts(args)
		for i := range args {
			x, err := numArg(name, args, i)
			if err != nil {
				return 0, err
			}
			if i == 0 && identity == 0 && name != "+" {
				acc = x
				continue
			}
			acc = op(acc, x)
		}
		return numResult(obj, !ints, acc)
	}
}

func cmp(name string, op func(a, b float64) bool) NativeFunc {
	return func(obj *object.Object, args []value.Word) (value.Word, error) {
		if len(args) < 2 {
			return 0, arityErr(name, 2, len(args))
		}
		for i := 0; i+1 < len(args); i++ {
			a, err := numArg(name, args, i)
			if err != nil {
				return 0, err
			}
			b, err := numArg(name, args, i+1)
			if err != nil {
				return 0, err
			}
			if !op(a, b) {
				return value.False, nil
			}
		}
		return value.True, nil
	}
}

var builtins = map[string]NativeFunc{
	"+": func(obj *object.Object, args []value.Word) (value.Word, error) {
		sum := 0.0
		for i := range args {
			x, err := numArg("+", args, i)
			if err != nil {
				return 0, err
			}
			sum += x
		}
		return numResult(obj, !allInts(args), sum)
	},
	"-": func(obj *object.Object, args []value.Word) (value.Word, error) {
		if len(args) == 0 {
			return 0, arityErr("-", 1, 0)
		}
		first, err := numArg("-", args, 0)
		if err != nil {
			return 0, err
		}
		if len(args) == 1 {
			return numResult(obj, !allInts(args), -first)
		}
		acc := first
		for i := 1; i < len(args); i++ {
			x, err := numArg("-", args, i)
			if err != nil {
				return 0, err
			}
			acc -= x
		}
		return numResult(obj, !allInts(args), acc)
	},
	"*": func(obj *object.Object, args []value.Word) (value.Word, error) {
		prod := 1.0
		for i := range args {
			x, err := numArg("*", args, i)
			if err != nil {
				return 0, err
			}
			prod *= x
		}
		return numResult(obj, !allInts(args), prod)
	},
	"/": func(obj *object.Object, args []value.Word) (value.Word, error) {
		if len(args) < 2 {
			return 0, arityErr("/", 2, len(args))
		}
		acc, err := numArg("/", args, 0)
		if err != nil {
			return 0, err
		}
		for i := 1; i < len(args); i++ {
			x, err := numArg("/", args, i)
			if err != nil {
				return 0, err
			}
			if x == 0 {
				return 0, newExc(Other, "/: division by zero")
			}
			acc /= x
		}
		return value.NewReal(obj, obj, acc)
	},
	"abs": func(obj *object.Object, args []value.Word) (value.Word, error) {
		if len(args) != 1 {
			return 0, arityErr("abs", 1, len(args))
		}
		x, err := numArg("abs", args, 0)
		if err != nil {
			return 0, err
		}
		if x < 0 {
			x = -x
		}
		return numResult(obj, !allInts(args), x)
	},
	"=":  eqNative,
	"<":  cmp("<", func(a, b float64) bool { return a < b }),
	">":  cmp(">", func(a, b float64) bool { return a > b }),
	"<=": cmp("<=", func(a, b float64) bool { return a <= b }),
	">=": cmp(">=", func(a, b float64) bool { return a >= b }),

	"print": func(obj *object.Object, args []value.Word) (value.Word, error) {
		for i, a := range args {
			if i > 0 {
				fmt.Print(" ")
			}
			fmt.Print(value.Print(a))
		}
		fmt.Println()
		return value.Unit, nil
	},

	"tuple": func(obj *object.Object, args []value.Word) (value.Word, error) {
		return value.NewTuple(obj, obj, args)
	},
	"array": func(obj *object.Object, args []value.Word) (value.Word, error) {
		return value.NewArray(obj, obj, args)
	},

	"send": func(obj *object.Object, args []value.Word) (value.Word, error) {
		if len(args) != 2 {
			return 0, arityErr("send", 2, len(args))
		}
		token, err := obj.Send(args[0], args[1])
		if err != nil {
			return 0, newExc(Other, "send: %v", err)
		}
		return value.NewReply(obj, obj, token)
	},
	"spawn": func(obj *object.Object, args []value.Word) (value.Word, error) {
		if len(args) != 0 {
			return 0, arityErr("spawn", 0, len(args))
		}
		ref, err := obj.Spawn()
		if err != nil {
			return 0, newExc(Other, "spawn: %v", err)
		}
		return ref, nil
	},
	// force peeks a Reply future's mailbox result without blocking (the VM
	// has no native-call suspension point to wait on; a caller that needs
	// the value is expected to read it through the accumulator's normal
	// resolveAcc path instead, which does suspend with WaitReply).
	"force": func(obj *object.Object, args []value.Word) (value.Word, error) {
		if len(args) != 1 {
			return 0, arityErr("force", 1, len(args))
		}
		info, ok := value.AsReply(args[0])
		if !ok {
			return args[0], nil
		}
		if info.Resolved {
			return info.Value, nil
		}
		if v, resolved := obj.CheckReplyToken(info.Token); resolved {
			value.ResolveReply(args[0], v)
			return v, nil
		}
		return args[0], nil
	},

	"tuple?":     typePredicate(value.AsTuple),
	"array?":     typePredicate(value.AsArray),
	"tuple-len":  lenNative("tuple-len", value.AsTuple),
	"array-len":  lenNative("array-len", value.AsArray),
	"tuple-ref":  refNative("tuple-ref", value.AsTuple),
	"array-ref":  refNative("array-ref", value.AsArray),
	"array-set!": arraySetNative,

	"apply":             applyNative,
	"compile":           compileNative,
	"compile-transform": compileTransformNative,

	"%def-global%":    defGlobalNative,
	"%match-test%":    matchTestNative,
	"%is-match-fail%": isMatchFailNative,
}

func eqNative(obj *object.Object, args []value.Word) (value.Word, error) {
	if len(args) < 2 {
		return 0, arityErr("=", 2, len(args))
	}
	for i := 1; i < len(args); i++ {
		if !value.Equal(args[0], args[i]) {
			return value.False, nil
		}
	}
	return value.True, nil
}

func typePredicate(as func(value.Word) ([]value.Word, bool)) NativeFunc {
	return func(obj *object.Object, args []value.Word) (value.Word, error) {
		if len(args) != 1 {
			return 0, arityErr("type predicate", 1, len(args))
		}
		_, ok := as(args[0])
		return value.Bool(ok), nil
	}
}

func lenNative(name string, as func(value.Word) ([]value.Word, bool)) NativeFunc {
	return func(obj *object.Object, args []value.Word) (value.Word, error) {
		if len(args) != 1 {
			return 0, arityErr(name, 1, len(args))
		}
		elems, ok := as(args[0])
		if !ok {
			return 0, newExc(ArgTypeMismatch, "%s: not a sequence", name)
		}
		return value.Integer(int64(len(elems))), nil
	}
}

func refNative(name string, as func(value.Word) ([]value.Word, bool)) NativeFunc {
	return func(obj *object.Object, args []value.Word) (value.Word, error) {
		if len(args) != 2 {
			return 0, arityErr(name, 2, len(args))
		}
		elems, ok := as(args[0])
		if !ok {
			return 0, newExc(ArgTypeMismatch, "%s: not a sequence", name)
		}
		idx := int(args[1].FixnumValue())
		if idx < 0 || idx >= len(elems) {
			return 0, newExcValue(OutOfBounds, args[0], "%s: index %d out of bounds", name, idx)
		}
		return elems[idx], nil
	}
}

func arraySetNative(obj *object.Object, args []value.Word) (value.Word, error) {
	if len(args) != 3 {
		return 0, arityErr("array-set!", 3, len(args))
	}
	idx := int(args[1].FixnumValue())
	if !value.ArraySet(args[0], idx, args[2]) {
		return 0, newExcValue(OutOfBounds, args[0], "array-set!: index %d out of bounds", idx)
	}
	return value.Unit, nil
}

// matchTestNative backs %match-test%, the pseudo-primitive
// compiler.transformMatch lowers each clause's test to. It returns either
// the match-fail sentinel or a Tuple of the pattern's bound values in
// compiler.patternVars order, so the caller's %match-result% binding can
// tuple-ref each bound name out without re-running MatchValue.
func matchTestNative(obj *object.Object, args []value.Word) (value.Word, error) {
	if len(args) != 2 {
		return 0, arityErr("%match-test%", 2, len(args))
	}
	bound, ok := MatchValue(args[0], args[1])
	if !ok {
		return value.MatchFail, nil
	}
	return value.NewTuple(obj, obj, bound)
}

func isMatchFailNative(obj *object.Object, args []value.Word) (value.Word, error) {
	if len(args) != 1 {
		return 0, arityErr("%is-match-fail%", 1, len(args))
	}
	return value.Bool(args[0] == value.MatchFail), nil
}

// defGlobalNative should never actually run: genCall (codegen.go) recognizes
// a Call whose callee GRef names %def-global% and compiles it straight to
// DEF-GLOBAL, never emitting a call through the global table. It is
// registered anyway so a malformed %def-global% call (wrong arity, reached
// some other way) fails with a clear error instead of UnboundVariable.
func defGlobalNative(obj *object.Object, args []value.Word) (value.Word, error) {
	return 0, newExc(Other, "%%def-global%%: must be compiled as DEF-GLOBAL, not called")
}

// applyNative backs `apply`, satisfying the algebraic law (apply f '(a1 ...
// an)) == (f a1 ... an) (spec §8) by unpacking args[1] (a List, Tuple, or
// Array of arguments) and invoking args[0] the same way OpCall would.
func applyNative(obj *object.Object, args []value.Word) (value.Word, error) {
	if len(args) != 2 {
		return 0, arityErr("apply", 2, len(args))
	}
	callArgs, ok := value.AsList(args[1])
	if !ok {
		callArgs, ok = value.AsTuple(args[1])
	}
	if !ok {
		callArgs, ok = value.AsArray(args[1])
	}
	if !ok {
		return 0, newExc(ArgTypeMismatch, "apply: second argument must be a list, tuple, or array")
	}

	if id, ok := value.AsNative(args[0]); ok {
		return callNative(obj, id, callArgs)
	}
	if _, ok := value.AsClosure(args[0]); ok {
		result, st, err := Call(obj, args[0], callArgs, Limit{})
		if st != nil {
			return 0, newExc(Other, "apply: callee suspended; apply cannot resume it")
		}
		return result, err
	}
	return 0, newExc(TypeMismatch, "apply: first argument is not callable")
}

// compileTransformNative backs `compile-transform`: pass 1 over a quoted
// form, returning the resulting IForm tree as an ordinary opaque value
// (iform.Word and value.Word share the same representation, spec §4.3) that
// `compile` or a later `compile-transform` can also operate on.
func compileTransformNative(obj *object.Object, args []value.Word) (value.Word, error) {
	if len(args) != 1 {
		return 0, arityErr("compile-transform", 1, len(args))
	}
	ctx := compiler.NewContext(obj)
	return compiler.Transform(ctx, args[0])
}

// compileNative backs `compile`: pass 2 over an IForm tree produced by
// compile-transform, yielding a zero-argument closure -- compile operates on
// a single already-lowered top-level expression, matching the law
// eval(compile(compile-transform(x))) == eval(x), where `eval` is calling
// the returned closure with no arguments.
func compileNative(obj *object.Object, args []value.Word) (value.Word, error) {
	if len(args) != 1 {
		return 0, arityErr("compile", 1, len(args))
	}
	code, err := compiler.CodeGen(obj, obj, args[0], 0, false)
	if err != nil {
		return 0, err
	}
	return value.NewClosure(obj, obj, code, 0, false, value.Nil)
}
