package compiler

import (
	"github.com/kristofer/navi/internal/iform"
	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/value"
)

// CompileProgram transforms and code-generates a whole sequence of top-level
// forms against obj (spec §4.2 "Program"; §4.6 "def-recv"). Each top-level
// def-recv clause is compiled into its own Code object, wrapped as a
// closure over the empty environment, and registered directly on obj via
// AddReceiver; every other top-level form is folded into one Seq and
// compiled as obj's entry-point Code object.
func CompileProgram(obj *object.Object, forms []value.Word) (value.Word, error) {
	ctx := NewContext(obj)

	var body []iform.Word
	for _, form := range forms {
		node, err := Transform(ctx, form)
		if err != nil {
			return 0, err
		}
		if iform.KindOf(node) == iform.KindDefRecv {
			if err := registerDefRecv(ctx, obj, node); err != nil {
				return 0, err
			}
			continue
		}
		body = append(body, node)
	}

	seq, err := iform.NewSeq(ctx.alloc(), ctx.roots(), body, true)
	if err != nil {
		return 0, err
	}
	return CodeGen(ctx.alloc(), ctx.roots(), seq, 0, false)
}

func registerDefRecv(ctx *Context, obj *object.Object, node iform.Word) error {
	info, _ := iform.AsDefRecv(node)
	patternWord, _ := iform.AsConst(info.Pattern)
	funInfo, _ := iform.AsFun(info.Body)

	codeWord, err := CodeGen(ctx.alloc(), ctx.roots(), funInfo.Body, funInfo.NumParams, funInfo.Variadic)
	if err != nil {
		return err
	}
	closure, err := value.NewClosure(obj, obj, codeWord, funInfo.NumParams, funInfo.Variadic, value.Nil)
	if err != nil {
		return err
	}
	obj.AddReceiver(patternWord, closure)
	return nil
}
