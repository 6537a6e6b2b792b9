package expr

import (
	"strconv"
	"strings"
)

func ExprString(n *Node) string {
	return ExprStringLimit(n, 0)
}

// ExprStringLimit is the first limit bytes of ExprString(n), without rendering
// the rest of n. A limit of 0 or less renders all of n.
func ExprStringLimit(n *Node, limit int) string {
	ctx := &showContext{Builder: &strings.Builder{}, limit: limit}
	ctx.showExprWalker(n, 0)
	return ctx.String()
}

type showContext struct {
	*strings.Builder
	limit int
}

func (ctx *showContext) full() bool {
	return ctx.limit > 0 && ctx.Len() >= ctx.limit
}

func (ctx *showContext) write(s string) {
	if ctx.limit > 0 {
		s = s[:min(len(s), max(0, ctx.limit-ctx.Len()))]
	}
	ctx.WriteString(s)
}

// infix operators and their precedence, higher binds tighter
var infix = map[Kind]struct {
	op         string
	precedence int16
}{
	KindEq:      {" == ", 10},
	KindNe:      {" != ", 10},
	KindLe:      {" <= ", 10},
	KindLt:      {" < ", 10},
	KindSum:     {" + ", 20},
	KindProduct: {" * ", 30},
	KindDiv:     {" / ", 30},
	KindMod:     {" % ", 30},
}

func (ctx *showContext) showExprWalker(n *Node, outerPrecedence int16) {
	if ctx.full() {
		return
	}
	if n == nil {
		ctx.write("nil")
		return
	}
	switch n.kind {
	case KindVar:
		ctx.write(n.name)
	case KindVarArray:
		ctx.write(n.name + "[:" + strconv.Itoa(n.size) + "]")
	case KindConst:
		ctx.write(strconv.FormatInt(n.value, 10))
	case KindElement:
		ctx.write("[")
		ctx.showList(n.operands[1:])
		ctx.write("][")
		ctx.showExprWalker(n.operands[0], 0)
		ctx.write("]")
	default:
		if in, ok := infix[n.kind]; ok {
			if outerPrecedence >= in.precedence {
				ctx.write("(")
				defer ctx.write(")")
			}
			for i, op := range n.operands {
				if ctx.full() {
					return
				}
				if i > 0 {
					ctx.write(in.op)
				}
				ctx.showExprWalker(op, in.precedence)
			}
			return
		}
		ctx.write(n.kind.String())
		ctx.write("(")
		ctx.showList(n.operands)
		ctx.write(")")
	}
}

func (ctx *showContext) showList(nodes []*Node) {
	for i, op := range nodes {
		if ctx.full() {
			return
		}
		if i > 0 {
			ctx.write(", ")
		}
		ctx.showExprWalker(op, 0)
	}
}
