package expr

import (
	"github.com/cottand/tally/internal/log"
)

var simplifyLogger = log.DefaultLogger.With("section", "expr.simplify")

// Simplify rewrites n bottom-up: constants are folded, nested operators of
// the same associative kind are flattened into n, and relations between
// syntactically equal operands are decided.
//
// Simplify is idempotent. The result is either n itself, possibly rewritten
// in place, or a different node (typically an operand of n, or a constant)
// that replaces it.
func (n *Node) Simplify() (res *Node) {
	if n.simplified {
		return n
	}
	for i, op := range n.operands {
		n.operands[i] = op.Simplify()
	}
	res = n.simplify()
	n.simplified = true
	n.hashed = false
	// res is either n, or an already simplified node that may be shared, and must not be written to
	if res != n {
		simplifyLogger.Debug("rewrote expression", "kind", n.kind, "result", res)
	}
	return res
}

func (n *Node) simplify() *Node {
	switch n.kind {
	case KindVar, KindVarArray, KindConst:
		return n

	case KindSum:
		ops, consts := flatten(n.kind, n.operands)
		var acc int64
		for _, c := range consts {
			acc += c
		}
		if acc != 0 || len(ops) == 0 {
			ops = append(ops, Const(acc))
		}
		return n.withOperands(ops)

	case KindProduct:
		ops, consts := flatten(n.kind, n.operands)
		var acc int64 = 1
		overflow := false
		for _, c := range consts {
			// evaluation has no side effects, so the remaining operands can go
			if c == 0 {
				return Const(0)
			}
			var ok bool
			if acc, ok = MulChecked(acc, c); !ok {
				overflow = true
			}
		}
		switch {
		case overflow:
			// left unfolded for evaluation to report
			for _, c := range consts {
				ops = append(ops, Const(c))
			}
		case acc != 1 || len(ops) == 0:
			ops = append(ops, Const(acc))
		}
		return n.withOperands(ops)

	case KindMin, KindMax:
		ops, consts := flatten(n.kind, n.operands)
		if len(consts) > 0 {
			extreme := consts[0]
			for _, c := range consts[1:] {
				if n.kind == KindMin {
					extreme = min(extreme, c)
				} else {
					extreme = max(extreme, c)
				}
			}
			ops = append(ops, Const(extreme))
		}
		return n.withOperands(ops)

	case KindDiv:
		if n.operands[1].IsConstValue(1) {
			return n.operands[0]
		}

	case KindMod:
		if n.operands[1].IsConstValue(1) || n.operands[1].IsConstValue(-1) {
			return Const(0)
		}

	case KindEq, KindLe:
		if AllEqual(n.operands) {
			return Const(1)
		}

	case KindNe, KindLt:
		if AllEqual(n.operands) {
			return Const(0)
		}

	case KindAllDifferent:
		if len(n.operands) <= 1 {
			return Const(1)
		}
		for i := range n.operands {
			for j := i + 1; j < len(n.operands); j++ {
				if Equal(n.operands[i], n.operands[j]) {
					return Const(0)
				}
			}
		}

	case KindAbs:
		if n.operands[0].kind == KindAbs {
			return n.operands[0]
		}

	case KindIfThenElse:
		cond, then, else_ := n.operands[0], n.operands[1], n.operands[2]
		if cond.IsConst() {
			if cond.value != 0 {
				return then
			}
			return else_
		}
		if Equal(then, else_) {
			return then
		}

	case KindElement:
		index, list := n.operands[0], n.operands[1:]
		// an out of range constant index is left for evaluation to report
		if index.IsConst() && index.value >= 0 && index.value < int64(len(list)) {
			return list[index.value]
		}
	}
	return n.foldConstants()
}

// foldConstants replaces n by a constant when all its operands are constants
func (n *Node) foldConstants() *Node {
	if len(n.operands) == 0 {
		return n
	}
	args := make([]int64, len(n.operands))
	for i, op := range n.operands {
		if !op.IsConst() {
			return n
		}
		args[i] = op.value
	}
	value, err := Apply(n.kind, args, ExprString(n))
	if err != nil {
		// left for evaluation to report
		return n
	}
	return Const(value)
}

// withOperands sets the operands of n, or returns the single operand if there is only one
func (n *Node) withOperands(ops []*Node) *Node {
	if len(ops) == 1 {
		return ops[0]
	}
	n.operands = ops
	return n
}

// flatten splices operands of the same kind as the parent into the operand list,
// and separates out constant operands
func flatten(kind Kind, operands []*Node) (ops []*Node, consts []int64) {
	ops = make([]*Node, 0, len(operands))
	add := func(op *Node) {
		if op.IsConst() {
			consts = append(consts, op.value)
		} else {
			ops = append(ops, op)
		}
	}
	for _, op := range operands {
		if kind.IsAssociative() && op.kind == kind {
			// op is already simplified, so it has no operands of its own kind
			for _, inner := range op.operands {
				add(inner)
			}
			continue
		}
		add(op)
	}
	return ops, consts
}
