package expr

import (
	"fmt"
	"github.com/cottand/tally/tallyerr"
	"strconv"
)

// Var is a scalar decision variable. Two variables with the same name are the same variable.
func Var(name string) *Node {
	return hashed(&Node{kind: KindVar, name: name, simplified: true, normalised: true})
}

// VarArray is a contiguous block of size scalar variables, named name[0] to name[size-1].
//
// A VarArray is not itself a scalar: use At to get one of its variables, or
// Element to index into it.
func VarArray(name string, size int) *Node {
	if size < 0 {
		panic("negative variable array size: " + strconv.Itoa(size))
	}
	return hashed(&Node{kind: KindVarArray, name: name, size: size, simplified: true, normalised: true})
}

// At returns the i-th variable of a VarArray
func (n *Node) At(i int) *Node {
	if n.kind != KindVarArray {
		panic("At called on non-array expression " + n.kind.String())
	}
	if i < 0 || i >= n.size {
		panic(fmt.Sprintf("index %d out of range for variable array %s of size %d", i, n.name, n.size))
	}
	return Var(ElemName(n.name, i))
}

// Elems returns every variable of a VarArray, in order
func (n *Node) Elems() []*Node {
	elems := make([]*Node, n.size)
	for i := range elems {
		elems[i] = n.At(i)
	}
	return elems
}

// ElemName is the name of the i-th variable of the array called array
func ElemName(array string, i int) string {
	return array + "[" + strconv.Itoa(i) + "]"
}

func Const(value int64) *Node {
	return hashed(&Node{kind: KindConst, value: value, simplified: true, normalised: true})
}

// Bool is Const(1) if b, and Const(0) otherwise
func Bool(b bool) *Node {
	if b {
		return Const(1)
	}
	return Const(0)
}

func newOp(kind Kind, operands ...*Node) *Node {
	ops := make([]*Node, len(operands))
	for i, op := range operands {
		if op == nil {
			panic(fmt.Sprintf("nil operand %d for %s", i, kind))
		}
		ops[i] = op
	}
	n := &Node{kind: kind, operands: ops}
	return hashed(n.Simplify().Normalise(false))
}

// hashed fills the hash cache of n before n is shared with any caller
func hashed(n *Node) *Node {
	n.Hash()
	return n
}

func Sum(operands ...*Node) *Node { return newOp(KindSum, operands...) }

// Sub is a - b
func Sub(a, b *Node) *Node { return Sum(a, Neg(b)) }

// Neg is -a
func Neg(a *Node) *Node { return Product(Const(-1), a) }

func Product(operands ...*Node) *Node { return newOp(KindProduct, operands...) }

// Div is the truncated integer division a / b.
// It fails if b simplifies to the constant zero.
func Div(a, b *Node) (*Node, error) {
	if b.Simplify().IsConstValue(0) {
		return nil, tallyerr.New(tallyerr.NewDivisionByZero{Op: "division"})
	}
	return newOp(KindDiv, a, b), nil
}

// Mod is a % b, with the sign of a.
// It fails if b simplifies to the constant zero.
func Mod(a, b *Node) (*Node, error) {
	if b.Simplify().IsConstValue(0) {
		return nil, tallyerr.New(tallyerr.NewDivisionByZero{Op: "modulo"})
	}
	return newOp(KindMod, a, b), nil
}

func Min(operands ...*Node) *Node {
	if len(operands) == 0 {
		panic("min of no operands")
	}
	return newOp(KindMin, operands...)
}

func Max(operands ...*Node) *Node {
	if len(operands) == 0 {
		panic("max of no operands")
	}
	return newOp(KindMax, operands...)
}

func Eq(a, b *Node) *Node { return newOp(KindEq, a, b) }
func Ne(a, b *Node) *Node { return newOp(KindNe, a, b) }
func Le(a, b *Node) *Node { return newOp(KindLe, a, b) }
func Lt(a, b *Node) *Node { return newOp(KindLt, a, b) }

// Ge is a >= b, represented as b <= a
func Ge(a, b *Node) *Node { return Le(b, a) }

// Gt is a > b, represented as b < a
func Gt(a, b *Node) *Node { return Lt(b, a) }

// AllDifferent is 1 when no two operands have the same value
func AllDifferent(operands ...*Node) *Node { return newOp(KindAllDifferent, operands...) }

func Abs(a *Node) *Node { return newOp(KindAbs, a) }

// Element selects array[index]. array may be a VarArray, in which case it is
// expanded into its variables, or any other scalar expression, in which case
// it is a single-element list.
func Element(index, array *Node) *Node {
	if array.kind == KindVarArray {
		return ElementOf(index, array.Elems()...)
	}
	return ElementOf(index, array)
}

// ElementOf selects list[index]
func ElementOf(index *Node, list ...*Node) *Node {
	operands := make([]*Node, 0, len(list)+1)
	operands = append(operands, index)
	operands = append(operands, list...)
	return newOp(KindElement, operands...)
}

// IfThenElse is then if cond is non-zero, and otherwise else_
func IfThenElse(cond, then, else_ *Node) *Node {
	return newOp(KindIfThenElse, cond, then, else_)
}
