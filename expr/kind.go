package expr

// Kind is the closed set of expression node kinds.
//
// The declaration order is also the primary sort key used when normalising
// commutative operands, which is why KindConst comes last: a folded constant
// always ends up as the trailing operand.
type Kind uint8

const (
	KindVar Kind = iota
	KindVarArray
	KindSum
	KindProduct
	KindDiv
	KindMod
	KindMin
	KindMax
	KindEq
	KindNe
	KindLe
	KindLt
	KindAllDifferent
	KindAbs
	KindElement
	KindIfThenElse
	KindConst
)

func (k Kind) String() string {
	switch k {
	case KindVar:
		return "var"
	case KindVarArray:
		return "vararray"
	case KindSum:
		return "sum"
	case KindProduct:
		return "product"
	case KindDiv:
		return "div"
	case KindMod:
		return "mod"
	case KindMin:
		return "min"
	case KindMax:
		return "max"
	case KindEq:
		return "eq"
	case KindNe:
		return "ne"
	case KindLe:
		return "le"
	case KindLt:
		return "lt"
	case KindAllDifferent:
		return "alldifferent"
	case KindAbs:
		return "abs"
	case KindElement:
		return "element"
	case KindIfThenElse:
		return "ifthenelse"
	case KindConst:
		return "const"
	default:
		return "invalid"
	}
}

// IsLeaf is true for kinds that never have operands
func (k Kind) IsLeaf() bool {
	return k == KindVar || k == KindVarArray || k == KindConst
}

// IsAssociative kinds get nested operands of the same kind spliced into them
func (k Kind) IsAssociative() bool {
	switch k {
	case KindSum, KindProduct, KindMin, KindMax:
		return true
	default:
		return false
	}
}

// IsCommutative kinds have their operands sorted into a canonical order
func (k Kind) IsCommutative() bool {
	switch k {
	case KindSum, KindProduct, KindMin, KindMax, KindEq, KindNe, KindAllDifferent:
		return true
	default:
		return false
	}
}

// IsRelation kinds evaluate to 0 or 1
func (k Kind) IsRelation() bool {
	switch k {
	case KindEq, KindNe, KindLe, KindLt, KindAllDifferent:
		return true
	default:
		return false
	}
}
