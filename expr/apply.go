package expr

import (
	"github.com/cottand/tally/tallyerr"
	"math"
)

// Apply evaluates an operator of kind over the already-computed values of its operands.
//
// It is the single definition of operator semantics, shared by constant folding
// and by compiled graph evaluation. label names the expression in returned errors.
func Apply(kind Kind, args []int64, label string) (int64, error) {
	switch kind {
	case KindSum:
		var acc int64
		for _, a := range args {
			acc += a
		}
		return acc, nil
	case KindProduct:
		// a zero operand wins over an overflow among the others
		for _, a := range args {
			if a == 0 {
				return 0, nil
			}
		}
		var acc int64 = 1
		for _, a := range args {
			var ok bool
			if acc, ok = MulChecked(acc, a); !ok {
				return 0, tallyerr.New(tallyerr.NewOverflow{Op: "product", Label: label})
			}
		}
		return acc, nil
	case KindDiv:
		if args[1] == 0 {
			return 0, tallyerr.New(tallyerr.NewDivisionByZero{Op: "division", Label: label})
		}
		return args[0] / args[1], nil
	case KindMod:
		if args[1] == 0 {
			return 0, tallyerr.New(tallyerr.NewDivisionByZero{Op: "modulo", Label: label})
		}
		return args[0] % args[1], nil
	case KindMin:
		res := args[0]
		for _, a := range args[1:] {
			res = min(res, a)
		}
		return res, nil
	case KindMax:
		res := args[0]
		for _, a := range args[1:] {
			res = max(res, a)
		}
		return res, nil
	case KindEq:
		return boolValue(args[0] == args[1]), nil
	case KindNe:
		return boolValue(args[0] != args[1]), nil
	case KindLe:
		return boolValue(args[0] <= args[1]), nil
	case KindLt:
		return boolValue(args[0] < args[1]), nil
	case KindAllDifferent:
		// quadratic, but arities are expected to be small
		for i := range args {
			for j := i + 1; j < len(args); j++ {
				if args[i] == args[j] {
					return 0, nil
				}
			}
		}
		return 1, nil
	case KindAbs:
		if args[0] < 0 {
			return -args[0], nil
		}
		return args[0], nil
	case KindElement:
		index, list := args[0], args[1:]
		if index < 0 || index >= int64(len(list)) {
			return 0, tallyerr.New(tallyerr.NewElementIndexOutOfRange{Label: label, Index: index, Size: len(list)})
		}
		return list[index], nil
	case KindIfThenElse:
		if args[0] != 0 {
			return args[1], nil
		}
		return args[2], nil
	default:
		panic("cannot apply non-operator kind " + kind.String())
	}
}

// MulChecked returns a * b, and false if the product does not fit in an int64
func MulChecked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return c, false
	}
	return c, true
}

func boolValue(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
