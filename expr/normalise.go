package expr

import (
	"slices"
)

// Normalise sorts the operands of a commutative operator into canonical order
// (by kind, then structural hash, then structure), so that the result does not
// depend on the order the operands were given in.
//
// When recursive is set, operands are normalised first. Normalise is a fixed
// point: normalising a normalised node does nothing.
func (n *Node) Normalise(recursive bool) *Node {
	if recursive {
		for _, op := range n.operands {
			op.Normalise(true)
		}
	}
	if n.normalised {
		return n
	}
	if n.kind.IsCommutative() && !slices.IsSortedFunc(n.operands, Compare) {
		slices.SortStableFunc(n.operands, Compare)
		n.hashed = false
	}
	n.normalised = true
	return n
}

// Canonical simplifies and then normalises n and all its operands
func Canonical(n *Node) *Node {
	return n.Simplify().Normalise(true)
}
