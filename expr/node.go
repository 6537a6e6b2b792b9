package expr

import (
	"cmp"
	"encoding/binary"
	"hash/fnv"
	"strings"
)

// Node is a node of an expression tree.
//
// Nodes are produced by the combinators in this package and are already
// simplified and normalised when returned. The same *Node is meant to be
// shared between every expression that uses it.
//
// The combinators return nodes that are simplified, normalised and hashed,
// and that are never written to again, so a Node built with them is safe to
// read from several goroutines.
type Node struct {
	kind Kind
	// name is set for KindVar and KindVarArray
	name string
	// size is set for KindVarArray
	size int
	// value is set for KindConst
	value    int64
	operands []*Node

	hash       uint64
	hashed     bool
	simplified bool
	normalised bool
}

func (n *Node) Kind() Kind       { return n.kind }
func (n *Node) Name() string     { return n.name }
func (n *Node) Size() int        { return n.size }
func (n *Node) Value() int64     { return n.value }
func (n *Node) NumOperands() int { return len(n.operands) }

func (n *Node) Operand(i int) *Node { return n.operands[i] }

// Operands returns the operands of n, which must not be modified
func (n *Node) Operands() []*Node { return n.operands }

func (n *Node) IsConst() bool { return n.kind == KindConst }

// IsConstValue is true if n is the constant v
func (n *Node) IsConstValue(v int64) bool { return n.kind == KindConst && n.value == v }

func (n *Node) IsSimplified() bool { return n.simplified }
func (n *Node) IsNormalised() bool { return n.normalised }

// Hash returns the structural hash of n, computed once and then cached.
//
// Two structurally equal nodes always have the same hash, but the converse
// does not hold: use Equal to confirm a match.
func (n *Node) Hash() uint64 {
	if n.hashed {
		return n.hash
	}
	h := fnv.New64a()
	arr := make([]byte, 0, 8*(len(n.operands)+3))
	arr = append(arr, byte(n.kind))
	switch n.kind {
	case KindVar:
		arr = append(arr, n.name...)
	case KindVarArray:
		arr = append(arr, n.name...)
		arr = binary.LittleEndian.AppendUint64(arr, uint64(n.size))
	case KindConst:
		arr = binary.LittleEndian.AppendUint64(arr, uint64(n.value))
	}
	for _, op := range n.operands {
		arr = binary.LittleEndian.AppendUint64(arr, op.Hash())
	}
	_, _ = h.Write(arr)
	n.hash = h.Sum64()
	n.hashed = true
	return n.hash
}

func (n *Node) String() string {
	return ExprString(n)
}

// Compare is a total order over expression trees.
//
// Nodes are ordered by kind first, then by structural hash, and nodes with
// colliding hashes are ordered structurally, so Compare(a, b) == 0 if and only
// if a and b are structurally equal.
func Compare(a, b *Node) int {
	if a == b {
		return 0
	}
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Hash(), b.Hash()); c != 0 {
		return c
	}
	return compareStructure(a, b)
}

func compareStructure(a, b *Node) int {
	if c := strings.Compare(a.name, b.name); c != 0 {
		return c
	}
	if c := cmp.Compare(a.size, b.size); c != 0 {
		return c
	}
	if c := cmp.Compare(a.value, b.value); c != 0 {
		return c
	}
	if c := cmp.Compare(len(a.operands), len(b.operands)); c != 0 {
		return c
	}
	for i := range a.operands {
		if c := Compare(a.operands[i], b.operands[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Equal reports whether a and b are structurally equal.
// A hash match is always confirmed structurally.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.kind != b.kind || a.Hash() != b.Hash() {
		return false
	}
	return compareStructure(a, b) == 0
}

// AllEqual is true if every node in nodes is structurally equal to the first one
func AllEqual(nodes []*Node) bool {
	for _, n := range nodes[1:] {
		if !Equal(nodes[0], n) {
			return false
		}
	}
	return true
}

// Walk calls visit on n and then on every operand, depth first, once per occurrence
func Walk(n *Node, visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, op := range n.operands {
		Walk(op, visit)
	}
}
