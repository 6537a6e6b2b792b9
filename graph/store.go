// Package graph compiles expression trees into a flat, deduplicated dependency
// graph (the Store) and evaluates it, fully or incrementally, over Levels.
package graph

import (
	"github.com/cottand/tally/expr"
	"github.com/cottand/tally/internal/log"
	"github.com/cottand/tally/tallyerr"
	"github.com/pkg/errors"
	xset "github.com/xtgo/set"
	"sort"
)

// NodeID is the stable index of a compiled node in its Store
type NodeID int32

// Invalid is never the ID of a compiled node
const Invalid NodeID = -1

var compileLogger = log.DefaultLogger.With("section", "graph.compile")

type node struct {
	kind     expr.Kind
	children []NodeID
	// parents is sorted and duplicate-free once the Store is sealed
	parents []NodeID
	depth   int
	// value is only meaningful for expr.KindConst
	value int64
	// multiplicity counts children that appear more than once in children,
	// and is nil when every child is distinct
	multiplicity map[NodeID]int
	label        string
	// tree is the canonical expression this node was compiled from,
	// used to confirm hash matches in the dedup index
	tree *expr.Node
}

// Store is an append-only graph of compiled nodes.
//
// Structurally equal sub-expressions are compiled to a single node, no matter
// how many expressions share them. Nodes are appended after their children,
// so index order is a topological order.
//
// A Store is not safe for concurrent compilation. Once sealed and no longer
// compiled into, it can be read concurrently.
type Store struct {
	nodes []node
	// index maps structural hashes to every node with that hash
	index  map[uint64][]NodeID
	vars   map[string]NodeID
	leaves []NodeID
	dirty  bool
}

func NewStore() *Store {
	return &Store{
		index: make(map[uint64][]NodeID),
		vars:  make(map[string]NodeID),
	}
}

// Compile registers n, and every sub-expression of n, into s, and returns the ID of n.
//
// n is brought into canonical form first. Compiling an expression structurally
// equal to one already in s returns the existing ID and does not grow s.
func (s *Store) Compile(n *expr.Node) (NodeID, error) {
	id, err := s.compile(expr.Canonical(n))
	if err != nil {
		return Invalid, errors.Wrapf(err, "compiling %s", label(n))
	}
	return id, nil
}

// CompileAll compiles every expression in nodes, and keeps going after a failure.
// The returned error, if any, is a *tallyerr.Errors.
func (s *Store) CompileAll(nodes ...*expr.Node) ([]NodeID, error) {
	var errs *tallyerr.Errors
	ids := make([]NodeID, len(nodes))
	for i, n := range nodes {
		id, err := s.Compile(n)
		ids[i] = id
		if err == nil {
			continue
		}
		var tallyErr tallyerr.TallyError
		if !errors.As(err, &tallyErr) {
			tallyErr = tallyerr.New(tallyerr.Unclassified{From: err})
		}
		errs = errs.With(tallyErr)
	}
	return ids, errs.Err()
}

func (s *Store) lookup(n *expr.Node) (NodeID, bool) {
	for _, candidate := range s.index[n.Hash()] {
		if expr.Equal(s.nodes[candidate].tree, n) {
			return candidate, true
		}
	}
	return Invalid, false
}

func (s *Store) compile(n *expr.Node) (NodeID, error) {
	if id, ok := s.lookup(n); ok {
		return id, nil
	}
	if n.Kind() == expr.KindVarArray {
		return Invalid, tallyerr.New(tallyerr.NewNotScalar{Name: n.Name()})
	}

	// post-order, so that children always have smaller IDs than their parents
	children := make([]NodeID, n.NumOperands())
	for i, op := range n.Operands() {
		child, err := s.compile(op)
		if err != nil {
			return Invalid, err
		}
		children[i] = child
	}

	id := NodeID(len(s.nodes))
	compiled := node{
		kind:     n.Kind(),
		children: children,
		value:    n.Value(),
		label:    label(n),
		tree:     n,
	}
	seen := make(map[NodeID]int, len(children))
	for _, child := range children {
		seen[child]++
	}
	for child, count := range seen {
		if count > 1 {
			if compiled.multiplicity == nil {
				compiled.multiplicity = make(map[NodeID]int)
			}
			compiled.multiplicity[child] = count
		}
		s.nodes[child].parents = append(s.nodes[child].parents, id)
	}
	s.nodes = append(s.nodes, compiled)
	s.index[n.Hash()] = append(s.index[n.Hash()], id)

	switch n.Kind() {
	case expr.KindVar:
		s.vars[n.Name()] = id
		s.leaves = append(s.leaves, id)
	case expr.KindConst:
		s.leaves = append(s.leaves, id)
	}
	s.dirty = true
	compileLogger.Debug("compiled node", "node", s.ref(id), "expr", n, "children", children)
	return id, nil
}

// Seal recomputes the depth of every node and canonicalises parent sets.
// It is a no-op if nothing was compiled since the last call, and it is called
// by every evaluation.
func (s *Store) Seal() {
	if !s.dirty {
		return
	}
	for i := range s.nodes {
		n := &s.nodes[i]
		depth := 0
		for _, child := range n.children {
			depth = max(depth, s.nodes[child].depth+1)
		}
		n.depth = depth

		parents := nodeIDs(n.parents)
		sort.Sort(parents)
		n.parents = parents[:xset.Uniq(parents)]
	}
	s.dirty = false
	compileLogger.Info("sealed store", "nodes", len(s.nodes), "variables", len(s.vars))
}

// Len is the number of compiled nodes
func (s *Store) Len() int { return len(s.nodes) }

func (s *Store) Kind(id NodeID) expr.Kind { return s.nodes[id].kind }

// Label is a human-readable, possibly truncated, rendering of the expression id was compiled from
func (s *Store) Label(id NodeID) string { return s.nodes[id].label }

// Tree is the canonical expression id was compiled from
func (s *Store) Tree(id NodeID) *expr.Node { return s.nodes[id].tree }

// Depth is the length of the longest path from a leaf to id. Seal must have been called.
func (s *Store) Depth(id NodeID) int { return s.nodes[id].depth }

// Children must not be modified
func (s *Store) Children(id NodeID) []NodeID { return s.nodes[id].children }

// Parents must not be modified
func (s *Store) Parents(id NodeID) []NodeID { return s.nodes[id].parents }

// IsTerminal is true for variables, the only nodes that can be assigned
func (s *Store) IsTerminal(id NodeID) bool { return s.nodes[id].kind == expr.KindVar }

// Variable returns the terminal compiled for the variable called name
func (s *Store) Variable(name string) (NodeID, bool) {
	id, ok := s.vars[name]
	return id, ok
}

// Lookup returns the ID of an expression that was already compiled, without compiling it
func (s *Store) Lookup(n *expr.Node) (NodeID, bool) {
	return s.lookup(expr.Canonical(n))
}

// Variables returns the terminals of s in the order they were compiled
func (s *Store) Variables() []NodeID {
	vars := make([]NodeID, 0, len(s.vars))
	for _, id := range s.leaves {
		if s.nodes[id].kind == expr.KindVar {
			vars = append(vars, id)
		}
	}
	return vars
}

func (s *Store) multiplicity(id, child NodeID) int {
	if m, ok := s.nodes[id].multiplicity[child]; ok {
		return m
	}
	return 1
}

type nodeIDs []NodeID

func (ids nodeIDs) Len() int           { return len(ids) }
func (ids nodeIDs) Less(i, j int) bool { return ids[i] < ids[j] }
func (ids nodeIDs) Swap(i, j int)      { ids[i], ids[j] = ids[j], ids[i] }

const maxLabelLen = 64

// label renders n for diagnostics, cut to maxLabelLen
func label(n *expr.Node) string {
	str := expr.ExprStringLimit(n, maxLabelLen+1)
	if len(str) <= maxLabelLen {
		return str
	}
	return str[:maxLabelLen-3] + "..."
}
