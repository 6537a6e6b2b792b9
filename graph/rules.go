package graph

import (
	"github.com/cottand/tally/expr"
	"github.com/cottand/tally/tallyerr"
	"github.com/hashicorp/go-set/v3"
	"math"
)

// computeFunc computes the value of id from the values of its children at l
type computeFunc func(s *Store, l *Level, id NodeID) (int64, error)

// diffFunc computes the value of id at l from prev, its value before the
// current pass, and the children that changed during the pass.
// It must return the same value computeFunc would.
type diffFunc func(s *Store, l *Level, id NodeID, prev int64, changed *set.Set[NodeID]) (int64, error)

type rule struct {
	compute computeFunc
	diff    diffFunc
}

var rules = [...]rule{
	expr.KindVar:          {compute: computeTerminal, diff: recompute},
	expr.KindVarArray:     {compute: computeNotScalar, diff: recompute},
	expr.KindConst:        {compute: computeConst, diff: recompute},
	expr.KindSum:          {compute: computeOperator, diff: sumDiff},
	expr.KindProduct:      {compute: computeOperator, diff: productDiff},
	expr.KindMin:          {compute: computeOperator, diff: minDiff},
	expr.KindMax:          {compute: computeOperator, diff: maxDiff},
	expr.KindDiv:          {compute: computeOperator, diff: recompute},
	expr.KindMod:          {compute: computeOperator, diff: recompute},
	expr.KindEq:           {compute: computeOperator, diff: recompute},
	expr.KindNe:           {compute: computeOperator, diff: recompute},
	expr.KindLe:           {compute: computeOperator, diff: recompute},
	expr.KindLt:           {compute: computeOperator, diff: recompute},
	expr.KindAllDifferent: {compute: computeOperator, diff: recompute},
	expr.KindAbs:          {compute: computeOperator, diff: recompute},
	expr.KindElement:      {compute: computeOperator, diff: recompute},
	expr.KindIfThenElse:   {compute: computeOperator, diff: recompute},
}

func computeTerminal(s *Store, l *Level, id NodeID) (int64, error) {
	return l.Value(s, id)
}

func computeConst(s *Store, _ *Level, id NodeID) (int64, error) {
	return s.nodes[id].value, nil
}

func computeNotScalar(s *Store, _ *Level, id NodeID) (int64, error) {
	return 0, tallyerr.New(tallyerr.NewNotScalar{Name: s.nodes[id].tree.Name()})
}

func computeOperator(s *Store, l *Level, id NodeID) (int64, error) {
	n := &s.nodes[id]
	args := l.args[:0]
	for _, child := range n.children {
		v, ok := l.read(child)
		if !ok {
			return 0, tallyerr.New(tallyerr.NewUnassigned{Label: s.nodes[child].label, Level: l.index})
		}
		args = append(args, v)
	}
	l.args = args
	return expr.Apply(n.kind, args, n.label)
}

// recompute is the diff rule for kinds with no cheaper update than computing over their children.
// It must not go through rules, which refers to it.
func recompute(s *Store, l *Level, id NodeID, _ int64, _ *set.Set[NodeID]) (int64, error) {
	switch s.nodes[id].kind {
	case expr.KindVar:
		return computeTerminal(s, l, id)
	case expr.KindConst:
		return computeConst(s, l, id)
	case expr.KindVarArray:
		return computeNotScalar(s, l, id)
	default:
		return computeOperator(s, l, id)
	}
}

// transition returns the value of child before and after the current pass
func (l *Level) transition(child NodeID) (before, after int64, ok bool) {
	before, ok = l.before[child]
	if !ok {
		return 0, 0, false
	}
	after, ok = l.read(child)
	return before, after, ok
}

// sumDiff subtracts the old contribution of each changed child and adds the new one
func sumDiff(s *Store, l *Level, id NodeID, prev int64, changed *set.Set[NodeID]) (int64, error) {
	res := prev
	for child := range changed.Items() {
		before, after, ok := l.transition(child)
		if !ok {
			return computeOperator(s, l, id)
		}
		res += int64(s.multiplicity(id, child)) * (after - before)
	}
	return res, nil
}

// productDiff divides prev by the old values of the changed children and
// multiplies in their new ones. Every old value is divided out before any new
// one is multiplied in, so no intermediate result is larger than the final
// one. Zeros, and products that overflow, go through a full computation.
func productDiff(s *Store, l *Level, id NodeID, prev int64, changed *set.Set[NodeID]) (int64, error) {
	if prev == 0 {
		return computeOperator(s, l, id)
	}
	divisor, factor := int64(1), int64(1)
	for child := range changed.Items() {
		before, after, ok := l.transition(child)
		if !ok || before == 0 || after == 0 {
			return computeOperator(s, l, id)
		}
		for range s.multiplicity(id, child) {
			if divisor, ok = expr.MulChecked(divisor, before); !ok {
				return computeOperator(s, l, id)
			}
			if factor, ok = expr.MulChecked(factor, after); !ok {
				return computeOperator(s, l, id)
			}
		}
	}
	if prev%divisor != 0 || (prev == math.MinInt64 && divisor == -1) {
		return computeOperator(s, l, id)
	}
	res, ok := expr.MulChecked(prev/divisor, factor)
	if !ok {
		return computeOperator(s, l, id)
	}
	return res, nil
}

// minDiff takes the smallest new value among changed children when it is at most prev.
// Otherwise the minimum may have moved to an untouched child, and all children are rescanned.
func minDiff(s *Store, l *Level, id NodeID, prev int64, changed *set.Set[NodeID]) (int64, error) {
	return extremumDiff(s, l, id, prev, changed, func(candidate, current int64) bool { return candidate <= current })
}

// maxDiff is minDiff for the largest value
func maxDiff(s *Store, l *Level, id NodeID, prev int64, changed *set.Set[NodeID]) (int64, error) {
	return extremumDiff(s, l, id, prev, changed, func(candidate, current int64) bool { return candidate >= current })
}

// extremumDiff relies on untouched children being no better than prev: when
// the best changed child is at least as good as prev (ties included) it is
// the new extremum.
func extremumDiff(s *Store, l *Level, id NodeID, prev int64, changed *set.Set[NodeID], atLeastAsGood func(candidate, current int64) bool) (int64, error) {
	var best int64
	first := true
	for child := range changed.Items() {
		after, ok := l.read(child)
		if !ok {
			return computeOperator(s, l, id)
		}
		if first || atLeastAsGood(after, best) {
			best = after
			first = false
		}
	}
	if !first && atLeastAsGood(best, prev) {
		return best, nil
	}
	return computeOperator(s, l, id)
}
