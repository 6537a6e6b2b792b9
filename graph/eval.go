package graph

import (
	"github.com/cottand/tally/internal/log"
	"github.com/cottand/tally/tallyerr"
	"github.com/pkg/errors"
)

var evalLogger = log.DefaultLogger.With("section", "eval")

// PassStats describes one evaluation pass
type PassStats struct {
	// Visited counts the nodes that were computed
	Visited int
	// Changed counts the nodes that got a new value
	Changed int
}

// Assignment is a new value for a terminal
type Assignment struct {
	ID    NodeID
	Value int64
}

// Evaluate computes every node of s at level l, children before parents.
//
// Propagation stops at nodes whose value did not change, unless force is set,
// in which case every node is recomputed.
func (s *Store) Evaluate(l *Level, force bool) (PassStats, error) {
	s.Seal()
	l.grow(len(s.nodes))

	var stats PassStats
	wl := newWorklist(s)
	for _, leaf := range s.leaves {
		wl.push(leaf)
	}
	for {
		id, ok := wl.pop()
		if !ok {
			break
		}
		n := &s.nodes[id]
		v, err := rules[n.kind].compute(s, l, id)
		if err != nil {
			evalLogger.Debug("pass aborted", "level", l.index, "node", s.ref(id), "error", err)
			return stats, errors.Wrapf(err, "evaluating level %d", l.index)
		}
		stats.Visited++

		isNew := !l.Holds(id) || l.values[id] != v
		l.Set(id, v)
		if isNew {
			stats.Changed++
		}
		if force || isNew || n.kind.IsLeaf() {
			for _, parent := range n.parents {
				wl.push(parent)
			}
		}
	}
	evalLogger.Debug("full evaluation", "level", l.index, "force", force, "visited", stats.Visited, "changed", stats.Changed)
	return stats, nil
}

// EvaluateDiff writes assignments at level l and recomputes only the nodes
// that depend on an assigned terminal whose value changed, with the cheaper
// per-kind diff rules where they apply.
//
// Every node the pass touches must be up to date at l (possibly through
// its base) before the call.
func (s *Store) EvaluateDiff(l *Level, assignments []Assignment) (stats PassStats, err error) {
	for _, a := range assignments {
		if a.ID < 0 || int(a.ID) >= len(s.nodes) || !s.IsTerminal(a.ID) {
			label := "<invalid>"
			if a.ID >= 0 && int(a.ID) < len(s.nodes) {
				label = s.Label(a.ID)
			}
			return stats, tallyerr.New(tallyerr.NewNotTerminal{Label: label})
		}
	}
	s.Seal()
	l.grow(len(s.nodes))
	defer l.endPass()

	wl := newWorklist(s)
	for _, a := range assignments {
		if prev, ok := l.read(a.ID); ok && prev == a.Value {
			continue
		}
		l.setTracked(a.ID, a.Value)
		s.notifyParents(l, wl, a.ID)
	}

	for {
		id, ok := wl.pop()
		if !ok {
			break
		}
		changed := l.changed[id]
		delete(l.changed, id)

		r := rules[s.nodes[id].kind]
		prev, held := l.read(id)
		var v int64
		if held {
			v, err = r.diff(s, l, id, prev, changed)
		} else {
			v, err = r.compute(s, l, id)
		}
		if err != nil {
			evalLogger.Debug("pass aborted", "level", l.index, "node", s.ref(id), "error", err)
			return stats, errors.Wrapf(err, "evaluating level %d", l.index)
		}
		stats.Visited++
		if held && v == prev {
			continue
		}
		stats.Changed++
		l.setTracked(id, v)
		s.notifyParents(l, wl, id)
	}
	evalLogger.Debug("diff evaluation", "level", l.index, "assignments", len(assignments), "visited", stats.Visited, "changed", stats.Changed)
	return stats, nil
}

func (s *Store) notifyParents(l *Level, wl *worklist, id NodeID) {
	for _, parent := range s.nodes[id].parents {
		l.changedChildren(parent).Insert(id)
		wl.push(parent)
	}
}
