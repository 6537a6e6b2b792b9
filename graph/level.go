package graph

import (
	"github.com/cottand/tally/tallyerr"
	"github.com/hashicorp/go-set/v3"
)

// Level is one value array over the nodes of a Store.
//
// A Level with a base reads through to it for every node it holds no value
// for: this is how a scenario over the committed state only stores what it
// changed.
//
// A Level must only be used by one goroutine at a time. Several Levels sharing
// a base may be used concurrently as long as the base is not written meanwhile.
type Level struct {
	index  int
	base   *Level
	values []int64
	valid  []bool
	// written lists the nodes valid at this level, so that Reset is proportional to them
	written []NodeID

	// changed holds, per node, the children that changed during the in-flight diff pass
	changed map[NodeID]*set.Set[NodeID]
	// before holds the value of each node rewritten during the in-flight diff pass,
	// as it was when the pass started
	before map[NodeID]int64
	// args is scratch space for compute
	args []int64
}

// NewLevel returns an empty level reading through to base, which may be nil
func NewLevel(index int, base *Level) *Level {
	return &Level{
		index:   index,
		base:    base,
		changed: make(map[NodeID]*set.Set[NodeID]),
		before:  make(map[NodeID]int64),
	}
}

func (l *Level) Index() int   { return l.index }
func (l *Level) Base() *Level { return l.base }

// Value returns the value of id at this level, falling back to the base level
func (l *Level) Value(s *Store, id NodeID) (int64, error) {
	v, ok := l.read(id)
	if !ok {
		return 0, tallyerr.New(tallyerr.NewUnassigned{Label: s.Label(id), Level: l.index})
	}
	return v, nil
}

// Holds is true if id has a value at this level itself, without falling back
func (l *Level) Holds(id NodeID) bool {
	return int(id) < len(l.valid) && l.valid[id]
}

// Written returns the nodes holding a value at this level itself
func (l *Level) Written() []NodeID { return l.written }

// IsClean is true if the level holds no values of its own
func (l *Level) IsClean() bool { return len(l.written) == 0 }

func (l *Level) read(id NodeID) (int64, bool) {
	if l.Holds(id) {
		return l.values[id], true
	}
	if l.base != nil {
		return l.base.read(id)
	}
	return 0, false
}

// Set writes v as the value of id at this level, with no propagation
func (l *Level) Set(id NodeID, v int64) {
	l.grow(int(id) + 1)
	if !l.valid[id] {
		l.valid[id] = true
		l.written = append(l.written, id)
	}
	l.values[id] = v
}

// setTracked is Set but keeps the value before the current pass for diff rules
func (l *Level) setTracked(id NodeID, v int64) {
	if _, seen := l.before[id]; !seen {
		if prev, ok := l.read(id); ok {
			l.before[id] = prev
		}
	}
	l.Set(id, v)
}

// Reset discards every value held at this level
func (l *Level) Reset() {
	for _, id := range l.written {
		l.valid[id] = false
	}
	l.written = l.written[:0]
	l.endPass()
}

func (l *Level) grow(size int) {
	if len(l.values) >= size {
		return
	}
	values := make([]int64, size)
	copy(values, l.values)
	valid := make([]bool, size)
	copy(valid, l.valid)
	l.values, l.valid = values, valid
}

func (l *Level) changedChildren(id NodeID) *set.Set[NodeID] {
	children, ok := l.changed[id]
	if !ok {
		children = set.New[NodeID](1)
		l.changed[id] = children
	}
	return children
}

// endPass clears the per-pass bookkeeping, which must be empty between passes
func (l *Level) endPass() {
	clear(l.changed)
	clear(l.before)
}

// CommitTo copies into dst every value held at l that differs from dst, and then resets l.
// It returns how many values were copied.
func (l *Level) CommitTo(dst *Level) int {
	copied := 0
	for _, id := range l.written {
		v := l.values[id]
		if prev, ok := dst.read(id); ok && prev == v {
			continue
		}
		dst.Set(id, v)
		copied++
	}
	l.Reset()
	return copied
}
