package scenario

import (
	"github.com/benbjohnson/immutable"
	"github.com/cottand/tally/expr"
	"iter"
)

// Changes is a persistent set of variable assignments, keyed by variable name.
//
// Set returns a new Changes and leaves the receiver untouched, so a search can
// extend a base move into many candidates without copying it. The zero value
// is an empty Changes.
type Changes struct {
	m *immutable.SortedMap[string, int64]
}

func NewChanges() Changes {
	return Changes{m: immutable.NewSortedMap[string, int64](nil)}
}

// ChangesOf builds a Changes from a plain map
func ChangesOf(assignments map[string]int64) Changes {
	c := NewChanges()
	for name, v := range assignments {
		c = c.Set(name, v)
	}
	return c
}

func (c Changes) Set(name string, v int64) Changes {
	if c.m == nil {
		c = NewChanges()
	}
	return Changes{m: c.m.Set(name, v)}
}

// With assigns value to the variable v
func (c Changes) With(v *expr.Node, value int64) Changes {
	if v.Kind() != expr.KindVar {
		panic("cannot assign non-variable expression " + expr.ExprString(v))
	}
	return c.Set(v.Name(), value)
}

func (c Changes) Get(name string) (int64, bool) {
	if c.m == nil {
		return 0, false
	}
	return c.m.Get(name)
}

func (c Changes) Len() int {
	if c.m == nil {
		return 0
	}
	return c.m.Len()
}

// All iterates over assignments in variable name order
func (c Changes) All() iter.Seq2[string, int64] {
	return func(yield func(string, int64) bool) {
		if c.m == nil {
			return
		}
		itr := c.m.Iterator()
		for !itr.Done() {
			name, v, _ := itr.Next()
			if !yield(name, v) {
				return
			}
		}
	}
}
