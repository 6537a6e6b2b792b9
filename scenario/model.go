// Package scenario prices tentative changes to a compiled model without committing them.
//
// A Model holds the committed state, level 0, plus k scenario levels. Each
// scenario level only stores what a simulated change touched and reads
// everything else from level 0.
package scenario

import (
	"github.com/cottand/tally/expr"
	"github.com/cottand/tally/graph"
	"github.com/cottand/tally/internal/log"
	"github.com/cottand/tally/tallyerr"
)

var logger = log.DefaultLogger.With("section", "scenario")

// State of a scenario level
type State uint8

const (
	// Clean levels hold no tentative values and read everything from level 0
	Clean State = iota
	// Simulated levels hold the values of a simulated change
	Simulated
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Simulated:
		return "simulated"
	default:
		return "invalid"
	}
}

// Model drives the evaluation of a Store over a committed level and k scenario levels.
//
// Scenario levels 1 to k may be simulated and reset from different goroutines
// at the same time, provided nothing compiles into the Store, and neither
// Assign, Evaluate, Update nor Execute runs meanwhile. Nothing enforces this.
type Model struct {
	store *graph.Store
	// levels holds level 0, the scenario levels 1..k, and the scratch level used by Execute
	levels []*graph.Level
	// simulated is set for the scenario levels whose last Simulate succeeded and
	// that were not reset since, even if the simulated changes wrote no value
	simulated []bool
	// stale is set when level 0 was assigned and not evaluated since
	stale bool
	// force is set when level 0 may be inconsistent, after a failed pass
	force bool
}

// New returns a Model over store with k scenario levels
func New(store *graph.Store, k int) *Model {
	if k < 0 {
		panic("negative number of scenario levels")
	}
	committed := graph.NewLevel(0, nil)
	levels := make([]*graph.Level, 0, k+2)
	levels = append(levels, committed)
	for i := 1; i <= k+1; i++ {
		levels = append(levels, graph.NewLevel(i, committed))
	}
	return &Model{store: store, levels: levels, simulated: make([]bool, len(levels)), stale: true}
}

func (m *Model) Store() *graph.Store { return m.store }

// Levels is the number of scenario levels, k
func (m *Model) Levels() int { return len(m.levels) - 2 }

func (m *Model) scratch() *graph.Level { return m.levels[len(m.levels)-1] }

func (m *Model) level(level int) (*graph.Level, error) {
	if level < 0 || level > m.Levels() {
		return nil, tallyerr.New(tallyerr.NewLevelOutOfRange{Level: level, Max: m.Levels()})
	}
	return m.levels[level], nil
}

func (m *Model) scenarioLevel(level int) (*graph.Level, error) {
	if level == 0 {
		return nil, tallyerr.New(tallyerr.NewCommittedLevelSimulation{})
	}
	return m.level(level)
}

// State returns whether level holds tentative values. Level 0 is always Clean.
func (m *Model) State(level int) (State, error) {
	if level == 0 {
		return Clean, nil
	}
	if _, err := m.scenarioLevel(level); err != nil {
		return Clean, err
	}
	if m.simulated[level] {
		return Simulated, nil
	}
	return Clean, nil
}

// Assign sets the committed value of the variable v, without evaluating anything yet
func (m *Model) Assign(v *expr.Node, value int64) error {
	if v.Kind() != expr.KindVar {
		return tallyerr.New(tallyerr.NewNotTerminal{Label: expr.ExprString(v)})
	}
	return m.AssignName(v.Name(), value)
}

// AssignName is Assign for the variable called name
func (m *Model) AssignName(name string, value int64) error {
	id, ok := m.store.Variable(name)
	if !ok {
		return tallyerr.New(tallyerr.NewUnknownVariable{Name: name})
	}
	m.levels[0].Set(id, value)
	m.stale = true
	return nil
}

// Evaluate brings level 0 up to date with a full pass
func (m *Model) Evaluate(force bool) error {
	force = force || m.force
	stats, err := m.store.Evaluate(m.levels[0], force)
	if err != nil {
		m.force = true
		return err
	}
	m.stale, m.force = false, false
	logger.Debug("evaluated committed level", "force", force, "visited", stats.Visited, "changed", stats.Changed)
	return nil
}

func (m *Model) ensureEvaluated() error {
	if m.stale || m.force {
		return m.Evaluate(false)
	}
	return nil
}

// Value returns the value of the compiled expression n at level
func (m *Model) Value(n *expr.Node, level int) (int64, error) {
	id, ok := m.store.Lookup(n)
	if !ok {
		return 0, tallyerr.New(tallyerr.NewUnassigned{Label: expr.ExprString(n), Level: level})
	}
	return m.ValueOf(id, level)
}

// ValueOf returns the value of the node id at level, which reads through to
// level 0 for nodes level holds no tentative value for
func (m *Model) ValueOf(id graph.NodeID, level int) (int64, error) {
	l, err := m.level(level)
	if err != nil {
		return 0, err
	}
	return l.Value(m.store, id)
}

func (m *Model) resolve(changes Changes) ([]graph.Assignment, error) {
	assignments := make([]graph.Assignment, 0, changes.Len())
	for name, v := range changes.All() {
		id, ok := m.store.Variable(name)
		if !ok {
			return nil, tallyerr.New(tallyerr.NewUnknownVariable{Name: name})
		}
		assignments = append(assignments, graph.Assignment{ID: id, Value: v})
	}
	return assignments, nil
}

// Simulate prices changes at the scenario level, which is reset first.
// Level 0 is left untouched. On failure, the level is left Clean.
func (m *Model) Simulate(changes Changes, level int) error {
	l, err := m.scenarioLevel(level)
	if err != nil {
		return err
	}
	if err := m.ensureEvaluated(); err != nil {
		return err
	}
	m.simulated[level] = false
	if err := m.simulate(changes, l); err != nil {
		return err
	}
	m.simulated[level] = true
	return nil
}

func (m *Model) simulate(changes Changes, l *graph.Level) error {
	assignments, err := m.resolve(changes)
	if err != nil {
		return err
	}
	l.Reset()
	stats, err := m.store.EvaluateDiff(l, assignments)
	if err != nil {
		l.Reset()
		return err
	}
	logger.Debug("simulated", "level", l.Index(), "changes", changes.Len(), "visited", stats.Visited, "changed", stats.Changed)
	return nil
}

// Reset discards the tentative values of a scenario level
func (m *Model) Reset(level int) error {
	l, err := m.scenarioLevel(level)
	if err != nil {
		return err
	}
	l.Reset()
	m.simulated[level] = false
	return nil
}

// Execute commits changes into level 0. Scenario levels are left as they are.
func (m *Model) Execute(changes Changes) error {
	if err := m.ensureEvaluated(); err != nil {
		return err
	}
	scratch := m.scratch()
	if err := m.simulate(changes, scratch); err != nil {
		return err
	}
	copied := scratch.CommitTo(m.levels[0])
	logger.Debug("executed", "changes", changes.Len(), "copied", copied)
	return nil
}

// Update applies changes directly to level 0 with a diff pass.
//
// It is cheaper than Execute, but a failure leaves level 0 partially updated
// until the next Evaluate, which will then be a forced one.
func (m *Model) Update(changes Changes) error {
	if err := m.ensureEvaluated(); err != nil {
		return err
	}
	assignments, err := m.resolve(changes)
	if err != nil {
		return err
	}
	if _, err := m.store.EvaluateDiff(m.levels[0], assignments); err != nil {
		m.force = true
		return err
	}
	return nil
}
