package scenario_test

import (
	"fmt"
	"github.com/cottand/tally/expr"
	"github.com/cottand/tally/graph"
	"github.com/cottand/tally/internal/modelgen"
	"github.com/cottand/tally/scenario"
	"github.com/cottand/tally/tallyerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
	"math/rand/v2"
	"testing"
)

func newModel(t *testing.T, k int, initial map[string]int64, roots ...*expr.Node) *scenario.Model {
	s := graph.NewStore()
	_, err := s.CompileAll(roots...)
	require.NoError(t, err)
	m := scenario.New(s, k)
	for name, v := range initial {
		require.NoError(t, m.AssignName(name, v))
	}
	require.NoError(t, m.Evaluate(false))
	return m
}

func value(t *testing.T, m *scenario.Model, n *expr.Node, level int) int64 {
	v, err := m.Value(n, level)
	require.NoError(t, err)
	return v
}

func TestSimulateLeavesCommittedLevel(t *testing.T) {
	x, y := expr.Var("x"), expr.Var("y")
	sum := expr.Sum(x, y)
	m := newModel(t, 2, map[string]int64{"x": 2, "y": 3}, sum)
	assert.Equal(t, int64(5), value(t, m, sum, 0))

	require.NoError(t, m.Simulate(scenario.NewChanges().With(x, 10), 1))
	assert.Equal(t, int64(13), value(t, m, sum, 1))
	assert.Equal(t, int64(5), value(t, m, sum, 0))
	// level 2 was never simulated and reads level 0
	assert.Equal(t, int64(5), value(t, m, sum, 2))
	assert.Equal(t, int64(3), value(t, m, y, 1))
}

func TestExecuteCommits(t *testing.T) {
	x, y := expr.Var("x"), expr.Var("y")
	sum := expr.Sum(x, y)
	m := newModel(t, 1, map[string]int64{"x": 2, "y": 3}, sum)

	require.NoError(t, m.Simulate(scenario.ChangesOf(map[string]int64{"y": -3}), 1))
	require.NoError(t, m.Execute(scenario.ChangesOf(map[string]int64{"x": 10})))
	assert.Equal(t, int64(13), value(t, m, sum, 0))
	assert.Equal(t, int64(10), value(t, m, x, 0))

	// other scenario levels are left as they are
	state, err := m.State(1)
	require.NoError(t, err)
	assert.Equal(t, scenario.Simulated, state)
	assert.Equal(t, int64(-1), value(t, m, sum, 1))
}

func TestSharedOperandCompilesOnce(t *testing.T) {
	x := expr.Var("x")
	s := graph.NewStore()
	_, err := s.Compile(expr.Sum(x, x))
	require.NoError(t, err)
	size := s.Len()

	_, err = s.Compile(expr.Sum(x, x))
	require.NoError(t, err)
	assert.Equal(t, size, s.Len())
	assert.Len(t, s.Variables(), 1)

	m := scenario.New(s, 1)
	require.NoError(t, m.Assign(x, 4))
	require.NoError(t, m.Evaluate(false))
	require.NoError(t, m.Simulate(scenario.NewChanges().With(x, 5), 1))
	assert.Equal(t, int64(10), value(t, m, expr.Sum(x, x), 1))
}

func TestStateTransitions(t *testing.T) {
	x := expr.Var("x")
	abs := expr.Abs(x)
	m := newModel(t, 1, map[string]int64{"x": -2}, abs)

	state, err := m.State(1)
	require.NoError(t, err)
	assert.Equal(t, scenario.Clean, state)

	require.NoError(t, m.Simulate(scenario.NewChanges().With(x, 7), 1))
	state, _ = m.State(1)
	assert.Equal(t, scenario.Simulated, state)
	assert.Equal(t, "simulated", state.String())

	require.NoError(t, m.Reset(1))
	state, _ = m.State(1)
	assert.Equal(t, scenario.Clean, state)
	assert.Equal(t, int64(2), value(t, m, abs, 1))

	// a simulation that changes nothing still leaves the level Simulated
	require.NoError(t, m.Simulate(scenario.NewChanges().With(x, -2), 1))
	state, _ = m.State(1)
	assert.Equal(t, scenario.Simulated, state)
	assert.Equal(t, int64(2), value(t, m, abs, 1))
	require.NoError(t, m.Simulate(scenario.NewChanges(), 1))
	state, _ = m.State(1)
	assert.Equal(t, scenario.Simulated, state)
	require.NoError(t, m.Reset(1))
	state, _ = m.State(1)
	assert.Equal(t, scenario.Clean, state)

	// simulating again does not carry over the previous changes
	y := expr.Var("y")
	sum := expr.Sum(x, y)
	m = newModel(t, 1, map[string]int64{"x": 1, "y": 1}, sum)
	require.NoError(t, m.Simulate(scenario.NewChanges().With(x, 5), 1))
	require.NoError(t, m.Simulate(scenario.NewChanges().With(y, 5), 1))
	assert.Equal(t, int64(6), value(t, m, sum, 1))
}

func TestLevelErrors(t *testing.T) {
	x := expr.Var("x")
	m := newModel(t, 2, map[string]int64{"x": 1}, expr.Abs(x))
	changes := scenario.NewChanges().With(x, 3)

	err := m.Simulate(changes, 0)
	assert.True(t, tallyerr.HasCode(err, tallyerr.CommittedLevelSimulation), err)

	err = m.Simulate(changes, 3)
	assert.True(t, tallyerr.HasCode(err, tallyerr.LevelOutOfRange), err)
	_, err = m.Value(x, -1)
	assert.True(t, tallyerr.HasCode(err, tallyerr.LevelOutOfRange), err)

	err = m.Reset(0)
	assert.True(t, tallyerr.HasCode(err, tallyerr.CommittedLevelSimulation), err)

	err = m.Simulate(scenario.ChangesOf(map[string]int64{"nope": 1}), 1)
	assert.True(t, tallyerr.HasCode(err, tallyerr.UnknownVariable), err)

	err = m.Assign(expr.Abs(x), 1)
	assert.True(t, tallyerr.HasCode(err, tallyerr.NotTerminal), err)

	_, err = m.Value(expr.Var("never compiled"), 0)
	assert.True(t, tallyerr.HasCode(err, tallyerr.Unassigned), err)
}

func TestUnassignedVariable(t *testing.T) {
	s := graph.NewStore()
	_, err := s.Compile(expr.Sum(expr.Var("x"), expr.Var("y")))
	require.NoError(t, err)
	m := scenario.New(s, 1)
	require.NoError(t, m.AssignName("x", 1))

	err = m.Evaluate(false)
	assert.True(t, tallyerr.HasCode(err, tallyerr.Unassigned), err)
	err = m.Simulate(scenario.ChangesOf(map[string]int64{"x": 2}), 1)
	assert.True(t, tallyerr.HasCode(err, tallyerr.Unassigned), err)

	require.NoError(t, m.AssignName("y", 1))
	require.NoError(t, m.Simulate(scenario.ChangesOf(map[string]int64{"x": 2}), 1))
	id, ok := s.Lookup(expr.Sum(expr.Var("x"), expr.Var("y")))
	require.True(t, ok)
	v, err := m.ValueOf(id, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestFailedSimulationLeavesLevelClean(t *testing.T) {
	x := expr.Var("x")
	a := expr.VarArray("a", 2)
	elem := expr.Element(x, a)
	m := newModel(t, 1, map[string]int64{"x": 0, "a[0]": 4, "a[1]": 5}, elem)

	err := m.Simulate(scenario.NewChanges().With(x, 2), 1)
	assert.True(t, tallyerr.HasCode(err, tallyerr.ElementIndexOutOfRange), err)
	state, _ := m.State(1)
	assert.Equal(t, scenario.Clean, state)

	err = m.Execute(scenario.NewChanges().With(x, 2))
	assert.True(t, tallyerr.HasCode(err, tallyerr.ElementIndexOutOfRange), err)
	assert.Equal(t, int64(4), value(t, m, elem, 0))
	assert.Equal(t, int64(0), value(t, m, x, 0))
}

func TestUpdate(t *testing.T) {
	x, y := expr.Var("x"), expr.Var("y")
	q, err := expr.Div(x, y)
	require.NoError(t, err)
	m := newModel(t, 1, map[string]int64{"x": 9, "y": 2}, q)

	require.NoError(t, m.Update(scenario.NewChanges().With(y, 3)))
	assert.Equal(t, int64(3), value(t, m, q, 0))

	err = m.Update(scenario.NewChanges().With(y, 0))
	assert.True(t, tallyerr.HasCode(err, tallyerr.DivisionByZero), err)

	// the next evaluation is a forced one and recovers
	require.NoError(t, m.AssignName("y", 9))
	require.NoError(t, m.Evaluate(false))
	assert.Equal(t, int64(1), value(t, m, q, 0))
}

func TestChangesArePersistent(t *testing.T) {
	base := scenario.NewChanges().Set("x", 1)
	a := base.Set("y", 2)
	b := base.Set("y", 3).Set("x", 4)

	assert.Equal(t, 1, base.Len())
	v, ok := a.Get("y")
	assert.True(t, ok)
	assert.Equal(t, int64(2), v)
	v, _ = b.Get("x")
	assert.Equal(t, int64(4), v)
	v, _ = base.Get("x")
	assert.Equal(t, int64(1), v)

	var zero scenario.Changes
	assert.Equal(t, 0, zero.Len())
	_, ok = zero.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 1, zero.Set("x", 1).Len())

	var names []string
	for name := range b.All() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"x", "y"}, names)
}

// reference evaluates objective from scratch for assignment
func reference(t *testing.T, gen *modelgen.Model, assignment map[string]int64) int64 {
	m := newModel(t, 0, assignment, gen.Objective)
	return value(t, m, gen.Objective, 0)
}

func apply(assignment, changes map[string]int64) map[string]int64 {
	next := make(map[string]int64, len(assignment))
	for name, v := range assignment {
		next[name] = v
	}
	for name, v := range changes {
		next[name] = v
	}
	return next
}

func TestRandomModels(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			cfg := modelgen.DefaultConfig()
			cfg.Vars, cfg.Terms, cfg.Seed = 8, 10, seed
			gen, err := modelgen.Generate(cfg)
			require.NoError(t, err)

			r := rand.New(rand.NewPCG(seed, 7))
			assignment := gen.Initial(r)
			m := newModel(t, 2, assignment, gen.Objective)

			for step := range 60 {
				move := gen.Move(r, 3)
				level := 1 + step%2
				require.NoError(t, m.Simulate(scenario.ChangesOf(move), level))
				want := reference(t, gen, apply(assignment, move))
				assert.Equal(t, want, value(t, m, gen.Objective, level), "step %d, move %v", step, move)

				if step%3 == 0 {
					require.NoError(t, m.Execute(scenario.ChangesOf(move)))
					assignment = apply(assignment, move)
					assert.Equal(t, want, value(t, m, gen.Objective, 0))
				}
			}
		})
	}
}

func TestConcurrentScenarioLevels(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := modelgen.DefaultConfig()
	cfg.Vars, cfg.Terms = 10, 15
	gen, err := modelgen.Generate(cfg)
	require.NoError(t, err)
	r := rand.New(rand.NewPCG(3, 4))
	assignment := gen.Initial(r)

	const k = 4
	m := newModel(t, k, assignment, gen.Objective)

	moves := make([]map[string]int64, k)
	wants := make([]int64, k)
	for i := range moves {
		moves[i] = gen.Move(r, 3)
		wants[i] = reference(t, gen, apply(assignment, moves[i]))
	}

	var g errgroup.Group
	got := make([]int64, k)
	for i := range k {
		g.Go(func() error {
			for range 20 {
				if err := m.Simulate(scenario.ChangesOf(moves[i]), i+1); err != nil {
					return err
				}
			}
			v, err := m.Value(gen.Objective, i+1)
			got[i] = v
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, wants, got)
}
