// Package modelgen builds random, well-formed models for self-checks and benchmarks.
package modelgen

import (
	"fmt"
	"github.com/cottand/tally/expr"
	"github.com/hashicorp/go-set/v3"
	"math/rand/v2"
)

type Config struct {
	// Vars is the number of decision variables
	Vars int
	// Terms is the number of cost terms summed into the objective
	Terms int
	// Depth bounds the height of each term
	Depth int
	// Arity bounds the number of operands of n-ary operators
	Arity int
	// Domain is the number of values a variable may take, centred around 0
	Domain int64
	Seed   uint64
}

func DefaultConfig() Config {
	return Config{Vars: 20, Terms: 30, Depth: 4, Arity: 4, Domain: 7, Seed: 1}
}

// Model is a generated set of cost terms over Vars
type Model struct {
	Config
	Vars      []*expr.Node
	Terms     []*expr.Node
	Objective *expr.Node
	rand      *rand.Rand
}

// Generate is deterministic for a given Config.
//
// Divisors and element indices are built so that evaluation can never fail,
// whatever the values of the variables.
func Generate(cfg Config) (*Model, error) {
	if cfg.Vars <= 0 || cfg.Terms <= 0 || cfg.Arity < 2 || cfg.Domain <= 0 {
		return nil, fmt.Errorf("invalid model configuration %+v", cfg)
	}
	m := &Model{
		Config: cfg,
		rand:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
	for i := range cfg.Vars {
		m.Vars = append(m.Vars, expr.Var(fmt.Sprintf("v%d", i)))
	}
	for range cfg.Terms {
		term, err := m.term(cfg.Depth)
		if err != nil {
			return nil, err
		}
		m.Terms = append(m.Terms, term)
	}
	m.Objective = expr.Sum(m.Terms...)
	return m, nil
}

// term returns a random expression of height at most depth
func (m *Model) term(depth int) (*expr.Node, error) {
	r := m.rand
	if depth <= 0 || r.IntN(5) == 0 {
		if r.IntN(4) == 0 {
			return expr.Const(r.Int64N(2*m.Domain) - m.Domain), nil
		}
		return m.Vars[r.IntN(len(m.Vars))], nil
	}
	operands := func(n int) ([]*expr.Node, error) {
		ops := make([]*expr.Node, n)
		for i := range ops {
			op, err := m.term(depth - 1)
			if err != nil {
				return nil, err
			}
			ops[i] = op
		}
		return ops, nil
	}
	nary := 2 + r.IntN(m.Arity-1)

	switch r.IntN(12) {
	case 0, 1:
		ops, err := operands(nary)
		return expr.Sum(ops...), err
	case 2:
		ops, err := operands(2)
		if err != nil {
			return nil, err
		}
		return expr.Product(clamp(ops[0]), clamp(ops[1])), nil
	case 3:
		ops, err := operands(nary)
		if err != nil {
			return nil, err
		}
		return expr.Min(ops...), nil
	case 4:
		ops, err := operands(nary)
		if err != nil {
			return nil, err
		}
		return expr.Max(ops...), nil
	case 5:
		ops, err := operands(2)
		if err != nil {
			return nil, err
		}
		// never zero
		divisor := expr.Sum(expr.Abs(ops[1]), expr.Const(1))
		if r.IntN(2) == 0 {
			return expr.Div(ops[0], divisor)
		}
		return expr.Mod(ops[0], divisor)
	case 6:
		ops, err := operands(2)
		if err != nil {
			return nil, err
		}
		switch r.IntN(4) {
		case 0:
			return expr.Eq(ops[0], ops[1]), nil
		case 1:
			return expr.Ne(ops[0], ops[1]), nil
		case 2:
			return expr.Le(ops[0], ops[1]), nil
		default:
			return expr.Lt(ops[0], ops[1]), nil
		}
	case 7:
		return expr.AllDifferent(m.distinctVars(nary)...), nil
	case 8:
		ops, err := operands(1)
		if err != nil {
			return nil, err
		}
		return expr.Abs(ops[0]), nil
	case 9:
		ops, err := operands(nary + 1)
		if err != nil {
			return nil, err
		}
		index, err := expr.Mod(expr.Abs(ops[0]), expr.Const(int64(nary)))
		if err != nil {
			return nil, err
		}
		return expr.ElementOf(index, ops[1:]...), nil
	case 10:
		ops, err := operands(3)
		if err != nil {
			return nil, err
		}
		return expr.IfThenElse(expr.Lt(ops[0], ops[1]), ops[1], ops[2]), nil
	default:
		ops, err := operands(1)
		if err != nil {
			return nil, err
		}
		return expr.Product(expr.Const(r.Int64N(5)+1), clamp(ops[0])), nil
	}
}

// productBound bounds the operands of generated products, so that no
// product of a generated model can overflow
const productBound = 1 << 15

func clamp(n *expr.Node) *expr.Node {
	return expr.Max(expr.Min(n, expr.Const(productBound)), expr.Const(-productBound))
}

// distinctVars picks up to n different variables
func (m *Model) distinctVars(n int) []*expr.Node {
	n = min(n, len(m.Vars))
	picked := set.New[int](n)
	for picked.Size() < n {
		picked.Insert(m.rand.IntN(len(m.Vars)))
	}
	vars := make([]*expr.Node, 0, n)
	for i := range picked.Items() {
		vars = append(vars, m.Vars[i])
	}
	return vars
}

// Value returns a random value of a variable's domain
func (m *Model) Value(r *rand.Rand) int64 {
	return r.Int64N(m.Domain) - m.Domain/2
}

// Initial returns a random assignment of every variable
func (m *Model) Initial(r *rand.Rand) map[string]int64 {
	assignment := make(map[string]int64, len(m.Vars))
	for _, v := range m.Vars {
		assignment[v.Name()] = m.Value(r)
	}
	return assignment
}

// Move returns new random values for between 1 and maxVars distinct variables,
// like a local search move would
func (m *Model) Move(r *rand.Rand, maxVars int) map[string]int64 {
	n := 1 + r.IntN(max(1, min(maxVars, len(m.Vars))))
	picked := set.New[int](n)
	for picked.Size() < n {
		picked.Insert(r.IntN(len(m.Vars)))
	}
	move := make(map[string]int64, n)
	for i := range picked.Items() {
		move[m.Vars[i].Name()] = m.Value(r)
	}
	return move
}
