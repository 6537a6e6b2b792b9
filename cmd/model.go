package cmd

import (
	"github.com/cottand/tally/graph"
	"github.com/cottand/tally/internal/log"
	"github.com/cottand/tally/internal/modelgen"
	"github.com/cottand/tally/scenario"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"log/slog"
	"math/rand/v2"
)

var logger = log.DefaultLogger.With("section", "cmd")

// modelFlags are shared by every subcommand that works on a generated model
type modelFlags struct {
	cfg      modelgen.Config
	levels   *int
	moves    *int
	moveSize *int
	logLevel *int
}

func addModelFlags(c *cobra.Command) *modelFlags {
	def := modelgen.DefaultConfig()
	f := &modelFlags{}
	flags := c.Flags()
	flags.IntVar(&f.cfg.Vars, "vars", def.Vars, "number of variables")
	flags.IntVar(&f.cfg.Terms, "terms", def.Terms, "number of cost terms")
	flags.IntVar(&f.cfg.Depth, "depth", def.Depth, "maximum height of a cost term")
	flags.IntVar(&f.cfg.Arity, "arity", def.Arity, "maximum operands of n-ary operators")
	flags.Int64Var(&f.cfg.Domain, "domain", def.Domain, "number of values a variable may take")
	flags.Uint64Var(&f.cfg.Seed, "seed", def.Seed, "random seed")
	f.levels = flags.IntP("levels", "k", 4, "number of scenario levels")
	f.moves = flags.IntP("moves", "n", 1000, "number of moves to simulate")
	f.moveSize = flags.Int("move-size", 2, "maximum variables changed by a move")
	f.logLevel = flags.IntP("log-level", "l", int(slog.LevelError), "log level")
	return f
}

// generated is a model compiled into a fresh store and evaluated at level 0
type generated struct {
	*modelgen.Model
	model      *scenario.Model
	rand       *rand.Rand
	assignment map[string]int64
}

func (f *modelFlags) generate() (*generated, error) {
	log.SetLevel(slog.Level(*f.logLevel))

	gen, err := modelgen.Generate(f.cfg)
	if err != nil {
		return nil, err
	}
	store := graph.NewStore()
	if _, err := store.Compile(gen.Objective); err != nil {
		return nil, errors.Wrap(err, "could not compile generated model")
	}
	g := &generated{
		Model: gen,
		model: scenario.New(store, *f.levels),
		rand:  rand.New(rand.NewPCG(f.cfg.Seed, 1)),
	}
	g.assignment = gen.Initial(g.rand)
	for name, v := range g.assignment {
		if err := g.model.AssignName(name, v); err != nil {
			return nil, err
		}
	}
	if err := g.model.Evaluate(false); err != nil {
		return nil, errors.Wrap(err, "could not evaluate initial assignment")
	}
	logger.Info("generated model", "nodes", store.Len(), "variables", len(gen.Vars), "seed", f.cfg.Seed)
	return g, nil
}

// fromScratch evaluates the objective for assignment in a new store
func (g *generated) fromScratch(assignment map[string]int64) (int64, error) {
	store := graph.NewStore()
	id, err := store.Compile(g.Objective)
	if err != nil {
		return 0, err
	}
	level := graph.NewLevel(0, nil)
	for name, v := range assignment {
		varID, ok := store.Variable(name)
		if !ok {
			return 0, errors.Errorf("variable %s is not part of the model", name)
		}
		level.Set(varID, v)
	}
	if _, err := store.Evaluate(level, false); err != nil {
		return 0, err
	}
	return level.Value(store, id)
}

func withMove(assignment, move map[string]int64) map[string]int64 {
	next := make(map[string]int64, len(assignment))
	for name, v := range assignment {
		next[name] = v
	}
	for name, v := range move {
		next[name] = v
	}
	return next
}
