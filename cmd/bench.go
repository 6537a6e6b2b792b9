package cmd

import (
	"fmt"
	"github.com/cottand/tally/scenario"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"math/rand/v2"
	"time"
)

var BenchCmd = &cobra.Command{
	Use:          "bench",
	Short:        "Measure simulated moves per second against full re-evaluation",
	RunE:         runBench,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
}

var benchFlags *modelFlags

func init() {
	benchFlags = addModelFlags(BenchCmd)
}

func runBench(cmd *cobra.Command, _ []string) error {
	g, err := benchFlags.generate()
	if err != nil {
		return err
	}
	k := g.model.Levels()
	if k == 0 {
		return errors.New("bench needs at least one scenario level")
	}
	moves := *benchFlags.moves
	out := cmd.OutOrStdout()

	// reference: a full evaluation in a fresh store per move
	start := time.Now()
	for range moves {
		if _, err := g.fromScratch(withMove(g.assignment, g.Move(g.rand, *benchFlags.moveSize))); err != nil {
			return err
		}
	}
	full := time.Since(start)
	_, _ = fmt.Fprintf(out, "full evaluation:  %d moves in %v (%.0f moves/s)\n", moves, full, rate(moves, full))

	// one worker per scenario level, each with its own random source
	group, ctx := errgroup.WithContext(cmd.Context())
	start = time.Now()
	for level := 1; level <= k; level++ {
		r := rand.New(rand.NewPCG(benchFlags.cfg.Seed, uint64(level)))
		group.Go(func() error {
			for i := level - 1; i < moves; i += k {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := g.model.Simulate(scenario.ChangesOf(g.Move(r, *benchFlags.moveSize)), level); err != nil {
					return errors.Wrapf(err, "simulating at level %d", level)
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	simulated := time.Since(start)
	_, _ = fmt.Fprintf(out, "simulate (k=%d): %d moves in %v (%.0f moves/s)\n", k, moves, simulated, rate(moves, simulated))
	logger.Info("bench done", "full", full, "simulated", simulated)
	return nil
}

func rate(moves int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(moves) / d.Seconds()
}
