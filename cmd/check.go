package cmd

import (
	"fmt"
	"github.com/cottand/tally/scenario"
	"github.com/cottand/tally/tallyerr"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:          "check",
	Short:        "Check incremental evaluation against full evaluation on a random model",
	RunE:         runCheck,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
}

var (
	checkFlags        *modelFlags
	checkExecuteEvery *int
)

func init() {
	checkFlags = addModelFlags(CheckCmd)
	checkExecuteEvery = CheckCmd.Flags().Int("execute-every", 10, "commit every nth move into level 0")
}

// mismatch is reported when a simulated value differs from a from-scratch evaluation
type mismatch struct {
	move  int
	level int
	got   int64
	want  int64
}

func (m mismatch) Error() string {
	return fmt.Sprintf("move %d at level %d: incremental value %d, full evaluation %d", m.move, m.level, m.got, m.want)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	g, err := checkFlags.generate()
	if err != nil {
		return err
	}
	k := g.model.Levels()
	if k == 0 {
		return errors.New("check needs at least one scenario level")
	}

	var errs *tallyerr.Errors
	for i := range *checkFlags.moves {
		move := g.Move(g.rand, *checkFlags.moveSize)
		level := 1 + i%k
		if err := g.model.Simulate(scenario.ChangesOf(move), level); err != nil {
			return errors.Wrapf(err, "simulating move %d", i)
		}
		got, err := g.model.Value(g.Objective, level)
		if err != nil {
			return err
		}
		want, err := g.fromScratch(withMove(g.assignment, move))
		if err != nil {
			return errors.Wrapf(err, "evaluating move %d from scratch", i)
		}
		if got != want {
			errs = errs.With(tallyerr.New(tallyerr.Unclassified{From: mismatch{move: i, level: level, got: got, want: want}}))
		}

		if *checkExecuteEvery > 0 && i%*checkExecuteEvery == 0 {
			if err := g.model.Execute(scenario.ChangesOf(move)); err != nil {
				return errors.Wrapf(err, "executing move %d", i)
			}
			g.assignment = withMove(g.assignment, move)
			committed, err := g.model.Value(g.Objective, 0)
			if err != nil {
				return err
			}
			if committed != want {
				errs = errs.With(tallyerr.New(tallyerr.Unclassified{From: mismatch{move: i, level: 0, got: committed, want: want}}))
			}
		}
	}
	if errs.HasError() {
		logger.Error("incremental evaluation diverged", "errors", errs)
		return errs
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok: %d moves over %d scenario levels agree with full evaluation\n", *checkFlags.moves, k)
	return nil
}
