package backup

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/diffsnap/internal/errors"
)

func init() {
	Cmd.AddCommand(baselineCmd)
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Create the baseline snapshot",
	Long: `Copy each target's source directory into its baseline folder.

An existing baseline is left untouched. diffsnap backup create also creates
the baseline on first use, so this command is only needed to take the
baseline ahead of time.`,
	Example: `  # Create baselines for the default targets
  diffsnap backup baseline

  # Create the baseline for one target
  diffsnap backup baseline --target world`,
	RunE: runBaseline,
}

func runBaseline(cmd *cobra.Command, _ []string) error {
	return runBaselineWithWriter(cmd.Context(), os.Stdout)
}

func runBaselineWithWriter(ctx context.Context, w io.Writer) error {
	targets, err := resolveTargets()
	if err != nil {
		return err
	}

	for _, t := range targets {
		eng := t.Engine(logger(ctx))

		var existed bool
		err := t.WithLock(func() error {
			var err error
			if existed, err = eng.HasBaseline(); err != nil {
				return err
			}
			return eng.CreateBaseline()
		})
		if err != nil {
			return errors.Wrapf(err, "creating baseline for %s", t.Name)
		}

		if existed {
			fmt.Fprintf(w, "%s: baseline already exists at %s\n", t.Name, gray(eng.BaselineDir()))
			continue
		}
		fmt.Fprintf(w, "%s %s: created baseline %s\n", green("✓"), t.Name, eng.BaselineDir())
	}

	return nil
}
