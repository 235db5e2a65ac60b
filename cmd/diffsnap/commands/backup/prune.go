package backup

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/diffsnap/internal/errors"
)

var pruneKeep int

func init() {
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", 0,
		"Number of differentials to retain per target (default: the target's retention)")
	Cmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old differential snapshots",
	Long: `Remove the oldest differential snapshots beyond a retention count.

By default each target keeps as many differentials as its configured
retention. Use --keep to specify a different count. The baseline is never
removed.`,
	Example: `  # Prune the default targets down to their retention
  diffsnap backup prune

  # Keep only the 3 most recent differentials
  diffsnap backup prune --keep 3

  # Remove every differential of one target
  diffsnap backup prune --keep 0 --target world

  See Also:
    diffsnap backup list   - List snapshots
    diffsnap backup create - Create a differential snapshot`,
	RunE: runPrune,
}

func runPrune(cmd *cobra.Command, _ []string) error {
	keep := -1
	if cmd.Flags().Changed("keep") {
		keep = pruneKeep
		if keep < 0 {
			return errors.NewUserError(errors.New("--keep must be non-negative"), "Pass --keep 0 to remove every differential")
		}
	}
	return runPruneWithWriter(cmd.Context(), os.Stdout, keep)
}

// runPruneWithWriter prunes every selected target down to keep
// differentials. A negative keep uses each target's retention.
func runPruneWithWriter(ctx context.Context, w io.Writer, keep int) error {
	targets, err := resolveTargets()
	if err != nil {
		return err
	}

	pruned := 0
	for _, t := range targets {
		eng := t.Engine(logger(ctx))

		n := keep
		if n < 0 {
			n = eng.Retention()
		}

		var removed []string
		err := t.WithLock(func() error {
			var err error
			removed, err = eng.Prune(n)
			return err
		})
		if err != nil {
			return errors.Wrapf(err, "pruning %s", t.Name)
		}
		if len(removed) == 0 {
			continue
		}

		fmt.Fprintf(w, "%s %s: removed %d old differential(s)\n", green("✓"), t.Name, len(removed))
		pruned += len(removed)
	}

	if pruned == 0 {
		fmt.Fprintln(w, "No differentials to prune")
	} else {
		fmt.Fprintf(w, "\nTotal: removed %d differential(s)\n", pruned)
	}

	return nil
}
