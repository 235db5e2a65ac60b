package backup

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/thoreinstein/diffsnap/internal/backup"
	"github.com/thoreinstein/diffsnap/internal/cli/prompt"
	"github.com/thoreinstein/diffsnap/internal/errors"
)

var (
	restoreYes         bool
	restoreInteractive bool
)

// fuzzySelect picks a differential in --interactive mode.
var fuzzySelect = prompt.FuzzySelectDifferential

func init() {
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Do not ask for confirmation")
	restoreCmd.Flags().BoolVarP(&restoreInteractive, "interactive", "i", false, "Pick the snapshot with a fuzzy finder")
	Cmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore [name|LATEST]",
	Short: "Restore a snapshot",
	Long: `Replace a target's source directory with its baseline overlaid by a
differential snapshot.

Without a name the differentials are listed and you are asked to pick one.
LATEST selects the most recent differential. Exactly one target must be
selected.

The source directory is deleted and rewritten. When the target enables the
stash, its current contents are copied aside first and can be brought back
with diffsnap backup undo.`,
	Example: `  # Restore the most recent snapshot
  diffsnap backup restore LATEST --target world

  # Restore a specific snapshot without confirmation
  diffsnap backup restore diff_backup_20250312120000 -t world --yes

  # Pick a snapshot with a fuzzy finder
  diffsnap backup restore --interactive -t world

  See Also:
    diffsnap backup list - List snapshots
    diffsnap backup undo - Revert the last restore`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	if restoreInteractive && !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.NewUserError(errors.New("--interactive requires a terminal"), "Pass the snapshot name instead")
	}
	return runRestoreWithIO(cmd.Context(), args, os.Stdin, os.Stdout)
}

func runRestoreWithIO(ctx context.Context, args []string, r io.Reader, w io.Writer) error {
	t, err := singleTarget("restore")
	if err != nil {
		return err
	}

	eng := t.Engine(logger(ctx))
	selector := prompt.NewSelectorWithIO(r, w)

	var diff *backup.Differential
	if len(args) > 0 {
		diff, err = eng.Get(args[0])
	} else {
		diff, err = pick(eng, t.Name, selector)
	}
	if err != nil {
		return asUserError(err)
	}

	if !restoreYes {
		fmt.Fprintf(w, "This replaces %s with snapshot %s (%s).\n", eng.Source(), diff.Name, diff.Display())
		ok, err := selector.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(w, "Aborted")
			return nil
		}
	}

	if err := t.WithLock(func() error { return eng.Restore(diff.Name) }); err != nil {
		err = asUserError(errors.Wrapf(err, "restoring %s", t.Name))
		if errors.ExitCode(err) == errors.ExitSystem && eng.StashDir() != "" {
			return errors.NewSystemError(err, "Revert with: diffsnap backup undo -t "+t.Name)
		}
		return err
	}

	fmt.Fprintf(w, "%s Restored %s from %s\n", green("✓"), t.Name, diff.Name)
	if eng.StashDir() != "" {
		fmt.Fprintf(w, "  previous contents stashed in %s; revert with: diffsnap backup undo -t %s\n",
			eng.StashDir(), t.Name)
	}

	return nil
}

// pick asks the user to choose one of the engine's differentials.
func pick(eng *backup.Engine, target string, selector *prompt.Selector) (*backup.Differential, error) {
	diffs, err := eng.List()
	if err != nil {
		return nil, err
	}
	if len(diffs) == 0 {
		return nil, errors.Wrapf(backup.ErrNoDifferentials, "for %s", target)
	}

	if restoreInteractive {
		return fuzzySelect(diffs)
	}
	return selector.SelectDifferential(target, diffs)
}
