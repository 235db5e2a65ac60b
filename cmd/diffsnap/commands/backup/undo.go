package backup

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/diffsnap/internal/backup"
	"github.com/thoreinstein/diffsnap/internal/cli/prompt"
	"github.com/thoreinstein/diffsnap/internal/errors"
)

var undoYes bool

func init() {
	undoCmd.Flags().BoolVarP(&undoYes, "yes", "y", false, "Do not ask for confirmation")
	Cmd.AddCommand(undoCmd)
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Revert the last restore",
	Long: `Replace a target's source directory with the copy stashed by the most
recent restore.

Requires the stash to be enabled for the target. The stash copy is kept, so
undo can be repeated.`,
	Example: `  # Revert the last restore of the world target
  diffsnap backup undo --target world`,
	Args: cobra.NoArgs,
	RunE: runUndo,
}

func runUndo(cmd *cobra.Command, _ []string) error {
	return runUndoWithIO(cmd.Context(), os.Stdin, os.Stdout)
}

func runUndoWithIO(ctx context.Context, r io.Reader, w io.Writer) error {
	t, err := singleTarget("undo")
	if err != nil {
		return err
	}

	eng := t.Engine(logger(ctx))

	stashes, err := eng.Stashes()
	if err != nil {
		return errors.Wrapf(err, "listing stashes for %s", t.Name)
	}
	if len(stashes) == 0 {
		return asUserError(errors.Wrapf(backup.ErrNoStash, "for %s", t.Name))
	}
	latest := stashes[len(stashes)-1]

	if !undoYes {
		fmt.Fprintf(w, "This replaces %s with stash %s.\n", eng.Source(), latest)
		ok, err := prompt.NewSelectorWithIO(r, w).Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(w, "Aborted")
			return nil
		}
	}

	var used string
	err = t.WithLock(func() error {
		var err error
		used, err = eng.Undo()
		return err
	})
	if err != nil {
		return asUserError(errors.Wrapf(err, "undoing restore of %s", t.Name))
	}

	fmt.Fprintf(w, "%s Reverted %s to stash %s\n", green("✓"), t.Name, used)
	return nil
}
