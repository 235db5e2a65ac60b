package backup

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/diffsnap/internal/backup"
	"github.com/thoreinstein/diffsnap/internal/errors"
)

func init() {
	Cmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a differential snapshot",
	Long: `Capture every file that is new or differs from the baseline into a new
differential snapshot named after the current time.

The baseline is created first when missing. When the number of
differentials has reached the target's retention, the oldest are removed
before the new one is written. Files deleted from the source are not
recorded.`,
	Example: `  # Back up the default targets
  diffsnap backup create

  # Back up specific targets
  diffsnap backup create -t world -t commands

  See Also:
    diffsnap backup list    - List snapshots
    diffsnap backup restore - Restore a snapshot`,
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, _ []string) error {
	return runCreateWithWriter(cmd.Context(), os.Stdout)
}

func runCreateWithWriter(ctx context.Context, w io.Writer) error {
	targets, err := resolveTargets()
	if err != nil {
		return err
	}

	for _, t := range targets {
		eng := t.Engine(logger(ctx))

		var diff *backup.Differential
		err := t.WithLock(func() error {
			var err error
			diff, err = eng.Backup()
			return err
		})
		if err != nil {
			return errors.Wrapf(err, "backing up %s", t.Name)
		}

		if len(diff.Files) == 0 {
			fmt.Fprintf(w, "%s %s: created %s %s\n", green("✓"), t.Name, diff.Name, yellow("(no changes)"))
			continue
		}
		fmt.Fprintf(w, "%s %s: created %s (%d files)\n", green("✓"), t.Name, diff.Name, len(diff.Files))
	}

	return nil
}
