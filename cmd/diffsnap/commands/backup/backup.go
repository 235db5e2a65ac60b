// Package backup provides CLI commands for managing differential snapshots.
package backup

import (
	"context"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/diffsnap/cmd/diffsnap/commands/flags"
	"github.com/thoreinstein/diffsnap/internal/backup"
	"github.com/thoreinstein/diffsnap/internal/cli"
	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/internal/logging"
)

// Output styles. fatih/color disables them when stdout is not a terminal.
var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	header = color.New(color.FgCyan, color.Bold).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Cmd is the root backup command.
var Cmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage differential snapshots",
	Long: `Manage the baseline and differential snapshots of configured targets.

Each target keeps one baseline copy of its source directory and a bounded
series of differential snapshots under its backup root. This command group
creates, lists, restores and prunes them.`,
	Example: `  # Create a differential snapshot for the default targets
  diffsnap backup create

  # List snapshots, newest first
  diffsnap backup list

  # Restore the newest snapshot
  diffsnap backup restore LATEST --target world

  # Pick a snapshot interactively
  diffsnap backup restore --interactive --target world

  # Keep only the 3 most recent differentials
  diffsnap backup prune --keep 3

  See Also:
    diffsnap backup baseline - Create the baseline snapshot
    diffsnap backup create   - Create a differential snapshot
    diffsnap backup list     - List snapshots
    diffsnap backup restore  - Restore a snapshot
    diffsnap backup prune    - Remove old snapshots
    diffsnap backup undo     - Revert the last restore`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// resolveTargets returns the targets selected for this invocation.
func resolveTargets() ([]cli.Target, error) {
	return cli.ResolveTargets(flags.Config(), flags.GetTargetFlag())
}

// singleTarget returns the one target a destructive command operates on.
// It refuses to guess when more than one target is selected.
func singleTarget(verb string) (cli.Target, error) {
	targets, err := resolveTargets()
	if err != nil {
		return cli.Target{}, err
	}
	if len(targets) != 1 {
		return cli.Target{}, errors.NewUserError(
			errors.Newf("%s requires exactly one target, got %d", verb, len(targets)),
			"Pass --target <name>",
		)
	}
	return targets[0], nil
}

// logger returns the command logger stored in ctx.
func logger(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	return logging.FromContext(ctx)
}

// asUserError attaches a suggestion to the not-found errors a user can fix.
func asUserError(err error) error {
	switch {
	case errors.Is(err, backup.ErrBaselineNotFound):
		return errors.NewUserError(err, "Run: diffsnap backup baseline")
	case errors.Is(err, backup.ErrNoDifferentials):
		return errors.NewUserError(err, "Run: diffsnap backup create")
	case errors.Is(err, backup.ErrDifferentialNotFound):
		return errors.NewUserError(err, "Run: diffsnap backup list")
	case errors.Is(err, backup.ErrNoStash):
		return errors.NewUserError(err, "Enable stash for the target, then restore again")
	default:
		return err
	}
}
