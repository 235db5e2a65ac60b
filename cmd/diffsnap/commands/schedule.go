package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/diffsnap/cmd/diffsnap/commands/flags"
	"github.com/thoreinstein/diffsnap/internal/cli"
	"github.com/thoreinstein/diffsnap/internal/config"
	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/internal/logging"
)

// errNoSchedules is returned when no selected target has a schedule.
var errNoSchedules = errors.Wrap(errors.ErrInvalidConfig, "no target has a schedule")

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run backups on each target's schedule",
	Long: `Run differential backups in the foreground on each target's cron
schedule until interrupted.

Schedules use the standard 5-field cron syntax or descriptors such as
@hourly and @every 30m. A backup that is still running when its target is
due again is skipped. Without --target every target with a schedule runs.`,
	Example: `  # Run all scheduled targets
  diffsnap schedule

  # Run one target, logging each backup
  diffsnap schedule -t world -v`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runScheduleWithWriter(ctx, os.Stdout)
}

func runScheduleWithWriter(ctx context.Context, w io.Writer) error {
	targets, err := scheduledTargets(flags.Config(), flags.GetTargetFlag())
	if err != nil {
		return err
	}

	logger := logging.FromContext(ctx)
	c, ids, err := newScheduler(targets, logger)
	if err != nil {
		return err
	}

	c.Start()
	for i, id := range ids {
		fmt.Fprintf(w, "%s: %s, next run %s\n", targets[i].Name, targets[i].Schedule,
			c.Entry(id).Next.Format("2006-01-02 15:04:05"))
	}
	logger.Info("scheduler started", "targets", len(targets))

	<-ctx.Done()

	logger.Info("stopping scheduler, waiting for running backups")
	<-c.Stop().Done()
	return nil
}

// scheduledTargets resolves the targets to schedule. Without names it
// selects every configured target that has a schedule.
func scheduledTargets(cfg *config.Config, names []string) ([]cli.Target, error) {
	if len(names) == 0 {
		for _, name := range cfg.TargetNames() {
			if cfg.Targets[name].Schedule != "" {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			return nil, errors.NewConfigError(errNoSchedules)
		}
	}

	targets, err := cli.ResolveTargets(cfg, names)
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		if t.Schedule == "" {
			return nil, errors.NewUserError(
				errors.Wrapf(errNoSchedules, "target %q", t.Name),
				fmt.Sprintf("Run: diffsnap config set targets.%s.schedule \"@every 1h\"", t.Name),
			)
		}
	}
	return targets, nil
}

// newScheduler registers one backup job per target and returns the entry
// IDs in target order.
func newScheduler(targets []cli.Target, logger *slog.Logger) (*cron.Cron, []cron.EntryID, error) {
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	ids := make([]cron.EntryID, 0, len(targets))
	for _, t := range targets {
		sched, err := config.ParseSchedule(t.Schedule)
		if err != nil {
			return nil, nil, errors.NewConfigError(errors.Wrapf(err, "target %q", t.Name))
		}
		ids = append(ids, c.Schedule(sched, cron.FuncJob(func() {
			if err := scheduledBackup(t, logger); err != nil {
				logger.Error("scheduled backup failed", logging.TargetKey, t.Name, "error", err)
			}
		})))
	}
	return c, ids, nil
}

// scheduledBackup takes one differential backup of t under its lock.
func scheduledBackup(t cli.Target, logger *slog.Logger) error {
	eng := t.Engine(logger)
	return t.WithLock(func() error {
		diff, err := eng.Backup()
		if err != nil {
			return err
		}
		logger.Info("scheduled backup completed", logging.TargetKey, t.Name, "name", diff.Name, "files", len(diff.Files))
		return nil
	})
}

// cronLogger routes cron's internal logging to slog. Routine scheduler
// messages are logged at debug level.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
