package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/diffsnap/cmd"
	"github.com/thoreinstein/diffsnap/cmd/diffsnap/commands/flags"
	"github.com/thoreinstein/diffsnap/internal/backup"
	"github.com/thoreinstein/diffsnap/internal/config"
	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/internal/lock"
	"github.com/thoreinstein/diffsnap/internal/logging"
	"github.com/thoreinstein/diffsnap/internal/paths"
)

var (
	statusJSON  bool
	statusQuiet bool
)

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	statusCmd.Flags().BoolVar(&statusQuiet, "quiet", false, "one summary line per target")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show an overview of every target",
	Long: `Show the state of each configured target: whether its source and
baseline exist, how many differentials it holds against its retention,
the most recent snapshot, its schedule and whether it is locked.

Output modes (mutually exclusive):
  (default)   Table with one row per target
  --quiet     One summary line per target
  --json      Machine-readable JSON output`,
	Example: `  # Overview of all targets
  diffsnap status

  # JSON output for scripting
  diffsnap status --json`,
	PreRunE: validateStatusFlags,
	RunE:    runStatus,
}

// validateStatusFlags ensures output flags are mutually exclusive.
func validateStatusFlags(_ *cobra.Command, _ []string) error {
	if statusJSON && statusQuiet {
		return errors.NewUserError(errors.New("flags --json and --quiet are mutually exclusive"), "Pass only one output mode")
	}
	return nil
}

func runStatus(_ *cobra.Command, _ []string) error {
	return runStatusWithWriter(os.Stdout)
}

// targetStatus holds the collected status for a single target.
type targetStatus struct {
	Name          string     `json:"name"`
	Source        string     `json:"source"`
	SourceExists  bool       `json:"source_exists"`
	BackupRoot    string     `json:"backup_root"`
	Baseline      bool       `json:"baseline"`
	Differentials int        `json:"differentials"`
	Retention     int        `json:"retention"`
	Latest        string     `json:"latest,omitempty"`
	LatestAt      *time.Time `json:"latest_at,omitempty"`
	Stashes       int        `json:"stashes"`
	Schedule      string     `json:"schedule,omitempty"`
	Locked        bool       `json:"locked"`
	Error         string     `json:"error,omitempty"`
}

type statusJSONOutput struct {
	Version string         `json:"version"`
	Config  string         `json:"config"`
	Targets []targetStatus `json:"targets"`
}

// runStatusWithWriter allows injecting a writer for testing.
func runStatusWithWriter(w io.Writer) error {
	cfg := flags.Config()

	names := flags.GetTargetFlag()
	if len(names) == 0 {
		names = cfg.TargetNames()
	}

	statuses := make([]targetStatus, 0, len(names))
	for _, name := range names {
		statuses = append(statuses, collectTargetStatus(cfg, name))
	}

	switch {
	case statusJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		out := statusJSONOutput{Version: cmd.Info().Version, Config: config.Path(), Targets: statuses}
		return errors.Wrap(enc.Encode(out), "encoding JSON")
	case statusQuiet:
		outputStatusQuiet(w, statuses)
	default:
		outputStatusTable(w, statuses)
	}
	return nil
}

// collectTargetStatus gathers the status of one target. Problems are
// recorded in the Error field rather than returned.
func collectTargetStatus(cfg *config.Config, name string) targetStatus {
	status := targetStatus{Name: name}

	t, err := cfg.Resolve(name)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Source = t.Source
	status.BackupRoot = t.BackupRoot
	status.Schedule = t.Schedule
	status.Retention = t.Retention

	if status.SourceExists, err = paths.Exists(t.Source); err != nil {
		status.Error = err.Error()
		return status
	}

	eng := backup.NewEngine(t.Source, t.BackupRoot, append(t.EngineOptions(), backup.WithLogger(logging.NewDiscard()))...)
	if status.Baseline, err = eng.HasBaseline(); err != nil {
		status.Error = err.Error()
		return status
	}

	diffs, err := eng.List()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Differentials = len(diffs)
	if len(diffs) > 0 {
		latest := diffs[len(diffs)-1]
		status.Latest = latest.Name
		if !latest.CreatedAt.IsZero() {
			status.LatestAt = &latest.CreatedAt
		}
	}

	if stashes, err := eng.Stashes(); err == nil {
		status.Stashes = len(stashes)
	}
	if held, err := lock.Held(t.LockPath()); err == nil {
		status.Locked = held
	}
	return status
}

func outputStatusQuiet(w io.Writer, statuses []targetStatus) {
	for _, s := range statuses {
		if s.Error != "" {
			fmt.Fprintf(w, "%s: error: %s\n", s.Name, s.Error)
			continue
		}
		fmt.Fprintf(w, "%s: %d/%d differentials, baseline %s\n", s.Name, s.Differentials, s.Retention, yesNo(s.Baseline))
	}
}

func outputStatusTable(w io.Writer, statuses []targetStatus) {
	if len(statuses) == 0 {
		fmt.Fprintln(w, "No targets configured")
		fmt.Fprintln(w, "Run: diffsnap init --source <dir>")
		return
	}

	bold := color.New(color.Bold).SprintFunc()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		bold("TARGET"), bold("BASELINE"), bold("DIFFERENTIALS"), bold("LATEST"), bold("SCHEDULE"))

	for _, s := range statuses {
		if s.Error != "" {
			fmt.Fprintf(tw, "%s\t%s\t\t\t\n", s.Name, color.RedString("error: "+s.Error))
			continue
		}

		baseline := color.GreenString("present")
		if !s.Baseline {
			baseline = color.YellowString("missing")
		}
		latest := "-"
		if s.LatestAt != nil {
			latest = backup.FormatDisplay(*s.LatestAt)
		} else if s.Latest != "" {
			latest = s.Latest
		}
		schedule := s.Schedule
		if schedule == "" {
			schedule = "-"
		}
		name := s.Name
		if s.Locked {
			name += " (locked)"
		}
		if !s.SourceExists {
			name += " (source missing)"
		}

		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\n", name, baseline, s.Differentials, s.Retention, latest, schedule)
	}
	tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "present"
	}
	return "missing"
}
