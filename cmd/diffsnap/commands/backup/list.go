package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/diffsnap/internal/backup"
	"github.com/thoreinstein/diffsnap/internal/cli"
	"github.com/thoreinstein/diffsnap/internal/errors"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	Cmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots",
	Long: `List the baseline and differential snapshots of each selected target.

Differentials are shown with the most recent first.`,
	Example: `  # List snapshots for the default targets
  diffsnap backup list

  # List snapshots for one target
  diffsnap backup list --target world

  # Output as JSON
  diffsnap backup list --json

  See Also:
    diffsnap backup restore - Restore a snapshot
    diffsnap backup create  - Create a differential snapshot`,
	RunE: runList,
}

// listOutput represents one target in the JSON output of backup list.
type listOutput struct {
	Target        string       `json:"target"`
	Source        string       `json:"source"`
	BackupRoot    string       `json:"backup_root"`
	Baseline      bool         `json:"baseline"`
	Retention     int          `json:"retention"`
	Differentials []diffOutput `json:"differentials"`
}

// diffOutput represents a single differential in JSON output.
type diffOutput struct {
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	Path      string     `json:"path"`
}

func runList(cmd *cobra.Command, _ []string) error {
	return runListWithWriter(cmd.Context(), os.Stdout)
}

func runListWithWriter(ctx context.Context, w io.Writer) error {
	targets, err := resolveTargets()
	if err != nil {
		return err
	}

	output := make([]listOutput, 0, len(targets))
	for _, t := range targets {
		out, err := collect(ctx, t)
		if err != nil {
			return err
		}
		output = append(output, out)
	}

	if listJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(output), "encoding output")
	}
	outputListTabular(w, output)
	return nil
}

// collect gathers the snapshots of one target, newest first.
func collect(ctx context.Context, t cli.Target) (listOutput, error) {
	eng := t.Engine(logger(ctx))

	hasBaseline, err := eng.HasBaseline()
	if err != nil {
		return listOutput{}, errors.Wrapf(err, "checking baseline for %s", t.Name)
	}
	diffs, err := eng.List()
	if err != nil {
		return listOutput{}, errors.Wrapf(err, "listing differentials for %s", t.Name)
	}
	slices.Reverse(diffs)

	out := listOutput{
		Target:        t.Name,
		Source:        eng.Source(),
		BackupRoot:    eng.Root(),
		Baseline:      hasBaseline,
		Retention:     eng.Retention(),
		Differentials: make([]diffOutput, 0, len(diffs)),
	}
	for _, d := range diffs {
		item := diffOutput{Name: d.Name, Path: d.Path}
		if !d.CreatedAt.IsZero() {
			created := d.CreatedAt
			item.CreatedAt = &created
		}
		out.Differentials = append(out.Differentials, item)
	}
	return out, nil
}

func outputListTabular(w io.Writer, output []listOutput) {
	for i, t := range output {
		// Blank line between targets (but not before first)
		if i > 0 {
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "%s\n", header("Target: "+t.Target))
		fmt.Fprintf(w, "  source:   %s\n", t.Source)
		if t.Baseline {
			fmt.Fprintf(w, "  baseline: %s\n", green("present"))
		} else {
			fmt.Fprintf(w, "  baseline: %s\n", yellow("missing"))
		}

		if len(t.Differentials) == 0 {
			fmt.Fprintf(w, "  %s\n", gray("(no differential backups)"))
			continue
		}

		fmt.Fprintf(w, "  differentials: %d of %d\n", len(t.Differentials), t.Retention)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  %s\t%s\n", bold("NAME"), bold("CREATED"))
		for _, d := range t.Differentials {
			created := "unknown"
			if d.CreatedAt != nil {
				created = backup.FormatDisplay(*d.CreatedAt)
			}
			fmt.Fprintf(tw, "  %s\t%s\n", d.Name, created)
		}
		tw.Flush()
	}
}
