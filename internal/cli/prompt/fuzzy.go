package prompt

import (
	"fmt"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/thoreinstein/diffsnap/internal/backup"
	"github.com/thoreinstein/diffsnap/internal/errors"
)

// FuzzySelectDifferential opens a full-screen fuzzy finder over diffs,
// newest first. It requires a terminal. Aborting returns
// ErrSelectionCancelled.
func FuzzySelectDifferential(diffs []backup.Differential) (*backup.Differential, error) {
	if len(diffs) == 0 {
		return nil, ErrNoChoices
	}

	newestFirst := make([]backup.Differential, len(diffs))
	for i, d := range diffs {
		newestFirst[len(diffs)-1-i] = d
	}

	idx, err := fuzzyfinder.Find(
		newestFirst,
		func(i int) string {
			return fmt.Sprintf("%s  %s", newestFirst[i].Display(), newestFirst[i].Name)
		},
		fuzzyfinder.WithPromptString("restore> "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return preview(newestFirst[i])
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, ErrSelectionCancelled
		}
		return nil, errors.Wrap(err, "interactive selection failed")
	}

	return &newestFirst[idx], nil
}

// preview renders the details pane for one differential.
func preview(d backup.Differential) string {
	created := "unknown"
	if !d.CreatedAt.IsZero() {
		created = backup.FormatDisplay(d.CreatedAt)
	}
	return fmt.Sprintf("Name:    %s\nCreated: %s\nPath:    %s", d.Name, created, d.Path)
}
