// Package prompt provides interactive CLI prompts for user input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/thoreinstein/diffsnap/internal/backup"
	"github.com/thoreinstein/diffsnap/internal/errors"
)

// Sentinel errors for snapshot selection.
var (
	ErrNoChoices          = errors.Wrap(errors.ErrNotFound, "nothing to select from")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Selector handles interactive selection and confirmation prompts.
type Selector struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewSelector creates a new Selector using stdin and stdout.
func NewSelector() *Selector {
	return NewSelectorWithIO(os.Stdin, os.Stdout)
}

// NewSelectorWithIO creates a Selector with custom reader and writer for testing.
func NewSelectorWithIO(r io.Reader, w io.Writer) *Selector {
	return &Selector{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// SelectDifferential prompts the user to choose a differential snapshot.
// diffs are listed newest first and an empty answer picks the newest.
//
// Returns:
//   - ErrNoChoices if the list is empty
//   - The selected differential based on user input
//   - ErrInvalidSelection if the selection is out of range
//   - ErrSelectionCancelled if input is EOF (e.g., Ctrl+D)
func (s *Selector) SelectDifferential(target string, diffs []backup.Differential) (*backup.Differential, error) {
	if len(diffs) == 0 {
		return nil, ErrNoChoices
	}

	newestFirst := make([]backup.Differential, len(diffs))
	for i, d := range diffs {
		newestFirst[len(diffs)-1-i] = d
	}

	fmt.Fprintf(s.writer, "Differential backups for %s:\n", target)
	for i, d := range newestFirst {
		fmt.Fprintf(s.writer, "  [%d] %s  %s\n", i+1, d.Display(), d.Name)
	}
	fmt.Fprintf(s.writer, "Select [1]: ")

	input, err := s.readLine()
	if err != nil {
		return nil, err
	}

	// Default to the newest
	if input == "" {
		return &newestFirst[0], nil
	}

	selection, err := strconv.Atoi(input)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSelection, "%q is not a number", input)
	}

	// Validate range (1-indexed)
	if selection < 1 || selection > len(newestFirst) {
		return nil, errors.Wrapf(ErrInvalidSelection, "%d is out of range [1-%d]", selection, len(newestFirst))
	}

	return &newestFirst[selection-1], nil
}

// Confirm asks a yes/no question. An empty answer returns false; EOF
// cancels.
func (s *Selector) Confirm(question string) (bool, error) {
	fmt.Fprintf(s.writer, "%s [y/N]: ", question)

	input, err := s.readLine()
	if err != nil {
		return false, err
	}

	switch strings.ToLower(input) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (s *Selector) readLine() (string, error) {
	input, err := s.reader.ReadString('\n')
	if err != nil {
		// A final line without newline still counts.
		if errors.Is(err, io.EOF) && input != "" {
			return strings.TrimSpace(input), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrSelectionCancelled
		}
		return "", errors.Wrap(err, "reading input")
	}
	return strings.TrimSpace(input), nil
}
