// Package editor launches the user's preferred text editor on the diffsnap
// configuration file.
package editor

import (
	"os"
	"os/exec"
	"strings"

	"github.com/thoreinstein/diffsnap/internal/errors"
)

// Open launches the user's preferred editor for the given path and waits
// for it to exit. The editor command may carry arguments, e.g.
// EDITOR="code --wait".
func Open(path string) error {
	cmd := Command(path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "running editor %s", cmd.Path)
	}

	return nil
}

// Command returns the editor invocation for path without starting it.
func Command(path string) *exec.Cmd {
	fields := strings.Fields(detectEditor())
	args := append(fields[1:], path)
	return exec.Command(fields[0], args...)
}

// detectEditor returns the editor command to use based on environment
// variables and available binaries. Fallback chain: $EDITOR, $VISUAL, nano, vi.
func detectEditor() string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}

	if _, err := exec.LookPath("nano"); err == nil {
		return "nano"
	}

	// POSIX fallback
	return "vi"
}
