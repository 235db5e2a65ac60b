// Package errors provides error handling conventions for the diffsnap CLI.
//
// It re-exports the [github.com/cockroachdb/errors] helpers used across the
// module (New, Newf, Wrap, Wrapf, Is, As, ...) so that packages import a
// single errors package, and it defines sentinel errors, an ExitError type
// for CLI exit code handling, and exit code constants following standard
// Unix conventions.
//
// # Sentinel Errors
//
// Sentinel errors allow callers to check for specific error conditions
// using [Is]:
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    // baseline, differential or stash is missing
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (unknown snapshot, configuration, lock held)
//   - ExitSystem (2): System-related error (I/O, permissions, disk full)
//
// [ExitCode] classifies an arbitrary error chain into one of these codes.
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional suggestion:
//
//	err := errors.NewUserError(errors.ErrInvalidConfig, "Check your config file")
//	var exitErr *errors.ExitError
//	if errors.As(err, &exitErr) {
//	    if exitErr.Suggestion != "" {
//	        fmt.Println("Suggestion:", exitErr.Suggestion)
//	    }
//	    os.Exit(exitErr.Code)
//	}
package errors
