// Package logging provides structured logging for the diffsnap CLI using slog.
//
// The package supports both text and JSON output formats, configurable log
// levels, and helpers for testing. All loggers are based on the standard
// library's [log/slog] package.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//		Level:  logging.LevelFromVerbosity(verbose),
//		Format: logging.FormatText,
//		Output: os.Stderr,
//	})
//	logger.Info("differential backup completed", "name", diff.Name)
//
// Text output is colorized on terminals. A Config.File writer receives a
// JSON copy of every record at Config.FileLevel, which lets a scheduled run
// keep a complete log while the terminal stays quiet.
//
// # Levels
//
// [LevelTrace] sits below Debug. The CLI maps -v, -vv and -vvv to Info,
// Debug and Trace through [LevelFromVerbosity].
//
// # Context
//
// Commands carry their logger in the context with [NewContext] and fetch it
// with [FromContext].
//
// # Testing
//
// For tests, use [ForTest] to capture log output via the testing framework:
//
//	func TestSomething(t *testing.T) {
//		logger := logging.ForTest(t)
//		// logs appear in test output on failure
//	}
package logging
