// Package commands implements the CLI commands for diffsnap.
package commands

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/diffsnap/cmd"
	"github.com/thoreinstein/diffsnap/cmd/diffsnap/commands/backup"
	"github.com/thoreinstein/diffsnap/cmd/diffsnap/commands/flags"
	"github.com/thoreinstein/diffsnap/internal/config"
	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/internal/logging"
)

// targetFlag holds the value of the --target flag.
var targetFlag []string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// configFile holds the value of the --config flag.
var configFile string

// configLoadErr holds any error that occurred during config loading.
var configLoadErr error

// skipConfigCheck lists commands that run without a valid configuration.
var skipConfigCheck = []string{"help", "version", "init", "doctor", "gen-doc", "edit"}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringSliceVarP(&targetFlag, "target", "t", nil,
		"target(s) to operate on (default: default_targets, or the only target)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./config.yaml or $XDG_CONFIG_HOME/diffsnap/config.yaml)")

	rootCmd.Version = cmd.Info().Version
	rootCmd.SetVersionTemplate("diffsnap version {{.Version}}\n")

	// Silence errors and usage so main controls error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(backup.Cmd)
}

func initConfig() {
	config.Init()
	cfg, err := config.Load(configFile)
	configLoadErr = err
	if err == nil {
		flags.SetConfig(cfg)
	}
}

var rootCmd = &cobra.Command{
	Use:   "diffsnap",
	Short: "Differential snapshots of a directory tree",
	Long: `diffsnap keeps one full baseline copy of a directory and a bounded
series of differential snapshots next to it. Each differential holds only
the files that are new or changed since the baseline, so any snapshot can
be restored by laying it over the baseline.

Directories are configured as named targets in config.yaml. Use the
--target flag to select targets, or omit it to use default_targets.`,
	Example: `  # Write a starter configuration
  diffsnap init --name world --source ./world

  # Take a differential backup
  diffsnap backup create

  # Restore the newest snapshot
  diffsnap backup restore LATEST -t world

  # Check configuration and backup roots
  diffsnap doctor

  See Also: diffsnap init, diffsnap doctor, diffsnap config`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging first
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return validateTargetFlag(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(errors.New("conflicting flags"), "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv("DIFFSNAP_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	format := logging.Format(logFormat)
	if format != logging.FormatText && format != logging.FormatJSON {
		return errors.NewUserError(errors.Newf("invalid log format %q", logFormat), "valid formats: text, json")
	}

	cfg := logging.Config{
		Level:     level,
		Format:    format,
		Output:    cmd.ErrOrStderr(),
		FileLevel: level,
	}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		cfg.File = f
	}

	logger := logging.New(cfg)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// validateTargetFlag checks that the configuration loaded and every
// requested target exists.
func validateTargetFlag(cmd *cobra.Command, _ []string) error {
	flags.SetTargetFlag(targetFlag)

	if slices.Contains(skipConfigCheck, cmd.Name()) {
		return nil
	}

	if configLoadErr != nil {
		return errors.NewConfigError(configLoadErr)
	}

	if len(targetFlag) == 0 {
		return nil
	}

	cfg := flags.Config()
	var unknown []string
	for _, name := range targetFlag {
		if _, ok := cfg.Targets[name]; !ok {
			unknown = append(unknown, name)
		}
	}

	if len(unknown) > 0 {
		err := errors.Wrapf(errors.ErrUnknownTarget, "%s (configured: %s)",
			strings.Join(unknown, ", "),
			strings.Join(cfg.TargetNames(), ", "))
		return errors.NewUserError(err, "Run 'diffsnap config list' to see configured targets")
	}

	return nil
}

// GetTargetFlag returns the current value of the --target flag.
func GetTargetFlag() []string {
	return targetFlag
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
