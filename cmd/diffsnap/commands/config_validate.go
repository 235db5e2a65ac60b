package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/diffsnap/cmd/diffsnap/commands/flags"
	"github.com/thoreinstein/diffsnap/internal/config"
	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/internal/validator"
)

var (
	validateJSON    bool
	validateVerbose bool
	validateStrict  bool
)

func init() {
	configValidateCmd.Flags().BoolVar(&validateJSON, "json", false, "output as JSON")
	configValidateCmd.Flags().BoolVar(&validateVerbose, "verbose", false, "include notes")
	configValidateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat warnings as errors")
	configCmd.AddCommand(configValidateCmd)
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for mistakes",
	Long: `Validate the loaded configuration without touching any backup root.

Errors make a target unusable. Warnings point at settings that work but
probably do not do what was intended, such as a source directory that does
not exist yet or a retention of 1.

Exit codes:
  0  no errors (and no warnings with --strict)
  1  errors, or warnings with --strict`,
	Example: `  # Validate the configuration
  diffsnap config validate

  # Include notes about disabled stash and missing schedules
  diffsnap config validate --verbose

  # For scripts
  diffsnap config validate --json --strict

See Also: diffsnap doctor, diffsnap config set`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func runConfigValidate(_ *cobra.Command, _ []string) error {
	return runConfigValidateWithWriter(os.Stdout, flags.Config())
}

func runConfigValidateWithWriter(w io.Writer, cfg *config.Config) error {
	result := validator.Config(cfg)

	format := validator.FormatText
	if validateJSON {
		format = validator.FormatJSON
	}
	if err := validator.NewReporter(w, format).WithVerbose(validateVerbose).Report(result); err != nil {
		return err
	}

	if err := result.Err(); err != nil {
		return errors.NewConfigError(err)
	}
	if validateStrict && result.HasWarnings() {
		return errors.NewUserError(
			errors.Wrapf(errors.ErrInvalidConfig, "%d configuration warning(s)", len(result.Warnings())),
			"Fix the warnings or run without --strict")
	}
	return nil
}
