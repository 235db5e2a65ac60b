package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/diffsnap/internal/config"
	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/internal/paths"
)

var (
	initForce      bool
	initName       string
	initSource     string
	initBackupRoot string
	initSchedule   string
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing configuration")
	initCmd.Flags().StringVar(&initName, "name", "", "Name of the first target (default: base name of --source)")
	initCmd.Flags().StringVar(&initSource, "source", "", "Directory the first target backs up")
	initCmd.Flags().StringVar(&initBackupRoot, "backup-root", "", "Where the first target's snapshots live (default: under $XDG_DATA_HOME/diffsnap)")
	initCmd.Flags().StringVar(&initSchedule, "schedule", "", `Cron schedule for the first target, e.g. "@every 30m"`)
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration",
	Long: `Create a diffsnap configuration file.

Writes $XDG_CONFIG_HOME/diffsnap/config.yaml, or the file named by --config.
With --source the file defines a first target, which also becomes the
default target.`,
	Example: `  # Empty configuration
  diffsnap init

  # Configure a target for a game world
  diffsnap init --source ./world --backup-root ./backup

  # Replace an existing configuration
  diffsnap init --force --source ./world --schedule "@every 30m"

  See Also: diffsnap config, diffsnap doctor`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(_ *cobra.Command, _ []string) error {
	path := configFile
	if path == "" {
		path = paths.ConfigFile()
	}
	return runInitWithWriter(os.Stdout, path)
}

func runInitWithWriter(w io.Writer, path string) error {
	exists, err := paths.Exists(path)
	if err != nil {
		return err
	}
	if exists && !initForce {
		fmt.Fprintf(w, "Configuration already exists at %s\n", path)
		fmt.Fprintln(w, "Use --force to overwrite")
		return nil
	}

	cfg, err := starterConfig()
	if err != nil {
		return err
	}

	if err := writeConfig(path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "Created %s\n", path)
	if len(cfg.Targets) == 0 {
		fmt.Fprintln(w, "Add a target with: diffsnap config set targets.<name>.source <dir>")
		return nil
	}
	fmt.Fprintf(w, "Configured target %q; take a first backup with: diffsnap backup create\n", cfg.DefaultTargets[0])
	return nil
}

// starterConfig builds the configuration described by the init flags.
func starterConfig() (*config.Config, error) {
	cfg := config.Default()
	if initSource == "" {
		return cfg, nil
	}

	name := initName
	if name == "" {
		name = filepath.Base(filepath.Clean(initSource))
	}

	cfg.Targets[name] = config.Target{
		Source:     initSource,
		BackupRoot: initBackupRoot,
		Schedule:   initSchedule,
	}
	cfg.DefaultTargets = []string{name}

	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, errors.NewUserError(errs[0], "Check the --source, --backup-root and --schedule flags")
	}
	return cfg, nil
}
