package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thoreinstein/diffsnap/cmd/diffsnap/commands/flags"
	"github.com/thoreinstein/diffsnap/internal/config"
	"github.com/thoreinstein/diffsnap/internal/editor"
	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/internal/paths"
	"github.com/thoreinstein/diffsnap/pkg/fileutil"
)

var configFormat string

// targetFields lists the keys settable under targets.<name>.
var targetFields = []string{
	"source", "backup_root", "baseline_folder", "diff_prefix", "retention", "schedule",
	"stash.enabled", "stash.folder", "stash.prefix", "stash.keep",
}

func init() {
	configListCmd.Flags().StringVar(&configFormat, "format", string(fileutil.FormatYAML),
		"output format: yaml, json, toml")
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage diffsnap configuration",
	Long: `Manage diffsnap configuration stored in config.yaml.

The file is read from --config, ./config.yaml, or
$XDG_CONFIG_HOME/diffsnap/config.yaml. Without a subcommand, lists all
configuration values.`,
	Example: `  # List all configuration
  diffsnap config

  # Get a specific value
  diffsnap config get targets.world.retention

  # Set a value
  diffsnap config set targets.world.retention 20

See Also: diffsnap config validate, diffsnap init, diffsnap doctor`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a single configuration value by key.

Supports dot notation for nested keys. Array values are printed one per line.`,
	Example: `  # Get the source of a target
  diffsnap config get targets.world.source

  # Get default targets
  diffsnap config get default_targets

See Also: diffsnap config set, diffsnap config list`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and write the configuration file.

Settable keys are version, default_targets (comma-separated) and
targets.<name>.<field> where field is one of:
  ` + strings.Join(targetFields, ", ") + `

Setting a field of an unknown target creates the target. The resulting
configuration is validated before it is written.`,
	Example: `  # Add a target
  diffsnap config set targets.world.source ./world

  # Back it up every 30 minutes
  diffsnap config set targets.world.schedule "@every 30m"

  # Set default targets
  diffsnap config set default_targets world,commands

See Also: diffsnap config get, diffsnap config list`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	Long:  `List all configuration values in YAML, JSON or TOML format.`,
	Example: `  # List all configuration
  diffsnap config list

  # As TOML
  diffsnap config list --format toml

See Also: diffsnap config get, diffsnap config set`,
	RunE: runConfigList,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in $EDITOR",
	Long: `Open the configuration file in your default editor.

Uses $EDITOR, then $VISUAL, then nano or vi. If no configuration file
exists, prints an error suggesting to run 'diffsnap init'.`,
	Example: `  # Open config in default editor
  diffsnap config edit

  # Open with specific editor
  EDITOR=nano diffsnap config edit

See Also: diffsnap config list, diffsnap init`,
	RunE: runConfigEdit,
}

func runConfigGet(_ *cobra.Command, args []string) error {
	return runConfigGetWithWriter(os.Stdout, args[0])
}

func runConfigGetWithWriter(w io.Writer, key string) error {
	if !viper.IsSet(key) {
		fmt.Fprintln(w, "not set")
		return nil
	}

	switch v := viper.Get(key).(type) {
	case []any:
		// Array values - print one per line
		for _, item := range v {
			fmt.Fprintln(w, item)
		}
	case []string:
		for _, item := range v {
			fmt.Fprintln(w, item)
		}
	case map[string]any:
		data, err := fileutil.Marshal(v, fileutil.FormatYAML)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(data))
	default:
		// Scalar values
		fmt.Fprintln(w, viper.GetString(key))
	}

	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	return runConfigSetWithWriter(os.Stdout, config.Path(), args[0], args[1])
}

func runConfigSetWithWriter(w io.Writer, path, key, value string) error {
	parsed, err := parseConfigValue(key, value)
	if err != nil {
		return err
	}

	viper.Set(key, parsed)

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return errors.Wrap(err, "unmarshaling config")
	}
	if cfg.Targets == nil {
		cfg.Targets = map[string]config.Target{}
	}
	if errs := config.Validate(&cfg); len(errs) > 0 {
		return errors.NewUserError(
			errors.Wrapf(errs[0], "refusing to write %s", path),
			"Fix the value and run the command again",
		)
	}

	if err := writeConfig(path, &cfg); err != nil {
		return err
	}
	flags.SetConfig(&cfg)

	fmt.Fprintf(w, "Set %s = %v\n", key, parsed)
	return nil
}

// parseConfigValue converts value to the type stored under key.
func parseConfigValue(key, value string) (any, error) {
	if key != "version" && key != "default_targets" {
		name, field, ok := splitTargetKey(key)
		if !ok {
			return nil, errors.NewUserError(
				errors.Newf("unknown key %q", key),
				"Settable keys: version, default_targets, targets.<name>.<field>",
			)
		}
		if !slices.Contains(targetFields, field) {
			return nil, errors.NewUserError(
				errors.Newf("unknown field %q for target %q", field, name),
				"Valid fields: "+strings.Join(targetFields, ", "),
			)
		}
	}

	switch {
	case key == "default_targets":
		return parseList(value), nil
	case key == "version", strings.HasSuffix(key, ".retention"), strings.HasSuffix(key, ".keep"):
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, errors.NewUserError(errors.Newf("%s must be an integer, got %q", key, value), "")
		}
		return n, nil
	case strings.HasSuffix(key, ".enabled"):
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, errors.NewUserError(errors.Newf("%s must be true or false, got %q", key, value), "")
		}
		return b, nil
	default:
		return value, nil
	}
}

// splitTargetKey splits "targets.<name>.<field>" into name and field.
func splitTargetKey(key string) (name, field string, ok bool) {
	rest, found := strings.CutPrefix(key, "targets.")
	if !found {
		return "", "", false
	}
	name, field, found = strings.Cut(rest, ".")
	if !found || name == "" || field == "" {
		return "", "", false
	}
	return name, field, true
}

// parseList splits a comma-separated string into its non-empty items.
func parseList(s string) []string {
	var items []string
	for item := range strings.SplitSeq(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func runConfigList(_ *cobra.Command, _ []string) error {
	return runConfigListWithWriter(os.Stdout)
}

func runConfigListWithWriter(w io.Writer) error {
	format, err := fileutil.ParseFormat(configFormat)
	if err != nil {
		return errors.NewUserError(err, "valid formats: yaml, json, toml")
	}

	data, err := fileutil.Marshal(flags.Config(), format)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	fmt.Fprint(w, string(data))
	return nil
}

func runConfigEdit(_ *cobra.Command, _ []string) error {
	path := config.Path()

	exists, err := paths.Exists(path)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewUserError(
			errors.Wrapf(errors.ErrNotFound, "config file %s", path),
			"Run: diffsnap init",
		)
	}

	return editor.Open(path)
}

// writeConfig writes cfg to path as YAML, creating the parent directory.
func writeConfig(path string, cfg *config.Config) error {
	if err := paths.EnsureDir(filepath.Dir(path), paths.DefaultDirPerm); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	if err := fileutil.AtomicWriteYAML(path, cfg); err != nil {
		return errors.Wrap(err, "writing config file")
	}
	return nil
}
