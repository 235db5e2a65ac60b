package config

import (
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/spf13/viper"

	"github.com/thoreinstein/diffsnap/internal/backup"
	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/internal/paths"
)

// AppName is the application name used for config file naming.
const AppName = paths.AppName

// EnvPrefix prefixes environment variables that override config keys.
const EnvPrefix = "DIFFSNAP"

// DefaultStashFolder names the stash directory when a target enables the
// stash without naming one.
const DefaultStashFolder = "restore_stash"

// Config represents the top-level configuration structure.
type Config struct {
	Version        int               `mapstructure:"version" yaml:"version" json:"version" toml:"version"`
	DefaultTargets []string          `mapstructure:"default_targets" yaml:"default_targets,omitempty" json:"default_targets,omitempty" toml:"default_targets,omitempty"`
	Targets        map[string]Target `mapstructure:"targets" yaml:"targets,omitempty" json:"targets,omitempty" toml:"targets,omitempty"`
}

// Target describes one source tree and where its snapshots live.
type Target struct {
	Source         string `mapstructure:"source" yaml:"source" json:"source" toml:"source"`
	BackupRoot     string `mapstructure:"backup_root" yaml:"backup_root,omitempty" json:"backup_root,omitempty" toml:"backup_root,omitempty"`
	BaselineFolder string `mapstructure:"baseline_folder" yaml:"baseline_folder,omitempty" json:"baseline_folder,omitempty" toml:"baseline_folder,omitempty"`
	DiffPrefix     string `mapstructure:"diff_prefix" yaml:"diff_prefix,omitempty" json:"diff_prefix,omitempty" toml:"diff_prefix,omitempty"`
	Retention      int    `mapstructure:"retention" yaml:"retention,omitempty" json:"retention,omitempty" toml:"retention,omitempty"`
	Schedule       string `mapstructure:"schedule" yaml:"schedule,omitempty" json:"schedule,omitempty" toml:"schedule,omitempty"`
	Stash          Stash  `mapstructure:"stash" yaml:"stash,omitempty" json:"stash,omitzero" toml:"stash,omitempty"`
}

// Stash configures the pre-restore copy of the source tree.
type Stash struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled" toml:"enabled"`
	Folder  string `mapstructure:"folder" yaml:"folder,omitempty" json:"folder,omitempty" toml:"folder,omitempty"`
	Prefix  string `mapstructure:"prefix" yaml:"prefix,omitempty" json:"prefix,omitempty" toml:"prefix,omitempty"`
	Keep    int    `mapstructure:"keep" yaml:"keep,omitempty" json:"keep,omitempty" toml:"keep,omitempty"`
}

// Default returns a configuration with no targets.
func Default() *Config {
	return &Config{
		Version: 1,
		Targets: map[string]Target{},
	}
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	// Config file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".") // Current directory
	viper.AddConfigPath(paths.ConfigDir())

	// Environment variable support
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("version", 1)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations.
// Returns the loaded configuration or default values if no file is found (when path is empty).
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case path != "" && (errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)):
			return nil, errors.Wrapf(errors.ErrNotFound, "config file %s", path)
		case errors.As(err, &notFound):
			// Implicit load without a file falls back to defaults.
		default:
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	if cfg.Targets == nil {
		cfg.Targets = map[string]Target{}
	}

	return &cfg, nil
}

// Path returns the file the configuration was read from, or the default
// location when no file was found.
func Path() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return paths.ConfigFile()
}

// TargetNames returns the configured target names in sorted order.
func (c *Config) TargetNames() []string {
	names := make([]string, 0, len(c.Targets))
	for name := range c.Targets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve returns the named target with defaults applied and its paths
// made absolute. The result is validated.
func (c *Config) Resolve(name string) (Target, error) {
	t, ok := c.Targets[name]
	if !ok {
		return Target{}, errors.Wrapf(errors.ErrUnknownTarget, "%q", name)
	}
	t = t.withDefaults(name)

	var err error
	if t.Source, err = paths.Expand(t.Source); err != nil {
		return Target{}, &TargetError{Target: name, Field: "source", Err: err}
	}
	if t.BackupRoot, err = paths.Expand(t.BackupRoot); err != nil {
		return Target{}, &TargetError{Target: name, Field: "backup_root", Err: err}
	}

	if errs := validateTarget(name, t); len(errs) > 0 {
		return Target{}, errs[0]
	}
	return t, nil
}

// withDefaults fills every unset field with its default value.
func (t Target) withDefaults(name string) Target {
	if t.BackupRoot == "" {
		t.BackupRoot = paths.DefaultBackupRoot(name)
	}
	if t.BaselineFolder == "" {
		t.BaselineFolder = backup.DefaultBaselineFolder
	}
	if t.DiffPrefix == "" {
		t.DiffPrefix = backup.DefaultDiffPrefix
	}
	if t.Retention == 0 {
		t.Retention = backup.DefaultRetention
	}
	if t.Stash.Enabled {
		if t.Stash.Folder == "" {
			t.Stash.Folder = DefaultStashFolder
		}
		if t.Stash.Prefix == "" {
			t.Stash.Prefix = t.Stash.Folder
		}
		if t.Stash.Keep == 0 {
			t.Stash.Keep = backup.DefaultStashKeep
		}
	}
	return t
}

// EngineOptions returns the backup engine options for a resolved target.
func (t Target) EngineOptions() []backup.Option {
	opts := []backup.Option{
		backup.WithBaselineFolder(t.BaselineFolder),
		backup.WithDiffPrefix(t.DiffPrefix),
		backup.WithRetention(t.Retention),
	}
	if t.Stash.Enabled {
		opts = append(opts, backup.WithStash(t.Stash.Folder, t.Stash.Prefix, t.Stash.Keep))
	}
	return opts
}

// LockPath returns the lock file guarding a resolved target's backup root.
func (t Target) LockPath() string {
	return filepath.Join(t.BackupRoot, ".diffsnap.lock")
}
