// Package flags provides shared flag accessors for CLI commands.
// This package exists to avoid import cycles between the root command
// and noun subpackages (backup, etc.).
package flags

import "github.com/thoreinstein/diffsnap/internal/config"

// targetFlag holds the value of the --target flag.
var targetFlag []string

// loaded holds the configuration read by the root command.
var loaded *config.Config

// GetTargetFlag returns the current value of the --target flag.
func GetTargetFlag() []string {
	return targetFlag
}

// SetTargetFlag sets the target flag value.
// This is used by the root command after parsing and by tests.
func SetTargetFlag(targets []string) {
	targetFlag = targets
}

// Config returns the configuration loaded for this invocation, or an empty
// configuration when none was loaded.
func Config() *config.Config {
	if loaded == nil {
		return config.Default()
	}
	return loaded
}

// SetConfig records the configuration loaded for this invocation.
func SetConfig(cfg *config.Config) {
	loaded = cfg
}
