package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/thoreinstein/diffsnap/cmd/diffsnap/commands/flags"
	"github.com/thoreinstein/diffsnap/internal/config"
)

// useConfig installs cfg as the loaded configuration for one test.
func useConfig(t *testing.T, cfg *config.Config, targets ...string) {
	t.Helper()
	origCfg := flags.Config()
	origTargets := flags.GetTargetFlag()
	t.Cleanup(func() {
		flags.SetConfig(origCfg)
		flags.SetTargetFlag(origTargets)
	})
	flags.SetConfig(cfg)
	flags.SetTargetFlag(targets)
}

// loadConfigFile writes content to a temporary config.yaml, loads it through
// viper and installs the result.
func loadConfigFile(t *testing.T, content string) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	config.Init()
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	useConfig(t, cfg)
	return path
}

// worldDirs creates a source tree with one file and returns it with a
// backup root path that does not exist yet.
func worldDirs(t *testing.T) (source, root string) {
	t.Helper()
	dir := t.TempDir()
	source = filepath.Join(dir, "world")
	root = filepath.Join(dir, "backup")
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(source, "level.dat"), []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	return source, root
}
