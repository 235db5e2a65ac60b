package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thoreinstein/diffsnap/internal/errors"
)

func resetInitFlags(t *testing.T) {
	t.Helper()
	force, name, source, root, sched := initForce, initName, initSource, initBackupRoot, initSchedule
	t.Cleanup(func() {
		initForce, initName, initSource, initBackupRoot, initSchedule = force, name, source, root, sched
	})
	initForce, initName, initSource, initBackupRoot, initSchedule = false, "", "", "", ""
}

func TestInit_Empty(t *testing.T) {
	resetInitFlags(t)
	path := filepath.Join(t.TempDir(), "diffsnap", "config.yaml")

	var buf bytes.Buffer
	if err := runInitWithWriter(&buf, path); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(buf.String(), "Created "+path) {
		t.Errorf("unexpected output: %s", buf.String())
	}

	cfg := readConfigFile(t, path)
	if cfg.Version != 1 || len(cfg.Targets) != 0 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestInit_WithSource(t *testing.T) {
	resetInitFlags(t)
	source, root := worldDirs(t)
	initSource = source
	initBackupRoot = root
	initSchedule = "@every 30m"
	path := filepath.Join(t.TempDir(), "config.yaml")

	var buf bytes.Buffer
	if err := runInitWithWriter(&buf, path); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(buf.String(), `Configured target "world"`) {
		t.Errorf("unexpected output: %s", buf.String())
	}

	cfg := readConfigFile(t, path)
	target, ok := cfg.Targets["world"]
	if !ok {
		t.Fatalf("target world missing: %+v", cfg)
	}
	if target.Source != source || target.BackupRoot != root || target.Schedule != "@every 30m" {
		t.Errorf("unexpected target: %+v", target)
	}
	if len(cfg.DefaultTargets) != 1 || cfg.DefaultTargets[0] != "world" {
		t.Errorf("default_targets = %v", cfg.DefaultTargets)
	}
}

func TestInit_ExistingWithoutForce(t *testing.T) {
	resetInitFlags(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := runInitWithWriter(&buf, path); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(buf.String(), "Use --force to overwrite") {
		t.Errorf("unexpected output: %s", buf.String())
	}
	if data, _ := os.ReadFile(path); string(data) != "version: 2\n" {
		t.Errorf("config overwritten: %s", data)
	}

	initForce = true
	if err := runInitWithWriter(&buf, path); err != nil {
		t.Fatalf("init --force: %v", err)
	}
	if cfg := readConfigFile(t, path); cfg.Version != 1 {
		t.Errorf("version = %d after --force, want 1", cfg.Version)
	}
}

func TestInit_InvalidFlags(t *testing.T) {
	resetInitFlags(t)
	source, _ := worldDirs(t)
	initSource = source
	initSchedule = "whenever"
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := runInitWithWriter(&bytes.Buffer{}, path)
	if !errors.Is(err, errors.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got: %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("config written despite invalid flags")
	}
}
