package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thoreinstein/diffsnap/internal/errors"
)

func TestResolveHome(t *testing.T) {
	got, err := ResolveHome()
	want, _ := os.UserHomeDir()

	if err != nil {
		// This might happen in some restricted environments,
		// but normally should succeed.
		if !errors.Is(err, ErrHomeDirNotFound) {
			t.Errorf("unexpected error type: %v", err)
		}
	} else if got != want {
		t.Errorf("ResolveHome() = %q, want %q", got, want)
	}
}

func TestBaseDirs(t *testing.T) {
	tests := []struct {
		name string
		fn   func() string
		tail string
	}{
		{"ConfigHome", ConfigHome, ""},
		{"DataHome", DataHome, ""},
		{"ConfigDir", ConfigDir, AppName},
		{"ConfigFile", ConfigFile, filepath.Join(AppName, ConfigFileName)},
		{"DataDir", DataDir, AppName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn()
			if !filepath.IsAbs(got) {
				t.Errorf("%s() = %q, want absolute path", tt.name, got)
			}
			if !strings.HasSuffix(got, tt.tail) {
				t.Errorf("%s() = %q, want suffix %q", tt.name, got, tt.tail)
			}
		})
	}
}

func TestDefaultBackupRoot(t *testing.T) {
	got := DefaultBackupRoot("world")
	want := filepath.Join(DataDir(), "backups", "world")
	if got != want {
		t.Errorf("DefaultBackupRoot() = %q, want %q", got, want)
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	if err := EnsureDir(dir, 0); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("EnsureDir() did not create a directory")
	}

	// Idempotent.
	if err := EnsureDir(dir, 0o755); err != nil {
		t.Errorf("second EnsureDir() error = %v", err)
	}
}

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"tilde alone", "~", home, false},
		{"tilde prefix", "~/worlds/main", filepath.Join(home, "worlds", "main"), false},
		{"relative", "backup", filepath.Join(wd, "backup"), false},
		{"dot relative", "./plugins/../backup", filepath.Join(wd, "backup"), false},
		{"absolute", filepath.Join(wd, "x"), filepath.Join(wd, "x"), false},
		{"tilde user untouched", "~other", filepath.Join(wd, "~other"), false},
		{"empty", "", "", true},
		{"null byte", "a\x00b", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPath) {
					t.Errorf("Expand(%q) error = %v, want ErrInvalidPath", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expand(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWithin(t *testing.T) {
	base := t.TempDir()
	world := filepath.Join(base, "world")

	tests := []struct {
		name  string
		child string
		want  bool
	}{
		{"same", world, true},
		{"nested", filepath.Join(world, "backup"), true},
		{"sibling", filepath.Join(base, "backup"), false},
		{"prefix sibling", filepath.Join(base, "world2"), false},
		{"parent", base, false},
		{"dotdot named child", filepath.Join(world, "..backup"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Within(world, tt.child); got != tt.want {
				t.Errorf("Within(%q, %q) = %v, want %v", world, tt.child, got, tt.want)
			}
		})
	}
}
