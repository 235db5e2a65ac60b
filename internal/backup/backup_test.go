package backup

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/thoreinstein/diffsnap/internal/errors"
)

const (
	testSource = "/data/world"
	testRoot   = "/data/backups"
)

// fakeClock hands out successive timestamps one minute apart.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 12, 12, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(time.Minute)
	return now
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	clock := newFakeClock()
	opts = append([]Option{WithFs(fsys), WithClock(clock.Now)}, opts...)
	return NewEngine(testSource, testRoot, opts...), fsys
}

func write(t *testing.T, fsys afero.Fs, path, content string) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// tree returns every regular file below root mapped to its contents.
func tree(t *testing.T, fsys afero.Fs, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", root, err)
	}
	return files
}

func assertTree(t *testing.T, fsys afero.Fs, root string, want map[string]string) {
	t.Helper()
	got := tree(t, fsys, root)
	if len(got) != len(want) {
		t.Errorf("%s has %d files %v, want %d %v", root, len(got), got, len(want), want)
		return
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s/%s = %q, want %q", root, k, got[k], v)
		}
	}
}

func TestCreateBaseline(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/a.txt", "1")
	write(t, fsys, testSource+"/b.txt", "2")

	if err := eng.CreateBaseline(); err != nil {
		t.Fatalf("CreateBaseline() error = %v", err)
	}
	assertTree(t, fsys, eng.BaselineDir(), map[string]string{"a.txt": "1", "b.txt": "2"})

	ok, err := eng.HasBaseline()
	if err != nil || !ok {
		t.Errorf("HasBaseline() = %v, %v, want true, nil", ok, err)
	}
}

func TestCreateBaseline_Idempotent(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/a.txt", "1")

	if err := eng.CreateBaseline(); err != nil {
		t.Fatal(err)
	}
	write(t, fsys, testSource+"/a.txt", "changed")
	write(t, fsys, testSource+"/new.txt", "new")

	if err := eng.CreateBaseline(); err != nil {
		t.Fatalf("second CreateBaseline() error = %v", err)
	}
	assertTree(t, fsys, eng.BaselineDir(), map[string]string{"a.txt": "1"})
}

func TestCreateBaseline_MissingSource(t *testing.T) {
	eng, _ := newTestEngine(t)
	if err := eng.CreateBaseline(); err == nil {
		t.Fatal("CreateBaseline() expected error for missing source")
	}
	ok, _ := eng.HasBaseline()
	if ok {
		t.Error("baseline should not exist after failed creation")
	}
}

func TestBackup_CapturesNewAndChangedFiles(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/a.txt", "1")
	write(t, fsys, testSource+"/b.txt", "2")
	if err := eng.CreateBaseline(); err != nil {
		t.Fatal(err)
	}

	write(t, fsys, testSource+"/a.txt", "1-changed")
	write(t, fsys, testSource+"/c/d.txt", "3")

	diff, err := eng.Backup()
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	if diff.Name != "diff_backup_20250312120000" {
		t.Errorf("Name = %q, want diff_backup_20250312120000", diff.Name)
	}
	if diff.Path != filepath.Join(testRoot, diff.Name) {
		t.Errorf("Path = %q", diff.Path)
	}
	if want := []string{"a.txt", "c/d.txt"}; !slices.Equal(diff.Files, want) {
		t.Errorf("Files = %v, want %v", diff.Files, want)
	}
	assertTree(t, fsys, diff.Path, map[string]string{"a.txt": "1-changed", "c/d.txt": "3"})
	assertTree(t, fsys, eng.BaselineDir(), map[string]string{"a.txt": "1", "b.txt": "2"})
}

func TestBackup_CreatesMissingBaseline(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/a.txt", "1")

	diff, err := eng.Backup()
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	assertTree(t, fsys, eng.BaselineDir(), map[string]string{"a.txt": "1"})
	assertTree(t, fsys, diff.Path, map[string]string{})

	ok, err := afero.DirExists(fsys, diff.Path)
	if err != nil || !ok {
		t.Error("unchanged source should still produce an empty differential directory")
	}
}

func TestBackup_SameSizeDifferentBytes(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/level.dat", "abcd")
	if err := eng.CreateBaseline(); err != nil {
		t.Fatal(err)
	}
	write(t, fsys, testSource+"/level.dat", "abce")

	diff, err := eng.Backup()
	if err != nil {
		t.Fatal(err)
	}
	assertTree(t, fsys, diff.Path, map[string]string{"level.dat": "abce"})
}

func TestBackup_BaselineDirectoryWhereFileNow(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/x/inner.txt", "i")
	if err := eng.CreateBaseline(); err != nil {
		t.Fatal(err)
	}

	if err := fsys.RemoveAll(testSource + "/x"); err != nil {
		t.Fatal(err)
	}
	write(t, fsys, testSource+"/x", "now a file")
	write(t, fsys, testSource+"/x2/inner.txt", "i")

	diff, err := eng.Backup()
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	assertTree(t, fsys, diff.Path, map[string]string{"x": "now a file", "x2/inner.txt": "i"})
}

func TestBackup_DoesNotRecordDeletions(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/a.txt", "1")
	write(t, fsys, testSource+"/b.txt", "2")
	if err := eng.CreateBaseline(); err != nil {
		t.Fatal(err)
	}

	if err := fsys.Remove(testSource + "/b.txt"); err != nil {
		t.Fatal(err)
	}
	diff, err := eng.Backup()
	if err != nil {
		t.Fatal(err)
	}
	assertTree(t, fsys, diff.Path, map[string]string{})

	if err := eng.Restore(diff.Name); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	// The deleted file comes back from the baseline.
	assertTree(t, fsys, testSource, map[string]string{"a.txt": "1", "b.txt": "2"})
}

func TestBackup_SameSecondSharesDirectory(t *testing.T) {
	fixed := time.Date(2025, 3, 12, 12, 0, 0, 0, time.Local)
	fsys := afero.NewMemMapFs()
	eng := NewEngine(testSource, testRoot, WithFs(fsys), WithClock(func() time.Time { return fixed }))

	write(t, fsys, testSource+"/a.txt", "1")
	if err := eng.CreateBaseline(); err != nil {
		t.Fatal(err)
	}

	write(t, fsys, testSource+"/a.txt", "first")
	d1, err := eng.Backup()
	if err != nil {
		t.Fatal(err)
	}
	write(t, fsys, testSource+"/a.txt", "second")
	write(t, fsys, testSource+"/b.txt", "b")
	d2, err := eng.Backup()
	if err != nil {
		t.Fatal(err)
	}

	if d1.Name != d2.Name {
		t.Errorf("names differ: %s vs %s", d1.Name, d2.Name)
	}
	assertTree(t, fsys, d2.Path, map[string]string{"a.txt": "second", "b.txt": "b"})

	diffs, err := eng.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(diffs) != 1 {
		t.Errorf("List() returned %d differentials, want 1", len(diffs))
	}
}

func TestBackup_ReadOnlyRootSurfacesError(t *testing.T) {
	base := afero.NewMemMapFs()
	write(t, base, testSource+"/a.txt", "1")
	eng := NewEngine(testSource, testRoot, WithFs(afero.NewReadOnlyFs(base)))

	_, err := eng.Backup()
	if err == nil {
		t.Fatal("Backup() expected error on read-only filesystem")
	}
	if errors.Is(err, errors.ErrNotFound) {
		t.Errorf("I/O failure should not match ErrNotFound: %v", err)
	}
}

func TestRetention(t *testing.T) {
	eng, fsys := newTestEngine(t, WithRetention(3))
	write(t, fsys, testSource+"/a.txt", "0")

	var names []string
	for i := range 5 {
		write(t, fsys, testSource+"/a.txt", string(rune('a'+i)))
		diff, err := eng.Backup()
		if err != nil {
			t.Fatalf("Backup() #%d error = %v", i, err)
		}
		names = append(names, diff.Name)

		diffs, err := eng.List()
		if err != nil {
			t.Fatal(err)
		}
		if len(diffs) > 3 {
			t.Fatalf("after backup #%d: %d differentials exceed ceiling 3", i, len(diffs))
		}
	}

	diffs, err := eng.List()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, d := range diffs {
		got = append(got, d.Name)
	}
	if want := names[2:]; !slices.Equal(got, want) {
		t.Errorf("remaining = %v, want %v", got, want)
	}
}

func TestRetention_IgnoresUnrelatedDirectories(t *testing.T) {
	eng, fsys := newTestEngine(t, WithRetention(1))
	write(t, fsys, testSource+"/a.txt", "0")
	write(t, fsys, testRoot+"/notes/readme.txt", "keep")
	write(t, fsys, testRoot+"/diff_backupX/readme.txt", "keep")

	for range 3 {
		if _, err := eng.Backup(); err != nil {
			t.Fatal(err)
		}
	}

	for _, dir := range []string{"notes", "diff_backupX", DefaultBaselineFolder} {
		ok, err := afero.DirExists(fsys, filepath.Join(testRoot, dir))
		if err != nil || !ok {
			t.Errorf("%s should survive cleanup", dir)
		}
	}
	diffs, _ := eng.List()
	if len(diffs) != 1 {
		t.Errorf("List() = %d differentials, want 1", len(diffs))
	}
}

func TestCleanupOldBackups_EmptyRoot(t *testing.T) {
	eng, _ := newTestEngine(t)
	if err := eng.CleanupOldBackups(); err != nil {
		t.Errorf("CleanupOldBackups() on missing root error = %v", err)
	}
}

func TestPrune(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/a.txt", "0")
	for range 4 {
		if _, err := eng.Backup(); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := eng.Prune(1)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	want := []string{
		"diff_backup_20250312120000",
		"diff_backup_20250312120100",
		"diff_backup_20250312120200",
	}
	if !slices.Equal(removed, want) {
		t.Errorf("Prune() removed %v, want %v", removed, want)
	}

	latest, err := eng.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest.Name != "diff_backup_20250312120300" {
		t.Errorf("Latest() = %s", latest.Name)
	}

	if _, err := eng.Prune(-1); err == nil {
		t.Error("Prune(-1) expected error")
	}
}

func TestList_OrderAndTimestamps(t *testing.T) {
	eng, fsys := newTestEngine(t)
	for _, name := range []string{
		"diff_backup_20250312130000",
		"diff_backup_20240101000000",
		"diff_backup_garbage",
	} {
		if err := fsys.MkdirAll(filepath.Join(testRoot, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	write(t, fsys, testRoot+"/diff_backup_20990101000000", "a file, not a snapshot")

	diffs, err := eng.List()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, d := range diffs {
		names = append(names, d.Name)
	}
	want := []string{"diff_backup_20240101000000", "diff_backup_20250312130000", "diff_backup_garbage"}
	if !slices.Equal(names, want) {
		t.Fatalf("List() = %v, want %v", names, want)
	}
	if got := diffs[1].Display(); got != "2025/03/12 13:00:00" {
		t.Errorf("Display() = %q", got)
	}
	if !diffs[2].CreatedAt.IsZero() || diffs[2].Display() != "diff_backup_garbage" {
		t.Errorf("unparsable name should have zero time, got %v", diffs[2].CreatedAt)
	}
}

func TestLatest_None(t *testing.T) {
	eng, _ := newTestEngine(t)
	_, err := eng.Latest()
	if !errors.Is(err, ErrNoDifferentials) || !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Latest() error = %v, want ErrNoDifferentials", err)
	}
}

func TestRestore(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/a.txt", "1")
	write(t, fsys, testSource+"/b.txt", "2")
	if err := eng.CreateBaseline(); err != nil {
		t.Fatal(err)
	}

	write(t, fsys, testSource+"/a.txt", "1-changed")
	write(t, fsys, testSource+"/c/d.txt", "3")
	diff, err := eng.Backup()
	if err != nil {
		t.Fatal(err)
	}

	// Wreck the source after the backup.
	write(t, fsys, testSource+"/a.txt", "garbage")
	write(t, fsys, testSource+"/junk.txt", "junk")
	if err := fsys.Remove(testSource + "/b.txt"); err != nil {
		t.Fatal(err)
	}

	if err := eng.Restore(diff.Name); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	assertTree(t, fsys, testSource, map[string]string{
		"a.txt":   "1-changed",
		"b.txt":   "2",
		"c/d.txt": "3",
	})
}

func TestRestore_Latest(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/a.txt", "v1")
	if err := eng.CreateBaseline(); err != nil {
		t.Fatal(err)
	}
	write(t, fsys, testSource+"/a.txt", "v2")
	if _, err := eng.Backup(); err != nil {
		t.Fatal(err)
	}
	write(t, fsys, testSource+"/a.txt", "v3")
	if _, err := eng.Backup(); err != nil {
		t.Fatal(err)
	}
	write(t, fsys, testSource+"/a.txt", "v4")

	if err := eng.Restore(LatestName); err != nil {
		t.Fatalf("Restore(LATEST) error = %v", err)
	}
	assertTree(t, fsys, testSource, map[string]string{"a.txt": "v3"})
}

func TestRestore_NotFoundLeavesSourceUntouched(t *testing.T) {
	tests := []struct {
		name     string
		baseline bool
		restore  string
		wantErr  error
	}{
		{"missing baseline", false, "diff_backup_20250312120000", ErrBaselineNotFound},
		{"missing differential", true, "diff_backup_20000101000000", ErrDifferentialNotFound},
		{"wrong prefix", true, "full_backup", ErrDifferentialNotFound},
		{"path traversal", true, "diff_backup_/../../etc", ErrDifferentialNotFound},
		{"empty name", true, "", ErrDifferentialNotFound},
		{"latest with none", true, LatestName, ErrNoDifferentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, fsys := newTestEngine(t)
			write(t, fsys, testSource+"/a.txt", "1")
			if tt.baseline {
				if err := eng.CreateBaseline(); err != nil {
					t.Fatal(err)
				}
			} else if err := fsys.MkdirAll(testRoot+"/diff_backup_20250312120000", 0o755); err != nil {
				t.Fatal(err)
			}
			write(t, fsys, testSource+"/a.txt", "live")

			err := eng.Restore(tt.restore)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Restore(%q) error = %v, want %v", tt.restore, err, tt.wantErr)
			}
			if !errors.Is(err, errors.ErrNotFound) {
				t.Errorf("error should match ErrNotFound: %v", err)
			}
			if errors.ExitCode(err) != errors.ExitUser {
				t.Errorf("ExitCode = %d, want %d", errors.ExitCode(err), errors.ExitUser)
			}
			assertTree(t, fsys, testSource, map[string]string{"a.txt": "live"})
		})
	}
}

func TestRestore_MissingSourceIsRecreated(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/a.txt", "1")
	diff, err := eng.Backup()
	if err != nil {
		t.Fatal(err)
	}
	if err := fsys.RemoveAll(testSource); err != nil {
		t.Fatal(err)
	}

	if err := eng.Restore(diff.Name); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	assertTree(t, fsys, testSource, map[string]string{"a.txt": "1"})
}

func TestStashAndUndo(t *testing.T) {
	eng, fsys := newTestEngine(t, WithStash("restore_stash", "", 2))
	write(t, fsys, testSource+"/a.txt", "v1")
	diff, err := eng.Backup()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := eng.Undo(); !errors.Is(err, ErrNoStash) {
		t.Errorf("Undo() with no stash error = %v, want ErrNoStash", err)
	}

	for i := range 3 {
		write(t, fsys, testSource+"/a.txt", "live"+string(rune('0'+i)))
		if err := eng.Restore(diff.Name); err != nil {
			t.Fatalf("Restore() #%d error = %v", i, err)
		}
	}
	assertTree(t, fsys, testSource, map[string]string{"a.txt": "v1"})

	stashes, err := eng.Stashes()
	if err != nil {
		t.Fatal(err)
	}
	if len(stashes) != 2 {
		t.Fatalf("Stashes() = %v, want 2 entries", stashes)
	}

	name, err := eng.Undo()
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if name != stashes[1] {
		t.Errorf("Undo() used %s, want %s", name, stashes[1])
	}
	assertTree(t, fsys, testSource, map[string]string{"a.txt": "live2"})

	// The stash never counts as a differential.
	diffs, _ := eng.List()
	if len(diffs) != 1 {
		t.Errorf("List() = %d differentials, want 1", len(diffs))
	}
}

func TestStash_DisabledByDefault(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/a.txt", "1")
	diff, err := eng.Backup()
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Restore(diff.Name); err != nil {
		t.Fatal(err)
	}
	if eng.StashDir() != "" {
		t.Errorf("StashDir() = %q, want empty", eng.StashDir())
	}
	stashes, err := eng.Stashes()
	if err != nil || len(stashes) != 0 {
		t.Errorf("Stashes() = %v, %v", stashes, err)
	}
}

func TestEngine_OSFilesystem(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "world")
	root := filepath.Join(dir, "backups")
	t.Cleanup(func() {
		// Read-only directories would otherwise stop t.TempDir's cleanup.
		_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err == nil && info.IsDir() {
				_ = os.Chmod(path, 0o755)
			}
			return nil
		})
	})

	osWrite := func(rel, content string) {
		t.Helper()
		path := filepath.Join(source, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	osWrite("region/r.0.0.mca", "chunk")
	osWrite("x/inner.txt", "i")
	osWrite("datapacks/pack.mcmeta", "meta")
	if err := os.Chmod(filepath.Join(source, "datapacks"), 0o555); err != nil {
		t.Fatal(err)
	}

	eng := NewEngine(source, root, WithClock(newFakeClock().Now))
	if err := eng.CreateBaseline(); err != nil {
		t.Fatalf("CreateBaseline() error = %v", err)
	}

	osWrite("region/r.0.0.mca", "chunk2")
	if err := os.RemoveAll(filepath.Join(source, "x")); err != nil {
		t.Fatal(err)
	}
	osWrite("x", "now a file")
	diff, err := eng.Backup()
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	osWrite("scratch.txt", "gone after restore")
	if err := eng.Restore(diff.Name); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	assertTree(t, afero.NewOsFs(), source, map[string]string{
		"region/r.0.0.mca":      "chunk2",
		"x":                     "now a file",
		"datapacks/pack.mcmeta": "meta",
	})
	info, err := os.Stat(filepath.Join(source, "region", "r.0.0.mca"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("restored mode = %v, want 0600", info.Mode().Perm())
	}
	info, err = os.Stat(filepath.Join(source, "datapacks"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o555 {
		t.Errorf("restored directory mode = %v, want 0555", info.Mode().Perm())
	}
}

func TestEngine_OSFilesystemDirectorySymlink(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "server")
	ext := filepath.Join(dir, "worlds", "main")
	root := filepath.Join(dir, "backups")

	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(ext, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ext, "level.dat"), []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(ext, filepath.Join(source, "world")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	eng := NewEngine(source, root, WithClock(newFakeClock().Now))
	if err := os.WriteFile(filepath.Join(source, "server.properties"), []byte("motd"), 0o644); err != nil {
		t.Fatal(err)
	}
	diff, err := eng.Backup()
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	assertTree(t, afero.NewOsFs(), eng.BaselineDir(), map[string]string{
		"server.properties": "motd",
		"world/level.dat":   "v1",
	})

	if err := eng.Restore(diff.Name); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(source, "world", "level.dat"))
	if err != nil {
		t.Fatalf("world/level.dat after restore: %v", err)
	}
	if string(data) != "v1" {
		t.Errorf("world/level.dat = %q, want v1", data)
	}
}

func TestRestore_FileWherePrefixDirectoryNow(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/y", "file")
	if err := eng.CreateBaseline(); err != nil {
		t.Fatal(err)
	}

	if err := fsys.Remove(testSource + "/y"); err != nil {
		t.Fatal(err)
	}
	write(t, fsys, testSource+"/y/inner.txt", "nested")
	diff, err := eng.Backup()
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	if err := eng.Restore(diff.Name); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	assertTree(t, fsys, testSource, map[string]string{"y/inner.txt": "nested"})
}

func TestRoundTrip_DeletionAsymmetry(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/level.dat", "v0")
	write(t, fsys, testSource+"/players/steve.dat", "p0")
	if err := eng.CreateBaseline(); err != nil {
		t.Fatal(err)
	}

	// S1 changes one file and deletes another.
	write(t, fsys, testSource+"/level.dat", "v1")
	if err := fsys.Remove(testSource + "/players/steve.dat"); err != nil {
		t.Fatal(err)
	}
	d1, err := eng.Backup()
	if err != nil {
		t.Fatal(err)
	}

	// S2 moves on.
	write(t, fsys, testSource+"/level.dat", "v2")
	write(t, fsys, testSource+"/region/r.0.0.mca", "chunk")
	if _, err := eng.Backup(); err != nil {
		t.Fatal(err)
	}

	if err := eng.Restore(d1.Name); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	// baseline ⊕ D1, not S1: the file deleted in S1 is back.
	assertTree(t, fsys, testSource, map[string]string{
		"level.dat":         "v1",
		"players/steve.dat": "p0",
	})
}

func TestScenario_ChangedAndAddedFiles(t *testing.T) {
	eng, fsys := newTestEngine(t)
	write(t, fsys, testSource+"/a.txt", "1")
	if err := eng.CreateBaseline(); err != nil {
		t.Fatal(err)
	}
	assertTree(t, fsys, eng.BaselineDir(), map[string]string{"a.txt": "1"})

	write(t, fsys, testSource+"/a.txt", "2")
	write(t, fsys, testSource+"/b.txt", "x")
	diff, err := eng.Backup()
	if err != nil {
		t.Fatal(err)
	}
	assertTree(t, fsys, diff.Path, map[string]string{"a.txt": "2", "b.txt": "x"})

	if err := eng.Restore(diff.Name); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	assertTree(t, fsys, testSource, map[string]string{"a.txt": "2", "b.txt": "x"})
}
