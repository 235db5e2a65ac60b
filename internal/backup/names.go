package backup

import (
	"path/filepath"
	"strings"
	"time"
)

// SnapshotName returns "<prefix>_<YYYYMMDDHHMMSS>" for t.
// Two calls within the same second produce the same name.
func SnapshotName(prefix string, t time.Time) string {
	return prefix + "_" + t.Format(TimestampLayout)
}

// HasPrefix reports whether name belongs to the snapshot series with prefix.
func HasPrefix(prefix, name string) bool {
	return strings.HasPrefix(name, prefix+"_")
}

// ParseName extracts the creation time from a snapshot name in the local
// time zone. ok is false when name lacks the prefix or the suffix is not a
// timestamp.
func ParseName(prefix, name string) (t time.Time, ok bool) {
	if !HasPrefix(prefix, name) {
		return time.Time{}, false
	}
	suffix := strings.TrimPrefix(name, prefix+"_")
	if len(suffix) != len(TimestampLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimestampLayout, suffix, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDisplay renders t as "YYYY/MM/DD hh:mm:ss".
func FormatDisplay(t time.Time) string {
	return t.Format(DisplayLayout)
}

// validEntryName reports whether name can only refer to a direct child of
// a backup root.
func validEntryName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return false
	}
	return filepath.VolumeName(name) == ""
}
