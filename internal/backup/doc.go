// Package backup implements differential snapshots of a directory tree.
//
// An [Engine] keeps one full baseline copy of a source directory and a
// bounded series of differential snapshots next to it. Each differential
// holds only the files that are new or whose bytes differ from the
// baseline, so any differential plus the baseline reconstructs the source
// as it was when that differential was taken.
//
// # Layout
//
// Snapshots live directly under a backup root:
//
//	<root>/
//	├── full_backup/                     baseline, created once
//	├── diff_backup_20250312120000/      differential
//	├── diff_backup_20250312130000/
//	└── restore_stash/                   optional pre-restore copies
//	    └── restore_stash_20250312131500/
//
// Differential names end in a local-time YYYYMMDDHHMMSS timestamp, so
// lexicographic order is chronological order. Two backups within the same
// second write into the same directory.
//
// # Creating Backups
//
//	eng := backup.NewEngine("/srv/world", "/srv/backups")
//	diff, err := eng.Backup()
//
// [Engine.Backup] creates the baseline when missing and enforces retention
// before adding the new snapshot: while the number of differentials is at
// or above the ceiling the oldest is deleted. Files deleted from the source
// are not recorded, and a restore brings them back from the baseline.
//
// # Restoring
//
//	err := eng.Restore("diff_backup_20250312120000")
//
// [Engine.Restore] checks that the baseline and the differential exist
// before touching anything, then replaces the source tree with the
// baseline overlaid by the differential. [LatestName] selects the newest
// differential. When a stash is configured with [WithStash] the current
// source is copied aside first and [Engine.Undo] puts it back.
//
// # Errors
//
// Missing snapshots are reported with [ErrBaselineNotFound],
// [ErrDifferentialNotFound], [ErrNoDifferentials] and [ErrNoStash], all of
// which match errors.ErrNotFound. Every other failure is a filesystem error
// wrapped with the operation that hit it.
package backup
