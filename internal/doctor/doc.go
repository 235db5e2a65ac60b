// Package doctor diagnoses diffsnap configuration and backup targets.
//
// Each [Check] inspects one concern and reports a [CheckResult] with a
// [Severity]. A [Runner] executes checks in order and aggregates them into
// a [DoctorReport]. Checks that implement [Fixer] can repair what they
// found, such as creating a missing backup root.
//
// The checks are read-only unless Fix is called. They never take the
// backup root lock, so doctor can run while a backup is in progress and
// reports the lock as held.
package doctor
