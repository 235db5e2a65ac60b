// Package paths resolves the locations diffsnap reads and writes outside of
// the trees it backs up.
//
// # XDG Base Directory Compliance
//
// The package wraps github.com/adrg/xdg for cross-platform XDG Base Directory
// Specification compliance. On Linux the configuration file lives at
// ~/.config/diffsnap/config.yaml and targets without an explicit backup root
// keep their snapshots under ~/.local/share/diffsnap/backups/<target>.
//
// # User Paths
//
// Paths taken from configuration go through [Expand], which resolves a
// leading "~" and makes the result absolute against the working directory.
// [Within] detects a backup root nested inside its own source tree.
package paths
