// Package config provides configuration management for the diffsnap CLI.
//
// A configuration names one or more targets. Each target pairs a source
// directory with the backup root its snapshots are written to, plus the
// naming, retention, schedule and stash settings of its backup engine.
//
// # Configuration File
//
// The default configuration file location is ~/.config/diffsnap/config.yaml;
// a config.yaml in the working directory takes precedence. Keys can be
// overridden with DIFFSNAP_ environment variables.
//
//	version: 1
//	default_targets: [world]
//	targets:
//	  world:
//	    source: ./world
//	    backup_root: ./backup
//	    retention: 10
//	    schedule: "@every 30m"
//	    stash: {enabled: true, keep: 5}
//	  commands:
//	    source: ./plugins/master_folder
//	    backup_root: ./plugins/backup/command_backup
//	    baseline_folder: baseline_backup
//	    diff_prefix: command_backup
//
// Unset fields take the engine defaults: baseline_folder "full_backup",
// diff_prefix "diff_backup", retention 10, and for an enabled stash the
// folder "restore_stash" keeping 5 copies. A target without backup_root
// keeps its snapshots in the XDG data directory.
//
// # Loading Configuration
//
// Call [Init] once, then [Load]:
//
//	config.Init()
//	cfg, err := config.Load(flagPath)
//
// [Config.Resolve] returns a target with defaults applied and absolute
// paths, ready for [Target.EngineOptions].
//
// # Validation
//
// [Validate] reports every problem at once; each error matches
// errors.ErrInvalidConfig or errors.ErrUnknownTarget:
//
//	for _, e := range config.Validate(cfg) {
//	    fmt.Println(e)
//	}
package config
