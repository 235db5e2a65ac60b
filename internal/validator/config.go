package validator

import (
	"os"
	"strings"

	"github.com/thoreinstein/diffsnap/internal/config"
	"github.com/thoreinstein/diffsnap/internal/errors"
)

// Config validates cfg and returns every problem found. The errors are the
// ones config.Validate reports; warnings and notes come from the resolved
// targets.
func Config(cfg *config.Config) *Result {
	result := &Result{}
	failed := map[string]bool{}

	for _, err := range config.Validate(cfg) {
		result.addConfigError(err)
		var te *config.TargetError
		if errors.As(err, &te) {
			failed[te.Target] = true
		}
	}
	if cfg == nil {
		return result
	}

	if len(cfg.Targets) == 0 {
		result.Add(SeverityWarning, "", "targets", "no targets configured", nil)
		return result
	}

	for _, name := range cfg.TargetNames() {
		if failed[name] {
			continue
		}
		t, err := cfg.Resolve(name)
		if err != nil {
			result.addConfigError(err)
			continue
		}
		checkTarget(result, name, t)
	}
	return result
}

func checkTarget(result *Result, name string, t config.Target) {
	field := func(f string) string { return "targets." + name + "." + f }

	if _, err := os.Stat(t.Source); os.IsNotExist(err) {
		result.Add(SeverityWarning, name, field("source"), "directory does not exist", t.Source)
	}
	if t.Retention == 1 {
		result.Add(SeverityWarning, name, field("retention"),
			"every backup removes the previous differential", t.Retention)
	}
	if !t.Stash.Enabled {
		result.Add(SeverityInfo, name, field("stash.enabled"),
			"restores replace the source without a copy; undo is unavailable", nil)
	}
	if t.Schedule == "" {
		result.Add(SeverityInfo, name, field("schedule"), "not scheduled; run backups manually", nil)
	}
}

func (r *Result) addConfigError(err error) {
	var te *config.TargetError
	if errors.As(err, &te) {
		r.Add(SeverityError, te.Target, "targets."+te.Target+"."+te.Field, trimCause(te.Err), nil)
		return
	}

	msg := trimCause(err)
	field := ""
	switch {
	case errors.Is(err, config.ErrVersionTooLow):
		field = "version"
	case errors.Is(err, errors.ErrUnknownTarget):
		field = "default_targets"
		msg = "unknown target " + strings.TrimPrefix(msg, "default_targets: ")
	}
	r.Add(SeverityError, "", field, msg, nil)
}

// trimCause drops the generic sentinel text that every validation error
// carries at its tail.
func trimCause(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{errors.ErrInvalidConfig, errors.ErrUnknownTarget} {
		if s := strings.TrimSuffix(msg, ": "+sentinel.Error()); s != msg {
			return s
		}
	}
	return msg
}
