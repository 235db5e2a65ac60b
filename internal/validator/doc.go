// Package validator collects configuration problems into a single report.
//
// config.Validate returns plain errors and stops at what makes a target
// unusable. This package turns those errors into [Issue] values keyed by
// config field and adds the warnings that only matter to a person reading
// the file: a source that does not exist yet, a retention so low that every
// backup discards the previous differential, restores that cannot be undone.
//
//	result := validator.Config(cfg)
//	if err := validator.NewReporter(os.Stdout, validator.FormatText).Report(result); err != nil {
//		return err
//	}
//	if result.HasErrors() {
//		// refuse to run backups
//	}
package validator
