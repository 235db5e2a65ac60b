package doctor

import (
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/diffsnap/internal/config"
	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/pkg/fileutil"
)

// ConfigCheck validates the configuration file: YAML syntax first, then the
// semantic rules of config.Validate.
type ConfigCheck struct {
	path string
}

var _ Check = (*ConfigCheck)(nil)

// NewConfigCheck creates a check for the configuration file at path.
func NewConfigCheck(path string) *ConfigCheck {
	return &ConfigCheck{path: path}
}

// Name returns the unique identifier for this check.
func (c *ConfigCheck) Name() string {
	return "config"
}

// Category returns the grouping for this check.
func (c *ConfigCheck) Category() string {
	return "config"
}

// Run executes the configuration check.
func (c *ConfigCheck) Run() *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details:  map[string]any{"path": c.path},
	}

	data, err := fileutil.ReadFileWithLimit(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			result.Status = SeverityInfo
			result.Message = "no config file, using defaults"
			result.FixHint = "Run: diffsnap init"
			return result
		}
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot read config file: %v", err)
		return result
	}

	cfg := config.Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		result.Status = SeverityError
		result.Message = "invalid YAML: " + strings.TrimPrefix(err.Error(), "yaml: ")
		return result
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		result.Status = SeverityError
		result.Message = fmt.Sprintf("%d validation error(s)", len(errs))
		result.Details["errors"] = msgs
		return result
	}

	if len(cfg.Targets) == 0 {
		result.Status = SeverityWarning
		result.Message = "no targets configured"
		result.FixHint = "Add a target under 'targets:' or run: diffsnap init --force"
		return result
	}

	result.Status = SeverityPass
	result.Message = fmt.Sprintf("%d target(s) configured", len(cfg.Targets))
	result.Details["targets"] = cfg.TargetNames()
	return result
}
