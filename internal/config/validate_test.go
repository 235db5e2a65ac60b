package config

import (
	"testing"

	"github.com/thoreinstein/diffsnap/internal/errors"
)

func TestValidate(t *testing.T) {
	valid := func() Target {
		return Target{Source: "/srv/world", BackupRoot: "/srv/backup"}
	}

	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{
			name: "valid",
			cfg:  &Config{Version: 1, DefaultTargets: []string{"world"}, Targets: map[string]Target{"world": valid()}},
		},
		{
			name: "no targets",
			cfg:  Default(),
		},
		{
			name:    "nil",
			cfg:     nil,
			wantErr: errors.ErrInvalidConfig,
		},
		{
			name:    "version too low",
			cfg:     &Config{Version: 0},
			wantErr: ErrVersionTooLow,
		},
		{
			name:    "unknown default target",
			cfg:     &Config{Version: 1, DefaultTargets: []string{"nether"}},
			wantErr: errors.ErrUnknownTarget,
		},
		{
			name:    "missing source",
			cfg:     &Config{Version: 1, Targets: map[string]Target{"world": {BackupRoot: "/srv/backup"}}},
			wantErr: ErrMissingSource,
		},
		{
			name: "null byte in path",
			cfg: &Config{Version: 1, Targets: map[string]Target{"world": func() Target {
				tg := valid()
				tg.Source = "/srv/wo\x00rld"
				return tg
			}()}},
			wantErr: ErrInvalidPath,
		},
		{
			name: "backup root inside source",
			cfg: &Config{Version: 1, Targets: map[string]Target{"world": func() Target {
				tg := valid()
				tg.BackupRoot = "/srv/world/backup"
				return tg
			}()}},
			wantErr: ErrNestedBackupRoot,
		},
		{
			name: "baseline folder with separator",
			cfg: &Config{Version: 1, Targets: map[string]Target{"world": func() Target {
				tg := valid()
				tg.BaselineFolder = "a/b"
				return tg
			}()}},
			wantErr: ErrInvalidName,
		},
		{
			name: "baseline folder in differential series",
			cfg: &Config{Version: 1, Targets: map[string]Target{"world": func() Target {
				tg := valid()
				tg.BaselineFolder = "diff_backup_base"
				return tg
			}()}},
			wantErr: ErrNameCollision,
		},
		{
			name: "negative retention",
			cfg: &Config{Version: 1, Targets: map[string]Target{"world": func() Target {
				tg := valid()
				tg.Retention = -1
				return tg
			}()}},
			wantErr: ErrNegative,
		},
		{
			name: "bad schedule",
			cfg: &Config{Version: 1, Targets: map[string]Target{"world": func() Target {
				tg := valid()
				tg.Schedule = "every now and then"
				return tg
			}()}},
			wantErr: ErrInvalidSchedule,
		},
		{
			name: "stash folder equals baseline",
			cfg: &Config{Version: 1, Targets: map[string]Target{"world": func() Target {
				tg := valid()
				tg.Stash = Stash{Enabled: true, Folder: "full_backup"}
				return tg
			}()}},
			wantErr: ErrNameCollision,
		},
		{
			name: "disabled stash is not checked",
			cfg: &Config{Version: 1, Targets: map[string]Target{"world": func() Target {
				tg := valid()
				tg.Stash = Stash{Folder: "a/b", Keep: -1}
				return tg
			}()}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.cfg)
			if tt.wantErr == nil {
				if len(errs) != 0 {
					t.Errorf("Validate() = %v, want no errors", errs)
				}
				return
			}
			if len(errs) == 0 {
				t.Fatalf("Validate() returned no errors, want %v", tt.wantErr)
			}
			found := false
			for _, err := range errs {
				if errors.Is(err, tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want one matching %v", errs, tt.wantErr)
			}
		})
	}
}

func TestValidate_ErrorsMatchInvalidConfig(t *testing.T) {
	cfg := &Config{Version: 1, Targets: map[string]Target{"world": {Retention: -1}}}
	errs := Validate(cfg)
	if len(errs) == 0 {
		t.Fatal("expected errors")
	}
	for _, err := range errs {
		if !errors.Is(err, errors.ErrInvalidConfig) {
			t.Errorf("%v does not match ErrInvalidConfig", err)
		}
		var te *TargetError
		if !errors.As(err, &te) || te.Target != "world" {
			t.Errorf("%v is not a TargetError for world", err)
		}
	}
}

func TestParseSchedule(t *testing.T) {
	for _, spec := range []string{"@every 30m", "@hourly", "0 */2 * * *"} {
		if _, err := ParseSchedule(spec); err != nil {
			t.Errorf("ParseSchedule(%q) error = %v", spec, err)
		}
	}
	for _, spec := range []string{"", "* * *", "@sometimes"} {
		if _, err := ParseSchedule(spec); !errors.Is(err, ErrInvalidSchedule) {
			t.Errorf("ParseSchedule(%q) error = %v, want ErrInvalidSchedule", spec, err)
		}
	}
}
