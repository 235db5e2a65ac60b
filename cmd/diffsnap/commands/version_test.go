package commands

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/thoreinstein/diffsnap/cmd"
)

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)
	output := buf.String()
	info := cmd.Info()

	tests := []struct {
		name     string
		contains string
	}{
		{name: "version header", contains: "diffsnap version " + info.Version},
		{name: "commit", contains: "commit:    " + info.Commit},
		{name: "build date", contains: "built:     " + info.Date},
		{name: "go runtime", contains: "go:        " + runtime.Version()},
		{name: "platform", contains: runtime.GOOS + "/" + runtime.GOARCH},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(output, tt.contains) {
				t.Errorf("version output missing %q\nGot:\n%s", tt.contains, output)
			}
		})
	}
}

func TestVersionCommand_CommandMetadata(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Short == "" || versionCmd.Long == "" {
		t.Error("versionCmd descriptions should not be empty")
	}
}
