package app

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/agbru/pm1factor/internal/pollard"
)

func TestHasVersionFlag(t *testing.T) {
	t.Parallel()
	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"-cpu", "0x9aae03"}, false},
		{[]string{"--version"}, true},
		{[]string{"-V"}, true},
		{[]string{"-version"}, true},
		{[]string{"-n-1", "--version", "-backend", "sequential"}, true},
		{[]string{"--verbose"}, false},
		{[]string{"0x56"}, false},
	}
	for _, tt := range tests {
		if got := HasVersionFlag(tt.args); got != tt.want {
			t.Errorf("HasVersionFlag(%q) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestPrintVersion(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	PrintVersion(&buf)
	output := buf.String()

	if !strings.HasPrefix(output, "pm1 "+Version) {
		t.Errorf("output should start with the version: %q", output)
	}
	for _, want := range []string{"Commit:", "Built:", runtime.Version(), "OS/Arch:", pollard.SequentialName} {
		if !strings.Contains(output, want) {
			t.Errorf("output is missing %q:\n%s", want, output)
		}
	}
}

func TestGetVersionInfo(t *testing.T) {
	t.Parallel()
	info := GetVersionInfo()

	if info.Version != Version || info.GoVersion != runtime.Version() {
		t.Errorf("info = %+v", info)
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("platform = %s/%s", info.OS, info.Arch)
	}
	if info.Commit == "" {
		t.Error("commit must never be empty")
	}
	if diff := cmp.Diff(pollard.NewDefaultFactory().List(), info.Backends); diff != "" {
		t.Errorf("backends mismatch (-want +got):\n%s", diff)
	}
}
