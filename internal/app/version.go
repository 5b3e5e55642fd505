// Package app provides the core application structure for the pm1 CLI.
// It handles application lifecycle, mode dispatching, and version management.
package app

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/agbru/pm1factor/internal/pollard"
)

// Build-time variables set via -ldflags:
//
//	go build -ldflags="-X github.com/agbru/pm1factor/internal/app.Version=v1.2.3 -X github.com/agbru/pm1factor/internal/app.Commit=abc123"
//
// Without them the commit falls back to the VCS stamp of the Go build info.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// HasVersionFlag reports whether any argument asks for the version, so that
// "pm1 -server --version" works before flag parsing.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--version", "-version", "-V":
			return true
		}
	}
	return false
}

// PrintVersion writes the version, the build details and the compiled-in
// backends to out.
func PrintVersion(out io.Writer) {
	info := GetVersionInfo()
	fmt.Fprintf(out, "pm1 %s\n", info.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", info.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", info.BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", info.GoVersion)
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", info.OS, info.Arch)
	fmt.Fprintf(out, "  Backends:   %s\n", strings.Join(info.Backends, ", "))
}

// VersionData holds the build and runtime version details.
type VersionData struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	BuildDate string   `json:"build_date"`
	GoVersion string   `json:"go_version"`
	OS        string   `json:"os"`
	Arch      string   `json:"arch"`
	Backends  []string `json:"backends"`
}

// GetVersionInfo collects the version details of the running binary.
func GetVersionInfo() VersionData {
	info := VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Backends:  pollard.NewDefaultFactory().List(),
	}
	if info.Commit == "unknown" {
		if rev, at, ok := vcsStamp(); ok {
			info.Commit = rev
			if info.BuildDate == "unknown" && at != "" {
				info.BuildDate = at
			}
		}
	}
	return info
}

// vcsStamp returns the short revision and commit time recorded by the Go
// toolchain, if any.
func vcsStamp() (rev, at string, ok bool) {
	bi, found := debug.ReadBuildInfo()
	if !found {
		return "", "", false
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.time":
			at = s.Value
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	return rev, at, rev != ""
}
