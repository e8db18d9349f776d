// Package version reports the flexchat build. Values are injected with
// -ldflags "-X flexchat/internal/version.Version=...".
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info describes one build.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`

	semver *semver.Version
}

// Get parses the injected build values. Version must be valid semver.
func Get() (*Info, error) {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid build version %q: %w", Version, err)
	}
	return &Info{
		Version:   sv.String(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		semver:    sv,
	}, nil
}

// Release is major.minor.patch with prerelease and metadata stripped.
func (i *Info) Release() string {
	return fmt.Sprintf("%d.%d.%d", i.semver.Major(), i.semver.Minor(), i.semver.Patch())
}

// Development reports prerelease builds such as 0.4.0-dev.
func (i *Info) Development() bool {
	return i.semver.Prerelease() != ""
}

func known(value string) bool {
	return value != "" && value != "unknown"
}

// String returns "flexchat v<version>[, commit <short>][, built <date>]".
func String() string {
	info, err := Get()
	if err != nil {
		return fmt.Sprintf("flexchat v%s (invalid version)", Version)
	}

	parts := []string{"flexchat v" + info.Version}
	if known(info.GitCommit) {
		commit := info.GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		parts = append(parts, "commit "+commit)
	}
	if known(info.BuildDate) {
		parts = append(parts, "built "+info.BuildDate)
	}
	return strings.Join(parts, ", ")
}

// Detailed lists every build field, one per line.
func Detailed() string {
	info, err := Get()
	if err != nil {
		return fmt.Sprintf("flexchat v%s (error: %v)", Version, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "flexchat v%s\n", info.Version)
	fmt.Fprintf(&b, "Release: %s", info.Release())
	if info.Development() {
		b.WriteString(" (development build)")
	}
	fmt.Fprintf(&b, "\nGit Commit: %s\n", info.GitCommit)
	fmt.Fprintf(&b, "Build Date: %s\n", info.BuildDate)
	fmt.Fprintf(&b, "Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(&b, "Platform: %s", info.Platform)
	return b.String()
}

// UserAgent is sent with every backend request.
func UserAgent() string {
	info, err := Get()
	if err != nil {
		return "flexchat"
	}
	return fmt.Sprintf("flexchat/%s (%s)", info.Release(), info.Platform)
}
