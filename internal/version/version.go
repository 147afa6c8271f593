package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set by ldflags during build, e.g.
// -X github.com/fika/fika-prep/internal/version.Version=v0.3.0
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

// Info represents version and build information
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the version information
func Get() Info {
	commit := GitCommit
	if commit == "" {
		commit = vcsRevision()
	}

	return Info{
		Version:   GetVersion(),
		GitCommit: commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the info on one line for the version command.
func (i Info) String() string {
	s := fmt.Sprintf("fika-prep %s (%s, %s)", i.Version, i.GoVersion, i.Platform)
	if len(i.GitCommit) >= 7 {
		s += " commit " + i.GitCommit[:7]
	}
	if i.BuildDate != "" {
		s += " built " + i.BuildDate
	}
	return s
}

// GetVersion returns the ldflags version, falling back to the module version
// recorded in the build info.
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
	}

	return "dev"
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return ""
}
