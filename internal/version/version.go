// Package version holds build information injected with -ldflags.
package version

import (
	"fmt"
	"runtime"

	"github.com/aatumaykin/taskpoll/internal/constants"
)

var (
	Version   = constants.DefaultVersion
	BuildTime = constants.DefaultBuildTime
	GitCommit = constants.DefaultGitCommit
	GoVersion = constants.DefaultGoVersion
)

// Info is the JSON shape of the build information.
type Info struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

func SetInfo(v, bt, gc, gv string) {
	if v != "" {
		Version = v
	}
	if bt != "" {
		BuildTime = bt
	}
	if gc != "" {
		GitCommit = gc
	}
	if gv != "" {
		GoVersion = gv
	}
}

// Get returns the current build information. An unknown Go version is
// filled in from the running binary.
func Get() Info {
	gv := GoVersion
	if gv == constants.DefaultGoVersion {
		gv = runtime.Version()
	}
	return Info{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
		GoVersion: gv,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("taskpoll %s (commit %s, built %s, %s)", i.Version, i.GitCommit, i.BuildTime, i.GoVersion)
}

func FormatStartupMessage() string {
	return fmt.Sprintf("taskpoll %s starting (build %s)", Version, BuildTime)
}
