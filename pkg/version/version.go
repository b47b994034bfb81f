package version

import (
	"fmt"
	"runtime"
)

// Set through -ldflags at release time.
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
	Platform  string
}

func Get() BuildInfo {
	return BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (b BuildInfo) String() string {
	result := "confattach version " + b.Version
	if b.GitCommit != "" {
		result += fmt.Sprintf(" (%s)", b.GitCommit)
	}
	if b.BuildDate != "" {
		result += " built on " + b.BuildDate
	}
	return result + fmt.Sprintf(" %s %s", b.GoVersion, b.Platform)
}

// UserAgent is sent with every Confluence request, e.g. "confattach/1.2.0 (linux/amd64)".
func UserAgent() string {
	b := Get()
	return fmt.Sprintf("confattach/%s (%s)", b.Version, b.Platform)
}
