// SPDX-License-Identifier: MIT
//
// Package build holds the binary's identity: name, description, build time,
// Git commit and semantic version. The values are embedded at compile time
// with linker flags, for example:
//
//	go build -ldflags "-X stemviz/pkg/build.buildVersion=v0.3.0 ..."
//
// Development builds carry the defaults below.
package build

import "fmt"

// Description is the one-line summary shown by the CLI.
const Description = "Audio-reactive visualizer core driven by four song stems"

// Info is the build information of the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = &Info{
		Name:        "stemviz",
		Description: Description,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize copies the ldflags variables into the build info. It returns
// an error naming the first missing flag and then leaves the development
// defaults in place.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildInfo.Name = buildName
	buildInfo.Time = buildTime
	buildInfo.Commit = buildCommit
	buildInfo.Version = buildVersion

	return nil
}

// GetBuildInfo returns the current build information.
func GetBuildInfo() *Info {
	return buildInfo
}

// String formats the version line printed by --version.
func (i *Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.Time)
}
