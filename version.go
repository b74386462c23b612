package sqlgrid

import (
	"fmt"

	"github.com/maloquacious/semver"
)

var (
	version = semver.Version{
		Major: 0,
		Minor: 3,
		Patch: 0,
		Build: semver.Commit(),
	}
)

func Version() semver.Version {
	return version
}

// VersionString returns the version as major.minor.patch+build.
func VersionString() string {
	v := Version()
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if build := fmt.Sprint(v.Build); build != "" {
		s += "+" + build
	}
	return s
}
