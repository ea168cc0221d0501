package build

import "fmt"

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0

	// appPreRelease must only contain characters from semanticAlphabet.
	appPreRelease = "beta"
)

// Commit stores the current commit of this build, which includes the most
// recent tag, the number of commits since that tag (if non-zero), the commit
// hash, and a dirty marker. This should be set using the -ldflags during
// compilation.
var Commit string

// Version returns the application version as a properly formed string per the
// semantic versioning 2.0.0 rules (http://semver.org/).
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
	if appPreRelease != "" {
		version = fmt.Sprintf("%s-%s", version, appPreRelease)
	}

	return version
}

// VersionInfo returns the version line printed by --version: the version,
// the commit and the compiled deployment and logging types.
func VersionInfo() string {
	commit := Commit
	if commit == "" {
		commit = "unknown"
	}

	return fmt.Sprintf("%s commit=%s deployment=%v logging=%v",
		Version(), commit, Deployment, LoggingType)
}
