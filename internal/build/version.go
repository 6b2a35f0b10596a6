package build

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Commit stores the current commit of this build, which includes the most
// recent tag, the number of commits since that tag (if non-zero), the commit
// hash, and a dirty marker. It should be set using -ldflags during
// compilation.
var Commit string

// CommitHash stores the current commit hash of this build.
var CommitHash string

// RawTags contains the raw set of build tags, separated by commas. It should
// be set using -ldflags during compilation.
var RawTags string

// GoVersion stores the go version that the executable was compiled with.
var GoVersion string

const (
	// appMajor defines the major version of this binary.
	appMajor uint = 0

	// appMinor defines the minor version of this binary.
	appMinor uint = 1

	// appPatch defines the application patch for this binary.
	appPatch uint = 0

	// appPreRelease MUST only contain characters from the semantic
	// version alphanumeric set.
	appPreRelease = "beta"
)

func init() {
	// Assert that appPreRelease is valid according to the semantic
	// versioning guidelines for pre-release version and build metadata
	// strings.
	for _, r := range appPreRelease {
		if !strings.ContainsRune(semanticAlphabet, r) {
			panic(fmt.Errorf("rune: %v is not in the semantic "+
				"alphabet", r))
		}
	}

	// Get the commit hash and Go version from the embedded build info if
	// they were not set by ldflags.
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if GoVersion == "" {
		GoVersion = info.GoVersion
	}
	if CommitHash == "" {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				CommitHash = setting.Value
			}
		}
	}
}

// semanticAlphabet is the set of characters that are permitted for use in an
// appPreRelease.
const semanticAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz-."

// Version returns the application version as a properly formed string per
// the semantic versioning 2.0.0 spec (http://semver.org/).
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)

	if appPreRelease != "" {
		version = fmt.Sprintf("%s-%s", version, appPreRelease)
	}

	return version
}

// Tags returns the build tags the executable was compiled with, if any.
func Tags() []string {
	if len(RawTags) == 0 {
		return nil
	}

	return strings.Split(RawTags, ",")
}
