// Package cmd holds the flags and the build information shared by the
// executables of the repeater.
package cmd

import "fmt"

var (
	// Version is the app's semantic version. Designed to be overwritten by make.
	Version string

	// Branch is the git branch used to build the App. Designed to be overwritten by make.
	Branch string

	// Commit is the git commit used to build the app. Designed to be overwritten by make.
	Commit string
)

// VersionString formats the build information.
func VersionString() string {
	version := Version
	if version == "" {
		version = "dev"
	}
	if Commit == "" {
		return version
	}
	return fmt.Sprintf("%s+%s+%s", version, Branch, Commit)
}
