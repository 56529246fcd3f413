package common

// Build metadata, injected via -ldflags at release time.
var (
	version   = "dev"
	build     = "local"
	gitCommit = "unknown"
)

// GetVersion returns the semantic version string.
func GetVersion() string { return version }

// GetBuild returns the build identifier.
func GetBuild() string { return build }

// GetGitCommit returns the git commit hash the binary was built from.
func GetGitCommit() string { return gitCommit }
