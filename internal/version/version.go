// Package version holds build-time version information.
package version

// Version is set at build time via -ldflags
var Version = "dev"

// Commit is the git commit the binary was built from
var Commit = "unknown"
