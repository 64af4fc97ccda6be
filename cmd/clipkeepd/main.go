package main

import (
	"github.com/clipkeep/clipkeep/internal/cli/cmd"
)

// Build-time version information, injected via -ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
	commit    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, buildTime, commit)
	cmd.Execute()
}
