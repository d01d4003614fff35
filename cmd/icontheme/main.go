package main

import "github.com/bnema/icontheme/internal/cli/cmd"

// Build-time variable (set via ldflags).
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
