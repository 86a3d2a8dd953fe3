// Package main is the entry point for rpctl, a RunPod GPU pod CLI.
package main

import (
	"github.com/gpuctl/rpctl/pkg/cli"
)

// set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)
	cli.Execute()
}
