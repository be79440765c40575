package main

import (
	"fmt"
	"os"

	"github.com/afcommunity/fieldmap/cmd"
	"github.com/afcommunity/fieldmap/internal/buildinfo"
	"github.com/afcommunity/fieldmap/internal/conf"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=...".
var (
	version   = "dev"
	buildDate string
)

// configEnv names an explicit config file; when unset the search path is used.
const configEnv = "FIELDMAP_CONFIG"

func main() {
	settings, err := conf.Load(os.Getenv(configEnv))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cmd.RootCommand(settings, buildinfo.New(version, buildDate)).Execute(); err != nil {
		os.Exit(1)
	}
}
