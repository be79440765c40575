// Package cmd holds the fieldmap command line.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/afcommunity/fieldmap/cmd/communities"
	"github.com/afcommunity/fieldmap/cmd/markers"
	"github.com/afcommunity/fieldmap/cmd/register"
	"github.com/afcommunity/fieldmap/cmd/serve"
	"github.com/afcommunity/fieldmap/cmd/show"
	"github.com/afcommunity/fieldmap/internal/buildinfo"
	"github.com/afcommunity/fieldmap/internal/conf"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/telemetry"
)

const telemetryFlushTimeout = 2 * time.Second

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings, info buildinfo.Info) *cobra.Command {
	version := info.GetVersion()

	rootCmd := &cobra.Command{
		Use:           "fieldmap",
		Short:         "Wildlife field data client",
		Long:          "Browse and submit camera traps, wildlife sightings, geographic areas and communities.",
		Version:       info.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		serve.Command(settings, version),
		markers.Command(settings),
		show.Command(settings),
		communities.Command(settings),
		register.Command(settings),
	)

	var central *logger.CentralLogger
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		central, err = initialize(settings, version)
		return err
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		telemetry.Flush(telemetryFlushTimeout)
		if central != nil {
			_ = central.Close()
		}
	}

	return rootCmd
}

// initialize runs after flags are parsed: it validates the merged settings,
// installs the central logger and starts telemetry.
func initialize(settings *conf.Settings, version string) (*logger.CentralLogger, error) {
	if err := conf.ValidateSettings(settings); err != nil {
		return nil, err
	}

	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}
	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	if err := telemetry.InitSentry(settings, version); err != nil {
		central.Module("main").Warn("telemetry disabled", logger.Error(err))
	}
	return central, nil
}

// setupFlags defines flags that are global to the command line interface.
// Their defaults come from the loaded configuration.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	flags.StringVar(&settings.API.BaseURL, "api-url", settings.API.BaseURL, "Collaborator API root URL")
	flags.StringVar(&settings.API.UID, "uid", settings.API.UID, "User id sent with uid-scoped requests")
	flags.DurationVar(&settings.API.Timeout, "timeout", settings.API.Timeout, "Per-request timeout")
	flags.StringVar(&settings.Display.Timezone, "timezone", settings.Display.Timezone, "IANA time zone dates are shown in")
}
