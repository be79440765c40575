// Package markers prints what the map layer draws.
package markers

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/afcommunity/fieldmap/internal/app"
	"github.com/afcommunity/fieldmap/internal/conf"
	"github.com/afcommunity/fieldmap/internal/geo"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/mapview"
)

// Command creates the markers command.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "markers",
		Short: "List the cameras, sightings and areas on the map",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if err := a.MapPage.Load(cmd.Context()); err != nil {
				return err
			}
			view := mapview.Build(a.MapPage.Reader(), logger.Global().Module("mapview"))

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			return Print(cmd.OutOrStdout(), view)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the map layer as JSON")
	return cmd
}

// Print writes one line per marker and outline.
func Print(w io.Writer, view mapview.View) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tKEY\tPOSITION\tTITLE")
	for _, m := range view.Markers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Kind, m.Key, geo.FormatDelimited(m.Lat, m.Lon), m.Title)
	}
	for _, o := range view.Areas {
		fmt.Fprintf(tw, "area\t%s\t%s\t%s\n", o.Name, geo.FormatDelimited(o.Center[0], o.Center[1]), o.Name)
	}
	if view.Skipped > 0 {
		fmt.Fprintf(tw, "\n%d record(s) without a usable position\n", view.Skipped)
	}
	return tw.Flush()
}
