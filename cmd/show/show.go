// Package show renders the sidebar for a mode string.
package show

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/afcommunity/fieldmap/internal/app"
	"github.com/afcommunity/fieldmap/internal/conf"
	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/panel"
	"github.com/afcommunity/fieldmap/internal/session"
	"github.com/afcommunity/fieldmap/internal/sidebar"
)

// Command creates the show command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		page  string
		query string
	)

	cmd := &cobra.Command{
		Use:   "show [mode]",
		Short: "Render the sidebar for a mode",
		Long: "Load a page and print the sidebar for a mode string such as " +
			`"Camera Trap", "Success-Community" or "Camera-<camera id>-<date>".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			var c *session.Container
			switch page {
			case "map":
				c = a.MapPage
			case "community":
				c = a.CommunityPage
			default:
				return fmt.Errorf("unknown page %q, want map or community", page)
			}
			if err := c.Load(cmd.Context()); err != nil {
				return err
			}

			if len(args) == 1 {
				if _, err := c.Fire(sidebar.SetMode(args[0])); err != nil {
					return err
				}
			}

			d := c.Directive()
			var opts panel.Options
			if community, ok := d.Record.(entity.Community); ok {
				members, err := c.Members(cmd.Context(), community.Code, query)
				if err != nil {
					return err
				}
				opts = panel.Options{Members: members, Query: query}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", d.Panel, d.Mode)
			fmt.Fprint(cmd.OutOrStdout(), a.Renderer.Render(d, opts))
			return nil
		},
	}

	cmd.Flags().StringVar(&page, "page", "map", "Page to load: map or community")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Member filter for community details")
	return cmd
}
