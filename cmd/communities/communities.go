// Package communities lists, joins and searches communities.
package communities

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/afcommunity/fieldmap/internal/app"
	"github.com/afcommunity/fieldmap/internal/conf"
	"github.com/afcommunity/fieldmap/internal/panel"
)

// Command creates the communities command and its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "communities",
		Short: "List the communities you belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if err := a.CommunityPage.Load(cmd.Context()); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tDESCRIPTION")
			for _, c := range a.CommunityPage.Reader().Communities() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Code, c.Name, c.Description)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(joinCommand(settings), membersCommand(settings))
	return cmd
}

func joinCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "join <code>",
		Short: "Join a community with its join code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if err := a.CommunityPage.Load(cmd.Context()); err != nil {
				return err
			}
			res, err := a.CommunityPage.JoinCommunity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if res.Community != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Status, res.Community.Name)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Status)
			return nil
		},
	}
}

func membersCommand(settings *conf.Settings) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "members <code>",
		Short: "List the members of a community",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			members, err := a.CommunityPage.Members(cmd.Context(), args[0], query)
			if err != nil {
				return err
			}
			if len(members) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), panel.NoMembersMessage)
				return nil
			}
			for _, m := range members {
				if m.Email != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", m.Name, m.Email)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), m.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Only list members whose name contains this")
	return cmd
}
