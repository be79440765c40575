// Package register adds the configured user to the collaborator API.
package register

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/afcommunity/fieldmap/internal/app"
	"github.com/afcommunity/fieldmap/internal/conf"
)

// Command creates the register command.
func Command(settings *conf.Settings) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the configured user id with a display name and email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if settings.API.UID == "" {
				return fmt.Errorf("no user id configured, set api.uid or --uid")
			}

			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if err := a.Client.RegisterUser(cmd.Context(), settings.API.UID, name, email); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
