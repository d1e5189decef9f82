package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveraffner/epicevents/internal/auth"
	"github.com/steveraffner/epicevents/internal/authz"
	"github.com/steveraffner/epicevents/internal/crm"
	"github.com/steveraffner/epicevents/internal/database"
	"github.com/steveraffner/epicevents/internal/sanitize"
)

// newInitDBCmd creates or upgrades the database schema. Migrations are
// tracked, so rerunning is safe.
func newInitDBCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.RunMigrations(app.DB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("database ready"))
			return nil
		},
	}
}

// newCreateSuperuserCmd bootstraps the first management account. It talks
// to the repository directly because no identity exists yet to authorize
// through the service layer; it refuses to run once any account exists.
func newCreateSuperuserCmd(app *App) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create the first management account",
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, err := app.UserRepo.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return fmt.Errorf("collaborators already exist, use 'users create' instead")
			}

			username, err = sanitize.Username(username)
			if err != nil {
				return err
			}
			email, err = sanitize.Email(email)
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = promptPassword("Password for superuser: "); err != nil {
					return err
				}
			}
			password, err = sanitize.Password(password)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			u := &crm.User{
				Username:     username,
				Email:        email,
				PasswordHash: hash,
				Role:         authz.RoleManagement,
			}
			if err := app.UserRepo.Create(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				successStyle.Render("superuser created")+fmt.Sprintf(" #%d %s", u.ID, u.Username))
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "superuser username")
	cmd.Flags().StringVar(&email, "email", "", "superuser email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("email")
	return cmd
}
