package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newLoginCmd authenticates a collaborator and stores the session.
func newLoginCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a collaborator",
		Long: `Log in with your username and password. The session token is stored
in your home directory and used by every other command until it expires
or you log out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			if password == "" {
				var err error
				password, err = promptPassword("Password: ")
				if err != nil {
					return err
				}
			}

			identity, err := app.Auth.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(),
				successStyle.Render("logged in")+fmt.Sprintf(" as %s (%s)", username, identity.Role))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "collaborator username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

// newLogoutCmd discards the current session.
func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and discard the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("logged out"))
			return nil
		},
	}
}

// newWhoamiCmd shows the identity behind the current session.
func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := app.Sessions.Current()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, labelStyle.Render("user id")+fmt.Sprintf("%d", cur.UserID))
			fmt.Fprintln(out, labelStyle.Render("role")+string(cur.Role))
			fmt.Fprintln(out, labelStyle.Render("expires")+cur.Expiry.Local().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
