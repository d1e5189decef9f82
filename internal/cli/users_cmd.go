package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/steveraffner/epicevents/internal/crm"
)

// newUsersCmd groups collaborator management. Management only, enforced
// by the service layer.
func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage collaborator accounts",
	}
	cmd.AddCommand(
		newUsersCreateCmd(app),
		newUsersListCmd(app),
		newUsersUpdateCmd(app),
		newUsersDeleteCmd(app),
	)
	return cmd
}

func newUsersCreateCmd(app *App) *cobra.Command {
	var username, email, password, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a collaborator",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.identity()
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = promptPassword("Password for new collaborator: "); err != nil {
					return err
				}
			}

			u, err := app.Users.Create(cmd.Context(), actor, crm.CreateUserInput{
				Username: username,
				Email:    email,
				Password: password,
				Role:     role,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				successStyle.Render("collaborator created")+fmt.Sprintf(" #%d %s (%s)", u.ID, u.Username, u.Role))
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "unique username")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&role, "role", "", "role: management, commercial or support")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("role")
	return cmd
}

func newUsersListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collaborators",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.identity()
			if err != nil {
				return err
			}
			users, err := app.Users.List(cmd.Context(), actor)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{
					strconv.FormatInt(u.ID, 10), u.Username, u.Email, string(u.Role),
				})
			}
			renderTable(cmd.OutOrStdout(), []string{"ID", "USERNAME", "EMAIL", "ROLE"}, rows)
			return nil
		},
	}
}

func newUsersUpdateCmd(app *App) *cobra.Command {
	var username, email, password, role string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a collaborator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid collaborator id %q", args[0])
			}
			actor, err := app.identity()
			if err != nil {
				return err
			}

			var input crm.UpdateUserInput
			if cmd.Flags().Changed("username") {
				input.Username = &username
			}
			if cmd.Flags().Changed("email") {
				input.Email = &email
			}
			if cmd.Flags().Changed("password") {
				input.Password = &password
			}
			if cmd.Flags().Changed("role") {
				input.Role = &role
			}

			u, err := app.Users.Update(cmd.Context(), actor, id, input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				successStyle.Render("collaborator updated")+fmt.Sprintf(" #%d %s", u.ID, u.Username))
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "new username")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	cmd.Flags().StringVar(&role, "role", "", "new role")
	return cmd
}

func newUsersDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a collaborator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid collaborator id %q", args[0])
			}
			actor, err := app.identity()
			if err != nil {
				return err
			}
			if err := app.Users.Delete(cmd.Context(), actor, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("collaborator deleted")+fmt.Sprintf(" #%d", id))
			return nil
		},
	}
}
