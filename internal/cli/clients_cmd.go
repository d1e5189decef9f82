package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/steveraffner/epicevents/internal/crm"
	"github.com/steveraffner/epicevents/internal/sanitize"
)

// newClientsCmd groups client book management. Commercials own the
// clients they create; everyone may read the book.
func newClientsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage client records",
	}
	cmd.AddCommand(
		newClientsCreateCmd(app),
		newClientsListCmd(app),
		newClientsUpdateCmd(app),
		newClientsDeleteCmd(app),
	)
	return cmd
}

func newClientsCreateCmd(app *App) *cobra.Command {
	var fullName, email, phone, company string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a client owned by you",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.identity()
			if err != nil {
				return err
			}

			c, err := app.Clients.Create(cmd.Context(), actor, crm.CreateClientInput{
				FullName:    fullName,
				Email:       email,
				Phone:       phone,
				CompanyName: company,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				successStyle.Render("client created")+fmt.Sprintf(" #%d %s", c.ID, c.FullName))
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "name", "", "client full name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&company, "company", "", "company name")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("phone")
	return cmd
}

func newClientsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.identity()
			if err != nil {
				return err
			}
			clients, err := app.Clients.List(cmd.Context(), actor)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(clients))
			for _, c := range clients {
				// Free-text columns are stripped of markup on the way out.
				// Stored rows predating the current input pipeline may still
				// carry tags.
				rows = append(rows, []string{
					strconv.FormatInt(c.ID, 10),
					sanitize.StripMarkup(c.FullName), c.Email, c.Phone,
					sanitize.StripMarkup(c.CompanyName),
					strconv.FormatInt(c.CommercialID, 10),
				})
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"ID", "NAME", "EMAIL", "PHONE", "COMPANY", "COMMERCIAL"}, rows)
			return nil
		},
	}
}

func newClientsUpdateCmd(app *App) *cobra.Command {
	var fullName, email, phone, company string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a client you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid client id %q", args[0])
			}
			actor, err := app.identity()
			if err != nil {
				return err
			}

			var input crm.UpdateClientInput
			if cmd.Flags().Changed("name") {
				input.FullName = &fullName
			}
			if cmd.Flags().Changed("email") {
				input.Email = &email
			}
			if cmd.Flags().Changed("phone") {
				input.Phone = &phone
			}
			if cmd.Flags().Changed("company") {
				input.CompanyName = &company
			}

			c, err := app.Clients.Update(cmd.Context(), actor, id, input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				successStyle.Render("client updated")+fmt.Sprintf(" #%d %s", c.ID, c.FullName))
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "name", "", "new full name")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().StringVar(&phone, "phone", "", "new phone number")
	cmd.Flags().StringVar(&company, "company", "", "new company name")
	return cmd
}

func newClientsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid client id %q", args[0])
			}
			actor, err := app.identity()
			if err != nil {
				return err
			}
			if err := app.Clients.Delete(cmd.Context(), actor, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("client deleted")+fmt.Sprintf(" #%d", id))
			return nil
		},
	}
}
