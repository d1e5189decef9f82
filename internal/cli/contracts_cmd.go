package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/steveraffner/epicevents/internal/crm"
)

// newContractsCmd groups contract management. Management creates
// contracts; commercials update those of their own clients.
func newContractsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "Manage contracts",
	}
	cmd.AddCommand(
		newContractsCreateCmd(app),
		newContractsListCmd(app),
		newContractsUpdateCmd(app),
		newContractsDeleteCmd(app),
	)
	return cmd
}

func newContractsCreateCmd(app *App) *cobra.Command {
	var clientID int64
	var total, remaining string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a contract for a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.identity()
			if err != nil {
				return err
			}

			c, err := app.Contracts.Create(cmd.Context(), actor, crm.CreateContractInput{
				ClientID:        clientID,
				TotalAmount:     total,
				RemainingAmount: remaining,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				successStyle.Render("contract created")+
					fmt.Sprintf(" #%d for client %d, total %s", c.ID, c.ClientID, formatAmount(c.TotalAmount)))
			return nil
		},
	}

	cmd.Flags().Int64Var(&clientID, "client", 0, "client id")
	cmd.Flags().StringVar(&total, "total", "", "total amount, e.g. 1500,50")
	cmd.Flags().StringVar(&remaining, "remaining", "", "remaining amount to pay")
	cmd.MarkFlagRequired("client")
	cmd.MarkFlagRequired("total")
	cmd.MarkFlagRequired("remaining")
	return cmd
}

func newContractsListCmd(app *App) *cobra.Command {
	var signed, unsigned, unpaid bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if signed && unsigned {
				return fmt.Errorf("--signed and --unsigned are mutually exclusive")
			}
			actor, err := app.identity()
			if err != nil {
				return err
			}

			var filter crm.ContractFilter
			if signed {
				v := true
				filter.Signed = &v
			}
			if unsigned {
				v := false
				filter.Signed = &v
			}
			filter.Unpaid = unpaid

			contracts, err := app.Contracts.List(cmd.Context(), actor, filter)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(contracts))
			for _, c := range contracts {
				rows = append(rows, []string{
					strconv.FormatInt(c.ID, 10), strconv.FormatInt(c.ClientID, 10),
					formatAmount(c.TotalAmount), formatAmount(c.RemainingAmount), yesNo(c.Signed),
				})
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"ID", "CLIENT", "TOTAL", "REMAINING", "SIGNED"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&signed, "signed", false, "only signed contracts")
	cmd.Flags().BoolVar(&unsigned, "unsigned", false, "only unsigned contracts")
	cmd.Flags().BoolVar(&unpaid, "unpaid", false, "only contracts with a remaining amount")
	return cmd
}

func newContractsUpdateCmd(app *App) *cobra.Command {
	var total, remaining string
	var sign bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid contract id %q", args[0])
			}
			actor, err := app.identity()
			if err != nil {
				return err
			}

			var input crm.UpdateContractInput
			if cmd.Flags().Changed("total") {
				input.TotalAmount = &total
			}
			if cmd.Flags().Changed("remaining") {
				input.RemainingAmount = &remaining
			}
			if cmd.Flags().Changed("sign") {
				input.Signed = &sign
			}

			c, err := app.Contracts.Update(cmd.Context(), actor, id, input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				successStyle.Render("contract updated")+
					fmt.Sprintf(" #%d, remaining %s, signed %s", c.ID, formatAmount(c.RemainingAmount), yesNo(c.Signed)))
			return nil
		},
	}

	cmd.Flags().StringVar(&total, "total", "", "new total amount")
	cmd.Flags().StringVar(&remaining, "remaining", "", "new remaining amount")
	cmd.Flags().BoolVar(&sign, "sign", false, "mark the contract as signed")
	return cmd
}

func newContractsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid contract id %q", args[0])
			}
			actor, err := app.identity()
			if err != nil {
				return err
			}
			if err := app.Contracts.Delete(cmd.Context(), actor, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("contract deleted")+fmt.Sprintf(" #%d", id))
			return nil
		},
	}
}
