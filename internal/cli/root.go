package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveraffner/epicevents/internal/apperror"
)

// NewRootCmd assembles the epicevents command tree.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "epicevents",
		Short: "Epic Events CRM",
		Long: `Epic Events CRM manages clients, contracts and events from the
terminal. Log in first; every command checks your role before touching
anything.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newUsersCmd(app),
		newClientsCmd(app),
		newContractsCmd(app),
		newEventsCmd(app),
		newInitDBCmd(app),
		newCreateSuperuserCmd(app),
	)

	return root
}

// Execute runs the command tree and renders failures with their safe
// message only; internal details stay in the logs.
func Execute(app *App) int {
	if err := NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+apperror.SafeMessage(err))
		return 1
	}
	return 0
}
