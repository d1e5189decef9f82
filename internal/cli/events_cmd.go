package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/steveraffner/epicevents/internal/crm"
	"github.com/steveraffner/epicevents/internal/sanitize"
)

// newEventsCmd groups event management. Commercials create events for
// their signed contracts, management assigns support, support maintains
// their assigned events.
func newEventsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Manage events",
	}
	cmd.AddCommand(
		newEventsCreateCmd(app),
		newEventsListCmd(app),
		newEventsUpdateCmd(app),
	)
	return cmd
}

func newEventsCreateCmd(app *App) *cobra.Command {
	var contractID int64
	var start, end, location, notes string
	var attendees int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event for a signed contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.identity()
			if err != nil {
				return err
			}
			startsAt, err := parseEventTime(start)
			if err != nil {
				return err
			}
			endsAt, err := parseEventTime(end)
			if err != nil {
				return err
			}

			e, err := app.Events.Create(cmd.Context(), actor, crm.CreateEventInput{
				ContractID: contractID,
				StartsAt:   startsAt,
				EndsAt:     endsAt,
				Location:   location,
				Attendees:  attendees,
				Notes:      notes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				successStyle.Render("event created")+fmt.Sprintf(" #%d for contract %d", e.ID, e.ContractID))
			return nil
		},
	}

	cmd.Flags().Int64Var(&contractID, "contract", 0, "signed contract id")
	cmd.Flags().StringVar(&start, "start", "", `start time, "YYYY-MM-DD HH:MM"`)
	cmd.Flags().StringVar(&end, "end", "", `end time, "YYYY-MM-DD HH:MM"`)
	cmd.Flags().StringVar(&location, "location", "", "venue address")
	cmd.Flags().IntVar(&attendees, "attendees", 0, "expected attendee count")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.MarkFlagRequired("contract")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func newEventsListCmd(app *App) *cobra.Command {
	var noSupport, mine bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.identity()
			if err != nil {
				return err
			}

			var filter crm.EventFilter
			filter.NoSupport = noSupport
			if mine {
				filter.SupportID = &actor.UserID
			}

			events, err := app.Events.List(cmd.Context(), actor, filter)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(events))
			for _, e := range events {
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10), strconv.FormatInt(e.ContractID, 10),
					formatOptionalID(e.SupportID),
					e.StartsAt.Local().Format(eventTimeLayout),
					e.EndsAt.Local().Format(eventTimeLayout),
					sanitize.StripMarkup(e.Location), strconv.Itoa(e.Attendees),
				})
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"ID", "CONTRACT", "SUPPORT", "START", "END", "LOCATION", "ATTENDEES"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noSupport, "no-support", false, "only events without a support contact")
	cmd.Flags().BoolVar(&mine, "mine", false, "only events assigned to you")
	return cmd
}

func newEventsUpdateCmd(app *App) *cobra.Command {
	var supportID int64
	var start, end, location, notes string
	var attendees int

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid event id %q", args[0])
			}
			actor, err := app.identity()
			if err != nil {
				return err
			}

			var input crm.UpdateEventInput
			if cmd.Flags().Changed("support") {
				input.SupportID = &supportID
			}
			if cmd.Flags().Changed("start") {
				startsAt, err := parseEventTime(start)
				if err != nil {
					return err
				}
				input.StartsAt = &startsAt
			}
			if cmd.Flags().Changed("end") {
				endsAt, err := parseEventTime(end)
				if err != nil {
					return err
				}
				input.EndsAt = &endsAt
			}
			if cmd.Flags().Changed("location") {
				input.Location = &location
			}
			if cmd.Flags().Changed("attendees") {
				input.Attendees = &attendees
			}
			if cmd.Flags().Changed("notes") {
				input.Notes = &notes
			}

			e, err := app.Events.Update(cmd.Context(), actor, id, input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				successStyle.Render("event updated")+
					fmt.Sprintf(" #%d, support %s", e.ID, formatOptionalID(e.SupportID)))
			return nil
		},
	}

	cmd.Flags().Int64Var(&supportID, "support", 0, "assign a support collaborator (management only)")
	cmd.Flags().StringVar(&start, "start", "", `new start time, "YYYY-MM-DD HH:MM"`)
	cmd.Flags().StringVar(&end, "end", "", `new end time, "YYYY-MM-DD HH:MM"`)
	cmd.Flags().StringVar(&location, "location", "", "new venue address")
	cmd.Flags().IntVar(&attendees, "attendees", 0, "new attendee count")
	cmd.Flags().StringVar(&notes, "notes", "", "new notes")
	return cmd
}
