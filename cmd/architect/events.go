package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/lifearchitect/internal/timeline"
)

func eventsPath(day string, parts ...string) string {
	p := "/api/v1/days/" + url.PathEscape(day) + "/events"
	for _, s := range parts {
		p += "/" + url.PathEscape(s)
	}
	return p
}

func newEventsCmd(opts *options) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Manage a day's timeline",
		Long: `Manage the timeline events of a day.

Examples:
  architect events list
  architect events add "Dentist" --start 14:00 --end 15:00
  architect events rm <id> --day 2024-06-01`,
	}
	cmd.PersistentFlags().StringVar(&day, "day", "today", "day as YYYY-MM-DD or 'today'")

	list := &cobra.Command{
		Use:   "list",
		Short: "List events in start order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out []timeline.Event
			if err := newClient(opts).do(cmd.Context(), "GET", eventsPath(day), nil, &out); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, out)
			}
			return printEvents(cmd, out)
		},
	}

	form := timeline.Form{Source: timeline.SourceUserPlanned}
	var source string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Add an event",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Title = strings.Join(args, " ")
			form.Source = timeline.Source(source)
			var out timeline.Event
			if err := newClient(opts).do(cmd.Context(), "POST", eventsPath(day), form, &out); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, out)
			}
			return printEvents(cmd, []timeline.Event{out})
		},
	}
	add.Flags().StringVar(&form.StartTime, "start", "", "start time as HH:mm")
	add.Flags().StringVar(&form.EndTime, "end", "", "end time as HH:mm")
	add.Flags().StringVar(&form.Description, "description", "", "optional description")
	add.Flags().StringVar(&source, "source", string(timeline.SourceUserPlanned), "event source")
	_ = add.MarkFlagRequired("start")
	_ = add.MarkFlagRequired("end")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient(opts).do(cmd.Context(), "DELETE", eventsPath(day, args[0]), nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}
