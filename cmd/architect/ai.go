package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/lifearchitect/internal/goals"
	httpapi "github.com/fyrsmithlabs/lifearchitect/internal/http"
	"github.com/fyrsmithlabs/lifearchitect/internal/planner"
	"github.com/fyrsmithlabs/lifearchitect/internal/tasks"
)

func newGoalCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "goal <description>",
		Short: "Break a goal into actionable steps",
		Long: `Ask the planner to decompose a goal into steps. Add a step to a task
list with "architect accept".

Examples:
  architect goal Run a half marathon this autumn`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var g goals.Goal
			req := httpapi.DecomposeRequest{Goal: strings.Join(args, " ")}
			if err := newClient(opts).do(cmd.Context(), "POST", "/api/v1/goals/decompose", req, &g); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, g)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", headerStyle.Render(g.Name), dimStyle.Render(g.ID))
			w := newTable(cmd)
			for i, s := range g.DecomposedTasks {
				fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, s.Task, dimStyle.Render(s.Reason))
			}
			return w.Flush()
		},
	}
}

func newAcceptCmd(opts *options) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "accept <goal-id> <step>",
		Short: "Add a goal step to a task list",
		Long: `Add step <step> (1-based, as printed by "architect goal") of a goal to
a day's task list. Each step can be accepted once.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("step must be a positive number: %q", args[1])
			}
			path := fmt.Sprintf("/api/v1/goals/%s/tasks/%d/accept", url.PathEscape(args[0]), n-1)
			var out tasks.Task
			if err := newClient(opts).do(cmd.Context(), "POST", path, httpapi.AcceptRequest{Day: day}, &out); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %s\n", out.Text, out.DueDate)
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "day as YYYY-MM-DD (defaults to today)")
	return cmd
}

func newScheduleCmd(opts *options) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "schedule <description>",
		Short: "Turn a plain-language plan into timeline events",
		Long: `Describe your day and let the planner place it on the timeline.

Examples:
  architect schedule gym at 7am, deep work 9 to 12, call mom after 6pm`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r planner.ScheduleReport
			req := httpapi.ScheduleRequest{ScheduleDescription: strings.Join(args, " "), Day: day}
			if err := newClient(opts).do(cmd.Context(), "POST", "/api/v1/schedule", req, &r); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, r)
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.Message)
			if len(r.Added) > 0 {
				if err := printEvents(cmd, r.Added); err != nil {
					return err
				}
			}
			for _, s := range r.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(fmt.Sprintf("skipped %q (%s - %s): %s", s.Item.Description, s.Item.StartTime, s.Item.EndTime, s.Reason)))
			}
			for _, s := range r.Rejected {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(fmt.Sprintf("rejected item %d: %s", s.Index, s.Reason)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "day as YYYY-MM-DD (defaults to today)")
	return cmd
}

func newParseTimeCmd(opts *options) *cobra.Command {
	var reference string
	cmd := &cobra.Command{
		Use:   "parse-time <value>",
		Short: "Show how a time string is interpreted",
		Long: `Interpret a time the way the scheduler does.

Examples:
  architect parse-time "tomorrow 5pm"
  architect parse-time 14:30 --reference 2024-06-01T08:00:00Z`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out httpapi.TimeParseResponse
			req := httpapi.TimeParseRequest{Value: strings.Join(args, " "), Reference: reference}
			if err := newClient(opts).do(cmd.Context(), "POST", "/api/v1/timeparse", req, &out); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", out.Time.Format("2006-01-02 15:04 MST"), dimStyle.Render(out.Pattern))
			return nil
		},
	}
	cmd.Flags().StringVar(&reference, "reference", "", "reference time as RFC 3339 (defaults to now)")
	return cmd
}
