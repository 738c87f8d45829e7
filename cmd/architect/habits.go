package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/lifearchitect/internal/habits"
)

// resolveHabit accepts a 1-based position in the habit list or a habit id.
func resolveHabit(ctx context.Context, c *client, ref string) (string, error) {
	n, err := strconv.Atoi(ref)
	if err != nil {
		return ref, nil
	}
	var list []habits.Habit
	if err := c.do(ctx, "GET", "/api/v1/habits", nil, &list); err != nil {
		return "", err
	}
	if n < 1 || n > len(list) {
		return "", fmt.Errorf("no habit #%d (%d habits)", n, len(list))
	}
	return list[n-1].ID, nil
}

func newHabitsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habits",
		Short: "Track habits",
		Long: `Track daily habits and their month chains.

Examples:
  architect habits list
  architect habits add "Drink water" --category diet
  architect habits check 1
  architect habits chains --month 2024-06`,
	}

	var day string
	list := &cobra.Command{
		Use:   "list",
		Short: "List habits and whether they are done on a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out []habits.Habit
			if err := newClient(opts).do(cmd.Context(), "GET", "/api/v1/habits", nil, &out); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, out)
			}
			key, err := dayKey(day)
			if err != nil {
				return err
			}
			return printHabits(cmd, out, key)
		},
	}
	list.Flags().StringVar(&day, "day", "today", "day as YYYY-MM-DD or 'today'")

	var in habits.Input
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a habit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = strings.Join(args, " ")
			var out habits.Habit
			if err := newClient(opts).do(cmd.Context(), "POST", "/api/v1/habits", in, &out); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added habit %q (%s)\n", out.Name, out.Category)
			return nil
		},
	}
	add.Flags().StringVar(&in.Category, "category", "Exercise", "one of Exercise, Diet, Mindfulness, Work, Learning")
	add.Flags().StringVar(&in.Color, "color", "", "display color (defaults to the category color)")

	completion := func(done bool) *cobra.Command {
		use, short := "check <habit>", "Mark a habit done"
		method := "PUT"
		if !done {
			use, short = "uncheck <habit>", "Mark a habit not done"
			method = "DELETE"
		}
		var day string
		c := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cl := newClient(opts)
				id, err := resolveHabit(cmd.Context(), cl, args[0])
				if err != nil {
					return err
				}
				var out habits.Habit
				path := "/api/v1/habits/" + url.PathEscape(id) + "/completions/" + url.PathEscape(day)
				if err := cl.do(cmd.Context(), method, path, nil, &out); err != nil {
					return err
				}
				if opts.json {
					return printJSON(cmd, out)
				}
				key, err := dayKey(day)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", checkbox(out.Completed(key)), out.Name)
				return nil
			},
		}
		c.Flags().StringVar(&day, "day", "today", "day as YYYY-MM-DD or 'today'")
		return c
	}

	rm := &cobra.Command{
		Use:   "rm <habit>",
		Short: "Delete a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(opts)
			id, err := resolveHabit(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			if err := c.do(cmd.Context(), "DELETE", "/api/v1/habits/"+url.PathEscape(id), nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	}

	var month string
	chains := &cobra.Command{
		Use:   "chains",
		Short: "Show month chains and streaks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClient(opts)
			path := "/api/v1/habits/chains"
			if month != "" {
				path += "?month=" + url.QueryEscape(month)
			}
			var sums []habits.MonthSummary
			if err := c.do(cmd.Context(), "GET", path, nil, &sums); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, sums)
			}
			var list []habits.Habit
			if err := c.do(cmd.Context(), "GET", "/api/v1/habits", nil, &list); err != nil {
				return err
			}
			if len(sums) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(sums[0].Month))
			}
			return printChains(cmd, list, sums, time.Now())
		},
	}
	chains.Flags().StringVar(&month, "month", "", "month as YYYY-MM (defaults to the current month)")

	cmd.AddCommand(list, add, completion(true), completion(false), rm, chains)
	return cmd
}

// dayKey turns a --day value into YYYY-MM-DD in the local zone.
func dayKey(day string) (string, error) {
	if day == "" || day == "today" {
		return time.Now().Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return "", fmt.Errorf("day must be 'today' or YYYY-MM-DD: %q", day)
	}
	return day, nil
}
