package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	httpapi "github.com/fyrsmithlabs/lifearchitect/internal/http"
	"github.com/fyrsmithlabs/lifearchitect/internal/tasks"
)

func tasksPath(day string, parts ...string) string {
	p := "/api/v1/days/" + url.PathEscape(day) + "/tasks"
	for _, s := range parts {
		p += "/" + url.PathEscape(s)
	}
	return p
}

// resolveTask accepts a 1-based position in the day's list or a task id.
func resolveTask(ctx context.Context, c *client, day, ref string) (string, error) {
	n, err := strconv.Atoi(ref)
	if err != nil {
		return ref, nil
	}
	var list []tasks.Task
	if err := c.do(ctx, "GET", tasksPath(day), nil, &list); err != nil {
		return "", err
	}
	if n < 1 || n > len(list) {
		return "", fmt.Errorf("no task #%d on %s (%d tasks)", n, day, len(list))
	}
	return list[n-1].ID, nil
}

func newTasksCmd(opts *options) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage a day's task list",
		Long: `Manage the task list of a day. Tasks are referenced by their position
in "architect tasks list" or by id.

Examples:
  architect tasks add Review the quarterly plan
  architect tasks done 1
  architect tasks mv 3 1
  architect tasks migrate --day 2024-06-01`,
	}
	cmd.PersistentFlags().StringVar(&day, "day", "today", "day as YYYY-MM-DD or 'today'")

	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out []tasks.Task
			if err := newClient(opts).do(cmd.Context(), "GET", tasksPath(day), nil, &out); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, out)
			}
			return printTasks(cmd, out)
		},
	}

	var goalID string
	add := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out tasks.Task
			req := httpapi.AddTaskRequest{Text: strings.Join(args, " "), GoalID: goalID}
			if err := newClient(opts).do(cmd.Context(), "POST", tasksPath(day), req, &out); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %s\n", out.Text, out.DueDate)
			return nil
		},
	}
	add.Flags().StringVar(&goalID, "goal", "", "link the task to a goal id")

	done := &cobra.Command{
		Use:   "done <task>",
		Short: "Toggle a task's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(opts)
			id, err := resolveTask(cmd.Context(), c, day, args[0])
			if err != nil {
				return err
			}
			var out tasks.Task
			if err := c.do(cmd.Context(), "POST", tasksPath(day, id, "toggle"), nil, &out); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", checkbox(out.IsCompleted), out.Text)
			return nil
		},
	}

	edit := &cobra.Command{
		Use:   "edit <task> <text>",
		Short: "Change a task's text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(opts)
			id, err := resolveTask(cmd.Context(), c, day, args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			var out tasks.Task
			if err := c.do(cmd.Context(), "PATCH", tasksPath(day, id), httpapi.PatchTaskRequest{Text: &text}, &out); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated: %s\n", out.Text)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <task>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(opts)
			id, err := resolveTask(cmd.Context(), c, day, args[0])
			if err != nil {
				return err
			}
			if err := c.do(cmd.Context(), "DELETE", tasksPath(day, id), nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	}

	mv := &cobra.Command{
		Use:   "mv <task> <over>",
		Short: "Move a task to the position of another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(opts)
			active, err := resolveTask(cmd.Context(), c, day, args[0])
			if err != nil {
				return err
			}
			over, err := resolveTask(cmd.Context(), c, day, args[1])
			if err != nil {
				return err
			}
			var out []tasks.Task
			req := httpapi.ReorderRequest{ActiveID: active, OverID: over}
			if err := c.do(cmd.Context(), "POST", tasksPath(day, "reorder"), req, &out); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, out)
			}
			return printTasks(cmd, out)
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Move unfinished tasks to the next day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out httpapi.MigrateResponse
			if err := newClient(opts).do(cmd.Context(), "POST", tasksPath(day, "migrate"), nil, &out); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, out)
			}
			if out.Migrated == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No unfinished tasks on %s.\n", out.From)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %d task(s) from %s to %s.\n", out.Migrated, out.From, out.To)
			return nil
		},
	}

	cmd.AddCommand(list, add, done, edit, rm, mv, migrate)
	return cmd
}
