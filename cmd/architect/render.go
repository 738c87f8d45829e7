package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/lifearchitect/internal/habits"
	"github.com/fyrsmithlabs/lifearchitect/internal/tasks"
	"github.com/fyrsmithlabs/lifearchitect/internal/timeline"
)

var (
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	chainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
)

var sourceStyles = map[timeline.Source]lipgloss.Style{
	timeline.SourceSyncedCalendar: lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
	timeline.SourceUserPlanned:    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	timeline.SourceHabitLog:       lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	timeline.SourceAIScheduled:    lipgloss.NewStyle().Foreground(lipgloss.Color("177")),
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
}

func checkbox(done bool) string {
	if done {
		return doneStyle.Render("[x]")
	}
	return "[ ]"
}

func printTasks(cmd *cobra.Command, list []tasks.Task) error {
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("No tasks."))
		return nil
	}
	w := newTable(cmd)
	for i, t := range list {
		text := t.Text
		if t.IsCompleted {
			text = dimStyle.Render(text)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, checkbox(t.IsCompleted), text, dimStyle.Render(t.ID))
	}
	return w.Flush()
}

func printEvents(cmd *cobra.Command, list []timeline.Event) error {
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("No events."))
		return nil
	}
	w := newTable(cmd)
	for _, e := range list {
		style, ok := sourceStyles[e.Source]
		if !ok {
			style = dimStyle
		}
		fmt.Fprintf(w, "%s-%s\t%s\t%s\t%s\n",
			e.StartTime.Format("15:04"), e.EndTime.Format("15:04"),
			e.Title, style.Render(string(e.Source)), dimStyle.Render(e.ID))
	}
	return w.Flush()
}

func printHabits(cmd *cobra.Command, list []habits.Habit, day string) error {
	w := newTable(cmd)
	for _, h := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", checkbox(h.Completed(day)), h.Name, dimStyle.Render(h.Category), dimStyle.Render(h.ID))
	}
	return w.Flush()
}

// chainStrip renders one character per day of the summary's month:
// a filled square for completed days, a dot for missed ones and a space for
// days that have not happened yet.
func chainStrip(h habits.Habit, s habits.MonthSummary, today time.Time) string {
	month, err := time.ParseInLocation("2006-01", s.Month, today.Location())
	if err != nil {
		return ""
	}
	var b strings.Builder
	for d := month; d.Month() == month.Month(); d = d.AddDate(0, 0, 1) {
		switch {
		case d.After(today):
			b.WriteString(" ")
		case h.Completed(d.Format("2006-01-02")):
			b.WriteString(doneStyle.Render("■"))
		default:
			b.WriteString(dimStyle.Render("·"))
		}
	}
	return b.String()
}

func printChains(cmd *cobra.Command, list []habits.Habit, sums []habits.MonthSummary, today time.Time) error {
	byID := make(map[string]habits.Habit, len(list))
	for _, h := range list {
		byID[h.ID] = h
	}
	w := newTable(cmd)
	for _, s := range sums {
		h := byID[s.HabitID]
		mark := ""
		if s.FullMonthChain {
			mark = chainStyle.Render("chain")
		}
		fmt.Fprintf(w, "%s\t%s\t%d days\tstreak %d\t%s\n", h.Name, chainStrip(h, s, today), s.CompletedDays, s.CurrentStreak, mark)
	}
	return w.Flush()
}
