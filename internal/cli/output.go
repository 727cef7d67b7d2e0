package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/valter-silva-au/planwise/internal/core"
	"github.com/valter-silva-au/planwise/pkg/models"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true)
	doneRowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hintStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const titleWidth = 36

// printTaskTable prints tasks with their 1-based display position.
func printTaskTable(w io.Writer, tasks []models.Task, searching bool) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		fmt.Fprintln(w, hintStyle.Render(emptyHint(searching)))
		return
	}

	header := fmt.Sprintf("%3s  %-3s  %-*s  %-10s  %-8s  %4s  %4s  %3s  %s",
		"#", "", titleWidth, "TITLE", "CATEGORY", "PRIORITY", "MIN", "LOAD", "PTS", "ID")
	fmt.Fprintln(w, tableHeaderStyle.Render(header))

	for i, t := range tasks {
		check := "[ ]"
		points := fmt.Sprintf("%3d", core.TaskPoints(t))
		if t.Completed {
			check = "[x]"
			points = "  -"
		}
		row := fmt.Sprintf("%3d  %-3s  %-*s  %-10s  %-8s  %4d  %4d  %s  %s",
			i+1, check, titleWidth, truncate(t.Title, titleWidth), t.Category, t.Priority,
			t.EstimatedDuration, t.CognitiveLoad, points, t.ID)
		if t.Completed {
			row = doneRowStyle.Render(row)
		}
		fmt.Fprintln(w, row)
	}
}

func emptyHint(searching bool) string {
	if searching {
		return "Try a different search term or clear the filter."
	}
	return "Create one with: pw task add <title>"
}

func printTaskDetail(w io.Writer, t models.Task) {
	status := "active"
	if t.Completed {
		status = "completed"
	}
	fmt.Fprintf(w, "%s\n", tableHeaderStyle.Render(t.Title))
	fmt.Fprintf(w, "  ID:        %s\n", t.ID)
	fmt.Fprintf(w, "  Status:    %s\n", status)
	fmt.Fprintf(w, "  Category:  %s\n", t.Category)
	fmt.Fprintf(w, "  Priority:  %s\n", t.Priority)
	fmt.Fprintf(w, "  Duration:  %d min\n", t.EstimatedDuration)
	fmt.Fprintf(w, "  Load:      %d/10\n", t.CognitiveLoad)
	if t.IsDeepWork {
		fmt.Fprintf(w, "  Deep work: yes\n")
	}
	fmt.Fprintf(w, "  Order:     %d\n", t.Order)
	if !t.Completed {
		fmt.Fprintf(w, "  Points:    %d\n", core.TaskPoints(t))
	}
	if t.CompletedAt != nil {
		fmt.Fprintf(w, "  Completed: %s\n", t.CompletedAt.Local().Format(time.DateTime))
	}
	if t.Description != "" {
		fmt.Fprintf(w, "\n%s\n", t.Description)
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return strings.TrimSpace(string(r[:width-1])) + "…"
}
