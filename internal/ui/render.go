package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/tasksync/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	activeFilterStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62"))
	filterStyle       = lipgloss.NewStyle().Faint(true)
	cursorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	completedStyle    = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	descriptionStyle  = lipgloss.NewStyle().Faint(true)
	placeholderStyle  = lipgloss.NewStyle().Italic(true).Faint(true)
	promptStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	formStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
	helpStyle         = lipgloss.NewStyle().Faint(true)
)

const (
	cursorMark  = "›"
	itemIndent  = 8
	minRowWidth = 20
)

// RenderList draws the filter bar and the task list of view.
// Width limits row length; zero means unlimited.
func RenderList(view ListView, width int) string {
	var b strings.Builder
	writeFilterBar(&b, view.Filters)
	b.WriteString("\n")
	writeItems(&b, view, width)
	return b.String()
}

func writeFilterBar(b *strings.Builder, filters []FilterButton) {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f.Active {
			parts = append(parts, activeFilterStyle.Render("["+f.Key+" "+f.Label+"]"))
			continue
		}
		parts = append(parts, filterStyle.Render(" "+f.Key+" "+f.Label+" "))
	}
	b.WriteString(strings.Join(parts, " "))
	b.WriteString("\n")
}

func writeItems(b *strings.Builder, view ListView, width int) {
	switch {
	case view.Loading:
		b.WriteString("  " + placeholderStyle.Render("Loading…") + "\n")
		return
	case view.Empty:
		b.WriteString("  " + placeholderStyle.Render(view.EmptyMessage) + "\n")
		return
	}

	rowWidth := 0
	if width > 0 {
		rowWidth = max(width-itemIndent, minRowWidth)
	}
	for _, item := range view.Items {
		b.WriteString(renderItem(item, rowWidth))
	}
}

func renderItem(item ItemView, rowWidth int) string {
	cursor := "  "
	if item.Selected {
		cursor = cursorStyle.Render(cursorMark) + " "
	}
	box := "[ ]"
	if item.Checked {
		box = "[x]"
	}

	title := utils.Truncate(item.Title, rowWidth)
	if item.Completed {
		title = completedStyle.Render(title)
	}

	var b strings.Builder
	b.WriteString(cursor + box + " " + title + "\n")
	if strings.TrimSpace(item.Description) != "" {
		desc := utils.Truncate(item.Description, rowWidth)
		b.WriteString(strings.Repeat(" ", 6) + descriptionStyle.Render(desc) + "\n")
	}
	return b.String()
}
