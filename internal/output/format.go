// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nibzard/tasksync/internal/todo"
	"github.com/nibzard/tasksync/internal/utils"
)

// EmptyMessage is printed instead of a list with no tasks.
const EmptyMessage = "No tasks found."

// Format is an output format name.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat parses an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", Text:
		return Text, nil
	case JSON, YAML:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q, must be one of: text, json, yaml", s)
	}
}

// WriteTasks writes a task list.
// Text format: one "{[x]|[ ]} {ID:>4}  {TITLE}" line per task, with the
// description indented on the following line when present.
func WriteTasks(w io.Writer, format Format, tasks []todo.Task) error {
	if tasks == nil {
		tasks = []todo.Task{}
	}
	switch format {
	case JSON:
		return writeJSON(w, tasks)
	case YAML:
		return writeYAML(w, tasks)
	}

	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, EmptyMessage)
		return err
	}
	for _, task := range tasks {
		if _, err := fmt.Fprintf(w, "%s %4s  %s\n", checkbox(task), displayID(task.ID), normalizeTitle(task.Title)); err != nil {
			return err
		}
		if desc := utils.SanitizeLine(task.Description); strings.TrimSpace(desc) != "" {
			if _, err := fmt.Fprintf(w, "%10s%s\n", "", desc); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteTask writes the details of one task.
func WriteTask(w io.Writer, format Format, task todo.Task) error {
	switch format {
	case JSON:
		return writeJSON(w, task)
	case YAML:
		return writeYAML(w, task)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ID:          %s\n", displayID(task.ID))
	fmt.Fprintf(&b, "Title:       %s\n", normalizeTitle(task.Title))
	fmt.Fprintf(&b, "Status:      %s %s\n", checkbox(task), utils.SanitizeLine(string(task.Status)))
	if desc := utils.SanitizeText(task.Description); strings.TrimSpace(desc) != "" {
		lines := strings.Split(desc, "\n")
		fmt.Fprintf(&b, "Description: %s\n", lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(&b, "             %s\n", line)
		}
	}
	if task.CreatedAt != nil {
		fmt.Fprintf(&b, "Created:     %s\n", task.CreatedAt.Local().Format(time.DateTime))
	}
	if task.UpdatedAt != nil {
		fmt.Fprintf(&b, "Updated:     %s\n", task.UpdatedAt.Local().Format(time.DateTime))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func checkbox(task todo.Task) string {
	if task.Completed() {
		return "[x]"
	}
	return "[ ]"
}

func displayID(id todo.ID) string {
	return utils.SanitizeLine(string(id))
}

// normalizeTitle normalizes a task title for display.
// - Escape sequences and control characters are removed
// - Empty or whitespace-only titles become "(untitled)"
func normalizeTitle(title string) string {
	title = utils.SanitizeLine(title)
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
