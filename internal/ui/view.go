package ui

import (
	"github.com/nibzard/tasksync/internal/todo"
	"github.com/nibzard/tasksync/internal/utils"
)

// EmptyMessage is the placeholder row shown for an empty task list.
const EmptyMessage = "No tasks found."

// ViewState is the controller state the list view is built from.
type ViewState struct {
	Filter todo.Filter
	Tasks  []todo.Task
	Cursor int
	Loaded bool
}

// FilterButton is one entry of the filter bar.
type FilterButton struct {
	Label  string
	Value  todo.Filter
	Key    string
	Active bool
}

// ItemView is one rendered task. Text fields are already sanitized.
type ItemView struct {
	ID          string
	Title       string
	Description string
	Checked     bool
	Completed   bool
	Selected    bool
}

// ListView is everything the renderer needs to draw the task list.
type ListView struct {
	Filters      []FilterButton
	Items        []ItemView
	Loading      bool
	Empty        bool
	EmptyMessage string
}

var filterLabels = map[todo.Filter]string{
	todo.FilterAll:       "All",
	todo.FilterActive:    "Active",
	todo.FilterCompleted: "Completed",
}

// BuildListView turns controller state into a view-model. It has no side
// effects, and all task text in the result is safe to print.
func BuildListView(state ViewState) ListView {
	view := ListView{EmptyMessage: EmptyMessage}

	filter := state.Filter
	if filter == "" {
		filter = todo.FilterAll
	}
	for i, f := range todo.Filters() {
		view.Filters = append(view.Filters, FilterButton{
			Label:  filterLabels[f],
			Value:  f,
			Key:    string(rune('1' + i)),
			Active: f == filter,
		})
	}

	if !state.Loaded {
		view.Loading = true
		return view
	}
	if len(state.Tasks) == 0 {
		view.Empty = true
		return view
	}

	view.Items = make([]ItemView, 0, len(state.Tasks))
	for i, task := range state.Tasks {
		done := task.Status == todo.StatusCompleted
		view.Items = append(view.Items, ItemView{
			ID:          utils.SanitizeLine(string(task.ID)),
			Title:       utils.SanitizeLine(task.Title),
			Description: utils.SanitizeLine(task.Description),
			Checked:     done,
			Completed:   done,
			Selected:    i == state.Cursor,
		})
	}
	return view
}
