package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasksync/internal/todo"
)

const (
	titleCharLimit       = 200
	descriptionCharLimit = 1000
)

// taskForm is the combined title and description form used for both
// creating and editing a task.
type taskForm struct {
	title       textinput.Model
	description textinput.Model
	focus       int
	editID      todo.ID // empty when creating
	submitting  bool
	session     int // bumped on every reset; never 0 once opened
}

func newTaskForm() taskForm {
	title := textinput.New()
	title.Prompt = "Title:       "
	title.Placeholder = "What needs to be done?"
	title.CharLimit = titleCharLimit
	title.Cursor.SetMode(cursor.CursorStatic)

	description := textinput.New()
	description.Prompt = "Description: "
	description.Placeholder = "optional"
	description.CharLimit = descriptionCharLimit
	description.Cursor.SetMode(cursor.CursorStatic)

	f := taskForm{title: title, description: description}
	f.setFocus(0)
	return f
}

// open prepares the form for a new task, or for editing task when non-nil.
func (f *taskForm) open(task *todo.Task) {
	f.reset()
	if task != nil {
		f.editID = task.ID
		f.title.SetValue(task.Title)
		f.description.SetValue(task.Description)
		f.title.CursorEnd()
		f.description.CursorEnd()
	}
}

// reset clears both fields and leaves the title focused. It starts a new
// session, so results of earlier submissions no longer apply to the form.
func (f *taskForm) reset() {
	f.session++
	f.title.Reset()
	f.description.Reset()
	f.editID = ""
	f.submitting = false
	f.setFocus(0)
}

func (f *taskForm) editing() bool {
	return f.editID != ""
}

func (f *taskForm) values() (title, description string) {
	return strings.TrimSpace(f.title.Value()), strings.TrimSpace(f.description.Value())
}

func (f *taskForm) setFocus(i int) {
	f.focus = i
	if i == 0 {
		f.title.Focus()
		f.description.Blur()
		return
	}
	f.title.Blur()
	f.description.Focus()
}

func (f *taskForm) nextField() {
	f.setFocus((f.focus + 1) % 2)
}

// update forwards msg to the focused input.
func (f *taskForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.title, cmd = f.title.Update(msg)
	} else {
		f.description, cmd = f.description.Update(msg)
	}
	return cmd
}

func (f *taskForm) view(width int) string {
	heading := "New task"
	if f.editing() {
		heading = "Edit task"
	}
	if f.submitting {
		heading += " (saving…)"
	}

	if width > 4 {
		inputWidth := max(width-len(f.title.Prompt)-6, 10)
		f.title.Width = inputWidth
		f.description.Width = inputWidth
	}

	body := titleStyle.Render(heading) + "\n" +
		f.title.View() + "\n" +
		f.description.View() + "\n" +
		helpStyle.Render("enter save · tab next field · esc cancel")
	return formStyle.Render(body)
}
