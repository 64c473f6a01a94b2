package ui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nibzard/tasksync/internal/api"
	"github.com/nibzard/tasksync/internal/logging"
	"github.com/nibzard/tasksync/internal/metrics"
	"github.com/nibzard/tasksync/internal/todo"
)

// DeletePrompt is shown while a delete waits for confirmation.
const DeletePrompt = "Are you sure you want to delete this task? (y/n)"

type mode int

const (
	modeList mode = iota
	modeCreate
	modeEdit
	modeConfirmDelete
)

// Mutation operations reported by mutationMsg.
const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// tasksFetchedMsg carries the result of one fetch, tagged with the sequence
// number it was issued under.
type tasksFetchedMsg struct {
	seq    uint64
	filter todo.Filter
	tasks  []todo.Task
	err    error
}

type mutationMsg struct {
	op  string
	id  todo.ID
	err error

	// session is the form session that submitted the mutation, or 0.
	session int
}

// Controller is the task list screen. It owns all list state and talks to
// the backend only through tea.Cmds, so state is touched solely by Update.
type Controller struct {
	ctx    context.Context
	svc    api.Service
	logger *log.Logger
	title  string

	filter todo.Filter
	seq    uint64
	cancel context.CancelFunc

	tasks   []todo.Task
	loaded  bool
	loading bool
	cursor  int
	pending int

	mode     mode
	form     taskForm
	deleteID todo.ID
	showHelp bool

	width  int
	height int
}

// Option configures a Controller.
type Option func(*Controller)

// WithTitle sets the heading shown above the list.
func WithTitle(title string) Option {
	return func(c *Controller) {
		c.title = title
	}
}

// NewController returns a controller that starts on filter.
func NewController(ctx context.Context, svc api.Service, logger *log.Logger, filter todo.Filter, opts ...Option) *Controller {
	if logger == nil {
		logger = logging.Discard()
	}
	if filter == "" {
		filter = todo.FilterAll
	}
	c := &Controller{
		ctx:    ctx,
		svc:    svc,
		logger: logger,
		title:  "tasksync",
		filter: filter,
		form:   newTaskForm(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init issues the first fetch.
func (c *Controller) Init() tea.Cmd {
	return c.fetchTasks(c.filter)
}

// Filter returns the active filter.
func (c *Controller) Filter() todo.Filter {
	return c.filter
}

// Tasks returns the tasks currently rendered.
func (c *Controller) Tasks() []todo.Task {
	return c.tasks
}

// fetchTasks supersedes any in-flight fetch and requests the list for filter.
func (c *Controller) fetchTasks(filter todo.Filter) tea.Cmd {
	c.seq++
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	c.loading = true

	seq := c.seq
	svc := c.svc
	return func() tea.Msg {
		tasks, err := svc.List(ctx, filter)
		return tasksFetchedMsg{seq: seq, filter: filter, tasks: tasks, err: err}
	}
}

// createTask sends a create request. A blank title sends nothing.
func (c *Controller) createTask(title, description string) tea.Cmd {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	ctx, svc, session := c.ctx, c.svc, c.form.session
	c.pending++
	return func() tea.Msg {
		_, err := svc.Create(ctx, todo.Draft{Title: title, Description: description})
		return mutationMsg{op: opCreate, session: session, err: err}
	}
}

// updateTask sends a partial update for id. session is the submitting form
// session, or 0 when the update did not come from the form.
func (c *Controller) updateTask(id todo.ID, patch todo.Patch, session int) tea.Cmd {
	ctx, svc := c.ctx, c.svc
	c.pending++
	return func() tea.Msg {
		_, err := svc.Update(ctx, id, patch)
		return mutationMsg{op: opUpdate, id: id, session: session, err: err}
	}
}

// deleteTask sends a delete request for id. Callers confirm first.
func (c *Controller) deleteTask(id todo.ID) tea.Cmd {
	ctx, svc := c.ctx, c.svc
	c.pending++
	return func() tea.Msg {
		return mutationMsg{op: opDelete, id: id, err: svc.Delete(ctx, id)}
	}
}

// toggleTaskStatus flips the status last rendered for id.
func (c *Controller) toggleTaskStatus(id todo.ID, current todo.Status) tea.Cmd {
	return c.updateTask(id, todo.StatusPatch(current.Toggle()), 0)
}

// setActiveFilter switches the filter and fetches under it.
func (c *Controller) setActiveFilter(filter todo.Filter) tea.Cmd {
	c.filter = filter
	return c.fetchTasks(filter)
}

// Update handles messages on the event loop.
func (c *Controller) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width, c.height = msg.Width, msg.Height
		return c, nil
	case tasksFetchedMsg:
		c.handleFetched(msg)
		return c, nil
	case mutationMsg:
		return c, c.handleMutation(msg)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return c, c.quit()
		}
		switch c.mode {
		case modeCreate, modeEdit:
			return c, c.updateForm(msg)
		case modeConfirmDelete:
			return c, c.updateConfirm(msg)
		default:
			return c, c.updateList(msg)
		}
	}

	if c.mode == modeCreate || c.mode == modeEdit {
		return c, c.form.update(msg)
	}
	return c, nil
}

func (c *Controller) handleFetched(msg tasksFetchedMsg) {
	if msg.seq != c.seq {
		metrics.StaleFetch()
		c.logger.Debug("discarding stale fetch result", "seq", msg.seq, "latest", c.seq, "filter", msg.filter)
		return
	}
	c.loading = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if msg.err != nil {
		if !errors.Is(msg.err, context.Canceled) {
			c.logger.Error("fetch tasks failed", "filter", msg.filter, "err", msg.err)
		}
		return
	}

	var selected todo.ID
	if c.cursor >= 0 && c.cursor < len(c.tasks) {
		selected = c.tasks[c.cursor].ID
	}
	c.tasks = msg.tasks
	c.loaded = true
	c.logger.Debug("fetched tasks", "filter", msg.filter, "count", len(msg.tasks))

	c.cursor = c.indexOf(selected, c.cursor)
}

// indexOf finds id in the rendered tasks, falling back to fallback clamped
// into range.
func (c *Controller) indexOf(id todo.ID, fallback int) int {
	if id != "" {
		for i, task := range c.tasks {
			if task.ID == id {
				return i
			}
		}
	}
	if fallback >= len(c.tasks) {
		fallback = len(c.tasks) - 1
	}
	return max(fallback, 0)
}

func (c *Controller) handleMutation(msg mutationMsg) tea.Cmd {
	if c.pending > 0 {
		c.pending--
	}

	// Only the form session that submitted may unlock or close the form.
	ownForm := msg.session != 0 && msg.session == c.form.session

	if msg.err != nil {
		c.logger.Error(msg.op+" task failed", "id", msg.id, "err", msg.err)
		if ownForm {
			c.form.submitting = false
		}
		return nil
	}

	c.logger.Info(msg.op+" task succeeded", "id", msg.id)
	if ownForm {
		c.form.reset()
		c.mode = modeList
	}
	return c.fetchTasks(c.filter)
}

func (c *Controller) updateList(msg tea.KeyMsg) tea.Cmd {
	if c.showHelp {
		switch msg.String() {
		case "q":
			return c.quit()
		default:
			c.showHelp = false
			return nil
		}
	}

	switch msg.String() {
	case "q":
		return c.quit()
	case "?", "h":
		c.showHelp = true
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(c.tasks)-1 {
			c.cursor++
		}
	case "home", "g":
		c.cursor = 0
	case "end", "G":
		c.cursor = max(len(c.tasks)-1, 0)
	case "1":
		return c.setActiveFilter(todo.FilterAll)
	case "2":
		return c.setActiveFilter(todo.FilterActive)
	case "3":
		return c.setActiveFilter(todo.FilterCompleted)
	case "tab":
		return c.setActiveFilter(c.filter.Next())
	case "r", "f5":
		return c.fetchTasks(c.filter)
	case "n", "a":
		c.form.open(nil)
		c.mode = modeCreate
	case "e", "enter":
		if task := c.selected(); task != nil {
			c.form.open(task)
			c.mode = modeEdit
		}
	case " ", "x":
		if task := c.selected(); task != nil {
			return c.toggleTaskStatus(task.ID, task.Status)
		}
	case "d", "delete":
		if task := c.selected(); task != nil {
			c.deleteID = task.ID
			c.mode = modeConfirmDelete
		}
	}
	return nil
}

func (c *Controller) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		c.form.reset()
		c.mode = modeList
		return nil
	case "tab", "shift+tab", "up", "down":
		c.form.nextField()
		return nil
	case "enter":
		if c.form.submitting {
			return nil
		}
		title, description := c.form.values()
		if title == "" {
			return nil
		}
		c.form.submitting = true
		if c.form.editing() {
			return c.updateTask(c.form.editID, todo.ContentPatch(title, description), c.form.session)
		}
		return c.createTask(title, description)
	}
	return c.form.update(msg)
}

func (c *Controller) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	id := c.deleteID
	c.deleteID = ""
	c.mode = modeList
	if msg.String() == "y" || msg.String() == "Y" {
		return c.deleteTask(id)
	}
	c.logger.Debug("delete declined", "id", id)
	return nil
}

func (c *Controller) selected() *todo.Task {
	if c.cursor < 0 || c.cursor >= len(c.tasks) {
		return nil
	}
	return &c.tasks[c.cursor]
}

func (c *Controller) quit() tea.Cmd {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return tea.Quit
}

// View renders the screen.
func (c *Controller) View() string {
	var b strings.Builder
	writeHeader(&b, c.title)

	if c.showHelp {
		writeHelp(&b)
		return b.String()
	}

	view := BuildListView(ViewState{
		Filter: c.filter,
		Tasks:  c.tasks,
		Cursor: c.cursor,
		Loaded: c.loaded,
	})
	b.WriteString(RenderList(view, c.width))
	b.WriteString("\n")

	switch c.mode {
	case modeCreate, modeEdit:
		b.WriteString(c.form.view(c.width))
		b.WriteString("\n")
	case modeConfirmDelete:
		b.WriteString(promptStyle.Render(DeletePrompt))
		b.WriteString("\n")
	default:
		writeFooter(&b, c.loading || c.pending > 0)
	}
	return b.String()
}

func writeHeader(b *strings.Builder, title string) {
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  n            New task\n")
	b.WriteString("  e, enter     Edit selected task\n")
	b.WriteString("  space, x     Toggle completed\n")
	b.WriteString("  d            Delete selected task\n")
	b.WriteString("  1 / 2 / 3    Show all / active / completed\n")
	b.WriteString("  tab          Next filter\n")
	b.WriteString("  r, F5        Refresh\n")
	b.WriteString("  j/k, arrows  Move\n")
	b.WriteString("  ?, h         Toggle this help screen\n")
	b.WriteString("  q, ctrl+c    Quit\n\n")
	b.WriteString(helpStyle.Render("Press any key to return"))
	b.WriteString("\n")
}

func writeFooter(b *strings.Builder, busy bool) {
	line := "n new · e edit · space toggle · d delete · 1-3 filter · ? help · q quit"
	if busy {
		line = "syncing… · " + line
	}
	b.WriteString(helpStyle.Render(line))
	b.WriteString("\n")
}
