package ui

import (
	"context"
	"strconv"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasksync/internal/api"
	"github.com/nibzard/tasksync/internal/todo"
)

// serviceCall records one request made through fakeService.
type serviceCall struct {
	op        string
	id        todo.ID
	filter    todo.Filter
	draft     todo.Draft
	patch     todo.Patch
	cancelled bool
}

// fakeService is an in-memory api.Service. It answers even when the
// request context is already cancelled, like a response arriving late.
type fakeService struct {
	mu     sync.Mutex
	tasks  []todo.Task
	nextID int
	calls  []serviceCall

	listErr   error
	createErr error
	updateErr error
	deleteErr error
}

var _ api.Service = (*fakeService)(nil)

func newFakeService(tasks ...todo.Task) *fakeService {
	f := &fakeService{nextID: 1}
	for _, task := range tasks {
		if task.ID == "" {
			task.ID = todo.ID(strconv.Itoa(f.nextID))
		}
		if task.Status == "" {
			task.Status = todo.StatusActive
		}
		f.nextID++
		f.tasks = append(f.tasks, task)
	}
	return f
}

func (f *fakeService) record(ctx context.Context, c serviceCall) {
	c.cancelled = ctx.Err() != nil
	f.calls = append(f.calls, c)
}

func (f *fakeService) List(ctx context.Context, filter todo.Filter) ([]todo.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, serviceCall{op: "list", filter: filter})
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []todo.Task{}
	for _, task := range f.tasks {
		if s := filter.Status(); s != "" && task.Status != s {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (f *fakeService) Get(ctx context.Context, id todo.ID) (todo.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, serviceCall{op: "get", id: id})
	if i := f.index(id); i >= 0 {
		return f.tasks[i], nil
	}
	return todo.Task{}, api.ErrNotFound
}

func (f *fakeService) Create(ctx context.Context, draft todo.Draft) (todo.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, serviceCall{op: "create", draft: draft})
	if f.createErr != nil {
		return todo.Task{}, f.createErr
	}
	task := todo.Task{
		ID:          todo.ID(strconv.Itoa(f.nextID)),
		Title:       draft.Title,
		Description: draft.Description,
		Status:      todo.StatusActive,
	}
	f.nextID++
	f.tasks = append(f.tasks, task)
	return task, nil
}

func (f *fakeService) Update(ctx context.Context, id todo.ID, patch todo.Patch) (todo.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, serviceCall{op: "update", id: id, patch: patch})
	if f.updateErr != nil {
		return todo.Task{}, f.updateErr
	}
	i := f.index(id)
	if i < 0 {
		return todo.Task{}, api.ErrNotFound
	}
	if patch.Title != nil {
		f.tasks[i].Title = *patch.Title
	}
	if patch.Description != nil {
		f.tasks[i].Description = *patch.Description
	}
	if patch.Status != nil {
		f.tasks[i].Status = *patch.Status
	}
	return f.tasks[i], nil
}

func (f *fakeService) Delete(ctx context.Context, id todo.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, serviceCall{op: "delete", id: id})
	if f.deleteErr != nil {
		return f.deleteErr
	}
	i := f.index(id)
	if i < 0 {
		return api.ErrNotFound
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

func (f *fakeService) Ping(context.Context) error {
	return nil
}

func (f *fakeService) index(id todo.ID) int {
	for i, task := range f.tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

// callsOf returns the recorded calls with the given op.
func (f *fakeService) callsOf(op string) []serviceCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []serviceCall
	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeService) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// run executes cmd and feeds controller messages back into c until the
// chain settles.
func run(t *testing.T, c *Controller, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		if i > 20 {
			t.Fatal("command chain did not settle")
		}
		msg := cmd()
		switch msg.(type) {
		case tasksFetchedMsg, mutationMsg:
			_, cmd = c.Update(msg)
		default:
			return
		}
	}
}

// press sends a key to c and runs the resulting command chain.
func press(t *testing.T, c *Controller, keys ...tea.KeyMsg) {
	t.Helper()
	for _, key := range keys {
		_, cmd := c.Update(key)
		run(t, c, cmd)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// typeText types s into the focused form field.
func typeText(t *testing.T, c *Controller, s string) {
	t.Helper()
	press(t, c, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// started returns a controller whose first fetch has completed.
func started(t *testing.T, svc *fakeService, filter todo.Filter) *Controller {
	t.Helper()
	c := NewController(context.Background(), svc, nil, filter)
	run(t, c, c.Init())
	svc.resetCalls()
	return c
}
