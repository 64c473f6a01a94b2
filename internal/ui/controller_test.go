package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasksync/internal/todo"
)

func TestInitFetchesStartingFilter(t *testing.T) {
	svc := newFakeService(
		todo.Task{Title: "a"},
		todo.Task{Title: "b", Status: todo.StatusCompleted},
	)
	c := NewController(context.Background(), svc, nil, todo.FilterCompleted)

	if !strings.Contains(c.View(), "Loading") {
		t.Fatalf("expected loading placeholder before first fetch:\n%s", c.View())
	}
	run(t, c, c.Init())

	lists := svc.callsOf("list")
	if len(lists) != 1 || lists[0].filter != todo.FilterCompleted {
		t.Fatalf("list calls = %+v", lists)
	}
	if got := len(c.Tasks()); got != 1 {
		t.Fatalf("tasks = %d, want 1", got)
	}
}

func TestEmptyListShowsPlaceholder(t *testing.T) {
	c := started(t, newFakeService(), todo.FilterAll)

	out := c.View()
	if !strings.Contains(out, EmptyMessage) {
		t.Fatalf("view missing %q:\n%s", EmptyMessage, out)
	}
	if strings.Contains(out, "[ ]") || strings.Contains(out, "[x]") {
		t.Fatalf("empty view should have no items:\n%s", out)
	}
}

func TestCompletedTaskRendersChecked(t *testing.T) {
	svc := newFakeService(
		todo.Task{Title: "write report"},
		todo.Task{Title: "buy milk", Status: todo.StatusCompleted},
	)
	c := started(t, svc, todo.FilterAll)

	out := c.View()
	if !strings.Contains(out, "[ ] write report") {
		t.Fatalf("active task not unchecked:\n%s", out)
	}
	if !strings.Contains(out, "[x] buy milk") {
		t.Fatalf("completed task not checked:\n%s", out)
	}
}

func TestCreateSendsOneRequestAndRefetches(t *testing.T) {
	svc := newFakeService()
	c := started(t, svc, todo.FilterActive)

	press(t, c, key("n"))
	typeText(t, c, "buy milk")
	press(t, c, key("tab"))
	typeText(t, c, "2 litres")

	// The request is issued but its result has not arrived yet.
	_, cmd := c.Update(key("enter"))
	if cmd == nil {
		t.Fatal("submit returned no command")
	}
	_, again := c.Update(key("enter"))
	if again != nil {
		t.Fatal("second submit while saving should be ignored")
	}
	run(t, c, cmd)

	creates := svc.callsOf("create")
	if len(creates) != 1 {
		t.Fatalf("create calls = %d, want 1", len(creates))
	}
	if creates[0].draft.Title != "buy milk" || creates[0].draft.Description != "2 litres" {
		t.Fatalf("draft = %+v", creates[0].draft)
	}

	lists := svc.callsOf("list")
	if len(lists) != 1 || lists[0].filter != todo.FilterActive {
		t.Fatalf("refetch calls = %+v, want one under active", lists)
	}
	if c.mode != modeList {
		t.Fatalf("mode = %v, want list", c.mode)
	}
	if title, desc := c.form.values(); title != "" || desc != "" {
		t.Fatalf("form not cleared: %q %q", title, desc)
	}
	if !strings.Contains(c.View(), "buy milk") {
		t.Fatalf("new task missing from view:\n%s", c.View())
	}
}

func TestCreateBlankTitleSendsNothing(t *testing.T) {
	svc := newFakeService()
	c := started(t, svc, todo.FilterAll)

	press(t, c, key("n"))
	typeText(t, c, "   ")
	press(t, c, key("enter"))

	if got := svc.callsOf("create"); len(got) != 0 {
		t.Fatalf("create calls = %d, want 0", len(got))
	}
	if c.mode != modeCreate {
		t.Fatalf("form should stay open, mode = %v", c.mode)
	}
}

func TestCreateFailureKeepsForm(t *testing.T) {
	svc := newFakeService()
	svc.createErr = errors.New("backend unavailable")
	c := started(t, svc, todo.FilterAll)

	press(t, c, key("n"))
	typeText(t, c, "buy milk")
	press(t, c, key("enter"))

	if c.mode != modeCreate {
		t.Fatalf("mode = %v, want create", c.mode)
	}
	if c.form.submitting {
		t.Fatal("form still marked submitting")
	}
	if title, _ := c.form.values(); title != "buy milk" {
		t.Fatalf("title = %q, want it kept", title)
	}
	if got := svc.callsOf("list"); len(got) != 0 {
		t.Fatalf("failed create should not refetch, got %d lists", len(got))
	}
}

func TestToggle(t *testing.T) {
	tests := []struct {
		name string
		from todo.Status
		want todo.Status
	}{
		{"active to completed", todo.StatusActive, todo.StatusCompleted},
		{"completed to active", todo.StatusCompleted, todo.StatusActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService(todo.Task{Title: "task", Status: tt.from})
			c := started(t, svc, todo.FilterAll)

			press(t, c, key("space"))

			updates := svc.callsOf("update")
			if len(updates) != 1 {
				t.Fatalf("update calls = %d, want 1", len(updates))
			}
			p := updates[0].patch
			if p.Status == nil || *p.Status != tt.want || p.Title != nil || p.Description != nil {
				t.Fatalf("patch = %+v, want status %s only", p, tt.want)
			}
			if got := c.Tasks()[0].Status; got != tt.want {
				t.Fatalf("rendered status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestToggleUnderFilterDropsTask(t *testing.T) {
	svc := newFakeService(todo.Task{Title: "task"})
	c := started(t, svc, todo.FilterActive)

	press(t, c, key("x"))

	if got := len(c.Tasks()); got != 0 {
		t.Fatalf("tasks = %d, want 0 under active filter", got)
	}
	if !strings.Contains(c.View(), EmptyMessage) {
		t.Fatalf("expected empty placeholder:\n%s", c.View())
	}
}

func TestDeleteConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		deletes int
	}{
		{"confirmed", "y", 1},
		{"confirmed upper", "Y", 1},
		{"declined", "n", 0},
		{"other key declines", "q", 0},
		{"escape declines", "esc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService(todo.Task{Title: "task"})
			c := started(t, svc, todo.FilterAll)

			press(t, c, key("d"))
			if !strings.Contains(c.View(), DeletePrompt) {
				t.Fatalf("confirmation prompt missing:\n%s", c.View())
			}
			press(t, c, key(tt.answer))

			if got := len(svc.callsOf("delete")); got != tt.deletes {
				t.Fatalf("delete calls = %d, want %d", got, tt.deletes)
			}
			if c.mode != modeList {
				t.Fatalf("mode = %v, want list", c.mode)
			}
			wantTasks := 1 - tt.deletes
			if got := len(c.Tasks()); got != wantTasks {
				t.Fatalf("tasks = %d, want %d", got, wantTasks)
			}
		})
	}
}

func TestSetActiveFilter(t *testing.T) {
	svc := newFakeService(
		todo.Task{Title: "open"},
		todo.Task{Title: "done", Status: todo.StatusCompleted},
	)
	c := started(t, svc, todo.FilterAll)

	press(t, c, key("3"))

	if c.Filter() != todo.FilterCompleted {
		t.Fatalf("filter = %s", c.Filter())
	}
	lists := svc.callsOf("list")
	if len(lists) != 1 || lists[0].filter != todo.FilterCompleted {
		t.Fatalf("list calls = %+v", lists)
	}
	out := c.View()
	if !strings.Contains(out, "[3 Completed]") {
		t.Fatalf("completed filter not marked active:\n%s", out)
	}
	if strings.Contains(out, "[1 All]") {
		t.Fatalf("all filter still marked active:\n%s", out)
	}
	if strings.Contains(out, "open") || !strings.Contains(out, "done") {
		t.Fatalf("list not filtered:\n%s", out)
	}

	press(t, c, key("tab"))
	if c.Filter() != todo.FilterAll {
		t.Fatalf("tab from completed = %s, want all", c.Filter())
	}
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	svc := newFakeService(
		todo.Task{Title: "open"},
		todo.Task{Title: "done", Status: todo.StatusCompleted},
	)
	c := started(t, svc, todo.FilterAll)

	first := c.setActiveFilter(todo.FilterActive)
	second := c.setActiveFilter(todo.FilterCompleted)

	run(t, c, second)
	// The superseded request answers last.
	run(t, c, first)

	lists := svc.callsOf("list")
	if len(lists) != 2 {
		t.Fatalf("list calls = %d, want 2", len(lists))
	}
	if !lists[1].cancelled {
		t.Fatal("superseded fetch context was not cancelled")
	}
	tasks := c.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "done" {
		t.Fatalf("tasks = %+v, want only the completed task", tasks)
	}
	if c.Filter() != todo.FilterCompleted {
		t.Fatalf("filter = %s", c.Filter())
	}
}

func TestFetchFailureKeepsList(t *testing.T) {
	svc := newFakeService(todo.Task{Title: "keep me"})
	c := started(t, svc, todo.FilterAll)

	svc.listErr = errors.New("connection refused")
	press(t, c, key("r"))

	if got := len(c.Tasks()); got != 1 {
		t.Fatalf("tasks = %d, want existing list kept", got)
	}
	if !strings.Contains(c.View(), "keep me") {
		t.Fatalf("view lost tasks:\n%s", c.View())
	}
}

func TestViewStripsControlSequences(t *testing.T) {
	svc := newFakeService(todo.Task{
		Title:       "\x1b[31mred\x1b[0m title",
		Description: "line one\nline two\x07",
	})
	c := started(t, svc, todo.FilterAll)

	out := c.View()
	for _, bad := range []string{"\x1b[31m", "\x07", "line one\nline two"} {
		if strings.Contains(out, bad) {
			t.Fatalf("view contains %q:\n%q", bad, out)
		}
	}
	if !strings.Contains(out, "red title") {
		t.Fatalf("title text missing:\n%s", out)
	}
}

func TestEditSendsCombinedUpdate(t *testing.T) {
	svc := newFakeService(todo.Task{Title: "old", Description: "old desc"})
	c := started(t, svc, todo.FilterAll)

	press(t, c, key("e"))
	if c.mode != modeEdit {
		t.Fatalf("mode = %v, want edit", c.mode)
	}
	if title, desc := c.form.values(); title != "old" || desc != "old desc" {
		t.Fatalf("form not prefilled: %q %q", title, desc)
	}
	typeText(t, c, "er")
	press(t, c, key("enter"))

	updates := svc.callsOf("update")
	if len(updates) != 1 {
		t.Fatalf("update calls = %d, want 1", len(updates))
	}
	p := updates[0].patch
	if p.Title == nil || *p.Title != "older" || p.Description == nil || *p.Description != "old desc" || p.Status != nil {
		t.Fatalf("patch = %+v", p)
	}
	if c.mode != modeList {
		t.Fatalf("mode = %v, want list", c.mode)
	}
	if got := c.Tasks()[0].Title; got != "older" {
		t.Fatalf("title = %q", got)
	}
}

func TestEditEscapeSendsNothing(t *testing.T) {
	svc := newFakeService(todo.Task{Title: "old"})
	c := started(t, svc, todo.FilterAll)

	press(t, c, key("e"))
	typeText(t, c, " changed")
	press(t, c, key("esc"))

	if got := svc.callsOf("update"); len(got) != 0 {
		t.Fatalf("update calls = %d, want 0", len(got))
	}
	if c.mode != modeList {
		t.Fatalf("mode = %v, want list", c.mode)
	}
}

func TestLateResultDoesNotTouchReopenedForm(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		submit    bool // submit the edit before the create result arrives
	}{
		{name: "create succeeds"},
		{name: "create fails", createErr: errors.New("boom")},
		{name: "create fails while edit saves", createErr: errors.New("boom"), submit: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService(todo.Task{Title: "existing"})
			svc.createErr = tt.createErr
			c := started(t, svc, todo.FilterAll)

			press(t, c, key("n"))
			typeText(t, c, "new")
			_, create := c.Update(key("enter"))
			if create == nil {
				t.Fatal("submit returned no command")
			}

			press(t, c, key("esc"), key("e"))
			typeText(t, c, " edited")
			var edit tea.Cmd
			if tt.submit {
				_, edit = c.Update(key("enter"))
				if edit == nil {
					t.Fatal("edit submit returned no command")
				}
			}

			run(t, c, create)

			if c.mode != modeEdit {
				t.Fatalf("mode = %v, want edit", c.mode)
			}
			if c.form.editID != "1" {
				t.Fatalf("editID = %q, want 1", c.form.editID)
			}
			if title, _ := c.form.values(); title != "existing edited" {
				t.Fatalf("title = %q, want %q", title, "existing edited")
			}
			if c.form.submitting != tt.submit {
				t.Fatalf("submitting = %v, want %v", c.form.submitting, tt.submit)
			}

			if tt.submit {
				run(t, c, edit)
				if c.mode != modeList {
					t.Fatalf("mode after edit result = %v, want list", c.mode)
				}
				if got := svc.callsOf("update"); len(got) != 1 || *got[0].patch.Title != "existing edited" {
					t.Fatalf("update calls = %+v", got)
				}
			}
		})
	}
}

func TestSelectionFollowsTaskAcrossRefetch(t *testing.T) {
	svc := newFakeService(
		todo.Task{Title: "first"},
		todo.Task{Title: "second"},
		todo.Task{Title: "third"},
	)
	c := started(t, svc, todo.FilterAll)

	press(t, c, key("down"), key("down"))
	if c.selected().Title != "third" {
		t.Fatalf("selected = %q", c.selected().Title)
	}

	// Remove a task above the selection behind the controller's back.
	svc.tasks = svc.tasks[1:]
	press(t, c, key("r"))

	if got := c.selected(); got == nil || got.Title != "third" {
		t.Fatalf("selection did not follow task: %+v", got)
	}
}

func TestQuitCancelsInflightFetch(t *testing.T) {
	svc := newFakeService()
	c := NewController(context.Background(), svc, nil, todo.FilterAll)
	fetch := c.Init()

	_, cmd := c.Update(key("q"))
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected quit message")
	}

	fetch()
	if lists := svc.callsOf("list"); len(lists) != 1 || !lists[0].cancelled {
		t.Fatalf("in-flight fetch not cancelled: %+v", lists)
	}
}

func TestCtrlCQuitsFromForm(t *testing.T) {
	c := started(t, newFakeService(), todo.FilterAll)
	press(t, c, key("n"))

	_, cmd := c.Update(key("ctrl+c"))
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected quit message")
	}
}
