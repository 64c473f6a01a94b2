package todo

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		body     string
		wantErr  bool
		wantPath string
	}{
		{
			name:   "list ok",
			schema: ListSchema,
			body:   `{"success": true, "tasks": [{"id": 1, "title": "a", "description": null, "status": "active"}]}`,
		},
		{
			name:   "empty list ok",
			schema: ListSchema,
			body:   `{"success": true, "tasks": []}`,
		},
		{
			name:   "failure envelope ok",
			schema: ListSchema,
			body:   `{"success": false, "error": "boom"}`,
		},
		{
			name:    "missing tasks",
			schema:  ListSchema,
			body:    `{"success": true}`,
			wantErr: true,
		},
		{
			name:     "bad status",
			schema:   ListSchema,
			body:     `{"success": true, "tasks": [{"id": 1, "title": "a", "status": "done"}]}`,
			wantErr:  true,
			wantPath: "tasks[0].status",
		},
		{
			name:     "empty title",
			schema:   ListSchema,
			body:     `{"success": true, "tasks": [{"id": "x", "title": "", "status": "active"}]}`,
			wantErr:  true,
			wantPath: "tasks[0].title",
		},
		{
			name:   "item ok",
			schema: ItemSchema,
			body:   `{"success": true, "task": {"id": "9", "title": "a", "status": "completed", "created_at": "2024-01-01T00:00:00Z"}}`,
		},
		{
			name:    "item missing task",
			schema:  ItemSchema,
			body:    `{"success": true}`,
			wantErr: true,
		},
		{
			name:   "naive timestamps ok",
			schema: ListSchema,
			body:   `{"success": true, "tasks": [{"id": 1, "title": "a", "status": "active", "created_at": "2024-05-01T10:00:00.123456"}]}`,
		},
		{
			name:   "bare result ok",
			schema: ResultSchema,
			body:   `{"success": true}`,
		},
		{
			name:   "delete result ok",
			schema: ResultSchema,
			body:   `{"success": true, "message": "Task 1 deleted successfully"}`,
		},
		{
			name:   "result with task ok",
			schema: ResultSchema,
			body:   `{"success": true, "task": {"id": 2, "title": "b", "status": "active"}}`,
		},
		{
			name:     "result with bad task",
			schema:   ResultSchema,
			body:     `{"success": true, "task": {"id": 2, "title": "b", "status": "done"}}`,
			wantErr:  true,
			wantPath: "task.status",
		},
		{
			name:    "not json",
			schema:  ListSchema,
			body:    `<html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEnvelope(tt.schema, []byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateEnvelope() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantPath == "" {
				return
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			found := false
			for _, ve := range verrs {
				if strings.HasPrefix(ve.Path, tt.wantPath) {
					found = true
				}
			}
			if !found {
				t.Errorf("no error at %s: %v", tt.wantPath, err)
			}
		})
	}
}

func TestValidateEnvelopeUnknownSchema(t *testing.T) {
	if err := ValidateEnvelope("nope.json", []byte(`{}`)); err == nil {
		t.Fatal("expected error for unknown schema")
	}
}
