package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestTaskDraftValidateRequiresTitle(t *testing.T) {
	_, err := NewTaskDraft("   ", "details", "")
	if !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestNewTaskDraftTrimsOptionalFields(t *testing.T) {
	draft, err := NewTaskDraft("Buy milk", "  ", "2026-02-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Description != nil {
		t.Fatalf("expected blank description to be absent, got %q", *draft.Description)
	}
	if draft.DueDate == nil || draft.DueDate.String() != "2026-02-09" {
		t.Fatalf("unexpected due date: %+v", draft.DueDate)
	}

	_, err = NewTaskDraft("Buy milk", "", "tomorrow")
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestTaskDraftEncodesAbsentFieldsAsNull(t *testing.T) {
	raw, err := json.Marshal(TaskDraft{Title: "Call mom"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"title":"Call mom","description":null,"due_date":null}`
	if string(raw) != want {
		t.Fatalf("got %s, want %s", raw, want)
	}
}

func TestCompletionPatchSendsOnlyCompletion(t *testing.T) {
	raw, err := json.Marshal(CompletionPatch(true))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"is_completed":true}` {
		t.Fatalf("unexpected patch body: %s", raw)
	}
}

func TestDraftPatchClearsOptionalFields(t *testing.T) {
	raw, err := json.Marshal(TaskDraft{Title: "x"}.Patch())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"description":null,"due_date":null,"title":"x"}` {
		t.Fatalf("unexpected patch body: %s", raw)
	}
}

func TestTaskDecodesServerShape(t *testing.T) {
	body := `{"id":7,"title":"Call mom","description":null,"due_date":"2026-03-01",
		"is_completed":false,"created_at":"2026-02-09T12:00:00Z","updated_at":"2026-02-09T12:00:00Z",
		"created_by":3,"created_by_username":"ana"}`
	var task Task
	if err := json.Unmarshal([]byte(body), &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if task.ID != 7 || task.Description != nil || task.DueDate == nil {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.DueDate.Display() != "Mar 1, 2026" {
		t.Fatalf("unexpected display date: %q", task.DueDate.Display())
	}
	if !task.OwnedBy(3) || task.OwnedBy(4) || task.OwnedBy(0) {
		t.Fatalf("unexpected ownership for %+v", task)
	}
}

func TestTaskMergeKeepsIdentity(t *testing.T) {
	created := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	local := Task{ID: 1, Title: "old", CreatedBy: 3, CreatedByUsername: "ana", CreatedAt: created}
	merged := local.Merge(Task{Title: "new", IsCompleted: true})
	if merged.ID != 1 || merged.CreatedBy != 3 || merged.CreatedByUsername != "ana" || !merged.CreatedAt.Equal(created) {
		t.Fatalf("identity lost in merge: %+v", merged)
	}
	if merged.Title != "new" || !merged.IsCompleted {
		t.Fatalf("update not applied: %+v", merged)
	}
}
