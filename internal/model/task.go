package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTitleRequired = errors.New("model: task title is required")
	ErrInvalidDate   = errors.New("model: invalid date")
)

const dateLayout = "2006-01-02"

// Date is a calendar day without a time component. The API exchanges it as
// YYYY-MM-DD.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseDate(raw string) (Date, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return DateOf(parsed), nil
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// Display renders the date the way the list shows it, e.g. "Feb 9, 2026".
func (d Date) Display() string {
	return d.Time().Format("Jan 2, 2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, raw)
	}
	// Servers that return a full timestamp for a date field still parse.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Task mirrors the server representation. Description and DueDate are nil
// when the server sends null.
type Task struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Description       *string   `json:"description"`
	DueDate           *Date     `json:"due_date"`
	IsCompleted       bool      `json:"is_completed"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	CreatedBy         int64     `json:"created_by"`
	CreatedByUsername string    `json:"created_by_username"`
}

func (t Task) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// OwnedBy reports whether userID may edit or delete the task. The server
// enforces ownership; the client only hides controls.
func (t Task) OwnedBy(userID int64) bool {
	return userID != 0 && t.CreatedBy == userID
}

// Merge overlays the server's response onto the local copy. Zero-valued
// identity fields in the response keep the local value.
func (t Task) Merge(updated Task) Task {
	out := updated
	if out.ID == 0 {
		out.ID = t.ID
	}
	if out.CreatedBy == 0 {
		out.CreatedBy = t.CreatedBy
	}
	if out.CreatedByUsername == "" {
		out.CreatedByUsername = t.CreatedByUsername
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = t.CreatedAt
	}
	return out
}

// TaskDraft is the create/update form payload. Absent description and due
// date are sent as null.
type TaskDraft struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *Date   `json:"due_date"`
}

func NewTaskDraft(title, description, dueDate string) (TaskDraft, error) {
	draft := TaskDraft{Title: title}
	if desc := strings.TrimSpace(description); desc != "" {
		draft.Description = &desc
	}
	if raw := strings.TrimSpace(dueDate); raw != "" {
		d, err := ParseDate(raw)
		if err != nil {
			return TaskDraft{}, err
		}
		draft.DueDate = &d
	}
	return draft, draft.Validate()
}

func (d TaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// Patch converts the draft into a partial update carrying all form fields.
func (d TaskDraft) Patch() TaskPatch {
	title := d.Title
	return TaskPatch{
		Title:          &title,
		Description:    d.Description,
		DueDate:        d.DueDate,
		setDescription: true,
		setDueDate:     true,
	}
}

// TaskPatch is a partial update. Only fields that were set are encoded, so
// a completion toggle sends exactly {"is_completed": ...}.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *Date
	IsCompleted *bool

	setDescription bool
	setDueDate     bool
}

func CompletionPatch(done bool) TaskPatch {
	return TaskPatch{IsCompleted: &done}
}

func (p TaskPatch) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, 4)
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.setDescription || p.Description != nil {
		fields["description"] = p.Description
	}
	if p.setDueDate || p.DueDate != nil {
		fields["due_date"] = p.DueDate
	}
	if p.IsCompleted != nil {
		fields["is_completed"] = *p.IsCompleted
	}
	return json.Marshal(fields)
}
