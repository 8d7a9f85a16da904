package task

import (
	"database/sql/driver"
	"fmt"
	"time"

	"taskboard/internal/identity"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusToDo        Status = "to_do"
	StatusInProgress  Status = "in_progress"
	StatusUnderReview Status = "under_review"
	StatusCompleted   Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusUnderReview, StatusCompleted:
		return true
	}
	return false
}

// Priority orders tasks by urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

const dateLayout = "2006-01-02"

// Date is a calendar day with no time component; it serializes as
// "YYYY-MM-DD" and maps to a DATE column.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	t, err := time.Parse(`"`+dateLayout+`"`, string(data))
	if err != nil {
		return fmt.Errorf("parse date: %w", err)
	}
	d.Time = t
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.Format(dateLayout), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return fmt.Errorf("scan date: %w", err)
		}
		d.Time = t
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

// Task is a unit of work inside a project. Title is unique among non-deleted
// tasks.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	DueDate     *Date     `json:"due_date"`
	AssignedTo  *int64    `json:"assigned_to"`
	ProjectID   int64     `json:"project_id"`
	CreatedBy   *int64    `json:"created_by"`
	UpdatedBy   *int64    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsDeleted   bool      `json:"is_deleted"`
}

// Response is a task enriched with assignee and creator profile summaries.
type Response struct {
	Task
	Assignee *identity.Profile `json:"assignee"`
	Creator  *identity.Profile `json:"creator"`
}

// CreateRequest is the payload for POST /tasks.
type CreateRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	DueDate     *Date    `json:"due_date"`
	AssignedTo  *int64   `json:"assigned_to"`
	ProjectID   int64    `json:"project_id"`
}

// UpdateRequest is the payload for PUT /tasks/{id}. Absent fields are left
// unchanged.
type UpdateRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Status      *Status   `json:"status"`
	Priority    *Priority `json:"priority"`
	DueDate     *Date     `json:"due_date"`
	AssignedTo  *int64    `json:"assigned_to"`
}
