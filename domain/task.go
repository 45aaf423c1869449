package domain

import "time"

// Priority orders tasks by urgency. The persistence layer stores it as a
// plain string so unknown values survive round trips.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Subtask is a checklist entry carried on its parent task.
type Subtask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"isCompleted"`
}

// Comment is a discussion entry carried on its parent task.
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task is a single card on a board.
type Task struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"boardId"`
	ColumnID    string     `json:"columnId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	IsCompleted bool       `json:"isCompleted"`
	IsArchived  bool       `json:"isArchived"`
	ArchivedAt  *time.Time `json:"archivedAt,omitempty"`
	CreatorID   string     `json:"creatorId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Subtasks    []Subtask  `json:"subtasks,omitempty"`
	Comments    []Comment  `json:"comments,omitempty"`
}

// Clone returns a deep copy of the task. Snapshot and rollback code relies on
// the copy sharing no mutable state with the original.
func (t Task) Clone() Task {
	out := t
	if t.ArchivedAt != nil {
		at := *t.ArchivedAt
		out.ArchivedAt = &at
	}
	if t.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(out.Subtasks, t.Subtasks)
	}
	if t.Comments != nil {
		out.Comments = make([]Comment, len(t.Comments))
		copy(out.Comments, t.Comments)
	}
	return out
}

// Normalize fills defaults for records fetched from storage backends that may
// omit optional fields.
func (t *Task) Normalize() {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.IsArchived {
		t.ArchivedAt = nil
	}
}

// TaskDraft carries the caller-supplied fields for task creation. Identity
// and timestamps are assigned by the persistence layer.
type TaskDraft struct {
	BoardID     string   `json:"boardId"`
	ColumnID    string   `json:"columnId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority"`
	CreatorID   string   `json:"creatorId"`
}

// TaskPatch is a partial update. Nil fields are left untouched by the write.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	ColumnID    *string    `json:"columnId,omitempty"`
	IsCompleted *bool      `json:"isCompleted,omitempty"`
	IsArchived  *bool      `json:"isArchived,omitempty"`
	ArchivedAt  *time.Time `json:"archivedAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	Subtasks    *[]Subtask `json:"subtasks,omitempty"`
	Comments    *[]Comment `json:"comments,omitempty"`
}

// PatchFromTask builds a full-record patch, used when an edit surface saves
// every field at once.
func PatchFromTask(t Task) TaskPatch {
	title := t.Title
	desc := t.Description
	prio := t.Priority
	col := t.ColumnID
	done := t.IsCompleted
	archived := t.IsArchived
	updated := t.UpdatedAt
	p := TaskPatch{
		Title:       &title,
		Description: &desc,
		Priority:    &prio,
		ColumnID:    &col,
		IsCompleted: &done,
		IsArchived:  &archived,
		UpdatedAt:   &updated,
	}
	if t.ArchivedAt != nil {
		at := *t.ArchivedAt
		p.ArchivedAt = &at
	}
	if t.Subtasks != nil {
		subs := make([]Subtask, len(t.Subtasks))
		copy(subs, t.Subtasks)
		p.Subtasks = &subs
	}
	if t.Comments != nil {
		comments := make([]Comment, len(t.Comments))
		copy(comments, t.Comments)
		p.Comments = &comments
	}
	return p
}
