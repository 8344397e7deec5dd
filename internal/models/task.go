package models

import "time"

// TaskType discriminates the assignment variants.
type TaskType string

const (
	TaskTypeText           TaskType = "TEXT"
	TaskTypeMultipleChoice TaskType = "MULTIPLE_CHOICE"
	TaskTypeFileUpload     TaskType = "FILE_UPLOAD"
)

// TaskStatus is the kanban column a task sits in on the teacher's board.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// MultipleChoiceSpec holds the choices for a MULTIPLE_CHOICE task.
type MultipleChoiceSpec struct {
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correct_index"`
}

// FileUploadSpec constrains FILE_UPLOAD submissions.
type FileUploadSpec struct {
	AllowedExtensions []string `json:"allowed_extensions"`
	MaxSizeBytes      int64    `json:"max_size_bytes"`
}

// TaskSpec is the tagged variant payload; exactly the member matching the
// task type is set. TEXT tasks carry no extra payload.
type TaskSpec struct {
	MultipleChoice *MultipleChoiceSpec `json:"multiple_choice,omitempty"`
	FileUpload     *FileUploadSpec     `json:"file_upload,omitempty"`
}

// Task is an assignment authored by a teacher.
type Task struct {
	ID           string     `db:"id" json:"id"`
	TeacherID    string     `db:"teacher_id" json:"teacher_id"`
	Title        string     `db:"title" json:"title"`
	Instructions string     `db:"instructions" json:"instructions"`
	TaskType     TaskType   `db:"task_type" json:"task_type"`
	Status       TaskStatus `db:"status" json:"status"`
	ClassID      *string    `db:"class_id" json:"class_id,omitempty"`
	DueAt        *time.Time `db:"due_at" json:"due_at,omitempty"`
	SpecRaw      []byte     `db:"spec" json:"-"`
	Spec         TaskSpec   `db:"-" json:"spec"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// TaskAssignment links a task to an individual student.
type TaskAssignment struct {
	ID        string     `db:"id" json:"id"`
	TaskID    string     `db:"task_id" json:"task_id"`
	StudentID string     `db:"student_id" json:"student_id"`
	DueAt     *time.Time `db:"due_at" json:"due_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// AssignedTask is the student-facing view of an assignment.
type AssignedTask struct {
	Task
	AssignmentID string     `db:"assignment_id" json:"assignment_id"`
	AssignedDue  *time.Time `db:"assigned_due" json:"assigned_due,omitempty"`
	Submitted    bool       `db:"submitted" json:"submitted"`
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	TeacherID string
	ClassID   string
	Status    string
	TaskType  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
