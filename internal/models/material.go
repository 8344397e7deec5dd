package models

import "time"

// Material is a stored teaching resource (pdf, image, video, archive).
type Material struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	FileName    string    `db:"file_name" json:"file_name"`
	FilePath    string    `db:"file_path" json:"-"`
	MIMEType    string    `db:"mime_type" json:"mime_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// MaterialShare links a material to a class.
type MaterialShare struct {
	ID         string    `db:"id" json:"id"`
	MaterialID string    `db:"material_id" json:"material_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// MaterialFilter narrows material listings.
type MaterialFilter struct {
	TeacherID string
	ClassID   string
	Search    string
	Page      int
	PageSize  int
}
