package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// NoteRepository manages a teacher's private notes about students.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository constructs a NoteRepository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// ListByStudent returns all notes for one student, pinned first.
func (r *NoteRepository) ListByStudent(ctx context.Context, teacherID, studentID string) ([]models.Note, error) {
	const query = `SELECT id, teacher_id, student_id, body, pinned, created_at, updated_at
        FROM notes WHERE teacher_id = $1 AND student_id = $2
        ORDER BY pinned DESC, created_at DESC`
	var notes []models.Note
	if err := r.db.SelectContext(ctx, &notes, query, teacherID, studentID); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// FindByID fetches a note scoped to a teacher.
func (r *NoteRepository) FindByID(ctx context.Context, teacherID, id string) (*models.Note, error) {
	const query = `SELECT id, teacher_id, student_id, body, pinned, created_at, updated_at
        FROM notes WHERE id = $1 AND teacher_id = $2`
	var note models.Note
	if err := r.db.GetContext(ctx, &note, query, id, teacherID); err != nil {
		return nil, err
	}
	return &note, nil
}

// Create inserts a new note.
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now
	const query = `INSERT INTO notes (id, teacher_id, student_id, body, pinned, created_at, updated_at)
        VALUES (:id, :teacher_id, :student_id, :body, :pinned, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// Update modifies a note's body and pinned flag.
func (r *NoteRepository) Update(ctx context.Context, note *models.Note) error {
	note.UpdatedAt = time.Now().UTC()
	const query = `UPDATE notes SET body = :body, pinned = :pinned, updated_at = :updated_at
        WHERE id = :id AND teacher_id = :teacher_id`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return nil
}

// Delete removes a note.
func (r *NoteRepository) Delete(ctx context.Context, teacherID, id string) error {
	const query = `DELETE FROM notes WHERE id = $1 AND teacher_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, teacherID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
