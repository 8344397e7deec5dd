package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// MaterialRepository manages persistence for teaching materials.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs a MaterialRepository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// List returns materials of a teacher matching the filters.
func (r *MaterialRepository) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error) {
	base := `FROM materials m`
	args := []interface{}{filter.TeacherID}
	conditions := []string{"m.teacher_id = $1"}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM material_shares ms WHERE ms.material_id = m.id AND ms.class_id = $%d)", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(m.title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT m.id, m.teacher_id, m.title, m.description, m.file_name, m.file_path, m.mime_type, m.size_bytes, m.created_at, m.updated_at
        %s ORDER BY m.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var materials []models.Material
	if err := r.db.SelectContext(ctx, &materials, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list materials: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count materials: %w", err)
	}
	return materials, total, nil
}

// FindByID fetches a material scoped to a teacher.
func (r *MaterialRepository) FindByID(ctx context.Context, teacherID, id string) (*models.Material, error) {
	const query = `SELECT id, teacher_id, title, description, file_name, file_path, mime_type, size_bytes, created_at, updated_at
        FROM materials WHERE id = $1 AND teacher_id = $2`
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id, teacherID); err != nil {
		return nil, err
	}
	return &material, nil
}

// Create inserts a new material row.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if material.CreatedAt.IsZero() {
		material.CreatedAt = now
	}
	material.UpdatedAt = now
	const query = `INSERT INTO materials (id, teacher_id, title, description, file_name, file_path, mime_type, size_bytes, created_at, updated_at)
        VALUES (:id, :teacher_id, :title, :description, :file_name, :file_path, :mime_type, :size_bytes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// UpdateMeta modifies title and description only; the file is immutable.
func (r *MaterialRepository) UpdateMeta(ctx context.Context, material *models.Material) error {
	material.UpdatedAt = time.Now().UTC()
	const query = `UPDATE materials SET title = :title, description = :description, updated_at = :updated_at
        WHERE id = :id AND teacher_id = :teacher_id`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return nil
}

// Delete removes a material row.
func (r *MaterialRepository) Delete(ctx context.Context, teacherID, id string) error {
	const query = `DELETE FROM materials WHERE id = $1 AND teacher_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, teacherID); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}

// Share links a material to a class; duplicates are ignored.
func (r *MaterialRepository) Share(ctx context.Context, materialID, classID string) error {
	const query = `INSERT INTO material_shares (id, material_id, class_id, created_at)
        VALUES ($1, $2, $3, $4) ON CONFLICT (material_id, class_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), materialID, classID, time.Now().UTC()); err != nil {
		return fmt.Errorf("share material: %w", err)
	}
	return nil
}

// Unshare removes a material/class link.
func (r *MaterialRepository) Unshare(ctx context.Context, materialID, classID string) error {
	const query = `DELETE FROM material_shares WHERE material_id = $1 AND class_id = $2`
	if _, err := r.db.ExecContext(ctx, query, materialID, classID); err != nil {
		return fmt.Errorf("unshare material: %w", err)
	}
	return nil
}
