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

// PaymentRepository manages persistence for invoices.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// List returns invoices of a teacher matching the filters.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	base := `FROM payments p JOIN students s ON s.id = p.student_id`
	args := []interface{}{filter.TeacherID}
	conditions := []string{"p.teacher_id = $1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("p.created_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("p.created_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"amount":     "p.amount_cents",
		"due_date":   "p.due_date",
		"created_at": "p.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "p.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT p.id, p.teacher_id, p.student_id, p.description, p.amount_cents, p.currency, p.status,
        p.due_date, p.paid_at, p.checkout_url, p.gateway_ref, p.receipt_path, p.created_at, p.updated_at,
        s.full_name AS student_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var payments []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// FindByID fetches an invoice scoped to a teacher.
func (r *PaymentRepository) FindByID(ctx context.Context, teacherID, id string) (*models.PaymentDetail, error) {
	const query = `SELECT p.id, p.teacher_id, p.student_id, p.description, p.amount_cents, p.currency, p.status,
        p.due_date, p.paid_at, p.checkout_url, p.gateway_ref, p.receipt_path, p.created_at, p.updated_at,
        s.full_name AS student_name
        FROM payments p JOIN students s ON s.id = p.student_id
        WHERE p.id = $1 AND p.teacher_id = $2`
	var detail models.PaymentDetail
	if err := r.db.GetContext(ctx, &detail, query, id, teacherID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByGatewayRef resolves an invoice from a gateway order reference.
func (r *PaymentRepository) FindByGatewayRef(ctx context.Context, ref string) (*models.Payment, error) {
	const query = `SELECT id, teacher_id, student_id, description, amount_cents, currency, status,
        due_date, paid_at, checkout_url, gateway_ref, receipt_path, created_at, updated_at
        FROM payments WHERE gateway_ref = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, ref); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create inserts a new invoice.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now
	const query = `INSERT INTO payments (id, teacher_id, student_id, description, amount_cents, currency, status,
        due_date, paid_at, checkout_url, gateway_ref, receipt_path, created_at, updated_at)
        VALUES (:id, :teacher_id, :student_id, :description, :amount_cents, :currency, :status,
        :due_date, :paid_at, :checkout_url, :gateway_ref, :receipt_path, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// Update persists invoice mutations (status transitions, gateway fields).
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	payment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE payments SET description = :description, amount_cents = :amount_cents, currency = :currency,
        status = :status, due_date = :due_date, paid_at = :paid_at, checkout_url = :checkout_url,
        gateway_ref = :gateway_ref, receipt_path = :receipt_path, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

// SetReceiptPath records the rendered receipt location.
func (r *PaymentRepository) SetReceiptPath(ctx context.Context, id, path string) error {
	const query = `UPDATE payments SET receipt_path = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, path, time.Now().UTC()); err != nil {
		return fmt.Errorf("set receipt path: %w", err)
	}
	return nil
}

// MarkOverdue flips PENDING invoices past their due date to OVERDUE.
func (r *PaymentRepository) MarkOverdue(ctx context.Context, teacherID string, asOf time.Time) (int64, error) {
	const query = `UPDATE payments SET status = $3, updated_at = $2
        WHERE teacher_id = $1 AND status = $4 AND due_date IS NOT NULL AND due_date < $2`
	res, err := r.db.ExecContext(ctx, query, teacherID, asOf, models.PaymentStatusOverdue, models.PaymentStatusPending)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return affected, nil
}
