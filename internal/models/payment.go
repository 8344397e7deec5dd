package models

import "time"

// PaymentStatus tracks the invoice lifecycle.
type PaymentStatus string

const (
	PaymentStatusDraft   PaymentStatus = "DRAFT"
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusVoid    PaymentStatus = "VOID"
	PaymentStatusOverdue PaymentStatus = "OVERDUE"
)

// Payment is a teacher-issued invoice for a student.
type Payment struct {
	ID          string        `db:"id" json:"id"`
	TeacherID   string        `db:"teacher_id" json:"teacher_id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	Description string        `db:"description" json:"description"`
	AmountCents int64         `db:"amount_cents" json:"amount_cents"`
	Currency    string        `db:"currency" json:"currency"`
	Status      PaymentStatus `db:"status" json:"status"`
	DueDate     *time.Time    `db:"due_date" json:"due_date,omitempty"`
	PaidAt      *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CheckoutURL *string       `db:"checkout_url" json:"checkout_url,omitempty"`
	GatewayRef  *string       `db:"gateway_ref" json:"gateway_ref,omitempty"`
	ReceiptPath *string       `db:"receipt_path" json:"-"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// PaymentDetail joins the payer identity onto the invoice.
type PaymentDetail struct {
	Payment
	StudentName string `db:"student_name" json:"student_name"`
}

// PaymentFilter narrows invoice listings.
type PaymentFilter struct {
	TeacherID string
	StudentID string
	Status    string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
